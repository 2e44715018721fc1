package models

import "time"

// SearchEvent is the payload written to the search events topic.
type SearchEvent struct {
	SessionID   string       `json:"session_id"`
	Sequence    uint64       `json:"sequence"`
	Term        string       `json:"term"`
	Topic       string       `json:"topic,omitempty"`
	Page        int          `json:"page"`
	Phase       RequestPhase `json:"phase"`
	TotalCount  int          `json:"total_count"`
	TotalPages  int          `json:"total_pages"`
	Items       int          `json:"items"`
	Error       string       `json:"error,omitempty"`
	LatencyMS   int64        `json:"latency_ms"`
	CompletedAt time.Time    `json:"completed_at"`
}
