package models

import "time"

// SessionStatus mirrors a search session's controller state for outside readers.
type SessionStatus struct {
	SessionID  string        `json:"session_id"`
	Query      SearchQuery   `json:"query"`
	Status     RequestStatus `json:"status"`
	Paging     PagingState   `json:"paging"`
	TotalCount int           `json:"total_count"`
	UpdatedAt  time.Time     `json:"updated_at"`
}
