package kafka

import (
	"context"
	"time"

	"go.uber.org/zap"

	"book-search/internal/models"
	"book-search/internal/search"
)

// EventObserver turns completed fetches into search events.
type EventObserver struct {
	producer  EventProducer
	sessionID string
	timeout   time.Duration
	logger    *zap.Logger
}

// NewEventObserver publishes through producer, tagging events with sessionID.
// Each write is bounded by timeout so a slow broker never stalls the session.
func NewEventObserver(producer EventProducer, sessionID string, timeout time.Duration, logger *zap.Logger) *EventObserver {
	if logger == nil {
		logger = zap.NewNop()
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &EventObserver{
		producer:  producer,
		sessionID: sessionID,
		timeout:   timeout,
		logger:    logger,
	}
}

// Observe publishes applied and failed outcomes; started and stale ones are skipped.
func (o *EventObserver) Observe(ctx context.Context, t search.Transition) {
	event, ok := o.eventFor(t)
	if !ok {
		return
	}
	writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), o.timeout)
	defer cancel()
	if err := o.producer.WriteEvent(writeCtx, event); err != nil {
		o.logger.Warn("search event publish failed",
			zap.String("session_id", o.sessionID),
			zap.Uint64("seq", t.Seq),
			zap.Error(err),
		)
	}
}

func (o *EventObserver) eventFor(t search.Transition) (models.SearchEvent, bool) {
	event := models.SearchEvent{
		SessionID:   o.sessionID,
		Sequence:    t.Seq,
		Term:        t.Query.Term,
		Topic:       t.Query.Topic,
		Page:        t.Page,
		LatencyMS:   t.Latency.Milliseconds(),
		CompletedAt: time.Now().UTC(),
	}
	switch t.Outcome {
	case search.OutcomeApplied:
		event.Phase = models.PhaseSucceeded
		event.TotalCount = t.View.Page.TotalCount
		event.TotalPages = t.View.Paging.TotalPages
		event.Items = len(t.View.Page.Items)
	case search.OutcomeFailed:
		event.Phase = models.PhaseFailed
		if t.Err != nil {
			event.Error = t.Err.Error()
		}
	default:
		return models.SearchEvent{}, false
	}
	return event, true
}
