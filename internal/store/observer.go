package store

import (
	"context"
	"time"

	"go.uber.org/zap"

	"book-search/internal/models"
	"book-search/internal/search"
)

// StatusObserver mirrors controller state into a StatusStore after every
// transition that changed it.
type StatusObserver struct {
	store     StatusStore
	sessionID string
	timeout   time.Duration
	logger    *zap.Logger
	now       func() time.Time
}

// NewStatusObserver writes session sessionID to store, bounding each write by timeout.
func NewStatusObserver(store StatusStore, sessionID string, timeout time.Duration, logger *zap.Logger) *StatusObserver {
	if logger == nil {
		logger = zap.NewNop()
	}
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return &StatusObserver{
		store:     store,
		sessionID: sessionID,
		timeout:   timeout,
		logger:    logger,
		now:       time.Now,
	}
}

// Observe stores the post-transition view. Stale outcomes are ignored.
func (o *StatusObserver) Observe(ctx context.Context, t search.Transition) {
	if t.Outcome == search.OutcomeStale {
		return
	}
	status := models.SessionStatus{
		SessionID:  o.sessionID,
		Query:      t.Query,
		Status:     t.View.Status,
		Paging:     t.View.Paging,
		TotalCount: t.View.Page.TotalCount,
		UpdatedAt:  o.now().UTC(),
	}

	writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), o.timeout)
	defer cancel()
	if err := o.store.SetStatus(writeCtx, status); err != nil {
		o.logger.Warn("session status write failed",
			zap.String("session_id", o.sessionID),
			zap.String("outcome", string(t.Outcome)),
			zap.Error(err),
		)
	}
}
