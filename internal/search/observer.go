package search

import (
	"context"
	"time"

	"book-search/internal/models"
)

// Outcome classifies a fetch transition.
type Outcome string

const (
	OutcomeStarted Outcome = "started"
	OutcomeApplied Outcome = "applied"
	OutcomeFailed  Outcome = "failed"
	OutcomeStale   Outcome = "stale"
)

// Transition describes one step of a fetch. View is the controller state right
// after the step; for stale outcomes it is unchanged by the step.
type Transition struct {
	Seq     uint64
	Query   models.SearchQuery
	Page    int
	Outcome Outcome
	Err     error
	Latency time.Duration
	View    View
}

// Observer is notified of fetch transitions, outside the controller lock.
type Observer interface {
	Observe(ctx context.Context, t Transition)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(ctx context.Context, t Transition)

func (f ObserverFunc) Observe(ctx context.Context, t Transition) {
	f(ctx, t)
}

func (c *Controller) notify(ctx context.Context, t Transition) {
	for _, o := range c.observers {
		o.Observe(ctx, t)
	}
}
