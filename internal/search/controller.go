package search

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"book-search/internal/models"
)

// FailureMessage is the status message shown for any failed fetch.
const FailureMessage = "Something went wrong. Please try again."

// ErrPageOutOfRange is reported to observers when the catalogue answers a page
// beyond the last one its own count allows.
var ErrPageOutOfRange = errors.New("page beyond last page of results")

//go:generate mockgen -destination=../../mocks/mock_search.go -package=mocks book-search/internal/search Fetcher,Observer

// Fetcher retrieves one page of catalogue results.
type Fetcher interface {
	FetchPage(ctx context.Context, query models.SearchQuery, page int) (models.ResultPage, error)
}

// Controller owns the query, request status, result page and paging state of one
// search session. All transitions go through its methods.
//
// Fetches are ordered last-request-wins: every fetch takes a sequence number and
// cancels the fetch before it, and a response whose sequence is no longer the
// latest is discarded without touching state.
type Controller struct {
	fetcher   Fetcher
	logger    *zap.Logger
	observers []Observer

	mu     sync.Mutex
	query  models.SearchQuery
	active models.SearchQuery // query behind the applied page; paging re-uses it
	status models.RequestStatus
	page   models.ResultPage
	paging models.PagingState
	loaded bool
	seq    uint64
	cancel context.CancelFunc
}

// Option customises a Controller.
type Option func(*Controller)

// WithLogger sets the controller's logger. The default discards everything.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Controller) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithObservers registers observers notified of every fetch transition.
func WithObservers(observers ...Observer) Option {
	return func(c *Controller) {
		for _, o := range observers {
			if o != nil {
				c.observers = append(c.observers, o)
			}
		}
	}
}

// NewController builds an idle controller backed by fetcher.
func NewController(fetcher Fetcher, opts ...Option) *Controller {
	c := &Controller{
		fetcher: fetcher,
		logger:  zap.NewNop(),
		status:  models.Idle(),
		paging:  models.PagingState{CurrentPage: 1},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetTerm replaces the search term. It never triggers a fetch.
func (c *Controller) SetTerm(term string) {
	c.mu.Lock()
	c.query.Term = term
	c.mu.Unlock()
}

// SetTopic replaces the topic filter. An empty topic means no filter.
func (c *Controller) SetTopic(topic string) {
	c.mu.Lock()
	c.query.Topic = topic
	c.mu.Unlock()
}

// SubmitSearch fetches page 1 of the current query. A blank term is a no-op and
// reports false.
func (c *Controller) SubmitSearch(ctx context.Context) bool {
	c.mu.Lock()
	query := c.query
	if query.Blank() {
		c.mu.Unlock()
		c.logger.Debug("blank search term ignored")
		return false
	}
	req := c.beginLocked(ctx, query, 1)
	c.mu.Unlock()

	c.run(ctx, req)
	return true
}

// FetchPage fetches page of the current query. Pages below 1 are treated as 1.
// It blocks until the response is applied or discarded; callers that must stay
// responsive run it on their own goroutine.
func (c *Controller) FetchPage(ctx context.Context, page int) {
	if page < 1 {
		page = 1
	}
	c.mu.Lock()
	req := c.beginLocked(ctx, c.query, page)
	c.mu.Unlock()

	c.run(ctx, req)
}

// GoToPreviousPage fetches the page before the current one. It reports false and
// does nothing when already on the first page.
func (c *Controller) GoToPreviousPage(ctx context.Context) bool {
	c.mu.Lock()
	if c.paging.CurrentPage <= 1 {
		c.mu.Unlock()
		return false
	}
	req := c.beginLocked(ctx, c.active, c.paging.CurrentPage-1)
	c.mu.Unlock()

	c.run(ctx, req)
	return true
}

// GoToNextPage fetches the page after the current one. It is gated on the
// locally computed page count: nothing happens once CurrentPage reaches
// TotalPages.
func (c *Controller) GoToNextPage(ctx context.Context) bool {
	c.mu.Lock()
	if c.paging.CurrentPage >= c.paging.TotalPages {
		c.mu.Unlock()
		return false
	}
	req := c.beginLocked(ctx, c.active, c.paging.CurrentPage+1)
	c.mu.Unlock()

	c.run(ctx, req)
	return true
}

// Snapshot returns a read-only copy of the controller state.
func (c *Controller) Snapshot() View {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.viewLocked()
}

type request struct {
	seq    uint64
	query  models.SearchQuery
	page   int
	ctx    context.Context
	cancel context.CancelFunc
	began  Transition
}

// beginLocked supersedes any in-flight fetch and marks the controller loading.
// Caller must hold c.mu.
func (c *Controller) beginLocked(ctx context.Context, query models.SearchQuery, page int) request {
	if c.cancel != nil {
		c.cancel()
	}
	fetchCtx, cancel := context.WithCancel(ctx)
	c.seq++
	c.cancel = cancel
	c.status = models.Loading()

	return request{
		seq:    c.seq,
		query:  query,
		page:   page,
		ctx:    fetchCtx,
		cancel: cancel,
		began: Transition{
			Seq:     c.seq,
			Query:   query,
			Page:    page,
			Outcome: OutcomeStarted,
			View:    c.viewLocked(),
		},
	}
}

func (c *Controller) run(ctx context.Context, req request) {
	c.notify(ctx, req.began)
	defer req.cancel()

	start := time.Now()
	result, err := c.fetcher.FetchPage(req.ctx, req.query, req.page)
	latency := time.Since(start)

	if err == nil {
		if last := max(models.TotalPages(result.TotalCount), 1); req.page > last {
			err = fmt.Errorf("%w: page %d of %d", ErrPageOutOfRange, req.page, last)
		}
	}

	t := Transition{
		Seq:     req.seq,
		Query:   req.query,
		Page:    req.page,
		Err:     err,
		Latency: latency,
	}

	c.mu.Lock()
	switch {
	case req.seq != c.seq:
		t.Outcome = OutcomeStale
		c.logger.Debug("discarding superseded response",
			zap.Uint64("seq", req.seq),
			zap.Uint64("latest", c.seq),
			zap.Int("page", req.page),
		)
	case err != nil:
		t.Outcome = OutcomeFailed
		c.cancel = nil
		c.status = models.Failed(FailureMessage)
		c.logger.Warn("search fetch failed",
			zap.String("term", req.query.Term),
			zap.String("topic", req.query.Topic),
			zap.Int("page", req.page),
			zap.Error(err),
		)
	default:
		t.Outcome = OutcomeApplied
		c.cancel = nil
		c.active = req.query
		c.page = result
		c.paging = models.PagingState{
			CurrentPage: req.page,
			TotalPages:  models.TotalPages(result.TotalCount),
		}
		c.loaded = true
		c.status = models.Succeeded()
	}
	t.View = c.viewLocked()
	c.mu.Unlock()

	c.notify(ctx, t)
}

func (c *Controller) viewLocked() View {
	return View{
		Query:   c.query,
		Applied: c.active,
		Status:  c.status,
		Paging:  c.paging,
		Page:    c.page,
		Loaded:  c.loaded,
	}
}
