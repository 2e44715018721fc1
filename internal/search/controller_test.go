package search_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"reflect"
	"sync"
	"testing"

	"github.com/golang/mock/gomock"

	"book-search/internal/gutendex"
	"book-search/internal/models"
	"book-search/internal/search"
	"book-search/mocks"
)

func makeBooks(start, n int) []models.Book {
	books := make([]models.Book, n)
	for i := range books {
		id := start + i
		books[i] = models.Book{
			ID:      id,
			Title:   fmt.Sprintf("Book %d", id),
			Authors: []models.Person{{Name: fmt.Sprintf("Author %d", id)}},
			Formats: map[string]string{models.FormatCover: fmt.Sprintf("https://example.org/%d.jpg", id)},
		}
	}
	return books
}

func newTestController(t *testing.T, opts ...search.Option) (*search.Controller, *mocks.MockFetcher) {
	t.Helper()

	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	fetcher := mocks.NewMockFetcher(ctrl)
	return search.NewController(fetcher, opts...), fetcher
}

func TestNewControllerIsIdle(t *testing.T) {
	c, _ := newTestController(t)
	v := c.Snapshot()
	if v.Status.Phase != models.PhaseIdle {
		t.Fatalf("expected idle, got %s", v.Status.Phase)
	}
	if v.Loaded || v.NoResults() {
		t.Fatal("expected nothing loaded")
	}
	if len(v.VisibleItems()) != 0 {
		t.Fatalf("expected no visible items, got %d", len(v.VisibleItems()))
	}
}

func TestSubmitSearchBlankTermIsNoop(t *testing.T) {
	c, fetcher := newTestController(t)
	fetcher.EXPECT().FetchPage(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

	for _, term := range []string{"", "   ", "\t\n"} {
		c.SetTerm(term)
		before := c.Snapshot()
		if c.SubmitSearch(context.Background()) {
			t.Fatalf("expected blank term %q to be rejected", term)
		}
		if after := c.Snapshot(); !reflect.DeepEqual(before, after) {
			t.Fatalf("state changed for blank term %q: %+v -> %+v", term, before, after)
		}
	}
}

func TestSubmitSearchFirstPage(t *testing.T) {
	c, fetcher := newTestController(t)
	fetcher.EXPECT().
		FetchPage(gomock.Any(), models.SearchQuery{Term: "dog"}, 1).
		Return(models.ResultPage{Items: makeBooks(1, 32), TotalCount: 70, HasNext: true}, nil)

	c.SetTerm("dog")
	if !c.SubmitSearch(context.Background()) {
		t.Fatal("expected search to be issued")
	}

	v := c.Snapshot()
	if v.Status.Phase != models.PhaseSucceeded {
		t.Fatalf("expected succeeded, got %+v", v.Status)
	}
	if v.Paging != (models.PagingState{CurrentPage: 1, TotalPages: 3}) {
		t.Fatalf("unexpected paging: %+v", v.Paging)
	}
	visible := v.VisibleItems()
	if len(visible) != 6 {
		t.Fatalf("expected 6 visible items, got %d", len(visible))
	}
	for i, b := range visible {
		if b.ID != i+1 {
			t.Fatalf("visible item %d has id %d", i, b.ID)
		}
	}
	if len(v.Page.Items) != 32 {
		t.Fatalf("expected the full page to be held, got %d", len(v.Page.Items))
	}
}

func TestSubmitSearchEndToEnd(t *testing.T) {
	var gotURI string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotURI = r.URL.RequestURI()
		books := makeBooks(1, 32)
		body := `{"count":70,"next":"https://example.org/books?page=2","previous":null,"results":[`
		for i, b := range books {
			if i > 0 {
				body += ","
			}
			body += fmt.Sprintf(`{"id":%d,"title":%q,"authors":[{"name":"A"}],"formats":{"image/jpeg":"x"}}`, b.ID, b.Title)
		}
		body += "]}"
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)

	c := search.NewController(gutendex.NewClient(srv.URL))
	c.SetTerm("dog")
	c.SetTopic("")
	c.SubmitSearch(context.Background())

	if gotURI != "/books?search=dog&page=1" {
		t.Fatalf("unexpected request uri: %s", gotURI)
	}
	v := c.Snapshot()
	if v.Paging.TotalPages != 3 || v.Paging.CurrentPage != 1 {
		t.Fatalf("unexpected paging: %+v", v.Paging)
	}
	if !v.Page.HasNext {
		t.Fatal("expected has next")
	}
	visible := v.VisibleItems()
	if len(visible) != 6 || visible[0].ID != 1 || visible[5].ID != 6 {
		t.Fatalf("unexpected visible items: %+v", visible)
	}
}

func TestFetchFailureLeavesStateUnchanged(t *testing.T) {
	c, fetcher := newTestController(t)
	gomock.InOrder(
		fetcher.EXPECT().
			FetchPage(gomock.Any(), gomock.Any(), 1).
			Return(models.ResultPage{Items: makeBooks(1, 32), TotalCount: 70, HasNext: true}, nil),
		fetcher.EXPECT().
			FetchPage(gomock.Any(), gomock.Any(), 2).
			Return(models.ResultPage{}, errors.New("connection refused")),
	)

	c.SetTerm("dog")
	c.SubmitSearch(context.Background())
	before := c.Snapshot()

	if !c.GoToNextPage(context.Background()) {
		t.Fatal("expected next page request")
	}

	after := c.Snapshot()
	if after.Status != models.Failed(search.FailureMessage) {
		t.Fatalf("unexpected status: %+v", after.Status)
	}
	if after.Paging != before.Paging {
		t.Fatalf("paging changed: %+v -> %+v", before.Paging, after.Paging)
	}
	if !reflect.DeepEqual(after.Page, before.Page) {
		t.Fatal("result page changed after failure")
	}
}

func TestFailureBeforeAnyResults(t *testing.T) {
	c, fetcher := newTestController(t)
	fetcher.EXPECT().
		FetchPage(gomock.Any(), gomock.Any(), 1).
		Return(models.ResultPage{}, &gutendex.StatusError{Code: http.StatusBadGateway})

	c.SetTerm("dog")
	c.SubmitSearch(context.Background())

	v := c.Snapshot()
	if v.Status.Phase != models.PhaseFailed || v.Status.Message != search.FailureMessage {
		t.Fatalf("unexpected status: %+v", v.Status)
	}
	if v.Loaded || v.NoResults() {
		t.Fatal("failure must not look like a loaded or empty result")
	}
	if v.Paging != (models.PagingState{CurrentPage: 1}) {
		t.Fatalf("unexpected paging: %+v", v.Paging)
	}
}

func TestRetryAfterFailureClearsError(t *testing.T) {
	c, fetcher := newTestController(t)
	gomock.InOrder(
		fetcher.EXPECT().FetchPage(gomock.Any(), gomock.Any(), 1).Return(models.ResultPage{}, errors.New("boom")),
		fetcher.EXPECT().FetchPage(gomock.Any(), gomock.Any(), 1).Return(models.ResultPage{Items: makeBooks(1, 3), TotalCount: 3}, nil),
	)

	c.SetTerm("dog")
	c.SubmitSearch(context.Background())
	c.SubmitSearch(context.Background())

	v := c.Snapshot()
	if v.Status != models.Succeeded() {
		t.Fatalf("expected success with no message, got %+v", v.Status)
	}
}

func TestEmptyResultIsNoResults(t *testing.T) {
	c, fetcher := newTestController(t)
	fetcher.EXPECT().
		FetchPage(gomock.Any(), gomock.Any(), 1).
		Return(models.ResultPage{Items: []models.Book{}, TotalCount: 0}, nil)

	c.SetTerm("zzzzzz")
	c.SubmitSearch(context.Background())

	v := c.Snapshot()
	if !v.NoResults() {
		t.Fatal("expected no-results state")
	}
	if v.Status.Phase != models.PhaseSucceeded {
		t.Fatalf("expected succeeded, got %s", v.Status.Phase)
	}
	if got := v.VisibleItems(); len(got) != 0 {
		t.Fatalf("expected empty visible items, got %d", len(got))
	}
	if v.Paging != (models.PagingState{CurrentPage: 1, TotalPages: 0}) {
		t.Fatalf("unexpected paging: %+v", v.Paging)
	}
}

func TestGoToPreviousPageNoopOnFirstPage(t *testing.T) {
	c, fetcher := newTestController(t)
	fetcher.EXPECT().
		FetchPage(gomock.Any(), gomock.Any(), 1).
		Return(models.ResultPage{Items: makeBooks(1, 32), TotalCount: 70}, nil).
		Times(1)

	c.SetTerm("dog")
	c.SubmitSearch(context.Background())
	before := c.Snapshot()

	if c.GoToPreviousPage(context.Background()) {
		t.Fatal("expected previous page to be refused on page 1")
	}
	if after := c.Snapshot(); !reflect.DeepEqual(before, after) {
		t.Fatal("state changed on refused previous page")
	}
}

func TestPagingBeforeSearchIsNoop(t *testing.T) {
	c, fetcher := newTestController(t)
	fetcher.EXPECT().FetchPage(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

	if c.GoToNextPage(context.Background()) {
		t.Fatal("expected next to be refused before any search")
	}
	if c.GoToPreviousPage(context.Background()) {
		t.Fatal("expected previous to be refused before any search")
	}
}

func TestGoToNextPageStopsAtLastPage(t *testing.T) {
	c, fetcher := newTestController(t)
	gomock.InOrder(
		fetcher.EXPECT().
			FetchPage(gomock.Any(), gomock.Any(), 1).
			Return(models.ResultPage{Items: makeBooks(1, 32), TotalCount: 40, HasNext: true}, nil),
		fetcher.EXPECT().
			FetchPage(gomock.Any(), gomock.Any(), 2).
			Return(models.ResultPage{Items: makeBooks(33, 8), TotalCount: 40, HasPrevious: true}, nil),
	)

	c.SetTerm("dog")
	c.SubmitSearch(context.Background())
	if !c.GoToNextPage(context.Background()) {
		t.Fatal("expected page 2 to be requested")
	}
	if c.GoToNextPage(context.Background()) {
		t.Fatal("expected next to be refused on the last page")
	}

	v := c.Snapshot()
	if v.Paging != (models.PagingState{CurrentPage: 2, TotalPages: 2}) {
		t.Fatalf("unexpected paging: %+v", v.Paging)
	}
	if v.VisibleItems()[0].ID != 33 {
		t.Fatalf("unexpected first item: %d", v.VisibleItems()[0].ID)
	}
	if v.CanGoForward() || !v.CanGoBack() {
		t.Fatal("unexpected pager hints on last page")
	}
}

func TestGoToPreviousPageFetchesEarlierPage(t *testing.T) {
	c, fetcher := newTestController(t)
	gomock.InOrder(
		fetcher.EXPECT().
			FetchPage(gomock.Any(), gomock.Any(), 3).
			Return(models.ResultPage{Items: makeBooks(65, 6), TotalCount: 70}, nil),
		fetcher.EXPECT().
			FetchPage(gomock.Any(), gomock.Any(), 2).
			Return(models.ResultPage{Items: makeBooks(33, 32), TotalCount: 70}, nil),
	)

	c.SetTerm("dog")
	c.FetchPage(context.Background(), 3)
	if !c.GoToPreviousPage(context.Background()) {
		t.Fatal("expected previous page request")
	}
	if got := c.Snapshot().Paging.CurrentPage; got != 2 {
		t.Fatalf("expected page 2, got %d", got)
	}
}

func TestPagingUsesSubmittedQuery(t *testing.T) {
	c, fetcher := newTestController(t)
	submitted := models.SearchQuery{Term: "dog", Topic: "children"}
	gomock.InOrder(
		fetcher.EXPECT().
			FetchPage(gomock.Any(), submitted, 1).
			Return(models.ResultPage{Items: makeBooks(1, 32), TotalCount: 70}, nil),
		fetcher.EXPECT().
			FetchPage(gomock.Any(), submitted, 2).
			Return(models.ResultPage{Items: makeBooks(33, 32), TotalCount: 70}, nil),
	)

	c.SetTerm("dog")
	c.SetTopic("children")
	c.SubmitSearch(context.Background())
	c.SetTerm("cat")
	c.SetTopic("")
	c.GoToNextPage(context.Background())

	v := c.Snapshot()
	if v.Query != (models.SearchQuery{Term: "cat"}) {
		t.Fatalf("edited query should be kept for the next submit: %+v", v.Query)
	}
}

func TestFailedSearchKeepsPagingOnShownResults(t *testing.T) {
	c, fetcher := newTestController(t)
	dog := models.SearchQuery{Term: "dog"}
	cat := models.SearchQuery{Term: "cat"}
	gomock.InOrder(
		fetcher.EXPECT().
			FetchPage(gomock.Any(), dog, 1).
			Return(models.ResultPage{Items: makeBooks(1, 32), TotalCount: 70}, nil),
		fetcher.EXPECT().
			FetchPage(gomock.Any(), dog, 2).
			Return(models.ResultPage{Items: makeBooks(33, 32), TotalCount: 70}, nil),
		fetcher.EXPECT().
			FetchPage(gomock.Any(), cat, 1).
			Return(models.ResultPage{}, errors.New("connection reset")),
		fetcher.EXPECT().
			FetchPage(gomock.Any(), dog, 3).
			Return(models.ResultPage{Items: makeBooks(65, 6), TotalCount: 70}, nil),
	)

	c.SetTerm("dog")
	c.SubmitSearch(context.Background())
	c.GoToNextPage(context.Background())
	c.SetTerm("cat")
	c.SubmitSearch(context.Background())

	v := c.Snapshot()
	if v.Status.Phase != models.PhaseFailed {
		t.Fatalf("expected failed, got %s", v.Status.Phase)
	}
	if v.Applied != dog {
		t.Fatalf("failed search replaced the shown query: %+v", v.Applied)
	}

	if !c.GoToNextPage(context.Background()) {
		t.Fatal("expected next page request")
	}
	v = c.Snapshot()
	if v.Paging != (models.PagingState{CurrentPage: 3, TotalPages: 3}) || v.Applied != dog {
		t.Fatalf("unexpected state after next: %+v %+v", v.Paging, v.Applied)
	}
	if v.Query != cat {
		t.Fatalf("edited term should be kept: %+v", v.Query)
	}
}

func TestSettersDoNotTouchStatus(t *testing.T) {
	c, fetcher := newTestController(t)
	fetcher.EXPECT().
		FetchPage(gomock.Any(), gomock.Any(), 1).
		Return(models.ResultPage{}, errors.New("boom"))

	c.SetTerm("dog")
	c.SubmitSearch(context.Background())
	c.SetTerm("cat")
	c.SetTopic("poetry")

	if got := c.Snapshot().Status.Phase; got != models.PhaseFailed {
		t.Fatalf("setters changed status to %s", got)
	}
}

func TestFetchPageClampsToFirstPage(t *testing.T) {
	c, fetcher := newTestController(t)
	fetcher.EXPECT().
		FetchPage(gomock.Any(), gomock.Any(), 1).
		Return(models.ResultPage{Items: makeBooks(1, 1), TotalCount: 1}, nil)

	c.SetTerm("dog")
	c.FetchPage(context.Background(), 0)
	if got := c.Snapshot().Paging.CurrentPage; got != 1 {
		t.Fatalf("expected page 1, got %d", got)
	}
}

func TestFetchPageBeyondLastPageIsRejected(t *testing.T) {
	c, fetcher := newTestController(t)
	gomock.InOrder(
		fetcher.EXPECT().
			FetchPage(gomock.Any(), gomock.Any(), 1).
			Return(models.ResultPage{Items: makeBooks(1, 32), TotalCount: 70}, nil),
		fetcher.EXPECT().
			FetchPage(gomock.Any(), gomock.Any(), 9).
			Return(models.ResultPage{Items: []models.Book{}, TotalCount: 70}, nil),
	)

	c.SetTerm("dog")
	c.SubmitSearch(context.Background())
	c.FetchPage(context.Background(), 9)

	v := c.Snapshot()
	if v.Status.Phase != models.PhaseFailed {
		t.Fatalf("expected failure, got %s", v.Status.Phase)
	}
	if v.Paging != (models.PagingState{CurrentPage: 1, TotalPages: 3}) {
		t.Fatalf("paging must stay in range: %+v", v.Paging)
	}
}

func TestObserversSeeStartThenOutcome(t *testing.T) {
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	fetcher := mocks.NewMockFetcher(ctrl)
	observer := mocks.NewMockObserver(ctrl)
	c := search.NewController(fetcher, search.WithObservers(observer))

	fetcher.EXPECT().
		FetchPage(gomock.Any(), gomock.Any(), 1).
		Return(models.ResultPage{Items: makeBooks(1, 2), TotalCount: 2}, nil)

	gomock.InOrder(
		observer.EXPECT().Observe(gomock.Any(), gomock.Any()).Do(func(_ context.Context, tr search.Transition) {
			if tr.Outcome != search.OutcomeStarted || tr.View.Status.Phase != models.PhaseLoading {
				t.Errorf("unexpected first transition: %+v", tr)
			}
		}),
		observer.EXPECT().Observe(gomock.Any(), gomock.Any()).Do(func(_ context.Context, tr search.Transition) {
			if tr.Outcome != search.OutcomeApplied || tr.Seq != 1 || tr.Page != 1 {
				t.Errorf("unexpected second transition: %+v", tr)
			}
			if tr.View.Paging.TotalPages != 1 {
				t.Errorf("unexpected paging in transition: %+v", tr.View.Paging)
			}
		}),
	)

	c.SetTerm("dog")
	c.SubmitSearch(context.Background())
}

// gatedFetcher blocks each page until its gate is closed, then answers whether
// or not the request context was cancelled, like a response that arrives late.
type gatedFetcher struct {
	mu      sync.Mutex
	started chan int
	gates   map[int]chan struct{}
	ctxs    map[int]context.Context
	results map[int]models.ResultPage
	errs    map[int]error
}

func newGatedFetcher() *gatedFetcher {
	return &gatedFetcher{
		started: make(chan int, 4),
		gates:   map[int]chan struct{}{1: make(chan struct{}), 2: make(chan struct{})},
		ctxs:    map[int]context.Context{},
		results: map[int]models.ResultPage{},
		errs:    map[int]error{},
	}
}

func (f *gatedFetcher) FetchPage(ctx context.Context, _ models.SearchQuery, page int) (models.ResultPage, error) {
	f.mu.Lock()
	f.ctxs[page] = ctx
	gate := f.gates[page]
	f.mu.Unlock()

	f.started <- page
	<-gate

	f.mu.Lock()
	defer f.mu.Unlock()
	return f.results[page], f.errs[page]
}

func (f *gatedFetcher) ctx(page int) context.Context {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.ctxs[page]
}

type outcomeLog struct {
	mu       sync.Mutex
	outcomes []search.Outcome
}

func (l *outcomeLog) Observe(_ context.Context, t search.Transition) {
	l.mu.Lock()
	l.outcomes = append(l.outcomes, t.Outcome)
	l.mu.Unlock()
}

func (l *outcomeLog) count(o search.Outcome) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for _, got := range l.outcomes {
		if got == o {
			n++
		}
	}
	return n
}

func TestLateResponseForSupersededRequestIsDiscarded(t *testing.T) {
	fetcher := newGatedFetcher()
	fetcher.results[1] = models.ResultPage{Items: makeBooks(1, 32), TotalCount: 70}
	fetcher.results[2] = models.ResultPage{Items: makeBooks(33, 32), TotalCount: 70}

	log := &outcomeLog{}
	c := search.NewController(fetcher, search.WithObservers(log))
	c.SetTerm("dog")

	done1 := make(chan struct{})
	go func() {
		c.FetchPage(context.Background(), 1)
		close(done1)
	}()
	if got := <-fetcher.started; got != 1 {
		t.Fatalf("expected page 1 to start, got %d", got)
	}
	if phase := c.Snapshot().Status.Phase; phase != models.PhaseLoading {
		t.Fatalf("expected loading while page 1 is in flight, got %s", phase)
	}

	done2 := make(chan struct{})
	go func() {
		c.FetchPage(context.Background(), 2)
		close(done2)
	}()
	if got := <-fetcher.started; got != 2 {
		t.Fatalf("expected page 2 to start, got %d", got)
	}
	if err := fetcher.ctx(1).Err(); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected superseded request to be cancelled, got %v", err)
	}

	close(fetcher.gates[2])
	<-done2
	if got := c.Snapshot().Paging.CurrentPage; got != 2 {
		t.Fatalf("expected page 2 applied, got %d", got)
	}

	close(fetcher.gates[1])
	<-done1

	v := c.Snapshot()
	if v.Paging.CurrentPage != 2 || v.VisibleItems()[0].ID != 33 {
		t.Fatalf("late page 1 response overwrote page 2: %+v", v.Paging)
	}
	if v.Status.Phase != models.PhaseSucceeded {
		t.Fatalf("unexpected status: %+v", v.Status)
	}
	if log.count(search.OutcomeStale) != 1 || log.count(search.OutcomeApplied) != 1 {
		t.Fatalf("unexpected outcomes: %+v", log.outcomes)
	}
}

func TestLateFailureForSupersededRequestIsIgnored(t *testing.T) {
	fetcher := newGatedFetcher()
	fetcher.errs[1] = context.Canceled
	fetcher.results[2] = models.ResultPage{Items: makeBooks(33, 32), TotalCount: 70}

	c := search.NewController(fetcher)
	c.SetTerm("dog")

	done1 := make(chan struct{})
	go func() {
		c.FetchPage(context.Background(), 1)
		close(done1)
	}()
	<-fetcher.started

	done2 := make(chan struct{})
	go func() {
		c.FetchPage(context.Background(), 2)
		close(done2)
	}()
	<-fetcher.started

	close(fetcher.gates[1])
	<-done1
	if phase := c.Snapshot().Status.Phase; phase != models.PhaseLoading {
		t.Fatalf("stale failure must not end the newer request, got %s", phase)
	}

	close(fetcher.gates[2])
	<-done2
	if phase := c.Snapshot().Status.Phase; phase != models.PhaseSucceeded {
		t.Fatalf("expected succeeded, got %s", phase)
	}
}
