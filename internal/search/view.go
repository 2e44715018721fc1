package search

import "book-search/internal/models"

// View is a point-in-time copy of controller state for the presentation layer.
type View struct {
	Query   models.SearchQuery // current, possibly unsubmitted, query
	Applied models.SearchQuery // query that produced Page
	Status  models.RequestStatus
	Paging  models.PagingState
	Page    models.ResultPage
	Loaded  bool // a page has been applied at least once
}

// VisibleItems returns the first models.DisplayCap items of the current page.
// The rest of the page is fetched but not shown.
func (v View) VisibleItems() []models.Book {
	items := v.Page.Items
	if len(items) > models.DisplayCap {
		items = items[:models.DisplayCap]
	}
	out := make([]models.Book, len(items))
	copy(out, items)
	return out
}

// NoResults reports a successful fetch that matched nothing.
func (v View) NoResults() bool {
	return v.Loaded && v.Status.Phase == models.PhaseSucceeded && len(v.Page.Items) == 0
}

// CanGoBack reports whether GoToPreviousPage would issue a request.
func (v View) CanGoBack() bool {
	return v.Paging.CurrentPage > 1
}

// CanGoForward reports whether GoToNextPage would issue a request.
func (v View) CanGoForward() bool {
	return v.Paging.CurrentPage < v.Paging.TotalPages
}
