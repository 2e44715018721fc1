package models

import "strings"

// PageSize is the number of results the catalogue returns per page.
const PageSize = 32

// DisplayCap is how many results of a page are shown to the user.
const DisplayCap = 6

// KnownTopics lists the subjects offered by the topic picker.
var KnownTopics = []string{
	"adventure",
	"children",
	"fantasy",
	"fiction",
	"history",
	"horror",
	"humor",
	"mystery",
	"philosophy",
	"poetry",
	"romance",
	"science fiction",
}

// SearchQuery holds the user's search input.
type SearchQuery struct {
	Term  string `json:"term"`
	Topic string `json:"topic,omitempty"`
}

// Blank reports whether the term is empty after trimming whitespace.
func (q SearchQuery) Blank() bool {
	return strings.TrimSpace(q.Term) == ""
}

// ResultPage is one page of catalogue results. It is replaced, never merged.
type ResultPage struct {
	Items       []Book `json:"results"`
	TotalCount  int    `json:"count"`
	HasNext     bool   `json:"has_next"`
	HasPrevious bool   `json:"has_previous"`
}

// PagingState tracks where the user is within a result set.
type PagingState struct {
	CurrentPage int `json:"current_page"`
	TotalPages  int `json:"total_pages"`
}

// TotalPages returns ceil(count / PageSize). Negative counts yield 0.
func TotalPages(count int) int {
	if count <= 0 {
		return 0
	}
	return (count + PageSize - 1) / PageSize
}
