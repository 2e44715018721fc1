// Package render prints controller views for a terminal.
package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"book-search/internal/models"
	"book-search/internal/search"
)

var (
	titleColor = color.New(color.Bold)
	errorColor = color.New(color.FgRed)
	dimColor   = color.New(color.Faint)
)

// View writes the status line, visible cards and pager for v.
func View(w io.Writer, v search.View) {
	switch v.Status.Phase {
	case models.PhaseIdle:
		fmt.Fprintln(w, "Enter a search term to begin.")
		return
	case models.PhaseLoading:
		fmt.Fprintln(w, "Loading...")
		return
	case models.PhaseFailed:
		errorColor.Fprintln(w, v.Status.Message)
		return
	}

	if v.NoResults() {
		fmt.Fprintf(w, "No results for %q.\n", v.Applied.Term)
		return
	}

	for i, book := range v.VisibleItems() {
		Card(w, i+1, book)
	}
	Pager(w, v)
}

// Card writes one book.
func Card(w io.Writer, n int, book models.Book) {
	titleColor.Fprintf(w, "%d. %s\n", n, book.Title)
	if authors := book.AuthorNames(); authors != "" {
		fmt.Fprintf(w, "   by %s\n", authors)
	}
	if cover := book.CoverURL(); cover != "" {
		dimColor.Fprintf(w, "   cover: %s\n", cover)
	}
	if link := book.ReadURL(); link != "" {
		dimColor.Fprintf(w, "   read:  %s\n", link)
	}
}

// Pager writes the page position and which directions are available.
func Pager(w io.Writer, v search.View) {
	var hints []string
	if v.CanGoBack() {
		hints = append(hints, "prev")
	}
	if v.CanGoForward() {
		hints = append(hints, "next")
	}
	line := fmt.Sprintf("Page %d of %d (%d results)", v.Paging.CurrentPage, v.Paging.TotalPages, v.Page.TotalCount)
	if len(hints) > 0 {
		line += " [" + strings.Join(hints, " | ") + "]"
	}
	fmt.Fprintln(w, line)
}

// Topics writes the known topic list.
func Topics(w io.Writer) {
	for _, t := range models.KnownTopics {
		fmt.Fprintf(w, "  %s\n", t)
	}
}
