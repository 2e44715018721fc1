package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"book-search/internal/models"
	"book-search/internal/render"
	"book-search/internal/search"
)

var errSearchFailed = errors.New("search failed")

func newQueryCmd(a *app) *cobra.Command {
	var term, topic string
	var page int

	cmd := &cobra.Command{
		Use:   "query [term]",
		Short: "Run one search and print a page of results",
		Example: `  # First page of books matching "dog"
  booksearch query dog

  # Third page, children's books only
  booksearch query --term "sherlock holmes" --topic children --page 3`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 && term == "" {
				term = args[0]
			}
			s := a.newSession(cmd.Context(), "")
			defer func() {
				if err := s.Close(); err != nil {
					a.logger.Warn("session close error", zap.Error(err))
				}
			}()

			view, err := runQuery(cmd, s.controller, models.SearchQuery{Term: term, Topic: topic}, page)
			if err != nil {
				return err
			}
			render.View(cmd.OutOrStdout(), view)
			if view.Status.Phase == models.PhaseFailed {
				return errSearchFailed
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&term, "term", "t", "", "Search term (title or author)")
	cmd.Flags().StringVar(&topic, "topic", "", "Optional topic filter")
	cmd.Flags().IntVarP(&page, "page", "p", 1, "Page number, starting at 1")

	return cmd
}

func runQuery(cmd *cobra.Command, ctrl *search.Controller, query models.SearchQuery, page int) (search.View, error) {
	if query.Blank() {
		return search.View{}, fmt.Errorf("a search term is required")
	}
	if page < 1 {
		return search.View{}, fmt.Errorf("page must be at least 1, got %d", page)
	}
	ctrl.SetTerm(query.Term)
	ctrl.SetTopic(query.Topic)
	if page == 1 {
		ctrl.SubmitSearch(cmd.Context())
	} else {
		ctrl.FetchPage(cmd.Context(), page)
	}
	return ctrl.Snapshot(), nil
}
