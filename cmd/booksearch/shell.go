package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"book-search/internal/render"
	"book-search/internal/search"
)

const shellHelp = `Commands:
  term TEXT      set the search term
  topic [NAME]   set the topic filter (no name clears it)
  topics         list suggested topics
  search [TEXT]  search (optionally setting the term first)
  next, prev     move between pages
  page N         jump to page N
  show           print the current results
  help           show this help
  quit           leave the shell`

func newShellCmd(a *app) *cobra.Command {
	var sessionID string

	cmd := &cobra.Command{
		Use:   "shell",
		Short: "Interactive search session",
		Long: `Starts an interactive session that keeps the search term, topic,
results and page position between commands.

` + shellHelp,
		RunE: func(cmd *cobra.Command, args []string) error {
			s := a.newSession(cmd.Context(), sessionID)
			defer func() {
				if err := s.Close(); err != nil {
					a.logger.Warn("session close error", zap.Error(err))
				}
			}()
			fmt.Fprintf(cmd.OutOrStdout(), "session %s\n", s.id)
			return runShell(cmd.Context(), s.controller, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&sessionID, "session", "", "Session id for events and status (default: new UUID)")

	return cmd
}

// runShell reads commands from in until EOF, quit or ctx cancellation and renders
// the controller after each one that can change what is shown.
func runShell(ctx context.Context, ctrl *search.Controller, in io.Reader, out io.Writer) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Scan blocks on in, so lines are read on their own goroutine to let a
	// signal end the session without waiting for another line.
	lines := make(chan string)
	scanErr := make(chan error, 1)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		scanErr <- scanner.Err()
	}()

	fmt.Fprint(out, "> ")
	for {
		select {
		case <-ctx.Done():
			fmt.Fprintln(out)
			return nil
		case line, ok := <-lines:
			if !ok {
				return <-scanErr
			}
			if quit := runShellLine(ctx, ctrl, line, out); quit {
				return nil
			}
			fmt.Fprint(out, "> ")
		}
	}
}

// runShellLine executes one shell command and reports whether the session ends.
func runShellLine(ctx context.Context, ctrl *search.Controller, line string, out io.Writer) bool {
	cmd, arg, _ := strings.Cut(strings.TrimSpace(line), " ")
	arg = strings.TrimSpace(arg)

	switch strings.ToLower(cmd) {
	case "":
	case "quit", "exit":
		return true
	case "help":
		fmt.Fprintln(out, shellHelp)
	case "topics":
		render.Topics(out)
	case "term":
		ctrl.SetTerm(arg)
	case "topic":
		ctrl.SetTopic(arg)
	case "search":
		if arg != "" {
			ctrl.SetTerm(arg)
		}
		if !ctrl.SubmitSearch(ctx) {
			fmt.Fprintln(out, "Enter a search term first.")
			break
		}
		render.View(out, ctrl.Snapshot())
	case "next":
		if !ctrl.GoToNextPage(ctx) {
			fmt.Fprintln(out, "Already on the last page.")
			break
		}
		render.View(out, ctrl.Snapshot())
	case "prev", "previous":
		if !ctrl.GoToPreviousPage(ctx) {
			fmt.Fprintln(out, "Already on the first page.")
			break
		}
		render.View(out, ctrl.Snapshot())
	case "page":
		n, err := strconv.Atoi(arg)
		if err != nil || n < 1 {
			fmt.Fprintln(out, "Usage: page N (N >= 1)")
			break
		}
		ctrl.FetchPage(ctx, n)
		render.View(out, ctrl.Snapshot())
	case "show":
		render.View(out, ctrl.Snapshot())
	default:
		fmt.Fprintf(out, "Unknown command %q. Type help for a list.\n", cmd)
	}
	return false
}
