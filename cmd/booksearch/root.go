package main

import (
	"context"
	"errors"
	"io"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"book-search/common"
	"book-search/internal/gutendex"
	"book-search/internal/kafka"
	"book-search/internal/metrics"
	"book-search/internal/search"
	"book-search/internal/store"
)

// app carries resolved configuration between the root command and subcommands.
type app struct {
	flags  config
	cfg    config
	logger *zap.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{logger: zap.NewNop()}

	cmd := &cobra.Command{
		Use:   "booksearch",
		Short: "Search the public book catalogue from the terminal",
		Long: `booksearch queries the public book catalogue by title, author and topic.

Results come back 32 to a page; the first 6 of each page are shown.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Load .env file if present (ignore errors)
			_ = godotenv.Load()
			a.cfg = applyFlags(cmd.Flags(), a.flags, configFromEnv())
			a.logger = common.NewLogger(a.cfg.LogLevel, a.cfg.LogFormat)
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = a.logger.Sync()
		},
	}

	bindFlags(cmd.PersistentFlags(), &a.flags)

	cmd.AddCommand(
		newQueryCmd(a),
		newShellCmd(a),
		newStatusCmd(a),
		newCheckCmd(a),
	)

	return cmd
}

// session is one wired controller plus the resources backing its observers.
type session struct {
	id         string
	controller *search.Controller
	recorder   *metrics.Recorder
	closers    []io.Closer
}

func (s *session) Close() error {
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// newSession builds the catalogue client and controller and attaches whichever
// observers the configuration enables. An empty id gets a fresh UUID.
func (a *app) newSession(ctx context.Context, id string) *session {
	if id == "" {
		id = uuid.NewString()
	}
	logger := a.logger.With(zap.String("session_id", id))

	client := gutendex.NewClient(
		a.cfg.BaseURL,
		gutendex.WithHTTPClient(gutendex.NewHTTPClient(a.cfg.Timeout, a.cfg.ProxyURL)),
		gutendex.WithRateLimit(a.cfg.Rate, a.cfg.Burst),
	)

	s := &session{id: id, recorder: metrics.NewRecorder()}
	observers := []search.Observer{s.recorder}

	if a.cfg.KafkaBroker != "" {
		prod := kafka.NewProducer(a.cfg.KafkaBroker, a.cfg.EventsTopic)
		s.closers = append(s.closers, prod)
		observers = append(observers, kafka.NewEventObserver(prod, id, 0, logger))
		logger.Info("publishing search events", zap.String("broker", a.cfg.KafkaBroker), zap.String("topic", a.cfg.EventsTopic))
	}
	if a.cfg.RedisAddr != "" {
		st := store.NewRedisStatusStore(a.cfg.RedisAddr, store.DefaultPrefix, a.cfg.StatusTTL)
		s.closers = append(s.closers, st)
		observers = append(observers, store.NewStatusObserver(st, id, 0, logger))
		logger.Info("mirroring session status", zap.String("redis", a.cfg.RedisAddr))
	}
	if a.cfg.MetricsAddr != "" {
		s.recorder.Serve(ctx, a.cfg.MetricsAddr, logger)
	}

	s.controller = search.NewController(client,
		search.WithLogger(logger),
		search.WithObservers(observers...),
	)
	return s
}
