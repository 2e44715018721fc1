package main

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"book-search/internal/store"
)

func newStatusCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "status SESSION_ID",
		Short: "Print the mirrored status of a search session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.cfg.RedisAddr == "" {
				return fmt.Errorf("status needs REDIS_ADDR or --redis-addr")
			}
			st := store.NewRedisStatusStore(a.cfg.RedisAddr, store.DefaultPrefix, a.cfg.StatusTTL)
			defer st.Close()
			return printStatus(cmd, st, args[0])
		},
	}
}

func printStatus(cmd *cobra.Command, st store.StatusStore, sessionID string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Second)
	defer cancel()

	status, ok, err := st.GetStatus(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("load status: %w", err)
	}
	if !ok {
		return fmt.Errorf("session %s not found", sessionID)
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(status)
}
