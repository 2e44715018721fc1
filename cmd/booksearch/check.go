package main

import (
	"context"
	"fmt"
	"time"

	kgo "github.com/segmentio/kafka-go"
	"github.com/spf13/cobra"

	"book-search/internal/store"
)

func newCheckCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Check connectivity to the configured Kafka broker and Redis",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Second)
			defer cancel()

			var failed bool
			if a.cfg.KafkaBroker == "" {
				fmt.Fprintln(out, "kafka: disabled")
			} else if n, err := kafkaPartitions(ctx, a.cfg.KafkaBroker, a.cfg.EventsTopic); err != nil {
				failed = true
				fmt.Fprintf(out, "kafka: failed to reach %s: %v\n", a.cfg.KafkaBroker, err)
			} else {
				fmt.Fprintf(out, "kafka: connected to %s (%d partitions for %s)\n", a.cfg.KafkaBroker, n, a.cfg.EventsTopic)
			}

			if a.cfg.RedisAddr == "" {
				fmt.Fprintln(out, "redis: disabled")
			} else {
				st := store.NewRedisStatusStore(a.cfg.RedisAddr, store.DefaultPrefix, a.cfg.StatusTTL)
				defer st.Close()
				if err := st.Ping(ctx); err != nil {
					failed = true
					fmt.Fprintf(out, "redis: failed to reach %s: %v\n", a.cfg.RedisAddr, err)
				} else {
					fmt.Fprintf(out, "redis: connected to %s\n", a.cfg.RedisAddr)
				}
			}

			if failed {
				return fmt.Errorf("connectivity check failed")
			}
			return nil
		},
	}
}

func kafkaPartitions(ctx context.Context, broker, topic string) (int, error) {
	conn, err := kgo.DialContext(ctx, "tcp", broker)
	if err != nil {
		return 0, err
	}
	defer conn.Close()

	partitions, err := conn.ReadPartitions(topic)
	if err != nil {
		return 0, fmt.Errorf("read metadata: %w", err)
	}
	return len(partitions), nil
}
