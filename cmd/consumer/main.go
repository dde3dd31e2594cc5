package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"gitlab.ozon.dev/pupkingeorgij/packagesync/internal/config"
	"gitlab.ozon.dev/pupkingeorgij/packagesync/internal/logger"
)

const retryDelay = 5 * time.Second

func main() {
	v := config.New()
	v.SetDefault("audit.brokers", []string{"localhost:9092"})

	cmd := &cobra.Command{
		Use:           "consumer",
		Short:         "Print audit log messages from the audit topic",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), v)
		},
	}
	cmd.Flags().StringSlice("brokers", nil, "kafka brokers")
	cmd.Flags().String("topic", "", "audit topic")
	_ = v.BindPFlag("audit.brokers", cmd.Flags().Lookup("brokers"))
	_ = v.BindPFlag("audit.topic", cmd.Flags().Lookup("topic"))

	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, v *viper.Viper) error {
	if _, err := config.LoadEnv(""); err != nil {
		return err
	}

	var cfg config.Config
	if err := v.Unmarshal(&cfg); err != nil {
		return fmt.Errorf("failed to parse config: %w", err)
	}

	log, err := logger.New(cfg.Log.Level)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        cfg.Audit.Brokers,
		GroupID:        cfg.Audit.GroupID,
		Topic:          cfg.Audit.Topic,
		MinBytes:       10e3,
		MaxBytes:       10e6,
		CommitInterval: time.Second,
		MaxWait:        3 * time.Second,
	})
	defer func() {
		log.Info("closing kafka reader")
		if err := r.Close(); err != nil {
			log.Error("failed to close kafka reader", zap.Error(err))
		}
	}()

	log.Info("consumer connected",
		zap.String("topic", cfg.Audit.Topic),
		zap.Strings("brokers", cfg.Audit.Brokers),
		zap.String("group_id", cfg.Audit.GroupID),
	)

	for {
		m, err := r.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, context.Canceled) {
				log.Info("shutdown signal received, stopping consumer")
				return nil
			}
			log.Error("failed to read message", zap.Error(err))
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(retryDelay):
			}
			continue
		}

		log.Info("audit message",
			zap.Time("timestamp", m.Time),
			zap.Int("partition", m.Partition),
			zap.Int64("offset", m.Offset),
			zap.ByteString("key", m.Key),
			zap.ByteString("value", m.Value),
		)
	}
}
