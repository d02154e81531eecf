package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/example/ec-shop-api/internal/config"
	"github.com/example/ec-shop-api/internal/email"
	"github.com/example/ec-shop-api/internal/infrastructure/kafka"
	"github.com/example/ec-shop-api/internal/logging"
	"github.com/example/ec-shop-api/internal/notification"
	"github.com/example/ec-shop-api/internal/store"
)

// consumerGroup is dedicated to email notifications.
const consumerGroup = "email-notifier"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := checkConfig(cfg); err != nil {
		return err
	}

	logger, err := logging.New(cfg.Env, cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck
	logger = logger.Named("notifier")

	// Recipients are looked up in the same store the API writes to.
	st, err := store.Open(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer st.Close()

	mailer := email.NewService(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPFrom)
	handler := notification.NewHandler(mailer, st.Users(), logger)

	consumer := kafka.NewConsumer(cfg.KafkaBrokers, cfg.KafkaTopic, consumerGroup, logger)
	defer consumer.Close()

	logger.Info("email notifier started",
		zap.Strings("brokers", cfg.KafkaBrokers),
		zap.String("topic", cfg.KafkaTopic),
		zap.String("group", consumerGroup),
		zap.String("smtp", cfg.SMTPHost+":"+cfg.SMTPPort))

	if err := consumer.Consume(ctx, handler.HandleEvent); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	logger.Info("email notifier stopped")
	return nil
}

func checkConfig(cfg *config.Config) error {
	if !cfg.KafkaEnabled() {
		return errors.New("KAFKA_BROKERS is required")
	}
	if cfg.StoreBackend == config.BackendMemory {
		return errors.New("the notifier needs a persistent STORE_BACKEND to look up recipients")
	}
	return nil
}
