package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/example/ec-shop-api/internal/api"
	"github.com/example/ec-shop-api/internal/auth"
	"github.com/example/ec-shop-api/internal/config"
	"github.com/example/ec-shop-api/internal/events"
	"github.com/example/ec-shop-api/internal/infrastructure/kafka"
	"github.com/example/ec-shop-api/internal/store"
	"github.com/example/ec-shop-api/internal/upload"
)

const shutdownTimeout = 10 * time.Second

func newServeCommand() *cobra.Command {
	var migrate bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := bootstrap()
			if err != nil {
				return err
			}
			defer logger.Sync() //nolint:errcheck
			return serve(cmd.Context(), cfg, migrate, logger)
		},
	}

	cmd.Flags().BoolVar(&migrate, "migrate", true, "create the schema before serving")

	return cmd
}

func serve(ctx context.Context, cfg *config.Config, migrate bool, logger *zap.Logger) error {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	st, err := store.Open(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer st.Close()

	if migrate {
		if err := st.Migrate(ctx); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}

	var publisher events.Publisher = events.NopPublisher{}
	if cfg.KafkaEnabled() {
		producer := kafka.NewProducer(cfg.KafkaBrokers, cfg.KafkaTopic, logger)
		defer producer.Close()
		publisher = producer
		logger.Info("publishing events to kafka",
			zap.Strings("brokers", cfg.KafkaBrokers),
			zap.String("topic", cfg.KafkaTopic))
	} else {
		logger.Warn("KAFKA_BROKERS not set; order events are not published")
	}

	storage, opts, err := imageStorage(ctx, cfg)
	if err != nil {
		return err
	}
	opts.Production = cfg.IsProduction()
	opts.Backend = cfg.StoreBackend

	tokens := auth.NewJWTService(cfg.JWTSecret, cfg.JWTExpiresIn)
	uploads := upload.NewService(storage, cfg.UploadMaxBytes, logger)
	svc := api.NewServices(st, tokens, publisher, uploads, cfg.LowStockThreshold, logger)

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           api.NewRouter(svc, st, opts, logger),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server started",
			zap.String("addr", server.Addr),
			zap.String("env", cfg.Env),
			zap.String("store", cfg.StoreBackend))
		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	logger.Info("server stopped")
	return nil
}

// imageStorage picks where uploaded images go. Disk storage is also served
// by the router.
func imageStorage(ctx context.Context, cfg *config.Config) (upload.Storage, api.Options, error) {
	if cfg.UploadBackend == config.UploadS3 {
		s3, err := upload.NewS3Storage(ctx, cfg.AWSRegion, cfg.S3Bucket, cfg.S3PublicBaseURL)
		if err != nil {
			return nil, api.Options{}, fmt.Errorf("s3 storage: %w", err)
		}
		return s3, api.Options{}, nil
	}
	disk := upload.NewDiskStorage(cfg.UploadDir, cfg.UploadPublicPath)
	return disk, api.Options{StaticDir: disk.Dir(), StaticPath: disk.PublicPath()}, nil
}
