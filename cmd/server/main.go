// Package main provides the HTTP API server for the property valuation engine.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"property-valuation-engine/internal/config"
	"property-valuation-engine/internal/handlers"
	"property-valuation-engine/internal/services/analysis"
	s3service "property-valuation-engine/internal/services/s3"
	"property-valuation-engine/internal/services/ses"
	"property-valuation-engine/internal/utils"
)

const shutdownTimeout = 15 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if err := utils.InitLogger(cfg.LogLevel); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer utils.Sync()

	if err := run(cfg); err != nil {
		utils.Logger.Fatal("Server failed", zap.Error(err))
	}
}

func run(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	svc, store, err := analysis.Open(ctx, cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	opts := []handlers.APIOption{handlers.WithStage(cfg.Stage)}
	if cfg.ReportsEnabled() {
		archive, err := s3service.NewService(ctx, cfg.ReportsBucket)
		if err != nil {
			return err
		}

		var notifier handlers.ReportNotifier
		if cfg.SESSenderEmail != "" {
			mailer, err := ses.NewService(ctx, cfg.SESSenderEmail)
			if err != nil {
				return err
			}
			notifier = mailer
		}
		opts = append(opts, handlers.WithReports(archive, notifier))
	} else {
		utils.Logger.Info("REPORTS_BUCKET not set, report endpoint disabled")
	}

	api := handlers.NewAPI(svc, store, opts...)

	srv := &http.Server{
		Addr: fmt.Sprintf("0.0.0.0:%s", cfg.Port),
		Handler: api.Router(handlers.RouterConfig{
			RateLimitRPS:   cfg.RateLimitRPS,
			RateLimitBurst: cfg.RateLimitBurst,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	utils.Logger.Info("Property Valuation Engine API Server",
		zap.String("addr", srv.Addr),
		zap.String("store", cfg.StoreDriver),
		zap.Int("ladder_rungs", len(cfg.Search.ToleranceLadder)),
	)

	ln, err := net.Listen("tcp", srv.Addr)
	if err != nil {
		return fmt.Errorf("server listen: %w", err)
	}
	if err := serve(ctx, srv, ln); err != nil {
		return err
	}

	utils.Logger.Info("Server stopped")
	return nil
}

// serve runs srv on ln until ctx is cancelled. It returns only after
// Shutdown has drained in-flight requests, so callers may release what the
// handlers use.
func serve(ctx context.Context, srv *http.Server, ln net.Listener) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	shutdownDone := make(chan struct{})
	go func() {
		defer close(shutdownDone)
		<-ctx.Done()
		utils.GetLogger().Info("Shutting down server")
		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancelShutdown()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			utils.GetLogger().Error("Server shutdown failed", zap.Error(err))
		}
	}()

	err := srv.Serve(ln)
	cancel()
	<-shutdownDone

	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server serve: %w", err)
	}
	return nil
}
