package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kailas-cloud/reteval/internal/config"
	chiTransport "github.com/kailas-cloud/reteval/internal/transport/chi"
	"github.com/kailas-cloud/reteval/internal/version"
)

type serveOptions struct {
	port        int
	datasetRoot string
}

func newServeCmd(global *globalOptions) *cobra.Command {
	opts := &serveOptions{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := global.bootstrap(ctx, func(cfg *config.Config) {
				if opts.port > 0 {
					cfg.HTTP.Port = opts.port
				}
			})
			if err != nil {
				return err
			}
			defer a.close()

			return serve(ctx, a, opts.datasetRoot)
		},
	}

	cmd.Flags().IntVar(&opts.port, "port", 0, "listen port (default from config)")
	cmd.Flags().StringVar(&opts.datasetRoot, "dataset-root", "", "directory POST /analyses may read datasets from")
	return cmd
}

// newHandler builds the API router on top of the app.
func (a *app) newHandler(datasetRoot string) http.Handler {
	evaluatorFor := func(topK []int) chiTransport.Evaluator { return a.evaluator(topK) }

	server := chiTransport.NewServer(
		evaluatorFor,
		a.analysis(a.evaluator(nil)),
		a.reports,
		a.models,
		a.health(),
		a.logger,
	).WithDatasetRoot(datasetRoot)

	return chiTransport.NewRouter(server, a.cfg.Auth.APIKeys)
}

func serve(ctx context.Context, a *app, datasetRoot string) error {
	cfg := a.cfg.HTTP
	addr := fmt.Sprintf(":%d", cfg.Port)

	a.logger.Info("Starting reteval API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", a.env),
		zap.Int("http_port", cfg.Port),
		zap.String("db_driver", a.cfg.Database.Driver),
		zap.Bool("auth", len(a.cfg.Auth.APIKeys) > 0),
	)

	srv := &http.Server{
		Addr:         addr,
		Handler:      a.newHandler(datasetRoot),
		ReadTimeout:  time.Duration(cfg.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.WriteTimeoutSec) * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
		a.logger.Info("Received shutdown signal")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("Error during shutdown", zap.Error(err))
		return fmt.Errorf("shutdown: %w", err)
	}

	a.logger.Info("Server stopped gracefully")
	return nil
}
