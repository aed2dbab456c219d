/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/imai1205/zumen-connect-backend/internal/bootstrap/logging"
	"github.com/imai1205/zumen-connect-backend/internal/errs"
)

// serveCmd runs the worker: the HTTP surface for job enqueueing plus the
// background poll loop that processes queued jobs.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP server and the job poll loop",
	RunE: withApp(func(cmd *cobra.Command, svcs services) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		cfg := svcs.App.Config
		httpServer := &http.Server{
			Addr:              cfg.HTTP.Addr,
			Handler:           svcs.Server.Router(cfg.HTTP.AllowedOrigins),
			ReadHeaderTimeout: 10 * time.Second,
		}

		serveErr := make(chan error, 1)
		go func() {
			logging.Info(ctx, "http server listening", slog.String("addr", cfg.HTTP.Addr))
			if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				serveErr <- err
				return
			}
			serveErr <- nil
		}()

		pollErr := make(chan error, 1)
		go func() {
			pollErr <- svcs.Worker.Run(ctx)
		}()

		var runErr error
		select {
		case err := <-serveErr:
			runErr = errs.Wrap(err, "http server")
			stop()
		case err := <-pollErr:
			if !errors.Is(err, context.Canceled) {
				runErr = errs.Wrap(err, "poll loop")
			}
			stop()
		case <-ctx.Done():
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logging.Error(ctx, "http server shutdown failed", slog.Any("err", errs.Loggable(err)))
		}

		logging.Info(ctx, "worker stopped")
		return runErr
	}),
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
