package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/farmlink/authcore/internal/httpapi"
	promexport "github.com/farmlink/authcore/metrics/export/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the auth HTTP server",
	Long:  `Starts the HTTP server with the /auth, /principals and /admin routes, /healthz and /metrics.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		logger, err := newLogger(settings)
		if err != nil {
			return err
		}
		defer func() { _ = logger.Sync() }()

		engine, cleanup, err := buildEngine(cmd.Context(), settings, logger)
		if err != nil {
			return err
		}
		defer cleanup()

		report := engine.SecurityReport()
		logger.Info("auth engine ready",
			zap.Bool("production", report.ProductionMode),
			zap.String("password_algorithm", report.PasswordAlgorithm),
			zap.Duration("access_ttl", report.AccessTTL),
			zap.Duration("refresh_window", report.RefreshWindow),
			zap.Bool("login_throttle", report.LoginThrottleActive),
			zap.Bool("revocation", report.RevocationActive),
		)

		var opts []httpapi.Option
		if settings.Auth.Metrics.Enabled {
			opts = append(opts, httpapi.WithMetricsHandler(promexport.NewExporter(engine).Handler()))
		}
		api := httpapi.New(engine, logger.Named("http"), opts...)

		srv := &http.Server{
			Addr:         settings.HTTPAddr,
			Handler:      api.Router(),
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		}

		serverErrors := make(chan error, 1)
		go func() {
			logger.Info("starting server", zap.String("addr", settings.HTTPAddr))
			serverErrors <- srv.ListenAndServe()
		}()

		shutdown := make(chan os.Signal, 1)
		signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)
		defer signal.Stop(shutdown)

		select {
		case err := <-serverErrors:
			return fmt.Errorf("server error: %w", err)

		case sig := <-shutdown:
			logger.Info("shutting down gracefully", zap.String("signal", sig.String()))

			ctx, cancel := context.WithTimeout(context.Background(), settings.ShutdownTimeout)
			defer cancel()

			if err := srv.Shutdown(ctx); err != nil {
				_ = srv.Close()
				return fmt.Errorf("graceful shutdown failed: %w", err)
			}

			logger.Info("server stopped", zap.Uint64("audit_dropped", engine.AuditDropped()))
			return nil
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
