// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/pdiddy/annotation-browser/internal/api"
	"github.com/pdiddy/annotation-browser/internal/logger"
	"github.com/pdiddy/annotation-browser/internal/metrics"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve search, history, filters and layout over HTTP",
	RunE: func(cmd *cobra.Command, args []string) error {
		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

		a, err := newApp(cfg, log, reg)
		if err != nil {
			return err
		}
		defer a.Close()

		server := api.NewServer(api.Deps{
			Registry:        a.registry,
			DispatchOptions: a.dispatcherOptions(log),
			Router:          a.router,
			Filters:         a.filters,
			History:         a.history,
			INSDCHistory:    a.insdc,
			Resolver:        a.resolver,
			Layout:          a.layout,
			Gatherer:        reg,
			HTTPMetrics:     metrics.NewHTTP(reg),
			Logger:          log,
		})

		srv := &http.Server{
			Addr:              cfg.Server.Addr,
			Handler:           server.Handler(),
			ReadHeaderTimeout: 10 * time.Second,
		}

		watchConfig()

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		errCh := make(chan error, 1)
		go func() {
			log.Info("starting HTTP server", zap.String("addr", srv.Addr), zap.String("storage", string(cfg.Storage.Backend)))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- err
			}
			close(errCh)
		}()

		select {
		case err := <-errCh:
			return err
		case <-ctx.Done():
		}

		log.Info("received shutdown signal")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("error during shutdown", zap.Error(err))
			return err
		}
		log.Info("server stopped gracefully")
		return nil
	},
}

// watchConfig logs edits to the config file while serving. Storage and
// catalog settings take effect on restart; the log level applies at once.
func watchConfig() {
	if viper.ConfigFileUsed() == "" {
		return
	}
	viper.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}
		next, err := loadConfig()
		if err != nil {
			log.Warn("ignoring invalid config change", zap.String("file", e.Name), zap.Error(err))
			return
		}
		if err := logger.SetLevel(next.Logging.Level); err != nil {
			log.Warn("ignoring invalid log level", zap.String("level", next.Logging.Level), zap.Error(err))
		}
		log.Info("config file changed, restart to apply storage and catalog settings", zap.String("file", e.Name))
	})
	viper.WatchConfig()
}

func init() {
	serveCmd.Flags().String("addr", "", "listen address (default from config, :8080)")
	_ = viper.BindPFlag("server.addr", serveCmd.Flags().Lookup("addr"))

	rootCmd.AddCommand(serveCmd)
}
