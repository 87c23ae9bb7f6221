package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/lead-enrichment/internal/enrich"
	"github.com/sells-group/lead-enrichment/internal/monitoring"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the lead enrichment HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if err := cfg.Validate("serve"); err != nil {
			return err
		}

		st, err := openStore(ctx, cfg)
		if err != nil {
			return eris.Wrap(err, "open store")
		}
		defer st.Close()

		q, err := openQueue(cfg)
		if err != nil {
			return eris.Wrap(err, "open queue")
		}
		defer q.Close()

		api := &apiServer{
			store:      st,
			dispatcher: enrich.NewDispatcher(st, q),
			retrier:    enrich.NewRetrier(st, q),
			collector:  monitoring.NewCollector(st),
		}

		// Background alert checker.
		checker := monitoring.NewChecker(api.collector, monitoring.NewAlerter(cfg.Monitoring), cfg.Monitoring)
		go checker.Run(ctx)

		// With the in-memory queue there is no separate work process to
		// consume it, so run the worker pool in this one.
		if cfg.Queue.Driver == "memory" {
			registry := buildRegistry(cfg)
			executor := enrich.NewExecutor(st, registry,
				time.Duration(cfg.Provider.TimeoutSecs)*time.Second)
			worker := enrich.NewWorker(st, q, executor, enrich.WorkerConfig{
				Count:             cfg.Workers.Count,
				ReconcileInterval: time.Duration(cfg.Workers.ReconcileIntervalSecs) * time.Second,
				StaleAfter:        time.Duration(cfg.Workers.StaleAfterSecs) * time.Second,
				ReconcileBatch:    cfg.Workers.ReconcileBatch,
			})
			go func() {
				if err := worker.Run(ctx); err != nil {
					zap.L().Error("inline worker stopped", zap.Error(err))
				}
			}()
		}

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: newRouter(api),
		}

		// Graceful shutdown
		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				zap.L().Warn("server shutdown", zap.Error(err))
			}
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
