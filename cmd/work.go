package main

import (
	"os/signal"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/lead-enrichment/internal/enrich"
)

var workCount int

var workCmd = &cobra.Command{
	Use:   "work",
	Short: "Run the enrichment worker pool",
	Long:  "Consumes enrichment tasks from the work queue, runs them against provider adapters, and records results. Also reconciles stale pending tasks whose queue message was lost.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if err := cfg.Validate("work"); err != nil {
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

		count := workCount
		if count == 0 {
			count = cfg.Workers.Count
		}

		executor := enrich.NewExecutor(st, buildRegistry(cfg),
			time.Duration(cfg.Provider.TimeoutSecs)*time.Second)
		worker := enrich.NewWorker(st, q, executor, enrich.WorkerConfig{
			Count:             count,
			ReconcileInterval: time.Duration(cfg.Workers.ReconcileIntervalSecs) * time.Second,
			StaleAfter:        time.Duration(cfg.Workers.StaleAfterSecs) * time.Second,
			ReconcileBatch:    cfg.Workers.ReconcileBatch,
		})

		zap.L().Info("worker starting", zap.Int("consumers", count))
		if err := worker.Run(ctx); err != nil && ctx.Err() == nil {
			return eris.Wrap(err, "worker run")
		}
		return nil
	},
}

func init() {
	workCmd.Flags().IntVar(&workCount, "count", 0, "number of consumers (default from config)")
	rootCmd.AddCommand(workCmd)
}
