package main

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/okian/radar/internal/loadgen"
	"github.com/okian/radar/pkg/logger"
)

func newLoadgenCommand(ctx *commandContext) *cobra.Command {
	cfg := loadgen.DefaultConfig()
	cmd := &cobra.Command{
		Use:   "loadgen",
		Short: "Drive a running service: register, post events, aggregate, verify rankings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			runCtx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			runner := loadgen.NewRunner(cfg, loadgen.WithLogger(logger.Get().Named("loadgen")))
			stats, err := runner.Run(runCtx)
			if err != nil {
				return err
			}
			return ctx.emit(cmd, stats, func() string {
				return renderTable([]string{"Metric", "Value"}, [][]string{
					{"Entities registered", itoa(stats.EntitiesRegistered)},
					{"Entities failed", itoa(stats.EntitiesFailed)},
					{"Events accepted", itoa(stats.EventsAccepted)},
					{"Events rejected", itoa(stats.EventsRejected)},
					{"Events failed", itoa(stats.EventsFailed)},
					{"Aggregated", itoa(stats.Aggregated)},
					{"Rankings checked", itoa(stats.RankingsChecked)},
					{"Duration", stats.Duration.String()},
				}, []columnAlignment{alignLeft, alignRight})
			})
		},
	}
	cmd.Flags().StringVar(&cfg.BaseURL, "url", cfg.BaseURL, "Base URL of the service")
	cmd.Flags().IntVar(&cfg.Entities, "entities", cfg.Entities, "Entities to register")
	cmd.Flags().IntVar(&cfg.EventsPerEntity, "events", cfg.EventsPerEntity, "Manual events per entity")
	cmd.Flags().StringVar(&cfg.Workspace, "workspace", cfg.Workspace, "Workspace for generated entities")
	cmd.Flags().StringSliceVar(&cfg.Scenes, "scene", cfg.Scenes, "Scenes to spread entities across")
	cmd.Flags().IntVar(&cfg.TopN, "top", cfg.TopN, "Entries fetched per ranking")
	cmd.Flags().IntVar(&cfg.Workers, "workers", cfg.Workers, "Concurrent HTTP workers")
	cmd.Flags().IntVar(&cfg.BatchSize, "batch-size", cfg.BatchSize, "Entity ids per batch aggregation call")
	cmd.Flags().DurationVar(&cfg.Timeout, "timeout", cfg.Timeout, "HTTP request timeout")
	return cmd
}
