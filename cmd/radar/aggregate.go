package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"

	service "github.com/okian/radar/internal/app"
	"github.com/okian/radar/internal/domain/model"
	"github.com/okian/radar/pkg/logger"
)

// ErrBatchRunning is returned when another process holds the batch lock.
var ErrBatchRunning = errors.New("another batch aggregation is running")

func newAggregateCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "aggregate <entity-id>",
		Short: "Aggregate and persist signals for one entity",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withService(cmd.Context(), func(svc *service.Service) error {
				sig, err := svc.TriggerAggregation(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				return ctx.emit(cmd, sig, func() string { return signalsTable([]model.Signals{sig}) })
			})
		},
	}
}

type batchResult struct {
	Requested int             `json:"requested"`
	Succeeded int             `json:"succeeded"`
	Results   []model.Signals `json:"results"`
}

func newBatchCommand(ctx *commandContext) *cobra.Command {
	var workspace string
	cmd := &cobra.Command{
		Use:   "batch [entity-id...]",
		Short: "Aggregate many entities; with no ids, every registered entity",
		RunE: func(cmd *cobra.Command, args []string) error {
			lock := flock.New(ctx.config.BatchLockPath)
			locked, err := lock.TryLock()
			if err != nil {
				return fmt.Errorf("acquire batch lock: %w", err)
			}
			if !locked {
				return fmt.Errorf("%w (lock %s)", ErrBatchRunning, ctx.config.BatchLockPath)
			}
			defer func() { _ = lock.Unlock() }()

			return ctx.withService(cmd.Context(), func(svc *service.Service) error {
				ids := args
				if len(ids) == 0 {
					entities, err := svc.Entities(cmd.Context(), workspace)
					if err != nil {
						return err
					}
					for _, e := range entities {
						ids = append(ids, e.ID)
					}
				}
				results, err := svc.TriggerBatchAggregation(cmd.Context(), ids)
				if err != nil && len(results) == 0 {
					return err
				}
				if err != nil {
					logger.Get().Warn(cmd.Context(), "batch finished with errors", logger.Error(err))
				}
				out := batchResult{Requested: len(ids), Succeeded: len(results), Results: results}
				if out.Results == nil {
					out.Results = []model.Signals{}
				}
				return ctx.emit(cmd, out, func() string { return signalsTable(results) })
			})
		},
	}
	cmd.Flags().StringVar(&workspace, "workspace", "", "With no ids, only aggregate this workspace's entities")
	return cmd
}

func newSignalsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "signals <entity-id>",
		Short: "Show the stored signals for an entity",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withService(cmd.Context(), func(svc *service.Service) error {
				sig, err := svc.Signals(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				return ctx.emit(cmd, sig, func() string { return signalsTable([]model.Signals{sig}) })
			})
		},
	}
}

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history <entity-id>",
		Short: "Show an entity's score history, newest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withService(cmd.Context(), func(svc *service.Service) error {
				history, err := svc.ScoreHistory(cmd.Context(), args[0], limit)
				if err != nil {
					return err
				}
				if history == nil {
					history = []model.ScoreSnapshot{}
				}
				return ctx.emit(cmd, history, func() string { return historyTable(history) })
			})
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of snapshots to show")
	return cmd
}

func historyTable(history []model.ScoreSnapshot) string {
	rows := make([][]string, 0, len(history))
	for _, h := range history {
		rows = append(rows, []string{
			h.TakenAt.Format(time.RFC3339),
			formatScore(h.MomentumScore),
			formatScore(h.BreakoutScore),
			formatScore(h.RiskScore),
			formatScore(h.SceneHotness),
		})
	}
	return renderTable(
		[]string{"Taken", "Momentum", "Breakout", "Risk", "Scene"},
		rows,
		[]columnAlignment{alignLeft, alignRight, alignRight, alignRight, alignRight},
	)
}

func signalsTable(signals []model.Signals) string {
	rows := make([][]string, 0, len(signals))
	for _, s := range signals {
		rows = append(rows, []string{
			s.EntityID,
			s.SceneID,
			formatScore(s.MomentumScore),
			formatScore(s.BreakoutScore),
			formatScore(s.RiskScore),
			s.Metadata[model.MetaSources],
		})
	}
	return renderTable(
		[]string{"Entity", "Scene", "Momentum", "Breakout", "Risk", "Sources"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignRight, alignRight, alignRight, alignLeft},
	)
}
