package main

import (
	"strconv"

	"github.com/spf13/cobra"

	service "github.com/okian/radar/internal/app"
	"github.com/okian/radar/internal/domain/model"
)

type topResult struct {
	By      service.Ranking `json:"by"`
	Entries []model.Signals `json:"entries"`
}

func newTopCommand(ctx *commandContext) *cobra.Command {
	var by string
	var n int
	cmd := &cobra.Command{
		Use:   "top",
		Short: "Rank entities by momentum, breakout or risk",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ranking, err := service.ParseRanking(by)
			if err != nil {
				return err
			}
			return ctx.withService(cmd.Context(), func(svc *service.Service) error {
				entries, err := svc.TopN(cmd.Context(), ranking, n)
				if err != nil {
					return err
				}
				if entries == nil {
					entries = []model.Signals{}
				}
				return ctx.emit(cmd, topResult{By: ranking, Entries: entries}, func() string {
					return rankedTable(entries)
				})
			})
		},
	}
	cmd.Flags().StringVar(&by, "by", string(service.RankMomentum), "Ranking: momentum, breakout or risk")
	cmd.Flags().IntVarP(&n, "limit", "n", 10, "Number of entries")
	return cmd
}

func rankedTable(entries []model.Signals) string {
	rows := make([][]string, 0, len(entries))
	for i, s := range entries {
		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			s.EntityID,
			s.SceneID,
			formatScore(s.MomentumScore),
			formatScore(s.BreakoutScore),
			formatScore(s.RiskScore),
		})
	}
	return renderTable(
		[]string{"#", "Entity", "Scene", "Momentum", "Breakout", "Risk"},
		rows,
		[]columnAlignment{alignRight, alignLeft, alignLeft, alignRight, alignRight, alignRight},
	)
}
