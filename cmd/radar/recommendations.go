package main

import (
	"strings"

	"github.com/spf13/cobra"

	service "github.com/okian/radar/internal/app"
	"github.com/okian/radar/internal/domain/model"
)

func newRecommendationsCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "recommendations",
		Aliases: []string{"recs"},
		Short:   "List or generate workspace recommendations",
	}
	cmd.AddCommand(newRecommendationsListCommand(ctx))
	cmd.AddCommand(newRecommendationsGenerateCommand(ctx))
	return cmd
}

func newRecommendationsListCommand(ctx *commandContext) *cobra.Command {
	var n int
	cmd := &cobra.Command{
		Use:   "list <workspace-id>",
		Short: "List live recommendations, best first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withService(cmd.Context(), func(svc *service.Service) error {
				recs, err := svc.RecommendationsForWorkspace(cmd.Context(), args[0], n)
				return ctx.emitRecommendations(cmd, recs, err)
			})
		},
	}
	cmd.Flags().IntVarP(&n, "limit", "n", 10, "Number of recommendations")
	return cmd
}

func newRecommendationsGenerateCommand(ctx *commandContext) *cobra.Command {
	var n int
	cmd := &cobra.Command{
		Use:   "generate <workspace-id>",
		Short: "Generate fresh recommendations from stored signals",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withService(cmd.Context(), func(svc *service.Service) error {
				recs, err := svc.GenerateRecommendations(cmd.Context(), args[0], n)
				return ctx.emitRecommendations(cmd, recs, err)
			})
		},
	}
	cmd.Flags().IntVarP(&n, "limit", "n", 10, "Number of entities to consider")
	return cmd
}

func (c *commandContext) emitRecommendations(cmd *cobra.Command, recs []model.Recommendation, err error) error {
	if err != nil {
		return err
	}
	if recs == nil {
		recs = []model.Recommendation{}
	}
	return c.emit(cmd, recs, func() string {
		rows := make([][]string, 0, len(recs))
		for _, r := range recs {
			rows = append(rows, []string{
				r.EntityID,
				string(r.Type),
				formatScore(r.Score),
				formatScore(r.Confidence),
				strings.Join(r.Opportunities, "; "),
				strings.Join(r.Risks, "; "),
			})
		}
		return renderTable(
			[]string{"Entity", "Action", "Score", "Confidence", "Opportunities", "Risks"},
			rows,
			[]columnAlignment{alignLeft, alignLeft, alignRight, alignRight, alignLeft, alignLeft},
		)
	})
}
