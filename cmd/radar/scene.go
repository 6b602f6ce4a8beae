package main

import (
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	service "github.com/okian/radar/internal/app"
	"github.com/okian/radar/internal/domain/model"
)

func newSceneCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scene",
		Short: "Scene rollups",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "refresh <scene-id>",
		Short: "Recompute a scene rollup from its members' signals",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withService(cmd.Context(), func(svc *service.Service) error {
				s, err := svc.RefreshScene(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				return ctx.emit(cmd, s, func() string { return sceneTable(s) })
			})
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "show <scene-id>",
		Short: "Show the stored scene rollup",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withService(cmd.Context(), func(svc *service.Service) error {
				s, err := svc.Scene(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				return ctx.emit(cmd, s, func() string { return sceneTable(s) })
			})
		},
	})
	return cmd
}

func sceneTable(s model.SceneSignals) string {
	rows := [][]string{
		{"Hotness", strconv.FormatFloat(s.Hotness, 'f', 1, 64)},
		{"Influence", formatScore(s.Influence)},
		{"Audience trend", formatScore(s.AudienceTrend)},
		{"Members", strconv.Itoa(s.MemberCount)},
		{"Breakout", strings.Join(s.BreakoutEntities, ", ")},
		{"Rising", strings.Join(s.RisingEntities, ", ")},
	}
	return renderTable([]string{"Scene " + s.SceneID, ""}, rows, []columnAlignment{alignLeft, alignRight})
}
