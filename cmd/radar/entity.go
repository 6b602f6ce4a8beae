package main

import (
	"strings"

	"github.com/spf13/cobra"

	service "github.com/okian/radar/internal/app"
	"github.com/okian/radar/internal/domain/model"
)

func newEntityCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "entity",
		Short: "Manage the entity registry",
	}
	cmd.AddCommand(newEntityAddCommand(ctx))
	cmd.AddCommand(newEntityListCommand(ctx))
	cmd.AddCommand(newEntityShowCommand(ctx))
	return cmd
}

func newEntityAddCommand(ctx *commandContext) *cobra.Command {
	var e model.Entity
	cmd := &cobra.Command{
		Use:   "add <id>",
		Short: "Register or replace an entity",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e.ID = strings.TrimSpace(args[0])
			if e.Name == "" {
				e.Name = e.ID
			}
			return ctx.withService(cmd.Context(), func(svc *service.Service) error {
				saved, err := svc.RegisterEntity(cmd.Context(), e)
				if err != nil {
					return err
				}
				return ctx.emit(cmd, saved, func() string { return entityTable([]model.Entity{saved}) })
			})
		},
	}
	cmd.Flags().StringVar(&e.Name, "name", "", "Display name (defaults to the id)")
	cmd.Flags().StringVar(&e.WorkspaceID, "workspace", "", "Owning workspace id")
	cmd.Flags().StringVar(&e.SceneID, "scene", "", "Scene id")
	cmd.Flags().StringSliceVar(&e.Tags, "tag", nil, "Tag (repeatable)")
	return cmd
}

func newEntityListCommand(ctx *commandContext) *cobra.Command {
	var workspace string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List registered entities",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return ctx.withService(cmd.Context(), func(svc *service.Service) error {
				entities, err := svc.Entities(cmd.Context(), workspace)
				if err != nil {
					return err
				}
				if entities == nil {
					entities = []model.Entity{}
				}
				return ctx.emit(cmd, entities, func() string { return entityTable(entities) })
			})
		},
	}
	cmd.Flags().StringVar(&workspace, "workspace", "", "Only list entities in this workspace")
	return cmd
}

func newEntityShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one registered entity",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withService(cmd.Context(), func(svc *service.Service) error {
				e, err := svc.Entity(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				return ctx.emit(cmd, e, func() string { return entityTable([]model.Entity{e}) })
			})
		},
	}
}

func entityTable(entities []model.Entity) string {
	rows := make([][]string, 0, len(entities))
	for _, e := range entities {
		rows = append(rows, []string{e.ID, e.Name, e.WorkspaceID, e.SceneID, strings.Join(e.Tags, ",")})
	}
	return renderTable([]string{"ID", "Name", "Workspace", "Scene", "Tags"}, rows, nil)
}
