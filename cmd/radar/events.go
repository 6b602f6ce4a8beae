package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	service "github.com/okian/radar/internal/app"
	"github.com/okian/radar/internal/domain/model"
	"github.com/okian/radar/internal/ingestion"
)

func newEventCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "event",
		Aliases: []string{"events"},
		Short:   "Record, ingest and list entity events",
	}
	cmd.AddCommand(newEventRecordCommand(ctx))
	cmd.AddCommand(newEventIngestCommand(ctx))
	cmd.AddCommand(newEventListCommand(ctx))
	return cmd
}

func newEventRecordCommand(ctx *commandContext) *cobra.Command {
	var m ingestion.ManualEvent
	var eventType, date string
	var weight float64
	cmd := &cobra.Command{
		Use:   "record",
		Short: "Record a manual event",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			m.Type = model.EventType(eventType)
			if cmd.Flags().Changed("weight") {
				m.Weight = &weight
			}
			if date == "" {
				m.Date = time.Now().UTC()
			} else {
				d, err := time.Parse(time.DateOnly, date)
				if err != nil {
					return fmt.Errorf("parse --date: %w", err)
				}
				m.Date = d
			}
			return ctx.withService(cmd.Context(), func(svc *service.Service) error {
				e, err := svc.RecordManualEvent(cmd.Context(), m)
				if err != nil {
					return err
				}
				return ctx.emit(cmd, e, func() string { return eventTable([]model.Event{e}) })
			})
		},
	}
	cmd.Flags().StringVar(&m.EntityID, "entity", "", "Entity id")
	cmd.Flags().StringVar(&eventType, "type", "", "Event type, e.g. press_mention")
	cmd.Flags().StringVar(&date, "date", "", "Event date as YYYY-MM-DD (defaults to today)")
	cmd.Flags().Float64Var(&weight, "weight", 0, "Weight override; unset uses the base weight")
	cmd.Flags().StringVar(&m.ExternalID, "external-id", "", "Idempotency id")
	_ = cmd.MarkFlagRequired("entity")
	_ = cmd.MarkFlagRequired("type")
	return cmd
}

type ingestResult struct {
	EntityID string `json:"entity_id"`
	Ingested int    `json:"ingested"`
}

func newEventIngestCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "ingest <entity-id>",
		Short: "Pull upstream facts for an entity into its event log",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withService(cmd.Context(), func(svc *service.Service) error {
				n, err := svc.IngestAll(cmd.Context(), args[0])
				if err != nil && n == 0 {
					return err
				}
				return writeJSON(cmd, ingestResult{EntityID: args[0], Ingested: n})
			})
		},
	}
}

func newEventListCommand(ctx *commandContext) *cobra.Command {
	var n int
	cmd := &cobra.Command{
		Use:   "list <entity-id>",
		Short: "List an entity's most recent events",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withService(cmd.Context(), func(svc *service.Service) error {
				events, err := svc.ListEvents(cmd.Context(), args[0], n)
				if err != nil {
					return err
				}
				if events == nil {
					events = []model.Event{}
				}
				return ctx.emit(cmd, events, func() string { return eventTable(events) })
			})
		},
	}
	cmd.Flags().IntVarP(&n, "limit", "n", 20, "Number of events")
	return cmd
}

func eventTable(events []model.Event) string {
	rows := make([][]string, 0, len(events))
	for _, e := range events {
		rows = append(rows, []string{
			e.Date.Format(time.DateOnly),
			string(e.Type),
			string(e.Source),
			strconv.FormatFloat(e.Weight, 'f', 2, 64),
			e.ExternalID,
		})
	}
	return renderTable(
		[]string{"Date", "Type", "Source", "Weight", "External ID"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignLeft},
	)
}
