package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	service "github.com/okian/radar/internal/app"
	"github.com/okian/radar/internal/domain/momentum"
)

type momentumInput struct {
	Activity momentum.ActivityLog `json:"activity"`
	Campaign momentum.Campaign    `json:"campaign"`
}

func newMomentumCommand(ctx *commandContext) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "momentum",
		Short: "Compute micro, mid and macro momentum from an activity file",
		Long:  "Reads {\"activity\": ..., \"campaign\": ...} JSON from --file, or stdin when --file is \"-\" or empty.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			in, err := readMomentumInput(cmd, file)
			if err != nil {
				return err
			}
			return ctx.withService(cmd.Context(), func(svc *service.Service) error {
				return writeJSON(cmd, svc.Momentum(in.Activity, in.Campaign))
			})
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "Activity JSON file")
	return cmd
}

func readMomentumInput(cmd *cobra.Command, path string) (momentumInput, error) {
	var r io.Reader = cmd.InOrStdin()
	if path != "" && path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return momentumInput{}, fmt.Errorf("open activity file: %w", err)
		}
		defer f.Close()
		r = f
	}
	var in momentumInput
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&in); err != nil {
		return momentumInput{}, fmt.Errorf("decode activity: %w", err)
	}
	return in, nil
}
