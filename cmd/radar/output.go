package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
)

// writeJSON encodes v as indented JSON to the command's stdout.
func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// wantsTable reports whether output should be a table: stdout is a terminal
// and --json was not given.
func (c *commandContext) wantsTable(cmd *cobra.Command) bool {
	if c.jsonOutput() {
		return false
	}
	file, ok := cmd.OutOrStdout().(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// emit prints v as JSON or, on a terminal, as the table built by render.
func (c *commandContext) emit(cmd *cobra.Command, v any, render func() string) error {
	if render == nil || !c.wantsTable(cmd) {
		return writeJSON(cmd, v)
	}
	_, err := fmt.Fprintln(cmd.OutOrStdout(), render())
	return err
}

func itoa(n int) string { return strconv.Itoa(n) }

func formatScore(v float64) string {
	return strconv.FormatFloat(v, 'f', 3, 64)
}
