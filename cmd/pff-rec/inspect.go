package main

import (
	"github.com/spf13/cobra"
)

// newInspectCommand is the `pff-rec inspect` subcommand tree (§4.16),
// mirroring teacher's own inspect parent command: a read-only group of
// diagnostics, none of which mutate anything.
func newInspectCommand(flags *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Inspect a container without modifying it",
	}
	cmd.AddCommand(newInspectTreeCommand(flags), newInspectDumpCommand(flags))
	return cmd
}
