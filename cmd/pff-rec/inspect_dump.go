package main

import (
	"github.com/davecgh/go-spew/spew"
	"github.com/spf13/cobra"

	"github.com/libpff-rec/pff-rec/lib/pff"
)

// newInspectDumpCommand implements `pff-rec inspect dump <file>`,
// grounded directly on teacher's `inspect spew-items` (cmd/btrfs-rec/
// inspect_spewitems.go): walk every linked item and spew.Dump it, for
// ad hoc debugging of a container's decoded structure.
func newInspectDumpCommand(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "dump <file>",
		Short: "Spew every linked item as parsed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := flags.open(args[0], false)
			if err != nil {
				return err
			}
			defer c.Close()

			cfg := spew.NewDefaultConfig()
			cfg.DisablePointerAddresses = true
			out := cmd.OutOrStdout()

			var dumpSubtree func(item *pff.Item)
			dumpSubtree = func(item *pff.Item) {
				cfg.Fdump(out, item.DescriptorLeaf)
				for _, child := range c.Children(item) {
					dumpSubtree(child)
				}
			}

			root, err := c.RootItem()
			if err != nil {
				return err
			}
			dumpSubtree(root)

			for i := 0; i < c.NumberOfOrphans(); i++ {
				orphan, err := c.Orphan(i)
				if err != nil {
					return err
				}
				dumpSubtree(orphan)
			}
			return nil
		},
	}
}
