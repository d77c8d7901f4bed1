package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/libpff-rec/pff-rec/lib/pff"
	"github.com/libpff-rec/pff-rec/lib/textui"
)

// newLsCommand implements `pff-rec ls <file> [identifier]` (§4.16):
// list a folder's children. With no identifier, lists the root item's
// children.
func newLsCommand(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "ls <file> [identifier]",
		Short: "List a folder's children",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := flags.open(args[0], false)
			if err != nil {
				return err
			}
			defer c.Close()

			var item *pff.Item
			if len(args) == 2 {
				id, err := parseIdentifier(args[1])
				if err != nil {
					return err
				}
				item, err = c.ItemByIdentifier(id)
				if err != nil {
					return fmt.Errorf("look up %s: %w", id, err)
				}
			} else {
				item, err = c.RootItem()
				if err != nil {
					return err
				}
			}

			for _, child := range c.Children(item) {
				textui.Fprintf(cmd.OutOrStdout(), "%s\t%s\trecovered=%v\n",
					child.Identifier, child.Identifier.Type(), child.Recovered)
			}
			return nil
		},
	}
}
