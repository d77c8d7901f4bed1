package main

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/libpff-rec/pff-rec/lib/pff"
)

// treeNode is the JSON shape `inspect tree` prints: one item plus its
// ordered children, recursively (teacher's inspect dumptrees/
// dumpgraph analogue, §4.16).
type treeNode struct {
	Identifier                 string     `json:"identifier"`
	DataIdentifier             string     `json:"data_identifier"`
	LocalDescriptorsIdentifier string     `json:"local_descriptors_identifier"`
	Recovered                  bool       `json:"recovered"`
	Children                   []treeNode `json:"children,omitempty"`
}

func buildTreeNode(c *pff.Container, item *pff.Item) treeNode {
	n := treeNode{
		Identifier:                 item.Identifier.String(),
		DataIdentifier:             item.DataIdentifier.String(),
		LocalDescriptorsIdentifier: item.LocalDescriptorsIdentifier.String(),
		Recovered:                  item.Recovered,
	}
	for _, child := range c.Children(item) {
		n.Children = append(n.Children, buildTreeNode(c, child))
	}
	return n
}

type treeDump struct {
	Root    *treeNode  `json:"root,omitempty"`
	Orphans []treeNode `json:"orphans,omitempty"`
}

// newInspectTreeCommand implements `pff-rec inspect tree <file>`:
// dump the whole item tree plus the orphan list as JSON.
func newInspectTreeCommand(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "tree <file>",
		Short: "Dump the item tree and orphan list as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := flags.open(args[0], false)
			if err != nil {
				return err
			}
			defer c.Close()

			dump := treeDump{}
			if root, err := c.RootItem(); err == nil {
				n := buildTreeNode(c, root)
				dump.Root = &n
			}
			for i := 0; i < c.NumberOfOrphans(); i++ {
				orphan, err := c.Orphan(i)
				if err != nil {
					return err
				}
				dump.Orphans = append(dump.Orphans, buildTreeNode(c, orphan))
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(dump)
		},
	}
}
