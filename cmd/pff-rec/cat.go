package main

import (
	"github.com/spf13/cobra"
)

// newCatCommand implements `pff-rec cat <file> <descriptor-id>`
// (§4.16): dump a descriptor's resolved byte stream to stdout.
func newCatCommand(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "cat <file> <descriptor-id>",
		Short: "Dump a descriptor's resolved data stream to stdout",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseIdentifier(args[1])
			if err != nil {
				return err
			}

			c, err := flags.open(args[0], false)
			if err != nil {
				return err
			}
			defer c.Close()

			stream, err := c.DataStream(id)
			if err != nil {
				return err
			}

			const chunk = 64 * 1024
			out := cmd.OutOrStdout()
			for off := int64(0); off < stream.Size(); off += chunk {
				n := chunk
				if remaining := stream.Size() - off; remaining < int64(chunk) {
					n = int(remaining)
				}
				buf, err := stream.Read(off, n)
				if err != nil {
					return err
				}
				if _, err := out.Write(buf); err != nil {
					return err
				}
			}
			return nil
		},
	}
}
