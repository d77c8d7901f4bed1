// Copyright (C) 2024  pff-rec contributors
//
// SPDX-License-Identifier: GPL-2.0-or-later

// Command pff-rec is a cobra-based CLI over the lib/pff façade,
// mirroring teacher's cmd/btrfs-rec command tree (open/inspect/
// recover) but sized to what the core actually exposes (§4.16).
package main

import (
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		logrus.StandardLogger().Errorf("pff-rec: %v", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "pff-rec",
		Short:         "Read, list, and recover mail items from a PST/OST container",
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	flags := newGlobalFlags(root)
	root.AddCommand(
		newLsCommand(flags),
		newCatCommand(flags),
		newInspectCommand(flags),
		newRecoverCommand(flags),
	)
	return root
}
