package main

import (
	"fmt"
	"time"

	"github.com/datawire/dlib/dlog"
	"github.com/spf13/cobra"

	"github.com/libpff-rec/pff-rec/lib/textui"
)

// scanElapsed is the Stats value ticked into a textui.Progress bar
// while a recovery scan runs (recovery has no internal progress
// callback to hook; this shows the caller the scan hasn't hung). It
// also reports live memory use the way teacher's own rebuild-trees
// progress line does, since an unallocated-space sweep over a large
// container is exactly the long-running, memory-heavy operation that
// reporting is for.
type scanElapsed struct {
	elapsed time.Duration
	mem     *textui.LiveMemUse
}

func (s scanElapsed) String() string {
	return fmt.Sprintf("scanning unallocated space... %s elapsed (mem: %s)",
		s.elapsed.Round(time.Second), s.mem)
}

// newRecoverCommand implements `pff-rec recover <file>` (§4.16): run
// the phase-2 recovery scan and print the recovered item count and
// the side-list of colliding offsets-index identifiers (spec.md §9
// Open Question "multiple recovered offsets-index entries").
func newRecoverCommand(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "recover <file>",
		Short: "Scan unallocated space for recoverable items",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := flags.logger()
			if err != nil {
				return err
			}
			ctx := dlog.WithLogger(cmd.Context(), dlog.WrapLogrus(logger))

			progress := textui.NewProgress[scanElapsed](ctx, dlog.LogLevelInfo, time.Second)
			mem := new(textui.LiveMemUse)
			start := time.Now()
			progress.Set(scanElapsed{mem: mem})
			tick := time.NewTicker(textui.Tunable(time.Second))
			stopTick := make(chan struct{})
			go func() {
				defer tick.Stop()
				for {
					select {
					case <-stopTick:
						return
					case <-tick.C:
						progress.Set(scanElapsed{elapsed: time.Since(start), mem: mem})
					}
				}
			}()

			c, err := flags.open(args[0], true)
			close(stopTick)
			progress.Done()
			if err != nil {
				return err
			}
			defer c.Close()

			out := cmd.OutOrStdout()
			textui.Fprintf(out, "recovered items: %d\n", c.RecoveredItemCount())
			textui.Fprintf(out, "recovered orphans: %d\n", c.RecoveredNumberOfOrphans())

			dupes := c.DuplicateOffsetEntries()
			textui.Fprintf(out, "colliding offsets-index entries: %d\n", len(dupes))
			for _, d := range dupes {
				textui.Fprintf(out, "  %s -> offset=%d size=%d\n", d.Identifier, d.FileOffset, d.DataSize)
			}
			return nil
		},
	}
}
