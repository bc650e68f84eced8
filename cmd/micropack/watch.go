// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"micropack-cli/internal/bundle"
)

// timeUnit is the rounding granularity for reported build durations.
const timeUnit = 10 * time.Millisecond

var watchCmd = &cobra.Command{
	Use:   "watch [entries...]",
	Short: "Rebuild on every source change",
	Long: `Build once, then keep watching the package directory and rebuild the
affected entry whenever a source file changes. Output directories and
the property name cache are excluded from watching, so builds never
retrigger themselves. Press Ctrl+C to stop.`,
	Args: cobra.ArbitraryArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runWatch(cmd, args)
	},
	SilenceUsage:  true,
	SilenceErrors: true,
}

func runWatch(cmd *cobra.Command, args []string) error {
	opts, err := assembleOptions(cmd, args)
	if err != nil {
		return displayable(err)
	}

	b, err := bundle.Resolve(opts)
	if err != nil {
		return displayable(err)
	}

	ctx := cmd.Context()
	session, err := b.Watch(ctx)
	if err != nil {
		return displayable(err)
	}
	defer session.Stop()

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, SubtitleStyle.Render("watching for changes..."))

	for {
		select {
		case e := <-session.Events():
			switch e.Kind {
			case bundle.Started:
				logger.Info("building", "entry", e.Entry)
			case bundle.Failed:
				fmt.Fprintln(out, ErrorStyle.Render("Build failed")+" "+SubtitleStyle.Render(e.Duration.Round(timeUnit).String()))
				fmt.Fprintln(out, displayable(e.Err).Error())
			case bundle.Completed:
				fmt.Fprintln(out, renderSummary(e.Summary))
				fmt.Fprintln(out, SubtitleStyle.Render("built in "+e.Duration.Round(timeUnit).String()+", watching for changes..."))
			}
		case <-ctx.Done():
			return nil
		}
	}
}
