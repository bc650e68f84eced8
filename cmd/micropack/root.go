// SPDX-License-Identifier: MPL-2.0

// Package cmd contains all CLI commands for micropack.
package cmd

import (
	"context"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"

	// verbose enables debug logging and full error chains.
	verbose bool
	// cwdFlag overrides the package directory.
	cwdFlag string

	logger = log.NewWithOptions(os.Stderr, log.Options{ReportTimestamp: false})

	// rootCmd is the base command. Bare "micropack" builds, matching the
	// zero-config promise.
	rootCmd = &cobra.Command{
		Use:   "micropack [entries...]",
		Short: "Zero-configuration bundler for npm packages",
		Long: TitleStyle.Render("micropack") + SubtitleStyle.Render(" - zero-configuration bundler for npm packages") + `

micropack reads your package.json, resolves entry modules, and emits
ready-to-publish CommonJS, ES module, UMD, and modern builds, each at
the output path your manifest already declares (main, module,
umd:main, ...).

` + SubtitleStyle.Render("Examples:") + `
  micropack                        Build every format
  micropack -f cjs,es              Build only cjs and es
  micropack src/cli.js src/lib.js  Build multiple entries
  micropack watch                  Rebuild on every change`,
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBuild(cmd, args)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
)

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().StringVar(&cwdFlag, "cwd", ".", "package directory to build")
	registerBuildFlags(rootCmd.PersistentFlags())

	rootCmd.AddCommand(buildCmd)
	rootCmd.AddCommand(watchCmd)

	cobra.OnInitialize(func() {
		if verbose {
			logger.SetLevel(log.DebugLevel)
		}
	})
}

func versionString() string {
	if Version == "dev" {
		return "dev (built from source)"
	}
	return Version + " (commit: " + Commit + ")"
}

// Execute runs the CLI. Called by main.main.
func Execute() {
	if err := fang.Execute(
		context.Background(),
		rootCmd,
		fang.WithVersion(versionString()),
		fang.WithNotifySignal(os.Interrupt),
	); err != nil {
		os.Exit(1)
	}
}
