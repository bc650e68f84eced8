// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"micropack-cli/internal/bundle"
	"micropack-cli/internal/config"
	"micropack-cli/internal/issue"
)

// buildFlags mirrors the bundle.Options surface one to one. Values here are
// only defaults until assembleOptions layers in the rc-file/env defaults for
// flags the user did not set.
var buildFlags struct {
	output      string
	formats     string
	target      string
	name        string
	sourcemap   bool
	compress    bool
	strict      bool
	external    string
	globals     string
	define      string
	alias       string
	jsx         string
	jsxFragment string
	tsconfig    string
	pkgMain     bool

	noSourcemap bool
	noCompress  bool
}

func registerBuildFlags(fs *pflag.FlagSet) {
	fs.StringVarP(&buildFlags.output, "output", "o", "", "output file or directory (default: the manifest main field, else dist)")
	fs.StringVarP(&buildFlags.formats, "format", "f", "", "comma-separated formats to build: cjs, es, umd, modern (default: all)")
	fs.StringVar(&buildFlags.target, "target", "web", "platform to build for: node or web")
	fs.StringVar(&buildFlags.name, "name", "", "UMD global / AMD module name (default: derived from the package name)")
	fs.BoolVar(&buildFlags.sourcemap, "sourcemap", true, "emit sourcemaps")
	fs.BoolVar(&buildFlags.compress, "compress", true, "minify output")
	fs.BoolVar(&buildFlags.strict, "strict", false, `emit a "use strict" prologue on cjs and umd output`)
	fs.StringVar(&buildFlags.external, "external", "", `comma-separated externals; /.../-wrapped tokens are regexes; "none" bundles everything`)
	fs.StringVar(&buildFlags.globals, "globals", "", `comma-separated external=GlobalName pairs, or "none" to disable auto globals`)
	fs.StringVar(&buildFlags.define, "define", "", "comma-separated key=value replacement pairs")
	fs.StringVar(&buildFlags.alias, "alias", "", "comma-separated key=value module redirections")
	fs.StringVar(&buildFlags.jsx, "jsx", "", "JSX pragma (e.g. h, React.createElement)")
	fs.StringVar(&buildFlags.jsxFragment, "jsxFragment", "", "JSX fragment pragma (e.g. Fragment)")
	fs.StringVar(&buildFlags.tsconfig, "tsconfig", "", "path to a custom tsconfig.json")
	fs.BoolVar(&buildFlags.pkgMain, "pkg-main", true, "use per-format output names from the manifest")

	// Negative spellings, matching the npm-ecosystem flag convention.
	fs.BoolVar(&buildFlags.noSourcemap, "no-sourcemap", false, "disable sourcemaps (same as --sourcemap=false)")
	fs.BoolVar(&buildFlags.noCompress, "no-compress", false, "disable minification (same as --compress=false)")
}

var buildCmd = &cobra.Command{
	Use:   "build [entries...]",
	Short: "Build the package once and report artifact sizes",
	Args:  cobra.ArbitraryArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runBuild(cmd, args)
	},
	SilenceUsage:  true,
	SilenceErrors: true,
}

func runBuild(cmd *cobra.Command, args []string) error {
	opts, err := assembleOptions(cmd, args)
	if err != nil {
		return displayable(err)
	}

	b, err := bundle.Resolve(opts)
	if err != nil {
		return displayable(err)
	}

	summary, err := b.Run(cmd.Context())
	if err != nil {
		return displayable(err)
	}

	if msg := missingTypesWarning(b); msg != "" {
		fmt.Fprintln(cmd.ErrOrStderr(), WarningStyle.Render("warning:")+" "+msg)
	}
	fmt.Fprintln(cmd.OutOrStdout(), renderSummary(summary))
	return nil
}

// missingTypesWarning flags a declared but absent TypeScript declaration
// file. micropack does not emit declarations itself, so this is advisory
// only; an empty string means nothing to report.
func missingTypesWarning(b *bundle.Build) string {
	decl := b.Pkg.TypesFile()
	if decl == "" {
		return ""
	}
	path := decl
	if !filepath.IsAbs(path) {
		path = filepath.Join(b.CWD, path)
	}
	if _, err := os.Stat(path); err != nil {
		return fmt.Sprintf("declared types file %s does not exist", decl)
	}
	return ""
}

// assembleOptions merges CLI flags with user defaults: a flag the user set
// always wins; otherwise the rc-file/env default applies; otherwise the
// flag's built-in default stands.
func assembleOptions(cmd *cobra.Command, entries []string) (bundle.Options, error) {
	defaults, err := config.Load(cwdFlag)
	if err != nil {
		// A broken rc file should not block a build that never asked for
		// it; warn and continue with built-ins.
		logger.Warn("ignoring user defaults", "err", err)
		defaults = config.Builtin()
	}

	flags := cmd.Flags()
	formats := buildFlags.formats
	if !flags.Changed("format") && defaults.Formats != "" {
		formats = defaults.Formats
	}
	target := buildFlags.target
	if !flags.Changed("target") && defaults.Target != "" {
		target = defaults.Target
	}
	sourcemap := buildFlags.sourcemap
	if !flags.Changed("sourcemap") {
		sourcemap = defaults.Sourcemap
	}
	compress := buildFlags.compress
	if !flags.Changed("compress") {
		compress = defaults.Compress
	}
	if buildFlags.noSourcemap {
		sourcemap = false
	}
	if buildFlags.noCompress {
		compress = false
	}

	return bundle.Options{
		CWD:            cwdFlag,
		Entries:        entries,
		Output:         buildFlags.output,
		Formats:        formats,
		Target:         target,
		Name:           buildFlags.name,
		Sourcemap:      sourcemap,
		Compress:       compress,
		Strict:         buildFlags.strict,
		External:       buildFlags.external,
		Globals:        buildFlags.globals,
		Define:         buildFlags.define,
		Alias:          buildFlags.alias,
		JSX:            buildFlags.jsx,
		JSXFragment:    buildFlags.jsxFragment,
		Tsconfig:       buildFlags.tsconfig,
		PerFormatNames: buildFlags.pkgMain,
		Logger:         logger,
	}, nil
}

// displayable rewraps actionable errors with their suggestion rendering so
// the terminal shows remediation hints, not just the one-line message.
func displayable(err error) error {
	var ie *issue.Error
	if errors.As(err, &ie) {
		return errors.New(ie.Render(verbose))
	}
	return err
}
