// SPDX-License-Identifier: MPL-2.0

// Package bundle resolves build configuration and drives the esbuild engine:
// one-shot sequential multi-format builds and continuous watch sessions.
package bundle

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/charmbracelet/log"

	"micropack-cli/internal/entry"
	"micropack-cli/internal/external"
	"micropack-cli/internal/format"
	"micropack-cli/internal/issue"
	"micropack-cli/internal/manifest"
	"micropack-cli/internal/namecache"
	"micropack-cli/internal/outpath"
	"micropack-cli/internal/shebang"
)

type (
	// Options is the caller-facing configuration surface. Every recognized
	// option is enumerated here with its default; Resolve validates the lot
	// once instead of components reading values ad hoc.
	Options struct {
		// CWD is the package directory. Empty means the process working
		// directory.
		CWD string
		// Entries are entry globs/files. Empty falls back to manifest
		// resolution (source field, src/index, root index, module field).
		Entries []string
		// Output is the output file or directory. Empty uses the manifest
		// main field, else dist/.
		Output string
		// Formats is the comma-separated format list ("cjs,es"). Empty
		// builds all formats.
		Formats string
		// Target selects the platform: "node" or "web".
		Target string
		// Name overrides the UMD global/AMD module name.
		Name string
		// Sourcemap enables sourcemap emission (default true).
		Sourcemap bool
		// Compress enables minification (default true).
		Compress bool
		// Strict emits a "use strict" prologue on cjs and umd artifacts.
		Strict bool
		// External is a comma-separated external list; tokens wrapped in
		// slashes are raw regex sources; "none" disables externals.
		External string
		// Globals is a comma-separated key=value list mapping externals to
		// global variable names, or "none" to disable auto derivation.
		Globals string
		// Define is a comma-separated key=value replacement list.
		Define string
		// Alias is a comma-separated key=value module redirection list.
		Alias string
		// JSX and JSXFragment are the JSX pragma names.
		JSX         string
		JSXFragment string
		// Tsconfig is an explicit tsconfig.json path.
		Tsconfig string
		// PerFormatNames disables the per-format naming convention when
		// false: the single resolved output path is used unmodified.
		PerFormatNames bool
		// Logger receives build diagnostics. Nil uses the default logger.
		Logger *log.Logger
	}

	// Build is the resolved, immutable-after-setup configuration consumed
	// by every downstream stage.
	Build struct {
		CWD     string
		Pkg     *manifest.Manifest
		Entries []string
		Formats []format.Format
		Planner *outpath.Planner
		Matcher *external.Matcher
		// Globals maps external specifiers to UMD global variable names.
		Globals map[string]string
		// Name is the UMD global/AMD module name.
		Name        string
		Target      string
		Sourcemap   bool
		Compress    bool
		Strict      bool
		Define      map[string]string
		Alias       map[string]string
		JSX         string
		JSXFragment string
		Tsconfig    string

		// NameCache is the mangling map persisted at NameCachePath after
		// the meta-writing pass.
		NameCache     *namecache.File
		NameCachePath string

		// Shebangs holds interpreter directives for this build run only,
		// stripped at load time and reinjected at artifact-write time.
		Shebangs *shebang.Cache

		extras  []external.Specifier
		extNone bool
		logger  *log.Logger
		multi   bool
	}
)

// identInvalid matches characters not allowed in a JavaScript identifier.
var identInvalid = regexp.MustCompile(`[^a-zA-Z0-9_$]`)

// Resolve turns Options into a validated Build: manifest loaded, entries
// resolved and deduplicated, output plans computed and checked for
// collisions, externals classified, caches prepared.
func Resolve(opts Options) (*Build, error) {
	cwd, err := filepath.Abs(opts.CWD)
	if err != nil {
		return nil, fmt.Errorf("bundle: resolve cwd: %w", err)
	}

	switch opts.Target {
	case "", "web", "node":
	default:
		return nil, issue.NewContext().
			Operation("validate target").
			Resource(opts.Target).
			Suggestion(`Use --target node or --target web`).
			Err()
	}

	pkg, err := manifest.Load(cwd)
	if err != nil {
		return nil, err
	}

	entries, err := entry.Resolve(cwd, opts.Entries, pkg)
	if err != nil {
		return nil, err
	}
	multi := len(entries) > 1

	formats, err := format.ParseList(opts.Formats)
	if err != nil {
		return nil, err
	}
	if !opts.PerFormatNames && len(formats) > 1 {
		return nil, issue.NewContext().
			Operation("plan output paths").
			Resource(strings.Join(formatStrings(formats), ",")).
			Suggestion("Per-format naming is disabled, so request exactly one format").
			Err()
	}

	base := outpath.ResolveBase(cwd, opts.Output, pkg)
	planner := outpath.NewPlanner(pkg, base, multi, opts.PerFormatNames)
	if err := checkCollisions(planner, entries, formats); err != nil {
		return nil, err
	}

	extras, extNone := external.ParseList(opts.External)
	matcher, derived, err := external.Classify(external.Config{
		Dependencies:     pkg.Dependencies,
		PeerDependencies: pkg.PeerDependencies,
		Extra:            extras,
		None:             extNone,
		MultipleEntries:  multi,
	})
	if err != nil {
		return nil, err
	}

	globalsNone := strings.TrimSpace(opts.Globals) == "none"
	var overrides map[string]string
	if !globalsNone {
		overrides, err = parseMappings(opts.Globals)
		if err != nil {
			return nil, fmt.Errorf("bundle: parse globals: %w", err)
		}
	}
	globals := external.ApplyGlobalOverrides(derived, overrides, globalsNone)

	define, err := parseMappings(opts.Define)
	if err != nil {
		return nil, fmt.Errorf("bundle: parse define: %w", err)
	}
	alias, err := parseMappings(opts.Alias)
	if err != nil {
		return nil, fmt.Errorf("bundle: parse alias: %w", err)
	}

	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}

	cachePath := namecache.ResolvePath(cwd, pkg)

	b := &Build{
		CWD:            cwd,
		Pkg:            pkg,
		Entries:        entries,
		Formats:        formats,
		Planner:        planner,
		Matcher:        matcher,
		Globals:        globals,
		Name:           umdName(opts.Name, pkg),
		Target:         opts.Target,
		Sourcemap:      opts.Sourcemap,
		Compress:       opts.Compress,
		Strict:         opts.Strict,
		Define:         define,
		Alias:          alias,
		JSX:            opts.JSX,
		JSXFragment:    opts.JSXFragment,
		Tsconfig:       opts.Tsconfig,
		NameCache:      namecache.Load(cachePath),
		NameCachePath:  cachePath,
		Shebangs:       shebang.NewCache(),
		extras:         extras,
		extNone:        extNone,
		logger:         logger,
		multi:          multi,
	}
	return b, nil
}

// matcherFor builds the external matcher for one entry's compilation: the
// shared external set plus every sibling entry, so entries never bundle one
// another. Specifier patterns were validated in Resolve, so compilation
// cannot fail here.
func (b *Build) matcherFor(entry string) *external.Matcher {
	if !b.multi {
		return b.Matcher
	}
	var siblings []string
	for _, e := range b.Entries {
		if e != entry {
			siblings = append(siblings, e)
		}
	}
	m, _, err := external.Classify(external.Config{
		Dependencies:     b.Pkg.Dependencies,
		PeerDependencies: b.Pkg.PeerDependencies,
		SiblingEntries:   siblings,
		Extra:            b.extras,
		None:             b.extNone,
		MultipleEntries:  true,
	})
	if err != nil {
		return b.Matcher
	}
	return m
}

// checkCollisions verifies no two (entry, format) pairs share an output
// path. Collisions would make the later write clobber the earlier one.
func checkCollisions(planner *outpath.Planner, entries []string, formats []format.Format) error {
	seen := map[string]string{}
	for _, f := range formats {
		for _, e := range entries {
			plan := planner.Plan(e, f)
			key := fmt.Sprintf("%s (%s)", filepath.Base(e), f)
			if prev, dup := seen[plan.AbsPath]; dup {
				return issue.NewContext().
					Operation("plan output paths").
					Resource(plan.AbsPath).
					Suggestion(fmt.Sprintf("Both %s and %s resolve here; give the formats distinct manifest fields", prev, key)).
					Err()
			}
			seen[plan.AbsPath] = key
		}
	}
	return nil
}

// umdName derives the UMD global name: explicit override, then the manifest
// amdName field, then the camel-cased unscoped package name sanitized to a
// valid identifier.
func umdName(override string, m *manifest.Manifest) string {
	if override != "" {
		return override
	}
	if m.AmdName != "" {
		return m.AmdName
	}
	name := identInvalid.ReplaceAllString(external.CamelCase(outpath.RemoveScope(m.Name)), "")
	if name == "" || name[0] >= '0' && name[0] <= '9' {
		name = "_" + name
	}
	return name
}

// parseMappings parses a comma-separated key=value list.
func parseMappings(s string) (map[string]string, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	out := map[string]string{}
	for pair := range strings.SplitSeq(s, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		k, v, found := strings.Cut(pair, "=")
		if !found || k == "" {
			return nil, fmt.Errorf("malformed key=value pair %q", pair)
		}
		out[k] = v
	}
	return out, nil
}

func formatStrings(fs []format.Format) []string {
	out := make([]string, len(fs))
	for i, f := range fs {
		out[i] = string(f)
	}
	return out
}
