// SPDX-License-Identifier: MPL-2.0

// Package external classifies module specifiers as external (resolved by the
// consumer at runtime) or internal (bundled), and derives the global variable
// names under which UMD builds expect externals to be reachable.
package external

import (
	"fmt"
	"maps"
	"regexp"
	"slices"
	"strings"
)

// asyncHelperModule is the helper shipped by the async/await transform. It
// must always be bundled, even when a dependency entry would otherwise match
// the external set, or the desugared output cannot run standalone.
const asyncHelperModule = "babel-plugin-transform-async-to-promises/helpers"

// packageSelf is the symbolic specifier for the current package. In
// multi-entry builds it must stay external so sibling-entry imports are not
// duplicated inline.
const packageSelf = "."

// builtins are always external: runtime modules the bundle can never
// meaningfully inline.
var builtins = []string{"dns", "fs", "path", "url"}

// bareIdentifier is the package-name shape eligible for automatic global
// derivation ("lodash-es", "preact").
var bareIdentifier = regexp.MustCompile(`^[a-z0-9-]+$`)

type (
	// Specifier is one external declaration: either a literal package name,
	// escaped before matching, or a raw regular expression source embedded
	// as-is.
	Specifier struct {
		src     string
		pattern bool
	}

	// Matcher answers whether a module specifier is external. It is built
	// once per build and is safe for concurrent use.
	Matcher struct {
		re    *regexp.Regexp
		multi bool
	}

	// Config collects the inputs of classification.
	Config struct {
		// Dependencies and PeerDependencies come from the manifest; their
		// keys join the external set.
		Dependencies     map[string]string
		PeerDependencies map[string]string
		// SiblingEntries are the other resolved entries of a multi-entry
		// build; entries never bundle one another.
		SiblingEntries []string
		// Extra are user-declared specifiers (literals or patterns).
		Extra []Specifier
		// None forces an empty external set: the bundle is fully
		// self-contained regardless of manifest dependencies.
		None bool
		// MultipleEntries marks a multi-entry build (see packageSelf).
		MultipleEntries bool
	}
)

// Literal declares an external by exact package name.
func Literal(name string) Specifier {
	return Specifier{src: name}
}

// Pattern declares an external by raw regular expression source.
func Pattern(src string) Specifier {
	return Specifier{src: src, pattern: true}
}

// String returns the declared source text.
func (s Specifier) String() string { return s.src }

// IsPattern reports whether the specifier is a raw regex source.
func (s Specifier) IsPattern() bool { return s.pattern }

// ParseList parses a comma-separated external list from the CLI. Tokens
// wrapped in slashes (/^@corp\//) are raw regex patterns; everything else is
// a literal. The reserved word "none" yields a nil list, meaning no
// externals at all.
func ParseList(s string) (specs []Specifier, none bool) {
	if strings.TrimSpace(s) == "none" {
		return nil, true
	}
	for tok := range strings.SplitSeq(s, ",") {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}
		if len(tok) > 2 && strings.HasPrefix(tok, "/") && strings.HasSuffix(tok, "/") {
			specs = append(specs, Pattern(tok[1:len(tok)-1]))
			continue
		}
		specs = append(specs, Literal(tok))
	}
	return specs, false
}

// Classify compiles the external set into a Matcher and derives the UMD
// globals map. The set is ordered: builtins, sibling entries, peer
// dependencies, dependencies, user extras. All specifiers are combined into
// one case-sensitive expression anchored at the specifier start and
// requiring a following slash or end of string, so "foo" matches "foo" and
// "foo/bar" but never "foobar".
func Classify(cfg Config) (*Matcher, map[string]string, error) {
	specs := collect(cfg)

	m := &Matcher{multi: cfg.MultipleEntries}
	if len(specs) > 0 {
		alts := make([]string, len(specs))
		for i, s := range specs {
			if s.pattern {
				alts[i] = s.src
			} else {
				alts[i] = regexp.QuoteMeta(s.src)
			}
		}
		re, err := regexp.Compile(`^(` + strings.Join(alts, "|") + `)($|/)`)
		if err != nil {
			return nil, nil, fmt.Errorf("external: compile matcher: %w", err)
		}
		m.re = re
	}

	return m, deriveGlobals(specs), nil
}

// collect assembles the ordered specifier list.
func collect(cfg Config) []Specifier {
	if cfg.None {
		return nil
	}
	var specs []Specifier
	for _, b := range builtins {
		specs = append(specs, Literal(b))
	}
	for _, e := range cfg.SiblingEntries {
		specs = append(specs, Literal(e))
	}
	// Manifest maps are unordered; sort their keys so the compiled matcher
	// source is deterministic across builds.
	for _, dep := range slices.Sorted(maps.Keys(cfg.PeerDependencies)) {
		specs = append(specs, Literal(dep))
	}
	for _, dep := range slices.Sorted(maps.Keys(cfg.Dependencies)) {
		specs = append(specs, Literal(dep))
	}
	return append(specs, cfg.Extra...)
}

// IsExternal reports whether the specifier resolves outside the bundle.
func (m *Matcher) IsExternal(id string) bool {
	if id == asyncHelperModule {
		return false
	}
	if m.multi && id == packageSelf {
		return true
	}
	if m.re == nil {
		return false
	}
	return m.re.MatchString(id)
}

// deriveGlobals maps every bare-identifier-shaped external to its camel-cased
// global variable name.
func deriveGlobals(specs []Specifier) map[string]string {
	globals := map[string]string{}
	for _, s := range specs {
		if !s.pattern && bareIdentifier.MatchString(s.src) {
			globals[s.src] = CamelCase(s.src)
		}
	}
	return globals
}

// ApplyGlobalOverrides merges explicit user globals over the derived map.
// Each override fully replaces the derived value for its key. When none is
// true, all derived globals are discarded and only explicit pairs survive
// (of which there are none in that case, by construction).
func ApplyGlobalOverrides(derived, overrides map[string]string, none bool) map[string]string {
	if none {
		return map[string]string{}
	}
	out := make(map[string]string, len(derived)+len(overrides))
	for k, v := range derived {
		out[k] = v
	}
	for k, v := range overrides {
		out[k] = v
	}
	return out
}

// CamelCase converts a dashed package name to its conventional global
// variable name: "lodash-es" becomes "lodashEs".
func CamelCase(name string) string {
	var b strings.Builder
	upper := false
	for _, r := range name {
		if r == '-' {
			upper = true
			continue
		}
		if upper {
			b.WriteString(strings.ToUpper(string(r)))
			upper = false
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
