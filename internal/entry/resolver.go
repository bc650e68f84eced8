// SPDX-License-Identifier: MPL-2.0

// Package entry resolves user- or manifest-declared sources into the
// deduplicated, absolute list of entry modules that seed a build.
package entry

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"micropack-cli/internal/issue"
	"micropack-cli/internal/manifest"
)

// tsExtensions is the extension preference order when an entry is named
// without an extension. TypeScript wins over JavaScript when both exist.
var tsExtensions = []string{".ts", ".tsx", ".js"}

// Resolve produces the entry list for a build. Candidates are taken from the
// first non-empty source among:
//
//  1. explicitly declared entry globs/files,
//  2. the manifest "source" field(s),
//  3. src/index (preferring .ts/.tsx over .js) when src/ exists,
//  4. an index file at the package root,
//  5. the manifest "module" field.
//
// The winning candidate set is expanded through glob matching, directories
// are rewritten to their index file, and the result is deduplicated by
// absolute path preserving first-seen order. That order matters downstream:
// it is a tie-break participant in build scheduling.
func Resolve(cwd string, declared []string, m *manifest.Manifest) ([]string, error) {
	patterns := candidates(cwd, declared, m)
	if len(patterns) == 0 {
		return nil, noEntryErr(cwd, nil)
	}

	var (
		entries []string
		seen    = map[string]struct{}{}
	)
	for _, pattern := range patterns {
		matches, err := doublestar.FilepathGlob(pattern)
		if err != nil {
			return nil, issue.NewContext().
				Operation("expand entry glob").
				Resource(pattern).
				Suggestion("Check the glob syntax (doublestar patterns like src/**/*.ts are supported)").
				Wrap(err).
				Err()
		}
		for _, match := range matches {
			abs, err := filepath.Abs(match)
			if err != nil {
				return nil, err
			}
			if isDir(abs) {
				abs = indexIn(abs)
			}
			if _, dup := seen[abs]; dup {
				continue
			}
			seen[abs] = struct{}{}
			entries = append(entries, abs)
		}
	}

	if len(entries) == 0 {
		return nil, noEntryErr(cwd, patterns)
	}
	return entries, nil
}

// candidates returns the first non-empty candidate pattern set.
func candidates(cwd string, declared []string, m *manifest.Manifest) []string {
	var out []string
	for _, d := range declared {
		if strings.TrimSpace(d) != "" {
			out = append(out, absPattern(cwd, d))
		}
	}
	if len(out) > 0 {
		return out
	}

	for _, s := range m.Source {
		if strings.TrimSpace(s) != "" {
			out = append(out, absPattern(cwd, s))
		}
	}
	if len(out) > 0 {
		return out
	}

	if isDir(filepath.Join(cwd, "src")) {
		if p := existingWithExt(filepath.Join(cwd, "src", "index")); p != "" {
			return []string{p}
		}
	}
	if p := existingWithExt(filepath.Join(cwd, "index")); p != "" {
		return []string{p}
	}
	if m.Module != "" {
		return []string{absPattern(cwd, m.Module)}
	}
	return nil
}

// existingWithExt probes base+ext for each known extension in preference
// order and returns the first that exists, or "".
func existingWithExt(base string) string {
	for _, ext := range tsExtensions {
		if p := base + ext; fileExists(p) {
			return p
		}
	}
	return ""
}

// indexIn rewrites a directory entry to the index module inside it.
func indexIn(dir string) string {
	if p := existingWithExt(filepath.Join(dir, "index")); p != "" {
		return p
	}
	return filepath.Join(dir, "index.js")
}

func absPattern(cwd, p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(cwd, p)
}

func isDir(p string) bool {
	info, err := os.Stat(p)
	return err == nil && info.IsDir()
}

func fileExists(p string) bool {
	info, err := os.Stat(p)
	return err == nil && !info.IsDir()
}

func noEntryErr(cwd string, tried []string) error {
	ctx := issue.NewContext().
		Operation("resolve entry modules").
		Resource(cwd).
		Suggestion(`Declare a "source" field in package.json`).
		Suggestion("Or create src/index.js (or .ts)").
		Suggestion("Or pass entries explicitly: micropack build src/foo.js")
	if len(tried) > 0 {
		ctx.Resource(strings.Join(tried, ", "))
	}
	return ctx.Err()
}
