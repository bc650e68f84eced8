// SPDX-License-Identifier: MPL-2.0

// Package namecache persists the identifier-mangling map across builds so
// repeated minified builds keep stable short names. The cache lives in a
// JSON side file (mangle.json by default, or the path named by the manifest
// mangle/minify field) and is an optimization: load failures are recovered
// silently as an empty cache.
package namecache

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"micropack-cli/internal/manifest"
)

// DefaultFileName is the cache file looked up beside the package root when
// the manifest does not name one.
const DefaultFileName = "mangle.json"

type (
	// File is the persisted name cache. Safe for concurrent use: watch
	// sessions rebuilding separate entries share one File.
	File struct {
		// Minify optionally overrides the property-mangling pattern from
		// the manifest; it travels with the cached names so the two cannot
		// drift apart.
		Minify *MinifyOverride `json:"minify,omitempty"`

		// Props maps original property names to their mangled replacements
		// (or false for names pinned to stay unmangled). Values mirror the
		// engine's mangle-cache contract.
		Props map[string]any `json:"props,omitempty"`

		mu sync.Mutex
	}

	// MinifyOverride is the embedded minify option override.
	MinifyOverride struct {
		Regex string `json:"regex,omitempty"`
	}
)

// ResolvePath returns the absolute cache file path for a package: the
// manifest's string-valued mangle/minify field when present, else
// mangle.json beside the package root.
func ResolvePath(cwd string, m *manifest.Manifest) string {
	if p := m.MangleConfig().Path; p != "" {
		if filepath.IsAbs(p) {
			return p
		}
		return filepath.Join(cwd, p)
	}
	return filepath.Join(cwd, DefaultFileName)
}

// Load reads the cache file at path. A missing or malformed file yields an
// empty cache and no error; stale mangled names are regenerated on the next
// build, which costs stability but never correctness.
func Load(path string) *File {
	data, err := os.ReadFile(path)
	if err != nil {
		return &File{}
	}
	var f File
	if err := json.Unmarshal(data, &f); err != nil {
		return &File{}
	}
	return &f
}

// MangleRegex returns the effective property-mangling pattern: the embedded
// override when present, else the manifest's inline value. Empty means no
// property mangling.
func (f *File) MangleRegex(m *manifest.Manifest) string {
	if f.Minify != nil && f.Minify.Regex != "" {
		return f.Minify.Regex
	}
	return m.MangleConfig().Regex
}

// Merge folds the engine's post-build mangle cache back into the file,
// keeping entries for identifiers the latest build did not touch.
func (f *File) Merge(cache map[string]any) {
	if len(cache) == 0 {
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.Props == nil {
		f.Props = map[string]any{}
	}
	for k, v := range cache {
		f.Props[k] = v
	}
}

// EngineCache returns a copy of the props map in the engine's mangle-cache
// shape. The copy keeps engine mutations from leaking into the file before
// Merge is called.
func (f *File) EngineCache() map[string]any {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make(map[string]any, len(f.Props))
	for k, v := range f.Props {
		out[k] = v
	}
	return out
}

// Save writes the cache file. Nothing is written when the cache holds no
// names and no override, so projects that never mangle never grow a
// mangle.json.
func (f *File) Save(path string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if len(f.Props) == 0 && f.Minify == nil {
		return nil
	}
	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return fmt.Errorf("namecache: encode %s: %w", path, err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("namecache: write %s: %w", path, err)
	}
	return nil
}
