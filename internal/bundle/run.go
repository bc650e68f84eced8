// SPDX-License-Identifier: MPL-2.0

package bundle

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/evanw/esbuild/pkg/api"

	"micropack-cli/internal/format"
)

// Run performs a one-shot build: every requested format, sequentially, cjs
// first. Formats are not built concurrently on purpose: side artifacts
// (extracted CSS, the persisted name cache) belong to the first-written
// format only, and later formats must observe a settled output tree.
func (b *Build) Run(ctx context.Context) (*Summary, error) {
	summary := &Summary{}
	for i, f := range b.Formats {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		first := i == 0
		for _, entry := range b.Entries {
			if err := b.buildOne(entry, f, first, summary); err != nil {
				return summary, err
			}
		}
		if first {
			if err := b.NameCache.Save(b.NameCachePath); err != nil {
				return summary, err
			}
		}
	}
	return summary, nil
}

// RunEntry rebuilds a single entry across all formats; watch sessions use it
// so every entry reports its own lifecycle events. Like Run, the meta pass
// persists the name cache, keeping mangled names stable across process
// restarts even when no one-shot build ever runs.
func (b *Build) RunEntry(ctx context.Context, entry string) (*Summary, error) {
	summary := &Summary{}
	for i, f := range b.Formats {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		first := i == 0
		if err := b.buildOne(entry, f, first, summary); err != nil {
			return summary, err
		}
		if first {
			if err := b.NameCache.Save(b.NameCachePath); err != nil {
				return summary, err
			}
		}
	}
	return summary, nil
}

// buildOne asks the engine for one (entry, format) artifact set and writes
// it out. first marks the meta-writing pass: only it may emit CSS side
// artifacts and fold the engine's mangle cache back into the name cache.
func (b *Build) buildOne(entry string, f format.Format, first bool, summary *Summary) error {
	result := api.Build(b.engineOptions(entry, f))
	if len(result.Errors) > 0 {
		msgs := api.FormatMessages(result.Errors, api.FormatMessagesOptions{Kind: api.ErrorMessage})
		return fmt.Errorf("bundle: build %s (%s):\n%s", filepath.Base(entry), f, strings.Join(msgs, ""))
	}
	for _, msg := range api.FormatMessages(result.Warnings, api.FormatMessagesOptions{Kind: api.WarningMessage}) {
		b.logger.Warn(strings.TrimRight(msg, "\n"))
	}

	if first {
		b.NameCache.Merge(result.MangleCache)
	}

	plan := b.Planner.Plan(entry, f)
	for _, out := range result.OutputFiles {
		if !first && isCSS(out.Path) {
			// CSS extraction runs once; re-emitting it per format would
			// duplicate stylesheets.
			continue
		}
		contents := out.Contents
		if out.Path == plan.AbsPath {
			if banner := b.Shebangs.Banner(entry); banner != "" {
				contents = append([]byte(banner), contents...)
			}
		}
		if err := os.MkdirAll(filepath.Dir(out.Path), 0o755); err != nil {
			return fmt.Errorf("bundle: create output directory: %w", err)
		}
		if err := os.WriteFile(out.Path, contents, 0o644); err != nil {
			return fmt.Errorf("bundle: write %s: %w", out.Path, err)
		}
		if !strings.HasSuffix(out.Path, ".map") {
			summary.add(out.Path, f, contents)
		}
	}
	return nil
}

func isCSS(path string) bool {
	return strings.HasSuffix(path, ".css") || strings.HasSuffix(path, ".css.map")
}
