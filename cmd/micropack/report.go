// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"path/filepath"
	"strings"

	"micropack-cli/internal/bundle"
)

// renderSummary formats the artifact size table printed after a build:
// one row per emitted file, raw and gzip sizes right-aligned.
func renderSummary(s *bundle.Summary) string {
	if s == nil || len(s.Artifacts) == 0 {
		return SubtitleStyle.Render("no output written")
	}

	rows := make([][3]string, 0, len(s.Artifacts))
	var pathWidth, rawWidth int
	for _, a := range s.Artifacts {
		path := a.Path
		if rel, err := filepath.Rel(cwdFlag, a.Path); err == nil && !strings.HasPrefix(rel, "..") {
			path = filepath.ToSlash(rel)
		}
		raw := bundle.FormatBytes(a.Raw)
		gz := bundle.FormatBytes(a.Gzip)
		if len(path) > pathWidth {
			pathWidth = len(path)
		}
		if len(raw) > rawWidth {
			rawWidth = len(raw)
		}
		rows = append(rows, [3]string{path, raw, gz})
	}

	var sb strings.Builder
	sb.WriteString(SuccessStyle.Render("Build complete"))
	sb.WriteByte('\n')
	for _, row := range rows {
		pad := strings.Repeat(" ", pathWidth-len(row[0]))
		sb.WriteString(fmt.Sprintf("  %s%s  %s gzip: %s\n",
			PathStyle.Render(row[0]), pad,
			SizeStyle.Render(fmt.Sprintf("%*s", rawWidth, row[1])),
			SizeStyle.Render(row[2])))
	}
	return strings.TrimRight(sb.String(), "\n")
}
