// SPDX-License-Identifier: MPL-2.0

// Package outpath computes the absolute output file path for every
// (entry, format) pair from the manifest's per-format filename templates.
//
// The naming convention: the manifest "main" field (or --output) anchors the
// output directory and base name; each format contributes only a filename
// suffix, taken from its manifest template ("module", "umd:main", ...) or a
// fixed default ("x.js", "x.esm.js", "x.umd.js", "x.modern.js"). Template
// directories are deliberately ignored so every format lands next to main.
package outpath

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"micropack-cli/internal/format"
	"micropack-cli/internal/manifest"
)

// formatTagExt strips a trailing format tag plus source extension from an
// output or entry name: the optional ".umd"/".cjs"/".es"/".m" tag is
// recognized before ".mjs"/".js"/".jsx"/".ts"/".tsx".
var formatTagExt = regexp.MustCompile(`(\.(umd|cjs|es|m))?\.(mjs|[tj]sx?)$`)

// indexEntry recognizes entries named index (optionally format-tagged), which
// keep the declared output name instead of contributing their own.
var indexEntry = regexp.MustCompile(`[/\\]index(\.(umd|cjs|es|m))?\.(mjs|[tj]sx?)$`)

type (
	// Plan is the computed destination for one (entry, format) pair.
	Plan struct {
		// AbsPath is the absolute output file path.
		AbsPath string
		// Dir is the directory portion of AbsPath.
		Dir string
		// FileName is the base name portion of AbsPath.
		FileName string
	}

	// Planner computes output plans against one resolved base output path.
	// It is immutable after construction and safe for concurrent use.
	Planner struct {
		m *manifest.Manifest
		// base is the absolute resolved output file (see ResolveBase).
		base string
		// multi is true when the build has more than one entry, in which
		// case non-index entries substitute their own base name.
		multi bool
		// perFormat disables per-format naming when false: every format
		// receives the unmodified base path (the manifest "main" opt-out).
		perFormat bool
	}
)

// NewPlanner builds a Planner. base must come from ResolveBase.
func NewPlanner(m *manifest.Manifest, base string, multi, perFormat bool) *Planner {
	return &Planner{m: m, base: base, multi: multi, perFormat: perFormat}
}

// ResolveBase resolves the build's anchor output file: the --output override,
// else the manifest "main" field, else "dist". A directory (or a path with
// no extension) is completed with "<unscoped-name>.js".
func ResolveBase(cwd, output string, m *manifest.Manifest) string {
	target := output
	if target == "" {
		target = m.Main
	}
	if target == "" {
		target = "dist"
	}
	if !filepath.IsAbs(target) {
		target = filepath.Join(cwd, target)
	}
	if !hasExtension(target) || isDir(target) {
		name := RemoveScope(m.Name)
		if name == "" {
			name = "index"
		}
		target = filepath.Join(target, name+".js")
	}
	return target
}

// Plan computes the output path for one entry and format.
func (p *Planner) Plan(entry string, f format.Format) Plan {
	if !p.perFormat {
		return mkPlan(p.base)
	}

	mainNoExt := p.base
	if p.multi && !indexEntry.MatchString(filepath.ToSlash(entry)) {
		// Non-index sibling entries keep the declared output directory but
		// contribute their own base name.
		mainNoExt = filepath.Join(filepath.Dir(p.base), filepath.Base(entry))
	}
	mainNoExt = formatTagExt.ReplaceAllString(mainNoExt, "")

	return mkPlan(mainNoExt + templateSuffix(p.template(f)))
}

// template returns the format's filename template: the manifest field when
// declared, else the fixed default. The "module" field is honored only when
// it does not point into the package's src/ tree; a src/-rooted module field
// declares a source file, not an output destination.
func (p *Planner) template(f format.Format) string {
	switch f {
	case format.ES:
		if p.m.Module != "" && !UnderSrc(p.m.Module) {
			return p.m.Module
		}
		if p.m.JSNextMain != "" {
			return p.m.JSNextMain
		}
		return "x.esm.js"
	case format.Modern:
		if p.m.Syntax.ESModules != "" {
			return p.m.Syntax.ESModules
		}
		if p.m.ESModule != "" {
			return p.m.ESModule
		}
		return "x.modern.js"
	case format.UMD:
		if p.m.UMDMain != "" {
			return p.m.UMDMain
		}
		if p.m.Unpkg != "" {
			return p.m.Unpkg
		}
		return "x.umd.js"
	default: // cjs
		if p.m.CJSMain != "" {
			return p.m.CJSMain
		}
		return "x.js"
	}
}

// templateSuffix strips the leading name segment from the template's base
// name, keeping everything from the first dot on (".module.js", ".esm.js").
func templateSuffix(template string) string {
	base := filepath.Base(template)
	if i := strings.Index(base, "."); i >= 0 {
		return base[i:]
	}
	return ""
}

// UnderSrc reports whether the manifest path points into the package-root
// src/ tree. Only a leading src segment counts; nested directories named src
// (dist/src/x.js) are legitimate output destinations.
func UnderSrc(p string) bool {
	clean := filepath.ToSlash(filepath.Clean(p))
	return clean == "src" || strings.HasPrefix(clean, "src/")
}

// RemoveScope strips an npm scope prefix: "@scope/pkg" becomes "pkg".
func RemoveScope(name string) string {
	if strings.HasPrefix(name, "@") {
		if i := strings.Index(name, "/"); i >= 0 {
			return name[i+1:]
		}
	}
	return name
}

func mkPlan(abs string) Plan {
	return Plan{
		AbsPath:  abs,
		Dir:      filepath.Dir(abs),
		FileName: filepath.Base(abs),
	}
}

// hasExtension reports whether the path's last segment carries a short
// alphanumeric extension (".js", ".mjs"), distinguishing output files from
// output directories.
var extPattern = regexp.MustCompile(`\.[a-z0-9]+$`)

func hasExtension(p string) bool {
	return extPattern.MatchString(filepath.Base(p))
}

func isDir(p string) bool {
	info, err := os.Stat(p)
	return err == nil && info.IsDir()
}
