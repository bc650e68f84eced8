// SPDX-License-Identifier: MPL-2.0

package bundle

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/evanw/esbuild/pkg/api"

	"micropack-cli/internal/format"
)

func resolveFixture(t *testing.T, manifestJSON string, opts Options, files ...string) *Build {
	t.Helper()
	dir := fixture(t, manifestJSON, files...)
	opts.CWD = dir
	opts.PerFormatNames = true
	b, err := Resolve(opts)
	if err != nil {
		t.Fatal(err)
	}
	return b
}

func TestEngineOptions(t *testing.T) {
	t.Parallel()

	b := resolveFixture(t,
		`{"name": "pkg", "main": "dist/pkg.js", "module": "dist/pkg.module.js"}`,
		Options{Formats: "cjs,es,umd,modern", Sourcemap: true, Compress: true},
		"src/index.js")
	entry := b.Entries[0]

	t.Run("cjs", func(t *testing.T) {
		t.Parallel()

		opts := b.engineOptions(entry, format.CJS)
		if opts.Format != api.FormatCommonJS {
			t.Errorf("Format = %v, want CommonJS", opts.Format)
		}
		if want := filepath.Join(b.CWD, "dist", "pkg.js"); opts.Outfile != want {
			t.Errorf("Outfile = %q, want %q", opts.Outfile, want)
		}
		if !opts.Bundle || opts.Write {
			t.Error("engine must bundle without writing; artifacts are written by the orchestrator")
		}
		if opts.Sourcemap != api.SourceMapLinked {
			t.Error("Sourcemap should be linked")
		}
		if !opts.MinifyWhitespace || !opts.MinifySyntax || !opts.MinifyIdentifiers {
			t.Error("compress should enable all minify passes")
		}
	})

	t.Run("es and modern differ only in target", func(t *testing.T) {
		t.Parallel()

		es := b.engineOptions(entry, format.ES)
		modern := b.engineOptions(entry, format.Modern)
		if es.Format != api.FormatESModule || modern.Format != api.FormatESModule {
			t.Error("es and modern are ES module outputs")
		}
		if es.Target == modern.Target {
			t.Error("modern must keep a newer syntax target than es")
		}
		if want := filepath.Join(b.CWD, "dist", "pkg.module.js"); es.Outfile != want {
			t.Errorf("es Outfile = %q, want %q", es.Outfile, want)
		}
	})

	t.Run("umd wraps commonjs output", func(t *testing.T) {
		t.Parallel()

		opts := b.engineOptions(entry, format.UMD)
		if opts.Format != api.FormatCommonJS {
			t.Error("umd builds on the CommonJS shape")
		}
		if !strings.Contains(opts.Banner["js"], "define.amd") {
			t.Errorf("umd banner missing AMD branch:\n%s", opts.Banner["js"])
		}
		if opts.Footer["js"] == "" {
			t.Error("umd needs a closing footer")
		}
	})

	t.Run("platform follows target", func(t *testing.T) {
		t.Parallel()

		web := b.engineOptions(entry, format.CJS)
		if web.Platform != api.PlatformBrowser {
			t.Error("default platform should be browser")
		}

		node := resolveFixture(t, `{"name": "pkg"}`, Options{Target: "node"}, "src/index.js")
		if got := node.engineOptions(node.Entries[0], format.CJS); got.Platform != api.PlatformNode {
			t.Error("node target should select the node platform")
		}
	})

	t.Run("strict prologue on cjs only", func(t *testing.T) {
		t.Parallel()

		strict := resolveFixture(t, `{"name": "pkg"}`, Options{Strict: true}, "src/index.js")
		cjs := strict.engineOptions(strict.Entries[0], format.CJS)
		if !strings.HasPrefix(cjs.Banner["js"], `"use strict";`) {
			t.Errorf("cjs banner = %q", cjs.Banner["js"])
		}
		es := strict.engineOptions(strict.Entries[0], format.ES)
		if es.Banner["js"] != "" {
			t.Error("es modules are strict by definition; no prologue expected")
		}
	})

	t.Run("mangle cache wired when a regex is configured", func(t *testing.T) {
		t.Parallel()

		mangled := resolveFixture(t,
			`{"name": "pkg", "mangle": {"regex": "^_"}}`,
			Options{Compress: true},
			"src/index.js")
		opts := mangled.engineOptions(mangled.Entries[0], format.CJS)
		if opts.MangleProps != "^_" {
			t.Errorf("MangleProps = %q, want ^_", opts.MangleProps)
		}
		if opts.MangleCache == nil {
			t.Error("MangleCache should be seeded from the name cache")
		}

		plain := resolveFixture(t, `{"name": "pkg"}`, Options{Compress: true}, "src/index.js")
		if got := plain.engineOptions(plain.Entries[0], format.CJS); got.MangleProps != "" {
			t.Error("no mangle config means no property mangling")
		}
	})
}

func TestUMDBanner(t *testing.T) {
	t.Parallel()

	b := resolveFixture(t,
		`{"name": "my-lib", "dependencies": {"lodash-es": "^4"}}`,
		Options{},
		"src/index.js")

	banner := b.umdBanner()
	if !strings.Contains(banner, "global.myLib = mod.exports") {
		t.Errorf("banner missing global assignment:\n%s", banner)
	}
	if !strings.Contains(banner, `"lodash-es":"lodashEs"`) {
		t.Errorf("banner missing globals lookup:\n%s", banner)
	}
}

func TestLoaderForPath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		path string
		want api.Loader
	}{
		{"a.ts", api.LoaderTS},
		{"a.tsx", api.LoaderTSX},
		{"a.jsx", api.LoaderJSX},
		{"a.js", api.LoaderJS},
		{"a.mjs", api.LoaderJS},
	}
	for _, tt := range tests {
		if got := loaderForPath(tt.path); got != tt.want {
			t.Errorf("loaderForPath(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}
