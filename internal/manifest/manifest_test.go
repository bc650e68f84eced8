// SPDX-License-Identifier: MPL-2.0

package manifest

import (
	"errors"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"micropack-cli/internal/issue"
)

func writeManifest(t *testing.T, dir, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, FileName), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestLoad(t *testing.T) {
	t.Parallel()

	t.Run("full manifest", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		writeManifest(t, dir, `{
			"name": "@scope/pkg",
			"amdName": "scopePkg",
			"main": "dist/pkg.js",
			"module": "dist/pkg.module.js",
			"umd:main": "dist/pkg.umd.js",
			"cjs:main": "dist/pkg.cjs",
			"types": "dist/index.d.ts",
			"source": "src/index.js",
			"syntax": {"esmodules": "dist/pkg.modern.js"},
			"peerDependencies": {"react": "^18"},
			"dependencies": {"lodash-es": "^4"}
		}`)

		m, err := Load(dir)
		if err != nil {
			t.Fatal(err)
		}
		if m.Name != "@scope/pkg" || m.AmdName != "scopePkg" {
			t.Errorf("name fields = %q/%q", m.Name, m.AmdName)
		}
		if m.Syntax.ESModules != "dist/pkg.modern.js" {
			t.Errorf("syntax.esmodules = %q", m.Syntax.ESModules)
		}
		if got := m.Source; !slices.Equal(got, StringList{"src/index.js"}) {
			t.Errorf("source = %v", got)
		}
		if m.TypesFile() != "dist/index.d.ts" {
			t.Errorf("TypesFile() = %q", m.TypesFile())
		}
		if _, ok := m.PeerDependencies["react"]; !ok {
			t.Error("peerDependencies missing react")
		}
	})

	t.Run("source array", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		writeManifest(t, dir, `{"source": ["src/a.js", "src/b.js"]}`)

		m, err := Load(dir)
		if err != nil {
			t.Fatal(err)
		}
		if !slices.Equal(m.Source, StringList{"src/a.js", "src/b.js"}) {
			t.Errorf("source = %v", m.Source)
		}
	})

	t.Run("typings fallback", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		writeManifest(t, dir, `{"typings": "index.d.ts"}`)

		m, err := Load(dir)
		if err != nil {
			t.Fatal(err)
		}
		if m.TypesFile() != "index.d.ts" {
			t.Errorf("TypesFile() = %q", m.TypesFile())
		}
	})

	t.Run("mangle as path string", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		writeManifest(t, dir, `{"mangle": "config/props.json"}`)

		m, err := Load(dir)
		if err != nil {
			t.Fatal(err)
		}
		cfg := m.MangleConfig()
		if cfg.Path != "config/props.json" || cfg.Regex != "" {
			t.Errorf("MangleConfig() = %+v", cfg)
		}
	})

	t.Run("minify as inline object", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		writeManifest(t, dir, `{"minify": {"regex": "^_"}}`)

		m, err := Load(dir)
		if err != nil {
			t.Fatal(err)
		}
		if got := m.MangleConfig().Regex; got != "^_" {
			t.Errorf("MangleConfig().Regex = %q", got)
		}
	})

	t.Run("mangle preferred over minify", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		writeManifest(t, dir, `{"minify": {"regex": "^a"}, "mangle": {"regex": "^b"}}`)

		m, err := Load(dir)
		if err != nil {
			t.Fatal(err)
		}
		if got := m.MangleConfig().Regex; got != "^b" {
			t.Errorf("MangleConfig().Regex = %q", got)
		}
	})

	t.Run("missing manifest is an actionable error", func(t *testing.T) {
		t.Parallel()

		_, err := Load(t.TempDir())
		var ie *issue.Error
		if !errors.As(err, &ie) {
			t.Fatalf("Load() error = %v, want *issue.Error", err)
		}
		if !errors.Is(err, os.ErrNotExist) {
			t.Error("error should wrap os.ErrNotExist")
		}
	})

	t.Run("malformed manifest is an actionable error", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		writeManifest(t, dir, `{"name": `)

		_, err := Load(dir)
		var ie *issue.Error
		if !errors.As(err, &ie) {
			t.Fatalf("Load() error = %v, want *issue.Error", err)
		}
	})
}
