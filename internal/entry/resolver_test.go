// SPDX-License-Identifier: MPL-2.0

package entry

import (
	"errors"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"micropack-cli/internal/issue"
	"micropack-cli/internal/manifest"
)

// scaffold creates the given relative files (empty) under a fresh temp dir.
func scaffold(t *testing.T, files ...string) string {
	t.Helper()
	dir := t.TempDir()
	for _, f := range files {
		path := filepath.Join(dir, filepath.FromSlash(f))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte("export default 1;\n"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func rel(t *testing.T, dir string, entries []string) []string {
	t.Helper()
	out := make([]string, len(entries))
	for i, e := range entries {
		r, err := filepath.Rel(dir, e)
		if err != nil {
			t.Fatal(err)
		}
		out[i] = filepath.ToSlash(r)
	}
	return out
}

func TestResolve(t *testing.T) {
	t.Parallel()

	t.Run("declared entries win over everything", func(t *testing.T) {
		t.Parallel()

		dir := scaffold(t, "src/index.js", "src/cli.js")
		got, err := Resolve(dir, []string{"src/cli.js"}, &manifest.Manifest{Source: manifest.StringList{"src/index.js"}})
		if err != nil {
			t.Fatal(err)
		}
		if want := []string{"src/cli.js"}; !slices.Equal(rel(t, dir, got), want) {
			t.Errorf("entries = %v, want %v", rel(t, dir, got), want)
		}
	})

	t.Run("glob expansion with dedupe", func(t *testing.T) {
		t.Parallel()

		dir := scaffold(t, "src/a.js", "src/b.js")
		got, err := Resolve(dir, []string{"src/*.js", "src/a.js"}, &manifest.Manifest{})
		if err != nil {
			t.Fatal(err)
		}
		if want := []string{"src/a.js", "src/b.js"}; !slices.Equal(rel(t, dir, got), want) {
			t.Errorf("entries = %v, want %v", rel(t, dir, got), want)
		}
	})

	t.Run("manifest source field", func(t *testing.T) {
		t.Parallel()

		dir := scaffold(t, "lib/main.js")
		got, err := Resolve(dir, nil, &manifest.Manifest{Source: manifest.StringList{"lib/main.js"}})
		if err != nil {
			t.Fatal(err)
		}
		if want := []string{"lib/main.js"}; !slices.Equal(rel(t, dir, got), want) {
			t.Errorf("entries = %v, want %v", rel(t, dir, got), want)
		}
	})

	t.Run("src/index prefers typescript", func(t *testing.T) {
		t.Parallel()

		dir := scaffold(t, "src/index.ts", "src/index.js")
		got, err := Resolve(dir, nil, &manifest.Manifest{})
		if err != nil {
			t.Fatal(err)
		}
		if want := []string{"src/index.ts"}; !slices.Equal(rel(t, dir, got), want) {
			t.Errorf("entries = %v, want %v", rel(t, dir, got), want)
		}
	})

	t.Run("root index fallback", func(t *testing.T) {
		t.Parallel()

		dir := scaffold(t, "index.js")
		got, err := Resolve(dir, nil, &manifest.Manifest{})
		if err != nil {
			t.Fatal(err)
		}
		if want := []string{"index.js"}; !slices.Equal(rel(t, dir, got), want) {
			t.Errorf("entries = %v, want %v", rel(t, dir, got), want)
		}
	})

	t.Run("module field fallback", func(t *testing.T) {
		t.Parallel()

		dir := scaffold(t, "lib/pkg.mjs")
		got, err := Resolve(dir, nil, &manifest.Manifest{Module: "lib/pkg.mjs"})
		if err != nil {
			t.Fatal(err)
		}
		if want := []string{"lib/pkg.mjs"}; !slices.Equal(rel(t, dir, got), want) {
			t.Errorf("entries = %v, want %v", rel(t, dir, got), want)
		}
	})

	t.Run("directory entry rewrites to its index", func(t *testing.T) {
		t.Parallel()

		dir := scaffold(t, "src/sub/index.ts", "src/keep.js")
		got, err := Resolve(dir, []string{"src/sub"}, &manifest.Manifest{})
		if err != nil {
			t.Fatal(err)
		}
		if want := []string{"src/sub/index.ts"}; !slices.Equal(rel(t, dir, got), want) {
			t.Errorf("entries = %v, want %v", rel(t, dir, got), want)
		}
	})

	t.Run("no entry found", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		_, err := Resolve(dir, nil, &manifest.Manifest{})
		var ie *issue.Error
		if !errors.As(err, &ie) {
			t.Fatalf("Resolve() error = %v, want *issue.Error", err)
		}
		if len(ie.Suggestions) == 0 {
			t.Error("no-entry error should carry suggestions")
		}
	})

	t.Run("declared glob matching nothing", func(t *testing.T) {
		t.Parallel()

		dir := scaffold(t, "src/index.js")
		_, err := Resolve(dir, []string{"missing/*.js"}, &manifest.Manifest{})
		var ie *issue.Error
		if !errors.As(err, &ie) {
			t.Fatalf("Resolve() error = %v, want *issue.Error", err)
		}
	})
}
