// SPDX-License-Identifier: MPL-2.0

// Package manifest models the package.json fields micropack reads: entry
// declarations, per-format output fields, dependency maps, and the minify
// configuration. The manifest is read from disk exactly once per build and
// never written back.
package manifest

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"micropack-cli/internal/issue"
)

// FileName is the npm package descriptor file name.
const FileName = "package.json"

type (
	// Manifest is the parsed package descriptor. Only the fields micropack
	// consumes are modeled; unknown fields are ignored.
	Manifest struct {
		Name    string `json:"name"`
		Version string `json:"version"`

		// AmdName overrides the derived UMD global/AMD module name.
		AmdName string `json:"amdName"`

		// Output fields. Each format looks up its filename template here;
		// see the outpath package for the selection rules.
		Main       string `json:"main"`
		Module     string `json:"module"`
		JSNextMain string `json:"jsnext:main"`
		CJSMain    string `json:"cjs:main"`
		UMDMain    string `json:"umd:main"`
		Unpkg      string `json:"unpkg"`
		ESModule   string `json:"esmodule"`
		Syntax     Syntax `json:"syntax"`

		Types   string `json:"types"`
		Typings string `json:"typings"`

		// Source declares the entry module(s); a string or an array.
		Source StringList `json:"source"`

		Dependencies     map[string]string `json:"dependencies"`
		PeerDependencies map[string]string `json:"peerDependencies"`

		// Minify / Mangle configure identifier mangling: either a path to a
		// name-cache JSON file or an inline options object. "mangle" is the
		// preferred spelling; "minify" is accepted for compatibility.
		Minify MangleField `json:"minify"`
		Mangle MangleField `json:"mangle"`
	}

	// Syntax holds the "syntax" manifest object; only the esmodules field
	// (the modern-format output template) is read.
	Syntax struct {
		ESModules string `json:"esmodules"`
	}

	// StringList accepts a JSON string or array of strings.
	StringList []string

	// MangleField accepts a JSON string (a name-cache file path) or an
	// inline object with mangling options.
	MangleField struct {
		// Path is set when the field was a string.
		Path string
		// Regex is the property-mangling pattern from an inline object
		// ({"regex": "^_"}).
		Regex string
	}
)

// UnmarshalJSON implements string-or-array decoding for StringList.
func (l *StringList) UnmarshalJSON(data []byte) error {
	var one string
	if err := json.Unmarshal(data, &one); err == nil {
		*l = StringList{one}
		return nil
	}
	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return fmt.Errorf("manifest: source must be a string or an array of strings: %w", err)
	}
	*l = StringList(many)
	return nil
}

// UnmarshalJSON implements string-or-object decoding for MangleField.
func (f *MangleField) UnmarshalJSON(data []byte) error {
	var path string
	if err := json.Unmarshal(data, &path); err == nil {
		f.Path = path
		return nil
	}
	var obj struct {
		Regex string `json:"regex"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("manifest: mangle must be a string path or an options object: %w", err)
	}
	f.Regex = obj.Regex
	return nil
}

// IsZero reports whether the field was absent from the manifest.
func (f MangleField) IsZero() bool {
	return f.Path == "" && f.Regex == ""
}

// TypesFile returns the declared TypeScript declaration output, preferring
// "types" over the legacy "typings" spelling.
func (m *Manifest) TypesFile() string {
	if m.Types != "" {
		return m.Types
	}
	return m.Typings
}

// MangleConfig returns the effective mangle configuration, preferring
// "mangle" over "minify".
func (m *Manifest) MangleConfig() MangleField {
	if !m.Mangle.IsZero() {
		return m.Mangle
	}
	return m.Minify
}

// Load reads and parses <dir>/package.json. A missing manifest is a
// configuration error: micropack derives entries, output names, and
// externals from it, so there is nothing useful to do without one.
func Load(dir string) (*Manifest, error) {
	path := filepath.Join(dir, FileName)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, issue.NewContext().
			Operation("read package manifest").
			Resource(path).
			Suggestion("Run micropack from the package root (the directory containing package.json)").
			Suggestion("Or point it there with --cwd").
			Wrap(err).
			Err()
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, issue.NewContext().
			Operation("parse package manifest").
			Resource(path).
			Suggestion("Check package.json for JSON syntax errors").
			Wrap(err).
			Err()
	}
	return &m, nil
}
