// SPDX-License-Identifier: MPL-2.0

// Package format enumerates the module output shapes micropack can emit and
// the ordering rules between them.
package format

import (
	"fmt"
	"slices"
	"strings"
)

// Format is one of the supported module output shapes.
type Format string

const (
	// CJS is the CommonJS output shape (require/module.exports).
	CJS Format = "cjs"
	// ES is the standard ES module output shape.
	ES Format = "es"
	// UMD is the universal module definition shape, consumable from AMD,
	// CommonJS, and plain <script> environments.
	UMD Format = "umd"
	// Modern is an ES module shape that keeps modern syntax (async/await,
	// object spread) instead of down-leveling it.
	Modern Format = "modern"
)

// DefaultList is the format list used when the caller requests none.
const DefaultList = "modern,es,cjs,umd"

// Parse normalizes a single format token. The "esm" and "module" spellings
// are accepted as aliases for ES, "commonjs" for CJS.
func Parse(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "cjs", "commonjs":
		return CJS, nil
	case "es", "esm", "module":
		return ES, nil
	case "umd":
		return UMD, nil
	case "modern":
		return Modern, nil
	default:
		return "", fmt.Errorf("format: unknown format %q (expected one of cjs, es, umd, modern)", s)
	}
}

// ParseList parses a comma-separated format list, deduplicates it, and sorts
// it into build order. An empty input yields the default list.
func ParseList(s string) ([]Format, error) {
	if strings.TrimSpace(s) == "" {
		s = DefaultList
	}
	var out []Format
	for tok := range strings.SplitSeq(s, ",") {
		if strings.TrimSpace(tok) == "" {
			continue
		}
		f, err := Parse(tok)
		if err != nil {
			return nil, err
		}
		if !slices.Contains(out, f) {
			out = append(out, f)
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("format: empty format list %q", s)
	}
	SortBuildOrder(out)
	return out, nil
}

// SortBuildOrder orders formats for building: cjs always first, the rest
// lexicographic. The first-written format carries side artifacts (extracted
// CSS, the persisted name cache), so the order must be deterministic.
func SortBuildOrder(fs []Format) {
	slices.SortStableFunc(fs, func(a, b Format) int {
		switch {
		case a == b:
			return 0
		case a == CJS:
			return -1
		case b == CJS:
			return 1
		}
		return strings.Compare(string(a), string(b))
	})
}

// Tag returns the filename tag conventionally associated with the format
// (e.g. "x.esm.js" for ES). CJS has no tag: its default template is "x.js".
func (f Format) Tag() string {
	switch f {
	case ES:
		return "esm"
	case UMD:
		return "umd"
	case Modern:
		return "modern"
	default:
		return ""
	}
}
