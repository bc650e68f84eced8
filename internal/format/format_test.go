// SPDX-License-Identifier: MPL-2.0

package format

import (
	"slices"
	"testing"
)

func TestParse(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{in: "cjs", want: CJS},
		{in: "commonjs", want: CJS},
		{in: "es", want: ES},
		{in: "esm", want: ES},
		{in: "module", want: ES},
		{in: "umd", want: UMD},
		{in: "modern", want: Modern},
		{in: " ES ", want: ES},
		{in: "iife", wantErr: true},
		{in: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()

			got, err := Parse(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("Parse(%q) = %v, want error", tt.in, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("Parse(%q): %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("Parse(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestParseList(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		in      string
		want    []Format
		wantErr bool
	}{
		{
			name: "cjs first regardless of declaration order",
			in:   "umd,es,cjs",
			want: []Format{CJS, ES, UMD},
		},
		{
			name: "remaining formats lexicographic",
			in:   "umd,modern,es",
			want: []Format{ES, Modern, UMD},
		},
		{
			name: "duplicates collapse",
			in:   "es,esm,module",
			want: []Format{ES},
		},
		{
			name: "empty input uses default list",
			in:   "",
			want: []Format{CJS, ES, Modern, UMD},
		},
		{
			name: "dangling commas tolerated",
			in:   "cjs,,es,",
			want: []Format{CJS, ES},
		},
		{
			name:    "unknown token rejected",
			in:      "cjs,amd",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := ParseList(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseList(%q) = %v, want error", tt.in, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseList(%q): %v", tt.in, err)
			}
			if !slices.Equal(got, tt.want) {
				t.Errorf("ParseList(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}
