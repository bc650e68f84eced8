// SPDX-License-Identifier: MPL-2.0

package bundle

import (
	"bytes"
	"fmt"

	"github.com/klauspost/compress/gzip"

	"micropack-cli/internal/format"
)

type (
	// Artifact is one emitted output file with its measured sizes. Gzip is
	// -1 when measurement failed; size reporting is best-effort and never
	// fails a build.
	Artifact struct {
		Path   string
		Format format.Format
		Raw    int
		Gzip   int
	}

	// Summary accumulates artifacts across all formats of one invocation,
	// in write order.
	Summary struct {
		Artifacts []Artifact
	}
)

// add measures and records one written artifact.
func (s *Summary) add(path string, f format.Format, contents []byte) {
	gz, err := gzipSize(contents)
	if err != nil {
		gz = -1
	}
	s.Artifacts = append(s.Artifacts, Artifact{
		Path:   path,
		Format: f,
		Raw:    len(contents),
		Gzip:   gz,
	})
}

// gzipSize returns the byte size of contents after maximum gzip compression,
// the conventional proxy for transfer size.
func gzipSize(contents []byte) (int, error) {
	var buf bytes.Buffer
	zw, err := gzip.NewWriterLevel(&buf, gzip.BestCompression)
	if err != nil {
		return 0, err
	}
	if _, err := zw.Write(contents); err != nil {
		return 0, err
	}
	if err := zw.Close(); err != nil {
		return 0, err
	}
	return buf.Len(), nil
}

// FormatBytes renders a byte count in the human unit scheme used by the
// size report ("1.23 kB", "456 B").
func FormatBytes(n int) string {
	switch {
	case n < 0:
		return "n/a"
	case n < 1000:
		return fmt.Sprintf("%d B", n)
	case n < 1000*1000:
		return fmt.Sprintf("%.2f kB", float64(n)/1000)
	default:
		return fmt.Sprintf("%.2f MB", float64(n)/(1000*1000))
	}
}
