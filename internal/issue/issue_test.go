// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"errors"
	"os"
	"strings"
	"testing"
)

func TestContextBuild(t *testing.T) {
	t.Parallel()

	t.Run("operation is required", func(t *testing.T) {
		t.Parallel()

		if err := NewContext().Resource("package.json").Err(); err != nil {
			t.Fatalf("Err() without operation = %v, want nil", err)
		}
	})

	t.Run("full context", func(t *testing.T) {
		t.Parallel()

		cause := errors.New("boom")
		err := NewContext().
			Operation("resolve entry modules").
			Resource("/pkg").
			Suggestion("Declare a source field").
			Wrap(cause).
			Err()

		want := "failed to resolve entry modules: /pkg: boom"
		if err.Error() != want {
			t.Errorf("Error() = %q, want %q", err.Error(), want)
		}
		if !errors.Is(err, cause) {
			t.Error("errors.Is(err, cause) = false, want true")
		}
	})

	t.Run("unwraps through wrapped os errors", func(t *testing.T) {
		t.Parallel()

		err := NewContext().
			Operation("read package manifest").
			Wrap(os.ErrNotExist).
			Err()
		if !errors.Is(err, os.ErrNotExist) {
			t.Error("errors.Is(err, os.ErrNotExist) = false, want true")
		}
	})
}

func TestRender(t *testing.T) {
	t.Parallel()

	e := NewContext().
		Operation("resolve entry modules").
		Suggestion("Create src/index.js").
		Suggestion("Or pass entries explicitly").
		Wrap(errors.New("no candidates")).
		Build()

	plain := e.Render(false)
	if !strings.Contains(plain, "• Create src/index.js") {
		t.Errorf("Render(false) missing suggestion bullet:\n%s", plain)
	}
	if strings.Contains(plain, "Error chain") {
		t.Errorf("Render(false) should not include the error chain:\n%s", plain)
	}

	verbose := e.Render(true)
	if !strings.Contains(verbose, "Error chain:") || !strings.Contains(verbose, "1. no candidates") {
		t.Errorf("Render(true) missing error chain:\n%s", verbose)
	}
}
