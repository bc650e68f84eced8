// SPDX-License-Identifier: MPL-2.0

package shebang

import (
	"strings"
	"testing"
)

func TestStripAndBanner(t *testing.T) {
	t.Parallel()

	c := NewCache()

	src := "#!/usr/bin/env node\nconsole.log(1);\n"
	stripped := c.Strip("pkg", src)

	if strings.Contains(stripped, "#!") {
		t.Errorf("Strip left a directive behind: %q", stripped)
	}
	if stripped != "console.log(1);\n" {
		t.Errorf("stripped = %q", stripped)
	}
	if got, want := c.Banner("pkg"), "#!/usr/bin/env node\n"; got != want {
		t.Errorf("Banner = %q, want %q", got, want)
	}
}

func TestStripWithoutDirective(t *testing.T) {
	t.Parallel()

	c := NewCache()

	src := "console.log(1);\n"
	if got := c.Strip("pkg", src); got != src {
		t.Errorf("Strip = %q, want unchanged source", got)
	}
	if got := c.Banner("pkg"); got != "" {
		t.Errorf("Banner = %q, want empty", got)
	}
}

func TestRebuildClearsStaleDirective(t *testing.T) {
	t.Parallel()

	c := NewCache()

	c.Strip("pkg", "#!/usr/bin/env node\nx();\n")
	c.Strip("pkg", "x();\n")

	if got := c.Banner("pkg"); got != "" {
		t.Errorf("Banner after directive removal = %q, want empty", got)
	}
}

func TestNamesAreIndependent(t *testing.T) {
	t.Parallel()

	c := NewCache()

	c.Strip("cli", "#!/usr/bin/env node\nx();\n")
	c.Strip("lib", "x();\n")

	if c.Banner("cli") == "" {
		t.Error("cli directive lost")
	}
	if c.Banner("lib") != "" {
		t.Error("lib should have no directive")
	}
}

func TestDirectiveOnlySource(t *testing.T) {
	t.Parallel()

	c := NewCache()

	if got := c.Strip("pkg", "#!/usr/bin/env node"); got != "" {
		t.Errorf("Strip = %q, want empty body", got)
	}
	if got := c.Banner("pkg"); got != "#!/usr/bin/env node\n" {
		t.Errorf("Banner = %q", got)
	}
}
