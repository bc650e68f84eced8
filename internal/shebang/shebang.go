// SPDX-License-Identifier: MPL-2.0

// Package shebang preserves leading interpreter directives across the build.
// The directive is stripped from the entry source before the engine
// transforms it and reinjected as the very first line of the output
// artifact. Strip and reinject run in separate passes, so the directive is
// held in a cache scoped to one build run and keyed by build name.
package shebang

import (
	"strings"
	"sync"
)

type (
	// Cache holds stripped directives for one build run. The zero value is
	// not usable; call NewCache. Safe for concurrent use: watch sessions
	// for separate entries share one cache.
	Cache struct {
		mu         sync.Mutex
		directives map[string]string
	}
)

// NewCache returns an empty directive cache for one build run.
func NewCache() *Cache {
	return &Cache{directives: map[string]string{}}
}

// Strip removes a leading "#!" directive from source, recording it under
// name for later reinjection. Source without a directive is returned
// unchanged and clears any previously recorded directive for the name, so a
// rebuild of an edited entry cannot resurrect a stale directive.
func (c *Cache) Strip(name, source string) string {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !strings.HasPrefix(source, "#!") {
		delete(c.directives, name)
		return source
	}
	line, rest, found := strings.Cut(source, "\n")
	c.directives[name] = line
	if !found {
		return ""
	}
	return rest
}

// Banner returns the directive recorded for name plus a trailing newline,
// ready to prepend to the output artifact, or "" when the entry had none.
func (c *Cache) Banner(name string) string {
	c.mu.Lock()
	defer c.mu.Unlock()

	d, ok := c.directives[name]
	if !ok {
		return ""
	}
	return d + "\n"
}
