// SPDX-License-Identifier: MPL-2.0

// Package issue provides actionable configuration errors: what operation
// failed, which file or field was involved, and what the user can do about
// it. The CLI layer renders these with styling; everything below it just
// returns them as ordinary errors.
package issue

import (
	"errors"
	"fmt"
	"strings"
)

type (
	// Error is a user-facing error with remediation context. It is used for
	// configuration failures (unresolvable entry, unreadable manifest),
	// never for engine build errors, which carry their own diagnostics.
	Error struct {
		// Op is the operation that failed, as a verb phrase
		// ("resolve entry modules").
		Op string

		// Resource is the file, path, or field involved (optional).
		Resource string

		// Suggestions are remediation hints shown under the message.
		Suggestions []string

		// Cause is the underlying error (optional).
		Cause error
	}

	// Context incrementally builds an Error:
	//
	//	return issue.NewContext().
	//		Operation("resolve entry modules").
	//		Resource(cwd).
	//		Suggestion("Declare a \"source\" field in package.json").
	//		Err()
	Context struct {
		err Error
	}
)

// NewContext returns an empty Error builder.
func NewContext() *Context {
	return &Context{}
}

// Operation sets the failing operation (required).
func (c *Context) Operation(op string) *Context {
	c.err.Op = op
	return c
}

// Resource sets the file, path, or field involved.
func (c *Context) Resource(res string) *Context {
	c.err.Resource = res
	return c
}

// Suggestion appends one remediation hint.
func (c *Context) Suggestion(s string) *Context {
	c.err.Suggestions = append(c.err.Suggestions, s)
	return c
}

// Wrap records the underlying cause.
func (c *Context) Wrap(err error) *Context {
	c.err.Cause = err
	return c
}

// Build returns the constructed Error, or nil if no operation was set.
func (c *Context) Build() *Error {
	if c.err.Op == "" {
		return nil
	}
	e := c.err
	return &e
}

// Err returns the constructed Error as an error value (nil if no operation
// was set), convenient in return statements.
func (c *Context) Err() error {
	if e := c.Build(); e != nil {
		return e
	}
	return nil
}

// Error implements the error interface with the concise one-line form.
func (e *Error) Error() string {
	var msg strings.Builder
	msg.WriteString("failed to ")
	msg.WriteString(e.Op)
	if e.Resource != "" {
		msg.WriteString(": ")
		msg.WriteString(e.Resource)
	}
	if e.Cause != nil {
		msg.WriteString(": ")
		msg.WriteString(e.Cause.Error())
	}
	return msg.String()
}

// Unwrap returns the cause for errors.Is/As.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Render returns the display form: the one-line message, bulleted
// suggestions, and (in verbose mode) the unwrapped error chain.
func (e *Error) Render(verbose bool) string {
	var msg strings.Builder
	msg.WriteString(e.Error())

	if len(e.Suggestions) > 0 {
		msg.WriteString("\n")
		for _, s := range e.Suggestions {
			msg.WriteString("\n  • ")
			msg.WriteString(s)
		}
	}

	if verbose && e.Cause != nil {
		msg.WriteString("\n\nError chain:")
		depth := 1
		for err := e.Cause; err != nil; err = errors.Unwrap(err) {
			fmt.Fprintf(&msg, "\n  %d. %s", depth, err.Error())
			depth++
		}
	}

	return msg.String()
}
