// SPDX-License-Identifier: MPL-2.0

package bundle

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"micropack-cli/internal/watch"
)

type (
	// EventKind tags a watch lifecycle event.
	EventKind int

	// Event is one tagged watch lifecycle notification: Started fires on
	// every rebuild attempt, Failed on a compile error (the session keeps
	// watching), Completed on success with the artifact summary.
	Event struct {
		Entry    string
		Kind     EventKind
		Err      error
		Summary  *Summary
		Duration time.Duration
	}

	// Session is a live watch run: one watcher over the package directory
	// feeding one event stream. A session never terminates on its own; Stop
	// (or the parent context) is the only way out.
	Session struct {
		events  chan Event
		done    chan struct{}
		cancel  context.CancelFunc
		wg      sync.WaitGroup
		stopped sync.Once
	}
)

const (
	// Started fires on every rebuild attempt.
	Started EventKind = iota
	// Failed fires when a rebuild fails.
	Failed
	// Completed fires after a successful rebuild.
	Completed
)

func (k EventKind) String() string {
	switch k {
	case Started:
		return "started"
	case Failed:
		return "failed"
	case Completed:
		return "completed"
	default:
		return "unknown"
	}
}

// Watch starts a continuous build session: an initial build of every entry,
// then one filesystem watcher over the package directory. Entries share one
// source tree and no dependency graph is tracked per entry, so a change
// rebuilds every entry, each reporting its own lifecycle events. Dependency
// directories and the output tree are excluded from watching so rebuilds
// cannot retrigger themselves.
func (b *Build) Watch(ctx context.Context) (*Session, error) {
	ctx, cancel := context.WithCancel(ctx)
	s := &Session{
		events: make(chan Event, 16),
		done:   make(chan struct{}),
		cancel: cancel,
	}

	w, err := watch.New(watch.Config{
		BaseDir: b.CWD,
		Ignore:  b.watchIgnores(),
		Logger:  b.logger,
		OnChange: func(ctx context.Context, _ []string) error {
			s.rebuildAll(ctx, b)
			return nil
		},
	})
	if err != nil {
		cancel()
		return nil, err
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := w.Run(ctx); err != nil {
			b.logger.Error("watcher stopped", "err", err)
		}
	}()

	// Initial build, deferred so the caller is already consuming events.
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.rebuildAll(ctx, b)
	}()

	return s, nil
}

// Events returns the session's lifecycle stream. The stream is never
// closed: a session has no natural end, so consumers select on it together
// with their own context or Done.
func (s *Session) Events() <-chan Event {
	return s.events
}

// Done is closed once Stop has completed.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// Stop cancels the watcher and waits for in-flight rebuilds. Safe to call
// more than once.
func (s *Session) Stop() {
	s.stopped.Do(func() {
		s.cancel()
		s.wg.Wait()
		close(s.done)
	})
}

// rebuildAll rebuilds every entry in order. One entry's failure does not
// stop its siblings from rebuilding.
func (s *Session) rebuildAll(ctx context.Context, b *Build) {
	for _, entry := range b.Entries {
		if ctx.Err() != nil {
			return
		}
		s.rebuild(ctx, b, entry)
	}
}

// rebuild runs one entry's formats and reports the outcome on the stream.
func (s *Session) rebuild(ctx context.Context, b *Build, entry string) {
	s.emit(ctx, Event{Entry: entry, Kind: Started})

	start := time.Now()
	summary, err := b.RunEntry(ctx, entry)
	if err != nil {
		s.emit(ctx, Event{Entry: entry, Kind: Failed, Err: err, Duration: time.Since(start)})
		return
	}
	s.emit(ctx, Event{Entry: entry, Kind: Completed, Summary: summary, Duration: time.Since(start)})
}

// emit delivers an event unless the session is shutting down.
func (s *Session) emit(ctx context.Context, e Event) {
	select {
	case s.events <- e:
	case <-ctx.Done():
	}
}

// watchIgnores excludes the output tree and the name cache file, both of
// which the build itself writes.
func (b *Build) watchIgnores() []string {
	var ignores []string
	seen := map[string]struct{}{}
	for _, f := range b.Formats {
		for _, e := range b.Entries {
			plan := b.Planner.Plan(e, f)
			rel, err := filepath.Rel(b.CWD, plan.Dir)
			if err != nil || rel == "." {
				continue
			}
			pattern := filepath.ToSlash(rel) + "/**"
			if _, dup := seen[pattern]; dup {
				continue
			}
			seen[pattern] = struct{}{}
			ignores = append(ignores, pattern)
		}
	}
	if rel, err := filepath.Rel(b.CWD, b.NameCachePath); err == nil {
		ignores = append(ignores, filepath.ToSlash(rel))
	}
	return ignores
}
