// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package linecache

import (
	"sync"
)

// Source is a file's content captured in memory by someone other than the
// cache, e.g. an interpreter that already holds a script's lines. A Source
// is either Unpopulated (the name is tracked but nothing has been captured
// yet) or Populated with lines.
type Source struct {
	lines     []string
	populated bool
}

// Unpopulated returns a Source that is tracked but carries no content. The
// cache treats it as absent and falls through to the filesystem.
func Unpopulated() Source {
	return Source{}
}

// Populated returns a Source holding a copy of lines. Each line should keep
// its terminator, the same as lines read from disk.
func Populated(lines []string) Source {
	cp := make([]string, len(lines))
	copy(cp, lines)
	return Source{lines: cp, populated: true}
}

// Lines returns the captured lines and true, or nil and false when the
// Source is Unpopulated.
func (s Source) Lines() ([]string, bool) {
	if !s.populated {
		return nil, false
	}
	return s.lines, true
}

// Registry is a read-only view of in-memory sources keyed by name. The cache
// consults it during a load and never writes to it.
type Registry interface {
	Lookup(name string) (Source, bool)
}

// Sources is a map-backed Registry. The zero value is ready to use and it is
// safe for concurrent use.
type Sources struct {
	mu      sync.RWMutex
	entries map[string]Source
}

// NewSources returns an empty Sources.
func NewSources() *Sources {
	return &Sources{entries: make(map[string]Source)}
}

// Track registers name as known but not yet captured.
func (s *Sources) Track(name string) {
	s.put(name, Unpopulated())
}

// Set registers lines under name.
func (s *Sources) Set(name string, lines []string) {
	s.put(name, Populated(lines))
}

// Delete forgets name.
func (s *Sources) Delete(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, name)
}

// Lookup implements Registry.
func (s *Sources) Lookup(name string) (Source, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	src, ok := s.entries[name]
	return src, ok
}

func (s *Sources) put(name string, src Source) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.entries == nil {
		s.entries = make(map[string]Source)
	}
	s.entries[name] = src
}
