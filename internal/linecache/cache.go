// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package linecache

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/apex/log"
)

// FileStat is the metadata snapshot taken when an entry was loaded. It is a
// freshness witness: the entry's lines are what the file held when it had
// this size and modification time.
type FileStat struct {
	Size    int64
	ModTime time.Time
}

// Equal reports whether both the size and the modification time match.
func (s FileStat) Equal(o FileStat) bool {
	return s.Size == o.Size && s.ModTime.Equal(o.ModTime)
}

func statOf(info os.FileInfo) FileStat {
	return FileStat{Size: info.Size(), ModTime: info.ModTime()}
}

// entry is replaced wholesale on every reload. Only digest is filled in
// after construction.
type entry struct {
	// stat is nil for in-memory content with no file behind it. Such entries
	// are never invalidated automatically.
	stat   *FileStat
	lines  []string
	path   string
	digest *Digest
}

// Cache maps a filename, exactly as the caller spelled it, to the file's
// lines. Every public method holds a single lock for its whole duration, so
// a reload is never observed half done.
type Cache struct {
	mu         sync.Mutex
	fsys       FS
	searchPath []string
	sources    Registry

	entries map[string]*entry
	// reverse maps a resolved path back to the name it was first loaded
	// under, or to the in-memory source name that supplied it.
	reverse map[string]string
}

// Option customizes a Cache.
type Option func(*Cache)

// WithSearchPath sets the directories tried, in order, for bare filenames
// that do not exist relative to the working directory.
func WithSearchPath(dirs ...string) Option {
	return func(c *Cache) {
		c.searchPath = append([]string(nil), dirs...)
	}
}

// WithSources sets the registry of in-memory sources consulted before the
// filesystem.
func WithSources(r Registry) Option {
	return func(c *Cache) { c.sources = r }
}

// WithFS replaces the filesystem. Defaults to OS.
func WithFS(fsys FS) Option {
	return func(c *Cache) { c.fsys = fsys }
}

// New returns an empty Cache.
func New(opts ...Option) *Cache {
	c := &Cache{
		fsys:    OS{},
		entries: make(map[string]*entry),
		reverse: make(map[string]string),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SearchPath returns a copy of the configured search directories.
func (c *Cache) SearchPath() []string {
	return append([]string(nil), c.searchPath...)
}

// Line returns line lineno (1-based) of key. The result is false if key
// cannot be loaded or lineno is outside [1, line count]. With reload set the
// entry is checked for staleness first.
func (c *Cache) Line(key string, lineno int, reload bool) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.lookup(key, reload)
	if !ok || lineno < 1 || lineno > len(e.lines) {
		return "", false
	}
	return e.lines[lineno-1], true
}

// Lines returns all lines of key, each with its terminator. False means the
// file could not be loaded, which is distinct from an empty file (an empty,
// non-nil slice and true).
func (c *Cache) Lines(key string, reload bool) ([]string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.lookup(key, reload)
	if !ok {
		return nil, false
	}
	return copyLines(e.lines), true
}

// LineRange returns lines first through last inclusive. last is clamped to
// the line count. False if key cannot be loaded, first is out of range, or
// last is before first.
func (c *Cache) LineRange(key string, first, last int, reload bool) ([]string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.lookup(key, reload)
	if !ok || first < 1 || first > len(e.lines) || last < first {
		return nil, false
	}
	if last > len(e.lines) {
		last = len(e.lines)
	}
	return copyLines(e.lines[first-1 : last]), true
}

// LineCount returns the number of lines in key.
func (c *Cache) LineCount(key string, reload bool) (int, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.lookup(key, reload)
	if !ok {
		return 0, false
	}
	return len(e.lines), true
}

// Ensure makes sure key is cached, loading it if needed, and returns the
// path it was loaded from.
func (c *Cache) Ensure(key string, reload bool) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.lookup(key, reload)
	if !ok {
		return "", false
	}
	return e.path, true
}

// Refresh discards any entry for key and loads it again.
func (c *Cache) Refresh(key string) ([]string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, err := c.load(key)
	if err != nil {
		log.WithError(err).Debugf("refresh %s", key)
		return nil, false
	}
	return copyLines(e.lines), true
}

// Check reloads key if its file changed size or modification time, or no
// longer exists. stale reports whether that happened; cached is false when
// key was not in the cache, in which case nothing is done. An entry whose
// reload fails is evicted. Entries without file metadata are never stale.
func (c *Cache) Check(key string) (stale bool, cached bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return false, false
	}
	return c.check(key, e), true
}

// CheckAll runs Check over every cached key and returns, sorted, the keys
// that were stale.
func (c *Cache) CheckAll() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	var stale []string
	for _, key := range c.keys() {
		e, ok := c.entries[key]
		if !ok {
			continue
		}
		if c.check(key, e) {
			stale = append(stale, key)
		}
	}
	return stale
}

// IsCached reports whether key has an entry. It never loads.
func (c *Cache) IsCached(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	_, ok := c.entries[key]
	return ok
}

// Path returns the path key was loaded from.
func (c *Cache) Path(key string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return "", false
	}
	return e.path, true
}

// Stat returns the metadata recorded when key was loaded. False for
// uncached keys and for in-memory content with no file on disk.
func (c *Cache) Stat(key string) (FileStat, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok || e.stat == nil {
		return FileStat{}, false
	}
	return *e.stat, true
}

// Digest returns the SHA1 of key's cached lines. It is computed on first
// use and remembered until the entry is replaced.
func (c *Cache) Digest(key string) (Digest, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return Digest{}, false
	}
	if e.digest == nil {
		d := sumLines(e.lines)
		e.digest = &d
	}
	return *e.digest, true
}

// Clear evicts key. It is a no-op for uncached keys.
func (c *Cache) Clear(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.entries, key)
}

// ClearAll evicts every entry and forgets every resolved path.
func (c *Cache) ClearAll() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]*entry)
	c.reverse = make(map[string]string)
}

// Keys returns the cached keys, sorted.
func (c *Cache) Keys() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.keys()
}

func (c *Cache) keys() []string {
	keys := make([]string, 0, len(c.entries))
	for k := range c.entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// lookup returns the entry for key, loading it if absent. Must be called
// with c.mu held.
func (c *Cache) lookup(key string, reload bool) (*entry, bool) {
	if reload {
		if e, ok := c.entries[key]; ok && c.check(key, e) {
			// check already tried to reload; an evicted key stays missing.
			e, ok = c.entries[key]
			return e, ok
		}
	}

	if e, ok := c.entries[key]; ok {
		return e, true
	}

	e, err := c.load(key)
	if err != nil {
		log.WithError(err).Debugf("load %s", key)
		return nil, false
	}
	return e, true
}

// check compares e's recorded metadata with the file and reloads key on a
// mismatch. Must be called with c.mu held.
func (c *Cache) check(key string, e *entry) bool {
	if e.stat == nil {
		return false
	}

	info, err := c.fsys.Stat(e.path)
	if err == nil && !info.IsDir() && statOf(info).Equal(*e.stat) {
		return false
	}

	if err != nil {
		log.Debugf("stale %s: %s is gone", key, e.path)
	} else {
		log.Debugf("stale %s: %s changed", key, e.path)
	}

	if _, err := c.load(key); err != nil {
		log.WithError(err).Debugf("reload %s failed, evicted", key)
	}
	return true
}

// load builds a fresh entry for key and stores it. Any existing entry is
// dropped first so a failed load leaves key uncached. Must be called with
// c.mu held.
func (c *Cache) load(key string) (*entry, error) {
	delete(c.entries, key)

	path, info, resolveErr := Resolve(c.fsys, c.searchPath, key)
	if path == "" {
		// The name could not be expanded, so only the registry can supply it.
		path = key
	}

	if e, name, ok := c.fromSource(key, path, info); ok {
		c.entries[key] = e
		c.reverse[path] = name
		log.Debugf("loaded %s from memory (%d lines)", key, len(e.lines))
		return e, nil
	}

	if resolveErr != nil {
		return nil, resolveErr
	}

	lines, err := readLines(c.fsys, path)
	if err != nil {
		return nil, err
	}

	st := statOf(info)
	e := &entry{stat: &st, lines: lines, path: path}
	c.entries[key] = e
	if _, ok := c.reverse[path]; !ok {
		c.reverse[path] = key
	}
	log.Debugf("loaded %s from %s (%d lines)", key, path, len(lines))
	return e, nil
}

// fromSource builds an entry from a populated in-memory source registered
// under key, under path, or under the name that previously resolved to path.
// It also returns the name the source was found under.
func (c *Cache) fromSource(key, path string, info os.FileInfo) (*entry, string, bool) {
	if c.sources == nil {
		return nil, "", false
	}

	names := []string{key, path}
	if prev, ok := c.reverse[path]; ok && prev != key && prev != path {
		names = append(names, prev)
	}

	for _, name := range names {
		src, ok := c.sources.Lookup(name)
		if !ok {
			continue
		}
		lines, ok := src.Lines()
		if !ok {
			continue
		}

		e := &entry{lines: copyLines(lines), path: path}
		if info != nil {
			st := statOf(info)
			e.stat = &st
		}
		return e, name, true
	}

	return nil, "", false
}

// readLines reads path and splits it with SplitLines.
func readLines(fsys FS, path string) ([]string, error) {
	f, err := fsys.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w: %w", path, ErrUnreadable, err)
	}
	defer func() { _ = f.Close() }()

	lines, err := SplitLines(f)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w: %w", path, ErrUnreadable, err)
	}

	return lines, nil
}

// SplitLines reads r to the end and splits it after every newline, keeping the
// newline on each line. A final line without a newline is kept as is. Empty
// input yields an empty, non-nil slice.
func SplitLines(r io.Reader) ([]string, error) {
	lines := []string{}
	br := bufio.NewReader(r)
	for {
		line, err := br.ReadString('\n')
		if line != "" {
			lines = append(lines, line)
		}
		if errors.Is(err, io.EOF) {
			return lines, nil
		}
		if err != nil {
			return nil, err
		}
	}
}

func copyLines(lines []string) []string {
	cp := make([]string, len(lines))
	copy(cp, lines)
	return cp
}
