// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"time"

	"github.com/apex/log"
	"github.com/cespare/xxhash/v2"
	"github.com/fsnotify/fsnotify"
	"github.com/urfave/cli/v3"
	"github.com/yudai/gojsondiff"
	"github.com/yudai/gojsondiff/formatter"

	"github.com/staranto/linecache/internal/attrs"
	"github.com/staranto/linecache/internal/config"
	"github.com/staranto/linecache/internal/linecache"
	"github.com/staranto/linecache/internal/meta"
	"github.com/staranto/linecache/internal/output"
)

// Kinds of change reported by watch.
const (
	changeModified = "modified"
	changeTouched  = "touched"
	changeRemoved  = "removed"
	changeRestored = "restored"
)

const watchDebounce = 100 * time.Millisecond

// change is one file whose cache entry was invalidated.
type change struct {
	Key  string
	Kind string
	Old  []string
	New  []string
}

// changeRow is a change as emitted by watch.
type changeRow struct {
	Time   string `json:"time"`
	File   string `json:"file"`
	Change string `json:"change"`
	Lines  int    `json:"lines"`
}

// lineWatcher remembers the last lines seen for each watched key so that a
// reload can be told apart from a metadata-only touch.
type lineWatcher struct {
	cache  *linecache.Cache
	keys   []string
	lines  map[string][]string
	prints map[string]uint64
}

// newLineWatcher loads every key. A key that cannot be loaded is an error.
func newLineWatcher(cache *linecache.Cache, keys []string) (*lineWatcher, error) {
	lw := &lineWatcher{
		cache:  cache,
		keys:   keys,
		lines:  make(map[string][]string, len(keys)),
		prints: make(map[string]uint64, len(keys)),
	}
	for _, k := range keys {
		lines, ok := cache.Lines(k, false)
		if !ok {
			return nil, fmt.Errorf("%w: %s", linecache.ErrNotFound, k)
		}
		lw.remember(k, lines)
	}
	return lw, nil
}

func (lw *lineWatcher) remember(key string, lines []string) {
	lw.lines[key] = lines
	lw.prints[key] = fingerprint(lines)
}

// fingerprint hashes the content of lines. Lines keep their terminators, so
// concatenation is unambiguous.
func fingerprint(lines []string) uint64 {
	h := xxhash.New()
	for _, l := range lines {
		_, _ = h.WriteString(l)
	}
	return h.Sum64()
}

// dirs returns the directories holding the watched files. Directories are
// watched instead of files so that replace-by-rename saves are seen.
func (lw *lineWatcher) dirs() []string {
	seen := map[string]bool{}
	var dirs []string
	for _, k := range lw.keys {
		path, ok := lw.cache.Path(k)
		if !ok {
			continue
		}
		d := filepath.Dir(path)
		if !seen[d] {
			seen[d] = true
			dirs = append(dirs, d)
		}
	}
	sort.Strings(dirs)
	return dirs
}

// paths maps the resolved path of every watched key back to the key.
func (lw *lineWatcher) paths() map[string]string {
	paths := make(map[string]string, len(lw.keys))
	for _, k := range lw.keys {
		if path, ok := lw.cache.Path(k); ok {
			paths[path] = k
		}
	}
	return paths
}

// scan runs the staleness check over the whole cache and classifies every
// invalidated key. Keys evicted earlier are retried so a file that comes back
// is reported as restored.
func (lw *lineWatcher) scan() []change {
	var changes []change

	for _, k := range lw.cache.CheckAll() {
		old := lw.lines[k]
		lines, ok := lw.cache.Lines(k, false)
		switch {
		case !ok:
			changes = append(changes, change{Key: k, Kind: changeRemoved, Old: old})
			delete(lw.prints, k)
			lw.lines[k] = nil
			continue
		case fingerprint(lines) == lw.prints[k]:
			changes = append(changes, change{Key: k, Kind: changeTouched, Old: old, New: lines})
		default:
			changes = append(changes, change{Key: k, Kind: changeModified, Old: old, New: lines})
		}
		lw.remember(k, lines)
	}

	for _, k := range lw.keys {
		if _, tracked := lw.prints[k]; tracked || lw.cache.IsCached(k) {
			continue
		}
		if lines, ok := lw.cache.Lines(k, false); ok {
			changes = append(changes, change{Key: k, Kind: changeRestored, New: lines})
			lw.remember(k, lines)
		}
	}

	return changes
}

// lineDiff renders the difference between two versions of a file's lines.
func lineDiff(before, after []string) (string, error) {
	left := map[string]interface{}{"lines": toInterfaces(before)}
	right := map[string]interface{}{"lines": toInterfaces(after)}

	d := gojsondiff.New().CompareObjects(left, right)
	if !d.Modified() {
		return "", nil
	}

	f := formatter.NewAsciiFormatter(left, formatter.AsciiFormatterConfig{
		ShowArrayIndex: true,
	})
	return f.Format(d)
}

func toInterfaces(lines []string) []interface{} {
	result := make([]interface{}, len(lines))
	for i, l := range lines {
		result[i] = l
	}
	return result
}

// WatchCommandAction caches every FILE and reports each change made to them
// until interrupted or until --count changes have been reported.
func WatchCommandAction(ctx context.Context, cmd *cli.Command) error {
	m := GetMeta(cmd)
	log.Debugf("Executing action for %v", m.Args[1:])

	if ShortCircuitTLDR(ctx, cmd, "watch") {
		return nil
	}

	config.Config.Namespace = "watch"

	al, err := BuildAttrs(cmd, "time", "file", "change", "lines")
	if err != nil {
		return err
	}

	lw, err := newLineWatcher(NewCache(cmd, m), cmd.Args().Slice())
	if err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to start watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	for _, d := range lw.dirs() {
		if err := watcher.Add(d); err != nil {
			return fmt.Errorf("failed to watch %s: %w", d, err)
		}
		log.WithField("dir", d).Debug("watching")
	}

	opts := output.OptionsFromCommand(cmd)
	paths := lw.paths()
	limit := cmd.Int("count")
	reported := 0

	var pending <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if _, watched := paths[event.Name]; !watched {
				continue
			}
			log.WithFields(log.Fields{"name": event.Name, "op": event.Op.String()}).Debug("event")
			pending = time.After(watchDebounce)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.WithError(err).Warn("watch error")

		case <-pending:
			pending = nil
			changes := lw.scan()
			if len(changes) == 0 {
				continue
			}
			if limit > 0 && reported+len(changes) > limit {
				changes = changes[:limit-reported]
			}
			if err := reportChanges(cmd, changes, al, opts, reported == 0); err != nil {
				return err
			}
			reported += len(changes)
			if limit > 0 && reported >= limit {
				return nil
			}
		}
	}
}

// reportChanges emits one batch of changes, each followed by its diff when
// --diff is set. Titles are only shown on the first batch.
func reportChanges(cmd *cli.Command, changes []change, al attrs.AttrList, opts output.Options, first bool) error {
	w := writer(cmd)
	opts.Titles = opts.Titles && first

	now := time.Now().UTC().Format(time.RFC3339)
	rows := make([]changeRow, 0, len(changes))
	for _, c := range changes {
		rows = append(rows, changeRow{Time: now, File: c.Key, Change: c.Kind, Lines: len(c.New)})
	}

	if err := emitWith(rows, al, opts, w, nil); err != nil {
		return err
	}

	if !cmd.Bool("diff") {
		return nil
	}
	for _, c := range changes {
		if c.Kind != changeModified {
			continue
		}
		d, err := lineDiff(c.Old, c.New)
		if err != nil {
			return fmt.Errorf("failed to diff %s: %w", c.Key, err)
		}
		if _, err := io.WriteString(w, d); err != nil {
			return err
		}
	}
	return nil
}

// WatchCommandBuilder constructs the cli.Command for "watch".
func WatchCommandBuilder(cmd *cli.Command, meta meta.Meta) *cli.Command {
	return (&CommandBuilder{
		Name:      "watch",
		Usage:     "report changes to files as they happen",
		UsageText: "linecache watch [options] FILE...",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "count",
				Usage: "stop after this many changes (0 for no limit)",
				Validator: func(value int) error {
					return FlagValidators(value, PositiveValidator)
				},
			},
			&cli.BoolFlag{
				Name:        "diff",
				Aliases:     []string{"d"},
				Usage:       "print a diff of the lines of modified files",
				HideDefault: true,
			},
		},
		Action:    WatchCommandAction,
		Validator: FilesRequiredValidator,
		Meta:      meta,
	}).Build()
}
