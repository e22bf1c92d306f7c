// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/apex/log"
	"github.com/dustin/go-humanize"
	"github.com/urfave/cli/v3"

	"github.com/staranto/linecache/internal/config"
	"github.com/staranto/linecache/internal/linecache"
	"github.com/staranto/linecache/internal/meta"
)

// infoRow describes one cached file. Size and mtime are strings when --human
// is set.
type infoRow struct {
	File   string `json:"file"`
	Path   string `json:"path"`
	Lines  int    `json:"lines"`
	Size   any    `json:"size"`
	MTime  string `json:"mtime"`
	Digest string `json:"digest"`
}

// InfoCommandAction loads each FILE and reports where it was found, how many
// lines it has, its size and modification time and its SHA1 digest.
func InfoCommandAction(ctx context.Context, cmd *cli.Command) error {
	m := GetMeta(cmd)
	log.Debugf("Executing action for %v", m.Args[1:])

	if ShortCircuitTLDR(ctx, cmd, "info") {
		return nil
	}

	config.Config.Namespace = "info"

	cache := NewCache(cmd, m)
	rows, missing := describeFiles(cache, cmd.Args().Slice(), cmd.Bool("reload"), cmd.Bool("human"))

	for _, f := range missing {
		fmt.Fprintf(os.Stderr, "warning: %s: %v\n", f, linecache.ErrNotFound)
	}

	attrs, err := BuildAttrs(cmd, "file", "path", "lines", "size", "mtime", "digest")
	if err != nil {
		return err
	}
	log.Debugf("attrs: %v", attrs)

	postProcess := func(dataset []map[string]interface{}) error {
		if cmd.Bool("chop") {
			chopPrefix(dataset, "path")
		}
		return nil
	}

	if err := EmitRows(rows, attrs, cmd, postProcess); err != nil {
		return err
	}

	if len(missing) > 0 {
		return fmt.Errorf("%d of %d files could not be loaded", len(missing), cmd.Args().Len())
	}
	return nil
}

// describeFiles builds an info row for every file that loads and returns the
// names of those that do not.
func describeFiles(cache *linecache.Cache, files []string, reload, human bool) (rows []infoRow, missing []string) {
	rows = make([]infoRow, 0, len(files))
	for _, f := range files {
		path, ok := cache.Ensure(f, reload)
		if !ok {
			missing = append(missing, f)
			continue
		}

		row := infoRow{File: f, Path: path}
		row.Lines, _ = cache.LineCount(f, false)
		if d, ok := cache.Digest(f); ok {
			row.Digest = d.String()
		}

		// In-memory sources without a file on disk carry no stat.
		if st, ok := cache.Stat(f); ok {
			if human {
				row.Size = humanize.IBytes(uint64(st.Size)) //nolint:gosec
				row.MTime = humanize.Time(st.ModTime)
			} else {
				row.Size = st.Size
				row.MTime = st.ModTime.UTC().Format(time.RFC3339)
			}
		}

		rows = append(rows, row)
	}
	return rows, missing
}

// chopPrefix shortens the path attribute of the dataset. If at least half of
// the entries share two or more leading directories, those directories are
// replaced with "..".
func chopPrefix(dataset []map[string]interface{}, attribute string) {
	if len(dataset) == 0 {
		return
	}

	sep := string(filepath.Separator)

	type segmentedValue struct {
		idx      int
		value    string
		segments []string
	}
	var segmented []segmentedValue
	maxSegments := 0
	for i, entry := range dataset {
		str, ok := entry[attribute].(string)
		if !ok {
			continue
		}
		// The last segment is the file name and is never chopped.
		segs := strings.Split(str, sep)
		segs = segs[:len(segs)-1]
		segmented = append(segmented, segmentedValue{idx: i, value: str, segments: segs})
		if len(segs) > maxSegments {
			maxSegments = len(segs)
		}
	}

	if len(segmented) == 0 {
		return
	}

	threshold := (len(segmented) + 1) / 2

	// Find the longest run of leading segments shared by at least half.
	var commonSegments []string
	for segIdx := 0; segIdx < maxSegments; segIdx++ {
		segmentCounts := make(map[string]int)
		for _, sv := range segmented {
			if segIdx < len(sv.segments) && prefixMatches(sv.segments, commonSegments) {
				segmentCounts[sv.segments[segIdx]]++
			}
		}

		var bestSegment string
		var bestCount int
		for seg, count := range segmentCounts {
			if count > bestCount || (count == bestCount && seg < bestSegment) {
				bestSegment = seg
				bestCount = count
			}
		}

		if bestCount < threshold {
			break
		}
		commonSegments = append(commonSegments, bestSegment)
	}

	// An absolute path starts with an empty segment, which does not count.
	meaningful := 0
	for _, s := range commonSegments {
		if s != "" {
			meaningful++
		}
	}
	if meaningful < 2 {
		return
	}

	prefix := strings.Join(commonSegments, sep) + sep
	for _, sv := range segmented {
		if strings.HasPrefix(sv.value, prefix) {
			dataset[sv.idx][attribute] = ".." + sep + sv.value[len(prefix):]
		}
	}
}

func prefixMatches(segments, prefix []string) bool {
	if len(prefix) > len(segments) {
		return false
	}
	for i := range prefix {
		if segments[i] != prefix[i] {
			return false
		}
	}
	return true
}

// InfoCommandBuilder constructs the cli.Command for "info".
func InfoCommandBuilder(cmd *cli.Command, meta meta.Meta) *cli.Command {
	return (&CommandBuilder{
		Name:      "info",
		Usage:     "describe cached files",
		UsageText: "linecache info [options] FILE...",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:        "chop",
				Usage:       "shorten the common leading directories of paths",
				HideDefault: true,
			},
			&cli.BoolFlag{
				Name:        "human",
				Aliases:     []string{"H"},
				Usage:       "human readable size and modification time",
				HideDefault: true,
			},
		},
		Action:    InfoCommandAction,
		Validator: FilesRequiredValidator,
		Meta:      meta,
	}).Build()
}
