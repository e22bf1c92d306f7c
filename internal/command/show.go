// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/apex/log"
	"github.com/urfave/cli/v3"

	"github.com/staranto/linecache/internal/config"
	"github.com/staranto/linecache/internal/linecache"
	"github.com/staranto/linecache/internal/meta"
)

// lineRow is one line of a file as emitted by show.
type lineRow struct {
	File string `json:"file"`
	Line int    `json:"line"`
	Text string `json:"text"`
}

// lineSpec selects the lines show prints. A zero value selects every line.
type lineSpec struct {
	first, last int
}

func (s lineSpec) all() bool { return s.first == 0 }

// parseLineSpec accepts N, FIRST-LAST and FIRST:COUNT. Line numbers start at 1.
func parseLineSpec(spec string) (lineSpec, error) {
	if spec == "" {
		return lineSpec{}, nil
	}

	atoi := func(s string) (int, error) {
		n, err := strconv.Atoi(strings.TrimSpace(s))
		if err != nil || n < 1 {
			return 0, fmt.Errorf("invalid line spec %q", spec)
		}
		return n, nil
	}

	if a, b, ok := strings.Cut(spec, "-"); ok {
		first, err := atoi(a)
		if err != nil {
			return lineSpec{}, err
		}
		last, err := atoi(b)
		if err != nil {
			return lineSpec{}, err
		}
		if last < first {
			return lineSpec{}, fmt.Errorf("invalid line spec %q: last before first", spec)
		}
		return lineSpec{first: first, last: last}, nil
	}

	if a, b, ok := strings.Cut(spec, ":"); ok {
		first, err := atoi(a)
		if err != nil {
			return lineSpec{}, err
		}
		count, err := atoi(b)
		if err != nil {
			return lineSpec{}, err
		}
		// Ranges past the end are clamped later; keep first+count from overflowing.
		if count > math.MaxInt-first {
			count = math.MaxInt - first + 1
		}
		return lineSpec{first: first, last: first + count - 1}, nil
	}

	n, err := atoi(spec)
	if err != nil {
		return lineSpec{}, err
	}
	return lineSpec{first: n, last: n}, nil
}

// ShowCommandAction prints the lines of a file, or a single line or range of
// lines from it.
func ShowCommandAction(ctx context.Context, cmd *cli.Command) error {
	m := GetMeta(cmd)
	log.Debugf("Executing action for %v", m.Args[1:])

	if ShortCircuitTLDR(ctx, cmd, "show") {
		return nil
	}

	config.Config.Namespace = "show"

	file := cmd.Args().Get(0)
	spec, err := parseLineSpec(cmd.Args().Get(1))
	if err != nil {
		return err
	}

	if cmd.Bool("stdin") {
		if err := registerStdin(cmd, m, file); err != nil {
			return err
		}
	}

	cache := NewCache(cmd, m)
	reload := cmd.Bool("reload")

	lines, first, err := selectLines(cache, file, spec, reload)
	if err != nil {
		return err
	}

	if cmd.String("output") == "raw" {
		w := writer(cmd)
		for _, l := range lines {
			if _, err := io.WriteString(w, l); err != nil {
				return err
			}
		}
		return nil
	}

	rows := make([]lineRow, 0, len(lines))
	for i, l := range lines {
		rows = append(rows, lineRow{File: file, Line: first + i, Text: l})
	}

	attrs, err := BuildAttrs(cmd, "file", "line", "text::c")
	if err != nil {
		return err
	}
	log.Debugf("attrs: %v", attrs)

	return EmitRows(rows, attrs, cmd, nil)
}

// selectLines returns the lines spec selects from file and the number of the
// first of them.
func selectLines(cache *linecache.Cache, file string, spec lineSpec, reload bool) ([]string, int, error) {
	if _, ok := cache.Ensure(file, reload); !ok {
		return nil, 0, fmt.Errorf("%w: %s", linecache.ErrNotFound, file)
	}

	if spec.all() {
		lines, _ := cache.Lines(file, false)
		return lines, 1, nil
	}

	if spec.first == spec.last {
		line, ok := cache.Line(file, spec.first, false)
		if !ok {
			return nil, 0, fmt.Errorf("line %d out of range", spec.first)
		}
		return []string{line}, spec.first, nil
	}

	lines, ok := cache.LineRange(file, spec.first, spec.last, false)
	if !ok {
		return nil, 0, fmt.Errorf("line %d out of range", spec.first)
	}
	return lines, spec.first, nil
}

// registerStdin captures standard input as an in-memory source named name.
func registerStdin(cmd *cli.Command, m meta.Meta, name string) error {
	var r io.Reader = os.Stdin
	if root := cmd.Root(); root != nil && root.Reader != nil {
		r = root.Reader
	}

	lines, err := linecache.SplitLines(r)
	if err != nil {
		return fmt.Errorf("failed to read stdin: %w", err)
	}

	m.Sources.Set(name, lines)
	log.WithFields(log.Fields{"name": name, "lines": len(lines)}).Debug("registered stdin")
	return nil
}

// ShowCommandBuilder constructs the cli.Command for "show".
func ShowCommandBuilder(cmd *cli.Command, meta meta.Meta) *cli.Command {
	return (&CommandBuilder{
		Name:      "show",
		Usage:     "print lines of a file",
		UsageText: "linecache show [options] FILE [LINE | FIRST-LAST | FIRST:COUNT]",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:        "stdin",
				Usage:       "read FILE's lines from standard input instead of disk",
				HideDefault: true,
			},
		},
		Action:    ShowCommandAction,
		Validator: FilesRequiredValidator,
		Meta:      meta,
	}).Build()
}
