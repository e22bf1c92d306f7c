// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/apex/log"
	"github.com/urfave/cli/v3"

	"github.com/staranto/linecache/internal/attrs"
	"github.com/staranto/linecache/internal/config"
	"github.com/staranto/linecache/internal/linecache"
	"github.com/staranto/linecache/internal/meta"
	"github.com/staranto/linecache/internal/output"
)

// ShortCircuitTLDR checks the --tldr flag and, if present and available,
// runs `tldr linecache-<subcmd>` and returns true so the caller can exit
// early.
func ShortCircuitTLDR(ctx context.Context, cmd *cli.Command, subcmd string) bool {
	if cmd.Bool("tldr") {
		if _, err := exec.LookPath("tldr"); err == nil {
			c := exec.CommandContext(ctx, "tldr", "linecache-"+subcmd)
			c.Stdout = writer(cmd)
			c.Stderr = os.Stderr
			_ = c.Run()
		}
		return true
	}
	return false
}

// BuildAttrs constructs an AttrList with defaults and optional extras from
// --attrs, then applies the global transform spec.
func BuildAttrs(cmd *cli.Command, defaults ...string) (al attrs.AttrList, err error) {
	for _, d := range defaults {
		if err = al.Set(d); err != nil {
			return nil, err
		}
	}
	if extras := cmd.String("attrs"); extras != "" {
		if err = al.Set(extras); err != nil {
			return nil, fmt.Errorf("invalid --attrs: %w", err)
		}
	}
	err = al.SetGlobalTransformSpec()
	return
}

// GetMeta returns the meta.Meta stored in the command's Metadata. If missing
// or of an unexpected type, it returns the zero value.
func GetMeta(cmd *cli.Command) meta.Meta {
	if cmd == nil || cmd.Metadata == nil {
		return meta.Meta{}
	}
	if m, ok := cmd.Metadata["meta"].(meta.Meta); ok {
		return m
	}
	return meta.Meta{}
}

// SearchPath assembles the directories bare filenames are looked up in: every
// --include, then LINECACHE_PATH, then the config file's path list. Relative
// directories are taken from the starting directory.
func SearchPath(cmd *cli.Command, m meta.Meta) []string {
	var dirs []string
	dirs = append(dirs, cmd.StringSlice("include")...)
	dirs = append(dirs, filepath.SplitList(os.Getenv("LINECACHE_PATH"))...)
	if cfgDirs, err := config.GetStringSlice("path", []string{}); err == nil {
		dirs = append(dirs, cfgDirs...)
	} else {
		log.WithError(err).Warn("ignoring config path")
	}

	result := make([]string, 0, len(dirs))
	for _, d := range dirs {
		if d == "" {
			continue
		}
		if !filepath.IsAbs(d) && m.StartingDir != "" {
			d = filepath.Join(m.StartingDir, d)
		}
		result = append(result, d)
	}

	log.Debugf("search path: %v", result)
	return result
}

// NewCache builds the line cache for one invocation from the command flags
// and the in-memory sources carried in meta.
func NewCache(cmd *cli.Command, m meta.Meta) *linecache.Cache {
	opts := []linecache.Option{linecache.WithSearchPath(SearchPath(cmd, m)...)}
	if m.Sources != nil {
		opts = append(opts, linecache.WithSources(m.Sources))
	}
	return linecache.New(opts...)
}

// EmitRows marshals rows to JSON and hands them to the common output routine.
func EmitRows(rows any, al attrs.AttrList, cmd *cli.Command, postProcess output.PostProcessor) error {
	return emitWith(rows, al, output.OptionsFromCommand(cmd), writer(cmd), postProcess)
}

func emitWith(rows any, al attrs.AttrList, opts output.Options, w io.Writer, postProcess output.PostProcessor) error {
	var raw bytes.Buffer
	enc := json.NewEncoder(&raw)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(rows); err != nil {
		return fmt.Errorf("failed to marshal rows: %w", err)
	}
	return output.SliceDiceSpit(raw, al, opts, "", w, postProcess)
}

// writer is where command output goes. Tests swap the root Writer.
func writer(cmd *cli.Command) io.Writer {
	if root := cmd.Root(); root != nil && root.Writer != nil {
		return root.Writer
	}
	return os.Stdout
}

// CommandBuilder constructs a subcommand with the shared metadata, global
// flags and validator wiring.
type CommandBuilder struct {
	Name      string
	Usage     string
	UsageText string
	Flags     []cli.Flag
	Action    func(context.Context, *cli.Command) error
	Validator func(context.Context, *cli.Command) error
	Meta      meta.Meta
}

// Build returns a configured cli.Command from the builder.
func (cb *CommandBuilder) Build() *cli.Command {
	validator := cb.Validator
	if validator == nil {
		validator = GlobalFlagsValidator
	}
	return &cli.Command{
		Name:      cb.Name,
		Usage:     cb.Usage,
		UsageText: cb.UsageText,
		Metadata: map[string]any{
			"meta": cb.Meta,
		},
		Flags: append(cb.Flags, NewGlobalFlags(cb.Name, cb.Meta.Config.Source)...),
		Before: func(ctx context.Context, c *cli.Command) (context.Context, error) {
			if c.Bool("tldr") {
				return ctx, nil
			}
			return ctx, validator(ctx, c)
		},
		Action: cb.Action,
	}
}
