// Copyright © 2025 Steve Taranto staranto@gmail.com
// SPDX-License-Identifier: MIT
package command

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/apex/log"
	"github.com/urfave/cli/v3"

	"github.com/staranto/linecache/internal/config"
	"github.com/staranto/linecache/internal/linecache"
	"github.com/staranto/linecache/internal/meta"
)

func InitApp(ctx context.Context, args []string) (*cli.Command, error) {
	sd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to get working directory: %w", err)
	}

	// The arg[1] immediately following the binary (arg[0]) is the linecache
	// subcommand and also represents the namespace key to be used when
	// retrieving config values. arg[1] could be -h/--help, so ignore it if it
	// appears to be a flag.
	var ns string
	if len(args) > 1 && !strings.HasPrefix(args[1], "-") {
		ns = args[1]
	}

	// Running without a config file is normal. Pointing LINECACHE_CFG at one
	// that cannot be used is not.
	cfg, err := config.Load(ns)
	if err != nil {
		if os.Getenv("LINECACHE_CFG") != "" {
			return nil, err
		}
		log.WithError(err).Debug("no config file")
	}

	meta := meta.Meta{
		Args:        args,
		Config:      cfg,
		Context:     ctx,
		Sources:     linecache.NewSources(),
		StartingDir: sd,
	}

	app := &cli.Command{
		Name:  "linecache",
		Usage: "cached, change-aware access to the lines of files",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:        "version",
				Aliases:     []string{"v"},
				Usage:       "linecache version info",
				HideDefault: true,
			},
		},
	}

	app.Commands = append(app.Commands,
		ShowCommandBuilder(app, meta),
		InfoCommandBuilder(app, meta),
		WatchCommandBuilder(app, meta),
		CompletionCommandBuilder(app, meta),
	)

	// Make sure flags are sorted for the --help text.
	for _, cmd := range app.Commands {
		sort.Slice(cmd.Flags, func(i, j int) bool {
			return cmd.Flags[i].Names()[0] < cmd.Flags[j].Names()[0]
		})
	}

	return app, nil
}
