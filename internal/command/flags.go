// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"os"
	"os/exec"

	altsrc "github.com/urfave/cli-altsrc/v3"
	yaml "github.com/urfave/cli-altsrc/v3/yaml"
	"github.com/urfave/cli/v3"
	"golang.org/x/term"
)

func newTldrFlag() *cli.BoolFlag {
	return &cli.BoolFlag{
		Name:        "tldr",
		Usage:       "show tldr page",
		Hidden:      !pathHas("tldr"),
		HideDefault: true,
	}
}

// NewGlobalFlags returns the flags shared by every subcommand. ns is the
// subcommand name and source is the config file; flag values are looked up
// under ns.<flag> and then <flag> in that file.
func NewGlobalFlags(ns string, source string) (flags []cli.Flag) {
	flags = []cli.Flag{
		&cli.StringFlag{
			Name:    "attrs",
			Aliases: []string{"a"},
			Usage:   "comma-separated list of attributes to include in results",
		},
		&cli.BoolWithInverseFlag{
			Name:    "color",
			Aliases: []string{"c"},
			Usage:   "enable colored text output",
			Sources: cli.NewValueSourceChain(
				cli.EnvVar("LINECACHE_COLOR"),
				yaml.YAML(ns+"."+"color", altsrc.StringSourcer(source)),
				yaml.YAML("color", altsrc.StringSourcer(source)),
			),
			Value: stdoutIsTerminal(),
		},
		&cli.StringFlag{
			Name:    "filter",
			Aliases: []string{"f"},
			Usage:   "comma-separated list of filters to apply to results",
		},
		&cli.StringSliceFlag{
			Name:    "include",
			Aliases: []string{"I"},
			Usage:   "directory to search for bare filenames (repeatable)",
			Validator: func(values []string) error {
				for _, v := range values {
					if err := FlagValidators(v, JammedFlagValidator); err != nil {
						return err
					}
				}
				return nil
			},
		},
		&cli.BoolFlag{
			Name:        "local",
			Usage:       "show timestamps in the TZ time zone",
			HideDefault: true,
			Sources: cli.NewValueSourceChain(
				yaml.YAML(ns+"."+"local", altsrc.StringSourcer(source)),
				yaml.YAML("local", altsrc.StringSourcer(source)),
			),
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "output format (text, json, yaml, raw)",
			Sources: cli.NewValueSourceChain(
				cli.EnvVar("LINECACHE_OUTPUT"),
				yaml.YAML(ns+"."+"output", altsrc.StringSourcer(source)),
				yaml.YAML("output", altsrc.StringSourcer(source)),
			),
			Value: "text",
			Validator: func(value string) error {
				return FlagValidators(value, OutputValidator)
			},
		},
		&cli.BoolFlag{
			Name:        "reload",
			Aliases:     []string{"r"},
			Usage:       "check cached files for changes before serving lines",
			HideDefault: true,
		},
		&cli.StringFlag{
			Name:    "sort",
			Aliases: []string{"s"},
			Usage:   "comma-separated list of attributes to sort the results by",
			Sources: cli.NewValueSourceChain(
				yaml.YAML(ns+"."+"sort", altsrc.StringSourcer(source)),
			),
		},
		&cli.BoolWithInverseFlag{
			Name:    "titles",
			Aliases: []string{"t"},
			Usage:   "show titles with text output",
			Sources: cli.NewValueSourceChain(
				yaml.YAML(ns+"."+"titles", altsrc.StringSourcer(source)),
				yaml.YAML("titles", altsrc.StringSourcer(source)),
			),
			Value: false,
		},
		newTldrFlag(),
	}

	return
}

// stdoutIsTerminal reports whether standard output is a terminal. Color is
// only on by default when it is.
func stdoutIsTerminal() bool {
	return term.IsTerminal(int(os.Stdout.Fd())) //nolint:gosec
}

// pathHas reports whether target is an executable on PATH.
func pathHas(target string) bool {
	_, err := exec.LookPath(target)
	return err == nil
}
