// Copyright © 2025 Steve Taranto staranto@gmail.com
// SPDX-License-Identifier: MIT

package command

import (
	"context"
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/apex/log"
	"github.com/urfave/cli/v3"
)

// GlobalFlagsValidator runs the checks that span more than one global flag.
// Search directories that do not exist are only reported, since they may
// appear later.
func GlobalFlagsValidator(ctx context.Context, c *cli.Command) error {
	for _, dir := range c.StringSlice("include") {
		info, err := os.Stat(dir)
		switch {
		case err != nil:
			log.WithField("dir", dir).Warn("search directory not found")
		case !info.IsDir():
			return fmt.Errorf("--include %s: not a directory", dir)
		}
	}
	return nil
}

// FilesRequiredValidator fails when no FILE arguments were given.
func FilesRequiredValidator(ctx context.Context, c *cli.Command) error {
	if c.Args().Len() == 0 {
		return errors.New("at least one FILE is required")
	}
	return GlobalFlagsValidator(ctx, c)
}

type FlagValidatorType func(any) error

func FlagValidators(value any, validators ...FlagValidatorType) error {
	for _, v := range validators {
		if err := v(value); err != nil {
			return err
		}
	}
	return nil
}

// JammedFlagValidator verifies that the arg following a flag does not begin
// with '--'.  urfave/cli allows this and I don't see how to turn it off.
func JammedFlagValidator(value any) error {
	if strings.HasPrefix(value.(string), "--") {
		return errors.New("must not begin with '--'")
	}
	return nil
}

func PositiveValidator(value any) error {
	if value.(int) < 0 {
		return errors.New("must not be negative")
	}
	return nil
}

func OutputValidator(value any) error {
	var validOutputFlagValues = []string{"text", "json", "raw", "yaml"}
	if !slices.Contains(validOutputFlagValues, value.(string)) {
		return fmt.Errorf("must be one of %v", validOutputFlagValues)
	}
	return nil
}
