// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0
// no-cloc

package command

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/staranto/linecache/internal/config"
)

// isolate keeps the developer's environment and config file out of a test.
func isolate(t *testing.T) {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_CONFIG_HOME", "")
	t.Setenv("APPDATA", "")
	t.Setenv("LINECACHE_CFG", "")
	t.Setenv("LINECACHE_PATH", "")
	t.Setenv("LINECACHE_OUTPUT", "text")
	t.Setenv("LINECACHE_COLOR", "false")
	t.Setenv("LINECACHE_FILTER_DELIM", ",")

	saved := config.Config
	config.Config = config.Type{}
	t.Cleanup(func() { config.Config = saved })
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// runApp runs the linecache command line with args and returns what it
// wrote to its output.
func runApp(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	full := append([]string{"linecache"}, args...)

	app, err := InitApp(context.Background(), full)
	require.NoError(t, err)

	var out bytes.Buffer
	app.Writer = &out
	app.ErrWriter = io.Discard
	app.Reader = strings.NewReader(stdin)

	err = app.Run(context.Background(), full)
	return out.String(), err
}
