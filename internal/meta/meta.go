// Copyright © 2025 Steve Taranto staranto@gmail.com
// SPDX-License-Identifier: MIT

package meta

import (
	"context"

	"github.com/staranto/linecache/internal/config"
	"github.com/staranto/linecache/internal/linecache"
)

// Meta are the meta-options that are available on all or most commands.
type Meta struct {
	Args    []string
	Config  config.Type
	Context context.Context
	// Sources are in-memory line sources the cache consults before disk.
	Sources     *linecache.Sources
	StartingDir string
}
