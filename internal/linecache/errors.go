// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package linecache

import "errors"

// Load failures. The public API folds both into a false ok result; they are
// exported so callers of Resolve can tell them apart.
var (
	// ErrNotFound means no file exists at the expanded path or on the search
	// path, and no populated in-memory source is registered.
	ErrNotFound = errors.New("file not found")
	// ErrUnreadable means a file was found but could not be opened or read.
	ErrUnreadable = errors.New("file unreadable")
)
