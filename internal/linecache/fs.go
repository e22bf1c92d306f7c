// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package linecache

import (
	"io"
	"os"
)

// FS is the filesystem surface the cache needs. It exists so tests can count
// or fail reads without touching the real filesystem.
type FS interface {
	// Stat returns metadata for path. See [os.Stat].
	Stat(path string) (os.FileInfo, error)
	// Open opens path for reading. See [os.Open].
	Open(path string) (io.ReadCloser, error)
}

// OS implements [FS] with passthroughs to the os package.
type OS struct{}

// Stat is a passthrough wrapper for [os.Stat].
func (OS) Stat(path string) (os.FileInfo, error) {
	return os.Stat(path)
}

// Open is a passthrough wrapper for [os.Open].
func (OS) Open(path string) (io.ReadCloser, error) {
	return os.Open(path) //nolint:gosec
}
