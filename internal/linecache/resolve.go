// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package linecache

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/apex/log"
)

// Resolve finds the file that filename refers to. The expanded form of
// filename (leading ~ replaced by the home directory, then made absolute) is
// tried first. If that does not exist and filename is a bare name with no
// directory component, each directory in searchPath is joined with the name
// in order and the first existing file wins.
//
// The returned path is the expanded form when nothing is found, so callers
// can still use it as a lookup key. Directories never match.
func Resolve(fsys FS, searchPath []string, filename string) (string, os.FileInfo, error) {
	expanded, err := expandPath(filename)
	if err != nil {
		return "", nil, fmt.Errorf("expanding %s: %w", filename, err)
	}

	if info, ok := statFile(fsys, expanded); ok {
		return expanded, info, nil
	}

	if !isBare(filename) {
		return expanded, nil, fmt.Errorf("%s: %w", filename, ErrNotFound)
	}

	base := filepath.Base(filename)
	for _, dir := range searchPath {
		if dir == "" {
			continue
		}
		candidate := filepath.Join(dir, base)
		if info, ok := statFile(fsys, candidate); ok {
			log.Debugf("resolved %s via search path: %s", filename, candidate)
			return candidate, info, nil
		}
	}

	return expanded, nil, fmt.Errorf("%s: %w", filename, ErrNotFound)
}

// statFile reports whether path names an existing non-directory.
func statFile(fsys FS, path string) (os.FileInfo, bool) {
	info, err := fsys.Stat(path)
	if err != nil || info.IsDir() {
		return nil, false
	}
	return info, true
}

// isBare is true when name has no directory component.
func isBare(name string) bool {
	return !strings.ContainsRune(name, '/') && !strings.ContainsRune(name, filepath.Separator)
}

// expandPath replaces a leading ~ with the user's home directory and makes
// the result absolute.
func expandPath(name string) (string, error) {
	if name == "~" || strings.HasPrefix(name, "~/") || strings.HasPrefix(name, "~"+string(filepath.Separator)) {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		name = filepath.Join(home, name[1:])
	}
	return filepath.Abs(name)
}
