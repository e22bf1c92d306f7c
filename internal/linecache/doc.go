// Copyright © 2025 Steve Taranto staranto@gmail.com
// SPDX-License-Identifier: MIT

// Package linecache reads files into memory as lines and keeps them cached
// so that callers such as debuggers and tracers can ask for individual lines
// over and over without rereading the file. An entry is reloaded when the
// file's size or modification time no longer matches what was seen at load
// time. Bare filenames that are not found directly are looked up along a
// search path, and lines captured in memory elsewhere can be served through a
// Registry ahead of the filesystem.
package linecache
