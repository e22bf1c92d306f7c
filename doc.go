// Copyright © 2025 Steve Taranto staranto@gmail.com
// SPDX-License-Identifier: MIT

// linecache is the command line front end to the line cache in
// internal/linecache. It prints lines of files found directly or along a
// search path, describes cached files and reports changes to them as they
// happen.
package main
