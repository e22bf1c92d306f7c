// Copyright © 2025 Steve Taranto staranto@gmail.com
// SPDX-License-Identifier: MIT

// Package output filters, transforms, sorts and renders the row sets produced
// by the linecache commands as text tables, JSON, YAML or raw lines.
package output
