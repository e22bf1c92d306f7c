// Copyright © 2025 Steve Taranto staranto@gmail.com
// SPDX-License-Identifier: MIT

package output

import (
	"fmt"
	"sort"
	"strings"
)

// sortKey is one comma separated entry of a --sort spec.
type sortKey struct {
	name          string
	descending    bool
	caseSensitive bool
}

// parseSortSpec turns "-line,!file" into sort keys. A leading - sorts
// descending and a leading ! makes string comparison case sensitive. The two
// prefixes may appear in either order.
func parseSortSpec(spec string) []sortKey {
	var keys []sortKey
	for _, field := range strings.Split(spec, ",") {
		field = strings.TrimSpace(field)
		key := sortKey{}
		for len(field) > 0 && (field[0] == '-' || field[0] == '!') {
			if field[0] == '-' {
				key.descending = true
			} else {
				key.caseSensitive = true
			}
			field = field[1:]
		}
		if field == "" {
			continue
		}
		key.name = field
		keys = append(keys, key)
	}
	return keys
}

// SortDataset sorts the rows in place by the --sort spec. Ties keep their
// original order and an empty spec leaves the rows untouched.
func SortDataset(dataset []map[string]interface{}, spec string) {
	keys := parseSortSpec(spec)
	if len(keys) == 0 {
		return
	}

	sort.SliceStable(dataset, func(i, j int) bool {
		for _, key := range keys {
			c := compareValues(dataset[i][key.name], dataset[j][key.name], key.caseSensitive)
			if c == 0 {
				continue
			}
			if key.descending {
				return c > 0
			}
			return c < 0
		}
		return false
	})
}

// compareValues orders numbers numerically and everything else by its string
// form. Missing values sort first.
func compareValues(a, b interface{}, caseSensitive bool) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	}

	if fa, ok := toFloat(a); ok {
		if fb, ok := toFloat(b); ok {
			switch {
			case fa < fb:
				return -1
			case fa > fb:
				return 1
			default:
				return 0
			}
		}
	}

	sa, sb := fmt.Sprint(a), fmt.Sprint(b)
	if !caseSensitive {
		sa, sb = strings.ToLower(sa), strings.ToLower(sb)
	}
	return strings.Compare(sa, sb)
}

func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint64:
		return float64(n), true
	default:
		return 0, false
	}
}
