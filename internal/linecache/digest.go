// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package linecache

import (
	"crypto/sha1" //nolint:gosec // content fingerprint, not a security boundary
	"encoding/hex"
	"io"
)

// Digest is the SHA1 of a file's lines concatenated in order.
type Digest [sha1.Size]byte

// String returns the digest as lowercase hex.
func (d Digest) String() string {
	return hex.EncodeToString(d[:])
}

func sumLines(lines []string) Digest {
	h := sha1.New() //nolint:gosec
	for _, line := range lines {
		_, _ = io.WriteString(h, line)
	}

	var d Digest
	copy(d[:], h.Sum(nil))
	return d
}
