// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package log

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/apex/log"
)

// InitLogger sets up Apex with a custom handler writing to stderr and a log
// level from the LINECACHE_LOG env variable.
func InitLogger() {
	log.SetHandler(NewCustomHandler(os.Stderr))

	// ParseLevel rather than SetLevelFromString, which panics on junk.
	level, err := log.ParseLevel(strings.ToLower(os.Getenv("LINECACHE_LOG")))
	if err != nil {
		level = log.ErrorLevel
	}
	log.SetLevel(level)
}

// CustomHandler formats log messages as "timestamp L message key=value".
// Stdout is reserved for file lines, so it writes elsewhere.
type CustomHandler struct {
	mu  sync.Mutex
	out io.Writer
}

// NewCustomHandler returns a CustomHandler writing to w.
func NewCustomHandler(w io.Writer) *CustomHandler {
	return &CustomHandler{out: w}
}

// HandleLog implements the log.Handler interface
func (h *CustomHandler) HandleLog(e *log.Entry) error {
	timestamp := e.Timestamp
	if timestamp.IsZero() {
		timestamp = time.Now()
	}
	level := strings.ToUpper(e.Level.String())

	var b strings.Builder
	fmt.Fprintf(&b, "%s %.1s %s", timestamp.Format("2006-01-02 15:04:05"), level, e.Message)

	names := e.Fields.Names()
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(&b, " %s=%v", name, e.Fields.Get(name))
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := fmt.Fprintln(h.out, b.String())
	return err
}
