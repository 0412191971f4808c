// Package debug provides conditional debug logging for graphsketch.
//
// Debug logging is enabled by setting the GS_DEBUG environment variable:
//
//	GS_DEBUG=1 graphsketch path A C
//
// Messages go to stderr with timestamps. The editor owns the terminal, so
// it sends them to a file instead (GS_DEBUG_FILE, or debug.log in the state
// directory). When disabled, every function is a no-op.
package debug

import (
	"fmt"
	"io"
	"log"
	"os"
	"time"
)

const prefix = "[GS_DEBUG] "

var (
	enabled bool
	logger  *log.Logger
)

func init() {
	if os.Getenv("GS_DEBUG") != "" {
		enabled = true
		logger = log.New(os.Stderr, prefix, log.Ltime|log.Lmicroseconds)
	}
}

// Enabled returns whether debug logging is enabled.
func Enabled() bool {
	return enabled
}

// SetEnabled allows programmatic control of debug logging.
func SetEnabled(e bool) {
	enabled = e
	if e && logger == nil {
		logger = log.New(os.Stderr, prefix, log.Ltime|log.Lmicroseconds)
	}
}

// SetOutput redirects debug output. It does not enable logging by itself.
func SetOutput(w io.Writer) {
	if logger == nil {
		logger = log.New(w, prefix, log.Ltime|log.Lmicroseconds)
		return
	}
	logger.SetOutput(w)
}

// OpenLogFile appends debug output to path and returns a closer. When
// logging is disabled it returns a no-op closer and opens nothing.
func OpenLogFile(path string) (func() error, error) {
	if !enabled || path == "" {
		return func() error { return nil }, nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return func() error { return nil }, fmt.Errorf("open debug log: %w", err)
	}
	SetOutput(f)
	return f.Close, nil
}

// Log writes a printf-style message when logging is enabled.
func Log(format string, args ...any) {
	if !enabled {
		return
	}
	logger.Printf(format, args...)
}

// LogTiming reports how long name took.
func LogTiming(name string, d time.Duration) {
	if !enabled {
		return
	}
	logger.Printf("%s took %v", name, d)
}
