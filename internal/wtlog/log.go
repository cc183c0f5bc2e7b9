// Package wtlog is the leveled logger shared by the client adapter and the
// server endpoint. It is a package-level logger rather than an injected
// dependency, matching how the rest of the tunnel's ambient stack is wired.
package wtlog

import (
	"io"
	"log"
	"os"
)

var (
	verbose bool
	logger  *log.Logger
)

func init() {
	logger = log.New(os.Stderr, "", log.LstdFlags)
}

// SetVerbose enables or disables Debug-level output.
func SetVerbose(v bool) {
	verbose = v
}

// IsVerbose reports whether Debug-level output is enabled.
func IsVerbose() bool {
	return verbose
}

// SetOutput redirects all log output to w.
func SetOutput(w io.Writer) {
	logger.SetOutput(w)
}

// Info logs a connection lifecycle or dispatch event.
func Info(format string, v ...interface{}) {
	logger.Printf("[INFO] "+format, v...)
}

// Warn logs a recoverable problem, such as a malformed frame from a peer.
func Warn(format string, v ...interface{}) {
	logger.Printf("[WARN] "+format, v...)
}

// Error logs a failure that aborts a call or a connection.
func Error(format string, v ...interface{}) {
	logger.Printf("[ERROR] "+format, v...)
}

// Debug logs frame-level detail, only emitted when verbose mode is on.
func Debug(format string, v ...interface{}) {
	if verbose {
		logger.Printf("[DEBUG] "+format, v...)
	}
}
