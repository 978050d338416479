// Package simplelogger provides loggers that append to the file named by the RANGEDIFF_LOG_FILE environment variable.
package simplelogger

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"
	"sync"
)

// EnvVar names the environment variable holding the log file path.
const EnvVar = "RANGEDIFF_LOG_FILE"

var mu sync.Mutex

// New returns a structured logger that appends text records at level and above to the RANGEDIFF_LOG_FILE file. If RANGEDIFF_LOG_FILE is unset or empty, the logger discards
// everything. Records that cannot be written (ex: the path is a directory) are dropped.
func New(level slog.Level) *slog.Logger {
	path := os.Getenv(EnvVar)
	if path == "" {
		return slog.New(slog.DiscardHandler)
	}
	return slog.New(slog.NewTextHandler(appendFile(path), &slog.HandlerOptions{Level: level}))
}

// Log is a minimal printf-style logger. It appends formatted output, newline-terminated, to the RANGEDIFF_LOG_FILE file.
//
// If RANGEDIFF_LOG_FILE is unset/empty or the path can't be opened as a file, Log is a no-op.
func Log(format string, args ...any) {
	path := os.Getenv(EnvVar)
	if path == "" {
		return
	}

	var b bytes.Buffer
	_, _ = fmt.Fprintf(&b, format, args...)
	if b.Len() == 0 || b.Bytes()[b.Len()-1] != '\n' {
		_ = b.WriteByte('\n')
	}
	_, _ = appendFile(path).Write(b.Bytes())
}

// appendFile is an io.Writer that opens path for appending on every write.
type appendFile string

func (a appendFile) Write(p []byte) (int, error) {
	// Serialize open/write/close to reduce interleaving within a single process.
	mu.Lock()
	defer mu.Unlock()

	f, err := os.OpenFile(string(a), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return 0, err
	}
	defer f.Close()
	return f.Write(p)
}
