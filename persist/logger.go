// Package persist provides small file-durability primitives used across the
// pipeline: a bracketed file logger, an atomic write-then-rename SafeFile,
// a random filename-suffix generator, and a bolt-backed metadata store.
// Grounded on the teacher's persist package (retrieved here only as tests —
// persist/log_test.go, persist/persist_test.go, persist/boltdb_test.go —
// so the implementations below are written from the behavior those tests
// pin down, in the teacher's idiom).
package persist

import (
	"log"
	"os"
)

// Logger wraps the standard library logger with a STARTUP/SHUTDOWN bracket
// written to the underlying file, matching persist/log_test.go's
// expectations.
type Logger struct {
	*log.Logger
	file *os.File
}

// NewLogger opens (creating if necessary) the file at path for appending and
// writes a STARTUP line.
func NewLogger(path string) (*Logger, error) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return nil, err
	}
	l := &Logger{
		Logger: log.New(f, "", log.Ldate|log.Ltime|log.Lmicroseconds),
		file:   f,
	}
	l.Logger.Println("STARTUP: logging has started.")
	return l, nil
}

// Close writes a SHUTDOWN line and closes the underlying file.
func (l *Logger) Close() error {
	l.Logger.Println("SHUTDOWN: logging has terminated.")
	return l.file.Close()
}

// Debugf writes a debug-level line when verbosity allows it. The
// orchestrator passes its configured verbosity through; 0 disables debug
// output entirely, matching the teacher's _verbosity-gated log.debug calls.
func (l *Logger) Debugf(verbosity, threshold int, format string, args ...interface{}) {
	if verbosity < threshold {
		return
	}
	l.Logger.Printf("DEBUG: "+format, args...)
}
