// Package monitoring holds the process-wide diagnostic logger.
package monitoring

import (
	"io"
	"log"
)

// Logf is the package-level diagnostic logger used by the pipeline, the HTTP
// surface and the CLI. It defaults to log.Printf.
var Logf func(format string, v ...any) = log.Printf

// SetLogger replaces the package logger. Passing nil installs a no-op logger.
func SetLogger(f func(format string, v ...any)) {
	if f == nil {
		Logf = func(string, ...any) {}
		return
	}
	Logf = f
}

// SetOutput routes Logf to w with standard timestamps and the given prefix.
func SetOutput(w io.Writer, prefix string) {
	SetLogger(log.New(w, prefix, log.LstdFlags|log.Lmsgprefix).Printf)
}
