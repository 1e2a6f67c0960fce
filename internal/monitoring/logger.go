// Package monitoring holds the process-wide diagnostic logger shared by the
// CLIs and the run store. The interpolation engine itself never logs.
package monitoring

import "log"

// Logf is the package-level diagnostic logger. It defaults to log.Printf but
// may be replaced by SetLogger.
var Logf func(format string, v ...any) = log.Printf

// SetLogger replaces the package logger. Passing nil installs a no-op logger.
func SetLogger(f func(format string, v ...any)) {
	if f == nil {
		Logf = func(string, ...any) {}
		return
	}
	Logf = f
}

// Quiet mutes Logf when quiet is true and returns a func that restores the
// logger in place before the call.
func Quiet(quiet bool) (restore func()) {
	prev := Logf
	if quiet {
		SetLogger(nil)
	}
	return func() { Logf = prev }
}
