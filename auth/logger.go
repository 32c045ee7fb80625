package auth

import "fmt"

// Logger is the minimal logging surface this package needs. Callers plug
// in their own; the default writes to stdout.
type Logger interface {
	Info(format string, args ...any)
	Error(format string, args ...any)
	Debug(format string, args ...any)
}

type defLogger struct{}

func (l defLogger) Info(format string, args ...any) {
	fmt.Printf("[INF] "+format+"\n", args...)
}

func (l defLogger) Error(format string, args ...any) {
	fmt.Printf("[ERR] "+format+"\n", args...)
}

func (l defLogger) Debug(format string, args ...any) {
	fmt.Printf("[DBG] "+format+"\n", args...)
}

// DefaultLogger returns the stdout logger used when none is provided
func DefaultLogger() Logger {
	return defLogger{}
}

type nopLogger struct{}

func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}
func (nopLogger) Debug(string, ...any) {}

// NopLogger returns a logger that discards everything
func NopLogger() Logger {
	return nopLogger{}
}
