package util

import (
	"fmt"

	"github.com/pterm/pterm"
)

func init() {
	pterm.DefaultLogger.ShowTime = true
	pterm.DefaultLogger.TimeFormat = "02 Jan 15:04:05"
	pterm.DefaultLogger.MaxWidth = 1000
}

// Logger writes leveled lines through pterm's default logger (stderr), each
// tagged with the component it belongs to, e.g. "TCP", "UDP" or "beacon".
type Logger struct {
	scope string
}

// Scope returns a logger for the named component.
func Scope(name string) Logger {
	return Logger{scope: name}
}

func (l Logger) args() []pterm.LoggerArgument {
	return pterm.DefaultLogger.Args("scope", l.scope)
}

func (l Logger) Debug(format string, args ...any) {
	pterm.DefaultLogger.Debug(fmt.Sprintf(format, args...), l.args())
}

func (l Logger) Info(format string, args ...any) {
	pterm.DefaultLogger.Info(fmt.Sprintf(format, args...), l.args())
}

func (l Logger) Warn(format string, args ...any) {
	pterm.DefaultLogger.Warn(fmt.Sprintf(format, args...), l.args())
}

func (l Logger) Error(format string, args ...any) {
	pterm.DefaultLogger.Error(fmt.Sprintf(format, args...), l.args())
}

// Success reports a finished transfer on stdout, where the operator reads
// results, rather than in the log stream.
func (l Logger) Success(format string, args ...any) {
	pterm.Success.Println(fmt.Sprintf("[%s] %s", l.scope, fmt.Sprintf(format, args...)))
}

// Guard runs task and turns a panic into an error line, so one failing
// transfer or connection leaves its siblings and the process running.
// It reports whether task returned normally.
func (l Logger) Guard(task string, fn func()) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			l.Error("%s panicked: %v", task, r)
			ok = false
		}
	}()
	fn()
	return true
}

// EnableDebug lowers the log level so per-packet events are shown.
func EnableDebug() {
	pterm.DefaultLogger.Level = pterm.LogLevelDebug
}
