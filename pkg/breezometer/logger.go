package breezometer

import (
	"fmt"
	"log"
	"strings"

	flog "github.com/gofiber/fiber/v2/log"
)

// Logger receives the client's structured log events. keysAndValues are
// alternating key/value pairs.
//
// Embed NopLogger to implement only the levels you care about.
type Logger interface {
	Fatal(msg string, keysAndValues ...any)
	Error(msg string, keysAndValues ...any)
	Warn(msg string, keysAndValues ...any)
	Info(msg string, keysAndValues ...any)
	Debug(msg string, keysAndValues ...any)
	Trace(msg string, keysAndValues ...any)
}

// NopLogger discards everything. It is the default Logger.
type NopLogger struct{}

func (NopLogger) Fatal(string, ...any) {}
func (NopLogger) Error(string, ...any) {}
func (NopLogger) Warn(string, ...any)  {}
func (NopLogger) Info(string, ...any)  {}
func (NopLogger) Debug(string, ...any) {}
func (NopLogger) Trace(string, ...any) {}

// FiberLogger forwards to fiber's package level leveled logger, so the
// level set with log.SetLevel applies to client events too.
//
// Fatal exits the process, as fiber's Fatalw does.
type FiberLogger struct{}

func (FiberLogger) Fatal(msg string, kv ...any) { flog.Fatalw(msg, kv...) }
func (FiberLogger) Error(msg string, kv ...any) { flog.Errorw(msg, kv...) }
func (FiberLogger) Warn(msg string, kv ...any)  { flog.Warnw(msg, kv...) }
func (FiberLogger) Info(msg string, kv ...any)  { flog.Infow(msg, kv...) }
func (FiberLogger) Debug(msg string, kv ...any) { flog.Debugw(msg, kv...) }
func (FiberLogger) Trace(msg string, kv ...any) { flog.Tracew(msg, kv...) }

// StdLogger writes "LEVEL: msg key=value ..." lines to a standard library
// logger. Debug and Trace are dropped unless Verbose is set.
type StdLogger struct {
	L       *log.Logger
	Verbose bool
}

func (s StdLogger) Fatal(msg string, kv ...any) { s.print("FATAL", msg, kv) }
func (s StdLogger) Error(msg string, kv ...any) { s.print("ERROR", msg, kv) }
func (s StdLogger) Warn(msg string, kv ...any)  { s.print("WARN", msg, kv) }
func (s StdLogger) Info(msg string, kv ...any)  { s.print("INFO", msg, kv) }

func (s StdLogger) Debug(msg string, kv ...any) {
	if s.Verbose {
		s.print("DEBUG", msg, kv)
	}
}

func (s StdLogger) Trace(msg string, kv ...any) {
	if s.Verbose {
		s.print("TRACE", msg, kv)
	}
}

func (s StdLogger) print(level, msg string, kv []any) {
	l := s.L
	if l == nil {
		l = log.Default()
	}
	l.Print(formatLine(level, msg, kv))
}

func formatLine(level, msg string, kv []any) string {
	var b strings.Builder
	b.WriteString(level)
	b.WriteString(": ")
	b.WriteString(msg)
	for i := 0; i < len(kv); i += 2 {
		b.WriteByte(' ')
		if i+1 < len(kv) {
			fmt.Fprintf(&b, "%v=%v", kv[i], kv[i+1])
		} else {
			fmt.Fprintf(&b, "%v=(MISSING)", kv[i])
		}
	}
	return b.String()
}
