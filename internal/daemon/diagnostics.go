package daemon

import (
	"io"

	golog "github.com/opencoff/go-logger"
)

// Diagnostics is the leveled Infof/Warnf surface the daemon reports
// through. Inside Daemon it is satisfied by the self-logger (§4.7), so
// session registrations, disconnects and protocol violations become
// records in the live file. NewStdDiagnostics gives an implementation
// that writes plain leveled lines to a writer instead; it carries the
// writer's own failures (to stderr) and the command's startup line, which
// stay out of the live file.
type Diagnostics interface {
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
}

// stdDiagnostics adapts an opencoff/go-logger Logger to Diagnostics: that
// library's Priority enum and Loggable predicate are the leveled-logging
// shim this ambient concern is modeled on.
type stdDiagnostics struct {
	l golog.Logger
}

// NewStdDiagnostics builds a Diagnostics that writes leveled, prefixed
// lines to out.
func NewStdDiagnostics(out io.Writer) (Diagnostics, error) {
	l, err := golog.New(out, golog.LOG_INFO, "karo-logger", golog.Lstdflag)
	if err != nil {
		return nil, err
	}
	return stdDiagnostics{l: l}, nil
}

func (d stdDiagnostics) Infof(format string, args ...any) { d.l.Info(format, args...) }
func (d stdDiagnostics) Warnf(format string, args ...any) { d.l.Warn(format, args...) }
