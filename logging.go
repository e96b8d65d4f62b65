package fractal

import (
	"io"
	"os"

	charmlog "github.com/charmbracelet/log"
)

type Logger interface {
	DebugEnabled() bool
	SetDebug(enabled bool)
	Debugf(format string, args ...any)
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
}

// DefaultLogger writes levelled, timestamped lines through charmbracelet/log.
type DefaultLogger struct {
	log *charmlog.Logger
}

func NewDefaultLogger(prefix string, debug bool) *DefaultLogger {
	return NewLogger(os.Stderr, prefix, debug)
}

func NewLogger(w io.Writer, prefix string, debug bool) *DefaultLogger {
	l := &DefaultLogger{
		log: charmlog.NewWithOptions(w, charmlog.Options{
			ReportTimestamp: true,
			TimeFormat:      "15:04:05.00",
			Prefix:          prefix,
		}),
	}
	l.SetDebug(debug)
	return l
}

func (l *DefaultLogger) DebugEnabled() bool {
	return l.log.GetLevel() <= charmlog.DebugLevel
}

func (l *DefaultLogger) SetDebug(enabled bool) {
	if enabled {
		l.log.SetLevel(charmlog.DebugLevel)
	} else {
		l.log.SetLevel(charmlog.InfoLevel)
	}
}

func (l *DefaultLogger) Debugf(format string, args ...any) { l.log.Debugf(format, args...) }
func (l *DefaultLogger) Infof(format string, args ...any)  { l.log.Infof(format, args...) }
func (l *DefaultLogger) Warnf(format string, args ...any)  { l.log.Warnf(format, args...) }
func (l *DefaultLogger) Errorf(format string, args ...any) { l.log.Errorf(format, args...) }

// LoggingModule installs a default logger as a resource.
// Output defaults to stderr.
type LoggingModule struct {
	Prefix string
	Debug  bool
	Output io.Writer
}

func (m LoggingModule) Install(app *App, cmd *Commands) {
	out := m.Output
	if out == nil {
		out = os.Stderr
	}
	cmd.AddResources(NewLogger(out, m.Prefix, m.Debug))
}

type nopLogger struct{}

func NewNopLogger() Logger { return &nopLogger{} }

func (n *nopLogger) DebugEnabled() bool                { return false }
func (n *nopLogger) SetDebug(enabled bool)             {}
func (n *nopLogger) Debugf(format string, args ...any) {}
func (n *nopLogger) Infof(format string, args ...any)  {}
func (n *nopLogger) Warnf(format string, args ...any)  {}
func (n *nopLogger) Errorf(format string, args ...any) {}

// Logger returns the first Logger resource if present, otherwise a no-op logger.
// Safe to call at any time; never returns nil.
func (app *App) Logger() Logger {
	if app == nil {
		return NewNopLogger()
	}
	for _, r := range app.resources {
		if l, ok := r.(Logger); ok {
			return l
		}
	}
	return NewNopLogger()
}
