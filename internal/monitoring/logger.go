// Package monitoring provides the process-wide diagnostic logger.
//
// The root logger is a zerolog.Logger configured once through Init. Logf is
// a printf-style hook kept for call sites that only need a formatted line;
// tests can redirect or mute it with SetLogger.
package monitoring

import (
	"io"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

// Options configures the root logger.
type Options struct {
	Level     string    // trace, debug, info, warn, error
	Format    string    // "console" or "json"
	Component string    // optional component field on every event
	Writer    io.Writer // defaults to os.Stderr
}

var (
	initOnce sync.Once
	root     atomic.Pointer[zerolog.Logger]
)

// Init builds the root logger. Only the first call has an effect.
func Init(opt Options) {
	initOnce.Do(func() {
		zerolog.TimeFieldFormat = time.RFC3339Nano

		var w io.Writer = os.Stderr
		if opt.Writer != nil {
			w = opt.Writer
		}
		if strings.ToLower(opt.Format) != "json" {
			w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
		}

		ctx := zerolog.New(w).Level(parseLevel(opt.Level)).With().Timestamp()
		if opt.Component != "" {
			ctx = ctx.Str("component", opt.Component)
		}
		l := ctx.Logger()
		root.Store(&l)
	})
}

// Logger returns the root logger, initialising it with info level console
// output if Init has not been called.
func Logger() *zerolog.Logger {
	if l := root.Load(); l != nil {
		return l
	}
	Init(Options{Level: "info"})
	return root.Load()
}

// Named returns a child logger carrying a component field.
func Named(component string) *zerolog.Logger {
	if component == "" {
		return Logger()
	}
	l := Logger().With().Str("component", component).Logger()
	return &l
}

func parseLevel(s string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "disabled", "off":
		return zerolog.Disabled
	default:
		return zerolog.InfoLevel
	}
}

func defaultLogf(format string, v ...interface{}) {
	Logger().Info().Msgf(format, v...)
}

// Logf is the package-level diagnostic logger. It defaults to an info event
// on the root logger but may be replaced by SetLogger. Tests or production
// code can redirect or mute it.
var Logf func(format string, v ...interface{}) = defaultLogf

// SetLogger replaces the package logger. Passing nil will set a no-op logger.
func SetLogger(f func(format string, v ...interface{})) {
	if f == nil {
		Logf = func(string, ...interface{}) {}
		return
	}
	Logf = f
}
