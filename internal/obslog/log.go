// Package obslog wraps zerolog the way the teacher's logging package
// does: a package-global Logger, a small Config, an Init, and typed
// With* helpers for the identifiers this host cares about (session,
// syscall, dent) in place of the teacher's node/service/task ids.
package obslog

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Logger is the package-global structured logger, configured once at
// startup via Init and read thereafter by every component.
var Logger zerolog.Logger

// Level mirrors the teacher's string-typed level constants.
type Level string

const (
	DebugLevel Level = "debug"
	InfoLevel  Level = "info"
	WarnLevel  Level = "warn"
	ErrorLevel Level = "error"
)

// Config selects verbosity, output encoding, and destination.
type Config struct {
	Level      Level
	JSONOutput bool
	Output     io.Writer
}

// Init builds the global Logger from cfg. Call once, at process
// startup, before any session runs.
func Init(cfg Config) {
	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}

	zerolog.SetGlobalLevel(levelToZerolog(cfg.Level))

	if cfg.JSONOutput {
		Logger = zerolog.New(out).With().Timestamp().Logger()
		return
	}
	Logger = zerolog.New(zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}).With().Timestamp().Logger()
}

func levelToZerolog(l Level) zerolog.Level {
	switch l {
	case DebugLevel:
		return zerolog.DebugLevel
	case WarnLevel:
		return zerolog.WarnLevel
	case ErrorLevel:
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// WithSession returns a child logger tagged with the session id.
func WithSession(sessionID string) zerolog.Logger {
	return Logger.With().Str("session_id", sessionID).Logger()
}

// WithSyscall returns a child logger tagged with the syscall name.
func WithSyscall(name string) zerolog.Logger {
	return Logger.With().Str("syscall", name).Logger()
}

// WithDent returns a child logger tagged with a dent handle and kind.
func WithDent(fd uint64, kind string) zerolog.Logger {
	return Logger.With().Uint64("dent_fd", fd).Str("dent_kind", kind).Logger()
}

func Info(msg string)         { Logger.Info().Msg(msg) }
func Debug(msg string)        { Logger.Debug().Msg(msg) }
func Warn(msg string)         { Logger.Warn().Msg(msg) }
func Error(msg string)        { Logger.Error().Msg(msg) }
func Errorf(err error, msg string) { Logger.Error().Err(err).Msg(msg) }
func Fatal(msg string)        { Logger.Fatal().Msg(msg) }
