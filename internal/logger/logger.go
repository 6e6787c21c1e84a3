package logger

import (
	"io"
	"os"
	"time"

	"codeberg.org/mutker/atkctl/internal/errors"
	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

var log zerolog.Logger

type LogLevel int8

const (
	DebugLevel LogLevel = iota
	InfoLevel
	WarnLevel
	ErrorLevel
	FatalLevel
)

type LogEvent struct {
	*zerolog.Event
}

func (e *LogEvent) Msg(msg string) {
	e.Event.Msg(msg)
}

func (e *LogEvent) Send() {
	e.Event.Send()
}

// Options controls where log output goes.
type Options struct {
	Debug     bool
	Verbose   bool
	IsService bool

	// Output defaults to stdout.
	Output io.Writer

	// File enables an additional rotating log file when non-empty.
	File       string
	MaxSizeMB  int
	MaxBackups int
}

// Init initializes the logger based on the given configuration
func Init(opts Options) {
	out := opts.Output
	if out == nil {
		out = os.Stdout
	}

	console := zerolog.ConsoleWriter{
		Out:        out,
		TimeFormat: time.RFC3339,
	}

	if opts.IsService {
		console.TimeFormat = ""
		console.FormatTimestamp = func(_ interface{}) string {
			return ""
		}
	}

	var output io.Writer = console
	if opts.File != "" {
		rotating := &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    opts.MaxSizeMB,
			MaxBackups: opts.MaxBackups,
		}
		output = zerolog.MultiLevelWriter(console, rotating)
	}

	log = zerolog.New(output).With().Timestamp().Logger()

	SetLogLevel(WarnLevel) // Default log level

	if opts.Debug {
		SetLogLevel(DebugLevel)
	} else if opts.Verbose {
		SetLogLevel(InfoLevel)
	}
}

// SetLogLevel sets the global log level
func SetLogLevel(level LogLevel) {
	zerolog.SetGlobalLevel(zerolog.Level(level))
}

// Debug logs a debug message
func Debug() *LogEvent {
	return &LogEvent{log.Debug()}
}

// Info logs an info message
func Info() *LogEvent {
	return &LogEvent{log.Info()}
}

// Warn logs a warning message
func Warn() *LogEvent {
	return &LogEvent{log.Warn()}
}

// Error logs an error message
func Error() *LogEvent {
	return &LogEvent{log.Error()}
}

// ErrorWithCode logs an error message with a specific error code
func ErrorWithCode(err errors.Error) *LogEvent {
	return withCode(log.Error(), err)
}

func withCode(e *zerolog.Event, err errors.Error) *LogEvent {
	return &LogEvent{e.
		Str("error_code", string(err.Code())).
		Str("error_message", err.Error()).
		AnErr("error", err.Unwrap())}
}

// componentLogger is a Logger bound to a child zerolog context.
type componentLogger struct {
	zl zerolog.Logger
}

// New returns a Logger that tags every event with the given component name.
// It must be called after Init to pick up the configured output.
func New(component string) Logger {
	return &componentLogger{zl: log.With().Str("component", component).Logger()}
}

// Nop returns a Logger that discards everything.
func Nop() Logger {
	return &componentLogger{zl: zerolog.Nop()}
}

func (l *componentLogger) Debug() *LogEvent {
	return &LogEvent{l.zl.Debug()}
}

func (l *componentLogger) Info() *LogEvent {
	return &LogEvent{l.zl.Info()}
}

func (l *componentLogger) Warn() *LogEvent {
	return &LogEvent{l.zl.Warn()}
}

func (l *componentLogger) Error() *LogEvent {
	return &LogEvent{l.zl.Error()}
}

func (l *componentLogger) ErrorWithCode(err errors.Error) *LogEvent {
	return withCode(l.zl.Error(), err)
}

func (l *componentLogger) With(key, value string) Logger {
	return &componentLogger{zl: l.zl.With().Str(key, value).Logger()}
}
