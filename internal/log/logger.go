// Package log provides the structured logger used across dirtidy.
//
// Components never reach for a global: they receive a Logger at
// construction. The package-level functions operate on a default logger
// that the entry point configures once.
package log

import (
	"io"
	"os"

	"dirtidy/internal/errors"

	"github.com/sirupsen/logrus"
)

// Level is the minimum severity a logger emits.
type Level = logrus.Level

const (
	DebugLevel = logrus.DebugLevel
	InfoLevel  = logrus.InfoLevel
	WarnLevel  = logrus.WarnLevel
	ErrorLevel = logrus.ErrorLevel
)

// Field is a single structured key/value attached to a log line.
type Field struct {
	Key   string
	Value interface{}
}

// F is shorthand for building a Field.
func F(key string, value interface{}) Field {
	return Field{Key: key, Value: value}
}

// Logger is the logging capability handed to components.
type Logger interface {
	Debugf(format string, args ...interface{})
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
	With(fields ...Field) Logger
	WithError(err error) Logger
}

// Entry is a Logger backed by a logrus entry.
type Entry struct {
	base  *logrus.Logger
	entry *logrus.Entry
}

var _ Logger = (*Entry)(nil)

type options struct {
	out   io.Writer
	json  bool
	level Level
}

// Option configures NewLogger.
type Option func(*options)

// WithOutput directs log lines to w.
func WithOutput(w io.Writer) Option {
	return func(o *options) { o.out = w }
}

// WithJSON switches to one JSON object per line.
func WithJSON() Option {
	return func(o *options) { o.json = true }
}

// WithLevel sets the minimum level.
func WithLevel(level Level) Option {
	return func(o *options) { o.level = level }
}

// NewLogger builds a logger writing text lines to stderr at info level
// unless options say otherwise.
func NewLogger(opts ...Option) *Entry {
	o := options{out: os.Stderr, level: InfoLevel}
	for _, opt := range opts {
		opt(&o)
	}

	base := logrus.New()
	base.SetOutput(o.out)
	base.SetLevel(o.level)
	if o.json {
		base.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: "2006-01-02T15:04:05.000Z07:00",
			FieldMap: logrus.FieldMap{
				logrus.FieldKeyTime: "timestamp",
				logrus.FieldKeyMsg:  "message",
			},
		})
	} else {
		base.SetFormatter(&logrus.TextFormatter{
			DisableColors:   true,
			FullTimestamp:   true,
			TimestampFormat: "2006-01-02 15:04:05",
		})
	}

	return &Entry{base: base, entry: logrus.NewEntry(base)}
}

// Discard returns a logger that drops everything.
func Discard() *Entry {
	return NewLogger(WithOutput(io.Discard))
}

// SetLevel changes the minimum level of this logger and every logger
// derived from it with With.
func (l *Entry) SetLevel(level Level) {
	l.base.SetLevel(level)
}

func (l *Entry) Debugf(format string, args ...interface{}) { l.entry.Debugf(format, args...) }
func (l *Entry) Infof(format string, args ...interface{})  { l.entry.Infof(format, args...) }
func (l *Entry) Warnf(format string, args ...interface{})  { l.entry.Warnf(format, args...) }
func (l *Entry) Errorf(format string, args ...interface{}) { l.entry.Errorf(format, args...) }

// With returns a child logger carrying the given fields.
func (l *Entry) With(fields ...Field) Logger {
	lf := make(logrus.Fields, len(fields))
	for _, f := range fields {
		lf[f.Key] = f.Value
	}
	return &Entry{base: l.base, entry: l.entry.WithFields(lf)}
}

// WithError attaches err along with its kind and the path or parameter
// it refers to, when err carries them.
func (l *Entry) WithError(err error) Logger {
	return l.With(errorFields(err)...)
}

func errorFields(err error) []Field {
	if err == nil {
		return []Field{F("error", "<nil>")}
	}
	fields := []Field{F("error", err.Error()), F("error_kind", errors.KindOf(err).String())}
	var fileErr *errors.FileError
	if errors.As(err, &fileErr) && fileErr.Path() != "" {
		fields = append(fields, F("path", fileErr.Path()))
	}
	var configErr *errors.ConfigError
	if errors.As(err, &configErr) && configErr.Param() != "" {
		fields = append(fields, F("param", configErr.Param()))
	}
	return fields
}

var logger = NewLogger()

// Configure replaces the default logger.
func Configure(opts ...Option) {
	logger = NewLogger(opts...)
}

// Default returns the default logger for injection into components.
func Default() *Entry {
	return logger
}

// SetDebug toggles debug output on the default logger.
func SetDebug(debug bool) {
	if debug {
		logger.SetLevel(DebugLevel)
		return
	}
	logger.SetLevel(InfoLevel)
}

// Infof logs to the default logger.
func Infof(format string, args ...interface{}) {
	logger.Infof(format, args...)
}

// Warnf logs to the default logger.
func Warnf(format string, args ...interface{}) {
	logger.Warnf(format, args...)
}

// Errorf logs to the default logger.
func Errorf(format string, args ...interface{}) {
	logger.Errorf(format, args...)
}

// Debugf logs to the default logger.
func Debugf(format string, args ...interface{}) {
	logger.Debugf(format, args...)
}

// LogWithFields returns the default logger with fields attached.
func LogWithFields(fields ...Field) Logger {
	return logger.With(fields...)
}

// LogWithError returns the default logger with err's details attached.
func LogWithError(err error) Logger {
	return logger.WithError(err)
}
