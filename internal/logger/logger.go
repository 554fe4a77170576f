// Package logger defines the shared logging interface for the pipeline and
// two implementations: a no-op logger and a leveled logger over the standard
// library. The builder takes a Logger by injection so library consumers
// decide where (and whether) pipeline progress goes.
package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"time"
)

const rfc3339Usec = "2006-01-02T15:04:05.000000Z07:00"

// Logger represents an interface for a shared logger.
type Logger interface {
	Printf(format string, v ...interface{})
	Debugf(format string, v ...interface{})
	Infof(format string, v ...interface{})
	Warnf(format string, v ...interface{})
	Errorf(format string, v ...interface{})
}

const (
	levelError = iota
	levelWarn
	levelInfo
	levelDebug
)

func levelPrefix(level int) string {
	return [...]string{"ERROR: ", "WARN:  ", "INFO:  ", "DEBUG: "}[level]
}

// StderrLogger logs at info level to standard error.
var StderrLogger = NewStandardLogger(os.Stderr)

// NopLogger discards everything.
var NopLogger Logger = &nopLogger{}

type nopLogger struct{}

func (*nopLogger) Printf(format string, v ...interface{}) {}
func (*nopLogger) Debugf(format string, v ...interface{}) {}
func (*nopLogger) Infof(format string, v ...interface{})  {}
func (*nopLogger) Warnf(format string, v ...interface{})  {}
func (*nopLogger) Errorf(format string, v ...interface{}) {}

// standardLogger is a basic implementation of Logger based on log.Logger.
type standardLogger struct {
	logger    *log.Logger
	verbosity int
}

// formatLog writes in UTC with constant width and microsecond resolution.
type formatLog struct {
	w io.Writer
}

func (fl formatLog) Write(p []byte) (int, error) {
	return fmt.Fprintf(fl.w, "%v %v", time.Now().UTC().Format(rfc3339Usec), string(p))
}

func newStandardLogger(w io.Writer, verbosity int) *standardLogger {
	l := log.New(formatLog{w: w}, "", 0)
	return &standardLogger{logger: l, verbosity: verbosity}
}

// NewStandardLogger logs at info level and below to w.
func NewStandardLogger(w io.Writer) Logger { return newStandardLogger(w, levelInfo) }

// NewVerboseLogger logs everything, including debug output, to w.
func NewVerboseLogger(w io.Writer) Logger { return newStandardLogger(w, levelDebug) }

func (s *standardLogger) printf(level int, format string, v ...interface{}) {
	if level > s.verbosity {
		return
	}
	s.logger.Printf(levelPrefix(level)+format, v...)
}

func (s *standardLogger) Printf(format string, v ...interface{}) {
	s.printf(levelInfo, format, v...)
}

func (s *standardLogger) Debugf(format string, v ...interface{}) {
	s.printf(levelDebug, format, v...)
}

func (s *standardLogger) Infof(format string, v ...interface{}) {
	s.printf(levelInfo, format, v...)
}

func (s *standardLogger) Warnf(format string, v ...interface{}) {
	s.printf(levelWarn, format, v...)
}

func (s *standardLogger) Errorf(format string, v ...interface{}) {
	s.printf(levelError, format, v...)
}
