package core

import (
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
)

type LogLevel = log.Level

const (
	DebugLevel = log.DebugLevel
	InfoLevel  = log.InfoLevel
	WarnLevel  = log.WarnLevel
	ErrorLevel = log.ErrorLevel
)

var once sync.Once

type logger struct {
	*log.Logger
	session string
}

var singleton *logger

func newLogger(w io.Writer) *logger {
	session := uuid.NewString()
	l := log.NewWithOptions(w, log.Options{
		ReportCaller:    true,
		ReportTimestamp: true,
		TimeFormat:      time.RFC3339,
		Prefix:          "vktriangle 🔺",
		// the wrappers below add one frame
		CallerOffset: 1,
	})
	l.SetLevel(log.InfoLevel)
	return &logger{Logger: l.With("session", session[:8]), session: session}
}

func getLogger() *logger {
	if singleton == nil {
		once.Do(
			func() {
				singleton = newLogger(os.Stderr)
			})
	}
	return singleton
}

// ParseLogLevel maps the config spelling of a level to a LogLevel.
func ParseLogLevel(s string) (LogLevel, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return DebugLevel, true
	case "", "info":
		return InfoLevel, true
	case "warn", "warning":
		return WarnLevel, true
	case "error":
		return ErrorLevel, true
	}
	return InfoLevel, false
}

func SetLogLevel(level LogLevel) {
	getLogger().SetLevel(level)
}

// SessionID identifies this process run in every log line.
func SessionID() string {
	return getLogger().session
}

func LogDebug(msg string, args ...interface{}) {
	getLogger().Debugf(msg, args...)
}

func LogInfo(msg string, args ...interface{}) {
	getLogger().Infof(msg, args...)
}

func LogWarn(msg string, args ...interface{}) {
	getLogger().Warnf(msg, args...)
}

func LogError(msg string, args ...interface{}) {
	getLogger().Errorf(msg, args...)
}

// LogFatal logs and exits the process with status 1.
func LogFatal(msg string, args ...interface{}) {
	getLogger().Fatalf(msg, args...)
}
