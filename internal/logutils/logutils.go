package logutils

import (
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// Log is the process-wide logger. It starts at info level so packages can log before InitLogger runs.
var Log = newLogger(logrus.InfoLevel, os.Stderr)

type Logger struct {
	entry *logrus.Entry
}

func newLogger(level logrus.Level, out io.Writer) *Logger {
	base := logrus.New()
	base.SetOutput(out)
	base.SetLevel(level)
	base.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})
	return &Logger{entry: logrus.NewEntry(base)}
}

func InitLogger(level string) {
	parsedLevel, err := parseLogLevel(level)
	if err != nil {
		Log.WithField("level", level).Warn("Invalid log level, defaulting to 'info'")
		parsedLevel = logrus.InfoLevel
	}
	Log = newLogger(parsedLevel, os.Stderr)
	Log.Infof("Log level set to %v", parsedLevel)
}

// SetOutput redirects the logger, mainly for tests.
func SetOutput(out io.Writer) {
	Log.entry.Logger.SetOutput(out)
}

func parseLogLevel(level string) (logrus.Level, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "warning":
		return logrus.WarnLevel, nil
	default:
		return logrus.ParseLevel(level)
	}
}

func (l *Logger) WithError(err error) *Logger {
	return &Logger{entry: l.entry.WithError(err)}
}

func (l *Logger) WithField(key string, value any) *Logger {
	return &Logger{entry: l.entry.WithField(key, value)}
}

func (l *Logger) WithFields(fields map[string]any) *Logger {
	return &Logger{entry: l.entry.WithFields(logrus.Fields(fields))}
}

func (l *Logger) Debugf(format string, args ...any) {
	l.entry.Debugf(format, args...)
}

func (l *Logger) Debug(message string) {
	l.entry.Debug(message)
}

func (l *Logger) Infof(format string, args ...any) {
	l.entry.Infof(format, args...)
}

func (l *Logger) Info(message string) {
	l.entry.Info(message)
}

func (l *Logger) Warnf(format string, args ...any) {
	l.entry.Warnf(format, args...)
}

func (l *Logger) Warn(message string) {
	l.entry.Warn(message)
}

func (l *Logger) Errorf(format string, args ...any) {
	l.entry.Errorf(format, args...)
}

func (l *Logger) Error(message string) {
	l.entry.Error(message)
}

func (l *Logger) Fatal(message string) {
	l.entry.Fatal(message)
}
