package logger

import (
	"fmt"
	"io"
	"log"
	"os"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

type Conf struct {
	Level  string
	Format string
	// File enables a rotated log file in addition to stdout.
	File string
}

type Logger struct {
	l *logrus.Entry
}

func New(l *logrus.Logger) *Logger {
	return &Logger{l: logrus.NewEntry(l)}
}

// Build creates the process logger. The returned close function flushes the
// rotated file, if any.
func Build(conf Conf) (*logrus.Logger, func() error, error) {
	l := logrus.New()

	level := conf.Level
	if level == "" {
		level = logrus.InfoLevel.String()
	}

	parsed, err := logrus.ParseLevel(level)
	if err != nil {
		return nil, nil, fmt.Errorf("parse log level %q: %w", level, err)
	}

	l.SetLevel(parsed)

	switch conf.Format {
	case "json":
		//nolint:exhaustruct
		l.SetFormatter(&logrus.JSONFormatter{})
	case "", "text":
		//nolint:exhaustruct
		l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	default:
		return nil, nil, fmt.Errorf("unknown log format %q", conf.Format) //nolint:goerr113
	}

	closeFn := func() error { return nil }

	if conf.File != "" {
		//nolint:exhaustruct
		file := &lumberjack.Logger{
			Filename:   conf.File,
			MaxSize:    10, //nolint:gomnd
			MaxBackups: 3,  //nolint:gomnd
			LocalTime:  true,
		}

		l.SetOutput(io.MultiWriter(os.Stdout, file))
		closeFn = file.Close
	}

	return l, closeFn, nil
}

// StdLogger adapts the logger for libraries that expect a *log.Logger, e.g. http.Server.ErrorLog.
func (l *Logger) StdLogger() *log.Logger {
	return log.New(l.l.WriterLevel(logrus.ErrorLevel), "", 0)
}

func (l *Logger) WithField(key string, value any) *Logger {
	return &Logger{l: l.l.WithField(key, value)}
}

func (l *Logger) LogErrorf(format string, v ...any) {
	l.l.Errorf(format, v...)
}

func (l *Logger) LogWarnf(format string, v ...any) {
	l.l.Warnf(format, v...)
}

func (l *Logger) LogInfo(format string, v ...any) {
	l.l.Infof(format, v...)
}

func (l *Logger) LogDebugf(format string, v ...any) {
	l.l.Debugf(format, v...)
}
