package logger

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

var (
	log     = newLogger(os.Stdout)
	logFile *os.File
)

func newLogger(out io.Writer) *logrus.Logger {
	l := logrus.New()
	l.SetOutput(out)
	l.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})
	l.SetLevel(logrus.InfoLevel)
	return l
}

// InitLogger sends log output to stdout and, when filename is set, appends it
// to that file as well. level is any logrus level name ("debug", "info", ...).
func InitLogger(filename string, level string) error {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return err
	}

	out := io.Writer(os.Stdout)
	if filename != "" {
		logFile, err = os.OpenFile(filename, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
		if err != nil {
			return err
		}
		out = io.MultiWriter(os.Stdout, logFile)
	}

	log = newLogger(out)
	log.SetLevel(lvl)
	return nil
}

// SetOutput redirects the logger, mostly useful in tests.
func SetOutput(w io.Writer) {
	log.SetOutput(w)
}

func Close() {
	if logFile != nil {
		logFile.Close()
		logFile = nil
	}
}

// WithFields returns an entry carrying structured fields such as the metric name.
func WithFields(fields logrus.Fields) *logrus.Entry {
	return log.WithFields(fields)
}

func Debugf(format string, v ...interface{}) {
	log.Debugf(format, v...)
}

func Info(format string, v ...interface{}) {
	log.Infof(format, v...)
}

func Infof(format string, v ...interface{}) {
	Info(format, v...)
}

func Warn(format string, v ...interface{}) {
	log.Warnf(format, v...)
}

func Warnf(format string, v ...interface{}) {
	Warn(format, v...)
}

func Error(format string, v ...interface{}) {
	log.Errorf(format, v...)
}

func Errorf(format string, v ...interface{}) {
	Error(format, v...)
}
