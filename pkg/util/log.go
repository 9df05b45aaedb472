package util

import (
	"io"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Logger is the global logger instance
var Logger = logrus.New()

func init() {
	Logger.SetOutput(os.Stderr)
	Logger.SetLevel(logrus.WarnLevel)
	Logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})
}

// SetLogLevel sets the logging level
func SetLogLevel(level string) error {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return err
	}
	Logger.SetLevel(lvl)
	return nil
}

// SetLogOutput sets the log output destination
func SetLogOutput(w io.Writer) {
	Logger.SetOutput(w)
}

// SetupProcessLog configures the global logger for one runtime process.
//
// The level comes from the host config. When dirpathLog is non-empty, log
// records are duplicated to <dirpathLog>/<idSystem>_<idProcess>.log with
// 100 MB rotation. Called once at process entry; the logger is treated as
// write-once after that.
func SetupProcessLog(level, dirpathLog, idSystem, idProcess string) error {
	if level != "" {
		if err := SetLogLevel(level); err != nil {
			return err
		}
	}
	if dirpathLog == "" {
		return nil
	}
	if err := os.MkdirAll(dirpathLog, 0755); err != nil {
		return err
	}
	rotated := &lumberjack.Logger{
		Filename: filepath.Join(dirpathLog, idSystem+"_"+idProcess+".log"),
		MaxSize:  100, // megabytes
	}
	Logger.SetOutput(io.MultiWriter(os.Stderr, rotated))
	return nil
}

// WithField returns a logger with a field
func WithField(key string, value interface{}) *logrus.Entry {
	return Logger.WithField(key, value)
}

// WithFields returns a logger with multiple fields
func WithFields(fields map[string]interface{}) *logrus.Entry {
	return Logger.WithFields(fields)
}

// WithProcess returns a logger with process context
func WithProcess(idProcess string) *logrus.Entry {
	return Logger.WithField("process", idProcess)
}

// WithNode returns a logger with node context
func WithNode(idNode string) *logrus.Entry {
	return Logger.WithField("node", idNode)
}

// Debugf logs a formatted debug message
func Debugf(format string, args ...interface{}) {
	Logger.Debugf(format, args...)
}

// Infof logs a formatted info message
func Infof(format string, args ...interface{}) {
	Logger.Infof(format, args...)
}

// Warnf logs a formatted warning message
func Warnf(format string, args ...interface{}) {
	Logger.Warnf(format, args...)
}

// Errorf logs a formatted error message
func Errorf(format string, args ...interface{}) {
	Logger.Errorf(format, args...)
}
