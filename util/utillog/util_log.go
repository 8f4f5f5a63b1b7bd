// Package utillog wraps logrus with the formatter and rolling file output shared by all packages.
package utillog

import (
	"bytes"
	"io"
	"os"
	"runtime"
	"strings"
	"sync"

	"github.com/natefinch/lumberjack"
	"github.com/sirupsen/logrus"
)

const (
	componentField = "component"
	callerField    = "caller"

	componentWidth = 12
	fnWidth        = 30
	levelWidth     = 5
)

var (
	logger = logrus.New()

	logBufPool = sync.Pool{
		New: func() any {
			return &bytes.Buffer{}
		},
	}
)

func init() {
	logger.SetFormatter(CustomFormatter())
	logger.SetOutput(os.Stdout)
}

type CTFormatter struct {
}

func (c *CTFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	var component string
	var fn string
	if entry.Data != nil {
		if v, ok := entry.Data[componentField].(string); ok {
			component = v
		}
		if v, ok := entry.Data[callerField].(string); ok {
			fn = v
		}
	}

	levelstr := toLevelStr(entry.Level)

	b := logBufPool.Get().(*bytes.Buffer)
	defer putLogBuf(b)

	b.WriteString(entry.Time.Format("2006-01-02 15:04:05.000"))
	b.WriteByte(' ')
	b.WriteString(levelstr)
	pad(b, levelWidth-len(levelstr))

	b.WriteString(" [")
	b.WriteString(component)
	pad(b, componentWidth-len(component))
	b.WriteString("] ")

	b.WriteString(fn)
	pad(b, fnWidth-len(fn))

	b.WriteString(" : ")
	b.WriteString(entry.Message)
	b.WriteByte('\n')

	// the buffer goes back to the pool, logrus requires a stable slice
	out := make([]byte, b.Len())
	copy(out, b.Bytes())
	return out, nil
}

func pad(b *bytes.Buffer, n int) {
	for i := 0; i < n; i++ {
		b.WriteByte(' ')
	}
}

func putLogBuf(b *bytes.Buffer) {
	b.Reset()
	logBufPool.Put(b)
}

func toLevelStr(level logrus.Level) string {
	switch level {
	case logrus.TraceLevel:
		return "TRACE"
	case logrus.DebugLevel:
		return "DEBUG"
	case logrus.InfoLevel:
		return "INFO"
	case logrus.WarnLevel:
		return "WARN"
	case logrus.ErrorLevel:
		return "ERROR"
	case logrus.FatalLevel:
		return "FATAL"
	case logrus.PanicLevel:
		return "PANIC"
	}
	return "UNKNOWN"
}

// Get custom formatter for logrus
func CustomFormatter() logrus.Formatter {
	return &CTFormatter{}
}

// Parse log level
func ParseLogLevel(logLevel string) (logrus.Level, bool) {
	logLevel = strings.ToUpper(strings.TrimSpace(logLevel))
	switch logLevel {
	case "INFO":
		return logrus.InfoLevel, true
	case "DEBUG":
		return logrus.DebugLevel, true
	case "WARN":
		return logrus.WarnLevel, true
	case "ERROR":
		return logrus.ErrorLevel, true
	case "TRACE":
		return logrus.TraceLevel, true
	case "FATAL":
		return logrus.FatalLevel, true
	case "PANIC":
		return logrus.PanicLevel, true
	}
	return logrus.InfoLevel, false
}

// Set log level, returns false if the level is not recognized.
func SetLevel(level string) bool {
	lv, ok := ParseLogLevel(level)
	if !ok {
		return false
	}
	logger.SetLevel(lv)
	return true
}

func IsDebugLevel() bool {
	return logger.IsLevelEnabled(logrus.DebugLevel)
}

func SetOutput(w io.Writer) {
	logger.SetOutput(w)
}

// Get the underlying logger.
func Logger() *logrus.Logger {
	return logger
}

type RollingFileParam struct {
	Filename   string // filename
	MaxSize    int    // max file size in mb
	MaxAge     int    // max age in day
	MaxBackups int    // max number of files
}

// Create rolling file based writer
func BuildRollingLogFileWriter(p RollingFileParam) *lumberjack.Logger {
	return &lumberjack.Logger{
		Filename:   p.Filename,
		MaxSize:    p.MaxSize,    // megabytes
		MaxAge:     p.MaxAge,     // days
		MaxBackups: p.MaxBackups, // num of files
		LocalTime:  true,
		Compress:   false,
	}
}

// Write logs to both stdout and a rolling log file.
func SetRollingFile(p RollingFileParam) io.Closer {
	w := BuildRollingLogFileWriter(p)
	logger.SetOutput(io.MultiWriter(os.Stdout, w))
	return w
}

// Create log entry tagged with the component name, e.g., the name of the pool.
func WithComponent(name string) *logrus.Entry {
	return logger.WithField(componentField, name)
}

func Debugf(format string, args ...any) {
	if !logger.IsLevelEnabled(logrus.DebugLevel) {
		return
	}
	logger.WithField(callerField, callerFn()).Debugf(format, args...)
}

func Infof(format string, args ...any) {
	if !logger.IsLevelEnabled(logrus.InfoLevel) {
		return
	}
	logger.WithField(callerField, callerFn()).Infof(format, args...)
}

func Warnf(format string, args ...any) {
	if !logger.IsLevelEnabled(logrus.WarnLevel) {
		return
	}
	logger.WithField(callerField, callerFn()).Warnf(format, args...)
}

func Errorf(format string, args ...any) {
	logger.WithField(callerField, callerFn()).Errorf(format, args...)
}

func callerFn() string {
	pc := make([]uintptr, 1)
	if runtime.Callers(3, pc) < 1 {
		return ""
	}
	f, _ := runtime.CallersFrames(pc).Next()
	return shortFnName(f.Function)
}

func shortFnName(fn string) string {
	if i := strings.LastIndexByte(fn, '/'); i > -1 {
		fn = fn[i+1:]
	}
	return fn
}
