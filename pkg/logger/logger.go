package logger

import (
	"os"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"

	"videoindex-service/pkg/config"
)

// Logger 结构化日志服务
type Logger struct {
	entry *logrus.Logger
}

var (
	mu     sync.RWMutex
	global = defaultLogger()
)

func defaultLogger() *Logger {
	l := logrus.New()
	l.SetOutput(os.Stdout)
	l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	return &Logger{entry: l}
}

// NewLogger 根据配置创建日志服务
func NewLogger(cfg *config.Config) *Logger {
	l := logrus.New()

	level, err := logrus.ParseLevel(strings.ToLower(cfg.Log.Level))
	if err != nil {
		level = logrus.InfoLevel
	}
	l.SetLevel(level)

	switch strings.ToLower(cfg.Log.Format) {
	case "json":
		l.SetFormatter(&logrus.JSONFormatter{})
	default:
		l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	switch strings.ToLower(cfg.Log.Output) {
	case "file":
		if cfg.Log.Filename != "" {
			f, err := os.OpenFile(cfg.Log.Filename, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
			if err == nil {
				l.SetOutput(f)
				break
			}
		}
		l.SetOutput(os.Stdout)
	default:
		l.SetOutput(os.Stdout)
	}

	return &Logger{entry: l}
}

// SetGlobalLogger 设置全局日志器
func SetGlobalLogger(l *Logger) {
	if l == nil {
		return
	}
	mu.Lock()
	defer mu.Unlock()
	global = l
}

func get() *Logger {
	mu.RLock()
	defer mu.RUnlock()
	return global
}

func (l *Logger) withFields(fields map[string]interface{}) *logrus.Entry {
	if len(fields) == 0 {
		return logrus.NewEntry(l.entry)
	}
	return l.entry.WithFields(logrus.Fields(fields))
}

// Debug 输出调试日志
func Debug(msg string, fields map[string]interface{}) {
	get().withFields(fields).Debug(msg)
}

// Info 输出信息日志
func Info(msg string, fields map[string]interface{}) {
	get().withFields(fields).Info(msg)
}

// Warn 输出警告日志
func Warn(msg string, fields map[string]interface{}) {
	get().withFields(fields).Warn(msg)
}

// Error 输出错误日志
func Error(msg string, fields map[string]interface{}) {
	get().withFields(fields).Error(msg)
}

// Fatal 输出致命错误日志并退出
func Fatal(msg string) {
	get().entry.Fatal(msg)
}

func Debugf(format string, args ...interface{}) {
	get().entry.Debugf(format, args...)
}

func Infof(format string, args ...interface{}) {
	get().entry.Infof(format, args...)
}

func Warnf(format string, args ...interface{}) {
	get().entry.Warnf(format, args...)
}

func Errorf(format string, args ...interface{}) {
	get().entry.Errorf(format, args...)
}
