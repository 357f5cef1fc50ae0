package logger

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/fachebot/video-insight/internal/config"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

type Logger struct {
	*logrus.Logger
	fileLogger *logrus.Logger
	mu         sync.RWMutex
}

var defaultLogger *Logger

func init() {
	// 控制台日志配置
	consoleLogger := logrus.New()
	consoleLogger.SetFormatter(&logrus.TextFormatter{
		ForceColors:   true,
		FullTimestamp: true,
	})
	consoleLogger.SetOutput(os.Stderr)
	consoleLogger.SetLevel(logrus.DebugLevel)

	defaultLogger = &Logger{Logger: consoleLogger}
}

// Setup 按配置调整日志级别，并在配置了目录时开启文件日志
func Setup(c config.Log) error {
	level, err := logrus.ParseLevel(c.Level)
	if err != nil {
		return err
	}
	defaultLogger.Logger.SetLevel(level)

	if c.Dir == "" {
		return nil
	}

	// 创建日志目录
	if err := os.MkdirAll(c.Dir, 0755); err != nil {
		return err
	}

	// 文件日志配置
	fileLogger := logrus.New()
	fileLogger.SetFormatter(&logrus.JSONFormatter{
		PrettyPrint:     false,
		TimestampFormat: "2006-01-02 15:04:05",
	})
	fileLogger.SetLevel(logrus.InfoLevel)

	// 使用lumberjack进行日志轮转
	fileLogger.SetOutput(&lumberjack.Logger{
		Filename:   filepath.Join(c.Dir, "video-insight.log"),
		MaxSize:    10,
		MaxBackups: 10,
		MaxAge:     30,
		Compress:   true,
	})

	defaultLogger.mu.Lock()
	defaultLogger.fileLogger = fileLogger
	defaultLogger.mu.Unlock()
	return nil
}

func file() *logrus.Logger {
	defaultLogger.mu.RLock()
	defer defaultLogger.mu.RUnlock()
	return defaultLogger.fileLogger
}

func Infof(format string, args ...any) {
	defaultLogger.Logger.Infof(format, args...)
	if f := file(); f != nil {
		f.Infof(format, args...)
	}
}

func Warnf(format string, args ...any) {
	defaultLogger.Logger.Warnf(format, args...)
	if f := file(); f != nil {
		f.Warnf(format, args...)
	}
}

func Errorf(format string, args ...any) {
	defaultLogger.Logger.Errorf(format, args...)
	if f := file(); f != nil {
		f.Errorf(format, args...)
	}
}

func Fatalf(format string, args ...any) {
	if f := file(); f != nil {
		f.Errorf(format, args...)
	}
	defaultLogger.Logger.Fatalf(format, args...)
}

func Debugf(format string, args ...any) {
	defaultLogger.Logger.Debugf(format, args...)
	if f := file(); f != nil {
		f.Debugf(format, args...)
	}
}
