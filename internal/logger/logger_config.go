package logger

import (
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	timeKey   = "time"
	levelKey  = "level"
	sourceKey = "source"
	msgKey    = "msg"

	defaultLogDir  = "logs"
	logFileName    = "judge.log"
	fallbackLogDir = "."
)

var (
	sugarLogger *zap.SugaredLogger
	initOnce    sync.Once
)

// logPath resolves the rotated log file location from LOG_DIR.
// Relative directories are resolved against the working directory, which is
// the sandbox work dir when the harness runs inside a container.
func logPath() string {
	dir := os.Getenv("LOG_DIR")
	if dir == "" {
		dir = defaultLogDir
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		dir = fallbackLogDir
	}
	return filepath.Join(dir, logFileName)
}

func logLevel() zapcore.Level {
	level, err := zapcore.ParseLevel(os.Getenv("LOG_LEVEL"))
	if err != nil {
		return zap.InfoLevel
	}
	return level
}

func initializeLogger() {
	rotated := zapcore.AddSync(&lumberjack.Logger{
		Filename:   logPath(),
		MaxSize:    50,
		MaxBackups: 10,
		MaxAge:     28,
		Compress:   true,
		LocalTime:  true,
	})

	// stdout is reserved for the verdict report.
	console := zapcore.Lock(zapcore.AddSync(os.Stderr))

	encoderConfig := zapcore.EncoderConfig{
		TimeKey:        timeKey,
		LevelKey:       levelKey,
		NameKey:        sourceKey,
		MessageKey:     msgKey,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeLevel:    zapcore.CapitalLevelEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
	}

	level := logLevel()
	core := zapcore.NewTee(
		zapcore.NewCore(zapcore.NewConsoleEncoder(encoderConfig), rotated, level),
		zapcore.NewCore(zapcore.NewConsoleEncoder(encoderConfig), console, level),
	)

	sugarLogger = zap.New(core, zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel)).Sugar()
}

// NewNamedLogger returns the shared logger scoped to a component name.
func NewNamedLogger(name string) *zap.SugaredLogger {
	initOnce.Do(initializeLogger)
	return sugarLogger.Named(name)
}
