package common

import (
	"bytes"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	logger *zap.Logger
	once   sync.Once
)

// GetLogger returns the process-wide logger named for one component
// ("realtime", "detector", "kafka", ...).
func GetLogger(name string) *zap.Logger {
	once.Do(initLogger)
	return logger.Named(name)
}

func initLogger() {
	if logger != nil {
		return
	}

	logsDir := "logs"
	_ = os.MkdirAll(logsDir, 0o755)

	logFile := &lumberjack.Logger{
		Filename:   filepath.Join(logsDir, "aquaguard.log"),
		MaxSize:    10, // megabytes
		MaxBackups: 5,
		MaxAge:     28, // days
		Compress:   true,
	}

	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	fileCore := zapcore.NewCore(
		zapcore.NewJSONEncoder(encoderCfg),
		zapcore.AddSync(logFile),
		zap.InfoLevel,
	)

	if os.Getenv("GO_ENV") == "production" {
		logger = zap.New(fileCore, zap.AddCaller())
		return
	}

	consoleCore := zapcore.NewCore(
		zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig()),
		zapcore.Lock(os.Stdout),
		zap.DebugLevel,
	)
	logger = zap.New(zapcore.NewTee(fileCore, consoleCore), zap.AddCaller())
}

// SetTestCaptureLogger routes all logging into buf. Test helper.
func SetTestCaptureLogger(buf *bytes.Buffer, level zapcore.Level) {
	once.Do(func() {})

	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	core := zapcore.NewCore(zapcore.NewJSONEncoder(encoderCfg), zapcore.AddSync(buf), level)
	logger = zap.New(core)
}

// SetTestLoggerNop silences logging. Test helper.
func SetTestLoggerNop() {
	once.Do(func() {})
	logger = zap.NewNop()
}
