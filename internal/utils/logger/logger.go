// internal/utils/logger/logger.go
package logger

import (
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Logger расширяет функционал zap.Logger
type Logger struct {
	*zap.Logger
	config *Config
}

// New создает логгер: консоль (человекочитаемый формат) + JSON-файл с ротацией
func New(cfg *Config) (*Logger, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	logRotator := &lumberjack.Logger{
		Filename:   cfg.LogFile,
		MaxSize:    cfg.MaxSize,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAge,
		Compress:   cfg.Compress,
	}

	encoderConfig := zap.NewProductionEncoderConfig()
	if cfg.Development {
		encoderConfig = zap.NewDevelopmentEncoderConfig()
	}
	encoderConfig.TimeKey = "timestamp"
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	encoderConfig.EncodeDuration = zapcore.StringDurationEncoder
	encoderConfig.EncodeCaller = zapcore.ShortCallerEncoder

	level := zapcore.InfoLevel
	if cfg.Development {
		level = zapcore.DebugLevel
	}

	core := zapcore.NewTee(
		zapcore.NewCore(zapcore.NewConsoleEncoder(encoderConfig), zapcore.AddSync(os.Stdout), level),
		zapcore.NewCore(zapcore.NewJSONEncoder(encoderConfig), zapcore.AddSync(logRotator), level),
	)

	return &Logger{
		Logger: zap.New(core,
			zap.AddCaller(),
			zap.AddStacktrace(zapcore.ErrorLevel),
		),
		config: cfg,
	}, nil
}

// WithOperation добавляет correlation_id для конкретной операции (rebalance, exit)
func WithOperation(base *zap.Logger, operation string) *zap.Logger {
	return base.With(
		zap.String("operation", operation),
		zap.String("correlation_id", uuid.New().String()),
		zap.Time("start_time", time.Now().UTC()),
	)
}

// WithPosition добавляет контекст позиции к логам
func WithPosition(base *zap.Logger, pool, positionID string) *zap.Logger {
	return base.With(
		zap.String("pool", pool),
		zap.String("position", positionID),
	)
}

// WithComponent добавляет информацию о компоненте системы
func (l *Logger) WithComponent(component string) *zap.Logger {
	return l.With(zap.String("component", component))
}

// Sync игнорирует ошибки синхронизации stdout/stderr на терминалах
func (l *Logger) Sync() error {
	err := l.Logger.Sync()
	if err != nil && isTerminalSyncError(err) {
		return nil
	}
	return err
}

func isTerminalSyncError(err error) bool {
	msg := err.Error()
	return strings.HasPrefix(msg, "sync /dev/stdout") || strings.HasPrefix(msg, "sync /dev/stderr")
}

// TrackPerformance отслеживает производительность операции
func TrackPerformance(base *zap.Logger, operation string) (end func()) {
	start := time.Now()
	opLogger := base.With(zap.String("operation", operation))

	opLogger.Debug("Starting operation")

	return func() {
		duration := time.Since(start)
		opLogger.Debug("Operation completed",
			zap.Duration("duration", duration),
			zap.Float64("duration_ms", float64(duration.Microseconds())/1000),
		)
	}
}
