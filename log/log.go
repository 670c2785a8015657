package log

import (
	"os"
	"sync/atomic"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/lovelydayss/zredis/config"
)

// Logger 日志组件接口
type Logger interface {
	Debugf(template string, args ...interface{})
	Infof(template string, args ...interface{})
	Warnf(template string, args ...interface{})
	Errorf(template string, args ...interface{})
	Sync() error
}

// holder 保证 atomic.Value 中存放的具体类型一致
type holder struct {
	Logger
}

var defaultLogger atomic.Value

func init() {
	SetDefault(zap.NewNop().Sugar())
}

// NewLogger 根据配置创建日志组件，并设置为默认日志组件
func NewLogger(conf *config.GlobalConfig) Logger {
	logger := New(conf.Log)
	SetDefault(logger)
	return logger
}

// New 创建 zap 日志组件
// 配置了文件名时由 lumberjack 负责切割，否则输出到 stderr
func New(conf config.LogConfig) Logger {
	level := zap.NewAtomicLevel()
	if err := level.UnmarshalText([]byte(conf.Level)); err != nil {
		level.SetLevel(zapcore.InfoLevel)
	}

	encoderConf := zap.NewProductionEncoderConfig()
	encoderConf.EncodeTime = zapcore.ISO8601TimeEncoder

	var (
		encoder zapcore.Encoder
		writer  zapcore.WriteSyncer
	)
	if conf.FileName != "" {
		encoder = zapcore.NewJSONEncoder(encoderConf)
		writer = zapcore.AddSync(&lumberjack.Logger{
			Filename:   conf.FileName,
			MaxSize:    conf.MaxSize,
			MaxBackups: conf.MaxBackups,
			MaxAge:     conf.MaxAge,
			Compress:   conf.Compress,
		})
	} else {
		encoderConf.EncodeLevel = zapcore.CapitalLevelEncoder
		encoder = zapcore.NewConsoleEncoder(encoderConf)
		writer = zapcore.Lock(os.Stderr)
	}

	core := zapcore.NewCore(encoder, writer, level)
	return zap.New(core, zap.AddCaller()).Sugar()
}

// SetDefault 设置包级别默认日志组件
func SetDefault(logger Logger) {
	defaultLogger.Store(holder{Logger: logger})
}

// Default 包级别默认日志组件
func Default() Logger {
	return defaultLogger.Load().(holder).Logger
}

func Debugf(template string, args ...interface{}) {
	Default().Debugf(template, args...)
}

func Infof(template string, args ...interface{}) {
	Default().Infof(template, args...)
}

func Warnf(template string, args ...interface{}) {
	Default().Warnf(template, args...)
}

func Errorf(template string, args ...interface{}) {
	Default().Errorf(template, args...)
}
