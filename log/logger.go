package log

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// LogConfig 包含日志系统的配置信息
type LogConfig struct {
	// LogLevel 是最低输出的日志级别
	LogLevel string `yaml:"log_level"`
	// LogFile 是日志文件的路径，为空时不写文件
	LogFile string `yaml:"log_file"`
	// EnableConsole 决定是否同时将日志输出到控制台
	EnableConsole bool `yaml:"enable_console"`
	// EnableJSON 决定日志是否使用JSON格式
	EnableJSON bool `yaml:"enable_json"`
	// MaxSizeMB 单个日志文件的最大体积（MB），超过后滚动
	MaxSizeMB int `yaml:"max_size_mb"`
	// MaxBackups 保留的历史日志文件数量
	MaxBackups int `yaml:"max_backups"`
	// MaxAgeDays 历史日志文件的保留天数
	MaxAgeDays int `yaml:"max_age_days"`
}

// 日志级别名称映射表，用于将字符串日志级别转换为zap级别
var levelNames = map[string]zapcore.Level{
	"debug": zapcore.DebugLevel,
	"info":  zapcore.InfoLevel,
	"warn":  zapcore.WarnLevel,
	"error": zapcore.ErrorLevel,
	"fatal": zapcore.FatalLevel,
}

// Init 之前使用空日志记录器，保证库代码和测试可以直接调用
var (
	base  = zap.NewNop()
	sugar = base.Sugar()
)

// Init 根据给定的配置初始化日志系统
// 参数：
//   - config：日志配置信息，包含日志级别、文件路径等
//
// 返回：
//   - error：如果初始化失败，返回错误信息
func Init(config *LogConfig) error {
	// 解析日志级别，如果配置的日志级别无效，默认使用InfoLevel
	level, ok := levelNames[strings.ToLower(config.LogLevel)]
	if !ok {
		level = zapcore.InfoLevel
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.TimeKey = "time"
	encCfg.EncodeTime = zapcore.TimeEncoderOfLayout("2006-01-02 15:04:05.000000")

	var cores []zapcore.Core

	// 如果配置了日志文件，添加带滚动的文件输出
	if config.LogFile != "" {
		if err := os.MkdirAll(filepath.Dir(config.LogFile), 0755); err != nil {
			return fmt.Errorf("创建日志目录失败：%w", err)
		}
		rotator := &lumberjack.Logger{
			Filename:   config.LogFile,
			MaxSize:    config.MaxSizeMB,
			MaxBackups: config.MaxBackups,
			MaxAge:     config.MaxAgeDays,
		}
		var fileEncoder zapcore.Encoder
		if config.EnableJSON {
			fileEncoder = zapcore.NewJSONEncoder(encCfg)
		} else {
			fileEncoder = zapcore.NewConsoleEncoder(encCfg)
		}
		cores = append(cores, zapcore.NewCore(fileEncoder, zapcore.AddSync(rotator), level))
	}

	// 控制台输出使用彩色级别
	if config.EnableConsole {
		consoleCfg := encCfg
		consoleCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
		var consoleEncoder zapcore.Encoder
		if config.EnableJSON {
			consoleEncoder = zapcore.NewJSONEncoder(encCfg)
		} else {
			consoleEncoder = zapcore.NewConsoleEncoder(consoleCfg)
		}
		cores = append(cores, zapcore.NewCore(consoleEncoder, zapcore.Lock(os.Stdout), level))
	}

	// 如果既没有配置日志文件也没有启用控制台输出，丢弃所有日志
	if len(cores) == 0 {
		cores = append(cores, zapcore.NewNopCore())
	}

	base = zap.New(zapcore.NewTee(cores...), zap.AddCaller(), zap.AddCallerSkip(1))
	sugar = base.Sugar()

	Infof("日志系统已初始化，级别：%s", level.String())
	return nil
}

// Sync 刷新缓冲的日志，进程退出前调用
func Sync() {
	_ = base.Sync()
}

// Debugf 以调试级别记录格式化的消息
func Debugf(format string, args ...interface{}) {
	sugar.Debugf(format, args...)
}

// Infof 以信息级别记录格式化的消息
func Infof(format string, args ...interface{}) {
	sugar.Infof(format, args...)
}

// Warnf 以警告级别记录格式化的消息
func Warnf(format string, args ...interface{}) {
	sugar.Warnf(format, args...)
}

// Errorf 以错误级别记录格式化的消息
func Errorf(format string, args ...interface{}) {
	sugar.Errorf(format, args...)
}

// Fatalf 以致命错误级别记录格式化的消息，然后退出程序
func Fatalf(format string, args ...interface{}) {
	sugar.Fatalf(format, args...)
}
