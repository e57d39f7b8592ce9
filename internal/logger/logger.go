// Package logger holds the process-wide zap logger. Console lines go to
// stderr so that command output on stdout stays machine readable.
package logger

import (
	"io"
	"os"
	"sync"

	"github.com/natefinch/lumberjack"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	log  *zap.Logger
	once sync.Once
)

// Options selects the level and the optional rotated JSON file
type Options struct {
	Debug      bool
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

func (o Options) withDefaults() Options {
	if o.MaxSizeMB <= 0 {
		o.MaxSizeMB = 50
	}
	if o.MaxBackups <= 0 {
		o.MaxBackups = 5
	}
	if o.MaxAgeDays <= 0 {
		o.MaxAgeDays = 30
	}
	return o
}

// Init initializes the global logger with console output only
func Init(debug bool) {
	Configure(Options{Debug: debug})
}

// InitWithFile initializes the global logger with console and file output
func InitWithFile(debug bool, logFile string) {
	Configure(Options{Debug: debug, File: logFile})
}

// Configure installs the global logger. Only the first call has effect.
func Configure(opts Options) {
	once.Do(func() {
		log = New(opts, os.Stderr)
	})
}

// New builds a logger writing console lines to console and, when a file is
// set, JSON lines to a size-rotated file.
func New(opts Options, console io.Writer) *zap.Logger {
	opts = opts.withDefaults()

	level := zapcore.InfoLevel
	encoderConfig := zap.NewProductionEncoderConfig()
	if opts.Debug {
		level = zapcore.DebugLevel
		encoderConfig = zap.NewDevelopmentEncoderConfig()
	}
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderConfig.EncodeDuration = zapcore.StringDurationEncoder

	cores := []zapcore.Core{
		zapcore.NewCore(zapcore.NewConsoleEncoder(encoderConfig), zapcore.AddSync(console), level),
	}

	if opts.File != "" {
		fileConfig := zap.NewProductionEncoderConfig()
		fileConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		cores = append(cores, zapcore.NewCore(
			zapcore.NewJSONEncoder(fileConfig),
			zapcore.AddSync(&lumberjack.Logger{
				Filename:   opts.File,
				MaxSize:    opts.MaxSizeMB,
				MaxBackups: opts.MaxBackups,
				MaxAge:     opts.MaxAgeDays,
			}),
			level,
		))
	}

	return zap.New(zapcore.NewTee(cores...), zap.AddStacktrace(zapcore.ErrorLevel))
}

// Get returns the global logger
func Get() *zap.Logger {
	if log == nil {
		Init(false)
	}
	return log
}

// Sync flushes any buffered log entries
func Sync() {
	if log != nil {
		_ = log.Sync()
	}
}

// Named returns a child of the global logger for one pipeline component
func Named(component string) *zap.Logger {
	return Get().Named(component)
}
