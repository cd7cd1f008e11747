// Package logging wraps zap with lumberjack-rotated file output, paired
// the way ANYCUBIC-3D-Klipper-go's common/logger package pairs them:
// a console+file tee core, Sugar-logger convenience wrappers.
//
// Every call here is main-context only. No motion package ever imports
// logging: StepperMotor.Tick and StepTicker's TickMR0/TickMR1 must stay
// allocation-free and wait-free, and a zap call is neither. Diagnostics
// about ISR behavior go through motion.RecordTiming's ring buffer instead
// and are drained through this package after the fact.
package logging

import (
	"fmt"
	"os"
	"time"

	"github.com/natefinch/lumberjack"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Level mirrors zapcore.Level without requiring callers to import zap
// themselves.
type Level int8

const (
	DebugLevel Level = iota - 1
	InfoLevel
	WarnLevel
	ErrorLevel
)

// Logger is a structured logger over a console+rotated-file tee core.
type Logger struct {
	z *zap.Logger
}

// Options configures New.
type Options struct {
	Level        Level
	LogFile      string
	SupportColor bool
	MaxSizeMB    int
	MaxBackups   int
	MaxAgeDays   int
}

// DefaultOptions returns sane defaults for the demo CLI and tests.
func DefaultOptions() Options {
	return Options{
		Level:        InfoLevel,
		LogFile:      "pulsecore.log",
		SupportColor: true,
		MaxSizeMB:    10,
		MaxBackups:   3,
		MaxAgeDays:   7,
	}
}

func newEncoder(supportColor bool) zapcore.Encoder {
	cfg := zapcore.EncoderConfig{
		MessageKey:       "message",
		LevelKey:         "level",
		TimeKey:          "time",
		CallerKey:        "caller",
		EncodeTime:       zapcore.ISO8601TimeEncoder,
		EncodeCaller:     zapcore.ShortCallerEncoder,
		ConsoleSeparator: " ",
	}
	if supportColor {
		cfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		cfg.EncodeLevel = zapcore.CapitalLevelEncoder
	}
	return zapcore.NewConsoleEncoder(cfg)
}

// New builds a Logger from opts: a console core and a lumberjack-rotated
// file core, tee'd together.
func New(opts Options) *Logger {
	encoder := newEncoder(opts.SupportColor)
	level := zapcore.Level(opts.Level)

	consoleCore := zapcore.NewCore(encoder, zapcore.Lock(os.Stdout), level)

	var core zapcore.Core = consoleCore
	if opts.LogFile != "" {
		fileSink := &lumberjack.Logger{
			Filename:   opts.LogFile,
			MaxSize:    opts.MaxSizeMB,
			MaxBackups: opts.MaxBackups,
			MaxAge:     opts.MaxAgeDays,
			LocalTime:  true,
		}
		fileCore := zapcore.NewCore(encoder, zapcore.AddSync(fileSink), level)
		core = zapcore.NewTee(consoleCore, fileCore)
	}

	return &Logger{z: zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1))}
}

// Sync flushes any buffered log entries.
func (l *Logger) Sync() {
	if l.z != nil {
		_ = l.z.Sync()
	}
}

func (l *Logger) Infof(format string, args ...interface{}) {
	if l.z != nil {
		l.z.Sugar().Infof(format, args...)
	}
}

func (l *Logger) Debugf(format string, args ...interface{}) {
	if l.z != nil {
		l.z.Sugar().Debugf(format, args...)
	}
}

func (l *Logger) Warnf(format string, args ...interface{}) {
	if l.z != nil {
		l.z.Sugar().Warnf(format, args...)
	}
}

func (l *Logger) Errorf(format string, args ...interface{}) {
	if l.z != nil {
		l.z.Sugar().Errorf(format, args...)
	}
}

// Panicf logs at panic level, syncs, then panics with the formatted
// message — reserved for main-context invariant violations (a config key
// that should have been validated at load time, for instance), never for
// ISR-path conditions, which always degrade instead of panicking.
func (l *Logger) Panicf(format string, args ...interface{}) {
	if l.z == nil {
		return
	}
	msg := fmt.Sprintf(format, args...)
	_ = l.z.Core().Write(zapcore.Entry{Level: zapcore.PanicLevel, Time: time.Now(), Message: msg}, nil)
	l.z.Sync()
	panic(msg)
}
