package logging

import (
	"io"
	"os"
	"path/filepath"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Event names written to the operational log and the journal
const (
	EventBatchStart       = "batch_start"
	EventImagesFound      = "images_found"
	EventPhaseStart       = "phase_start"
	EventPhaseDone        = "phase_done"
	EventDecodeFailed     = "decode_failed"
	EventDuplicateRemoved = "duplicate_removed"
	EventDeleteFailed     = "delete_failed"
	EventRenamed          = "renamed"
	EventRenameFailed     = "rename_failed"
	EventNamingViolation  = "naming_violation"
	EventBatchDone        = "batch_done"
	EventSetupFailed      = "setup_failed"
)

var eventLevels = map[string]zapcore.Level{
	EventDecodeFailed:    zapcore.ErrorLevel,
	EventDeleteFailed:    zapcore.ErrorLevel,
	EventRenameFailed:    zapcore.ErrorLevel,
	EventSetupFailed:     zapcore.ErrorLevel,
	EventNamingViolation: zapcore.WarnLevel,
}

// LevelFor returns the severity an event is logged at
func LevelFor(event string) zapcore.Level {
	if lvl, ok := eventLevels[event]; ok {
		return lvl
	}
	return zapcore.InfoLevel
}

// Reporter receives every operational event of a run.
// It is constructed once per run and flushed with Sync at the end.
type Reporter interface {
	Record(event string, fields ...zap.Field)
	Sync() error
}

// Options configures SetupLogger
type Options struct {
	File       string
	MaxSizeMB  int
	MaxAgeDays int
	Compress   bool
	Debug      bool
	Console    io.Writer // defaults to os.Stderr
}

// Logger is a zap logger that also satisfies Reporter
type Logger struct {
	*zap.Logger
	rotator *lumberjack.Logger
}

// SetupLogger builds the run logger. Console output is human readable; when
// File is set every entry is also appended there as JSON, rotated once the
// file passes MaxSizeMB and pruned after MaxAgeDays.
func SetupLogger(opts Options) (*Logger, error) {
	level := zapcore.InfoLevel
	if opts.Debug {
		level = zapcore.DebugLevel
	}

	console := opts.Console
	if console == nil {
		console = os.Stderr
	}

	consoleCfg := zap.NewDevelopmentEncoderConfig()
	consoleCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	cores := []zapcore.Core{
		zapcore.NewCore(zapcore.NewConsoleEncoder(consoleCfg), zapcore.AddSync(console), level),
	}

	l := &Logger{}
	if opts.File != "" {
		if err := os.MkdirAll(filepath.Dir(opts.File), 0o755); err != nil {
			return nil, err
		}
		l.rotator = &lumberjack.Logger{
			Filename:  opts.File,
			MaxSize:   opts.MaxSizeMB,
			MaxAge:    opts.MaxAgeDays,
			Compress:  opts.Compress,
			LocalTime: true,
		}
		fileCfg := zap.NewProductionEncoderConfig()
		fileCfg.EncodeTime = zapcore.ISO8601TimeEncoder
		cores = append(cores, zapcore.NewCore(zapcore.NewJSONEncoder(fileCfg), zapcore.AddSync(l.rotator), level))
	}

	l.Logger = zap.New(zapcore.NewTee(cores...))
	return l, nil
}

// New wraps an existing core, mostly for tests
func New(core zapcore.Core) *Logger {
	return &Logger{Logger: zap.New(core)}
}

// Record logs event at the level LevelFor assigns to it
func (l *Logger) Record(event string, fields ...zap.Field) {
	if ce := l.Check(LevelFor(event), event); ce != nil {
		ce.Write(fields...)
	}
}

// Close flushes and releases the log file
func (l *Logger) Close() error {
	_ = l.Logger.Sync()
	if l.rotator != nil {
		return l.rotator.Close()
	}
	return nil
}

type multi []Reporter

// Multi fans every event out to all reporters
func Multi(reporters ...Reporter) Reporter {
	out := make(multi, 0, len(reporters))
	for _, r := range reporters {
		if r != nil {
			out = append(out, r)
		}
	}
	return out
}

func (m multi) Record(event string, fields ...zap.Field) {
	for _, r := range m {
		r.Record(event, fields...)
	}
}

func (m multi) Sync() error {
	var err error
	for _, r := range m {
		err = multierr.Append(err, r.Sync())
	}
	return err
}

// Nop discards everything
func Nop() Reporter {
	return New(zapcore.NewNopCore())
}
