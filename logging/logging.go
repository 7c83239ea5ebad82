// Package logging configures zap loggers the way the teacher's
// service/logger package does: a small Config selects an output path
// and file-write mode, with log rotation delegated to lumberjack.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/segmentio/ksuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// FileMode selects how a log path is opened across restarts.
type FileMode string

const (
	FileModeAppend   FileMode = "append"
	FileModeTruncate FileMode = "truncate"
	FileModeRotate   FileMode = "rotate"
)

func (m *FileMode) Set(s string) error {
	switch FileMode(s) {
	case FileModeAppend, "":
		*m = FileModeAppend
	case FileModeTruncate:
		*m = FileModeTruncate
	case FileModeRotate:
		*m = FileModeRotate
	default:
		return fmt.Errorf("invalid log file mode: %s", s)
	}
	return nil
}

func (m FileMode) String() string { return string(m) }

// Config configures New.
type Config struct {
	DevMode bool
	Level   zapcore.Level
	Path    string
	Mode    FileMode
}

// New builds a *zap.Logger per cfg, with a reader_id field seeded
// from a fresh ksuid so lines from separately built loggers stay
// distinguishable (readers sharing one logger share its id), matching the teacher's request-id-per-handler
// convention in service/logger.
func New(cfg Config) (*zap.Logger, error) {
	ws, err := OpenFile(cfg.Path, cfg.Mode)
	if err != nil {
		return nil, err
	}
	zc := zap.NewProductionConfig()
	if cfg.DevMode {
		zc = zap.NewDevelopmentConfig()
	}
	core := zapcore.NewCore(zapcore.NewJSONEncoder(zc.EncoderConfig), ws, cfg.Level)
	logger := zap.New(core)
	if cfg.DevMode {
		logger = logger.WithOptions(zap.Development())
	}
	return logger.With(zap.String("reader_id", ksuid.New().String())), nil
}

// OpenFile resolves path/mode into a zapcore.WriteSyncer. Adapted
// directly from the teacher's service/logger/file.go OpenFile, with
// fs.OpenFile (unavailable to adapt; its platform-specific pieces
// weren't retrieved) replaced by a plain os.OpenFile.
func OpenFile(path string, mode FileMode) (zapcore.WriteSyncer, error) {
	switch path {
	case "stdout":
		return zapcore.Lock(os.Stdout), nil
	case "stderr":
		return zapcore.Lock(os.Stderr), nil
	case "/dev/null":
		return zapcore.AddSync(io.Discard), nil
	}
	switch mode {
	case FileModeRotate:
		return logrotate(path)
	case FileModeTruncate:
		f, err := os.OpenFile(path, os.O_WRONLY|os.O_TRUNC|os.O_CREATE, 0644)
		return zapcore.AddSync(f), err
	default: // FileModeAppend
		f, err := os.OpenFile(path, os.O_WRONLY|os.O_APPEND|os.O_CREATE, 0644)
		return zapcore.AddSync(f), err
	}
}

func logrotate(path string) (zapcore.WriteSyncer, error) {
	if _, err := os.Stat(filepath.Dir(path)); err != nil {
		return nil, err
	}
	return zapcore.AddSync(&lumberjack.Logger{
		Filename:   path,
		MaxSize:    5, // megabytes
		MaxBackups: 3,
		MaxAge:     28, // days
		Compress:   true,
	}), nil
}
