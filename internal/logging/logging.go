// Package logging builds the process *slog.Logger from configuration.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/iudanet/matswap/internal/config"
)

// ParseLevel переводит строковый уровень в slog.Level
func ParseLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("unknown log level %q", level)
}

// New создает логгер, пишущий в stderr и, если задан cfg.Dir, в ротируемый файл.
// Возвращаемый io.Closer закрывает файл (для stderr это no-op).
func New(cfg config.LoggerConfig) (*slog.Logger, io.Closer, error) {
	var (
		out    io.Writer = os.Stderr
		closer io.Closer = nopCloser{}
	)

	if cfg.Dir != "" {
		file := newFileOutput(cfg)
		out = io.MultiWriter(os.Stderr, file)
		closer = file
	}

	logger, err := NewWithWriter(out, cfg)
	if err != nil {
		_ = closer.Close()
		return nil, nil, err
	}

	return logger, closer, nil
}

// NewWithWriter создает логгер поверх произвольного writer
func NewWithWriter(w io.Writer, cfg config.LoggerConfig) (*slog.Logger, error) {
	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	switch strings.ToLower(cfg.Format) {
	case "", "text":
		handler = slog.NewTextHandler(w, opts)
	case "json":
		handler = slog.NewJSONHandler(w, opts)
	default:
		return nil, fmt.Errorf("unknown log format %q", cfg.Format)
	}

	return slog.New(handler), nil
}

// newFileOutput ротируемый файл логов
func newFileOutput(cfg config.LoggerConfig) *lumberjack.Logger {
	filename := cfg.FileName
	if filename == "" {
		filename = "matswap.log"
	}

	return &lumberjack.Logger{
		Filename:   filepath.Join(cfg.Dir, filename),
		MaxSize:    cfg.MaxSize,
		MaxAge:     cfg.MaxAge,
		MaxBackups: cfg.MaxBackups,
		LocalTime:  true,
	}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
