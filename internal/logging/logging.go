// Package logging builds the zap logger shared by every command.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/mattn/go-isatty"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"toomuchleft/internal/domain"
)

const (
	OutputConsole = "console"
	OutputFile    = "file"
	OutputBoth    = "both"
)

type Options struct {
	Level  string
	Output string
	Dir    string
	// Console defaults to os.Stderr.
	Console io.Writer
	// Now defaults to time.Now; it picks the daily file name.
	Now func() time.Time
}

// FileName is the daily log file for day inside dir.
func FileName(dir string, day time.Time) string {
	return filepath.Join(dir, fmt.Sprintf("toomuchleft_%s.log", day.Format("2006-01-02")))
}

// New returns a logger and a cleanup func that flushes and closes the log
// file. The cleanup func is safe to call when New fails.
func New(opts Options) (*zap.Logger, func(), error) {
	noop := func() {}
	level := zapcore.InfoLevel
	if opts.Level != "" {
		parsed, err := zapcore.ParseLevel(opts.Level)
		if err != nil {
			return zap.NewNop(), noop, &domain.ConfigError{Field: "log.level", Value: opts.Level, Err: err}
		}
		level = parsed
	}
	output := opts.Output
	if output == "" {
		output = OutputConsole
	}
	console := opts.Console
	if console == nil {
		console = os.Stderr
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	var cores []zapcore.Core
	var closers []io.Closer
	switch output {
	case OutputConsole, OutputFile, OutputBoth:
	default:
		return zap.NewNop(), noop, &domain.ConfigError{Field: "log.output", Value: output, Err: fmt.Errorf("expected console, file or both")}
	}
	if output == OutputConsole || output == OutputBoth {
		cores = append(cores, zapcore.NewCore(
			zapcore.NewConsoleEncoder(encoderConfig(isTerminal(console))),
			zapcore.Lock(zapcore.AddSync(console)),
			level,
		))
	}
	if output == OutputFile || output == OutputBoth {
		if err := os.MkdirAll(opts.Dir, 0o755); err != nil {
			return zap.NewNop(), noop, fmt.Errorf("create log dir: %w", err)
		}
		file, err := os.OpenFile(FileName(opts.Dir, now()), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return zap.NewNop(), noop, fmt.Errorf("open log file: %w", err)
		}
		closers = append(closers, file)
		cores = append(cores, zapcore.NewCore(
			zapcore.NewConsoleEncoder(encoderConfig(false)),
			zapcore.Lock(file),
			level,
		))
	}

	logger := zap.New(zapcore.NewTee(cores...)).Named("toomuchleft")
	cleanup := func() {
		_ = logger.Sync()
		for _, closer := range closers {
			_ = closer.Close()
		}
	}
	return logger, cleanup, nil
}

func encoderConfig(color bool) zapcore.EncoderConfig {
	cfg := zap.NewDevelopmentEncoderConfig()
	cfg.EncodeTime = zapcore.TimeEncoderOfLayout("2006-01-02 15:04:05")
	cfg.StacktraceKey = ""
	if color {
		cfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		cfg.EncodeLevel = zapcore.CapitalLevelEncoder
	}
	return cfg
}

func isTerminal(w io.Writer) bool {
	file, ok := w.(*os.File)
	if !ok || os.Getenv("NO_COLOR") != "" {
		return false
	}
	return isatty.IsTerminal(file.Fd()) || isatty.IsCygwinTerminal(file.Fd())
}
