// Package logger builds the zerolog logger used for diagnostics. Check
// results go to stdout through pkg/output; everything logged here goes to
// stderr and, optionally, a rotated file.
package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Options configures New.
type Options struct {
	Format  string    // "text" (console) or "json"
	Verbose bool      // debug level instead of info
	File    string    // when set, also log JSON to this rotated file
	Out     io.Writer // console destination; nil means stderr
	NoColor bool
}

// File rotation limits.
const (
	maxSizeMB  = 10
	maxBackups = 3
	maxAgeDays = 7
)

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// New returns a logger and a closer for its file output.
func New(opts Options) (zerolog.Logger, io.Closer, error) {
	out := opts.Out
	if out == nil {
		out = os.Stderr
	}

	level := zerolog.InfoLevel
	if opts.Verbose {
		level = zerolog.DebugLevel
	}

	var console io.Writer
	switch opts.Format {
	case "", "text":
		console = zerolog.ConsoleWriter{
			Out:        out,
			TimeFormat: time.RFC3339,
			NoColor:    opts.NoColor,
		}
	case "json":
		console = out
	default:
		return zerolog.Nop(), nopCloser{}, fmt.Errorf("unknown log format %q", opts.Format)
	}

	if opts.File == "" {
		return zerolog.New(console).Level(level).With().Timestamp().Logger(), nopCloser{}, nil
	}

	if err := os.MkdirAll(filepath.Dir(opts.File), 0o755); err != nil {
		return zerolog.Nop(), nopCloser{}, fmt.Errorf("failed to create log directory: %w", err)
	}
	file := &lumberjack.Logger{
		Filename:   opts.File,
		MaxSize:    maxSizeMB,
		MaxBackups: maxBackups,
		MaxAge:     maxAgeDays,
		LocalTime:  true,
	}

	log := zerolog.New(zerolog.MultiLevelWriter(console, file)).
		Level(level).
		With().
		Timestamp().
		Logger()
	return log, file, nil
}
