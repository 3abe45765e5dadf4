package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
)

// levelRouter is a slog.Handler that routes INFO/WARN to stdout and ERROR+ to stderr.
type levelRouter struct {
	stdout slog.Handler
	stderr slog.Handler
}

func (lr *levelRouter) Enabled(_ context.Context, level slog.Level) bool {
	return level >= slog.LevelInfo
}

func (lr *levelRouter) Handle(ctx context.Context, r slog.Record) error {
	if r.Level >= slog.LevelError {
		return lr.stderr.Handle(ctx, r)
	}
	return lr.stdout.Handle(ctx, r)
}

func (lr *levelRouter) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &levelRouter{stdout: lr.stdout.WithAttrs(attrs), stderr: lr.stderr.WithAttrs(attrs)}
}

func (lr *levelRouter) WithGroup(name string) slog.Handler {
	return &levelRouter{stdout: lr.stdout.WithGroup(name), stderr: lr.stderr.WithGroup(name)}
}

// setupLogger installs the default logger. When logPath is set every level is
// also appended to that file; the returned func closes it.
func setupLogger(logPath string) (func(), error) {
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}
	stdoutW, stderrW := io.Writer(os.Stdout), io.Writer(os.Stderr)
	cleanup := func() {}

	if logPath != "" {
		f, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, fmt.Errorf("opening log file: %w", err)
		}
		cleanup = func() { f.Close() }
		stdoutW = io.MultiWriter(os.Stdout, f)
		stderrW = io.MultiWriter(os.Stderr, f)
	}

	slog.SetDefault(slog.New(&levelRouter{
		stdout: slog.NewTextHandler(stdoutW, opts),
		stderr: slog.NewTextHandler(stderrW, opts),
	}))
	return cleanup, nil
}
