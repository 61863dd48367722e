package slogutil

import (
	"bytes"
	"context"
	"log/slog"
	"regexp"
	"strings"
	"testing"
)

func logLine(level slog.Level, fn func(*slog.Logger)) string {
	var buf bytes.Buffer
	fn(NewLogger(&buf, level))
	return buf.String()
}

var lineRE = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}Z \[info\] Emitted file \| file=src/a\.ts outputs=2\n$`)

func TestHandler_Format(t *testing.T) {
	out := logLine(slog.LevelInfo, func(l *slog.Logger) {
		l.Info("Emitted file", "file", "src/a.ts", "outputs", 2)
	})
	if !lineRE.MatchString(out) {
		t.Errorf("unexpected line: %q", out)
	}
}

func TestHandler_NoAttrs(t *testing.T) {
	out := logLine(slog.LevelInfo, func(l *slog.Logger) { l.Info("Build finished") })
	if strings.Contains(out, "|") {
		t.Errorf("line without attributes has a separator: %q", out)
	}
}

func TestHandler_Levels(t *testing.T) {
	for _, level := range []slog.Level{slog.LevelDebug, slog.LevelInfo, slog.LevelWarn, slog.LevelError} {
		want := "[" + strings.ToLower(level.String()) + "]"
		t.Run(want, func(t *testing.T) {
			out := logLine(slog.LevelDebug, func(l *slog.Logger) { l.Log(context.Background(), level, "msg") })
			if !strings.Contains(out, want) {
				t.Errorf("expected %s in %q", want, out)
			}
		})
	}
}

func TestHandler_LevelFiltering(t *testing.T) {
	out := logLine(slog.LevelWarn, func(l *slog.Logger) {
		l.Debug("debug message")
		l.Info("info message")
		l.Warn("warn message")
		l.Error("error message")
	})
	for msg, want := range map[string]bool{
		"debug message": false,
		"info message":  false,
		"warn message":  true,
		"error message": true,
	} {
		if got := strings.Contains(out, msg); got != want {
			t.Errorf("%s logged = %v, want %v", msg, got, want)
		}
	}
}

func TestLevelFromString(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"DEBUG":   slog.LevelDebug,
		"info":    slog.LevelInfo,
		" warn ":  slog.LevelWarn,
		"warning": slog.LevelWarn,
		"Error":   slog.LevelError,
		"verbose": slog.LevelInfo,
		"":        slog.LevelInfo,
	}
	for in, want := range tests {
		if got := LevelFromString(in); got != want {
			t.Errorf("LevelFromString(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestLevelFromVerbosity(t *testing.T) {
	tests := []struct {
		verbosity int
		quiet     bool
		want      slog.Level
	}{
		{0, false, slog.LevelWarn},
		{1, false, slog.LevelInfo},
		{2, false, slog.LevelDebug},
		{5, false, slog.LevelDebug},
		{0, true, LevelSilent},
		{2, true, LevelSilent},
	}
	for _, tt := range tests {
		if got := LevelFromVerbosity(tt.verbosity, tt.quiet); got != tt.want {
			t.Errorf("LevelFromVerbosity(%d, %v) = %v, want %v", tt.verbosity, tt.quiet, got, tt.want)
		}
	}
}

func TestNewDiscardLogger(t *testing.T) {
	if NewDiscardLogger().Enabled(context.Background(), slog.LevelError) {
		t.Error("discard logger is enabled for errors")
	}
}

func TestTeeHandler(t *testing.T) {
	var info, warn bytes.Buffer
	logger := NewTeeLogger(
		NewHandler(&info, &slog.HandlerOptions{Level: slog.LevelInfo}),
		NewHandler(&warn, &slog.HandlerOptions{Level: slog.LevelWarn}),
	).With("run", "r1")
	logger.Info("info message")
	logger.Warn("warn message")

	if n := strings.Count(info.String(), "run=r1"); n != 2 {
		t.Errorf("info handler got %d records, want 2:\n%s", n, info.String())
	}
	if strings.Contains(warn.String(), "info message") || !strings.Contains(warn.String(), "warn message") {
		t.Errorf("warn handler output:\n%s", warn.String())
	}
}

func TestForTarget(t *testing.T) {
	var buf bytes.Buffer
	logger := ForTarget(NewLogger(&buf, slog.LevelInfo), ".mjs")
	logger.Info("emitted", "files", 3)

	output := buf.String()
	if !strings.Contains(output, "[info] [.mjs] emitted") {
		t.Errorf("expected target prefix in output, got: %s", output)
	}
	if !strings.Contains(output, "files=3") {
		t.Errorf("expected files=3 in output, got: %s", output)
	}
}

func TestForTarget_Tee(t *testing.T) {
	var buf1, buf2 bytes.Buffer
	h1 := NewHandler(&buf1, &slog.HandlerOptions{Level: slog.LevelInfo})
	h2 := slog.NewTextHandler(&buf2, &slog.HandlerOptions{Level: slog.LevelInfo})

	logger := ForTarget(NewTeeLogger(h1, h2), ".cjs")
	logger.Info("done")

	if !strings.Contains(buf1.String(), "[.cjs] done") {
		t.Errorf("buf1 missing prefix: %s", buf1.String())
	}
	if !strings.Contains(buf2.String(), "target=.cjs") {
		t.Errorf("buf2 missing target attr: %s", buf2.String())
	}
}

func TestForTarget_EmptyPrefix(t *testing.T) {
	logger := NewDiscardLogger()
	if got := ForTarget(logger, ""); got != logger {
		t.Error("empty prefix should return the same logger")
	}
}

func TestHandler_QuotesAndGroups(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, slog.LevelInfo).
		With("run", "r1").
		WithGroup("cache")

	logger.Info("opened", "path", "/tmp/my project/x.tsbuildinfo", "empty", "", slog.Group("stats", "kept", true))

	output := buf.String()
	for _, want := range []string{
		" | run=r1 ",
		`cache.path="/tmp/my project/x.tsbuildinfo"`,
		`cache.empty=""`,
		"cache.stats.kept=true",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("expected %q in output, got: %s", want, output)
		}
	}
}

func TestHandler_WithAttrsDoesNotLeak(t *testing.T) {
	var buf bytes.Buffer
	base := NewLogger(&buf, slog.LevelInfo)
	a := base.With("target", ".mjs")
	b := base.With("target", ".cjs")

	a.Info("one")
	b.Info("two")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2", len(lines))
	}
	if !strings.HasSuffix(lines[0], "one | target=.mjs") || !strings.HasSuffix(lines[1], "two | target=.cjs") {
		t.Errorf("unexpected lines:\n%s", buf.String())
	}
}
