package logging

import (
	"context"
	"io"
	"log/slog"
	"testing"
)

func TestContextWithLoggerRoundTrip(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ctx := ContextWithLogger(context.Background(), logger)
	if got := FromContext(ctx); got != logger {
		t.Fatalf("expected logger from context")
	}
	if FromContext(context.Background()) != nil {
		t.Fatalf("expected nil logger for bare context")
	}
	//nolint:staticcheck // nil context is part of the contract
	if FromContext(nil) != nil {
		t.Fatalf("expected nil logger for nil context")
	}
	base := context.Background()
	if ContextWithLogger(base, nil) != base {
		t.Fatalf("expected nil logger to leave context untouched")
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		" INFO ":  slog.LevelInfo,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for input, want := range cases {
		if got := ParseLevel(input); got != want {
			t.Fatalf("ParseLevel(%q) = %v, want %v", input, got, want)
		}
	}
}

func TestCorrelationID(t *testing.T) {
	ctx := WithCorrelationID(context.Background(), "req-7")
	if got := CorrelationID(ctx); got != "req-7" {
		t.Fatalf("CorrelationID = %q", got)
	}
	if CorrelationID(context.Background()) != "" {
		t.Fatalf("expected empty id for bare context")
	}
	base := context.Background()
	if WithCorrelationID(base, "") != base {
		t.Fatalf("empty id should leave context untouched")
	}
}
