package core

import (
	"context"
	"testing"
	"time"
)

func TestNoopCollaborators(_ *testing.T) {
	logger := noopLogger{}
	logger.Debug("debug", "key", "value")
	logger.Info("info", "key", "value")
	logger.Warn("warn", "key", "value")
	logger.Error("error", "key", "value")

	noopMetricsRecorder{}.Observe(context.Background(), "load", true, time.Millisecond)

	_, span := noopTracer{}.Start(context.Background(), "load")
	span.End(nil)
}

func TestServiceOptionsIgnoreNil(t *testing.T) {
	var nilFn func() string
	svc := NewService(nil,
		nil,
		WithLogger(nil),
		WithMetricsRecorder(nil),
		WithTracer(nil),
		WithClock(nil),
		WithIDGenerator(nilFn),
	)

	if svc.Store() == nil {
		t.Fatalf("expected a fresh store when none is supplied")
	}
	if _, ok := svc.logger.(noopLogger); !ok {
		t.Fatalf("nil logger should keep the default, got %T", svc.logger)
	}
	if _, ok := svc.metrics.(noopMetricsRecorder); !ok {
		t.Fatalf("nil recorder should keep the default, got %T", svc.metrics)
	}
	if _, ok := svc.tracer.(noopTracer); !ok {
		t.Fatalf("nil tracer should keep the default, got %T", svc.tracer)
	}
	if svc.clock.Now().Location() != time.UTC {
		t.Fatalf("default clock should report UTC")
	}
	if id := svc.newID(); len(id) != 36 {
		t.Fatalf("default id generator should mint uuids, got %q", id)
	}
}
