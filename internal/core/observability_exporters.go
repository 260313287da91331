package core

import (
	"context"
	"encoding/json"
	"expvar"
	"fmt"
	"io"
	"maps"
	"sync"
	"sync/atomic"
	"time"
)

var expvarSeq uint64

// CommandStats aggregates the outcomes of one command.
type CommandStats struct {
	Applied         int64   `json:"applied"`
	Rejected        int64   `json:"rejected"`
	TotalDurationMS float64 `json:"total_duration_ms"`
	MaxDurationMS   float64 `json:"max_duration_ms"`
}

// ExpvarMetricsRecorder publishes per-command counters through expvar, for
// deployments that only expose /debug/vars.
type ExpvarMetricsRecorder struct {
	name     string
	mu       sync.Mutex
	commands map[string]CommandStats
}

// ExpvarMetricsSnapshot is a copy of the recorded counters.
type ExpvarMetricsSnapshot struct {
	Commands   map[string]CommandStats `json:"commands"`
	RecordedAt time.Time               `json:"recorded_at"`
}

// NewExpvarMetricsRecorder publishes a recorder under name, or under a
// generated unique name when empty.
func NewExpvarMetricsRecorder(name string) *ExpvarMetricsRecorder {
	if name == "" {
		name = fmt.Sprintf("gtasync_commands_%d", atomic.AddUint64(&expvarSeq, 1))
	}
	rec := &ExpvarMetricsRecorder{
		name:     name,
		commands: make(map[string]CommandStats),
	}
	expvar.Publish(name, expvar.Func(func() any {
		return rec.Snapshot()
	}))
	return rec
}

// Name returns the expvar export name.
func (r *ExpvarMetricsRecorder) Name() string {
	return r.name
}

// Snapshot copies the aggregated counters.
func (r *ExpvarMetricsRecorder) Snapshot() ExpvarMetricsSnapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return ExpvarMetricsSnapshot{
		Commands:   maps.Clone(r.commands),
		RecordedAt: time.Now().UTC(),
	}
}

// Observe implements MetricsRecorder.
func (r *ExpvarMetricsRecorder) Observe(_ context.Context, command string, success bool, duration time.Duration) {
	if command == "" {
		return
	}
	ms := float64(duration) / float64(time.Millisecond)

	r.mu.Lock()
	defer r.mu.Unlock()
	stats := r.commands[command]
	if success {
		stats.Applied++
	} else {
		stats.Rejected++
	}
	stats.TotalDurationMS += ms
	stats.MaxDurationMS = max(stats.MaxDurationMS, ms)
	r.commands[command] = stats
}

// JSONTraceEntry is one finished span.
type JSONTraceEntry struct {
	Command    string    `json:"command"`
	Status     string    `json:"status"`
	ErrorKind  string    `json:"error_kind,omitempty"`
	Error      string    `json:"error,omitempty"`
	DurationMS float64   `json:"duration_ms"`
	StartedAt  time.Time `json:"started_at"`
	EndedAt    time.Time `json:"ended_at"`
}

// JSONTraceTracer writes every finished span as a JSON line and keeps the
// most recent ones for inspection.
type JSONTraceTracer struct {
	mu      sync.Mutex
	limit   int
	entries []JSONTraceEntry
	enc     *json.Encoder
}

// NewJSONTracer writes spans to w, which may be nil. limit bounds how many
// entries are retained; zero or less keeps everything.
func NewJSONTracer(w io.Writer, limit int) *JSONTraceTracer {
	t := &JSONTraceTracer{limit: limit}
	if w != nil {
		t.enc = json.NewEncoder(w)
	}
	return t
}

// Entries returns a copy of the retained spans, oldest first.
func (t *JSONTraceTracer) Entries() []JSONTraceEntry {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]JSONTraceEntry(nil), t.entries...)
}

// Start implements Tracer.
func (t *JSONTraceTracer) Start(ctx context.Context, command string) (context.Context, TraceSpan) {
	return ctx, &jsonTraceSpan{tracer: t, command: command, started: time.Now().UTC()}
}

func (t *JSONTraceTracer) record(entry JSONTraceEntry) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.entries = append(t.entries, entry)
	if t.limit > 0 && len(t.entries) > t.limit {
		t.entries = append(t.entries[:0:0], t.entries[len(t.entries)-t.limit:]...)
	}
	if t.enc != nil {
		_ = t.enc.Encode(entry)
	}
}

type jsonTraceSpan struct {
	tracer  *JSONTraceTracer
	command string
	started time.Time
}

func (s *jsonTraceSpan) End(err error) {
	ended := time.Now().UTC()
	entry := JSONTraceEntry{
		Command:    s.command,
		Status:     "applied",
		DurationMS: float64(ended.Sub(s.started)) / float64(time.Millisecond),
		StartedAt:  s.started,
		EndedAt:    ended,
	}
	if err != nil {
		entry.Status = "rejected"
		entry.ErrorKind = ErrorKind(err)
		entry.Error = err.Error()
	}
	s.tracer.record(entry)
}
