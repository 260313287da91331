package core

import (
	"context"
	"slices"

	"gtasync/internal/logging"
	"gtasync/pkg/domain"
)

// mutation describes what a command touched. A noop mutation is not
// announced to subscribers.
type mutation struct {
	entity EntityType
	ids    []int64
	noop   bool
}

// run applies fn under the store lock, then records metrics, ends the trace
// span, logs the outcome and notifies subscribers. The event payload is
// encoded while the lock is still held so it reflects the input as applied.
// A command arriving on a cancelled ctx is rejected with ctx's error.
func (s *Service) run(ctx context.Context, command string, input any, fn func(*State) (mutation, error)) error {
	ctx, span := s.tracer.Start(ctx, command)
	started := s.clock.Now()
	logger := s.loggerFor(ctx)
	if id := logging.CorrelationID(ctx); id != "" {
		logger = withArgs(logger, "correlation_id", id)
	}

	var (
		event   Event
		applied mutation
		notify  bool
	)
	err := ctx.Err()
	if err == nil {
		err = s.store.apply(func(st *State) error {
			m, err := fn(st)
			if err != nil {
				return err
			}
			applied = m
			if m.noop || !s.subs.active() {
				return nil
			}
			event = Event{
				ID:      s.newID(),
				Command: command,
				Entity:  m.entity,
				IDs:     m.ids,
				At:      started,
				Payload: domain.UndefinedEventPayload(),
			}
			if input != nil {
				payload, encErr := domain.NewEventPayloadFromValue(input)
				if encErr != nil {
					logger.Error("encode event payload", "operation", command, "error", encErr)
				} else {
					event.Payload = payload
				}
			}
			notify = true
			return nil
		})
	}

	duration := s.clock.Now().Sub(started)
	s.metrics.Observe(ctx, command, err == nil, duration)
	span.End(err)

	if err != nil {
		logger.Warn("command rejected",
			"operation", command,
			"error_kind", ErrorKind(err),
			"error", err,
		)
		return err
	}
	logger.Debug("command applied",
		"operation", command,
		"entity", string(applied.entity),
		"ids", applied.ids,
		"noop", applied.noop,
		"duration_ms", float64(duration.Microseconds())/1000,
	)
	if notify {
		s.subs.publish(event)
	}
	return nil
}

// withArgs binds args to every record of logger.
func withArgs(logger Logger, args ...any) Logger {
	return argsLogger{next: logger, args: args}
}

type argsLogger struct {
	next Logger
	args []any
}

func (l argsLogger) Debug(msg string, args ...any) { l.next.Debug(msg, slices.Concat(l.args, args)...) }
func (l argsLogger) Info(msg string, args ...any)  { l.next.Info(msg, slices.Concat(l.args, args)...) }
func (l argsLogger) Warn(msg string, args ...any)  { l.next.Warn(msg, slices.Concat(l.args, args)...) }
func (l argsLogger) Error(msg string, args ...any) { l.next.Error(msg, slices.Concat(l.args, args)...) }
