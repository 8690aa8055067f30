package auth

import (
	"context"
	"errors"
	"time"
)

// ActivityEventType enumerates supported activity categories.
type ActivityEventType string

const (
	ActivityEventLoginSuccess ActivityEventType = "auth.login.success"
	ActivityEventLoginFailure ActivityEventType = "auth.login.failure"
)

// ActivityEvent captures audit-friendly information about a login attempt.
type ActivityEvent struct {
	EventType  ActivityEventType
	SubjectID  string
	Outcome    Outcome
	Metadata   map[string]any
	OccurredAt time.Time
}

// ActivitySink consumes activity events for auditing purposes. Recording is
// best effort: errors are logged and never change the login result.
type ActivitySink interface {
	Record(ctx context.Context, event ActivityEvent) error
}

// ActivitySinkFunc adapts a function to the ActivitySink interface.
type ActivitySinkFunc func(ctx context.Context, event ActivityEvent) error

// Record implements ActivitySink.
func (f ActivitySinkFunc) Record(ctx context.Context, event ActivityEvent) error {
	if f == nil {
		return nil
	}
	return f(ctx, event)
}

// LoggingActivitySink writes every event to a Logger.
type LoggingActivitySink struct {
	logger Logger
}

// NewLoggingActivitySink returns a sink that logs events at info level.
func NewLoggingActivitySink(logger Logger) *LoggingActivitySink {
	return &LoggingActivitySink{logger: componentLogger(logger, "auth.activity")}
}

// Record implements ActivitySink.
func (s *LoggingActivitySink) Record(_ context.Context, event ActivityEvent) error {
	args := []any{
		"event", string(event.EventType),
		"outcome", event.Outcome.String(),
		"occurred_at", event.OccurredAt,
	}
	if event.SubjectID != "" {
		args = append(args, "sub", event.SubjectID)
	}
	for k, v := range event.Metadata {
		args = append(args, k, v)
	}
	s.logger.Info("auth activity", args...)
	return nil
}

// NewMultiActivitySink records every event on each sink in order and returns
// the joined errors.
func NewMultiActivitySink(sinks ...ActivitySink) ActivitySink {
	out := make(multiActivitySink, 0, len(sinks))
	for _, s := range sinks {
		if s != nil {
			out = append(out, s)
		}
	}
	return out
}

type multiActivitySink []ActivitySink

func (m multiActivitySink) Record(ctx context.Context, event ActivityEvent) error {
	var errs []error
	for _, s := range m {
		if err := s.Record(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

type noopActivitySink struct{}

func (noopActivitySink) Record(context.Context, ActivityEvent) error {
	return nil
}

func normalizeActivitySink(s ActivitySink) ActivitySink {
	if s == nil {
		return noopActivitySink{}
	}
	return s
}
