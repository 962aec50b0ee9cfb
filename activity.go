package sessiongate

import (
	"context"
	"time"
)

// ActivityEventType enumerates supported activity categories.
type ActivityEventType string

const (
	ActivityEventSigninSuccess  ActivityEventType = "signin.success"
	ActivityEventSigninFailure  ActivityEventType = "signin.failure"
	ActivityEventAccountLocked  ActivityEventType = "signin.account.locked"
	ActivityEventLockedRejected ActivityEventType = "signin.locked.rejected"
	ActivityEventRenewal        ActivityEventType = "credential.renewal"
	ActivityEventProvisioned    ActivityEventType = "profile.provisioned"
	ActivityEventProfileSignin  ActivityEventType = "profile.signin"
)

// ActivityEvent captures audit-friendly information about a lifecycle action.
type ActivityEvent struct {
	EventType  ActivityEventType
	UserID     string
	Email      string
	Provider   string
	Metadata   map[string]any
	OccurredAt time.Time
}

// ActivitySink consumes activity events for auditing/telemetry purposes.
// Sink failures never fail the operation that produced the event.
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
