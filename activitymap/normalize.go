// Package activitymap converts engine activity events into a generic shape
// that downstream activity feeds and audit pipelines can consume.
package activitymap

import (
	"context"
	"strings"
	"time"

	"github.com/bitmast/sessiongate"
)

const (
	// MetadataKeyEmail stores the normalized email involved in the event.
	MetadataKeyEmail = "email"
	// MetadataKeyProvider stores the delegated identity provider, when any.
	MetadataKeyProvider = "provider"
)

const (
	defaultChannel    = "sessions"
	defaultObjectType = "user"
	defaultActorID    = "system"
)

// Normalized is a transport-agnostic activity shape for downstream systems.
type Normalized struct {
	ActorID    string         `json:"actor_id"`
	Verb       string         `json:"verb"`
	ObjectType string         `json:"object_type,omitempty"`
	ObjectID   string         `json:"object_id,omitempty"`
	Channel    string         `json:"channel,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	OccurredAt time.Time      `json:"occurred_at"`
}

// Option customizes normalization behavior.
type Option func(*normalizeOptions)

type normalizeOptions struct {
	channel       string
	objectType    string
	actorFallback string
}

// WithChannel overrides the channel label attached to every event.
func WithChannel(channel string) Option {
	return func(o *normalizeOptions) {
		if channel != "" {
			o.channel = channel
		}
	}
}

// WithObjectType overrides the object type label.
func WithObjectType(objectType string) Option {
	return func(o *normalizeOptions) {
		if objectType != "" {
			o.objectType = objectType
		}
	}
}

// WithActorFallback sets the actor recorded when the event has no subject.
func WithActorFallback(actorID string) Option {
	return func(o *normalizeOptions) {
		if actorID != "" {
			o.actorFallback = actorID
		}
	}
}

// Normalize converts an engine activity event into the generic shape.
func Normalize(event sessiongate.ActivityEvent, opts ...Option) Normalized {
	options := defaultNormalizeOptions()
	for _, opt := range opts {
		if opt != nil {
			opt(&options)
		}
	}

	actorID := firstNonEmpty(
		strings.TrimSpace(event.UserID),
		options.actorFallback,
	)

	metadata := make(map[string]any, len(event.Metadata)+2)
	for k, v := range event.Metadata {
		metadata[k] = v
	}
	if event.Email != "" {
		metadata[MetadataKeyEmail] = event.Email
	}
	if event.Provider != "" {
		metadata[MetadataKeyProvider] = event.Provider
	}
	if len(metadata) == 0 {
		metadata = nil
	}

	occurredAt := event.OccurredAt
	if occurredAt.IsZero() {
		occurredAt = time.Now()
	}

	return Normalized{
		ActorID:    actorID,
		Verb:       string(event.EventType),
		ObjectType: options.objectType,
		ObjectID:   event.UserID,
		Channel:    options.channel,
		Metadata:   metadata,
		OccurredAt: occurredAt,
	}
}

// Sink returns an ActivitySink that normalizes every event before handing it
// to the emit callback.
func Sink(emit func(Normalized), opts ...Option) sessiongate.ActivitySinkFunc {
	return func(_ context.Context, event sessiongate.ActivityEvent) error {
		if emit != nil {
			emit(Normalize(event, opts...))
		}
		return nil
	}
}

func defaultNormalizeOptions() normalizeOptions {
	return normalizeOptions{
		channel:       defaultChannel,
		objectType:    defaultObjectType,
		actorFallback: defaultActorID,
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
