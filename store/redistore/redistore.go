// Package redistore persists engine records in Redis hashes. Each logical
// record maps to one hash under a shared prefix; refresh-token records carry
// a TTL so the backend reclaims them once they can no longer renew anything.
package redistore

import (
	"context"
	"strconv"
	"time"

	"github.com/bitmast/sessiongate"
	"github.com/redis/go-redis/v9"
)

const defaultPrefix = "sessiongate:"

// Store implements sessiongate.Store over a Redis client.
type Store struct {
	client     *redis.Client
	prefix     string
	refreshTTL time.Duration
}

var _ sessiongate.Store = (*Store)(nil)

type Option func(*Store)

// WithPrefix overrides the key prefix (default "sessiongate:").
func WithPrefix(prefix string) Option {
	return func(s *Store) {
		s.prefix = prefix
	}
}

// WithRefreshTTL expires refresh-token hashes after the given duration. Set
// it to the engine's refresh TTL plus a buffer; zero disables expiry.
func WithRefreshTTL(ttl time.Duration) Option {
	return func(s *Store) {
		s.refreshTTL = ttl
	}
}

// New creates a Store backed by the given Redis client.
func New(client *redis.Client, opts ...Option) *Store {
	s := &Store{
		client: client,
		prefix: defaultPrefix,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Get loads the record stored under key.
func (s *Store) Get(ctx context.Context, key string) (*sessiongate.Record, error) {
	data, err := s.client.HGetAll(ctx, s.prefix+key).Result()
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, sessiongate.ErrRecordNotFound.Clone().WithMetadata(map[string]any{
			"key": key,
		})
	}

	record := &sessiongate.Record{
		Key:          key,
		Kind:         sessiongate.RecordKind(data["kind"]),
		Rev:          data["rev"],
		DisplayName:  data["display_name"],
		UserID:       data["user_id"],
		AuthType:     data["auth_type"],
		Algorithm:    sessiongate.HashAlgorithm(data["algorithm"]),
		PasswordHash: data["password_hash"],
	}

	if raw, ok := data["failed_logins"]; ok && raw != "" {
		if n, convErr := strconv.Atoi(raw); convErr == nil {
			record.FailedLogins = n
		}
	}
	if raw, ok := data["account_locked"]; ok && raw != "" {
		// Stored as nanoseconds so the lock window round-trips exactly.
		if nanos, convErr := strconv.ParseInt(raw, 10, 64); convErr == nil && nanos > 0 {
			t := time.Unix(0, nanos).UTC()
			record.AccountLocked = &t
		}
	}
	if raw, ok := data["created"]; ok && raw != "" {
		if n, convErr := strconv.ParseInt(raw, 10, 64); convErr == nil {
			record.Created = n
		}
	}

	return record, nil
}

// Insert creates or replaces the record at its key.
func (s *Store) Insert(ctx context.Context, record *sessiongate.Record) error {
	redisKey := s.prefix + record.Key

	fields := map[string]any{
		"kind":          string(record.Kind),
		"rev":           record.Rev,
		"display_name":  record.DisplayName,
		"user_id":       record.UserID,
		"auth_type":     record.AuthType,
		"algorithm":     string(record.Algorithm),
		"password_hash": record.PasswordHash,
		"failed_logins": record.FailedLogins,
		"created":       record.Created,
	}

	accountLocked := int64(0)
	if record.AccountLocked != nil {
		accountLocked = record.AccountLocked.UnixNano()
	}
	fields["account_locked"] = accountLocked

	_, err := s.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		// Replace wholesale so stale fields from a previous revision never
		// survive the write.
		p.Del(ctx, redisKey)
		p.HSet(ctx, redisKey, fields)
		if record.Kind == sessiongate.KindRefreshToken && s.refreshTTL > 0 {
			p.Expire(ctx, redisKey, s.refreshTTL)
		}
		return nil
	})

	return err
}
