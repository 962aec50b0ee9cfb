package sessiongate_test

import (
	"context"
	"time"

	"github.com/bitmast/sessiongate"
	"github.com/stretchr/testify/mock"
)

// testConfig is a minimal Config for tests.
type testConfig struct {
	signingKey string
	accessTTL  time.Duration
	refreshTTL time.Duration
}

func newTestConfig() testConfig {
	return testConfig{
		signingKey: "test-signing-key",
		accessTTL:  15 * time.Minute,
		refreshTTL: 24 * time.Hour,
	}
}

func (c testConfig) GetSigningKey() string              { return c.signingKey }
func (c testConfig) GetAccessTokenTTL() time.Duration   { return c.accessTTL }
func (c testConfig) GetRefreshTokenTTL() time.Duration  { return c.refreshTTL }
func (c testConfig) GetIssuer() string                  { return "test-issuer" }
func (c testConfig) GetAudience() []string              { return []string{"test:audience"} }
func (c testConfig) GetContextKey() string              { return "session" }
func (c testConfig) GetAuthScheme() string              { return "Bearer" }
func (c testConfig) GetTokenLookup() string             { return "header:Authorization,cookie:token" }
func (c testConfig) GetRefreshLookup() string           { return "header:x-refresh-token,cookie:refresh" }
func (c testConfig) GetPendingApprovalRoute() string    { return "/auth/awaiting-approval" }

// testClock is a settable wall clock.
type testClock struct {
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{
		now: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

func (c *testClock) Now() time.Time {
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.now = c.now.Add(d)
}

// MockStore is a testify mock of the record store.
type MockStore struct {
	mock.Mock
}

func (m *MockStore) Get(ctx context.Context, key string) (*sessiongate.Record, error) {
	args := m.Called(ctx, key)
	if record := args.Get(0); record != nil {
		return record.(*sessiongate.Record), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockStore) Insert(ctx context.Context, record *sessiongate.Record) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}
