package sessionware_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/goliatone/go-router"
	"github.com/stretchr/testify/mock"

	"github.com/bitmast/sessiongate"
	"github.com/bitmast/sessiongate/middleware/sessionware"
	"github.com/bitmast/sessiongate/store/memstore"
)

type testConfig struct{}

func (testConfig) GetSigningKey() string             { return "test-signing-key" }
func (testConfig) GetAccessTokenTTL() time.Duration  { return 15 * time.Minute }
func (testConfig) GetRefreshTokenTTL() time.Duration { return 24 * time.Hour }
func (testConfig) GetIssuer() string                 { return "test-issuer" }
func (testConfig) GetAudience() []string             { return []string{"test:audience"} }
func (testConfig) GetContextKey() string             { return "session" }
func (testConfig) GetAuthScheme() string             { return "Bearer" }
func (testConfig) GetTokenLookup() string            { return "header:Authorization,cookie:token" }
func (testConfig) GetRefreshLookup() string          { return "header:x-refresh-token,cookie:refresh" }
func (testConfig) GetPendingApprovalRoute() string   { return "/auth/awaiting-approval" }

type testClock struct {
	now time.Time
}

func (c *testClock) Now() time.Time          { return c.now }
func (c *testClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

// newTestGrant provisions a delegated-identity account and signs it in, so we
// get real credentials without hashing a password.
func newTestGrant(t *testing.T) (*sessiongate.Engine, *sessiongate.Grant, *testClock) {
	t.Helper()

	clock := &testClock{now: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
	engine := sessiongate.NewEngine(memstore.New(), testConfig{}).WithClock(clock.Now)

	profile := sessiongate.Profile{Email: "anna@example.com", DisplayName: "Anna", Provider: "github"}

	first, err := engine.SigninWithProfile(context.Background(), profile)
	if err != nil {
		t.Fatalf("failed to provision profile: %v", err)
	}
	if !first.Pending {
		t.Fatal("expected first contact to be pending")
	}

	second, err := engine.SigninWithProfile(context.Background(), profile)
	if err != nil {
		t.Fatalf("failed to sign in profile: %v", err)
	}
	return engine, second.Grant, clock
}

func newHandler(cfg sessionware.Config) router.HandlerFunc {
	return sessionware.New(cfg)(func(ctx router.Context) error {
		return ctx.Next()
	})
}

func TestSessionware_ValidToken(t *testing.T) {
	engine, grant, _ := newTestGrant(t)

	handler := newHandler(sessionware.Config{
		Engine: engine,
		ErrorHandler: func(c router.Context, err error) error {
			return err
		},
	})

	ctx := router.NewMockContext()
	ctx.HeadersM["Authorization"] = "Bearer " + grant.AccessToken
	ctx.On("GetString", "Authorization", "").Return("Bearer " + grant.AccessToken).Maybe()
	ctx.On("GetString", "x-refresh-token", "").Return("").Maybe()
	ctx.On("Context").Return(context.Background()).Maybe()
	ctx.On("Locals", "session", mock.Anything).Return(nil)

	if err := handler(ctx); err != nil {
		t.Fatalf("unexpected error for valid token: %v", err)
	}
	if !ctx.NextCalled {
		t.Error("expected Next to be invoked on success")
	}

	session, ok := sessionware.SessionFrom(ctx, "session")
	if !ok {
		t.Fatal("expected session in ctx locals")
	}
	if session.GetUserID() != grant.UserID {
		t.Errorf("expected user %q, got %q", grant.UserID, session.GetUserID())
	}
}

func TestSessionware_MissingCredential(t *testing.T) {
	engine, _, _ := newTestGrant(t)

	handler := newHandler(sessionware.Config{
		Engine: engine,
		ErrorHandler: func(c router.Context, err error) error {
			return err
		},
	})

	ctx := router.NewMockContext()
	ctx.On("GetString", "Authorization", "").Return("").Maybe()
	ctx.On("GetString", "x-refresh-token", "").Return("").Maybe()

	err := handler(ctx)
	if err == nil {
		t.Fatal("expected error for missing credentials, got nil")
	}
	if !strings.Contains(err.Error(), sessionware.ErrCredentialMissing.Error()) {
		t.Errorf("expected missing credential error, got: %v", err)
	}
}

func TestSessionware_Renewal(t *testing.T) {
	engine, grant, clock := newTestGrant(t)
	clock.Advance(16 * time.Minute)

	var renewed string
	handler := newHandler(sessionware.Config{
		Engine: engine,
		ErrorHandler: func(c router.Context, err error) error {
			return err
		},
		TokenWriter: func(c router.Context, token string) {
			renewed = token
		},
	})

	ctx := router.NewMockContext()
	ctx.HeadersM["Authorization"] = "Bearer " + grant.AccessToken
	ctx.CookiesM["refresh"] = grant.RefreshToken
	ctx.On("GetString", "Authorization", "").Return("Bearer " + grant.AccessToken).Maybe()
	ctx.On("GetString", "x-refresh-token", "").Return("").Maybe()
	ctx.On("Context").Return(context.Background()).Maybe()
	ctx.On("Locals", "session", mock.Anything).Return(nil)

	if err := handler(ctx); err != nil {
		t.Fatalf("expected transparent renewal, got: %v", err)
	}
	if !ctx.NextCalled {
		t.Error("expected Next to be invoked after renewal")
	}
	if renewed == "" {
		t.Fatal("expected TokenWriter to receive the renewed token")
	}
	if renewed == grant.AccessToken {
		t.Error("expected a fresh access token, got the expired one")
	}
}

func TestSessionware_ExpiredWithoutRefresh(t *testing.T) {
	engine, grant, clock := newTestGrant(t)
	clock.Advance(16 * time.Minute)

	handler := newHandler(sessionware.Config{
		Engine: engine,
		ErrorHandler: func(c router.Context, err error) error {
			return err
		},
	})

	ctx := router.NewMockContext()
	ctx.HeadersM["Authorization"] = "Bearer " + grant.AccessToken
	ctx.On("GetString", "Authorization", "").Return("Bearer " + grant.AccessToken).Maybe()
	ctx.On("GetString", "x-refresh-token", "").Return("").Maybe()
	ctx.On("Context").Return(context.Background()).Maybe()

	err := handler(ctx)
	if err == nil {
		t.Fatal("expected error for expired token without refresh, got nil")
	}
}

// customPathMock overrides Path() from the base MockContext.
type customPathMock struct {
	*router.MockContext
	pathOverride string
}

func (m *customPathMock) Path() string {
	return m.pathOverride
}

func TestSessionware_Filter(t *testing.T) {
	engine, _, _ := newTestGrant(t)

	handler := newHandler(sessionware.Config{
		Engine: engine,
		Filter: func(ctx router.Context) bool {
			return ctx.Path() == "/public"
		},
	})

	ctx := &customPathMock{
		MockContext:  router.NewMockContext(),
		pathOverride: "/public",
	}

	if err := handler(ctx); err != nil {
		t.Fatalf("expected Filter to skip the middleware, got %v", err)
	}
	if !ctx.NextCalled {
		t.Error("expected Next() to be invoked due to Filter skip")
	}
}

func TestSessionware_Extractors(t *testing.T) {
	engine, grant, _ := newTestGrant(t)

	cfg := sessionware.GetDefaultConfig(sessionware.Config{
		Engine: engine,
		ErrorHandler: func(c router.Context, err error) error {
			return err
		},
		TokenLookup: "header:Authorization,query:jwt,cookie:token",
	})
	handler := newHandler(cfg)

	tests := []struct {
		name      string
		setToken  func(*router.MockContext)
		wantError bool
	}{
		{
			name: "token in header",
			setToken: func(ctx *router.MockContext) {
				ctx.HeadersM["Authorization"] = "Bearer " + grant.AccessToken
				ctx.On("GetString", "Authorization", "").Return("Bearer " + grant.AccessToken).Maybe()
			},
		},
		{
			name: "token in query",
			setToken: func(ctx *router.MockContext) {
				ctx.QueriesM["jwt"] = grant.AccessToken
				ctx.On("GetString", "Authorization", "").Return("").Maybe()
			},
		},
		{
			name: "token in cookie",
			setToken: func(ctx *router.MockContext) {
				ctx.CookiesM["token"] = grant.AccessToken
				ctx.On("GetString", "Authorization", "").Return("").Maybe()
			},
		},
		{
			name: "refresh cookie only still authenticates",
			setToken: func(ctx *router.MockContext) {
				ctx.CookiesM["refresh"] = grant.RefreshToken
				ctx.On("GetString", "Authorization", "").Return("").Maybe()
				ctx.On("Cookie", mock.Anything).Return().Maybe()
			},
		},
		{
			name: "no credential anywhere",
			setToken: func(ctx *router.MockContext) {
				ctx.On("GetString", "Authorization", "").Return("").Maybe()
			},
			wantError: true,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			ctx := router.NewMockContext()
			ctx.On("GetString", "x-refresh-token", "").Return("").Maybe()
			ctx.On("Context").Return(context.Background()).Maybe()
			ctx.On("Locals", cfg.ContextKey, mock.Anything).Return(nil).Maybe()
			tc.setToken(ctx)

			err := handler(ctx)
			if tc.wantError {
				if err == nil {
					t.Error("expected an error, got nil")
				}
				return
			}

			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if !ctx.NextCalled {
				t.Error("middleware did not call Next() on success")
			}
		})
	}
}
