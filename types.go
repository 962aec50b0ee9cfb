package sessiongate

import (
	"context"
	"fmt"
	"time"
)

type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Error(format string, args ...any)
}

// Clock yields the current wall-clock time. Every time-window decision in the
// engine goes through an injected Clock so expiry races are testable.
type Clock func() time.Time

// Store is the record-store contract the engine consumes. Get must signal
// absence with a not-found error (see IsRecordNotFound), never a nil record
// with a nil error. Insert creates or replaces the record addressed by its
// key.
type Store interface {
	Get(ctx context.Context, key string) (*Record, error)
	Insert(ctx context.Context, record *Record) error
}

// Config holds engine options. Hosts load configuration however they want;
// the engine only reads through this interface.
type Config interface {
	GetSigningKey() string
	GetAccessTokenTTL() time.Duration
	GetRefreshTokenTTL() time.Duration
	GetIssuer() string
	GetAudience() []string
	GetContextKey() string
	GetAuthScheme() string
	GetTokenLookup() string
	GetRefreshLookup() string
	GetPendingApprovalRoute() string
}

// Grant is the outcome of a successful authentication: the subject plus the
// credentials the transport layer should attach to the response. RefreshToken
// is empty on renewal, where only a fresh access token is issued.
type Grant struct {
	UserID       string
	DisplayName  string
	AccessToken  string
	RefreshToken string
}

// Profile is a verified external identity yielded by a delegated provider.
// The engine never performs the provider negotiation itself.
type Profile struct {
	Email       string
	DisplayName string
	Provider    string
}

// TokenService signs and validates access credentials.
type TokenService interface {
	Sign(userID, displayName string) (string, error)
	Validate(tokenString string) (AuthClaims, error)
}

type defLogger struct{}

func (d defLogger) Error(format string, args ...any) {
	fmt.Printf("[ERR] SESSIONGATE "+newline(format), args...)
}

func (d defLogger) Info(format string, args ...any) {
	fmt.Printf("[INF] SESSIONGATE "+newline(format), args...)
}

func (d defLogger) Debug(format string, args ...any) {
	fmt.Printf("[DBG] SESSIONGATE "+newline(format), args...)
}

func newline(s string) string {
	if len(s) > 0 && s[len(s)-1] != '\n' {
		s += "\n"
	}
	return s
}
