package sessiongate

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/goliatone/go-errors"
)

const refreshSecretBytes = 32

// TokenIssuer mints access/refresh credential pairs and persists the refresh
// record. The access credential is never stored; the refresh record is keyed
// by the digest of its secret, never the secret itself.
type TokenIssuer struct {
	store  Store
	tokens TokenService
	clock  Clock
	logger Logger
}

// NewTokenIssuer returns a TokenIssuer backed by the given store and signer.
func NewTokenIssuer(store Store, tokens TokenService) *TokenIssuer {
	return &TokenIssuer{
		store:  store,
		tokens: tokens,
		clock:  time.Now,
		logger: defLogger{},
	}
}

func (i *TokenIssuer) WithClock(clock Clock) *TokenIssuer {
	if clock != nil {
		i.clock = clock
	}
	return i
}

func (i *TokenIssuer) WithLogger(logger Logger) *TokenIssuer {
	if logger != nil {
		i.logger = logger
	}
	return i
}

// Issue mints one access credential and one refresh credential for the
// subject, inserting exactly one refresh-token record.
func (i *TokenIssuer) Issue(ctx context.Context, userID, displayName string) (*Grant, error) {
	access, err := i.tokens.Sign(userID, displayName)
	if err != nil {
		return nil, err
	}

	secret, err := newRefreshSecret()
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to generate refresh secret")
	}

	record := &Record{
		Key:         RefreshKey(DigestRefreshSecret(secret)),
		Kind:        KindRefreshToken,
		UserID:      userID,
		DisplayName: displayName,
		Created:     i.clock().Unix(),
	}

	if err := i.store.Insert(ctx, record); err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to persist refresh token")
	}

	return &Grant{
		UserID:       userID,
		DisplayName:  displayName,
		AccessToken:  access,
		RefreshToken: secret,
	}, nil
}

// Reissue mints a fresh access credential only. Used on renewal, where the
// refresh record is left untouched.
func (i *TokenIssuer) Reissue(userID, displayName string) (*Grant, error) {
	access, err := i.tokens.Sign(userID, displayName)
	if err != nil {
		return nil, err
	}

	return &Grant{
		UserID:      userID,
		DisplayName: displayName,
		AccessToken: access,
	}, nil
}

// DigestRefreshSecret maps a refresh secret to the hex digest used as its
// store key component.
func DigestRefreshSecret(secret string) string {
	sum := sha256.Sum256([]byte(secret))
	return hex.EncodeToString(sum[:])
}

func newRefreshSecret() (string, error) {
	buf := make([]byte, refreshSecretBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
