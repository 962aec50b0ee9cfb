package sessiongate

import (
	"context"
	"time"

	"github.com/goliatone/go-errors"
)

// Engine is the top-level per-request state machine: it signs principals in
// by password or verified delegated profile, verifies access credentials, and
// transparently renews them from a refresh credential. It holds no mutable
// state of its own; everything durable lives behind the Store.
type Engine struct {
	store       Store
	signingKey  []byte
	accessTTL   time.Duration
	refreshTTL  time.Duration
	issuerName  string
	audience    []string
	tokens      TokenService
	issuer      *TokenIssuer
	provisioner *Provisioner
	clock       Clock
	logger      Logger
	activity    ActivitySink
}

// NewEngine returns a new Engine over the given record store.
func NewEngine(store Store, opts Config) *Engine {
	e := &Engine{
		store:      store,
		signingKey: []byte(opts.GetSigningKey()),
		accessTTL:  opts.GetAccessTokenTTL(),
		refreshTTL: opts.GetRefreshTokenTTL(),
		issuerName: opts.GetIssuer(),
		audience:   opts.GetAudience(),
		clock:      time.Now,
		logger:     defLogger{},
		activity:   noopActivitySink{},
	}

	e.rebuild()

	return e
}

// WithLogger sets the logger on the engine and its components.
func (e *Engine) WithLogger(logger Logger) *Engine {
	if logger != nil {
		e.logger = logger
		e.rebuild()
	}
	return e
}

// WithClock injects the wall clock used for every time-window decision.
func (e *Engine) WithClock(clock Clock) *Engine {
	if clock != nil {
		e.clock = clock
		e.rebuild()
	}
	return e
}

// WithActivitySink registers a sink for audit events. Sink errors are logged
// and swallowed; auditing never blocks a signin.
func (e *Engine) WithActivitySink(sink ActivitySink) *Engine {
	e.activity = normalizeActivitySink(sink)
	return e
}

// WithTokenService overrides the access-credential signer, e.g. to swap the
// signing scheme. The issuer is rebuilt around it.
func (e *Engine) WithTokenService(tokens TokenService) *Engine {
	if tokens != nil {
		e.tokens = tokens
		e.issuer = NewTokenIssuer(e.store, e.tokens).WithClock(e.clock).WithLogger(e.logger)
	}
	return e
}

// TokenService returns the signer used by this engine.
func (e *Engine) TokenService() TokenService {
	return e.tokens
}

func (e *Engine) rebuild() {
	e.tokens = NewTokenService(e.signingKey, e.accessTTL, e.issuerName, e.audience, e.logger, e.clock)
	e.issuer = NewTokenIssuer(e.store, e.tokens).WithClock(e.clock).WithLogger(e.logger)
	e.provisioner = NewProvisioner(e.store).WithLogger(e.logger)
}

// SigninWithPassword authenticates an email/password pair, enforcing the
// lockout policy. On success it issues a full credential pair; on failure the
// email record's lockout fields advance and a generic invalid-credentials
// error is returned.
func (e *Engine) SigninWithPassword(ctx context.Context, email, password string) (*Grant, error) {
	record, err := e.store.Get(ctx, EmailKey(email))
	if err != nil {
		if IsRecordNotFound(err) {
			return nil, ErrInvalidCredentials
		}
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to look up email record")
	}

	if record.AuthType != AuthTypePassword {
		e.logger.Info("password signin against non-password account", "email", NormalizeEmail(email), "auth_type", record.AuthType)
		return nil, ErrWrongAuthType
	}

	now := e.clock()
	if LockActive(record.AccountLocked, now) {
		e.record(ctx, ActivityEvent{
			EventType: ActivityEventLockedRejected,
			UserID:    record.UserID,
			Email:     NormalizeEmail(email),
		})
		return nil, ErrAccountLocked
	}

	verified, err := e.verify(password, record)
	if err != nil {
		return nil, err
	}

	decision := ResolveAttempt(record.FailedLogins, record.AccountLocked, now, verified)

	updated := *record
	updated.FailedLogins = decision.FailedLogins
	updated.AccountLocked = decision.AccountLocked
	if err := e.store.Insert(ctx, &updated); err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to persist lockout state")
	}

	if !verified {
		eventType := ActivityEventSigninFailure
		if decision.AccountLocked != nil {
			eventType = ActivityEventAccountLocked
		}
		e.record(ctx, ActivityEvent{
			EventType: eventType,
			UserID:    record.UserID,
			Email:     NormalizeEmail(email),
			Metadata:  map[string]any{"failed_logins": decision.FailedLogins},
		})
		return nil, ErrInvalidCredentials
	}

	e.record(ctx, ActivityEvent{
		EventType: ActivityEventSigninSuccess,
		UserID:    record.UserID,
		Email:     NormalizeEmail(email),
	})

	return e.issuer.Issue(ctx, record.UserID, e.displayNameFor(ctx, record.UserID))
}

// ProfileSignin is the outcome of a delegated-identity contact. Pending means
// first contact: records were created, no credentials were issued, and the
// host should redirect to its awaiting-approval destination.
type ProfileSignin struct {
	Pending bool
	Grant   *Grant
}

// SigninWithProfile consumes a verified external profile, provisioning on
// first contact and issuing credentials for known principals.
func (e *Engine) SigninWithProfile(ctx context.Context, profile Profile) (*ProfileSignin, error) {
	result, err := e.provisioner.Provision(ctx, profile)
	if err != nil {
		return nil, err
	}

	if result.Pending {
		e.record(ctx, ActivityEvent{
			EventType: ActivityEventProvisioned,
			UserID:    result.UserID,
			Email:     NormalizeEmail(profile.Email),
			Provider:  profile.Provider,
		})
		return &ProfileSignin{Pending: true}, nil
	}

	grant, err := e.issuer.Issue(ctx, result.UserID, result.DisplayName)
	if err != nil {
		return nil, err
	}

	e.record(ctx, ActivityEvent{
		EventType: ActivityEventProfileSignin,
		UserID:    result.UserID,
		Email:     NormalizeEmail(profile.Email),
		Provider:  profile.Provider,
	})

	return &ProfileSignin{Grant: grant}, nil
}

// CheckResult is the outcome of verifying an authenticated request.
// AccessToken is set only when the access credential was renewed; the
// transport layer should emit it, and nothing else, in that case.
type CheckResult struct {
	Session     *SessionObject
	AccessToken string
}

// Authenticate verifies an access credential and, when it is expired or
// absent, attempts transparent renewal via the refresh credential. A valid
// unexpired access credential yields no writes and no new credentials.
func (e *Engine) Authenticate(ctx context.Context, accessToken, refreshToken string) (*CheckResult, error) {
	if accessToken != "" {
		claims, err := e.tokens.Validate(accessToken)
		if err == nil {
			session, err := sessionFromAuthClaims(claims)
			if err != nil {
				return nil, err
			}
			return &CheckResult{Session: session}, nil
		}

		if !isTokenExpired(err) {
			// A bad signature is never eligible for renewal.
			return nil, err
		}
	}

	if refreshToken == "" {
		return nil, ErrTokenExpired
	}

	return e.renew(ctx, refreshToken)
}

func (e *Engine) renew(ctx context.Context, refreshToken string) (*CheckResult, error) {
	record, err := e.store.Get(ctx, RefreshKey(DigestRefreshSecret(refreshToken)))
	if err != nil {
		if IsRecordNotFound(err) {
			return nil, ErrRefreshRejected
		}
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to look up refresh token")
	}

	age := e.clock().Unix() - record.Created
	if age >= int64(e.refreshTTL/time.Second) {
		return nil, ErrRefreshRejected
	}

	grant, err := e.issuer.Reissue(record.UserID, record.DisplayName)
	if err != nil {
		return nil, err
	}

	e.record(ctx, ActivityEvent{
		EventType: ActivityEventRenewal,
		UserID:    record.UserID,
	})

	return &CheckResult{
		Session: &SessionObject{
			UserID:      record.UserID,
			DisplayName: record.DisplayName,
		},
		AccessToken: grant.AccessToken,
	}, nil
}

// SessionFromToken validates a raw access credential and converts it into a
// Session without touching the store.
func (e *Engine) SessionFromToken(raw string) (Session, error) {
	claims, err := e.tokens.Validate(raw)
	if err != nil {
		return nil, err
	}
	return sessionFromAuthClaims(claims)
}

func (e *Engine) verify(password string, record *Record) (bool, error) {
	err := VerifyPassword(password, record.PasswordHash, record.Algorithm)
	if err == nil {
		return true, nil
	}

	var richErr *errors.Error
	if errors.As(err, &richErr) && richErr.TextCode == TextCodeInvalidCredentials {
		return false, nil
	}

	return false, errors.Wrap(err, errors.CategoryInternal, "password verification failed")
}

func (e *Engine) displayNameFor(ctx context.Context, userID string) string {
	user, err := e.store.Get(ctx, userID)
	if err != nil {
		if !IsRecordNotFound(err) {
			e.logger.Error("failed to load user record", "user_id", userID, "error", err)
		}
		return ""
	}
	return user.DisplayName
}

func (e *Engine) record(ctx context.Context, event ActivityEvent) {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = e.clock()
	}
	if err := e.activity.Record(ctx, event); err != nil {
		e.logger.Error("failed to record activity event", "event", string(event.EventType), "error", err)
	}
}

func isTokenExpired(err error) bool {
	var richErr *errors.Error
	if !errors.As(err, &richErr) {
		return false
	}
	return richErr.TextCode == TextCodeTokenExpired
}
