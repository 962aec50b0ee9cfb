package sessionware

import (
	"errors"
	"strings"

	"github.com/bitmast/sessiongate"
	"github.com/goliatone/go-router"
)

var (
	defaultTokenLookup   = "header:" + router.HeaderAuthorization + ",cookie:" + sessiongate.CookieToken
	defaultRefreshLookup = "header:" + sessiongate.HeaderRefreshToken + ",cookie:" + sessiongate.CookieRefresh

	ErrCredentialMissing = errors.New("missing or malformed credential")
)

type Config struct {
	Filter         func(router.Context) bool
	SuccessHandler router.HandlerFunc
	ErrorHandler   router.ErrorHandler

	// Engine verifies credentials and performs transparent renewal.
	Engine *sessiongate.Engine

	// ContextKey is the locals key the verified session is stored under.
	ContextKey string

	// TokenLookup and RefreshLookup are comma-separated source:name pairs,
	// e.g. "header:Authorization,cookie:token".
	TokenLookup   string
	RefreshLookup string
	AuthScheme    string

	// TokenWriter emits a renewed access credential on the response. The
	// default writes the token cookie.
	TokenWriter func(router.Context, string)
}

// New returns middleware that authenticates each request against the engine,
// renewing the access credential from the refresh credential when possible.
// The verified session lands in ctx.Locals under ContextKey.
func New(config ...Config) router.MiddlewareFunc {
	return func(hf router.HandlerFunc) router.HandlerFunc {
		cfg := GetDefaultConfig(config...)
		return func(ctx router.Context) error {
			if cfg.Filter != nil && cfg.Filter(ctx) {
				return ctx.Next()
			}

			access, _ := ExtractFirst(ctx, cfg.accessExtractors())
			refresh, _ := ExtractFirst(ctx, cfg.refreshExtractors())

			if access == "" && refresh == "" {
				return cfg.ErrorHandler(ctx, ErrCredentialMissing)
			}

			result, err := cfg.Engine.Authenticate(ctx.Context(), access, refresh)
			if err != nil {
				return cfg.ErrorHandler(ctx, err)
			}

			ctx.Locals(cfg.ContextKey, result.Session)

			if result.AccessToken != "" {
				cfg.TokenWriter(ctx, result.AccessToken)
			}

			return cfg.SuccessHandler(ctx)
		}
	}
}

// SessionFrom retrieves the session stored by the middleware.
func SessionFrom(ctx router.Context, key string) (sessiongate.Session, bool) {
	session, ok := ctx.Locals(key).(sessiongate.Session)
	return session, ok
}

func GetDefaultConfig(config ...Config) (cfg Config) {
	if len(config) > 0 {
		cfg = config[0]
	}

	if cfg.Engine == nil {
		panic("SESSION: middleware configuration: Engine is required.")
	}

	if cfg.SuccessHandler == nil {
		cfg.SuccessHandler = func(ctx router.Context) error {
			return ctx.Next()
		}
	}

	if cfg.ErrorHandler == nil {
		cfg.ErrorHandler = func(c router.Context, err error) error {
			if errors.Is(err, ErrCredentialMissing) {
				return c.Status(router.StatusBadRequest).SendString(ErrCredentialMissing.Error())
			}
			return c.Status(router.StatusUnauthorized).SendString("Invalid or expired credential")
		}
	}

	if cfg.ContextKey == "" {
		cfg.ContextKey = "session"
	}

	if cfg.TokenLookup == "" {
		cfg.TokenLookup = defaultTokenLookup
	}

	if cfg.RefreshLookup == "" {
		cfg.RefreshLookup = defaultRefreshLookup
	}

	if cfg.AuthScheme == "" {
		cfg.AuthScheme = "Bearer"
	}

	if cfg.TokenWriter == nil {
		cfg.TokenWriter = func(c router.Context, token string) {
			c.Cookie(&router.Cookie{
				Name:     sessiongate.CookieToken,
				Value:    token,
				HTTPOnly: true,
				Secure:   true,
				SameSite: "Lax",
			})
		}
	}

	return cfg
}

func (cfg *Config) accessExtractors() []Extractor {
	return GetExtractors(cfg.TokenLookup, cfg.AuthScheme)
}

func (cfg *Config) refreshExtractors() []Extractor {
	// Refresh credentials travel bare, with no auth scheme prefix.
	return GetExtractors(cfg.RefreshLookup, "")
}

// Extractor pulls a raw credential out of a request.
type Extractor func(c router.Context) (string, error)

// ExtractFirst returns the first non-empty credential the extractors yield.
func ExtractFirst(ctx router.Context, extractors []Extractor) (string, error) {
	var raw string
	var err error

	for _, extractor := range extractors {
		raw, err = extractor(ctx)
		if raw != "" && err == nil {
			break
		}
	}

	return raw, err
}

// GetExtractors parses a lookup string into extractors.
// e.g. header:Authorization,cookie:token,query:access_token
func GetExtractors(lookup string, authScheme string) []Extractor {
	extractors := make([]Extractor, 0)

	rootParts := strings.Split(lookup, ",")
	for _, rootPart := range rootParts {
		parts := strings.Split(strings.TrimSpace(rootPart), ":")
		if len(parts) < 2 {
			continue
		}

		for i, el := range parts {
			parts[i] = strings.TrimSpace(el)
		}

		switch parts[0] {
		case "header":
			extractors = append(extractors, fromHeader(parts[1], authScheme))
		case "query":
			extractors = append(extractors, fromQuery(parts[1]))
		case "cookie":
			extractors = append(extractors, fromCookie(parts[1]))
		}
	}

	return extractors
}

// fromHeader extracts a credential from a request header. An empty authScheme
// means the header carries the bare value.
func fromHeader(header string, authScheme string) Extractor {
	return func(c router.Context) (string, error) {
		a := c.GetString(header, "")
		if a == "" {
			return "", ErrCredentialMissing
		}

		if authScheme == "" {
			return strings.TrimSpace(a), nil
		}

		l := len(authScheme)
		if len(a) > l+1 && strings.EqualFold(a[:l], authScheme) {
			return strings.TrimSpace(a[l:]), nil
		}
		return "", ErrCredentialMissing
	}
}

func fromQuery(param string) Extractor {
	return func(c router.Context) (string, error) {
		token := c.Query(param, "")
		if token == "" {
			return "", ErrCredentialMissing
		}
		return token, nil
	}
}

func fromCookie(name string) Extractor {
	return func(c router.Context) (string, error) {
		token := c.Cookies(name)
		if token == "" {
			return "", ErrCredentialMissing
		}
		return token, nil
	}
}
