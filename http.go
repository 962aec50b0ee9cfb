package sessiongate

import (
	"net/http"
	"time"

	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"
	"github.com/goliatone/go-router"
)

// Cookie and header names shared between the controller and the middleware.
const (
	CookieToken        = "token"
	CookieRefresh      = "refresh"
	HeaderRefreshToken = "x-refresh-token"
)

// HTTPSessions attaches engine grants to HTTP responses: it writes and clears
// credential cookies and renders engine errors as JSON bodies.
type HTTPSessions struct {
	engine       *Engine
	cfg          Config
	Logger       Logger
	ErrorHandler func(c router.Context, err error) error
}

func NewHTTPSessions(engine *Engine, cfg Config) (*HTTPSessions, error) {
	s := &HTTPSessions{
		engine: engine,
		cfg:    cfg,
		Logger: defLogger{},
	}

	s.ErrorHandler = s.defaultErrHandler

	return s, nil
}

// Signin authenticates a password pair and, on success, attaches both
// credential cookies to the response.
func (s *HTTPSessions) Signin(ctx router.Context, email, password string) (*Grant, error) {
	grant, err := s.engine.SigninWithPassword(ctx.Context(), email, password)
	if err != nil {
		s.Logger.Error("Signin error", "error", err)
		return nil, err
	}

	s.WriteGrant(ctx, grant)
	return grant, nil
}

// WriteGrant sets the access cookie and, when the grant carries one, the
// refresh cookie. Renewal grants have no refresh secret so only the access
// cookie moves.
func (s *HTTPSessions) WriteGrant(ctx router.Context, grant *Grant) {
	s.setCookie(ctx, CookieToken, grant.AccessToken, s.cfg.GetAccessTokenTTL())
	if grant.RefreshToken != "" {
		s.setCookie(ctx, CookieRefresh, grant.RefreshToken, s.cfg.GetRefreshTokenTTL())
	}
}

// WriteAccessToken sets the access cookie only. Used after transparent
// renewal.
func (s *HTTPSessions) WriteAccessToken(ctx router.Context, token string) {
	s.setCookie(ctx, CookieToken, token, s.cfg.GetAccessTokenTTL())
}

// Signout expires both credential cookies. The refresh record stays in the
// store until it ages out.
func (s *HTTPSessions) Signout(ctx router.Context) {
	s.cookieDel(ctx, CookieToken)
	s.cookieDel(ctx, CookieRefresh)
}

func (s *HTTPSessions) setCookie(ctx router.Context, name, val string, duration time.Duration) {
	ctx.Cookie(&router.Cookie{
		Name:     name,
		Value:    val,
		Expires:  time.Now().Add(duration),
		HTTPOnly: true,
		Secure:   true,
		SameSite: "Lax",
	})
}

func (s *HTTPSessions) cookieDel(ctx router.Context, name string) {
	ctx.Cookie(&router.Cookie{
		Name:     name,
		Value:    "",
		Expires:  time.Now().Add(-time.Hour * (24 * 365)),
		HTTPOnly: true,
		Secure:   true,
		SameSite: "Lax",
	})
}

func (s *HTTPSessions) defaultErrHandler(c router.Context, err error) error {
	var richErr *errors.Error
	if !errors.As(err, &richErr) {
		richErr = errors.Wrap(err, errors.CategoryInternal, "An unexpected server error occurred").
			WithCode(errors.CodeInternal)
	}

	s.Logger.Info(
		"Request error handler",
		"error", richErr.Message,
		"category", richErr.Category,
		"details", print.MaybePrettyJSON(richErr.Metadata),
	)

	status := richErr.Code
	if status == 0 {
		status = http.StatusInternalServerError
	}

	return c.JSON(status, map[string]string{
		"message": errMessage(richErr),
	})
}

// errMessage picks the wire message for an error. Auth failures surface their
// text code so clients can switch on stable values like ACCOUNT_LOCKED.
func errMessage(richErr *errors.Error) string {
	if richErr.Category == errors.CategoryAuth && richErr.TextCode != "" {
		return richErr.TextCode
	}
	return richErr.Message
}
