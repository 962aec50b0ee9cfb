package sessiongate

import (
	"net/http"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/goliatone/go-router"
)

// RouteRegistrar captures the router methods used by the controller.
type RouteRegistrar interface {
	Get(path string, handler router.HandlerFunc, mw ...router.MiddlewareFunc) router.RouteInfo
	Post(path string, handler router.HandlerFunc, mw ...router.MiddlewareFunc) router.RouteInfo
}

// HTTPConfig configures the HTTP controller.
type HTTPConfig struct {
	// PendingApprovalRoute receives first-contact delegated signins
	// (default: "/auth/awaiting-approval")
	PendingApprovalRoute string

	// ErrorHandler handles errors (optional)
	ErrorHandler func(ctx router.Context, err error) error
}

// HTTPController exposes the engine over HTTP: password signin, registration,
// delegated-profile signin, session check with transparent renewal, and
// signout.
type HTTPController struct {
	engine    *Engine
	sessions  *HTTPSessions
	registrar *Registrar
	config    HTTPConfig
	Logger    Logger
}

func NewHTTPController(engine *Engine, sessions *HTTPSessions, registrar *Registrar, cfg HTTPConfig) *HTTPController {
	if cfg.PendingApprovalRoute == "" {
		cfg.PendingApprovalRoute = "/auth/awaiting-approval"
	}

	c := &HTTPController{
		engine:    engine,
		sessions:  sessions,
		registrar: registrar,
		config:    cfg,
		Logger:    defLogger{},
	}

	if c.config.ErrorHandler == nil {
		c.config.ErrorHandler = sessions.ErrorHandler
	}

	return c
}

// RegisterRoutes registers the auth routes on the given group.
func (c *HTTPController) RegisterRoutes(group RouteRegistrar) {
	group.Post("/signin", c.Signin)
	group.Post("/register", c.Register)
	group.Post("/profile", c.ProfileSignin)
	group.Get("/check", c.Check)
	group.Get("/signout", c.Signout)
}

// SigninRequest payload
type SigninRequest struct {
	Email    string `form:"email" json:"email"`
	Password string `form:"password" json:"password"`
}

// Validate will run validation rules
func (r SigninRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Password, validation.Required),
	)
}

func (c *HTTPController) Signin(ctx router.Context) error {
	payload := new(SigninRequest)

	if err := ctx.Bind(payload); err != nil {
		return c.config.ErrorHandler(ctx, err)
	}

	if err := payload.Validate(); err != nil {
		return ctx.JSON(router.StatusBadRequest, map[string]string{
			"message": err.Error(),
		})
	}

	grant, err := c.sessions.Signin(ctx, payload.Email, payload.Password)
	if err != nil {
		return c.config.ErrorHandler(ctx, err)
	}

	return ctx.JSON(router.StatusOK, map[string]string{
		"user_id":       grant.UserID,
		"display_name":  grant.DisplayName,
		"token":         grant.AccessToken,
		"refresh_token": grant.RefreshToken,
	})
}

func (c *HTTPController) Register(ctx router.Context) error {
	payload := new(RegisterInput)

	if err := ctx.Bind(payload); err != nil {
		return c.config.ErrorHandler(ctx, err)
	}

	result, err := c.registrar.Register(ctx.Context(), *payload)
	if err != nil {
		return c.config.ErrorHandler(ctx, err)
	}

	return ctx.JSON(http.StatusCreated, map[string]string{
		"user_id":      result.UserID,
		"display_name": result.DisplayName,
	})
}

// ProfileRequest is a verified delegated profile posted by the provider
// callback layer. The signature of the upstream identity token must already
// have been checked; the controller never re-verifies it.
type ProfileRequest struct {
	Email       string `form:"email" json:"email"`
	DisplayName string `form:"display_name" json:"display_name"`
	Provider    string `form:"provider" json:"provider"`
}

// Validate will run validation rules
func (r ProfileRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Provider, validation.Required),
	)
}

func (c *HTTPController) ProfileSignin(ctx router.Context) error {
	payload := new(ProfileRequest)

	if err := ctx.Bind(payload); err != nil {
		return c.config.ErrorHandler(ctx, err)
	}

	if err := payload.Validate(); err != nil {
		return ctx.JSON(router.StatusBadRequest, map[string]string{
			"message": err.Error(),
		})
	}

	result, err := c.engine.SigninWithProfile(ctx.Context(), Profile{
		Email:       payload.Email,
		DisplayName: payload.DisplayName,
		Provider:    payload.Provider,
	})
	if err != nil {
		return c.config.ErrorHandler(ctx, err)
	}

	if result.Pending {
		return ctx.Redirect(c.config.PendingApprovalRoute, http.StatusFound)
	}

	c.sessions.WriteGrant(ctx, result.Grant)

	return ctx.JSON(router.StatusOK, map[string]string{
		"user_id":       result.Grant.UserID,
		"display_name":  result.Grant.DisplayName,
		"token":         result.Grant.AccessToken,
		"refresh_token": result.Grant.RefreshToken,
	})
}

// Check verifies the request's credentials, renewing the access credential
// from the refresh credential when it has expired. A renewed access token is
// written back as a cookie; the refresh credential never rotates.
func (c *HTTPController) Check(ctx router.Context) error {
	access := ctx.Cookies(CookieToken)
	if access == "" {
		access = bearerToken(ctx)
	}

	refresh := ctx.Cookies(CookieRefresh)
	if refresh == "" {
		refresh = ctx.GetString(HeaderRefreshToken, "")
	}

	result, err := c.engine.Authenticate(ctx.Context(), access, refresh)
	if err != nil {
		return c.config.ErrorHandler(ctx, err)
	}

	if result.AccessToken != "" {
		c.sessions.WriteAccessToken(ctx, result.AccessToken)
	}

	return ctx.JSON(router.StatusOK, map[string]any{
		"user_id":      result.Session.GetUserID(),
		"display_name": result.Session.GetDisplayName(),
		"renewed":      result.AccessToken != "",
	})
}

func (c *HTTPController) Signout(ctx router.Context) error {
	c.sessions.Signout(ctx)
	return ctx.JSON(router.StatusOK, map[string]string{
		"status": "signed-out",
	})
}

func bearerToken(ctx router.Context) string {
	header := ctx.GetString("Authorization", "")
	const scheme = "Bearer "
	if len(header) > len(scheme) && header[:len(scheme)] == scheme {
		return header[len(scheme):]
	}
	return ""
}
