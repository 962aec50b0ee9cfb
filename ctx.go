package sessiongate

import (
	"context"

	"github.com/goliatone/go-router"
)

var sessionCtxKey = &contextKey{"session"}

type contextKey struct {
	name string
}

// WithContext sets the Session in the given context
func WithContext(r context.Context, session Session) context.Context {
	return context.WithValue(r, sessionCtxKey, session)
}

// FromContext finds the session from the context.
func FromContext(ctx context.Context) (Session, bool) {
	raw, ok := ctx.Value(sessionCtxKey).(Session)
	return raw, ok
}

// ContextEnricher copies the verified session from router locals into the
// standard context, so handlers that only see a context.Context can still
// reach the session through FromContext.
func ContextEnricher(key string) router.MiddlewareFunc {
	return func(hf router.HandlerFunc) router.HandlerFunc {
		return func(ctx router.Context) error {
			session, err := GetRouterSession(ctx, key)
			if err != nil {
				return hf(ctx)
			}

			ctx.SetContext(WithContext(ctx.Context(), session))
			return hf(ctx)
		}
	}
}
