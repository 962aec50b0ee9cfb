package sessiongate

import (
	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-router"
)

// GetSession retrieves the verified session the middleware stored in a fiber
// request's locals.
func GetSession(c *fiber.Ctx, key string) (Session, error) {
	stored := c.Locals(key)
	if stored == nil {
		return nil, ErrUnableToFindSession
	}

	session, ok := stored.(Session)
	if session == nil || !ok {
		return nil, ErrUnableToDecodeSession
	}

	return session, nil
}

// GetRouterSession is GetSession for go-router contexts.
func GetRouterSession(c router.Context, key string) (Session, error) {
	stored := c.Locals(key)
	if stored == nil {
		return nil, ErrUnableToFindSession
	}

	session, ok := stored.(Session)
	if session == nil || !ok {
		return nil, ErrUnableToDecodeSession
	}

	return session, nil
}
