package middleware

import (
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/equipment-lending/internal/model"
)

// Context keys set by JWTAuth.
const (
	ctxActor  = "actor"
	ctxUserID = "user_id"
	ctxRole   = "role"
)

// ActorFrom returns the authenticated actor stored by JWTAuth.
func ActorFrom(c echo.Context) (model.Actor, bool) {
	a, ok := c.Get(ctxActor).(model.Actor)
	return a, ok && a.ID != 0
}

// SetActor stores the actor in the request context.  Handler tests use it
// to bypass token parsing.
func SetActor(c echo.Context, a model.Actor) {
	c.Set(ctxActor, a)
	c.Set(ctxUserID, a.ID)
	c.Set(ctxRole, a.Role)
}

// userKey identifies the caller for rate limiting and request logs.
func userKey(c echo.Context) string {
	if a, ok := ActorFrom(c); ok {
		return strconv.FormatUint(a.ID, 10)
	}
	return "anon"
}
