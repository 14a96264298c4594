// Package router wires handlers and middleware onto an echo instance.
package router

import (
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/iliyamo/equipment-lending/internal/config"
	"github.com/iliyamo/equipment-lending/internal/handler"
	"github.com/iliyamo/equipment-lending/internal/middleware"
)

// Deps holds everything the routes need.  Redis may be nil, which turns
// rate limiting off.
type Deps struct {
	Log       *zap.Logger
	JWTSecret string
	RateLimit config.RateLimitConfig
	Redis     *redis.Client

	DB        handler.Pinger
	Auth      *handler.AuthHandler
	Equipment *handler.EquipmentHandler
	Requests  *handler.RequestHandler
	Users     *handler.UserHandler
}

// New returns an echo instance with every route registered.
func New(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()

	e.Use(echomw.RecoverWithConfig(echomw.RecoverConfig{
		LogErrorFunc: func(c echo.Context, err error, stack []byte) error {
			d.Log.Error("panic recovered",
				zap.String("path", c.Path()),
				zap.Error(err),
				zap.ByteString("stack", stack))
			return err
		},
	}))
	e.Use(middleware.RequestLogger(d.Log))

	e.GET("/healthz", handler.Health(d.DB))

	limit := middleware.RateLimit(d.RateLimit, d.Redis, d.Log)
	RegisterAuth(e, d, limit)

	api := e.Group("/api", middleware.JWTAuth(d.JWTSecret), limit)
	RegisterEquipment(api, d.Equipment)
	RegisterRequests(api, d.Requests)
	RegisterUsers(api, d.Users)
	return e
}

// RegisterAuth registers /api/auth.  Login, refresh and logout carry no
// bearer requirement; /me does.
func RegisterAuth(e *echo.Echo, d Deps, limit echo.MiddlewareFunc) {
	g := e.Group("/api/auth", limit)
	g.POST("/login", d.Auth.Login)
	g.POST("/refresh", d.Auth.Refresh)
	g.POST("/logout", d.Auth.Logout)
	g.GET("/me", d.Auth.Me, middleware.JWTAuth(d.JWTSecret))
}
