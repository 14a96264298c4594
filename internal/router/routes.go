package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/equipment-lending/internal/handler"
	"github.com/iliyamo/equipment-lending/internal/middleware"
	"github.com/iliyamo/equipment-lending/internal/model"
)

var adminOnly = middleware.RequireRole(model.RoleAdmin)

// RegisterEquipment registers inventory routes.  Anyone signed in can
// browse; only admins change stock.
func RegisterEquipment(g *echo.Group, h *handler.EquipmentHandler) {
	g.GET("/equipment", h.List)
	g.GET("/equipment/:id", h.Get)
	g.POST("/equipment", h.Create, adminOnly)
	g.PUT("/equipment/:id", h.Update, adminOnly)
	g.DELETE("/equipment/:id", h.Delete, adminOnly)
}

// RegisterRequests registers request routes.  Ownership of individual
// requests is enforced by the engine, not here.
func RegisterRequests(g *echo.Group, h *handler.RequestHandler) {
	g.GET("/requests", h.List)
	g.GET("/requests/export", h.Export, adminOnly)
	g.POST("/requests", h.Create, middleware.RequireRole(model.RoleUser))
	g.PUT("/requests/:id/status", h.SetStatus, adminOnly)
	g.PUT("/requests/:id", h.Edit)
	g.DELETE("/requests/:id", h.Cancel)
}

// RegisterUsers registers account administration.
func RegisterUsers(g *echo.Group, h *handler.UserHandler) {
	users := g.Group("/users", adminOnly)
	users.GET("", h.List)
	users.POST("", h.Create)
	users.DELETE("/:id", h.Delete)
}
