package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/aarondl/null/v8"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/equipment-lending/internal/model"
)

// EquipmentService is the part of the engine the inventory endpoints use.
type EquipmentService interface {
	GetEquipment(ctx context.Context, id uint64) (model.Equipment, error)
	ListEquipment(ctx context.Context, a model.Actor, search string, page model.PageRequest) (model.Page[model.Equipment], error)
	CreateEquipment(ctx context.Context, a model.Actor, f model.EquipmentFields) (model.Equipment, error)
	UpdateEquipment(ctx context.Context, a model.Actor, id uint64, f model.EquipmentFields) (model.Equipment, error)
	DeleteEquipment(ctx context.Context, a model.Actor, id uint64) (int64, error)
}

// EquipmentHandler serves /api/equipment.
type EquipmentHandler struct {
	svc EquipmentService
	log *zap.Logger
}

func NewEquipmentHandler(svc EquipmentService, log *zap.Logger) *EquipmentHandler {
	if svc == nil {
		panic("nil service passed to NewEquipmentHandler")
	}
	return &EquipmentHandler{svc: svc, log: nopIfNil(log)}
}

type equipmentReq struct {
	Name        string  `json:"name" validate:"required,max=200"`
	Description *string `json:"description" validate:"omitempty,max=2000"`
	Quantity    *int    `json:"quantity" validate:"required,max=2147483647"`
}

func (r equipmentReq) fields() model.EquipmentFields {
	desc := null.String{}
	if r.Description != nil && strings.TrimSpace(*r.Description) != "" {
		desc = null.StringFrom(strings.TrimSpace(*r.Description))
	}
	return model.EquipmentFields{Name: r.Name, Description: desc, Quantity: *r.Quantity}
}

// List handles GET /api/equipment?search=&page=&limit=.
func (h *EquipmentHandler) List(c echo.Context) error {
	a, ok, err := actor(c)
	if !ok {
		return err
	}
	page, err := h.svc.ListEquipment(c.Request().Context(), a, c.QueryParam("search"), pageParams(c))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, page)
}

// Get handles GET /api/equipment/:id.
func (h *EquipmentHandler) Get(c echo.Context) error {
	id, ok, err := pathID(c)
	if !ok {
		return err
	}
	item, err := h.svc.GetEquipment(c.Request().Context(), id)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, item)
}

// Create handles POST /api/equipment.
func (h *EquipmentHandler) Create(c echo.Context) error {
	a, ok, err := actor(c)
	if !ok {
		return err
	}
	var req equipmentReq
	if ok, err := bindValid(c, &req); !ok {
		return err
	}
	item, err := h.svc.CreateEquipment(c.Request().Context(), a, req.fields())
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusCreated, item)
}

// Update handles PUT /api/equipment/:id.
func (h *EquipmentHandler) Update(c echo.Context) error {
	a, ok, err := actor(c)
	if !ok {
		return err
	}
	id, ok, err := pathID(c)
	if !ok {
		return err
	}
	var req equipmentReq
	if ok, err := bindValid(c, &req); !ok {
		return err
	}
	item, err := h.svc.UpdateEquipment(c.Request().Context(), a, id, req.fields())
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, item)
}

// Delete handles DELETE /api/equipment/:id.  Pending requests for the item
// are cancelled with it.
func (h *EquipmentHandler) Delete(c echo.Context) error {
	a, ok, err := actor(c)
	if !ok {
		return err
	}
	id, ok, err := pathID(c)
	if !ok {
		return err
	}
	n, err := h.svc.DeleteEquipment(c.Request().Context(), a, id)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "equipment deleted", "cancelled_requests": n})
}
