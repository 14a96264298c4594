package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/equipment-lending/internal/model"
)

// RequestService is the part of the engine the request endpoints use.
type RequestService interface {
	ListRequests(ctx context.Context, a model.Actor, search string, page model.PageRequest) (model.Page[model.RequestView], error)
	CreateRequest(ctx context.Context, a model.Actor, equipmentID uint64, qty int) (model.Request, error)
	SetStatus(ctx context.Context, a model.Actor, requestID uint64, status model.RequestStatus) (model.Request, error)
	EditRequestQuantity(ctx context.Context, a model.Actor, requestID uint64, qty int) (model.Request, error)
	CancelRequest(ctx context.Context, a model.Actor, requestID uint64) (model.Request, error)
}

// RequestHandler serves /api/requests.
type RequestHandler struct {
	svc RequestService
	log *zap.Logger
}

func NewRequestHandler(svc RequestService, log *zap.Logger) *RequestHandler {
	if svc == nil {
		panic("nil service passed to NewRequestHandler")
	}
	return &RequestHandler{svc: svc, log: nopIfNil(log)}
}

type createRequestReq struct {
	EquipmentID uint64 `json:"equipment_id" validate:"required"`
	Quantity    int    `json:"quantity" validate:"max=2147483647"`
}

type statusReq struct {
	Status string `json:"status" validate:"required"`
}

type quantityReq struct {
	Quantity *int `json:"quantity" validate:"required,max=2147483647"`
}

// List handles GET /api/requests.  Non-admins see only their own.
func (h *RequestHandler) List(c echo.Context) error {
	a, ok, err := actor(c)
	if !ok {
		return err
	}
	page, err := h.svc.ListRequests(c.Request().Context(), a, c.QueryParam("search"), pageParams(c))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, page)
}

// Create handles POST /api/requests.
func (h *RequestHandler) Create(c echo.Context) error {
	a, ok, err := actor(c)
	if !ok {
		return err
	}
	var req createRequestReq
	if ok, err := bindValid(c, &req); !ok {
		return err
	}
	r, err := h.svc.CreateRequest(c.Request().Context(), a, req.EquipmentID, req.Quantity)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusCreated, r)
}

// SetStatus handles PUT /api/requests/:id/status.
func (h *RequestHandler) SetStatus(c echo.Context) error {
	a, ok, err := actor(c)
	if !ok {
		return err
	}
	id, ok, err := pathID(c)
	if !ok {
		return err
	}
	var req statusReq
	if ok, err := bindValid(c, &req); !ok {
		return err
	}
	r, err := h.svc.SetStatus(c.Request().Context(), a, id, model.RequestStatus(req.Status))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, r)
}

// Edit handles PUT /api/requests/:id and changes the quantity of a
// Pending request.
func (h *RequestHandler) Edit(c echo.Context) error {
	a, ok, err := actor(c)
	if !ok {
		return err
	}
	id, ok, err := pathID(c)
	if !ok {
		return err
	}
	var req quantityReq
	if ok, err := bindValid(c, &req); !ok {
		return err
	}
	r, err := h.svc.EditRequestQuantity(c.Request().Context(), a, id, *req.Quantity)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, r)
}

// Cancel handles DELETE /api/requests/:id.
func (h *RequestHandler) Cancel(c echo.Context) error {
	a, ok, err := actor(c)
	if !ok {
		return err
	}
	id, ok, err := pathID(c)
	if !ok {
		return err
	}
	if _, err := h.svc.CancelRequest(c.Request().Context(), a, id); err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "request cancelled", "id": id})
}
