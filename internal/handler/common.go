// Package handler holds the echo HTTP handlers.  Handlers translate
// requests into engine calls and engine outcomes into status codes.
package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/equipment-lending/internal/middleware"
	"github.com/iliyamo/equipment-lending/internal/model"
	"github.com/iliyamo/equipment-lending/internal/service"
)

var errUnauthorized = echo.Map{"error": "unauthorized"}

// actor returns the authenticated caller or writes 401.
func actor(c echo.Context) (model.Actor, bool, error) {
	a, ok := middleware.ActorFrom(c)
	if !ok {
		return model.Actor{}, false, c.JSON(http.StatusUnauthorized, errUnauthorized)
	}
	return a, true, nil
}

// pathID parses the :id parameter or writes 400.
func pathID(c echo.Context) (uint64, bool, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, false, c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	return id, true, nil
}

// pageParams reads ?page and ?limit.  Missing or malformed values fall
// back to the defaults applied by PageRequest.Normalize.
func pageParams(c echo.Context) model.PageRequest {
	page, _ := strconv.Atoi(c.QueryParam("page"))
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	return model.PageRequest{Page: page, Limit: limit}.Normalize()
}

type errorMapping struct {
	err     error
	status  int
	message string
}

// Checked in order; ErrInternal is the fallback.
var errorMappings = []errorMapping{
	{service.ErrNotFound, http.StatusNotFound, "not found"},
	{service.ErrForbidden, http.StatusForbidden, "forbidden"},
	{service.ErrInvalidQuantity, http.StatusBadRequest, "invalid quantity"},
	{service.ErrInvalidStatus, http.StatusBadRequest, "invalid status"},
	{service.ErrInvalidInput, http.StatusBadRequest, "invalid input"},
	{service.ErrInsufficientStock, http.StatusConflict, "insufficient stock"},
	{service.ErrInvalidState, http.StatusConflict, "invalid state"},
	{service.ErrConflict, http.StatusConflict, "conflict, please retry"},
}

// statusFor maps an engine outcome to an HTTP status and public message.
func statusFor(err error) (int, string) {
	for _, m := range errorMappings {
		if errors.Is(err, m.err) {
			return m.status, m.message
		}
	}
	return http.StatusInternalServerError, "internal error"
}

// writeError renders err.  Internal failures are logged with their cause
// and never exposed to the client.
func writeError(c echo.Context, log *zap.Logger, err error) error {
	status, msg := statusFor(err)
	switch {
	case status == http.StatusInternalServerError:
		log.Error("request failed",
			zap.String("method", c.Request().Method),
			zap.String("path", c.Path()),
			zap.Error(err))
	case errors.Is(err, service.ErrConflict):
		c.Response().Header().Set("Retry-After", "1")
	}
	return c.JSON(status, echo.Map{"error": msg})
}

func nopIfNil(log *zap.Logger) *zap.Logger {
	if log == nil {
		return zap.NewNop()
	}
	return log
}
