package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/equipment-lending/internal/model"
	"github.com/iliyamo/equipment-lending/internal/repository"
)

// UserDirectory is the account store used by the admin user endpoints.
type UserDirectory interface {
	List(ctx context.Context, search string) ([]model.User, error)
	Create(ctx context.Context, name, email, password string, role model.Role, cost int) (uint64, error)
	GetByID(ctx context.Context, id uint64) (model.User, error)
	SoftDelete(ctx context.Context, id uint64) error
}

// UserHandler serves /api/users.  Every route is admin only.
type UserHandler struct {
	users      UserDirectory
	tokens     RefreshTokens
	bcryptCost int
	log        *zap.Logger
}

func NewUserHandler(users UserDirectory, tokens RefreshTokens, bcryptCost int, log *zap.Logger) *UserHandler {
	if users == nil || tokens == nil {
		panic("nil repository passed to NewUserHandler")
	}
	return &UserHandler{users: users, tokens: tokens, bcryptCost: bcryptCost, log: nopIfNil(log)}
}

type createUserReq struct {
	Name     string `json:"name" validate:"required,max=120"`
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,min=8,max=72"`
	Role     string `json:"role" validate:"omitempty,oneof=user admin"`
}

// List handles GET /api/users?q=.
func (h *UserHandler) List(c echo.Context) error {
	users, err := h.users.List(c.Request().Context(), c.QueryParam("q"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	if users == nil {
		users = []model.User{}
	}
	return c.JSON(http.StatusOK, echo.Map{"items": users})
}

// Create handles POST /api/users.  Role defaults to user.
func (h *UserHandler) Create(c echo.Context) error {
	var req createUserReq
	if ok, err := bindValid(c, &req); !ok {
		return err
	}
	role := model.RoleUser
	if req.Role != "" {
		role = model.Role(req.Role)
	}
	ctx := c.Request().Context()
	id, err := h.users.Create(ctx, req.Name, req.Email, req.Password, role, h.bcryptCost)
	if errors.Is(err, repository.ErrEmailExists) {
		return c.JSON(http.StatusConflict, echo.Map{"error": "email already exists"})
	}
	if err != nil {
		return writeError(c, h.log, err)
	}
	u, err := h.users.GetByID(ctx, id)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusCreated, u)
}

// Delete handles DELETE /api/users/:id.  The user's refresh tokens are
// revoked; existing access tokens expire on their own.
func (h *UserHandler) Delete(c echo.Context) error {
	a, ok, err := actor(c)
	if !ok {
		return err
	}
	id, ok, err := pathID(c)
	if !ok {
		return err
	}
	if id == a.ID {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "cannot delete your own account"})
	}
	ctx := c.Request().Context()
	if err := h.users.SoftDelete(ctx, id); err != nil {
		return writeError(c, h.log, err)
	}
	if err := h.tokens.RevokeAllForUser(ctx, id); err != nil {
		h.log.Warn("revoke tokens of deleted user", zap.Uint64("user_id", id), zap.Error(err))
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "user deleted", "id": id})
}
