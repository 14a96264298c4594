package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/equipment-lending/internal/config"
	"github.com/iliyamo/equipment-lending/internal/middleware"
	"github.com/iliyamo/equipment-lending/internal/model"
	"github.com/iliyamo/equipment-lending/internal/repository"
	"github.com/iliyamo/equipment-lending/internal/utils"
)

// Accounts looks up users for sign-in.
type Accounts interface {
	GetByEmail(ctx context.Context, email string) (model.User, error)
	GetByID(ctx context.Context, id uint64) (model.User, error)
}

// RefreshTokens persists refresh token hashes.
type RefreshTokens interface {
	StoreRefresh(ctx context.Context, userID uint64, tokenHash string, exp time.Time) error
	Rotate(ctx context.Context, oldHash, newHash string, exp time.Time) (uint64, error)
	RevokeByHash(ctx context.Context, tokenHash string) error
	RevokeAllForUser(ctx context.Context, userID uint64) error
}

// AuthHandler bundles dependencies for auth endpoints.
type AuthHandler struct {
	cfg    config.Config
	users  Accounts
	tokens RefreshTokens
	log    *zap.Logger
}

func NewAuthHandler(cfg config.Config, users Accounts, tokens RefreshTokens, log *zap.Logger) *AuthHandler {
	if users == nil || tokens == nil {
		panic("nil repository passed to NewAuthHandler")
	}
	return &AuthHandler{cfg: cfg, users: users, tokens: tokens, log: nopIfNil(log)}
}

type loginReq struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type refreshReq struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

type tokenPart struct {
	Token   string    `json:"token"`
	Expires time.Time `json:"expires"`
}

type authResp struct {
	User    model.User `json:"user"`
	Access  tokenPart  `json:"access"`
	Refresh tokenPart  `json:"refresh"`
}

const authTimeout = 5 * time.Second

var errInvalidCredentials = echo.Map{"error": "invalid credentials"}

// Login verifies email and password and returns a fresh token pair.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if ok, err := bindValid(c, &req); !ok {
		return err
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), authTimeout)
	defer cancel()

	u, err := h.users.GetByEmail(ctx, req.Email)
	if errors.Is(err, repository.ErrNotFound) {
		return c.JSON(http.StatusUnauthorized, errInvalidCredentials)
	}
	if err != nil {
		return h.fail(c, "load user", err)
	}
	if !utils.VerifyPassword(u.PasswordHash, req.Password) {
		return c.JSON(http.StatusUnauthorized, errInvalidCredentials)
	}

	refresh, err := utils.NewRefreshToken(h.cfg.RefreshTTL)
	if err != nil {
		return h.fail(c, "issue refresh", err)
	}
	if err := h.tokens.StoreRefresh(ctx, u.ID, utils.HashRefreshRaw(refresh.Raw), refresh.Exp); err != nil {
		return h.fail(c, "save refresh", err)
	}
	return h.respond(c, http.StatusOK, u, refresh)
}

// Refresh consumes a refresh token and returns a new pair.  A token can be
// used only once.
func (h *AuthHandler) Refresh(c echo.Context) error {
	var req refreshReq
	if ok, err := bindValid(c, &req); !ok {
		return err
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), authTimeout)
	defer cancel()

	next, err := utils.NewRefreshToken(h.cfg.RefreshTTL)
	if err != nil {
		return h.fail(c, "issue refresh", err)
	}
	oldHash := utils.HashRefreshRaw(strings.TrimSpace(req.RefreshToken))
	uid, err := h.tokens.Rotate(ctx, oldHash, utils.HashRefreshRaw(next.Raw), next.Exp)
	if errors.Is(err, repository.ErrNotFound) {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh token"})
	}
	if err != nil {
		return h.fail(c, "rotate refresh", err)
	}

	u, err := h.users.GetByID(ctx, uid)
	if errors.Is(err, repository.ErrNotFound) {
		_ = h.tokens.RevokeAllForUser(ctx, uid)
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh token"})
	}
	if err != nil {
		return h.fail(c, "load user", err)
	}
	return h.respond(c, http.StatusOK, u, next)
}

// Logout revokes the refresh token in the body, or every token of the
// bearer when no body token is given.
func (h *AuthHandler) Logout(c echo.Context) error {
	var req refreshReq
	_ = c.Bind(&req)
	raw := strings.TrimSpace(req.RefreshToken)

	ctx, cancel := context.WithTimeout(c.Request().Context(), authTimeout)
	defer cancel()

	if raw != "" {
		if err := h.tokens.RevokeByHash(ctx, utils.HashRefreshRaw(raw)); err != nil {
			return h.fail(c, "revoke refresh", err)
		}
		return c.NoContent(http.StatusNoContent)
	}

	bearer, ok := strings.CutPrefix(c.Request().Header.Get(echo.HeaderAuthorization), "Bearer ")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "provide Authorization header or refresh_token"})
	}
	a, err := utils.ParseAccessToken(h.cfg.JWTSecret, strings.TrimSpace(bearer))
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
	}
	if err := h.tokens.RevokeAllForUser(ctx, a.ID); err != nil {
		return h.fail(c, "revoke all", err)
	}
	return c.NoContent(http.StatusNoContent)
}

// Me returns the authenticated user.
func (h *AuthHandler) Me(c echo.Context) error {
	a, ok := middleware.ActorFrom(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, errUnauthorized)
	}
	u, err := h.users.GetByID(c.Request().Context(), a.ID)
	if errors.Is(err, repository.ErrNotFound) {
		return c.JSON(http.StatusUnauthorized, errUnauthorized)
	}
	if err != nil {
		return h.fail(c, "load user", err)
	}
	return c.JSON(http.StatusOK, u)
}

func (h *AuthHandler) respond(c echo.Context, status int, u model.User, refresh utils.RefreshToken) error {
	access, err := utils.NewAccessToken(h.cfg.JWTSecret, u.ID, u.Role, h.cfg.AccessTTL)
	if err != nil {
		return h.fail(c, "issue access", err)
	}
	return c.JSON(status, authResp{
		User:    u,
		Access:  tokenPart{Token: access.Token, Expires: access.Exp},
		Refresh: tokenPart{Token: refresh.Raw, Expires: refresh.Exp},
	})
}

func (h *AuthHandler) fail(c echo.Context, op string, err error) error {
	h.log.Error("auth: "+op+" failed", zap.Error(err))
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
}
