package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/spiderhome/internal/middleware"
	"github.com/iliyamo/spiderhome/internal/model"
	"github.com/iliyamo/spiderhome/internal/repository"
	"github.com/iliyamo/spiderhome/internal/utils"
)

// LoginLimiter tracks login attempts per client IP.
type LoginLimiter interface {
	Blocked(ctx context.Context, ip string) bool
	Record(ctx context.Context, ip, username string, success bool)
}

// AuthHandler bundles dependencies for auth endpoints.
type AuthHandler struct {
	Users    repository.UserRepository
	Limiter  LoginLimiter
	Secret   string
	TokenTTL time.Duration
	Logger   *slog.Logger
}

// ----- DTOs -----

type loginReq struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResp struct {
	Success   bool             `json:"success"`
	User      model.PublicUser `json:"user"`
	Token     string           `json:"token"`
	ExpiresAt time.Time        `json:"expires_at"`
}

// Login verifies credentials and returns a signed bearer token.  An unknown
// username and a wrong password produce the same 401 body and cost the
// same bcrypt work.  Once an IP reaches the failure limit it is answered
// with 429 without checking credentials.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, MsgInvalidBody)
	}
	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" || req.Password == "" {
		return fail(c, http.StatusBadRequest, MsgCredentialsMissing)
	}

	ctx := c.Request().Context()
	ip := c.RealIP()
	if h.Limiter.Blocked(ctx, ip) {
		h.Logger.Warn("login blocked", slog.String("ip", ip), slog.String("username", req.Username))
		return fail(c, http.StatusTooManyRequests, MsgTooManyAttempts)
	}

	u, err := h.Users.GetByUsername(ctx, req.Username)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		utils.BurnPasswordCheck(req.Password)
		h.Limiter.Record(ctx, ip, req.Username, false)
		return fail(c, http.StatusUnauthorized, MsgBadCredentials)
	case err != nil:
		return storeError(c, h.Logger, err)
	}
	if !utils.VerifyPassword(u.PasswordHash, req.Password) {
		h.Limiter.Record(ctx, ip, req.Username, false)
		return fail(c, http.StatusUnauthorized, MsgBadCredentials)
	}

	tok, err := utils.IssueToken(h.Secret, u.ID, u.Username, u.Role, h.TokenTTL)
	if err != nil {
		return storeError(c, h.Logger, err)
	}
	h.Limiter.Record(ctx, ip, u.Username, true)
	h.Logger.Info("admin logged in", slog.String("username", u.Username), slog.String("ip", ip))

	return c.JSON(http.StatusOK, loginResp{
		Success:   true,
		User:      u.Public(),
		Token:     tok.Token,
		ExpiresAt: tok.Exp,
	})
}

// Me returns the identity carried by the caller's token.
func (h *AuthHandler) Me(c echo.Context) error {
	cl, ok := middleware.ClaimsFrom(c)
	if !ok {
		return fail(c, http.StatusUnauthorized, middleware.MsgTokenMissing)
	}
	body := echo.Map{
		"success": true,
		"user":    model.PublicUser{ID: cl.ID, Username: cl.Username, Role: cl.Role},
	}
	if cl.ExpiresAt != nil {
		body["expires_at"] = cl.ExpiresAt.Time
	}
	return c.JSON(http.StatusOK, body)
}
