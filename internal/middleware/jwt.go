package middleware // declare the middleware package; contains reusable HTTP middleware functions

import (
	"errors"
	"log/slog"
	"net/http" // HTTP status codes for responses
	"strings"  // string utilities for prefix checking and trimming

	"github.com/labstack/echo/v4" // Echo framework used for defining middleware and handlers

	"github.com/iliyamo/spiderhome/internal/utils"
)

// Client-visible authentication failures.  A missing token and a token that
// fails verification are reported differently so the back-office can tell
// "log in" from "log in again".
const (
	MsgTokenMissing = "token manquant"
	MsgTokenInvalid = "token invalide ou expiré"
	MsgForbidden    = "accès refusé"
)

// deny writes the shared error body.
func deny(c echo.Context, status int, msg string) error {
	return c.JSON(status, echo.Map{"success": false, "message": msg})
}

// bearer extracts the token from an "Authorization: Bearer <token>" header.
// The scheme is matched case-insensitively.
func bearer(header string) string {
	const prefix = "bearer "
	if len(header) < len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}

// JWTAuth returns an Echo middleware that validates a Bearer access token
// and injects the verified claims into the request context.  The provided
// secret must match the one used when issuing tokens.  Handlers read the
// identity back with ClaimsFrom or c.Get(UserIDKey) and c.Get(RoleKey).
func JWTAuth(secret string, logger *slog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw := bearer(c.Request().Header.Get(echo.HeaderAuthorization))
			if raw == "" {
				return deny(c, http.StatusUnauthorized, MsgTokenMissing)
			}

			claims, err := utils.ParseToken(secret, raw)
			if err != nil {
				reason := "invalid"
				if errors.Is(err, utils.ErrTokenExpired) {
					reason = "expired"
				}
				logger.Debug("rejected bearer token", slog.String("path", c.Path()), slog.String("reason", reason))
				return deny(c, http.StatusUnauthorized, MsgTokenInvalid)
			}

			c.Set(ClaimsKey, claims)
			c.Set(UserIDKey, claims.ID)
			c.Set(UsernameKey, claims.Username)
			c.Set(RoleKey, claims.Role)
			return next(c)
		}
	}
}
