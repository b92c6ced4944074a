package middleware

// identity.go defines the context keys JWTAuth populates and the helpers
// handlers use to read them back.

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/spiderhome/internal/utils"
)

// Context keys set by JWTAuth.
const (
	ClaimsKey   = "claims"
	UserIDKey   = "user_id"
	UsernameKey = "username"
	RoleKey     = "role"
)

// ClaimsFrom returns the verified claims of the current request, or false
// when the route is not behind JWTAuth.
func ClaimsFrom(c echo.Context) (*utils.Claims, bool) {
	cl, ok := c.Get(ClaimsKey).(*utils.Claims)
	return cl, ok && cl != nil
}

// actor names the caller in log lines; "anonymous" outside admin routes.
func actor(c echo.Context) string {
	if cl, ok := ClaimsFrom(c); ok {
		return cl.Username
	}
	return "anonymous"
}
