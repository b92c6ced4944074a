package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/spiderhome/internal/config"
	"github.com/iliyamo/spiderhome/internal/utils"
)

const testSecret = "0123456789abcdef0123456789abcdef"

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

func protected(roles ...string) *echo.Echo {
	e := echo.New()
	g := e.Group("/api/admin", JWTAuth(testSecret, quiet))
	if len(roles) > 0 {
		g.Use(RequireRole(roles...))
	}
	g.GET("/me", func(c echo.Context) error {
		cl, ok := ClaimsFrom(c)
		if !ok {
			return c.NoContent(http.StatusTeapot)
		}
		return c.JSON(http.StatusOK, echo.Map{"id": cl.ID, "username": cl.Username, "role": c.Get(RoleKey)})
	})
	return e
}

func do(e *echo.Echo, auth string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/api/admin/me", nil)
	if auth != "" {
		req.Header.Set(echo.HeaderAuthorization, auth)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func message(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.False(t, body.Success)
	return body.Message
}

func TestJWTAuth(t *testing.T) {
	e := protected()

	valid, err := utils.IssueToken(testSecret, 7, "admin_spiderhome", "admin", time.Hour)
	require.NoError(t, err)
	expired, err := utils.IssueToken(testSecret, 7, "admin_spiderhome", "admin", -time.Minute)
	require.NoError(t, err)
	foreign, err := utils.IssueToken("ffffffffffffffffffffffffffffffff", 7, "admin_spiderhome", "admin", time.Hour)
	require.NoError(t, err)

	t.Run("missing header", func(t *testing.T) {
		rec := do(e, "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, MsgTokenMissing, message(t, rec))
	})
	t.Run("empty bearer", func(t *testing.T) {
		rec := do(e, "Bearer ")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, MsgTokenMissing, message(t, rec))
	})
	t.Run("wrong scheme", func(t *testing.T) {
		rec := do(e, "Basic YWRtaW46cGFzcw==")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, MsgTokenMissing, message(t, rec))
	})
	for name, auth := range map[string]string{
		"garbage":        "Bearer not-a-token",
		"expired":        "Bearer " + expired.Token,
		"foreign secret": "Bearer " + foreign.Token,
	} {
		t.Run(name, func(t *testing.T) {
			rec := do(e, auth)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Equal(t, MsgTokenInvalid, message(t, rec))
		})
	}
	t.Run("valid", func(t *testing.T) {
		rec := do(e, "bearer "+valid.Token)
		require.Equal(t, http.StatusOK, rec.Code)
		var body map[string]any
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, float64(7), body["id"])
		assert.Equal(t, "admin_spiderhome", body["username"])
		assert.Equal(t, "admin", body["role"])
	})
}

func TestRequireRole(t *testing.T) {
	e := protected("admin")

	editor, err := utils.IssueToken(testSecret, 2, "redac", "editor", time.Hour)
	require.NoError(t, err)
	rec := do(e, "Bearer "+editor.Token)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, MsgForbidden, message(t, rec))

	admin, err := utils.IssueToken(testSecret, 1, "root", "admin", time.Hour)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, do(e, "Bearer "+admin.Token).Code)
}

func TestCacheKeyFrom(t *testing.T) {
	cfg := config.CacheConfig{Prefix: "spiderhome:cache", KeyStrategy: "route_query"}
	e := echo.New()
	key := func(method, target string) string {
		c := e.NewContext(httptest.NewRequest(method, target, nil), httptest.NewRecorder())
		return cacheKeyFrom(cfg, c)
	}

	a := key(http.MethodGet, "/api/products?a=1&b=2")
	assert.Regexp(t, `^spiderhome:cache:[0-9a-f]{40}$`, a)
	assert.Equal(t, a, key(http.MethodGet, "/api/products?b=2&a=1"))
	assert.Equal(t, a, key(http.MethodHead, "/api/products?a=1&b=2"))
	assert.NotEqual(t, a, key(http.MethodGet, "/api/products"))
	assert.NotEqual(t, key(http.MethodGet, "/api/products/lampe"), key(http.MethodGet, "/api/products/prise"))

	cfg.KeyStrategy = "method_route"
	assert.NotEqual(t, key(http.MethodGet, "/api/slides"), key(http.MethodHead, "/api/slides"))
	assert.Equal(t, key(http.MethodGet, "/api/slides?x=1"), key(http.MethodGet, "/api/slides?x=2"))
}

func TestPayloadRoundTrip(t *testing.T) {
	hdr := http.Header{"Content-Type": {"application/json"}}
	body := []byte(`[{"id":1}]`)

	bs, err := encodePayload(http.StatusOK, hdr, body)
	require.NoError(t, err)

	status, gotHdr, gotBody, ok := decodePayload(bs)
	require.True(t, ok)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "application/json", gotHdr.Get("Content-Type"))
	assert.Equal(t, body, gotBody)

	_, _, _, ok = decodePayload(bs[:5])
	assert.False(t, ok)
	_, _, _, ok = decodePayload([]byte{0, 0, 0, 200, 0, 0, 1, 0})
	assert.False(t, ok)
}

func TestCaptureWriterOverflow(t *testing.T) {
	rec := httptest.NewRecorder()
	cw := &captureWriter{ResponseWriter: rec, status: http.StatusOK, limit: 4}

	_, _ = cw.Write([]byte("abc"))
	assert.False(t, cw.overflow)
	_, _ = cw.Write([]byte("def"))
	assert.True(t, cw.overflow)
	assert.Equal(t, "abcdef", rec.Body.String())
}

func TestNewRedisCache_DisabledIsPassThrough(t *testing.T) {
	e := echo.New()
	e.Use(NewRedisCache(config.CacheConfig{Enabled: true}, nil, quiet))
	e.GET("/api/slides", func(c echo.Context) error { return c.String(http.StatusOK, "ok") })

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/slides", nil))
	assert.Equal(t, "ok", rec.Body.String())
	assert.Empty(t, rec.Header().Get("X-Cache"))
}

func TestJWTAuth_LogsRejectionThroughSlog(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	e := echo.New()
	e.GET("/api/admin/me", func(c echo.Context) error { return c.NoContent(http.StatusOK) }, JWTAuth(testSecret, logger))

	expired, err := utils.IssueToken(testSecret, 1, "admin", "admin", -time.Minute)
	require.NoError(t, err)
	rec := do(e, "Bearer "+expired.Token)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "rejected bearer token", line["msg"])
	assert.Equal(t, "expired", line["reason"])
	assert.Equal(t, "/api/admin/me", line["path"])
}
