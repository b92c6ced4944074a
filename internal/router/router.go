package router // package router defines how HTTP routes are registered for the API

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/labstack/echo/v4" // import the Echo web framework to handle routing
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/spiderhome/internal/config"
	"github.com/iliyamo/spiderhome/internal/handler"
	"github.com/iliyamo/spiderhome/internal/middleware"
	"github.com/iliyamo/spiderhome/internal/repository"
)

// Deps is everything the routes need.  Redis and Notifier may be nil.
type Deps struct {
	Cfg      *config.Config
	Store    repository.Store
	Logger   *slog.Logger
	Limiter  handler.LoginLimiter
	Notifier handler.ChangeNotifier
	Redis    *redis.Client
}

// New builds the Echo instance with global middleware and every route.
func New(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = errorHandler(e, d.Logger)
	e.IPExtractor = ipExtractor(d.Cfg, d.Logger)

	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(middleware.RequestLogger(d.Logger))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: d.Cfg.CORSOrigins,
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}))
	e.Use(echomw.BodyLimit(fmt.Sprintf("%dK", (d.Cfg.MaxUploadBytes>>10)+1024)))

	RegisterRoutes(e, &handler.HealthHandler{Store: d.Store})
	RegisterAuth(e, &handler.AuthHandler{
		Users:    d.Store.Users(),
		Limiter:  d.Limiter,
		Secret:   d.Cfg.JWTSecret,
		TokenTTL: d.Cfg.TokenTTL,
		Logger:   d.Logger,
	}, d.Cfg)
	RegisterAdmin(e, d)
	RegisterPublic(e, &handler.PublicHandler{Store: d.Store, Logger: d.Logger},
		middleware.NewRedisCache(d.Cfg.Cache, d.Redis, d.Logger))
	RegisterStatic(e, d.Cfg, d.Logger)
	return e
}

// RegisterRoutes registers health endpoints that do not require
// authentication.  Load balancers probe /healthz; the storefront uses
// /api/health.
func RegisterRoutes(e *echo.Echo, h *handler.HealthHandler) {
	e.GET("/healthz", h.Health)
	e.GET("/api/health", h.Health)
}

// RegisterStatic serves uploaded images and the built single-page app.
// Unknown non-API paths fall back to index.html so client-side routes
// survive a reload.  API paths never reach the SPA.
func RegisterStatic(e *echo.Echo, cfg *config.Config, logger *slog.Logger) {
	e.Static("/uploads", cfg.UploadDir)

	if _, err := os.Stat(filepath.Join(cfg.StaticDir, "index.html")); err != nil {
		logger.Warn("storefront build not found, serving API only", slog.String("dir", cfg.StaticDir))
		return
	}
	e.Use(echomw.StaticWithConfig(echomw.StaticConfig{
		Root:       ".",
		Filesystem: http.Dir(cfg.StaticDir),
		Index:      "index.html",
		HTML5:      true,
		Skipper: func(c echo.Context) bool {
			p := c.Request().URL.Path
			return isAPI(p) || strings.HasPrefix(p, "/uploads") || p == "/healthz"
		},
	}))
}

// ipExtractor decides what c.RealIP reports.  X-Forwarded-For is honored
// only when the TCP peer is one of the configured proxies; otherwise the
// peer address is the client.
func ipExtractor(cfg *config.Config, logger *slog.Logger) echo.IPExtractor {
	nets, err := cfg.TrustedProxyNets()
	if err != nil {
		logger.Warn("ignoring trusted proxies", slog.Any("error", err))
		nets = nil
	}
	if len(nets) == 0 {
		return echo.ExtractIPDirect()
	}
	opts := []echo.TrustOption{
		echo.TrustLoopback(false),
		echo.TrustLinkLocal(false),
		echo.TrustPrivateNet(false),
	}
	for _, n := range nets {
		opts = append(opts, echo.TrustIPRange(n))
	}
	return echo.ExtractIPFromXFFHeader(opts...)
}

func isAPI(path string) bool {
	return path == "/api" || strings.HasPrefix(path, "/api/")
}

// errorHandler answers API paths with the JSON error body and leaves other
// paths to Echo's default handler.
func errorHandler(e *echo.Echo, logger *slog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}
		if !isAPI(c.Request().URL.Path) {
			e.DefaultHTTPErrorHandler(err, c)
			return
		}

		code := http.StatusInternalServerError
		var he *echo.HTTPError
		if errors.As(err, &he) {
			code = he.Code
		}
		msg := handler.MsgInternal
		switch code {
		case http.StatusNotFound:
			msg = handler.MsgNotFound
		case http.StatusMethodNotAllowed:
			msg = "méthode non autorisée"
		case http.StatusBadRequest:
			msg = handler.MsgInvalidBody
		case http.StatusRequestEntityTooLarge:
			msg = handler.MsgFileTooLarge
		case http.StatusServiceUnavailable:
			msg = "service temporairement indisponible"
		default:
			if code < 500 {
				msg = http.StatusText(code)
			}
		}
		if code >= 500 {
			logger.Error("unhandled error", slog.String("path", c.Request().URL.Path), slog.Any("error", err))
		}

		if c.Request().Method == http.MethodHead {
			err = c.NoContent(code)
		} else {
			err = c.JSON(code, echo.Map{"success": false, "message": msg})
		}
		if err != nil {
			logger.Error("writing error response", slog.Any("error", err))
		}
	}
}
