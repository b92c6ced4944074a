package router // router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/iliyamo/spiderhome/internal/config"
	"github.com/iliyamo/spiderhome/internal/handler"
	"github.com/iliyamo/spiderhome/internal/middleware" // JWT + role middlewares
	"github.com/iliyamo/spiderhome/internal/model"
)

// RegisterAuth registers the login route, which is the only admin path
// reachable without a token, and /api/admin/me behind JWTAuth.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, cfg *config.Config) {
	e.POST("/api/admin/login", a.Login)
	e.GET("/api/admin/me", a.Me, middleware.JWTAuth(cfg.JWTSecret, a.Logger))
}

// crud is the route set shared by every resource collection.
type crud interface {
	List(echo.Context) error
	Get(echo.Context) error
	Create(echo.Context) error
	Update(echo.Context) error
	Delete(echo.Context) error
}

func mount(g *echo.Group, name string, h crud) {
	g.GET("/"+name, h.List)
	g.POST("/"+name, h.Create)
	g.GET("/"+name+"/:id", h.Get)
	g.PUT("/"+name+"/:id", h.Update)
	g.PATCH("/"+name+"/:id", h.Update) // same shallow merge as PUT
	g.DELETE("/"+name+"/:id", h.Delete)
}

// RegisterAdmin registers the back-office endpoints under /api/admin.
// All routes require a valid JWT and the admin or editor role, and run
// under the configured request timeout.
func RegisterAdmin(e *echo.Echo, d Deps) {
	g := e.Group(
		"/api/admin",
		middleware.JWTAuth(d.Cfg.JWTSecret, d.Logger),
		middleware.RequireRole(model.RoleAdmin, model.RoleEditor),
		echomw.ContextTimeout(d.Cfg.APITimeout),
	)

	s, n, l := d.Store, d.Notifier, d.Logger
	mount(g, "products", handler.NewResource[model.Product]("products", s.Products(), n, l))
	mount(g, "slides", handler.NewResource[model.Slide]("slides", s.Slides(), n, l))
	mount(g, "blogs", handler.NewResource[model.BlogPost]("blogs", s.Blogs(), n, l))
	mount(g, "features", handler.NewResource[model.Feature]("features", s.Features(), n, l))

	// ---- Dashboard ----
	dash := &handler.DashboardHandler{Store: s, Logger: l}
	g.GET("/dashboard/stats", dash.Stats)

	// ---- Uploads ----
	up := handler.NewUploadHandler(d.Cfg.UploadDir, d.Cfg.MaxUploadBytes, d.Cfg.AllowedImageTypes, l)
	g.POST("/upload", up.Upload)
}
