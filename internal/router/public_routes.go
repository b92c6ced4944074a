package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/spiderhome/internal/handler"
)

// RegisterPublic registers the read-only storefront endpoints.  They apply
// no JWT or role middleware; cache wraps each route individually so
// unmatched /api paths are not cached.
func RegisterPublic(e *echo.Echo, p *handler.PublicHandler, cache echo.MiddlewareFunc) {
	e.GET("/api/products", p.Products, cache)
	e.GET("/api/products/:slug", p.ProductBySlug, cache)
	e.GET("/api/slides", p.Slides, cache)
	e.GET("/api/blogs", p.Blogs, cache)
	e.GET("/api/blogs/:slug", p.BlogBySlug, cache)
	e.GET("/api/features", p.Features, cache)
}
