// This file defines handlers for the public read API.  These routes serve
// the storefront without authentication: every product, only active
// slides and features, and only published blog posts.

package handler

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/spiderhome/internal/repository"
)

// PublicHandler reads from the same store as the admin API, so the two
// never disagree.
type PublicHandler struct {
	Store  repository.Store
	Logger *slog.Logger
}

func (h *PublicHandler) list(c echo.Context, rows any, err error) error {
	if err != nil {
		return storeError(c, h.Logger, err)
	}
	return c.JSON(http.StatusOK, rows)
}

// Products handles GET /api/products.
func (h *PublicHandler) Products(c echo.Context) error {
	rows, err := h.Store.Products().List(c.Request().Context())
	return h.list(c, rows, err)
}

// ProductBySlug handles GET /api/products/:slug.
func (h *PublicHandler) ProductBySlug(c echo.Context) error {
	p, err := h.Store.Products().GetBySlug(c.Request().Context(), strings.ToLower(c.Param("slug")))
	if err != nil {
		return storeError(c, h.Logger, err)
	}
	return c.JSON(http.StatusOK, p)
}

// Slides handles GET /api/slides.
func (h *PublicHandler) Slides(c echo.Context) error {
	rows, err := h.Store.Slides().ListActive(c.Request().Context())
	return h.list(c, rows, err)
}

// Blogs handles GET /api/blogs.
func (h *PublicHandler) Blogs(c echo.Context) error {
	rows, err := h.Store.Blogs().ListPublished(c.Request().Context())
	return h.list(c, rows, err)
}

// BlogBySlug handles GET /api/blogs/:slug.  Drafts are not found.
func (h *PublicHandler) BlogBySlug(c echo.Context) error {
	b, err := h.Store.Blogs().GetPublishedBySlug(c.Request().Context(), strings.ToLower(c.Param("slug")))
	if err != nil {
		return storeError(c, h.Logger, err)
	}
	return c.JSON(http.StatusOK, b)
}

// Features handles GET /api/features.
func (h *PublicHandler) Features(c echo.Context) error {
	rows, err := h.Store.Features().ListActive(c.Request().Context())
	return h.list(c, rows, err)
}
