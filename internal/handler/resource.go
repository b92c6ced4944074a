package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/spiderhome/internal/middleware"
	"github.com/iliyamo/spiderhome/internal/model"
	"github.com/iliyamo/spiderhome/internal/queue"
	"github.com/iliyamo/spiderhome/internal/repository"
)

// ChangeNotifier is told about every successful admin write.
type ChangeNotifier interface {
	CatalogChanged(ctx context.Context, ev queue.CatalogChangedEvent)
}

// Resource serves the admin CRUD endpoints of one collection.  Name is the
// collection's path segment (products, slides, ...) and is carried in
// change events.
type Resource[T any, P interface {
	*T
	model.Record
}] struct {
	Name     string
	Repo     repository.Collection[T]
	Notifier ChangeNotifier // optional
	Logger   *slog.Logger
}

// NewResource builds the handler for one collection.
func NewResource[T any, P interface {
	*T
	model.Record
}](name string, repo repository.Collection[T], n ChangeNotifier, logger *slog.Logger) *Resource[T, P] {
	return &Resource[T, P]{Name: name, Repo: repo, Notifier: n, Logger: logger}
}

func (r *Resource[T, P]) notify(c echo.Context, action string, id uint64) {
	if r.Notifier == nil {
		return
	}
	actor := ""
	if cl, ok := middleware.ClaimsFrom(c); ok {
		actor = cl.Username
	}
	r.Notifier.CatalogChanged(c.Request().Context(), queue.NewCatalogChanged(r.Name, action, id, actor))
}

// decode reads a JSON request body into dst.
func decode(c echo.Context, dst any) bool {
	return json.NewDecoder(c.Request().Body).Decode(dst) == nil
}

// List handles GET /api/admin/{resource}: every row as a bare array.
func (r *Resource[T, P]) List(c echo.Context) error {
	rows, err := r.Repo.List(c.Request().Context())
	if err != nil {
		return storeError(c, r.Logger, err)
	}
	return c.JSON(http.StatusOK, rows)
}

// Get handles GET /api/admin/{resource}/:id.
func (r *Resource[T, P]) Get(c echo.Context) error {
	id, ok := parseID(c)
	if !ok {
		return fail(c, http.StatusBadRequest, MsgInvalidID)
	}
	v, err := r.Repo.Get(c.Request().Context(), id)
	if err != nil {
		return storeError(c, r.Logger, err)
	}
	return c.JSON(http.StatusOK, v)
}

// Create handles POST /api/admin/{resource}.  The store assigns the id and
// timestamps; any values the client sent for them are discarded.  Answers
// 201 with the stored row.
func (r *Resource[T, P]) Create(c echo.Context) error {
	v := new(T)
	if !decode(c, v) {
		return fail(c, http.StatusBadRequest, MsgInvalidBody)
	}
	*P(v).Base() = model.Meta{}
	if err := r.Repo.Create(c.Request().Context(), v); err != nil {
		return storeError(c, r.Logger, err)
	}
	r.notify(c, queue.ActionCreated, P(v).Base().ID)
	return c.JSON(http.StatusCreated, v)
}

// Update handles PUT and PATCH /api/admin/{resource}/:id.  Both merge the
// body's top-level fields into the stored row.
func (r *Resource[T, P]) Update(c echo.Context) error {
	id, ok := parseID(c)
	if !ok {
		return fail(c, http.StatusBadRequest, MsgInvalidID)
	}
	var patch model.Patch
	if !decode(c, &patch) {
		return fail(c, http.StatusBadRequest, MsgInvalidBody)
	}
	v, err := r.Repo.Update(c.Request().Context(), id, patch)
	if err != nil {
		return storeError(c, r.Logger, err)
	}
	r.notify(c, queue.ActionUpdated, id)
	return c.JSON(http.StatusOK, v)
}

// Delete handles DELETE /api/admin/{resource}/:id.
func (r *Resource[T, P]) Delete(c echo.Context) error {
	id, ok := parseID(c)
	if !ok {
		return fail(c, http.StatusBadRequest, MsgInvalidID)
	}
	if err := r.Repo.Delete(c.Request().Context(), id); err != nil {
		return storeError(c, r.Logger, err)
	}
	r.notify(c, queue.ActionDeleted, id)
	return c.JSON(http.StatusOK, echo.Map{"success": true, "message": MsgDeleted})
}

// DashboardHandler serves the admin aggregate.
type DashboardHandler struct {
	Store  repository.Store
	Logger *slog.Logger
}

// Stats computes the counts on every request.
func (h *DashboardHandler) Stats(c echo.Context) error {
	st, err := h.Store.Stats(c.Request().Context())
	if err != nil {
		return storeError(c, h.Logger, err)
	}
	return c.JSON(http.StatusOK, st)
}
