// Package repository contains data access logic separated from HTTP
// handlers.  It defines the storage contract shared by the MySQL backend in
// this package and the in-process backend in repository/memory.  One Store
// is selected at startup and injected into every handler.
package repository

import (
	"context"
	"time"

	"github.com/iliyamo/spiderhome/internal/model"
)

// Backend names reported by Store.Backend.
const (
	BackendMySQL  = "mysql"
	BackendMemory = "memory"
)

// Collection is the row-level CRUD surface of one resource collection.
// Create stamps the id and both timestamps on the passed value.  Update
// merges patch shallowly into the current row and returns the result.
// Get, Update and Delete return ErrNotFound for unknown ids.
type Collection[T any] interface {
	List(ctx context.Context) ([]T, error)
	Get(ctx context.Context, id uint64) (*T, error)
	Create(ctx context.Context, v *T) error
	Update(ctx context.Context, id uint64, patch model.Patch) (*T, error)
	Delete(ctx context.Context, id uint64) error
}

// ProductRepository stores catalog products.
type ProductRepository interface {
	Collection[model.Product]
	GetBySlug(ctx context.Context, slug string) (*model.Product, error)
}

// SlideRepository stores homepage slides.
type SlideRepository interface {
	Collection[model.Slide]
	// ListActive returns active slides ordered by sort_order, then id.
	ListActive(ctx context.Context) ([]model.Slide, error)
}

// BlogRepository stores blog posts.
type BlogRepository interface {
	Collection[model.BlogPost]
	// ListPublished returns published posts, newest first.
	ListPublished(ctx context.Context) ([]model.BlogPost, error)
	GetPublishedBySlug(ctx context.Context, slug string) (*model.BlogPost, error)
}

// FeatureRepository stores homepage feature highlights.
type FeatureRepository interface {
	Collection[model.Feature]
	ListActive(ctx context.Context) ([]model.Feature, error)
}

// UserRepository stores back-office accounts.
type UserRepository interface {
	GetByUsername(ctx context.Context, username string) (*model.User, error)
	GetByID(ctx context.Context, id uint64) (*model.User, error)
	// EnsureAdmin inserts the account when the username is absent and
	// reports whether it did.  An existing credential is never touched.
	EnsureAdmin(ctx context.Context, username, passwordHash, role string) (bool, error)
}

// LoginAttemptRepository records login attempts for brute-force detection.
type LoginAttemptRepository interface {
	Record(ctx context.Context, a model.LoginAttempt) error
	CountFailures(ctx context.Context, ip string, since time.Time) (int, error)
}

// Store bundles every repository of one backend.
type Store interface {
	Products() ProductRepository
	Slides() SlideRepository
	Blogs() BlogRepository
	Features() FeatureRepository
	Users() UserRepository
	LoginAttempts() LoginAttemptRepository
	// Stats computes the dashboard aggregate on every call.
	Stats(ctx context.Context) (model.DashboardStats, error)
	// Backend returns BackendMySQL or BackendMemory.
	Backend() string
	Ping(ctx context.Context) error
	Close() error
}
