package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/spiderhome/internal/model"
)

// BlogRepo encapsulates database queries for blog posts.  Only posts with
// status "published" are visible through the public listing methods.
type BlogRepo struct {
	db *sql.DB
}

func NewBlogRepo(db *sql.DB) *BlogRepo {
	return &BlogRepo{db: db}
}

const blogColumns = `id, slug, title, content, excerpt, image, author, status,
	meta_title, meta_description, published_at, created_at, updated_at`

func scanBlog(s rowScanner) (*model.BlogPost, error) {
	var b model.BlogPost
	if err := s.Scan(&b.ID, &b.Slug, &b.Title, &b.Content, &b.Excerpt, &b.Image, &b.Author,
		&b.Status, &b.MetaTitle, &b.MetaDescription, &b.PublishedAt, &b.CreatedAt, &b.UpdatedAt); err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *BlogRepo) query(ctx context.Context, q string, args ...any) ([]model.BlogPost, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.BlogPost{}
	for rows.Next() {
		b, err := scanBlog(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *b)
	}
	return out, rows.Err()
}

// List returns every post, drafts included, newest first.
func (r *BlogRepo) List(ctx context.Context) ([]model.BlogPost, error) {
	return r.query(ctx, "SELECT "+blogColumns+" FROM blog_posts ORDER BY created_at DESC, id DESC")
}

// ListPublished returns published posts, most recently published first.
func (r *BlogRepo) ListPublished(ctx context.Context) ([]model.BlogPost, error) {
	return r.query(ctx, "SELECT "+blogColumns+` FROM blog_posts WHERE status = 'published'
		ORDER BY published_at DESC, id DESC`)
}

// GetPublishedBySlug fetches a published post by slug; drafts are reported
// as ErrNotFound.
func (r *BlogRepo) GetPublishedBySlug(ctx context.Context, slug string) (*model.BlogPost, error) {
	b, err := scanBlog(r.db.QueryRowContext(ctx,
		"SELECT "+blogColumns+" FROM blog_posts WHERE slug = ? AND status = 'published'", slug))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return b, err
}

func (r *BlogRepo) Get(ctx context.Context, id uint64) (*model.BlogPost, error) {
	return r.load(ctx, r.db, id, false)
}

func (r *BlogRepo) load(ctx context.Context, q queryer, id uint64, lock bool) (*model.BlogPost, error) {
	b, err := scanBlog(q.QueryRowContext(ctx,
		forUpdate("SELECT "+blogColumns+" FROM blog_posts WHERE id = ?", lock), id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return b, err
}

func (r *BlogRepo) Create(ctx context.Context, b *model.BlogPost) error {
	if err := prepareInsert(b); err != nil {
		return err
	}
	id, err := insertID(ctx, r.db,
		`INSERT INTO blog_posts (slug, title, content, excerpt, image, author, status,
		 meta_title, meta_description, published_at, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		b.Slug, b.Title, b.Content, b.Excerpt, b.Image, b.Author, b.Status,
		b.MetaTitle, b.MetaDescription, b.PublishedAt, b.CreatedAt, b.UpdatedAt)
	if err != nil {
		return err
	}
	b.ID = id
	return nil
}

func (r *BlogRepo) Update(ctx context.Context, id uint64, patch model.Patch) (*model.BlogPost, error) {
	return updateInTx(ctx, r.db, r.load, r.save, id, patch)
}

func (r *BlogRepo) save(ctx context.Context, tx *sql.Tx, b *model.BlogPost) error {
	_, err := tx.ExecContext(ctx,
		`UPDATE blog_posts SET slug = ?, title = ?, content = ?, excerpt = ?, image = ?, author = ?,
		 status = ?, meta_title = ?, meta_description = ?, published_at = ?, updated_at = ? WHERE id = ?`,
		b.Slug, b.Title, b.Content, b.Excerpt, b.Image, b.Author, b.Status,
		b.MetaTitle, b.MetaDescription, b.PublishedAt, b.UpdatedAt, b.ID)
	return err
}

func (r *BlogRepo) Delete(ctx context.Context, id uint64) error {
	return deleteByID(ctx, r.db, "blog_posts", id)
}
