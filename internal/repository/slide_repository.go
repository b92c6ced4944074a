package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/spiderhome/internal/model"
)

// SlideRepo encapsulates database queries for homepage slides.
type SlideRepo struct {
	db *sql.DB
}

func NewSlideRepo(db *sql.DB) *SlideRepo {
	return &SlideRepo{db: db}
}

const slideColumns = `id, title, subtitle, cta_text, cta_link, image, sort_order, is_active, created_at, updated_at`

func scanSlide(s rowScanner) (*model.Slide, error) {
	var v model.Slide
	if err := s.Scan(&v.ID, &v.Title, &v.Subtitle, &v.CTAText, &v.CTALink, &v.Image,
		&v.SortOrder, &v.IsActive, &v.CreatedAt, &v.UpdatedAt); err != nil {
		return nil, err
	}
	return &v, nil
}

func (r *SlideRepo) query(ctx context.Context, q string, args ...any) ([]model.Slide, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Slide{}
	for rows.Next() {
		v, err := scanSlide(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *v)
	}
	return out, rows.Err()
}

// List returns every slide in display order.
func (r *SlideRepo) List(ctx context.Context) ([]model.Slide, error) {
	return r.query(ctx, "SELECT "+slideColumns+" FROM slides ORDER BY sort_order, id")
}

// ListActive returns only slides flagged active, in display order.
func (r *SlideRepo) ListActive(ctx context.Context) ([]model.Slide, error) {
	return r.query(ctx, "SELECT "+slideColumns+" FROM slides WHERE is_active = 1 ORDER BY sort_order, id")
}

func (r *SlideRepo) Get(ctx context.Context, id uint64) (*model.Slide, error) {
	return r.load(ctx, r.db, id, false)
}

func (r *SlideRepo) load(ctx context.Context, q queryer, id uint64, lock bool) (*model.Slide, error) {
	v, err := scanSlide(q.QueryRowContext(ctx,
		forUpdate("SELECT "+slideColumns+" FROM slides WHERE id = ?", lock), id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return v, err
}

func (r *SlideRepo) Create(ctx context.Context, v *model.Slide) error {
	if err := prepareInsert(v); err != nil {
		return err
	}
	id, err := insertID(ctx, r.db,
		`INSERT INTO slides (title, subtitle, cta_text, cta_link, image, sort_order, is_active, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		v.Title, v.Subtitle, v.CTAText, v.CTALink, v.Image, v.SortOrder, v.IsActive, v.CreatedAt, v.UpdatedAt)
	if err != nil {
		return err
	}
	v.ID = id
	return nil
}

func (r *SlideRepo) Update(ctx context.Context, id uint64, patch model.Patch) (*model.Slide, error) {
	return updateInTx(ctx, r.db, r.load, r.save, id, patch)
}

func (r *SlideRepo) save(ctx context.Context, tx *sql.Tx, v *model.Slide) error {
	_, err := tx.ExecContext(ctx,
		`UPDATE slides SET title = ?, subtitle = ?, cta_text = ?, cta_link = ?, image = ?,
		 sort_order = ?, is_active = ?, updated_at = ? WHERE id = ?`,
		v.Title, v.Subtitle, v.CTAText, v.CTALink, v.Image, v.SortOrder, v.IsActive, v.UpdatedAt, v.ID)
	return err
}

func (r *SlideRepo) Delete(ctx context.Context, id uint64) error {
	return deleteByID(ctx, r.db, "slides", id)
}
