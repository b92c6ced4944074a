package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/spiderhome/internal/model"
)

// FeatureRepo encapsulates database queries for feature highlights.
type FeatureRepo struct {
	db *sql.DB
}

func NewFeatureRepo(db *sql.DB) *FeatureRepo {
	return &FeatureRepo{db: db}
}

const featureColumns = `id, title, description, icon, sort_order, is_active, created_at, updated_at`

func scanFeature(s rowScanner) (*model.Feature, error) {
	var f model.Feature
	if err := s.Scan(&f.ID, &f.Title, &f.Description, &f.Icon, &f.SortOrder, &f.IsActive,
		&f.CreatedAt, &f.UpdatedAt); err != nil {
		return nil, err
	}
	return &f, nil
}

func (r *FeatureRepo) query(ctx context.Context, q string, args ...any) ([]model.Feature, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Feature{}
	for rows.Next() {
		f, err := scanFeature(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *f)
	}
	return out, rows.Err()
}

func (r *FeatureRepo) List(ctx context.Context) ([]model.Feature, error) {
	return r.query(ctx, "SELECT "+featureColumns+" FROM features ORDER BY sort_order, id")
}

func (r *FeatureRepo) ListActive(ctx context.Context) ([]model.Feature, error) {
	return r.query(ctx, "SELECT "+featureColumns+" FROM features WHERE is_active = 1 ORDER BY sort_order, id")
}

func (r *FeatureRepo) Get(ctx context.Context, id uint64) (*model.Feature, error) {
	return r.load(ctx, r.db, id, false)
}

func (r *FeatureRepo) load(ctx context.Context, q queryer, id uint64, lock bool) (*model.Feature, error) {
	f, err := scanFeature(q.QueryRowContext(ctx,
		forUpdate("SELECT "+featureColumns+" FROM features WHERE id = ?", lock), id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return f, err
}

func (r *FeatureRepo) Create(ctx context.Context, f *model.Feature) error {
	if err := prepareInsert(f); err != nil {
		return err
	}
	id, err := insertID(ctx, r.db,
		`INSERT INTO features (title, description, icon, sort_order, is_active, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		f.Title, f.Description, f.Icon, f.SortOrder, f.IsActive, f.CreatedAt, f.UpdatedAt)
	if err != nil {
		return err
	}
	f.ID = id
	return nil
}

func (r *FeatureRepo) Update(ctx context.Context, id uint64, patch model.Patch) (*model.Feature, error) {
	return updateInTx(ctx, r.db, r.load, r.save, id, patch)
}

func (r *FeatureRepo) save(ctx context.Context, tx *sql.Tx, f *model.Feature) error {
	_, err := tx.ExecContext(ctx,
		`UPDATE features SET title = ?, description = ?, icon = ?, sort_order = ?, is_active = ?,
		 updated_at = ? WHERE id = ?`,
		f.Title, f.Description, f.Icon, f.SortOrder, f.IsActive, f.UpdatedAt, f.ID)
	return err
}

func (r *FeatureRepo) Delete(ctx context.Context, id uint64) error {
	return deleteByID(ctx, r.db, "features", id)
}
