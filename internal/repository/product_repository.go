package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/spiderhome/internal/model"
)

// ProductRepo encapsulates all database queries related to products.
// Specification, benefit, download, compatibility and related-product
// lists live in JSON columns.
type ProductRepo struct {
	db *sql.DB // db is the underlying database connection pool
}

// NewProductRepo constructs a ProductRepo with the provided DB handle.
func NewProductRepo(db *sql.DB) *ProductRepo {
	return &ProductRepo{db: db}
}

const productColumns = `id, slug, title, reference, category, short_description, description, image,
	specifications, benefits, downloads, compatibility, related_products,
	is_new, featured, meta_title, meta_description, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(s rowScanner) (*model.Product, error) {
	var p model.Product
	err := s.Scan(&p.ID, &p.Slug, &p.Title, &p.Reference, &p.Category, &p.ShortDescription,
		&p.Description, &p.Image, &p.Specifications, &p.Benefits, &p.Downloads,
		&p.Compatibility, &p.RelatedProducts, &p.IsNew, &p.Featured, &p.MetaTitle,
		&p.MetaDescription, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// List returns all products ordered by id.
func (r *ProductRepo) List(ctx context.Context) ([]model.Product, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT "+productColumns+" FROM products ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Get fetches a product by id or returns ErrNotFound.
func (r *ProductRepo) Get(ctx context.Context, id uint64) (*model.Product, error) {
	return r.load(ctx, r.db, id, false)
}

// GetBySlug fetches a product by its unique slug or returns ErrNotFound.
func (r *ProductRepo) GetBySlug(ctx context.Context, slug string) (*model.Product, error) {
	p, err := scanProduct(r.db.QueryRowContext(ctx,
		"SELECT "+productColumns+" FROM products WHERE slug = ?", slug))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return p, err
}

func (r *ProductRepo) load(ctx context.Context, q queryer, id uint64, lock bool) (*model.Product, error) {
	p, err := scanProduct(q.QueryRowContext(ctx,
		forUpdate("SELECT "+productColumns+" FROM products WHERE id = ?", lock), id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return p, err
}

// Create inserts p and populates its id and timestamps.
func (r *ProductRepo) Create(ctx context.Context, p *model.Product) error {
	if err := prepareInsert(p); err != nil {
		return err
	}
	const q = `INSERT INTO products (slug, title, reference, category, short_description, description, image,
		specifications, benefits, downloads, compatibility, related_products,
		is_new, featured, meta_title, meta_description, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	id, err := insertID(ctx, r.db, q, p.Slug, p.Title, p.Reference, p.Category, p.ShortDescription,
		p.Description, p.Image, p.Specifications, p.Benefits, p.Downloads, p.Compatibility,
		p.RelatedProducts, p.IsNew, p.Featured, p.MetaTitle, p.MetaDescription, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return err
	}
	p.ID = id
	return nil
}

// Update merges patch into the product with the given id.
func (r *ProductRepo) Update(ctx context.Context, id uint64, patch model.Patch) (*model.Product, error) {
	return updateInTx(ctx, r.db, r.load, r.save, id, patch)
}

func (r *ProductRepo) save(ctx context.Context, tx *sql.Tx, p *model.Product) error {
	const q = `UPDATE products SET slug = ?, title = ?, reference = ?, category = ?, short_description = ?,
		description = ?, image = ?, specifications = ?, benefits = ?, downloads = ?, compatibility = ?,
		related_products = ?, is_new = ?, featured = ?, meta_title = ?, meta_description = ?, updated_at = ?
		WHERE id = ?`
	_, err := tx.ExecContext(ctx, q, p.Slug, p.Title, p.Reference, p.Category, p.ShortDescription,
		p.Description, p.Image, p.Specifications, p.Benefits, p.Downloads, p.Compatibility,
		p.RelatedProducts, p.IsNew, p.Featured, p.MetaTitle, p.MetaDescription, p.UpdatedAt, p.ID)
	return err
}

// Delete removes a product.  Related-product lists referencing it are left
// untouched.
func (r *ProductRepo) Delete(ctx context.Context, id uint64) error {
	return deleteByID(ctx, r.db, "products", id)
}
