package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/iliyamo/spiderhome/internal/model"
)

// queryer is satisfied by *sql.DB and *sql.Tx so loaders can run inside or
// outside a transaction.
type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Now returns the timestamp stamped on rows.  Both backends truncate to
// whole seconds because DATETIME columns do not keep fractions.
func Now() time.Time {
	return time.Now().UTC().Truncate(time.Second)
}

// SQLStore is the MySQL-backed Store.  All repositories share one
// connection pool; each statement or transaction borrows a connection and
// database/sql returns it on every exit path.
type SQLStore struct {
	db       *sql.DB
	products *ProductRepo
	slides   *SlideRepo
	blogs    *BlogRepo
	features *FeatureRepo
	users    *UserRepo
	attempts *LoginAttemptRepo
}

// NewSQLStore wires every repository onto db.  The schema must already
// exist (see database.EnsureSchema).
func NewSQLStore(db *sql.DB) *SQLStore {
	return &SQLStore{
		db:       db,
		products: NewProductRepo(db),
		slides:   NewSlideRepo(db),
		blogs:    NewBlogRepo(db),
		features: NewFeatureRepo(db),
		users:    NewUserRepo(db),
		attempts: NewLoginAttemptRepo(db),
	}
}

func (s *SQLStore) Products() ProductRepository           { return s.products }
func (s *SQLStore) Slides() SlideRepository               { return s.slides }
func (s *SQLStore) Blogs() BlogRepository                 { return s.blogs }
func (s *SQLStore) Features() FeatureRepository           { return s.features }
func (s *SQLStore) Users() UserRepository                 { return s.users }
func (s *SQLStore) LoginAttempts() LoginAttemptRepository { return s.attempts }
func (s *SQLStore) Backend() string                       { return BackendMySQL }
func (s *SQLStore) Ping(ctx context.Context) error        { return s.db.PingContext(ctx) }
func (s *SQLStore) Close() error                          { return s.db.Close() }

// Stats counts every collection in a single round trip.
func (s *SQLStore) Stats(ctx context.Context) (model.DashboardStats, error) {
	const q = `SELECT
		(SELECT COUNT(*) FROM products),
		(SELECT COUNT(*) FROM slides),
		(SELECT COUNT(*) FROM blog_posts),
		(SELECT COUNT(*) FROM features),
		(SELECT COUNT(*) FROM slides WHERE is_active = 1),
		(SELECT COUNT(*) FROM blog_posts WHERE status = 'published'),
		(SELECT COUNT(*) FROM features WHERE is_active = 1)`
	st := model.DashboardStats{Backend: BackendMySQL}
	err := s.db.QueryRowContext(ctx, q).Scan(
		&st.Products, &st.Slides, &st.Blogs, &st.Features,
		&st.ActiveSlides, &st.PublishedBlogs, &st.ActiveFeatures)
	if err != nil {
		return model.DashboardStats{}, fmt.Errorf("dashboard stats: %w", err)
	}
	return st, nil
}

// prepareInsert stamps timestamps and validates v before an INSERT.
func prepareInsert[T any, P interface {
	*T
	model.Record
}](v *T) error {
	r := P(v)
	now := Now()
	r.BeforeSave(now)
	if err := r.Validate(); err != nil {
		return err
	}
	m := r.Base()
	m.CreatedAt, m.UpdatedAt = now, now
	return nil
}

// updateInTx loads the row under a write lock, merges patch into it and
// writes it back inside one transaction.  The deferred rollback releases
// the connection on every error path and is a no-op after Commit.
func updateInTx[T any, P interface {
	*T
	model.Record
}](
	ctx context.Context,
	db *sql.DB,
	load func(ctx context.Context, q queryer, id uint64, forUpdate bool) (*T, error),
	save func(ctx context.Context, tx *sql.Tx, v *T) error,
	id uint64,
	patch model.Patch,
) (*T, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	cur, err := load(ctx, tx, id, true)
	if err != nil {
		return nil, err
	}
	if err := model.ApplyPatch(cur, patch); err != nil {
		return nil, err
	}
	r := P(cur)
	now := Now()
	r.BeforeSave(now)
	if err := r.Validate(); err != nil {
		return nil, err
	}
	r.Base().UpdatedAt = now
	if err := save(ctx, tx, cur); err != nil {
		if isDuplicate(err) {
			return nil, fmt.Errorf("%w: %v", ErrConflict, err)
		}
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return cur, nil
}

// deleteByID removes one row and reports ErrNotFound when nothing matched.
func deleteByID(ctx context.Context, db *sql.DB, table string, id uint64) error {
	res, err := db.ExecContext(ctx, "DELETE FROM "+table+" WHERE id = ?", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// insertID runs an INSERT and returns the auto-increment id.
func insertID(ctx context.Context, db *sql.DB, q string, args ...any) (uint64, error) {
	res, err := db.ExecContext(ctx, q, args...)
	if err != nil {
		if isDuplicate(err) {
			return 0, fmt.Errorf("%w: %v", ErrConflict, err)
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// forUpdate appends a row lock clause when requested.
func forUpdate(q string, lock bool) string {
	if lock {
		return q + " FOR UPDATE"
	}
	return q
}
