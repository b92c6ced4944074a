package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/iliyamo/spiderhome/internal/model"
	"github.com/iliyamo/spiderhome/internal/repository"
)

// Store is the in-process repository.Store.
type Store struct {
	products *productTable
	slides   *slideTable
	blogs    *blogTable
	features *featureTable
	users    *userTable
	attempts *attemptLog
}

var _ repository.Store = (*Store)(nil)

// New returns an empty store.
func New() *Store {
	return &Store{
		products: &productTable{newTable[model.Product](
			func(a, b *model.Product) bool { return a.ID < b.ID },
			func(v *model.Product) string { return v.Slug })},
		slides: &slideTable{newTable[model.Slide](
			func(a, b *model.Slide) bool { return byOrder(a.SortOrder, b.SortOrder, a.ID, b.ID) }, nil)},
		blogs: &blogTable{newTable[model.BlogPost](
			func(a, b *model.BlogPost) bool {
				if !a.CreatedAt.Equal(b.CreatedAt) {
					return a.CreatedAt.After(b.CreatedAt)
				}
				return a.ID > b.ID
			},
			func(v *model.BlogPost) string { return v.Slug })},
		features: &featureTable{newTable[model.Feature](
			func(a, b *model.Feature) bool { return byOrder(a.SortOrder, b.SortOrder, a.ID, b.ID) }, nil)},
		users:    &userTable{byName: map[string]*model.User{}, next: 1},
		attempts: &attemptLog{},
	}
}

func byOrder(oa, ob int, ida, idb uint64) bool {
	if oa != ob {
		return oa < ob
	}
	return ida < idb
}

func (s *Store) Products() repository.ProductRepository           { return s.products }
func (s *Store) Slides() repository.SlideRepository               { return s.slides }
func (s *Store) Blogs() repository.BlogRepository                 { return s.blogs }
func (s *Store) Features() repository.FeatureRepository           { return s.features }
func (s *Store) Users() repository.UserRepository                 { return s.users }
func (s *Store) LoginAttempts() repository.LoginAttemptRepository { return s.attempts }
func (s *Store) Backend() string                                  { return repository.BackendMemory }
func (s *Store) Ping(context.Context) error                       { return nil }
func (s *Store) Close() error                                     { return nil }

// Stats counts rows under each table's read lock.
func (s *Store) Stats(context.Context) (model.DashboardStats, error) {
	return model.DashboardStats{
		Products:       s.products.t.count(nil),
		Slides:         s.slides.t.count(nil),
		Blogs:          s.blogs.t.count(nil),
		Features:       s.features.t.count(nil),
		ActiveSlides:   s.slides.t.count(func(v *model.Slide) bool { return v.IsActive }),
		PublishedBlogs: s.blogs.t.count(isPublished),
		ActiveFeatures: s.features.t.count(func(v *model.Feature) bool { return v.IsActive }),
		Backend:        repository.BackendMemory,
	}, nil
}

// ---- Products ----

type productTable struct {
	t *table[model.Product, *model.Product]
}

func (p *productTable) List(context.Context) ([]model.Product, error) { return p.t.list(), nil }
func (p *productTable) Get(_ context.Context, id uint64) (*model.Product, error) {
	return p.t.get(id)
}
func (p *productTable) Create(_ context.Context, v *model.Product) error { return p.t.create(v) }
func (p *productTable) Update(_ context.Context, id uint64, patch model.Patch) (*model.Product, error) {
	return p.t.update(id, patch)
}
func (p *productTable) Delete(_ context.Context, id uint64) error { return p.t.delete(id) }
func (p *productTable) GetBySlug(_ context.Context, slug string) (*model.Product, error) {
	return p.t.find(func(v *model.Product) bool { return v.Slug == slug })
}

// ---- Slides ----

type slideTable struct {
	t *table[model.Slide, *model.Slide]
}

func (s *slideTable) List(context.Context) ([]model.Slide, error) { return s.t.list(), nil }
func (s *slideTable) ListActive(context.Context) ([]model.Slide, error) {
	return s.t.filter(func(v *model.Slide) bool { return v.IsActive }), nil
}
func (s *slideTable) Get(_ context.Context, id uint64) (*model.Slide, error) { return s.t.get(id) }
func (s *slideTable) Create(_ context.Context, v *model.Slide) error         { return s.t.create(v) }
func (s *slideTable) Update(_ context.Context, id uint64, patch model.Patch) (*model.Slide, error) {
	return s.t.update(id, patch)
}
func (s *slideTable) Delete(_ context.Context, id uint64) error { return s.t.delete(id) }

// ---- Blog posts ----

type blogTable struct {
	t *table[model.BlogPost, *model.BlogPost]
}

func isPublished(v *model.BlogPost) bool { return v.Status == model.StatusPublished }

func (b *blogTable) List(context.Context) ([]model.BlogPost, error) { return b.t.list(), nil }

// ListPublished orders by publication date, newest first.
func (b *blogTable) ListPublished(context.Context) ([]model.BlogPost, error) {
	out := b.t.filter(isPublished)
	sortByPublished(out)
	return out, nil
}
func (b *blogTable) GetPublishedBySlug(_ context.Context, slug string) (*model.BlogPost, error) {
	return b.t.find(func(v *model.BlogPost) bool { return isPublished(v) && v.Slug == slug })
}
func (b *blogTable) Get(_ context.Context, id uint64) (*model.BlogPost, error) { return b.t.get(id) }
func (b *blogTable) Create(_ context.Context, v *model.BlogPost) error         { return b.t.create(v) }
func (b *blogTable) Update(_ context.Context, id uint64, patch model.Patch) (*model.BlogPost, error) {
	return b.t.update(id, patch)
}
func (b *blogTable) Delete(_ context.Context, id uint64) error { return b.t.delete(id) }

// ---- Features ----

type featureTable struct {
	t *table[model.Feature, *model.Feature]
}

func (f *featureTable) List(context.Context) ([]model.Feature, error) { return f.t.list(), nil }
func (f *featureTable) ListActive(context.Context) ([]model.Feature, error) {
	return f.t.filter(func(v *model.Feature) bool { return v.IsActive }), nil
}
func (f *featureTable) Get(_ context.Context, id uint64) (*model.Feature, error) { return f.t.get(id) }
func (f *featureTable) Create(_ context.Context, v *model.Feature) error         { return f.t.create(v) }
func (f *featureTable) Update(_ context.Context, id uint64, patch model.Patch) (*model.Feature, error) {
	return f.t.update(id, patch)
}
func (f *featureTable) Delete(_ context.Context, id uint64) error { return f.t.delete(id) }

// ---- Users ----

type userTable struct {
	mu     sync.RWMutex
	byName map[string]*model.User
	next   uint64
}

func (u *userTable) GetByUsername(_ context.Context, username string) (*model.User, error) {
	u.mu.RLock()
	defer u.mu.RUnlock()

	v, ok := u.byName[strings.TrimSpace(username)]
	if !ok {
		return nil, repository.ErrNotFound
	}
	out := *v
	return &out, nil
}

func (u *userTable) GetByID(_ context.Context, id uint64) (*model.User, error) {
	u.mu.RLock()
	defer u.mu.RUnlock()

	for _, v := range u.byName {
		if v.ID == id {
			out := *v
			return &out, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (u *userTable) EnsureAdmin(_ context.Context, username, passwordHash, role string) (bool, error) {
	u.mu.Lock()
	defer u.mu.Unlock()

	username = strings.TrimSpace(username)
	if _, ok := u.byName[username]; ok {
		return false, nil
	}
	now := repository.Now()
	u.byName[username] = &model.User{
		ID: u.next, Username: username, PasswordHash: passwordHash, Role: role,
		CreatedAt: now, UpdatedAt: now,
	}
	u.next++
	return true, nil
}

// ---- Login attempts ----

// attemptLog keeps only what the brute-force counter needs; entries older
// than the window of the latest count are pruned.
type attemptLog struct {
	mu   sync.Mutex
	rows []model.LoginAttempt
	next uint64
}

func (l *attemptLog) Record(_ context.Context, a model.LoginAttempt) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.next++
	a.ID = l.next
	if a.AttemptedAt.IsZero() {
		a.AttemptedAt = time.Now().UTC()
	}
	l.rows = append(l.rows, a)
	return nil
}

func (l *attemptLog) CountFailures(_ context.Context, ip string, since time.Time) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	kept := l.rows[:0]
	n := 0
	for _, a := range l.rows {
		if a.AttemptedAt.Before(since) {
			continue
		}
		kept = append(kept, a)
		if a.IP == ip && !a.Success {
			n++
		}
	}
	l.rows = kept
	return n, nil
}
