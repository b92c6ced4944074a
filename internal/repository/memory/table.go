// Package memory implements repository.Store in process memory.  It is the
// fallback selected at startup when MySQL cannot be reached.  Every
// collection is an owned table guarded by its own RWMutex; nothing is
// persisted across restarts.
package memory

import (
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/iliyamo/spiderhome/internal/model"
	"github.com/iliyamo/spiderhome/internal/repository"
)

// table is one lock-guarded collection.  Ids come from a counter that only
// moves forward, so a deleted id is never handed out again.
type table[T any, P interface {
	*T
	model.Record
}] struct {
	mu     sync.RWMutex
	rows   map[uint64]T
	next   uint64
	less   func(a, b *T) bool
	slugOf func(v *T) string // nil when the collection has no unique slug
}

func newTable[T any, P interface {
	*T
	model.Record
}](less func(a, b *T) bool, slugOf func(v *T) string) *table[T, P] {
	return &table[T, P]{rows: map[uint64]T{}, next: 1, less: less, slugOf: slugOf}
}

// clone deep-copies v so callers never share slices with stored rows.
func clone[T any](v T) T {
	b, err := json.Marshal(v)
	if err != nil {
		return v
	}
	var out T
	if err := json.Unmarshal(b, &out); err != nil {
		return v
	}
	return out
}

func (t *table[T, P]) sorted(keep func(*T) bool) []T {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]T, 0, len(t.rows))
	for _, v := range t.rows {
		v := v
		if keep == nil || keep(&v) {
			out = append(out, clone(v))
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return t.less(&out[i], &out[j]) })
	return out
}

func (t *table[T, P]) list() []T { return t.sorted(nil) }

func (t *table[T, P]) filter(keep func(*T) bool) []T { return t.sorted(keep) }

func (t *table[T, P]) count(keep func(*T) bool) int {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if keep == nil {
		return len(t.rows)
	}
	n := 0
	for _, v := range t.rows {
		v := v
		if keep(&v) {
			n++
		}
	}
	return n
}

func (t *table[T, P]) get(id uint64) (*T, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	v, ok := t.rows[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	out := clone(v)
	return &out, nil
}

// find returns the first row, in list order, matching keep.
func (t *table[T, P]) find(keep func(*T) bool) (*T, error) {
	rows := t.filter(keep)
	if len(rows) == 0 {
		return nil, repository.ErrNotFound
	}
	return &rows[0], nil
}

// slugTaken must be called with the lock held.
func (t *table[T, P]) slugTaken(slug string, except uint64) bool {
	if t.slugOf == nil || slug == "" {
		return false
	}
	for id, v := range t.rows {
		v := v
		if id != except && t.slugOf(&v) == slug {
			return true
		}
	}
	return false
}

func (t *table[T, P]) create(v *T) error {
	r := P(v)
	now := repository.Now()
	r.BeforeSave(now)
	if err := r.Validate(); err != nil {
		return err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.slugOf != nil && t.slugTaken(t.slugOf(v), 0) {
		return fmt.Errorf("%w: slug %q already exists", repository.ErrConflict, t.slugOf(v))
	}
	m := r.Base()
	m.ID = t.next
	m.CreatedAt, m.UpdatedAt = now, now
	t.next++
	t.rows[m.ID] = clone(*v)
	return nil
}

func (t *table[T, P]) update(id uint64, patch model.Patch) (*T, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	cur, ok := t.rows[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cur = clone(cur)
	if err := model.ApplyPatch(&cur, patch); err != nil {
		return nil, err
	}
	r := P(&cur)
	now := repository.Now()
	r.BeforeSave(now)
	if err := r.Validate(); err != nil {
		return nil, err
	}
	if t.slugOf != nil && t.slugTaken(t.slugOf(&cur), id) {
		return nil, fmt.Errorf("%w: slug %q already exists", repository.ErrConflict, t.slugOf(&cur))
	}
	r.Base().UpdatedAt = now
	t.rows[id] = cur
	out := clone(cur)
	return &out, nil
}

func (t *table[T, P]) delete(id uint64) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.rows[id]; !ok {
		return repository.ErrNotFound
	}
	delete(t.rows, id)
	return nil
}
