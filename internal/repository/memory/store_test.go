package memory

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/spiderhome/internal/model"
	"github.com/iliyamo/spiderhome/internal/repository"
)

func patch(t *testing.T, fields map[string]any) model.Patch {
	t.Helper()
	p := model.Patch{}
	for k, v := range fields {
		b, err := json.Marshal(v)
		require.NoError(t, err)
		p[k] = b
	}
	return p
}

func TestProducts_CreateGet(t *testing.T) {
	ctx := context.Background()
	s := New()

	p := &model.Product{Title: "X", Reference: "R1", Category: "C"}
	require.NoError(t, s.Products().Create(ctx, p))
	assert.Equal(t, uint64(1), p.ID)
	assert.False(t, p.CreatedAt.IsZero())
	assert.Equal(t, p.CreatedAt, p.UpdatedAt)
	assert.Equal(t, "x", p.Slug)

	got, err := s.Products().Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, *p, *got)
	assert.NotNil(t, got.Benefits)
}

func TestProducts_Validation(t *testing.T) {
	ctx := context.Background()
	s := New()

	err := s.Products().Create(ctx, &model.Product{Title: "X"})
	assert.ErrorIs(t, err, model.ErrValidation)

	list, err := s.Products().List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestProducts_SlugConflict(t *testing.T) {
	ctx := context.Background()
	s := New()

	require.NoError(t, s.Products().Create(ctx, &model.Product{Title: "Lampe", Reference: "A", Category: "C"}))
	err := s.Products().Create(ctx, &model.Product{Title: "Lampe", Reference: "B", Category: "C"})
	assert.ErrorIs(t, err, repository.ErrConflict)

	other := &model.Product{Title: "Autre", Reference: "B", Category: "C"}
	require.NoError(t, s.Products().Create(ctx, other))
	_, err = s.Products().Update(ctx, other.ID, patch(t, map[string]any{"slug": "lampe"}))
	assert.ErrorIs(t, err, repository.ErrConflict)
}

func TestProducts_UpdateIsShallowMerge(t *testing.T) {
	ctx := context.Background()
	s := New()

	p := &model.Product{
		Title: "X", Reference: "R1", Category: "C", Description: "keep me",
		Specifications: model.JSONList[model.Spec]{{Label: "a", Value: "1"}, {Label: "b", Value: "2"}},
	}
	require.NoError(t, s.Products().Create(ctx, p))
	created := p.CreatedAt

	upd, err := s.Products().Update(ctx, p.ID, patch(t, map[string]any{
		"title":          "Y",
		"specifications": []model.Spec{{Label: "c", Value: "3"}},
		"id":             999,
		"created_at":     "2000-01-01T00:00:00Z",
	}))
	require.NoError(t, err)
	assert.Equal(t, p.ID, upd.ID)
	assert.Equal(t, "Y", upd.Title)
	assert.Equal(t, "keep me", upd.Description)
	assert.Equal(t, "R1", upd.Reference)
	assert.Equal(t, model.JSONList[model.Spec]{{Label: "c", Value: "3"}}, upd.Specifications)
	assert.Equal(t, created, upd.CreatedAt)

	got, err := s.Products().Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, *upd, *got)
}

func TestProducts_UpdateRejectsClearingRequiredField(t *testing.T) {
	ctx := context.Background()
	s := New()

	p := &model.Product{Title: "X", Reference: "R1", Category: "C"}
	require.NoError(t, s.Products().Create(ctx, p))

	_, err := s.Products().Update(ctx, p.ID, patch(t, map[string]any{"reference": ""}))
	assert.ErrorIs(t, err, model.ErrValidation)

	got, err := s.Products().Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "R1", got.Reference)
}

func TestProducts_DeleteAndIDsNotReused(t *testing.T) {
	ctx := context.Background()
	s := New()

	a := &model.Product{Title: "A", Reference: "A", Category: "C"}
	b := &model.Product{Title: "B", Reference: "B", Category: "C"}
	require.NoError(t, s.Products().Create(ctx, a))
	require.NoError(t, s.Products().Create(ctx, b))

	require.NoError(t, s.Products().Delete(ctx, b.ID))
	_, err := s.Products().Get(ctx, b.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
	assert.ErrorIs(t, s.Products().Delete(ctx, b.ID), repository.ErrNotFound)

	c := &model.Product{Title: "C", Reference: "C", Category: "C"}
	require.NoError(t, s.Products().Create(ctx, c))
	assert.Equal(t, uint64(3), c.ID)
}

func TestProducts_ReturnedValuesAreCopies(t *testing.T) {
	ctx := context.Background()
	s := New()

	p := &model.Product{Title: "A", Reference: "A", Category: "C", Benefits: model.JSONList[string]{"one"}}
	require.NoError(t, s.Products().Create(ctx, p))
	p.Benefits[0] = "mutated"

	got, err := s.Products().Get(ctx, p.ID)
	require.NoError(t, err)
	got.Benefits[0] = "mutated again"

	again, err := s.Products().Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "one", again.Benefits[0])
}

func TestProducts_GetBySlug(t *testing.T) {
	ctx := context.Background()
	s := New()

	require.NoError(t, s.Products().Create(ctx, &model.Product{Title: "Prise Connectée", Reference: "P", Category: "C"}))
	got, err := s.Products().GetBySlug(ctx, "prise-connectee")
	require.NoError(t, err)
	assert.Equal(t, "P", got.Reference)

	_, err = s.Products().GetBySlug(ctx, "absent")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestSlides_ListActiveOrdered(t *testing.T) {
	ctx := context.Background()
	s := New()

	for _, sl := range []model.Slide{
		{Title: "third", SortOrder: 3, IsActive: true},
		{Title: "hidden", SortOrder: 0, IsActive: false},
		{Title: "first", SortOrder: 1, IsActive: true},
	} {
		sl := sl
		require.NoError(t, s.Slides().Create(ctx, &sl))
	}

	active, err := s.Slides().ListActive(ctx)
	require.NoError(t, err)
	require.Len(t, active, 2)
	assert.Equal(t, "first", active[0].Title)
	assert.Equal(t, "third", active[1].Title)

	all, err := s.Slides().List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)
	assert.Equal(t, "hidden", all[0].Title)
}

func TestBlogs_PublishedAtStampedOnce(t *testing.T) {
	ctx := context.Background()
	s := New()

	b := &model.BlogPost{Title: "Bonjour", Content: "<p>x</p><script>bad()</script>"}
	require.NoError(t, s.Blogs().Create(ctx, b))
	assert.Equal(t, model.StatusDraft, b.Status)
	assert.Nil(t, b.PublishedAt)
	assert.NotContains(t, b.Content, "script")

	_, err := s.Blogs().GetPublishedBySlug(ctx, "bonjour")
	assert.ErrorIs(t, err, repository.ErrNotFound)

	upd, err := s.Blogs().Update(ctx, b.ID, patch(t, map[string]any{"status": "published"}))
	require.NoError(t, err)
	require.NotNil(t, upd.PublishedAt)
	first := *upd.PublishedAt

	upd, err = s.Blogs().Update(ctx, b.ID, patch(t, map[string]any{"title": "Bonjour encore"}))
	require.NoError(t, err)
	assert.Equal(t, first, *upd.PublishedAt)
	assert.Equal(t, "bonjour", upd.Slug)

	got, err := s.Blogs().GetPublishedBySlug(ctx, "bonjour")
	require.NoError(t, err)
	assert.Equal(t, b.ID, got.ID)

	_, err = s.Blogs().Update(ctx, b.ID, patch(t, map[string]any{"status": "archived"}))
	assert.ErrorIs(t, err, model.ErrValidation)
}

func TestStats(t *testing.T) {
	ctx := context.Background()
	s, err := NewSeeded(ctx)
	require.NoError(t, err)

	st, err := s.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, model.DashboardStats{
		Products: 3, Slides: 3, Blogs: 2, Features: 4,
		ActiveSlides: 2, PublishedBlogs: 1, ActiveFeatures: 4,
		Backend: repository.BackendMemory,
	}, st)
}

func TestSeeded_NextIDContinues(t *testing.T) {
	ctx := context.Background()
	s, err := NewSeeded(ctx)
	require.NoError(t, err)

	p := &model.Product{Title: "Nouveau", Reference: "N", Category: "C"}
	require.NoError(t, s.Products().Create(ctx, p))
	assert.Equal(t, uint64(4), p.ID)
}

func TestUsers_EnsureAdminNeverOverwrites(t *testing.T) {
	ctx := context.Background()
	s := New()

	created, err := s.Users().EnsureAdmin(ctx, "admin_spiderhome", "hash-1", model.RoleAdmin)
	require.NoError(t, err)
	assert.True(t, created)

	created, err = s.Users().EnsureAdmin(ctx, "admin_spiderhome", "hash-2", model.RoleAdmin)
	require.NoError(t, err)
	assert.False(t, created)

	u, err := s.Users().GetByUsername(ctx, "admin_spiderhome")
	require.NoError(t, err)
	assert.Equal(t, "hash-1", u.PasswordHash)

	byID, err := s.Users().GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, u.Username, byID.Username)

	_, err = s.Users().GetByUsername(ctx, "nobody")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestLoginAttempts_CountFailuresInWindow(t *testing.T) {
	ctx := context.Background()
	s := New()
	now := time.Now().UTC()

	require.NoError(t, s.LoginAttempts().Record(ctx, model.LoginAttempt{IP: "1.1.1.1", AttemptedAt: now.Add(-time.Hour)}))
	require.NoError(t, s.LoginAttempts().Record(ctx, model.LoginAttempt{IP: "1.1.1.1", AttemptedAt: now}))
	require.NoError(t, s.LoginAttempts().Record(ctx, model.LoginAttempt{IP: "1.1.1.1", Success: true, AttemptedAt: now}))
	require.NoError(t, s.LoginAttempts().Record(ctx, model.LoginAttempt{IP: "2.2.2.2", AttemptedAt: now}))

	n, err := s.LoginAttempts().CountFailures(ctx, "1.1.1.1", now.Add(-15*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestConcurrentCreatesGetDistinctIDs(t *testing.T) {
	ctx := context.Background()
	s := New()

	const n = 50
	var wg sync.WaitGroup
	ids := make(chan uint64, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			f := &model.Feature{Title: "f"}
			if err := s.Features().Create(ctx, f); err == nil {
				ids <- f.ID
			}
		}()
	}
	wg.Wait()
	close(ids)

	seen := map[uint64]bool{}
	for id := range ids {
		assert.False(t, seen[id], "duplicate id %d", id)
		seen[id] = true
	}
	assert.Len(t, seen, n)
}
