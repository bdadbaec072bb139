package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talavis/OrderPortal/internal/models"
	"github.com/talavis/OrderPortal/internal/repository"
)

type countingForms struct {
	FormRepository
	finds int
}

func (c *countingForms) FindByID(ctx context.Context, id string) (*models.Form, error) {
	c.finds++
	return c.FormRepository.FindByID(ctx, id)
}

func TestCachedFormsServesRepeatLookups(t *testing.T) {
	repo := &countingForms{FormRepository: repository.NewMemory().Forms()}
	cached := NewCachedForms(repo, 16, time.Minute)
	ctx := context.Background()
	require.NoError(t, cached.Create(ctx, &models.Form{ID: "f1", Title: "A"}, &models.LogEntry{DocID: "f1"}))

	for i := 0; i < 3; i++ {
		form, err := cached.FindByID(ctx, "f1")
		require.NoError(t, err)
		assert.Equal(t, "A", form.Title)
	}
	assert.Equal(t, 1, repo.finds)

	// callers get their own copy
	form, _ := cached.FindByID(ctx, "f1")
	form.Title = "mutated"
	again, _ := cached.FindByID(ctx, "f1")
	assert.Equal(t, "A", again.Title)
}

func TestCachedFormsInvalidatesOnWrite(t *testing.T) {
	repo := &countingForms{FormRepository: repository.NewMemory().Forms()}
	cached := NewCachedForms(repo, 16, time.Minute)
	ctx := context.Background()
	require.NoError(t, cached.Create(ctx, &models.Form{ID: "f1", Title: "A"}, &models.LogEntry{DocID: "f1"}))
	_, err := cached.FindByID(ctx, "f1")
	require.NoError(t, err)
	assert.Equal(t, 1, cached.Len())

	require.NoError(t, cached.Update(ctx, &models.Form{ID: "f1", Title: "B"}, &models.LogEntry{DocID: "f1"}))
	assert.Zero(t, cached.Len())
	form, err := cached.FindByID(ctx, "f1")
	require.NoError(t, err)
	assert.Equal(t, "B", form.Title)

	require.NoError(t, cached.Delete(ctx, "f1"))
	form, err = cached.FindByID(ctx, "f1")
	require.NoError(t, err)
	assert.Nil(t, form)
	// misses are not cached
	assert.Zero(t, cached.Len())
}

// racingForms runs a write in the middle of a lookup, after the stored
// form has been read.
type racingForms struct {
	FormRepository
	during func()
}

func (r *racingForms) FindByID(ctx context.Context, id string) (*models.Form, error) {
	form, err := r.FormRepository.FindByID(ctx, id)
	if r.during != nil {
		during := r.during
		r.during = nil
		during()
	}
	return form, err
}

func TestCachedFormsDoesNotCacheReadOlderThanWrite(t *testing.T) {
	repo := &racingForms{FormRepository: repository.NewMemory().Forms()}
	cached := NewCachedForms(repo, 16, time.Minute)
	ctx := context.Background()
	require.NoError(t, cached.Create(ctx, &models.Form{ID: "f1", Title: "A"}, &models.LogEntry{DocID: "f1"}))

	repo.during = func() {
		require.NoError(t, cached.Update(ctx, &models.Form{ID: "f1", Title: "B"}, &models.LogEntry{DocID: "f1"}))
	}
	stale, err := cached.FindByID(ctx, "f1")
	require.NoError(t, err)
	assert.Equal(t, "A", stale.Title)
	assert.Zero(t, cached.Len())

	form, err := cached.FindByID(ctx, "f1")
	require.NoError(t, err)
	assert.Equal(t, "B", form.Title)
	assert.Equal(t, 1, cached.Len())
}

func TestServiceOverCachedForms(t *testing.T) {
	store := repository.NewMemory()
	svc := NewFormService(NewCachedForms(store.Forms(), 16, time.Minute), store.Logs(), discardLogger())
	ctx := context.Background()

	form, err := svc.Create(ctx, admin, "Sequencing", "")
	require.NoError(t, err)
	_, err = svc.Get(ctx, staff, form.ID)
	require.NoError(t, err)
	_, err = svc.Enable(ctx, admin, form.ID)
	require.NoError(t, err)

	got, err := svc.Get(ctx, staff, form.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusEnabled, got.Status)
}
