package service

import (
	"context"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/talavis/OrderPortal/internal/models"
)

// CachedForms is a FormRepository that serves FindByID from an expiring
// LRU cache. Writes go to the wrapped repository and drop the cached form.
//
// Every write bumps gen after dropping its entry; a miss only fills the
// cache if no write finished while it read the repository, so a form
// read before a concurrent write is never cached after it.
type CachedForms struct {
	FormRepository
	cache *expirable.LRU[string, *models.Form]

	mu  sync.Mutex
	gen uint64
}

func NewCachedForms(repo FormRepository, size int, ttl time.Duration) *CachedForms {
	return &CachedForms{
		FormRepository: repo,
		cache:          expirable.NewLRU[string, *models.Form](size, nil, ttl),
	}
}

func (c *CachedForms) FindByID(ctx context.Context, id string) (*models.Form, error) {
	if form, ok := c.cache.Get(id); ok {
		formCacheHitsTotal.Inc()
		return form.Clone(), nil
	}
	formCacheMissesTotal.Inc()
	gen := c.generation()
	form, err := c.FormRepository.FindByID(ctx, id)
	if err != nil || form == nil {
		return form, err
	}
	c.mu.Lock()
	if c.gen == gen {
		c.cache.Add(id, form.Clone())
	}
	c.mu.Unlock()
	return form, nil
}

func (c *CachedForms) Create(ctx context.Context, form *models.Form, entry *models.LogEntry) error {
	defer c.invalidate(form.ID)
	return c.FormRepository.Create(ctx, form, entry)
}

func (c *CachedForms) Update(ctx context.Context, form *models.Form, entry *models.LogEntry) error {
	defer c.invalidate(form.ID)
	return c.FormRepository.Update(ctx, form, entry)
}

func (c *CachedForms) Delete(ctx context.Context, id string) error {
	defer c.invalidate(id)
	return c.FormRepository.Delete(ctx, id)
}

func (c *CachedForms) generation() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gen
}

func (c *CachedForms) invalidate(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cache.Remove(id)
	c.gen++
}

// Len returns the number of cached forms.
func (c *CachedForms) Len() int {
	return c.cache.Len()
}
