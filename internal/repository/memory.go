package repository

import (
	"context"
	"sort"
	"sync"

	"github.com/talavis/OrderPortal/internal/apperr"
	"github.com/talavis/OrderPortal/internal/models"
)

// Memory keeps forms, logs and users in process memory. It backs the
// memory storage mode and the service tests. The zero value is not
// usable; call NewMemory.
type Memory struct {
	mu     sync.Mutex
	forms  map[string]*models.Form
	logs   []models.LogEntry
	users  map[string]*models.User
	writes int
}

func NewMemory() *Memory {
	return &Memory{
		forms: make(map[string]*models.Form),
		users: make(map[string]*models.User),
	}
}

// Forms returns the form repository view of the store.
func (m *Memory) Forms() *MemoryForms { return &MemoryForms{m} }

// Logs returns the log repository view of the store.
func (m *Memory) Logs() *MemoryLogs { return &MemoryLogs{m} }

// Users returns the user repository view of the store.
func (m *Memory) Users() *MemoryUsers { return &MemoryUsers{m} }

// Writes counts committed form writes: creates, updates and deletes.
func (m *Memory) Writes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.writes
}

type MemoryForms struct{ m *Memory }

func (r *MemoryForms) FindByID(_ context.Context, id string) (*models.Form, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	f, ok := r.m.forms[id]
	if !ok {
		return nil, nil
	}
	return f.Clone(), nil
}

func (r *MemoryForms) FindAll(_ context.Context) ([]models.Form, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	out := make([]models.Form, 0, len(r.m.forms))
	for _, f := range r.m.forms {
		out = append(out, *f.Clone())
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Modified != out[j].Modified {
			return out[i].Modified > out[j].Modified
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *MemoryForms) Create(_ context.Context, form *models.Form, entry *models.LogEntry) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if _, ok := r.m.forms[form.ID]; ok {
		return apperr.Conflict("form already exists")
	}
	r.m.forms[form.ID] = form.Clone()
	r.m.logs = append(r.m.logs, *entry)
	r.m.writes++
	return nil
}

func (r *MemoryForms) Update(_ context.Context, form *models.Form, entry *models.LogEntry) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if _, ok := r.m.forms[form.ID]; !ok {
		return apperr.NotFound("no such form")
	}
	r.m.forms[form.ID] = form.Clone()
	r.m.logs = append(r.m.logs, *entry)
	r.m.writes++
	return nil
}

func (r *MemoryForms) Delete(_ context.Context, id string) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	kept := r.m.logs[:0]
	for _, e := range r.m.logs {
		if e.DocID != id {
			kept = append(kept, e)
		}
	}
	r.m.logs = kept
	delete(r.m.forms, id)
	r.m.writes++
	return nil
}

type MemoryLogs struct{ m *Memory }

func (r *MemoryLogs) FindByDoc(_ context.Context, docID string) ([]models.LogEntry, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var out []models.LogEntry
	for i := len(r.m.logs) - 1; i >= 0; i-- {
		if r.m.logs[i].DocID == docID {
			out = append(out, r.m.logs[i])
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp > out[j].Timestamp
	})
	return out, nil
}

type MemoryUsers struct{ m *Memory }

func (r *MemoryUsers) FindByEmail(_ context.Context, email string) (*models.User, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	for _, u := range r.m.users {
		if u.Email == email {
			c := *u
			return &c, nil
		}
	}
	return nil, nil
}

func (r *MemoryUsers) FindByID(_ context.Context, id string) (*models.User, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	u, ok := r.m.users[id]
	if !ok {
		return nil, nil
	}
	c := *u
	return &c, nil
}

func (r *MemoryUsers) Create(_ context.Context, user *models.User) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	for _, u := range r.m.users {
		if u.Email == user.Email {
			return apperr.Conflict("email already registered")
		}
	}
	c := *user
	r.m.users[user.ID] = &c
	return nil
}
