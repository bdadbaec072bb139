package service

import (
	"context"

	"github.com/talavis/OrderPortal/internal/models"
)

// FormRepository persists forms. Create and Update store the log entry in
// the same atomic write as the form; Delete removes the form's log entries
// together with the form. FindByID returns nil, nil for a missing form.
type FormRepository interface {
	FindByID(ctx context.Context, id string) (*models.Form, error)
	FindAll(ctx context.Context) ([]models.Form, error)
	Create(ctx context.Context, form *models.Form, entry *models.LogEntry) error
	Update(ctx context.Context, form *models.Form, entry *models.LogEntry) error
	Delete(ctx context.Context, id string) error
}

type LogRepository interface {
	FindByDoc(ctx context.Context, docID string) ([]models.LogEntry, error)
}

type UserRepository interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
}
