package service

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/talavis/OrderPortal/internal/apperr"
	"github.com/talavis/OrderPortal/internal/auth"
	"github.com/talavis/OrderPortal/internal/fields"
	"github.com/talavis/OrderPortal/internal/keyword"
	"github.com/talavis/OrderPortal/internal/models"
)

type FormService struct {
	forms  FormRepository
	logs   LogRepository
	logger *slog.Logger
	now    func() time.Time
}

func NewFormService(forms FormRepository, logs LogRepository, logger *slog.Logger) *FormService {
	return &FormService{
		forms:  forms,
		logs:   logs,
		logger: logger.With(slog.String("component", "form_service")),
		now:    time.Now,
	}
}

// List returns all forms, most recently modified first. A non-empty query
// keeps the forms whose title contains every query keyword.
func (s *FormService) List(ctx context.Context, user *auth.Claims, query string) ([]models.Form, error) {
	if err := auth.RequireStaff(user); err != nil {
		return nil, err
	}
	all, err := s.forms.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(query) == "" {
		return all, nil
	}
	out := all[:0]
	for _, f := range all {
		if keyword.Match(f.Title, query) {
			out = append(out, f)
		}
	}
	return out, nil
}

func (s *FormService) Get(ctx context.Context, user *auth.Claims, id string) (*models.Form, error) {
	if err := auth.RequireStaff(user); err != nil {
		return nil, err
	}
	return s.load(ctx, id)
}

// Logs returns the audit entries of a form, newest first.
func (s *FormService) Logs(ctx context.Context, user *auth.Claims, id string) ([]models.LogEntry, error) {
	if err := auth.RequireStaff(user); err != nil {
		return nil, err
	}
	return s.logs.FindByDoc(ctx, id)
}

// GetEditable loads a form the caller may edit.
func (s *FormService) GetEditable(ctx context.Context, user *auth.Claims, id string) (*models.Form, error) {
	form, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := CheckEditable(user, form); err != nil {
		return nil, err
	}
	return form, nil
}

// GetField loads an editable form and one of its fields.
func (s *FormService) GetField(ctx context.Context, user *auth.Claims, id, identifier string) (*models.Form, models.Field, error) {
	form, err := s.GetEditable(ctx, user, id)
	if err != nil {
		return nil, models.Field{}, err
	}
	field, ok := fields.New(form.Fields).Get(identifier)
	if !ok {
		return nil, models.Field{}, apperr.NotFound("no such field")
	}
	return form, field, nil
}

// Create makes a new pending form owned by the caller.
func (s *FormService) Create(ctx context.Context, user *auth.Claims, title, description string) (*models.Form, error) {
	return s.CreateWithFields(ctx, user, title, description, nil)
}

// CreateWithFields makes a new pending form and adds the given fields in
// order, all in one commit. Each field is validated as by AddField.
func (s *FormService) CreateWithFields(ctx context.Context, user *auth.Claims, title, description string, defs []models.Field) (*models.Form, error) {
	if err := auth.RequireAdmin(user); err != nil {
		return nil, err
	}
	if err := requireTitle(title); err != nil {
		return nil, err
	}
	return s.edit(ctx, user, nil, func(sv *formSaver) error {
		sv.SetTitle(title)
		sv.SetDescription(description)
		for _, f := range defs {
			if err := sv.AddField(f.Identifier, fields.AttributesOf(f)); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *FormService) Edit(ctx context.Context, user *auth.Claims, id, title, description string) (*models.Form, error) {
	form, err := s.GetEditable(ctx, user, id)
	if err != nil {
		return nil, err
	}
	if err := requireTitle(title); err != nil {
		return nil, err
	}
	return s.edit(ctx, user, form, func(sv *formSaver) error {
		sv.SetTitle(title)
		sv.SetDescription(description)
		return nil
	})
}

func (s *FormService) AddField(ctx context.Context, user *auth.Claims, id, identifier string, attrs fields.Attributes) (*models.Form, error) {
	form, err := s.GetEditable(ctx, user, id)
	if err != nil {
		return nil, err
	}
	return s.edit(ctx, user, form, func(sv *formSaver) error {
		return sv.AddField(identifier, attrs)
	})
}

func (s *FormService) UpdateField(ctx context.Context, user *auth.Claims, id, identifier string, attrs fields.Attributes) (*models.Form, error) {
	form, err := s.GetEditable(ctx, user, id)
	if err != nil {
		return nil, err
	}
	return s.edit(ctx, user, form, func(sv *formSaver) error {
		return sv.UpdateField(identifier, attrs)
	})
}

func (s *FormService) DeleteField(ctx context.Context, user *auth.Claims, id, identifier string) (*models.Form, error) {
	form, err := s.GetEditable(ctx, user, id)
	if err != nil {
		return nil, err
	}
	return s.edit(ctx, user, form, func(sv *formSaver) error {
		return sv.DeleteField(identifier)
	})
}

// Copy makes a new pending form with the title, description and fields of
// an existing one. Fields are copied as they are, duplicates included.
func (s *FormService) Copy(ctx context.Context, user *auth.Claims, id string) (*models.Form, error) {
	if err := auth.RequireAdmin(user); err != nil {
		return nil, err
	}
	src, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.edit(ctx, user, nil, func(sv *formSaver) error {
		sv.SetTitle("Copy of " + src.Title)
		sv.SetDescription(src.Description)
		sv.CopyFields(src)
		return nil
	})
}

func (s *FormService) Enable(ctx context.Context, user *auth.Claims, id string) (*models.Form, error) {
	return s.setStatus(ctx, user, id, models.StatusEnabled)
}

func (s *FormService) Disable(ctx context.Context, user *auth.Claims, id string) (*models.Form, error) {
	return s.setStatus(ctx, user, id, models.StatusDisabled)
}

// setStatus moves a form to status. A form already there is returned as is.
func (s *FormService) setStatus(ctx context.Context, user *auth.Claims, id, status string) (*models.Form, error) {
	if err := auth.RequireAdmin(user); err != nil {
		return nil, err
	}
	form, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if form.Status == status {
		return form, nil
	}
	if err := checkTransition(form.Status, status); err != nil {
		return nil, err
	}
	return s.edit(ctx, user, form, func(sv *formSaver) error {
		sv.SetStatus(status)
		return nil
	})
}

// Delete removes a pending form and its log entries.
func (s *FormService) Delete(ctx context.Context, user *auth.Claims, id string) error {
	form, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if err := CheckEditable(user, form); err != nil {
		return err
	}
	if err := s.forms.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "form deleted",
		slog.String("form_id", id),
		slog.String("account", user.Email),
	)
	return nil
}

// edit runs fn on a saver for form, or for a new form when form is nil,
// and commits once if fn succeeds. Nothing is written when fn fails.
func (s *FormService) edit(ctx context.Context, user *auth.Claims, form *models.Form, fn func(*formSaver) error) (*models.Form, error) {
	var sv *formSaver
	if form == nil {
		sv = newFormSaver(user.Email)
	} else {
		sv = editFormSaver(form)
	}
	if err := fn(sv); err != nil {
		return nil, err
	}
	if err := sv.commit(ctx, s.forms, user.Email, s.now()); err != nil {
		return nil, err
	}

	kind := "update"
	if sv.isNew {
		kind = "create"
	}
	formCommitsTotal.WithLabelValues(kind).Inc()
	s.logger.InfoContext(ctx, "form saved",
		slog.String("form_id", sv.form.ID),
		slog.String("kind", kind),
		slog.String("account", user.Email),
	)
	return sv.Form(), nil
}

func (s *FormService) load(ctx context.Context, id string) (*models.Form, error) {
	form, err := s.forms.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if form == nil {
		return nil, apperr.NotFound("no such form")
	}
	return form, nil
}

func requireTitle(title string) error {
	if strings.TrimSpace(title) == "" {
		return apperr.Validation("title is required")
	}
	return nil
}
