package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/talavis/OrderPortal/internal/fields"
	"github.com/talavis/OrderPortal/internal/models"
)

const docTypeForm = "form"

var errAlreadyCommitted = errors.New("form saver already committed")

// formSaver stages changes to one form. Staged changes reach storage only
// through commit, which writes the form and a single log entry holding
// every change made through the saver.
type formSaver struct {
	form      *models.Form
	fields    *fields.Collection
	changed   map[string]any
	isNew     bool
	committed bool
}

// newFormSaver starts a new pending form without fields.
func newFormSaver(owner string) *formSaver {
	return &formSaver{
		form: &models.Form{
			ID:     newIUID(),
			Status: models.StatusPending,
			Owner:  owner,
		},
		fields:  fields.New(nil),
		changed: map[string]any{"status": models.StatusPending, "owner": owner},
		isNew:   true,
	}
}

// editFormSaver stages changes on a copy of an existing form.
func editFormSaver(form *models.Form) *formSaver {
	c := form.Clone()
	return &formSaver{
		form:    c,
		fields:  fields.New(c.Fields),
		changed: map[string]any{},
	}
}

func (s *formSaver) SetTitle(title string) {
	s.set("title", &s.form.Title, strings.TrimSpace(title))
}

func (s *formSaver) SetDescription(description string) {
	s.set("description", &s.form.Description, strings.TrimSpace(description))
}

func (s *formSaver) SetStatus(status string) {
	s.set("status", &s.form.Status, status)
}

func (s *formSaver) SetOwner(owner string) {
	s.set("owner", &s.form.Owner, owner)
}

func (s *formSaver) set(key string, dst *string, value string) {
	*dst = value
	s.changed[key] = value
}

func (s *formSaver) AddField(identifier string, attrs fields.Attributes) error {
	seq, err := s.fields.Add(identifier, attrs)
	if err != nil {
		return err
	}
	s.changed["fields"] = seq
	return nil
}

func (s *formSaver) UpdateField(identifier string, attrs fields.Attributes) error {
	seq, err := s.fields.Update(identifier, attrs)
	if err != nil {
		return err
	}
	s.changed["fields"] = seq
	return nil
}

func (s *formSaver) DeleteField(identifier string) error {
	removal, err := s.fields.Delete(identifier)
	if err != nil {
		return err
	}
	s.changed["fields"] = removal
	return nil
}

// CopyFields appends every field of src verbatim.
func (s *formSaver) CopyFields(src *models.Form) {
	for _, f := range src.Fields {
		s.fields.Copy(f)
	}
	s.changed["copied"] = "from " + src.ID
}

// Form returns the staged form.
func (s *formSaver) Form() *models.Form {
	f := s.form.Clone()
	f.Fields = s.fields.List()
	return f
}

// commit writes the staged form and its log entry. It runs at most once.
func (s *formSaver) commit(ctx context.Context, repo FormRepository, account string, now time.Time) error {
	if s.committed {
		return errAlreadyCommitted
	}
	s.committed = true

	ts := models.Timestamp(now)
	s.form.Fields = s.fields.List()
	s.form.Modified = ts
	if s.isNew {
		s.form.Created = ts
	}
	entry := &models.LogEntry{
		ID:        newIUID(),
		DocID:     s.form.ID,
		DocType:   docTypeForm,
		Changed:   s.changed,
		Account:   account,
		Timestamp: ts,
	}

	var err error
	if s.isNew {
		err = repo.Create(ctx, s.form, entry)
	} else {
		err = repo.Update(ctx, s.form, entry)
	}
	if err != nil {
		return fmt.Errorf("commit form %s: %w", s.form.ID, err)
	}
	return nil
}

func newIUID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}
