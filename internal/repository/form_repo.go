package repository

import (
	"context"
	"fmt"

	"github.com/talavis/OrderPortal/internal/apperr"
	"github.com/talavis/OrderPortal/internal/db"
	"github.com/talavis/OrderPortal/internal/models"
	"github.com/talavis/OrderPortal/internal/oxidb"
)

const FormsCollection = "_op_forms"

type FormRepo struct {
	pool *db.Pool
}

func NewFormRepo(pool *db.Pool) *FormRepo {
	return &FormRepo{pool: pool}
}

func (r *FormRepo) EnsureIndexes(ctx context.Context) error {
	return r.pool.Do(ctx, func(c *oxidb.Client) error {
		if err := c.CreateUniqueIndex(ctx, FormsCollection, "iuid"); err != nil {
			return err
		}
		return c.CreateIndex(ctx, FormsCollection, "modified")
	})
}

// FindByID returns the form with the given iuid, or nil if there is none.
func (r *FormRepo) FindByID(ctx context.Context, id string) (*models.Form, error) {
	var form *models.Form
	err := r.pool.Do(ctx, func(c *oxidb.Client) error {
		doc, err := c.FindOne(ctx, FormsCollection, map[string]any{"iuid": id})
		if err != nil || doc == nil {
			return err
		}
		form, err = fromDoc[models.Form](doc)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("find form %s: %w", id, err)
	}
	return form, nil
}

// FindAll returns all forms, most recently modified first.
func (r *FormRepo) FindAll(ctx context.Context) ([]models.Form, error) {
	var docs []map[string]any
	err := r.pool.Do(ctx, func(c *oxidb.Client) error {
		var err error
		docs, err = c.Find(ctx, FormsCollection, map[string]any{}, &oxidb.FindOptions{
			Sort: map[string]any{"modified": -1},
		})
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("find forms: %w", err)
	}
	return fromDocs[models.Form](FormsCollection, docs), nil
}

// Create inserts a new form together with its first log entry.
func (r *FormRepo) Create(ctx context.Context, form *models.Form, entry *models.LogEntry) error {
	doc, err := toDoc(form)
	if err != nil {
		return err
	}
	err = r.pool.InTx(ctx, func(c *oxidb.Client) error {
		if _, err := c.Insert(ctx, FormsCollection, doc); err != nil {
			return err
		}
		return insertLog(ctx, c, entry)
	})
	if err != nil {
		return fmt.Errorf("create form %s: %w", form.ID, err)
	}
	return nil
}

// Update replaces a stored form and appends a log entry. A form deleted
// since it was loaded is not recreated and gets no log entry.
func (r *FormRepo) Update(ctx context.Context, form *models.Form, entry *models.LogEntry) error {
	doc, err := toDoc(form)
	if err != nil {
		return err
	}
	err = r.pool.InTx(ctx, func(c *oxidb.Client) error {
		current, err := c.FindOne(ctx, FormsCollection, map[string]any{"iuid": form.ID})
		if err != nil {
			return err
		}
		if current == nil {
			return apperr.NotFound("no such form")
		}
		if _, err := c.UpdateOne(ctx, FormsCollection, map[string]any{"iuid": form.ID}, map[string]any{"$set": doc}); err != nil {
			return err
		}
		return insertLog(ctx, c, entry)
	})
	if err != nil {
		return fmt.Errorf("update form %s: %w", form.ID, err)
	}
	return nil
}

// Delete removes the log entries of a form and then the form itself.
func (r *FormRepo) Delete(ctx context.Context, id string) error {
	err := r.pool.InTx(ctx, func(c *oxidb.Client) error {
		if err := deleteLogs(ctx, c, id); err != nil {
			return err
		}
		_, err := c.DeleteOne(ctx, FormsCollection, map[string]any{"iuid": id})
		return err
	})
	if err != nil {
		return fmt.Errorf("delete form %s: %w", id, err)
	}
	return nil
}
