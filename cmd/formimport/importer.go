package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/talavis/OrderPortal/internal/auth"
	"github.com/talavis/OrderPortal/internal/models"
	"github.com/talavis/OrderPortal/internal/service"
)

// definitionFile is the YAML layout read by formimport.
type definitionFile struct {
	Forms []formDefinition `yaml:"forms"`
}

type formDefinition struct {
	Title       string         `yaml:"title"`
	Description string         `yaml:"description"`
	Status      string         `yaml:"status"`
	Fields      []models.Field `yaml:"fields"`
}

func parseDefinitions(r io.Reader) ([]formDefinition, error) {
	var file definitionFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil {
		return nil, fmt.Errorf("parse definitions: %w", err)
	}
	for i, d := range file.Forms {
		switch d.Status {
		case "", models.StatusPending, models.StatusEnabled, models.StatusDisabled:
		default:
			return nil, fmt.Errorf("form %d (%q): unknown status %q", i+1, d.Title, d.Status)
		}
	}
	return file.Forms, nil
}

type importResult struct {
	Created []string
	Failed  int
}

// importForms creates every definition through the form service. A failed
// definition is logged and skipped; the others are still imported.
func importForms(ctx context.Context, svc *service.FormService, user *auth.Claims, defs []formDefinition, logger *slog.Logger) importResult {
	var res importResult
	start := time.Now()
	for i, d := range defs {
		id, err := importForm(ctx, svc, user, d)
		if err != nil {
			res.Failed++
			logger.Error("form not imported",
				slog.Int("index", i+1),
				slog.String("title", d.Title),
				slog.String("error", err.Error()),
			)
			continue
		}
		res.Created = append(res.Created, id)
		logger.Info("form imported",
			slog.String("form_id", id),
			slog.String("title", d.Title),
			slog.Int("fields", len(d.Fields)),
		)
	}
	logger.Info("import finished",
		slog.Int("created", len(res.Created)),
		slog.Int("failed", res.Failed),
		slog.Duration("took", time.Since(start)),
	)
	return res
}

func importForm(ctx context.Context, svc *service.FormService, user *auth.Claims, d formDefinition) (string, error) {
	form, err := svc.CreateWithFields(ctx, user, d.Title, d.Description, d.Fields)
	if err != nil {
		return "", err
	}
	switch d.Status {
	case models.StatusEnabled:
		_, err = svc.Enable(ctx, user, form.ID)
	case models.StatusDisabled:
		_, err = svc.Disable(ctx, user, form.ID)
	}
	if err != nil {
		return form.ID, fmt.Errorf("set status of %s: %w", form.ID, err)
	}
	return form.ID, nil
}
