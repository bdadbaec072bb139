package handler

import (
	"log/slog"
	"net/http"

	"github.com/talavis/OrderPortal/internal/auth"
	"github.com/talavis/OrderPortal/internal/models"
	"github.com/talavis/OrderPortal/internal/service"
)

// recentForms is the number of forms listed on the dashboard.
const recentForms = 10

type DashboardHandler struct {
	formSvc *service.FormService
	logger  *slog.Logger
}

func NewDashboardHandler(formSvc *service.FormService, logger *slog.Logger) *DashboardHandler {
	return &DashboardHandler{formSvc: formSvc, logger: logger.With(slog.String("component", "dashboard_handler"))}
}

type formSummary struct {
	ID         string `json:"iuid"`
	Title      string `json:"title"`
	Status     string `json:"status"`
	FieldCount int    `json:"fieldCount"`
	Modified   string `json:"modified"`
}

// Dashboard handles GET /dashboard: form counts by status and the most
// recently modified forms.
func (h *DashboardHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	forms, err := h.formSvc.List(r.Context(), auth.GetUser(r.Context()), "")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	byStatus := map[string]int{
		models.StatusPending:  0,
		models.StatusEnabled:  0,
		models.StatusDisabled: 0,
	}
	recent := make([]formSummary, 0, recentForms)
	for _, f := range forms {
		byStatus[f.Status]++
		if len(recent) < recentForms {
			recent = append(recent, formSummary{
				ID:         f.ID,
				Title:      f.Title,
				Status:     f.Status,
				FieldCount: len(f.Fields),
				Modified:   f.Modified,
			})
		}
	}

	writeJSON(w, r, http.StatusOK, map[string]any{
		"formCount": len(forms),
		"byStatus":  byStatus,
		"forms":     recent,
	})
}
