package handler

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/talavis/OrderPortal/internal/apperr"
	"github.com/talavis/OrderPortal/internal/auth"
	"github.com/talavis/OrderPortal/internal/fields"
	"github.com/talavis/OrderPortal/internal/models"
	"github.com/talavis/OrderPortal/internal/service"
)

// methodOverride is the form argument that turns a POST into a DELETE.
const methodOverride = "_http_method"

type FormHandler struct {
	svc    *service.FormService
	logger *slog.Logger
}

func NewFormHandler(svc *service.FormService, logger *slog.Logger) *FormHandler {
	return &FormHandler{svc: svc, logger: logger.With(slog.String("component", "form_handler"))}
}

type formRequest struct {
	Title       string `form:"title" validate:"required"`
	Description string `form:"description"`
}

func readFormRequest(r *http.Request) (formRequest, error) {
	if err := parseForm(r); err != nil {
		return formRequest{}, err
	}
	req := formRequest{
		Title:       strings.TrimSpace(r.Form.Get("title")),
		Description: r.Form.Get("description"),
	}
	return req, validateRequest(req)
}

type fieldRequest struct {
	Identifier    string   `form:"identifier" validate:"required"`
	Type          string   `form:"type" validate:"required"`
	Label         string   `form:"label"`
	Description   string   `form:"description"`
	Required      bool     `form:"required"`
	Options       []string `form:"options"`
	RestrictRead  bool     `form:"restrict_read"`
	RestrictWrite bool     `form:"restrict_write"`
}

// readFieldRequest reads field attributes. On edit the identifier comes
// from the URL and is passed in.
func readFieldRequest(r *http.Request, identifier string) (fieldRequest, error) {
	if err := parseForm(r); err != nil {
		return fieldRequest{}, err
	}
	if identifier == "" {
		identifier = strings.TrimSpace(r.Form.Get("identifier"))
	}
	req := fieldRequest{
		Identifier:    identifier,
		Type:          strings.TrimSpace(r.Form.Get("type")),
		Label:         r.Form.Get("label"),
		Description:   r.Form.Get("description"),
		Required:      formBool(r.Form.Get("required")),
		Options:       formLines(r.Form["options"]),
		RestrictRead:  formBool(r.Form.Get("restrict_read")),
		RestrictWrite: formBool(r.Form.Get("restrict_write")),
	}
	return req, validateRequest(req)
}

func (req fieldRequest) attributes() fields.Attributes {
	return fields.Attributes{
		Type:          req.Type,
		Label:         req.Label,
		Description:   req.Description,
		Required:      req.Required,
		Options:       req.Options,
		RestrictRead:  req.RestrictRead,
		RestrictWrite: req.RestrictWrite,
	}
}

func formBool(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "true", "on", "yes", "1":
		return true
	}
	return false
}

// formLines splits every value on newlines; a textarea sends all options
// in one value.
func formLines(values []string) []string {
	var out []string
	for _, v := range values {
		out = append(out, strings.Split(strings.ReplaceAll(v, "\r\n", "\n"), "\n")...)
	}
	return out
}

func wantsDelete(r *http.Request) bool {
	return strings.EqualFold(r.Form.Get(methodOverride), http.MethodDelete)
}

func formURL(id string) string {
	return "/forms/" + id
}

// List handles GET /forms.
func (h *FormHandler) List(w http.ResponseWriter, r *http.Request) {
	forms, err := h.svc.List(r.Context(), auth.GetUser(r.Context()), r.URL.Query().Get("q"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, r, http.StatusOK, forms)
}

// Create handles POST /forms.
func (h *FormHandler) Create(w http.ResponseWriter, r *http.Request) {
	user := auth.GetUser(r.Context())
	if err := auth.RequireAdmin(user); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	req, err := readFormRequest(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	form, err := h.svc.Create(r.Context(), user, req.Title, req.Description)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	redirect(w, r, formURL(form.ID)+"/edit")
}

type formView struct {
	Form       *models.Form      `json:"form"`
	IsEditable bool              `json:"is_editable"`
	Logs       []models.LogEntry `json:"logs"`
}

// Get handles GET /forms/{id}.
func (h *FormHandler) Get(w http.ResponseWriter, r *http.Request) {
	user := auth.GetUser(r.Context())
	id := chi.URLParam(r, "id")
	form, err := h.svc.Get(r.Context(), user, id)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	logs, err := h.svc.Logs(r.Context(), user, id)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	if logs == nil {
		logs = []models.LogEntry{}
	}
	writeJSON(w, r, http.StatusOK, formView{Form: form, IsEditable: service.IsEditable(form), Logs: logs})
}

// Post handles POST /forms/{id}, which only tunnels a delete.
func (h *FormHandler) Post(w http.ResponseWriter, r *http.Request) {
	if err := parseForm(r); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	if !wantsDelete(r) {
		writeError(w, r, h.logger, apperr.MethodNotAllowed("POST only allowed for DELETE"))
		return
	}
	h.Delete(w, r)
}

// Delete handles DELETE /forms/{id}.
func (h *FormHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Delete(r.Context(), auth.GetUser(r.Context()), chi.URLParam(r, "id")); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	redirect(w, r, "/forms")
}

// EditPage handles GET /forms/{id}/edit.
func (h *FormHandler) EditPage(w http.ResponseWriter, r *http.Request) {
	form, err := h.svc.GetEditable(r.Context(), auth.GetUser(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, r, http.StatusOK, form)
}

// Edit handles POST /forms/{id}/edit.
func (h *FormHandler) Edit(w http.ResponseWriter, r *http.Request) {
	user := auth.GetUser(r.Context())
	id := chi.URLParam(r, "id")
	if _, err := h.svc.GetEditable(r.Context(), user, id); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	req, err := readFormRequest(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	if _, err := h.svc.Edit(r.Context(), user, id, req.Title, req.Description); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	redirect(w, r, formURL(id))
}

type fieldCreateView struct {
	Form  *models.Form `json:"form"`
	Types []string     `json:"types"`
}

// FieldCreatePage handles GET /forms/{id}/fields.
func (h *FormHandler) FieldCreatePage(w http.ResponseWriter, r *http.Request) {
	form, err := h.svc.GetEditable(r.Context(), auth.GetUser(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, r, http.StatusOK, fieldCreateView{Form: form, Types: fields.Types()})
}

// CreateField handles POST /forms/{id}/fields.
func (h *FormHandler) CreateField(w http.ResponseWriter, r *http.Request) {
	user := auth.GetUser(r.Context())
	id := chi.URLParam(r, "id")
	if _, err := h.svc.GetEditable(r.Context(), user, id); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	req, err := readFieldRequest(r, "")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	if _, err := h.svc.AddField(r.Context(), user, id, req.Identifier, req.attributes()); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	redirect(w, r, formURL(id))
}

type fieldView struct {
	Form  *models.Form `json:"form"`
	Field models.Field `json:"field"`
	Types []string     `json:"types"`
}

// FieldPage handles GET /forms/{id}/fields/{identifier}.
func (h *FormHandler) FieldPage(w http.ResponseWriter, r *http.Request) {
	form, field, err := h.svc.GetField(r.Context(), auth.GetUser(r.Context()), chi.URLParam(r, "id"), chi.URLParam(r, "identifier"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, r, http.StatusOK, fieldView{Form: form, Field: field, Types: fields.Types()})
}

// EditField handles POST /forms/{id}/fields/{identifier}: a tunnelled
// delete or an update of the field.
func (h *FormHandler) EditField(w http.ResponseWriter, r *http.Request) {
	if err := parseForm(r); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	if wantsDelete(r) {
		h.DeleteField(w, r)
		return
	}
	user := auth.GetUser(r.Context())
	id := chi.URLParam(r, "id")
	identifier := chi.URLParam(r, "identifier")
	if _, _, err := h.svc.GetField(r.Context(), user, id, identifier); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	req, err := readFieldRequest(r, identifier)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	if _, err := h.svc.UpdateField(r.Context(), user, id, identifier, req.attributes()); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	redirect(w, r, formURL(id))
}

// DeleteField handles DELETE /forms/{id}/fields/{identifier}.
func (h *FormHandler) DeleteField(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := h.svc.DeleteField(r.Context(), auth.GetUser(r.Context()), id, chi.URLParam(r, "identifier")); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	redirect(w, r, formURL(id))
}

// Copy handles POST /forms/{id}/copy.
func (h *FormHandler) Copy(w http.ResponseWriter, r *http.Request) {
	form, err := h.svc.Copy(r.Context(), auth.GetUser(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	redirect(w, r, formURL(form.ID)+"/edit")
}

// Enable handles POST /forms/{id}/enable.
func (h *FormHandler) Enable(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := h.svc.Enable(r.Context(), auth.GetUser(r.Context()), id); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	redirect(w, r, formURL(id))
}

// Disable handles POST /forms/{id}/disable.
func (h *FormHandler) Disable(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := h.svc.Disable(r.Context(), auth.GetUser(r.Context()), id); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	redirect(w, r, formURL(id))
}
