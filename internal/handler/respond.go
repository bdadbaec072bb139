package handler

import (
	"fmt"
	"log/slog"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"

	"github.com/talavis/OrderPortal/internal/apperr"
)

var validate = newValidator()

// newValidator reports errors under the form or JSON argument name of a
// field rather than its Go name.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		for _, tag := range []string{"form", "json"} {
			name := strings.SplitN(fld.Tag.Get(tag), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name != "" {
				return name
			}
		}
		return fld.Name
	})
	return v
}

// validateRequest checks the validate tags of req and reports the first
// failure as a validation error.
func validateRequest(req any) error {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok || len(verrs) == 0 {
		return apperr.Validation("invalid request")
	}
	fe := verrs[0]
	switch fe.Tag() {
	case "required":
		return apperr.Validation(fmt.Sprintf("%s is required", fe.Field()))
	case "email":
		return apperr.Validation(fmt.Sprintf("%s must be an email address", fe.Field()))
	default:
		return apperr.Validation(fmt.Sprintf("invalid %s", fe.Field()))
	}
}

// parseForm parses the URL query and a form-encoded body.
func parseForm(r *http.Request) error {
	if err := r.ParseForm(); err != nil {
		return apperr.Validation("invalid form data")
	}
	return nil
}

func readJSON(r *http.Request, v any) error {
	if err := render.DecodeJSON(r.Body, v); err != nil {
		return apperr.Validation("invalid request body")
	}
	return nil
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	render.Status(r, status)
	render.JSON(w, r, v)
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// writeError answers with the status of the error kind. Errors without a
// kind are logged and reported as internal errors.
func writeError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	status, code := apperr.Status(err)
	if status == http.StatusInternalServerError {
		logger.ErrorContext(r.Context(), "request failed",
			slog.String("error", err.Error()),
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)
	}
	writeJSON(w, r, status, errorResponse{Error: apperr.Message(err), Code: code})
}

// redirect sends the client to url with 303 See Other, so that a POST is
// followed by a GET.
func redirect(w http.ResponseWriter, r *http.Request, url string) {
	http.Redirect(w, r, url, http.StatusSeeOther)
}
