package service

import (
	"github.com/talavis/OrderPortal/internal/apperr"
	"github.com/talavis/OrderPortal/internal/auth"
	"github.com/talavis/OrderPortal/internal/models"
)

// IsEditable reports whether the fields and metadata of a form may change.
func IsEditable(form *models.Form) bool {
	return form.Status == models.StatusPending
}

// CheckEditable requires an admin caller and a pending form.
func CheckEditable(user *auth.Claims, form *models.Form) error {
	if err := auth.RequireAdmin(user); err != nil {
		return err
	}
	if !IsEditable(form) {
		return apperr.Conflict("form is not pending")
	}
	return nil
}

// checkTransition allows pending to enabled or disabled and switching
// between enabled and disabled. Nothing returns to pending.
func checkTransition(from, to string) error {
	switch to {
	case models.StatusEnabled, models.StatusDisabled:
	default:
		return apperr.Validation("invalid status")
	}
	switch from {
	case models.StatusPending, models.StatusEnabled, models.StatusDisabled:
		return nil
	}
	return apperr.Conflict("invalid status transition")
}
