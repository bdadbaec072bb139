package auth

import (
	"github.com/talavis/OrderPortal/internal/apperr"
	"github.com/talavis/OrderPortal/internal/models"
)

// IsStaff reports whether the caller may read forms. Admins are staff.
func (c *Claims) IsStaff() bool {
	return c != nil && (c.Role == models.RoleStaff || c.Role == models.RoleAdmin)
}

// IsAdmin reports whether the caller may change forms.
func (c *Claims) IsAdmin() bool {
	return c != nil && c.Role == models.RoleAdmin
}

func RequireStaff(c *Claims) error {
	if !c.IsStaff() {
		return apperr.Forbidden("staff privilege required")
	}
	return nil
}

func RequireAdmin(c *Claims) error {
	if !c.IsAdmin() {
		return apperr.Forbidden("admin privilege required")
	}
	return nil
}
