package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talavis/OrderPortal/internal/apperr"
	"github.com/talavis/OrderPortal/internal/models"
	"github.com/talavis/OrderPortal/internal/oxidb/oxidbtest"
)

func TestUserRepoCreateDuplicateEmail(t *testing.T) {
	srv := oxidbtest.NewServer(t, func(map[string]any) map[string]any {
		return oxidbtest.Fail("unique constraint violated on field email")
	})
	repo := NewUserRepo(newPool(t, srv))

	err := repo.Create(context.Background(), &models.User{ID: "u1", Email: "a@b.se"})
	require.ErrorIs(t, err, apperr.ErrConflict)
}

func TestUserRepoFindByEmail(t *testing.T) {
	srv := oxidbtest.NewServer(t, func(map[string]any) map[string]any {
		return oxidbtest.OK(map[string]any{"_id": 1, "iuid": "u1", "email": "a@b.se", "role": "admin"})
	})
	repo := NewUserRepo(newPool(t, srv))

	u, err := repo.FindByEmail(context.Background(), "a@b.se")
	require.NoError(t, err)
	require.NotNil(t, u)
	assert.Equal(t, "u1", u.ID)
	assert.Equal(t, models.RoleAdmin, u.Role)
	assert.Equal(t, map[string]any{"email": "a@b.se"}, srv.Requests()[0]["query"])
}
