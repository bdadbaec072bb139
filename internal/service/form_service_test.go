package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talavis/OrderPortal/internal/apperr"
	"github.com/talavis/OrderPortal/internal/auth"
	"github.com/talavis/OrderPortal/internal/fields"
	"github.com/talavis/OrderPortal/internal/models"
	"github.com/talavis/OrderPortal/internal/repository"
)

var (
	admin = &auth.Claims{UserID: "u1", Email: "admin@example.org", Role: models.RoleAdmin}
	staff = &auth.Claims{UserID: "u2", Email: "staff@example.org", Role: models.RoleStaff}
	plain = &auth.Claims{UserID: "u3", Email: "user@example.org", Role: models.RoleUser}
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestService(t *testing.T) (*FormService, *repository.Memory) {
	t.Helper()
	store := repository.NewMemory()
	svc := NewFormService(store.Forms(), store.Logs(), discardLogger())
	clock := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	svc.now = func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	}
	return svc, store
}

func createForm(t *testing.T, svc *FormService, title string, defs ...models.Field) *models.Form {
	t.Helper()
	form, err := svc.CreateWithFields(context.Background(), admin, title, "", defs)
	require.NoError(t, err)
	return form
}

func logsOf(t *testing.T, svc *FormService, id string) []models.LogEntry {
	t.Helper()
	logs, err := svc.Logs(context.Background(), admin, id)
	require.NoError(t, err)
	return logs
}

func TestCreate(t *testing.T) {
	svc, store := newTestService(t)

	form, err := svc.Create(context.Background(), admin, "  Sequencing  ", "Order DNA sequencing")
	require.NoError(t, err)

	assert.Len(t, form.ID, 32)
	assert.Equal(t, "Sequencing", form.Title)
	assert.Equal(t, models.StatusPending, form.Status)
	assert.Equal(t, admin.Email, form.Owner)
	assert.Empty(t, form.Fields)
	assert.Equal(t, form.Created, form.Modified)
	assert.Equal(t, 1, store.Writes())

	logs := logsOf(t, svc, form.ID)
	require.Len(t, logs, 1)
	assert.Equal(t, "form", logs[0].DocType)
	assert.Equal(t, admin.Email, logs[0].Account)
	assert.Equal(t, "Sequencing", logs[0].Changed["title"])
	assert.Equal(t, models.StatusPending, logs[0].Changed["status"])
}

func TestCreateRequiresAdminAndTitle(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, staff, "Sequencing", "")
	require.ErrorIs(t, err, apperr.ErrForbidden)
	_, err = svc.Create(ctx, nil, "Sequencing", "")
	require.ErrorIs(t, err, apperr.ErrForbidden)
	_, err = svc.Create(ctx, admin, "   ", "")
	require.ErrorIs(t, err, apperr.ErrValidation)

	assert.Zero(t, store.Writes())
}

func TestCreateWithFieldsFailsAtomically(t *testing.T) {
	svc, store := newTestService(t)

	_, err := svc.CreateWithFields(context.Background(), admin, "Sequencing", "", []models.Field{
		{Identifier: "age", Type: fields.TypeInt},
		{Identifier: "age", Type: fields.TypeString},
	})
	require.ErrorIs(t, err, apperr.ErrConflict)
	assert.Zero(t, store.Writes())
}

func TestAddDuplicateFieldConflicts(t *testing.T) {
	svc, store := newTestService(t)
	form := createForm(t, svc, "Sequencing", models.Field{Identifier: "age", Type: fields.TypeInt})
	writes := store.Writes()

	_, err := svc.AddField(context.Background(), admin, form.ID, "age", fields.Attributes{Type: fields.TypeString})
	require.ErrorIs(t, err, apperr.ErrConflict)

	got, err := svc.Get(context.Background(), staff, form.ID)
	require.NoError(t, err)
	assert.Equal(t, []models.Field{{Identifier: "age", Type: fields.TypeInt}}, got.Fields)
	assert.Equal(t, writes, store.Writes())
	assert.Len(t, logsOf(t, svc, form.ID), 1)
}

func TestAddFieldInvalidIdentifier(t *testing.T) {
	svc, _ := newTestService(t)
	form := createForm(t, svc, "Sequencing")

	_, err := svc.AddField(context.Background(), admin, form.ID, "2fast", fields.Attributes{Type: fields.TypeString})
	require.ErrorIs(t, err, apperr.ErrValidation)
	assert.Equal(t, "invalid identifier", err.Error())
}

func TestAddFieldRecordsSequence(t *testing.T) {
	svc, _ := newTestService(t)
	form := createForm(t, svc, "Sequencing")

	got, err := svc.AddField(context.Background(), admin, form.ID, "age", fields.Attributes{Type: fields.TypeInt, Label: "Age"})
	require.NoError(t, err)
	want := []models.Field{{Identifier: "age", Type: fields.TypeInt, Label: "Age"}}
	if diff := cmp.Diff(want, got.Fields); diff != "" {
		t.Fatalf("fields mismatch (-want +got):\n%s", diff)
	}

	logs := logsOf(t, svc, form.ID)
	require.Len(t, logs, 2)
	assert.Equal(t, want, logs[0].Changed["fields"])
}

func TestFieldsNotEditableOnceEnabled(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()
	form := createForm(t, svc, "Sequencing", models.Field{Identifier: "age", Type: fields.TypeInt})
	_, err := svc.Enable(ctx, admin, form.ID)
	require.NoError(t, err)
	writes := store.Writes()

	_, err = svc.AddField(ctx, admin, form.ID, "weight", fields.Attributes{Type: fields.TypeFloat})
	require.ErrorIs(t, err, apperr.ErrConflict)
	assert.Equal(t, "form is not pending", err.Error())

	_, err = svc.UpdateField(ctx, admin, form.ID, "age", fields.Attributes{Type: fields.TypeString})
	require.ErrorIs(t, err, apperr.ErrConflict)
	_, err = svc.DeleteField(ctx, admin, form.ID, "age")
	require.ErrorIs(t, err, apperr.ErrConflict)
	_, err = svc.Edit(ctx, admin, form.ID, "Other", "")
	require.ErrorIs(t, err, apperr.ErrConflict)
	_, _, err = svc.GetField(ctx, admin, form.ID, "age")
	require.ErrorIs(t, err, apperr.ErrConflict)

	assert.Equal(t, writes, store.Writes())
}

func TestCheckEditable(t *testing.T) {
	pending := &models.Form{Status: models.StatusPending}
	enabled := &models.Form{Status: models.StatusEnabled}
	disabled := &models.Form{Status: models.StatusDisabled}

	assert.NoError(t, CheckEditable(admin, pending))
	assert.ErrorIs(t, CheckEditable(staff, pending), apperr.ErrForbidden)
	assert.ErrorIs(t, CheckEditable(plain, pending), apperr.ErrForbidden)
	for _, f := range []*models.Form{enabled, disabled} {
		assert.False(t, IsEditable(f))
		assert.ErrorIs(t, CheckEditable(admin, f), apperr.ErrConflict)
		assert.ErrorIs(t, CheckEditable(staff, f), apperr.ErrForbidden)
	}
}

func TestDeleteFieldRecordsRemoval(t *testing.T) {
	svc, _ := newTestService(t)
	form := createForm(t, svc, "Sequencing",
		models.Field{Identifier: "age", Type: fields.TypeInt},
		models.Field{Identifier: "weight", Type: fields.TypeFloat},
	)

	got, err := svc.DeleteField(context.Background(), admin, form.ID, "age")
	require.NoError(t, err)
	assert.Equal(t, []models.Field{{Identifier: "weight", Type: fields.TypeFloat}}, got.Fields)

	logs := logsOf(t, svc, form.ID)
	assert.Equal(t, fields.Removal{Identifier: "age", Action: "deleted"}, logs[0].Changed["fields"])

	_, err = svc.DeleteField(context.Background(), admin, form.ID, "age")
	require.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestUpdateFieldKeepsPosition(t *testing.T) {
	svc, _ := newTestService(t)
	form := createForm(t, svc, "Sequencing",
		models.Field{Identifier: "name", Type: fields.TypeString},
		models.Field{Identifier: "age", Type: fields.TypeInt},
	)

	got, err := svc.UpdateField(context.Background(), admin, form.ID, "name", fields.Attributes{Type: fields.TypeText, Required: true})
	require.NoError(t, err)
	assert.Equal(t, []models.Field{
		{Identifier: "name", Type: fields.TypeText, Required: true},
		{Identifier: "age", Type: fields.TypeInt},
	}, got.Fields)

	_, f, err := svc.GetField(context.Background(), admin, form.ID, "name")
	require.NoError(t, err)
	assert.True(t, f.Required)
	_, _, err = svc.GetField(context.Background(), admin, form.ID, "weight")
	require.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestCopyReproducesFieldsIncludingDuplicates(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()
	src := &models.Form{
		ID:          "src",
		Title:       "Sequencing",
		Description: "DNA",
		Status:      models.StatusEnabled,
		Owner:       "someone@example.org",
		Fields: []models.Field{
			{Identifier: "age", Type: fields.TypeInt},
			{Identifier: "age", Type: fields.TypeString},
			{Identifier: "sample", Type: fields.TypeSelect, Options: []string{"blood"}},
		},
	}
	require.NoError(t, store.Forms().Create(ctx, src, &models.LogEntry{ID: "l0", DocID: "src"}))

	cp, err := svc.Copy(ctx, admin, "src")
	require.NoError(t, err)
	assert.NotEqual(t, "src", cp.ID)
	assert.Equal(t, "Copy of Sequencing", cp.Title)
	assert.Equal(t, "DNA", cp.Description)
	assert.Equal(t, models.StatusPending, cp.Status)
	assert.Equal(t, admin.Email, cp.Owner)
	if diff := cmp.Diff(src.Fields, cp.Fields); diff != "" {
		t.Fatalf("copied fields mismatch (-want +got):\n%s", diff)
	}

	logs := logsOf(t, svc, cp.ID)
	require.Len(t, logs, 1)
	assert.Equal(t, "from src", logs[0].Changed["copied"])

	_, err = svc.Copy(ctx, staff, "src")
	require.ErrorIs(t, err, apperr.ErrForbidden)
	_, err = svc.Copy(ctx, admin, "missing")
	require.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestEnableIsIdempotent(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()
	form := createForm(t, svc, "Sequencing")

	enabled, err := svc.Enable(ctx, admin, form.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusEnabled, enabled.Status)
	writes := store.Writes()
	logCount := len(logsOf(t, svc, form.ID))

	again, err := svc.Enable(ctx, admin, form.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusEnabled, again.Status)
	assert.Equal(t, enabled.Modified, again.Modified)
	assert.Equal(t, writes, store.Writes())
	assert.Len(t, logsOf(t, svc, form.ID), logCount)
}

func TestStatusTransitions(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	form := createForm(t, svc, "Sequencing")

	_, err := svc.Enable(ctx, staff, form.ID)
	require.ErrorIs(t, err, apperr.ErrForbidden)

	got, err := svc.Disable(ctx, admin, form.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusDisabled, got.Status)
	got, err = svc.Enable(ctx, admin, form.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusEnabled, got.Status)

	logs := logsOf(t, svc, form.ID)
	require.Len(t, logs, 3)
	assert.Equal(t, models.StatusEnabled, logs[0].Changed["status"])
	assert.Equal(t, models.StatusDisabled, logs[1].Changed["status"])

	_, err = svc.Enable(ctx, admin, "missing")
	require.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestCheckTransition(t *testing.T) {
	assert.NoError(t, checkTransition(models.StatusPending, models.StatusEnabled))
	assert.NoError(t, checkTransition(models.StatusPending, models.StatusDisabled))
	assert.NoError(t, checkTransition(models.StatusEnabled, models.StatusDisabled))
	assert.NoError(t, checkTransition(models.StatusDisabled, models.StatusEnabled))
	assert.ErrorIs(t, checkTransition(models.StatusEnabled, models.StatusPending), apperr.ErrValidation)
	assert.ErrorIs(t, checkTransition("archived", models.StatusEnabled), apperr.ErrConflict)
}

func TestDelete(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()
	form := createForm(t, svc, "Sequencing")
	_, err := svc.Edit(ctx, admin, form.ID, "Sequencing v2", "")
	require.NoError(t, err)

	require.ErrorIs(t, svc.Delete(ctx, staff, form.ID), apperr.ErrForbidden)
	require.NoError(t, svc.Delete(ctx, admin, form.ID))

	_, err = svc.Get(ctx, staff, form.ID)
	require.ErrorIs(t, err, apperr.ErrNotFound)
	assert.Empty(t, logsOf(t, svc, form.ID))

	// a second delete reports the form as missing
	require.ErrorIs(t, svc.Delete(ctx, admin, form.ID), apperr.ErrNotFound)
	// and so does a delete by a caller without privilege
	require.ErrorIs(t, svc.Delete(ctx, plain, form.ID), apperr.ErrNotFound)
	assert.Equal(t, 3, store.Writes())
}

func TestDeleteRejectsNonPending(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	form := createForm(t, svc, "Sequencing")
	_, err := svc.Disable(ctx, admin, form.ID)
	require.NoError(t, err)

	require.ErrorIs(t, svc.Delete(ctx, admin, form.ID), apperr.ErrConflict)
	assert.Len(t, logsOf(t, svc, form.ID), 2)
}

func TestListOrderAndKeywords(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	a := createForm(t, svc, "DNA sequencing")
	b := createForm(t, svc, "RNA sequencing")
	c := createForm(t, svc, "Proteomics: mass spec")
	_, err := svc.Edit(ctx, admin, a.ID, "DNA sequencing", "edited")
	require.NoError(t, err)

	ids := func(forms []models.Form) []string {
		var out []string
		for _, f := range forms {
			out = append(out, f.ID)
		}
		return out
	}

	all, err := svc.List(ctx, staff, "")
	require.NoError(t, err)
	assert.Equal(t, []string{a.ID, c.ID, b.ID}, ids(all))

	hits, err := svc.List(ctx, staff, "Sequencing")
	require.NoError(t, err)
	assert.Equal(t, []string{a.ID, b.ID}, ids(hits))

	hits, err = svc.List(ctx, staff, "rna SEQUENCING")
	require.NoError(t, err)
	assert.Equal(t, []string{b.ID}, ids(hits))

	_, err = svc.List(ctx, plain, "")
	require.ErrorIs(t, err, apperr.ErrForbidden)
}

func TestEditFailureWritesNothing(t *testing.T) {
	svc, store := newTestService(t)
	form := createForm(t, svc, "Sequencing")
	writes := store.Writes()
	boom := errors.New("boom")

	_, err := svc.edit(context.Background(), admin, form, func(sv *formSaver) error {
		sv.SetTitle("changed")
		require.NoError(t, sv.AddField("age", fields.Attributes{Type: fields.TypeInt}))
		return boom
	})
	require.ErrorIs(t, err, boom)
	assert.Equal(t, writes, store.Writes())

	got, err := svc.Get(context.Background(), staff, form.ID)
	require.NoError(t, err)
	assert.Equal(t, "Sequencing", got.Title)
	assert.Empty(t, got.Fields)
}

func TestSaverCoalescesChangesIntoOneCommit(t *testing.T) {
	svc, store := newTestService(t)
	form := createForm(t, svc, "Sequencing")
	writes := store.Writes()

	got, err := svc.edit(context.Background(), admin, form, func(sv *formSaver) error {
		sv.SetTitle("Sequencing v2")
		sv.SetDescription("Now with RNA")
		if err := sv.AddField("age", fields.Attributes{Type: fields.TypeInt}); err != nil {
			return err
		}
		return sv.AddField("weight", fields.Attributes{Type: fields.TypeFloat})
	})
	require.NoError(t, err)
	assert.Equal(t, writes+1, store.Writes())
	assert.Len(t, got.Fields, 2)

	logs := logsOf(t, svc, form.ID)
	require.Len(t, logs, 2)
	assert.Equal(t, "Sequencing v2", logs[0].Changed["title"])
	assert.Equal(t, "Now with RNA", logs[0].Changed["description"])
	assert.Len(t, logs[0].Changed["fields"], 2)
}

func TestSaverCommitsOnce(t *testing.T) {
	store := repository.NewMemory()
	sv := newFormSaver("admin@example.org")
	sv.SetTitle("Sequencing")
	now := time.Now()

	require.NoError(t, sv.commit(context.Background(), store.Forms(), "admin@example.org", now))
	err := sv.commit(context.Background(), store.Forms(), "admin@example.org", now)
	require.ErrorIs(t, err, errAlreadyCommitted)
	assert.Equal(t, 1, store.Writes())
}

func TestEditSaverDoesNotAliasOriginal(t *testing.T) {
	form := &models.Form{ID: "f1", Status: models.StatusPending, Fields: []models.Field{{Identifier: "age", Type: fields.TypeInt}}}
	sv := editFormSaver(form)
	require.NoError(t, sv.UpdateField("age", fields.Attributes{Type: fields.TypeString}))
	sv.SetTitle("changed")

	assert.Equal(t, fields.TypeInt, form.Fields[0].Type)
	assert.Empty(t, form.Title)
	assert.Equal(t, fields.TypeString, sv.Form().Fields[0].Type)
}
