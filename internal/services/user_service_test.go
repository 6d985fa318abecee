package services

import (
	"bytes"
	"context"
	"testing"

	"github.com/diewo77/stock-manager/internal/inventory"
	"github.com/diewo77/stock-manager/internal/models"
	"github.com/diewo77/stock-manager/internal/obs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthenticate(t *testing.T) {
	db := setupTestDB(t, t.Name())
	u := seedUser(t, db, "clerk", models.RoleUser)
	svc := NewUserService(db, nil, discardLogger())
	ctx := context.Background()

	got, err := svc.Authenticate(ctx, " clerk ", "password1")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
	require.NotNil(t, got.LastActivity)

	_, err = svc.Authenticate(ctx, "clerk", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = svc.Authenticate(ctx, "nobody", "password1")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	require.NoError(t, db.Model(&u).Update("is_active", false).Error)
	_, err = svc.Authenticate(ctx, "clerk", "password1")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	assert.False(t, svc.IsActiveUser(ctx, u.ID))
}

func TestOnlyAdministratorsManageUsers(t *testing.T) {
	db := setupTestDB(t, t.Name())
	admin := seedUser(t, db, "admin", models.RoleAdministrator)
	clerk := seedUser(t, db, "clerk", models.RoleUser)
	svc := NewUserService(db, nil, discardLogger())
	ctx := context.Background()

	_, err := svc.Create(ctx, clerk.ID, UserInput{Username: "x", Password: "secret1", FullName: "X"})
	assert.ErrorIs(t, err, ErrForbidden)
	_, err = svc.Update(ctx, clerk.ID, clerk.ID, UserInput{Role: models.RoleAdministrator})
	assert.ErrorIs(t, err, ErrForbidden)
	assert.ErrorIs(t, svc.SetActive(ctx, clerk.ID, admin.ID, false), ErrForbidden)

	created, err := svc.Create(ctx, admin.ID, UserInput{Username: "new", Password: "secret1", FullName: "New User"})
	require.NoError(t, err)
	assert.Equal(t, models.RoleUser, created.Role)
	assert.True(t, created.IsActive)

	_, err = svc.Create(ctx, admin.ID, UserInput{Username: "new", Password: "secret1", FullName: "Dup"})
	assert.ErrorIs(t, err, inventory.ErrConflict)
	_, err = svc.Create(ctx, admin.ID, UserInput{Username: "short", Password: "123", FullName: "S"})
	assert.ErrorIs(t, err, inventory.ErrValidation)
	_, err = svc.Create(ctx, admin.ID, UserInput{Username: "role", Password: "secret1", FullName: "R", Role: "Root"})
	assert.ErrorIs(t, err, inventory.ErrValidation)

	updated, err := svc.Update(ctx, admin.ID, created.ID, UserInput{FullName: "Renamed", Password: "another1"})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", updated.FullName)
	_, err = svc.Authenticate(ctx, "new", "another1")
	require.NoError(t, err)

	_, err = svc.Update(ctx, admin.ID, created.ID, UserInput{Username: "clerk"})
	assert.ErrorIs(t, err, inventory.ErrConflict)

	require.NoError(t, svc.SetActive(ctx, admin.ID, created.ID, false))
	assert.False(t, svc.IsActiveUser(ctx, created.ID))
	assert.ErrorIs(t, svc.SetActive(ctx, admin.ID, admin.ID, false), inventory.ErrValidation)
	assert.ErrorIs(t, svc.SetActive(ctx, admin.ID, 999, true), inventory.ErrNotFound)

	users, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 3)
}

func TestIsActiveUserLogsLookupFailure(t *testing.T) {
	db := setupTestDB(t, t.Name())
	u := seedUser(t, db, "clerk", models.RoleUser)
	var buf bytes.Buffer
	svc := NewUserService(db, nil, obs.NewLoggerTo(&buf, "info"))
	ctx := context.Background()

	assert.True(t, svc.IsActiveUser(ctx, u.ID))
	assert.False(t, svc.IsActiveUser(ctx, u.ID+1))
	assert.Zero(t, buf.Len(), "a missing user is not an error")

	sqlDB, err := db.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())

	assert.False(t, svc.IsActiveUser(ctx, u.ID))
	assert.Contains(t, buf.String(), "active user lookup failed")
}
