package service

import (
	"context"
	"testing"

	"github.com/farellandr/ticketmart/internal/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

func seedUser(t *testing.T, store *memStore, email string, role models.Role) *models.User {
	t.Helper()
	user := &models.User{Name: "User", Email: email, Password: "x", Role: role}
	require.NoError(t, store.userStore().Create(context.Background(), user))
	return user
}

func TestUserService_Profile(t *testing.T) {
	store := newMemStore()
	svc := NewUserService(store, store.userStore(), zap.NewNop())
	svc.cost = bcrypt.MinCost
	ctx := context.Background()
	user := seedUser(t, store, "kim@example.com", models.RoleShopper)

	name, phone, password := "Kim Lee", "+1-555-0100", "newpass"
	updated, err := svc.UpdateProfile(ctx, user.ID, ProfilePatch{Name: &name, PhoneNumber: &phone, Password: &password})
	require.NoError(t, err)
	assert.Equal(t, "Kim Lee", updated.Name)
	assert.Equal(t, phone, updated.PhoneNumber)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(updated.Password), []byte("newpass")))
	assert.Equal(t, models.RoleShopper, updated.Role)

	got, err := svc.Profile(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "Kim Lee", got.Name)

	blank := " "
	_, err = svc.UpdateProfile(ctx, user.ID, ProfilePatch{Name: &blank})
	assert.ErrorIs(t, err, models.ErrValidation)

	seedUser(t, store, "taken@example.com", models.RoleShopper)
	taken := "taken@example.com"
	_, err = svc.UpdateProfile(ctx, user.ID, ProfilePatch{Email: &taken})
	assert.ErrorIs(t, err, models.ErrEmailTaken)
}

func TestUserService_AdminOperations(t *testing.T) {
	store := newMemStore()
	svc := NewUserService(store, store.userStore(), zap.NewNop())
	ctx := context.Background()
	adminUser := seedUser(t, store, "root@example.com", models.RoleAdmin)
	admin := Actor{UserID: adminUser.ID, Role: models.RoleAdmin}
	shopper := seedUser(t, store, "s@example.com", models.RoleShopper)
	nonAdmin := Actor{UserID: shopper.ID, Role: models.RoleShopper}

	_, err := svc.List(ctx, nonAdmin)
	assert.ErrorIs(t, err, models.ErrForbidden)
	users, err := svc.List(ctx, admin)
	require.NoError(t, err)
	assert.Len(t, users, 2)

	_, err = svc.Get(ctx, nonAdmin, adminUser.ID)
	assert.ErrorIs(t, err, models.ErrForbidden)

	organizer := models.RoleOrganizer
	promoted, err := svc.Update(ctx, admin, shopper.ID, UserPatch{Role: &organizer})
	require.NoError(t, err)
	assert.Equal(t, models.RoleOrganizer, promoted.Role)

	bogus := models.Role("owner")
	_, err = svc.Update(ctx, admin, shopper.ID, UserPatch{Role: &bogus})
	assert.ErrorIs(t, err, models.ErrValidation)

	assert.ErrorIs(t, svc.Delete(ctx, admin, admin.UserID), models.ErrValidation)
	assert.ErrorIs(t, svc.Delete(ctx, nonAdmin, shopper.ID), models.ErrForbidden)
	require.NoError(t, svc.Delete(ctx, admin, shopper.ID))
	_, err = svc.Get(ctx, admin, shopper.ID)
	assert.ErrorIs(t, err, models.ErrUserNotFound)
	assert.ErrorIs(t, svc.Delete(ctx, admin, uuid.New()), models.ErrUserNotFound)
}
