package handler

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"vanik-system/internal/database/models"
	"vanik-system/internal/gate"
	"vanik-system/internal/utils"
)

func setupUserTest(t *testing.T) (*gorm.DB, *UserHandler) {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Role{}, &models.User{}))
	return db, NewUserHandler(db, gate.NewChecker(db), nil, time.Hour)
}

func bootstrapAdmin(t *testing.T, db *gorm.DB, h *UserHandler) (*models.Role, *AuthResponse) {
	t.Helper()
	role, err := h.SaveRole(context.Background(), &SaveRoleRequest{
		Role: RolePayload{RoleName: "admin", AccessLevel: 9, Permissions: "*:*"},
	})
	require.NoError(t, err)
	require.True(t, role.Success)

	resp, err := h.Register(context.Background(), &RegisterRequest{
		Username:  "owner",
		Email:     "owner@example.com",
		Password:  "s3cret-pass",
		Firstname: "Shop",
		Lastname:  "Owner",
		RoleID:    role.Role.ID,
	})
	require.NoError(t, err)
	require.True(t, resp.Success)

	var dbRole models.Role
	require.NoError(t, db.First(&dbRole, role.Role.ID).Error)
	return &dbRole, resp
}

func TestRegisterAndLogin(t *testing.T) {
	db, h := setupUserTest(t)
	role, registered := bootstrapAdmin(t, db, h)

	require.NotEmpty(t, registered.Token)
	assert.Equal(t, "admin", registered.User.RoleName)

	claims, err := utils.ParseToken(registered.Token)
	require.NoError(t, err)
	assert.Equal(t, registered.User.ID, claims.UserId)
	assert.Equal(t, role.ID, claims.RoleId)

	// password is stored hashed
	var stored models.User
	require.NoError(t, db.First(&stored, registered.User.ID).Error)
	assert.NotEqual(t, "s3cret-pass", stored.Password)

	login, err := h.Login(context.Background(), &LoginRequest{Username: "owner", Password: "s3cret-pass"})
	require.NoError(t, err)
	require.True(t, login.Success)
	assert.NotEmpty(t, login.Token)
	assert.NotNil(t, login.User.LastLogin)

	bad, err := h.Login(context.Background(), &LoginRequest{Username: "owner", Password: "wrong"})
	require.Error(t, err)
	assert.False(t, bad.Success)
	assert.True(t, errors.Is(err, ErrInvalidCredentials))
}

func TestRegisterDuplicateRejected(t *testing.T) {
	db, h := setupUserTest(t)
	role, first := bootstrapAdmin(t, db, h)

	resp, err := h.Register(context.Background(), &RegisterRequest{
		Username:    "owner",
		Email:       "other@example.com",
		Password:    "pass",
		RoleID:      role.ID,
		ActorID:     first.User.ID,
		ActorRoleID: role.ID,
	})
	require.NoError(t, err)
	assert.False(t, resp.Success)
}

func TestRegisterAfterBootstrapNeedsPermission(t *testing.T) {
	db, h := setupUserTest(t)
	adminRole, _ := bootstrapAdmin(t, db, h)

	cashier := models.Role{RoleName: "cashier", AccessLevel: 1, Permissions: "billing:*"}
	require.NoError(t, db.Create(&cashier).Error)

	resp, err := h.Register(context.Background(), &RegisterRequest{
		Username:    "intruder",
		Email:       "i@example.com",
		Password:    "pass",
		RoleID:      cashier.ID,
		ActorRoleID: cashier.ID,
	})
	require.Error(t, err)
	assert.False(t, resp.Success)
	assert.True(t, errors.Is(err, gate.ErrPermissionDenied))

	ok, err := h.Register(context.Background(), &RegisterRequest{
		Username:    "clerk",
		Email:       "clerk@example.com",
		Password:    "pass",
		RoleID:      cashier.ID,
		ActorRoleID: adminRole.ID,
	})
	require.NoError(t, err)
	assert.True(t, ok.Success)
}

func TestSaveAndListRoles(t *testing.T) {
	db, h := setupUserTest(t)
	adminRole, _ := bootstrapAdmin(t, db, h)

	created, err := h.SaveRole(context.Background(), &SaveRoleRequest{
		Role:        RolePayload{RoleName: "manager", AccessLevel: 5, Permissions: "billing:*,inventory:*,reports:view"},
		ActorRoleID: adminRole.ID,
	})
	require.NoError(t, err)
	require.True(t, created.Success)

	updated, err := h.SaveRole(context.Background(), &SaveRoleRequest{
		ID:          created.Role.ID,
		Role:        RolePayload{RoleName: "manager", AccessLevel: 6, Permissions: "billing:*,inventory:*,reports:view"},
		ActorRoleID: adminRole.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, int32(6), updated.Role.AccessLevel)

	list, err := h.ListRoles(context.Background(), adminRole.ID)
	require.NoError(t, err)
	require.Len(t, list.Roles, 2)
	assert.Equal(t, "admin", list.Roles[0].RoleName)
}
