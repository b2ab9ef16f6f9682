package gate

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"vanik-system/internal/database/models"
)

func TestHasPermission(t *testing.T) {
	cases := []struct {
		granted   string
		requested string
		want      bool
	}{
		{"billing:create", "billing:create", true},
		{"billing:create", "billing:cancel", false},
		{"billing:*", "billing:cancel", true},
		{"*:*", "inventory:adjust", true},
		{"*:view", "billing:view", true},
		{"*:view", "billing:create", false},
		{"billing:create, inventory:adjust", "inventory:adjust", true},
		{"", "billing:create", false},
		{"billing", "billing:create", false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, HasPermission(tc.granted, tc.requested),
			"granted=%q requested=%q", tc.granted, tc.requested)
	}
}

func TestCheckerRequire(t *testing.T) {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Role{}))

	cashier := models.Role{RoleName: "cashier", AccessLevel: 1, Permissions: "billing:create,billing:view,inventory:view"}
	admin := models.Role{RoleName: "admin", AccessLevel: 9, Permissions: "*:*"}
	require.NoError(t, db.Create(&cashier).Error)
	require.NoError(t, db.Create(&admin).Error)

	c := NewChecker(db)

	assert.NoError(t, c.Require(cashier.ID, "billing:create"))
	assert.ErrorIs(t, c.Require(cashier.ID, "billing:cancel"), ErrPermissionDenied)
	assert.NoError(t, c.Require(admin.ID, "billing:cancel"))

	// unknown role is simply denied
	assert.ErrorIs(t, c.Require(999, "billing:view"), ErrPermissionDenied)
}
