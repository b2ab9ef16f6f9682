package database

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"vanik-system/internal/database/models"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	return db
}

func TestMigrateSeedsAdminRoleOnFreshInstall(t *testing.T) {
	db := openTestDB(t)

	require.NoError(t, Migrate(db))

	var roles []models.Role
	require.NoError(t, db.Find(&roles).Error)
	require.Len(t, roles, 1)
	require.Equal(t, "admin", roles[0].RoleName)
	require.Equal(t, "*:*", roles[0].Permissions)
}

func TestMigrateIsIdempotent(t *testing.T) {
	db := openTestDB(t)

	require.NoError(t, Migrate(db))
	require.NoError(t, Migrate(db))

	var count int64
	require.NoError(t, db.Model(&models.Role{}).Count(&count).Error)
	require.EqualValues(t, 1, count)
}

func TestMigrateLeavesExistingRolesAlone(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, db.AutoMigrate(&models.Role{}))
	require.NoError(t, db.Create(&models.Role{RoleName: "cashier", AccessLevel: 1, Permissions: "billing:view"}).Error)

	require.NoError(t, Migrate(db))

	var roles []models.Role
	require.NoError(t, db.Find(&roles).Error)
	require.Len(t, roles, 1)
	require.Equal(t, "cashier", roles[0].RoleName)
}
