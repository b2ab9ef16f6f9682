package database

import (
	"fmt"
	"log"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"vanik-system/internal/database/models"
)

func NewConnection(dsn string) (*gorm.DB, error) {
	if dsn == "" {
		log.Fatal("DSN is required")
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		log.Fatalf("failed to get sql.DB: %v", err)
	}

	sqlDB.SetMaxOpenConns(20)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping DB: %w", err)
	}

	return db, nil
}

func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.User{},
		&models.Role{},
		&models.Item{},
		&models.Customer{},
		&models.Supplier{},
		&models.LedgerEntry{},
		&models.Document{},
		&models.DocumentLine{},
		&models.SequenceCounter{},
		&models.AuditLog{},
	); err != nil {
		return err
	}
	return seedAdminRole(db)
}

// seedAdminRole makes a fresh install usable over HTTP: registration needs an
// existing role and role creation needs an authenticated user, so an empty
// role table would leave no way in.
func seedAdminRole(db *gorm.DB) error {
	var count int64
	if err := db.Model(&models.Role{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	return db.Create(&models.Role{
		RoleName:    "admin",
		AccessLevel: 100,
		Permissions: "*:*",
	}).Error
}
