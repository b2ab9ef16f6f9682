package models

import "time"

// AuditLog rows are written after successful state transitions; a failed
// audit write never rolls back the primary transaction.
type AuditLog struct {
	ID             int64   `gorm:"primaryKey;autoIncrement"`
	ActorID        int64   `gorm:"index;not null"`
	Action         string  `gorm:"type:varchar(64);not null"`
	EntityType     string  `gorm:"type:varchar(32);index;not null"`
	EntityID       string  `gorm:"type:varchar(64);index;not null"`
	PreviousValues *string `gorm:"type:text"`
	NewValues      *string `gorm:"type:text"`
	CreatedAt      time.Time
}
