package audit

import (
	"encoding/json"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"vanik-system/config"
	"vanik-system/internal/database/models"
)

// Writer appends audit rows for mutating operations. Failures are logged and
// swallowed so an audit hiccup never rolls back the business transaction.
type Writer struct {
	db  *gorm.DB
	log *logrus.Logger
}

func NewWriter(db *gorm.DB) *Writer {
	return &Writer{db: db, log: config.GetLogger()}
}

// Record writes one audit row. previous and next are marshalled to JSON; a
// nil snapshot is stored as NULL.
func (w *Writer) Record(tx *gorm.DB, actorID int64, action, entityType, entityID string, previous, next interface{}) {
	if tx == nil {
		tx = w.db
	}

	entry := models.AuditLog{
		ActorID:    actorID,
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
	}
	if s := marshalSnapshot(previous); s != nil {
		entry.PreviousValues = s
	}
	if s := marshalSnapshot(next); s != nil {
		entry.NewValues = s
	}

	if err := tx.Create(&entry).Error; err != nil {
		config.LogError(w.log, "audit", "Record", action, entityID, err)
	}
}

func marshalSnapshot(v interface{}) *string {
	if v == nil {
		return nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	s := string(b)
	return &s
}
