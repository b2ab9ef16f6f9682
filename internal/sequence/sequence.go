package sequence

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"gorm.io/gorm"

	"vanik-system/internal/database/models"
	"vanik-system/internal/gst"
)

// ErrDuplicateDocumentNumber is returned when a freshly allocated number is
// already taken by a persisted document. The caller must re-allocate, never
// overwrite.
var ErrDuplicateDocumentNumber = errors.New("duplicate document number")

// Generator hands out fiscal-year-scoped document numbers. Allocate must run
// inside a serialized transaction (the billing coordinator's writer lock):
// the counter update commits or rolls back together with the document, so
// committed numbers stay gapless. The internal mutex additionally serializes
// the read-increment-save against concurrent callers sharing a transaction.
type Generator struct {
	mu       sync.Mutex
	prefixes map[models.DocumentClass]string
}

// DefaultPrefixes maps each document class to its number prefix.
var DefaultPrefixes = map[models.DocumentClass]string{
	models.ClassInvoice:  "INV",
	models.ClassPurchase: "PUR",
}

func NewGenerator(prefixes map[models.DocumentClass]string) *Generator {
	if prefixes == nil {
		prefixes = DefaultPrefixes
	}
	return &Generator{prefixes: prefixes}
}

// Allocate reserves the next number for class in the fiscal year containing
// fiscalDate and persists the incremented counter inside tx before returning
// the formatted number.
func (g *Generator) Allocate(tx *gorm.DB, class models.DocumentClass, fiscalDate time.Time) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	fy := gst.FiscalYearLabel(fiscalDate)

	var counter models.SequenceCounter
	err := tx.Where("document_class = ? AND fiscal_year = ?", class, fy).First(&counter).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		counter = models.SequenceCounter{DocumentClass: class, FiscalYear: fy}
		if err := tx.Create(&counter).Error; err != nil {
			return "", fmt.Errorf("create sequence counter: %w", err)
		}
	} else if err != nil {
		return "", fmt.Errorf("read sequence counter: %w", err)
	}

	counter.CurrentValue++
	if err := tx.Save(&counter).Error; err != nil {
		return "", fmt.Errorf("persist sequence counter: %w", err)
	}

	return g.Format(class, fy, counter.CurrentValue), nil
}

// Format renders a document number as PREFIX/FY/NNNN.
func (g *Generator) Format(class models.DocumentClass, fiscalYear string, n int64) string {
	prefix, ok := g.prefixes[class]
	if !ok {
		prefix = DefaultPrefixes[class]
	}
	return fmt.Sprintf("%s/%s/%04d", prefix, fiscalYear, n)
}

// NumberExists is the defense-in-depth guard consulted before committing a
// document under a freshly allocated number.
func NumberExists(tx *gorm.DB, number string) (bool, error) {
	var count int64
	if err := tx.Model(&models.Document{}).
		Where("document_number = ?", number).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}
