package stockledger

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"gorm.io/gorm"

	"vanik-system/internal/database/models"
)

// Line is one item movement requested by a document.
type Line struct {
	ItemID   int64
	ItemName string
	Quantity int
}

// Coordinator applies document stock changes to item balances and the
// append-only ledger. Every mutation runs under RunSerialized, which holds
// the process-wide writer lock for the duration of one transaction; that
// makes the read-modify-write on balances and counters strictly serial
// without relying on store-level row locks.
type Coordinator struct {
	mu sync.Mutex
	db *gorm.DB
}

func NewCoordinator(db *gorm.DB) *Coordinator {
	return &Coordinator{db: db}
}

// RunSerialized executes fn inside a single transaction while holding the
// writer lock. Any error from fn rolls the whole transaction back.
func (c *Coordinator) RunSerialized(fn func(tx *gorm.DB) error) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.db.Transaction(fn)
}

// ValidateSale checks availability for every line without mutating anything,
// reporting all shortfalls in one error. Quantities for repeated items are
// aggregated before comparison.
func (c *Coordinator) ValidateSale(tx *gorm.DB, lines []Line) error {
	requested := make(map[int64]int)
	names := make(map[int64]string)
	order := make([]int64, 0, len(lines))
	for _, l := range lines {
		if _, seen := requested[l.ItemID]; !seen {
			order = append(order, l.ItemID)
		}
		requested[l.ItemID] += l.Quantity
		names[l.ItemID] = l.ItemName
	}

	var shortfalls []Shortfall
	for _, id := range order {
		var item models.Item
		if err := tx.First(&item, id).Error; err != nil {
			return fmt.Errorf("read item %d: %w", id, err)
		}
		if requested[id] > item.CurrentStock {
			name := names[id]
			if name == "" {
				name = item.ItemName
			}
			shortfalls = append(shortfalls, Shortfall{
				ItemID:    id,
				ItemName:  name,
				Requested: requested[id],
				Available: item.CurrentStock,
			})
		}
	}
	if len(shortfalls) > 0 {
		return &InsufficientStockError{Shortfalls: shortfalls}
	}
	return nil
}

// ApplySale deducts stock for every line and appends sale entries. The batch
// is all-or-nothing: availability is validated up front and any later failure
// aborts the enclosing transaction.
func (c *Coordinator) ApplySale(tx *gorm.DB, lines []Line, referenceID string, actorID int64) error {
	if err := c.ValidateSale(tx, lines); err != nil {
		return err
	}
	for _, l := range lines {
		if err := c.appendEntry(tx, l.ItemID, -l.Quantity, models.EntrySale, referenceID, nil, actorID); err != nil {
			return err
		}
	}
	return nil
}

// ApplyPurchase adds stock for every line and appends purchase entries.
func (c *Coordinator) ApplyPurchase(tx *gorm.DB, lines []Line, referenceID string, actorID int64) error {
	for _, l := range lines {
		if err := c.appendEntry(tx, l.ItemID, l.Quantity, models.EntryPurchase, referenceID, nil, actorID); err != nil {
			return err
		}
	}
	return nil
}

// Reverse appends compensating adjustment entries for every ledger entry
// recorded under referenceID, restoring each item's balance to its value
// before the original application. The original entries are left untouched.
func (c *Coordinator) Reverse(tx *gorm.DB, referenceID string, actorID int64) error {
	var entries []models.LedgerEntry
	if err := tx.Where("reference_id = ?", referenceID).
		Order("id ASC").
		Find(&entries).Error; err != nil {
		return fmt.Errorf("read ledger entries for %s: %w", referenceID, err)
	}

	cancelRef := "CANCEL-" + referenceID
	note := "reversal of " + referenceID
	for _, e := range entries {
		if err := c.appendEntry(tx, e.ItemID, -e.QuantityChange, models.EntryAdjustment, cancelRef, &note, actorID); err != nil {
			return err
		}
	}
	return nil
}

// ApplyOpening records an item's opening balance through the ledger.
func (c *Coordinator) ApplyOpening(tx *gorm.DB, itemID int64, quantity int, referenceID string, actorID int64) error {
	return c.appendEntry(tx, itemID, quantity, models.EntryOpening, referenceID, nil, actorID)
}

// ApplyAdjustment records a signed manual correction through the ledger.
func (c *Coordinator) ApplyAdjustment(tx *gorm.DB, itemID int64, delta int, notes *string, referenceID string, actorID int64) error {
	return c.appendEntry(tx, itemID, delta, models.EntryAdjustment, referenceID, notes, actorID)
}

// appendEntry re-reads the item inside tx, applies the signed delta to its
// balance and appends the chained ledger row. A delta that would drive the
// balance negative fails the whole transaction.
func (c *Coordinator) appendEntry(tx *gorm.DB, itemID int64, delta int, entryType models.EntryType, referenceID string, notes *string, actorID int64) error {
	var item models.Item
	if err := tx.First(&item, itemID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("item %d not found", itemID)
		}
		return fmt.Errorf("read item %d: %w", itemID, err)
	}

	newStock := item.CurrentStock + delta
	if newStock < 0 {
		return &InsufficientStockError{Shortfalls: []Shortfall{{
			ItemID:    item.ID,
			ItemName:  item.ItemName,
			Requested: -delta,
			Available: item.CurrentStock,
		}}}
	}

	now := time.Now()
	if err := tx.Model(&models.Item{}).
		Where("id = ?", item.ID).
		Updates(map[string]interface{}{
			"current_stock": newStock,
			"updated_at":    now,
		}).Error; err != nil {
		return fmt.Errorf("update item %d stock: %w", item.ID, err)
	}

	entry := models.LedgerEntry{
		ItemID:         item.ID,
		EntryType:      entryType,
		ReferenceID:    referenceID,
		QuantityChange: delta,
		PreviousStock:  item.CurrentStock,
		NewStock:       newStock,
		Notes:          notes,
		CreatedBy:      actorID,
		CreatedAt:      now,
	}
	if err := tx.Create(&entry).Error; err != nil {
		return fmt.Errorf("append ledger entry for item %d: %w", item.ID, err)
	}
	return nil
}
