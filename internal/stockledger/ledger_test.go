package stockledger

import (
	"errors"
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"vanik-system/internal/database/models"
)

func setupLedgerTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Item{}, &models.LedgerEntry{}))
	return db
}

func seedItem(t *testing.T, db *gorm.DB, code string, stock int) models.Item {
	t.Helper()
	item := models.Item{
		ItemCode:      code,
		ItemName:      "Item " + code,
		HSNCode:       "6403",
		GSTPercent:    decimal.NewFromInt(18),
		PurchasePrice: decimal.NewFromInt(100),
		SellingPrice:  decimal.NewFromInt(150),
		CurrentStock:  stock,
		IsActive:      true,
	}
	require.NoError(t, db.Create(&item).Error)
	return item
}

func itemStock(t *testing.T, db *gorm.DB, id int64) int {
	t.Helper()
	var item models.Item
	require.NoError(t, db.First(&item, id).Error)
	return item.CurrentStock
}

func entriesFor(t *testing.T, db *gorm.DB, itemID int64) []models.LedgerEntry {
	t.Helper()
	var entries []models.LedgerEntry
	require.NoError(t, db.Where("item_id = ?", itemID).Order("id ASC").Find(&entries).Error)
	return entries
}

// every entry's previous balance must equal the prior entry's new balance
func assertChain(t *testing.T, entries []models.LedgerEntry) {
	t.Helper()
	for i, e := range entries {
		assert.Equal(t, e.PreviousStock+e.QuantityChange, e.NewStock, "entry %d arithmetic", i)
		if i > 0 {
			assert.Equal(t, entries[i-1].NewStock, e.PreviousStock, "entry %d chain", i)
		}
	}
}

func TestApplySaleDeductsAndChains(t *testing.T) {
	db := setupLedgerTestDB(t)
	c := NewCoordinator(db)
	item := seedItem(t, db, "SKU-1", 10)

	err := c.RunSerialized(func(tx *gorm.DB) error {
		return c.ApplySale(tx, []Line{{ItemID: item.ID, ItemName: item.ItemName, Quantity: 4}}, "INV/2025-26/0001", 1)
	})
	require.NoError(t, err)

	assert.Equal(t, 6, itemStock(t, db, item.ID))

	entries := entriesFor(t, db, item.ID)
	require.Len(t, entries, 1)
	assert.Equal(t, models.EntrySale, entries[0].EntryType)
	assert.Equal(t, "INV/2025-26/0001", entries[0].ReferenceID)
	assert.Equal(t, -4, entries[0].QuantityChange)
	assert.Equal(t, 10, entries[0].PreviousStock)
	assert.Equal(t, 6, entries[0].NewStock)
}

func TestApplySaleInsufficientStockReportsAllShortfalls(t *testing.T) {
	db := setupLedgerTestDB(t)
	c := NewCoordinator(db)
	a := seedItem(t, db, "SKU-A", 2)
	b := seedItem(t, db, "SKU-B", 100)
	d := seedItem(t, db, "SKU-C", 0)

	err := c.RunSerialized(func(tx *gorm.DB) error {
		return c.ApplySale(tx, []Line{
			{ItemID: a.ID, ItemName: a.ItemName, Quantity: 5},
			{ItemID: b.ID, ItemName: b.ItemName, Quantity: 10},
			{ItemID: d.ID, ItemName: d.ItemName, Quantity: 1},
		}, "INV/2025-26/0001", 1)
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInsufficientStock))

	var insufficient *InsufficientStockError
	require.True(t, errors.As(err, &insufficient))
	require.Len(t, insufficient.Shortfalls, 2)
	assert.Equal(t, a.ID, insufficient.Shortfalls[0].ItemID)
	assert.Equal(t, 5, insufficient.Shortfalls[0].Requested)
	assert.Equal(t, 2, insufficient.Shortfalls[0].Available)
	assert.Equal(t, d.ID, insufficient.Shortfalls[1].ItemID)

	// the adequate line must not have been applied either
	assert.Equal(t, 100, itemStock(t, db, b.ID))
	assert.Empty(t, entriesFor(t, db, b.ID))
}

func TestValidateSaleAggregatesRepeatedItems(t *testing.T) {
	db := setupLedgerTestDB(t)
	c := NewCoordinator(db)
	item := seedItem(t, db, "SKU-1", 5)

	err := c.ValidateSale(db, []Line{
		{ItemID: item.ID, Quantity: 3},
		{ItemID: item.ID, Quantity: 3},
	})
	require.Error(t, err)

	var insufficient *InsufficientStockError
	require.True(t, errors.As(err, &insufficient))
	require.Len(t, insufficient.Shortfalls, 1)
	assert.Equal(t, 6, insufficient.Shortfalls[0].Requested)
	assert.Equal(t, 5, insufficient.Shortfalls[0].Available)
}

func TestApplyPurchaseAdds(t *testing.T) {
	db := setupLedgerTestDB(t)
	c := NewCoordinator(db)
	item := seedItem(t, db, "SKU-1", 3)

	err := c.RunSerialized(func(tx *gorm.DB) error {
		return c.ApplyPurchase(tx, []Line{{ItemID: item.ID, Quantity: 7}}, "PUR/2025-26/0001", 2)
	})
	require.NoError(t, err)

	assert.Equal(t, 10, itemStock(t, db, item.ID))
	entries := entriesFor(t, db, item.ID)
	require.Len(t, entries, 1)
	assert.Equal(t, models.EntryPurchase, entries[0].EntryType)
	assert.Equal(t, 7, entries[0].QuantityChange)
}

func TestReverseRestoresBalances(t *testing.T) {
	db := setupLedgerTestDB(t)
	c := NewCoordinator(db)
	a := seedItem(t, db, "SKU-A", 10)
	b := seedItem(t, db, "SKU-B", 8)

	err := c.RunSerialized(func(tx *gorm.DB) error {
		return c.ApplySale(tx, []Line{
			{ItemID: a.ID, Quantity: 4},
			{ItemID: b.ID, Quantity: 2},
		}, "INV/2025-26/0007", 1)
	})
	require.NoError(t, err)

	err = c.RunSerialized(func(tx *gorm.DB) error {
		return c.Reverse(tx, "INV/2025-26/0007", 1)
	})
	require.NoError(t, err)

	assert.Equal(t, 10, itemStock(t, db, a.ID))
	assert.Equal(t, 8, itemStock(t, db, b.ID))

	entries := entriesFor(t, db, a.ID)
	require.Len(t, entries, 2)
	assertChain(t, entries)
	assert.Equal(t, models.EntryAdjustment, entries[1].EntryType)
	assert.Equal(t, "CANCEL-INV/2025-26/0007", entries[1].ReferenceID)
	assert.Equal(t, 4, entries[1].QuantityChange)
	require.NotNil(t, entries[1].Notes)
	assert.Equal(t, "reversal of INV/2025-26/0007", *entries[1].Notes)
}

func TestReversePurchaseCanFailOnDepletedStock(t *testing.T) {
	db := setupLedgerTestDB(t)
	c := NewCoordinator(db)
	item := seedItem(t, db, "SKU-1", 0)

	err := c.RunSerialized(func(tx *gorm.DB) error {
		return c.ApplyPurchase(tx, []Line{{ItemID: item.ID, Quantity: 5}}, "PUR/2025-26/0001", 1)
	})
	require.NoError(t, err)

	// stock from the purchase already sold on
	err = c.RunSerialized(func(tx *gorm.DB) error {
		return c.ApplySale(tx, []Line{{ItemID: item.ID, Quantity: 4}}, "INV/2025-26/0001", 1)
	})
	require.NoError(t, err)

	err = c.RunSerialized(func(tx *gorm.DB) error {
		return c.Reverse(tx, "PUR/2025-26/0001", 1)
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInsufficientStock))

	// the failed reversal must leave balance and ledger untouched
	assert.Equal(t, 1, itemStock(t, db, item.ID))
	assert.Len(t, entriesFor(t, db, item.ID), 2)
}

func TestApplyOpeningAndAdjustment(t *testing.T) {
	db := setupLedgerTestDB(t)
	c := NewCoordinator(db)
	item := seedItem(t, db, "SKU-1", 0)

	err := c.RunSerialized(func(tx *gorm.DB) error {
		return c.ApplyOpening(tx, item.ID, 50, "OPENING-1", 1)
	})
	require.NoError(t, err)
	assert.Equal(t, 50, itemStock(t, db, item.ID))

	note := "stocktake correction"
	err = c.RunSerialized(func(tx *gorm.DB) error {
		return c.ApplyAdjustment(tx, item.ID, -3, &note, "ADJ-1", 1)
	})
	require.NoError(t, err)
	assert.Equal(t, 47, itemStock(t, db, item.ID))

	entries := entriesFor(t, db, item.ID)
	require.Len(t, entries, 2)
	assertChain(t, entries)
	assert.Equal(t, models.EntryOpening, entries[0].EntryType)
	assert.Equal(t, models.EntryAdjustment, entries[1].EntryType)
	require.NotNil(t, entries[1].Notes)
	assert.Equal(t, note, *entries[1].Notes)
}

func TestAdjustmentCannotDriveNegative(t *testing.T) {
	db := setupLedgerTestDB(t)
	c := NewCoordinator(db)
	item := seedItem(t, db, "SKU-1", 2)

	err := c.RunSerialized(func(tx *gorm.DB) error {
		return c.ApplyAdjustment(tx, item.ID, -5, nil, "ADJ-1", 1)
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInsufficientStock))
	assert.Equal(t, 2, itemStock(t, db, item.ID))
}

func TestChainInvariantAcrossMixedEntries(t *testing.T) {
	db := setupLedgerTestDB(t)
	c := NewCoordinator(db)
	item := seedItem(t, db, "SKU-1", 0)

	steps := []func(tx *gorm.DB) error{
		func(tx *gorm.DB) error { return c.ApplyOpening(tx, item.ID, 20, "OPENING-1", 1) },
		func(tx *gorm.DB) error {
			return c.ApplyPurchase(tx, []Line{{ItemID: item.ID, Quantity: 15}}, "PUR/2025-26/0001", 1)
		},
		func(tx *gorm.DB) error {
			return c.ApplySale(tx, []Line{{ItemID: item.ID, Quantity: 12}}, "INV/2025-26/0001", 1)
		},
		func(tx *gorm.DB) error { return c.ApplyAdjustment(tx, item.ID, -1, nil, "ADJ-1", 1) },
		func(tx *gorm.DB) error { return c.Reverse(tx, "INV/2025-26/0001", 1) },
	}
	for _, step := range steps {
		require.NoError(t, c.RunSerialized(step))
	}

	entries := entriesFor(t, db, item.ID)
	require.Len(t, entries, 5)
	assertChain(t, entries)
	assert.Equal(t, 34, itemStock(t, db, item.ID))
	assert.Equal(t, 34, entries[len(entries)-1].NewStock)
}
