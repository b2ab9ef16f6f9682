package sequence

import (
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"vanik-system/internal/database/models"
)

func setupSequenceTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.SequenceCounter{}, &models.Document{}, &models.DocumentLine{}))
	return db
}

func TestAllocateFormatsNumber(t *testing.T) {
	db := setupSequenceTestDB(t)
	gen := NewGenerator(nil)

	issue := time.Date(2025, time.June, 15, 0, 0, 0, 0, time.UTC)

	err := db.Transaction(func(tx *gorm.DB) error {
		number, err := gen.Allocate(tx, models.ClassInvoice, issue)
		require.NoError(t, err)
		assert.Equal(t, "INV/2025-26/0001", number)
		return nil
	})
	require.NoError(t, err)

	err = db.Transaction(func(tx *gorm.DB) error {
		number, err := gen.Allocate(tx, models.ClassInvoice, issue)
		require.NoError(t, err)
		assert.Equal(t, "INV/2025-26/0002", number)
		return nil
	})
	require.NoError(t, err)
}

func TestAllocateIndependentStreams(t *testing.T) {
	db := setupSequenceTestDB(t)
	gen := NewGenerator(nil)

	issue := time.Date(2025, time.July, 1, 0, 0, 0, 0, time.UTC)

	var inv, pur string
	err := db.Transaction(func(tx *gorm.DB) error {
		var err error
		if inv, err = gen.Allocate(tx, models.ClassInvoice, issue); err != nil {
			return err
		}
		pur, err = gen.Allocate(tx, models.ClassPurchase, issue)
		return err
	})
	require.NoError(t, err)

	assert.Equal(t, "INV/2025-26/0001", inv)
	assert.Equal(t, "PUR/2025-26/0001", pur)
}

func TestAllocateResetsAcrossFiscalYears(t *testing.T) {
	db := setupSequenceTestDB(t)
	gen := NewGenerator(nil)

	marchEnd := time.Date(2025, time.March, 31, 0, 0, 0, 0, time.UTC)
	aprilStart := time.Date(2025, time.April, 1, 0, 0, 0, 0, time.UTC)

	var before, after string
	err := db.Transaction(func(tx *gorm.DB) error {
		var err error
		if before, err = gen.Allocate(tx, models.ClassInvoice, marchEnd); err != nil {
			return err
		}
		after, err = gen.Allocate(tx, models.ClassInvoice, aprilStart)
		return err
	})
	require.NoError(t, err)

	assert.Equal(t, "INV/2024-25/0001", before)
	assert.Equal(t, "INV/2025-26/0001", after)

	var counters []models.SequenceCounter
	require.NoError(t, db.Order("fiscal_year ASC").Find(&counters).Error)
	require.Len(t, counters, 2)
	assert.Equal(t, int64(1), counters[0].CurrentValue)
	assert.Equal(t, int64(1), counters[1].CurrentValue)
}

func TestAllocateCustomPrefixes(t *testing.T) {
	db := setupSequenceTestDB(t)
	gen := NewGenerator(map[models.DocumentClass]string{
		models.ClassInvoice:  "TI",
		models.ClassPurchase: "PB",
	})

	issue := time.Date(2026, time.January, 5, 0, 0, 0, 0, time.UTC)

	err := db.Transaction(func(tx *gorm.DB) error {
		number, err := gen.Allocate(tx, models.ClassPurchase, issue)
		require.NoError(t, err)
		assert.Equal(t, "PB/2025-26/0001", number)
		return nil
	})
	require.NoError(t, err)
}

func TestAllocateRollbackLeavesNoGap(t *testing.T) {
	db := setupSequenceTestDB(t)
	gen := NewGenerator(nil)

	issue := time.Date(2025, time.May, 2, 0, 0, 0, 0, time.UTC)

	err := db.Transaction(func(tx *gorm.DB) error {
		if _, err := gen.Allocate(tx, models.ClassInvoice, issue); err != nil {
			return err
		}
		return fmt.Errorf("document persistence failed")
	})
	require.Error(t, err)

	var committed string
	txErr := db.Transaction(func(tx *gorm.DB) error {
		var err error
		committed, err = gen.Allocate(tx, models.ClassInvoice, issue)
		return err
	})
	require.NoError(t, txErr)
	assert.Equal(t, "INV/2025-26/0001", committed)
}

func TestAllocateConcurrentDistinctAndGapless(t *testing.T) {
	db := setupSequenceTestDB(t)
	gen := NewGenerator(nil)

	issue := time.Date(2025, time.August, 10, 0, 0, 0, 0, time.UTC)

	const workers = 20
	var (
		serial  sync.Mutex
		wg      sync.WaitGroup
		mu      sync.Mutex
		numbers []string
	)
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			// mirrors the writer lock the billing coordinator holds
			serial.Lock()
			defer serial.Unlock()
			err := db.Transaction(func(tx *gorm.DB) error {
				number, err := gen.Allocate(tx, models.ClassInvoice, issue)
				if err != nil {
					return err
				}
				mu.Lock()
				numbers = append(numbers, number)
				mu.Unlock()
				return nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	require.Len(t, numbers, workers)
	sort.Strings(numbers)
	for i := 0; i < workers; i++ {
		assert.Equal(t, fmt.Sprintf("INV/2025-26/%04d", i+1), numbers[i])
	}
}

func TestNumberExists(t *testing.T) {
	db := setupSequenceTestDB(t)

	doc := models.Document{
		DocumentNumber: "INV/2025-26/0001",
		DocumentClass:  models.ClassInvoice,
		FiscalYear:     "2025-26",
		IssueDate:      time.Now(),
		Status:         models.StatusCompleted,
		CreatedBy:      1,
	}
	require.NoError(t, db.Create(&doc).Error)

	exists, err := NumberExists(db, "INV/2025-26/0001")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = NumberExists(db, "INV/2025-26/0002")
	require.NoError(t, err)
	assert.False(t, exists)
}
