package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Item struct {
	ID            int64           `gorm:"primaryKey;autoIncrement"`
	ItemCode      string          `gorm:"type:varchar(32);uniqueIndex;not null"`
	ItemName      string          `gorm:"type:varchar(128);not null"`
	HSNCode       string          `gorm:"type:varchar(16);index"`
	UnitOfMeasure string          `gorm:"type:varchar(32)"`
	GSTPercent    decimal.Decimal `gorm:"type:decimal(5,2);not null"`
	PurchasePrice decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	SellingPrice  decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	CurrentStock  int             `gorm:"not null;default:0"`
	MinStockLevel int             `gorm:"not null;default:0"`
	IsActive      bool            `gorm:"not null;default:true"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

type Customer struct {
	ID        int64   `gorm:"primaryKey;autoIncrement"`
	Name      string  `gorm:"type:varchar(128);not null"`
	GSTIN     *string `gorm:"type:varchar(15);index"`
	StateCode string  `gorm:"type:varchar(2);not null"`
	Phone     *string `gorm:"type:varchar(20)"`
	Email     *string `gorm:"type:varchar(100)"`
	Address   *string `gorm:"type:text"`
	IsActive  bool    `gorm:"not null;default:true"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Supplier struct {
	ID        int64   `gorm:"primaryKey;autoIncrement"`
	Name      string  `gorm:"type:varchar(128);not null"`
	GSTIN     *string `gorm:"type:varchar(15);index"`
	StateCode string  `gorm:"type:varchar(2);not null"`
	Phone     *string `gorm:"type:varchar(20)"`
	Email     *string `gorm:"type:varchar(100)"`
	Address   *string `gorm:"type:text"`
	IsActive  bool    `gorm:"not null;default:true"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// EntryType classifies one ledger movement.
type EntryType string

const (
	EntryPurchase   EntryType = "purchase"
	EntrySale       EntryType = "sale"
	EntryAdjustment EntryType = "adjustment"
	EntryOpening    EntryType = "opening"
	EntryReturn     EntryType = "return"
)

// LedgerEntry is one immutable stock movement. Rows are only ever appended;
// corrections are new compensating entries, never updates or deletes.
type LedgerEntry struct {
	ID             int64     `gorm:"primaryKey;autoIncrement"`
	ItemID         int64     `gorm:"index:idx_ledger_item_created,priority:1;not null"`
	EntryType      EntryType `gorm:"type:varchar(16);not null"`
	ReferenceID    string    `gorm:"type:varchar(64);index;not null"`
	QuantityChange int       `gorm:"not null"`
	PreviousStock  int       `gorm:"not null"`
	NewStock       int       `gorm:"not null"`
	Notes          *string   `gorm:"type:varchar(255)"`
	CreatedBy      int64     `gorm:"not null"`
	CreatedAt      time.Time `gorm:"index:idx_ledger_item_created,priority:2"`

	Item *Item `gorm:"foreignKey:ItemID"`
}
