package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// DocumentClass distinguishes the two numbered document streams.
type DocumentClass string

const (
	ClassInvoice  DocumentClass = "invoice"
	ClassPurchase DocumentClass = "purchase"
)

// DocumentStatus is the closed document state machine.
type DocumentStatus string

const (
	StatusDraft     DocumentStatus = "draft"
	StatusCompleted DocumentStatus = "completed"
	StatusCancelled DocumentStatus = "cancelled"
)

// CanTransitionTo reports whether the state machine permits moving to next.
// Cancelled is terminal; completed documents can only be cancelled.
func (s DocumentStatus) CanTransitionTo(next DocumentStatus) bool {
	switch s {
	case StatusDraft:
		return next == StatusDraft || next == StatusCompleted || next == StatusCancelled
	case StatusCompleted:
		return next == StatusCancelled
	default:
		return false
	}
}

type Document struct {
	ID             int64          `gorm:"primaryKey;autoIncrement"`
	DocumentNumber string         `gorm:"type:varchar(32);uniqueIndex;not null"`
	DocumentClass  DocumentClass  `gorm:"type:varchar(16);index;not null"`
	FiscalYear     string         `gorm:"type:varchar(8);index;not null"`
	PartyID        *int64         `gorm:"index"`
	IssueDate      time.Time      `gorm:"not null"`
	IsInterState   bool           `gorm:"not null"`
	Status         DocumentStatus `gorm:"type:varchar(16);index;not null"`

	Subtotal   decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	TotalCGST  decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	TotalSGST  decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	TotalIGST  decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	RoundOff   decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	GrandTotal decimal.Decimal `gorm:"type:decimal(18,2);not null"`

	Notes     *string `gorm:"type:text"`
	CreatedBy int64   `gorm:"not null"`
	CreatedAt time.Time
	UpdatedAt time.Time

	Lines []DocumentLine `gorm:"foreignKey:DocumentID"`
}

type DocumentLine struct {
	ID         int64  `gorm:"primaryKey;autoIncrement"`
	DocumentID int64  `gorm:"index;not null"`
	ItemID     int64  `gorm:"not null"`
	ItemName   string `gorm:"type:varchar(128);not null"`
	HSNCode    string `gorm:"type:varchar(16)"`
	Quantity   int    `gorm:"not null"`

	UnitPrice       decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	DiscountPerUnit decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	GSTPercent      decimal.Decimal `gorm:"type:decimal(5,2);not null"`
	TaxableAmount   decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	CGST            decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	SGST            decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	IGST            decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	LineTotal       decimal.Decimal `gorm:"type:decimal(18,2);not null"`

	CreatedAt time.Time

	Item *Item `gorm:"foreignKey:ItemID"`
}

// SequenceCounter is the persisted per-class, per-fiscal-year running counter.
// It is only ever mutated inside the transaction that allocates a number.
type SequenceCounter struct {
	ID            int64         `gorm:"primaryKey;autoIncrement"`
	DocumentClass DocumentClass `gorm:"type:varchar(16);uniqueIndex:idx_seq_class_fy,priority:1;not null"`
	FiscalYear    string        `gorm:"type:varchar(8);uniqueIndex:idx_seq_class_fy,priority:2;not null"`
	CurrentValue  int64         `gorm:"not null;default:0"`
	UpdatedAt     time.Time
}
