package stockledger

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInsufficientStock is the sentinel matched by errors.Is for any
// availability failure. The concrete error carries every shortfall in the
// batch so callers can surface them all at once.
var ErrInsufficientStock = errors.New("insufficient stock")

// Shortfall identifies one item whose requested quantity exceeds availability.
type Shortfall struct {
	ItemID    int64
	ItemName  string
	Requested int
	Available int
}

type InsufficientStockError struct {
	Shortfalls []Shortfall
}

func (e *InsufficientStockError) Error() string {
	parts := make([]string, 0, len(e.Shortfalls))
	for _, s := range e.Shortfalls {
		parts = append(parts, fmt.Sprintf("%s (id %d): requested %d, available %d",
			s.ItemName, s.ItemID, s.Requested, s.Available))
	}
	return "insufficient stock: " + strings.Join(parts, "; ")
}

func (e *InsufficientStockError) Unwrap() error {
	return ErrInsufficientStock
}
