package gst

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Default GST rate slabs. Overridable through config for future rate changes.
var DefaultRates = []decimal.Decimal{
	decimal.NewFromInt(0),
	decimal.NewFromInt(5),
	decimal.NewFromInt(12),
	decimal.NewFromInt(18),
	decimal.NewFromInt(28),
}

var (
	oneHundred = decimal.NewFromInt(100)
	two        = decimal.NewFromInt(2)
)

// Line is one validated document line, before tax computation.
type Line struct {
	ItemID          int64
	ItemName        string
	HSNCode         string
	Quantity        int
	UnitPrice       decimal.Decimal
	DiscountPerUnit decimal.Decimal
	GSTPercent      decimal.Decimal
}

// LineAmounts carries a line plus its computed tax components.
type LineAmounts struct {
	Line
	TaxableAmount decimal.Decimal
	CGST          decimal.Decimal
	SGST          decimal.Decimal
	IGST          decimal.Decimal
	LineTotal     decimal.Decimal
}

// Totals is the document-level aggregation of computed lines.
type Totals struct {
	Subtotal   decimal.Decimal
	TotalCGST  decimal.Decimal
	TotalSGST  decimal.Decimal
	TotalIGST  decimal.Decimal
	TotalTax   decimal.Decimal
	GrandTotal decimal.Decimal
	RoundOff   decimal.Decimal
}

// TaxSplit is the CGST/SGST or IGST breakdown of one taxable amount.
type TaxSplit struct {
	CGST decimal.Decimal
	SGST decimal.Decimal
	IGST decimal.Decimal
}

// Round2 rounds to 2 decimal places, half away from zero.
func Round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// Round0 rounds to the nearest whole rupee, half away from zero.
func Round0(d decimal.Decimal) decimal.Decimal {
	return d.Round(0)
}

// ValidateLine enforces the caller contract of the computation functions:
// positive quantity, non-negative price, discount within unit price, and a
// recognised GST rate. allowedRates nil means DefaultRates.
func ValidateLine(l Line, allowedRates []decimal.Decimal) error {
	if l.Quantity <= 0 {
		return fmt.Errorf("%w: quantity must be greater than 0", ErrInvalidLineItem)
	}
	if l.UnitPrice.IsNegative() {
		return fmt.Errorf("%w: unit price must not be negative", ErrInvalidLineItem)
	}
	if l.DiscountPerUnit.IsNegative() {
		return fmt.Errorf("%w: discount must not be negative", ErrInvalidLineItem)
	}
	if l.DiscountPerUnit.GreaterThan(l.UnitPrice) {
		return fmt.Errorf("%w: discount %s exceeds unit price %s",
			ErrInvalidLineItem, l.DiscountPerUnit.StringFixed(2), l.UnitPrice.StringFixed(2))
	}
	rates := allowedRates
	if rates == nil {
		rates = DefaultRates
	}
	for _, r := range rates {
		if l.GSTPercent.Equal(r) {
			return nil
		}
	}
	return fmt.Errorf("%w: unsupported GST rate %s%%", ErrInvalidLineItem, l.GSTPercent.String())
}

// TaxableAmount computes round2((unitPrice - discountPerUnit) * quantity).
// Inputs are assumed validated; a discount above the unit price must be
// rejected by the caller before reaching this point.
func TaxableAmount(quantity int, unitPrice, discountPerUnit decimal.Decimal) decimal.Decimal {
	net := unitPrice.Sub(discountPerUnit)
	return Round2(net.Mul(decimal.NewFromInt(int64(quantity))))
}

// SplitTax splits the GST on a taxable amount into its components. The
// intrastate half for SGST is the remainder after rounding CGST, so the two
// halves always sum exactly to the rounded GST amount.
func SplitTax(taxable, gstPercent decimal.Decimal, interState bool) TaxSplit {
	gstAmount := Round2(taxable.Mul(gstPercent).Div(oneHundred))
	if interState {
		return TaxSplit{IGST: gstAmount}
	}
	half := Round2(gstAmount.Div(two))
	return TaxSplit{CGST: half, SGST: gstAmount.Sub(half)}
}

// ComputeLine derives the taxable amount, tax split and line total for one line.
func ComputeLine(l Line, interState bool) LineAmounts {
	taxable := TaxableAmount(l.Quantity, l.UnitPrice, l.DiscountPerUnit)
	split := SplitTax(taxable, l.GSTPercent, interState)
	return LineAmounts{
		Line:          l,
		TaxableAmount: taxable,
		CGST:          split.CGST,
		SGST:          split.SGST,
		IGST:          split.IGST,
		LineTotal:     taxable.Add(split.CGST).Add(split.SGST).Add(split.IGST),
	}
}

// DocumentTotals aggregates computed lines and applies the whole-rupee
// round-off. GrandTotal is always an integral rupee amount and
// |RoundOff| < 1 by construction.
func DocumentTotals(lines []LineAmounts) Totals {
	var t Totals
	for _, l := range lines {
		t.Subtotal = t.Subtotal.Add(l.TaxableAmount)
		t.TotalCGST = t.TotalCGST.Add(l.CGST)
		t.TotalSGST = t.TotalSGST.Add(l.SGST)
		t.TotalIGST = t.TotalIGST.Add(l.IGST)
	}
	t.TotalTax = t.TotalCGST.Add(t.TotalSGST).Add(t.TotalIGST)
	raw := t.Subtotal.Add(t.TotalTax)
	t.GrandTotal = Round0(raw)
	t.RoundOff = t.GrandTotal.Sub(raw)
	return t
}

// HSNGroup accumulates quantity and tax per HSN code for the GSTR summary.
type HSNGroup struct {
	HSNCode       string
	Quantity      int
	TaxableAmount decimal.Decimal
	CGST          decimal.Decimal
	SGST          decimal.Decimal
	IGST          decimal.Decimal
}

// HSNSummary groups computed lines by HSN code, preserving first-seen order.
func HSNSummary(lines []LineAmounts) []HSNGroup {
	index := make(map[string]int)
	groups := make([]HSNGroup, 0)
	for _, l := range lines {
		i, ok := index[l.HSNCode]
		if !ok {
			i = len(groups)
			index[l.HSNCode] = i
			groups = append(groups, HSNGroup{HSNCode: l.HSNCode})
		}
		groups[i].Quantity += l.Quantity
		groups[i].TaxableAmount = groups[i].TaxableAmount.Add(l.TaxableAmount)
		groups[i].CGST = groups[i].CGST.Add(l.CGST)
		groups[i].SGST = groups[i].SGST.Add(l.SGST)
		groups[i].IGST = groups[i].IGST.Add(l.IGST)
	}
	return groups
}

// FiscalYearStart returns the starting calendar year of the Indian fiscal year
// (April 1 to March 31) containing t.
func FiscalYearStart(t time.Time) int {
	if t.Month() >= time.April {
		return t.Year()
	}
	return t.Year() - 1
}

// FiscalYearLabel formats the fiscal year containing t as "YYYY-YY",
// e.g. 2025-04-01 -> "2025-26".
func FiscalYearLabel(t time.Time) string {
	start := FiscalYearStart(t)
	return fmt.Sprintf("%d-%02d", start, (start+1)%100)
}
