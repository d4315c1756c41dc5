package subscription

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/subtrackhq/subtrack-backend/internal/modules/catalog"
)

// ComputeLineTotal applies the discount-then-tax rule to one line.
// All arithmetic is plain float64; rounding happens only at display.
func ComputeLineTotal(unitPrice float64, quantity int, discountPercent, taxPercent float64) float64 {
	subtotal := unitPrice * float64(quantity)
	discountAmount := subtotal * (discountPercent / 100.0)
	taxableBase := subtotal - discountAmount
	taxAmount := taxableBase * (taxPercent / 100.0)
	return taxableBase + taxAmount
}

// Totals are the four aggregates cached on a subscription or frozen
// onto an invoice.
type Totals struct {
	Subtotal      float64
	TaxTotal      float64
	DiscountTotal float64
	GrandTotal    float64
}

// ComputeTotals recomputes every line's total and sums the aggregates.
// Summation is order-independent, so line order does not matter.
func ComputeTotals(lines []*Line) Totals {
	var t Totals
	for _, line := range lines {
		subtotal := line.UnitPriceSnapshot * float64(line.Quantity)
		discountAmount := subtotal * (line.DiscountPercent / 100.0)
		taxableBase := subtotal - discountAmount
		taxAmount := taxableBase * (line.TaxPercent / 100.0)

		line.LineTotal = taxableBase + taxAmount

		t.Subtotal += subtotal
		t.DiscountTotal += discountAmount
		t.TaxTotal += taxAmount
		t.GrandTotal += line.LineTotal
	}
	return t
}

// NewLineSnapshot freezes a product's name and price onto a new line.
// The catalog is never re-read afterwards, so later price edits cannot
// change historical totals.
func NewLineSnapshot(p *catalog.Product, quantity int, taxPercent, discountPercent float64) (*Line, error) {
	line, err := newLine(p.Name, p.BasePrice, quantity, taxPercent, discountPercent)
	if err != nil {
		return nil, err
	}
	productID := p.ID
	line.ProductID = &productID
	return line, nil
}

func newLine(name string, unitPrice float64, quantity int, taxPercent, discountPercent float64) (*Line, error) {
	if quantity < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidQuantity, quantity)
	}
	if taxPercent < 0 || taxPercent > 100 {
		return nil, fmt.Errorf("tax %w: got %v", ErrInvalidPercent, taxPercent)
	}
	if discountPercent < 0 || discountPercent > 100 {
		return nil, fmt.Errorf("discount %w: got %v", ErrInvalidPercent, discountPercent)
	}
	if unitPrice < 0 {
		return nil, fmt.Errorf("unit price must not be negative: got %v", unitPrice)
	}

	return &Line{
		ID:                  uuid.New(),
		ProductNameSnapshot: name,
		UnitPriceSnapshot:   unitPrice,
		Quantity:            quantity,
		TaxPercent:          taxPercent,
		DiscountPercent:     discountPercent,
		LineTotal:           ComputeLineTotal(unitPrice, quantity, discountPercent, taxPercent),
	}, nil
}
