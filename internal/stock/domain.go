package stock

import (
	"fmt"
	"time"

	"github.com/ledgerline/ledgerline/internal/shared"
)

// Reason tags the cause of a stock movement.
type Reason string

const (
	// ReasonSale is a deduction made by an invoice commit.
	ReasonSale Reason = "sale"
	// ReasonPurchase is an inbound restock.
	ReasonPurchase Reason = "purchase"
	// ReasonDamage records written-off stock.
	ReasonDamage Reason = "damage"
	// ReasonAdjustment is a manual correction.
	ReasonAdjustment Reason = "adjustment"
	// ReasonReturn is stock coming back from a customer.
	ReasonReturn Reason = "return"
)

// Valid reports whether the reason is one of the known tags.
func (r Reason) Valid() bool {
	switch r {
	case ReasonSale, ReasonPurchase, ReasonDamage, ReasonAdjustment, ReasonReturn:
		return true
	}
	return false
}

// Event is one immutable entry in a product's stock trail.
type Event struct {
	ID             int64     `json:"id"`
	ProductID      int64     `json:"product_id"`
	QuantityChange int64     `json:"quantity_change"`
	PreviousStock  int64     `json:"previous_stock"`
	NewStock       int64     `json:"new_stock"`
	Reason         Reason    `json:"reason"`
	Note           string    `json:"note"`
	CreatedAt      time.Time `json:"created_at"`
}

// ProductStock is the slice of a product the ledger needs.
type ProductStock struct {
	ID            int64
	BusinessID    int64
	Name          string
	CurrentStock  int64
	MinStockLevel int64
}

// Apply computes the resulting stock for a movement. Sale movements may
// not take stock below zero; other reasons are allowed to go negative so
// corrections can be recorded, though callers should treat that as a
// data-quality warning.
func Apply(product ProductStock, delta int64, reason Reason) (int64, error) {
	newStock := product.CurrentStock + delta
	if reason == ReasonSale && newStock < 0 {
		return 0, fmt.Errorf("%w: product %q has %d in stock, need %d",
			shared.ErrInsufficientStock, product.Name, product.CurrentStock, -delta)
	}
	return newStock, nil
}

// BuildEvent assembles the trail entry for an applied movement.
func BuildEvent(product ProductStock, delta, newStock int64, reason Reason, note string, at time.Time) Event {
	return Event{
		ProductID:      product.ID,
		QuantityChange: delta,
		PreviousStock:  product.CurrentStock,
		NewStock:       newStock,
		Reason:         reason,
		Note:           note,
		CreatedAt:      at,
	}
}
