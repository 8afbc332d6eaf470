package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Listing represents one item offered for sale with a linearly decaying price.
type Listing struct {
	Title        string    // Primary key (unique per seller)
	InitialPrice int       // Asking price at StartTime
	FloorPrice   int       // Minimum acceptable price
	StartTime    time.Time // When the listing went up
	Deadline     time.Time // When the listing expires unsold
}

// Validate checks the listing's sale terms.
func (l Listing) Validate() error {
	if l.Title == "" {
		return fmt.Errorf("listing title is required")
	}
	if l.FloorPrice < 0 {
		return fmt.Errorf("floor price (%d) cannot be negative", l.FloorPrice)
	}
	if l.FloorPrice > l.InitialPrice {
		return fmt.Errorf("floor price (%d) cannot exceed initial price (%d)", l.FloorPrice, l.InitialPrice)
	}
	if !l.Deadline.After(l.StartTime) {
		return fmt.Errorf("deadline must be after the listing start time")
	}
	return nil
}

// Proposal is the payload of a purchase-acceptance message: a buyer
// accepting a previously proposed price for an item.
type Proposal struct {
	Title string `json:"title"`
	Price int    `json:"price"`
}

// Events recorded in the sale ledger.
const (
	EventSold    = "sold"
	EventExpired = "expired"
)

// SaleEvent is one row of the sale ledger: a listing leaving the
// catalogue, either sold at a price or expired unsold.
type SaleEvent struct {
	ID         uuid.UUID // Primary key
	Title      string    // Listing title
	Event      string    // EventSold or EventExpired
	Price      int       // Sale price, or last asking price for expiries
	OccurredAt time.Time // When the listing left the catalogue
}
