package model

import (
	"time"

	"github.com/google/uuid"
)

// OrderState is the lifecycle state of a committed order.
type OrderState string

const (
	// OrderStateNew is the state of a freshly committed basket.
	OrderStateNew OrderState = "NEW"
	// OrderStatePaid means payment has been captured; the order sits in
	// the hand-off queue awaiting a packer.
	OrderStatePaid OrderState = "PAID"
	// OrderStatePacking means a packing session has claimed the order.
	// The claim is exclusive; an unclaimed failure reverts to PAID.
	OrderStatePacking OrderState = "PACKING"
	// OrderStatePacked is terminal; stock decrements are finalised.
	OrderStatePacked OrderState = "PACKED"
)

// Order is the committed, identity-bearing successor of a basket. It is
// owned by the order processing service for its whole lifetime.
type Order struct {
	ID        int         `json:"id" db:"id"`
	State     OrderState  `json:"state" db:"state"`
	Lines     []OrderLine `json:"lines"`
	CreatedAt time.Time   `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time   `json:"updatedAt" db:"updated_at"`
}

// Total returns the order value at commit-time prices.
func (o *Order) Total() float64 {
	var total float64
	for _, l := range o.Lines {
		total += l.UnitPrice * float64(l.Quantity)
	}
	return total
}

// OrderLine is one product line of a committed order. UnitPrice is the
// price at commit time, after any basket discount.
type OrderLine struct {
	ID        uuid.UUID `json:"-" db:"id"`
	OrderID   int       `json:"-" db:"order_id"`
	ProductNo string    `json:"productNo" db:"product_no"`

	Description string  `json:"description" db:"description"`
	UnitPrice   float64 `json:"unitPrice" db:"unit_price"`
	Quantity    int     `json:"quantity" db:"quantity"`
}
