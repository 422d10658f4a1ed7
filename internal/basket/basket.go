package basket

import (
	"fmt"
	"strings"

	"stockmart/internal/model"
)

// Basket is an in-progress, uncommitted collection of line items for a
// single checkout session. It is owned exclusively by the session that
// created it and is never shared across sessions.
//
// Adding a product number already in the basket merges into the
// existing line, increasing its requested quantity; a basket never
// contains two lines for the same product number.
type Basket struct {
	orderNum int
	items    []model.BasketItem
}

// New creates an empty basket with no order number assigned.
func New() *Basket {
	return &Basket{}
}

// SetOrderNum assigns the order identity. Order processing stamps this
// at commit; it stays zero while the basket is pending.
func (b *Basket) SetOrderNum(n int) {
	b.orderNum = n
}

// OrderNum returns the assigned order number, or 0 if uncommitted.
func (b *Basket) OrderNum() int {
	return b.orderNum
}

// Add appends a line for the product, or merges into the existing line
// for the same product number. The product's ledger price becomes the
// line's unit price.
func (b *Basket) Add(p model.Product, quantity int) error {
	if quantity <= 0 {
		return model.ErrInvalidQuantity
	}

	for i := range b.items {
		if b.items[i].Number == p.Number {
			b.items[i].RequestedQuantity += quantity
			return nil
		}
	}

	b.items = append(b.items, model.BasketItem{
		Number:            p.Number,
		Description:       p.Description,
		UnitPrice:         p.Price,
		RequestedQuantity: quantity,
	})
	return nil
}

// Remove deletes the line matching the product number. Removing an
// absent number is a no-op, so repeated calls are safe.
func (b *Basket) Remove(productNo string) {
	for i := range b.items {
		if b.items[i].Number == productNo {
			b.items = append(b.items[:i], b.items[i+1:]...)
			return
		}
	}
}

// ApplyDiscount multiplies every line's unit price by (1 - fraction) in
// place. The fraction must lie in [0, 1]. There is no per-step reversal;
// the session snapshots the basket first if it wants undo.
func (b *Basket) ApplyDiscount(fraction float64) error {
	if fraction < 0 || fraction > 1 {
		return model.ErrInvalidDiscount
	}

	for i := range b.items {
		b.items[i].UnitPrice *= 1 - fraction
	}
	return nil
}

// Size returns the number of lines in the basket.
func (b *Basket) Size() int {
	return len(b.items)
}

// Items returns a copy of the line items in insertion order.
func (b *Basket) Items() []model.BasketItem {
	items := make([]model.BasketItem, len(b.items))
	copy(items, b.items)
	return items
}

// Total returns the basket value, computed on demand and never cached.
func (b *Basket) Total() float64 {
	var total float64
	for _, item := range b.items {
		total += item.LineTotal()
	}
	return total
}

// Clone returns an independent snapshot of the basket. Sessions use it
// before a risky mutation so the previous state can be restored.
func (b *Basket) Clone() *Basket {
	c := &Basket{orderNum: b.orderNum}
	c.items = make([]model.BasketItem, len(b.items))
	copy(c.items, b.items)
	return c
}

// Details produces the formatted multi-line receipt: order-number
// header, one line per item, trailing grand total.
func (b *Basket) Details() string {
	var sb strings.Builder

	if b.orderNum != 0 {
		fmt.Fprintf(&sb, "Order number: %03d\n", b.orderNum)
	}

	for _, item := range b.items {
		fmt.Fprintf(&sb, "%-7s %-24s (%3d) %7.2f  %8.2f\n",
			item.Number, item.Description, item.RequestedQuantity,
			item.UnitPrice, item.LineTotal())
	}

	fmt.Fprintf(&sb, "----------------------------\n")
	fmt.Fprintf(&sb, "Total %.2f\n", b.Total())
	return sb.String()
}
