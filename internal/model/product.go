package model

// Product represents a catalogue entry as read from the stock ledger.
// StockLevel is always stock-on-hand; a quantity requested by a customer
// lives on BasketItem instead.
type Product struct {
	Number      string  `json:"number" db:"product_no"`
	Description string  `json:"description" db:"description"`
	Price       float64 `json:"price" db:"price"`
	StockLevel  int     `json:"stockLevel" db:"stock_level"`
}

// BasketItem is a single line of an in-progress checkout: a product plus
// the quantity the customer wants, priced at the current basket price
// (which may have been discounted).
type BasketItem struct {
	Number            string  `json:"number"`
	Description       string  `json:"description"`
	UnitPrice         float64 `json:"unitPrice"`
	RequestedQuantity int     `json:"requestedQuantity"`
}

// LineTotal returns the line's contribution to the basket total.
func (i BasketItem) LineTotal() float64 {
	return i.UnitPrice * float64(i.RequestedQuantity)
}

// SalesSummary is a per-product rollup over packed orders. It is derived
// state, recomputed on every query, never persisted.
type SalesSummary struct {
	ProductNo     string  `json:"productNo" db:"product_no"`
	Description   string  `json:"description" db:"description"`
	TotalQuantity int     `json:"totalQuantity" db:"total_quantity"`
	TotalRevenue  float64 `json:"totalRevenue" db:"total_revenue"`
}
