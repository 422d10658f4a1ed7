package basket

import (
	"testing"

	"stockmart/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testProduct(number, description string, price float64, stock int) model.Product {
	return model.Product{
		Number:      number,
		Description: description,
		Price:       price,
		StockLevel:  stock,
	}
}

func TestBasket_SetOrderNum(t *testing.T) {
	b := New()
	assert.Equal(t, 0, b.OrderNum())

	b.SetOrderNum(123)
	assert.Equal(t, 123, b.OrderNum())
}

func TestBasket_Add(t *testing.T) {
	b := New()

	err := b.Add(testProduct("0001", "40 inch TV", 269.00, 90), 2)
	require.NoError(t, err)
	assert.Equal(t, 1, b.Size())

	items := b.Items()
	assert.Equal(t, "0001", items[0].Number)
	assert.Equal(t, 2, items[0].RequestedQuantity)
	assert.InDelta(t, 269.00, items[0].UnitPrice, 0.001)
}

func TestBasket_Add_MergesSameProductNumber(t *testing.T) {
	b := New()

	require.NoError(t, b.Add(testProduct("0001", "40 inch TV", 269.00, 90), 1))
	require.NoError(t, b.Add(testProduct("0002", "DAB Radio", 29.99, 20), 1))
	require.NoError(t, b.Add(testProduct("0001", "40 inch TV", 269.00, 90), 3))

	// No duplicate line; quantity merged into the existing one.
	require.Equal(t, 2, b.Size())
	items := b.Items()
	assert.Equal(t, 4, items[0].RequestedQuantity)
	assert.Equal(t, "0002", items[1].Number)
}

func TestBasket_Add_RejectsNonPositiveQuantity(t *testing.T) {
	b := New()

	err := b.Add(testProduct("0001", "40 inch TV", 269.00, 90), 0)
	assert.ErrorIs(t, err, model.ErrInvalidQuantity)
	err = b.Add(testProduct("0001", "40 inch TV", 269.00, 90), -1)
	assert.ErrorIs(t, err, model.ErrInvalidQuantity)
	assert.Equal(t, 0, b.Size())
}

func TestBasket_Remove_IsIdempotent(t *testing.T) {
	b := New()
	require.NoError(t, b.Add(testProduct("0001", "40 inch TV", 269.00, 90), 2))

	b.Remove("0001")
	assert.Equal(t, 0, b.Size())

	// Second removal is a no-op.
	b.Remove("0001")
	assert.Equal(t, 0, b.Size())
}

func TestBasket_ApplyDiscount(t *testing.T) {
	b := New()
	require.NoError(t, b.Add(testProduct("0001", "Discounted", 100.00, 10), 1))

	require.NoError(t, b.ApplyDiscount(0.10))

	items := b.Items()
	assert.InDelta(t, 90.00, items[0].UnitPrice, 0.01)
	assert.InDelta(t, 90.00, b.Total(), 0.01)
}

func TestBasket_ApplyDiscount_InvalidFraction(t *testing.T) {
	b := New()
	require.NoError(t, b.Add(testProduct("0001", "Discounted", 100.00, 10), 1))

	assert.ErrorIs(t, b.ApplyDiscount(-0.1), model.ErrInvalidDiscount)
	assert.ErrorIs(t, b.ApplyDiscount(1.5), model.ErrInvalidDiscount)

	// Price untouched by the failed calls.
	assert.InDelta(t, 100.00, b.Items()[0].UnitPrice, 0.001)
}

func TestBasket_Total(t *testing.T) {
	b := New()
	require.NoError(t, b.Add(testProduct("0001", "40 inch TV", 269.00, 90), 2))
	require.NoError(t, b.Add(testProduct("0002", "DAB Radio", 29.99, 20), 3))

	assert.InDelta(t, 2*269.00+3*29.99, b.Total(), 0.001)

	require.NoError(t, b.ApplyDiscount(0.5))
	assert.InDelta(t, (2*269.00+3*29.99)/2, b.Total(), 0.001)
}

func TestBasket_Details(t *testing.T) {
	b := New()
	b.SetOrderNum(123)
	require.NoError(t, b.Add(testProduct("0001", "Test Product", 10.00, 5), 2))

	details := b.Details()
	assert.Contains(t, details, "Order number: 123")
	assert.Contains(t, details, "Test Product")
	assert.Contains(t, details, "Total 20.00")
}

func TestBasket_Clone_IsIndependent(t *testing.T) {
	b := New()
	require.NoError(t, b.Add(testProduct("0001", "40 inch TV", 269.00, 90), 1))

	snapshot := b.Clone()
	require.NoError(t, b.Add(testProduct("0002", "DAB Radio", 29.99, 20), 1))
	require.NoError(t, b.ApplyDiscount(0.25))

	assert.Equal(t, 1, snapshot.Size())
	assert.InDelta(t, 269.00, snapshot.Items()[0].UnitPrice, 0.001)
	assert.Equal(t, 2, b.Size())
}
