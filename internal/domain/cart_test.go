package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lineItem(productID, variant string, price int64) LineItem {
	return LineItem{
		ProductID: productID,
		Variant:   variant,
		Name:      productID,
		UnitPrice: decimal.NewFromInt(price),
	}
}

func TestAdd_NewItem_QuantityIsOne(t *testing.T) {
	cart := &Cart{UserID: "u1"}

	cart.Add(lineItem("p1", "M", 10))

	require.Len(t, cart.Items, 1)
	assert.Equal(t, 1, cart.Items[0].Quantity)
}

func TestAdd_SameProductAndVariant_MergesIntoOneLine(t *testing.T) {
	cart := &Cart{UserID: "u1"}

	cart.Add(lineItem("p1", "M", 10))
	cart.Add(lineItem("p1", "M", 10))

	require.Len(t, cart.Items, 1)
	assert.Equal(t, 2, cart.Items[0].Quantity)
}

func TestAdd_SameProductDifferentVariant_KeepsSeparateLines(t *testing.T) {
	cart := &Cart{UserID: "u1"}

	cart.Add(lineItem("p1", "M", 10))
	cart.Add(lineItem("p1", "L", 10))

	require.Len(t, cart.Items, 2)
	assert.Equal(t, 1, cart.Items[0].Quantity)
	assert.Equal(t, 1, cart.Items[1].Quantity)
}

func TestAdd_ExistingLine_IgnoresIncomingPrice(t *testing.T) {
	cart := &Cart{UserID: "u1"}

	cart.Add(lineItem("p1", "", 10))
	cart.Add(lineItem("p1", "", 999))

	require.Len(t, cart.Items, 1)
	assert.True(t, cart.Items[0].UnitPrice.Equal(decimal.NewFromInt(10)))
	assert.Equal(t, 2, cart.Items[0].Quantity)
}

func TestRemove_MatchesVariant(t *testing.T) {
	cart := &Cart{UserID: "u1"}
	cart.Add(lineItem("p1", "M", 10))
	cart.Add(lineItem("p1", "L", 10))

	cart.Remove("p1", "M")

	require.Len(t, cart.Items, 1)
	assert.Equal(t, "L", cart.Items[0].Variant)
}

func TestRemove_AbsentLine_IsNoOp(t *testing.T) {
	cart := &Cart{UserID: "u1"}
	cart.Add(lineItem("p1", "", 10))

	cart.Remove("p2", "")
	cart.Remove("p1", "M")

	assert.Len(t, cart.Items, 1)
}

func TestIncrementQuantity(t *testing.T) {
	cart := &Cart{UserID: "u1"}
	cart.Add(lineItem("p1", "M", 10))

	cart.IncrementQuantity("p1", "M")

	assert.Equal(t, 2, cart.Items[0].Quantity)
}

func TestIncrementQuantity_AbsentLine_IsNoOp(t *testing.T) {
	cart := &Cart{UserID: "u1"}

	cart.IncrementQuantity("p1", "")

	assert.Empty(t, cart.Items)
}

func TestDecrementQuantity_StopsAtOne(t *testing.T) {
	cart := &Cart{UserID: "u1"}
	cart.Add(lineItem("p1", "", 10))
	cart.IncrementQuantity("p1", "")

	cart.DecrementQuantity("p1", "")
	assert.Equal(t, 1, cart.Items[0].Quantity)

	// Decrementing at quantity 1 must not reach zero
	cart.DecrementQuantity("p1", "")
	require.Len(t, cart.Items, 1)
	assert.Equal(t, 1, cart.Items[0].Quantity)
}

func TestDecrementQuantity_AbsentLine_IsNoOp(t *testing.T) {
	cart := &Cart{UserID: "u1"}

	cart.DecrementQuantity("p1", "")

	assert.Empty(t, cart.Items)
}

func TestTotal_DerivedFromLines(t *testing.T) {
	cart := &Cart{UserID: "u1"}
	cart.Add(lineItem("p1", "", 10))
	cart.Add(lineItem("p1", "", 10)) // quantity 2
	cart.Add(lineItem("p2", "", 7))

	assert.True(t, cart.Total().Equal(decimal.NewFromInt(27)), "got %s", cart.Total())
}

func TestClear_EmptiesCart(t *testing.T) {
	cart := &Cart{UserID: "u1"}
	cart.Add(lineItem("p1", "", 10))

	cart.Clear()

	assert.True(t, cart.IsEmpty())
	assert.True(t, cart.Total().Equal(decimal.Zero))
}

// Invariants hold across arbitrary operation sequences: no duplicate
// (product, variant) key and every stored line has quantity >= 1.
func TestInvariants_AcrossOperationSequence(t *testing.T) {
	cart := &Cart{UserID: "u1"}

	ops := []func(){
		func() { cart.Add(lineItem("p1", "M", 10)) },
		func() { cart.Add(lineItem("p1", "L", 10)) },
		func() { cart.Add(lineItem("p2", "", 5)) },
		func() { cart.DecrementQuantity("p1", "M") },
		func() { cart.Add(lineItem("p1", "M", 10)) },
		func() { cart.IncrementQuantity("p2", "") },
		func() { cart.Remove("p1", "L") },
		func() { cart.DecrementQuantity("p2", "") },
		func() { cart.DecrementQuantity("p2", "") },
		func() { cart.Add(lineItem("p3", "S", 3)) },
		func() { cart.Remove("p9", "") },
	}

	for _, op := range ops {
		op()
		assertCartInvariants(t, cart)
	}
}

func assertCartInvariants(t *testing.T, cart *Cart) {
	t.Helper()
	seen := make(map[string]bool)
	for _, item := range cart.Items {
		key := item.ProductID + "|" + item.Variant
		assert.False(t, seen[key], "duplicate line for %s", key)
		seen[key] = true
		assert.GreaterOrEqual(t, item.Quantity, 1)
	}
}
