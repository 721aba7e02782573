package cart_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vasiliy-maslov/restaurant-ordering/internal/cart"
	"github.com/vasiliy-maslov/restaurant-ordering/internal/catalog"
	"github.com/vasiliy-maslov/restaurant-ordering/internal/store"
)

func TestAnnotateCartQuantities(t *testing.T) {
	ctx := context.Background()

	ledger, err := cart.Load(ctx, store.NewMemory())
	require.NoError(t, err)

	// Two lines of goods 42 with different specs, one of them deselected, plus
	// an unrelated line.
	_, err = ledger.AddOrIncrement(ctx, cart.AddInput{
		GoodsID: 42, UnitPrice: 2800, Stock: 10, Quantity: 2, Specs: map[string]string{"size": "large"},
	})
	require.NoError(t, err)
	deselected, err := ledger.AddOrIncrement(ctx, cart.AddInput{
		GoodsID: 42, UnitPrice: 2800, Stock: 10, Quantity: 3, Specs: map[string]string{"size": "small"},
	})
	require.NoError(t, err)
	_, err = ledger.AddOrIncrement(ctx, cart.AddInput{GoodsID: 7, UnitPrice: 500, Stock: 10, Quantity: 1})
	require.NoError(t, err)

	_, err = ledger.ToggleSelect(ctx, deselected.LineID)
	require.NoError(t, err)

	goods := []catalog.Goods{
		{ID: 42, Name: "Braised Pork Rice"},
		{ID: 7, Name: "Tea"},
		{ID: 9, Name: "Dumplings"},
	}

	annotated := cart.AnnotateCartQuantities(goods, ledger.Lines())
	require.Len(t, annotated, 3)

	// All lines count, selected or not, across specs.
	assert.Equal(t, 5, annotated[0].CartQuantity)
	assert.Equal(t, 1, annotated[1].CartQuantity)
	assert.Equal(t, 0, annotated[2].CartQuantity)
}

func TestAnnotateCartQuantities_DoesNotMutateInputs(t *testing.T) {
	goods := []catalog.Goods{{ID: 1, Name: "Tea", Stock: 5}}
	lines := []cart.Line{{GoodsID: 1, Quantity: 2, Selected: true}}

	annotated := cart.AnnotateCartQuantities(goods, lines)

	assert.Equal(t, 2, annotated[0].CartQuantity)
	assert.Equal(t, "Tea", goods[0].Name)
	assert.Equal(t, 5, goods[0].Stock)
	assert.Equal(t, 2, lines[0].Quantity)
}

func TestAnnotateCartQuantities_EmptyCart(t *testing.T) {
	goods := []catalog.Goods{{ID: 1}, {ID: 2}}

	annotated := cart.AnnotateCartQuantities(goods, nil)

	require.Len(t, annotated, 2)
	assert.Equal(t, 0, annotated[0].CartQuantity)
	assert.Equal(t, 0, annotated[1].CartQuantity)
}
