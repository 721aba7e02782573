package checkout_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/vasiliy-maslov/restaurant-ordering/internal/cart"
	"github.com/vasiliy-maslov/restaurant-ordering/internal/catalog"
	"github.com/vasiliy-maslov/restaurant-ordering/internal/checkout"
)

func TestComputeTotals(t *testing.T) {
	lines := []cart.Line{
		{GoodsID: 1, UnitPrice: 2800, Quantity: 1, Selected: true},
		{GoodsID: 2, UnitPrice: 700, Quantity: 2, Selected: true},
	}
	// Goods subtotal: 2800 + 1400 = 4200.

	tests := []struct {
		name           string
		fulfillment    int
		deliveryFee    int64
		packingFee     int64
		couponDiscount int64
		want           checkout.Totals
	}{
		{
			name:           "delivery_includes_fees",
			fulfillment:    catalog.FulfillmentDelivery,
			deliveryFee:    300,
			packingFee:     200,
			couponDiscount: 500,
			want: checkout.Totals{
				GoodsSubtotal:  4200,
				DeliveryFee:    300,
				PackingFee:     200,
				CouponDiscount: 500,
				GrandTotal:     4200,
			},
		},
		{
			name:           "dine_in_skips_fees",
			fulfillment:    catalog.FulfillmentDineIn,
			deliveryFee:    300,
			packingFee:     200,
			couponDiscount: 500,
			want: checkout.Totals{
				GoodsSubtotal:  4200,
				CouponDiscount: 500,
				GrandTotal:     3700,
			},
		},
		{
			name:           "coupon_clamps_at_zero",
			fulfillment:    catalog.FulfillmentDelivery,
			deliveryFee:    300,
			packingFee:     200,
			couponDiscount: 10000,
			want: checkout.Totals{
				GoodsSubtotal:  4200,
				DeliveryFee:    300,
				PackingFee:     200,
				CouponDiscount: 10000,
				GrandTotal:     0,
			},
		},
		{
			name:        "no_coupon_no_fees",
			fulfillment: catalog.FulfillmentDineIn,
			want: checkout.Totals{
				GoodsSubtotal: 4200,
				GrandTotal:    4200,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := checkout.ComputeTotals(lines, tt.fulfillment, tt.deliveryFee, tt.packingFee, tt.couponDiscount)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestComputeTotals_EmptyLines(t *testing.T) {
	got := checkout.ComputeTotals(nil, catalog.FulfillmentDineIn, 0, 0, 0)
	assert.Equal(t, checkout.Totals{}, got)
}
