package checkout

import (
	"github.com/vasiliy-maslov/restaurant-ordering/internal/cart"
	"github.com/vasiliy-maslov/restaurant-ordering/internal/catalog"
)

// Totals is the priced breakdown of an order before submission.
type Totals struct {
	GoodsSubtotal  int64 `json:"goods_subtotal"`
	DeliveryFee    int64 `json:"delivery_fee"`
	PackingFee     int64 `json:"packing_fee"`
	CouponDiscount int64 `json:"coupon_discount"`
	GrandTotal     int64 `json:"grand_total"`
}

// ComputeTotals derives the order amounts deterministically. Delivery and
// packing fees apply only to delivery orders; the grand total never goes
// below zero however large the coupon discount is.
func ComputeTotals(lines []cart.Line, fulfillment int, deliveryFee, packingFee, couponDiscount int64) Totals {
	var subtotal int64
	for _, line := range lines {
		subtotal += line.UnitPrice * int64(line.Quantity)
	}

	totals := Totals{
		GoodsSubtotal:  subtotal,
		CouponDiscount: couponDiscount,
	}

	grand := subtotal
	if fulfillment == catalog.FulfillmentDelivery {
		totals.DeliveryFee = deliveryFee
		totals.PackingFee = packingFee
		grand += deliveryFee + packingFee
	}

	grand -= couponDiscount
	if grand < 0 {
		grand = 0
	}
	totals.GrandTotal = grand

	return totals
}
