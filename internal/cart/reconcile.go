package cart

import "github.com/vasiliy-maslov/restaurant-ordering/internal/catalog"

// AnnotatedGoods is a catalog listing entry enriched with how many units of it
// the cart already holds.
type AnnotatedGoods struct {
	catalog.Goods
	CartQuantity int `json:"cartQuantity"`
}

// AnnotateCartQuantities merges cart state into a fresh goods listing. The
// count sums quantities across every line with a matching goods id, whatever
// its specs and whether or not it is selected: the badge shows total held in
// the cart, not what will be purchased. Pure function; neither input is mutated.
func AnnotateCartQuantities(goods []catalog.Goods, lines []Line) []AnnotatedGoods {
	quantities := make(map[int64]int)
	for _, line := range lines {
		quantities[line.GoodsID] += line.Quantity
	}

	annotated := make([]AnnotatedGoods, 0, len(goods))
	for _, g := range goods {
		annotated = append(annotated, AnnotatedGoods{
			Goods:        g,
			CartQuantity: quantities[g.ID],
		})
	}
	return annotated
}
