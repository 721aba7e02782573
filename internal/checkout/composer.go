package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync/atomic"

	"github.com/rs/zerolog/log"
	"github.com/vasiliy-maslov/restaurant-ordering/internal/cart"
	"github.com/vasiliy-maslov/restaurant-ordering/internal/catalog"
	"github.com/vasiliy-maslov/restaurant-ordering/internal/session"
	"github.com/vasiliy-maslov/restaurant-ordering/internal/store"
)

// Store keys owned by the composer.
const (
	CheckoutKey  = "checkout_goods"
	TableNoKey   = "table_no"
	OrderTypeKey = "order_type"
)

var (
	ErrMissingTableNumber = errors.New("checkout: table number is required for dine-in")
	ErrMissingAddress     = errors.New("checkout: delivery address is required")
	ErrEmptyCheckoutSet   = errors.New("checkout: no goods selected for checkout")
	ErrInvalidFulfillment = errors.New("checkout: unknown fulfillment type")
	ErrSubmissionInFlight = errors.New("checkout: an order submission is already in flight")
)

// State is the observable phase of the current submission attempt.
type State int32

const (
	StateIdle State = iota
	StateValidating
	StateSubmitting
	StateSucceeded
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateValidating:
		return "validating"
	case StateSubmitting:
		return "submitting"
	case StateSucceeded:
		return "succeeded"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Composer assembles a priced order from the checkout set and hands it to the
// order service. The in-flight latch lives on the instance, not in a package
// variable, so independent composers never interfere.
type Composer struct {
	catalog  catalog.Client
	session  *session.Session
	inFlight atomic.Bool
	state    atomic.Int32
}

func NewComposer(client catalog.Client, sess *session.Session) *Composer {
	return &Composer{catalog: client, session: sess}
}

func (c *Composer) State() State {
	return State(c.state.Load())
}

// PrepareCheckout copies the given lines into the checkout set, decoupled from
// the live cart: the cart can be edited freely without corrupting an in-flight
// checkout.
func (c *Composer) PrepareCheckout(ctx context.Context, st store.Store, lines []cart.Line) error {
	if len(lines) == 0 {
		return ErrEmptyCheckoutSet
	}

	value, err := json.Marshal(lines)
	if err != nil {
		return fmt.Errorf("checkout: failed to encode checkout set: %w", err)
	}
	if err := st.Set(ctx, CheckoutKey, value); err != nil {
		return fmt.Errorf("checkout: failed to persist checkout set: %w", err)
	}
	return nil
}

// PrepareBuyNow builds a single-line checkout set straight from a goods
// snapshot, bypassing the cart.
func (c *Composer) PrepareBuyNow(ctx context.Context, st store.Store, goods *catalog.Goods, quantity int, specs map[string]string) error {
	if quantity < 1 {
		return cart.ErrInvalidQuantity
	}
	if quantity > goods.Stock {
		return fmt.Errorf("%w: have %d, want %d", cart.ErrOutOfStock, goods.Stock, quantity)
	}

	var image string
	if len(goods.Images) > 0 {
		image = goods.Images[0]
	}

	line := cart.Line{
		GoodsID:   goods.ID,
		Name:      goods.Name,
		Image:     image,
		UnitPrice: goods.Price,
		Stock:     goods.Stock,
		Quantity:  quantity,
		Specs:     specs,
		Selected:  true,
	}
	return c.PrepareCheckout(ctx, st, []cart.Line{line})
}

// LoadCheckoutSet reads the checkout set; a missing key yields an empty set.
func (c *Composer) LoadCheckoutSet(ctx context.Context, st store.Store) ([]cart.Line, error) {
	value, err := st.Get(ctx, CheckoutKey)
	if errors.Is(err, store.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("checkout: failed to load checkout set: %w", err)
	}

	var lines []cart.Line
	if err := json.Unmarshal(value, &lines); err != nil {
		return nil, fmt.Errorf("checkout: failed to decode checkout set: %w", err)
	}
	return lines, nil
}

// DraftInput carries the fulfillment choices gathered on the confirm screen.
// TableNo is expected to be resolved already (see ResolveTableNumber).
type DraftInput struct {
	Fulfillment    int
	TableNo        string
	PeopleCount    int
	Address        *catalog.Address
	DeliveryTime   string
	Tableware      int
	DeliveryFee    int64
	PackingFee     int64
	CouponID       int64
	CouponDiscount int64
	Remark         string
}

// Validate checks that the checkout set and fulfillment context allow
// submission. An empty checkout set means the caller should go back to the
// cart rather than proceed.
func (c *Composer) Validate(in DraftInput, lines []cart.Line) error {
	if len(lines) == 0 {
		return ErrEmptyCheckoutSet
	}

	switch in.Fulfillment {
	case catalog.FulfillmentDineIn:
		if in.TableNo == "" {
			return ErrMissingTableNumber
		}
	case catalog.FulfillmentDelivery:
		if in.Address == nil {
			return ErrMissingAddress
		}
	default:
		return fmt.Errorf("%w: %d", ErrInvalidFulfillment, in.Fulfillment)
	}

	return nil
}

func (c *Composer) buildDraft(in DraftInput, lines []cart.Line) *catalog.OrderDraft {
	goodsList := make([]catalog.OrderGoods, 0, len(lines))
	for _, line := range lines {
		specs := make([]catalog.OrderSpec, 0, len(line.Specs))
		for name, value := range line.Specs {
			specs = append(specs, catalog.OrderSpec{Name: name, Value: value})
		}
		sort.Slice(specs, func(i, j int) bool { return specs[i].Name < specs[j].Name })

		goodsList = append(goodsList, catalog.OrderGoods{
			ID:       line.GoodsID,
			Name:     line.Name,
			Image:    line.Image,
			Price:    line.UnitPrice,
			Quantity: line.Quantity,
			Specs:    specs,
		})
	}

	totals := ComputeTotals(lines, in.Fulfillment, in.DeliveryFee, in.PackingFee, in.CouponDiscount)

	draft := &catalog.OrderDraft{
		Type:        in.Fulfillment,
		GoodsList:   goodsList,
		GoodsAmount: totals.GoodsSubtotal,
		TotalAmount: totals.GrandTotal,
		Remark:      in.Remark,
	}

	switch in.Fulfillment {
	case catalog.FulfillmentDineIn:
		draft.TableNo = in.TableNo
		draft.PeopleCount = in.PeopleCount
	case catalog.FulfillmentDelivery:
		draft.AddressID = in.Address.ID
		draft.ReceiverName = in.Address.Name
		draft.ReceiverPhone = in.Address.Phone
		draft.Address = in.Address.ComposedAddress()
		draft.DeliveryTime = in.DeliveryTime
		draft.Tableware = in.Tableware
		draft.DeliveryFee = totals.DeliveryFee
		draft.PackingFee = totals.PackingFee
	}

	if in.CouponID != 0 {
		draft.CouponID = in.CouponID
		draft.CouponDiscount = in.CouponDiscount
	}

	return draft
}

// SubmitResult is what the caller needs to decide the next navigation step:
// straight to the order when there is no payment URL, to the payment flow
// otherwise.
type SubmitResult struct {
	OrderID    int64
	PaymentURL string
}

// Submit validates the checkout set, sends the order, and on acceptance
// removes the submitted goods from the cart and clears the checkout set. At
// most one submission is in flight per composer: a concurrent call fails fast
// with ErrSubmissionInFlight and has no effect. On any failure the cart and
// checkout set are left untouched so the user can retry as-is.
func (c *Composer) Submit(ctx context.Context, st store.Store, in DraftInput) (*SubmitResult, error) {
	if !c.inFlight.CompareAndSwap(false, true) {
		log.Debug().Msg("checkout: duplicate submission ignored")
		return nil, ErrSubmissionInFlight
	}
	defer c.inFlight.Store(false)

	c.state.Store(int32(StateValidating))

	lines, err := c.LoadCheckoutSet(ctx, st)
	if err != nil {
		c.state.Store(int32(StateFailed))
		return nil, err
	}
	if err := c.Validate(in, lines); err != nil {
		c.state.Store(int32(StateFailed))
		return nil, err
	}

	draft := c.buildDraft(in, lines)

	c.state.Store(int32(StateSubmitting))

	result, err := c.catalog.CreateOrder(ctx, draft)
	if err != nil {
		c.state.Store(int32(StateFailed))
		log.Warn().Err(err).Msg("checkout: order submission failed")
		return nil, err
	}

	goodsIDs := make([]int64, 0, len(lines))
	for _, line := range lines {
		goodsIDs = append(goodsIDs, line.GoodsID)
	}

	ledger, err := cart.Load(ctx, st)
	if err != nil {
		c.state.Store(int32(StateFailed))
		return nil, err
	}
	if err := ledger.RemoveGoods(ctx, goodsIDs); err != nil {
		c.state.Store(int32(StateFailed))
		return nil, err
	}

	if err := st.Remove(ctx, CheckoutKey); err != nil {
		c.state.Store(int32(StateFailed))
		return nil, fmt.Errorf("checkout: failed to clear checkout set: %w", err)
	}

	if in.Fulfillment == catalog.FulfillmentDineIn && in.TableNo != "" {
		if err := st.Set(ctx, TableNoKey, []byte(in.TableNo)); err != nil {
			log.Warn().Err(err).Msg("checkout: failed to cache table number")
		}
	}

	c.state.Store(int32(StateSucceeded))
	log.Info().Int64("order_id", result.OrderID).Int("goods", len(goodsIDs)).Msg("checkout: order submitted")

	return &SubmitResult{OrderID: result.OrderID, PaymentURL: result.PaymentURL}, nil
}
