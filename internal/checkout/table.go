package checkout

import (
	"context"
	"fmt"
	"strconv"

	"github.com/vasiliy-maslov/restaurant-ordering/internal/catalog"
	"github.com/vasiliy-maslov/restaurant-ordering/internal/store"
)

// DefaultTableNo is used when no table number can be resolved at all.
const DefaultTableNo = "0"

// ResolveTableNumber picks the dine-in table number. First non-empty wins:
// explicit parameter, then the code scanned at launch, then the cached value,
// then the literal fallback.
func (c *Composer) ResolveTableNumber(ctx context.Context, st store.Store, param string) string {
	if param != "" {
		return param
	}

	if code := c.session.TableCode(); code != "" {
		return code
	}

	value, err := st.Get(ctx, TableNoKey)
	if err == nil && len(value) > 0 {
		return string(value)
	}

	return DefaultTableNo
}

// RememberTableCode records a scanned table code in both the session and the
// store, so it survives a restart.
func (c *Composer) RememberTableCode(ctx context.Context, st store.Store, code string) error {
	c.session.SetTableCode(code)
	if err := st.Set(ctx, TableNoKey, []byte(code)); err != nil {
		return fmt.Errorf("checkout: failed to cache table code: %w", err)
	}
	return nil
}

// SetFulfillmentPreference persists the dine-in/delivery choice.
func (c *Composer) SetFulfillmentPreference(ctx context.Context, st store.Store, fulfillment int) error {
	if fulfillment != catalog.FulfillmentDineIn && fulfillment != catalog.FulfillmentDelivery {
		return fmt.Errorf("%w: %d", ErrInvalidFulfillment, fulfillment)
	}

	c.session.SetFulfillment(fulfillment)
	if err := st.Set(ctx, OrderTypeKey, []byte(strconv.Itoa(fulfillment))); err != nil {
		return fmt.Errorf("checkout: failed to persist fulfillment preference: %w", err)
	}
	return nil
}

// FulfillmentPreference returns the session preference if set, then the stored
// one, then dine-in.
func (c *Composer) FulfillmentPreference(ctx context.Context, st store.Store) int {
	if t := c.session.Fulfillment(); t != 0 {
		return t
	}

	value, err := st.Get(ctx, OrderTypeKey)
	if err != nil {
		return catalog.FulfillmentDineIn
	}

	t, err := strconv.Atoi(string(value))
	if err != nil || (t != catalog.FulfillmentDineIn && t != catalog.FulfillmentDelivery) {
		return catalog.FulfillmentDineIn
	}
	return t
}
