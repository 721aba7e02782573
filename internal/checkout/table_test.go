package checkout_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vasiliy-maslov/restaurant-ordering/internal/catalog"
	"github.com/vasiliy-maslov/restaurant-ordering/internal/checkout"
	"github.com/vasiliy-maslov/restaurant-ordering/internal/session"
	"github.com/vasiliy-maslov/restaurant-ordering/internal/store"
)

func TestResolveTableNumber(t *testing.T) {
	tests := []struct {
		name        string
		param       string
		scannedCode string
		cachedCode  string
		want        string
	}{
		{name: "param_wins_over_scanned", param: "A7", scannedCode: "B2", cachedCode: "C3", want: "A7"},
		{name: "scanned_wins_over_cached", scannedCode: "B2", cachedCode: "C3", want: "B2"},
		{name: "cached_when_nothing_else", cachedCode: "C3", want: "C3"},
		{name: "fallback_zero", want: "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			st := store.NewMemory()
			sess := session.New()

			if tt.scannedCode != "" {
				sess.SetTableCode(tt.scannedCode)
			}
			if tt.cachedCode != "" {
				require.NoError(t, st.Set(ctx, checkout.TableNoKey, []byte(tt.cachedCode)))
			}

			composer := checkout.NewComposer(nil, sess)
			assert.Equal(t, tt.want, composer.ResolveTableNumber(ctx, st, tt.param))
		})
	}
}

func TestRememberTableCode(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory()
	sess := session.New()
	composer := checkout.NewComposer(nil, sess)

	require.NoError(t, composer.RememberTableCode(ctx, st, "D4"))

	assert.Equal(t, "D4", sess.TableCode())
	value, err := st.Get(ctx, checkout.TableNoKey)
	require.NoError(t, err)
	assert.Equal(t, "D4", string(value))
}

func TestFulfillmentPreference(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory()
	composer := checkout.NewComposer(nil, session.New())

	// Nothing set: dine-in by default.
	assert.Equal(t, catalog.FulfillmentDineIn, composer.FulfillmentPreference(ctx, st))

	require.NoError(t, composer.SetFulfillmentPreference(ctx, st, catalog.FulfillmentDelivery))
	assert.Equal(t, catalog.FulfillmentDelivery, composer.FulfillmentPreference(ctx, st))

	// A fresh composer over the same store picks the persisted value up.
	fresh := checkout.NewComposer(nil, session.New())
	assert.Equal(t, catalog.FulfillmentDelivery, fresh.FulfillmentPreference(ctx, st))

	err := composer.SetFulfillmentPreference(ctx, st, 9)
	assert.ErrorIs(t, err, checkout.ErrInvalidFulfillment)
}
