package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront-bff/internal/cache"
	"storefront-bff/internal/catalog"
	"storefront-bff/internal/checkout"
	"storefront-bff/internal/customizer"
	"storefront-bff/internal/models"
)

func starter() []models.CartItem {
	return []models.CartItem{{ID: "prod1", Name: "Jacket", Quantity: 1, Price: decimal.RequireFromString("1500.00")}}
}

func stores(t *testing.T) map[string]*Store {
	t.Helper()
	mr := miniredis.RunT(t)
	rc, err := cache.NewClient(context.Background(), mr.Addr(), cache.RateLimit{Requests: 10, Window: time.Minute})
	require.NoError(t, err)
	t.Cleanup(func() { rc.Close() })

	return map[string]*Store{
		"memory": NewStore(cache.NewMemory(cache.RateLimit{Requests: 10, Window: time.Minute}), time.Hour, starter),
		"redis":  NewStore(rc, time.Hour, starter),
	}
}

func TestStore_WizardRoundTrip(t *testing.T) {
	ctx := context.Background()
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			id := NewID()

			w, err := s.Wizard(ctx, id)
			require.NoError(t, err)
			assert.Equal(t, checkout.StepCart, w.Step)
			assert.Len(t, w.Cart, 1)

			_, err = s.UpdateWizard(ctx, id, func(w *checkout.Wizard) error { return w.Advance() })
			require.NoError(t, err)

			w, err = s.Wizard(ctx, id)
			require.NoError(t, err)
			assert.Equal(t, checkout.StepShipping, w.Step)
			assert.True(t, decimal.NewFromInt(1500).Equal(w.Total))

			require.NoError(t, s.ResetWizard(ctx, id))
			w, err = s.Wizard(ctx, id)
			require.NoError(t, err)
			assert.Equal(t, checkout.StepCart, w.Step)
		})
	}
}

func TestStore_FailedUpdateIsNotSaved(t *testing.T) {
	ctx := context.Background()
	s := NewStore(cache.NewMemory(cache.RateLimit{Requests: 1, Window: time.Minute}), time.Hour, nil)
	id := NewID()

	_, err := s.UpdateWizard(ctx, id, func(w *checkout.Wizard) error { return w.Advance() })
	assert.ErrorIs(t, err, checkout.ErrEmptyCart)

	_, err = s.UpdateWizard(ctx, id, func(w *checkout.Wizard) error {
		w.Step = checkout.StepReview
		return errors.New("rejected")
	})
	require.Error(t, err)

	w, err := s.Wizard(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, checkout.StepCart, w.Step)
}

func TestStore_RejectsBadIDs(t *testing.T) {
	ctx := context.Background()
	s := NewStore(cache.NewMemory(cache.RateLimit{Requests: 1, Window: time.Minute}), time.Hour, nil)

	for _, id := range []string{"", "abc", "../../etc/passwd"} {
		_, err := s.Wizard(ctx, id)
		assert.ErrorIs(t, err, ErrInvalidID, id)
		_, err = s.Design(ctx, id)
		assert.ErrorIs(t, err, ErrInvalidID, id)
	}
}

func TestStore_SerializesUpdates(t *testing.T) {
	ctx := context.Background()
	s := NewStore(cache.NewMemory(cache.RateLimit{Requests: 1, Window: time.Minute}), time.Hour, nil)
	id := NewID()

	var wg sync.WaitGroup
	for i := 0; i < 25; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.UpdateWizard(ctx, id, func(w *checkout.Wizard) error {
				return w.AddItem(models.CartItem{ID: "same", Quantity: 1, Price: decimal.NewFromInt(10)})
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	w, err := s.Wizard(ctx, id)
	require.NoError(t, err)
	require.Len(t, w.Cart, 1)
	assert.Equal(t, 25, w.Cart[0].Quantity)
	assert.Empty(t, s.locks)
}

func TestStore_Design(t *testing.T) {
	ctx := context.Background()
	c, err := catalog.Load()
	require.NoError(t, err)

	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			id := NewID()
			d, err := s.Design(ctx, id)
			require.NoError(t, err)
			assert.Nil(t, d)

			d, err = customizer.New(c, "nanotech-briefcase")
			require.NoError(t, err)
			require.NoError(t, d.Select(c, "plating", "stealth-coating"))
			require.NoError(t, s.SaveDesign(ctx, id, d))

			got, err := s.Design(ctx, id)
			require.NoError(t, err)
			require.NotNil(t, got)
			assert.Equal(t, "stealth-coating", got.Selections["plating"])
			assert.Equal(t, "nanotech-briefcase", got.ProductSlug)
		})
	}
}
