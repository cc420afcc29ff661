package checkout

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"GlobalStore/internal/cart"
	"GlobalStore/internal/catalog"
	"GlobalStore/internal/order"
	"GlobalStore/internal/storage"
	"GlobalStore/internal/validation"
)

func validForm() PaymentForm {
	return PaymentForm{
		CardNumber: "4532 0151 1283 0366",
		CardHolder: "Ada Lovelace",
		ExpiryDate: "12/29",
		CVV:        "123",
	}
}

func newServices(t *testing.T) (*Service, *cart.Service, *order.Service, storage.Store) {
	t.Helper()
	store := storage.NewMemStore()
	c := cart.New(store, zap.NewNop())
	o := order.New(store, order.Options{Delay: time.Millisecond})
	return New(c, o, zap.NewNop()), c, o, store
}

func TestSubmit_EndToEnd(t *testing.T) {
	ctx := context.Background()
	svc, c, orders, store := newServices(t)

	p := catalog.Product{ID: 1, Title: "Backpack", Price: decimal.RequireFromString("20.00")}
	require.NoError(t, c.Add(ctx, p, 2))
	assert.Equal(t, "40", c.TotalPrice().String())

	o, err := svc.Submit(ctx, validForm())
	require.NoError(t, err)

	assert.True(t, o.Total.Equal(decimal.RequireFromString("40")))
	assert.Equal(t, order.StatusProcessing, o.Status)
	assert.Equal(t, 0, c.ItemCount())
	assert.Empty(t, c.Items())
	assert.Equal(t, 1, orders.Count())

	assert.Equal(t, order.CardVisa, o.Payment.CardType)
	assert.Equal(t, "0366", o.Payment.CardLast4)
	assert.Equal(t, "**** **** **** 0366", o.Payment.MaskedNumber)

	raw, _, err := store.Get(ctx, storage.KeyOrders)
	require.NoError(t, err)
	assert.NotContains(t, raw, "4532015112830366")
	assert.NotContains(t, raw, `"123"`)
}

func TestSubmit_EmptyCart(t *testing.T) {
	svc, _, orders, _ := newServices(t)

	_, err := svc.Submit(context.Background(), validForm())
	assert.ErrorIs(t, err, ErrEmptyCart)
	assert.Equal(t, 0, orders.Count())
}

func TestSubmit_InvalidCardKeepsCart(t *testing.T) {
	ctx := context.Background()
	svc, c, orders, _ := newServices(t)
	require.NoError(t, c.Add(ctx, catalog.Product{ID: 1, Price: decimal.NewFromInt(5)}, 1))

	form := validForm()
	form.CardNumber = "4532015112830367"
	form.CVV = "12"

	_, err := svc.Submit(ctx, form)
	var ve *validation.Errors
	require.ErrorAs(t, err, &ve)
	assert.Contains(t, ve.Fields, "cardNumber")
	assert.Contains(t, ve.Fields, "cvv")

	assert.Equal(t, 1, c.ItemCount())
	assert.Equal(t, 0, orders.Count())
}

func TestSubmit_KeepsItemsAddedDuringProcessing(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemStore()
	c := cart.New(store, zap.NewNop())
	svc := New(c, order.New(store, order.Options{Delay: 300 * time.Millisecond}), zap.NewNop())

	backpack := catalog.Product{ID: 1, Price: decimal.NewFromInt(20)}
	lamp := catalog.Product{ID: 2, Price: decimal.NewFromInt(7)}
	require.NoError(t, c.Add(ctx, backpack, 2))

	type result struct {
		o   order.Order
		err error
	}
	done := make(chan result, 1)
	go func() {
		o, err := svc.Submit(ctx, validForm())
		done <- result{o, err}
	}()

	time.Sleep(50 * time.Millisecond)
	require.NoError(t, c.Add(ctx, lamp, 1))
	require.NoError(t, c.Add(ctx, backpack, 1))

	res := <-done
	require.NoError(t, res.err)
	require.Len(t, res.o.Items, 1)
	assert.Equal(t, 2, res.o.Items[0].Quantity)

	assert.Equal(t, 1, c.Quantity(1), "only the ordered quantity is taken")
	assert.Equal(t, 1, c.Quantity(2))
	assert.Equal(t, 2, c.ItemCount())
}

func TestSubmit_CancelledKeepsCart(t *testing.T) {
	store := storage.NewMemStore()
	c := cart.New(store, zap.NewNop())
	svc := New(c, order.New(store, order.Options{Delay: time.Hour}), zap.NewNop())
	require.NoError(t, c.Add(context.Background(), catalog.Product{ID: 1, Price: decimal.NewFromInt(5)}, 1))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.Submit(ctx, validForm())
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, c.ItemCount())
}

func TestCardHelpers(t *testing.T) {
	assert.True(t, ValidCardNumber("4532015112830366"))
	assert.False(t, ValidCardNumber("1234"))

	assert.Equal(t, order.CardVisa, CardType("4111"))
	assert.Equal(t, order.CardMastercard, CardType("5500"))
	assert.Equal(t, order.CardMastercard, CardType("2221"))
	assert.Equal(t, order.CardAmex, CardType("3782"))
	assert.Equal(t, order.CardOther, CardType("6011"))

	assert.Equal(t, "4532 0151 1283 0366", FormatCardNumber("4532015112830366"))
	assert.Equal(t, "3782 8224 6310 005", FormatCardNumber("378282246310005"))
	assert.Equal(t, "", FormatCardNumber(""))

	assert.Equal(t, "12/29", FormatExpiry("1229"))
	assert.Equal(t, "12/2", FormatExpiry("122"))
	assert.Equal(t, "1", FormatExpiry("1"))
	assert.Equal(t, "12/29", FormatExpiry("12/295"))

	assert.Equal(t, "**** **** **** 0366", MaskCardNumber("4532-0151-1283-0366"))
	assert.Equal(t, "12", MaskCardNumber("12"))
}
