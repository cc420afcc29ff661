package order

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"GlobalStore/internal/storage"
	"GlobalStore/internal/storage/storagetest"
)

var clock = time.Date(2024, 6, 10, 14, 0, 0, 123_000_000, time.UTC)

func newService(t *testing.T, store storage.Store) *Service {
	t.Helper()
	s := New(store, Options{Log: zap.NewNop()})
	s.now = func() time.Time { return clock }
	s.randN = func(int) int { return 7 }
	require.NoError(t, s.Load(context.Background()))
	return s
}

func items() []Item {
	return []Item{
		{ID: 1, Title: "Backpack", Price: decimal.RequireFromString("20.00"), Quantity: 2},
		{ID: 2, Title: "Shirt", Price: decimal.RequireFromString("0.5"), Quantity: 1},
	}
}

func payment() Payment {
	return Payment{CardHolder: "Ada Lovelace", CardLast4: "0366", MaskedNumber: "**** **** **** 0366", ExpiryDate: "12/29", CardType: CardVisa}
}

func TestCreate(t *testing.T) {
	s := newService(t, storage.NewMemStore())

	o, err := s.Create(context.Background(), items(), payment())
	require.NoError(t, err)

	assert.Regexp(t, regexp.MustCompile(`^o_[0-9a-f-]{36}$`), o.ID)
	assert.Equal(t, "GS-000123-007", o.Number)
	assert.Equal(t, StatusProcessing, o.Status)
	assert.Equal(t, "40.5", o.Subtotal.String())
	assert.True(t, o.Shipping.IsZero())
	assert.True(t, o.Total.Equal(o.Subtotal))
	assert.Equal(t, clock, o.CreatedAt)
	assert.Equal(t, clock, o.UpdatedAt)
	assert.Equal(t, clock.Add(72*time.Hour), o.EstimatedDelivery)
	assert.Equal(t, 1, s.Count())
}

func TestCreate_Rejects(t *testing.T) {
	s := newService(t, storage.NewMemStore())

	_, err := s.Create(context.Background(), nil, payment())
	assert.ErrorIs(t, err, ErrNoItems)

	bad := items()
	bad[0].Quantity = 0
	_, err = s.Create(context.Background(), bad, payment())
	assert.ErrorIs(t, err, ErrInvalidItem)
	assert.Equal(t, 0, s.Count())
}

func TestCreate_DelayHonoursContext(t *testing.T) {
	s := New(storage.NewMemStore(), Options{Delay: time.Hour})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := s.Create(ctx, items(), payment())
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 0, s.Count())
}

func TestCreate_PricesFrozen(t *testing.T) {
	s := newService(t, storage.NewMemStore())

	in := items()
	o, err := s.Create(context.Background(), in, payment())
	require.NoError(t, err)

	in[0].Price = decimal.RequireFromString("999")
	o.Items[0].Quantity = 50

	got, ok := s.Get(o.ID)
	require.True(t, ok)
	assert.Equal(t, "20", got.Items[0].Price.String())
	assert.Equal(t, 2, got.Items[0].Quantity)
	assert.Equal(t, "40.5", got.Total.String())
}

func TestReads(t *testing.T) {
	ctx := context.Background()
	s := newService(t, storage.NewMemStore())

	var created []Order
	for i := 0; i < 7; i++ {
		s.randN = func(int) int { return i }
		o, err := s.Create(ctx, items(), payment())
		require.NoError(t, err)
		created = append(created, o)
	}

	list := s.List()
	require.Len(t, list, 7)
	assert.Equal(t, created[6].ID, list[0].ID, "newest first")

	assert.Len(t, s.Recent(0), 5)
	assert.Len(t, s.Recent(2), 2)
	assert.Len(t, s.Recent(100), 7)

	got, ok := s.GetByNumber(created[3].Number)
	require.True(t, ok)
	assert.Equal(t, created[3].ID, got.ID)

	_, ok = s.Get("o_missing")
	assert.False(t, ok)

	assert.Equal(t, "283.5", s.TotalSpent().String())
}

func TestUpdateStatus(t *testing.T) {
	ctx := context.Background()
	s := newService(t, storage.NewMemStore())
	o, err := s.Create(ctx, items(), payment())
	require.NoError(t, err)

	later := clock.Add(time.Hour)
	s.now = func() time.Time { return later }

	ok, err := s.UpdateStatus(ctx, o.ID, StatusShipped)
	require.NoError(t, err)
	assert.True(t, ok)

	got, _ := s.Get(o.ID)
	assert.Equal(t, StatusShipped, got.Status)
	assert.Equal(t, later, got.UpdatedAt)
	assert.Len(t, s.ListByStatus(StatusShipped), 1)
	assert.Empty(t, s.ListByStatus(StatusProcessing))

	ok, err = s.UpdateStatus(ctx, o.ID, StatusPending)
	require.NoError(t, err)
	assert.True(t, ok, "no transition graph")

	ok, err = s.UpdateStatus(ctx, "o_missing", StatusShipped)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = s.UpdateStatus(ctx, o.ID, Status("lost"))
	assert.ErrorIs(t, err, ErrInvalidStatus)
}

func TestDeleteAndClear(t *testing.T) {
	ctx := context.Background()
	s := newService(t, storage.NewMemStore())
	a, _ := s.Create(ctx, items(), payment())
	_, _ = s.Create(ctx, items(), payment())

	assert.True(t, s.Delete(ctx, a.ID))
	assert.False(t, s.Delete(ctx, a.ID))
	assert.Equal(t, 1, s.Count())

	s.ClearAll(ctx)
	assert.Equal(t, 0, s.Count())
	assert.True(t, s.TotalSpent().IsZero())
}

func TestPersistence(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemStore()

	s := newService(t, store)
	o, err := s.Create(ctx, items(), payment())
	require.NoError(t, err)

	raw, _, err := store.Get(ctx, storage.KeyOrders)
	require.NoError(t, err)
	assert.NotContains(t, raw, "cvv")
	assert.Contains(t, raw, `"orderNumber":"GS-000123-007"`)

	reloaded := newService(t, store)
	got, ok := reloaded.Get(o.ID)
	require.True(t, ok)
	assert.Equal(t, o.Number, got.Number)
	assert.True(t, o.Total.Equal(got.Total))
	assert.True(t, o.CreatedAt.Equal(got.CreatedAt))
	assert.Equal(t, payment(), got.Payment)
}

func TestLoad_MalformedTimestamp(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemStore()
	require.NoError(t, store.Set(ctx, storage.KeyOrders,
		`[{"id":"o_1","orderNumber":"GS-1","items":[],"total":"1","status":"processing","createdAt":"not-a-date"}]`))

	err := New(store, Options{}).Load(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, storage.ErrCorrupt)
	assert.True(t, storage.IsTimestampError(err))
}

func TestLoad_CorruptJSON(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemStore()
	require.NoError(t, store.Set(ctx, storage.KeyOrders, `[{"id":`))

	s := New(store, Options{})
	require.NoError(t, s.Load(ctx))
	assert.Equal(t, 0, s.Count())
	assert.NotNil(t, s.List())
}

func TestLoad_BackendErrorIsReturned(t *testing.T) {
	ctx := context.Background()
	inner := storage.NewMemStore()
	seed := newService(t, inner)
	_, err := seed.Create(ctx, items(), payment())
	require.NoError(t, err)

	failing := storagetest.NewFailing(inner, errors.New("pq: too many connections"))
	s := New(failing, Options{})
	err = s.Load(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, failing.Err)
	assert.False(t, storage.IsUnparsable(err))

	failing.Recover()
	assert.Equal(t, 1, newService(t, failing).Count())
}

func TestStatus(t *testing.T) {
	st, err := ParseStatus("delivered")
	require.NoError(t, err)
	assert.Equal(t, StatusDelivered, st)

	_, err = ParseStatus("DELIVERED")
	assert.ErrorIs(t, err, ErrInvalidStatus)

	assert.Equal(t, "Kargoya Verildi", StatusShipped.Label("tr"))
	assert.Equal(t, "Shipped", StatusShipped.Label("en"))
	assert.Equal(t, "weird", Status("weird").Label("en"))
}

func TestSubscribe(t *testing.T) {
	s := newService(t, storage.NewMemStore())
	ch, cancel := s.Subscribe()
	defer cancel()

	_, err := s.Create(context.Background(), items(), payment())
	require.NoError(t, err)

	select {
	case c := <-ch:
		assert.Equal(t, "create", c.Kind)
	case <-time.After(time.Second):
		t.Fatal("no change published")
	}
}
