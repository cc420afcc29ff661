package prefs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"GlobalStore/internal/currency"
	"GlobalStore/internal/storage"
	"GlobalStore/internal/storage/storagetest"
)

func TestDefaults(t *testing.T) {
	s := New(storage.NewMemStore(), zap.NewNop())
	require.NoError(t, s.Load(context.Background()))

	assert.Equal(t, Turkish, s.Language())
	assert.Equal(t, currency.TRY, s.Currency())
}

func TestSetAndReload(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemStore()

	s := New(store, zap.NewNop())
	require.NoError(t, s.SetLanguage(ctx, English))
	require.NoError(t, s.SetCurrency(ctx, currency.EUR))

	raw, ok, err := store.Get(ctx, storage.KeyLanguage)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "en", raw, "stored raw, not JSON")

	again := New(store, zap.NewNop())
	require.NoError(t, again.Load(ctx))
	assert.Equal(t, Prefs{Language: English, Currency: currency.EUR}, again.Get())
}

func TestRejectsUnknown(t *testing.T) {
	ctx := context.Background()
	s := New(storage.NewMemStore(), zap.NewNop())

	assert.ErrorIs(t, s.SetLanguage(ctx, "de"), ErrUnknownLanguage)
	assert.ErrorIs(t, s.SetCurrency(ctx, "GBP"), currency.ErrUnknownCode)
	assert.Equal(t, Turkish, s.Language())
}

func TestLoad_IgnoresInvalidStoredValues(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemStore()
	require.NoError(t, store.Set(ctx, storage.KeyLanguage, `"en"`))
	require.NoError(t, store.Set(ctx, storage.KeyCurrency, "usd"))

	s := New(store, zap.NewNop())
	require.NoError(t, s.Load(ctx))
	assert.Equal(t, Turkish, s.Language())
	assert.Equal(t, currency.TRY, s.Currency())
}

func TestLoad_BackendErrorKeepsCurrentValues(t *testing.T) {
	ctx := context.Background()
	inner := storage.NewMemStore()
	s := New(inner, zap.NewNop())
	require.NoError(t, s.SetCurrency(ctx, currency.USD))

	failing := storagetest.NewFailing(inner, errors.New("leveldb: closed"))
	s.store = failing
	err := s.Load(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, failing.Err)
	assert.Equal(t, currency.USD, s.Currency())
}

func TestSet_WritesLandInMutationOrder(t *testing.T) {
	ctx := context.Background()
	inner := storage.NewMemStore()
	gated := storagetest.NewGated(inner, storage.KeyCurrency)
	s := New(gated, zap.NewNop())

	first := make(chan error, 1)
	go func() { first <- s.SetCurrency(ctx, currency.EUR) }()
	<-gated.Entered
	second := make(chan error, 1)
	go func() { second <- s.SetCurrency(ctx, currency.USD) }()
	time.Sleep(50 * time.Millisecond)
	gated.Release()
	require.NoError(t, <-first)
	require.NoError(t, <-second)

	raw, _, err := inner.Get(ctx, storage.KeyCurrency)
	require.NoError(t, err)
	assert.Equal(t, "USD", raw)
	assert.Equal(t, currency.USD, s.Currency())
}

func TestSubscribe(t *testing.T) {
	s := New(storage.NewMemStore(), zap.NewNop())
	ch, cancel := s.Subscribe()
	defer cancel()

	require.NoError(t, s.SetCurrency(context.Background(), currency.USD))
	assert.Equal(t, "currency", (<-ch).Kind)
}
