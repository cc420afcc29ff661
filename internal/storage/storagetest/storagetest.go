// Package storagetest wraps a storage.Store to simulate a failing backend or
// a slow write.
package storagetest

import (
	"context"
	"sync"
	"sync/atomic"

	"GlobalStore/internal/storage"
)

// Failing returns Err from every Get and Set until Recover is called.
type Failing struct {
	storage.Store
	Err error

	down atomic.Bool
	sets atomic.Int32
}

func NewFailing(inner storage.Store, err error) *Failing {
	f := &Failing{Store: inner, Err: err}
	f.down.Store(true)
	return f
}

func (f *Failing) Recover() { f.down.Store(false) }

// Sets counts writes that reached the wrapped store.
func (f *Failing) Sets() int { return int(f.sets.Load()) }

func (f *Failing) Get(ctx context.Context, key string) (string, bool, error) {
	if f.down.Load() {
		return "", false, f.Err
	}
	return f.Store.Get(ctx, key)
}

func (f *Failing) Set(ctx context.Context, key, value string) error {
	if f.down.Load() {
		return f.Err
	}
	f.sets.Add(1)
	return f.Store.Set(ctx, key, value)
}

// Gated holds the first Set of Key until Release. Entered is closed once that
// Set has arrived.
type Gated struct {
	storage.Store
	Key     string
	Entered chan struct{}

	once    sync.Once
	release chan struct{}
}

func NewGated(inner storage.Store, key string) *Gated {
	return &Gated{
		Store:   inner,
		Key:     key,
		Entered: make(chan struct{}),
		release: make(chan struct{}),
	}
}

func (g *Gated) Release() { close(g.release) }

func (g *Gated) Set(ctx context.Context, key, value string) error {
	if key == g.Key {
		first := false
		g.once.Do(func() {
			first = true
			close(g.Entered)
		})
		if first {
			<-g.release
		}
	}
	return g.Store.Set(ctx, key, value)
}
