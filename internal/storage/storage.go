// Package storage is the string key-value bridge every state service mirrors
// itself into. Values are opaque strings; writes overwrite in full.
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Keys owned by the state services. Each key has exactly one owner.
const (
	KeyCart      = "global-store-cart"
	KeyFavorites = "global-store-favorites"
	KeyOrders    = "global-store-orders"
	KeySession   = "global-store-session"
	KeyAccounts  = "global-store-accounts"
	KeyLanguage  = "language"
	KeyCurrency  = "currency"
)

var (
	ErrClosed = errors.New("storage closed")
	// ErrCorrupt marks a stored value that could not be decoded.
	ErrCorrupt = errors.New("corrupt stored value")
)

type Store interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
	Ping(ctx context.Context) error
	Close() error
}

// LoadJSON decodes the value under key into v. found is false when the key is
// absent. Decode failures are wrapped in ErrCorrupt.
func LoadJSON(ctx context.Context, s Store, key string, v any) (found bool, err error) {
	raw, ok, err := s.Get(ctx, key)
	if err != nil {
		return false, fmt.Errorf("get %s: %w", key, err)
	}
	if !ok || raw == "" {
		return false, nil
	}
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		return true, fmt.Errorf("%w: %s: %w", ErrCorrupt, key, err)
	}
	return true, nil
}

// SaveJSON encodes v and overwrites key.
func SaveJSON(ctx context.Context, s Store, key string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", key, err)
	}
	if err := s.Set(ctx, key, string(b)); err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	return nil
}

// IsTimestampError reports whether err came from a malformed stored
// timestamp, as opposed to a value that is not JSON at all.
func IsTimestampError(err error) bool {
	var pe *time.ParseError
	return errors.As(err, &pe)
}

// IsUnparsable reports whether err is a stored value that is not JSON at
// all. Owners reset to empty on it; backend failures and malformed
// timestamps are not covered.
func IsUnparsable(err error) bool {
	return errors.Is(err, ErrCorrupt) && !IsTimestampError(err)
}

func withTimeout(parent context.Context, d time.Duration, fn func(ctx context.Context) error) error {
	ctx, cancel := context.WithTimeout(parent, d)
	defer cancel()
	return fn(ctx)
}
