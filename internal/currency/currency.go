// Package currency converts USD catalog prices for display.
package currency

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"GlobalStore/internal/httpx"
	"GlobalStore/pkg/kit"
)

type Code string

const (
	USD Code = "USD"
	EUR Code = "EUR"
	TRY Code = "TRY"
)

var Codes = []Code{USD, EUR, TRY}

var ErrUnknownCode = errors.New("unknown currency")

func ParseCode(s string) (Code, error) {
	switch c := Code(strings.ToUpper(strings.TrimSpace(s))); c {
	case USD, EUR, TRY:
		return c, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownCode, s)
}

func (c Code) Symbol() string {
	switch c {
	case EUR:
		return "€"
	case TRY:
		return "₺"
	}
	return "$"
}

// Rates maps a code to units per 1 USD.
type Rates map[Code]decimal.Decimal

func FallbackRates() Rates {
	return Rates{
		USD: decimal.NewFromInt(1),
		EUR: decimal.RequireFromString("0.85"),
		TRY: decimal.RequireFromString("30.5"),
	}
}

func (r Rates) rate(c Code) decimal.Decimal {
	if v, ok := r[c]; ok && v.IsPositive() {
		return v
	}
	return FallbackRates()[c]
}

// Convert turns a USD amount into code, rounded half-up to cents.
func Convert(amountUSD decimal.Decimal, c Code, rates Rates) decimal.Decimal {
	rate := rates.rate(c)
	if rate.IsZero() {
		rate = decimal.NewFromInt(1)
	}
	return amountUSD.Mul(rate).Round(2)
}

// Format renders amount as symbol plus two fixed decimals, e.g. "₺610.00".
func Format(amount decimal.Decimal, c Code) string {
	return c.Symbol() + amount.StringFixed(2)
}

func ConvertAndFormat(amountUSD decimal.Decimal, c Code, rates Rates) string {
	return Format(Convert(amountUSD, c, rates), c)
}

const (
	DefaultCacheTTL   = time.Hour
	DefaultFailureTTL = 30 * time.Second
)

const cacheName = "rates"

type Options struct {
	CacheTTL   time.Duration
	FailureTTL time.Duration
	Log        *zap.Logger
	Metrics    *kit.CacheMetrics
}

// Service fetches USD-based rates and caches the last good table.
type Service struct {
	http    *httpx.Client
	ttl     time.Duration
	failTTL time.Duration
	log     *zap.Logger
	metrics *kit.CacheMetrics
	now     func() time.Time
	group   singleflight.Group

	mu      sync.Mutex
	cached  Rates
	expires time.Time
}

func NewService(h *httpx.Client, opts Options) *Service {
	ttl := opts.CacheTTL
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	failTTL := opts.FailureTTL
	if failTTL <= 0 {
		failTTL = DefaultFailureTTL
	}
	return &Service{
		http:    h,
		ttl:     ttl,
		failTTL: failTTL,
		log:     kit.OrNop(opts.Log),
		metrics: opts.Metrics,
		now:     time.Now,
	}
}

type ratesResponse struct {
	Base  string                     `json:"base"`
	Date  string                     `json:"date"`
	Rates map[string]decimal.Decimal `json:"rates"`
}

// Rates never fails: an unreachable provider yields the fallback table.
func (s *Service) Rates(ctx context.Context) Rates {
	s.mu.Lock()
	if s.cached != nil && s.now().Before(s.expires) {
		out := maps.Clone(s.cached)
		s.mu.Unlock()
		s.metrics.Hit(cacheName)
		return out
	}
	s.mu.Unlock()
	s.metrics.Miss(cacheName)

	v, _, _ := s.group.Do("rates", func() (any, error) {
		return s.refresh(ctx), nil
	})
	return maps.Clone(v.(Rates))
}

// refresh fetches and caches a table. A failed fetch caches the fallback for
// the failure TTL only.
func (s *Service) refresh(ctx context.Context) Rates {
	rates, ttl := s.fetch(ctx), s.ttl
	if rates == nil {
		rates, ttl = FallbackRates(), s.failTTL
	}

	s.mu.Lock()
	s.cached = rates
	s.expires = s.now().Add(ttl)
	s.mu.Unlock()
	return rates
}

func (s *Service) fetch(ctx context.Context) Rates {
	var resp ratesResponse
	if err := s.http.GetJSON(ctx, "", &resp); err != nil {
		s.log.Warn("currency rates failed, serving fallback",
			zap.Duration("retry_in", s.failTTL), zap.Error(err))
		return nil
	}

	fb := FallbackRates()
	rates := Rates{USD: fb[USD]}
	for _, c := range []Code{EUR, TRY} {
		if v, ok := resp.Rates[string(c)]; ok && v.IsPositive() {
			rates[c] = v
		} else {
			rates[c] = fb[c]
		}
	}
	return rates
}

func (s *Service) Convert(ctx context.Context, amountUSD decimal.Decimal, c Code) decimal.Decimal {
	return Convert(amountUSD, c, s.Rates(ctx))
}

func (s *Service) ConvertAndFormat(ctx context.Context, amountUSD decimal.Decimal, c Code) string {
	return ConvertAndFormat(amountUSD, c, s.Rates(ctx))
}
