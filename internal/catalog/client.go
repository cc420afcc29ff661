// Package catalog reads products and categories from the remote catalog API.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"slices"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"GlobalStore/internal/httpx"
	"GlobalStore/pkg/kit"
)

const (
	DefaultCacheTTL = 5 * time.Minute
	// DefaultFailureTTL is how long the fallback list is served after a
	// failed fetch before the catalog is asked again.
	DefaultFailureTTL = 30 * time.Second
)

const cacheName = "catalog"

var (
	ErrNotFound    = errors.New("product not found")
	ErrUnavailable = errors.New("catalog unavailable")
)

type Options struct {
	CacheTTL   time.Duration
	FailureTTL time.Duration
	Log        *zap.Logger
	Metrics    *kit.CacheMetrics
}

// Client is safe for concurrent use. Only ListAll is cached.
type Client struct {
	http    *httpx.Client
	ttl     time.Duration
	failTTL time.Duration
	log     *zap.Logger
	metrics *kit.CacheMetrics
	now     func() time.Time
	group   singleflight.Group

	mu      sync.Mutex
	cached  []Product
	expires time.Time
}

func NewClient(h *httpx.Client, opts Options) *Client {
	ttl := opts.CacheTTL
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	failTTL := opts.FailureTTL
	if failTTL <= 0 {
		failTTL = DefaultFailureTTL
	}
	return &Client{
		http:    h,
		ttl:     ttl,
		failTTL: failTTL,
		log:     kit.OrNop(opts.Log),
		metrics: opts.Metrics,
		now:     time.Now,
	}
}

// ListAll returns every product. A fresh result is cached for the TTL. On
// failure the built-in fallback list is served, and cached for the shorter
// failure TTL. Concurrent misses share one fetch.
func (c *Client) ListAll(ctx context.Context) []Product {
	c.mu.Lock()
	if c.cached != nil && c.now().Before(c.expires) {
		out := slices.Clone(c.cached)
		c.mu.Unlock()
		c.metrics.Hit(cacheName)
		return out
	}
	c.mu.Unlock()
	c.metrics.Miss(cacheName)

	v, _, _ := c.group.Do("products", func() (any, error) {
		return c.refresh(ctx), nil
	})
	return slices.Clone(v.([]Product))
}

func (c *Client) refresh(ctx context.Context) []Product {
	ttl := c.ttl
	var products []Product
	if err := c.http.GetJSON(ctx, "/products", &products); err != nil {
		c.log.Warn("catalog list failed, serving fallback",
			zap.Duration("retry_in", c.failTTL), zap.Error(err))
		products = fallbackProducts()
		ttl = c.failTTL
	}

	c.mu.Lock()
	c.cached = products
	c.expires = c.now().Add(ttl)
	c.mu.Unlock()
	return products
}

func (c *Client) Get(ctx context.Context, id int) (Product, error) {
	var p Product
	err := c.http.GetJSON(ctx, "/products/"+strconv.Itoa(id), &p)
	switch {
	case err == nil:
	case httpx.IsNotFound(err), errors.Is(err, httpx.ErrEmptyBody):
		return Product{}, ErrNotFound
	default:
		return Product{}, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	if p.ID == 0 {
		return Product{}, ErrNotFound
	}
	return p, nil
}

func (c *Client) ListByCategory(ctx context.Context, category string) ([]Product, error) {
	var products []Product
	if err := c.http.GetJSON(ctx, "/products/category/"+url.PathEscape(category), &products); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	return products, nil
}

// ListCategories falls back to the built-in category list on failure.
func (c *Client) ListCategories(ctx context.Context) []string {
	var cats []string
	if err := c.http.GetJSON(ctx, "/products/categories", &cats); err != nil {
		c.log.Warn("catalog categories failed, serving fallback", zap.Error(err))
		return slices.Clone(fallbackCategories)
	}
	return cats
}

// Invalidate drops the cached product list.
func (c *Client) Invalidate() {
	c.mu.Lock()
	c.cached = nil
	c.expires = time.Time{}
	c.mu.Unlock()
}
