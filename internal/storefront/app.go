// Package storefront wires the state services, clients and storage into one
// explicitly constructed application.
package storefront

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"GlobalStore/internal/auth"
	"GlobalStore/internal/cart"
	"GlobalStore/internal/catalog"
	"GlobalStore/internal/checkout"
	"GlobalStore/internal/config"
	"GlobalStore/internal/currency"
	"GlobalStore/internal/events"
	"GlobalStore/internal/favorites"
	"GlobalStore/internal/httpx"
	"GlobalStore/internal/order"
	"GlobalStore/internal/prefs"
	"GlobalStore/internal/storage"
	"GlobalStore/pkg/kit"
)

type Deps struct {
	Store storage.Store
	Log   *zap.Logger
	// Registry receives upstream and cache metrics. Optional.
	Registry prometheus.Registerer
	// HTTP is shared by every upstream client. Optional.
	HTTP *http.Client
}

type App struct {
	Store     storage.Store
	Catalog   *catalog.Client
	Currency  *currency.Service
	Cart      *cart.Service
	Favorites *favorites.Service
	Orders    *order.Service
	Auth      *auth.Service
	Prefs     *prefs.Service
	Checkout  *checkout.Service

	log *zap.Logger
}

type stateService interface {
	Load(ctx context.Context) error
	Flush(ctx context.Context) error
}

func New(cfg *config.Config, deps Deps) *App {
	log := kit.OrNop(deps.Log)

	var (
		upstream *httpx.Metrics
		caches   *kit.CacheMetrics
	)
	if deps.Registry != nil {
		upstream = httpx.NewMetrics(deps.Registry)
		caches = kit.NewCacheMetrics(deps.Registry)
	}

	client := func(baseURL, target string) *httpx.Client {
		return httpx.New(baseURL, target, httpx.Options{
			Timeout:        cfg.Upstream.Timeout,
			Retries:        cfg.Upstream.Retries,
			InitialBackoff: cfg.Upstream.InitialBackoff,
			HTTP:           deps.HTTP,
			Log:            log.Named("httpx"),
			Metrics:        upstream,
		})
	}

	mode, ok := auth.ParseMode(cfg.Auth.Mode)
	if !ok {
		mode = auth.ModeDemo
	}
	if mode == auth.ModeDemo {
		log.Warn("auth running in demo mode: any credentials are accepted")
	}

	a := &App{
		Store: deps.Store,
		Catalog: catalog.NewClient(client(cfg.Upstream.CatalogURL, "catalog"), catalog.Options{
			CacheTTL:   cfg.Cache.CatalogTTL,
			FailureTTL: cfg.Cache.FailureTTL,
			Log:        log.Named("catalog"),
			Metrics:    caches,
		}),
		Currency: currency.NewService(client(cfg.Upstream.CurrencyURL, "currency"), currency.Options{
			CacheTTL:   cfg.Cache.RatesTTL,
			FailureTTL: cfg.Cache.FailureTTL,
			Log:        log.Named("currency"),
			Metrics:    caches,
		}),
		Cart:      cart.New(deps.Store, log.Named("cart")),
		Favorites: favorites.New(deps.Store, log.Named("favorites")),
		Orders: order.New(deps.Store, order.Options{
			Delay: cfg.Checkout.OrderDelay,
			Log:   log.Named("order"),
		}),
		Auth: auth.New(deps.Store, auth.Options{
			Mode:          mode,
			Tokens:        tokenMaker(cfg.Auth.TokenSecret),
			TokenTTL:      cfg.Auth.TokenTTL,
			RegisterDelay: cfg.Auth.RegisterDelay,
			Remote:        client(cfg.Upstream.AuthURL, "auth"),
			Log:           log.Named("auth"),
		}),
		Prefs: prefs.New(deps.Store, log.Named("prefs")),
		log:   log,
	}
	a.Checkout = checkout.New(a.Cart, a.Orders, log.Named("checkout"))
	return a
}

func tokenMaker(secret string) *auth.TokenMaker {
	if secret == "" {
		return nil
	}
	return auth.NewTokenMaker(secret)
}

func (a *App) states() map[string]stateService {
	return map[string]stateService{
		"cart":      a.Cart,
		"favorites": a.Favorites,
		"orders":    a.Orders,
		"session":   a.Auth,
		"prefs":     a.Prefs,
	}
}

// Open hydrates every state service from storage concurrently.
func (a *App) Open(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	for name, s := range a.states() {
		g.Go(func() error {
			if err := s.Load(gctx); err != nil {
				return fmt.Errorf("load %s: %w", name, err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	a.log.Info("state hydrated",
		zap.Int("cart_items", a.Cart.ItemCount()),
		zap.Int("favorites", a.Favorites.Count()),
		zap.Int("orders", a.Orders.Count()),
		zap.Bool("signed_in", a.Auth.IsAuthenticated()),
	)
	return nil
}

// Warm fills the catalog and rate caches. Both degrade to fallbacks, so it
// never fails.
func (a *App) Warm(ctx context.Context) {
	var g errgroup.Group
	g.Go(func() error {
		a.log.Debug("catalog warmed", zap.Int("products", len(a.Catalog.ListAll(ctx))))
		return nil
	})
	g.Go(func() error {
		a.log.Debug("rates warmed", zap.Int("codes", len(a.Currency.Rates(ctx))))
		return nil
	})
	_ = g.Wait()
}

// Sources lists every change feed, for subscribers that watch everything.
func (a *App) Sources() []events.Source {
	return []events.Source{a.Cart, a.Favorites, a.Orders, a.Auth, a.Prefs}
}

func (a *App) Ping(ctx context.Context) error {
	return a.Store.Ping(ctx)
}

// Close flushes every state service and closes storage. Flush failures are
// collected rather than stopping the others.
func (a *App) Close(ctx context.Context) error {
	var errs []error
	for name, s := range a.states() {
		if err := s.Flush(ctx); err != nil {
			errs = append(errs, fmt.Errorf("flush %s: %w", name, err))
		}
	}
	if err := a.Store.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close storage: %w", err))
	}
	return errors.Join(errs...)
}
