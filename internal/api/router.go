// Package api exposes the storefront over JSON HTTP plus a server-sent event
// stream of state changes.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"GlobalStore/internal/storefront"
	"GlobalStore/pkg/kit"
)

type HTTPDeps struct {
	Log      *zap.Logger
	Service  string
	Registry *prometheus.Registry

	MetricsEnabled bool
	MetricsToken   string
}

const (
	loginLimitPerMin    = 5
	registerLimitPerMin = 3
	limitWindow         = 60 * time.Second

	readyTimeout = 1 * time.Second
)

type Server struct {
	App *storefront.App
	Log *zap.Logger
	// ImageOrigin is the catalog host that /img/* is proxied to.
	ImageOrigin string
}

func NewHandler(s *Server, deps HTTPDeps) (http.Handler, error) {
	s.Log = kit.OrNop(s.Log)

	images, err := NewReverseProxy(s.ImageOrigin, s.Log)
	if err != nil {
		return nil, err
	}

	r := chi.NewRouter()
	setupMiddleware(r, deps)
	setupMetrics(r, deps)

	r.Get("/healthz", healthz)
	r.Get("/readyz", s.readyz)

	r.Get("/products", s.listProducts)
	r.Get("/products/{id}", s.getProduct)
	r.Get("/products/category/{category}", s.productsByCategory)
	r.Get("/categories", s.categories)

	r.Get("/rates", s.rates)
	r.Get("/prefs", s.getPrefs)
	r.Put("/prefs", s.putPrefs)

	r.Route("/cart", func(cr chi.Router) {
		cr.Get("/", s.getCart)
		cr.Delete("/", s.clearCart)
		cr.Post("/items", s.addCartItem)
		cr.Put("/items/{id}", s.setCartQuantity)
		cr.Delete("/items/{id}", s.removeCartItem)
	})

	r.Route("/favorites", func(fr chi.Router) {
		fr.Get("/", s.listFavorites)
		fr.Delete("/", s.clearFavorites)
		fr.Post("/{id}/toggle", s.toggleFavorite)
		fr.Put("/{id}", s.addFavorite)
		fr.Delete("/{id}", s.removeFavorite)
	})

	r.Post("/checkout", s.checkout)
	r.Route("/orders", func(or chi.Router) {
		or.Get("/", s.listOrders)
		or.Delete("/", s.clearOrders)
		or.Get("/number/{number}", s.getOrderByNumber)
		or.Get("/{id}", s.getOrder)
		or.Patch("/{id}/status", s.updateOrderStatus)
		or.Delete("/{id}", s.deleteOrder)
	})

	loginLimiter := kit.NewIPRateLimiter(loginLimitPerMin, limitWindow)
	registerLimiter := kit.NewIPRateLimiter(registerLimitPerMin, limitWindow)

	r.Route("/auth", func(ar chi.Router) {
		ar.With(loginLimiter.Middleware).Post("/login", s.login)
		ar.With(registerLimiter.Middleware).Post("/register", s.register)
		ar.With(loginLimiter.Middleware).Post("/mock-login", s.mockLogin)
		ar.Post("/logout", s.logout)
		ar.With(RequireSession(s.App.Auth)).Get("/me", s.me)
		ar.With(RequireSession(s.App.Auth)).Put("/me", s.updateProfile)
	})
	r.Get("/users", s.listUsers)

	r.Get("/events", s.events)
	r.Handle("/img/*", images)

	return r, nil
}

func setupMiddleware(r *chi.Mux, deps HTTPDeps) {
	r.Use(chimw.RequestID)
	r.Use(kit.Recoverer(deps.Log))
	r.Use(kit.Logging(deps.Log))
}

func setupMetrics(r *chi.Mux, deps HTTPDeps) {
	if deps.Registry == nil {
		return
	}

	metrics := kit.NewMetrics(deps.Registry)
	r.Use(metrics.Middleware(deps.Service, kit.ChiRoutePatternOrPath))

	if !deps.MetricsEnabled {
		return
	}

	r.With(kit.MetricsAuth(deps.MetricsToken)).
		Handle("/metrics", promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{}))
}

func healthz(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func (s *Server) readyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
	defer cancel()

	if err := s.App.Ping(ctx); err != nil {
		s.Log.Warn("readyz failed", zap.Error(err))
		kit.WriteError(w, r, http.StatusServiceUnavailable, "not ready", nil)
		return
	}
	w.WriteHeader(http.StatusOK)
}
