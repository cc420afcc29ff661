// Package cart holds the shopping cart and mirrors it to storage after every
// change.
package cart

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"GlobalStore/internal/catalog"
	"GlobalStore/internal/events"
	"GlobalStore/internal/storage"
	"GlobalStore/pkg/kit"
)

var ErrInvalidQuantity = errors.New("quantity must be at least 1")

// Line is one product in the cart. There is at most one line per product.
type Line struct {
	ProductID int             `json:"id"`
	Product   catalog.Product `json:"product"`
	Quantity  int             `json:"quantity"`
	AddedAt   time.Time       `json:"addedAt"`
}

type Cart struct {
	Items      []Line          `json:"items"`
	TotalItems int             `json:"totalItems"`
	TotalPrice decimal.Decimal `json:"totalPrice"`
}

type Summary struct {
	TotalItems  int             `json:"totalItems"`
	TotalPrice  decimal.Decimal `json:"totalPrice"`
	UniqueItems int             `json:"uniqueItems"`
}

// Item is the flattened display view of a line.
type Item struct {
	ID          int             `json:"id"`
	Title       string          `json:"title"`
	Price       decimal.Decimal `json:"price"`
	Description string          `json:"description"`
	Category    string          `json:"category"`
	Image       string          `json:"image"`
	Rating      catalog.Rating  `json:"rating"`
	Quantity    int             `json:"quantity"`
}

type Service struct {
	store storage.Store
	log   *zap.Logger
	hub   *events.Hub
	now   func() time.Time

	mu   sync.RWMutex
	cart Cart

	// saveMu orders storage writes the same way mu orders mutations.
	saveMu sync.Mutex
}

func New(store storage.Store, log *zap.Logger) *Service {
	return &Service{
		store: store,
		log:   kit.OrNop(log),
		hub:   events.NewHub(events.TopicCart),
		now:   time.Now,
		cart:  Cart{Items: []Line{}},
	}
}

func (s *Service) Subscribe() (<-chan events.Change, func()) { return s.hub.Subscribe() }

// Load replaces in-memory state with the stored cart. A value that is not
// valid JSON resets the cart to empty. Backend failures and malformed
// timestamps are returned and leave the cart untouched.
func (s *Service) Load(ctx context.Context) error {
	var stored Cart
	_, err := storage.LoadJSON(ctx, s.store, storage.KeyCart, &stored)
	switch {
	case err == nil:
	case storage.IsUnparsable(err):
		s.log.Warn("stored cart unreadable, starting empty", zap.Error(err))
		stored = Cart{}
	default:
		return fmt.Errorf("load cart: %w", err)
	}

	lines := make([]Line, 0, len(stored.Items))
	for _, l := range stored.Items {
		if l.Quantity < 1 {
			continue
		}
		if l.ProductID == 0 {
			l.ProductID = l.Product.ID
		}
		lines = append(lines, l)
	}

	s.mu.Lock()
	s.cart = Cart{Items: lines}
	s.recompute()
	s.mu.Unlock()
	return nil
}

// Flush writes the current cart to storage.
func (s *Service) Flush(ctx context.Context) error {
	s.mu.RLock()
	snap := s.snapshot()
	s.saveMu.Lock()
	s.mu.RUnlock()
	defer s.saveMu.Unlock()
	return storage.SaveJSON(ctx, s.store, storage.KeyCart, snap)
}

// Add puts qty of product in the cart, accumulating onto an existing line.
func (s *Service) Add(ctx context.Context, p catalog.Product, qty int) error {
	if qty < 1 {
		return ErrInvalidQuantity
	}

	s.mu.Lock()
	if i := s.index(p.ID); i >= 0 {
		s.cart.Items[i].Quantity += qty
	} else {
		s.cart.Items = append(s.cart.Items, Line{
			ProductID: p.ID,
			Product:   p,
			Quantity:  qty,
			AddedAt:   s.now().UTC(),
		})
	}
	s.commit(ctx, "add")
	return nil
}

// Remove drops the product's line. Absent ids are a no-op.
func (s *Service) Remove(ctx context.Context, productID int) {
	s.mu.Lock()
	s.cart.Items = slices.DeleteFunc(s.cart.Items, func(l Line) bool { return l.ProductID == productID })
	s.commit(ctx, "remove")
}

// SetQuantity overwrites a line's quantity; qty <= 0 removes the line.
// Products not in the cart are left alone.
func (s *Service) SetQuantity(ctx context.Context, productID, qty int) {
	s.mu.Lock()
	i := s.index(productID)
	if i < 0 {
		s.mu.Unlock()
		return
	}
	if qty <= 0 {
		s.cart.Items = slices.Delete(s.cart.Items, i, i+1)
		s.commit(ctx, "remove")
		return
	}
	s.cart.Items[i].Quantity = qty
	s.commit(ctx, "update")
}

func (s *Service) Clear(ctx context.Context) {
	s.mu.Lock()
	s.cart = Cart{Items: []Line{}}
	s.commit(ctx, "clear")
}

// Deduct takes ordered quantities out of the cart, keyed by product id. Lines
// that reach zero are removed; anything added since the order was taken stays.
func (s *Service) Deduct(ctx context.Context, quantities map[int]int) {
	s.mu.Lock()
	kept := make([]Line, 0, len(s.cart.Items))
	for _, l := range s.cart.Items {
		l.Quantity -= quantities[l.ProductID]
		if l.Quantity > 0 {
			kept = append(kept, l)
		}
	}
	s.cart.Items = kept
	s.commit(ctx, "checkout")
}

// commit recomputes totals, persists, unlocks and publishes. Caller holds mu.
func (s *Service) commit(ctx context.Context, kind string) {
	s.recompute()
	snap := s.snapshot()
	s.saveMu.Lock()
	s.mu.Unlock()

	err := storage.SaveJSON(ctx, s.store, storage.KeyCart, snap)
	s.saveMu.Unlock()
	if err != nil {
		s.log.Warn("cart save failed", zap.Error(err))
	}
	s.hub.Publish(kind)
}

func (s *Service) recompute() {
	total := 0
	price := decimal.Zero
	for _, l := range s.cart.Items {
		total += l.Quantity
		price = price.Add(l.Product.Price.Mul(decimal.NewFromInt(int64(l.Quantity))))
	}
	s.cart.TotalItems = total
	s.cart.TotalPrice = price
}

func (s *Service) index(productID int) int {
	return slices.IndexFunc(s.cart.Items, func(l Line) bool { return l.ProductID == productID })
}

func (s *Service) snapshot() Cart {
	c := s.cart
	c.Items = slices.Clone(s.cart.Items)
	return c
}

func (s *Service) Cart() Cart {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot()
}

func (s *Service) ItemCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cart.TotalItems
}

func (s *Service) TotalPrice() decimal.Decimal {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cart.TotalPrice
}

func (s *Service) Contains(productID int) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.index(productID) >= 0
}

func (s *Service) Quantity(productID int) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := s.index(productID); i >= 0 {
		return s.cart.Items[i].Quantity
	}
	return 0
}

func (s *Service) Summary() Summary {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Summary{
		TotalItems:  s.cart.TotalItems,
		TotalPrice:  s.cart.TotalPrice,
		UniqueItems: len(s.cart.Items),
	}
}

// Items returns the display view of every line, in insertion order.
func (s *Service) Items() []Item {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Item, 0, len(s.cart.Items))
	for _, l := range s.cart.Items {
		out = append(out, Item{
			ID:          l.ProductID,
			Title:       l.Product.Title,
			Price:       l.Product.Price,
			Description: l.Product.Description,
			Category:    l.Product.Category,
			Image:       l.Product.Image,
			Rating:      l.Product.Rating,
			Quantity:    l.Quantity,
		})
	}
	return out
}
