// Package order records placed orders and mirrors them to storage.
package order

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"GlobalStore/internal/events"
	"GlobalStore/internal/storage"
	"GlobalStore/pkg/kit"
)

const (
	DefaultDelay       = 2 * time.Second
	DefaultRecentLimit = 5

	deliveryLeadTime = 3 * 24 * time.Hour
)

var (
	ErrNoItems     = errors.New("order has no items")
	ErrInvalidItem = errors.New("order item quantity must be at least 1")
)

type Options struct {
	// Delay simulates payment processing before an order is recorded.
	Delay time.Duration
	Log   *zap.Logger
}

type Service struct {
	store storage.Store
	log   *zap.Logger
	hub   *events.Hub
	delay time.Duration
	now   func() time.Time
	randN func(n int) int

	mu     sync.RWMutex
	orders []Order
	saveMu sync.Mutex
}

func New(store storage.Store, opts Options) *Service {
	delay := opts.Delay
	if delay < 0 {
		delay = 0
	}
	return &Service{
		store:  store,
		log:    kit.OrNop(opts.Log),
		hub:    events.NewHub(events.TopicOrders),
		delay:  delay,
		now:    time.Now,
		randN:  rand.IntN,
		orders: []Order{},
	}
}

func (s *Service) Subscribe() (<-chan events.Change, func()) { return s.hub.Subscribe() }

// Load replaces in-memory orders with the stored list. A value that is not
// JSON starts the list empty; an order with a malformed timestamp fails the
// load with storage.ErrCorrupt, and backend failures are returned as-is.
func (s *Service) Load(ctx context.Context) error {
	var stored []Order
	_, err := storage.LoadJSON(ctx, s.store, storage.KeyOrders, &stored)
	switch {
	case err == nil:
	case storage.IsUnparsable(err):
		s.log.Warn("stored orders unreadable, starting empty", zap.Error(err))
		stored = nil
	default:
		return fmt.Errorf("load orders: %w", err)
	}
	if stored == nil {
		stored = []Order{}
	}

	s.mu.Lock()
	s.orders = stored
	s.mu.Unlock()
	return nil
}

func (s *Service) Flush(ctx context.Context) error {
	s.mu.RLock()
	snap := s.collect(len(s.orders), func(Order) bool { return true })
	s.saveMu.Lock()
	s.mu.RUnlock()
	defer s.saveMu.Unlock()
	return storage.SaveJSON(ctx, s.store, storage.KeyOrders, snap)
}

// Create waits out the processing delay, then records a new order in
// "processing" state ahead of all earlier ones. Items are copied, so later
// catalog or cart changes never alter the order.
func (s *Service) Create(ctx context.Context, items []Item, payment Payment) (Order, error) {
	if len(items) == 0 {
		return Order{}, ErrNoItems
	}
	for _, it := range items {
		if it.Quantity < 1 {
			return Order{}, fmt.Errorf("%w: product %d", ErrInvalidItem, it.ID)
		}
	}

	if err := kit.Sleep(ctx, s.delay); err != nil {
		return Order{}, err
	}

	subtotal := decimal.Zero
	for _, it := range items {
		subtotal = subtotal.Add(it.Price.Mul(decimal.NewFromInt(int64(it.Quantity))))
	}
	shipping := decimal.Zero
	now := s.now().UTC()

	o := Order{
		ID:                "o_" + uuid.NewString(),
		Number:            s.number(now),
		Items:             slices.Clone(items),
		Subtotal:          subtotal,
		Shipping:          shipping,
		Total:             subtotal.Add(shipping),
		Payment:           payment,
		Status:            StatusProcessing,
		CreatedAt:         now,
		UpdatedAt:         now,
		EstimatedDelivery: now.Add(deliveryLeadTime),
	}

	s.mu.Lock()
	s.orders = slices.Insert(s.orders, 0, o)
	s.commit(ctx, "create")

	s.log.Info("order created",
		zap.String("order_id", o.ID),
		zap.String("order_number", o.Number),
		zap.String("total", o.Total.StringFixed(2)),
		zap.Int("items", len(o.Items)),
	)
	return o.clone(), nil
}

// number is GS-<last six digits of unix ms>-<three random digits>.
func (s *Service) number(now time.Time) string {
	return fmt.Sprintf("GS-%06d-%03d", now.UnixMilli()%1_000_000, s.randN(1000))
}

func (s *Service) Get(id string) (Order, bool) {
	return s.find(func(o Order) bool { return o.ID == id })
}

func (s *Service) GetByNumber(number string) (Order, bool) {
	return s.find(func(o Order) bool { return o.Number == number })
}

func (s *Service) find(match func(Order) bool) (Order, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := slices.IndexFunc(s.orders, match); i >= 0 {
		return s.orders[i].clone(), true
	}
	return Order{}, false
}

// List returns every order, newest first.
func (s *Service) List() []Order {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.collect(len(s.orders), func(Order) bool { return true })
}

func (s *Service) ListByStatus(st Status) []Order {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.collect(len(s.orders), func(o Order) bool { return o.Status == st })
}

// Recent returns up to limit newest orders; limit <= 0 means 5.
func (s *Service) Recent(limit int) []Order {
	if limit <= 0 {
		limit = DefaultRecentLimit
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.collect(limit, func(Order) bool { return true })
}

func (s *Service) collect(limit int, keep func(Order) bool) []Order {
	out := make([]Order, 0, min(limit, len(s.orders)))
	for _, o := range s.orders {
		if len(out) == limit {
			break
		}
		if keep(o) {
			out = append(out, o.clone())
		}
	}
	return out
}

func (s *Service) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.orders)
}

func (s *Service) TotalSpent() decimal.Decimal {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sum := decimal.Zero
	for _, o := range s.orders {
		sum = sum.Add(o.Total)
	}
	return sum
}

// UpdateStatus sets the status of order id. Any status may follow any other.
func (s *Service) UpdateStatus(ctx context.Context, id string, st Status) (bool, error) {
	if _, err := ParseStatus(string(st)); err != nil {
		return false, err
	}

	s.mu.Lock()
	i := slices.IndexFunc(s.orders, func(o Order) bool { return o.ID == id })
	if i < 0 {
		s.mu.Unlock()
		return false, nil
	}
	s.orders[i].Status = st
	s.orders[i].UpdatedAt = s.now().UTC()
	s.commit(ctx, "status")
	return true, nil
}

func (s *Service) Delete(ctx context.Context, id string) bool {
	s.mu.Lock()
	n := len(s.orders)
	s.orders = slices.DeleteFunc(s.orders, func(o Order) bool { return o.ID == id })
	if len(s.orders) == n {
		s.mu.Unlock()
		return false
	}
	s.commit(ctx, "delete")
	return true
}

func (s *Service) ClearAll(ctx context.Context) {
	s.mu.Lock()
	s.orders = []Order{}
	s.commit(ctx, "clear")
}

// commit persists and publishes. Caller holds mu; commit releases it.
func (s *Service) commit(ctx context.Context, kind string) {
	snap := s.collect(len(s.orders), func(Order) bool { return true })
	s.saveMu.Lock()
	s.mu.Unlock()

	err := storage.SaveJSON(ctx, s.store, storage.KeyOrders, snap)
	s.saveMu.Unlock()
	if err != nil {
		s.log.Warn("orders save failed", zap.Error(err))
	}
	s.hub.Publish(kind)
}
