// Package checkout turns the cart into an order.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"GlobalStore/internal/cart"
	"GlobalStore/internal/order"
	"GlobalStore/internal/validation"
	"GlobalStore/pkg/kit"
)

var ErrEmptyCart = errors.New("cart is empty")

// PaymentForm is the card as typed. Only a masked copy outlives Submit.
type PaymentForm struct {
	CardNumber string `json:"cardNumber" validate:"required,luhn"`
	CardHolder string `json:"cardHolder" validate:"required"`
	ExpiryDate string `json:"expiryDate" validate:"required,expiry"`
	CVV        string `json:"cvv" validate:"required,cvv"`
}

func (f PaymentForm) Validate() error { return validation.Struct(f) }

func (f PaymentForm) payment() order.Payment {
	return order.Payment{
		CardHolder:   strings.TrimSpace(f.CardHolder),
		CardLast4:    last4(f.CardNumber),
		MaskedNumber: MaskCardNumber(f.CardNumber),
		ExpiryDate:   f.ExpiryDate,
		CardType:     CardType(f.CardNumber),
	}
}

type Service struct {
	cart   *cart.Service
	orders *order.Service
	log    *zap.Logger
}

func New(c *cart.Service, o *order.Service, log *zap.Logger) *Service {
	return &Service{cart: c, orders: o, log: kit.OrNop(log)}
}

// Submit validates the card, places an order for the current cart contents
// and takes the ordered quantities out of the cart. Items added while the
// order was being placed stay. On any error the cart is left untouched.
func (s *Service) Submit(ctx context.Context, form PaymentForm) (order.Order, error) {
	if err := form.Validate(); err != nil {
		return order.Order{}, err
	}

	lines := s.cart.Items()
	if len(lines) == 0 {
		return order.Order{}, ErrEmptyCart
	}

	items := make([]order.Item, 0, len(lines))
	ordered := make(map[int]int, len(lines))
	for _, it := range lines {
		ordered[it.ID] += it.Quantity
		items = append(items, order.Item{
			ID:          it.ID,
			Title:       it.Title,
			Price:       it.Price,
			Description: it.Description,
			Category:    it.Category,
			Image:       it.Image,
			Rating:      it.Rating,
			Quantity:    it.Quantity,
		})
	}

	o, err := s.orders.Create(ctx, items, form.payment())
	if err != nil {
		return order.Order{}, fmt.Errorf("create order: %w", err)
	}

	s.cart.Deduct(ctx, ordered)
	s.log.Info("checkout complete", zap.String("order_number", o.Number))
	return o, nil
}
