package order

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"GlobalStore/internal/catalog"
)

type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusShipped    Status = "shipped"
	StatusDelivered  Status = "delivered"
	StatusCancelled  Status = "cancelled"
)

var Statuses = []Status{StatusPending, StatusProcessing, StatusShipped, StatusDelivered, StatusCancelled}

var ErrInvalidStatus = errors.New("invalid order status")

func ParseStatus(s string) (Status, error) {
	for _, st := range Statuses {
		if string(st) == s {
			return st, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidStatus, s)
}

var statusLabels = map[string]map[Status]string{
	"tr": {
		StatusPending:    "Beklemede",
		StatusProcessing: "İşleniyor",
		StatusShipped:    "Kargoya Verildi",
		StatusDelivered:  "Teslim Edildi",
		StatusCancelled:  "İptal Edildi",
	},
	"en": {
		StatusPending:    "Pending",
		StatusProcessing: "Processing",
		StatusShipped:    "Shipped",
		StatusDelivered:  "Delivered",
		StatusCancelled:  "Cancelled",
	},
}

// Label is the human text for s in lang ("tr" or "en"). Unknown values are
// returned as-is.
func (s Status) Label(lang string) string {
	if l, ok := statusLabels[lang][s]; ok {
		return l
	}
	return string(s)
}

type CardType string

const (
	CardVisa       CardType = "visa"
	CardMastercard CardType = "mastercard"
	CardAmex       CardType = "amex"
	CardOther      CardType = "other"
)

// Item is a frozen copy of a cart line at purchase time.
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

// Payment is what is kept of the card. The full number and CVV are never
// stored.
type Payment struct {
	CardHolder   string   `json:"cardHolder"`
	CardLast4    string   `json:"cardLast4"`
	MaskedNumber string   `json:"maskedNumber"`
	ExpiryDate   string   `json:"expiryDate"`
	CardType     CardType `json:"cardType"`
}

type Order struct {
	ID                string          `json:"id"`
	Number            string          `json:"orderNumber"`
	Items             []Item          `json:"items"`
	Subtotal          decimal.Decimal `json:"subtotal"`
	Shipping          decimal.Decimal `json:"shipping"`
	Total             decimal.Decimal `json:"total"`
	Payment           Payment         `json:"paymentInfo"`
	Status            Status          `json:"status"`
	CreatedAt         time.Time       `json:"createdAt"`
	UpdatedAt         time.Time       `json:"updatedAt"`
	EstimatedDelivery time.Time       `json:"estimatedDelivery"`
}

func (o Order) clone() Order {
	o.Items = append([]Item(nil), o.Items...)
	return o
}
