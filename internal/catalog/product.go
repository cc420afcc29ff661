package catalog

import "github.com/shopspring/decimal"

type Rating struct {
	Rate  float64 `json:"rate"`
	Count int     `json:"count"`
}

// Product is a catalog entry as served by the remote API. Prices are USD.
type Product struct {
	ID          int             `json:"id"`
	Title       string          `json:"title"`
	Price       decimal.Decimal `json:"price"`
	Description string          `json:"description"`
	Category    string          `json:"category"`
	Image       string          `json:"image"`
	Rating      Rating          `json:"rating"`
}

// fallbackProducts is served by ListAll when the catalog cannot be reached.
func fallbackProducts() []Product {
	return []Product{
		{
			ID:          1,
			Title:       "Fjallraven - Foldsack No. 1 Backpack, Fits 15 Laptops",
			Price:       decimal.RequireFromString("109.95"),
			Description: "Your perfect pack for everyday use and walks in the forest. Stash your laptop (up to 15 inches) in the padded sleeve, your everyday",
			Category:    "men's clothing",
			Image:       "https://fakestoreapi.com/img/81fPKd-2AYL._AC_SL1500_.jpg",
			Rating:      Rating{Rate: 3.9, Count: 120},
		},
		{
			ID:          2,
			Title:       "Mens Casual Premium Slim Fit T-Shirts",
			Price:       decimal.RequireFromString("22.3"),
			Description: "Slim-fitting style, contrast raglan long sleeve, three-button henley placket, light weight & soft fabric for breathable and comfortable wearing.",
			Category:    "men's clothing",
			Image:       "https://fakestoreapi.com/img/71-3HjGNDUL._AC_SY879._SX._UX._SY._UY_.jpg",
			Rating:      Rating{Rate: 4.1, Count: 259},
		},
		{
			ID:          3,
			Title:       "Mens Cotton Jacket",
			Price:       decimal.RequireFromString("55.99"),
			Description: "Great outerwear jackets for Spring/Autumn/Winter, suitable for many occasions, such as working, hiking, camping, mountain/rock climbing, cycling, traveling or other outdoors.",
			Category:    "men's clothing",
			Image:       "https://fakestoreapi.com/img/71li-ujtlUL._AC_UX679_.jpg",
			Rating:      Rating{Rate: 4.7, Count: 500},
		},
	}
}

var fallbackCategories = []string{"electronics", "jewelery", "men's clothing", "women's clothing"}
