package api

import (
	"net/http"

	"GlobalStore/internal/cart"
	"GlobalStore/internal/currency"
	"GlobalStore/internal/prefs"
	"GlobalStore/pkg/kit"
)

type prefsRequest struct {
	Language *string `json:"language"`
	Currency *string `json:"currency"`
}

func (s *Server) getPrefs(w http.ResponseWriter, _ *http.Request) {
	kit.WriteJSON(w, http.StatusOK, s.App.Prefs.Get())
}

// putPrefs validates both fields before applying either.
func (s *Server) putPrefs(w http.ResponseWriter, r *http.Request) {
	var req prefsRequest
	if err := kit.DecodeJSON(w, r, &req); err != nil {
		badJSON(w, r, err)
		return
	}

	var (
		lang prefs.Language
		code currency.Code
		err  error
	)
	if req.Language != nil {
		if lang, err = prefs.ParseLanguage(*req.Language); err != nil {
			s.fail(w, r, err)
			return
		}
	}
	if req.Currency != nil {
		if code, err = currency.ParseCode(*req.Currency); err != nil {
			s.fail(w, r, err)
			return
		}
	}

	if lang != "" {
		_ = s.App.Prefs.SetLanguage(r.Context(), lang)
	}
	if code != "" {
		_ = s.App.Prefs.SetCurrency(r.Context(), code)
	}
	kit.WriteJSON(w, http.StatusOK, s.App.Prefs.Get())
}

type cartResponse struct {
	cart.Cart
	Summary   cart.Summary   `json:"summary"`
	Breakdown cart.Breakdown `json:"breakdown"`
	Currency  currency.Code  `json:"currency"`
	Display   string         `json:"displayTotal"`
}

func (s *Server) writeCart(w http.ResponseWriter, r *http.Request, status int) {
	code := s.App.Prefs.Currency()
	c := s.App.Cart.Cart()

	kit.WriteJSON(w, status, cartResponse{
		Cart:      c,
		Summary:   s.App.Cart.Summary(),
		Breakdown: cart.Totals(s.App.Cart.Items()),
		Currency:  code,
		Display:   s.App.Currency.ConvertAndFormat(r.Context(), c.TotalPrice, code),
	})
}

func (s *Server) getCart(w http.ResponseWriter, r *http.Request) {
	s.writeCart(w, r, http.StatusOK)
}

func (s *Server) clearCart(w http.ResponseWriter, r *http.Request) {
	s.App.Cart.Clear(r.Context())
	s.writeCart(w, r, http.StatusOK)
}

type addCartItemRequest struct {
	ProductID int `json:"productId"`
	Quantity  int `json:"quantity"`
}

func (s *Server) addCartItem(w http.ResponseWriter, r *http.Request) {
	var req addCartItemRequest
	if err := kit.DecodeJSON(w, r, &req); err != nil {
		badJSON(w, r, err)
		return
	}
	if req.ProductID <= 0 {
		kit.WriteError(w, r, http.StatusBadRequest, "invalid productId", map[string]any{"productId": req.ProductID})
		return
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}

	p, err := s.App.Catalog.Get(r.Context(), req.ProductID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if err := s.App.Cart.Add(r.Context(), p, req.Quantity); err != nil {
		s.fail(w, r, err)
		return
	}
	s.writeCart(w, r, http.StatusOK)
}

type quantityRequest struct {
	Quantity int `json:"quantity"`
}

func (s *Server) setCartQuantity(w http.ResponseWriter, r *http.Request) {
	id, ok := intParam(w, r, "id")
	if !ok {
		return
	}
	var req quantityRequest
	if err := kit.DecodeJSON(w, r, &req); err != nil {
		badJSON(w, r, err)
		return
	}

	s.App.Cart.SetQuantity(r.Context(), id, req.Quantity)
	s.writeCart(w, r, http.StatusOK)
}

func (s *Server) removeCartItem(w http.ResponseWriter, r *http.Request) {
	id, ok := intParam(w, r, "id")
	if !ok {
		return
	}
	s.App.Cart.Remove(r.Context(), id)
	s.writeCart(w, r, http.StatusOK)
}

type favoritesResponse struct {
	IDs   []int `json:"ids"`
	Count int   `json:"count"`
}

func (s *Server) writeFavorites(w http.ResponseWriter) {
	ids := s.App.Favorites.List()
	kit.WriteJSON(w, http.StatusOK, favoritesResponse{IDs: ids, Count: len(ids)})
}

func (s *Server) listFavorites(w http.ResponseWriter, _ *http.Request) {
	s.writeFavorites(w)
}

func (s *Server) clearFavorites(w http.ResponseWriter, r *http.Request) {
	s.App.Favorites.Clear(r.Context())
	s.writeFavorites(w)
}

func (s *Server) toggleFavorite(w http.ResponseWriter, r *http.Request) {
	id, ok := intParam(w, r, "id")
	if !ok {
		return
	}
	fav := s.App.Favorites.Toggle(r.Context(), id)
	kit.WriteJSON(w, http.StatusOK, map[string]any{"id": id, "favorite": fav})
}

func (s *Server) addFavorite(w http.ResponseWriter, r *http.Request) {
	id, ok := intParam(w, r, "id")
	if !ok {
		return
	}
	s.App.Favorites.Add(r.Context(), id)
	s.writeFavorites(w)
}

func (s *Server) removeFavorite(w http.ResponseWriter, r *http.Request) {
	id, ok := intParam(w, r, "id")
	if !ok {
		return
	}
	s.App.Favorites.Remove(r.Context(), id)
	s.writeFavorites(w)
}
