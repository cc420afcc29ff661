package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"GlobalStore/internal/checkout"
	"GlobalStore/internal/order"
	"GlobalStore/pkg/kit"
)

type orderView struct {
	order.Order
	StatusLabel  string `json:"statusLabel"`
	DisplayTotal string `json:"displayTotal"`
}

func (s *Server) viewOrder(r *http.Request, o order.Order) orderView {
	return orderView{
		Order:        o,
		StatusLabel:  o.Status.Label(string(s.App.Prefs.Language())),
		DisplayTotal: s.App.Currency.ConvertAndFormat(r.Context(), o.Total, s.App.Prefs.Currency()),
	}
}

// checkout blocks for the simulated payment delay; a client disconnect
// cancels it and leaves the cart as it was.
func (s *Server) checkout(w http.ResponseWriter, r *http.Request) {
	var form checkout.PaymentForm
	if err := kit.DecodeJSON(w, r, &form); err != nil {
		badJSON(w, r, err)
		return
	}

	o, err := s.App.Checkout.Submit(r.Context(), form)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	kit.WriteJSON(w, http.StatusCreated, s.viewOrder(r, o))
}

type ordersResponse struct {
	Orders     []orderView     `json:"orders"`
	Count      int             `json:"count"`
	TotalSpent decimal.Decimal `json:"totalSpent"`
}

func (s *Server) listOrders(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	var orders []order.Order
	switch {
	case q.Get("status") != "":
		st, err := order.ParseStatus(q.Get("status"))
		if err != nil {
			s.fail(w, r, err)
			return
		}
		orders = s.App.Orders.ListByStatus(st)
	case q.Get("limit") != "":
		limit, err := strconv.Atoi(q.Get("limit"))
		if err != nil {
			writeQueryError(w, r, &queryError{"limit", q.Get("limit")})
			return
		}
		orders = s.App.Orders.Recent(limit)
	default:
		orders = s.App.Orders.List()
	}

	views := make([]orderView, 0, len(orders))
	for _, o := range orders {
		views = append(views, s.viewOrder(r, o))
	}
	kit.WriteJSON(w, http.StatusOK, ordersResponse{
		Orders:     views,
		Count:      s.App.Orders.Count(),
		TotalSpent: s.App.Orders.TotalSpent(),
	})
}

func (s *Server) clearOrders(w http.ResponseWriter, r *http.Request) {
	s.App.Orders.ClearAll(r.Context())
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) getOrder(w http.ResponseWriter, r *http.Request) {
	o, ok := s.App.Orders.Get(chi.URLParam(r, "id"))
	if !ok {
		kit.WriteError(w, r, http.StatusNotFound, "order not found", nil)
		return
	}
	kit.WriteJSON(w, http.StatusOK, s.viewOrder(r, o))
}

func (s *Server) getOrderByNumber(w http.ResponseWriter, r *http.Request) {
	o, ok := s.App.Orders.GetByNumber(chi.URLParam(r, "number"))
	if !ok {
		kit.WriteError(w, r, http.StatusNotFound, "order not found", nil)
		return
	}
	kit.WriteJSON(w, http.StatusOK, s.viewOrder(r, o))
}

type statusRequest struct {
	Status string `json:"status"`
}

func (s *Server) updateOrderStatus(w http.ResponseWriter, r *http.Request) {
	var req statusRequest
	if err := kit.DecodeJSON(w, r, &req); err != nil {
		badJSON(w, r, err)
		return
	}
	st, err := order.ParseStatus(req.Status)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	id := chi.URLParam(r, "id")
	found, err := s.App.Orders.UpdateStatus(r.Context(), id, st)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if !found {
		kit.WriteError(w, r, http.StatusNotFound, "order not found", nil)
		return
	}

	o, _ := s.App.Orders.Get(id)
	kit.WriteJSON(w, http.StatusOK, s.viewOrder(r, o))
}

func (s *Server) deleteOrder(w http.ResponseWriter, r *http.Request) {
	if !s.App.Orders.Delete(r.Context(), chi.URLParam(r, "id")) {
		kit.WriteError(w, r, http.StatusNotFound, "order not found", nil)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
