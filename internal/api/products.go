package api

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"GlobalStore/internal/catalog"
	"GlobalStore/internal/currency"
	"GlobalStore/pkg/kit"
)

type productView struct {
	catalog.Product
	DisplayPrice string `json:"displayPrice"`
	ImagePath    string `json:"imagePath,omitempty"`
	InCart       int    `json:"inCart"`
	Favorite     bool   `json:"favorite"`
}

type productPage struct {
	Products []productView `json:"products"`
	Total    int           `json:"total"`
	Page     int           `json:"page"`
	Size     int           `json:"size"`
	HasMore  bool          `json:"hasMore"`
	Currency currency.Code `json:"currency"`
}

// displayCurrency is the ?currency= override or the stored preference.
func (s *Server) displayCurrency(r *http.Request) (currency.Code, error) {
	if raw := r.URL.Query().Get("currency"); raw != "" {
		return currency.ParseCode(raw)
	}
	return s.App.Prefs.Currency(), nil
}

func (s *Server) views(r *http.Request, products []catalog.Product, code currency.Code) []productView {
	rates := s.App.Currency.Rates(r.Context())

	out := make([]productView, 0, len(products))
	for _, p := range products {
		out = append(out, productView{
			Product:      p,
			DisplayPrice: currency.ConvertAndFormat(p.Price, code, rates),
			ImagePath:    s.imagePath(p.Image),
			InCart:       s.App.Cart.Quantity(p.ID),
			Favorite:     s.App.Favorites.IsFavorite(p.ID),
		})
	}
	return out
}

// imagePath rewrites a catalog-hosted image URL to the local /img proxy.
func (s *Server) imagePath(image string) string {
	origin, err := url.Parse(s.ImageOrigin)
	if err != nil || image == "" {
		return ""
	}
	u, err := url.Parse(image)
	if err != nil || u.Host != origin.Host || !strings.HasPrefix(u.Path, "/img/") {
		return ""
	}
	return u.Path
}

func parseFilters(q url.Values) (catalog.Filters, error) {
	f := catalog.Filters{
		Search:   strings.TrimSpace(q.Get("search")),
		Category: q.Get("category"),
	}
	for _, b := range []struct {
		key string
		dst **decimal.Decimal
	}{{"min_price", &f.MinPrice}, {"max_price", &f.MaxPrice}} {
		raw := q.Get(b.key)
		if raw == "" {
			continue
		}
		d, err := decimal.NewFromString(raw)
		if err != nil {
			return catalog.Filters{}, &queryError{b.key, raw}
		}
		*b.dst = &d
	}
	if raw := q.Get("min_rating"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return catalog.Filters{}, &queryError{"min_rating", raw}
		}
		f.MinRating = &v
	}
	return f, nil
}

type queryError struct {
	Param string
	Value string
}

func (e *queryError) Error() string { return "invalid " + e.Param }

func queryInt(q url.Values, key string, def int) (int, error) {
	raw := q.Get(key)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, &queryError{key, raw}
	}
	return n, nil
}

func (s *Server) listProducts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	code, err := s.displayCurrency(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	f, err := parseFilters(q)
	if err != nil {
		writeQueryError(w, r, err)
		return
	}

	sortKey := catalog.SortKey("")
	if raw := q.Get("sort"); raw != "" {
		k, ok := catalog.ParseSortKey(raw)
		if !ok {
			writeQueryError(w, r, &queryError{"sort", raw})
			return
		}
		sortKey = k
	}

	page, err := queryInt(q, "page", 1)
	if err != nil {
		writeQueryError(w, r, err)
		return
	}
	size, err := queryInt(q, "size", catalog.DefaultPageSize)
	if err != nil {
		writeQueryError(w, r, err)
		return
	}
	if size < 1 {
		size = catalog.DefaultPageSize
	}

	products := catalog.Sort(catalog.Filter(s.App.Catalog.ListAll(r.Context()), f), sortKey)
	pageItems, more := catalog.Paginate(products, page, size)

	kit.WriteJSON(w, http.StatusOK, productPage{
		Products: s.views(r, pageItems, code),
		Total:    len(products),
		Page:     max(page, 1),
		Size:     size,
		HasMore:  more,
		Currency: code,
	})
}

func writeQueryError(w http.ResponseWriter, r *http.Request, err error) {
	if qe, ok := err.(*queryError); ok {
		kit.WriteError(w, r, http.StatusBadRequest, qe.Error(), map[string]any{qe.Param: qe.Value})
		return
	}
	kit.WriteError(w, r, http.StatusBadRequest, err.Error(), nil)
}

func (s *Server) getProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := intParam(w, r, "id")
	if !ok {
		return
	}
	code, err := s.displayCurrency(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	p, err := s.App.Catalog.Get(r.Context(), id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	kit.WriteJSON(w, http.StatusOK, s.views(r, []catalog.Product{p}, code)[0])
}

func (s *Server) productsByCategory(w http.ResponseWriter, r *http.Request) {
	code, err := s.displayCurrency(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	products, err := s.App.Catalog.ListByCategory(r.Context(), chi.URLParam(r, "category"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	kit.WriteJSON(w, http.StatusOK, s.views(r, products, code))
}

func (s *Server) categories(w http.ResponseWriter, r *http.Request) {
	kit.WriteJSON(w, http.StatusOK, s.App.Catalog.ListCategories(r.Context()))
}

type ratesResponse struct {
	Base  currency.Code  `json:"base"`
	Rates currency.Rates `json:"rates"`
}

func (s *Server) rates(w http.ResponseWriter, r *http.Request) {
	kit.WriteJSON(w, http.StatusOK, ratesResponse{Base: currency.USD, Rates: s.App.Currency.Rates(r.Context())})
}
