package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"GlobalStore/internal/auth"
	"GlobalStore/internal/cart"
	"GlobalStore/internal/catalog"
	"GlobalStore/internal/checkout"
	"GlobalStore/internal/currency"
	"GlobalStore/internal/order"
	"GlobalStore/internal/prefs"
	"GlobalStore/internal/validation"
	"GlobalStore/pkg/kit"
)

// fail maps a service error onto an HTTP status.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	var ve *validation.Errors
	switch {
	case errors.As(err, &ve):
		kit.WriteError(w, r, http.StatusUnprocessableEntity, "validation failed", ve.Fields)
	case errors.Is(err, catalog.ErrNotFound):
		kit.WriteError(w, r, http.StatusNotFound, "not found", nil)
	case errors.Is(err, catalog.ErrUnavailable),
		errors.Is(err, auth.ErrMockLoginFailed),
		errors.Is(err, auth.ErrDirectoryUnavailable):
		kit.WriteError(w, r, http.StatusBadGateway, err.Error(), nil)
	case errors.Is(err, cart.ErrInvalidQuantity),
		errors.Is(err, order.ErrInvalidItem),
		errors.Is(err, order.ErrNoItems):
		kit.WriteError(w, r, http.StatusUnprocessableEntity, err.Error(), nil)
	case errors.Is(err, checkout.ErrEmptyCart), errors.Is(err, auth.ErrEmailExists):
		kit.WriteError(w, r, http.StatusConflict, err.Error(), nil)
	case errors.Is(err, order.ErrInvalidStatus),
		errors.Is(err, currency.ErrUnknownCode),
		errors.Is(err, prefs.ErrUnknownLanguage):
		kit.WriteError(w, r, http.StatusBadRequest, err.Error(), nil)
	case errors.Is(err, auth.ErrInvalidCredentials):
		kit.WriteError(w, r, http.StatusUnauthorized, "invalid credentials", nil)
	case errors.Is(err, auth.ErrNotSignedIn):
		kit.WriteError(w, r, http.StatusUnauthorized, err.Error(), nil)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		kit.WriteError(w, r, http.StatusServiceUnavailable, "request cancelled", nil)
	default:
		s.Log.Error("request failed", zap.Error(err), zap.String("path", r.URL.Path))
		kit.WriteError(w, r, http.StatusInternalServerError, "server error", nil)
	}
}

func badJSON(w http.ResponseWriter, r *http.Request, err error) {
	kit.WriteError(w, r, http.StatusBadRequest, "bad json", map[string]any{"cause": err.Error()})
}

func intParam(w http.ResponseWriter, r *http.Request, name string) (int, bool) {
	raw := chi.URLParam(r, name)
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		kit.WriteError(w, r, http.StatusBadRequest, "invalid "+name, map[string]any{name: raw})
		return 0, false
	}
	return n, true
}
