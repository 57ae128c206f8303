package cart

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/uchsash/medistore/api/middleware"
	"github.com/uchsash/medistore/api/responses"
	"github.com/uchsash/medistore/api/validators"
	cartsvc "github.com/uchsash/medistore/internal/cart"
	pkgerrors "github.com/uchsash/medistore/pkg/errors"
	"github.com/uchsash/medistore/pkg/logger"
)

// Carts hands out the cart of a shopper profile.
type Carts interface {
	For(profileID string) *cartsvc.Store
}

func storeFor(carts Carts, r *http.Request) (*cartsvc.Store, error) {
	if carts == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable")
	}
	profileID := middleware.ProfileIDFromContext(r.Context())
	if profileID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "profile context missing")
	}
	return carts.For(profileID), nil
}

// CartFetch returns the profile's cart lines, count and subtotal.
func CartFetch(carts Carts, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		store, err := storeFor(carts, r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newCartResponse(store.Snapshot(r.Context())))
	}
}

func CartCount(carts Carts, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		store, err := storeFor(carts, r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, countResponse{Count: store.Count(r.Context())})
	}
}

// CartAddItem merges the posted item into the cart.
func CartAddItem(carts Carts, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		store, err := storeFor(carts, r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload addItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		item, qty := payload.toItem()
		if item.ItemID == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "validation failed").
				WithDetails(map[string]string{"itemId": "is required"}))
			return
		}
		store.Add(r.Context(), item, qty)
		responses.WriteSuccess(w, newCartResponse(store.Snapshot(r.Context())))
	}
}

func CartSetQuantity(carts Carts, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		store, err := storeFor(carts, r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload setQuantityRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		store.SetQuantity(r.Context(), chi.URLParam(r, "itemId"), payload.value())
		responses.WriteSuccess(w, newCartResponse(store.Snapshot(r.Context())))
	}
}

// CartRemoveItem drops a line. Removing an absent line is not an error.
func CartRemoveItem(carts Carts, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		store, err := storeFor(carts, r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		store.Remove(r.Context(), chi.URLParam(r, "itemId"))
		responses.WriteSuccess(w, newCartResponse(store.Snapshot(r.Context())))
	}
}

func CartClear(carts Carts, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		store, err := storeFor(carts, r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		store.Clear(r.Context())
		responses.WriteSuccess(w, newCartResponse(store.Snapshot(r.Context())))
	}
}
