package controllers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/uchsash/medistore/api/responses"
	"github.com/uchsash/medistore/internal/catalog"
	pkgerrors "github.com/uchsash/medistore/pkg/errors"
	"github.com/uchsash/medistore/pkg/logger"
)

// CatalogReader is the read side of the upstream catalog.
type CatalogReader interface {
	GetMedicine(ctx context.Context, id string) (*catalog.MedicineDetails, error)
	Categories(ctx context.Context) ([]catalog.Category, error)
}

func MedicineDetail(cat CatalogReader, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if cat == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog unavailable"))
			return
		}
		details, err := cat.GetMedicine(r.Context(), chi.URLParam(r, "medicineId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, details)
	}
}

func CategoryList(cat CatalogReader, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if cat == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog unavailable"))
			return
		}
		categories, err := cat.Categories(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, categories)
	}
}
