package lists

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/uchsash/medistore/api/middleware"
	"github.com/uchsash/medistore/api/responses"
	"github.com/uchsash/medistore/internal/catalog"
	"github.com/uchsash/medistore/internal/location"
	"github.com/uchsash/medistore/internal/query"
	"github.com/uchsash/medistore/internal/roles"
	pkgerrors "github.com/uchsash/medistore/pkg/errors"
	"github.com/uchsash/medistore/pkg/logger"
)

// rowsParam tells the delete endpoint how many rows the caller's page held.
const rowsParam = "rows"

// Catalog is the upstream surface the list endpoints need.
type Catalog interface {
	Lister(resource string) (query.Fetcher[any], bool)
	DeleteMedicine(ctx context.Context, id string) error
}

type listResponse struct {
	Resource string                 `json:"resource"`
	State    query.State            `json:"state"`
	Result   *query.PageResult[any] `json:"result"`
	Query    string                 `json:"query"`
}

type resourcesResponse struct {
	Role      roles.Role `json:"role"`
	Resources []string   `json:"resources"`
}

// ListResources reports which list resources the caller's role may browse.
func ListResources() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		role := middleware.RoleFromContext(r.Context())
		out := []string{}
		for _, resource := range query.Resources() {
			if roles.CanBrowse(role, resource) {
				out = append(out, resource)
			}
		}
		responses.WriteSuccess(w, resourcesResponse{Role: role, Resources: out})
	}
}

// ListFetch serves one page of a resource. The request query is the
// addressable state; the response carries the normalized state and its
// canonical query so clients can replace their own URL with it.
func ListFetch(cat Catalog, logg *logger.Logger, opts ...query.Option) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		schema, fetch, ctx, err := resolve(cat, r, logg)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		hist := location.NewHistory(r.URL.Path, r.URL.RawQuery)
		snap := query.FetchOnce(ctx, schema, hist, fetch, withLogger(logg, opts)...)
		writeSnapshot(ctx, w, logg, schema, snap)
	}
}

// MyMedicineDelete removes a seller's medicine and returns the page the
// seller should land on: deleting the last row of a later page steps back.
func MyMedicineDelete(cat Catalog, logg *logger.Logger, opts ...query.Option) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		schema, fetch, ctx, err := resolveFor(cat, r, query.ResourceMyMedicines, logg)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		q := r.URL.Query()
		rows := 0
		if raw := q.Get(rowsParam); raw != "" {
			n, convErr := strconv.Atoi(raw)
			if convErr != nil || n < 0 {
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "rows must be a non-negative integer").
					WithDetails(map[string]any{"field": rowsParam}))
				return
			}
			rows = n
		}
		q.Del(rowsParam)

		if err := cat.DeleteMedicine(ctx, chi.URLParam(r, "medicineId")); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		hist := location.NewHistory(r.URL.Path, q.Encode())
		snap := query.FetchAfter(ctx, schema, hist, fetch, func(c *query.Controller[any]) {
			c.AfterDelete(rows)
		}, withLogger(logg, opts)...)
		writeSnapshot(ctx, w, logg, schema, snap)
	}
}

func resolve(cat Catalog, r *http.Request, logg *logger.Logger) (query.Schema, query.Fetcher[any], context.Context, error) {
	return resolveFor(cat, r, chi.URLParam(r, "resource"), logg)
}

func resolveFor(cat Catalog, r *http.Request, resource string, logg *logger.Logger) (query.Schema, query.Fetcher[any], context.Context, error) {
	ctx := r.Context()
	if logg != nil {
		ctx = logg.WithResource(ctx, resource)
	}

	schema, ok := query.Lookup(resource)
	if !ok {
		return query.Schema{}, nil, ctx, pkgerrors.New(pkgerrors.CodeNotFound, "unknown list resource").
			WithDetails(map[string]any{"resource": resource})
	}
	if !roles.CanBrowse(middleware.RoleFromContext(ctx), resource) {
		return query.Schema{}, nil, ctx, pkgerrors.New(pkgerrors.CodeForbidden, "role may not browse "+resource)
	}
	if cat == nil {
		return query.Schema{}, nil, ctx, pkgerrors.New(pkgerrors.CodeInternal, "catalog unavailable")
	}
	fetch, ok := cat.Lister(resource)
	if !ok {
		return query.Schema{}, nil, ctx, pkgerrors.New(pkgerrors.CodeNotFound, "unknown list resource")
	}
	return schema, fetch, ctx, nil
}

func withLogger(logg *logger.Logger, opts []query.Option) []query.Option {
	out := make([]query.Option, 0, len(opts)+1)
	out = append(out, query.WithLogger(logg))
	return append(out, opts...)
}

func writeSnapshot(ctx context.Context, w http.ResponseWriter, logg *logger.Logger, schema query.Schema, snap query.Snapshot[any]) {
	if snap.Err != nil {
		if errors.Is(snap.Err, context.Canceled) {
			return
		}
		err := snap.Err
		if pkgerrors.As(err) == nil {
			err = pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list fetch failed")
		}
		responses.WriteError(ctx, logg, w, err)
		return
	}
	responses.WriteSuccess(w, listResponse{
		Resource: schema.Resource,
		State:    snap.State,
		Result:   snap.Result,
		Query:    schema.Values(snap.State).Encode(),
	})
}

var _ Catalog = (*catalog.Client)(nil)
