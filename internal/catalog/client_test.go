package catalog

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/uchsash/medistore/internal/location"
	"github.com/uchsash/medistore/internal/query"
	"github.com/uchsash/medistore/internal/roles"
	pkgerrors "github.com/uchsash/medistore/pkg/errors"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	client, err := NewClient(srv.URL+"/", WithHTTPClient(srv.Client()))
	require.NoError(t, err)
	return client
}

func schemaState(t *testing.T, resource, rawQuery string) query.State {
	t.Helper()
	schema, ok := query.Lookup(resource)
	require.True(t, ok)
	st := schema.Defaults()
	if rawQuery != "" {
		st = schema.FromValues(location.Parse(rawQuery))
	}
	return st
}

func TestNewClientRequiresBaseURL(t *testing.T) {
	_, err := NewClient("  ")
	require.Error(t, err)
}

func TestListMedicinesSendsStateAndMapsPagination(t *testing.T) {
	var gotQuery, gotCookie, gotRequestID string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/medicines", r.URL.Path)
		gotQuery = r.URL.RawQuery
		gotCookie = r.Header.Get("Cookie")
		gotRequestID = r.Header.Get("X-Request-Id")
		_, _ = io.WriteString(w, `{"data":[{"id":"m1","name":"Aspirin","price":4.5,"stock":3,"createdAt":"2026-01-01"}],
			"pagination":{"total":13,"page":2,"limit":12,"totalPages":2}}`)
	})

	st := schemaState(t, query.ResourceMedicines, "search=asp&page=2&categoryId=c1&sortBy=price&sortOrder=asc")
	ctx := WithRequestID(WithCookie(context.Background(), "session=abc"), "req-7")
	res, err := client.ListMedicines(ctx, st)
	require.NoError(t, err)

	assert.Equal(t, "categoryId=c1&limit=12&page=2&search=asp&sortBy=price&sortOrder=asc", gotQuery)
	assert.Equal(t, "session=abc", gotCookie)
	assert.Equal(t, "req-7", gotRequestID)
	require.Len(t, res.Items, 1)
	assert.Equal(t, "Aspirin", res.Items[0].Name)
	assert.Equal(t, 13, res.Total)
	assert.Equal(t, 2, res.Page)
	assert.Equal(t, 2, res.TotalPages)
	assert.Equal(t, 12, res.PageSize)
}

func TestErrorMessagePickingAndCodes(t *testing.T) {
	cases := []struct {
		status int
		body   string
		code   pkgerrors.Code
		msg    string
	}{
		{http.StatusUnauthorized, `{"message":"Login required"}`, pkgerrors.CodeUnauthorized, "Login required"},
		{http.StatusForbidden, `{"error":"Sellers only"}`, pkgerrors.CodeForbidden, "Sellers only"},
		{http.StatusBadRequest, `{"details":"bad page"}`, pkgerrors.CodeValidation, "bad page"},
		{http.StatusNotFound, `{"message":"","error":"gone"}`, pkgerrors.CodeNotFound, "gone"},
		{http.StatusInternalServerError, `not json`, pkgerrors.CodeDependency, "Failed to load your medicines"},
	}
	for _, tc := range cases {
		client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(tc.status)
			_, _ = io.WriteString(w, tc.body)
		})
		_, err := client.ListMyMedicines(context.Background(), schemaState(t, query.ResourceMyMedicines, ""))
		require.Error(t, err)
		typed := pkgerrors.As(err)
		require.NotNil(t, typed, "status %d", tc.status)
		assert.Equal(t, tc.code, typed.Code(), "status %d", tc.status)
		assert.Equal(t, tc.msg, typed.Message(), "status %d", tc.status)
	}
}

func TestTransportFailureIsDependencyError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	client, err := NewClient(srv.URL)
	require.NoError(t, err)
	srv.Close()

	_, err = client.Categories(context.Background())
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeDependency))
}

func TestBareArrayListsArePagedLocally(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/users/admin/users", r.URL.Path)
		_, _ = io.WriteString(w, `[
			{"id":"1","name":"Ann","email":"ann@x.io","role":"ADMIN","status":"ACTIVE","createdAt":"2026-01-01"},
			{"id":"2","name":"bob","email":"bob@x.io","role":"SELLER","status":"ACTIVE","createdAt":"2026-01-03"},
			{"id":"3","name":"Cid","email":"cid@x.io","role":"SELLER","status":"BANNED","createdAt":"2026-01-02"},
			{"id":"4","name":"Dee","email":"dee@x.io","role":"CUSTOMER","status":"ACTIVE","createdAt":"2026-01-04"}
		]`)
	})

	res, err := client.ListAdminUsers(context.Background(), schemaState(t, query.ResourceAdminUsers, "role=seller"))
	require.NoError(t, err)
	require.Len(t, res.Items, 2)
	assert.Equal(t, "2", res.Items[0].ID)
	assert.Equal(t, "3", res.Items[1].ID)
	assert.Equal(t, 2, res.Total)
	assert.Equal(t, 1, res.TotalPages)
	assert.Equal(t, 10, res.PageSize)

	res, err = client.ListAdminUsers(context.Background(), schemaState(t, query.ResourceAdminUsers, "sortBy=name&sortOrder=asc&search=X.IO"))
	require.NoError(t, err)
	require.Len(t, res.Items, 4)
	assert.Equal(t, []string{"Ann", "bob", "Cid", "Dee"}, []string{res.Items[0].Name, res.Items[1].Name, res.Items[2].Name, res.Items[3].Name})

	res, err = client.ListAdminUsers(context.Background(), schemaState(t, query.ResourceAdminUsers, "search=banned"))
	require.NoError(t, err)
	require.Len(t, res.Items, 1)
	assert.Equal(t, "Cid", res.Items[0].Name)
}

func TestWrappedListsAndPagesPastTheEnd(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/orders/manage", r.URL.Path)
		_, _ = io.WriteString(w, `{"success":true,"data":[
			{"id":"o1","totalAmount":10,"status":"PENDING","createdAt":"2026-01-01","items":[]},
			{"id":"o2","totalAmount":30,"status":"SHIPPED","createdAt":"2026-01-02","items":[]}
		]}`)
	})

	res, err := client.ListSellerOrders(context.Background(), schemaState(t, query.ResourceSellerOrders, "sortBy=totalAmount"))
	require.NoError(t, err)
	require.Len(t, res.Items, 2)
	assert.Equal(t, "o2", res.Items[0].ID)

	res, err = client.ListSellerOrders(context.Background(), schemaState(t, query.ResourceSellerOrders, "page=5"))
	require.NoError(t, err)
	assert.Empty(t, res.Items)
	assert.Equal(t, 5, res.Page)
	assert.Equal(t, 1, res.TotalPages)
}

func TestMyOrdersFilterAndSortLocally(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/orders/my-orders", r.URL.Path)
		_, _ = io.WriteString(w, `[
			{"id":"o1","totalAmount":12,"status":"PENDING","createdAt":"2026-01-01","items":[]},
			{"id":"o2","totalAmount":40,"status":"DELIVERED","createdAt":"2026-01-03","items":[]},
			{"id":"o3","totalAmount":25,"status":"PENDING","createdAt":"2026-01-02","items":[]}
		]`)
	})

	res, err := client.ListMyOrders(context.Background(), schemaState(t, query.ResourceCustomerOrders, "status=pending&sortBy=totalAmount&sortOrder=asc"))
	require.NoError(t, err)
	require.Len(t, res.Items, 2)
	assert.Equal(t, "o1", res.Items[0].ID)
	assert.Equal(t, "o3", res.Items[1].ID)
	assert.Equal(t, 2, res.Total)

	res, err = client.ListMyOrders(context.Background(), schemaState(t, query.ResourceCustomerOrders, ""))
	require.NoError(t, err)
	require.Len(t, res.Items, 3)
	assert.Equal(t, "o2", res.Items[0].ID)
}

func TestInvalidListShapeIsDependencyError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `{"data":{"not":"a list"}}`)
	})
	_, err := client.ListAdminOrders(context.Background(), schemaState(t, query.ResourceAdminOrders, ""))
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeDependency))
}

func TestReviewsFilterByRating(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/reviews", r.URL.Path)
		_, _ = io.WriteString(w, `[{"id":"r1","rating":5,"status":"PUBLISHED","createdAt":"a"},{"id":"r2","rating":2,"status":"PUBLISHED","createdAt":"b"}]`)
	})
	res, err := client.ListAdminReviews(context.Background(), schemaState(t, query.ResourceAdminReviews, "rating=2"))
	require.NoError(t, err)
	require.Len(t, res.Items, 1)
	assert.Equal(t, "r2", res.Items[0].ID)
}

func TestGetAndDeleteMedicine(t *testing.T) {
	var deleted string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			if r.URL.Path == "/api/medicines/missing" {
				_, _ = io.WriteString(w, `{}`)
				return
			}
			_, _ = io.WriteString(w, `{"data":{"id":"m1","name":"Zinc","categoryId":"c","reviews":[{"id":"r","rating":4,"createdAt":"x","user":{"name":"Ann"}}]}}`)
		case http.MethodDelete:
			deleted = r.URL.Path
			_, _ = io.WriteString(w, `{"success":true}`)
		}
	})

	details, err := client.GetMedicine(context.Background(), "m1")
	require.NoError(t, err)
	assert.Equal(t, "Zinc", details.Name)
	require.Len(t, details.Reviews, 1)
	assert.Equal(t, "Ann", details.Reviews[0].User.Name)

	_, err = client.GetMedicine(context.Background(), "missing")
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeDependency))

	_, err = client.GetMedicine(context.Background(), " ")
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	require.NoError(t, client.DeleteMedicine(context.Background(), "m1"))
	assert.Equal(t, "/api/medicines/m1", deleted)
}

func TestCategories(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `{"success":true,"data":[{"id":"c1","name":"Pain relief","_count":{"medicines":4}}]}`)
	})
	cats, err := client.Categories(context.Background())
	require.NoError(t, err)
	require.Len(t, cats, 1)
	assert.Equal(t, 4, cats[0].Count.Medicines)
}

func TestSessionRoleSources(t *testing.T) {
	cases := []struct {
		body string
		want roles.Role
	}{
		{`{"user":{"id":"u1","role":"SELLER"}}`, roles.Seller},
		{`{"user":{"id":"u1"},"role":"admin"}`, roles.Admin},
		{`{"data":{"user":{"id":"u1","role":"ADMIN"}}}`, roles.Admin},
		{`{"user":{"id":"u1","role":"ROOT"}}`, roles.Customer},
	}
	for _, tc := range cases {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/api/auth/get-session", r.URL.Path)
			_, _ = io.WriteString(w, tc.body)
		})
		sess, err := client.Session(context.Background())
		require.NoError(t, err)
		assert.Equal(t, tc.want, sess.User.Role, tc.body)
		assert.Equal(t, "u1", sess.User.ID)
	}
}

func TestSessionMissing(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `null`)
	})
	_, err := client.Session(context.Background())
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized))
}

func TestListerCoversEveryBuiltinResource(t *testing.T) {
	client, err := NewClient("http://upstream.invalid")
	require.NoError(t, err)
	for _, name := range query.Resources() {
		_, ok := client.Lister(name)
		assert.True(t, ok, name)
	}
	_, ok := client.Lister("categories")
	assert.False(t, ok)
}

func TestListerErasesItemType(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `[{"id":"o1","status":"PENDING","createdAt":"a","items":[]}]`)
	})
	fetch, ok := client.Lister(query.ResourceAdminOrders)
	require.True(t, ok)
	res, err := fetch(context.Background(), schemaState(t, query.ResourceAdminOrders, ""))
	require.NoError(t, err)
	require.Len(t, res.Items, 1)
	order, ok := res.Items[0].(Order)
	require.True(t, ok)
	assert.Equal(t, "o1", order.ID)
}
