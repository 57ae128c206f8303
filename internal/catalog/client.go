// Package catalog talks to the upstream storefront API: medicines, categories,
// orders, users, reviews and the caller's session.
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/uchsash/medistore/internal/query"
	pkgerrors "github.com/uchsash/medistore/pkg/errors"
	"github.com/uchsash/medistore/pkg/types"
)

const (
	defaultTimeout          = 10 * time.Second
	responseReadLimit int64 = 4 << 20
)

var errBaseURLRequired = errors.New("backend base url is required")

// Client wraps the upstream REST API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	sessionURL string
}

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithTimeout sets the timeout of the default HTTP client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient = &http.Client{Timeout: d}
		}
	}
}

// WithSessionURL overrides where sessions are resolved; it defaults to
// <base>/api/auth/get-session.
func WithSessionURL(raw string) Option {
	return func(c *Client) {
		if trimmed := strings.TrimSpace(raw); trimmed != "" {
			c.sessionURL = trimmed
		}
	}
}

func NewClient(baseURL string, opts ...Option) (*Client, error) {
	trimmed := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if trimmed == "" {
		return nil, errBaseURLRequired
	}
	if _, err := url.Parse(trimmed); err != nil {
		return nil, fmt.Errorf("parse backend url: %w", err)
	}

	client := &Client{
		baseURL:    trimmed,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}
	if client.sessionURL == "" {
		client.sessionURL = client.baseURL + "/api/auth/get-session"
	}
	return client, nil
}

type cookieKey struct{}

// WithCookie attaches the caller's Cookie header so upstream calls run with
// the caller's credentials.
func WithCookie(ctx context.Context, cookie string) context.Context {
	if cookie == "" {
		return ctx
	}
	return context.WithValue(ctx, cookieKey{}, cookie)
}

func cookieFrom(ctx context.Context) string {
	v, _ := ctx.Value(cookieKey{}).(string)
	return v
}

type requestIDKey struct{}

// WithRequestID tags upstream calls with the gateway's request id.
func WithRequestID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIDKey{}, id)
}

func requestIDFrom(ctx context.Context) string {
	v, _ := ctx.Value(requestIDKey{}).(string)
	return v
}

type paginated[T any] struct {
	Data       []T            `json:"data"`
	Pagination types.PageMeta `json:"pagination"`
}

// ListMedicines is the public browse listing, paginated upstream.
func (c *Client) ListMedicines(ctx context.Context, st query.State) (query.PageResult[Medicine], error) {
	return listPaginated[Medicine](ctx, c, "/api/medicines", st, "Failed to load medicines")
}

// ListMyMedicines is the signed-in seller's own inventory.
func (c *Client) ListMyMedicines(ctx context.Context, st query.State) (query.PageResult[Medicine], error) {
	return listPaginated[Medicine](ctx, c, "/api/medicines/my-medicine", st, "Failed to load your medicines")
}

func (c *Client) GetMedicine(ctx context.Context, id string) (*MedicineDetails, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "medicine id is required")
	}
	var wrapped struct {
		Data *MedicineDetails `json:"data"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/medicines/"+url.PathEscape(id), nil, "Failed to load medicine", &wrapped); err != nil {
		return nil, err
	}
	if wrapped.Data == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "Invalid response from server")
	}
	return wrapped.Data, nil
}

func (c *Client) DeleteMedicine(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "medicine id is required")
	}
	return c.do(ctx, http.MethodDelete, "/api/medicines/"+url.PathEscape(id), nil, "Failed to delete medicine", nil)
}

func (c *Client) Categories(ctx context.Context) ([]Category, error) {
	raw, err := c.raw(ctx, http.MethodGet, "/api/categories", nil, "Failed to load categories")
	if err != nil {
		return nil, err
	}
	return decodeList[Category](raw)
}

func (c *Client) ListAdminUsers(ctx context.Context, st query.State) (query.PageResult[AdminUser], error) {
	users, err := fetchList[AdminUser](ctx, c, "/api/users/admin/users", "Failed to load users")
	if err != nil {
		return query.PageResult[AdminUser]{}, err
	}
	return pageLocally(users, st, adminUserRules), nil
}

func (c *Client) ListAdminOrders(ctx context.Context, st query.State) (query.PageResult[Order], error) {
	orders, err := fetchList[Order](ctx, c, "/api/orders/admin/orders", "Failed to load orders")
	if err != nil {
		return query.PageResult[Order]{}, err
	}
	return pageLocally(orders, st, orderRules), nil
}

func (c *Client) ListAdminReviews(ctx context.Context, st query.State) (query.PageResult[AdminReview], error) {
	reviews, err := fetchList[AdminReview](ctx, c, "/api/reviews", "Failed to load reviews")
	if err != nil {
		return query.PageResult[AdminReview]{}, err
	}
	return pageLocally(reviews, st, reviewRules), nil
}

func (c *Client) ListSellerOrders(ctx context.Context, st query.State) (query.PageResult[Order], error) {
	orders, err := fetchList[Order](ctx, c, "/api/orders/manage", "Failed to load seller orders")
	if err != nil {
		return query.PageResult[Order]{}, err
	}
	return pageLocally(orders, st, orderRules), nil
}

// ListMyOrders is the signed-in customer's order history.
func (c *Client) ListMyOrders(ctx context.Context, st query.State) (query.PageResult[Order], error) {
	orders, err := fetchList[Order](ctx, c, "/api/orders/my-orders", "Failed to load your orders")
	if err != nil {
		return query.PageResult[Order]{}, err
	}
	return pageLocally(orders, st, orderRules), nil
}

// Lister returns a type-erased fetcher for a built-in resource.
func (c *Client) Lister(resource string) (query.Fetcher[any], bool) {
	switch resource {
	case query.ResourceMedicines:
		return erase[Medicine](c.ListMedicines), true
	case query.ResourceMyMedicines:
		return erase[Medicine](c.ListMyMedicines), true
	case query.ResourceAdminUsers:
		return erase[AdminUser](c.ListAdminUsers), true
	case query.ResourceAdminOrders:
		return erase[Order](c.ListAdminOrders), true
	case query.ResourceAdminReviews:
		return erase[AdminReview](c.ListAdminReviews), true
	case query.ResourceSellerOrders:
		return erase[Order](c.ListSellerOrders), true
	case query.ResourceCustomerOrders:
		return erase[Order](c.ListMyOrders), true
	default:
		return nil, false
	}
}

func erase[T any](fetch query.Fetcher[T]) query.Fetcher[any] {
	return func(ctx context.Context, st query.State) (query.PageResult[any], error) {
		res, err := fetch(ctx, st)
		if err != nil {
			return query.PageResult[any]{}, err
		}
		items := make([]any, len(res.Items))
		for i, item := range res.Items {
			items[i] = item
		}
		return query.PageResult[any]{
			Items:      items,
			Page:       res.Page,
			TotalPages: res.TotalPages,
			Total:      res.Total,
			PageSize:   res.PageSize,
		}, nil
	}
}

func listPaginated[T any](ctx context.Context, c *Client, path string, st query.State, fallback string) (query.PageResult[T], error) {
	var body paginated[T]
	if err := c.do(ctx, http.MethodGet, path+"?"+encodeState(st), nil, fallback, &body); err != nil {
		return query.PageResult[T]{}, err
	}
	items := body.Data
	if items == nil {
		items = []T{}
	}
	return query.PageResult[T]{
		Items:      items,
		Page:       body.Pagination.Page,
		TotalPages: body.Pagination.TotalPages,
		Total:      body.Pagination.Total,
		PageSize:   body.Pagination.Limit,
	}, nil
}

func fetchList[T any](ctx context.Context, c *Client, path, fallback string) ([]T, error) {
	raw, err := c.raw(ctx, http.MethodGet, path, nil, fallback)
	if err != nil {
		return nil, err
	}
	return decodeList[T](raw)
}

// decodeList accepts a bare array or an object whose data field is an array.
func decodeList[T any](raw []byte) ([]T, error) {
	var items []T
	if err := json.Unmarshal(raw, &items); err == nil && items != nil {
		return items, nil
	}
	var wrapped struct {
		Data []T `json:"data"`
	}
	if err := json.Unmarshal(raw, &wrapped); err != nil || wrapped.Data == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "Invalid response format")
	}
	return wrapped.Data, nil
}

func encodeState(st query.State) string {
	q := url.Values{}
	if st.SearchText != "" {
		q.Set(query.KeySearch, st.SearchText)
	}
	q.Set(query.KeyPage, strconv.Itoa(st.Page))
	q.Set(query.KeyLimit, strconv.Itoa(st.PageSize))
	if st.SortField != "" {
		q.Set(query.KeySortBy, st.SortField)
	}
	if st.SortOrder != "" {
		q.Set(query.KeySortOrder, string(st.SortOrder))
	}
	for k, v := range st.Filters {
		if v != "" {
			q.Set(k, v)
		}
	}
	return q.Encode()
}

func (c *Client) do(ctx context.Context, method, path string, body io.Reader, fallback string, out any) error {
	raw, err := c.raw(ctx, method, path, body, fallback)
	if err != nil || out == nil {
		return err
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode "+path+" response")
	}
	return nil
}

func (c *Client) raw(ctx context.Context, method, path string, body io.Reader, fallback string) ([]byte, error) {
	return c.send(ctx, method, c.baseURL+path, body, fallback)
}

func (c *Client) send(ctx context.Context, method, target string, body io.Reader, fallback string) ([]byte, error) {
	if c == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "catalog client not configured")
	}
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build upstream request")
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if cookie := cookieFrom(ctx); cookie != "" {
		req.Header.Set("Cookie", cookie)
	}
	if id := requestIDFrom(ctx); id != "" {
		req.Header.Set("X-Request-Id", id)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, fallback)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, responseReadLimit))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read upstream response")
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, pkgerrors.New(pkgerrors.CodeForStatus(resp.StatusCode), pickMessage(raw, fallback)).
			WithDetails(map[string]any{"status": resp.StatusCode})
	}
	return raw, nil
}

// pickMessage takes message, error or details from an error body, in that order.
func pickMessage(raw []byte, fallback string) string {
	var body struct {
		Message any `json:"message"`
		Error   any `json:"error"`
		Details any `json:"details"`
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		return fallback
	}
	for _, candidate := range []any{body.Message, body.Error, body.Details} {
		if s, ok := candidate.(string); ok && strings.TrimSpace(s) != "" {
			return s
		}
	}
	return fallback
}
