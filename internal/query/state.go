// Package query derives list state (search, filters, sort, pagination) from an
// addressable representation and drives fetches whenever that representation
// changes.
package query

import (
	"strconv"
	"strings"

	"github.com/uchsash/medistore/internal/location"
)

// Addressable keys.
const (
	KeySearch    = "search"
	KeySortBy    = "sortBy"
	KeySortOrder = "sortOrder"
	KeyPage      = "page"
	KeyLimit     = "limit"
)

type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// Valid reports whether o is asc or desc.
func (o SortOrder) Valid() bool {
	return o == SortAsc || o == SortDesc
}

// State is the full set of parameters governing one list view.
type State struct {
	SearchText string            `json:"searchText"`
	Filters    map[string]string `json:"filters"`
	SortField  string            `json:"sortField"`
	SortOrder  SortOrder         `json:"sortOrder"`
	Page       int               `json:"page"`
	PageSize   int               `json:"pageSize"`
}

// Clone returns a copy that shares no map with s.
func (s State) Clone() State {
	out := s
	out.Filters = make(map[string]string, len(s.Filters))
	for k, v := range s.Filters {
		out.Filters[k] = v
	}
	return out
}

// Filter returns the value of a filter or "".
func (s State) Filter(key string) string {
	return s.Filters[key]
}

// PageResult is one fetched page plus metadata about the whole result set.
type PageResult[T any] struct {
	Items      []T `json:"items"`
	Page       int `json:"page"`
	TotalPages int `json:"totalPages"`
	Total      int `json:"total"`
	PageSize   int `json:"pageSize"`
}

// FromValues derives a State from addressable values. Anything outside what
// the schema allows falls back to the schema default.
func (s Schema) FromValues(v location.Values) State {
	st := s.Defaults()
	st.SearchText = strings.TrimSpace(v[KeySearch])

	if field := v[KeySortBy]; s.allowsSort(field) {
		st.SortField = field
	}
	if order := SortOrder(strings.ToLower(v[KeySortOrder])); order.Valid() {
		st.SortOrder = order
	}
	if page, err := strconv.Atoi(v[KeyPage]); err == nil && page >= 1 {
		st.Page = page
	}
	if size, err := strconv.Atoi(v[KeyLimit]); err == nil && s.allowsPageSize(size) {
		st.PageSize = size
	}
	for _, key := range s.Filters {
		if val := strings.TrimSpace(v[key]); val != "" {
			st.Filters[key] = val
		}
	}
	return st
}

// Values is the canonical encoding of st. Defaults and disallowed values are
// left out so an untouched list has an empty query string.
func (s Schema) Values(st State) location.Values {
	out := location.Values{}
	if text := strings.TrimSpace(st.SearchText); text != "" {
		out[KeySearch] = text
	}
	if s.allowsSort(st.SortField) && st.SortField != s.DefaultSort {
		out[KeySortBy] = st.SortField
	}
	if st.SortOrder.Valid() && st.SortOrder != s.DefaultOrder {
		out[KeySortOrder] = string(st.SortOrder)
	}
	if st.Page > 1 {
		out[KeyPage] = strconv.Itoa(st.Page)
	}
	if s.allowsPageSize(st.PageSize) && st.PageSize != s.DefaultPageSize {
		out[KeyLimit] = strconv.Itoa(st.PageSize)
	}
	for _, key := range s.Filters {
		if val := st.Filters[key]; val != "" {
			out[key] = val
		}
	}
	return out
}

// Normalize runs st through its canonical encoding.
func (s Schema) Normalize(st State) State {
	return s.FromValues(s.Values(st))
}
