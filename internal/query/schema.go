package query

import (
	"fmt"
	"slices"
)

// Resource names of the built-in list views.
const (
	ResourceMedicines      = "medicines"
	ResourceMyMedicines    = "my-medicines"
	ResourceAdminUsers     = "admin-users"
	ResourceAdminOrders    = "admin-orders"
	ResourceAdminReviews   = "admin-reviews"
	ResourceSellerOrders   = "seller-orders"
	ResourceCustomerOrders = "customer-orders"
)

// Schema describes what a list view accepts and what it falls back to.
type Schema struct {
	Resource        string
	SortFields      []string
	DefaultSort     string
	DefaultOrder    SortOrder
	PageSizes       []int
	DefaultPageSize int
	Filters         []string
}

// Defaults is the state of an untouched list.
func (s Schema) Defaults() State {
	return State{
		Filters:   map[string]string{},
		SortField: s.DefaultSort,
		SortOrder: s.DefaultOrder,
		Page:      1,
		PageSize:  s.DefaultPageSize,
	}
}

// Validate checks that the defaults are themselves allowed.
func (s Schema) Validate() error {
	if !s.allowsSort(s.DefaultSort) {
		return fmt.Errorf("%s: default sort %q not in %v", s.Resource, s.DefaultSort, s.SortFields)
	}
	if !s.DefaultOrder.Valid() {
		return fmt.Errorf("%s: invalid default order %q", s.Resource, s.DefaultOrder)
	}
	if !s.allowsPageSize(s.DefaultPageSize) {
		return fmt.Errorf("%s: default page size %d not in %v", s.Resource, s.DefaultPageSize, s.PageSizes)
	}
	return nil
}

// HasFilter reports whether key is a declared filter.
func (s Schema) HasFilter(key string) bool {
	return slices.Contains(s.Filters, key)
}

func (s Schema) allowsSort(field string) bool {
	return field != "" && slices.Contains(s.SortFields, field)
}

func (s Schema) allowsPageSize(size int) bool {
	return size > 0 && slices.Contains(s.PageSizes, size)
}

var (
	medicineSorts = []string{"createdAt", "name", "price", "manufacturer", "stock"}
	orderSorts    = []string{"createdAt", "totalAmount", "status"}
	adminSizes    = []int{10, 20, 50}
)

var builtins = map[string]Schema{
	ResourceMedicines: {
		Resource:        ResourceMedicines,
		SortFields:      medicineSorts,
		DefaultSort:     "createdAt",
		DefaultOrder:    SortDesc,
		PageSizes:       []int{6, 12, 18, 24},
		DefaultPageSize: 12,
		Filters:         []string{"categoryId"},
	},
	ResourceMyMedicines: {
		Resource:        ResourceMyMedicines,
		SortFields:      medicineSorts,
		DefaultSort:     "createdAt",
		DefaultOrder:    SortDesc,
		PageSizes:       []int{5, 10, 20, 50},
		DefaultPageSize: 10,
		Filters:         []string{"categoryId"},
	},
	ResourceAdminUsers: {
		Resource:        ResourceAdminUsers,
		SortFields:      []string{"createdAt", "name", "email"},
		DefaultSort:     "createdAt",
		DefaultOrder:    SortDesc,
		PageSizes:       adminSizes,
		DefaultPageSize: 10,
		Filters:         []string{"role", "status"},
	},
	ResourceAdminOrders: {
		Resource:        ResourceAdminOrders,
		SortFields:      orderSorts,
		DefaultSort:     "createdAt",
		DefaultOrder:    SortDesc,
		PageSizes:       adminSizes,
		DefaultPageSize: 10,
		Filters:         []string{"status"},
	},
	ResourceAdminReviews: {
		Resource:        ResourceAdminReviews,
		SortFields:      []string{"createdAt", "rating"},
		DefaultSort:     "createdAt",
		DefaultOrder:    SortDesc,
		PageSizes:       adminSizes,
		DefaultPageSize: 10,
		Filters:         []string{"rating"},
	},
	ResourceSellerOrders: {
		Resource:        ResourceSellerOrders,
		SortFields:      orderSorts,
		DefaultSort:     "createdAt",
		DefaultOrder:    SortDesc,
		PageSizes:       adminSizes,
		DefaultPageSize: 10,
		Filters:         []string{"status"},
	},
	ResourceCustomerOrders: {
		Resource:        ResourceCustomerOrders,
		SortFields:      []string{"createdAt", "totalAmount"},
		DefaultSort:     "createdAt",
		DefaultOrder:    SortDesc,
		PageSizes:       adminSizes,
		DefaultPageSize: 10,
		Filters:         []string{"status"},
	},
}

// Lookup returns the built-in schema for a resource.
func Lookup(resource string) (Schema, bool) {
	s, ok := builtins[resource]
	return s, ok
}

// Resources lists the built-in resource names in a stable order.
func Resources() []string {
	out := make([]string, 0, len(builtins))
	for name := range builtins {
		out = append(out, name)
	}
	slices.Sort(out)
	return out
}
