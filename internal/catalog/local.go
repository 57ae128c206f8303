package catalog

import (
	"cmp"
	"slices"
	"strconv"
	"strings"

	"github.com/uchsash/medistore/internal/query"
	"github.com/uchsash/medistore/pkg/pagination"
)

// localRules describe how an endpoint without server-side paging is searched,
// filtered and sorted in process.
type localRules[T any] struct {
	text    func(T) []string
	filters map[string]func(T) string
	sorts   map[string]func(a, b T) int
}

// pageLocally applies st to the full list so every resource yields the same PageResult.
func pageLocally[T any](items []T, st query.State, rules localRules[T]) query.PageResult[T] {
	needle := strings.ToLower(strings.TrimSpace(st.SearchText))
	kept := make([]T, 0, len(items))
	for _, item := range items {
		if needle != "" && !matchesText(rules.text(item), needle) {
			continue
		}
		if !matchesFilters(item, st.Filters, rules.filters) {
			continue
		}
		kept = append(kept, item)
	}

	if less, ok := rules.sorts[st.SortField]; ok {
		slices.SortStableFunc(kept, func(a, b T) int {
			if st.SortOrder == query.SortDesc {
				return less(b, a)
			}
			return less(a, b)
		})
	}

	page, meta := pagination.Slice(kept, pagination.Params{Page: st.Page, Limit: st.PageSize})
	return query.PageResult[T]{
		Items:      page,
		Page:       meta.Page,
		TotalPages: meta.TotalPages,
		Total:      meta.Total,
		PageSize:   meta.Limit,
	}
}

func matchesText(fields []string, needle string) bool {
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), needle) {
			return true
		}
	}
	return false
}

func matchesFilters[T any](item T, filters map[string]string, getters map[string]func(T) string) bool {
	for key, want := range filters {
		get, ok := getters[key]
		if !ok || want == "" {
			continue
		}
		if !strings.EqualFold(get(item), want) {
			return false
		}
	}
	return true
}

var adminUserRules = localRules[AdminUser]{
	text: func(u AdminUser) []string { return []string{u.Name, u.Email, u.Role, u.Status} },
	filters: map[string]func(AdminUser) string{
		"role":   func(u AdminUser) string { return u.Role },
		"status": func(u AdminUser) string { return u.Status },
	},
	sorts: map[string]func(a, b AdminUser) int{
		"createdAt": func(a, b AdminUser) int { return cmp.Compare(a.CreatedAt, b.CreatedAt) },
		"name":      func(a, b AdminUser) int { return cmp.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name)) },
		"email":     func(a, b AdminUser) int { return cmp.Compare(strings.ToLower(a.Email), strings.ToLower(b.Email)) },
	},
}

var orderRules = localRules[Order]{
	text: func(o Order) []string {
		fields := []string{o.ID, o.Status, o.ShippingAddress}
		if o.Customer != nil {
			fields = append(fields, o.Customer.Name, o.Customer.Email)
		}
		return fields
	},
	filters: map[string]func(Order) string{
		"status": func(o Order) string { return o.Status },
	},
	sorts: map[string]func(a, b Order) int{
		"createdAt":   func(a, b Order) int { return cmp.Compare(a.CreatedAt, b.CreatedAt) },
		"totalAmount": func(a, b Order) int { return cmp.Compare(a.TotalAmount, b.TotalAmount) },
		"status":      func(a, b Order) int { return cmp.Compare(a.Status, b.Status) },
	},
}

var reviewRules = localRules[AdminReview]{
	text: func(r AdminReview) []string {
		fields := []string{r.Status}
		if r.Comment != nil {
			fields = append(fields, *r.Comment)
		}
		if r.User != nil {
			fields = append(fields, r.User.Name, r.User.Email)
		}
		if r.Medicine != nil {
			fields = append(fields, r.Medicine.Name)
		}
		return fields
	},
	filters: map[string]func(AdminReview) string{
		"rating": func(r AdminReview) string { return strconv.Itoa(r.Rating) },
	},
	sorts: map[string]func(a, b AdminReview) int{
		"createdAt": func(a, b AdminReview) int { return cmp.Compare(a.CreatedAt, b.CreatedAt) },
		"rating":    func(a, b AdminReview) int { return cmp.Compare(a.Rating, b.Rating) },
	},
}
