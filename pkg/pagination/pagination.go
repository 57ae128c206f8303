package pagination

import "github.com/uchsash/medistore/pkg/types"

const (
	// DefaultLimit is the standard page size when a limit is not provided.
	DefaultLimit = 10
	// MaxLimit caps how many rows any page can request.
	MaxLimit = 100
)

// Params holds page-number pagination inputs.
type Params struct {
	Page  int
	Limit int
}

// Normalize returns the params with page and limit clamped to usable values.
func (p Params) Normalize() Params {
	return Params{Page: NormalizePage(p.Page), Limit: NormalizeLimit(p.Limit)}
}

// Offset is the zero-based index of the first row on the page.
func (p Params) Offset() int {
	n := p.Normalize()
	return (n.Page - 1) * n.Limit
}

// NormalizePage floors the page at 1.
func NormalizePage(page int) int {
	if page < 1 {
		return 1
	}
	return page
}

// NormalizeLimit enforces the configured default and maximum limits.
func NormalizeLimit(limit int) int {
	if limit <= 0 {
		return DefaultLimit
	}
	if limit > MaxLimit {
		return MaxLimit
	}
	return limit
}

// TotalPages reports how many pages total rows span; an empty set still has one page.
func TotalPages(total, limit int) int {
	limit = NormalizeLimit(limit)
	if total <= 0 {
		return 1
	}
	return (total + limit - 1) / limit
}

// Meta builds the pagination block for a result set.
func Meta(total int, p Params) types.PageMeta {
	n := p.Normalize()
	return types.PageMeta{
		Total:      total,
		Page:       n.Page,
		Limit:      n.Limit,
		TotalPages: TotalPages(total, n.Limit),
	}
}

// Slice pages through an in-memory result set. Pages past the end yield no rows
// but keep the requested page number so callers can step back.
func Slice[T any](items []T, p Params) ([]T, types.PageMeta) {
	meta := Meta(len(items), p)
	start := p.Offset()
	if start >= len(items) {
		return []T{}, meta
	}
	end := start + meta.Limit
	if end > len(items) {
		end = len(items)
	}
	out := make([]T, end-start)
	copy(out, items[start:end])
	return out, meta
}
