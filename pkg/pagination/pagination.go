package pagination

import "gorm.io/gorm"

const (
	DefaultPageSize = 10
	MaxPageSize     = 50
)

// Params is the page request bound from query strings.
type Params struct {
	PageNumber int `form:"pageNumber"`
	PageSize   int `form:"pageSize"`
}

// Meta is sent to clients in the Pagination header.
type Meta struct {
	CurrentPage  int   `json:"currentPage"`
	ItemsPerPage int   `json:"itemsPerPage"`
	TotalItems   int64 `json:"totalItems"`
	TotalPages   int   `json:"totalPages"`
}

// Page is one window of an ordered result set.
type Page[T any] struct {
	Items []T
	Meta  Meta
}

// Normalize defaults missing values and clamps the page size to MaxPageSize.
// Out of range input never fails.
func (p Params) Normalize() Params {
	if p.PageNumber < 1 {
		p.PageNumber = 1
	}
	if p.PageSize < 1 {
		p.PageSize = DefaultPageSize
	}
	if p.PageSize > MaxPageSize {
		p.PageSize = MaxPageSize
	}
	return p
}

func (p Params) Offset() int {
	p = p.Normalize()
	return (p.PageNumber - 1) * p.PageSize
}

// NewMeta builds page metadata; totalPages is the ceiling of total / pageSize.
func NewMeta(p Params, totalItems int64) Meta {
	p = p.Normalize()
	size := int64(p.PageSize)
	return Meta{
		CurrentPage:  p.PageNumber,
		ItemsPerPage: p.PageSize,
		TotalItems:   totalItems,
		TotalPages:   int((totalItems + size - 1) / size),
	}
}

// Paginate windows an in-memory ordered slice.
func Paginate[T any](items []T, p Params) Page[T] {
	p = p.Normalize()
	total := len(items)

	start := p.Offset()
	if start > total {
		start = total
	}
	end := start + p.PageSize
	if end > total {
		end = total
	}

	window := make([]T, end-start)
	copy(window, items[start:end])

	return Page[T]{
		Items: window,
		Meta:  NewMeta(p, int64(total)),
	}
}

// Scope applies the window to a gorm query.
func Scope(p Params) func(db *gorm.DB) *gorm.DB {
	p = p.Normalize()
	return func(db *gorm.DB) *gorm.DB {
		return db.Offset(p.Offset()).Limit(p.PageSize)
	}
}

// Find counts the filtered query, then loads the requested window. The query must
// already carry its filters. Scopes (ordering, preloads) apply to the item load only.
func Find[T any](query *gorm.DB, p Params, scopes ...func(*gorm.DB) *gorm.DB) (Page[T], error) {
	p = p.Normalize()

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return Page[T]{}, err
	}

	items := make([]T, 0, p.PageSize)
	if err := query.Scopes(scopes...).Scopes(Scope(p)).Find(&items).Error; err != nil {
		return Page[T]{}, err
	}

	return Page[T]{
		Items: items,
		Meta:  NewMeta(p, total),
	}, nil
}
