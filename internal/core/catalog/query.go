package catalog

import (
	"slices"
	"strings"
	"time"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// CategoryAll disables the category filter.
const CategoryAll = "all"

type SortKey string

const (
	SortLatest SortKey = "latest"
	SortName   SortKey = "name"
)

// ParseSortKey defaults to SortLatest for anything it does not know.
func ParseSortKey(s string) SortKey {
	if SortKey(strings.ToLower(strings.TrimSpace(s))) == SortName {
		return SortName
	}
	return SortLatest
}

// Collection describes how one kind of record is searched, categorised
// and ordered.
type Collection[T any] struct {
	PageSize int
	Name     func(T) string
	// Searchable returns every field the query is matched against.
	Searchable func(T) []string
	// Category is nil when the collection has no category field.
	Category func(T) string
	Modified func(T) time.Time
}

// Params are the user inputs of one view. Page is 1-indexed.
type Params struct {
	Query    string
	Category string
	Sort     SortKey
	Page     int
}

// View is one page of results.
type View[T any] struct {
	Items      []T
	Page       int
	PageSize   int
	Total      int
	TotalPages int
}

// Filter keeps records whose searchable fields contain query
// (case-insensitive) and whose category matches. Both must hold.
func (c Collection[T]) Filter(records []T, query, category string) []T {
	q := strings.ToLower(strings.TrimSpace(query))
	cat := strings.ToLower(strings.TrimSpace(category))
	out := make([]T, 0, len(records))
	for _, r := range records {
		if c.matchesCategory(r, cat) && c.matchesQuery(r, q) {
			out = append(out, r)
		}
	}
	return out
}

func (c Collection[T]) matchesQuery(r T, q string) bool {
	if q == "" {
		return true
	}
	for _, field := range c.Searchable(r) {
		if strings.Contains(strings.ToLower(field), q) {
			return true
		}
	}
	return false
}

func (c Collection[T]) matchesCategory(r T, cat string) bool {
	if cat == "" || cat == CategoryAll || c.Category == nil {
		return true
	}
	return strings.ToLower(c.Category(r)) == cat
}

// Sort returns a sorted copy. Ties keep their input order. Names are
// collated, so case only breaks ties between otherwise equal names.
func (c Collection[T]) Sort(records []T, key SortKey) []T {
	out := slices.Clone(records)
	if key == SortName {
		col := collate.New(language.Und)
		slices.SortStableFunc(out, func(a, b T) int { return col.CompareString(c.Name(a), c.Name(b)) })
		return out
	}
	slices.SortStableFunc(out, func(a, b T) int { return c.Modified(b).Compare(c.Modified(a)) })
	return out
}

// Paginate returns the 1-indexed page. Out-of-range pages are empty.
func (c Collection[T]) Paginate(records []T, page int) []T {
	size := c.PageSize
	if size <= 0 || page < 1 {
		return []T{}
	}
	start := (page - 1) * size
	if start >= len(records) {
		return []T{}
	}
	end := min(start+size, len(records))
	return slices.Clone(records[start:end])
}

// TotalPages is ceil(n / PageSize); zero records give zero pages.
func (c Collection[T]) TotalPages(n int) int {
	if c.PageSize <= 0 {
		return 0
	}
	return (n + c.PageSize - 1) / c.PageSize
}

// Query runs filter, sort and paginate. The input slice is not modified.
func (c Collection[T]) Query(records []T, p Params) View[T] {
	filtered := c.Filter(records, p.Query, p.Category)
	sorted := c.Sort(filtered, p.Sort)
	page := p.Page
	if page == 0 {
		page = 1
	}
	return View[T]{
		Items:      c.Paginate(sorted, page),
		Page:       page,
		PageSize:   c.PageSize,
		Total:      len(sorted),
		TotalPages: c.TotalPages(len(sorted)),
	}
}
