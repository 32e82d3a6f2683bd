package domain

// Filter is a typed filter expression built by the query layer and
// translated to SQL by the storage layer. It replaces ad-hoc query-builder
// condition trees with an explicit tagged union.
type Filter interface {
	isFilter()
}

// Equals matches a column exactly.
type Equals struct {
	Field string
	Value any
}

// Contains matches a column by case-insensitive substring.
type Contains struct {
	Field string
	Value string
}

// And combines filters conjunctively.
type And []Filter

// Or combines filters disjunctively.
type Or []Filter

func (Equals) isFilter()   {}
func (Contains) isFilter() {}
func (And) isFilter()      {}
func (Or) isFilter()       {}

// SearchAcross builds the canonical list-endpoint filter: the search term
// matched as a substring across several columns (OR), combined with exact
// field filters (AND). Exact filters with empty values produce no clauses.
func SearchAcross(search string, columns []string, exact ...Equals) Filter {
	var root And
	if search != "" {
		var or Or
		for _, c := range columns {
			or = append(or, Contains{Field: c, Value: search})
		}
		root = append(root, or)
	}
	for _, eq := range exact {
		if s, ok := eq.Value.(string); ok && s == "" {
			continue
		}
		root = append(root, eq)
	}
	if len(root) == 0 {
		return nil
	}
	return root
}

// Page describes pagination inputs, normalized by the handlers.
type Page struct {
	Number int
	Size   int
}

// Offset returns the SQL offset for the page.
func (p Page) Offset() int {
	return (p.Number - 1) * p.Size
}

// Meta is the pagination metadata returned with every list response.
type Meta struct {
	Page       int `json:"page"`
	PageSize   int `json:"pageSize"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

// MetaFor computes pagination metadata for a total row count. A
// non-positive page size yields zero total pages instead of dividing by
// zero.
func MetaFor(p Page, total int) Meta {
	pages := 0
	if p.Size > 0 {
		pages = total / p.Size
		if total%p.Size != 0 {
			pages++
		}
	}
	return Meta{Page: p.Number, PageSize: p.Size, Total: total, TotalPages: pages}
}
