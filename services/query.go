package services

import (
	"math"
	"sort"
	"strconv"
	"strings"

	"biodata-platform/internal/searchindex"
	"biodata-platform/models"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 50
	// MaxPage keeps (page-1)*pageSize inside int32 for the index.
	MaxPage = math.MaxInt32 / MaxPageSize

	filterAll = "all"
)

var (
	// Form names that live under a different index field.
	filterFieldAliases = map[string]string{
		"division":   "presentDivision",
		"district":   "presentDistrict",
		"upazilla":   "presentUpazilla",
		"profession": "occupation",
	}

	queryByFields = []string{"fullName", "occupation", "presentDistrict", "presentDivision"}

	facetFields = []string{
		"biodataType", "maritalStatus", "presentDivision", "presentDistrict",
		"complexion", "familyStatus", "occupation",
	}

	sortableFields = map[string]bool{
		"createdAt": true,
		"updatedAt": true,
		"age":       true,
	}
)

// TranslateFilters turns the search form into conjunctive filter clauses.
// Keys are visited in sorted order. Sentinel values and malformed bucket tokens
// produce no clause.
func TranslateFilters(filters models.SearchFilters) []searchindex.FilterClause {
	keys := make([]string, 0, len(filters))
	for k := range filters {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var clauses []searchindex.FilterClause
	for _, key := range keys {
		value := strings.TrimSpace(filters[key])
		if value == "" || value == filterAll {
			continue
		}

		switch key {
		case "age":
			clauses = append(clauses, ageClauses(value)...)
		case "height":
			if c, ok := heightClause(value); ok {
				clauses = append(clauses, c)
			}
		default:
			field := key
			if alias, ok := filterFieldAliases[key]; ok {
				field = alias
			}
			clauses = append(clauses, searchindex.FilterClause{Field: field, Op: searchindex.OpEq, Value: value})
		}
	}
	return clauses
}

// ageClauses decodes "26_30" into an inclusive range and "40_plus" into an
// open-ended lower bound.
func ageClauses(token string) []searchindex.FilterClause {
	lo, hi, ok := strings.Cut(token, "_")
	if !ok {
		return nil
	}
	minAge, err := strconv.Atoi(lo)
	if err != nil {
		return nil
	}
	lower := searchindex.FilterClause{Field: "age", Op: searchindex.OpGte, Value: strconv.Itoa(minAge)}
	if hi == "plus" {
		return []searchindex.FilterClause{lower}
	}
	maxAge, err := strconv.Atoi(hi)
	if err != nil {
		return nil
	}
	return []searchindex.FilterClause{
		lower,
		{Field: "age", Op: searchindex.OpLte, Value: strconv.Itoa(maxAge)},
	}
}

// heightClause decodes "5_6" into the stored form 5'6".
func heightClause(token string) (searchindex.FilterClause, bool) {
	if !strings.Contains(token, "_") {
		return searchindex.FilterClause{}, false
	}
	value := strings.Replace(token, "_", "'", 1) + `"`
	return searchindex.FilterClause{Field: "height", Op: searchindex.OpEq, Value: value}, true
}

// ClampPage normalizes a requested page and page size.
func ClampPage(page, pageSize int) (int, int) {
	switch {
	case page < 1:
		page = 1
	case page > MaxPage:
		page = MaxPage
	}
	switch {
	case pageSize <= 0:
		pageSize = DefaultPageSize
	case pageSize > MaxPageSize:
		pageSize = MaxPageSize
	}
	return page, pageSize
}

// BuildSearchParams translates a search request into index parameters.
func BuildSearchParams(req models.SearchRequest) searchindex.SearchParams {
	page, perPage := ClampPage(req.Page, req.PageSize)

	q := strings.TrimSpace(req.Query)
	if q == "" {
		q = "*"
	}

	sortField := req.SortBy
	if !sortableFields[sortField] {
		sortField = "createdAt"
	}

	return searchindex.SearchParams{
		Q:       q,
		QueryBy: queryByFields,
		Filter:  TranslateFilters(req.Filters),
		Sort:    searchindex.SortField{Field: sortField, Desc: !strings.EqualFold(req.SortOrder, "asc")},
		Page:    page,
		PerPage: perPage,
		FacetBy: facetFields,
	}
}
