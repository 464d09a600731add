// Package searchindex is the faceted full-text index the biodata search runs
// against. Collections are addressed by name and carry a fixed schema; the
// parameter and result shapes follow the hosted engines the platform has used
// (q, query_by, filter_by, sort_by, page, per_page, facet_by).
package searchindex

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrCollectionNotFound = errors.New("collection not found")
	ErrCollectionExists   = errors.New("collection already exists")
	ErrDocumentNotFound   = errors.New("document not found")
	ErrInvalidQuery       = errors.New("invalid search query")
	ErrInvalidDocument    = errors.New("invalid document")
	ErrUnavailable        = errors.New("search index unavailable")
)

type FieldType string

const (
	FieldString FieldType = "string"
	FieldInt32  FieldType = "int32"
	FieldInt64  FieldType = "int64"
)

func (t FieldType) Numeric() bool {
	return t == FieldInt32 || t == FieldInt64
}

type Field struct {
	Name     string    `json:"name"`
	Type     FieldType `json:"type"`
	Facet    bool      `json:"facet,omitempty"`
	Optional bool      `json:"optional,omitempty"`
	// FullText adds an analyzed copy of a string field for relevance queries.
	FullText bool `json:"full_text,omitempty"`
}

type Schema struct {
	Name                string  `json:"name"`
	Fields              []Field `json:"fields"`
	DefaultSortingField string  `json:"default_sorting_field"`
}

func (s Schema) Field(name string) (Field, bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

type CollectionInfo struct {
	Name                string  `json:"name"`
	NumDocuments        uint64  `json:"num_documents"`
	DefaultSortingField string  `json:"default_sorting_field"`
	Fields              []Field `json:"fields"`
}

// Document is anything that can be indexed under a stable id.
type Document interface {
	DocumentID() string
}

type FilterOp string

const (
	OpEq  FilterOp = "="
	OpGte FilterOp = ">="
	OpLte FilterOp = "<="
)

// FilterClause is one conjunct of a filter_by expression.
type FilterClause struct {
	Field string
	Op    FilterOp
	Value string
}

func (c FilterClause) String() string {
	return c.Field + ":" + string(c.Op) + c.Value
}

type SortField struct {
	Field string
	Desc  bool
}

func (s SortField) String() string {
	if s.Desc {
		return s.Field + ":desc"
	}
	return s.Field + ":asc"
}

type SearchParams struct {
	Q       string
	QueryBy []string
	Filter  []FilterClause
	Sort    SortField
	Page    int
	PerPage int
	FacetBy []string
	// Prefix treats the last query token as a prefix (autocomplete).
	Prefix         bool
	MaxFacetValues int
}

// FilterBy renders the filter clauses in filter_by grammar, e.g.
// `age:>=26 && age:<=30 && height:=5'6"`.
func (p SearchParams) FilterBy() string {
	parts := make([]string, 0, len(p.Filter))
	for _, c := range p.Filter {
		parts = append(parts, c.String())
	}
	return strings.Join(parts, " && ")
}

type Hit struct {
	ID       string
	Document map[string]any
}

type FacetValue struct {
	Value string
	Count int
}

type FacetCounts struct {
	FieldName string
	Counts    []FacetValue
}

type SearchResult struct {
	Found  int
	Page   int
	Hits   []Hit
	Facets []FacetCounts
	Took   time.Duration
}

// Client is the search index collaborator. Implementations must be safe for
// concurrent use.
type Client interface {
	RetrieveCollection(ctx context.Context, name string) (*CollectionInfo, error)
	CreateCollection(ctx context.Context, schema Schema) (*CollectionInfo, error)
	ListCollections(ctx context.Context) ([]CollectionInfo, error)
	Upsert(ctx context.Context, collection string, doc Document) error
	Delete(ctx context.Context, collection, id string) error
	Import(ctx context.Context, collection string, docs []Document) error
	Search(ctx context.Context, collection string, params SearchParams) (*SearchResult, error)
	Close() error
}

func collectionNotFound(name string) error {
	return fmt.Errorf("%w: %s", ErrCollectionNotFound, name)
}
