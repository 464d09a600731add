package searchindex

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"unicode"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/mapping"
	"github.com/blevesearch/bleve/v2/search/query"
)

const (
	textSuffix          = "_text"
	defaultPerPage      = 10
	defaultFacetValues  = 10
	collectionExtension = ".bleve"
)

var schemaKey = []byte("_schema")

// BleveClient keeps one bleve index per collection under dir. With an empty
// dir collections live in memory only and disappear on Close.
type BleveClient struct {
	dir string

	mu          sync.RWMutex
	collections map[string]*bleveCollection
}

type bleveCollection struct {
	schema Schema
	index  bleve.Index
}

func NewBleveClient(dir string) (*BleveClient, error) {
	if dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create index directory: %w", err)
		}
	}
	return &BleveClient{
		dir:         dir,
		collections: make(map[string]*bleveCollection),
	}, nil
}

func (c *BleveClient) path(name string) string {
	return filepath.Join(c.dir, name+collectionExtension)
}

func (c *BleveClient) open(name string) (*bleveCollection, error) {
	c.mu.RLock()
	col, ok := c.collections[name]
	c.mu.RUnlock()
	if ok {
		return col, nil
	}
	if c.dir == "" {
		return nil, collectionNotFound(name)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if col, ok := c.collections[name]; ok {
		return col, nil
	}

	idx, err := bleve.Open(c.path(name))
	if err != nil {
		if errors.Is(err, bleve.ErrorIndexPathDoesNotExist) {
			return nil, collectionNotFound(name)
		}
		return nil, fmt.Errorf("failed to open collection %s: %w", name, err)
	}

	raw, err := idx.GetInternal(schemaKey)
	if err != nil || len(raw) == 0 {
		idx.Close()
		return nil, fmt.Errorf("collection %s has no stored schema", name)
	}
	var schema Schema
	if err := json.Unmarshal(raw, &schema); err != nil {
		idx.Close()
		return nil, fmt.Errorf("collection %s has a corrupt schema: %w", name, err)
	}

	col = &bleveCollection{schema: schema, index: idx}
	c.collections[name] = col
	return col, nil
}

func (c *BleveClient) RetrieveCollection(ctx context.Context, name string) (*CollectionInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	col, err := c.open(name)
	if err != nil {
		return nil, err
	}
	return col.info()
}

func (c *BleveClient) CreateCollection(ctx context.Context, schema Schema) (*CollectionInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := validateSchema(schema); err != nil {
		return nil, err
	}
	if _, err := c.open(schema.Name); err == nil {
		return nil, fmt.Errorf("%w: %s", ErrCollectionExists, schema.Name)
	} else if !errors.Is(err, ErrCollectionNotFound) {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.collections[schema.Name]; ok {
		return nil, fmt.Errorf("%w: %s", ErrCollectionExists, schema.Name)
	}

	m := buildMapping(schema)
	var (
		idx bleve.Index
		err error
	)
	if c.dir == "" {
		idx, err = bleve.NewMemOnly(m)
	} else {
		idx, err = bleve.New(c.path(schema.Name), m)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create collection %s: %w", schema.Name, err)
	}

	raw, err := json.Marshal(schema)
	if err != nil {
		idx.Close()
		return nil, err
	}
	if err := idx.SetInternal(schemaKey, raw); err != nil {
		idx.Close()
		return nil, fmt.Errorf("failed to store schema: %w", err)
	}

	col := &bleveCollection{schema: schema, index: idx}
	c.collections[schema.Name] = col
	return col.info()
}

func (c *BleveClient) ListCollections(ctx context.Context) ([]CollectionInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if c.dir != "" {
		entries, err := os.ReadDir(c.dir)
		if err != nil {
			return nil, fmt.Errorf("failed to list collections: %w", err)
		}
		for _, e := range entries {
			if !e.IsDir() || !strings.HasSuffix(e.Name(), collectionExtension) {
				continue
			}
			if _, err := c.open(strings.TrimSuffix(e.Name(), collectionExtension)); err != nil {
				return nil, err
			}
		}
	}

	c.mu.RLock()
	cols := make([]*bleveCollection, 0, len(c.collections))
	for _, col := range c.collections {
		cols = append(cols, col)
	}
	c.mu.RUnlock()

	out := make([]CollectionInfo, 0, len(cols))
	for _, col := range cols {
		info, err := col.info()
		if err != nil {
			return nil, err
		}
		out = append(out, *info)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (c *BleveClient) Upsert(ctx context.Context, collection string, doc Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	col, err := c.open(collection)
	if err != nil {
		return err
	}
	id, fields, err := documentFields(doc)
	if err != nil {
		return err
	}
	return col.index.Index(id, fields)
}

func (c *BleveClient) Delete(ctx context.Context, collection, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	col, err := c.open(collection)
	if err != nil {
		return err
	}
	existing, err := col.index.Document(id)
	if err != nil {
		return err
	}
	if existing == nil {
		return fmt.Errorf("%w: %s", ErrDocumentNotFound, id)
	}
	return col.index.Delete(id)
}

// Import indexes docs as a single batch: either all of them become visible or
// none do.
func (c *BleveClient) Import(ctx context.Context, collection string, docs []Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	col, err := c.open(collection)
	if err != nil {
		return err
	}
	batch := col.index.NewBatch()
	for _, doc := range docs {
		id, fields, err := documentFields(doc)
		if err != nil {
			return err
		}
		if err := batch.Index(id, fields); err != nil {
			return fmt.Errorf("failed to add %s to batch: %w", id, err)
		}
	}
	return col.index.Batch(batch)
}

func (c *BleveClient) Search(ctx context.Context, collection string, p SearchParams) (*SearchResult, error) {
	col, err := c.open(collection)
	if err != nil {
		return nil, err
	}
	q, err := buildQuery(col.schema, col.index.Mapping(), p)
	if err != nil {
		return nil, err
	}

	perPage := p.PerPage
	if perPage <= 0 {
		perPage = defaultPerPage
	}
	page := p.Page
	if page < 1 {
		page = 1
	}
	if perPage > math.MaxInt32 || page-1 > (math.MaxInt32-perPage)/perPage {
		return nil, fmt.Errorf("%w: page %d is out of range", ErrInvalidQuery, page)
	}

	req := bleve.NewSearchRequestOptions(q, perPage, (page-1)*perPage, false)
	req.Fields = []string{"*"}

	sortField := p.Sort.Field
	if sortField == "" {
		sortField = col.schema.DefaultSortingField
	}
	if _, ok := col.schema.Field(sortField); !ok {
		return nil, fmt.Errorf("%w: could not find a field named `%s` in the schema for sorting", ErrInvalidQuery, sortField)
	}
	if p.Sort.Desc {
		sortField = "-" + sortField
	}
	req.SortBy([]string{sortField, "_id"})

	facetSize := p.MaxFacetValues
	if facetSize <= 0 {
		facetSize = defaultFacetValues
	}
	for _, name := range p.FacetBy {
		f, ok := col.schema.Field(name)
		if !ok || !f.Facet {
			return nil, fmt.Errorf("%w: field `%s` is not a facet field", ErrInvalidQuery, name)
		}
		req.AddFacet(name, bleve.NewFacetRequest(name, facetSize))
	}

	res, err := col.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, err
	}

	out := &SearchResult{
		Found: int(res.Total),
		Page:  page,
		Hits:  make([]Hit, 0, len(res.Hits)),
		Took:  res.Took,
	}
	for _, h := range res.Hits {
		doc := make(map[string]any, len(h.Fields)+1)
		for k, v := range h.Fields {
			doc[k] = v
		}
		doc["id"] = h.ID
		out.Hits = append(out.Hits, Hit{ID: h.ID, Document: doc})
	}
	for _, name := range p.FacetBy {
		fc := FacetCounts{FieldName: name, Counts: []FacetValue{}}
		if fr, ok := res.Facets[name]; ok && fr.Terms != nil {
			for _, t := range fr.Terms.Terms() {
				fc.Counts = append(fc.Counts, FacetValue{Value: t.Term, Count: t.Count})
			}
		}
		out.Facets = append(out.Facets, fc)
	}
	return out, nil
}

func (c *BleveClient) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	var errs []error
	for name, col := range c.collections {
		if err := col.index.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s: %w", name, err))
		}
		delete(c.collections, name)
	}
	return errors.Join(errs...)
}

func (col *bleveCollection) info() (*CollectionInfo, error) {
	count, err := col.index.DocCount()
	if err != nil {
		return nil, err
	}
	return &CollectionInfo{
		Name:                col.schema.Name,
		NumDocuments:        count,
		DefaultSortingField: col.schema.DefaultSortingField,
		Fields:              col.schema.Fields,
	}, nil
}

func validateSchema(s Schema) error {
	if s.Name == "" {
		return errors.New("collection name is required")
	}
	if s.DefaultSortingField != "" {
		f, ok := s.Field(s.DefaultSortingField)
		if !ok || !f.Type.Numeric() {
			return fmt.Errorf("default sorting field `%s` must be a numeric field", s.DefaultSortingField)
		}
	}
	return nil
}

// buildMapping indexes string fields verbatim so filters and facets match the
// exact stored value. FullText fields get an extra analyzed copy.
func buildMapping(s Schema) mapping.IndexMapping {
	doc := bleve.NewDocumentMapping()
	doc.Dynamic = false
	for _, f := range s.Fields {
		if f.Type.Numeric() {
			doc.AddFieldMappingsAt(f.Name, bleve.NewNumericFieldMapping())
			continue
		}
		fms := []*mapping.FieldMapping{bleve.NewKeywordFieldMapping()}
		if f.FullText {
			text := bleve.NewTextFieldMapping()
			text.Name = f.Name + textSuffix
			text.Store = false
			fms = append(fms, text)
		}
		doc.AddFieldMappingsAt(f.Name, fms...)
	}

	im := bleve.NewIndexMapping()
	im.DefaultMapping = doc
	im.IndexDynamic = false
	im.StoreDynamic = false
	return im
}

func documentFields(doc Document) (string, map[string]any, error) {
	id := doc.DocumentID()
	if id == "" {
		return "", nil, fmt.Errorf("%w: id is required", ErrInvalidDocument)
	}
	raw, err := json.Marshal(doc)
	if err != nil {
		return "", nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	fields := make(map[string]any)
	if err := json.Unmarshal(raw, &fields); err != nil {
		return "", nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	delete(fields, "id")
	return id, fields, nil
}

func buildQuery(s Schema, m mapping.IndexMapping, p SearchParams) (query.Query, error) {
	text, err := textQuery(s, m, p)
	if err != nil {
		return nil, err
	}
	if len(p.Filter) == 0 {
		return text, nil
	}
	conjuncts := []query.Query{text}
	for _, c := range p.Filter {
		fq, err := filterQuery(s, c)
		if err != nil {
			return nil, err
		}
		conjuncts = append(conjuncts, fq)
	}
	return bleve.NewConjunctionQuery(conjuncts...), nil
}

func textQuery(s Schema, m mapping.IndexMapping, p SearchParams) (query.Query, error) {
	q := strings.TrimSpace(p.Q)
	if q == "" || q == "*" {
		return bleve.NewMatchAllQuery(), nil
	}
	if len(p.QueryBy) == 0 {
		return nil, fmt.Errorf("%w: query_by is required", ErrInvalidQuery)
	}
	disjuncts := make([]query.Query, 0, len(p.QueryBy))
	for _, name := range p.QueryBy {
		f, ok := s.Field(name)
		if !ok || f.Type != FieldString {
			return nil, fmt.Errorf("%w: field `%s` cannot be queried", ErrInvalidQuery, name)
		}
		disjuncts = append(disjuncts, fieldTextQuery(m, f, q, p.Prefix))
	}
	if len(disjuncts) == 1 {
		return disjuncts[0], nil
	}
	return bleve.NewDisjunctionQuery(disjuncts...), nil
}

func fieldTextQuery(m mapping.IndexMapping, f Field, q string, prefix bool) query.Query {
	if !f.FullText {
		if prefix {
			pq := bleve.NewPrefixQuery(q)
			pq.SetField(f.Name)
			return pq
		}
		tq := bleve.NewTermQuery(q)
		tq.SetField(f.Name)
		return tq
	}

	target := f.Name + textSuffix
	if !prefix {
		mq := bleve.NewMatchQuery(q)
		mq.SetField(target)
		mq.SetOperator(query.MatchQueryOperatorAnd)
		return mq
	}

	terms, last := prefixTokens(m, target, q)
	if last == "" {
		return bleve.NewMatchNoneQuery()
	}
	parts := make([]query.Query, 0, len(terms)+1)
	for _, term := range terms {
		tq := bleve.NewTermQuery(term)
		tq.SetField(target)
		parts = append(parts, tq)
	}
	pq := bleve.NewPrefixQuery(last)
	pq.SetField(target)
	parts = append(parts, pq)
	if len(parts) == 1 {
		return parts[0]
	}
	return bleve.NewConjunctionQuery(parts...)
}

// prefixTokens splits q the way the field's analyzer splits stored text. The
// trailing fragment is returned unanalyzed so stop word removal cannot drop a
// half-typed word.
func prefixTokens(m mapping.IndexMapping, field, q string) ([]string, string) {
	words := strings.FieldsFunc(strings.ToLower(q), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r) && !unicode.IsMark(r)
	})
	if len(words) == 0 {
		return nil, ""
	}
	last := words[len(words)-1]
	head := strings.Join(words[:len(words)-1], " ")
	if head == "" {
		return nil, last
	}

	analyzer := m.AnalyzerNamed(m.AnalyzerNameForPath(field))
	if analyzer == nil {
		return words[:len(words)-1], last
	}
	var terms []string
	for _, tok := range analyzer.Analyze([]byte(head)) {
		terms = append(terms, string(tok.Term))
	}
	return terms, last
}

func filterQuery(s Schema, c FilterClause) (query.Query, error) {
	f, ok := s.Field(c.Field)
	if !ok {
		return nil, fmt.Errorf("%w: could not find a filter field named `%s` in the schema", ErrInvalidQuery, c.Field)
	}

	if !f.Type.Numeric() {
		if c.Op != OpEq {
			return nil, fmt.Errorf("%w: range filter on string field `%s`", ErrInvalidQuery, c.Field)
		}
		tq := bleve.NewTermQuery(c.Value)
		tq.SetField(f.Name)
		return tq, nil
	}

	v, err := strconv.ParseFloat(c.Value, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: `%s` needs a numeric value", ErrInvalidQuery, c.Field)
	}
	inclusive := true
	var nq *query.NumericRangeQuery
	switch c.Op {
	case OpEq:
		nq = bleve.NewNumericRangeInclusiveQuery(&v, &v, &inclusive, &inclusive)
	case OpGte:
		nq = bleve.NewNumericRangeInclusiveQuery(&v, nil, &inclusive, nil)
	case OpLte:
		nq = bleve.NewNumericRangeInclusiveQuery(nil, &v, nil, &inclusive)
	default:
		return nil, fmt.Errorf("%w: unsupported operator %q", ErrInvalidQuery, c.Op)
	}
	nq.SetField(f.Name)
	return nq, nil
}
