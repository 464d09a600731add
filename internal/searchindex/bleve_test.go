package searchindex

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testDoc struct {
	ID        string `json:"id"`
	FullName  string `json:"fullName"`
	Kind      string `json:"kind"`
	Height    string `json:"height"`
	Age       int    `json:"age"`
	CreatedAt int64  `json:"createdAt"`
}

func (d testDoc) DocumentID() string { return d.ID }

func testSchema() Schema {
	return Schema{
		Name: "people",
		Fields: []Field{
			{Name: "fullName", Type: FieldString, FullText: true},
			{Name: "kind", Type: FieldString, Facet: true},
			{Name: "height", Type: FieldString, Facet: true},
			{Name: "age", Type: FieldInt32, Facet: true},
			{Name: "createdAt", Type: FieldInt64},
		},
		DefaultSortingField: "createdAt",
	}
}

func newTestCollection(t *testing.T) *BleveClient {
	t.Helper()
	c, err := NewBleveClient("")
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	_, err = c.CreateCollection(context.Background(), testSchema())
	require.NoError(t, err)
	return c
}

func TestRetrieveMissingCollection(t *testing.T) {
	c, err := NewBleveClient("")
	require.NoError(t, err)
	defer c.Close()

	_, err = c.RetrieveCollection(context.Background(), "people")
	assert.ErrorIs(t, err, ErrCollectionNotFound)
}

func TestCreateCollectionTwice(t *testing.T) {
	c := newTestCollection(t)
	_, err := c.CreateCollection(context.Background(), testSchema())
	assert.ErrorIs(t, err, ErrCollectionExists)
}

func TestCreateCollectionRejectsStringSortField(t *testing.T) {
	c, err := NewBleveClient("")
	require.NoError(t, err)
	defer c.Close()

	s := testSchema()
	s.DefaultSortingField = "fullName"
	_, err = c.CreateCollection(context.Background(), s)
	assert.Error(t, err)
}

func TestOnDiskCollectionReopens(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	c, err := NewBleveClient(dir)
	require.NoError(t, err)
	_, err = c.CreateCollection(ctx, testSchema())
	require.NoError(t, err)
	require.NoError(t, c.Upsert(ctx, "people", testDoc{ID: "a", FullName: "Ahmed Hassan", Age: 29, CreatedAt: 1}))
	require.NoError(t, c.Close())

	c2, err := NewBleveClient(dir)
	require.NoError(t, err)
	defer c2.Close()

	info, err := c2.RetrieveCollection(ctx, "people")
	require.NoError(t, err)
	assert.Equal(t, uint64(1), info.NumDocuments)
	assert.Equal(t, "createdAt", info.DefaultSortingField)

	list, err := c2.ListCollections(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "people", list[0].Name)
}

func TestUpsertOverwrites(t *testing.T) {
	c := newTestCollection(t)
	ctx := context.Background()

	require.NoError(t, c.Upsert(ctx, "people", testDoc{ID: "a", FullName: "First", Age: 20, CreatedAt: 1}))
	require.NoError(t, c.Upsert(ctx, "people", testDoc{ID: "a", FullName: "Second", Age: 21, CreatedAt: 2}))

	res, err := c.Search(ctx, "people", SearchParams{Q: "*", PerPage: 10})
	require.NoError(t, err)
	require.Equal(t, 1, res.Found)
	assert.Equal(t, "a", res.Hits[0].ID)
	assert.Equal(t, "Second", res.Hits[0].Document["fullName"])
	assert.Equal(t, float64(21), res.Hits[0].Document["age"])
}

func TestUpsertRequiresID(t *testing.T) {
	c := newTestCollection(t)
	err := c.Upsert(context.Background(), "people", testDoc{FullName: "x"})
	assert.ErrorIs(t, err, ErrInvalidDocument)
}

func TestDeleteMissingDocument(t *testing.T) {
	c := newTestCollection(t)
	ctx := context.Background()

	err := c.Delete(ctx, "people", "nope")
	assert.ErrorIs(t, err, ErrDocumentNotFound)

	err = c.Delete(ctx, "missing", "nope")
	assert.ErrorIs(t, err, ErrCollectionNotFound)
}

func TestImportAndFilter(t *testing.T) {
	c := newTestCollection(t)
	ctx := context.Background()

	docs := []Document{
		testDoc{ID: "25", Kind: "m", Height: `5'6"`, Age: 25, CreatedAt: 1},
		testDoc{ID: "26", Kind: "m", Height: `5'6"`, Age: 26, CreatedAt: 2},
		testDoc{ID: "30", Kind: "f", Height: `5'7"`, Age: 30, CreatedAt: 3},
		testDoc{ID: "31", Kind: "f", Height: `5'6"`, Age: 31, CreatedAt: 4},
	}
	require.NoError(t, c.Import(ctx, "people", docs))

	res, err := c.Search(ctx, "people", SearchParams{
		Q: "*",
		Filter: []FilterClause{
			{Field: "age", Op: OpGte, Value: "26"},
			{Field: "age", Op: OpLte, Value: "30"},
		},
		Sort:    SortField{Field: "createdAt"},
		PerPage: 10,
	})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Found)
	assert.Equal(t, []string{"26", "30"}, hitIDs(res))

	res, err = c.Search(ctx, "people", SearchParams{
		Q:       "*",
		Filter:  []FilterClause{{Field: "height", Op: OpEq, Value: `5'6"`}},
		Sort:    SortField{Field: "createdAt", Desc: true},
		PerPage: 10,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"31", "26", "25"}, hitIDs(res))
}

func TestSearchPagingAndFacets(t *testing.T) {
	c := newTestCollection(t)
	ctx := context.Background()

	var docs []Document
	for i := 0; i < 5; i++ {
		kind := "m"
		if i%2 == 1 {
			kind = "f"
		}
		docs = append(docs, testDoc{ID: string(rune('a' + i)), Kind: kind, CreatedAt: int64(i)})
	}
	require.NoError(t, c.Import(ctx, "people", docs))

	res, err := c.Search(ctx, "people", SearchParams{
		Q:       "*",
		Sort:    SortField{Field: "createdAt"},
		Page:    2,
		PerPage: 2,
		FacetBy: []string{"kind"},
	})
	require.NoError(t, err)
	assert.Equal(t, 5, res.Found)
	assert.Equal(t, 2, res.Page)
	assert.Equal(t, []string{"c", "d"}, hitIDs(res))

	require.Len(t, res.Facets, 1)
	assert.Equal(t, "kind", res.Facets[0].FieldName)
	assert.ElementsMatch(t, []FacetValue{{Value: "m", Count: 3}, {Value: "f", Count: 2}}, res.Facets[0].Counts)
}

func TestFullTextAndPrefix(t *testing.T) {
	c := newTestCollection(t)
	ctx := context.Background()

	require.NoError(t, c.Import(ctx, "people", []Document{
		testDoc{ID: "1", FullName: "Ahmed Hassan", CreatedAt: 1},
		testDoc{ID: "2", FullName: "Fatima Rahman", CreatedAt: 2},
	}))

	res, err := c.Search(ctx, "people", SearchParams{Q: "hassan", QueryBy: []string{"fullName"}, PerPage: 10})
	require.NoError(t, err)
	assert.Equal(t, []string{"1"}, hitIDs(res))

	res, err = c.Search(ctx, "people", SearchParams{Q: "Fat", QueryBy: []string{"fullName"}, Prefix: true, PerPage: 10})
	require.NoError(t, err)
	assert.Equal(t, []string{"2"}, hitIDs(res))
}

func TestPrefixSplitsLikeTheAnalyzer(t *testing.T) {
	c := newTestCollection(t)
	ctx := context.Background()

	require.NoError(t, c.Import(ctx, "people", []Document{
		testDoc{ID: "1", FullName: "Al-Amin Khan", CreatedAt: 1},
		testDoc{ID: "2", FullName: "Fatima Rahman", CreatedAt: 2},
	}))

	for _, q := range []string{"al-am", "Al-Amin K", "al am", "fatima rah"} {
		res, err := c.Search(ctx, "people", SearchParams{Q: q, QueryBy: []string{"fullName"}, Prefix: true, PerPage: 10})
		require.NoError(t, err, q)
		assert.Len(t, res.Hits, 1, q)
	}

	res, err := c.Search(ctx, "people", SearchParams{Q: "--", QueryBy: []string{"fullName"}, Prefix: true, PerPage: 10})
	require.NoError(t, err)
	assert.Zero(t, res.Found)
}

func TestSearchRejectsUnknownFields(t *testing.T) {
	c := newTestCollection(t)
	ctx := context.Background()

	_, err := c.Search(ctx, "people", SearchParams{Q: "*", Filter: []FilterClause{{Field: "nope", Op: OpEq, Value: "x"}}})
	assert.ErrorIs(t, err, ErrInvalidQuery)

	_, err = c.Search(ctx, "people", SearchParams{Q: "*", FacetBy: []string{"fullName"}})
	assert.ErrorIs(t, err, ErrInvalidQuery)

	_, err = c.Search(ctx, "people", SearchParams{Q: "*", Sort: SortField{Field: "nope"}})
	assert.ErrorIs(t, err, ErrInvalidQuery)
}

func TestSearchRejectsOverflowingPage(t *testing.T) {
	c := newTestCollection(t)
	ctx := context.Background()
	require.NoError(t, c.Upsert(ctx, "people", testDoc{ID: "a", CreatedAt: 1}))

	for _, page := range []int{math.MaxInt64 / 10, math.MaxInt64} {
		_, err := c.Search(ctx, "people", SearchParams{Q: "*", Page: page, PerPage: 20})
		assert.ErrorIs(t, err, ErrInvalidQuery)
	}

	res, err := c.Search(ctx, "people", SearchParams{Q: "*", Page: math.MaxInt32 / 50, PerPage: 50})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Found)
	assert.Empty(t, res.Hits)
}

func TestFilterByRendering(t *testing.T) {
	p := SearchParams{Filter: []FilterClause{
		{Field: "age", Op: OpGte, Value: "26"},
		{Field: "age", Op: OpLte, Value: "30"},
		{Field: "height", Op: OpEq, Value: `5'6"`},
	}}
	assert.Equal(t, `age:>=26 && age:<=30 && height:=5'6"`, p.FilterBy())
	assert.Equal(t, "", SearchParams{}.FilterBy())
	assert.Equal(t, "createdAt:desc", SortField{Field: "createdAt", Desc: true}.String())
}

type failingClient struct {
	Client
	err error
}

func (f failingClient) Search(context.Context, string, SearchParams) (*SearchResult, error) {
	return nil, f.err
}

func TestBreakerOpensOnFailures(t *testing.T) {
	b := NewBreakerClient(failingClient{err: errors.New("connection refused")})
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := b.Search(ctx, "people", SearchParams{})
		require.Error(t, err)
	}
	assert.Equal(t, gobreaker.StateOpen, b.State())

	_, err := b.Search(ctx, "people", SearchParams{})
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
}

func TestBreakerIgnoresExpectedErrors(t *testing.T) {
	b := NewBreakerClient(failingClient{err: ErrCollectionNotFound})
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := b.Search(ctx, "people", SearchParams{})
		assert.ErrorIs(t, err, ErrCollectionNotFound)
	}
	assert.Equal(t, gobreaker.StateClosed, b.State())
}

func hitIDs(res *SearchResult) []string {
	ids := make([]string, 0, len(res.Hits))
	for _, h := range res.Hits {
		ids = append(ids, h.ID)
	}
	return ids
}
