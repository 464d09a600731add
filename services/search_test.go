package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"testing"

	"biodata-platform/internal/searchindex"
	"biodata-platform/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedIndex(t *testing.T, ix *Indexer, n int) {
	t.Helper()
	docs := make([]models.IndexDocument, n)
	for i := range docs {
		docs[i] = models.IndexDocument{
			ID:          fmt.Sprintf("b%d", i),
			FullName:    fmt.Sprintf("Person %d", i),
			BiodataType: models.BiodataTypeFemale,
			Age:         20 + i,
			CreatedAt:   int64(i),
		}
	}
	_, err := ix.BulkImport(context.Background(), docs)
	require.NoError(t, err)
}

func TestSearchDropsIgnoredButKeepsTotals(t *testing.T) {
	ix := newTestIndexer(t, newMemClient(t))
	seedIndex(t, ix, 5)

	svc := NewSearchService(ix, staticIgnore{ids: []string{"b4", "b2"}}, nil, 0)
	resp := svc.Search(context.Background(), models.SearchRequest{UserID: "u1", PageSize: 10})

	require.True(t, resp.Success)
	assert.Equal(t, 5, resp.TotalCount)
	assert.Equal(t, 1, resp.TotalPages)
	ids := make([]string, 0, len(resp.Data))
	for _, it := range resp.Data {
		ids = append(ids, it.ID)
	}
	assert.Equal(t, []string{"b3", "b1", "b0"}, ids)
}

func TestSearchIgnoreLookupFailureFailsOpen(t *testing.T) {
	ix := newTestIndexer(t, newMemClient(t))
	seedIndex(t, ix, 3)

	svc := NewSearchService(ix, staticIgnore{err: errors.New("mongo down")}, nil, 0)
	resp := svc.Search(context.Background(), models.SearchRequest{UserID: "u1"})

	require.True(t, resp.Success)
	assert.Len(t, resp.Data, 3)
}

func TestSearchAnonymousSkipsIgnoreList(t *testing.T) {
	ix := newTestIndexer(t, newMemClient(t))
	seedIndex(t, ix, 2)

	svc := NewSearchService(ix, staticIgnore{ids: []string{"b0"}}, nil, 0)
	resp := svc.Search(context.Background(), models.SearchRequest{})
	assert.Len(t, resp.Data, 2)
}

func TestSearchPagination(t *testing.T) {
	ix := newTestIndexer(t, newMemClient(t))
	seedIndex(t, ix, 5)

	svc := NewSearchService(ix, nil, nil, 0)
	resp := svc.Search(context.Background(), models.SearchRequest{Page: 2, PageSize: 2, SortBy: "age", SortOrder: "asc"})

	require.True(t, resp.Success)
	assert.Equal(t, 2, resp.CurrentPage)
	assert.Equal(t, 3, resp.TotalPages)
	assert.True(t, resp.HasNextPage)
	assert.True(t, resp.HasPreviousPage)
	require.Len(t, resp.Data, 2)
	assert.Equal(t, 22, resp.Data[0].Age)
	assert.Equal(t, "Person 2", resp.Data[0].FullName)
	assert.NotEmpty(t, resp.Facets)
}

func TestSearchFarPageIsEmpty(t *testing.T) {
	ix := newTestIndexer(t, newMemClient(t))
	seedIndex(t, ix, 3)
	svc := NewSearchService(ix, nil, nil, 0)

	for _, page := range []int{math.MaxInt64 / 10, math.MaxInt64} {
		resp := svc.Search(context.Background(), models.SearchRequest{Page: page, PageSize: 20})
		require.True(t, resp.Success, "page %d", page)
		assert.Empty(t, resp.Data)
		assert.Equal(t, 3, resp.TotalCount)
		assert.Equal(t, MaxPage, resp.CurrentPage)
		assert.False(t, resp.HasNextPage)
	}
}

func TestSearchFailureMessages(t *testing.T) {
	client := newMemClient(t)
	ctx := context.Background()

	broken := newTestIndexer(t, brokenClient{Client: client, err: fmt.Errorf("%w: open", searchindex.ErrUnavailable)})
	resp := NewSearchService(broken, nil, nil, 0).Search(ctx, models.SearchRequest{Page: 3})
	assert.False(t, resp.Success)
	assert.Equal(t, MsgSearchUnavailable, resp.Message)
	assert.Empty(t, resp.Data)
	assert.NotNil(t, resp.Data)
	assert.Equal(t, 3, resp.CurrentPage)

	ix := newTestIndexer(t, client)
	resp = NewSearchService(ix, nil, nil, 0).Search(ctx, models.SearchRequest{Filters: models.SearchFilters{"bogus": "x"}})
	assert.False(t, resp.Success)
	assert.Equal(t, MsgSearchFailed, resp.Message)

	missing := NewIndexer(newMemClient(t), "biodata", 0)
	resp = NewSearchService(missing, nil, nil, 0).Search(ctx, models.SearchRequest{})
	assert.Equal(t, MsgSearchUnavailable, resp.Message)
}

func TestSuggestions(t *testing.T) {
	ix := newTestIndexer(t, newMemClient(t))
	ctx := context.Background()
	_, err := ix.BulkImport(ctx, []models.IndexDocument{
		{ID: "1", FullName: "Fatima Khatun", CreatedAt: 1},
		{ID: "2", FullName: "Fatima Khatun", CreatedAt: 2},
		{ID: "3", FullName: "Farhana Islam", CreatedAt: 3},
		{ID: "4", FullName: "Ayesha Begum", CreatedAt: 4},
	})
	require.NoError(t, err)

	svc := NewSearchService(ix, nil, nil, 0)

	out, err := svc.Suggestions(ctx, "fa", "", 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"Farhana Islam", "Fatima Khatun"}, out)

	out, err = svc.Suggestions(ctx, "f", "", 0)
	require.NoError(t, err)
	assert.Empty(t, out)

	_, err = svc.Suggestions(ctx, "fa", "guardianMobileNumber", 0)
	assert.ErrorIs(t, err, ErrInvalidSuggestionField)
}

func TestSuggestionsWithPunctuation(t *testing.T) {
	ix := newTestIndexer(t, newMemClient(t))
	ctx := context.Background()
	_, err := ix.BulkImport(ctx, []models.IndexDocument{
		{ID: "1", FullName: "Al-Amin Khan", CreatedAt: 1},
		{ID: "2", FullName: "Alam Chowdhury", CreatedAt: 2},
	})
	require.NoError(t, err)
	svc := NewSearchService(ix, nil, nil, 0)

	out, err := svc.Suggestions(ctx, "al-am", "", 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"Al-Amin Khan"}, out)
}

func TestPaginate(t *testing.T) {
	r := Paginate(0, 1, 20)
	assert.Zero(t, r.TotalPages)
	assert.False(t, r.HasNextPage)
	assert.False(t, r.HasPreviousPage)

	r = Paginate(41, 3, 20)
	assert.Equal(t, 3, r.TotalPages)
	assert.False(t, r.HasNextPage)
	assert.True(t, r.HasPreviousPage)
}

func TestFilterIgnoredKeepsOrder(t *testing.T) {
	items := []models.SearchResultItem{{ID: "a"}, {ID: "b"}, {ID: "c"}}
	assert.Equal(t, items, FilterIgnored(items, nil))
	assert.Equal(t, []models.SearchResultItem{{ID: "a"}, {ID: "c"}}, FilterIgnored(items, []string{"b", "zz"}))
}
