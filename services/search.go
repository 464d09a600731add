package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"
	"unicode/utf8"

	"biodata-platform/internal/logger"
	"biodata-platform/internal/searchindex"
	"biodata-platform/internal/telemetry"
	"biodata-platform/models"
	"biodata-platform/utils"
)

const (
	MsgSearchFailed      = "Failed to search biodata."
	MsgSearchUnavailable = "Search service unavailable. Please try again later."

	minSuggestionLength    = 2
	defaultSuggestionLimit = 10
	maxSuggestionLimit     = 50
)

var ErrInvalidSuggestionField = errors.New("field does not support suggestions")

var suggestionFields = map[string]bool{
	"fullName":        true,
	"occupation":      true,
	"profession":      true,
	"presentDistrict": true,
	"presentDivision": true,
	"location":        true,
	"address":         true,
}

// IgnoreListProvider returns the biodata ids a user asked not to see.
type IgnoreListProvider interface {
	GetIgnoreList(ctx context.Context, userID string) ([]string, error)
}

type SearchService struct {
	indexer *Indexer
	ignore  IgnoreListProvider
	metrics *telemetry.Metrics
	timeout time.Duration
}

func NewSearchService(indexer *Indexer, ignore IgnoreListProvider, metrics *telemetry.Metrics, timeout time.Duration) *SearchService {
	return &SearchService{
		indexer: indexer,
		ignore:  ignore,
		metrics: metrics,
		timeout: timeout,
	}
}

// Search runs a filtered search and shapes the page for the caller. It never
// returns an error: failures come back as Success=false with no data.
//
// TotalCount and TotalPages are the index's numbers before ignored profiles are
// removed, so a page can hold fewer items than the count implies.
func (s *SearchService) Search(ctx context.Context, req models.SearchRequest) models.SearchResponse {
	start := time.Now()
	params := BuildSearchParams(req)

	searchCtx, cancel := utils.WithCustomTimeout(ctx, s.timeout)
	defer cancel()

	res, err := s.indexer.Search(searchCtx, params)
	if err != nil {
		logger.Error("Search failed", "error", err, "filter_by", params.FilterBy(), "q", params.Q)
		s.record(false, start)
		return failedSearch(params.Page, err)
	}

	items := ProjectHits(res.Hits)
	if req.UserID != "" && len(items) > 0 {
		items = s.dropIgnored(searchCtx, req.UserID, items)
	}

	resp := Paginate(res.Found, params.Page, params.PerPage)
	resp.Success = true
	resp.Data = items
	resp.Facets = convertFacets(res.Facets)
	resp.FilterBy = params.FilterBy()

	logger.Debug("Search completed", "found", res.Found, "returned", len(items), "filter_by", resp.FilterBy, "took", res.Took)
	s.record(true, start)
	return resp
}

// dropIgnored removes the user's ignored profiles. A failing lookup keeps
// every item: search stays available even if ignored profiles leak through.
func (s *SearchService) dropIgnored(ctx context.Context, userID string, items []models.SearchResultItem) []models.SearchResultItem {
	if s.ignore == nil {
		return items
	}
	ignored, err := s.ignore.GetIgnoreList(ctx, userID)
	if err != nil {
		logger.Warn("Ignore list lookup failed, returning unfiltered results", "user_id", userID, "error", err)
		return items
	}
	filtered := FilterIgnored(items, ignored)
	if s.metrics != nil {
		s.metrics.RecordIgnoredFiltered(len(items) - len(filtered))
	}
	return filtered
}

func (s *SearchService) record(success bool, start time.Time) {
	if s.metrics != nil {
		s.metrics.RecordSearch(success, time.Since(start))
	}
}

// Suggestions returns distinct values of field that start with q.
func (s *SearchService) Suggestions(ctx context.Context, q, field string, limit int) ([]string, error) {
	q = strings.TrimSpace(q)
	if utf8.RuneCountInString(q) < minSuggestionLength {
		return []string{}, nil
	}
	if field == "" {
		field = "fullName"
	}
	if !suggestionFields[field] {
		return nil, fmt.Errorf("%w: %s", ErrInvalidSuggestionField, field)
	}
	if limit <= 0 {
		limit = defaultSuggestionLimit
	}
	limit = min(limit, maxSuggestionLimit)

	searchCtx, cancel := utils.WithCustomTimeout(ctx, s.timeout)
	defer cancel()

	res, err := s.indexer.Search(searchCtx, searchindex.SearchParams{
		Q:       q,
		QueryBy: []string{field},
		Prefix:  true,
		Sort:    searchindex.SortField{Field: "createdAt", Desc: true},
		Page:    1,
		PerPage: limit,
	})
	if err != nil {
		return nil, fmt.Errorf("suggestions: %w", err)
	}

	seen := make(map[string]bool, len(res.Hits))
	out := make([]string, 0, len(res.Hits))
	for _, h := range res.Hits {
		v := docString(h.Document, field)
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out, nil
}

// ProjectHits maps index hits to the public result shape.
func ProjectHits(hits []searchindex.Hit) []models.SearchResultItem {
	items := make([]models.SearchResultItem, 0, len(hits))
	for _, h := range hits {
		d := h.Document
		items = append(items, models.SearchResultItem{
			ID:            h.ID,
			DisplayName:   docString(d, "displayName"),
			FullName:      docString(d, "fullName"),
			Age:           docInt(d, "age"),
			Location:      docString(d, "location"),
			Occupation:    docString(d, "occupation"),
			MaritalStatus: docString(d, "maritalStatus"),
			Height:        docString(d, "height"),
			BiodataType:   docString(d, "biodataType"),
			Complexion:    docString(d, "complexion"),
			FamilyStatus:  docString(d, "familyStatus"),
		})
	}
	return items
}

// FilterIgnored drops items whose id is in ignored, keeping order.
func FilterIgnored(items []models.SearchResultItem, ignored []string) []models.SearchResultItem {
	if len(ignored) == 0 {
		return items
	}
	skip := make(map[string]struct{}, len(ignored))
	for _, id := range ignored {
		skip[id] = struct{}{}
	}
	kept := make([]models.SearchResultItem, 0, len(items))
	for _, it := range items {
		if _, ok := skip[it.ID]; !ok {
			kept = append(kept, it)
		}
	}
	return kept
}

// Paginate fills the pagination fields from the index total.
func Paginate(found, page, pageSize int) models.SearchResponse {
	totalPages := 0
	if pageSize > 0 {
		totalPages = int(math.Ceil(float64(found) / float64(pageSize)))
	}
	return models.SearchResponse{
		TotalCount:      found,
		CurrentPage:     page,
		TotalPages:      totalPages,
		HasNextPage:     page < totalPages,
		HasPreviousPage: page > 1,
	}
}

func failedSearch(page int, err error) models.SearchResponse {
	msg := MsgSearchFailed
	if errors.Is(err, searchindex.ErrUnavailable) ||
		errors.Is(err, searchindex.ErrCollectionNotFound) ||
		errors.Is(err, context.DeadlineExceeded) {
		msg = MsgSearchUnavailable
	}
	return models.SearchResponse{
		Success:     false,
		Message:     msg,
		Data:        []models.SearchResultItem{},
		CurrentPage: page,
	}
}

func convertFacets(in []searchindex.FacetCounts) []models.FacetCount {
	out := make([]models.FacetCount, 0, len(in))
	for _, f := range in {
		fc := models.FacetCount{FieldName: f.FieldName, Counts: make([]models.FacetValue, 0, len(f.Counts))}
		for _, c := range f.Counts {
			fc.Counts = append(fc.Counts, models.FacetValue{Value: c.Value, Count: c.Count})
		}
		out = append(out, fc)
	}
	return out
}

func docString(doc map[string]any, key string) string {
	if v, ok := doc[key].(string); ok {
		return v
	}
	return ""
}

func docInt(doc map[string]any, key string) int {
	switch v := doc[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	case int64:
		return int(v)
	}
	return 0
}
