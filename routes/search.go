package routes

import (
	"net/http"
	"strconv"

	"biodata-platform/internal/config"
	"biodata-platform/middleware"
	"biodata-platform/models"
	"biodata-platform/services"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// Query parameters that shape the search instead of filtering it.
var searchControlParams = map[string]bool{
	"q":         true,
	"page":      true,
	"pageSize":  true,
	"sortBy":    true,
	"sortOrder": true,
}

func SetupSearchRoutes(
	router *gin.Engine,
	cfg *config.Config,
	rdb *redis.Client,
	searchService *services.SearchService,
	statsService *services.StatsService,
	authMiddleware *middleware.AuthMiddleware,
) {
	search := router.Group("/search")
	search.Use(middleware.RateLimitMiddleware(rdb, cfg))

	search.GET("", authMiddleware.OptionalAuth(), func(c *gin.Context) {
		req := parseSearchRequest(c)
		resp := searchService.Search(c.Request.Context(), req)

		status := http.StatusOK
		if !resp.Success {
			status = http.StatusInternalServerError
			if resp.Message == services.MsgSearchUnavailable {
				status = http.StatusServiceUnavailable
			}
		}
		c.JSON(status, resp)
	})

	search.GET("/suggestions", func(c *gin.Context) {
		limit, _ := strconv.Atoi(c.Query("limit"))
		out, err := searchService.Suggestions(c.Request.Context(), c.Query("q"), c.Query("field"), limit)
		if err != nil {
			respondServiceError(c, err, "Failed to load suggestions")
			return
		}
		respondOK(c, out)
	})

	stats := router.Group("/stats")

	stats.GET("", func(c *gin.Context) {
		s, err := statsService.PlatformStatistics(c.Request.Context())
		if err != nil {
			respondServiceError(c, err, "Failed to load statistics")
			return
		}
		respondOK(c, s)
	})

	stats.GET("/popular-filters", func(c *gin.Context) {
		pf, err := statsService.PopularFilters(c.Request.Context())
		if err != nil {
			respondServiceError(c, err, "Failed to load popular filters")
			return
		}
		respondOK(c, pf)
	})
}

// parseSearchRequest reads every non-control query parameter as a filter.
// Malformed page numbers fall back to the defaults.
func parseSearchRequest(c *gin.Context) models.SearchRequest {
	query := c.Request.URL.Query()
	filters := models.SearchFilters{}
	for key, values := range query {
		if searchControlParams[key] || len(values) == 0 {
			continue
		}
		filters[key] = values[0]
	}

	page, _ := strconv.Atoi(query.Get("page"))
	pageSize, _ := strconv.Atoi(query.Get("pageSize"))

	return models.SearchRequest{
		Filters:   filters,
		Query:     query.Get("q"),
		Page:      page,
		PageSize:  pageSize,
		SortBy:    query.Get("sortBy"),
		SortOrder: query.Get("sortOrder"),
		UserID:    middleware.GetUserID(c),
	}
}
