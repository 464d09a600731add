package routes

import (
	"errors"
	"net/http"

	"biodata-platform/internal/logger"
	"biodata-platform/internal/searchindex"
	"biodata-platform/middleware"
	"biodata-platform/services"
	"biodata-platform/utils"

	"github.com/gin-gonic/gin"
)

// respondServiceError maps service sentinels onto HTTP answers. Anything not
// recognised is logged and reported as an internal error with fallback.
func respondServiceError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, services.ErrBiodataNotFound):
		utils.RespondWithNotFound(c, "Biodata not found")
	case errors.Is(err, services.ErrUserNotFound):
		utils.RespondWithNotFound(c, "User not found")
	case errors.Is(err, services.ErrBiodataExists):
		utils.RespondWithConflict(c, "You already have a biodata")
	case errors.Is(err, services.ErrAlreadyInFavorites):
		utils.RespondWithConflict(c, "Already in favorites")
	case errors.Is(err, services.ErrAlreadyIgnored):
		utils.RespondWithConflict(c, "Already in ignore list")
	case errors.Is(err, services.ErrNotBiodataOwner):
		utils.RespondWithForbidden(c, "You can only change your own biodata")
	case errors.Is(err, services.ErrInvalidCount), errors.Is(err, services.ErrInvalidSuggestionField):
		utils.RespondWithBadRequest(c, err.Error(), nil)
	case errors.Is(err, searchindex.ErrUnavailable):
		utils.RespondWithServiceUnavailable(c, services.MsgSearchUnavailable, nil)
	default:
		logger.Error(fallback, "error", err, "path", c.FullPath(), "request_id", middleware.GetRequestID(c))
		utils.RespondWithInternalError(c, fallback, gin.H{"error": err.Error()})
	}
}

func respondOK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, gin.H{"success": true, "data": data})
}
