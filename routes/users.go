package routes

import (
	"context"
	"net/http"

	"biodata-platform/middleware"
	"biodata-platform/models"
	"biodata-platform/services"
	"biodata-platform/utils"

	"github.com/gin-gonic/gin"
)

// listOps are the per-list operations the favorites and ignored routes share.
type listOps struct {
	name    string
	add     func(ctx context.Context, userID, biodataID string) error
	remove  func(ctx context.Context, userID, biodataID string) error
	ids     func(ctx context.Context, userID string) ([]string, error)
	details func(ctx context.Context, userID string) ([]models.Biodata, error)
	has     func(ctx context.Context, userID, biodataID string) (bool, error)
}

func SetupUserRoutes(router *gin.Engine, userService *services.UserService, authMiddleware *middleware.AuthMiddleware) {
	me := router.Group("/users/me")
	me.Use(authMiddleware.RequireAuth())

	me.PUT("", func(c *gin.Context) {
		var req models.UpsertUserRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.RespondWithBadRequest(c, "Invalid user data", gin.H{"error": err.Error()})
			return
		}
		if req.Email == "" {
			if claims := middleware.GetClaims(c); claims != nil {
				req.Email = claims.Email
			}
		}

		u, err := userService.Upsert(c.Request.Context(), middleware.GetUserID(c), req)
		if err != nil {
			respondServiceError(c, err, "Failed to save user")
			return
		}
		respondOK(c, u)
	})

	mountList(me.Group("/favorites"), listOps{
		name:    "favorites",
		add:     userService.AddFavorite,
		remove:  userService.RemoveFavorite,
		ids:     userService.Favorites,
		details: userService.FavoriteDetails,
		has:     userService.IsFavorite,
	})

	mountList(me.Group("/ignored"), listOps{
		name:    "ignore list",
		add:     userService.AddIgnored,
		remove:  userService.RemoveIgnored,
		ids:     userService.GetIgnoreList,
		details: userService.IgnoredDetails,
		has:     userService.IsIgnored,
	})
}

func mountList(g *gin.RouterGroup, ops listOps) {
	g.GET("", func(c *gin.Context) {
		ids, err := ops.ids(c.Request.Context(), middleware.GetUserID(c))
		if err != nil {
			respondServiceError(c, err, "Failed to load "+ops.name)
			return
		}
		respondOK(c, ids)
	})

	g.GET("/details", func(c *gin.Context) {
		list, err := ops.details(c.Request.Context(), middleware.GetUserID(c))
		if err != nil {
			respondServiceError(c, err, "Failed to load "+ops.name)
			return
		}
		respondOK(c, list)
	})

	g.GET("/:biodataId/status", func(c *gin.Context) {
		ok, err := ops.has(c.Request.Context(), middleware.GetUserID(c), c.Param("biodataId"))
		if err != nil {
			respondServiceError(c, err, "Failed to check "+ops.name)
			return
		}
		respondOK(c, gin.H{"biodataId": c.Param("biodataId"), "present": ok})
	})

	g.POST("/:biodataId", func(c *gin.Context) {
		if err := ops.add(c.Request.Context(), middleware.GetUserID(c), c.Param("biodataId")); err != nil {
			respondServiceError(c, err, "Failed to update "+ops.name)
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "message": "Added to " + ops.name})
	})

	g.DELETE("/:biodataId", func(c *gin.Context) {
		if err := ops.remove(c.Request.Context(), middleware.GetUserID(c), c.Param("biodataId")); err != nil {
			respondServiceError(c, err, "Failed to update "+ops.name)
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "message": "Removed from " + ops.name})
	})
}
