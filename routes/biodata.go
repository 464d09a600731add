package routes

import (
	"errors"
	"net/http"

	"biodata-platform/middleware"
	"biodata-platform/models"
	"biodata-platform/services"
	"biodata-platform/utils"

	"github.com/gin-gonic/gin"
)

const maxBiodataBody = 256 << 10

func SetupBiodataRoutes(router *gin.Engine, biodataService *services.BiodataService, authMiddleware *middleware.AuthMiddleware) {
	biodata := router.Group("/biodata")

	own := biodata.Group("")
	own.Use(authMiddleware.RequireAuth())

	own.GET("/me", func(c *gin.Context) {
		b, err := biodataService.GetByUserID(c.Request.Context(), middleware.GetUserID(c))
		if errors.Is(err, services.ErrBiodataNotFound) {
			respondOK(c, nil)
			return
		}
		if err != nil {
			respondServiceError(c, err, "Failed to load biodata")
			return
		}
		respondOK(c, b)
	})

	own.POST("", middleware.RequestSizeLimit(maxBiodataBody), func(c *gin.Context) {
		var req models.Biodata
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.RespondWithBadRequest(c, "Invalid biodata", gin.H{"error": err.Error()})
			return
		}

		b, err := biodataService.Create(c.Request.Context(), middleware.GetUserID(c), req)
		if err != nil {
			respondServiceError(c, err, "Failed to create biodata")
			return
		}
		c.JSON(http.StatusCreated, gin.H{
			"success": true,
			"message": "Biodata created successfully",
			"data":    b,
		})
	})

	own.PUT("/:id", middleware.RequestSizeLimit(maxBiodataBody), func(c *gin.Context) {
		var req models.Biodata
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.RespondWithBadRequest(c, "Invalid biodata", gin.H{"error": err.Error()})
			return
		}

		b, err := biodataService.Update(c.Request.Context(), middleware.GetUserID(c), c.Param("id"), req)
		if err != nil {
			respondServiceError(c, err, "Failed to update biodata")
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"message": "Biodata updated successfully",
			"data":    b,
		})
	})

	own.DELETE("/me", func(c *gin.Context) {
		id, err := biodataService.DeleteByUser(c.Request.Context(), middleware.GetUserID(c))
		if err != nil {
			respondServiceError(c, err, "Failed to delete biodata")
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"message": "Biodata deleted successfully",
			"data":    gin.H{"id": id},
		})
	})

	biodata.GET("/:id", func(c *gin.Context) {
		b, err := biodataService.GetByID(c.Request.Context(), c.Param("id"))
		if err != nil {
			respondServiceError(c, err, "Failed to load biodata")
			return
		}
		respondOK(c, b)
	})
}
