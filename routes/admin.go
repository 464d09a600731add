package routes

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"biodata-platform/internal/logger"
	"biodata-platform/internal/queue"
	"biodata-platform/middleware"
	"biodata-platform/services"
	"biodata-platform/utils"

	"github.com/gin-gonic/gin"
)

// AdminServices groups what the admin routes drive. Queue is nil when async
// resync is disabled.
type AdminServices struct {
	Biodata *services.BiodataService
	Indexer *services.Indexer
	Seed    *services.SeedService
	Export  *services.ExportService
	Queue   *queue.Client
}

func SetupAdminRoutes(router *gin.Engine, svc AdminServices, authMiddleware *middleware.AuthMiddleware) {
	admin := router.Group("/admin")
	admin.Use(authMiddleware.AdminKey())

	admin.POST("/sync", func(c *gin.Context) {
		if c.Query("async") == "true" {
			enqueueResync(c, svc.Queue)
			return
		}

		ctx, cancel := utils.WithLongTimeout(c.Request.Context())
		defer cancel()

		res, err := svc.Biodata.Resync(ctx)
		if err != nil {
			logger.Error("Resync failed", "error", err)
			body := gin.H{
				"success": false,
				"message": err.Error(),
				"error":   resyncErrorMessage(err),
			}
			if res != nil {
				body["totalSynced"] = res.Indexed
				body["total"] = res.Total
			}
			c.JSON(http.StatusInternalServerError, body)
			return
		}

		message := "Successfully synced biodata to the search index"
		if res.Total == 0 {
			message = "No biodata found to sync"
		}
		c.JSON(http.StatusOK, gin.H{
			"success":           true,
			"message":           message,
			"totalSynced":       res.Indexed,
			"total":             res.Total,
			"collectionCreated": res.CollectionCreated,
		})
	})

	admin.GET("/collections", func(c *gin.Context) {
		collections, err := svc.Indexer.ListCollections(c.Request.Context())
		if err != nil {
			logger.Error("Failed to list collections", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{
				"success": false,
				"error":   services.ClassifyIndexError(err),
				"details": err.Error(),
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "collections": collections})
	})

	admin.POST("/collections", func(c *gin.Context) {
		info, created, err := svc.Indexer.CreateCollection(c.Request.Context())
		if err != nil {
			logger.Error("Collection creation failed", "collection", svc.Indexer.Collection(), "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{
				"success": false,
				"error":   services.ClassifyIndexError(err),
				"details": err.Error(),
			})
			return
		}

		message := "Collection already exists"
		if created {
			message = "Collection created successfully"
		}
		c.JSON(http.StatusOK, gin.H{
			"success":    true,
			"message":    message,
			"created":    created,
			"collection": info,
		})
	})

	testData := admin.Group("/test-data")

	testData.POST("", func(c *gin.Context) {
		count := services.DefaultInjectCount
		if raw := c.Query("count"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil {
				utils.RespondWithBadRequest(c, services.ErrInvalidCount.Error(), gin.H{"count": raw})
				return
			}
			count = n
		}

		ctx, cancel := utils.WithLongTimeout(c.Request.Context())
		defer cancel()

		res, err := svc.Seed.Inject(ctx, count)
		if err != nil {
			respondServiceError(c, err, "Failed to inject test data")
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"message": fmt.Sprintf("Successfully injected %d test biodata", res.Injected),
			"data":    res,
		})
	})

	testData.DELETE("", func(c *gin.Context) {
		ctx, cancel := utils.WithLongTimeout(c.Request.Context())
		defer cancel()

		n, err := svc.Seed.Cleanup(ctx)
		if err != nil {
			respondServiceError(c, err, "Failed to clean up test data")
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"message": fmt.Sprintf("Successfully deleted %d test biodata", n),
			"deleted": n,
		})
	})

	testData.GET("/stats", func(c *gin.Context) {
		stats, err := svc.Seed.Stats(c.Request.Context())
		if err != nil {
			respondServiceError(c, err, "Failed to load test data stats")
			return
		}
		respondOK(c, stats)
	})

	admin.GET("/biodata/export", func(c *gin.Context) {
		ctx, cancel := utils.WithLongTimeout(c.Request.Context())
		defer cancel()

		out, err := svc.Export.ExportBiodata(ctx)
		if err != nil {
			respondServiceError(c, err, "Failed to export biodata")
			return
		}
		c.Header("Content-Disposition", "attachment; filename="+out.Filename)
		c.Header("X-Record-Count", strconv.Itoa(out.RecordCount))
		c.Data(http.StatusOK, services.XLSXContentType, out.Data)
	})
}

// resyncErrorMessage blames the index only for failures that came from it.
func resyncErrorMessage(err error) string {
	if errors.Is(err, services.ErrResyncLoad) {
		return "Failed to load biodata from the profile store"
	}
	return services.ClassifyIndexError(err)
}

func enqueueResync(c *gin.Context, q *queue.Client) {
	if q == nil {
		utils.RespondWithServiceUnavailable(c, "Async resync is not enabled", nil)
		return
	}

	taskID, err := q.EnqueueResync(c.Request.Context(), "admin:"+c.ClientIP())
	if errors.Is(err, queue.ErrResyncPending) {
		utils.RespondWithConflict(c, err.Error())
		return
	}
	if err != nil {
		respondServiceError(c, err, "Failed to queue resync")
		return
	}
	c.JSON(http.StatusAccepted, gin.H{
		"success": true,
		"message": "Resync queued",
		"taskId":  taskID,
	})
}
