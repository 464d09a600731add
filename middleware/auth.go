package middleware

import (
	"crypto/subtle"
	"net/http"

	"biodata-platform/internal/config"
	"biodata-platform/internal/logger"
	"biodata-platform/utils"

	"github.com/gin-gonic/gin"
)

const (
	AdminKeyHeader = "x-admin-key"

	ctxUserID = "user_id"
	ctxClaims = "claims"
)

type AuthMiddleware struct {
	config *config.Config
}

func NewAuthMiddleware(cfg *config.Config) *AuthMiddleware {
	return &AuthMiddleware{config: cfg}
}

func (a *AuthMiddleware) tokenFrom(c *gin.Context) string {
	if token := utils.ExtractTokenFromHeader(c.GetHeader("Authorization")); token != "" {
		return token
	}
	if cookie, err := c.Cookie("access_token"); err == nil {
		return cookie
	}
	return ""
}

// RequireAuth rejects requests without a valid bearer token.
func (a *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := a.tokenFrom(c)
		if tokenString == "" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error_code": "unauthorized",
				"message":    "Authentication token is required",
			})
			c.Abort()
			return
		}

		claims, err := utils.ValidateJWT(tokenString, a.config.AuthJWTSecret)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error_code": "invalid_token",
				"message":    "Your session has expired. Please log in again.",
				"details":    gin.H{"error": err.Error()},
			})
			c.Abort()
			return
		}

		c.Set(ctxUserID, claims.AccountID())
		c.Set(ctxClaims, claims)
		c.Next()
	}
}

// OptionalAuth identifies the caller when a valid token is present and lets
// anonymous requests through otherwise.
func (a *AuthMiddleware) OptionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if tokenString := a.tokenFrom(c); tokenString != "" {
			if claims, err := utils.ValidateJWT(tokenString, a.config.AuthJWTSecret); err == nil {
				c.Set(ctxUserID, claims.AccountID())
				c.Set(ctxClaims, claims)
			} else {
				logger.Debug("Ignoring invalid optional token", "error", err)
			}
		}
		c.Next()
	}
}

// AdminKey guards the admin routes. Outside production the check is skipped
// unless a key is configured.
func (a *AuthMiddleware) AdminKey() gin.HandlerFunc {
	return func(c *gin.Context) {
		expected := a.config.AdminSecretKey
		if expected == "" && !a.config.IsProduction() {
			c.Next()
			return
		}

		provided := c.GetHeader(AdminKeyHeader)
		if expected == "" || subtle.ConstantTimeCompare([]byte(provided), []byte(expected)) != 1 {
			logger.Warn("Rejected admin request", "path", c.FullPath(), "ip", c.ClientIP())
			utils.RespondWithUnauthorized(c, "Unauthorized")
			c.Abort()
			return
		}
		c.Next()
	}
}

// GetUserID returns the authenticated user id, or "" for anonymous callers.
func GetUserID(c *gin.Context) string {
	if id, exists := c.Get(ctxUserID); exists {
		if str, ok := id.(string); ok {
			return str
		}
	}
	return ""
}

func GetClaims(c *gin.Context) *utils.Claims {
	if v, exists := c.Get(ctxClaims); exists {
		if claims, ok := v.(*utils.Claims); ok {
			return claims
		}
	}
	return nil
}
