package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"gemcase-backend/internal/services"
)

func AuthMiddleware(jwtService *services.JWTService) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		var tokenString string

		if authHeader != "" {
			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || parts[0] != "Bearer" {
				c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid authorization format"})
				c.Abort()
				return
			}
			tokenString = parts[1]
		} else {
			tokenString = c.Query("token")
			if tokenString == "" {
				c.JSON(http.StatusUnauthorized, gin.H{"error": "Authorization header required"})
				c.Abort()
				return
			}
		}

		claims, err := jwtService.ValidateToken(tokenString)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			c.Abort()
			return
		}

		c.Set("user_id", claims.UserID)
		c.Set("session_id", claims.SessionID)

		c.Next()
	}
}

// limitFor maps a mounted request path to its rate limit. Paths are matched
// against the routes as gin serves them, /api prefix included.
func limitFor(path string) (limit int, window time.Duration, ok bool) {
	switch {
	case strings.HasPrefix(path, "/api/cases/") && strings.HasSuffix(path, "/open"):
		return 30, time.Minute, true // 30 opens per minute
	case strings.HasPrefix(path, "/api/inventory/") && strings.HasSuffix(path, "/sell"):
		return 60, time.Minute, true
	case path == "/api/streak/claim":
		return 30, time.Minute, true
	case strings.HasPrefix(path, "/api/giveaways/") && strings.HasSuffix(path, "/enter"):
		return 30, time.Minute, true
	}
	return 0, 0, false
}

func RateLimitMiddleware(redisService *services.RedisService) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, exists := c.Get("user_id")
		if !exists {
			c.Next()
			return
		}

		path := c.Request.URL.Path
		limit, window, ok := limitFor(path)
		if !ok {
			c.Next()
			return
		}

		allowed, err := redisService.CheckRateLimit(userID.(int64), path, limit, window)
		if err != nil || !allowed {
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error":       "Rate limit exceeded",
				"retry_after": window.Seconds(),
			})
			c.Abort()
			return
		}

		c.Next()
	}
}
