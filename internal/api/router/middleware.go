package router

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/cuongbtq/marketplace-ledger/internal/api/handler"
	"github.com/cuongbtq/marketplace-ledger/internal/model"
	"github.com/gin-gonic/gin"
)

// ProfileHeader carries the caller's profile id on every authenticated route.
const ProfileHeader = "profile_id"

// ProfileLoader resolves a profile id to a full profile.
type ProfileLoader interface {
	GetProfileByID(ctx context.Context, profileID int64) (*model.Profile, error)
}

// ProfileAuth resolves the caller's profile from the profile_id header and
// stores it in the context. Unknown or missing profiles abort with 401; the
// engines downstream treat the resolved id as trusted input.
func ProfileAuth(loader ProfileLoader, logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := c.GetHeader(ProfileHeader)
		if raw == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing profile_id header"})
			return
		}

		profileID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "profile_id must be an integer"})
			return
		}

		profile, err := loader.GetProfileByID(c.Request.Context(), profileID)
		if err != nil {
			logger.Warn("Profile resolution failed",
				slog.Int64("profile_id", profileID),
				slog.String("error", err.Error()),
			)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unknown profile"})
			return
		}

		c.Set(handler.ProfileContextKey, profile)
		c.Next()
	}
}

// TimeoutMiddleware bounds how long a request may wait on store I/O. When
// the deadline fires mid-transaction the store rolls the unit back and the
// handler maps the error to 503.
func TimeoutMiddleware(timeout time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), timeout)
		defer cancel()

		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// LoggerMiddleware logs HTTP requests with slog.
func LoggerMiddleware(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		latency := time.Since(start)

		logger.Info("HTTP Request",
			slog.Int("status", c.Writer.Status()),
			slog.String("method", c.Request.Method),
			slog.String("path", path),
			slog.String("query", query),
			slog.String("ip", c.ClientIP()),
			slog.Duration("latency", latency),
			slog.Int("body_size", c.Writer.Size()),
		)

		if len(c.Errors) > 0 {
			for _, e := range c.Errors {
				logger.Error("Request error",
					slog.String("error", e.Error()),
					slog.Uint64("type", uint64(e.Type)),
				)
			}
		}
	}
}

// CORSMiddleware handles Cross-Origin Resource Sharing.
func CORSMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With, profile_id")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE, PATCH")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}
