// cors.go configures Cross-Origin Resource Sharing (CORS).
//
// The HTML form is served from the same origin as the API, so CORS only
// matters for a separately hosted frontend calling /api/v1.
package middleware

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// CORS returns configured CORS middleware.
func CORS(allowedOrigins []string) gin.HandlerFunc {
	return cors.New(cors.Config{
		AllowOrigins:  allowedOrigins,
		AllowMethods:  []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept"},
		ExposeHeaders: []string{"X-RateLimit-Limit", "X-RateLimit-Remaining", "Content-Disposition", "Content-Length"},
		MaxAge:        12 * time.Hour, // Cache preflight responses
	})
}
