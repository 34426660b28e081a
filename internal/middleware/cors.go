package middleware

import (
	"time" // Preflight cache lifetime

	"github.com/gin-contrib/cors" // CORS middleware for gin
	"github.com/gin-gonic/gin"    // Gin web framework
)

// CORS allows browser calls from the configured origins. An empty list or
// a lone "*" opens the API to every origin without credentials.
func CORS(allowedOrigins []string) gin.HandlerFunc {
	corsConfig := cors.DefaultConfig()
	if len(allowedOrigins) == 0 || (len(allowedOrigins) == 1 && allowedOrigins[0] == "*") {
		corsConfig.AllowAllOrigins = true // Cookies and auth headers are never shared with "*"
	} else {
		corsConfig.AllowOrigins = allowedOrigins
		corsConfig.AllowCredentials = true // Only for origins listed explicitly
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"}
	corsConfig.AllowHeaders = []string{
		"Origin", "Content-Type", "Content-Length", "Accept",
		"Authorization", HeaderRequestID,
	}
	corsConfig.ExposeHeaders = []string{HeaderRequestID}
	corsConfig.MaxAge = 12 * time.Hour // Browsers may cache preflight answers
	return cors.New(corsConfig)
}
