package middleware

import (
	"net/http" // HTTP status codes

	"xpanel/internal/domain" // Importing domain models

	"github.com/gin-gonic/gin" // Gin web framework
	"gorm.io/gorm"             // GORM ORM library
)

// AdminOnlyMiddleware checks the user's role from the database on each
// request, so demoted or disabled admins lose access before their token expires.
func AdminOnlyMiddleware(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := UserID(c)
		if userID == 0 {
			abort(c, http.StatusUnauthorized, "Unauthorized")
			return
		}
		var user domain.User // Fetch user from database
		if err := db.WithContext(c.Request.Context()).First(&user, userID).Error; err != nil {
			abort(c, http.StatusForbidden, "Admin access required")
			return
		}
		if !user.IsAdmin() || !user.IsActive() {
			abort(c, http.StatusForbidden, "Admin access required")
			return
		}
		c.Set(CtxRole, user.Role)
		c.Next()
	}
}
