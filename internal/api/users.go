package api

import (
	"net/http" // HTTP status codes
	"strings"  // String manipulation

	"xpanel/internal/domain"     // Importing domain models
	"xpanel/internal/middleware" // Context helpers
	"xpanel/internal/utils"      // Utility functions

	"github.com/gin-gonic/gin"   // Gin web framework
	"github.com/sirupsen/logrus" // Logging library
	"golang.org/x/crypto/bcrypt" // Password hashing
	"gorm.io/gorm"               // GORM ORM library
)

// ProfileRequest updates optional profile fields; nil leaves a field as is
type ProfileRequest struct {
	Username  *string `json:"username" binding:"omitempty,max=64"`
	Phone     *string `json:"phone" binding:"omitempty,max=32"`
	AvatarURL *string `json:"avatar_url" binding:"omitempty,max=512"`
}

// GetProfileHandler returns the current user
func GetProfileHandler(db *gorm.DB) gin.HandlerFunc {
	return MeHandler(db)
}

// UpdateProfileHandler edits username, phone and avatar
func UpdateProfileHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req ProfileRequest
		if err := c.ShouldBindJSON(&req); err != nil { // Bind JSON request
			badRequest(c)
			return
		}
		updates := map[string]any{}
		if req.Username != nil {
			updates["username"] = strings.TrimSpace(*req.Username)
		}
		if req.Phone != nil {
			updates["phone"] = strings.TrimSpace(*req.Phone)
		}
		if req.AvatarURL != nil {
			u := strings.TrimSpace(*req.AvatarURL)
			if u != "" && !strings.HasPrefix(u, "https://") && !strings.HasPrefix(u, "http://") {
				respondError(c, http.StatusBadRequest, "avatar_url must be an http(s) URL")
				return
			}
			updates["avatar_url"] = u
		}
		if len(updates) == 0 {
			respondError(c, http.StatusBadRequest, "Nothing to update")
			return
		}
		tx := db.WithContext(c.Request.Context())
		var user domain.User
		if err := tx.First(&user, middleware.UserID(c)).Error; err != nil {
			handleError(c, domain.ErrUserNotFound, "")
			return
		}
		if err := tx.Model(&user).Updates(updates).Error; err != nil {
			handleError(c, err, "Failed to update profile")
			return
		}
		respondOK(c, "Profile updated", user)
	}
}

// ChangePasswordRequest requires the current password
type ChangePasswordRequest struct {
	OldPassword string `json:"old_password" binding:"required"`
	NewPassword string `json:"new_password" binding:"required,min=6,max=72"`
}

// ChangePasswordHandler replaces the user's password
func ChangePasswordHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req ChangePasswordRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, http.StatusBadRequest, "old_password and a new_password of at least 6 characters are required")
			return
		}
		tx := db.WithContext(c.Request.Context())
		var user domain.User
		if err := tx.First(&user, middleware.UserID(c)).Error; err != nil {
			handleError(c, domain.ErrUserNotFound, "")
			return
		}
		if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.OldPassword)); err != nil { // Verify the current password
			respondError(c, http.StatusBadRequest, "Current password is incorrect")
			return
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost) // Hash the new password
		if err != nil {
			handleError(c, err, "Failed to hash password")
			return
		}
		if err := tx.Model(&user).Update("password", string(hash)).Error; err != nil {
			handleError(c, err, "Failed to update password")
			return
		}
		logrus.WithField("user_id", user.ID).Info("Password changed")
		respondOK(c, "Password updated", nil)
	}
}

// AdminListUsersHandler pages through users with search and status filter
func AdminListUsersHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		p := utils.ParsePage(c) // Page and limit from the query
		q := db.WithContext(c.Request.Context()).Model(&domain.User{})
		if s := strings.TrimSpace(c.Query("search")); s != "" {
			q = q.Where("email LIKE ? OR username LIKE ?", like(s), like(s))
		}
		if st := c.Query("status"); st != "" {
			q = q.Where("status = ?", st)
		}
		if role := c.Query("role"); role != "" {
			q = q.Where("role = ?", role)
		}
		var users []domain.User
		total, err := listPage(q, p, "created_at DESC, id DESC", &users)
		if err != nil {
			handleError(c, err, "Failed to fetch users")
			return
		}
		respondPage(c, users, total, p)
	}
}

// RecentUsersHandler returns the ten newest accounts
func RecentUsersHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var users []domain.User
		if err := db.WithContext(c.Request.Context()).Order("created_at DESC").Order("id DESC").
			Limit(10).Find(&users).Error; err != nil {
			handleError(c, err, "Failed to fetch users")
			return
		}
		respondOK(c, "", users)
	}
}

// UserStatusRequest enables or disables an account
type UserStatusRequest struct {
	Status *int `json:"status" binding:"required,oneof=0 1"`
}

// UpdateUserStatusHandler enables or disables a user
func UpdateUserStatusHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := idParam(c, "id")
		if !ok {
			return
		}
		var req UserStatusRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, http.StatusBadRequest, "status must be 0 or 1")
			return
		}
		if id == middleware.UserID(c) && *req.Status == domain.UserDisabled {
			respondError(c, http.StatusBadRequest, "You cannot disable your own account")
			return
		}
		res := db.WithContext(c.Request.Context()).Model(&domain.User{}).Where("id = ?", id).Update("status", *req.Status)
		if res.Error != nil {
			handleError(c, res.Error, "Failed to update user")
			return
		}
		if res.RowsAffected == 0 {
			handleError(c, domain.ErrNotFound, "")
			return
		}
		logrus.WithFields(logrus.Fields{"user_id": id, "status": *req.Status, "by": middleware.UserID(c)}).Info("User status changed")
		respondOK(c, "User status updated", nil)
	}
}
