package api

import (
	"errors"   // Error inspection
	"net/http" // HTTP status codes
	"strings"  // String manipulation
	"time"     // Token lifetime

	"xpanel/internal/domain"     // Importing domain models
	"xpanel/internal/middleware" // Context helpers
	"xpanel/internal/utils"      // Utility functions

	"github.com/gin-gonic/gin"   // Gin web framework
	"github.com/sirupsen/logrus" // Logging library
	"golang.org/x/crypto/bcrypt" // Password hashing
	"gorm.io/gorm"               // GORM ORM library
)

// RegisterRequest is the sign-up payload
type RegisterRequest struct {
	Email        string `json:"email" binding:"required,email"`
	Password     string `json:"password" binding:"required,min=6,max=72"`
	Username     string `json:"username" binding:"max=64"`
	ReferralCode string `json:"referral_code" binding:"max=16"`
}

// LoginRequest is shared by user and admin login
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// AuthResponse carries the issued token and the signed-in user
type AuthResponse struct {
	Token string       `json:"token"`
	User  *domain.User `json:"user"`
}

// TokenIssuer signs tokens for authenticated users
type TokenIssuer struct {
	Secret string
	TTL    time.Duration
}

func (ti TokenIssuer) issue(u *domain.User) (string, error) {
	return utils.GenerateJWT(u.ID, u.Email, u.Role, ti.Secret, ti.TTL)
}

func normalizeEmail(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

// uniqueReferralCode draws codes until one is free
func uniqueReferralCode(db *gorm.DB) (string, error) {
	for i := 0; i < 5; i++ {
		code, err := utils.NewReferralCode()
		if err != nil {
			return "", err
		}
		var n int64
		if err := db.Model(&domain.User{}).Where("referral_code = ?", code).Count(&n).Error; err != nil {
			return "", err
		}
		if n == 0 {
			return code, nil
		}
	}
	return "", errors.New("could not allocate referral code")
}

// RegisterHandler creates an account, optionally linked to a referrer
func RegisterHandler(db *gorm.DB, ti TokenIssuer) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req RegisterRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, http.StatusBadRequest, "A valid email and a password of at least 6 characters are required")
			return
		}
		tx := db.WithContext(c.Request.Context())
		email := normalizeEmail(req.Email)

		var exists int64
		if err := tx.Model(&domain.User{}).Where("email = ?", email).Count(&exists).Error; err != nil {
			handleError(c, err, "Registration failed")
			return
		}
		if exists > 0 {
			handleError(c, domain.ErrEmailTaken, "")
			return
		}

		var referrerID *uint
		if code := strings.ToUpper(strings.TrimSpace(req.ReferralCode)); code != "" {
			var referrer domain.User
			err := tx.Where("referral_code = ? AND status = ?", code, domain.UserActive).First(&referrer).Error
			if err != nil {
				handleError(c, domain.ErrBadReferral, "")
				return
			}
			referrerID = &referrer.ID
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			handleError(c, err, "Failed to hash password")
			return
		}
		code, err := uniqueReferralCode(tx)
		if err != nil {
			handleError(c, err, "Registration failed")
			return
		}
		username := strings.TrimSpace(req.Username)
		if username == "" {
			username = strings.SplitN(email, "@", 2)[0]
		}
		user := domain.User{
			Email:        email,
			Username:     username,
			Password:     string(hash),
			Role:         domain.RoleUser,
			Status:       domain.UserActive,
			ReferralCode: code,
			ReferrerID:   referrerID,
		}
		if err := tx.Create(&user).Error; err != nil {
			// a concurrent sign-up with the same email loses on the unique index
			handleError(c, domain.ErrEmailTaken, "")
			return
		}
		token, err := ti.issue(&user)
		if err != nil {
			handleError(c, err, "Failed to generate token")
			return
		}
		logrus.WithFields(logrus.Fields{"user_id": user.ID, "referred": referrerID != nil}).Info("User registered")
		respondCreated(c, "Registration successful", AuthResponse{Token: token, User: &user})
	}
}

// authenticate checks credentials and account status
func authenticate(db *gorm.DB, req LoginRequest) (*domain.User, error) {
	var user domain.User
	if err := db.Where("email = ?", normalizeEmail(req.Email)).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrBadPassword
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return nil, domain.ErrBadPassword
	}
	if !user.IsActive() {
		return nil, domain.ErrUserDisabled
	}
	return &user, nil
}

func loginHandler(db *gorm.DB, ti TokenIssuer, adminOnly bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req LoginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, http.StatusBadRequest, "Email and password are required")
			return
		}
		tx := db.WithContext(c.Request.Context())
		user, err := authenticate(tx, req)
		if err != nil {
			handleError(c, err, "Login failed")
			return
		}
		if adminOnly && !user.IsAdmin() {
			respondError(c, http.StatusForbidden, "Admin access required")
			return
		}
		now := time.Now().UTC()
		if err := tx.Model(user).UpdateColumn("last_login_at", now).Error; err != nil {
			logrus.WithError(err).WithField("user_id", user.ID).Warn("Failed to record login time")
		}
		user.LastLoginAt = &now
		token, err := ti.issue(user)
		if err != nil {
			handleError(c, err, "Failed to generate token")
			return
		}
		respondOK(c, "Login successful", AuthResponse{Token: token, User: user})
	}
}

// LoginHandler authenticates a user and returns a JWT token
func LoginHandler(db *gorm.DB, ti TokenIssuer) gin.HandlerFunc {
	return loginHandler(db, ti, false)
}

// AdminLoginHandler is LoginHandler restricted to admins
func AdminLoginHandler(db *gorm.DB, ti TokenIssuer) gin.HandlerFunc {
	return loginHandler(db, ti, true)
}

// MeHandler returns the current user from the database
func MeHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var user domain.User
		err := db.WithContext(c.Request.Context()).First(&user, middleware.UserID(c)).Error
		if err != nil || !user.IsActive() {
			respondError(c, http.StatusUnauthorized, "Account not found or disabled")
			return
		}
		respondOK(c, "", user)
	}
}
