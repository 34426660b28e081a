package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// User roles
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User statuses
const (
	UserDisabled = 0
	UserActive   = 1
)

// User Model
type User struct {
	ID                uint            `gorm:"primaryKey" json:"id"`                                            // Primary key
	Email             string          `gorm:"size:191;uniqueIndex;not null" json:"email"`                      // Login email, stored lower case
	Username          string          `gorm:"size:64" json:"username"`                                         // Display name
	Phone             string          `gorm:"size:32" json:"phone"`                                            // Optional phone number
	AvatarURL         string          `gorm:"size:512" json:"avatar_url"`                                      // Optional avatar link
	Password          string          `gorm:"not null" json:"-"`                                               // Hashed password
	Role              string          `gorm:"size:16;default:user" json:"role"`                                // Role: user or admin
	Status            int             `gorm:"not null" json:"status"`                                          // 0 disabled, 1 active
	ReferralCode      string          `gorm:"size:16;uniqueIndex" json:"referral_code"`                        // Code other users sign up with
	ReferrerID        *uint           `gorm:"index" json:"referrer_id"`                                        // User who referred this one
	Balance           decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"balance"`            // Account balance
	CommissionBalance decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"commission_balance"` // Settled, withdrawable commission
	LastLoginAt       *time.Time      `json:"last_login_at"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

// IsAdmin reports whether the user carries the admin role
func (u *User) IsAdmin() bool { return u.Role == RoleAdmin }

// IsActive reports whether the account may sign in
func (u *User) IsActive() bool { return u.Status == UserActive }
