package domain

import "time"

// Subscription statuses
const (
	SubscriptionInactive = 0
	SubscriptionActive   = 1
	SubscriptionExpired  = 2
)

// GiB is the byte size of one traffic gigabyte
const GiB int64 = 1 << 30

// UserSubscription is a user's entitlement window
type UserSubscription struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	UserID       uint      `gorm:"not null;index" json:"user_id"`
	PlanID       uint      `gorm:"not null;index" json:"plan_id"`
	Token        string    `gorm:"size:64;uniqueIndex;not null" json:"token"` // Feed token for clients
	Status       int       `gorm:"not null;index" json:"status"`
	StartDate    time.Time `json:"start_date"`
	EndDate      time.Time `gorm:"index" json:"end_date"`
	TrafficUsed  int64     `gorm:"not null" json:"traffic_used"`  // Bytes
	TrafficTotal int64     `gorm:"not null" json:"traffic_total"` // Bytes
	DeviceLimit  int       `gorm:"not null" json:"device_limit"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`

	Plan *Plan `gorm:"foreignKey:PlanID" json:"plan,omitempty"`
}

// ActiveAt reports whether the subscription grants access at t
func (s *UserSubscription) ActiveAt(t time.Time) bool {
	return s.Status == SubscriptionActive && s.EndDate.After(t)
}
