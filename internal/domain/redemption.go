package domain

import "time"

// Redemption code statuses
const (
	CodeUnused  = 0
	CodeUsed    = 1
	CodeExpired = 2
)

// RedemptionCode is a one-time token exchangeable for a plan period
type RedemptionCode struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	Code         string     `gorm:"size:64;uniqueIndex;not null" json:"code"`
	PlanID       uint       `gorm:"not null;index" json:"plan_id"`
	DurationDays int        `gorm:"not null" json:"duration_days"` // 0 means the plan duration
	Status       int        `gorm:"not null;index" json:"status"`
	UsedBy       *uint      `gorm:"index" json:"used_by"`
	UsedAt       *time.Time `json:"used_at"`
	ExpiresAt    *time.Time `json:"expires_at"`
	Note         string     `gorm:"size:255" json:"note"`
	CreatedBy    *uint      `json:"created_by"`
	CreatedAt    time.Time  `json:"created_at"`

	Plan *Plan `gorm:"foreignKey:PlanID" json:"plan,omitempty"`
}

// Days is the number of days the code grants
func (r *RedemptionCode) Days(plan *Plan) int {
	if r.DurationDays > 0 {
		return r.DurationDays
	}
	return plan.DurationDays
}

// ExpiredAt reports whether the code passed its expiry at t
func (r *RedemptionCode) ExpiredAt(t time.Time) bool {
	return r.ExpiresAt != nil && r.ExpiresAt.Before(t)
}
