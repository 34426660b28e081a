package billing

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"xpanel/internal/domain"
	"xpanel/internal/testutil"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var baseTime = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

type recorder struct {
	mu   sync.Mutex
	msgs []string
}

func (r *recorder) Notify(_ context.Context, text string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.msgs = append(r.msgs, text)
	return nil
}

func newTestService(t *testing.T) (*Service, *recorder) {
	t.Helper()
	rec := &recorder{}
	svc := NewService(testutil.NewDB(t), rec, 30*time.Minute)
	now := baseTime
	svc.Now = func() time.Time { return now }
	return svc, rec
}

func advance(svc *Service, d time.Duration) {
	now := svc.Now().Add(d)
	svc.Now = func() time.Time { return now }
}

func createUser(t *testing.T, db *gorm.DB, email string, referrer *uint) *domain.User {
	t.Helper()
	u := domain.User{
		Email:        email,
		Password:     "x",
		Role:         domain.RoleUser,
		Status:       domain.UserActive,
		ReferralCode: strings.ToUpper(strings.SplitN(email, "@", 2)[0]),
		ReferrerID:   referrer,
	}
	require.NoError(t, db.Create(&u).Error)
	return &u
}

func createPlan(t *testing.T, db *gorm.DB, price string, days, gb int) *domain.Plan {
	t.Helper()
	p := domain.Plan{
		Name:          "Pro",
		Price:         decimal.RequireFromString(price),
		OriginalPrice: decimal.RequireFromString(price),
		DurationDays:  days,
		TrafficGB:     gb,
		DeviceLimit:   domain.DefaultDeviceLimit,
		IsActive:      true,
	}
	require.NoError(t, db.Create(&p).Error)
	return &p
}

func createCode(t *testing.T, db *gorm.DB, code string, planID uint, expires *time.Time) *domain.RedemptionCode {
	t.Helper()
	rc := domain.RedemptionCode{Code: code, PlanID: planID, Status: domain.CodeUnused, ExpiresAt: expires}
	require.NoError(t, db.Create(&rc).Error)
	return &rc
}

func reloadUser(t *testing.T, db *gorm.DB, id uint) *domain.User {
	t.Helper()
	var u domain.User
	require.NoError(t, db.First(&u, id).Error)
	return &u
}
