package billing

import (
	"context"
	"testing"
	"time"

	"xpanel/internal/domain"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateOrder(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	user := createUser(t, svc.DB, "buyer@example.com", nil)
	plan := createPlan(t, svc.DB, "19.90", 30, 100)

	order, err := svc.CreateOrder(ctx, user.ID, plan.ID, "alipay")
	require.NoError(t, err)
	assert.Equal(t, domain.OrderPending, order.Status)
	assert.Equal(t, "19.9", order.FinalAmount.String())
	assert.True(t, order.DiscountAmount.IsZero())
	assert.True(t, order.ExpiresAt.Equal(baseTime.Add(30*time.Minute)))
	assert.Regexp(t, `^ORD\d{13}[A-Z0-9]{6}$`, order.OrderNo)

	_, err = svc.CreateOrder(ctx, user.ID, plan.ID, "bitcoin")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	require.NoError(t, svc.DB.Model(plan).Update("is_active", false).Error)
	_, err = svc.CreateOrder(ctx, user.ID, plan.ID, "alipay")
	assert.ErrorIs(t, err, domain.ErrPlanNotFound)
}

func TestCancelOrder(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	user := createUser(t, svc.DB, "c1@example.com", nil)
	other := createUser(t, svc.DB, "c2@example.com", nil)
	plan := createPlan(t, svc.DB, "10", 30, 10)
	order, err := svc.CreateOrder(ctx, user.ID, plan.ID, "wechat")
	require.NoError(t, err)

	assert.ErrorIs(t, svc.CancelOrder(ctx, other.ID, order.ID), domain.ErrOrderNotFound)
	require.NoError(t, svc.CancelOrder(ctx, user.ID, order.ID))
	assert.ErrorIs(t, svc.CancelOrder(ctx, user.ID, order.ID), domain.ErrOrderNotPending)
}

func TestCompleteOrderAccruesCommission(t *testing.T) {
	svc, rec := newTestService(t)
	ctx := context.Background()
	referrer := createUser(t, svc.DB, "ref@example.com", nil)
	buyer := createUser(t, svc.DB, "buyer@example.com", &referrer.ID)
	plan := createPlan(t, svc.DB, "50", 30, 100)
	order, err := svc.CreateOrder(ctx, buyer.ID, plan.ID, "alipay")
	require.NoError(t, err)

	paid, err := svc.CompleteOrder(ctx, order.ID, "", "TX-1")
	require.NoError(t, err)
	assert.Equal(t, domain.OrderPaid, paid.Status)

	sub, err := svc.ActiveSubscription(ctx, buyer.ID)
	require.NoError(t, err)
	assert.True(t, sub.EndDate.Equal(baseTime.AddDate(0, 0, 30)))

	var rc domain.ReferralCommission
	require.NoError(t, svc.DB.First(&rc, "order_id = ?", order.ID).Error)
	assert.Equal(t, referrer.ID, rc.ReferrerID)
	assert.Equal(t, domain.CommissionPending, rc.Status)
	assert.True(t, rc.CommissionAmount.Equal(decimal.NewFromInt(5)), rc.CommissionAmount.String())

	_, err = svc.CompleteOrder(ctx, order.ID, "", "")
	assert.ErrorIs(t, err, domain.ErrOrderNotPending)

	require.Len(t, rec.msgs, 1)
	assert.Contains(t, rec.msgs[0], order.OrderNo)
}

func TestCompleteOrderUsesConfiguredRate(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	require.NoError(t, svc.SaveSettings(ctx, map[string]string{domain.SettingCommissionRate: "0.25"}))
	referrer := createUser(t, svc.DB, "r@example.com", nil)
	buyer := createUser(t, svc.DB, "b@example.com", &referrer.ID)
	plan := createPlan(t, svc.DB, "19.99", 30, 100)
	order, err := svc.CreateOrder(ctx, buyer.ID, plan.ID, "alipay")
	require.NoError(t, err)
	_, err = svc.CompleteOrder(ctx, order.ID, "wechat", "")
	require.NoError(t, err)

	var rc domain.ReferralCommission
	require.NoError(t, svc.DB.First(&rc, "order_id = ?", order.ID).Error)
	assert.Equal(t, "5", rc.CommissionAmount.String())

	var stored domain.Order
	require.NoError(t, svc.DB.First(&stored, order.ID).Error)
	assert.Equal(t, "wechat", stored.PaymentMethod)
}

func TestCompleteOrderWithoutReferrer(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	buyer := createUser(t, svc.DB, "solo@example.com", nil)
	plan := createPlan(t, svc.DB, "10", 30, 100)
	order, err := svc.CreateOrder(ctx, buyer.ID, plan.ID, "alipay")
	require.NoError(t, err)
	_, err = svc.CompleteOrder(ctx, order.ID, "", "")
	require.NoError(t, err)

	var n int64
	svc.DB.Model(&domain.ReferralCommission{}).Count(&n)
	assert.Zero(t, n)
}

func TestRefundOrderRevokesPendingCommission(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	referrer := createUser(t, svc.DB, "ref2@example.com", nil)
	buyer := createUser(t, svc.DB, "buyer2@example.com", &referrer.ID)
	plan := createPlan(t, svc.DB, "40", 30, 100)
	order, err := svc.CreateOrder(ctx, buyer.ID, plan.ID, "alipay")
	require.NoError(t, err)

	_, err = svc.RefundOrder(ctx, order.ID)
	assert.ErrorIs(t, err, domain.ErrOrderNotPaid)

	_, err = svc.CompleteOrder(ctx, order.ID, "", "")
	require.NoError(t, err)
	refunded, err := svc.RefundOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderRefunded, refunded.Status)

	var rc domain.ReferralCommission
	require.NoError(t, svc.DB.First(&rc, "order_id = ?", order.ID).Error)
	assert.Equal(t, domain.CommissionRevoked, rc.Status)

	_, err = svc.RefundOrder(ctx, 9999)
	assert.ErrorIs(t, err, domain.ErrOrderNotFound)
}

func TestSweep(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	user := createUser(t, svc.DB, "sweep@example.com", nil)
	plan := createPlan(t, svc.DB, "10", 1, 10)
	soon := baseTime.Add(2 * time.Hour)
	createCode(t, svc.DB, "SOON", plan.ID, &soon)
	createCode(t, svc.DB, "FOREVER", plan.ID, nil)
	createCode(t, svc.DB, "GRANT", plan.ID, nil)
	_, err := svc.Redeem(ctx, RedeemInput{Code: "GRANT", UserID: user.ID})
	require.NoError(t, err)
	_, err = svc.CreateOrder(ctx, user.ID, plan.ID, "alipay")
	require.NoError(t, err)

	res, err := svc.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, SweepResult{}, res)

	advance(svc, 48*time.Hour)
	res, err = svc.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, SweepResult{CancelledOrders: 1, ExpiredSubscriptions: 1, ExpiredCodes: 1}, res)
}
