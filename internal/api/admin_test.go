package api

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	"xpanel/internal/domain"
	"xpanel/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdminRoutesRequireAdmin(t *testing.T) {
	e := newEnv(t)
	_, userToken := e.seedUser(t, "gina@example.com", domain.RoleUser)
	_, adminToken := e.seedUser(t, "root@example.com", domain.RoleAdmin)

	w, env := e.do(t, http.MethodGet, "/api/admin/stats", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.False(t, env.Success)

	w, _ = e.do(t, http.MethodGet, "/api/admin/stats", userToken, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, env = e.do(t, http.MethodGet, "/api/admin/stats", adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var stats DashboardStats
	decodeData(t, env, &stats)
	assert.EqualValues(t, 2, stats.TotalUsers)
	assert.EqualValues(t, 2, stats.NewUsersToday)

	hit, err := utils.GetCache(context.Background(), e.rdb, utils.CacheAdminStats, &stats)
	require.NoError(t, err)
	assert.True(t, hit)
}

func TestErrorEnvelopeAndPagination(t *testing.T) {
	e := newEnv(t)
	_, adminToken := e.seedUser(t, "root@example.com", domain.RoleAdmin)
	for i := 0; i < 4; i++ {
		e.seedUser(t, fmt.Sprintf("user%d@example.com", i), domain.RoleUser)
	}

	w, env := e.do(t, http.MethodGet, "/api/plans/999", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.False(t, env.Success)
	assert.NotEmpty(t, env.Message)

	w, _ = e.do(t, http.MethodGet, "/api/plans/abc", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, env = e.do(t, http.MethodGet, "/api/admin/users?page=2&limit=2", adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 5, env.Total)
	assert.Equal(t, 2, env.Page)
	assert.Equal(t, 2, env.Limit)
	assert.Equal(t, 3, env.TotalPages)
	var users []domain.User
	decodeData(t, env, &users)
	assert.Len(t, users, 2)

	w, env = e.do(t, http.MethodGet, "/api/admin/users?search=user1", adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 1, env.Total)
}

func TestUserStatusAndSelfDisable(t *testing.T) {
	e := newEnv(t)
	admin, adminToken := e.seedUser(t, "root@example.com", domain.RoleAdmin)
	u, userToken := e.seedUser(t, "hank@example.com", domain.RoleUser)

	w, _ := e.do(t, http.MethodPut, fmt.Sprintf("/api/admin/users/%d/status", admin.ID), adminToken, gin.H{"status": 0})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = e.do(t, http.MethodPut, fmt.Sprintf("/api/admin/users/%d/status", u.ID), adminToken, gin.H{"status": 0})
	require.Equal(t, http.StatusOK, w.Code)
	w, _ = e.do(t, http.MethodGet, "/api/auth/me", userToken, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, _ = e.do(t, http.MethodPut, "/api/admin/users/9999/status", adminToken, gin.H{"status": 1})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestOrderLifecycleOverHTTP(t *testing.T) {
	e := newEnv(t)
	_, adminToken := e.seedUser(t, "root@example.com", domain.RoleAdmin)
	referrer, _ := e.seedUser(t, "ivan@example.com", domain.RoleUser)
	buyer, buyerToken := e.seedUser(t, "judy@example.com", domain.RoleUser)
	require.NoError(t, e.db.Model(buyer).Update("referrer_id", referrer.ID).Error)
	plan, _ := createPlanAndCodes(t, e, adminToken, 1)

	w, _ := e.do(t, http.MethodPost, "/api/orders", buyerToken, gin.H{"plan_id": plan.ID, "payment_method": "bitcoin"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, env := e.do(t, http.MethodPost, "/api/orders", buyerToken, gin.H{"plan_id": plan.ID, "payment_method": "alipay"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var order domain.Order
	decodeData(t, env, &order)
	assert.Equal(t, domain.OrderPending, order.Status)
	assert.True(t, order.FinalAmount.Equal(decimal.RequireFromString("9.90")))

	w, _ = e.do(t, http.MethodPut, fmt.Sprintf("/api/admin/orders/%d/paid", order.ID), adminToken, gin.H{"transaction_id": "tx-1"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	w, _ = e.do(t, http.MethodPut, fmt.Sprintf("/api/admin/orders/%d/paid", order.ID), adminToken, gin.H{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w, _ = e.do(t, http.MethodPut, fmt.Sprintf("/api/orders/%d/cancel", order.ID), buyerToken, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, env = e.do(t, http.MethodGet, "/api/orders", buyerToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var mine []domain.Order
	decodeData(t, env, &mine)
	require.Len(t, mine, 1)
	require.NotNil(t, mine[0].Plan)
	assert.Equal(t, "Monthly", mine[0].Plan.Name)

	w, env = e.do(t, http.MethodGet, "/api/admin/orders?search=judy", adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 1, env.Total)
	decodeData(t, env, &mine)
	require.NotNil(t, mine[0].User)

	w, env = e.do(t, http.MethodGet, "/api/admin/referrals/commissions", adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var rows []commissionRow
	decodeData(t, env, &rows)
	require.Len(t, rows, 1)
	assert.Equal(t, order.OrderNo, rows[0].OrderNo)
	assert.Equal(t, "judy@example.com", rows[0].RefereeEmail)
	assert.True(t, rows[0].CommissionAmount.Equal(decimal.RequireFromString("0.99")))

	w, _ = e.do(t, http.MethodPut, fmt.Sprintf("/api/admin/orders/%d/refund", order.ID), adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var rc domain.ReferralCommission
	require.NoError(t, e.db.First(&rc).Error)
	assert.Equal(t, domain.CommissionRevoked, rc.Status)
}
