package api

import (
	"time" // Time handling

	"xpanel/internal/domain" // Importing domain models
	"xpanel/internal/utils"  // Utility functions

	"github.com/gin-gonic/gin"      // Gin web framework
	"github.com/redis/go-redis/v9"  // Redis client
	"github.com/shopspring/decimal" // Exact money arithmetic
	"github.com/sirupsen/logrus"    // Logging library
	"gorm.io/gorm"                  // GORM ORM library
)

const statsCacheTTL = 60 * time.Second // Dashboard cache lifetime

// DashboardStats are the admin dashboard totals
type DashboardStats struct {
	TotalUsers           int64           `json:"totalUsers"`
	NewUsersToday        int64           `json:"newUsersToday"`
	TotalRevenue         decimal.Decimal `json:"totalRevenue"`
	TodayRevenue         decimal.Decimal `json:"todayRevenue"`
	TotalOrders          int64           `json:"totalOrders"`
	TodayOrders          int64           `json:"todayOrders"`
	ActiveServers        int64           `json:"activeServers"`
	TotalServers         int64           `json:"totalServers"`
	TotalRedemptionCodes int64           `json:"totalRedemptionCodes"`
	UsedRedemptionCodes  int64           `json:"usedRedemptionCodes"`
	TotalReferrals       int64           `json:"totalReferrals"`
	TotalCommissions     decimal.Decimal `json:"totalCommissions"`
}

// sum returns SUM(expr) over q, zero when no rows match
func sum(q *gorm.DB, expr string) (decimal.Decimal, error) {
	var out struct{ Total decimal.Decimal }
	err := q.Select("COALESCE(SUM(" + expr + "), 0) AS total").Scan(&out).Error
	return out.Total, err
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// collector runs a sequence of aggregate queries and keeps the first error
type collector struct {
	db  *gorm.DB
	err error
}

func (c *collector) count(model any, dest *int64, where ...any) {
	if c.err != nil {
		return
	}
	q := c.db.Model(model)
	if len(where) > 0 {
		q = q.Where(where[0], where[1:]...)
	}
	c.err = q.Count(dest).Error // First error wins
}

func (c *collector) sum(model any, expr string, dest *decimal.Decimal, where ...any) {
	if c.err != nil {
		return
	}
	q := c.db.Model(model)
	if len(where) > 0 {
		q = q.Where(where[0], where[1:]...)
	}
	*dest, c.err = sum(q, expr)
}

func dashboardStats(db *gorm.DB, now time.Time) (*DashboardStats, error) {
	today := startOfDay(now)
	var s DashboardStats
	c := &collector{db: db}
	c.count(&domain.User{}, &s.TotalUsers)
	c.count(&domain.User{}, &s.NewUsersToday, "created_at >= ?", today)
	c.sum(&domain.Order{}, "final_amount", &s.TotalRevenue, "status = ?", domain.OrderPaid)
	c.sum(&domain.Order{}, "final_amount", &s.TodayRevenue, "status = ? AND paid_at >= ?", domain.OrderPaid, today)
	c.count(&domain.Order{}, &s.TotalOrders)
	c.count(&domain.Order{}, &s.TodayOrders, "created_at >= ?", today)
	c.count(&domain.Server{}, &s.ActiveServers, "status = ?", domain.ServerActive)
	c.count(&domain.Server{}, &s.TotalServers)
	c.count(&domain.RedemptionCode{}, &s.TotalRedemptionCodes)
	c.count(&domain.RedemptionCode{}, &s.UsedRedemptionCodes, "status = ?", domain.CodeUsed)
	c.count(&domain.User{}, &s.TotalReferrals, "referrer_id IS NOT NULL")
	c.sum(&domain.ReferralCommission{}, "commission_amount", &s.TotalCommissions,
		"status IN ?", []int{domain.CommissionSettled, domain.CommissionWithdrawn})
	if c.err != nil {
		return nil, c.err
	}
	return &s, nil
}

// AdminStatsHandler returns dashboard totals, cached briefly in Redis
func AdminStatsHandler(db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		var cached DashboardStats
		if hit, err := utils.GetCache(ctx, rdb, utils.CacheAdminStats, &cached); err == nil && hit { // Serve from cache
			respondOK(c, "", cached)
			return
		}
		s, err := dashboardStats(db.WithContext(ctx), time.Now().UTC())
		if err != nil {
			handleError(c, err, "Failed to fetch stats")
			return
		}
		if err := utils.SetCache(ctx, rdb, utils.CacheAdminStats, s, statsCacheTTL); err != nil {
			logrus.WithError(err).Warn("Failed to cache admin stats")
		}
		respondOK(c, "", s)
	}
}

// FinanceStats summarises money flowing through the platform
type FinanceStats struct {
	TotalRevenue        decimal.Decimal     `json:"totalRevenue"`
	MonthlyRevenue      decimal.Decimal     `json:"monthlyRevenue"`
	ApprovedWithdrawals decimal.Decimal     `json:"approvedWithdrawals"`
	PendingWithdrawals  decimal.Decimal     `json:"pendingWithdrawals"`
	PendingCount        int64               `json:"pendingWithdrawalCount"`
	SettledCommissions  decimal.Decimal     `json:"settledCommissions"`
	PendingCommissions  decimal.Decimal     `json:"pendingCommissions"`
	TotalUsers          int64               `json:"totalUsers"`
	ActiveUsers         int64               `json:"activeUsers"`
	TotalOrders         int64               `json:"totalOrders"`
	PaidOrders          int64               `json:"paidOrders"`
	RecentTransactions  []domain.BalanceLog `json:"recentTransactions"`
}

func financeStats(db *gorm.DB, now time.Time) (*FinanceStats, error) {
	since := now.AddDate(0, 0, -30)
	var s FinanceStats
	c := &collector{db: db}
	c.sum(&domain.Order{}, "final_amount", &s.TotalRevenue, "status = ?", domain.OrderPaid)
	c.sum(&domain.Order{}, "final_amount", &s.MonthlyRevenue, "status = ? AND paid_at >= ?", domain.OrderPaid, since)
	c.sum(&domain.CommissionWithdrawal{}, "amount", &s.ApprovedWithdrawals, "status = ?", domain.WithdrawalApproved)
	c.sum(&domain.CommissionWithdrawal{}, "amount", &s.PendingWithdrawals, "status = ?", domain.WithdrawalPending)
	c.count(&domain.CommissionWithdrawal{}, &s.PendingCount, "status = ?", domain.WithdrawalPending)
	c.sum(&domain.ReferralCommission{}, "commission_amount", &s.SettledCommissions,
		"status IN ?", []int{domain.CommissionSettled, domain.CommissionWithdrawn})
	c.sum(&domain.ReferralCommission{}, "commission_amount", &s.PendingCommissions, "status = ?", domain.CommissionPending)
	c.count(&domain.User{}, &s.TotalUsers)
	c.count(&domain.User{}, &s.ActiveUsers, "last_login_at >= ?", since)
	c.count(&domain.Order{}, &s.TotalOrders)
	c.count(&domain.Order{}, &s.PaidOrders, "status = ?", domain.OrderPaid)
	if c.err != nil {
		return nil, c.err
	}
	if err := db.Order("id DESC").Limit(10).Find(&s.RecentTransactions).Error; err != nil { // Latest ledger entries
		return nil, err
	}
	return &s, nil
}

// FinanceStatsHandler returns revenue, payout and commission totals
func FinanceStatsHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		s, err := financeStats(db.WithContext(c.Request.Context()), time.Now().UTC())
		if err != nil {
			handleError(c, err, "Failed to fetch finance stats")
			return
		}
		respondOK(c, "", s)
	}
}
