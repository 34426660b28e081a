package api

import (
	"context" // Request scoped cancellation
	"strings" // String manipulation

	"xpanel/internal/billing"    // Business operations
	"xpanel/internal/domain"     // Importing domain models
	"xpanel/internal/middleware" // Context helpers
	"xpanel/internal/utils"      // Utility functions

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
	"gorm.io/gorm"                 // GORM ORM library
)

// CreateOrderRequest starts a purchase
type CreateOrderRequest struct {
	PlanID        uint   `json:"plan_id" binding:"required"`
	PaymentMethod string `json:"payment_method" binding:"required"`
}

// CreateOrderHandler opens a pending order for the current user
func CreateOrderHandler(svc *billing.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CreateOrderRequest
		if err := c.ShouldBindJSON(&req); err != nil { // Bind JSON request
			badRequest(c)
			return
		}
		order, err := svc.CreateOrder(c.Request.Context(), middleware.UserID(c), req.PlanID, req.PaymentMethod)
		if err != nil {
			handleError(c, err, "Failed to create order")
			return
		}
		respondCreated(c, "Order created", order)
	}
}

// ListMyOrdersHandler pages through the current user's orders
func ListMyOrdersHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		p := utils.ParsePage(c) // Page and limit from the query
		q := db.WithContext(c.Request.Context()).Model(&domain.Order{}).
			Where("user_id = ?", middleware.UserID(c))
		if st := c.Query("status"); st != "" {
			q = q.Where("status = ?", st)
		}
		var orders []domain.Order
		total, err := listPage(q, p, "created_at DESC, id DESC", &orders, preload("Plan"))
		if err != nil {
			handleError(c, err, "Failed to fetch orders")
			return
		}
		respondPage(c, orders, total, p)
	}
}

// GetMyOrderHandler returns one of the current user's orders
func GetMyOrderHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := idParam(c, "id")
		if !ok {
			return
		}
		var order domain.Order
		err := db.WithContext(c.Request.Context()).Preload("Plan").
			Where("id = ? AND user_id = ?", id, middleware.UserID(c)).First(&order).Error
		if err != nil {
			handleError(c, domain.ErrOrderNotFound, "")
			return
		}
		respondOK(c, "", order)
	}
}

// CancelOrderHandler cancels the current user's pending order
func CancelOrderHandler(svc *billing.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := idParam(c, "id")
		if !ok {
			return
		}
		if err := svc.CancelOrder(c.Request.Context(), middleware.UserID(c), id); err != nil {
			handleError(c, err, "Failed to cancel order")
			return
		}
		respondOK(c, "Order cancelled", nil)
	}
}

// AdminListOrdersHandler lists all orders with buyer and plan
func AdminListOrdersHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		p := utils.ParsePage(c) // Page and limit from the query
		q := db.WithContext(c.Request.Context()).Model(&domain.Order{}).
			Joins("LEFT JOIN users ON users.id = orders.user_id")
		if s := strings.TrimSpace(c.Query("search")); s != "" {
			q = q.Where("orders.order_no LIKE ? OR users.email LIKE ?", like(s), like(s))
		}
		if st := c.Query("status"); st != "" {
			q = q.Where("orders.status = ?", st)
		}
		var orders []domain.Order
		total, err := listPage(q, p, "orders.created_at DESC, orders.id DESC", &orders, columns("orders.*"), preload("User", "Plan"))
		if err != nil {
			handleError(c, err, "Failed to fetch orders")
			return
		}
		respondPage(c, orders, total, p)
	}
}

// RecentOrdersHandler returns the ten newest orders
func RecentOrdersHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var orders []domain.Order
		if err := db.WithContext(c.Request.Context()).Preload("User").Preload("Plan").
			Order("created_at DESC").Order("id DESC").Limit(10).Find(&orders).Error; err != nil {
			handleError(c, err, "Failed to fetch orders")
			return
		}
		respondOK(c, "", orders)
	}
}

// MarkPaidRequest records how an order was settled
type MarkPaidRequest struct {
	PaymentMethod string `json:"payment_method"`
	TransactionID string `json:"transaction_id" binding:"max=128"`
}

func invalidateStats(ctx context.Context, rdb *redis.Client) {
	_ = utils.DeleteCache(ctx, rdb, utils.CacheAdminStats) // Totals changed
}

// MarkOrderPaidHandler confirms payment of a pending order
func MarkOrderPaidHandler(svc *billing.Service, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := idParam(c, "id")
		if !ok {
			return
		}
		var req MarkPaidRequest
		if c.Request.ContentLength > 0 {
			if err := c.ShouldBindJSON(&req); err != nil {
				badRequest(c)
				return
			}
		}
		order, err := svc.CompleteOrder(c.Request.Context(), id, req.PaymentMethod, req.TransactionID)
		if err != nil {
			handleError(c, err, "Failed to complete order")
			return
		}
		invalidateStats(c.Request.Context(), rdb)
		respondOK(c, "Order marked as paid", order)
	}
}

// RefundOrderHandler refunds a paid order
func RefundOrderHandler(svc *billing.Service, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := idParam(c, "id")
		if !ok {
			return
		}
		order, err := svc.RefundOrder(c.Request.Context(), id)
		if err != nil {
			handleError(c, err, "Failed to refund order")
			return
		}
		invalidateStats(c.Request.Context(), rdb)
		respondOK(c, "Order refunded", order)
	}
}
