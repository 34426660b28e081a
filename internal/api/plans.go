package api

import (
	"net/http" // HTTP status codes
	"strconv"  // String conversion
	"strings"  // String manipulation
	"time"     // Time handling

	"xpanel/internal/domain" // Importing domain models
	"xpanel/internal/utils"  // Utility functions

	"github.com/gin-gonic/gin"      // Gin web framework
	"github.com/redis/go-redis/v9"  // Redis client
	"github.com/shopspring/decimal" // Exact money arithmetic
	"github.com/sirupsen/logrus"    // Logging library
	"gorm.io/datatypes"             // JSON columns
	"gorm.io/gorm"                  // GORM ORM library
)

const planCacheTTL = 5 * time.Minute // Plan cache lifetime

// ListPlansHandler returns active plans, cheapest first within sort order
func ListPlansHandler(db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		var plans []domain.Plan
		if found, err := utils.GetCache(ctx, rdb, utils.CachePublicPlans, &plans); err == nil && found { // Serve from cache
			respondOK(c, "", plans)
			return
		}
		if err := db.WithContext(ctx).Where("is_active = ?", true).
			Order("sort_order ASC").Order("price ASC").Find(&plans).Error; err != nil {
			handleError(c, err, "Failed to fetch plans")
			return
		}
		if err := utils.SetCache(ctx, rdb, utils.CachePublicPlans, plans, planCacheTTL); err != nil {
			logrus.WithError(err).Warn("Failed to cache plans")
		}
		respondOK(c, "", plans)
	}
}

// GetPlanHandler returns one active plan
func GetPlanHandler(db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := idParam(c, "id")
		if !ok {
			return
		}
		ctx := c.Request.Context()
		key := utils.CachePlanPrefix + strconv.FormatUint(uint64(id), 10) // Per plan cache key
		var plan domain.Plan
		if found, err := utils.GetCache(ctx, rdb, key, &plan); err == nil && found {
			respondOK(c, "", plan)
			return
		}
		if err := db.WithContext(ctx).Where("id = ? AND is_active = ?", id, true).First(&plan).Error; err != nil {
			handleError(c, domain.ErrPlanNotFound, "")
			return
		}
		_ = utils.SetCache(ctx, rdb, key, plan, planCacheTTL) // Cache the plan
		respondOK(c, "", plan)
	}
}

// PlanRequest is the admin create/update payload
type PlanRequest struct {
	Name          string           `json:"name" binding:"required,max=128"`
	Description   string           `json:"description"`
	Price         decimal.Decimal  `json:"price"`
	OriginalPrice *decimal.Decimal `json:"original_price"`
	DurationDays  int              `json:"duration_days" binding:"required,gt=0"`
	TrafficGB     int              `json:"traffic_gb" binding:"required,gt=0"`
	DeviceLimit   int              `json:"device_limit" binding:"gte=0"`
	Features      []string         `json:"features"`
	SortOrder     int              `json:"sort_order"`
	IsPopular     bool             `json:"is_popular"`
	IsActive      *bool            `json:"is_active"`
}

// apply validates the request and copies it onto p
func (r *PlanRequest) apply(p *domain.Plan) bool {
	if !r.Price.IsPositive() {
		return false
	}
	p.Name = strings.TrimSpace(r.Name)
	p.Description = r.Description
	p.Price = r.Price
	p.OriginalPrice = r.Price
	if r.OriginalPrice != nil {
		if r.OriginalPrice.IsNegative() {
			return false
		}
		p.OriginalPrice = *r.OriginalPrice
	}
	p.DurationDays = r.DurationDays
	p.TrafficGB = r.TrafficGB
	p.DeviceLimit = r.DeviceLimit
	if p.DeviceLimit == 0 {
		p.DeviceLimit = domain.DefaultDeviceLimit
	}
	p.Features = datatypes.JSONSlice[string](r.Features)
	p.SortOrder = r.SortOrder
	p.IsPopular = r.IsPopular
	p.IsActive = r.IsActive == nil || *r.IsActive
	return p.Name != ""
}

func invalidatePlans(c *gin.Context, rdb *redis.Client) {
	ctx := c.Request.Context()
	if err := utils.DeleteCache(ctx, rdb, utils.CachePublicPlans); err != nil {
		logrus.WithError(err).Warn("Failed to invalidate plan cache")
	}
	_ = utils.DeleteCachePrefix(ctx, rdb, utils.CachePlanPrefix) // Drop every cached plan
}

// AdminListPlansHandler returns every plan including inactive ones
func AdminListPlansHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var plans []domain.Plan
		if err := db.WithContext(c.Request.Context()).Order("sort_order ASC").Order("id ASC").Find(&plans).Error; err != nil {
			handleError(c, err, "Failed to fetch plans")
			return
		}
		respondOK(c, "", plans)
	}
}

// CreatePlanHandler adds a plan
func CreatePlanHandler(db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req PlanRequest
		var plan domain.Plan
		if err := c.ShouldBindJSON(&req); err != nil || !req.apply(&plan) {
			respondError(c, http.StatusBadRequest, "name, a positive price, duration_days and traffic_gb are required")
			return
		}
		if err := db.WithContext(c.Request.Context()).Create(&plan).Error; err != nil {
			handleError(c, err, "Failed to create plan")
			return
		}
		invalidatePlans(c, rdb)
		logrus.WithFields(logrus.Fields{"plan_id": plan.ID, "name": plan.Name}).Info("Plan created")
		respondCreated(c, "Plan created", plan)
	}
}

// UpdatePlanHandler replaces a plan's fields
func UpdatePlanHandler(db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := idParam(c, "id")
		if !ok {
			return
		}
		tx := db.WithContext(c.Request.Context())
		var plan domain.Plan
		if err := tx.First(&plan, id).Error; err != nil {
			handleError(c, domain.ErrNotFound, "")
			return
		}
		var req PlanRequest
		if err := c.ShouldBindJSON(&req); err != nil || !req.apply(&plan) {
			respondError(c, http.StatusBadRequest, "name, a positive price, duration_days and traffic_gb are required")
			return
		}
		// Save writes zero values too, so deactivating a plan sticks
		if err := tx.Save(&plan).Error; err != nil {
			handleError(c, err, "Failed to update plan")
			return
		}
		invalidatePlans(c, rdb)
		respondOK(c, "Plan updated", plan)
	}
}

// DeletePlanHandler removes a plan nobody references
func DeletePlanHandler(db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := idParam(c, "id")
		if !ok {
			return
		}
		tx := db.WithContext(c.Request.Context())
		var orders, codes int64
		if err := tx.Model(&domain.Order{}).Where("plan_id = ?", id).Count(&orders).Error; err != nil { // Orders still pointing at the plan
			handleError(c, err, "Failed to delete plan")
			return
		}
		if err := tx.Model(&domain.RedemptionCode{}).Where("plan_id = ?", id).Count(&codes).Error; err != nil { // Codes still pointing at the plan
			handleError(c, err, "Failed to delete plan")
			return
		}
		if orders+codes > 0 {
			handleError(c, domain.ErrPlanInUse, "")
			return
		}
		res := tx.Delete(&domain.Plan{}, id)
		if res.Error != nil {
			handleError(c, res.Error, "Failed to delete plan")
			return
		}
		if res.RowsAffected == 0 {
			handleError(c, domain.ErrNotFound, "")
			return
		}
		invalidatePlans(c, rdb)
		respondOK(c, "Plan deleted", nil)
	}
}
