package api

import (
	"encoding/json" // JSON encoding
	"fmt"           // Error wrapping
	"net/http"      // HTTP status codes
	"strings"       // String manipulation
	"time"          // Time handling

	"xpanel/internal/billing" // Business operations

	"github.com/gin-gonic/gin" // Gin web framework
	"gorm.io/gorm"             // GORM ORM library
)

// GetSettingsHandler returns the typed site settings
func GetSettingsHandler(svc *billing.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		st, err := svc.Settings(c.Request.Context())
		if err != nil {
			handleError(c, err, "Failed to fetch settings")
			return
		}
		respondOK(c, "", st)
	}
}

// settingValue flattens a JSON value into its stored string form.
// Strings are kept verbatim, everything else is stored as JSON.
func settingValue(v any) (string, error) {
	switch x := v.(type) {
	case string:
		return x, nil
	case nil:
		return "", nil
	default:
		b, err := json.Marshal(x)
		return string(b), err
	}
}

// UpdateSettingsHandler upserts arbitrary setting keys
func UpdateSettingsHandler(svc *billing.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var body map[string]any
		if err := c.ShouldBindJSON(&body); err != nil || len(body) == 0 {
			respondError(c, http.StatusBadRequest, "Request body must be a non-empty JSON object")
			return
		}
		values := make(map[string]string, len(body))
		for k, v := range body {
			k = strings.TrimSpace(k)
			if k == "" || len(k) > 64 {
				respondError(c, http.StatusBadRequest, fmt.Sprintf("Invalid setting key %q", k))
				return
			}
			s, err := settingValue(v)
			if err != nil {
				respondError(c, http.StatusBadRequest, fmt.Sprintf("Invalid value for %s", k))
				return
			}
			values[k] = s
		}
		if err := svc.SaveSettings(c.Request.Context(), values); err != nil {
			handleError(c, err, "Failed to save settings")
			return
		}
		st, err := svc.Settings(c.Request.Context())
		if err != nil {
			handleError(c, err, "Failed to fetch settings")
			return
		}
		respondOK(c, "Settings updated", st)
	}
}

var paymentMethodNames = map[string]string{
	"alipay": "Alipay",
	"wechat": "WeChat Pay",
	"stripe": "Stripe",
	"paypal": "PayPal",
	"usdt":   "USDT",
}

// PaymentMethodsHandler lists the payment methods orders may use
func PaymentMethodsHandler(svc *billing.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		st, err := svc.Settings(c.Request.Context())
		if err != nil {
			handleError(c, err, "Failed to fetch payment methods")
			return
		}
		methods := make([]gin.H, 0, len(st.PaymentMethods))
		for _, id := range st.PaymentMethods {
			name, ok := paymentMethodNames[id]
			if !ok {
				name = id
			}
			methods = append(methods, gin.H{"id": id, "name": name})
		}
		respondOK(c, "", methods)
	}
}

// HealthHandler reports database reachability
func HealthHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		status := "ok"
		code := http.StatusOK
		sqlDB, err := db.DB()
		if err == nil {
			err = sqlDB.PingContext(c.Request.Context())
		}
		if err != nil {
			status = "degraded"
			code = http.StatusServiceUnavailable
		}
		c.JSON(code, gin.H{
			"success": err == nil,
			"message": status,
			"data":    gin.H{"status": status, "time": time.Now().UTC()},
		})
	}
}
