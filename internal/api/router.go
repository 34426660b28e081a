package api

import (
	"time" // Time handling

	"xpanel/internal/billing"    // Business operations
	"xpanel/internal/middleware" // Context helpers

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
	"gorm.io/gorm"                 // GORM ORM library
)

// Deps are the collaborators shared by every handler
type Deps struct {
	DB             *gorm.DB
	Redis          *redis.Client // Optional, disables caching and rate limits when nil
	Billing        *billing.Service
	Tokens         TokenIssuer
	CORSOrigins    []string
	PublicBaseURL  string
	RateLimit      int // Per minute per client IP on auth and redeem
	TrustedProxies []string
}

// NewRouter builds the gin engine with every route mounted under /api
func NewRouter(d Deps) (*gin.Engine, error) {
	r := gin.New() // Gin router instance
	if err := r.SetTrustedProxies(d.TrustedProxies); err != nil {
		return nil, err
	}
	r.Use(middleware.RequestID(), middleware.Logger(), gin.Recovery(), middleware.CORS(d.CORSOrigins))

	limit := func(scope string) gin.HandlerFunc {
		return middleware.RateLimit(d.Redis, scope, d.RateLimit, time.Minute)
	}
	auth := middleware.JWTAuthMiddleware(d.Tokens.Secret) // Bearer token required

	api := r.Group("/api")
	api.GET("/health", HealthHandler(d.DB)) // Liveness endpoint
	api.GET("/payments/methods", PaymentMethodsHandler(d.Billing))

	// Public
	authGroup := api.Group("/auth")
	authGroup.POST("/register", limit("register"), RegisterHandler(d.DB, d.Tokens)) // Registration endpoint
	authGroup.POST("/login", limit("login"), LoginHandler(d.DB, d.Tokens))          // Login endpoint
	authGroup.POST("/admin-login", limit("login"), AdminLoginHandler(d.DB, d.Tokens))
	authGroup.GET("/me", auth, MeHandler(d.DB))

	api.GET("/plans", ListPlansHandler(d.DB, d.Redis))
	api.GET("/plans/:id", GetPlanHandler(d.DB, d.Redis))
	api.POST("/redemption/redeem", limit("redeem"), middleware.OptionalJWTMiddleware(d.Tokens.Secret), RedeemHandler(d.Billing)) // Redeem endpoint, token optional
	api.GET("/subscription/:token", SubscriptionFeedHandler(d.Billing))                                                          // Client feed endpoint

	// Signed-in users
	user := api.Group("", auth)
	user.POST("/orders", CreateOrderHandler(d.Billing)) // Create order endpoint
	user.GET("/orders", ListMyOrdersHandler(d.DB))
	user.GET("/orders/:id", GetMyOrderHandler(d.DB))
	user.PUT("/orders/:id/cancel", CancelOrderHandler(d.Billing))

	user.GET("/user/subscription", MySubscriptionHandler(d.Billing, d.PublicBaseURL))
	user.GET("/user/servers", MyServersHandler(d.Billing, d.PublicBaseURL))
	user.GET("/user/profile", GetProfileHandler(d.DB))
	user.PUT("/user/profile", UpdateProfileHandler(d.DB))
	user.PUT("/user/password", ChangePasswordHandler(d.DB))
	user.GET("/servers/:id/config", ServerConfigHandler(d.Billing))

	user.GET("/referrals/stats", ReferralStatsHandler(d.Billing))
	user.GET("/referrals/commissions", MyCommissionsHandler(d.DB))
	user.GET("/referrals/users", ReferredUsersHandler(d.DB))
	user.GET("/referrals/balance-logs", BalanceLogsHandler(d.DB))
	user.POST("/withdrawals", RequestWithdrawalHandler(d.Billing)) // Withdrawal request endpoint
	user.GET("/withdrawals", MyWithdrawalsHandler(d.DB))

	// Admin
	admin := api.Group("/admin", auth, middleware.AdminOnlyMiddleware(d.DB)) // Admin role checked against the database
	admin.GET("/stats", AdminStatsHandler(d.DB, d.Redis))                    // Dashboard endpoint
	admin.GET("/finance/stats", FinanceStatsHandler(d.DB))
	admin.GET("/settings", GetSettingsHandler(d.Billing))
	admin.PUT("/settings", UpdateSettingsHandler(d.Billing))

	admin.GET("/users", AdminListUsersHandler(d.DB))
	admin.GET("/recent-users", RecentUsersHandler(d.DB))
	admin.PUT("/users/:id/status", UpdateUserStatusHandler(d.DB))

	admin.GET("/plans", AdminListPlansHandler(d.DB))
	admin.POST("/plans", CreatePlanHandler(d.DB, d.Redis))
	admin.PUT("/plans/:id", UpdatePlanHandler(d.DB, d.Redis))
	admin.DELETE("/plans/:id", DeletePlanHandler(d.DB, d.Redis))

	admin.GET("/servers", AdminListServersHandler(d.DB))
	admin.POST("/servers", CreateServerHandler(d.DB))
	admin.PUT("/servers/:id", UpdateServerHandler(d.DB))
	admin.DELETE("/servers/:id", DeleteServerHandler(d.DB))

	admin.GET("/orders", AdminListOrdersHandler(d.DB))
	admin.GET("/recent-orders", RecentOrdersHandler(d.DB))
	admin.PUT("/orders/:id/paid", MarkOrderPaidHandler(d.Billing, d.Redis)) // Manual payment endpoint
	admin.PUT("/orders/:id/refund", RefundOrderHandler(d.Billing, d.Redis))

	admin.GET("/redemption", ListCodesHandler(d.DB))
	admin.POST("/redemption/generate", GenerateCodesHandler(d.Billing)) // Code generation endpoint
	admin.DELETE("/redemption/:id", DeleteCodeHandler(d.Billing))
	admin.POST("/redemption/batch-delete", BatchDeleteCodesHandler(d.Billing))

	admin.GET("/referrals/commissions", AdminCommissionsHandler(d.DB))
	admin.POST("/referrals/commissions/:id/settle", SettleCommissionHandler(d.Billing, d.Redis))
	admin.GET("/referrals/settings", GetReferralSettingsHandler(d.Billing))
	admin.PUT("/referrals/settings", UpdateReferralSettingsHandler(d.Billing))

	admin.GET("/withdrawals", AdminWithdrawalsHandler(d.DB))
	admin.PUT("/withdrawals/:id", ProcessWithdrawalHandler(d.Billing, d.Redis)) // Approve or reject endpoint

	return r, nil
}
