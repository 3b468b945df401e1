package main

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"course-payments/internal/shared/middleware"
	"course-payments/pkg/container"
)

func SetupRouter(c *container.Container) *gin.Engine {
	router := gin.New()

	router.Use(
		middleware.Recovery(),
		middleware.RequestID(),
		middleware.Logger(),
	)

	auth := middleware.AuthMiddleware(c.JWTManager)
	adminOnly := middleware.RequireRole(middleware.RoleAdmin)

	v1 := router.Group("/api/v1")
	{
		v1.GET("/health", healthCheckHandler(c))

		setupDiscountRoutes(v1, c, auth, adminOnly)
		setupCheckoutRoutes(v1, c, auth)
		setupPaymentRoutes(v1, c, auth)
		setupWebhookRoutes(v1, c)
		setupSettlementRoutes(v1, c, auth, adminOnly)
		setupSettingsRoutes(v1, c, auth, adminOnly)
		setupRevenueRoutes(v1, c, auth)
	}

	return router
}

// ========================================
// DISCOUNT ROUTES
// ========================================
func setupDiscountRoutes(v1 *gin.RouterGroup, c *container.Container, auth, adminOnly gin.HandlerFunc) {
	v1.POST("/discounts/validate", auth, c.DiscountHandler.ValidateCode)

	admin := v1.Group("/admin/discounts", auth, adminOnly)
	{
		admin.POST("", c.DiscountHandler.Create)
		admin.GET("/:code", c.DiscountHandler.GetByCode)
		admin.PATCH("/:id/deactivate", c.DiscountHandler.Deactivate)
	}
}

// ========================================
// CHECKOUT ROUTES (Midtrans Snap)
// ========================================
func setupCheckoutRoutes(v1 *gin.RouterGroup, c *container.Container, auth gin.HandlerFunc) {
	checkouts := v1.Group("/checkouts", auth)
	{
		checkouts.POST("", c.CheckoutHandler.Open)
		checkouts.GET("/:order_id", c.CheckoutHandler.Get)
	}
}

// ========================================
// PAYMENT ROUTES (Tripay)
// ========================================
func setupPaymentRoutes(v1 *gin.RouterGroup, c *container.Container, auth gin.HandlerFunc) {
	payments := v1.Group("/payments", auth)
	{
		payments.POST("/tripay", c.PaymentHandler.CreateTripayPayment)
		payments.GET("/:merchant_ref", c.PaymentHandler.GetPayment)
	}
}

// ========================================
// WEBHOOK ROUTES (no auth, signature verified)
// ========================================
func setupWebhookRoutes(v1 *gin.RouterGroup, c *container.Container) {
	webhooks := v1.Group("/webhooks")
	{
		webhooks.POST("/midtrans", c.WebhookHandler.MidtransNotification)
		webhooks.POST("/tripay", c.WebhookHandler.TripayCallback)
	}
}

// ========================================
// ADMIN SETTLEMENT ROUTES
// ========================================
func setupSettlementRoutes(v1 *gin.RouterGroup, c *container.Container, auth, adminOnly gin.HandlerFunc) {
	settlements := v1.Group("/admin/settlements", auth, adminOnly)
	{
		settlements.POST("", c.SettlementHandler.RecordManual)
		settlements.GET("/:booking_id", c.SettlementHandler.Get)
		settlements.PATCH("/:booking_id/paid", c.SettlementHandler.UpdatePaid)
		settlements.POST("/:booking_id/reconcile", c.SettlementHandler.Reconcile)
		settlements.DELETE("/:booking_id", c.SettlementHandler.Delete)
	}
}

func setupSettingsRoutes(v1 *gin.RouterGroup, c *container.Container, auth, adminOnly gin.HandlerFunc) {
	settings := v1.Group("/admin/settings", auth, adminOnly)
	{
		settings.GET("", c.SettingsHandler.Get)
		settings.PUT("", c.SettingsHandler.Update)
	}
}

// ========================================
// REVENUE ROUTES
// ========================================
// Mentors are scoped to their own courses inside the service.
func setupRevenueRoutes(v1 *gin.RouterGroup, c *container.Container, auth gin.HandlerFunc) {
	revenue := v1.Group("/revenue", auth, middleware.RequireRole(middleware.RoleAdmin, middleware.RoleMentor))
	{
		revenue.GET("/summary", c.RevenueHandler.Summary)
		revenue.GET("/transactions", c.RevenueHandler.Transactions)
		revenue.POST("/export", c.RevenueHandler.Export)
	}
}

func healthCheckHandler(c *container.Container) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		checkCtx, cancel := context.WithTimeout(ctx.Request.Context(), 3*time.Second)
		defer cancel()

		status := gin.H{"status": "ok", "database": "up", "redis": "up"}
		code := http.StatusOK

		if err := c.DB.HealthCheck(checkCtx); err != nil {
			status["status"] = "degraded"
			status["database"] = err.Error()
			code = http.StatusServiceUnavailable
		}
		if err := c.Redis.HealthCheck(checkCtx); err != nil {
			status["redis"] = err.Error()
			if code == http.StatusOK {
				status["status"] = "degraded"
			}
		}

		ctx.JSON(code, status)
	}
}
