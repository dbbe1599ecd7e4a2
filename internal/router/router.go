package router

import (
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/quirkcart/quirkcart/internal/authz"
	"github.com/quirkcart/quirkcart/internal/cache"
	"github.com/quirkcart/quirkcart/internal/config"
	adminhandlers "github.com/quirkcart/quirkcart/internal/http/handlers/admin"
	publichandlers "github.com/quirkcart/quirkcart/internal/http/handlers/public"
	"github.com/quirkcart/quirkcart/internal/http/response"
	"github.com/quirkcart/quirkcart/internal/logger"
	"github.com/quirkcart/quirkcart/internal/provider"
)

// SetupRouter mounts the full API under /api/v1.
func SetupRouter(cfg *config.Config, c *provider.Container) *gin.Engine {
	log := logger.L
	if log == nil {
		log = logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	}
	r := gin.New()
	r.HandleMethodNotAllowed = true
	r.NoMethod(func(gc *gin.Context) {
		response.MethodNotAllowed(gc, "method not allowed")
	})
	r.NoRoute(func(gc *gin.Context) {
		response.NotFound(gc, "route not found")
	})

	publicHandler := publichandlers.New(c)
	adminHandler := adminhandlers.New(c)

	redisPrefix := strings.TrimSpace(cfg.Redis.Prefix)
	if redisPrefix == "" {
		redisPrefix = "qc"
	}
	redisClient := cache.Client()
	checkoutRule := RateLimitRule{
		Prefix:        fmt.Sprintf("%s:rate:checkout", redisPrefix),
		WindowSeconds: 60,
		MaxRequests:   30,
		Message:       "too many checkout attempts, slow down",
	}
	magicLinkRule := RateLimitRule{
		Prefix:        fmt.Sprintf("%s:rate:magic_link", redisPrefix),
		WindowSeconds: cfg.Security.LoginRateLimit.WindowSeconds,
		MaxRequests:   cfg.Security.LoginRateLimit.MaxAttempts,
		Message:       "too many sign-in requests, try again later",
	}
	adminLoginRule := RateLimitRule{
		Prefix:        fmt.Sprintf("%s:rate:admin_login", redisPrefix),
		WindowSeconds: cfg.Security.LoginRateLimit.WindowSeconds,
		MaxRequests:   cfg.Security.LoginRateLimit.MaxAttempts,
		Message:       "too many login attempts, try again later",
	}

	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	r.Use(LoggerMiddleware(log))
	r.Use(CORSMiddleware(cfg.CORS))

	apiV1 := r.Group("/api/v1")
	{
		// storefront checkout and validation
		apiV1.POST("/validate-discount", publicHandler.ValidateDiscount)
		apiV1.POST("/validate-gift-card", publicHandler.ValidateGiftCard)
		apiV1.POST("/stripe-checkout", RateLimitMiddleware(redisClient, checkoutRule, nil), publicHandler.StripeCheckout)
		apiV1.POST("/paypal-checkout", RateLimitMiddleware(redisClient, checkoutRule, nil), publicHandler.PayPalCheckout)
		apiV1.POST("/paypal-capture", publicHandler.PayPalCapture)
		apiV1.POST("/gift-card-only-checkout", RateLimitMiddleware(redisClient, checkoutRule, nil), publicHandler.GiftCardOnlyCheckout)
		apiV1.POST("/stripe-webhook", publicHandler.StripeWebhook)

		// customer identity
		apiV1.GET("/captcha", publicHandler.Captcha)
		apiV1.POST("/customer-auth", RateLimitMiddleware(redisClient, magicLinkRule, nil), publicHandler.RequestMagicLink)
		apiV1.GET("/customer-auth", publicHandler.VerifyMagicLink)

		// customer portal
		portal := apiV1.Group("/account")
		portal.Use(CustomerAuthMiddleware(c.AuthService))
		{
			portal.GET("/orders", publicHandler.CustomerOrders)
			portal.GET("/orders/:order_number", publicHandler.CustomerOrder)
		}

		// admin
		apiV1.POST("/admin/login", RateLimitMiddleware(redisClient, adminLoginRule, nil), adminHandler.Login)
		apiV1.POST("/admin/reset-password", RateLimitMiddleware(redisClient, adminLoginRule, nil), adminHandler.ResetPassword)

		admin := apiV1.Group("/admin")
		admin.Use(AdminAuthMiddleware(c.AuthService))
		{
			orders := admin.Group("/orders")
			{
				orders.GET("", RequireCapability(c.AuthzService, authz.ResourceOrders, authz.ActionRead), adminHandler.ListOrders)
				orders.GET("/:id", RequireCapability(c.AuthzService, authz.ResourceOrders, authz.ActionRead), adminHandler.GetOrder)
				orders.PUT("", RequireCapability(c.AuthzService, authz.ResourceOrders, authz.ActionWrite), adminHandler.UpdateOrder)
			}

			giftCards := admin.Group("/gift-cards")
			{
				giftCards.GET("", RequireCapability(c.AuthzService, authz.ResourceGiftCards, authz.ActionRead), adminHandler.ListGiftCards)
				giftCards.GET("/:id", RequireCapability(c.AuthzService, authz.ResourceGiftCards, authz.ActionRead), adminHandler.GetGiftCard)
				giftCards.POST("", RequireCapability(c.AuthzService, authz.ResourceGiftCards, authz.ActionWrite), adminHandler.CreateGiftCard)
				giftCards.PUT("/:id", RequireCapability(c.AuthzService, authz.ResourceGiftCards, authz.ActionWrite), adminHandler.UpdateGiftCard)
				giftCards.DELETE("/:id", RequireCapability(c.AuthzService, authz.ResourceGiftCards, authz.ActionWrite), adminHandler.CancelGiftCard)
			}

			discounts := admin.Group("/discounts")
			{
				discounts.GET("", RequireCapability(c.AuthzService, authz.ResourceDiscounts, authz.ActionRead), adminHandler.ListDiscounts)
				discounts.GET("/:id", RequireCapability(c.AuthzService, authz.ResourceDiscounts, authz.ActionRead), adminHandler.GetDiscount)
				discounts.POST("", RequireCapability(c.AuthzService, authz.ResourceDiscounts, authz.ActionWrite), adminHandler.CreateDiscount)
				discounts.PUT("/:id", RequireCapability(c.AuthzService, authz.ResourceDiscounts, authz.ActionWrite), adminHandler.UpdateDiscount)
				discounts.DELETE("/:id", RequireCapability(c.AuthzService, authz.ResourceDiscounts, authz.ActionWrite), adminHandler.DeactivateDiscount)
			}

			admin.GET("/audit-logs", RequireCapability(c.AuthzService, authz.ResourceAuditLogs, authz.ActionRead), adminHandler.ListAuditLogs)
		}
	}

	return r
}
