package handler

import (
	"storefront-checkout/internal/adapter/http/middleware"
	redisStore "storefront-checkout/internal/adapter/storage/redis"
	"storefront-checkout/internal/core/ports"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// RouterDeps holds all dependencies needed to set up routes.
type RouterDeps struct {
	BasketSvc      ports.BasketService
	CheckoutSvc    ports.CheckoutService
	OrderSvc       ports.OrderService
	RateSvc        ports.RateService
	Converter      ports.Converter
	Verifier       ports.SignatureVerifier
	Events         ports.EventPublisher
	RateLimitStore *redisStore.RateLimitStore // nil = rate limiting disabled
	HealthCheckers []ports.HealthChecker
	TrustedProxies []string // nil = client IP is the peer address
	Mode           string   // gin mode, release when empty
	Logger         zerolog.Logger
}

// SetupRouter initialises the Gin engine with all routes and middleware.
func SetupRouter(deps RouterDeps) *gin.Engine {
	mode := deps.Mode
	if mode == "" {
		mode = gin.ReleaseMode
	}
	gin.SetMode(mode)
	r := gin.New()
	if err := r.SetTrustedProxies(deps.TrustedProxies); err != nil {
		deps.Logger.Warn().Err(err).Msg("invalid trusted proxies, forwarded headers ignored")
		_ = r.SetTrustedProxies(nil)
	}

	// Global middleware
	r.Use(middleware.Recovery(deps.Logger))
	r.Use(middleware.RequestID())
	r.Use(middleware.RequestLogger(deps.Logger))
	r.Use(middleware.MaxBodySize(1 << 20)) // 1 MB request body limit

	r.GET("/health", HealthCheck(deps.HealthCheckers...))

	rules := middleware.DefaultRateLimitRules()

	// Helper: return rate limiter middleware if store is available, else noop.
	rl := func(group string) gin.HandlerFunc {
		if deps.RateLimitStore == nil {
			return func(c *gin.Context) { c.Next() }
		}
		rule, ok := rules[group]
		if !ok {
			return func(c *gin.Context) { c.Next() }
		}
		return middleware.RateLimiter(deps.RateLimitStore, group, rule, deps.Logger)
	}

	v1 := r.Group("/api/v1")

	// --- Gateway callbacks (signature-verified, no session) ---
	webhookHandler := NewWebhookHandler(deps.Verifier, deps.Events, deps.Logger)
	v1.POST("/webhooks/stripe", rl("webhooks"), webhookHandler.Receive)

	// --- Reference data ---
	catalogHandler := NewCatalogHandler(deps.RateSvc, deps.Converter)
	v1.GET("/currencies", rl("catalog"), catalogHandler.Currencies)
	v1.GET("/rates", rl("catalog"), catalogHandler.Rates)
	v1.GET("/convert", rl("catalog"), catalogHandler.Convert)

	// --- Session routes (X-Session-ID) ---
	session := v1.Group("", middleware.Session())

	basketHandler := NewBasketHandler(deps.BasketSvc)
	basket := session.Group("/basket", rl("basket"))
	{
		basket.GET("", basketHandler.Get)
		basket.DELETE("", basketHandler.Clear)
		basket.POST("/items", basketHandler.AddItem)
		basket.PATCH("/items/:index", basketHandler.UpdateItem)
		basket.DELETE("/items/:index", basketHandler.RemoveItem)
		basket.PUT("/currency", basketHandler.SetCurrency)
	}

	checkoutHandler := NewCheckoutHandler(deps.CheckoutSvc)
	checkout := session.Group("/checkout", rl("checkout"))
	{
		checkout.POST("/payment-intent", checkoutHandler.CreatePaymentIntent)
		checkout.POST("/complete", checkoutHandler.Complete)
	}

	orderHandler := NewOrderHandler(deps.OrderSvc)
	session.GET("/orders/:order_num", rl("basket"), orderHandler.Get)

	return r
}
