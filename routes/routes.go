package routes

import (
	"context"
	"net/http"
	"time"

	"shopfront/cart"
	"shopfront/checkout"
	"shopfront/middleware"
	"shopfront/orders"
	"shopfront/pay"
	"shopfront/products"
	"shopfront/ratelim"
	"shopfront/utils"

	"github.com/julienschmidt/httprouter"
)

// Pinger reports whether a backing service answers.
type Pinger func(ctx context.Context) error

// Deps is everything the HTTP surface is built from.
type Deps struct {
	Auth        *middleware.Authenticator
	Session     func(httprouter.Handle) httprouter.Handle
	Idempotency *pay.Idempotency
	Cart        *cart.Handler
	Checkout    *checkout.Handler
	Orders      *orders.Handler
	Products    *products.Handler
	Health      map[string]Pinger
}

func AddHealthRoutes(router *httprouter.Router, deps Deps) {
	router.GET("/health", func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		status := map[string]string{"status": "healthy"}
		code := http.StatusOK
		for name, ping := range deps.Health {
			if err := ping(ctx); err != nil {
				status[name] = "down"
				status["status"] = "degraded"
				code = http.StatusServiceUnavailable
				continue
			}
			status[name] = "up"
		}
		utils.RespondWithJSON(w, code, status)
	})
}

func AddProductRoutes(router *httprouter.Router, deps Deps, rateLimiter *ratelim.RateLimiter) {
	router.GET("/api/products/:id", rateLimiter.Limit(deps.Products.GetProductDetails))
}

// AddCartRoutes exposes the session cart. No login is needed to shop.
func AddCartRoutes(router *httprouter.Router, deps Deps, rateLimiter *ratelim.RateLimiter) {
	chain := middleware.Chain(rateLimiter.Limit, deps.Session, deps.Auth.OptionalAuth)

	router.GET("/api/cart", chain(deps.Cart.GetCart))
	router.POST("/api/cart/items", chain(deps.Cart.AddToCart))
	router.POST("/api/cart/items/:id/decrease", chain(deps.Cart.DecreaseItem))
	router.DELETE("/api/cart/items/:id", chain(deps.Cart.RemoveItem))
	router.DELETE("/api/cart", chain(deps.Cart.ClearCart))
}

// AddCheckoutRoutes requires a signed-in user on top of the cart session.
// The two calls that can place an order are replay-safe under Idempotency-Key.
func AddCheckoutRoutes(router *httprouter.Router, deps Deps, rateLimiter *ratelim.RateLimiter) {
	chain := middleware.Chain(rateLimiter.Limit, deps.Session, deps.Auth.Authenticate)
	placing := middleware.Chain(rateLimiter.Limit, deps.Session, deps.Auth.Authenticate, deps.Idempotency.Wrap)

	router.POST("/api/checkout", chain(deps.Checkout.BeginCheckout))
	router.GET("/api/checkout/:id", chain(deps.Checkout.GetCheckout))
	router.POST("/api/checkout/:id/billing", chain(deps.Checkout.SubmitBilling))
	router.POST("/api/checkout/:id/cod", placing(deps.Checkout.ConfirmCashOnDelivery))
	router.POST("/api/checkout/:id/payment", placing(deps.Checkout.PaymentCallback))

	// websocket upgrades are long-lived; keep them out of the rate limiter
	router.GET("/api/checkout/:id/ws", middleware.Chain(deps.Session, deps.Auth.Authenticate)(deps.Checkout.WatchCheckout))
}

func AddOrderRoutes(router *httprouter.Router, deps Deps, rateLimiter *ratelim.RateLimiter) {
	chain := middleware.Chain(rateLimiter.Limit, deps.Auth.Authenticate)

	router.GET("/api/orders", chain(deps.Orders.ListOrders))
	router.GET("/api/orders/:id", chain(deps.Orders.GetOrder))
	router.GET("/api/orders/:id/confirmation", chain(deps.Orders.GetConfirmation))
	router.GET("/api/orders/:id/receipt", chain(deps.Orders.GetReceipt))

	// scanned off a printed receipt, so no login
	router.GET("/api/receipts/verify", rateLimiter.Limit(deps.Orders.VerifyReceipt))
}
