package routes

import (
	"shopfront/ratelim"

	"github.com/julienschmidt/httprouter"
)

func RoutesWrapper(router *httprouter.Router, deps Deps, rateLimiter *ratelim.RateLimiter) {
	AddHealthRoutes(router, deps)
	AddProductRoutes(router, deps, rateLimiter)
	AddCartRoutes(router, deps, rateLimiter)
	AddCheckoutRoutes(router, deps, rateLimiter)
	AddOrderRoutes(router, deps, rateLimiter)
}
