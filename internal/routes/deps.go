// Package routes wires handlers onto the router. Route registration is kept
// separate from handler construction so the full URL surface is readable in
// one place.
package routes

import (
	"github.com/copperline/storefront/internal/handler/api"
	"github.com/copperline/storefront/internal/handler/webhook"
	"github.com/copperline/storefront/internal/router"
)

// APIDeps contains dependencies for the JSON API routes.
type APIDeps struct {
	Products *api.ProductHandler
	Cart     *api.CartHandler
	Auth     *api.AuthHandler
	Orders   *api.OrderHandler
	Account  *api.AccountHandler
	Reviews  *api.ReviewHandler

	// RequireAuth and RequireAdmin guard the signed-in and admin route
	// groups. Injected so tests can register routes without real JWTs.
	RequireAuth  router.Middleware
	RequireAdmin router.Middleware

	// AuthLimiter rate-limits credential endpoints (register, login,
	// refresh) to slow down brute forcing. Optional.
	AuthLimiter router.Middleware
}

// WebhookDeps contains dependencies for webhook routes.
type WebhookDeps struct {
	Stripe *webhook.StripeHandler
}
