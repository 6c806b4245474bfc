package routes

import (
	"github.com/copperline/storefront/internal/router"
)

// RegisterWebhookRoutes registers incoming webhook routes.
//
// Webhook routes carry no authentication middleware; each handler verifies
// the provider's request signature itself.
func RegisterWebhookRoutes(r *router.Router, deps WebhookDeps) {
	r.Post("/api/checkout/webhook", deps.Stripe.HandleWebhook)
}
