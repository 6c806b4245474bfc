package routes

import (
	"net/http"

	"github.com/copperline/storefront/internal/router"
)

// RegisterAPIRoutes registers the storefront JSON API.
//
// Cart and checkout routes accept both signed-in users and guests carrying
// an X-Guest-Token header; the handlers resolve ownership from the request
// identity. Routes under the auth group need a signed-in user.
func RegisterAPIRoutes(r *router.Router, deps APIDeps) {
	r.Get("/health", healthCheck)

	// Catalog (public)
	r.Get("/api/products", deps.Products.List)
	r.Get("/api/products/featured", deps.Products.Featured)
	r.Get("/api/products/trending", deps.Products.Trending)
	r.Get("/api/products/slug/{slug}", deps.Products.GetBySlug)
	r.Get("/api/products/{id}", deps.Products.Get)
	r.Get("/api/products/{id}/related", deps.Products.Related)
	r.Get("/api/products/{id}/reviews", deps.Products.ListReviews)
	r.Get("/api/products/{id}/reviews/distribution", deps.Products.ReviewDistribution)
	r.Get("/api/categories", deps.Products.Categories)

	// Authentication. Credential endpoints sit behind the strict limiter.
	authLimited := []router.Middleware{}
	if deps.AuthLimiter != nil {
		authLimited = append(authLimited, deps.AuthLimiter)
	}
	r.Post("/api/auth/register", deps.Auth.Register, authLimited...)
	r.Post("/api/auth/login", deps.Auth.Login, authLimited...)
	r.Post("/api/auth/refresh", deps.Auth.Refresh, authLimited...)
	r.Post("/api/auth/guest", deps.Auth.Guest)

	// Cart (user or guest)
	r.Get("/api/cart", deps.Cart.Get)
	r.Post("/api/cart", deps.Cart.AddItem)
	r.Delete("/api/cart", deps.Cart.Clear)
	r.Get("/api/cart/count", deps.Cart.Count)
	r.Post("/api/cart/promo", deps.Cart.ApplyPromo)
	r.Delete("/api/cart/promo", deps.Cart.RemovePromo)
	r.Put("/api/cart/{itemId}", deps.Cart.UpdateItem)
	r.Delete("/api/cart/{itemId}", deps.Cart.RemoveItem)

	// Checkout (user or guest)
	r.Get("/api/checkout/delivery-options", deps.Orders.DeliveryOptions)
	r.Post("/api/checkout/orders", deps.Orders.Create)
	r.Get("/api/checkout/orders/{id}", deps.Orders.Get)
	r.Get("/api/checkout/session/{sessionId}", deps.Orders.GetBySession)
	r.Post("/api/checkout/create-session", deps.Orders.CreateCheckoutSession)

	// Signed-in surface
	authed := r.Group(deps.RequireAuth)
	authed.Get("/api/auth/me", deps.Auth.Me)
	authed.Post("/api/cart/merge", deps.Cart.Merge)
	authed.Get("/api/checkout/orders", deps.Orders.List)
	authed.Get("/api/account/profile", deps.Account.GetProfile)
	authed.Put("/api/account/profile", deps.Account.UpdateProfile)
	authed.Get("/api/account/orders", deps.Orders.List)
	authed.Post("/api/account/security/change-password", deps.Account.ChangePassword)
	authed.Get("/api/account/security/logs", deps.Account.ListAuditLogs)
	authed.Get("/api/account/addresses", deps.Account.ListAddresses)
	authed.Post("/api/account/addresses", deps.Account.CreateAddress)
	authed.Put("/api/account/addresses/{id}", deps.Account.UpdateAddress)
	authed.Delete("/api/account/addresses/{id}", deps.Account.DeleteAddress)
	authed.Get("/api/account/reviews", deps.Account.ListReviews)
	authed.Post("/api/products/{id}/reviews", deps.Reviews.Create)
	authed.Put("/api/reviews/{id}", deps.Reviews.Update)
	authed.Delete("/api/reviews/{id}", deps.Reviews.Delete)

	// Admin surface
	admin := r.Group(deps.RequireAdmin)
	admin.Patch("/api/checkout/orders/{id}/status", deps.Orders.UpdateStatus)
}

func healthCheck(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}
