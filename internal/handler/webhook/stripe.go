// Package webhook receives payment provider callbacks.
package webhook

import (
	"io"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/copperline/storefront/internal/domain"
	"github.com/copperline/storefront/internal/handler"
)

// maxPayloadBytes bounds webhook bodies; Stripe events are small.
const maxPayloadBytes = 1 << 20

// StripeHandler receives Stripe webhook deliveries and hands the raw
// payload to the checkout service, which verifies and applies it.
type StripeHandler struct {
	checkout domain.CheckoutService
	logger   zerolog.Logger
}

// NewStripeHandler creates a new Stripe webhook handler.
func NewStripeHandler(checkout domain.CheckoutService, logger zerolog.Logger) *StripeHandler {
	return &StripeHandler{
		checkout: checkout,
		logger:   logger.With().Str("handler", "stripe_webhook").Logger(),
	}
}

// HandleWebhook processes POST /api/checkout/webhook.
//
// Stripe retries on any non-2xx response, so the response code matters:
// signature failures return 400 (misconfiguration, retrying won't help but
// is harmless), duplicates and unhandled event types return 200, and apply
// failures return 500 so the delivery is retried.
//
// Local testing:
//
//	stripe listen --forward-to localhost:8080/api/checkout/webhook
//	stripe trigger checkout.session.completed
func (h *StripeHandler) HandleWebhook(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(io.LimitReader(r.Body, maxPayloadBytes))
	if err != nil {
		handler.ErrorResponse(w, r, domain.Invalid("webhook.stripe", "error reading request body"))
		return
	}

	signature := r.Header.Get("Stripe-Signature")
	if signature == "" {
		handler.ErrorResponse(w, r, domain.Invalid("webhook.stripe", "missing Stripe-Signature header"))
		return
	}

	result, err := h.checkout.HandleWebhookEvent(r.Context(), payload, signature)
	if err != nil {
		if domain.ErrorCode(err) == domain.EUNAUTHORIZED {
			// Bad signature; answer 400 like the provider docs suggest.
			handler.ErrorResponse(w, r, domain.Invalid("webhook.stripe", "invalid signature"))
			return
		}
		handler.ErrorResponse(w, r, err)
		return
	}

	h.logger.Info().Str("event_id", result.EventID).Str("type", result.EventType).
		Bool("duplicate", result.Duplicate).Bool("handled", result.Handled).
		Msg("webhook delivery processed")

	handler.JSON(w, r, http.StatusOK, map[string]bool{"received": true})
}
