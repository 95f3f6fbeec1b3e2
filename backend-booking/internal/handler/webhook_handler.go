package handler

import (
	"encoding/json"
	"io"

	"github.com/JideOgun/Pro-Dj-sub004/backend-booking/internal/domain"
	"github.com/JideOgun/Pro-Dj-sub004/backend-booking/internal/service"
	"github.com/JideOgun/Pro-Dj-sub004/pkg/logger"
	"github.com/JideOgun/Pro-Dj-sub004/pkg/response"
	"github.com/gin-gonic/gin"
	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/webhook"
	"go.uber.org/zap"
)

// maxWebhookBody matches Stripe's documented payload ceiling
const maxWebhookBody = 65536

// WebhookHandler handles Stripe webhook events
type WebhookHandler struct {
	lifecycle     service.LifecycleService
	webhookSecret string
}

// NewWebhookHandler creates a new WebhookHandler
func NewWebhookHandler(lifecycle service.LifecycleService, webhookSecret string) *WebhookHandler {
	return &WebhookHandler{
		lifecycle:     lifecycle,
		webhookSecret: webhookSecret,
	}
}

// HandleStripeWebhook handles POST /webhooks/stripe. Completed checkout
// sessions mark the booking paid.
func (h *WebhookHandler) HandleStripeWebhook(c *gin.Context) {
	log := logger.Get()

	if h.webhookSecret == "" {
		response.ServiceUnavailable(c, "Stripe webhook is not configured")
		return
	}

	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil {
		response.BadRequest(c, "Failed to read request body")
		return
	}

	sigHeader := c.GetHeader("Stripe-Signature")
	if sigHeader == "" {
		log.Warn("Missing Stripe-Signature header")
		response.BadRequest(c, "Missing Stripe-Signature header")
		return
	}

	event, err := webhook.ConstructEventWithOptions(payload, sigHeader, h.webhookSecret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		log.Warn("Failed to verify webhook signature", zap.Error(err))
		response.BadRequest(c, "Invalid signature")
		return
	}

	switch event.Type {
	case "checkout.session.completed", "checkout.session.async_payment_succeeded":
		h.handleCheckoutCompleted(c, event)
	default:
		log.Debug("Unhandled Stripe event", zap.String("type", string(event.Type)))
		response.Success(c, gin.H{"received": true})
	}
}

func (h *WebhookHandler) handleCheckoutCompleted(c *gin.Context, event stripe.Event) {
	log := logger.Get()

	var session stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
		response.BadRequest(c, "Invalid checkout session payload")
		return
	}

	if session.PaymentStatus != stripe.CheckoutSessionPaymentStatusPaid {
		log.Info("Checkout session not paid yet",
			zap.String("session_id", session.ID),
			zap.String("payment_status", string(session.PaymentStatus)),
		)
		response.Success(c, gin.H{"received": true})
		return
	}

	booking, err := h.lifecycle.MarkPaidByCheckoutSession(c.Request.Context(), session.ID)
	if err != nil && domain.IsNotFoundError(err) && session.Metadata["booking_id"] != "" {
		booking, err = h.lifecycle.MarkPaid(c.Request.Context(), domain.SystemActor, session.Metadata["booking_id"])
	}

	switch {
	case err == nil:
		log.Info("Booking paid via Stripe checkout",
			zap.String("booking_id", booking.ID),
			zap.String("session_id", session.ID),
		)
		response.Success(c, gin.H{"received": true, "booking_id": booking.ID})
	case domain.IsNotFoundError(err), domain.IsConflictError(err), domain.IsValidationError(err):
		// acknowledged so Stripe stops retrying
		log.Warn("Checkout session not applied",
			zap.String("session_id", session.ID),
			zap.String("event_id", event.ID),
			zap.Error(err),
		)
		response.Success(c, gin.H{"received": true, "ignored": err.Error()})
	default:
		log.Error("Failed to apply checkout session",
			zap.String("session_id", session.ID),
			zap.Error(err),
		)
		response.InternalError(c)
	}
}
