package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/JideOgun/Pro-Dj-sub004/backend-booking/internal/domain"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v82/webhook"
)

const testWebhookSecret = "whsec_test_secret"

func checkoutEvent(eventType, sessionID, paymentStatus, bookingID string) []byte {
	body, _ := json.Marshal(map[string]interface{}{
		"id":          "evt_test_1",
		"object":      "event",
		"type":        eventType,
		"api_version": "2020-08-27",
		"data": map[string]interface{}{
			"object": map[string]interface{}{
				"id":             sessionID,
				"object":         "checkout.session",
				"payment_status": paymentStatus,
				"metadata":       map[string]string{"booking_id": bookingID},
			},
		},
	})
	return body
}

func postWebhook(t *testing.T, h *WebhookHandler, payload []byte, signature string) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.POST("/webhooks/stripe", h.HandleStripeWebhook)

	req := httptest.NewRequest(http.MethodPost, "/webhooks/stripe", bytes.NewReader(payload))
	if signature != "" {
		req.Header.Set("Stripe-Signature", signature)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func sign(payload []byte) string {
	signed := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload:   payload,
		Secret:    testWebhookSecret,
		Timestamp: time.Now(),
	})
	return signed.Header
}

func TestWebhook_NotConfigured(t *testing.T) {
	w := postWebhook(t, NewWebhookHandler(&MockLifecycleService{}, ""), []byte("{}"), "t=1,v1=abc")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestWebhook_MissingSignature(t *testing.T) {
	w := postWebhook(t, NewWebhookHandler(&MockLifecycleService{}, testWebhookSecret), []byte("{}"), "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestWebhook_BadSignature(t *testing.T) {
	called := false
	svc := &MockLifecycleService{
		MarkPaidByCheckoutSessionFunc: func(ctx context.Context, sessionID string) (*domain.Booking, error) {
			called = true
			return nil, nil
		},
	}
	payload := checkoutEvent("checkout.session.completed", "cs_1", "paid", testBookingID)

	w := postWebhook(t, NewWebhookHandler(svc, testWebhookSecret), payload, "t=1,v1=deadbeef")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.False(t, called)
}

func TestWebhook_CheckoutCompleted(t *testing.T) {
	var gotSession string
	svc := &MockLifecycleService{
		MarkPaidByCheckoutSessionFunc: func(ctx context.Context, sessionID string) (*domain.Booking, error) {
			gotSession = sessionID
			b := testBooking(domain.BookingStatusConfirmed)
			b.IsPaid = true
			return b, nil
		},
	}
	payload := checkoutEvent("checkout.session.completed", "cs_live_1", "paid", testBookingID)

	w := postWebhook(t, NewWebhookHandler(svc, testWebhookSecret), payload, sign(payload))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "cs_live_1", gotSession)
	assert.Contains(t, w.Body.String(), testBookingID)
}

func TestWebhook_FallsBackToMetadataBookingID(t *testing.T) {
	var gotActor domain.Actor
	var gotID string
	svc := &MockLifecycleService{
		MarkPaidByCheckoutSessionFunc: func(ctx context.Context, sessionID string) (*domain.Booking, error) {
			return nil, domain.ErrBookingNotFound
		},
		MarkPaidFunc: func(ctx context.Context, actor domain.Actor, bookingID string) (*domain.Booking, error) {
			gotActor, gotID = actor, bookingID
			return testBooking(domain.BookingStatusConfirmed), nil
		},
	}
	payload := checkoutEvent("checkout.session.async_payment_succeeded", "cs_2", "paid", testBookingID)

	w := postWebhook(t, NewWebhookHandler(svc, testWebhookSecret), payload, sign(payload))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, gotActor.IsSystem())
	assert.Equal(t, testBookingID, gotID)
}

func TestWebhook_UnpaidSessionIgnored(t *testing.T) {
	called := false
	svc := &MockLifecycleService{
		MarkPaidByCheckoutSessionFunc: func(ctx context.Context, sessionID string) (*domain.Booking, error) {
			called = true
			return nil, nil
		},
	}
	payload := checkoutEvent("checkout.session.completed", "cs_3", "unpaid", testBookingID)

	w := postWebhook(t, NewWebhookHandler(svc, testWebhookSecret), payload, sign(payload))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.False(t, called)
}

func TestWebhook_ErrorMapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"not payable is acked", domain.ErrNotPayable, http.StatusOK},
		{"unknown booking is acked", domain.ErrBookingNotFound, http.StatusOK},
		{"store failure is retried", errors.New("connection reset"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &MockLifecycleService{
				MarkPaidByCheckoutSessionFunc: func(ctx context.Context, sessionID string) (*domain.Booking, error) {
					return nil, tt.err
				},
				MarkPaidFunc: func(ctx context.Context, actor domain.Actor, bookingID string) (*domain.Booking, error) {
					return nil, tt.err
				},
			}
			payload := checkoutEvent("checkout.session.completed", "cs_4", "paid", testBookingID)

			w := postWebhook(t, NewWebhookHandler(svc, testWebhookSecret), payload, sign(payload))
			assert.Equal(t, tt.want, w.Code)
		})
	}
}

func TestWebhook_UnhandledEventAcked(t *testing.T) {
	payload := checkoutEvent("customer.created", "cs_5", "paid", testBookingID)
	w := postWebhook(t, NewWebhookHandler(&MockLifecycleService{}, testWebhookSecret), payload, sign(payload))
	assert.Equal(t, http.StatusOK, w.Code)
}

type stubChecker struct{ err error }

func (s stubChecker) HealthCheck(ctx context.Context) error { return s.err }

type stubOutbox struct{}

func (stubOutbox) CountByStatus(ctx context.Context) (map[domain.OutboxStatus]int, error) {
	return map[domain.OutboxStatus]int{domain.OutboxStatusPending: 3}, nil
}

type stubPool struct{}

func (stubPool) Stats() *pgxpool.Stat { return nil }

func TestHealthHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name       string
		checks     map[string]HealthChecker
		wantStatus int
	}{
		{"all healthy", map[string]HealthChecker{"postgres": stubChecker{}, "redis": stubChecker{}}, http.StatusOK},
		{"redis down", map[string]HealthChecker{"postgres": stubChecker{}, "redis": stubChecker{err: errors.New("dial tcp")}}, http.StatusServiceUnavailable},
		{"optional dependency missing", map[string]HealthChecker{"postgres": stubChecker{}, "redis": nil}, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHealthHandler("booking-service", tt.checks, stubPool{}, stubOutbox{})
			router := gin.New()
			router.GET("/ready", h.Ready)

			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ready", nil))
			assert.Equal(t, tt.wantStatus, w.Code)
		})
	}

	h := NewHealthHandler("booking-service", nil, stubPool{}, stubOutbox{})
	router := gin.New()
	router.GET("/health", h.Health)
	router.GET("/metrics", h.Metrics)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "healthy")

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"outbox"`)
}
