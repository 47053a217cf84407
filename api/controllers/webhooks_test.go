package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zaika-foods/zaika-backend/pkg/db/models"
	pkgerrors "github.com/zaika-foods/zaika-backend/pkg/errors"
)

type stubConfirmer struct {
	gatewayOrderID string
	captured       *bool
	err            error
}

func (s *stubConfirmer) ConfirmPayment(_ context.Context, gatewayOrderID string, captured bool) (*models.Order, error) {
	s.gatewayOrderID = gatewayOrderID
	s.captured = &captured
	if s.err != nil {
		return nil, s.err
	}
	return &models.Order{}, nil
}

type stubVerifier struct {
	valid bool
}

func (s stubVerifier) VerifyWebhookSignature([]byte, string) bool {
	return s.valid
}

func razorpayBody(t *testing.T, event, orderID string) []byte {
	t.Helper()
	payload := map[string]any{
		"event": event,
		"payload": map[string]any{
			"payment": map[string]any{
				"entity": map[string]any{"order_id": orderID},
			},
		},
	}
	body, err := json.Marshal(payload)
	require.NoError(t, err)
	return body
}

func TestRazorpayWebhookCapturedPayment(t *testing.T) {
	confirmer := &stubConfirmer{}
	handler := RazorpayWebhook(confirmer, stubVerifier{valid: true}, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/razorpay",
		bytes.NewReader(razorpayBody(t, "payment.captured", "rzp_order_9")))
	req.Header.Set(razorpaySignatureHeader, "sig")
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	require.Equal(t, http.StatusOK, resp.Code)
	require.Equal(t, "rzp_order_9", confirmer.gatewayOrderID)
	require.NotNil(t, confirmer.captured)
	require.True(t, *confirmer.captured)
}

func TestRazorpayWebhookFailedPayment(t *testing.T) {
	confirmer := &stubConfirmer{}
	handler := RazorpayWebhook(confirmer, stubVerifier{valid: true}, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/razorpay",
		bytes.NewReader(razorpayBody(t, "payment.failed", "rzp_order_9")))
	req.Header.Set(razorpaySignatureHeader, "sig")
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	require.Equal(t, http.StatusOK, resp.Code)
	require.NotNil(t, confirmer.captured)
	require.False(t, *confirmer.captured)
}

func TestRazorpayWebhookRejectsBadSignature(t *testing.T) {
	confirmer := &stubConfirmer{}
	handler := RazorpayWebhook(confirmer, stubVerifier{valid: false}, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/razorpay",
		bytes.NewReader(razorpayBody(t, "payment.captured", "rzp_order_9")))
	req.Header.Set(razorpaySignatureHeader, "bad")
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	require.Equal(t, http.StatusUnauthorized, resp.Code)
	require.Nil(t, confirmer.captured)
}

func TestRazorpayWebhookRequiresSignatureHeader(t *testing.T) {
	handler := RazorpayWebhook(&stubConfirmer{}, stubVerifier{valid: true}, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/razorpay",
		bytes.NewReader(razorpayBody(t, "payment.captured", "rzp_order_9")))
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	require.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestRazorpayWebhookIgnoresUnsubscribedEvents(t *testing.T) {
	confirmer := &stubConfirmer{}
	handler := RazorpayWebhook(confirmer, stubVerifier{valid: true}, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/razorpay",
		bytes.NewReader(razorpayBody(t, "refund.created", "rzp_order_9")))
	req.Header.Set(razorpaySignatureHeader, "sig")
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	require.Equal(t, http.StatusOK, resp.Code)
	require.Empty(t, confirmer.gatewayOrderID)
}

func TestRazorpayWebhookRequiresGatewayOrderID(t *testing.T) {
	confirmer := &stubConfirmer{}
	handler := RazorpayWebhook(confirmer, stubVerifier{valid: true}, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/razorpay",
		bytes.NewReader(razorpayBody(t, "payment.captured", "")))
	req.Header.Set(razorpaySignatureHeader, "sig")
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	require.Equal(t, http.StatusBadRequest, resp.Code)
	require.Nil(t, confirmer.captured)
}

func TestRazorpayWebhookPropagatesServiceError(t *testing.T) {
	confirmer := &stubConfirmer{err: pkgerrors.New(pkgerrors.CodeNotFound, "order not found")}
	handler := RazorpayWebhook(confirmer, stubVerifier{valid: true}, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/razorpay",
		bytes.NewReader(razorpayBody(t, "payment.captured", "rzp_order_missing")))
	req.Header.Set(razorpaySignatureHeader, "sig")
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	require.Equal(t, http.StatusNotFound, resp.Code)
}
