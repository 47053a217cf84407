package controllers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/zaika-foods/zaika-backend/api/responses"
	"github.com/zaika-foods/zaika-backend/pkg/db/models"
	pkgerrors "github.com/zaika-foods/zaika-backend/pkg/errors"
	"github.com/zaika-foods/zaika-backend/pkg/logger"
)

const razorpaySignatureHeader = "X-Razorpay-Signature"

type paymentConfirmer interface {
	ConfirmPayment(ctx context.Context, gatewayOrderID string, captured bool) (*models.Order, error)
}

type webhookVerifier interface {
	VerifyWebhookSignature(payload []byte, signature string) bool
}

type razorpayEvent struct {
	Event   string `json:"event"`
	Payload struct {
		Payment struct {
			Entity struct {
				OrderID string `json:"order_id"`
			} `json:"entity"`
		} `json:"payment"`
	} `json:"payload"`
}

// RazorpayWebhook settles online payments. Captured events move the order
// into the kitchen queue; failed events keep it awaiting payment.
func RazorpayWebhook(svc paymentConfirmer, verifier webhookVerifier, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "order service unavailable"))
			return
		}
		if verifier == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payment gateway unavailable"))
			return
		}

		payload, err := io.ReadAll(r.Body)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read request body"))
			return
		}

		signature := strings.TrimSpace(r.Header.Get(razorpaySignatureHeader))
		if signature == "" {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "razorpay signature missing"))
			return
		}
		if !verifier.VerifyWebhookSignature(payload, signature) {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid razorpay signature"))
			return
		}

		var event razorpayEvent
		if err := json.Unmarshal(payload, &event); err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "decode event"))
			return
		}

		var captured bool
		switch event.Event {
		case "payment.captured":
			captured = true
		case "payment.failed":
			captured = false
		default:
			// Unsubscribed event types are acknowledged so Razorpay stops retrying.
			responses.WriteSuccess(w, nil)
			return
		}

		gatewayOrderID := strings.TrimSpace(event.Payload.Payment.Entity.OrderID)
		if gatewayOrderID == "" {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "gateway order id missing"))
			return
		}

		if _, err := svc.ConfirmPayment(ctx, gatewayOrderID, captured); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		if logg != nil {
			logg.Info(ctx, "webhook.razorpay.processed")
		}
		responses.WriteSuccess(w, nil)
	}
}
