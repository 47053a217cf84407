package payments

import (
	"context"
	"errors"
	"fmt"
	"time"

	razorpay "github.com/razorpay/razorpay-go"
	"github.com/razorpay/razorpay-go/utils"
	"github.com/sethvargo/go-retry"
	"github.com/shopspring/decimal"

	"github.com/zaika-foods/zaika-backend/pkg/config"
	pkgerrors "github.com/zaika-foods/zaika-backend/pkg/errors"
	"github.com/zaika-foods/zaika-backend/pkg/logger"
)

// GatewayOrder is the subset of the gateway response the order flow needs.
type GatewayOrder struct {
	ID       string
	Amount   decimal.Decimal
	Currency string
	Receipt  string
}

// Gateway creates payment orders for online checkouts.
type Gateway interface {
	CreateOrder(ctx context.Context, amount decimal.Decimal, currency, receipt string) (*GatewayOrder, error)
	VerifyWebhookSignature(payload []byte, signature string) bool
}

var paiseFactor = decimal.NewFromInt(100)

// RazorpayGateway wraps the Razorpay SDK with bounded retries.
type RazorpayGateway struct {
	client        *razorpay.Client
	webhookSecret string
	retryCfg      config.GatewayRetryConfig
	logg          *logger.Logger
}

// NewRazorpayGateway builds the gateway from config. Key credentials are
// required; the webhook secret may be empty in dev.
func NewRazorpayGateway(cfg config.RazorpayConfig, retryCfg config.GatewayRetryConfig, logg *logger.Logger) (*RazorpayGateway, error) {
	if cfg.KeyID == "" || cfg.KeySecret == "" {
		return nil, errors.New("razorpay key id and secret are required")
	}
	return &RazorpayGateway{
		client:        razorpay.NewClient(cfg.KeyID, cfg.KeySecret),
		webhookSecret: cfg.WebhookSecret,
		retryCfg:      retryCfg,
		logg:          logg,
	}, nil
}

// CreateOrder registers the amount with Razorpay and returns the gateway
// order id the SPA needs to open the payment widget. Amounts are sent in
// paise. Transient failures are retried with capped exponential backoff.
func (g *RazorpayGateway) CreateOrder(ctx context.Context, amount decimal.Decimal, currency, receipt string) (*GatewayOrder, error) {
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment amount must be positive")
	}
	if currency == "" {
		currency = "INR"
	}

	paise := amount.Mul(paiseFactor).Round(0).IntPart()
	data := map[string]interface{}{
		"amount":   paise,
		"currency": currency,
		"receipt":  receipt,
	}

	callCtx := ctx
	if g.retryCfg.CallTimeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, g.retryCfg.CallTimeout)
		defer cancel()
	}

	var created map[string]interface{}
	backoff := g.backoff()
	err := retry.Do(callCtx, backoff, func(ctx context.Context) error {
		body, callErr := g.client.Order.Create(data, nil)
		if callErr != nil {
			if g.logg != nil {
				g.logg.Warn(ctx, fmt.Sprintf("razorpay order create failed: %v", callErr))
			}
			return retry.RetryableError(callErr)
		}
		created = body
		return nil
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "payment gateway unavailable")
	}

	id, _ := created["id"].(string)
	if id == "" {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "payment gateway returned no order id")
	}

	return &GatewayOrder{
		ID:       id,
		Amount:   amount,
		Currency: currency,
		Receipt:  receipt,
	}, nil
}

// VerifyWebhookSignature checks the HMAC signature Razorpay attaches to
// webhook deliveries.
func (g *RazorpayGateway) VerifyWebhookSignature(payload []byte, signature string) bool {
	if g.webhookSecret == "" || signature == "" {
		return false
	}
	return utils.VerifyWebhookSignature(string(payload), signature, g.webhookSecret)
}

func (g *RazorpayGateway) backoff() retry.Backoff {
	base := g.retryCfg.BaseBackoff
	if base <= 0 {
		base = 250 * time.Millisecond
	}
	b := retry.NewExponential(base)
	if g.retryCfg.MaxBackoff > 0 {
		b = retry.WithCappedDuration(g.retryCfg.MaxBackoff, b)
	}
	attempts := g.retryCfg.MaxAttempts
	if attempts <= 0 {
		attempts = 3
	}
	return retry.WithMaxRetries(uint64(attempts-1), b)
}
