package checkout

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/zaika-foods/zaika-backend/internal/cart"
	"github.com/zaika-foods/zaika-backend/internal/pricing"
	"github.com/zaika-foods/zaika-backend/internal/settings"
	"github.com/zaika-foods/zaika-backend/pkg/db/models"
	"github.com/zaika-foods/zaika-backend/pkg/enums"
	pkgerrors "github.com/zaika-foods/zaika-backend/pkg/errors"
	"github.com/zaika-foods/zaika-backend/pkg/logger"
	"github.com/zaika-foods/zaika-backend/pkg/types"
)

type sessionStore interface {
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, keys ...string) error
	CheckoutSessionKey(sessionID string) string
}

type cartReader interface {
	Get(ctx context.Context, customerRef string) (*cart.View, error)
}

type settingsProvider interface {
	Get(ctx context.Context) (settings.Settings, error)
}

type savedAddressReader interface {
	Get(ctx context.Context, customerID, addressID uuid.UUID) (*models.SavedAddress, error)
}

// Service drives the four-step checkout machine. Sessions live in redis and
// carry the cart version they priced; a drifted cart is repriced on read.
type Service struct {
	store     sessionStore
	carts     cartReader
	settings  settingsProvider
	addresses savedAddressReader
	ttl       time.Duration
	logg      *logger.Logger
}

// NewService constructs the checkout service.
func NewService(store sessionStore, carts cartReader, sp settingsProvider, addresses savedAddressReader, ttl time.Duration, logg *logger.Logger) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("session store required")
	}
	if carts == nil {
		return nil, fmt.Errorf("cart reader required")
	}
	if sp == nil {
		return nil, fmt.Errorf("settings provider required")
	}
	if ttl <= 0 {
		ttl = 45 * time.Minute
	}
	return &Service{store: store, carts: carts, settings: sp, addresses: addresses, ttl: ttl, logg: logg}, nil
}

// Start opens a checkout session for the customer's current cart. The cart
// must be non-empty and clear the minimum order amount.
func (s *Service) Start(ctx context.Context, customerRef string) (*Session, error) {
	view, err := s.carts.Get(ctx, customerRef)
	if err != nil {
		return nil, err
	}
	if len(view.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
	}
	if !view.MinOrder.Met {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "minimum order amount not met").
			WithDetails(map[string]any{
				"required":  view.MinOrder.Required,
				"shortfall": view.MinOrder.Shortfall,
			})
	}

	now := time.Now().UTC()
	session := &Session{
		ID:          uuid.NewString(),
		CustomerRef: customerRef,
		Step:        enums.CheckoutStepContact,
		CartVersion: view.Version,
		Snapshot:    view.Pricing,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.save(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

// Get loads the session, repricing it when the cart has changed since the
// session last saw it.
func (s *Service) Get(ctx context.Context, customerRef, sessionID string) (*Session, error) {
	session, err := s.load(ctx, customerRef, sessionID)
	if err != nil {
		return nil, err
	}
	if _, err := s.syncWithCart(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

// Advance merges the entered data into the session, runs the current step's
// guard and moves forward one step. Guard failures return the full problem
// list and leave the session (including the new data) intact.
func (s *Service) Advance(ctx context.Context, customerRef, sessionID string, input AdvanceInput) (*Session, error) {
	session, err := s.load(ctx, customerRef, sessionID)
	if err != nil {
		return nil, err
	}
	if _, err := s.syncWithCart(ctx, session); err != nil {
		return nil, err
	}

	if err := s.merge(ctx, session, input); err != nil {
		return nil, err
	}

	stg, err := s.settings.Get(ctx)
	if err != nil {
		return nil, err
	}

	var problems []string
	switch session.Step {
	case enums.CheckoutStepContact:
		problems = contactGuard(session.Contact)
	case enums.CheckoutStepAddress:
		problems = addressGuard(session.Address, session.SavedAddressID != nil)
	case enums.CheckoutStepPayment:
		problems = paymentGuard(session.PaymentMethod, session.Snapshot, stg)
	case enums.CheckoutStepSummary:
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "checkout is already at the summary step")
	}

	if len(problems) > 0 {
		// Persist the entered data before failing so the user never retypes.
		if err := s.save(ctx, session); err != nil {
			return nil, err
		}
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "step validation failed").
			WithDetails(map[string]any{"errors": problems})
	}

	next, _ := session.Step.Next()
	session.Step = next
	session.Snapshot = applyPaymentMethod(session.Snapshot, session.PaymentMethod, stg)

	if err := s.save(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

// Back moves one step toward contact. Entered data is kept.
func (s *Service) Back(ctx context.Context, customerRef, sessionID string) (*Session, error) {
	session, err := s.load(ctx, customerRef, sessionID)
	if err != nil {
		return nil, err
	}

	prev, ok := session.Step.Prev()
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "checkout is already at the first step")
	}
	session.Step = prev

	if err := s.save(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

// Delete removes the session; called after successful order placement.
func (s *Service) Delete(ctx context.Context, sessionID string) error {
	return s.store.Del(ctx, s.store.CheckoutSessionKey(sessionID))
}

// Load returns the session for order placement without cart syncing.
func (s *Service) Load(ctx context.Context, customerRef, sessionID string) (*Session, error) {
	return s.load(ctx, customerRef, sessionID)
}

// SyncWithCart reprices the session against the live cart and reports
// whether anything drifted.
func (s *Service) SyncWithCart(ctx context.Context, session *Session) (bool, error) {
	changed, err := s.syncWithCart(ctx, session)
	if err != nil {
		return false, err
	}
	return changed, nil
}

func (s *Service) merge(ctx context.Context, session *Session, input AdvanceInput) error {
	if input.Contact != nil {
		session.Contact = *input.Contact
	}
	if input.SavedAddressID != nil {
		if s.addresses == nil {
			return pkgerrors.New(pkgerrors.CodeValidation, "saved addresses are not available")
		}
		customerID, err := uuid.Parse(session.CustomerRef)
		if err != nil {
			return pkgerrors.New(pkgerrors.CodeValidation, "saved addresses require an account")
		}
		saved, err := s.addresses.Get(ctx, customerID, *input.SavedAddressID)
		if err != nil {
			return err
		}
		session.SavedAddressID = input.SavedAddressID
		session.Address = types.Address{
			PlotHouse: saved.PlotHouse,
			Street:    saved.Street,
			Landmark:  derefOrEmpty(saved.Landmark),
			City:      saved.City,
			State:     saved.State,
			Pincode:   saved.Pincode,
		}
	} else if input.Address != nil {
		session.Address = *input.Address
		session.SavedAddressID = nil
	}
	if input.PaymentMethod != nil {
		session.PaymentMethod = *input.PaymentMethod
	}
	return nil
}

func (s *Service) syncWithCart(ctx context.Context, session *Session) (bool, error) {
	view, err := s.carts.Get(ctx, session.CustomerRef)
	if err != nil {
		return false, err
	}
	if view.Version == session.CartVersion {
		return false, nil
	}
	if len(view.Items) == 0 {
		return false, pkgerrors.New(pkgerrors.CodeStateConflict, "cart was emptied during checkout")
	}
	if !view.MinOrder.Met {
		return false, pkgerrors.New(pkgerrors.CodeValidation, "minimum order amount no longer met").
			WithDetails(map[string]any{
				"required":  view.MinOrder.Required,
				"shortfall": view.MinOrder.Shortfall,
			})
	}

	stg, err := s.settings.Get(ctx)
	if err != nil {
		return false, err
	}

	session.CartVersion = view.Version
	session.Snapshot = applyPaymentMethod(view.Pricing, session.PaymentMethod, stg)
	if err := s.save(ctx, session); err != nil {
		return false, err
	}
	return true, nil
}

func (s *Service) load(ctx context.Context, customerRef, sessionID string) (*Session, error) {
	raw, err := s.store.Get(ctx, s.store.CheckoutSessionKey(sessionID))
	if err != nil || raw == "" {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "checkout session not found or expired")
	}

	var session Session
	if err := json.Unmarshal([]byte(raw), &session); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "corrupt checkout session")
	}
	if session.CustomerRef != customerRef {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "checkout session not found or expired")
	}
	return &session, nil
}

func (s *Service) save(ctx context.Context, session *Session) error {
	session.UpdatedAt = time.Now().UTC()
	encoded, err := json.Marshal(session)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "checkout session encode failed")
	}
	if err := s.store.Set(ctx, s.store.CheckoutSessionKey(session.ID), string(encoded), s.ttl); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "checkout session save failed")
	}
	return nil
}

// applyPaymentMethod layers the COD fee onto a cart-level snapshot. The base
// snapshot never includes a COD fee; this keeps the rule in one place for
// both checkout display and order placement.
func applyPaymentMethod(snap pricing.Snapshot, method enums.PaymentMethod, stg settings.Settings) pricing.Snapshot {
	base := snap.Total.Sub(snap.CODFee)
	snap.CODFee = decimal.Zero
	snap.Total = base
	if method == enums.PaymentMethodCOD && pricing.CODAvailable(base, stg) {
		snap.CODFee = stg.CODCharge
		snap.Total = base.Add(stg.CODCharge)
	}
	return snap
}

func derefOrEmpty(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}
