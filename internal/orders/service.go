package orders

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	cartpkg "github.com/zaika-foods/zaika-backend/internal/cart"
	"github.com/zaika-foods/zaika-backend/internal/checkout"
	"github.com/zaika-foods/zaika-backend/internal/coupons"
	"github.com/zaika-foods/zaika-backend/internal/pricing"
	"github.com/zaika-foods/zaika-backend/internal/serviceability"
	"github.com/zaika-foods/zaika-backend/internal/settings"
	"github.com/zaika-foods/zaika-backend/pkg/db"
	"github.com/zaika-foods/zaika-backend/pkg/db/models"
	"github.com/zaika-foods/zaika-backend/pkg/enums"
	pkgerrors "github.com/zaika-foods/zaika-backend/pkg/errors"
	"github.com/zaika-foods/zaika-backend/pkg/logger"
	"github.com/zaika-foods/zaika-backend/pkg/metrics"
	"github.com/zaika-foods/zaika-backend/pkg/outbox"
	"github.com/zaika-foods/zaika-backend/pkg/pagination"
	"github.com/zaika-foods/zaika-backend/pkg/payments"
)

type checkoutSessions interface {
	Load(ctx context.Context, customerRef, sessionID string) (*checkout.Session, error)
	Delete(ctx context.Context, sessionID string) error
}

type placingLocker interface {
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	Del(ctx context.Context, keys ...string) error
	PlacingLockKey(sessionID string) string
}

type settingsProvider interface {
	Get(ctx context.Context) (settings.Settings, error)
}

type couponResolver interface {
	Recheck(ctx context.Context, code, customerRef string, cart coupons.CartView) (*pricing.AppliedCoupon, coupons.RejectionReason, error)
	CouponByCode(ctx context.Context, code string) (*models.Coupon, error)
}

type serviceabilityChecker interface {
	Check(ctx context.Context, pincode string) (*serviceability.Result, error)
}

type eventEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Service owns order placement and the kitchen status flow.
type Service struct {
	repo        *Repository
	cartRepo    *cartpkg.Repository
	couponRepo  *coupons.Repository
	dbClient    *db.Client
	sessions    checkoutSessions
	locker      placingLocker
	settings    settingsProvider
	coupons     couponResolver
	zones       serviceabilityChecker
	gateway     payments.Gateway
	emitter     eventEmitter
	number      NumberFunc
	lockTTL     time.Duration
	httpMetrics *metrics.HTTPMetrics
	logg        *logger.Logger
	now         func() time.Time
}

// Deps bundles the service dependencies.
type Deps struct {
	Repo        *Repository
	CartRepo    *cartpkg.Repository
	CouponRepo  *coupons.Repository
	DBClient    *db.Client
	Sessions    checkoutSessions
	Locker      placingLocker
	Settings    settingsProvider
	Coupons     couponResolver
	Zones       serviceabilityChecker
	Gateway     payments.Gateway
	Emitter     eventEmitter
	Number      NumberFunc
	LockTTL     time.Duration
	HTTPMetrics *metrics.HTTPMetrics
	Logger      *logger.Logger
}

// NewService constructs the orders service.
func NewService(deps Deps) (*Service, error) {
	if deps.Repo == nil {
		return nil, fmt.Errorf("order repository required")
	}
	if deps.CartRepo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if deps.DBClient == nil {
		return nil, fmt.Errorf("db client required")
	}
	if deps.Sessions == nil {
		return nil, fmt.Errorf("checkout sessions required")
	}
	if deps.Locker == nil {
		return nil, fmt.Errorf("placing locker required")
	}
	if deps.Settings == nil {
		return nil, fmt.Errorf("settings provider required")
	}
	if deps.Coupons == nil {
		return nil, fmt.Errorf("coupon resolver required")
	}
	if deps.Zones == nil {
		return nil, fmt.Errorf("serviceability checker required")
	}
	if deps.Number == nil {
		deps.Number = SequenceNumber
	}
	if deps.LockTTL <= 0 {
		deps.LockTTL = 30 * time.Second
	}
	return &Service{
		repo:        deps.Repo,
		cartRepo:    deps.CartRepo,
		couponRepo:  deps.CouponRepo,
		dbClient:    deps.DBClient,
		sessions:    deps.Sessions,
		locker:      deps.Locker,
		settings:    deps.Settings,
		coupons:     deps.Coupons,
		zones:       deps.Zones,
		gateway:     deps.Gateway,
		emitter:     deps.Emitter,
		number:      deps.Number,
		lockTTL:     deps.LockTTL,
		httpMetrics: deps.HTTPMetrics,
		logg:        deps.Logger,
		now:         time.Now,
	}, nil
}

// PlaceResult is returned from a successful placement. GatewayOrderID is set
// for online payments so the SPA can open the payment widget.
type PlaceResult struct {
	Order          *models.Order
	GatewayOrderID string
}

// Place turns the checkout session into an order. All preconditions are
// re-verified server-side; a second submit while one is in flight gets a
// STATE_CONFLICT from the redis lock.
func (s *Service) Place(ctx context.Context, customerRef, sessionID string) (*PlaceResult, error) {
	session, err := s.sessions.Load(ctx, customerRef, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Step != enums.CheckoutStepSummary {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "checkout is not at the summary step")
	}
	if !session.PaymentMethod.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment method not chosen")
	}

	lockKey := s.locker.PlacingLockKey(sessionID)
	acquired, err := s.locker.SetNX(ctx, lockKey, "1", s.lockTTL)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "placement lock unavailable")
	}
	if !acquired {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "order placement already in progress")
	}

	result, err := s.place(ctx, customerRef, session)
	if err != nil {
		// Release the lock so the customer can retry; cart and session
		// are untouched on failure.
		_ = s.locker.Del(ctx, lockKey)
		return nil, err
	}

	_ = s.locker.Del(ctx, lockKey)
	_ = s.sessions.Delete(ctx, sessionID)
	if s.httpMetrics != nil {
		s.httpMetrics.IncOrderPlaced(session.PaymentMethod.String())
	}
	return result, nil
}

func (s *Service) place(ctx context.Context, customerRef string, session *checkout.Session) (*PlaceResult, error) {
	stg, err := s.settings.Get(ctx)
	if err != nil {
		return nil, err
	}

	cart, err := s.cartRepo.FindByCustomerRef(ctx, customerRef)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to load cart")
	}
	if cart == nil || len(cart.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "cart is empty")
	}
	if cart.Version != session.CartVersion {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "cart changed during checkout, review the updated totals")
	}

	items := toLineItems(cart.Items)
	subtotal := pricing.Subtotal(items)
	if status := pricing.MinOrder(subtotal, stg); !status.Met {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "minimum order amount not met").
			WithDetails(map[string]any{"required": status.Required, "shortfall": status.Shortfall})
	}

	zone, err := s.zones.Check(ctx, session.Address.Pincode)
	if err != nil {
		return nil, err
	}
	if !zone.Serviceable {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "delivery is not available for this pincode").
			WithDetails(map[string]any{"pincode": session.Address.Pincode})
	}

	// Re-resolve the coupon at the moment of truth.
	var applied *pricing.AppliedCoupon
	var couponRow *models.Coupon
	if cart.CouponCode != nil && *cart.CouponCode != "" {
		view := coupons.CartView{Subtotal: subtotal, CategorySlugs: slugsOf(cart.Items)}
		valid, reason, err := s.coupons.Recheck(ctx, *cart.CouponCode, customerRef, view)
		if err != nil {
			return nil, err
		}
		if reason != "" {
			return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "applied coupon is no longer valid, review your cart").
				WithDetails(map[string]any{"reason": string(reason)})
		}
		applied = valid
		couponRow, err = s.coupons.CouponByCode(ctx, *cart.CouponCode)
		if err != nil {
			return nil, err
		}
	}

	snap := pricing.Compute(items, stg, applied, session.PaymentMethod)
	if session.PaymentMethod == enums.PaymentMethodCOD && !pricing.CODAvailable(snap.Total.Sub(snap.CODFee), stg) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cash on delivery is not available for this order amount")
	}

	order := &models.Order{
		ID:            uuid.New(),
		CustomerRef:   customerRef,
		ContactName:   session.Contact.Name,
		ContactEmail:  session.Contact.Email,
		ContactPhone:  session.Contact.Phone,
		Address:       session.Address,
		PaymentMethod: session.PaymentMethod,
		PaymentStatus: enums.PaymentStatusUnpaid,
		CouponCode:    cart.CouponCode,
		Subtotal:      snap.Subtotal,
		Tax:           snap.Tax,
		DeliveryFee:   snap.DeliveryFee,
		CODFee:        snap.CODFee,
		Discount:      snap.Discount,
		Total:         snap.Total,
		PlacedAt:      s.now().UTC(),
	}
	for _, li := range items {
		order.Items = append(order.Items, models.OrderItem{
			ID:        uuid.New(),
			OrderID:   order.ID,
			ProductID: li.ProductID,
			Name:      li.Name,
			UnitPrice: li.UnitPrice,
			Quantity:  li.Quantity,
			LineTotal: li.LineTotal(),
		})
	}

	gatewayOrderID := ""
	if session.PaymentMethod == enums.PaymentMethodOnline {
		if s.gateway == nil {
			return nil, pkgerrors.New(pkgerrors.CodeDependency, "online payments are not configured")
		}
		gatewayOrder, err := s.gateway.CreateOrder(ctx, snap.Total, "INR", order.ID.String())
		if err != nil {
			return nil, err
		}
		gatewayOrderID = gatewayOrder.ID
		order.GatewayOrderID = &gatewayOrderID
		order.Status = enums.OrderStatusAwaitingPayment
	} else {
		order.Status = enums.OrderStatusPending
	}

	txErr := s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		txOrders := s.repo.WithTx(tx)
		txCarts := s.cartRepo.WithTx(tx)

		number, err := s.number(tx)
		if err != nil {
			return err
		}
		order.OrderNumber = number

		if err := txOrders.Create(ctx, order); err != nil {
			return err
		}

		if couponRow != nil && s.couponRepo != nil {
			redemption := models.CouponRedemption{
				ID:          uuid.New(),
				CouponID:    couponRow.ID,
				CustomerRef: customerRef,
				OrderID:     order.ID,
			}
			if err := s.couponRepo.WithTx(tx).RecordRedemption(ctx, redemption); err != nil {
				return err
			}
		}

		// Clear the cart in the same transaction.
		if err := txCarts.DeleteAllItems(ctx, cart.ID); err != nil {
			return err
		}
		cart.Items = nil
		cart.CouponCode = nil
		cart.Subtotal = decimal.Zero
		cart.Tax = decimal.Zero
		cart.DeliveryFee = decimal.Zero
		cart.Discount = decimal.Zero
		cart.Total = decimal.Zero
		cart.Version++
		if err := txCarts.Save(ctx, cart); err != nil {
			return err
		}

		if s.emitter != nil {
			actor := &outbox.ActorRef{CustomerRef: customerRef, Role: string(enums.RoleCustomer)}
			if err := s.emitter.Emit(ctx, tx, outbox.DomainEvent{
				EventType:     enums.EventOrderCreated,
				AggregateType: enums.AggregateOrder,
				AggregateID:   order.ID,
				Actor:         actor,
				Data: map[string]any{
					"order_number":   order.OrderNumber,
					"status":         order.Status,
					"payment_method": order.PaymentMethod,
					"total":          order.Total,
				},
				Version: 1,
			}); err != nil {
				return err
			}
			if couponRow != nil {
				if err := s.emitter.Emit(ctx, tx, outbox.DomainEvent{
					EventType:     enums.EventCouponRedeemed,
					AggregateType: enums.AggregateCoupon,
					AggregateID:   couponRow.ID,
					Actor:         actor,
					Data: map[string]any{
						"code":     couponRow.Code,
						"order_id": order.ID,
						"discount": order.Discount,
					},
					Version: 1,
				}); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if txErr != nil {
		if coded := pkgerrors.As(txErr); coded != nil {
			return nil, coded
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, txErr, "order placement failed")
	}

	if s.logg != nil {
		logCtx := s.logg.WithOrderID(ctx, order.ID.String())
		s.logg.Info(logCtx, fmt.Sprintf("order %s placed (%s)", order.OrderNumber, order.PaymentMethod))
	}
	return &PlaceResult{Order: order, GatewayOrderID: gatewayOrderID}, nil
}

// ConfirmPayment handles the gateway webhook for an online order. A captured
// payment moves the order into the kitchen queue; a failed one records the
// failure and leaves the order awaiting payment for a retry.
func (s *Service) ConfirmPayment(ctx context.Context, gatewayOrderID string, captured bool) (*models.Order, error) {
	order, err := s.repo.FindByGatewayOrderID(ctx, gatewayOrderID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "order lookup failed")
	}
	if order == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found for gateway reference")
	}
	if order.Status != enums.OrderStatusAwaitingPayment {
		// Duplicate webhook delivery; acknowledge without rewriting state.
		return order, nil
	}

	txErr := s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		txOrders := s.repo.WithTx(tx)
		if captured {
			order.PaymentStatus = enums.PaymentStatusPaid
			order.Status = enums.OrderStatusPending
		} else {
			order.PaymentStatus = enums.PaymentStatusFailed
		}
		if err := txOrders.Save(ctx, order); err != nil {
			return err
		}
		if s.emitter != nil && captured {
			return s.emitter.Emit(ctx, tx, outbox.DomainEvent{
				EventType:     enums.EventOrderPaid,
				AggregateType: enums.AggregateOrder,
				AggregateID:   order.ID,
				Data: map[string]any{
					"order_number": order.OrderNumber,
					"total":        order.Total,
				},
				Version: 1,
			})
		}
		return nil
	})
	if txErr != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, txErr, "payment confirmation failed")
	}
	return order, nil
}

// ListForCustomer pages through the customer's own orders.
func (s *Service) ListForCustomer(ctx context.Context, customerRef string, params pagination.Params) (*pagination.Page[models.Order], error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid cursor")
	}
	rows, err := s.repo.ListByCustomer(ctx, customerRef, cursor, pagination.LimitWithBuffer(params.Limit))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "order listing failed")
	}
	page := pagination.BuildPage(rows, params.Limit, func(o models.Order) pagination.Cursor {
		return pagination.Cursor{CreatedAt: o.CreatedAt, ID: o.ID}
	})
	return &page, nil
}

// GetForCustomer returns one order scoped to its owner.
func (s *Service) GetForCustomer(ctx context.Context, customerRef string, orderID uuid.UUID) (*models.Order, error) {
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "order lookup failed")
	}
	if order == nil || order.CustomerRef != customerRef {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	return order, nil
}

// Get returns one order for back-office views.
func (s *Service) Get(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "order lookup failed")
	}
	if order == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	return order, nil
}

// Queue returns the kitchen work queue. With no filter it covers every
// non-terminal status.
func (s *Service) Queue(ctx context.Context, statuses []enums.OrderStatus) ([]models.Order, error) {
	if len(statuses) == 0 {
		statuses = []enums.OrderStatus{
			enums.OrderStatusPending,
			enums.OrderStatusConfirmed,
			enums.OrderStatusPreparing,
			enums.OrderStatusReady,
			enums.OrderStatusOutForDelivery,
		}
	}
	rows, err := s.repo.ListByStatuses(ctx, statuses)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "queue listing failed")
	}
	return rows, nil
}

// Transition moves an order along the kitchen flow. Invalid moves are a
// STATE_CONFLICT; every accepted move emits an event.
func (s *Service) Transition(ctx context.Context, orderID uuid.UUID, next enums.OrderStatus, actor *outbox.ActorRef) (*models.Order, error) {
	if !next.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown order status")
	}

	var updated *models.Order
	txErr := s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		txOrders := s.repo.WithTx(tx)

		order, err := txOrders.FindByID(ctx, orderID)
		if err != nil {
			return err
		}
		if order == nil {
			return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		if !order.Status.CanTransitionTo(next) {
			return pkgerrors.New(pkgerrors.CodeStateConflict,
				fmt.Sprintf("order cannot move from %s to %s", order.Status, next))
		}

		previous := order.Status
		order.Status = next
		if err := txOrders.Save(ctx, order); err != nil {
			return err
		}

		if s.emitter != nil {
			eventType := enums.EventOrderStatusChanged
			if next == enums.OrderStatusCancelled {
				eventType = enums.EventOrderCancelled
			}
			if err := s.emitter.Emit(ctx, tx, outbox.DomainEvent{
				EventType:     eventType,
				AggregateType: enums.AggregateOrder,
				AggregateID:   order.ID,
				Actor:         actor,
				Data: map[string]any{
					"order_number": order.OrderNumber,
					"from":         previous,
					"to":           next,
				},
				Version: 1,
			}); err != nil {
				return err
			}
		}
		updated = order
		return nil
	})
	if txErr != nil {
		if coded := pkgerrors.As(txErr); coded != nil {
			return nil, coded
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, txErr, "status transition failed")
	}
	return updated, nil
}

// Cancel is the customer-facing cancellation, allowed until preparing.
func (s *Service) Cancel(ctx context.Context, customerRef string, orderID uuid.UUID) (*models.Order, error) {
	order, err := s.GetForCustomer(ctx, customerRef, orderID)
	if err != nil {
		return nil, err
	}
	actor := &outbox.ActorRef{CustomerRef: customerRef, Role: string(enums.RoleCustomer)}
	return s.Transition(ctx, order.ID, enums.OrderStatusCancelled, actor)
}

func toLineItems(items []models.CartItem) []pricing.LineItem {
	out := make([]pricing.LineItem, 0, len(items))
	for _, item := range items {
		out = append(out, pricing.LineItem{
			ProductID:    item.ProductID,
			Name:         item.Name,
			UnitPrice:    item.UnitPrice,
			Quantity:     item.Quantity,
			CategorySlug: item.CategorySlug,
		})
	}
	return out
}

func slugsOf(items []models.CartItem) []string {
	seen := map[string]struct{}{}
	var out []string
	for _, item := range items {
		if item.CategorySlug == "" {
			continue
		}
		if _, ok := seen[item.CategorySlug]; ok {
			continue
		}
		seen[item.CategorySlug] = struct{}{}
		out = append(out, item.CategorySlug)
	}
	return out
}
