package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/kitarena/kitarena-backend/internal/notifications"
	"github.com/kitarena/kitarena-backend/internal/payments"
	"github.com/kitarena/kitarena-backend/internal/products"
	"github.com/kitarena/kitarena-backend/pkg/db"
	"github.com/kitarena/kitarena-backend/pkg/db/models"
	"github.com/kitarena/kitarena-backend/pkg/enums"
	pkgerrors "github.com/kitarena/kitarena-backend/pkg/errors"
	"github.com/kitarena/kitarena-backend/pkg/logger"
	"github.com/kitarena/kitarena-backend/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type snapshotLoader interface {
	FindSnapshotByIntent(ctx context.Context, paymentIntentID string) (*models.OrderDetails, error)
}

type couponRedeemer interface {
	Redeem(ctx context.Context, tx *gorm.DB, couponID uuid.UUID) error
}

type usageRecorder interface {
	RecordUsage(ctx context.Context, tx *gorm.DB, ruleIDs []uuid.UUID) error
}

type paymentGateway interface {
	Confirm(ctx context.Context, kind enums.PaymentProvider, handle string) (*payments.Confirmation, error)
	Refund(ctx context.Context, kind enums.PaymentProvider, providerReference string, amount *decimal.Decimal) (*payments.RefundResult, error)
}

type userLoader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// Service reconciles confirmed payments into orders and manages the order
// lifecycle afterwards.
type Service interface {
	ConfirmPayment(ctx context.Context, provider enums.PaymentProvider, paymentIntentID string) (*models.Order, error)
	GetOrder(ctx context.Context, actor Actor, id uuid.UUID) (*models.Order, error)
	ListOrders(ctx context.Context, actor Actor, params pagination.Params, filters ListFilters) (*OrderList, error)
	UpdateStatus(ctx context.Context, actor Actor, id uuid.UUID, status enums.OrderStatus) (*models.Order, error)
	SetTracking(ctx context.Context, actor Actor, id uuid.UUID, trackingCode string) (*models.Order, error)
	Cancel(ctx context.Context, actor Actor, id uuid.UUID) (*models.Order, error)
	Refund(ctx context.Context, actor Actor, id uuid.UUID) (*models.Order, error)
}

type service struct {
	tx        txRunner
	repo      Repository
	snapshots snapshotLoader
	stock     products.Repository
	coupons   couponRedeemer
	discounts usageRecorder
	gateway   paymentGateway
	users     userLoader
	mailer    notifications.Dispatcher
	logg      *logger.Logger
	now       func() time.Time
}

// NewService builds the order service. All dependencies are required.
func NewService(
	tx txRunner,
	repo Repository,
	snapshots snapshotLoader,
	stock products.Repository,
	couponSvc couponRedeemer,
	discountSvc usageRecorder,
	gateway paymentGateway,
	users userLoader,
	mailer notifications.Dispatcher,
	logg *logger.Logger,
) (Service, error) {
	if tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if snapshots == nil {
		return nil, fmt.Errorf("snapshot loader required")
	}
	if stock == nil {
		return nil, fmt.Errorf("stock repository required")
	}
	if couponSvc == nil {
		return nil, fmt.Errorf("coupon redeemer required")
	}
	if discountSvc == nil {
		return nil, fmt.Errorf("usage recorder required")
	}
	if gateway == nil {
		return nil, fmt.Errorf("payment gateway required")
	}
	if users == nil {
		return nil, fmt.Errorf("user loader required")
	}
	if mailer == nil {
		return nil, fmt.Errorf("mail dispatcher required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		tx:        tx,
		repo:      repo,
		snapshots: snapshots,
		stock:     stock,
		coupons:   couponSvc,
		discounts: discountSvc,
		gateway:   gateway,
		users:     users,
		mailer:    mailer,
		logg:      logg,
		now:       time.Now,
	}, nil
}

// ConfirmPayment turns a provider-confirmed intent into a paid order. The
// operation is idempotent: the orders table carries a unique index on
// payment_intent_id, so a concurrent or repeated webhook resolves to the
// already-created order.
func (s *service) ConfirmPayment(ctx context.Context, provider enums.PaymentProvider, paymentIntentID string) (*models.Order, error) {
	if paymentIntentID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment intent id required")
	}
	ctx = s.logg.WithPaymentIntentID(ctx, paymentIntentID)

	if existing, err := s.repo.FindByPaymentIntentID(ctx, paymentIntentID); err == nil {
		s.logg.Info(ctx, "payment already reconciled, skipping")
		return existing, nil
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "looking up order by payment intent")
	}

	confirmation, err := s.gateway.Confirm(ctx, provider, paymentIntentID)
	if err != nil {
		return nil, err
	}
	if confirmation.Status != enums.PaymentStatusSucceeded {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("payment is %s, not succeeded", confirmation.Status))
	}

	snapshot, err := s.snapshots.FindSnapshotByIntent(ctx, paymentIntentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "no checkout snapshot for payment intent")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading checkout snapshot")
	}

	var order *models.Order
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		order, err = s.reconcile(ctx, tx, snapshot, confirmation.ProviderReference)
		return err
	})
	if err != nil {
		if db.IsUniqueViolation(err, "idx_orders_payment_intent_id") {
			s.logg.Info(ctx, "concurrent webhook created the order first")
			return s.repo.FindByPaymentIntentID(ctx, paymentIntentID)
		}
		return nil, err
	}

	s.sendMail(ctx, enums.NotificationOrderConfirmation, notifications.Recipient{
		Email:    snapshot.Email,
		Language: snapshot.Language,
	}, notifications.Params{
		"Name":        snapshot.ShippingAddress.FullName,
		"OrderNumber": order.ID.String(),
		"Amount":      order.Amount.StringFixed(2),
		"Currency":    order.Currency.String(),
	})

	s.logg.Info(ctx, fmt.Sprintf("order %s reconciled via %s", order.ID, provider))
	return order, nil
}

func (s *service) reconcile(ctx context.Context, tx *gorm.DB, snapshot *models.OrderDetails, providerReference string) (*models.Order, error) {
	items := make([]models.OrderItem, len(snapshot.Items))
	for i, line := range snapshot.Items {
		items[i] = models.OrderItem{
			ProductID:     line.ProductID,
			Name:          line.Name,
			UnitPrice:     line.UnitPrice,
			Quantity:      line.Quantity,
			Customization: line.Customization,
		}
	}

	order := &models.Order{
		UserID:          snapshot.UserID,
		Status:          enums.OrderStatusPaid,
		Amount:          snapshot.Amount,
		Currency:        snapshot.Currency,
		ShippingAddress: snapshot.ShippingAddress,
		Provider:        snapshot.Provider,
		PaymentIntentID: snapshot.PaymentIntentID,
		// For PayPal the capture id, not the order id. Refunds target this.
		ProviderReference: providerReference,
		CouponCode:        snapshot.CouponCode,
		Items:             items,
	}
	created, err := s.repo.WithTx(tx).Create(ctx, order)
	if err != nil {
		return nil, err
	}

	stock := s.stock.WithTx(tx)
	for _, line := range snapshot.Items {
		if line.ProductID == nil {
			continue
		}
		ok, err := stock.DecrementStock(ctx, *line.ProductID, line.Quantity)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "decrementing stock")
		}
		if !ok {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, fmt.Sprintf("insufficient stock for product %s", *line.ProductID))
		}
	}

	if snapshot.CouponID != nil {
		if err := s.coupons.Redeem(ctx, tx, *snapshot.CouponID); err != nil {
			return nil, err
		}
	}
	if len(snapshot.AppliedRuleIDs) > 0 {
		if err := s.discounts.RecordUsage(ctx, tx, snapshot.AppliedRuleIDs); err != nil {
			return nil, err
		}
	}
	return created, nil
}

func (s *service) GetOrder(ctx context.Context, actor Actor, id uuid.UUID) (*models.Order, error) {
	order, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading order")
	}
	if err := authorizeRead(actor, order); err != nil {
		return nil, err
	}
	return order, nil
}

func (s *service) ListOrders(ctx context.Context, actor Actor, params pagination.Params, filters ListFilters) (*OrderList, error) {
	if actor.Role != enums.UserRoleAdmin {
		// Non-admins only ever see their own orders.
		userID := actor.UserID
		filters.UserID = &userID
	}
	return s.repo.List(ctx, params, filters)
}

// UpdateStatus moves an order along the fulfilment state machine. Admin only;
// cancellations and refunds have dedicated operations.
func (s *service) UpdateStatus(ctx context.Context, actor Actor, id uuid.UUID, status enums.OrderStatus) (*models.Order, error) {
	if actor.Role != enums.UserRoleAdmin {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "admin role required")
	}
	from, ok := transitionsInto(status)
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("cannot set status %s directly", status))
	}

	changed, err := s.repo.UpdateStatusIf(ctx, id, from, map[string]any{"status": status})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "updating order status")
	}
	if !changed {
		return nil, s.explainNoTransition(ctx, id, status)
	}

	order, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "reloading order")
	}
	s.notifyOwner(ctx, order, enums.NotificationOrderStatusUpdate, notifications.Params{
		"OrderNumber": order.ID.String(),
		"Status":      order.Status.String(),
	})
	return order, nil
}

// SetTracking records the carrier tracking code and moves the order to
// shipped, mailing the customer.
func (s *service) SetTracking(ctx context.Context, actor Actor, id uuid.UUID, trackingCode string) (*models.Order, error) {
	if actor.Role != enums.UserRoleAdmin {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "admin role required")
	}
	if trackingCode == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "tracking code required")
	}

	changed, err := s.repo.UpdateStatusIf(ctx, id,
		[]enums.OrderStatus{enums.OrderStatusPaid, enums.OrderStatusProcessing},
		map[string]any{
			"status":        enums.OrderStatusShipped,
			"tracking_code": trackingCode,
		})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "setting tracking code")
	}
	if !changed {
		return nil, s.explainNoTransition(ctx, id, enums.OrderStatusShipped)
	}

	order, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "reloading order")
	}
	s.notifyOwner(ctx, order, enums.NotificationShippingNotification, notifications.Params{
		"OrderNumber":  order.ID.String(),
		"TrackingCode": trackingCode,
	})
	return order, nil
}

// Cancel stops an order that has not shipped. Owners may cancel their own
// orders, admins any. Stock is not restored.
func (s *service) Cancel(ctx context.Context, actor Actor, id uuid.UUID) (*models.Order, error) {
	order, err := s.GetOrder(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	changed, err := s.repo.UpdateStatusIf(ctx, order.ID,
		[]enums.OrderStatus{enums.OrderStatusPending, enums.OrderStatusProcessing},
		map[string]any{
			"status":       enums.OrderStatusCancelled,
			"cancelled_at": s.now(),
			"cancelled_by": actor.UserID,
		})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "cancelling order")
	}
	if !changed {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("order is %s and can no longer be cancelled", order.Status))
	}

	cancelled, err := s.repo.FindByID(ctx, order.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "reloading order")
	}
	s.notifyOwner(ctx, cancelled, enums.NotificationOrderStatusUpdate, notifications.Params{
		"OrderNumber": cancelled.ID.String(),
		"Status":      cancelled.Status.String(),
	})
	return cancelled, nil
}

// Refund reverses the captured payment in full. Admin only. The refunded
// guard runs before the provider call so a double refund never reaches the
// provider.
func (s *service) Refund(ctx context.Context, actor Actor, id uuid.UUID) (*models.Order, error) {
	if actor.Role != enums.UserRoleAdmin {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "admin role required")
	}

	order, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading order")
	}
	if order.Refunded {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "order already refunded")
	}
	if order.Status == enums.OrderStatusPending {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "order has no captured payment to refund")
	}

	reference := order.ProviderReference
	if reference == "" {
		// Orders recorded before the capture reference was stored. Stripe and
		// Mollie refund against the intent id anyway.
		reference = order.PaymentIntentID
	}
	result, err := s.gateway.Refund(ctx, order.Provider, reference, nil)
	if err != nil {
		return nil, err
	}

	changed, err := s.repo.MarkRefunded(ctx, order.ID, result.RefundReference, s.now())
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "recording refund")
	}
	if !changed {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "order already refunded")
	}

	refunded, err := s.repo.FindByID(ctx, order.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "reloading order")
	}
	s.notifyOwner(ctx, refunded, enums.NotificationRefundConfirmation, notifications.Params{
		"OrderNumber":     refunded.ID.String(),
		"Amount":          refunded.Amount.StringFixed(2),
		"Currency":        refunded.Currency.String(),
		"RefundReference": result.RefundReference,
	})
	return refunded, nil
}

// notifyOwner looks up the order owner and mails them. Delivery problems are
// logged by the dispatcher and never fail the calling operation.
func (s *service) notifyOwner(ctx context.Context, order *models.Order, kind enums.NotificationKind, params notifications.Params) {
	owner, err := s.users.FindByID(ctx, order.UserID)
	if err != nil {
		s.logg.Error(ctx, "failed to load order owner for notification", err)
		return
	}
	params["Name"] = owner.FirstName
	s.sendMail(ctx, kind, notifications.Recipient{
		Email:    owner.Email,
		Name:     owner.FirstName + " " + owner.LastName,
		Language: owner.Language,
	}, params)
}

func (s *service) sendMail(ctx context.Context, kind enums.NotificationKind, recipient notifications.Recipient, params notifications.Params) {
	s.mailer.Send(ctx, kind, recipient, params)
}

// explainNoTransition distinguishes a missing order from one in the wrong
// state after a conditional update touched no rows.
func (s *service) explainNoTransition(ctx context.Context, id uuid.UUID, target enums.OrderStatus) error {
	order, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading order")
	}
	return pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("order is %s, cannot move to %s", order.Status, target))
}

func authorizeRead(actor Actor, order *models.Order) error {
	if actor.Role == enums.UserRoleAdmin {
		return nil
	}
	if order.UserID != actor.UserID {
		return pkgerrors.New(pkgerrors.CodeForbidden, "order belongs to another customer")
	}
	return nil
}

// transitionsInto lists the states an order may leave when moving to the
// target via UpdateStatus. Cancelled and refunded are reached through their
// dedicated operations.
func transitionsInto(target enums.OrderStatus) ([]enums.OrderStatus, bool) {
	switch target {
	case enums.OrderStatusProcessing:
		return []enums.OrderStatus{enums.OrderStatusPending, enums.OrderStatusPaid}, true
	case enums.OrderStatusShipped:
		return []enums.OrderStatus{enums.OrderStatusPaid, enums.OrderStatusProcessing}, true
	case enums.OrderStatusDelivered:
		return []enums.OrderStatus{enums.OrderStatusShipped}, true
	default:
		return nil, false
	}
}
