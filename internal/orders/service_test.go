package orders

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/kitarena/kitarena-backend/internal/notifications"
	"github.com/kitarena/kitarena-backend/internal/payments"
	"github.com/kitarena/kitarena-backend/internal/products"
	"github.com/kitarena/kitarena-backend/pkg/db/models"
	dbtypes "github.com/kitarena/kitarena-backend/pkg/db/types"
	"github.com/kitarena/kitarena-backend/pkg/enums"
	pkgerrors "github.com/kitarena/kitarena-backend/pkg/errors"
	"github.com/kitarena/kitarena-backend/pkg/logger"
	"github.com/kitarena/kitarena-backend/pkg/pagination"
	"github.com/kitarena/kitarena-backend/pkg/types"
)

type fakeTx struct{}

func (fakeTx) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type fakeOrdersRepo struct {
	createFn       func(ctx context.Context, order *models.Order) (*models.Order, error)
	findByIDFn     func(ctx context.Context, id uuid.UUID) (*models.Order, error)
	findByIntentFn func(ctx context.Context, intentID string) (*models.Order, error)
	listFn         func(ctx context.Context, params pagination.Params, filters ListFilters) (*OrderList, error)
	updateIfFn     func(ctx context.Context, id uuid.UUID, from []enums.OrderStatus, updates map[string]any) (bool, error)
	markRefundedFn func(ctx context.Context, id uuid.UUID, reference string, at time.Time) (bool, error)

	lastUpdates map[string]any
}

func (f *fakeOrdersRepo) WithTx(tx *gorm.DB) Repository { return f }

func (f *fakeOrdersRepo) Create(ctx context.Context, order *models.Order) (*models.Order, error) {
	if f.createFn != nil {
		return f.createFn(ctx, order)
	}
	order.ID = uuid.New()
	return order, nil
}

func (f *fakeOrdersRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	if f.findByIDFn != nil {
		return f.findByIDFn(ctx, id)
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeOrdersRepo) FindByPaymentIntentID(ctx context.Context, intentID string) (*models.Order, error) {
	if f.findByIntentFn != nil {
		return f.findByIntentFn(ctx, intentID)
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeOrdersRepo) List(ctx context.Context, params pagination.Params, filters ListFilters) (*OrderList, error) {
	if f.listFn != nil {
		return f.listFn(ctx, params, filters)
	}
	return &OrderList{}, nil
}

func (f *fakeOrdersRepo) UpdateStatusIf(ctx context.Context, id uuid.UUID, from []enums.OrderStatus, updates map[string]any) (bool, error) {
	f.lastUpdates = updates
	if f.updateIfFn != nil {
		return f.updateIfFn(ctx, id, from, updates)
	}
	return true, nil
}

func (f *fakeOrdersRepo) MarkRefunded(ctx context.Context, id uuid.UUID, reference string, at time.Time) (bool, error) {
	if f.markRefundedFn != nil {
		return f.markRefundedFn(ctx, id, reference, at)
	}
	return true, nil
}

type fakeSnapshots struct {
	snapshot *models.OrderDetails
}

func (f *fakeSnapshots) FindSnapshotByIntent(ctx context.Context, intentID string) (*models.OrderDetails, error) {
	if f.snapshot == nil || f.snapshot.PaymentIntentID != intentID {
		return nil, gorm.ErrRecordNotFound
	}
	return f.snapshot, nil
}

type fakeStock struct {
	products.Repository
	decrements  map[uuid.UUID]int
	decrementFn func(ctx context.Context, id uuid.UUID, quantity int) (bool, error)
}

func (f *fakeStock) WithTx(tx *gorm.DB) products.Repository { return f }

func (f *fakeStock) DecrementStock(ctx context.Context, id uuid.UUID, quantity int) (bool, error) {
	if f.decrements == nil {
		f.decrements = map[uuid.UUID]int{}
	}
	f.decrements[id] += quantity
	if f.decrementFn != nil {
		return f.decrementFn(ctx, id, quantity)
	}
	return true, nil
}

type fakeRedeemer struct {
	redeemed []uuid.UUID
	err      error
}

func (f *fakeRedeemer) Redeem(ctx context.Context, tx *gorm.DB, couponID uuid.UUID) error {
	f.redeemed = append(f.redeemed, couponID)
	return f.err
}

type fakeRecorder struct {
	recorded [][]uuid.UUID
}

func (f *fakeRecorder) RecordUsage(ctx context.Context, tx *gorm.DB, ruleIDs []uuid.UUID) error {
	f.recorded = append(f.recorded, ruleIDs)
	return nil
}

type fakeGateway struct {
	confirmFn    func(ctx context.Context, kind enums.PaymentProvider, handle string) (*payments.Confirmation, error)
	refundFn     func(ctx context.Context, kind enums.PaymentProvider, ref string, amount *decimal.Decimal) (*payments.RefundResult, error)
	confirmCalls int
	refundCalls  int
}

func (f *fakeGateway) Confirm(ctx context.Context, kind enums.PaymentProvider, handle string) (*payments.Confirmation, error) {
	f.confirmCalls++
	if f.confirmFn != nil {
		return f.confirmFn(ctx, kind, handle)
	}
	return &payments.Confirmation{Status: enums.PaymentStatusSucceeded, ProviderReference: handle}, nil
}

func (f *fakeGateway) Refund(ctx context.Context, kind enums.PaymentProvider, ref string, amount *decimal.Decimal) (*payments.RefundResult, error) {
	f.refundCalls++
	if f.refundFn != nil {
		return f.refundFn(ctx, kind, ref, amount)
	}
	return &payments.RefundResult{Status: enums.PaymentStatusSucceeded, RefundReference: "re_test_1"}, nil
}

type fakeUsers struct {
	byID map[uuid.UUID]*models.User
}

func (f *fakeUsers) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	if user, ok := f.byID[id]; ok {
		return user, nil
	}
	return nil, gorm.ErrRecordNotFound
}

type fakeMailer struct {
	sent []enums.NotificationKind
}

func (f *fakeMailer) Send(ctx context.Context, kind enums.NotificationKind, recipient notifications.Recipient, params notifications.Params) notifications.DeliveryResult {
	f.sent = append(f.sent, kind)
	return notifications.DeliveryResult{Kind: kind, Recipient: recipient.Email, Delivered: true}
}

type orderDeps struct {
	repo      *fakeOrdersRepo
	snapshots *fakeSnapshots
	stock     *fakeStock
	coupons   *fakeRedeemer
	discounts *fakeRecorder
	gateway   *fakeGateway
	users     *fakeUsers
	mailer    *fakeMailer
}

func newOrderDeps() *orderDeps {
	return &orderDeps{
		repo:      &fakeOrdersRepo{},
		snapshots: &fakeSnapshots{},
		stock:     &fakeStock{},
		coupons:   &fakeRedeemer{},
		discounts: &fakeRecorder{},
		gateway:   &fakeGateway{},
		users:     &fakeUsers{byID: map[uuid.UUID]*models.User{}},
		mailer:    &fakeMailer{},
	}
}

func newOrderService(t *testing.T, deps *orderDeps) Service {
	t.Helper()
	logg := logger.New(logger.Options{ServiceName: "test", Level: logger.ParseLevel("error")})
	svc, err := NewService(
		fakeTx{},
		deps.repo,
		deps.snapshots,
		deps.stock,
		deps.coupons,
		deps.discounts,
		deps.gateway,
		deps.users,
		deps.mailer,
		logg,
	)
	require.NoError(t, err)
	return svc
}

func testSnapshot(intentID string) *models.OrderDetails {
	productID := uuid.New()
	return &models.OrderDetails{
		ID:              uuid.New(),
		PaymentIntentID: intentID,
		Provider:        enums.PaymentProviderStripe,
		UserID:          uuid.New(),
		Email:           "mario@example.com",
		Language:        enums.LanguageItalian,
		Amount:          decimal.RequireFromString("77.00"),
		Currency:        enums.CurrencyEUR,
		Items: []types.LineSnapshot{{
			ProductID: &productID,
			Name:      "Home Jersey",
			UnitPrice: decimal.RequireFromString("72.00"),
			Quantity:  2,
		}},
		ShippingAddress: types.Address{FullName: "Mario Rossi", Street: "Via Roma 1", City: "Milano", Zip: "20121", Country: "IT"},
	}
}

func TestConfirmPaymentReconcilesOrder(t *testing.T) {
	deps := newOrderDeps()
	snapshot := testSnapshot("pi_1")
	couponID := uuid.New()
	ruleID := uuid.New()
	snapshot.CouponID = &couponID
	snapshot.AppliedRuleIDs = dbtypes.UUIDArray{ruleID}
	deps.snapshots.snapshot = snapshot
	svc := newOrderService(t, deps)

	order, err := svc.ConfirmPayment(context.Background(), enums.PaymentProviderStripe, "pi_1")
	require.NoError(t, err)

	assert.Equal(t, enums.OrderStatusPaid, order.Status)
	assert.Equal(t, "77.00", order.Amount.StringFixed(2))
	assert.Equal(t, "pi_1", order.PaymentIntentID)
	require.Len(t, order.Items, 1)
	assert.Equal(t, 2, order.Items[0].Quantity)

	assert.Equal(t, 2, deps.stock.decrements[*snapshot.Items[0].ProductID])
	assert.Equal(t, []uuid.UUID{couponID}, deps.coupons.redeemed)
	require.Len(t, deps.discounts.recorded, 1)
	assert.Equal(t, []uuid.UUID{ruleID}, deps.discounts.recorded[0])
	assert.Equal(t, []enums.NotificationKind{enums.NotificationOrderConfirmation}, deps.mailer.sent)
}

func TestConfirmPaymentIsIdempotent(t *testing.T) {
	deps := newOrderDeps()
	existing := &models.Order{ID: uuid.New(), Status: enums.OrderStatusPaid, PaymentIntentID: "pi_1"}
	deps.repo.findByIntentFn = func(ctx context.Context, intentID string) (*models.Order, error) {
		return existing, nil
	}
	svc := newOrderService(t, deps)

	order, err := svc.ConfirmPayment(context.Background(), enums.PaymentProviderStripe, "pi_1")
	require.NoError(t, err)

	assert.Equal(t, existing.ID, order.ID)
	assert.Zero(t, deps.gateway.confirmCalls)
	assert.Empty(t, deps.mailer.sent)
}

func TestConfirmPaymentResolvesConcurrentWebhook(t *testing.T) {
	deps := newOrderDeps()
	deps.snapshots.snapshot = testSnapshot("pi_1")
	winner := &models.Order{ID: uuid.New(), Status: enums.OrderStatusPaid, PaymentIntentID: "pi_1"}
	lookups := 0
	deps.repo.findByIntentFn = func(ctx context.Context, intentID string) (*models.Order, error) {
		lookups++
		if lookups == 1 {
			return nil, gorm.ErrRecordNotFound
		}
		return winner, nil
	}
	deps.repo.createFn = func(ctx context.Context, order *models.Order) (*models.Order, error) {
		return nil, &pgconn.PgError{Code: "23505", ConstraintName: "idx_orders_payment_intent_id"}
	}
	svc := newOrderService(t, deps)

	order, err := svc.ConfirmPayment(context.Background(), enums.PaymentProviderStripe, "pi_1")
	require.NoError(t, err)
	assert.Equal(t, winner.ID, order.ID)
	assert.Empty(t, deps.mailer.sent)
}

func TestConfirmPaymentRejectsUnsettledPayment(t *testing.T) {
	deps := newOrderDeps()
	deps.snapshots.snapshot = testSnapshot("pi_1")
	deps.gateway.confirmFn = func(ctx context.Context, kind enums.PaymentProvider, handle string) (*payments.Confirmation, error) {
		return &payments.Confirmation{Status: enums.PaymentStatusPending}, nil
	}
	svc := newOrderService(t, deps)

	_, err := svc.ConfirmPayment(context.Background(), enums.PaymentProviderStripe, "pi_1")
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeStateConflict))
	assert.Empty(t, deps.coupons.redeemed)
}

func TestConfirmPaymentRejectsInsufficientStock(t *testing.T) {
	deps := newOrderDeps()
	deps.snapshots.snapshot = testSnapshot("pi_1")
	deps.stock.decrementFn = func(ctx context.Context, id uuid.UUID, quantity int) (bool, error) {
		return false, nil
	}
	svc := newOrderService(t, deps)

	_, err := svc.ConfirmPayment(context.Background(), enums.PaymentProviderStripe, "pi_1")
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeConflict))
	assert.Empty(t, deps.mailer.sent)
}

func TestConfirmPaymentRequiresSnapshot(t *testing.T) {
	deps := newOrderDeps()
	svc := newOrderService(t, deps)

	_, err := svc.ConfirmPayment(context.Background(), enums.PaymentProviderStripe, "pi_unknown")
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeNotFound))
}

func ownerOrder(userID uuid.UUID, status enums.OrderStatus) *models.Order {
	return &models.Order{
		ID:              uuid.New(),
		UserID:          userID,
		Status:          status,
		Amount:          decimal.RequireFromString("77.00"),
		Currency:        enums.CurrencyEUR,
		Provider:        enums.PaymentProviderStripe,
		PaymentIntentID: "pi_1",
	}
}

func TestCancelByOwner(t *testing.T) {
	deps := newOrderDeps()
	userID := uuid.New()
	order := ownerOrder(userID, enums.OrderStatusProcessing)
	deps.repo.findByIDFn = func(ctx context.Context, id uuid.UUID) (*models.Order, error) {
		return order, nil
	}
	deps.users.byID[userID] = &models.User{ID: userID, Email: "mario@example.com", FirstName: "Mario", LastName: "Rossi", Language: enums.LanguageItalian}
	svc := newOrderService(t, deps)

	_, err := svc.Cancel(context.Background(), Actor{UserID: userID, Role: enums.UserRoleUser}, order.ID)
	require.NoError(t, err)

	assert.Equal(t, enums.OrderStatusCancelled, deps.repo.lastUpdates["status"])
	assert.Equal(t, userID, deps.repo.lastUpdates["cancelled_by"])
	assert.NotNil(t, deps.repo.lastUpdates["cancelled_at"])
}

func TestCancelRejectsShippedOrder(t *testing.T) {
	deps := newOrderDeps()
	userID := uuid.New()
	order := ownerOrder(userID, enums.OrderStatusShipped)
	deps.repo.findByIDFn = func(ctx context.Context, id uuid.UUID) (*models.Order, error) {
		return order, nil
	}
	deps.repo.updateIfFn = func(ctx context.Context, id uuid.UUID, from []enums.OrderStatus, updates map[string]any) (bool, error) {
		return false, nil
	}
	svc := newOrderService(t, deps)

	_, err := svc.Cancel(context.Background(), Actor{UserID: userID, Role: enums.UserRoleUser}, order.ID)
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeStateConflict))
}

func TestCancelRejectsForeignOrder(t *testing.T) {
	deps := newOrderDeps()
	order := ownerOrder(uuid.New(), enums.OrderStatusPending)
	deps.repo.findByIDFn = func(ctx context.Context, id uuid.UUID) (*models.Order, error) {
		return order, nil
	}
	svc := newOrderService(t, deps)

	_, err := svc.Cancel(context.Background(), Actor{UserID: uuid.New(), Role: enums.UserRoleUser}, order.ID)
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeForbidden))
}

func TestSetTrackingShipsOrder(t *testing.T) {
	deps := newOrderDeps()
	userID := uuid.New()
	order := ownerOrder(userID, enums.OrderStatusPaid)
	deps.repo.findByIDFn = func(ctx context.Context, id uuid.UUID) (*models.Order, error) {
		shipped := *order
		shipped.Status = enums.OrderStatusShipped
		return &shipped, nil
	}
	deps.users.byID[userID] = &models.User{ID: userID, Email: "mario@example.com", FirstName: "Mario", Language: enums.LanguageItalian}
	svc := newOrderService(t, deps)

	_, err := svc.SetTracking(context.Background(), Actor{UserID: uuid.New(), Role: enums.UserRoleAdmin}, order.ID, "TRK1")
	require.NoError(t, err)

	assert.Equal(t, enums.OrderStatusShipped, deps.repo.lastUpdates["status"])
	assert.Equal(t, "TRK1", deps.repo.lastUpdates["tracking_code"])
	assert.Equal(t, []enums.NotificationKind{enums.NotificationShippingNotification}, deps.mailer.sent)
}

func TestSetTrackingRequiresAdmin(t *testing.T) {
	svc := newOrderService(t, newOrderDeps())
	_, err := svc.SetTracking(context.Background(), Actor{UserID: uuid.New(), Role: enums.UserRoleUser}, uuid.New(), "TRK1")
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeForbidden))
}

func TestUpdateStatusRejectsDirectCancellation(t *testing.T) {
	svc := newOrderService(t, newOrderDeps())
	_, err := svc.UpdateStatus(context.Background(), Actor{Role: enums.UserRoleAdmin}, uuid.New(), enums.OrderStatusCancelled)
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))
}

func TestRefundHappyPath(t *testing.T) {
	deps := newOrderDeps()
	userID := uuid.New()
	order := ownerOrder(userID, enums.OrderStatusPaid)
	deps.repo.findByIDFn = func(ctx context.Context, id uuid.UUID) (*models.Order, error) {
		return order, nil
	}
	deps.users.byID[userID] = &models.User{ID: userID, Email: "mario@example.com", FirstName: "Mario", Language: enums.LanguageItalian}
	svc := newOrderService(t, deps)

	_, err := svc.Refund(context.Background(), Actor{UserID: uuid.New(), Role: enums.UserRoleAdmin}, order.ID)
	require.NoError(t, err)

	assert.Equal(t, 1, deps.gateway.refundCalls)
	assert.Equal(t, []enums.NotificationKind{enums.NotificationRefundConfirmation}, deps.mailer.sent)
}

func TestConfirmPaymentStoresCaptureReference(t *testing.T) {
	deps := newOrderDeps()
	snapshot := testSnapshot("PAYPAL-ORDER-123")
	snapshot.Provider = enums.PaymentProviderPayPal
	deps.snapshots.snapshot = snapshot
	deps.gateway.confirmFn = func(ctx context.Context, kind enums.PaymentProvider, handle string) (*payments.Confirmation, error) {
		return &payments.Confirmation{Status: enums.PaymentStatusSucceeded, ProviderReference: "CAPTURE-999"}, nil
	}
	svc := newOrderService(t, deps)

	order, err := svc.ConfirmPayment(context.Background(), enums.PaymentProviderPayPal, "PAYPAL-ORDER-123")
	require.NoError(t, err)

	assert.Equal(t, "PAYPAL-ORDER-123", order.PaymentIntentID)
	assert.Equal(t, "CAPTURE-999", order.ProviderReference)
}

func TestRefundTargetsCaptureReference(t *testing.T) {
	deps := newOrderDeps()
	userID := uuid.New()
	order := ownerOrder(userID, enums.OrderStatusPaid)
	order.Provider = enums.PaymentProviderPayPal
	order.PaymentIntentID = "PAYPAL-ORDER-123"
	order.ProviderReference = "CAPTURE-999"
	deps.repo.findByIDFn = func(ctx context.Context, id uuid.UUID) (*models.Order, error) {
		return order, nil
	}
	deps.users.byID[userID] = &models.User{ID: userID, Email: "mario@example.com", FirstName: "Mario", Language: enums.LanguageItalian}
	var refundedAgainst string
	deps.gateway.refundFn = func(ctx context.Context, kind enums.PaymentProvider, ref string, amount *decimal.Decimal) (*payments.RefundResult, error) {
		refundedAgainst = ref
		return &payments.RefundResult{Status: enums.PaymentStatusSucceeded, RefundReference: "RF-1"}, nil
	}
	svc := newOrderService(t, deps)

	_, err := svc.Refund(context.Background(), Actor{UserID: uuid.New(), Role: enums.UserRoleAdmin}, order.ID)
	require.NoError(t, err)
	assert.Equal(t, "CAPTURE-999", refundedAgainst)
}

func TestRefundFallsBackToIntentWithoutReference(t *testing.T) {
	deps := newOrderDeps()
	userID := uuid.New()
	order := ownerOrder(userID, enums.OrderStatusPaid)
	deps.repo.findByIDFn = func(ctx context.Context, id uuid.UUID) (*models.Order, error) {
		return order, nil
	}
	deps.users.byID[userID] = &models.User{ID: userID, Email: "mario@example.com", FirstName: "Mario", Language: enums.LanguageItalian}
	var refundedAgainst string
	deps.gateway.refundFn = func(ctx context.Context, kind enums.PaymentProvider, ref string, amount *decimal.Decimal) (*payments.RefundResult, error) {
		refundedAgainst = ref
		return &payments.RefundResult{Status: enums.PaymentStatusSucceeded, RefundReference: "re_test_1"}, nil
	}
	svc := newOrderService(t, deps)

	_, err := svc.Refund(context.Background(), Actor{UserID: uuid.New(), Role: enums.UserRoleAdmin}, order.ID)
	require.NoError(t, err)
	assert.Equal(t, "pi_1", refundedAgainst)
}

func TestRefundGuardsBeforeProviderCall(t *testing.T) {
	deps := newOrderDeps()
	order := ownerOrder(uuid.New(), enums.OrderStatusPaid)
	order.Refunded = true
	deps.repo.findByIDFn = func(ctx context.Context, id uuid.UUID) (*models.Order, error) {
		return order, nil
	}
	svc := newOrderService(t, deps)

	_, err := svc.Refund(context.Background(), Actor{UserID: uuid.New(), Role: enums.UserRoleAdmin}, order.ID)
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeStateConflict))
	assert.Zero(t, deps.gateway.refundCalls)
}

func TestRefundRequiresAdmin(t *testing.T) {
	svc := newOrderService(t, newOrderDeps())
	_, err := svc.Refund(context.Background(), Actor{UserID: uuid.New(), Role: enums.UserRolePremium}, uuid.New())
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeForbidden))
}

func TestListOrdersScopesNonAdminToOwn(t *testing.T) {
	deps := newOrderDeps()
	var captured ListFilters
	deps.repo.listFn = func(ctx context.Context, params pagination.Params, filters ListFilters) (*OrderList, error) {
		captured = filters
		return &OrderList{}, nil
	}
	svc := newOrderService(t, deps)
	userID := uuid.New()
	other := uuid.New()

	_, err := svc.ListOrders(context.Background(), Actor{UserID: userID, Role: enums.UserRoleUser}, pagination.Params{}, ListFilters{UserID: &other})
	require.NoError(t, err)
	require.NotNil(t, captured.UserID)
	assert.Equal(t, userID, *captured.UserID)
}
