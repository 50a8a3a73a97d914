package checkout

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/kitarena/kitarena-backend/internal/coupons"
	"github.com/kitarena/kitarena-backend/internal/discounts"
	"github.com/kitarena/kitarena-backend/internal/payments"
	"github.com/kitarena/kitarena-backend/internal/pricing"
	"github.com/kitarena/kitarena-backend/pkg/config"
	"github.com/kitarena/kitarena-backend/pkg/db/models"
	dbtypes "github.com/kitarena/kitarena-backend/pkg/db/types"
	"github.com/kitarena/kitarena-backend/pkg/enums"
	pkgerrors "github.com/kitarena/kitarena-backend/pkg/errors"
	"github.com/kitarena/kitarena-backend/pkg/logger"
	"github.com/kitarena/kitarena-backend/pkg/types"
)

type productLoader interface {
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Product, error)
}

type patchResolver interface {
	ResolvePatches(ctx context.Context, codes []string) ([]models.Patch, error)
}

type discountEvaluator interface {
	Evaluate(ctx context.Context, items []types.CartItem) ([]discounts.AppliedDiscount, error)
}

type couponValidator interface {
	Validate(ctx context.Context, code string, role enums.UserRole) (*coupons.Validation, error)
}

type intentCreator interface {
	CreateIntent(ctx context.Context, kind enums.PaymentProvider, input payments.CreateIntentInput) (*payments.Intent, error)
}

// Service prices carts and starts provider checkouts.
type Service interface {
	Quote(ctx context.Context, actor Actor, input QuoteInput) (*Quote, error)
	Begin(ctx context.Context, actor Actor, input BeginInput) (*BeginResult, error)
}

type service struct {
	repo      Repository
	products  productLoader
	patches   patchResolver
	discounts discountEvaluator
	coupons   couponValidator
	executor  intentCreator
	currency  enums.Currency
	logg      *logger.Logger
}

// NewService builds the checkout orchestrator. All dependencies are required.
func NewService(
	repo Repository,
	products productLoader,
	patches patchResolver,
	discountSvc discountEvaluator,
	couponSvc couponValidator,
	executor intentCreator,
	cfg config.CheckoutConfig,
	logg *logger.Logger,
) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("checkout repository required")
	}
	if products == nil {
		return nil, fmt.Errorf("product loader required")
	}
	if patches == nil {
		return nil, fmt.Errorf("patch resolver required")
	}
	if discountSvc == nil {
		return nil, fmt.Errorf("discount evaluator required")
	}
	if couponSvc == nil {
		return nil, fmt.Errorf("coupon validator required")
	}
	if executor == nil {
		return nil, fmt.Errorf("payment executor required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	currency := enums.Currency(cfg.Currency)
	if !currency.IsValid() {
		return nil, fmt.Errorf("invalid checkout currency %q", cfg.Currency)
	}
	return &service{
		repo:      repo,
		products:  products,
		patches:   patches,
		discounts: discountSvc,
		coupons:   couponSvc,
		executor:  executor,
		currency:  currency,
		logg:      logg,
	}, nil
}

// Quote prices the cart without creating any provider state.
func (s *service) Quote(ctx context.Context, actor Actor, input QuoteInput) (*Quote, error) {
	items, breakdown, _, _, err := s.price(ctx, actor, input.Items, input.CouponCode)
	if err != nil {
		return nil, err
	}
	return &Quote{Items: items, Breakdown: *breakdown, Currency: s.currency}, nil
}

// Begin prices the cart, creates the provider intent and stores the resolved
// snapshot keyed by the intent id. The snapshot is what reconciliation reads
// when the provider later confirms payment.
func (s *service) Begin(ctx context.Context, actor Actor, input BeginInput) (*BeginResult, error) {
	if actor.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	if actor.Email == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer email required")
	}
	if !input.Provider.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown payment provider")
	}
	if err := validateAddress(input.ShippingAddress); err != nil {
		return nil, err
	}

	items, breakdown, appliedRuleIDs, coupon, err := s.price(ctx, actor, input.Items, input.CouponCode)
	if err != nil {
		return nil, err
	}

	reference := uuid.New()
	intent, err := s.executor.CreateIntent(ctx, input.Provider, payments.CreateIntentInput{
		Amount:      breakdown.Total,
		Currency:    s.currency,
		Description: fmt.Sprintf("KitArena order %s", reference),
		Metadata: map[string]string{
			"order_reference": reference.String(),
			"user_id":         actor.UserID.String(),
			"redirect_url":    input.RedirectURL,
		},
	})
	if err != nil {
		return nil, err
	}

	details := &models.OrderDetails{
		PaymentIntentID: intent.Handle,
		Provider:        input.Provider,
		UserID:          actor.UserID,
		Email:           actor.Email,
		Language:        actor.Language.OrDefault(),
		Amount:          breakdown.Total,
		Currency:        s.currency,
		AppliedRuleIDs:  dbtypes.UUIDArray(appliedRuleIDs),
		Items:           snapshotLines(items),
		ShippingAddress: input.ShippingAddress,
	}
	if coupon != nil {
		couponID := coupon.CouponID
		code := coupon.Code
		details.CouponID = &couponID
		details.CouponCode = &code
	}
	if _, err := s.repo.CreateSnapshot(ctx, details); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "persisting checkout snapshot")
	}

	ctx = s.logg.WithPaymentIntentID(ctx, intent.Handle)
	s.logg.Info(ctx, fmt.Sprintf("checkout started via %s", input.Provider))

	return &BeginResult{
		Intent:    intent,
		Breakdown: *breakdown,
		Amount:    breakdown.Total,
		Currency:  s.currency,
	}, nil
}

func (s *service) price(ctx context.Context, actor Actor, lines []LineInput, couponCode string) ([]types.CartItem, *pricing.Breakdown, []uuid.UUID, *coupons.Validation, error) {
	if len(lines) == 0 {
		return nil, nil, nil, nil, pkgerrors.New(pkgerrors.CodeValidation, "cart contains no items")
	}

	items, err := s.buildCartItems(ctx, lines)
	if err != nil {
		return nil, nil, nil, nil, err
	}

	applied, err := s.discounts.Evaluate(ctx, items)
	if err != nil {
		return nil, nil, nil, nil, err
	}

	var validation *coupons.Validation
	var pricingCoupon *pricing.Coupon
	if couponCode != "" {
		validation, err = s.coupons.Validate(ctx, couponCode, actor.Role)
		if err != nil {
			return nil, nil, nil, nil, err
		}
		pricingCoupon = &pricing.Coupon{
			Code:               validation.Code,
			DiscountPercentage: validation.DiscountPercentage,
		}
	}

	breakdown := pricing.ComputeTotal(items, applied, pricingCoupon)
	return items, &breakdown, ruleIDs(applied), validation, nil
}

func ruleIDs(applied []discounts.AppliedDiscount) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(applied))
	seen := make(map[uuid.UUID]struct{}, len(applied))
	for _, discount := range applied {
		if _, ok := seen[discount.RuleID]; ok {
			continue
		}
		seen[discount.RuleID] = struct{}{}
		ids = append(ids, discount.RuleID)
	}
	return ids
}

func validateAddress(address types.Address) error {
	if address.FullName == "" || address.Street == "" || address.City == "" || address.Zip == "" || address.Country == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "shipping address incomplete")
	}
	return nil
}
