package discounts

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/kitarena/kitarena-backend/pkg/db/models"
	dbtypes "github.com/kitarena/kitarena-backend/pkg/db/types"
	"github.com/kitarena/kitarena-backend/pkg/enums"
	pkgerrors "github.com/kitarena/kitarena-backend/pkg/errors"
	"github.com/kitarena/kitarena-backend/pkg/logger"
	"github.com/kitarena/kitarena-backend/pkg/types"
)

// Service exposes rule evaluation plus the admin CRUD surface.
type Service interface {
	Evaluate(ctx context.Context, items []types.CartItem) ([]AppliedDiscount, error)
	RecordUsage(ctx context.Context, tx *gorm.DB, ruleIDs []uuid.UUID) error
	CreateRule(ctx context.Context, input CreateRuleInput) (*models.DiscountRule, error)
	UpdateRule(ctx context.Context, id uuid.UUID, input UpdateRuleInput) (*models.DiscountRule, error)
	DeleteRule(ctx context.Context, id uuid.UUID) error
	GetRule(ctx context.Context, id uuid.UUID) (*models.DiscountRule, error)
	ListRules(ctx context.Context) ([]models.DiscountRule, error)
}

type service struct {
	repo Repository
	logg *logger.Logger
	now  func() time.Time
}

// NewService wires the discount service with its dependencies.
func NewService(repo Repository, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("repository is required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger is required")
	}
	return &service{
		repo: repo,
		logg: logg,
		now:  time.Now,
	}, nil
}

// Evaluate loads the currently active rules and matches them against the cart.
func (s *service) Evaluate(ctx context.Context, items []types.CartItem) ([]AppliedDiscount, error) {
	if len(items) == 0 {
		return nil, nil
	}
	rules, err := s.repo.ListActive(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading active discount rules")
	}
	return Evaluate(items, rules, s.now()), nil
}

// RecordUsage bumps current_uses for every rule that contributed a discount.
// A rule whose cap was exhausted by a concurrent checkout is skipped.
func (s *service) RecordUsage(ctx context.Context, tx *gorm.DB, ruleIDs []uuid.UUID) error {
	repo := s.repo.WithTx(tx)
	for _, ruleID := range ruleIDs {
		applied, err := repo.IncrementUsage(ctx, ruleID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "incrementing rule usage")
		}
		if !applied {
			s.logg.Warn(ctx, fmt.Sprintf("discount rule %s usage cap reached, skipping increment", ruleID))
		}
	}
	return nil
}

func (s *service) CreateRule(ctx context.Context, input CreateRuleInput) (*models.DiscountRule, error) {
	if err := validateCreateRule(input, s.now()); err != nil {
		return nil, err
	}

	rule := &models.DiscountRule{
		Name:                 input.Name,
		Type:                 input.Type,
		IsActive:             true,
		Priority:             input.Priority,
		ExpiresAt:            input.ExpiresAt,
		MaxUses:              input.MaxUses,
		MinQuantity:          input.MinQuantity,
		MaxQuantity:          input.MaxQuantity,
		DiscountPercentage:   input.DiscountPercentage,
		DiscountAmount:       input.DiscountAmount,
		BuyQuantity:          input.BuyQuantity,
		GetFreeQuantity:      input.GetFreeQuantity,
		FreeProductIDs:       dbtypes.UUIDArray(input.FreeProductIDs),
		ApplicableProductIDs: dbtypes.UUIDArray(input.ApplicableProductIDs),
		ExcludedProductIDs:   dbtypes.UUIDArray(input.ExcludedProductIDs),
		ApplicableCategories: input.ApplicableCategories,
	}
	if input.IsActive != nil {
		rule.IsActive = *input.IsActive
	}

	created, err := s.repo.Create(ctx, rule)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "creating discount rule")
	}
	return created, nil
}

func (s *service) UpdateRule(ctx context.Context, id uuid.UUID, input UpdateRuleInput) (*models.DiscountRule, error) {
	updates := map[string]any{}
	if input.Name != nil {
		if *input.Name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "rule name cannot be empty")
		}
		updates["name"] = *input.Name
	}
	if input.IsActive != nil {
		updates["is_active"] = *input.IsActive
	}
	if input.Priority != nil {
		updates["priority"] = *input.Priority
	}
	if input.ExpiresAt != nil {
		if !input.ExpiresAt.After(s.now()) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "expiry must be in the future")
		}
		updates["expires_at"] = *input.ExpiresAt
	}
	if input.MaxUses != nil {
		if *input.MaxUses <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "max uses must be positive")
		}
		updates["max_uses"] = *input.MaxUses
	}
	if input.MinQuantity != nil {
		updates["min_quantity"] = *input.MinQuantity
	}
	if input.MaxQuantity != nil {
		updates["max_quantity"] = *input.MaxQuantity
	}
	if input.DiscountPercentage != nil {
		if err := validatePercentage(*input.DiscountPercentage); err != nil {
			return nil, err
		}
		updates["discount_percentage"] = *input.DiscountPercentage
	}
	if input.DiscountAmount != nil {
		if !input.DiscountAmount.IsPositive() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "discount amount must be positive")
		}
		updates["discount_amount"] = *input.DiscountAmount
	}
	if len(updates) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "no fields to update")
	}

	if err := s.repo.Update(ctx, id, updates); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "discount rule not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "updating discount rule")
	}
	return s.GetRule(ctx, id)
}

func (s *service) DeleteRule(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "discount rule not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "deleting discount rule")
	}
	return nil
}

func (s *service) GetRule(ctx context.Context, id uuid.UUID) (*models.DiscountRule, error) {
	rule, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "discount rule not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading discount rule")
	}
	return rule, nil
}

func (s *service) ListRules(ctx context.Context) ([]models.DiscountRule, error) {
	rules, err := s.repo.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "listing discount rules")
	}
	return rules, nil
}

func validateCreateRule(input CreateRuleInput, now time.Time) error {
	if input.Name == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "rule name is required")
	}
	if !input.Type.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid rule type %q", input.Type))
	}
	if input.ExpiresAt != nil && !input.ExpiresAt.After(now) {
		return pkgerrors.New(pkgerrors.CodeValidation, "expiry must be in the future")
	}
	if input.MaxUses != nil && *input.MaxUses <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "max uses must be positive")
	}
	if input.MinQuantity != nil && input.MaxQuantity != nil && *input.MinQuantity > *input.MaxQuantity {
		return pkgerrors.New(pkgerrors.CodeValidation, "min quantity cannot exceed max quantity")
	}

	switch input.Type {
	case enums.DiscountTypePercentage:
		if input.DiscountPercentage == nil {
			return pkgerrors.New(pkgerrors.CodeValidation, "percentage rules require a discount percentage")
		}
		return validatePercentage(*input.DiscountPercentage)
	case enums.DiscountTypeFixedAmount:
		if input.DiscountAmount == nil || !input.DiscountAmount.IsPositive() {
			return pkgerrors.New(pkgerrors.CodeValidation, "fixed amount rules require a positive discount amount")
		}
	case enums.DiscountTypeBuyXGetY:
		if input.BuyQuantity == nil || *input.BuyQuantity <= 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "buy x get y rules require a positive buy quantity")
		}
		if input.GetFreeQuantity == nil || *input.GetFreeQuantity <= 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "buy x get y rules require a positive free quantity")
		}
	}
	return nil
}

func validatePercentage(pct decimal.Decimal) error {
	if !pct.IsPositive() || pct.GreaterThan(decimal.NewFromInt(100)) {
		return pkgerrors.New(pkgerrors.CodeValidation, "discount percentage must be between 0 and 100")
	}
	return nil
}
