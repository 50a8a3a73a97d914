package discounts

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/kitarena/kitarena-backend/pkg/db/models"
	"github.com/kitarena/kitarena-backend/pkg/enums"
	"github.com/kitarena/kitarena-backend/pkg/types"
)

// AppliedDiscount is the outcome of one rule matching the cart.
type AppliedDiscount struct {
	RuleID   uuid.UUID          `json:"rule_id"`
	RuleName string             `json:"rule_name"`
	Type     enums.DiscountType `json:"type"`
	Amount   decimal.Decimal    `json:"amount"`
}

// Evaluate matches active rules against the cart and computes each rule's
// discount. Rules run in descending priority order with createdAt descending
// as the tie break; matches on the same line item are not deduplicated.
func Evaluate(items []types.CartItem, rules []models.DiscountRule, now time.Time) []AppliedDiscount {
	if len(items) == 0 || len(rules) == 0 {
		return nil
	}

	ordered := make([]models.DiscountRule, 0, len(rules))
	for _, rule := range rules {
		if ruleAvailable(rule, now) {
			ordered = append(ordered, rule)
		}
	}
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].Priority != ordered[j].Priority {
			return ordered[i].Priority > ordered[j].Priority
		}
		return ordered[i].CreatedAt.After(ordered[j].CreatedAt)
	})

	var applied []AppliedDiscount
	for _, rule := range ordered {
		matched, ok := matchItems(rule, items)
		if !ok {
			continue
		}
		amount := ruleDiscount(rule, matched)
		if amount.IsPositive() {
			applied = append(applied, AppliedDiscount{
				RuleID:   rule.ID,
				RuleName: rule.Name,
				Type:     rule.Type,
				Amount:   amount,
			})
		}
	}
	return applied
}

func ruleAvailable(rule models.DiscountRule, now time.Time) bool {
	if !rule.IsActive {
		return false
	}
	if rule.ExpiresAt != nil && !rule.ExpiresAt.After(now) {
		return false
	}
	if rule.MaxUses != nil && rule.CurrentUses >= *rule.MaxUses {
		return false
	}
	return true
}

// matchItems returns the cart lines the rule targets. A rule with no product
// or category filters targets the whole cart. The rule does not match when
// any targeted line is explicitly excluded or when the aggregate matched
// quantity falls outside the rule's quantity bounds.
func matchItems(rule models.DiscountRule, items []types.CartItem) ([]types.CartItem, bool) {
	categories := make(map[string]struct{}, len(rule.ApplicableCategories))
	for _, category := range rule.ApplicableCategories {
		categories[category] = struct{}{}
	}

	var matched []types.CartItem
	for _, item := range items {
		if !itemTargeted(rule, categories, item) {
			continue
		}
		if rule.ExcludedProductIDs.Contains(item.ProductID) {
			return nil, false
		}
		matched = append(matched, item)
	}
	if len(matched) == 0 {
		return nil, false
	}

	totalQty := 0
	for _, item := range matched {
		totalQty += item.Quantity
	}
	if rule.MinQuantity != nil && totalQty < *rule.MinQuantity {
		return nil, false
	}
	if rule.MaxQuantity != nil && totalQty > *rule.MaxQuantity {
		return nil, false
	}
	return matched, true
}

func itemTargeted(rule models.DiscountRule, categories map[string]struct{}, item types.CartItem) bool {
	if len(rule.ApplicableProductIDs) == 0 && len(categories) == 0 {
		return true
	}
	if rule.ApplicableProductIDs.Contains(item.ProductID) {
		return true
	}
	_, ok := categories[item.Category]
	return ok
}

func ruleDiscount(rule models.DiscountRule, matched []types.CartItem) decimal.Decimal {
	subtotal := decimal.Zero
	for _, item := range matched {
		subtotal = subtotal.Add(item.LineTotal())
	}

	switch rule.Type {
	case enums.DiscountTypePercentage:
		if rule.DiscountPercentage == nil {
			return decimal.Zero
		}
		return subtotal.Mul(*rule.DiscountPercentage).Div(decimal.NewFromInt(100))
	case enums.DiscountTypeFixedAmount:
		if rule.DiscountAmount == nil {
			return decimal.Zero
		}
		return decimal.Min(*rule.DiscountAmount, subtotal)
	case enums.DiscountTypeBuyXGetY:
		return buyXGetYDiscount(rule, matched)
	default:
		return decimal.Zero
	}
}

// buyXGetYDiscount grants getFreeQuantity free units for every buyQuantity
// matched units. Free units come from freeProductIds when set, otherwise from
// the matched lines, cheapest units first.
func buyXGetYDiscount(rule models.DiscountRule, matched []types.CartItem) decimal.Decimal {
	if rule.BuyQuantity == nil || *rule.BuyQuantity <= 0 || rule.GetFreeQuantity == nil || *rule.GetFreeQuantity <= 0 {
		return decimal.Zero
	}

	totalQty := 0
	for _, item := range matched {
		totalQty += item.Quantity
	}
	freeUnits := (totalQty / *rule.BuyQuantity) * *rule.GetFreeQuantity
	if freeUnits == 0 {
		return decimal.Zero
	}

	pool := matched
	if len(rule.FreeProductIDs) > 0 {
		pool = nil
		for _, item := range matched {
			if rule.FreeProductIDs.Contains(item.ProductID) {
				pool = append(pool, item)
			}
		}
		if len(pool) == 0 {
			return decimal.Zero
		}
	}
	sort.SliceStable(pool, func(i, j int) bool {
		return pool[i].UnitPrice.LessThan(pool[j].UnitPrice)
	})

	discount := decimal.Zero
	for _, item := range pool {
		if freeUnits <= 0 {
			break
		}
		take := item.Quantity
		if take > freeUnits {
			take = freeUnits
		}
		discount = discount.Add(item.UnitPrice.Mul(decimal.NewFromInt(int64(take))))
		freeUnits -= take
	}
	return discount
}
