package checkout

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/kitarena/kitarena-backend/pkg/db/models"
	pkgerrors "github.com/kitarena/kitarena-backend/pkg/errors"
	"github.com/kitarena/kitarena-backend/pkg/types"
)

// buildCartItems resolves submitted lines into priced cart items. Unit prices
// come from the catalog plus the resolved patch prices; client-supplied
// amounts are never trusted.
func (s *service) buildCartItems(ctx context.Context, lines []LineInput) ([]types.CartItem, error) {
	ids := make([]uuid.UUID, 0, len(lines))
	seen := make(map[uuid.UUID]struct{}, len(lines))
	for i, line := range lines {
		if line.ProductID == uuid.Nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("item %d: product id required", i))
		}
		if line.Quantity < 1 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("item %d: quantity must be at least 1", i))
		}
		if _, ok := seen[line.ProductID]; !ok {
			seen[line.ProductID] = struct{}{}
			ids = append(ids, line.ProductID)
		}
	}

	found, err := s.products.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[uuid.UUID]*models.Product, len(found))
	for i := range found {
		byID[found[i].ID] = &found[i]
	}

	items := make([]types.CartItem, 0, len(lines))
	for _, line := range lines {
		product, ok := byID[line.ProductID]
		if !ok || !product.IsActive {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("product %s not available", line.ProductID))
		}
		if product.StockQuantity < line.Quantity {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, fmt.Sprintf("product %s has insufficient stock", line.ProductID))
		}

		customization, patchTotal, err := s.resolveCustomization(ctx, line.Customization)
		if err != nil {
			return nil, err
		}

		shipping := decimal.Zero
		if product.ShippingPrice != nil {
			shipping = *product.ShippingPrice
		}
		items = append(items, types.CartItem{
			ProductID:     product.ID,
			Name:          product.Name,
			Category:      product.Category,
			UnitPrice:     product.Price.Add(patchTotal),
			Quantity:      line.Quantity,
			ShippingPrice: shipping,
			Customization: customization,
		})
	}
	return items, nil
}

// resolveCustomization expands patch codes into catalog patches and returns
// the per-unit surcharge they add.
func (s *service) resolveCustomization(ctx context.Context, input *CustomizationInput) (*types.Customization, decimal.Decimal, error) {
	if input == nil {
		return nil, decimal.Zero, nil
	}

	var applied []types.AppliedPatch
	surcharge := decimal.Zero
	if len(input.PatchCodes) > 0 {
		patches, err := s.patches.ResolvePatches(ctx, input.PatchCodes)
		if err != nil {
			return nil, decimal.Zero, err
		}
		applied = make([]types.AppliedPatch, len(patches))
		for i, patch := range patches {
			applied[i] = types.AppliedPatch{
				ID:    patch.ID,
				Name:  patch.Name,
				Image: patch.Image,
				Price: patch.Price,
			}
			surcharge = surcharge.Add(patch.Price)
		}
	}

	return &types.Customization{
		PlayerName:    input.PlayerName,
		PlayerNumber:  input.PlayerNumber,
		Size:          input.Size,
		IncludeShorts: input.IncludeShorts,
		IncludeSocks:  input.IncludeSocks,
		Patches:       applied,
	}, surcharge, nil
}

func snapshotLines(items []types.CartItem) []types.LineSnapshot {
	snapshots := make([]types.LineSnapshot, len(items))
	for i, item := range items {
		productID := item.ProductID
		snapshots[i] = types.LineSnapshot{
			ProductID:     &productID,
			Name:          item.Name,
			UnitPrice:     item.UnitPrice,
			Quantity:      item.Quantity,
			Customization: item.Customization,
		}
	}
	return snapshots
}
