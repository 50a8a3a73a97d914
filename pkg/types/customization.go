package types

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AppliedPatch is a sleeve patch resolved from its catalog code at
// intent-creation time. The snapshot is stored so webhook reconciliation never
// re-derives pricing from client-supplied data.
type AppliedPatch struct {
	ID    uuid.UUID       `json:"id"`
	Name  string          `json:"name"`
	Image string          `json:"image"`
	Price decimal.Decimal `json:"price"`
}

// Customization carries the jersey personalization selected by the customer.
type Customization struct {
	PlayerName    string         `json:"player_name,omitempty"`
	PlayerNumber  string         `json:"player_number,omitempty"`
	Size          string         `json:"size,omitempty"`
	IncludeShorts bool           `json:"include_shorts,omitempty"`
	IncludeSocks  bool           `json:"include_socks,omitempty"`
	Patches       []AppliedPatch `json:"patches,omitempty"`
}

// LineSnapshot is one fully-resolved order line persisted on the
// payment-intent snapshot and replayed at reconciliation time.
type LineSnapshot struct {
	ProductID     *uuid.UUID      `json:"product_id,omitempty"`
	Name          string          `json:"name"`
	UnitPrice     decimal.Decimal `json:"unit_price"`
	Quantity      int             `json:"quantity"`
	Customization *Customization  `json:"customization,omitempty"`
}
