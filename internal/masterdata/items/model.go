package items

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/opsdesk/opsdesk/internal/ledger"
)

// Item is a reusable catalog entry. Picking one into a document copies
// its fields onto the line; later catalog edits leave the line untouched.
type Item struct {
	ID          int64           `json:"id"`
	SKU         string          `json:"sku"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Category    ledger.Category `json:"category"`
	DefaultRate decimal.Decimal `json:"default_rate"`
	TaxPct      decimal.Decimal `json:"tax_pct"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}
