package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product listings are owned by the catalog component; the core only
// derives the supplier's category set from them.
type Product struct {
	Id          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Category    string          `json:"category"`
	Price       decimal.Decimal `json:"price"`
	SupplierId  string          `json:"supplierId"`
	CreatedAt   time.Time       `json:"createdAt"`
}
