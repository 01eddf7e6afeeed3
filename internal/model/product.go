package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// StockStatus is derived from Stock and recomputed on every stock mutation.
type StockStatus string

const (
	StatusInStock    StockStatus = "in-stock"
	StatusOutOfStock StockStatus = "out-of-stock"
)

// StatusFor returns the status a product with the given stock must carry.
func StatusFor(stock int) StockStatus {
	if stock > 0 {
		return StatusInStock
	}
	return StatusOutOfStock
}

// Product is the inventory unit. Stock is owned by the ledger: only the
// conditional updates in ProductRepository may change it.
type Product struct {
	ID                 uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Name               string          `gorm:"uniqueIndex;not null"`
	SKU                *string         `gorm:"uniqueIndex"`
	RetailPrice        decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	WholesalePrice     decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	WholesaleThreshold int             `gorm:"not null;default:0"`
	Stock              int             `gorm:"not null;default:0"`
	Status             StockStatus     `gorm:"type:varchar(20);not null;default:'out-of-stock'"`
	LowStockThreshold  int             `gorm:"not null;default:5"`
	Archived           bool            `gorm:"not null;default:false;index"`
	CreatedAt          time.Time
	UpdatedAt          time.Time
}
