package model

import (
	"time"

	"github.com/google/uuid"
)

// Movement kinds.
const (
	MovementSale       = "sale"
	MovementRefund     = "refund"
	MovementPurchase   = "purchase"
	MovementAdjustment = "adjustment"
)

// StockMovement records every stock change on a product. Rows are never
// updated or deleted.
type StockMovement struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ProductID   uuid.UUID `gorm:"type:uuid;not null;index"`
	Kind        string    `gorm:"type:varchar(20);not null"`
	Quantity    int       `gorm:"not null"` // positive = in, negative = out
	StockBefore int       `gorm:"not null"`
	StockAfter  int       `gorm:"not null"`
	Reason      string
	ReferenceID *uuid.UUID `gorm:"type:uuid;index"` // sale or purchase id
	CreatedAt   time.Time

	Product *Product `gorm:"foreignKey:ProductID"`
}

// TableName overrides GORM's default pluralization.
func (StockMovement) TableName() string { return "stock_movements" }
