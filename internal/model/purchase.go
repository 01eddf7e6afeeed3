package model

import (
	"time"

	"github.com/google/uuid"
)

type PurchaseStatus string

const (
	PurchasePending  PurchaseStatus = "pending"
	PurchaseReceived PurchaseStatus = "received"
)

// Purchase is a supplier restock. Receiving it releases stock into the ledger.
type Purchase struct {
	ID         uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Supplier   string         `gorm:"not null"`
	Status     PurchaseStatus `gorm:"type:varchar(20);not null;default:'pending'"`
	Notes      *string
	ReceivedAt *time.Time
	CreatedAt  time.Time
	UpdatedAt  time.Time

	Items []PurchaseItem `gorm:"foreignKey:PurchaseID;constraint:OnDelete:CASCADE"`
}

type PurchaseItem struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	PurchaseID uuid.UUID `gorm:"type:uuid;not null;index"`
	ProductID  uuid.UUID `gorm:"type:uuid;not null"`
	Quantity   int       `gorm:"not null"`

	Product *Product `gorm:"foreignKey:ProductID"`
}
