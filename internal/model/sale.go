package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type SaleStatus string

const (
	SalePending   SaleStatus = "pending"
	SaleCompleted SaleStatus = "completed"
	SaleRefunded  SaleStatus = "refunded"
)

type DiscountType string

const (
	DiscountNone       DiscountType = "none"
	DiscountPercentage DiscountType = "percentage"
	DiscountFixed      DiscountType = "fixed"
)

type PriceTier string

const (
	TierRetail    PriceTier = "retail"
	TierWholesale PriceTier = "wholesale"
)

const (
	PaymentPaid     = "paid"
	PaymentRefunded = "refunded"

	SourceAPI  = "api"
	SourceRFID = "rfid"
)

// Sale is a financial transaction record. Created once; the only later
// mutation is the completed → refunded transition.
type Sale struct {
	ID              uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	InvoiceNumber   string          `gorm:"type:varchar(20);uniqueIndex;not null"`
	Subtotal        decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	DiscountType    DiscountType    `gorm:"type:varchar(20);not null;default:'none'"`
	DiscountValue   decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	DiscountAmount  decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	TaxAmount       decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	TotalAmount     decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	PaymentMethod   string          `gorm:"type:varchar(20);not null;default:'cash'"`
	PaymentStatus   string          `gorm:"type:varchar(20);not null;default:'paid'"`
	CustomerName    *string
	CustomerContact *string
	Status          SaleStatus `gorm:"type:varchar(20);not null;index"`
	Source          string     `gorm:"type:varchar(10);not null;default:'api'"`
	DeviceID        *string    `gorm:"type:varchar(64)"`
	RefundReason    *string
	RefundedAt      *time.Time
	CreatedAt       time.Time `gorm:"index"`
	UpdatedAt       time.Time

	Items []SaleItem `gorm:"foreignKey:SaleID;constraint:OnDelete:CASCADE"`
}

// SaleItem is owned by its Sale; Product is a weak reference.
type SaleItem struct {
	ID        uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	SaleID    uuid.UUID       `gorm:"type:uuid;not null;index"`
	Position  int             `gorm:"not null"`
	ProductID uuid.UUID       `gorm:"type:uuid;not null;index"`
	Quantity  int             `gorm:"not null"`
	UnitPrice decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	LineTotal decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	PriceTier PriceTier       `gorm:"type:varchar(20);not null"`

	Product *Product `gorm:"foreignKey:ProductID"`
}
