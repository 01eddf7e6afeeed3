package dto

import "github.com/shopspring/decimal"

// ─── Filter / List ──────────────────────────────────────────────────────────

// SaleFilter is bound from the query string of GET /v1/sales.
type SaleFilter struct {
	Date   string `form:"date"`                     // YYYY-MM-DD; empty = all dates
	Status string `form:"status,default=completed"` // completed | refunded | all
	Source string `form:"source"`                   // api | rfid
	Page   int    `form:"page,default=1"   validate:"min=1"`
	Limit  int    `form:"limit,default=50" validate:"min=1,max=200"`
}

type SaleListResponse struct {
	Data  []SaleResponse `json:"data"`
	Total int64          `json:"total"`
	Page  int            `json:"page"`
	Limit int            `json:"limit"`
}

// ─── Request DTOs ────────────────────────────────────────────────────────────

type SaleItemRequest struct {
	ProductID string `json:"productId" validate:"required,uuid"`
	Quantity  int    `json:"quantity"  validate:"required,min=1"`
}

type CreateSaleRequest struct {
	SoldProducts    []SaleItemRequest `json:"soldProducts"    validate:"required,min=1,dive"`
	CustomerName    *string           `json:"customerName"    validate:"omitempty,max=120"`
	CustomerContact *string           `json:"customerContact" validate:"omitempty,max=120"`
	DiscountType    string            `json:"discountType"    validate:"omitempty,oneof=none percentage fixed"`
	DiscountValue   decimal.Decimal   `json:"discountValue"   validate:"min=0"`
	TaxAmount       decimal.Decimal   `json:"taxAmount"       validate:"min=0"`
	PaymentMethod   string            `json:"paymentMethod"   validate:"omitempty,oneof=cash card transfer other"`
}

type RefundSaleRequest struct {
	Reason string `json:"reason" validate:"max=255"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type SaleItemResponse struct {
	ProductID string          `json:"productId"`
	Product   string          `json:"product,omitempty"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	LineTotal decimal.Decimal `json:"lineTotal"`
	PriceTier string          `json:"priceTier"`
}

type SaleResponse struct {
	ID              string             `json:"id"`
	InvoiceNumber   string             `json:"invoiceNumber"`
	Items           []SaleItemResponse `json:"items"`
	Subtotal        decimal.Decimal    `json:"subtotal"`
	DiscountType    string             `json:"discountType"`
	DiscountValue   decimal.Decimal    `json:"discountValue"`
	DiscountAmount  decimal.Decimal    `json:"discountAmount"`
	TaxAmount       decimal.Decimal    `json:"taxAmount"`
	TotalAmount     decimal.Decimal    `json:"totalAmount"`
	PaymentMethod   string             `json:"paymentMethod"`
	PaymentStatus   string             `json:"paymentStatus"`
	CustomerName    *string            `json:"customerName,omitempty"`
	CustomerContact *string            `json:"customerContact,omitempty"`
	Status          string             `json:"status"`
	Source          string             `json:"source"`
	RefundReason    *string            `json:"refundReason,omitempty"`
	RefundedAt      *string            `json:"refundedAt,omitempty"`
	CreatedAt       string             `json:"createdAt"`
}

type SavingsResponse struct {
	DiscountAmount     decimal.Decimal `json:"discountAmount"`
	DiscountPercentage decimal.Decimal `json:"discountPercentage"`
}
