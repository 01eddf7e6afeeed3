package dto

import "github.com/shopspring/decimal"

// ─── Request DTOs ────────────────────────────────────────────────────────────

type CreateProductRequest struct {
	Name               string          `json:"name"               validate:"required,min=2,max=120"`
	SKU                *string         `json:"sku"                validate:"omitempty,max=64"`
	RetailPrice        decimal.Decimal `json:"retailPrice"        validate:"gt=0"`
	WholesalePrice     decimal.Decimal `json:"wholesalePrice"     validate:"min=0"`
	WholesaleThreshold int             `json:"wholesaleThreshold" validate:"min=0"`
	Stock              int             `json:"stock"              validate:"min=0"`
	LowStockThreshold  *int            `json:"lowStockThreshold"  validate:"omitempty,min=0"`
}

// UpdateProductRequest never touches stock: stock changes go through the ledger.
type UpdateProductRequest struct {
	Name               *string          `json:"name"               validate:"omitempty,min=2,max=120"`
	SKU                *string          `json:"sku"                validate:"omitempty,max=64"`
	RetailPrice        *decimal.Decimal `json:"retailPrice"`
	WholesalePrice     *decimal.Decimal `json:"wholesalePrice"`
	WholesaleThreshold *int             `json:"wholesaleThreshold" validate:"omitempty,min=0"`
	LowStockThreshold  *int             `json:"lowStockThreshold"  validate:"omitempty,min=0"`
}

type AdjustStockRequest struct {
	Delta  int    `json:"delta"  validate:"required"`
	Reason string `json:"reason" validate:"required,min=3,max=255"`
}

// ─── Filter / Pagination ─────────────────────────────────────────────────────

type ProductFilter struct {
	Name     string `form:"name"`
	Archived string `form:"archived"` // "true" | "all" | default active only
	Page     int    `form:"page,default=1"   validate:"min=1"`
	Limit    int    `form:"limit,default=20" validate:"min=1,max=100"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type ProductResponse struct {
	ID                 string          `json:"id"`
	Name               string          `json:"name"`
	SKU                *string         `json:"sku"`
	RetailPrice        decimal.Decimal `json:"retailPrice"`
	WholesalePrice     decimal.Decimal `json:"wholesalePrice"`
	WholesaleThreshold int             `json:"wholesaleThreshold"`
	Stock              int             `json:"stock"`
	Status             string          `json:"status"`
	LowStockThreshold  int             `json:"lowStockThreshold"`
	Archived           bool            `json:"archived"`
}

type ProductListResponse struct {
	Data       []ProductResponse `json:"data"`
	Total      int64             `json:"total"`
	Page       int               `json:"page"`
	Limit      int               `json:"limit"`
	TotalPages int               `json:"totalPages"`
}

// PriceQuoteResponse is returned by GET /v1/price/:id.
type PriceQuoteResponse struct {
	ProductID string          `json:"productId"`
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	Tier      string          `json:"tier"`
	LineTotal decimal.Decimal `json:"lineTotal"`
}
