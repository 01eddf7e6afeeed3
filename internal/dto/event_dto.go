package dto

import "github.com/shopspring/decimal"

// SaleAlert is the post-commit summary handed to the notification sink.
type SaleAlert struct {
	Type          string          `json:"type"` // "sale.created" | "sale.refunded"
	SaleID        string          `json:"saleId"`
	InvoiceNumber string          `json:"invoiceNumber"`
	TotalAmount   decimal.Decimal `json:"totalAmount"`
	ItemCount     int             `json:"itemCount"`
	Source        string          `json:"source"`
	DeviceID      string          `json:"deviceId,omitempty"`
	At            string          `json:"at"`
}

// StockAlert reports products at or below their low-stock threshold.
type StockAlert struct {
	Type     string             `json:"type"` // "stock.low"
	Products []LowStockResponse `json:"products"`
	At       string             `json:"at"`
}
