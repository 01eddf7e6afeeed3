package dto

type StockMovementFilter struct {
	ProductID string `form:"productId" validate:"omitempty,uuid"`
	Kind      string `form:"kind"      validate:"omitempty,oneof=sale refund purchase adjustment"`
	Page      int    `form:"page,default=1"    validate:"min=1"`
	Limit     int    `form:"limit,default=100" validate:"min=1,max=500"`
}

type StockMovementResponse struct {
	ID          string  `json:"id"`
	ProductID   string  `json:"productId"`
	Product     string  `json:"product,omitempty"`
	Kind        string  `json:"kind"`
	Quantity    int     `json:"quantity"`
	StockBefore int     `json:"stockBefore"`
	StockAfter  int     `json:"stockAfter"`
	Reason      string  `json:"reason"`
	ReferenceID *string `json:"referenceId,omitempty"`
	CreatedAt   string  `json:"createdAt"`
}

type StockMovementListResponse struct {
	Data  []StockMovementResponse `json:"data"`
	Total int64                   `json:"total"`
	Page  int                     `json:"page"`
	Limit int                     `json:"limit"`
}

// StockChange is the ledger's report of one mutation.
type StockChange struct {
	ProductID   string `json:"productId"`
	StockBefore int    `json:"stockBefore"`
	StockAfter  int    `json:"stockAfter"`
	Status      string `json:"status"`
}

type LowStockResponse struct {
	ProductID         string `json:"productId"`
	Name              string `json:"name"`
	Stock             int    `json:"stock"`
	LowStockThreshold int    `json:"lowStockThreshold"`
	Status            string `json:"status"`
}
