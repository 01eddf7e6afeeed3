package dto

type PurchaseItemRequest struct {
	ProductID string `json:"productId" validate:"required,uuid"`
	Quantity  int    `json:"quantity"  validate:"required,min=1"`
}

type CreatePurchaseRequest struct {
	Supplier string                `json:"supplier" validate:"required,min=2,max=120"`
	Items    []PurchaseItemRequest `json:"items"    validate:"required,min=1,dive"`
	Notes    *string               `json:"notes"    validate:"omitempty,max=500"`
}

type PurchaseItemResponse struct {
	ProductID string `json:"productId"`
	Product   string `json:"product,omitempty"`
	Quantity  int    `json:"quantity"`
}

type PurchaseResponse struct {
	ID         string                 `json:"id"`
	Supplier   string                 `json:"supplier"`
	Status     string                 `json:"status"`
	Notes      *string                `json:"notes,omitempty"`
	Items      []PurchaseItemResponse `json:"items"`
	ReceivedAt *string                `json:"receivedAt,omitempty"`
	CreatedAt  string                 `json:"createdAt"`
}

type PurchaseFilter struct {
	Status string `form:"status" validate:"omitempty,oneof=pending received"`
	Page   int    `form:"page,default=1"   validate:"min=1"`
	Limit  int    `form:"limit,default=50" validate:"min=1,max=200"`
}
