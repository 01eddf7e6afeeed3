package dto

// ScanRequest is the body of POST /v1/rfid/scan. Readers in the field send
// either tagId or rfidUid; the handler folds both into one tag code.
// Quantity 0 means 1; the service rejects negatives after authenticating.
type ScanRequest struct {
	TagID    string `json:"tagId"`
	RFIDUID  string `json:"rfidUid"`
	Quantity int    `json:"quantity"`
}

// TagCode returns the canonical tag identifier.
func (r ScanRequest) TagCode() string {
	if r.TagID != "" {
		return r.TagID
	}
	return r.RFIDUID
}

type ScanResponse struct {
	OK            bool   `json:"ok"`
	SaleID        string `json:"saleId"`
	InvoiceNumber string `json:"invoiceNumber"`
}

type CreateTagRequest struct {
	TagCode   string `json:"tagCode"   validate:"required,max=64"`
	ProductID string `json:"productId" validate:"required,uuid"`
}

type UpdateTagStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=active inactive assigned"`
}

type TagResponse struct {
	ID        string `json:"id"`
	TagCode   string `json:"tagCode"`
	ProductID string `json:"productId"`
	Product   string `json:"product,omitempty"`
	Status    string `json:"status"`
}
