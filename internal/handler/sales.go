package handler

import (
	"net/http"

	"stockpos/internal/dto"
	"stockpos/internal/model"
	"stockpos/internal/service"

	"github.com/gin-gonic/gin"
)

type SalesHandler struct{ svc service.SaleService }

func NewSalesHandler(svc service.SaleService) *SalesHandler { return &SalesHandler{svc: svc} }

// CreateSale godoc
// @Summary      Create a sale
// @Description  Validates stock for every item, prices each line, then decrements stock and stores the sale in one transaction.
// @Tags         sales
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body body dto.CreateSaleRequest true "Sale"
// @Success      201  {object} dto.SaleResponse
// @Failure      400  {object} apierror.APIError
// @Failure      404  {object} apierror.APIError
// @Failure      409  {object} apierror.APIError
// @Router       /v1/sales [post]
func (h *SalesHandler) CreateSale(c *gin.Context) {
	var req dto.CreateSaleRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.CreateSale(c.Request.Context(), req, service.SaleOrigin{Source: model.SourceAPI})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// RefundSale godoc
// @Summary      Refund a sale
// @Description  Restores stock for every line and marks the sale refunded. A sale can be refunded once.
// @Tags         sales
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id   path string                true  "Sale ID"
// @Param        body body dto.RefundSaleRequest false "Reason"
// @Success      200  {object} dto.SaleResponse
// @Failure      404  {object} apierror.APIError
// @Failure      409  {object} apierror.APIError
// @Router       /v1/sales/{id} [post]
func (h *SalesHandler) RefundSale(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req dto.RefundSaleRequest
	if !bindOptionalJSON(c, &req) {
		return
	}
	resp, err := h.svc.RefundSale(c.Request.Context(), id, req.Reason)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ListSales godoc
// @Summary      List sales
// @Tags         sales
// @Produce      json
// @Security     BearerAuth
// @Param        date   query string false "YYYY-MM-DD"
// @Param        status query string false "completed (default) | refunded | all"
// @Param        source query string false "api | rfid"
// @Param        page   query int    false "Page (default 1)"
// @Param        limit  query int    false "Page size (default 50)"
// @Success      200    {object} dto.SaleListResponse
// @Router       /v1/sales [get]
func (h *SalesHandler) ListSales(c *gin.Context) {
	var filter dto.SaleFilter
	if !bindQuery(c, &filter) {
		return
	}
	resp, err := h.svc.ListSales(c.Request.Context(), filter)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// GetSale godoc
// @Summary      Get a sale
// @Tags         sales
// @Produce      json
// @Security     BearerAuth
// @Param        id  path string true "Sale ID"
// @Success      200 {object} dto.SaleResponse
// @Failure      404 {object} apierror.APIError
// @Router       /v1/sales/{id} [get]
func (h *SalesHandler) GetSale(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.GetSale(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// GetSavings godoc
// @Summary      Discount savings of a sale
// @Tags         sales
// @Produce      json
// @Security     BearerAuth
// @Param        id  path string true "Sale ID"
// @Success      200 {object} dto.SavingsResponse
// @Failure      404 {object} apierror.APIError
// @Router       /v1/sales/{id}/savings [get]
func (h *SalesHandler) GetSavings(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.GetSavings(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
