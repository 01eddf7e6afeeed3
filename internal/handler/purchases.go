package handler

import (
	"net/http"

	"stockpos/internal/dto"
	"stockpos/internal/service"

	"github.com/gin-gonic/gin"
)

type PurchasesHandler struct{ svc service.PurchaseService }

func NewPurchasesHandler(svc service.PurchaseService) *PurchasesHandler {
	return &PurchasesHandler{svc: svc}
}

// Create godoc
// @Summary      Record a supplier purchase
// @Tags         purchases
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body body dto.CreatePurchaseRequest true "Purchase"
// @Success      201 {object} dto.PurchaseResponse
// @Router       /v1/purchases [post]
func (h *PurchasesHandler) Create(c *gin.Context) {
	var req dto.CreatePurchaseRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Create(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// List godoc
// @Summary      List purchases
// @Tags         purchases
// @Produce      json
// @Security     BearerAuth
// @Param        status query string false "pending | received"
// @Success      200 {array} dto.PurchaseResponse
// @Router       /v1/purchases [get]
func (h *PurchasesHandler) List(c *gin.Context) {
	var filter dto.PurchaseFilter
	if !bindQuery(c, &filter) {
		return
	}
	data, total, err := h.svc.List(c.Request.Context(), filter)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": data, "total": total, "page": filter.Page, "limit": filter.Limit})
}

// Get godoc
// @Summary      Get a purchase
// @Tags         purchases
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Purchase ID"
// @Success      200 {object} dto.PurchaseResponse
// @Router       /v1/purchases/{id} [get]
func (h *PurchasesHandler) Get(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Receive godoc
// @Summary      Receive a purchase into stock
// @Tags         purchases
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Purchase ID"
// @Success      200 {object} dto.PurchaseResponse
// @Failure      409 {object} apierror.APIError
// @Router       /v1/purchases/{id}/receive [post]
func (h *PurchasesHandler) Receive(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.Receive(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
