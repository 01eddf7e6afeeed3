package handler

import (
	"net/http"
	"strconv"

	"stockpos/internal/apierror"
	"stockpos/internal/dto"
	"stockpos/internal/service"

	"github.com/gin-gonic/gin"
)

// ProductsHandler serves the catalogue plus the stock adjustment route,
// which goes straight to the inventory ledger.
type ProductsHandler struct {
	products  service.ProductService
	inventory service.InventoryService
}

func NewProductsHandler(products service.ProductService, inventory service.InventoryService) *ProductsHandler {
	return &ProductsHandler{products: products, inventory: inventory}
}

// Create godoc
// @Summary      Create a product
// @Tags         products
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body body dto.CreateProductRequest true "Product"
// @Success      201 {object} dto.ProductResponse
// @Failure      409 {object} apierror.APIError
// @Router       /v1/products [post]
func (h *ProductsHandler) Create(c *gin.Context) {
	var req dto.CreateProductRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.products.Create(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// List godoc
// @Summary      List products
// @Tags         products
// @Produce      json
// @Security     BearerAuth
// @Param        name     query string false "Name contains"
// @Param        archived query string false "true | all"
// @Param        page     query int    false "Page"
// @Param        limit    query int    false "Page size"
// @Success      200 {object} dto.ProductListResponse
// @Router       /v1/products [get]
func (h *ProductsHandler) List(c *gin.Context) {
	var filter dto.ProductFilter
	if !bindQuery(c, &filter) {
		return
	}
	resp, err := h.products.List(c.Request.Context(), filter)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Get godoc
// @Summary      Get a product
// @Tags         products
// @Produce      json
// @Security     BearerAuth
// @Param        id  path string true "Product ID"
// @Success      200 {object} dto.ProductResponse
// @Failure      404 {object} apierror.APIError
// @Router       /v1/products/{id} [get]
func (h *ProductsHandler) Get(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	resp, err := h.products.GetByID(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Update godoc
// @Summary      Update catalogue fields
// @Description  Stock is not editable here; use PATCH /v1/products/{id}/stock.
// @Tags         products
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id   path string                   true "Product ID"
// @Param        body body dto.UpdateProductRequest true "Fields"
// @Success      200 {object} dto.ProductResponse
// @Router       /v1/products/{id} [put]
func (h *ProductsHandler) Update(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req dto.UpdateProductRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.products.Update(c.Request.Context(), id, req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Archive godoc
// @Summary      Archive a product
// @Tags         products
// @Security     BearerAuth
// @Param        id path string true "Product ID"
// @Success      204
// @Router       /v1/products/{id} [delete]
func (h *ProductsHandler) Archive(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := h.products.Archive(c.Request.Context(), id); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// AdjustStock godoc
// @Summary      Correct stock
// @Description  Positive delta adds stock, negative removes it; never below zero.
// @Tags         inventory
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id   path string                 true "Product ID"
// @Param        body body dto.AdjustStockRequest true "Adjustment"
// @Success      200 {object} dto.StockChange
// @Failure      409 {object} apierror.APIError
// @Router       /v1/products/{id}/stock [patch]
func (h *ProductsHandler) AdjustStock(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req dto.AdjustStockRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.inventory.Adjust(c.Request.Context(), id, req.Delta, req.Reason)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// LowStock godoc
// @Summary      Products at or below their low-stock threshold
// @Tags         inventory
// @Produce      json
// @Security     BearerAuth
// @Success      200 {array} dto.LowStockResponse
// @Router       /v1/inventory/low-stock [get]
func (h *ProductsHandler) LowStock(c *gin.Context) {
	resp, err := h.inventory.LowStock(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Movements godoc
// @Summary      Stock movement journal
// @Tags         inventory
// @Produce      json
// @Security     BearerAuth
// @Param        productId query string false "Product ID"
// @Param        kind      query string false "sale | refund | purchase | adjustment"
// @Success      200 {object} dto.StockMovementListResponse
// @Router       /v1/inventory/movements [get]
func (h *ProductsHandler) Movements(c *gin.Context) {
	var filter dto.StockMovementFilter
	if !bindQuery(c, &filter) {
		return
	}
	resp, err := h.inventory.Movements(c.Request.Context(), filter)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Quote godoc
// @Summary      Price check
// @Description  Prices a quantity of a product with the retail/wholesale rule. No side effects.
// @Tags         price
// @Produce      json
// @Param        id       path  string true  "Product ID"
// @Param        quantity query int    false "Quantity (default 1)"
// @Success      200 {object} dto.PriceQuoteResponse
// @Failure      404 {object} apierror.APIError
// @Router       /v1/price/{id} [get]
func (h *ProductsHandler) Quote(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	qty := 1
	if q := c.Query("quantity"); q != "" {
		n, err := strconv.Atoi(q)
		if err != nil {
			c.JSON(http.StatusBadRequest, apierror.New("invalid quantity"))
			return
		}
		qty = n
	}
	resp, err := h.products.Quote(c.Request.Context(), id, qty)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
