package handler

import (
	"errors"
	"io"
	"net/http"

	"stockpos/internal/dto"
	"stockpos/internal/service"

	"github.com/gin-gonic/gin"
)

const (
	headerDeviceID = "x-device-id"
	headerAPIKey   = "x-api-key"
)

type RFIDHandler struct{ svc service.RFIDService }

func NewRFIDHandler(svc service.RFIDService) *RFIDHandler { return &RFIDHandler{svc: svc} }

// Scan godoc
// @Summary      Sell one tagged item
// @Description  Authenticates the reader, resolves the active tag and records a single-item cash sale.
// @Tags         rfid
// @Accept       json
// @Produce      json
// @Param        x-device-id header string          true  "Reader ID"
// @Param        x-api-key   header string          true  "Reader key"
// @Param        body        body   dto.ScanRequest true  "Tag read"
// @Success      200 {object} dto.ScanResponse
// @Failure      400 {object} apierror.APIError
// @Failure      401 {object} apierror.APIError
// @Failure      404 {object} apierror.APIError
// @Failure      409 {object} apierror.APIError
// @Router       /v1/rfid/scan [post]
func (h *RFIDHandler) Scan(c *gin.Context) {
	// The body is not validated here: credentials come first, so every
	// input check lives in the service after Verify.
	var req dto.ScanRequest
	var bodyErr error
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		req, bodyErr = dto.ScanRequest{}, err
	}
	resp, err := h.svc.Scan(c.Request.Context(), service.ScanCommand{
		TagCode:  req.TagCode(),
		Quantity: req.Quantity,
		DeviceID: c.GetHeader(headerDeviceID),
		APIKey:   c.GetHeader(headerAPIKey),
		BodyErr:  bodyErr,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// CreateTag godoc
// @Summary      Register an RFID tag
// @Tags         rfid
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body body dto.CreateTagRequest true "Tag"
// @Success      201 {object} dto.TagResponse
// @Failure      409 {object} apierror.APIError
// @Router       /v1/rfid/tags [post]
func (h *RFIDHandler) CreateTag(c *gin.Context) {
	var req dto.CreateTagRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.CreateTag(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// ListTags godoc
// @Summary      List RFID tags
// @Tags         rfid
// @Produce      json
// @Security     BearerAuth
// @Success      200 {array} dto.TagResponse
// @Router       /v1/rfid/tags [get]
func (h *RFIDHandler) ListTags(c *gin.Context) {
	resp, err := h.svc.ListTags(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// UpdateTagStatus godoc
// @Summary      Change a tag's status
// @Tags         rfid
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        tagCode path string                     true "Tag code"
// @Param        body    body dto.UpdateTagStatusRequest true "Status"
// @Success      200 {object} dto.TagResponse
// @Failure      404 {object} apierror.APIError
// @Router       /v1/rfid/tags/{tagCode} [patch]
func (h *RFIDHandler) UpdateTagStatus(c *gin.Context) {
	var req dto.UpdateTagStatusRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.UpdateTagStatus(c.Request.Context(), c.Param("tagCode"), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
