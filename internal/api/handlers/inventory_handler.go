package handlers

import (
	"io"
	"net/http"
	"strings"

	"github.com/andresuchdata/restock-engine/internal/domain"
	"github.com/andresuchdata/restock-engine/internal/service"
	"github.com/andresuchdata/restock-engine/internal/tabular"
	"github.com/gin-gonic/gin"
)

const maxBatchUploadBytes = 32 << 20

type InventoryHandler struct {
	service *service.InventoryService
}

func NewInventoryHandler(service *service.InventoryService) *InventoryHandler {
	return &InventoryHandler{service: service}
}

type deltaRequest struct {
	StoreID        string `json:"store_id"`
	ProductID      string `json:"product_id"`
	Quantity       *int64 `json:"quantity"`
	IdempotencyKey string `json:"idempotency_key"`
}

func (h *InventoryHandler) bindDelta(c *gin.Context) (deltaRequest, bool) {
	var req deltaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body: %v", err)
		return req, false
	}
	if req.Quantity == nil {
		badRequest(c, "quantity is required")
		return req, false
	}
	if header := strings.TrimSpace(c.GetHeader("Idempotency-Key")); header != "" {
		req.IdempotencyKey = header
	}
	return req, true
}

func (h *InventoryHandler) GetInventory(c *gin.Context) {
	rec, err := h.service.Get(c.Request.Context(), c.Param("store"), c.Param("product"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

func (h *InventoryHandler) ApplyDelta(c *gin.Context) {
	req, ok := h.bindDelta(c)
	if !ok {
		return
	}

	res, err := h.service.ApplyDelta(c.Request.Context(), domain.DeltaCommand{
		StoreID:        req.StoreID,
		ProductID:      req.ProductID,
		Quantity:       *req.Quantity,
		IdempotencyKey: req.IdempotencyKey,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *InventoryHandler) RecordSale(c *gin.Context) {
	req, ok := h.bindDelta(c)
	if !ok {
		return
	}

	res, err := h.service.RecordSale(c.Request.Context(), req.StoreID, req.ProductID, *req.Quantity, req.IdempotencyKey)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *InventoryHandler) RecordReceipt(c *gin.Context) {
	req, ok := h.bindDelta(c)
	if !ok {
		return
	}

	res, err := h.service.RecordReceipt(c.Request.Context(), req.StoreID, req.ProductID, *req.Quantity, req.IdempotencyKey)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// Batch accepts a CSV either as the multipart field "file" or as the raw
// request body. The :mode path parameter selects delta, sale or receipt.
func (h *InventoryHandler) Batch(c *gin.Context) {
	mode, ok := domain.ParseBatchMode(c.Param("mode"))
	if !ok {
		respondError(c, domain.NotFound("unknown batch mode %q", c.Param("mode")))
		return
	}

	body, closeBody, err := batchBody(c)
	if err != nil {
		badRequest(c, "could not read upload: %v", err)
		return
	}
	defer closeBody()

	rows, err := tabular.ParseDeltaRows(body)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, h.service.BatchApply(c.Request.Context(), mode, rows))
}

// BatchAs serves a fixed-mode alias such as /sale_batch through Batch.
func (h *InventoryHandler) BatchAs(mode domain.BatchMode) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Params = append(c.Params, gin.Param{Key: "mode", Value: string(mode)})
		h.Batch(c)
	}
}

func batchBody(c *gin.Context) (io.Reader, func(), error) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBatchUploadBytes)

	if strings.HasPrefix(c.ContentType(), "multipart/form-data") {
		header, err := c.FormFile("file")
		if err != nil {
			return nil, nil, err
		}
		f, err := header.Open()
		if err != nil {
			return nil, nil, err
		}
		return f, func() { f.Close() }, nil
	}
	return c.Request.Body, func() {}, nil
}
