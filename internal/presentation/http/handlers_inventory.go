package httppresentation

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type setStockRequest struct {
	NewStock *int `json:"new_stock" binding:"required"`
}

type addStockRequest struct {
	QuantityToAdd int `json:"quantity_to_add" binding:"required"`
}

func (h *Handler) handleSetStock(c *gin.Context) {
	id, ok := h.pathID(c, "product_id")
	if !ok {
		return
	}
	var req setStockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortError(c, http.StatusBadRequest, err.Error())
		return
	}
	p, err := h.svc.Stock.SetStock(c.Request.Context(), id, *req.NewStock)
	if err != nil {
		writeDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, toProductResponse(p))
}

func (h *Handler) handleAddStock(c *gin.Context) {
	id, ok := h.pathID(c, "product_id")
	if !ok {
		return
	}
	var req addStockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortError(c, http.StatusBadRequest, err.Error())
		return
	}
	p, err := h.svc.Stock.AddStock(c.Request.Context(), id, req.QuantityToAdd)
	if err != nil {
		writeDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, toProductResponse(p))
}

func (h *Handler) handleListAlerts(c *gin.Context) {
	alerts, err := h.svc.Stock.ListAlerts(c.Request.Context())
	if err != nil {
		writeDomainError(c, err)
		return
	}
	out := make([]alertResponse, 0, len(alerts))
	for _, a := range alerts {
		out = append(out, toAlertResponse(a))
	}
	c.JSON(http.StatusOK, out)
}
