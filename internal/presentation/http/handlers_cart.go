package httppresentation

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type cartItemRequest struct {
	ProductID string `json:"product_id" binding:"required"`
	Quantity  *int   `json:"quantity" binding:"required"`
}

func (h *Handler) handleGetCart(c *gin.Context) {
	v, err := h.svc.Cart.Get(c.Request.Context(), caller(c))
	if err != nil {
		writeDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, toCartResponse(v))
}

func (h *Handler) handleAddToCart(c *gin.Context) {
	var req cartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortError(c, http.StatusBadRequest, err.Error())
		return
	}
	v, err := h.svc.Cart.AddItem(c.Request.Context(), caller(c), req.ProductID, *req.Quantity)
	if err != nil {
		writeDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, toCartResponse(v))
}

func (h *Handler) handleUpdateCart(c *gin.Context) {
	var req cartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortError(c, http.StatusBadRequest, err.Error())
		return
	}
	v, err := h.svc.Cart.UpdateItem(c.Request.Context(), caller(c), req.ProductID, *req.Quantity)
	if err != nil {
		writeDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, toCartResponse(v))
}

func (h *Handler) handleRemoveFromCart(c *gin.Context) {
	id, ok := h.pathID(c, "product_id")
	if !ok {
		return
	}
	v, err := h.svc.Cart.RemoveItem(c.Request.Context(), caller(c), id)
	if err != nil {
		writeDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, toCartResponse(v))
}

func (h *Handler) handleClearCart(c *gin.Context) {
	if err := h.svc.Cart.Clear(c.Request.Context(), caller(c)); err != nil {
		writeDomainError(c, err)
		return
	}
	v, err := h.svc.Cart.Get(c.Request.Context(), caller(c))
	if err != nil {
		writeDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, toCartResponse(v))
}
