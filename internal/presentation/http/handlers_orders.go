package httppresentation

import (
	"net/http"

	apporder "github.com/escabi/escabiapi/internal/application/order"
	domorder "github.com/escabi/escabiapi/internal/domain/order"

	"github.com/gin-gonic/gin"
)

type createOrderRequest struct {
	ShippingAddress addressPayload `json:"shipping_address" binding:"required"`
}

func (h *Handler) handleCreateOrder(c *gin.Context) {
	var req createOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortError(c, http.StatusBadRequest, err.Error())
		return
	}
	a := req.ShippingAddress
	res, err := h.svc.CreateOrder.Execute(c.Request.Context(), apporder.CreateOrderInput{
		Caller: caller(c),
		ShippingAddress: domorder.Address{
			Street:  a.Street,
			City:    a.City,
			State:   a.State,
			ZipCode: a.ZipCode,
			Country: a.Country,
		},
	})
	if err != nil {
		writeDomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toOrderResponse(res.Order))
}

func (h *Handler) handleListMyOrders(c *gin.Context) {
	orders, err := h.svc.Orders.ListForUser(c.Request.Context(), caller(c))
	if err != nil {
		writeDomainError(c, err)
		return
	}
	out := make([]orderResponse, 0, len(orders))
	for _, o := range orders {
		out = append(out, toOrderResponse(o))
	}
	c.JSON(http.StatusOK, out)
}

func (h *Handler) handleGetOrder(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	o, err := h.svc.Orders.Get(c.Request.Context(), caller(c), id)
	if err != nil {
		writeDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, toOrderResponse(o))
}

func (h *Handler) handleTransitionStatus(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	next := c.Query("new_status")
	if next == "" {
		abortError(c, http.StatusBadRequest, "new_status is required")
		return
	}
	res, err := h.svc.TransitionStatus.Execute(c.Request.Context(), apporder.TransitionStatusInput{
		Caller:    caller(c),
		OrderID:   id,
		NewStatus: next,
	})
	if err != nil {
		writeDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, toOrderResponse(res.Order))
}
