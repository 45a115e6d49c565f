package httppresentation

import (
	"io"
	"net/http"

	apppay "github.com/escabi/escabiapi/internal/application/payment"
	"github.com/escabi/escabiapi/internal/observability"
	"github.com/escabi/escabiapi/internal/observability/logctx"

	"github.com/gin-gonic/gin"
)

type preferenceResponse struct {
	PreferenceID string `json:"preference_id"`
	InitPoint    string `json:"init_point"`
}

func (h *Handler) handleCreatePreference(c *gin.Context) {
	id, ok := h.pathID(c, "order_id")
	if !ok {
		return
	}
	res, err := h.svc.PaymentIntent.Execute(c.Request.Context(), apppay.CreatePaymentIntentInput{
		Caller:  caller(c),
		OrderID: id,
	})
	if err != nil {
		writeDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, preferenceResponse{PreferenceID: res.PreferenceID, InitPoint: res.InitPoint})
}

// handleWebhook acknowledges every callback with 200 so the gateway stops
// retrying; failures are only logged.
func (h *Handler) handleWebhook(uc *apppay.HandleWebhookUseCase) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		log := logctx.FromOr(ctx, h.log)

		body, err := io.ReadAll(io.LimitReader(c.Request.Body, h.opts.MaxWebhookBody))
		if err != nil {
			log.Warn("webhook_body_unreadable", observability.F("error", err.Error()))
			c.Status(http.StatusOK)
			return
		}

		res, err := uc.Execute(ctx, apppay.WebhookRequest{
			Query:  c.Request.URL.Query(),
			Header: c.Request.Header.Clone(),
			Body:   body,
		})
		if err != nil {
			log.Warn("webhook_processing_failed", observability.F("error", err.Error()))
		}
		if res != nil {
			c.JSON(http.StatusOK, gin.H{"status": "ok", "action": res.Action})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}
