package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"rasoi/internal/core/apperror"
	"rasoi/internal/core/id"
	"rasoi/internal/domain/consumption"
	"rasoi/internal/infrastructure/http/v1/dto"
)

// ConsumptionHandler serves order consumption and kitchen batch prep.
type ConsumptionHandler struct {
	*BaseHandler
	service *consumption.Service
}

// NewConsumptionHandler creates a consumption handler.
func NewConsumptionHandler(base *BaseHandler, service *consumption.Service) *ConsumptionHandler {
	return &ConsumptionHandler{
		BaseHandler: base,
		service:     service,
	}
}

// Consume handles POST /orders/consume - atomically deduct a basket's
// ingredient demand from stock.
func (h *ConsumptionHandler) Consume(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.ConsumeRequest
	if !h.BindJSON(c, &req) {
		return
	}

	basket, err := req.ToBasket()
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id in basket").
			WithDetail("error", err.Error()))
		return
	}

	result, err := h.service.Consume(ctx, basket)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.FromCommitResult(result))
}

// PrepareBatch handles POST /kitchen/batches - record pre-production of
// whole batches as negative adjustment entries.
func (h *ConsumptionHandler) PrepareBatch(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.PrepareBatchRequest
	if !h.BindJSON(c, &req) {
		return
	}

	preparedItemID, err := id.Parse(req.PreparedItemID)
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format").
			WithDetail("field", "preparedItemId"))
		return
	}

	result, err := h.service.PrepareBatch(ctx, preparedItemID, req.Batches, req.Note)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.FromCommitResult(result))
}
