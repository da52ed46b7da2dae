package handlers

import (
	"github.com/gin-gonic/gin"

	"rasoi/internal/core/apperror"
	"rasoi/internal/core/types"
	"rasoi/internal/domain/costing"
	"rasoi/internal/domain/units"
)

// CostingHandler serves ad-hoc ingredient cost quotes.
type CostingHandler struct {
	*BaseHandler
	engine *costing.Engine
}

// NewCostingHandler creates a costing handler.
func NewCostingHandler(base *BaseHandler, engine *costing.Engine) *CostingHandler {
	return &CostingHandler{
		BaseHandler: base,
		engine:      engine,
	}
}

// Quote handles GET /costing/quote?ingredientId=&quantity=&unit= -
// the cost of a quantity of an ingredient under the zero-stock policy.
// A blocked cost surfaces as COST_BLOCKED, never as a guessed number.
func (h *CostingHandler) Quote(c *gin.Context) {
	ctx := c.Request.Context()

	ingredientID, err := h.parseQueryID(c, "ingredientId")
	if err != nil {
		h.Error(c, err)
		return
	}

	qty, err := types.ParseQuantity(c.Query("quantity"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid quantity").
			WithDetail("value", c.Query("quantity")))
		return
	}

	unit, err := units.Parse(c.Query("unit"))
	if err != nil {
		h.Error(c, err)
		return
	}

	cost, err := h.engine.CostFor(ctx, ingredientID, qty, unit)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, gin.H{
		"ingredientId": ingredientID.String(),
		"quantity":     qty,
		"unit":         string(unit),
		"cost":         cost,
	})
}
