package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"rasoi/internal/core/apperror"
	"rasoi/internal/core/id"
	"rasoi/internal/domain/catalogs/ingredient"
	"rasoi/internal/domain/registers/ledger"
	"rasoi/internal/infrastructure/http/v1/dto"
)

// StockHandler serves the stock ledger register.
type StockHandler struct {
	*BaseHandler
	service     *ledger.Service
	ingredients *ingredient.Service
}

// NewStockHandler creates a stock handler.
func NewStockHandler(base *BaseHandler, service *ledger.Service, ingredients *ingredient.Service) *StockHandler {
	return &StockHandler{
		BaseHandler: base,
		service:     service,
		ingredients: ingredients,
	}
}

// AppendEntry handles POST /stock/entries - record one stock movement.
func (h *StockHandler) AppendEntry(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.AppendEntryRequest
	if !h.BindJSON(c, &req) {
		return
	}

	ingredientID, err := h.parseIngredientID(req.IngredientID)
	if err != nil {
		h.Error(c, err)
		return
	}

	entry := ledger.NewEntry(ingredientID, req.Quantity, ledger.EntryKind(req.Kind))
	entry.OrderRef = req.OrderRef
	entry.Note = req.Note

	if err := h.service.Append(ctx, entry); err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.FromLedgerEntry(entry))
}

// GetStock handles GET /stock/:ingredientId - authoritative balance.
func (h *StockHandler) GetStock(c *gin.Context) {
	ctx := c.Request.Context()

	ingredientID, ok := h.ParseID(c, "ingredientId")
	if !ok {
		return
	}

	ing, err := h.ingredients.GetByID(ctx, ingredientID)
	if err != nil {
		h.Error(c, err)
		return
	}

	stock, err := h.service.CurrentStock(ctx, ingredientID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.StockResponse{
		IngredientID: ingredientID.String(),
		Stock:        stock,
		Unit:         string(ing.BaseUnit),
	})
}

// GetValue handles GET /stock/:ingredientId/value - stock at unit cost.
func (h *StockHandler) GetValue(c *gin.Context) {
	ctx := c.Request.Context()

	ingredientID, ok := h.ParseID(c, "ingredientId")
	if !ok {
		return
	}

	stock, err := h.service.CurrentStock(ctx, ingredientID)
	if err != nil {
		h.Error(c, err)
		return
	}

	value, err := h.service.TotalValue(ctx, ingredientID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.StockValueResponse{
		IngredientID: ingredientID.String(),
		Stock:        stock,
		TotalValue:   value,
	})
}

// GetHistory handles GET /stock/:ingredientId/history - entries, newest first.
func (h *StockHandler) GetHistory(c *gin.Context) {
	ctx := c.Request.Context()

	ingredientID, ok := h.ParseID(c, "ingredientId")
	if !ok {
		return
	}

	var query dto.HistoryQuery
	if !h.BindQuery(c, &query) {
		return
	}

	filter := ledger.HistoryFilter{
		FromDate: query.From,
		ToDate:   query.To,
		Limit:    query.Limit,
		Offset:   query.Offset,
	}
	if query.Kind != "" {
		kind := ledger.EntryKind(query.Kind)
		if !kind.IsValid() {
			h.Error(c, apperror.NewValidation("unknown entry kind").
				WithDetail("value", query.Kind))
			return
		}
		filter.Kind = &kind
	}
	if query.OrderRef != "" {
		filter.OrderRef = &query.OrderRef
	}

	entries, err := h.service.History(ctx, ingredientID, filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	items := make([]*dto.LedgerEntryResponse, len(entries))
	for i := range entries {
		items[i] = dto.FromLedgerEntry(&entries[i])
	}
	h.OK(c, gin.H{"items": items})
}

// GetTurnover handles GET /stock/:ingredientId/turnover?from=&to=.
func (h *StockHandler) GetTurnover(c *gin.Context) {
	ctx := c.Request.Context()

	ingredientID, ok := h.ParseID(c, "ingredientId")
	if !ok {
		return
	}

	var query dto.TurnoverQuery
	if !h.BindQuery(c, &query) {
		return
	}

	turnover, err := h.service.GetTurnover(ctx, ledger.TurnoverFilter{
		IngredientID: ingredientID,
		FromDate:     query.From,
		ToDate:       query.To,
	})
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromTurnover(turnover, query.From, query.To))
}

// GetStockAtDate handles GET /stock/:ingredientId/at?date= - balance as
// of a point in time, reconstructed from the ledger.
func (h *StockHandler) GetStockAtDate(c *gin.Context) {
	ctx := c.Request.Context()

	ingredientID, ok := h.ParseID(c, "ingredientId")
	if !ok {
		return
	}

	at, err := time.Parse(time.RFC3339, c.Query("date"))
	if err != nil {
		h.Error(c, apperror.NewValidation("date must be RFC3339").
			WithDetail("value", c.Query("date")))
		return
	}

	stock, err := h.service.StockAtDate(ctx, ingredientID, at)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, gin.H{
		"ingredientId": ingredientID.String(),
		"date":         at,
		"stock":        stock,
	})
}

// Recalculate handles POST /stock/:ingredientId/recalculate - rebuild the
// cached balance row from the ledger.
func (h *StockHandler) Recalculate(c *gin.Context) {
	ctx := c.Request.Context()

	ingredientID, ok := h.ParseID(c, "ingredientId")
	if !ok {
		return
	}

	if err := h.service.RecalculateBalance(ctx, ingredientID); err != nil {
		h.Error(c, err)
		return
	}

	h.Success(c, "balance recalculated")
}

func (h *StockHandler) parseIngredientID(raw string) (id.ID, error) {
	parsed, err := id.Parse(raw)
	if err != nil {
		return id.Nil(), apperror.NewValidation("invalid id format").
			WithDetail("field", "ingredientId")
	}
	return parsed, nil
}
