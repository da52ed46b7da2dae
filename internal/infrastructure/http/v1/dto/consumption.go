package dto

import (
	"rasoi/internal/core/id"
	"rasoi/internal/core/types"
	"rasoi/internal/domain/consumption"
)

// --- Request DTOs ---

// ConsumeItemLine is a purchased standalone prepared item or addon.
type ConsumeItemLine struct {
	PreparedItemID string `json:"preparedItemId" binding:"required"`
	Quantity       int64  `json:"quantity" binding:"required,min=1"`
}

// ConsumeProductLine is a purchased combo, optionally with addons.
type ConsumeProductLine struct {
	ProductID string            `json:"productId" binding:"required"`
	Quantity  int64             `json:"quantity" binding:"required,min=1"`
	Addons    []ConsumeItemLine `json:"addons"`
}

// ConsumeRequest describes one customer purchase to deduct from stock.
type ConsumeRequest struct {
	OrderRef string               `json:"orderRef" binding:"required"`
	Products []ConsumeProductLine `json:"products"`
	Items    []ConsumeItemLine    `json:"items"`
}

// ToBasket converts the request to a domain basket.
func (r *ConsumeRequest) ToBasket() (consumption.Basket, error) {
	basket := consumption.Basket{OrderRef: r.OrderRef}

	for _, p := range r.Products {
		productID, err := id.Parse(p.ProductID)
		if err != nil {
			return basket, err
		}
		line := consumption.ProductLine{ProductID: productID, Quantity: p.Quantity}
		for _, a := range p.Addons {
			addon, err := toItemLine(a)
			if err != nil {
				return basket, err
			}
			line.Addons = append(line.Addons, addon)
		}
		basket.Products = append(basket.Products, line)
	}

	for _, i := range r.Items {
		line, err := toItemLine(i)
		if err != nil {
			return basket, err
		}
		basket.Items = append(basket.Items, line)
	}

	return basket, nil
}

func toItemLine(l ConsumeItemLine) (consumption.ItemLine, error) {
	preparedItemID, err := id.Parse(l.PreparedItemID)
	if err != nil {
		return consumption.ItemLine{}, err
	}
	return consumption.ItemLine{PreparedItemID: preparedItemID, Quantity: l.Quantity}, nil
}

// PrepareBatchRequest records kitchen pre-production of whole batches.
type PrepareBatchRequest struct {
	PreparedItemID string `json:"preparedItemId" binding:"required"`
	Batches        int64  `json:"batches" binding:"required,min=1"`
	Note           string `json:"note"`
}

// --- Response DTOs ---

// ConsumeResponse reports a committed consumption.
type ConsumeResponse struct {
	Status         string                    `json:"status"`
	LedgerEntryIDs []string                  `json:"ledgerEntryIds"`
	Consumed       map[string]types.Quantity `json:"consumed"`
}

// FromCommitResult creates response DTO from a commit result.
func FromCommitResult(result *consumption.CommitResult) *ConsumeResponse {
	resp := &ConsumeResponse{
		Status:         string(result.Status),
		LedgerEntryIDs: make([]string, len(result.LedgerEntryIDs)),
		Consumed:       make(map[string]types.Quantity, len(result.Consumed)),
	}
	for i, entryID := range result.LedgerEntryIDs {
		resp.LedgerEntryIDs[i] = entryID.String()
	}
	for ingredientID, qty := range result.Consumed {
		resp.Consumed[ingredientID.String()] = qty
	}
	return resp
}
