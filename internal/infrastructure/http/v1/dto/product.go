package dto

import (
	"rasoi/internal/core/id"
	"rasoi/internal/core/types"
	"rasoi/internal/domain/catalogs/product"
)

// --- Request DTOs ---

// CreateProductRequest is the request body for creating a combo product.
type CreateProductRequest struct {
	Code         string      `json:"code"`
	Name         string      `json:"name" binding:"required"`
	SellingPrice types.Money `json:"sellingPrice"`
	ServePersons int         `json:"servePersons"`
	Featured     bool        `json:"featured"`
}

// ToEntity converts DTO to domain entity.
func (r *CreateProductRequest) ToEntity() *product.Product {
	item := product.New(r.Name, r.SellingPrice)
	item.Code = r.Code
	if r.ServePersons > 0 {
		item.ServePersons = r.ServePersons
	}
	item.Featured = r.Featured
	return item
}

// UpdateProductRequest is the request body for updating a combo product.
type UpdateProductRequest struct {
	Name         string      `json:"name" binding:"required"`
	SellingPrice types.Money `json:"sellingPrice"`
	ServePersons int         `json:"servePersons" binding:"required,min=1"`
	Featured     bool        `json:"featured"`
	Active       bool        `json:"active"`
	Version      int         `json:"version" binding:"required,min=1"`
}

// ApplyTo applies update DTO to existing entity.
func (r *UpdateProductRequest) ApplyTo(item *product.Product) {
	item.Name = r.Name
	item.SellingPrice = r.SellingPrice
	item.ServePersons = r.ServePersons
	item.Featured = r.Featured
	item.Active = r.Active
	item.Version = r.Version
}

// CompositionLineRequest is one composition line in an update request.
type CompositionLineRequest struct {
	PreparedItemID string `json:"preparedItemId" binding:"required"`
	Multiplier     int    `json:"multiplier" binding:"required,min=1"`
}

// UpdateCompositionRequest replaces the whole composition atomically.
type UpdateCompositionRequest struct {
	Lines []CompositionLineRequest `json:"lines" binding:"required,min=1"`
}

// ToLines converts request lines to domain composition lines.
func (r *UpdateCompositionRequest) ToLines() ([]product.CompositionLine, error) {
	lines := make([]product.CompositionLine, len(r.Lines))
	for i, l := range r.Lines {
		preparedItemID, err := id.Parse(l.PreparedItemID)
		if err != nil {
			return nil, err
		}
		lines[i] = product.CompositionLine{
			PreparedItemID: preparedItemID,
			Multiplier:     l.Multiplier,
		}
	}
	return lines, nil
}

// --- Response DTOs ---

// ProductResponse is the response body for a combo product.
type ProductResponse struct {
	ID           string       `json:"id"`
	Code         string       `json:"code"`
	Name         string       `json:"name"`
	SellingPrice types.Money  `json:"sellingPrice"`
	ServePersons int          `json:"servePersons"`
	Featured     bool         `json:"featured"`
	Active       bool         `json:"active"`
	CachedCost   *types.Money `json:"cachedCost,omitempty"`
	Profit       *types.Money `json:"profit,omitempty"`
	CostBlocked  bool         `json:"costBlocked"`
	DeletionMark bool         `json:"deletionMark"`
	Version      int          `json:"version"`
}

// FromProduct creates response DTO from domain entity. Cost and profit
// are withheld while the cost is blocked.
func FromProduct(item *product.Product) *ProductResponse {
	resp := &ProductResponse{
		ID:           item.ID.String(),
		Code:         item.Code,
		Name:         item.Name,
		SellingPrice: item.SellingPrice,
		ServePersons: item.ServePersons,
		Featured:     item.Featured,
		Active:       item.Active,
		CostBlocked:  item.CostBlocked,
		DeletionMark: item.DeletionMark,
		Version:      item.Version,
	}
	if !item.CostBlocked {
		cost := item.CachedCost
		profit := item.Profit()
		resp.CachedCost = &cost
		resp.Profit = &profit
	}
	return resp
}

// CompositionLineResponse is one composition line in a response.
type CompositionLineResponse struct {
	ID             string `json:"id"`
	PreparedItemID string `json:"preparedItemId"`
	Multiplier     int    `json:"multiplier"`
	LineNo         int    `json:"lineNo"`
}

// CompositionResponse is the response body for a product composition.
type CompositionResponse struct {
	ProductID string                    `json:"productId"`
	Lines     []CompositionLineResponse `json:"lines"`
}

// FromComposition creates a composition response from domain lines.
func FromComposition(productID id.ID, lines []product.CompositionLine) *CompositionResponse {
	out := make([]CompositionLineResponse, len(lines))
	for i, l := range lines {
		out[i] = CompositionLineResponse{
			ID:             l.ID.String(),
			PreparedItemID: l.PreparedItemID.String(),
			Multiplier:     l.Multiplier,
			LineNo:         l.LineNo,
		}
	}
	return &CompositionResponse{
		ProductID: productID.String(),
		Lines:     out,
	}
}
