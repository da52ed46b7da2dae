package consumption

import (
	"context"
	"fmt"

	"rasoi/internal/core/apperror"
	"rasoi/internal/core/id"
	"rasoi/internal/core/tx"
	"rasoi/internal/core/types"
	"rasoi/internal/domain/bom"
	"rasoi/internal/domain/catalogs/ingredient"
	"rasoi/internal/domain/catalogs/prepareditem"
	"rasoi/internal/domain/catalogs/product"
	"rasoi/internal/domain/registers/ledger"
	"rasoi/pkg/logger"
)

// Service runs consumption transactions against the stock ledger.
type Service struct {
	products    product.Repository
	items       prepareditem.Repository
	ingredients ingredient.Repository
	ledger      ledger.Repository
	txManager   tx.Manager
}

// NewService creates a consumption service.
func NewService(
	products product.Repository,
	items prepareditem.Repository,
	ingredients ingredient.Repository,
	ledgerRepo ledger.Repository,
	txManager tx.Manager,
) *Service {
	return &Service{
		products:    products,
		items:       items,
		ingredients: ingredients,
		ledger:      ledgerRepo,
		txManager:   txManager,
	}
}

// expansion is the resolved demand for one basket, plus per-ingredient
// back-references for ledger annotation.
type expansion struct {
	demand map[id.ID]types.Quantity

	// productRef / itemRef hold the single originating reference per
	// ingredient, or nil when an ingredient came from multiple sources.
	productRef map[id.ID]*id.ID
	itemRef    map[id.ID]*id.ID
	seen       map[id.ID]bool
	mixed      map[id.ID]bool
}

func newExpansion() *expansion {
	return &expansion{
		demand:     make(map[id.ID]types.Quantity),
		productRef: make(map[id.ID]*id.ID),
		itemRef:    make(map[id.ID]*id.ID),
		seen:       make(map[id.ID]bool),
		mixed:      make(map[id.ID]bool),
	}
}

// note records the origin of an ingredient's demand. A second distinct
// origin clears the reference; the order ref still ties entries together.
func (e *expansion) note(ingredientID id.ID, productID, itemID *id.ID) {
	if e.mixed[ingredientID] {
		return
	}
	if !e.seen[ingredientID] {
		e.seen[ingredientID] = true
		e.productRef[ingredientID] = productID
		e.itemRef[ingredientID] = itemID
		return
	}
	if !sameRef(e.productRef[ingredientID], productID) || !sameRef(e.itemRef[ingredientID], itemID) {
		e.mixed[ingredientID] = true
		e.productRef[ingredientID] = nil
		e.itemRef[ingredientID] = nil
	}
}

func sameRef(a, b *id.ID) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// Consume atomically deducts a basket's ingredient demand from stock.
//
// State machine: Pending -> Committed | Rejected.
//
//  1. Expand the basket into per-ingredient base-unit demand
//     (ValidationError before any lock on inactive/missing references).
//  2. Lock ingredient rows FOR UPDATE in ascending id order, re-read
//     authoritative stock under the locks, reject with InsufficientStock
//     if any demand exceeds stock.
//  3. Append one coalesced negative consumption entry per ingredient.
//
// Steps 2 and 3 are one transaction: either every entry is appended or
// none are.
func (s *Service) Consume(ctx context.Context, basket Basket) (*CommitResult, error) {
	if err := basket.Validate(ctx); err != nil {
		return nil, err
	}

	exp, err := s.expandBasket(ctx, basket)
	if err != nil {
		return nil, err
	}

	result := &CommitResult{
		Status:   StatusCommitted,
		Consumed: exp.demand,
	}

	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		entries, err := s.lockValidateBuild(ctx, exp, func(ingredientID id.ID, qty types.Quantity) *ledger.LedgerEntry {
			entry := ledger.NewEntry(ingredientID, qty.Neg(), ledger.KindConsumption)
			orderRef := basket.OrderRef
			entry.OrderRef = &orderRef
			entry.ProductRef = exp.productRef[ingredientID]
			entry.PreparedItemRef = exp.itemRef[ingredientID]
			return entry
		})
		if err != nil {
			return err
		}

		if err := s.ledger.AppendAll(ctx, entries); err != nil {
			return fmt.Errorf("append consumption entries: %w", err)
		}

		result.LedgerEntryIDs = make([]id.ID, len(entries))
		for i, entry := range entries {
			result.LedgerEntryIDs[i] = entry.ID
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "consumption committed",
		"order_ref", basket.OrderRef,
		"ingredients", len(result.LedgerEntryIDs),
	)
	return result, nil
}

// PrepareBatch records kitchen pre-production: the ingredient demand of
// whole batches is deducted as negative adjustment entries referencing
// the prepared item. Same lock-validate-append discipline as Consume.
func (s *Service) PrepareBatch(ctx context.Context, preparedItemID id.ID, batches int64, note string) (*CommitResult, error) {
	if batches <= 0 {
		return nil, apperror.NewValidation("batches must be a positive integer").
			WithDetail("field", "batches")
	}

	item, resolved, err := s.loadItem(ctx, preparedItemID)
	if err != nil {
		return nil, err
	}

	exp := newExpansion()
	if err := bom.ExpandBatches(item, resolved, batches, exp.demand); err != nil {
		return nil, err
	}

	if note == "" {
		note = fmt.Sprintf("Kitchen batch prep: %s x %d", item.Name, batches)
	}

	result := &CommitResult{
		Status:   StatusCommitted,
		Consumed: exp.demand,
	}

	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		entries, err := s.lockValidateBuild(ctx, exp, func(ingredientID id.ID, qty types.Quantity) *ledger.LedgerEntry {
			entry := ledger.NewEntry(ingredientID, qty.Neg(), ledger.KindAdjustment)
			entry.PreparedItemRef = &item.ID
			entryNote := note
			entry.Note = &entryNote
			return entry
		})
		if err != nil {
			return err
		}

		if err := s.ledger.AppendAll(ctx, entries); err != nil {
			return fmt.Errorf("append batch prep entries: %w", err)
		}

		result.LedgerEntryIDs = make([]id.ID, len(entries))
		for i, entry := range entries {
			result.LedgerEntryIDs[i] = entry.ID
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "kitchen batch recorded",
		"prepared_item_id", preparedItemID.String(),
		"batches", batches,
	)
	return result, nil
}

// lockValidateBuild locks all demanded ingredient rows in ascending id
// order, re-reads stock under the locks, validates sufficiency and
// builds one coalesced entry per ingredient. Must run inside a
// transaction.
func (s *Service) lockValidateBuild(
	ctx context.Context,
	exp *expansion,
	build func(ingredientID id.ID, qty types.Quantity) *ledger.LedgerEntry,
) ([]*ledger.LedgerEntry, error) {
	ids := bom.SortedIngredientIDs(exp.demand)

	locked, err := s.ingredients.LockByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	if len(locked) != len(ids) {
		return nil, apperror.NewValidation("basket references missing ingredient")
	}

	stocks, err := s.ledger.SumStockMany(ctx, ids)
	if err != nil {
		return nil, err
	}

	entries := make([]*ledger.LedgerEntry, 0, len(ids))
	for _, ingredientID := range ids {
		required := exp.demand[ingredientID]
		available := stocks[ingredientID]

		if required.Int64Scaled() > available.Int64Scaled() {
			return nil, apperror.NewInsufficientStock(
				ingredientID.String(),
				required.String(),
				available.String(),
			)
		}

		entries = append(entries, build(ingredientID, required))
	}
	return entries, nil
}

// expandBasket turns the basket into per-ingredient demand. All
// reference and activity checks happen here, before any lock.
func (s *Service) expandBasket(ctx context.Context, basket Basket) (*expansion, error) {
	exp := newExpansion()

	for _, line := range basket.Products {
		prod, err := s.products.GetByID(ctx, line.ProductID)
		if err != nil {
			if apperror.IsNotFound(err) {
				return nil, apperror.NewValidation("basket references unknown product").
					WithDetail("productId", line.ProductID.String())
			}
			return nil, err
		}
		if !prod.Active || prod.DeletionMark {
			return nil, apperror.NewValidation("basket references inactive product").
				WithDetail("productId", line.ProductID.String()).
				WithDetail("product", prod.Name)
		}

		composition, err := s.products.GetComposition(ctx, line.ProductID)
		if err != nil {
			return nil, err
		}
		if len(composition) == 0 {
			return nil, apperror.NewValidation("product has no composition").
				WithDetail("productId", line.ProductID.String()).
				WithDetail("product", prod.Name)
		}

		for _, comp := range composition {
			servings := int64(comp.Multiplier) * line.Quantity
			if err := s.expandItem(ctx, exp, comp.PreparedItemID, servings, &prod.ID); err != nil {
				return nil, err
			}
		}

		for _, addon := range line.Addons {
			if err := s.expandItem(ctx, exp, addon.PreparedItemID, addon.Quantity*line.Quantity, &prod.ID); err != nil {
				return nil, err
			}
		}
	}

	for _, line := range basket.Items {
		if err := s.expandItem(ctx, exp, line.PreparedItemID, line.Quantity, nil); err != nil {
			return nil, err
		}
	}

	if len(exp.demand) == 0 {
		return nil, apperror.NewValidation("basket expands to no ingredient demand")
	}
	return exp, nil
}

// expandItem accumulates one prepared item's demand into the expansion.
func (s *Service) expandItem(ctx context.Context, exp *expansion, preparedItemID id.ID, servings int64, productRef *id.ID) error {
	item, resolved, err := s.loadItem(ctx, preparedItemID)
	if err != nil {
		return err
	}

	before := make(map[id.ID]bool, len(resolved))
	for _, line := range resolved {
		before[line.IngredientID] = true
	}

	if err := bom.Expand(item, resolved, servings, exp.demand); err != nil {
		return err
	}

	itemID := item.ID
	for ingredientID := range before {
		exp.note(ingredientID, productRef, &itemID)
	}
	return nil
}

// loadItem fetches a prepared item with its recipe resolved to base
// units, enforcing the pre-lock validation rules.
func (s *Service) loadItem(ctx context.Context, preparedItemID id.ID) (*prepareditem.PreparedItem, []bom.ResolvedLine, error) {
	item, err := s.items.GetByID(ctx, preparedItemID)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, nil, apperror.NewValidation("basket references unknown prepared item").
				WithDetail("preparedItemId", preparedItemID.String())
		}
		return nil, nil, err
	}
	if !item.Active || item.DeletionMark {
		return nil, nil, apperror.NewValidation("basket references inactive prepared item").
			WithDetail("preparedItemId", preparedItemID.String()).
			WithDetail("preparedItem", item.Name)
	}

	recipe, err := s.items.GetRecipe(ctx, preparedItemID)
	if err != nil {
		return nil, nil, err
	}
	if len(recipe) == 0 {
		return nil, nil, apperror.NewValidation("prepared item has no recipe").
			WithDetail("preparedItemId", preparedItemID.String()).
			WithDetail("preparedItem", item.Name)
	}

	ingredients := make(map[id.ID]*ingredient.Ingredient, len(recipe))
	for _, line := range recipe {
		if _, ok := ingredients[line.IngredientID]; ok {
			continue
		}
		ing, err := s.ingredients.GetByID(ctx, line.IngredientID)
		if err != nil {
			if apperror.IsNotFound(err) {
				return nil, nil, apperror.NewValidation("recipe references unknown ingredient").
					WithDetail("ingredientId", line.IngredientID.String())
			}
			return nil, nil, err
		}
		if !ing.Active || ing.DeletionMark {
			return nil, nil, apperror.NewValidation("recipe references inactive ingredient").
				WithDetail("ingredientId", line.IngredientID.String()).
				WithDetail("ingredient", ing.Name)
		}
		ingredients[line.IngredientID] = ing
	}

	resolved, err := bom.ResolveRecipe(recipe, ingredients)
	if err != nil {
		return nil, nil, err
	}
	return item, resolved, nil
}
