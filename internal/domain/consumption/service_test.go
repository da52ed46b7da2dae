package consumption

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rasoi/internal/core/apperror"
	"rasoi/internal/core/id"
	"rasoi/internal/core/types"
	"rasoi/internal/domain/catalogs/ingredient"
	"rasoi/internal/domain/catalogs/prepareditem"
	"rasoi/internal/domain/catalogs/product"
	"rasoi/internal/domain/registers/ledger"
	"rasoi/internal/domain/units"
)

// --- fakes (embedded interfaces panic on anything the test should not touch) ---

type fakeIngredientRepo struct {
	ingredient.Repository
	mu        sync.Mutex
	items     map[id.ID]*ingredient.Ingredient
	lockCalls [][]id.ID
}

func (f *fakeIngredientRepo) GetByID(ctx context.Context, ingID id.ID) (*ingredient.Ingredient, error) {
	item, ok := f.items[ingID]
	if !ok {
		return nil, apperror.NewNotFound("ingredient", ingID.String())
	}
	return item, nil
}

func (f *fakeIngredientRepo) LockByIDs(ctx context.Context, ids []id.ID) ([]*ingredient.Ingredient, error) {
	f.mu.Lock()
	f.lockCalls = append(f.lockCalls, ids)
	f.mu.Unlock()

	out := make([]*ingredient.Ingredient, 0, len(ids))
	for _, ingID := range ids {
		if item, ok := f.items[ingID]; ok {
			out = append(out, item)
		}
	}
	return out, nil
}

type fakeLedgerRepo struct {
	ledger.Repository
	stock   map[id.ID]types.Quantity
	entries []*ledger.LedgerEntry
}

func (f *fakeLedgerRepo) SumStockMany(ctx context.Context, ids []id.ID) (map[id.ID]types.Quantity, error) {
	out := make(map[id.ID]types.Quantity, len(ids))
	for _, ingID := range ids {
		out[ingID] = f.stock[ingID]
	}
	return out, nil
}

func (f *fakeLedgerRepo) AppendAll(ctx context.Context, entries []*ledger.LedgerEntry) error {
	for _, entry := range entries {
		f.stock[entry.IngredientID] += entry.Quantity
		f.entries = append(f.entries, entry)
	}
	return nil
}

type fakeItemsRepo struct {
	prepareditem.Repository
	items   map[id.ID]*prepareditem.PreparedItem
	recipes map[id.ID][]prepareditem.RecipeLine
}

func (f *fakeItemsRepo) GetByID(ctx context.Context, itemID id.ID) (*prepareditem.PreparedItem, error) {
	item, ok := f.items[itemID]
	if !ok {
		return nil, apperror.NewNotFound("prepared_item", itemID.String())
	}
	return item, nil
}

func (f *fakeItemsRepo) GetRecipe(ctx context.Context, itemID id.ID) ([]prepareditem.RecipeLine, error) {
	return f.recipes[itemID], nil
}

type fakeProductsRepo struct {
	product.Repository
	products     map[id.ID]*product.Product
	compositions map[id.ID][]product.CompositionLine
}

func (f *fakeProductsRepo) GetByID(ctx context.Context, productID id.ID) (*product.Product, error) {
	prod, ok := f.products[productID]
	if !ok {
		return nil, apperror.NewNotFound("product", productID.String())
	}
	return prod, nil
}

func (f *fakeProductsRepo) GetComposition(ctx context.Context, productID id.ID) ([]product.CompositionLine, error) {
	return f.compositions[productID], nil
}

// fakeTxManager serializes transaction bodies with one mutex, standing in
// for the row locks the real implementation takes inside the transaction.
type fakeTxManager struct {
	mu    sync.Mutex
	calls int
}

func (f *fakeTxManager) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return fn(ctx)
}

// --- fixture ---

type fixture struct {
	svc         *Service
	ingredients *fakeIngredientRepo
	ledger      *fakeLedgerRepo
	items       *fakeItemsRepo
	products    *fakeProductsRepo
	tx          *fakeTxManager
}

func newFixture() *fixture {
	ingredients := &fakeIngredientRepo{items: map[id.ID]*ingredient.Ingredient{}}
	ledgerRepo := &fakeLedgerRepo{stock: map[id.ID]types.Quantity{}}
	items := &fakeItemsRepo{
		items:   map[id.ID]*prepareditem.PreparedItem{},
		recipes: map[id.ID][]prepareditem.RecipeLine{},
	}
	products := &fakeProductsRepo{
		products:     map[id.ID]*product.Product{},
		compositions: map[id.ID][]product.CompositionLine{},
	}
	txManager := &fakeTxManager{}

	return &fixture{
		svc:         NewService(products, items, ingredients, ledgerRepo, txManager),
		ingredients: ingredients,
		ledger:      ledgerRepo,
		items:       items,
		products:    products,
		tx:          txManager,
	}
}

func (f *fixture) addIngredient(name string, base units.Unit, stock string) *ingredient.Ingredient {
	ing := ingredient.New(name, base)
	f.ingredients.items[ing.ID] = ing
	f.ledger.stock[ing.ID] = types.MustQuantity(stock)
	return ing
}

func (f *fixture) addItem(item *prepareditem.PreparedItem, recipe ...prepareditem.RecipeLine) {
	f.items.items[item.ID] = item
	f.items.recipes[item.ID] = recipe
}

func (f *fixture) addProduct(prod *product.Product, lines ...product.CompositionLine) {
	f.products.products[prod.ID] = prod
	f.products.compositions[prod.ID] = lines
}

func recipeLine(ingID id.ID, qty string, unit units.Unit) prepareditem.RecipeLine {
	return prepareditem.RecipeLine{
		ID:           id.New(),
		IngredientID: ingID,
		Quantity:     types.MustQuantity(qty),
		QuantityUnit: unit,
	}
}

// --- Consume ---

func TestConsume_SingleItem(t *testing.T) {
	f := newFixture()
	rice := f.addIngredient("Rice", units.Kilogram, "10")

	idli := prepareditem.New("Idli", units.Piece, types.MustQuantity("1"))
	f.addItem(idli, recipeLine(rice.ID, "100", units.Gram))

	result, err := f.svc.Consume(context.Background(), Basket{
		OrderRef: "ORD-1001",
		Items:    []ItemLine{{PreparedItemID: idli.ID, Quantity: 3}},
	})
	require.NoError(t, err)
	assert.Equal(t, StatusCommitted, result.Status)
	require.Len(t, result.LedgerEntryIDs, 1)
	assert.Equal(t, types.MustQuantity("0.3"), result.Consumed[rice.ID])

	// Stock went down by exactly the demand.
	assert.Equal(t, types.MustQuantity("9.7"), f.ledger.stock[rice.ID])

	require.Len(t, f.ledger.entries, 1)
	entry := f.ledger.entries[0]
	assert.Equal(t, ledger.KindConsumption, entry.Kind)
	assert.Equal(t, types.MustQuantity("-0.3"), entry.Quantity)
	require.NotNil(t, entry.OrderRef)
	assert.Equal(t, "ORD-1001", *entry.OrderRef)
	require.NotNil(t, entry.PreparedItemRef)
	assert.Equal(t, idli.ID, *entry.PreparedItemRef)
	assert.Nil(t, entry.ProductRef)
}

func TestConsume_CoalescesSharedIngredients(t *testing.T) {
	f := newFixture()
	rice := f.addIngredient("Rice", units.Kilogram, "10")

	idli := prepareditem.New("Idli", units.Piece, types.MustQuantity("1"))
	f.addItem(idli, recipeLine(rice.ID, "100", units.Gram))
	dosa := prepareditem.New("Dosa", units.Piece, types.MustQuantity("1"))
	f.addItem(dosa, recipeLine(rice.ID, "50", units.Gram))

	result, err := f.svc.Consume(context.Background(), Basket{
		OrderRef: "ORD-1002",
		Items: []ItemLine{
			{PreparedItemID: idli.ID, Quantity: 2},
			{PreparedItemID: dosa.ID, Quantity: 1},
		},
	})
	require.NoError(t, err)

	// One coalesced entry for rice, and the item reference dropped since
	// two different items consumed it.
	require.Len(t, f.ledger.entries, 1)
	assert.Equal(t, types.MustQuantity("-0.25"), f.ledger.entries[0].Quantity)
	assert.Nil(t, f.ledger.entries[0].PreparedItemRef)
	assert.Equal(t, types.MustQuantity("0.25"), result.Consumed[rice.ID])
}

func TestConsume_ProductWithAddons(t *testing.T) {
	f := newFixture()
	rice := f.addIngredient("Rice", units.Kilogram, "10")
	potato := f.addIngredient("Potato", units.Kilogram, "10")

	idli := prepareditem.New("Idli", units.Piece, types.MustQuantity("1"))
	f.addItem(idli, recipeLine(rice.ID, "100", units.Gram))
	vada := prepareditem.New("Vada", units.Piece, types.MustQuantity("1"))
	f.addItem(vada, recipeLine(potato.ID, "80", units.Gram))

	combo := product.New("Idli Combo", types.MustMoney("120.00"))
	f.addProduct(combo, product.CompositionLine{
		ID: id.New(), ProductID: combo.ID, PreparedItemID: idli.ID, Multiplier: 3, LineNo: 1,
	})

	// 2 combos (3 idlis each) plus 1 vada addon per combo.
	result, err := f.svc.Consume(context.Background(), Basket{
		OrderRef: "ORD-1003",
		Products: []ProductLine{{
			ProductID: combo.ID,
			Quantity:  2,
			Addons:    []ItemLine{{PreparedItemID: vada.ID, Quantity: 1}},
		}},
	})
	require.NoError(t, err)

	assert.Equal(t, types.MustQuantity("0.6"), result.Consumed[rice.ID])
	assert.Equal(t, types.MustQuantity("0.16"), result.Consumed[potato.ID])

	require.Len(t, f.ledger.entries, 2)
	for _, entry := range f.ledger.entries {
		require.NotNil(t, entry.ProductRef)
		assert.Equal(t, combo.ID, *entry.ProductRef)
	}
}

func TestConsume_BatchModeConsumesWholeBatches(t *testing.T) {
	f := newFixture()
	tomato := f.addIngredient("Tomato", units.Kilogram, "5")

	// 2 kg per 5 ltr batch, 100 ml servings: 50 servings per batch.
	sambar := prepareditem.New("Sambar", units.Litre, types.MustQuantity("0.1"))
	sambar.Mode = prepareditem.ModeBatch
	sambar.BatchOutputQty = types.MustQuantity("5")
	f.addItem(sambar, recipeLine(tomato.ID, "2", units.Kilogram))

	// 51 servings needs two batches.
	result, err := f.svc.Consume(context.Background(), Basket{
		OrderRef: "ORD-1004",
		Items:    []ItemLine{{PreparedItemID: sambar.ID, Quantity: 51}},
	})
	require.NoError(t, err)
	assert.Equal(t, types.MustQuantity("4"), result.Consumed[tomato.ID])
	assert.Equal(t, types.MustQuantity("1"), f.ledger.stock[tomato.ID])
}

func TestConsume_InsufficientStock(t *testing.T) {
	f := newFixture()
	rice := f.addIngredient("Rice", units.Kilogram, "0.2")

	idli := prepareditem.New("Idli", units.Piece, types.MustQuantity("1"))
	f.addItem(idli, recipeLine(rice.ID, "100", units.Gram))

	_, err := f.svc.Consume(context.Background(), Basket{
		OrderRef: "ORD-1005",
		Items:    []ItemLine{{PreparedItemID: idli.ID, Quantity: 3}},
	})
	require.Error(t, err)
	assert.True(t, apperror.IsInsufficientStock(err))

	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, "0.3000", appErr.Details["required"])
	assert.Equal(t, "0.2000", appErr.Details["available"])

	// Nothing was written.
	assert.Empty(t, f.ledger.entries)
	assert.Equal(t, types.MustQuantity("0.2"), f.ledger.stock[rice.ID])
}

func TestConsume_ValidationBeforeLocks(t *testing.T) {
	f := newFixture()
	rice := f.addIngredient("Rice", units.Kilogram, "10")

	retired := prepareditem.New("Retired Special", units.Piece, types.MustQuantity("1"))
	retired.Active = false
	f.addItem(retired, recipeLine(rice.ID, "100", units.Gram))

	_, err := f.svc.Consume(context.Background(), Basket{
		OrderRef: "ORD-1006",
		Items:    []ItemLine{{PreparedItemID: retired.ID, Quantity: 1}},
	})
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeValidation))

	// Rejected before any transaction or lock.
	assert.Zero(t, f.tx.calls)
	assert.Empty(t, f.ingredients.lockCalls)
}

func TestConsume_EmptyBasket(t *testing.T) {
	f := newFixture()

	_, err := f.svc.Consume(context.Background(), Basket{OrderRef: "ORD-1007"})
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeValidation))
}

func TestConsume_LocksInAscendingIDOrder(t *testing.T) {
	f := newFixture()
	a := f.addIngredient("Atta", units.Kilogram, "10")
	b := f.addIngredient("Besan", units.Kilogram, "10")
	c := f.addIngredient("Chana", units.Kilogram, "10")

	thali := prepareditem.New("Thali", units.Piece, types.MustQuantity("1"))
	f.addItem(thali,
		recipeLine(c.ID, "100", units.Gram),
		recipeLine(a.ID, "100", units.Gram),
		recipeLine(b.ID, "100", units.Gram),
	)

	_, err := f.svc.Consume(context.Background(), Basket{
		OrderRef: "ORD-1008",
		Items:    []ItemLine{{PreparedItemID: thali.ID, Quantity: 1}},
	})
	require.NoError(t, err)

	require.Len(t, f.ingredients.lockCalls, 1)
	locked := f.ingredients.lockCalls[0]
	require.Len(t, locked, 3)
	for i := 1; i < len(locked); i++ {
		assert.True(t, locked[i-1].String() < locked[i].String())
	}
}

// Two concurrent orders compete for the last portion of stock. Exactly
// one commits; the other is rejected with INSUFFICIENT_STOCK and stock
// never goes negative.
func TestConsume_ConcurrentBasketsOneWins(t *testing.T) {
	f := newFixture()
	rice := f.addIngredient("Rice", units.Kilogram, "0.25")
	lemon := f.addIngredient("Lemon Concentrate", units.Litre, "0.04")

	dosa := prepareditem.New("Dosa", units.Piece, types.MustQuantity("1"))
	f.addItem(dosa,
		recipeLine(rice.ID, "250", units.Gram),
		recipeLine(lemon.ID, "40", units.Millilitre),
	)

	results := make([]*CommitResult, 2)
	errs := make([]error, 2)

	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = f.svc.Consume(context.Background(), Basket{
				OrderRef: "ORD-2001",
				Items:    []ItemLine{{PreparedItemID: dosa.ID, Quantity: 1}},
			})
		}(i)
	}
	wg.Wait()

	committed, rejected := 0, 0
	for i := 0; i < 2; i++ {
		if errs[i] == nil {
			committed++
			assert.Equal(t, StatusCommitted, results[i].Status)
		} else {
			rejected++
			assert.True(t, apperror.IsInsufficientStock(errs[i]))
		}
	}
	assert.Equal(t, 1, committed)
	assert.Equal(t, 1, rejected)

	assert.Equal(t, types.MustQuantity("0"), f.ledger.stock[rice.ID])
	assert.Equal(t, types.MustQuantity("0"), f.ledger.stock[lemon.ID])
}

// --- PrepareBatch ---

func TestPrepareBatch(t *testing.T) {
	f := newFixture()
	tomato := f.addIngredient("Tomato", units.Kilogram, "5")

	sambar := prepareditem.New("Sambar", units.Litre, types.MustQuantity("0.1"))
	sambar.Mode = prepareditem.ModeBatch
	sambar.BatchOutputQty = types.MustQuantity("5")
	f.addItem(sambar, recipeLine(tomato.ID, "2", units.Kilogram))

	result, err := f.svc.PrepareBatch(context.Background(), sambar.ID, 2, "morning prep")
	require.NoError(t, err)
	assert.Equal(t, StatusCommitted, result.Status)
	assert.Equal(t, types.MustQuantity("4"), result.Consumed[tomato.ID])

	require.Len(t, f.ledger.entries, 1)
	entry := f.ledger.entries[0]
	assert.Equal(t, ledger.KindAdjustment, entry.Kind)
	assert.Equal(t, types.MustQuantity("-4"), entry.Quantity)
	require.NotNil(t, entry.PreparedItemRef)
	assert.Equal(t, sambar.ID, *entry.PreparedItemRef)
	require.NotNil(t, entry.Note)
	assert.Equal(t, "morning prep", *entry.Note)
	assert.Nil(t, entry.OrderRef)
}

func TestPrepareBatch_InsufficientStock(t *testing.T) {
	f := newFixture()
	tomato := f.addIngredient("Tomato", units.Kilogram, "3")

	sambar := prepareditem.New("Sambar", units.Litre, types.MustQuantity("0.1"))
	sambar.Mode = prepareditem.ModeBatch
	sambar.BatchOutputQty = types.MustQuantity("5")
	f.addItem(sambar, recipeLine(tomato.ID, "2", units.Kilogram))

	_, err := f.svc.PrepareBatch(context.Background(), sambar.ID, 2, "")
	require.Error(t, err)
	assert.True(t, apperror.IsInsufficientStock(err))
	assert.Empty(t, f.ledger.entries)
}

func TestPrepareBatch_RejectsNonPositiveBatches(t *testing.T) {
	f := newFixture()

	_, err := f.svc.PrepareBatch(context.Background(), id.New(), 0, "")
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeValidation))
}
