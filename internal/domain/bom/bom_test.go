package bom

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rasoi/internal/core/apperror"
	"rasoi/internal/core/id"
	"rasoi/internal/core/types"
	"rasoi/internal/domain/catalogs/ingredient"
	"rasoi/internal/domain/catalogs/prepareditem"
	"rasoi/internal/domain/catalogs/product"
	"rasoi/internal/domain/costing"
	"rasoi/internal/domain/registers/ledger"
	"rasoi/internal/domain/units"
)

// --- fakes (embedded interfaces panic on anything the test should not touch) ---

type fakeIngredientRepo struct {
	ingredient.Repository
	items map[id.ID]*ingredient.Ingredient
}

func (f *fakeIngredientRepo) GetByID(ctx context.Context, ingID id.ID) (*ingredient.Ingredient, error) {
	item, ok := f.items[ingID]
	if !ok {
		return nil, apperror.NewNotFound("ingredient", ingID.String())
	}
	return item, nil
}

type fakeLedgerRepo struct {
	ledger.Repository
	stock map[id.ID]types.Quantity
}

func (f *fakeLedgerRepo) SumStock(ctx context.Context, ingID id.ID) (types.Quantity, error) {
	return f.stock[ingID], nil
}

func (f *fakeLedgerRepo) SumStockMany(ctx context.Context, ids []id.ID) (map[id.ID]types.Quantity, error) {
	out := make(map[id.ID]types.Quantity, len(ids))
	for _, ingID := range ids {
		out[ingID] = f.stock[ingID]
	}
	return out, nil
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

func (f *fakeItemsRepo) FindByIngredient(ctx context.Context, ingID id.ID) ([]*prepareditem.PreparedItem, error) {
	var out []*prepareditem.PreparedItem
	for itemID, recipe := range f.recipes {
		for _, line := range recipe {
			if line.IngredientID == ingID {
				out = append(out, f.items[itemID])
				break
			}
		}
	}
	return out, nil
}

func (f *fakeItemsRepo) UpdateCachedCost(ctx context.Context, itemID id.ID, cost types.Money, blocked bool) error {
	f.items[itemID].CachedCost = cost
	f.items[itemID].CostBlocked = blocked
	return nil
}

type fakeProductsRepo struct {
	product.Repository
	products     map[id.ID]*product.Product
	compositions map[id.ID][]product.CompositionLine
}

func (f *fakeProductsRepo) GetComposition(ctx context.Context, productID id.ID) ([]product.CompositionLine, error) {
	return f.compositions[productID], nil
}

func (f *fakeProductsRepo) FindByPreparedItem(ctx context.Context, itemID id.ID) ([]*product.Product, error) {
	var out []*product.Product
	for productID, lines := range f.compositions {
		for _, line := range lines {
			if line.PreparedItemID == itemID {
				out = append(out, f.products[productID])
				break
			}
		}
	}
	return out, nil
}

func (f *fakeProductsRepo) UpdateCachedCost(ctx context.Context, productID id.ID, cost types.Money, blocked bool) error {
	f.products[productID].CachedCost = cost
	f.products[productID].CostBlocked = blocked
	return nil
}

// --- fixture ---

type fixture struct {
	svc         *Service
	ingredients *fakeIngredientRepo
	ledger      *fakeLedgerRepo
	items       *fakeItemsRepo
	products    *fakeProductsRepo
}

func newFixture(policy costing.Policy) *fixture {
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

	engine := costing.NewEngine(ingredients, ledgerRepo, policy)
	return &fixture{
		svc:         NewService(items, products, ingredients, ledgerRepo, engine),
		ingredients: ingredients,
		ledger:      ledgerRepo,
		items:       items,
		products:    products,
	}
}

func (f *fixture) addIngredient(name string, base units.Unit, unitCost, stock string) *ingredient.Ingredient {
	ing := ingredient.New(name, base)
	ing.UnitCost = types.MustMoney(unitCost)
	f.ingredients.items[ing.ID] = ing
	f.ledger.stock[ing.ID] = types.MustQuantity(stock)
	return ing
}

func (f *fixture) addItem(item *prepareditem.PreparedItem, recipe ...prepareditem.RecipeLine) {
	f.items.items[item.ID] = item
	f.items.recipes[item.ID] = recipe
}

func recipeLine(ingID id.ID, qty string, unit units.Unit) prepareditem.RecipeLine {
	return prepareditem.RecipeLine{
		ID:           id.New(),
		IngredientID: ingID,
		Quantity:     types.MustQuantity(qty),
		QuantityUnit: unit,
	}
}

// --- Expand ---

func TestExpand_PerServing(t *testing.T) {
	idli := prepareditem.New("Idli", units.Piece, types.MustQuantity("1"))
	resolved := []ResolvedLine{
		{IngredientID: id.New(), QtyBase: types.MustQuantity("0.1")},
	}

	demand := map[id.ID]types.Quantity{}
	require.NoError(t, Expand(idli, resolved, 3, demand))
	assert.Equal(t, types.MustQuantity("0.3"), demand[resolved[0].IngredientID])
}

func TestExpand_BatchRoundsUpToWholeBatches(t *testing.T) {
	sambar := prepareditem.New("Sambar", units.Litre, types.MustQuantity("0.1"))
	sambar.Mode = prepareditem.ModeBatch
	sambar.BatchOutputQty = types.MustQuantity("5") // 50 servings per batch

	tomato := id.New()
	resolved := []ResolvedLine{{IngredientID: tomato, QtyBase: types.MustQuantity("2")}}

	// 50 servings = 1 batch = 2 kg
	demand := map[id.ID]types.Quantity{}
	require.NoError(t, Expand(sambar, resolved, 50, demand))
	assert.Equal(t, types.MustQuantity("2"), demand[tomato])

	// 51 servings needs a second batch
	demand = map[id.ID]types.Quantity{}
	require.NoError(t, Expand(sambar, resolved, 51, demand))
	assert.Equal(t, types.MustQuantity("4"), demand[tomato])
}

func TestExpand_BatchMissingOutput(t *testing.T) {
	broken := prepareditem.New("Broken", units.Litre, types.MustQuantity("0.1"))
	broken.Mode = prepareditem.ModeBatch

	err := Expand(broken, nil, 1, map[id.ID]types.Quantity{})
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeValidation))
}

func TestExpand_AccumulatesSharedIngredients(t *testing.T) {
	rice := id.New()
	idli := prepareditem.New("Idli", units.Piece, types.MustQuantity("1"))
	dosa := prepareditem.New("Dosa", units.Piece, types.MustQuantity("1"))

	demand := map[id.ID]types.Quantity{}
	require.NoError(t, Expand(idli, []ResolvedLine{{IngredientID: rice, QtyBase: types.MustQuantity("0.1")}}, 2, demand))
	require.NoError(t, Expand(dosa, []ResolvedLine{{IngredientID: rice, QtyBase: types.MustQuantity("0.05")}}, 1, demand))

	assert.Equal(t, types.MustQuantity("0.25"), demand[rice])
}

func TestResolveRecipe_UnitMismatch(t *testing.T) {
	eggs := ingredient.New("Eggs", units.Piece)
	lines := []prepareditem.RecipeLine{recipeLine(eggs.ID, "50", units.Millilitre)}

	_, err := ResolveRecipe(lines, map[id.ID]*ingredient.Ingredient{eggs.ID: eggs})
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeUnitMismatch))
}

func TestResolveRecipe_SubResolutionLineRejected(t *testing.T) {
	saffron := ingredient.New("Saffron", units.Kilogram)
	lines := []prepareditem.RecipeLine{recipeLine(saffron.ID, "0.05", units.Gram)}

	// 0.05 gm cannot be expressed in kg; resolving it must fail instead
	// of producing a zero-demand line that consumption would skip.
	_, err := ResolveRecipe(lines, map[id.ID]*ingredient.Ingredient{saffron.ID: saffron})
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeValidation))
}

func TestExpand_LargeServingCountStaysExact(t *testing.T) {
	rice := ingredient.New("Rice", units.Kilogram)
	lines := []prepareditem.RecipeLine{recipeLine(rice.ID, "1.5", units.Gram)}

	resolved, err := ResolveRecipe(lines, map[id.ID]*ingredient.Ingredient{rice.ID: rice})
	require.NoError(t, err)

	idli := prepareditem.New("Idli", units.Piece, types.MustQuantity("1"))
	demand := map[id.ID]types.Quantity{}
	require.NoError(t, Expand(idli, resolved, 1000, demand))

	// 1.5 gm x 1000 servings is exactly 1.5 kg; conversion before
	// multiplication must not shave the total.
	assert.Equal(t, types.MustQuantity("1.5"), demand[rice.ID])
}

// --- Availability ---

func TestItemAvailability_PerServing(t *testing.T) {
	f := newFixture(costing.Policy{})
	rice := f.addIngredient("Rice", units.Kilogram, "50.00", "10")

	idli := prepareditem.New("Idli", units.Piece, types.MustQuantity("1"))
	f.addItem(idli, recipeLine(rice.ID, "100", units.Gram))

	avail, err := f.svc.ItemAvailability(context.Background(), idli.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(100), avail.Available)
	require.NotNil(t, avail.BottleneckIngredientID)
	assert.Equal(t, rice.ID, *avail.BottleneckIngredientID)
}

func TestItemAvailability_BatchMode(t *testing.T) {
	f := newFixture(costing.Policy{})
	tomato := f.addIngredient("Tomato", units.Kilogram, "40.00", "5")

	// 5 ltr batch output, 100 ml servings: 50 servings per batch.
	sambar := prepareditem.New("Sambar", units.Litre, types.MustQuantity("0.1"))
	sambar.Mode = prepareditem.ModeBatch
	sambar.BatchOutputQty = types.MustQuantity("5")
	f.addItem(sambar, recipeLine(tomato.ID, "2", units.Kilogram))

	avail, err := f.svc.ItemAvailability(context.Background(), sambar.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), avail.Batches)
	assert.Equal(t, int64(100), avail.Available)
	require.NotNil(t, avail.BottleneckIngredientID)
	assert.Equal(t, tomato.ID, *avail.BottleneckIngredientID)
	assert.Equal(t, int64(2), avail.PerIngredient[tomato.ID], "batch mode reports batches per ingredient")
}

func TestItemAvailability_BottleneckDeterministic(t *testing.T) {
	f := newFixture(costing.Policy{})
	rice := f.addIngredient("Rice", units.Kilogram, "50.00", "1")
	dal := f.addIngredient("Dal", units.Kilogram, "90.00", "1")

	// Both lines limit to 10 servings; the first recipe line wins the tie.
	dosa := prepareditem.New("Dosa", units.Piece, types.MustQuantity("1"))
	f.addItem(dosa,
		recipeLine(rice.ID, "100", units.Gram),
		recipeLine(dal.ID, "100", units.Gram),
	)

	avail, err := f.svc.ItemAvailability(context.Background(), dosa.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(10), avail.Available)
	require.NotNil(t, avail.BottleneckIngredientID)
	assert.Equal(t, rice.ID, *avail.BottleneckIngredientID)
}

func TestItemAvailability_ZeroStock(t *testing.T) {
	f := newFixture(costing.Policy{})
	rice := f.addIngredient("Rice", units.Kilogram, "50.00", "0")

	idli := prepareditem.New("Idli", units.Piece, types.MustQuantity("1"))
	f.addItem(idli, recipeLine(rice.ID, "100", units.Gram))

	avail, err := f.svc.ItemAvailability(context.Background(), idli.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), avail.Available)
}

func TestProductAvailability(t *testing.T) {
	f := newFixture(costing.Policy{})
	rice := f.addIngredient("Rice", units.Kilogram, "50.00", "1")

	// 10 idlis possible; combo needs 3 per unit -> 3 combos.
	idli := prepareditem.New("Idli", units.Piece, types.MustQuantity("1"))
	f.addItem(idli, recipeLine(rice.ID, "100", units.Gram))

	combo := product.New("Idli Combo", types.MustMoney("120.00"))
	f.products.products[combo.ID] = combo
	f.products.compositions[combo.ID] = []product.CompositionLine{
		{ID: id.New(), ProductID: combo.ID, PreparedItemID: idli.ID, Multiplier: 3, LineNo: 1},
	}

	avail, err := f.svc.ProductAvailability(context.Background(), combo.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), avail.Available)
	require.NotNil(t, avail.BottleneckPreparedItemID)
	assert.Equal(t, idli.ID, *avail.BottleneckPreparedItemID)
}

func TestProductAvailability_ZeroMultiplierRejected(t *testing.T) {
	f := newFixture(costing.Policy{})
	rice := f.addIngredient("Rice", units.Kilogram, "50.00", "1")

	idli := prepareditem.New("Idli", units.Piece, types.MustQuantity("1"))
	f.addItem(idli, recipeLine(rice.ID, "100", units.Gram))

	combo := product.New("Broken Combo", types.MustMoney("120.00"))
	f.products.products[combo.ID] = combo
	f.products.compositions[combo.ID] = []product.CompositionLine{
		{ID: id.New(), ProductID: combo.ID, PreparedItemID: idli.ID, Multiplier: 0, LineNo: 1},
	}

	// A zero multiplier slipping past write-time validation must surface
	// as a validation error, not a divide-by-zero panic.
	_, err := f.svc.ProductAvailability(context.Background(), combo.ID)
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeValidation))
}

// --- Cascade ---

func TestRecomputePreparedItemCost(t *testing.T) {
	f := newFixture(costing.Policy{StrictCostIntegrity: true})
	rice := f.addIngredient("Rice", units.Kilogram, "50.00", "10")

	idli := prepareditem.New("Idli", units.Piece, types.MustQuantity("1"))
	f.addItem(idli, recipeLine(rice.ID, "100", units.Gram))

	require.NoError(t, f.svc.RecomputePreparedItemCost(context.Background(), idli.ID))
	assert.Equal(t, "5", idli.CachedCost.String())
	assert.False(t, idli.CostBlocked)
}

func TestRecomputePreparedItemCost_BlockedPropagates(t *testing.T) {
	f := newFixture(costing.Policy{StrictCostIntegrity: true})
	rice := f.addIngredient("Rice", units.Kilogram, "50.00", "0")

	idli := prepareditem.New("Idli", units.Piece, types.MustQuantity("1"))
	f.addItem(idli, recipeLine(rice.ID, "100", units.Gram))

	combo := product.New("Idli Combo", types.MustMoney("120.00"))
	f.products.products[combo.ID] = combo
	f.products.compositions[combo.ID] = []product.CompositionLine{
		{ID: id.New(), ProductID: combo.ID, PreparedItemID: idli.ID, Multiplier: 3, LineNo: 1},
	}

	require.NoError(t, f.svc.CascadeIngredientChange(context.Background(), rice.ID))

	assert.True(t, idli.CostBlocked)
	assert.True(t, combo.CostBlocked, "blocked item blocks every containing product")
}

func TestCascadeIngredientChange(t *testing.T) {
	f := newFixture(costing.Policy{StrictCostIntegrity: true})
	rice := f.addIngredient("Rice", units.Kilogram, "50.00", "10")

	idli := prepareditem.New("Idli", units.Piece, types.MustQuantity("1"))
	f.addItem(idli, recipeLine(rice.ID, "100", units.Gram))

	combo := product.New("Idli Combo", types.MustMoney("120.00"))
	f.products.products[combo.ID] = combo
	f.products.compositions[combo.ID] = []product.CompositionLine{
		{ID: id.New(), ProductID: combo.ID, PreparedItemID: idli.ID, Multiplier: 3, LineNo: 1},
	}

	require.NoError(t, f.svc.CascadeIngredientChange(context.Background(), rice.ID))
	assert.Equal(t, "5", idli.CachedCost.String())
	assert.Equal(t, "15", combo.CachedCost.String())

	// Price change flows through the whole chain.
	rice.UnitCost = types.MustMoney("60.00")
	require.NoError(t, f.svc.CascadeIngredientChange(context.Background(), rice.ID))
	assert.Equal(t, "6", idli.CachedCost.String())
	assert.Equal(t, "18", combo.CachedCost.String())

	// Profit reflects the recomputed cost.
	assert.Equal(t, "102", combo.Profit().String())
}

func TestSortedIngredientIDs_Deterministic(t *testing.T) {
	demand := map[id.ID]types.Quantity{
		id.New(): types.MustQuantity("1"),
		id.New(): types.MustQuantity("2"),
		id.New(): types.MustQuantity("3"),
	}

	first := SortedIngredientIDs(demand)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, SortedIngredientIDs(demand))
	}
	require.Len(t, first, 3)
	for i := 1; i < len(first); i++ {
		assert.True(t, first[i-1].String() < first[i].String())
	}
}
