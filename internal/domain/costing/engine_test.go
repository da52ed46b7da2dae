package costing

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rasoi/internal/core/apperror"
	"rasoi/internal/core/id"
	"rasoi/internal/core/types"
	"rasoi/internal/domain/catalogs/ingredient"
	"rasoi/internal/domain/registers/ledger"
	"rasoi/internal/domain/units"
)

// fakeIngredientRepo serves GetByID from a map; the embedded interface
// panics on anything else the engine should not call.
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

func newIngredient(name string, base units.Unit, unitCost string, fallback *string) *ingredient.Ingredient {
	ing := ingredient.New(name, base)
	ing.UnitCost = types.MustMoney(unitCost)
	if fallback != nil {
		m := types.MustMoney(*fallback)
		ing.FallbackUnitCost = &m
	}
	return ing
}

func strPtr(s string) *string { return &s }

func TestCostFor_PositiveStock(t *testing.T) {
	paneer := newIngredient("Paneer", units.Kilogram, "320.00", nil)
	engine := NewEngine(
		&fakeIngredientRepo{items: map[id.ID]*ingredient.Ingredient{paneer.ID: paneer}},
		&fakeLedgerRepo{stock: map[id.ID]types.Quantity{paneer.ID: types.MustQuantity("5")}},
		Policy{StrictCostIntegrity: true},
	)

	// 250 gm at 320.00/kg = 80.00
	cost, err := engine.CostFor(context.Background(), paneer.ID, types.MustQuantity("250"), units.Gram)
	require.NoError(t, err)
	assert.Equal(t, "80", cost.String())

	// 1.5 kg at 320.00/kg = 480.00
	cost, err = engine.CostFor(context.Background(), paneer.ID, types.MustQuantity("1.5"), units.Kilogram)
	require.NoError(t, err)
	assert.Equal(t, "480", cost.String())
}

func TestCostFor_RoundsHalfUp(t *testing.T) {
	saffron := newIngredient("Saffron", units.Kilogram, "333.33", nil)
	engine := NewEngine(
		&fakeIngredientRepo{items: map[id.ID]*ingredient.Ingredient{saffron.ID: saffron}},
		&fakeLedgerRepo{stock: map[id.ID]types.Quantity{saffron.ID: types.MustQuantity("1")}},
		Policy{},
	)

	// 0.0025 kg * 333.33 = 0.833325 -> 0.83
	cost, err := engine.CostFor(context.Background(), saffron.ID, types.MustQuantity("2.5"), units.Gram)
	require.NoError(t, err)
	assert.Equal(t, "0.83", cost.String())

	// 0.0015 kg * 333.33 = 0.499995 -> 0.50
	cost, err = engine.CostFor(context.Background(), saffron.ID, types.MustQuantity("1.5"), units.Gram)
	require.NoError(t, err)
	assert.Equal(t, "0.5", cost.String())
}

func TestCostFor_ZeroStockStrictBlocks(t *testing.T) {
	milk := newIngredient("Milk", units.Litre, "60.00", strPtr("55.00"))
	engine := NewEngine(
		&fakeIngredientRepo{items: map[id.ID]*ingredient.Ingredient{milk.ID: milk}},
		&fakeLedgerRepo{stock: map[id.ID]types.Quantity{}},
		Policy{StrictCostIntegrity: true, AllowFallbackPricing: true},
	)

	// Strict wins even with a fallback configured and fallback allowed.
	_, err := engine.CostFor(context.Background(), milk.ID, types.MustQuantity("1"), units.Litre)
	require.Error(t, err)
	assert.True(t, apperror.IsCostBlocked(err))
}

func TestCostFor_ZeroStockFallback(t *testing.T) {
	milk := newIngredient("Milk", units.Litre, "60.00", strPtr("55.00"))
	engine := NewEngine(
		&fakeIngredientRepo{items: map[id.ID]*ingredient.Ingredient{milk.ID: milk}},
		&fakeLedgerRepo{stock: map[id.ID]types.Quantity{}},
		Policy{StrictCostIntegrity: false, AllowFallbackPricing: true},
	)

	cost, err := engine.CostFor(context.Background(), milk.ID, types.MustQuantity("2"), units.Litre)
	require.NoError(t, err)
	assert.Equal(t, "110", cost.String())
}

func TestCostFor_ZeroStockNoFallbackConfigured(t *testing.T) {
	milk := newIngredient("Milk", units.Litre, "60.00", nil)
	engine := NewEngine(
		&fakeIngredientRepo{items: map[id.ID]*ingredient.Ingredient{milk.ID: milk}},
		&fakeLedgerRepo{stock: map[id.ID]types.Quantity{}},
		Policy{StrictCostIntegrity: false, AllowFallbackPricing: true},
	)

	_, err := engine.CostFor(context.Background(), milk.ID, types.MustQuantity("1"), units.Litre)
	require.Error(t, err)
	assert.True(t, apperror.IsCostBlocked(err))
}

func TestCostFor_ZeroStockFallbackNotAllowed(t *testing.T) {
	milk := newIngredient("Milk", units.Litre, "60.00", strPtr("55.00"))
	engine := NewEngine(
		&fakeIngredientRepo{items: map[id.ID]*ingredient.Ingredient{milk.ID: milk}},
		&fakeLedgerRepo{stock: map[id.ID]types.Quantity{}},
		Policy{StrictCostIntegrity: false, AllowFallbackPricing: false},
	)

	_, err := engine.CostFor(context.Background(), milk.ID, types.MustQuantity("1"), units.Litre)
	require.Error(t, err)
	assert.True(t, apperror.IsCostBlocked(err))
}

func TestCostFor_UnitMismatch(t *testing.T) {
	eggs := newIngredient("Eggs", units.Piece, "7.00", nil)
	engine := NewEngine(
		&fakeIngredientRepo{items: map[id.ID]*ingredient.Ingredient{eggs.ID: eggs}},
		&fakeLedgerRepo{stock: map[id.ID]types.Quantity{eggs.ID: types.MustQuantity("30")}},
		Policy{},
	)

	_, err := engine.CostFor(context.Background(), eggs.ID, types.MustQuantity("500"), units.Gram)
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeUnitMismatch))
}

func TestCostFor_NegativeStockTreatedAsZero(t *testing.T) {
	milk := newIngredient("Milk", units.Litre, "60.00", nil)
	engine := NewEngine(
		&fakeIngredientRepo{items: map[id.ID]*ingredient.Ingredient{milk.ID: milk}},
		&fakeLedgerRepo{stock: map[id.ID]types.Quantity{milk.ID: types.MustQuantity("-1")}},
		Policy{StrictCostIntegrity: true},
	)

	_, err := engine.CostFor(context.Background(), milk.ID, types.MustQuantity("1"), units.Litre)
	require.Error(t, err)
	assert.True(t, apperror.IsCostBlocked(err))
}

func TestCostFor_UnknownIngredient(t *testing.T) {
	engine := NewEngine(
		&fakeIngredientRepo{items: map[id.ID]*ingredient.Ingredient{}},
		&fakeLedgerRepo{stock: map[id.ID]types.Quantity{}},
		Policy{},
	)

	_, err := engine.CostFor(context.Background(), id.New(), types.MustQuantity("1"), units.Kilogram)
	require.Error(t, err)
	assert.True(t, apperror.IsNotFound(err))
}
