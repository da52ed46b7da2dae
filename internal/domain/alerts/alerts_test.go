package alerts

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

type fakeIngredientRepo struct {
	ingredient.Repository
	active []*ingredient.Ingredient
}

func (f *fakeIngredientRepo) ListActive(ctx context.Context) ([]*ingredient.Ingredient, error) {
	return f.active, nil
}

type fakeLedgerRepo struct {
	ledger.Repository
	stock map[id.ID]types.Quantity
}

func (f *fakeLedgerRepo) SumStockMany(ctx context.Context, ids []id.ID) (map[id.ID]types.Quantity, error) {
	out := make(map[id.ID]types.Quantity, len(ids))
	for _, ingID := range ids {
		out[ingID] = f.stock[ingID]
	}
	return out, nil
}

func addIngredient(ingredients *fakeIngredientRepo, ledgerRepo *fakeLedgerRepo, name string, base units.Unit, stock string) *ingredient.Ingredient {
	ing := ingredient.New(name, base)
	ingredients.active = append(ingredients.active, ing)
	ledgerRepo.stock[ing.ID] = types.MustQuantity(stock)
	return ing
}

func TestScan_DefaultRules(t *testing.T) {
	ingredients := &fakeIngredientRepo{}
	ledgerRepo := &fakeLedgerRepo{stock: map[id.ID]types.Quantity{}}

	// kg limit defaults to 1, pcs to 10.
	rice := addIngredient(ingredients, ledgerRepo, "Rice", units.Kilogram, "0.5")
	addIngredient(ingredients, ledgerRepo, "Oil", units.Litre, "8")
	eggs := addIngredient(ingredients, ledgerRepo, "Eggs", units.Piece, "0")

	svc, err := NewService(ingredients, ledgerRepo, DefaultRules())
	require.NoError(t, err)

	alerts, err := svc.Scan(context.Background())
	require.NoError(t, err)
	require.Len(t, alerts, 2)

	byID := map[id.ID]Alert{}
	for _, a := range alerts {
		byID[a.IngredientID] = a
	}

	assert.Equal(t, "low_stock", byID[rice.ID].Rule)
	assert.Equal(t, SeverityWarning, byID[rice.ID].Severity)

	// Zero stock matches out_of_stock first even though it is also
	// at or below the limit.
	assert.Equal(t, "out_of_stock", byID[eggs.ID].Rule)
	assert.Equal(t, SeverityCritical, byID[eggs.ID].Severity)
}

func TestScan_CustomRule(t *testing.T) {
	ingredients := &fakeIngredientRepo{}
	ledgerRepo := &fakeLedgerRepo{stock: map[id.ID]types.Quantity{}}

	paneer := addIngredient(ingredients, ledgerRepo, "Paneer", units.Kilogram, "3")
	addIngredient(ingredients, ledgerRepo, "Rice", units.Kilogram, "3")

	rules := []Rule{{
		Name:       "paneer_buffer",
		Expression: `name == "Paneer" && stock < 5.0`,
		Severity:   SeverityWarning,
	}}
	svc, err := NewService(ingredients, ledgerRepo, rules)
	require.NoError(t, err)

	alerts, err := svc.Scan(context.Background())
	require.NoError(t, err)
	require.Len(t, alerts, 1)
	assert.Equal(t, paneer.ID, alerts[0].IngredientID)
}

func TestNewService_RejectsBrokenExpression(t *testing.T) {
	_, err := NewService(&fakeIngredientRepo{}, &fakeLedgerRepo{}, []Rule{{
		Name:       "broken",
		Expression: "stock <",
	}})
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeValidation))
}

func TestNewService_RejectsNonBoolExpression(t *testing.T) {
	_, err := NewService(&fakeIngredientRepo{}, &fakeLedgerRepo{}, []Rule{{
		Name:       "non_bool",
		Expression: "stock + limit",
	}})
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeValidation))
}

func TestEvaluator_CachesPrograms(t *testing.T) {
	ev, err := NewEvaluator()
	require.NoError(t, err)

	rule := Rule{Name: "low", Expression: "stock <= limit"}
	require.NoError(t, ev.Compile(rule))

	matched, err := ev.Matches(rule, map[string]any{
		"name": "Rice", "unit": "kg", "stock": 0.5, "limit": 1.0,
	})
	require.NoError(t, err)
	assert.True(t, matched)

	ev.mu.RLock()
	assert.Len(t, ev.programs, 1)
	ev.mu.RUnlock()
}
