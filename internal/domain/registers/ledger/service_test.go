package ledger

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rasoi/internal/core/apperror"
	"rasoi/internal/core/id"
	"rasoi/internal/core/types"
	"rasoi/internal/domain/catalogs/ingredient"
	"rasoi/internal/domain/units"
)

type fakeRepo struct {
	Repository
	entries []*LedgerEntry
}

func (f *fakeRepo) Append(ctx context.Context, entry *LedgerEntry) error {
	entry.Seq = int64(len(f.entries) + 1)
	f.entries = append(f.entries, entry)
	return nil
}

func (f *fakeRepo) AppendAll(ctx context.Context, entries []*LedgerEntry) error {
	for _, entry := range entries {
		if err := f.Append(ctx, entry); err != nil {
			return err
		}
	}
	return nil
}

func (f *fakeRepo) SumStock(ctx context.Context, ingredientID id.ID) (types.Quantity, error) {
	var sum types.Quantity
	for _, entry := range f.entries {
		if entry.IngredientID == ingredientID {
			sum += entry.Quantity
		}
	}
	return sum, nil
}

func (f *fakeRepo) History(ctx context.Context, ingredientID id.ID, filter HistoryFilter) ([]LedgerEntry, error) {
	var out []LedgerEntry
	for i := len(f.entries) - 1; i >= 0; i-- {
		entry := f.entries[i]
		if entry.IngredientID != ingredientID {
			continue
		}
		if filter.Kind != nil && entry.Kind != *filter.Kind {
			continue
		}
		out = append(out, *entry)
		if len(out) >= filter.Limit {
			break
		}
	}
	return out, nil
}

type fakeIngredientRepo struct {
	ingredient.Repository
	items map[id.ID]*ingredient.Ingredient
}

func (f *fakeIngredientRepo) Exists(ctx context.Context, ingID id.ID) (bool, error) {
	_, ok := f.items[ingID]
	return ok, nil
}

func (f *fakeIngredientRepo) GetByID(ctx context.Context, ingID id.ID) (*ingredient.Ingredient, error) {
	item, ok := f.items[ingID]
	if !ok {
		return nil, apperror.NewNotFound("ingredient", ingID.String())
	}
	return item, nil
}

type passTxManager struct{}

func (passTxManager) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func newService(t *testing.T) (*Service, *fakeRepo, *ingredient.Ingredient) {
	t.Helper()
	repo := &fakeRepo{}
	rice := ingredient.New("Rice", units.Kilogram)
	rice.UnitCost = types.MustMoney("50.00")
	ingredients := &fakeIngredientRepo{items: map[id.ID]*ingredient.Ingredient{rice.ID: rice}}
	return NewService(repo, ingredients, passTxManager{}), repo, rice
}

func TestAppend_SumIsAuthoritative(t *testing.T) {
	svc, _, rice := newService(t)
	ctx := context.Background()

	require.NoError(t, svc.Append(ctx, NewEntry(rice.ID, types.MustQuantity("10"), KindOpening)))
	require.NoError(t, svc.Append(ctx, NewEntry(rice.ID, types.MustQuantity("5"), KindPurchase)))
	require.NoError(t, svc.Append(ctx, NewEntry(rice.ID, types.MustQuantity("-2.5"), KindConsumption)))

	stock, err := svc.CurrentStock(ctx, rice.ID)
	require.NoError(t, err)
	assert.Equal(t, types.MustQuantity("12.5"), stock)
}

func TestAppend_SignDiscipline(t *testing.T) {
	svc, repo, rice := newService(t)
	ctx := context.Background()

	cases := []struct {
		name string
		kind EntryKind
		qty  string
	}{
		{"negative purchase", KindPurchase, "-1"},
		{"negative opening", KindOpening, "-1"},
		{"positive consumption", KindConsumption, "1"},
		{"positive wastage", KindWastage, "1"},
		{"zero quantity", KindAdjustment, "0"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := svc.Append(ctx, NewEntry(rice.ID, types.MustQuantity(tc.qty), tc.kind))
			require.Error(t, err)
			assert.True(t, apperror.IsCode(err, apperror.CodeValidation))
		})
	}
	assert.Empty(t, repo.entries)

	// Adjustments go either way.
	require.NoError(t, svc.Append(ctx, NewEntry(rice.ID, types.MustQuantity("-1"), KindAdjustment)))
	require.NoError(t, svc.Append(ctx, NewEntry(rice.ID, types.MustQuantity("1"), KindAdjustment)))
}

func TestAppend_UnknownIngredient(t *testing.T) {
	svc, _, _ := newService(t)

	err := svc.Append(context.Background(), NewEntry(id.New(), types.MustQuantity("1"), KindPurchase))
	require.Error(t, err)
	assert.True(t, apperror.IsNotFound(err))
}

func TestAppend_NegativeBalanceAllowedOutsideConsumption(t *testing.T) {
	svc, _, rice := newService(t)
	ctx := context.Background()

	// An adjustment may overdraw; only the consumption transaction
	// guards against going negative.
	require.NoError(t, svc.Append(ctx, NewEntry(rice.ID, types.MustQuantity("-3"), KindAdjustment)))

	stock, err := svc.CurrentStock(ctx, rice.ID)
	require.NoError(t, err)
	assert.Equal(t, types.MustQuantity("-3"), stock)
}

func TestAppendAll_ValidatesEveryEntry(t *testing.T) {
	svc, repo, rice := newService(t)

	err := svc.AppendAll(context.Background(), []*LedgerEntry{
		NewEntry(rice.ID, types.MustQuantity("5"), KindPurchase),
		NewEntry(rice.ID, types.MustQuantity("1"), KindConsumption), // wrong sign
	})
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeValidation))
	assert.Empty(t, repo.entries)
}

func TestTotalValue(t *testing.T) {
	svc, _, rice := newService(t)
	ctx := context.Background()

	require.NoError(t, svc.Append(ctx, NewEntry(rice.ID, types.MustQuantity("2.5"), KindOpening)))

	value, err := svc.TotalValue(ctx, rice.ID)
	require.NoError(t, err)
	assert.Equal(t, "125", value.String())
}

func TestHistory_DefaultLimit(t *testing.T) {
	svc, repo, rice := newService(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, repo.Append(ctx, NewEntry(rice.ID, types.MustQuantity("1"), KindPurchase)))
	}

	entries, err := svc.History(ctx, rice.ID, HistoryFilter{})
	require.NoError(t, err)
	assert.Len(t, entries, 3)

	entries, err = svc.History(ctx, rice.ID, HistoryFilter{Limit: 2})
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestGetTurnover_RejectsInvertedPeriod(t *testing.T) {
	svc, _, rice := newService(t)

	now := time.Now()
	_, err := svc.GetTurnover(context.Background(), TurnoverFilter{
		IngredientID: rice.ID,
		FromDate:     now,
		ToDate:       now.Add(-24 * time.Hour),
	})
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeValidation))
}
