package units

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rasoi/internal/core/apperror"
	"rasoi/internal/core/types"
)

func TestParse(t *testing.T) {
	tests := []struct {
		in   string
		want Unit
	}{
		{"g", Gram},
		{"gram", Gram},
		{"Grams", Gram},
		{"GM", Gram},
		{"kg", Kilogram},
		{"Kilograms", Kilogram},
		{"ml", Millilitre},
		{"l", Litre},
		{"ltr", Litre},
		{"Litre", Litre},
		{"liters", Litre},
		{"pc", Piece},
		{"pcs", Piece},
		{"Pieces", Piece},
		{" kg ", Kilogram},
	}

	for _, tt := range tests {
		got, err := Parse(tt.in)
		require.NoError(t, err, "parse %q", tt.in)
		assert.Equal(t, tt.want, got, "parse %q", tt.in)
	}
}

func TestParse_Unknown(t *testing.T) {
	_, err := Parse("bushel")
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeValidation))
}

func TestDimensionOf(t *testing.T) {
	assert.Equal(t, Mass, DimensionOf(Gram))
	assert.Equal(t, Mass, DimensionOf(Kilogram))
	assert.Equal(t, Volume, DimensionOf(Millilitre))
	assert.Equal(t, Volume, DimensionOf(Litre))
	assert.Equal(t, Count, DimensionOf(Piece))
}

func TestToBase_SameUnit(t *testing.T) {
	q := types.MustQuantity("2.5000")

	got, err := ToBase(q, Kilogram, Kilogram)
	require.NoError(t, err)
	assert.Equal(t, q, got)

	got, err = ToBase(q, Piece, Piece)
	require.NoError(t, err)
	assert.Equal(t, q, got)
}

func TestToBase_SubunitConversion(t *testing.T) {
	// 250 gm = 0.25 kg
	got, err := ToBase(types.MustQuantity("250"), Gram, Kilogram)
	require.NoError(t, err)
	assert.Equal(t, types.MustQuantity("0.25"), got)

	// 1500 ml = 1.5 ltr
	got, err = ToBase(types.MustQuantity("1500"), Millilitre, Litre)
	require.NoError(t, err)
	assert.Equal(t, types.MustQuantity("1.5"), got)

	// 1 gm = 0.001 kg, exact at fixed-point scale
	got, err = ToBase(types.MustQuantity("1"), Gram, Kilogram)
	require.NoError(t, err)
	assert.Equal(t, types.MustQuantity("0.001"), got)
}

func TestToBase_SubResolutionRejected(t *testing.T) {
	// 0.05 gm has no kg representation at the fixed-point scale. It must
	// fail loudly; truncating it to zero would let the quantity be
	// consumed without ever touching the ledger.
	_, err := ToBase(types.MustQuantity("0.05"), Gram, Kilogram)
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeValidation))

	_, err = ToBase(types.MustQuantity("1.5005"), Millilitre, Litre)
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeValidation))

	// The same quantity in the base unit itself is fine.
	got, err := ToBase(types.MustQuantity("0.05"), Kilogram, Kilogram)
	require.NoError(t, err)
	assert.Equal(t, types.MustQuantity("0.05"), got)
}

func TestToBase_DimensionMismatch(t *testing.T) {
	cases := []struct {
		from, base Unit
	}{
		{Gram, Litre},
		{Millilitre, Kilogram},
		{Piece, Kilogram},
		{Kilogram, Piece},
		{Litre, Kilogram},
	}

	for _, tt := range cases {
		_, err := ToBase(types.MustQuantity("1"), tt.from, tt.base)
		require.Error(t, err, "%s -> %s", tt.from, tt.base)
		assert.True(t, apperror.IsCode(err, apperror.CodeUnitMismatch))
	}
}

func TestToBase_NonBaseTarget(t *testing.T) {
	// Conversion into a small unit is never needed and is rejected.
	_, err := ToBase(types.MustQuantity("1"), Kilogram, Gram)
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeUnitMismatch))
}

func TestConvertible(t *testing.T) {
	assert.True(t, Convertible(Gram, Kilogram))
	assert.True(t, Convertible(Millilitre, Litre))
	assert.True(t, Convertible(Piece, Piece))
	assert.False(t, Convertible(Gram, Litre))
	assert.False(t, Convertible(Kilogram, Gram))
}
