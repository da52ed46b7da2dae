// Package units provides measurement units and base-unit conversion for
// ingredient quantities. The unit set is closed: recipes and ledger rows
// only ever deal in grams/kilograms, millilitres/litres and pieces.
package units

import (
	"strings"

	"rasoi/internal/core/apperror"
	"rasoi/internal/core/types"
)

// Dimension groups units that convert between each other.
type Dimension string

const (
	Mass   Dimension = "mass"
	Volume Dimension = "volume"
	Count  Dimension = "count"
)

// Unit is a measurement unit for ingredient quantities.
type Unit string

const (
	Gram       Unit = "gm"
	Kilogram   Unit = "kg"
	Millilitre Unit = "ml"
	Litre      Unit = "ltr"
	Piece      Unit = "pcs"
)

// BaseUnits are the units ingredients are stocked and costed in.
// Recipes may use the small units (gm, ml); the ledger never does.
var BaseUnits = []Unit{Kilogram, Litre, Piece}

// synonyms maps spelling variants to canonical units. Lookup is
// case-insensitive.
var synonyms = map[string]Unit{
	"g":           Gram,
	"gm":          Gram,
	"gram":        Gram,
	"grams":       Gram,
	"kg":          Kilogram,
	"kgs":         Kilogram,
	"kilogram":    Kilogram,
	"kilograms":   Kilogram,
	"ml":          Millilitre,
	"millilitre":  Millilitre,
	"millilitres": Millilitre,
	"milliliter":  Millilitre,
	"milliliters": Millilitre,
	"l":           Litre,
	"ltr":         Litre,
	"litre":       Litre,
	"litres":      Litre,
	"liter":       Litre,
	"liters":      Litre,
	"pc":          Piece,
	"pcs":         Piece,
	"piece":       Piece,
	"pieces":      Piece,
	"unit":        Piece,
	"units":       Piece,
}

// Parse normalizes a unit string to its canonical Unit.
func Parse(s string) (Unit, error) {
	u, ok := synonyms[strings.ToLower(strings.TrimSpace(s))]
	if !ok {
		return "", apperror.NewValidation("unknown unit").
			WithDetail("unit", s)
	}
	return u, nil
}

// MustParse parses a unit string, panics on error. For tests and constants.
func MustParse(s string) Unit {
	u, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return u
}

// DimensionOf returns the dimension a unit belongs to.
func DimensionOf(u Unit) Dimension {
	switch u {
	case Gram, Kilogram:
		return Mass
	case Millilitre, Litre:
		return Volume
	default:
		return Count
	}
}

// IsBase reports whether u is a stocking base unit (kg, ltr, pcs).
func IsBase(u Unit) bool {
	switch u {
	case Kilogram, Litre, Piece:
		return true
	}
	return false
}

// subunitScale is the factor between a small unit and its base unit.
const subunitScale int64 = 1000

// ToBase converts a quantity expressed in `from` into the ingredient's
// base unit. Conversion only exists within a dimension: gm→kg and ml→ltr
// divide by 1000, same-unit passes through, anything else is a
// UNIT_MISMATCH. The division must be exact: a quantity finer than
// 0.001 of a small unit has no base-unit representation and is rejected
// rather than truncated, so ledger demand never drifts below what the
// recipe says.
func ToBase(qty types.Quantity, from, base Unit) (types.Quantity, error) {
	if !IsBase(base) {
		return 0, apperror.NewUnitMismatch(string(from), string(base))
	}
	if from == base {
		return qty, nil
	}

	switch {
	case from == Gram && base == Kilogram, from == Millilitre && base == Litre:
		scaled := qty.Int64Scaled()
		if scaled%subunitScale != 0 {
			return 0, apperror.NewValidation("quantity is finer than the conversion resolution").
				WithDetail("quantity", qty.String()).
				WithDetail("unit", string(from))
		}
		return types.Quantity(scaled / subunitScale), nil
	}

	return 0, apperror.NewUnitMismatch(string(from), string(base))
}

// Convertible reports whether a quantity in `from` can be expressed in `base`.
func Convertible(from, base Unit) bool {
	_, err := ToBase(0, from, base)
	return err == nil
}
