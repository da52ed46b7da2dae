package postgres

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"rasoi/internal/core/entity"
	"rasoi/internal/core/id"
)

type mockCatalog struct {
	entity.Catalog
	BaseUnit string `db:"base_unit" json:"baseUnit"`
	Active   bool   `db:"active" json:"active"`
	Skipped  string `db:"-"`
	NoTag    string
}

func TestExtractDBColumns(t *testing.T) {
	cols := ExtractDBColumns[mockCatalog]()

	expected := []string{"id", "deletion_mark", "version", "code", "name", "base_unit", "active"}
	for _, col := range expected {
		assert.Contains(t, cols, col)
	}
	assert.NotContains(t, cols, "-")
	assert.Len(t, cols, len(expected))
}

func TestStructToMap(t *testing.T) {
	cat := mockCatalog{
		Catalog: entity.Catalog{
			BaseEntity: entity.BaseEntity{
				ID:           id.New(),
				DeletionMark: true,
				Version:      5,
			},
			Code: "ING-2026-00042",
			Name: "Rice",
		},
		BaseUnit: "kg",
		Active:   true,
		Skipped:  "never stored",
		NoTag:    "never stored",
	}

	m := StructToMap(cat)

	assert.Equal(t, cat.ID, m["id"])
	assert.Equal(t, true, m["deletion_mark"])
	assert.Equal(t, 5, m["version"])
	assert.Equal(t, "ING-2026-00042", m["code"])
	assert.Equal(t, "Rice", m["name"])
	assert.Equal(t, "kg", m["base_unit"])
	assert.Equal(t, true, m["active"])
	assert.NotContains(t, m, "-")
	assert.Len(t, m, 7)
}

func TestStructToMap_PointerAndNonStruct(t *testing.T) {
	cat := &mockCatalog{BaseUnit: "pcs"}
	m := StructToMap(cat)
	assert.Equal(t, "pcs", m["base_unit"])

	assert.Nil(t, StructToMap(42))
}
