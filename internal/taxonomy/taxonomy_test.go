package taxonomy

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dan9191/finflow/internal/models"
)

func TestDefault(t *testing.T) {
	r := Default()

	assert.NoError(t, r.Validate(models.KindExpense, "Housing", "Rent"))
	assert.NoError(t, r.Validate(models.KindExpense, "Leisure", ""))
	assert.NoError(t, r.Validate(models.KindIncome, "Salary", ""))

	assert.ErrorIs(t, r.Validate(models.KindIncome, "Housing", ""), ErrUnknownCategory)
	assert.ErrorIs(t, r.Validate(models.KindExpense, "Housing", "Spaceship"), ErrUnknownCategory)
	assert.Contains(t, r.Categories(models.KindExpense), "Financial")
	assert.Contains(t, r.Subcategories(models.KindExpense, "Financial"), "Card payment")
}

func TestNewRejectsInvalid(t *testing.T) {
	tests := []struct {
		name  string
		kinds map[models.Kind]map[string][]string
	}{
		{"unknown_kind", map[models.Kind]map[string][]string{
			"transfer":         {"A": nil},
			models.KindIncome:  {"B": nil},
			models.KindExpense: {"C": nil},
		}},
		{"missing_kind", map[models.Kind]map[string][]string{models.KindIncome: {"B": nil}}},
		{"empty_kind", map[models.Kind]map[string][]string{models.KindIncome: {}, models.KindExpense: {"C": nil}}},
		{"blank_category", map[models.Kind]map[string][]string{models.KindIncome: {" ": nil}, models.KindExpense: {"C": nil}}},
		{"duplicate_sub", map[models.Kind]map[string][]string{models.KindIncome: {"B": {"x", "x"}}, models.KindExpense: {"C": nil}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := New(tt.kinds)
			assert.Error(t, err)
			assert.Nil(t, r)
		})
	}
}

func TestLoad(t *testing.T) {
	t.Run("empty_path_is_default", func(t *testing.T) {
		r, err := Load("")
		require.NoError(t, err)
		assert.Equal(t, Default().Categories(models.KindIncome), r.Categories(models.KindIncome))
	})

	t.Run("toml_file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "taxonomy.toml")
		content := `
[income]
Salary = ["Net"]

[expense]
Housing = ["Rent", "Power"]
Fun = []
`
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

		r, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, []string{"Fun", "Housing"}, r.Categories(models.KindExpense))
		assert.NoError(t, r.Validate(models.KindExpense, "Housing", "Power"))
		assert.Error(t, r.Validate(models.KindExpense, "Leisure", ""))
	})

	t.Run("invalid_file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "taxonomy.toml")
		require.NoError(t, os.WriteFile(path, []byte("[income]\nSalary = [\"Net\"]\n"), 0o600))
		_, err := Load(path)
		assert.Error(t, err)
	})

	t.Run("missing_file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
		assert.Error(t, err)
	})
}
