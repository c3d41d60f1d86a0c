package taxonomy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault_EverySubcategoryHasCategory(t *testing.T) {
	tx := Default()

	for _, sub := range tx.Subcategories() {
		category, ok := tx.CategoryOf(sub)
		require.True(t, ok, "подкатегория %q должна иметь категорию", sub)
		assert.True(t, tx.IsCategory(category))
	}
	assert.Equal(t, "Science", mustCategory(t, tx, "Physics"))
	assert.Equal(t, "Religion", mustCategory(t, tx, "Religion"))
}

func TestNew_RejectsSubcategoryInTwoCategories(t *testing.T) {
	_, err := New([]Group{
		{Category: "A", Subcategories: []string{"X"}},
		{Category: "B", Subcategories: []string{"X"}},
	}, DifficultyRange{Min: 1, Max: 5})

	assert.Error(t, err)
}

func TestNew_RejectsBadDifficultyRange(t *testing.T) {
	_, err := New([]Group{{Category: "A"}}, DifficultyRange{Min: 3, Max: 2})
	assert.Error(t, err)
}

func TestParse_YAML(t *testing.T) {
	data := []byte(`
difficulties: {min: 1, max: 5}
categories:
  - name: Science
    subcategories: [Biology, Chemistry]
  - name: Trash
    subcategories: [Trash]
`)
	tx, err := Parse(data)
	require.NoError(t, err)

	assert.Equal(t, []string{"Science", "Trash"}, tx.Categories())
	assert.Equal(t, []int{1, 2, 3, 4, 5}, tx.Difficulties())
	assert.True(t, tx.IsSubcategory("Chemistry"))
	assert.False(t, tx.IsSubcategory("Physics"))
}

func TestParse_UnknownFieldFails(t *testing.T) {
	_, err := Parse([]byte("bogus: 1\n"))
	assert.Error(t, err)
}

func TestCategories_ReturnsCopy(t *testing.T) {
	tx := Default()
	cats := tx.Categories()
	cats[0] = "mutated"

	assert.NotEqual(t, "mutated", tx.Categories()[0], "внутреннее состояние не должно меняться")
}

func mustCategory(t *testing.T, tx *Taxonomy, sub string) string {
	t.Helper()
	c, ok := tx.CategoryOf(sub)
	require.True(t, ok)
	return c
}
