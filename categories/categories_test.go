package categories

import (
	"testing"

	"kirana/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildTree(t *testing.T) {
	flat := []models.Category{
		{CategoryID: "men", Name: "Men"},
		{CategoryID: "women", Name: "Women"},
		{CategoryID: "men-shirts", Name: "Shirts", ParentID: "men"},
		{CategoryID: "men-shoes", Name: "Shoes", ParentID: "men"},
		{CategoryID: "men-shirts-tee", Name: "T-Shirts", ParentID: "men-shirts"},
		{CategoryID: "orphan", Name: "Orphan", ParentID: "gone"},
	}

	tree := BuildTree(flat, "")
	require.Len(t, tree, 2)

	men := tree[0]
	assert.Equal(t, "men", men.CategoryID)
	require.Len(t, men.Children, 2)
	assert.Equal(t, "men-shirts", men.Children[0].CategoryID)

	require.Len(t, men.Children[0].Children, 1)
	assert.Equal(t, "men-shirts-tee", men.Children[0].Children[0].CategoryID)

	assert.Empty(t, tree[1].Children)
}

func TestBuildTreeEmpty(t *testing.T) {
	assert.Empty(t, BuildTree(nil, ""))
	assert.Empty(t, BuildTree([]models.Category{{CategoryID: "a", ParentID: "b"}}, ""))
}
