package permtree

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testCatalog() []Permission {
	return []Permission{
		{ID: 1, Key: "view.x", ResourceType: "x", ActionType: "viewX", Description: "View X"},
		{ID: 2, Key: "modify.x", ResourceType: "x", ActionType: "modifyX", Description: "Modify X"},
		{ID: 3, Key: "add.y", ResourceType: "y", ActionType: "addY"},
		{ID: 4, Key: "view.y", ResourceType: "y", ActionType: "viewY"},
		{ID: 5, Key: "delete.y", ResourceType: "y", ActionType: "deleteY"},
	}
}

func TestBuildTreeScenario(t *testing.T) {
	catalog := []Permission{
		{ID: 1, Key: "view.x", ResourceType: "x", ActionType: "viewX"},
		{ID: 2, Key: "modify.x", ResourceType: "x", ActionType: "modifyX"},
	}
	selected := NewKeySet("view.x")
	inherited := NewKeySet("modify.x")

	tree := BuildTree(catalog, selected, inherited, "admin, sales")
	require.Len(t, tree, 1)

	resource := tree[0]
	assert.Equal(t, LevelResource, resource.Level)
	assert.True(t, resource.Indeterminate)
	assert.False(t, resource.Selected)
	require.Len(t, resource.Children, 2)

	view := resource.Children[0]
	assert.Equal(t, string(CategoryView), view.Name)
	assert.True(t, view.Selected)
	assert.False(t, view.Indeterminate)

	modify := resource.Children[1]
	assert.Equal(t, string(CategoryModify), modify.Name)
	require.Len(t, modify.Children, 1)
	leaf := modify.Children[0]
	assert.True(t, leaf.Inherited)
	assert.Equal(t, "admin, sales", leaf.InheritedFrom)
	assert.False(t, leaf.Selected)
}

func TestBuildTreeFirstOccurrenceOrder(t *testing.T) {
	tree := BuildTree(testCatalog(), NewKeySet(), NewKeySet(), "")
	require.Len(t, tree, 2)
	assert.Equal(t, "x", tree[0].Name)
	assert.Equal(t, "y", tree[1].Name)

	// Categories follow catalog order within each resource, not sort order.
	yCats := tree[1].Children
	require.Len(t, yCats, 3)
	assert.Equal(t, string(CategoryAdd), yCats[0].Name)
	assert.Equal(t, string(CategoryView), yCats[1].Name)
	assert.Equal(t, string(CategoryDelete), yCats[2].Name)
}

func TestBuildTreeThreeLevels(t *testing.T) {
	tree := BuildTree(testCatalog(), NewKeySet(), NewKeySet(), "")
	for _, resource := range tree {
		assert.Equal(t, LevelResource, resource.Level)
		for _, category := range resource.Children {
			assert.Equal(t, LevelCategory, category.Level)
			for _, leaf := range category.Children {
				assert.Equal(t, LevelPermission, leaf.Level)
				assert.Empty(t, leaf.Children)
				assert.NotEmpty(t, leaf.PermissionKey)
			}
		}
	}
}

func TestTriStateRollup(t *testing.T) {
	catalog := testCatalog()

	// None selected.
	tree := BuildTree(catalog, NewKeySet(), NewKeySet(), "")
	assert.False(t, tree[1].Selected)
	assert.False(t, tree[1].Indeterminate)

	// Some selected.
	tree = BuildTree(catalog, NewKeySet("add.y"), NewKeySet(), "")
	assert.False(t, tree[1].Selected)
	assert.True(t, tree[1].Indeterminate)

	// All selected.
	tree = BuildTree(catalog, NewKeySet("add.y", "view.y", "delete.y"), NewKeySet(), "")
	assert.True(t, tree[1].Selected)
	assert.False(t, tree[1].Indeterminate)
}

func TestInheritedShadowedByDirectSelection(t *testing.T) {
	catalog := testCatalog()
	// Key in both sets: direct selection wins, leaf is not flagged inherited.
	tree := BuildTree(catalog, NewKeySet("view.x"), NewKeySet("view.x"), "admin")
	leaf := FindNode(tree, []string{"x", "x/" + string(CategoryView), "view.x"})
	require.NotNil(t, leaf)
	assert.True(t, leaf.Selected)
	assert.False(t, leaf.Inherited)
	assert.Empty(t, leaf.InheritedFrom)
}

func TestBuildTreeDeterministic(t *testing.T) {
	catalog := testCatalog()
	selected := NewKeySet("view.x", "add.y")
	inherited := NewKeySet("delete.y")
	a := BuildTree(catalog, selected, inherited, "admin")
	b := BuildTree(catalog, selected, inherited, "admin")
	assert.Equal(t, a, b)
}

func TestFindNode(t *testing.T) {
	tree := BuildTree(testCatalog(), NewKeySet(), NewKeySet(), "")
	leaf := FindNode(tree, []string{"y", "y/" + string(CategoryAdd), "add.y"})
	require.NotNil(t, leaf)
	assert.Equal(t, "add.y", leaf.PermissionKey)

	assert.Nil(t, FindNode(tree, []string{"z"}))
	assert.Nil(t, FindNode(tree, nil))
	assert.Nil(t, FindNode(tree, []string{"y", "missing"}))
}

func TestFilterTree(t *testing.T) {
	tree := BuildTree(testCatalog(), NewKeySet(), NewKeySet(), "")

	filtered := FilterTree(tree, "add")
	require.Len(t, filtered, 1)
	assert.Equal(t, "y", filtered[0].Name)
	require.Len(t, filtered[0].Children, 1)
	assert.Equal(t, string(CategoryAdd), filtered[0].Children[0].Name)

	// Filtering never mutates the original projection.
	require.Len(t, tree[1].Children, 3)

	assert.Equal(t, tree, FilterTree(tree, ""))
	assert.Empty(t, FilterTree(tree, "nomatch"))
}
