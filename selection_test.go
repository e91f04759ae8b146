package permtree

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToggleLeafInvertible(t *testing.T) {
	s := NewKeySet("a", "b")
	for _, key := range []string{"a", "c"} {
		twice := ToggleLeaf(ToggleLeaf(s, key), key)
		assert.Equal(t, s, twice, "double toggle of %q must restore the set", key)
	}
}

func TestToggleLeafPure(t *testing.T) {
	s := NewKeySet("a")
	_ = ToggleLeaf(s, "a")
	_ = ToggleLeaf(s, "b")
	assert.Equal(t, NewKeySet("a"), s)
}

func TestToggleBranchCascadeSelect(t *testing.T) {
	catalog := []Permission{
		{Key: "a", ResourceType: "r", ActionType: "viewA"},
		{Key: "b", ResourceType: "r", ActionType: "viewB"},
		{Key: "c", ResourceType: "r", ActionType: "viewC"},
	}
	s := NewKeySet()
	tree := BuildTree(catalog, s, NewKeySet(), "")
	category := tree[0].Children[0]

	s = ToggleBranch(s, category)
	assert.True(t, s.Has("a"))
	assert.True(t, s.Has("b"))
	assert.True(t, s.Has("c"))

	// Second toggle on the now fully selected branch clears all three.
	tree = BuildTree(catalog, s, NewKeySet(), "")
	s = ToggleBranch(s, tree[0].Children[0])
	assert.Equal(t, 0, s.Len())
}

func TestToggleBranchIndeterminateSelectsAll(t *testing.T) {
	catalog := []Permission{
		{Key: "a", ResourceType: "r", ActionType: "viewA"},
		{Key: "b", ResourceType: "r", ActionType: "viewB"},
	}
	s := NewKeySet("a")
	tree := BuildTree(catalog, s, NewKeySet(), "")
	require.True(t, tree[0].Indeterminate)

	s = ToggleBranch(s, tree[0])
	assert.True(t, s.Has("a"))
	assert.True(t, s.Has("b"))
}

func TestToggleBranchPromotesInheritedLeaves(t *testing.T) {
	catalog := []Permission{
		{Key: "a", ResourceType: "r", ActionType: "viewA"},
		{Key: "b", ResourceType: "r", ActionType: "viewB"},
	}
	inherited := NewKeySet("b")
	s := NewKeySet()
	tree := BuildTree(catalog, s, inherited, "admin")

	// Cascade select includes the inherited-only leaf, promoting it to a
	// direct grant.
	s = ToggleBranch(s, tree[0])
	assert.True(t, s.Has("b"))

	// Cascade deselect strips direct grants that overlap inheritance.
	tree = BuildTree(catalog, s, inherited, "admin")
	s = ToggleBranch(s, tree[0])
	assert.False(t, s.Has("a"))
	assert.False(t, s.Has("b"))
}

func TestCopyFromRoleMonotonic(t *testing.T) {
	s := NewKeySet("a", "b")
	source := NewKeySet("b", "c")
	out := CopyFromRole(s, source)

	for k := range s {
		assert.True(t, out.Has(k))
	}
	for k := range source {
		assert.True(t, out.Has(k))
	}
	assert.Equal(t, 3, out.Len())
	assert.Equal(t, 2, s.Len())
}

func TestSelectAllExcludesInherited(t *testing.T) {
	catalog := []Permission{
		{Key: "a", ResourceType: "r", ActionType: "viewA"},
		{Key: "b", ResourceType: "r", ActionType: "viewB"},
		{Key: "c", ResourceType: "r", ActionType: "viewC"},
	}
	inherited := NewKeySet("b")

	out := SelectAll(catalog, inherited)
	assert.Equal(t, NewKeySet("a", "c"), out)
}

func TestSelectAllReplacesNotUnions(t *testing.T) {
	catalog := []Permission{
		{Key: "a", ResourceType: "r", ActionType: "viewA"},
	}
	// A previously selected key now covered by inheritance must not survive.
	out := SelectAll(catalog, NewKeySet("a"))
	assert.Equal(t, 0, out.Len())
}

func TestSelectAllInCategorySkipsInherited(t *testing.T) {
	catalog := []Permission{
		{Key: "m", ResourceType: "r", ActionType: "viewM"},
		{Key: "n", ResourceType: "r", ActionType: "viewN"},
	}
	inherited := NewKeySet("m")
	tree := BuildTree(catalog, NewKeySet(), inherited, "admin")
	category := tree[0].Children[0]

	out := SelectAllInCategory(NewKeySet(), category)
	assert.False(t, out.Has("m"))
	assert.True(t, out.Has("n"))
}

func TestDeselectAllInCategory(t *testing.T) {
	catalog := []Permission{
		{Key: "m", ResourceType: "r", ActionType: "viewM"},
		{Key: "n", ResourceType: "r", ActionType: "viewN"},
	}
	// "m" is inherited-only (not in the selection), "n" directly selected.
	s := NewKeySet("n", "other")
	tree := BuildTree(catalog, s, NewKeySet("m"), "admin")
	category := tree[0].Children[0]

	out := DeselectAllInCategory(s, category)
	assert.False(t, out.Has("n"))
	assert.False(t, out.Has("m"))
	assert.True(t, out.Has("other"), "keys outside the category are untouched")
}

func TestResetToSaved(t *testing.T) {
	saved := NewKeySet("a")
	out := ResetToSaved(saved)
	assert.Equal(t, saved, out)

	// The result is an independent copy.
	out["b"] = struct{}{}
	assert.False(t, saved.Has("b"))
}
