package permtree

import "strings"

// BuildTree projects the permission catalog onto a three-level tree:
// resource -> category -> permission. Grouping preserves first-occurrence
// order of the catalog sequence at both levels, so the output is fully
// deterministic for identical inputs.
//
// inheritedFrom is the provenance label stamped on every inherited leaf. It
// names all ancestors of the edited role, not the specific granting one.
func BuildTree(catalog []Permission, selected, inherited KeySet, inheritedFrom string) []*TreeNode {
	var resources []*TreeNode
	resourceIdx := make(map[string]*TreeNode)
	categoryIdx := make(map[string]map[Category]*TreeNode)

	for _, perm := range catalog {
		res, ok := resourceIdx[perm.ResourceType]
		if !ok {
			res = &TreeNode{
				ID:    perm.ResourceType,
				Name:  perm.ResourceType,
				Level: LevelResource,
			}
			resourceIdx[perm.ResourceType] = res
			categoryIdx[perm.ResourceType] = make(map[Category]*TreeNode)
			resources = append(resources, res)
		}

		bucket := Categorize(perm.ActionType)
		cat, ok := categoryIdx[perm.ResourceType][bucket]
		if !ok {
			cat = &TreeNode{
				ID:    perm.ResourceType + "/" + string(bucket),
				Name:  string(bucket),
				Level: LevelCategory,
			}
			categoryIdx[perm.ResourceType][bucket] = cat
			res.Children = append(res.Children, cat)
		}

		leaf := &TreeNode{
			ID:            perm.Key,
			Name:          perm.ActionType,
			Description:   perm.Description,
			PermissionKey: perm.Key,
			Level:         LevelPermission,
			Selected:      selected.Has(perm.Key),
		}
		if inherited.Has(perm.Key) && !selected.Has(perm.Key) {
			leaf.Inherited = true
			leaf.InheritedFrom = inheritedFrom
		}
		cat.Children = append(cat.Children, leaf)
	}

	for _, res := range resources {
		for _, cat := range res.Children {
			rollUp(cat)
		}
		rollUp(res)
	}
	return resources
}

// rollUp derives the tri-state flags of a non-leaf node from its leaf
// descendants: selected iff every leaf is selected (and there is at least
// one), indeterminate iff strictly between none and all.
func rollUp(node *TreeNode) {
	leaves := node.Leaves()
	total := len(leaves)
	count := 0
	for _, leaf := range leaves {
		if leaf.Selected {
			count++
		}
	}
	node.Selected = total > 0 && count == total
	node.Indeterminate = count > 0 && count < total
}

// FindNode walks the tree along a path of node IDs and returns the addressed
// node, or nil if the path does not resolve.
func FindNode(tree []*TreeNode, path []string) *TreeNode {
	if len(path) == 0 {
		return nil
	}
	for _, node := range tree {
		if node.ID != path[0] {
			continue
		}
		if len(path) == 1 {
			return node
		}
		return FindNode(node.Children, path[1:])
	}
	return nil
}

// FilterTree returns a pruned copy of the tree keeping the subtrees whose
// node name or permission key contains the query (case-insensitive). An
// empty query returns the tree unchanged. Selection state is never touched;
// this is a stateless display predicate.
func FilterTree(tree []*TreeNode, query string) []*TreeNode {
	if query == "" {
		return tree
	}
	q := strings.ToLower(query)
	var out []*TreeNode
	for _, node := range tree {
		if matches(node, q) {
			out = append(out, node)
			continue
		}
		kept := FilterTree(node.Children, query)
		if len(kept) > 0 {
			clone := *node
			clone.Children = kept
			out = append(out, &clone)
		}
	}
	return out
}

func matches(node *TreeNode, loweredQuery string) bool {
	if strings.Contains(strings.ToLower(node.Name), loweredQuery) {
		return true
	}
	return node.PermissionKey != "" && strings.Contains(strings.ToLower(node.PermissionKey), loweredQuery)
}
