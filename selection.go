package permtree

// KeySet is a set of permission keys. The working selection of an editor is
// the only mutable state in the engine; every transition below is a pure
// function returning a fresh set, so callers can keep snapshots safely.
type KeySet map[string]struct{}

// NewKeySet builds a set from the given keys.
func NewKeySet(keys ...string) KeySet {
	s := make(KeySet, len(keys))
	for _, k := range keys {
		s[k] = struct{}{}
	}
	return s
}

// Has reports membership.
func (s KeySet) Has(key string) bool {
	_, ok := s[key]
	return ok
}

// Len returns the number of keys in the set.
func (s KeySet) Len() int { return len(s) }

// Clone returns an independent copy.
func (s KeySet) Clone() KeySet {
	out := make(KeySet, len(s))
	for k := range s {
		out[k] = struct{}{}
	}
	return out
}

// Keys returns the members in unspecified order.
func (s KeySet) Keys() []string {
	keys := make([]string, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	return keys
}

// ToggleLeaf flips membership of a single key. Applying it twice with the
// same key returns a set equal to the original.
func ToggleLeaf(s KeySet, key string) KeySet {
	out := s.Clone()
	if out.Has(key) {
		delete(out, key)
	} else {
		out[key] = struct{}{}
	}
	return out
}

// ToggleBranch cascades a toggle of a non-leaf node to every leaf descendant.
// A fully selected branch becomes fully deselected; an indeterminate or
// unselected branch becomes fully selected. The cascade includes leaves
// currently flagged inherited: it can promote an inherited-only permission
// into a direct grant, or strip a direct grant that overlaps inheritance.
func ToggleBranch(s KeySet, node *TreeNode) KeySet {
	newState := !node.Selected && !node.Indeterminate
	out := s.Clone()
	for _, leaf := range node.Leaves() {
		if newState {
			out[leaf.PermissionKey] = struct{}{}
		} else {
			delete(out, leaf.PermissionKey)
		}
	}
	return out
}

// CopyFromRole unions another role's direct keys into the selection. Never
// removes existing selections.
func CopyFromRole(s KeySet, sourceDirect KeySet) KeySet {
	out := s.Clone()
	for k := range sourceDirect {
		out[k] = struct{}{}
	}
	return out
}

// SelectAllInCategory adds every leaf of the category that is not already
// covered by inheritance.
func SelectAllInCategory(s KeySet, category *TreeNode) KeySet {
	out := s.Clone()
	for _, leaf := range category.Leaves() {
		if leaf.Inherited {
			continue
		}
		out[leaf.PermissionKey] = struct{}{}
	}
	return out
}

// DeselectAllInCategory removes every leaf key of the category, inherited or
// not. An inherited-flagged leaf is by definition absent from the selection,
// so removing it is a no-op.
func DeselectAllInCategory(s KeySet, category *TreeNode) KeySet {
	out := s.Clone()
	for _, leaf := range category.Leaves() {
		delete(out, leaf.PermissionKey)
	}
	return out
}

// SelectAll replaces the selection with every catalog key that is not
// inherited. A full replace, not a union.
func SelectAll(catalog []Permission, inherited KeySet) KeySet {
	out := make(KeySet, len(catalog))
	for _, p := range catalog {
		if inherited.Has(p.Key) {
			continue
		}
		out[p.Key] = struct{}{}
	}
	return out
}

// ResetToSaved discards in-memory edits and returns the last persisted set.
func ResetToSaved(saved KeySet) KeySet {
	return saved.Clone()
}
