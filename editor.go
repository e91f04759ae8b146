package permtree

import (
	"context"
	"fmt"
)

// BulkOp names a bulk mutation of the working selection.
type BulkOp string

const (
	OpCopyFromRole     BulkOp = "copy_from_role"
	OpSelectAll        BulkOp = "select_all"
	OpSelectCategory   BulkOp = "select_category"
	OpDeselectCategory BulkOp = "deselect_category"
	OpResetToSaved     BulkOp = "reset_to_saved"
)

// BulkOpArgs carries the operation-specific arguments of ApplyBulkOp.
type BulkOpArgs struct {
	SourceRoleName string   `json:"sourceRoleName,omitempty"`
	CategoryPath   []string `json:"categoryPath,omitempty"`
}

// Manager loads the read-only reference data once per admin session and
// opens editors over it.
type Manager struct {
	gateway     Gateway
	inheritance InheritanceMap
	catalog     []Permission
	roles       []Role
	rolesByName map[string]Role
}

// NewManager fetches the role list and permission catalog through the
// gateway. Both are immutable for the lifetime of the manager.
func NewManager(ctx context.Context, gateway Gateway, inheritance InheritanceMap) (*Manager, error) {
	if gateway == nil {
		return nil, fmt.Errorf("%w: gateway is required", ErrInvalidInput)
	}
	if err := inheritance.Validate(); err != nil {
		return nil, err
	}

	roles, err := gateway.ListRoles(ctx)
	if err != nil {
		return nil, err
	}
	catalog, err := gateway.ListPermissionCatalog(ctx)
	if err != nil {
		return nil, err
	}

	byName := make(map[string]Role, len(roles))
	for _, role := range roles {
		byName[role.Name] = role
	}
	return &Manager{
		gateway:     gateway,
		inheritance: inheritance,
		catalog:     catalog,
		roles:       roles,
		rolesByName: byName,
	}, nil
}

// Roles returns the loaded role list.
func (m *Manager) Roles() []Role { return m.roles }

// Catalog returns the loaded permission catalog.
func (m *Manager) Catalog() []Permission { return m.catalog }

// directKeys fetches a role's direct permission keys by role name. A name
// absent from the role list resolves to an empty set, not an error.
func (m *Manager) directKeys(ctx context.Context, roleName string) (KeySet, error) {
	role, ok := m.rolesByName[roleName]
	if !ok {
		return NewKeySet(), nil
	}
	perms, err := m.gateway.GetRoleDirectPermissions(ctx, role.ID)
	if err != nil {
		return nil, err
	}
	keys := make(KeySet, len(perms))
	for _, p := range perms {
		keys[p.Key] = struct{}{}
	}
	return keys, nil
}

// OpenEditor loads the selection state for one role and returns an editor
// bound to it.
func (m *Manager) OpenEditor(ctx context.Context, roleID int) (*Editor, error) {
	var role Role
	found := false
	for _, r := range m.roles {
		if r.ID == roleID {
			role = r
			found = true
			break
		}
	}
	if !found {
		return nil, fmt.Errorf("%w: role ID %d", ErrNotFound, roleID)
	}

	ed := &Editor{manager: m, role: role}
	if err := ed.reload(ctx); err != nil {
		return nil, err
	}
	return ed, nil
}

// Editor is a single-role editing session. The working selection is the
// only mutable state; the tree is rebuilt as a pure projection after every
// mutation. One editor per role at a time; concurrent editors of the same
// role are last-save-wins.
type Editor struct {
	manager    *Manager
	role       Role
	selected   KeySet
	saved      KeySet
	inherited  KeySet
	provenance string
	tree       []*TreeNode
}

// Role returns the role being edited.
func (e *Editor) Role() Role { return e.role }

// Tree returns the current projection.
func (e *Editor) Tree() []*TreeNode { return e.tree }

// SelectedCount returns the number of direct grants in the working set.
func (e *Editor) SelectedCount() int { return e.selected.Len() }

// InheritedCount returns the number of leaves currently flagged inherited,
// i.e. inherited keys not shadowed by a direct selection.
func (e *Editor) InheritedCount() int {
	count := 0
	for k := range e.inherited {
		if !e.selected.Has(k) {
			count++
		}
	}
	return count
}

// Selected returns a copy of the working selection.
func (e *Editor) Selected() KeySet { return e.selected.Clone() }

// ApplyToggle toggles the node addressed by the ID path: a leaf flips its
// own key, a branch cascades to every leaf descendant.
func (e *Editor) ApplyToggle(path []string) error {
	node := FindNode(e.tree, path)
	if node == nil {
		return fmt.Errorf("%w: no tree node at path %v", ErrNotFound, path)
	}
	if node.IsLeaf() {
		e.selected = ToggleLeaf(e.selected, node.PermissionKey)
	} else {
		e.selected = ToggleBranch(e.selected, node)
	}
	e.rebuild()
	return nil
}

// ApplyBulkOp runs one of the bulk selection mutations and rebuilds the
// projection.
func (e *Editor) ApplyBulkOp(ctx context.Context, op BulkOp, args BulkOpArgs) error {
	switch op {
	case OpCopyFromRole:
		source, err := e.manager.directKeys(ctx, args.SourceRoleName)
		if err != nil {
			return err
		}
		e.selected = CopyFromRole(e.selected, source)
	case OpSelectAll:
		e.selected = SelectAll(e.manager.catalog, e.inherited)
	case OpSelectCategory, OpDeselectCategory:
		node := FindNode(e.tree, args.CategoryPath)
		if node == nil || node.Level != LevelCategory {
			return fmt.Errorf("%w: no category at path %v", ErrNotFound, args.CategoryPath)
		}
		if op == OpSelectCategory {
			e.selected = SelectAllInCategory(e.selected, node)
		} else {
			e.selected = DeselectAllInCategory(e.selected, node)
		}
	case OpResetToSaved:
		e.selected = ResetToSaved(e.saved)
	default:
		return fmt.Errorf("%w: unknown bulk operation %q", ErrInvalidInput, op)
	}
	e.rebuild()
	return nil
}

// Save maps the working selection to catalog IDs and replaces the role's
// direct permission set in one atomic call. Keys without a catalog entry are
// silently dropped; the catalog is the source of truth for validity. On
// success the editor reloads from the gateway to converge to authoritative
// state; on failure the working selection is left untouched for retry.
func (e *Editor) Save(ctx context.Context) error {
	idByKey := make(map[string]int, len(e.manager.catalog))
	for _, p := range e.manager.catalog {
		idByKey[p.Key] = p.ID
	}

	permissionIDs := make([]int, 0, e.selected.Len())
	for _, p := range e.manager.catalog {
		if e.selected.Has(p.Key) {
			permissionIDs = append(permissionIDs, idByKey[p.Key])
		}
	}

	if err := e.manager.gateway.ReplaceRolePermissions(ctx, e.role.ID, permissionIDs); err != nil {
		return err
	}
	return e.reload(ctx)
}

// Reset discards in-memory edits by reloading the selection state from the
// gateway.
func (e *Editor) Reset(ctx context.Context) error {
	return e.reload(ctx)
}

// reload replaces the selection state wholesale from the gateway and
// recomputes the inherited overlay. Prior state is kept if any fetch fails.
func (e *Editor) reload(ctx context.Context) error {
	direct, err := e.manager.directKeys(ctx, e.role.Name)
	if err != nil {
		return err
	}
	inherited, err := e.manager.inheritance.Resolve(ctx, e.role.Name, e.manager.directKeys)
	if err != nil {
		return err
	}

	e.selected = direct
	e.saved = direct.Clone()
	e.inherited = inherited
	e.provenance = e.manager.inheritance.Provenance(e.role.Name)
	e.rebuild()
	return nil
}

func (e *Editor) rebuild() {
	e.tree = BuildTree(e.manager.catalog, e.selected, e.inherited, e.provenance)
}
