package permtree

import (
	"time"
)

// Permission is an entry of the externally owned permission catalog. The
// engine never creates or deletes catalog rows; it only reads them.
type Permission struct {
	ID           int    `gorm:"primaryKey;autoIncrement" json:"id"`
	Key          string `gorm:"unique;not null" json:"key"`
	ResourceType string `gorm:"not null;index" json:"resourceType"`
	ActionType   string `gorm:"not null" json:"actionType"`
	Description  string `json:"description"`
	Active       bool   `gorm:"default:true" json:"active"`
}

// Role is read-only reference data within an admin session.
type Role struct {
	ID          int    `gorm:"primaryKey;autoIncrement" json:"id"`
	Name        string `gorm:"unique;not null" json:"name"`
	DisplayName string `json:"displayName"`
}

// RolePermission maps a role to a directly granted permission.
type RolePermission struct {
	RoleID       int `gorm:"primaryKey"`
	PermissionID int `gorm:"primaryKey"`
}

// AuditEntry records a durable mutation of a role's permission set.
type AuditEntry struct {
	ID        string    `gorm:"primaryKey" json:"id"`
	RoleID    int       `gorm:"index" json:"roleId"`
	Action    string    `gorm:"not null" json:"action"`
	Detail    string    `json:"detail"`
	CreatedAt time.Time `json:"createdAt"`
}

// NodeLevel identifies the depth of a tree node.
type NodeLevel string

const (
	LevelResource   NodeLevel = "resource"
	LevelCategory   NodeLevel = "category"
	LevelPermission NodeLevel = "permission"
)

// TreeNode is one node of the three-level permission tree. The tree is a
// pure projection of (catalog, selected, inherited); it is rebuilt after
// every mutation and never edited in place.
type TreeNode struct {
	ID            string      `json:"id"`
	Name          string      `json:"name"`
	Description   string      `json:"description,omitempty"`
	PermissionKey string      `json:"permissionKey,omitempty"`
	Level         NodeLevel   `json:"level"`
	Selected      bool        `json:"selected"`
	Indeterminate bool        `json:"indeterminate"`
	Inherited     bool        `json:"inherited,omitempty"`
	InheritedFrom string      `json:"inheritedFrom,omitempty"`
	Children      []*TreeNode `json:"children,omitempty"`
}

// IsLeaf reports whether the node sits at the permission level.
func (n *TreeNode) IsLeaf() bool {
	return n.Level == LevelPermission
}

// Leaves returns the leaf descendants of the node in tree order. A leaf
// returns itself.
func (n *TreeNode) Leaves() []*TreeNode {
	if n.IsLeaf() {
		return []*TreeNode{n}
	}
	var leaves []*TreeNode
	for _, child := range n.Children {
		leaves = append(leaves, child.Leaves()...)
	}
	return leaves
}
