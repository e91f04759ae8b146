package permtree

import "strings"

// Category is one of the fixed buckets an action type is classified into.
type Category string

const (
	CategoryAdd    Category = "Add Operations"
	CategoryModify Category = "Modify Operations"
	CategoryDelete Category = "Delete Operations"
	CategoryView   Category = "View Operations"
	CategoryOther  Category = "Other Operations"
)

// Categorize classifies an action type into a category bucket. Matching is
// substring containment in fixed priority order, first match wins; only the
// "delete" check ignores case. Total over all strings.
func Categorize(actionType string) Category {
	switch {
	case strings.Contains(actionType, "add"):
		return CategoryAdd
	case strings.Contains(actionType, "modify"):
		return CategoryModify
	case strings.Contains(strings.ToLower(actionType), "delete"):
		return CategoryDelete
	case strings.Contains(actionType, "view"):
		return CategoryView
	default:
		return CategoryOther
	}
}
