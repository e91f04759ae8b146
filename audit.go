package permtree

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// logAudit creates an audit entry for a durable mutation. Failures are
// swallowed; auditing never blocks a save.
func (g *GormGateway) logAudit(ctx context.Context, roleID int, action, detail string) {
	entry := &AuditEntry{
		ID:        uuid.NewString(),
		RoleID:    roleID,
		Action:    action,
		Detail:    detail,
		CreatedAt: time.Now(),
	}
	g.db.WithContext(ctx).Create(entry)
}

// ListAuditEntries retrieves audit entries, newest first, optionally
// filtered by role.
func (g *GormGateway) ListAuditEntries(ctx context.Context, roleID *int) ([]AuditEntry, error) {
	query := g.db.WithContext(ctx).Order("created_at DESC")
	if roleID != nil {
		query = query.Where("role_id = ?", *roleID)
	}
	var entries []AuditEntry
	if err := query.Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}
