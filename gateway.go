package permtree

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Gateway is the persistence boundary the engine depends on. Reads return
// reference data; ReplaceRolePermissions is the single durable mutation and
// must replace the role's direct set atomically.
type Gateway interface {
	ListRoles(ctx context.Context) ([]Role, error)
	ListPermissionCatalog(ctx context.Context) ([]Permission, error)
	GetRoleDirectPermissions(ctx context.Context, roleID int) ([]Permission, error)
	ReplaceRolePermissions(ctx context.Context, roleID int, permissionIDs []int) error
}

// GatewayConfig holds the configuration for the gorm-backed gateway.
type GatewayConfig struct {
	DB          *gorm.DB
	RedisClient *redis.Client
	CacheTTL    time.Duration
	CachePrefix string
	AutoMigrate bool
	EnableAudit bool
}

// GormGateway implements Gateway on Postgres via gorm with a read-through
// Redis cache. Cached values are JSON-encoded; the replace operation
// invalidates the affected keys.
type GormGateway struct {
	db           *gorm.DB
	redisClient  *redis.Client
	cacheTTL     time.Duration
	cachePrefix  string
	auditEnabled bool
}

// NewGormGateway initializes the gateway and migrates the schema when asked.
func NewGormGateway(cfg GatewayConfig) (*GormGateway, error) {
	if cfg.DB == nil || cfg.RedisClient == nil {
		return nil, fmt.Errorf("database and redis client are required")
	}
	if cfg.CachePrefix == "" {
		cfg.CachePrefix = "permtree:"
	}
	if cfg.AutoMigrate {
		if err := cfg.DB.AutoMigrate(&Permission{}, &Role{}, &RolePermission{}, &AuditEntry{}); err != nil {
			return nil, fmt.Errorf("failed to auto-migrate: %w", err)
		}
	}
	return &GormGateway{
		db:           cfg.DB,
		redisClient:  cfg.RedisClient,
		cacheTTL:     cfg.CacheTTL,
		cachePrefix:  cfg.CachePrefix,
		auditEnabled: cfg.EnableAudit,
	}, nil
}

// ListRoles retrieves all roles, cache first.
func (g *GormGateway) ListRoles(ctx context.Context) ([]Role, error) {
	cacheKey := g.cachePrefix + "roles:all"
	var roles []Role
	if g.cacheGet(ctx, cacheKey, &roles) {
		return roles, nil
	}

	if err := g.db.WithContext(ctx).Find(&roles).Error; err != nil {
		return nil, fmt.Errorf("%w: failed to fetch roles: %v", ErrLoadFailed, err)
	}
	g.cacheSet(ctx, cacheKey, roles)
	return roles, nil
}

// ListPermissionCatalog retrieves the full permission catalog in stable
// primary-key order, cache first. Catalog order is the canonical tree order.
func (g *GormGateway) ListPermissionCatalog(ctx context.Context) ([]Permission, error) {
	cacheKey := g.cachePrefix + "permissions:all"
	var perms []Permission
	if g.cacheGet(ctx, cacheKey, &perms) {
		return perms, nil
	}

	if err := g.db.WithContext(ctx).Order("id").Find(&perms).Error; err != nil {
		return nil, fmt.Errorf("%w: failed to fetch permission catalog: %v", ErrLoadFailed, err)
	}
	g.cacheSet(ctx, cacheKey, perms)
	return perms, nil
}

// GetRoleDirectPermissions retrieves the permissions directly assigned to a
// role, never inherited ones.
func (g *GormGateway) GetRoleDirectPermissions(ctx context.Context, roleID int) ([]Permission, error) {
	cacheKey := fmt.Sprintf("%srole:%d:permissions", g.cachePrefix, roleID)
	var perms []Permission
	if g.cacheGet(ctx, cacheKey, &perms) {
		return perms, nil
	}

	var mappings []RolePermission
	if err := g.db.WithContext(ctx).Where("role_id = ?", roleID).Find(&mappings).Error; err != nil {
		return nil, fmt.Errorf("%w: failed to fetch role permissions: %v", ErrLoadFailed, err)
	}
	permIDs := make([]int, 0, len(mappings))
	for _, rp := range mappings {
		permIDs = append(permIDs, rp.PermissionID)
	}

	perms = []Permission{}
	if len(permIDs) > 0 {
		if err := g.db.WithContext(ctx).Where("id IN ?", permIDs).Order("id").Find(&perms).Error; err != nil {
			return nil, fmt.Errorf("%w: failed to fetch permissions: %v", ErrLoadFailed, err)
		}
	}
	g.cacheSet(ctx, cacheKey, perms)
	return perms, nil
}

// ReplaceRolePermissions atomically replaces the role's direct permission
// set with the given IDs: delete plus insert in a single transaction.
func (g *GormGateway) ReplaceRolePermissions(ctx context.Context, roleID int, permissionIDs []int) error {
	var role Role
	if err := g.db.WithContext(ctx).First(&role, roleID).Error; err != nil {
		return fmt.Errorf("%w: role ID %d not found", ErrNotFound, roleID)
	}

	err := g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("role_id = ?", roleID).Delete(&RolePermission{}).Error; err != nil {
			return fmt.Errorf("failed to clear existing permissions: %w", err)
		}
		for _, permID := range permissionIDs {
			rp := RolePermission{RoleID: roleID, PermissionID: permID}
			if err := tx.Create(&rp).Error; err != nil {
				return fmt.Errorf("failed to assign permission %d: %w", permID, err)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSaveFailed, err)
	}

	g.invalidateCache(ctx, fmt.Sprintf("role:%d:permissions", roleID))
	if g.auditEnabled {
		g.logAudit(ctx, roleID, "replace_permissions", fmt.Sprintf("role %s now holds %d direct permissions", role.Name, len(permissionIDs)))
	}
	return nil
}

// cacheGet loads a JSON-encoded value from redis into dest. Returns false on
// miss or decode failure so the caller falls through to the database.
func (g *GormGateway) cacheGet(ctx context.Context, key string, dest interface{}) bool {
	data, err := g.redisClient.Get(ctx, key).Result()
	if err != nil {
		return false
	}
	return json.Unmarshal([]byte(data), dest) == nil
}

// cacheSet stores a JSON-encoded value. Cache write failures are ignored;
// the database remains the source of truth.
func (g *GormGateway) cacheSet(ctx context.Context, key string, value interface{}) {
	data, err := json.Marshal(value)
	if err != nil {
		return
	}
	g.redisClient.Set(ctx, key, string(data), g.cacheTTL)
}

// invalidateCache drops a cache key under the gateway prefix.
func (g *GormGateway) invalidateCache(ctx context.Context, key string) {
	g.redisClient.Del(ctx, g.cachePrefix+key)
}
