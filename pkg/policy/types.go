// Package policy evaluates role permissions for Deckhand.
//
// A role maps each resource category to one of three levels: none, read,
// or full. HasPermission is the sole authority for every access decision;
// callers must not inspect raw permission levels directly.
package policy

import (
	"context"
	"fmt"
)

// Level is a role's access level for one resource category.
type Level string

const (
	// LevelNone grants no access.
	LevelNone Level = "none"

	// LevelRead grants read-only access.
	LevelRead Level = "read"

	// LevelFull grants read and write access. Full implies read.
	LevelFull Level = "full"
)

// Validate checks if the level is one of the known levels.
func (l Level) Validate() error {
	switch l {
	case LevelNone, LevelRead, LevelFull:
		return nil
	default:
		return fmt.Errorf("invalid permission level: %s", l)
	}
}

// Category is a permission-bearing resource category.
type Category string

const (
	CategoryProjects     Category = "projects"
	CategoryResources    Category = "resources"
	CategoryDocks        Category = "docks"
	CategoryOperations   Category = "operations"
	CategorySettings     Category = "settings"
	CategoryProvisioning Category = "provisioning"
	CategoryMonitoring   Category = "monitoring"
)

// Categories lists every known category.
var Categories = []Category{
	CategoryProjects,
	CategoryResources,
	CategoryDocks,
	CategoryOperations,
	CategorySettings,
	CategoryProvisioning,
	CategoryMonitoring,
}

// Validate checks if the category is one of the known categories.
func (c Category) Validate() error {
	for _, known := range Categories {
		if c == known {
			return nil
		}
	}
	return fmt.Errorf("invalid permission category: %s", c)
}

// RolePermissions maps categories to levels. Legacy roles predate the
// provisioning and monitoring categories, so any category may be absent;
// an absent category is treated as LevelNone, never inferred as full.
type RolePermissions map[Category]Level

// Clone returns a shallow copy of the permission set. A nil set clones
// to nil.
func (p RolePermissions) Clone() RolePermissions {
	if p == nil {
		return nil
	}
	out := make(RolePermissions, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

// Role is a named permission set scoped to an organization.
type Role struct {
	// ID is the unique identifier for this role.
	ID string `json:"id"`

	// OrgID is the owning organization.
	OrgID string `json:"org_id"`

	// Name is the operator-facing role name.
	Name string `json:"name" validate:"required"`

	// Permissions maps each category to its level.
	Permissions RolePermissions `json:"permissions"`
}

// PermissionStore supplies role permissions, keyed by organization and
// role name.
type PermissionStore interface {
	// GetRolePermissions retrieves the permission set for a role.
	GetRolePermissions(ctx context.Context, orgID, roleName string) (RolePermissions, error)
}
