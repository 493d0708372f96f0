package config

import (
	"time"

	"github.com/google/uuid"

	"github.com/meridian-saas/meridian/internal/nav"
)

// ScopeKind is the targeting dimension of a configuration.
type ScopeKind string

const (
	// ScopeDefault applies tenant-wide.
	ScopeDefault ScopeKind = "default"
	// ScopeRole targets everyone holding one role in the tenant.
	ScopeRole ScopeKind = "role"
	// ScopeUser targets a single user in the tenant.
	ScopeUser ScopeKind = "user"
)

// Configuration is a saved navigation tree. At most one of RoleID and
// UserID is set; for each (tenant, scope, target) tuple at most one row
// is active at any time.
type Configuration struct {
	ID            uuid.UUID   `json:"id"`
	TenantID      int64       `json:"tenant_id"`
	RoleID        *int64      `json:"role_id,omitempty"`
	UserID        *int64      `json:"user_id,omitempty"`
	Name          string      `json:"name"`
	Payload       nav.Payload `json:"payload"`
	SchemaVersion int         `json:"schema_version"`
	Active        bool        `json:"active"`
	CreatedBy     int64       `json:"created_by"`
	UpdatedBy     int64       `json:"updated_by"`
	CreatedAt     time.Time   `json:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at"`
}

// Scope derives the scope kind from the target fields.
func (c Configuration) Scope() ScopeKind {
	switch {
	case c.UserID != nil:
		return ScopeUser
	case c.RoleID != nil:
		return ScopeRole
	default:
		return ScopeDefault
	}
}
