package rbac

import "time"

// RoleType distinguishes central roles from tenant role patterns.
type RoleType string

const (
	// RoleTypeCentral marks a global role such as the system administrator.
	RoleTypeCentral RoleType = "central"
	// RoleTypeTenant marks a role cloned into each tenant at creation time.
	RoleTypeTenant RoleType = "tenant"
)

// Role is a named permission bundle. A role with a nil TenantID is a
// template (central or tenant pattern); a role with a TenantID is a
// tenant-owned instance cloned from TemplateID and edited independently.
type Role struct {
	ID          int64
	TenantID    *int64
	TemplateID  *int64
	Name        string
	DisplayName string
	Description string
	Type        RoleType
	Permissions []string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// IsTemplate reports whether the role is a tenant-less template.
func (r Role) IsTemplate() bool {
	return r.TenantID == nil
}

// Assignment ties a user to a role under a tenant context. TenantID is
// nil only for central roles. Assignments are the sole source of
// "does user X have role Y in tenant Z".
type Assignment struct {
	ID        int64
	UserID    int64
	RoleID    int64
	TenantID  *int64
	CreatedAt time.Time
}
