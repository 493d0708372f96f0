package tenant

import "time"

// Status enumerates tenant lifecycle states.
type Status string

const (
	StatusActive    Status = "active"
	StatusInactive  Status = "inactive"
	StatusSuspended Status = "suspended"
)

// Tenant is an isolated organization owning its own users, roles, and
// navigation configurations.
type Tenant struct {
	ID        int64
	Name      string
	Plan      string
	Status    Status
	CreatedAt time.Time
	UpdatedAt time.Time
}
