package users

import "time"

// User represents an account handed to the engine by the upstream
// identity layer. TenantID is nil for central administrators.
type User struct {
	ID           int64
	TenantID     *int64
	Email        string
	Name         string
	CentralAdmin bool
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
