package tenant

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// Every table referencing tenants must be purged before the tenant row,
// and users must outlive the assignments that reference them.
func TestPurgeStatementsCoverReferencingTables(t *testing.T) {
	for _, table := range []string{"nav_configurations", "role_assignments", "roles", "users"} {
		require.True(t, purgeIndex(table) >= 0, "no purge statement for %s", table)
	}
}

func TestPurgeStatementsOrder(t *testing.T) {
	require.Less(t, purgeIndex("role_assignments"), purgeIndex("users"),
		"assignments reference users and must go first")
	require.Less(t, purgeIndex("nav_configurations"), purgeIndex("users"),
		"user-scoped configurations reference users and must go first")
	require.Less(t, purgeIndex("nav_configurations"), purgeIndex("roles"),
		"role-scoped configurations reference roles and must go first")
	require.Less(t, purgeIndex("role_assignments"), purgeIndex("roles"),
		"assignments reference roles and must go first")
}

func TestPurgeStatementsClearForeignAssignmentsOfTenantUsers(t *testing.T) {
	stmt := purgeStatements[purgeIndex("role_assignments")]
	require.Contains(t, stmt, "user_id IN (SELECT id FROM users WHERE tenant_id = $1)")
}

func purgeIndex(table string) int {
	for i, stmt := range purgeStatements {
		if strings.HasPrefix(strings.TrimSpace(stmt), "DELETE FROM "+table+" ") {
			return i
		}
	}
	return -1
}
