package db

import (
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func loadSchema(t *testing.T) string {
	t.Helper()
	raw, err := os.ReadFile("../../../migrations/0001_init.sql")
	require.NoError(t, err)
	return string(raw)
}

func schemaStatement(t *testing.T, marker string) string {
	t.Helper()
	for _, stmt := range strings.Split(loadSchema(t), ";") {
		if strings.Contains(stmt, marker) {
			return stmt
		}
	}
	t.Fatalf("no statement mentions %s", marker)
	return ""
}

// The clone arbiter index must stay total: ON CONFLICT
// (template_id, tenant_id) cannot infer a partial unique index, so a
// WHERE clause here would break CreateInstance and the seed cloner with
// SQLSTATE 42P10.
func TestRoleCloneIndexIsTotal(t *testing.T) {
	stmt := schemaStatement(t, "roles_template_tenant_uq")
	require.Contains(t, stmt, "ON roles (template_id, tenant_id)")
	require.NotContains(t, stmt, "WHERE")
}

// Catalog items without a required permission are stored as NULL by the
// repository, so the column must be nullable.
func TestCatalogPermissionColumnIsNullable(t *testing.T) {
	stmt := schemaStatement(t, "nav_catalog_items")
	for _, line := range strings.Split(stmt, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "permission ") {
			require.NotContains(t, line, "NOT NULL")
			return
		}
	}
	t.Fatal("nav_catalog_items has no permission column")
}
