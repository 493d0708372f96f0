package shared

// Permission identifiers form a closed set; nothing creates or removes
// them at runtime. Grouping below drives the permission picker UI.
const (
	PermViewDashboard = "view_dashboard"
	PermViewReports   = "view_reports"
	PermExportReports = "export_reports"

	PermManageTenantUsers    = "manage_tenant_users"
	PermManageTenantRoles    = "manage_tenant_roles"
	PermManageTenantSettings = "manage_tenant_settings"
	PermManageNavigation     = "manage_navigation"

	PermManageContent  = "manage_content"
	PermPublishContent = "publish_content"

	PermViewSupportTickets   = "view_support_tickets"
	PermManageSupportTickets = "manage_support_tickets"

	// System-level permissions are reserved for central administrators
	// and never appear in tenant-scoped listings.
	PermCreateTenants        = "create_tenants"
	PermDeleteTenants        = "delete_tenants"
	PermManageSystemSettings = "manage_system_settings"
	PermImpersonateUsers     = "impersonate_users"
	PermManageSystemBackups  = "manage_system_backups"
	PermManageCentralUsers   = "manage_central_users"
	PermExportTenantData     = "export_tenant_data"
)

// Permission categories used for grouped display.
const (
	CategoryDashboard = "dashboard"
	CategoryTenant    = "tenant"
	CategoryContent   = "content"
	CategorySupport   = "support"
	CategorySystem    = "system"
)

type permissionEntry struct {
	category    string
	description string
}

var permissionCatalog = map[string]permissionEntry{
	PermViewDashboard: {CategoryDashboard, "View the tenant dashboard"},
	PermViewReports:   {CategoryDashboard, "View reports"},
	PermExportReports: {CategoryDashboard, "Export reports"},

	PermManageTenantUsers:    {CategoryTenant, "Manage users within the tenant"},
	PermManageTenantRoles:    {CategoryTenant, "Manage roles within the tenant"},
	PermManageTenantSettings: {CategoryTenant, "Manage tenant settings"},
	PermManageNavigation:     {CategoryTenant, "Manage navigation configurations"},

	PermManageContent:  {CategoryContent, "Create and edit content"},
	PermPublishContent: {CategoryContent, "Publish content"},

	PermViewSupportTickets:   {CategorySupport, "View support tickets"},
	PermManageSupportTickets: {CategorySupport, "Manage support tickets"},

	PermCreateTenants:        {CategorySystem, "Create tenants"},
	PermDeleteTenants:        {CategorySystem, "Delete tenants"},
	PermManageSystemSettings: {CategorySystem, "Manage system settings"},
	PermImpersonateUsers:     {CategorySystem, "Impersonate users"},
	PermManageSystemBackups:  {CategorySystem, "Manage system backups"},
	PermManageCentralUsers:   {CategorySystem, "Manage central users"},
	PermExportTenantData:     {CategorySystem, "Export data across tenants"},
}

// AllPermissions returns every known permission identifier.
func AllPermissions() []string {
	perms := make([]string, 0, len(permissionCatalog))
	for name := range permissionCatalog {
		perms = append(perms, name)
	}
	return perms
}

// KnownPermission reports whether the identifier belongs to the catalog.
func KnownPermission(name string) bool {
	_, ok := permissionCatalog[name]
	return ok
}

// SystemPermission reports whether the identifier is system-level.
func SystemPermission(name string) bool {
	entry, ok := permissionCatalog[name]
	return ok && entry.category == CategorySystem
}

// PermissionDescription returns the display description for a permission.
func PermissionDescription(name string) string {
	return permissionCatalog[name].description
}

// GroupedPermissions returns permissions keyed by category then name.
// With tenantScoped set, system-level permissions are excluded.
func GroupedPermissions(tenantScoped bool) map[string]map[string]string {
	grouped := make(map[string]map[string]string)
	for name, entry := range permissionCatalog {
		if tenantScoped && entry.category == CategorySystem {
			continue
		}
		if grouped[entry.category] == nil {
			grouped[entry.category] = make(map[string]string)
		}
		grouped[entry.category][name] = entry.description
	}
	return grouped
}
