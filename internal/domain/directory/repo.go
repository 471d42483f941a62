package directory

import "context"

// CatalogRepository reads the staff, role, and department catalogs. The
// catalogs are maintained elsewhere; this layer only consumes them.
type CatalogRepository interface {
	Staff(ctx context.Context) ([]StaffMember, error)
	Roles(ctx context.Context) ([]Role, error)
	Departments(ctx context.Context) ([]Department, error)
}
