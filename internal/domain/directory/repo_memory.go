package directory

import (
	"context"
	"sync"
)

// memoryCatalog holds catalog snapshots in memory. Snapshots are replaced
// wholesale; reads return copies.
type memoryCatalog struct {
	mu          sync.RWMutex
	staff       []StaffMember
	roles       []Role
	departments []Department
}

func NewMemoryCatalog() *memoryCatalog { return &memoryCatalog{} }

func (c *memoryCatalog) SetStaff(staff []StaffMember) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.staff = append([]StaffMember(nil), staff...)
}

func (c *memoryCatalog) SetRoles(roles []Role) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.roles = append([]Role(nil), roles...)
}

func (c *memoryCatalog) SetDepartments(departments []Department) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.departments = append([]Department(nil), departments...)
}

func (c *memoryCatalog) Staff(_ context.Context) ([]StaffMember, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]StaffMember(nil), c.staff...), nil
}

func (c *memoryCatalog) Roles(_ context.Context) ([]Role, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]Role(nil), c.roles...), nil
}

func (c *memoryCatalog) Departments(_ context.Context) ([]Department, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]Department(nil), c.departments...), nil
}
