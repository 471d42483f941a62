package directory

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

type catalogRepoPG struct{ pool *pgxpool.Pool }

func NewCatalogRepoPG(pool *pgxpool.Pool) CatalogRepository { return &catalogRepoPG{pool: pool} }

func (r *catalogRepoPG) Staff(ctx context.Context) ([]StaffMember, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT user_id, user_name, role_id::text, COALESCE(doctor_department_id::text, ''), COALESCE(doctor_type, '')
		FROM staff ORDER BY user_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []StaffMember
	for rows.Next() {
		var s StaffMember
		var roleID, deptID string
		if err := rows.Scan(&s.UserID, &s.UserName, &roleID, &deptID, &s.DoctorType); err != nil {
			return nil, err
		}
		s.RoleID, s.DoctorDepartmentID = FlexID(roleID), FlexID(deptID)
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *catalogRepoPG) Roles(ctx context.Context) ([]Role, error) {
	rows, err := r.pool.Query(ctx, `SELECT id::text, name FROM role ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Role
	for rows.Next() {
		var id string
		var role Role
		if err := rows.Scan(&id, &role.Name); err != nil {
			return nil, err
		}
		role.ID = FlexID(id)
		out = append(out, role)
	}
	return out, rows.Err()
}

func (r *catalogRepoPG) Departments(ctx context.Context) ([]Department, error) {
	rows, err := r.pool.Query(ctx, `SELECT id::text, name FROM department ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Department
	for rows.Next() {
		var id string
		var dept Department
		if err := rows.Scan(&id, &dept.Name); err != nil {
			return nil, err
		}
		dept.ID = FlexID(id)
		out = append(out, dept)
	}
	return out, rows.Err()
}
