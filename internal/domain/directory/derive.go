package directory

// DeriveDoctors computes the eligible doctor pool from the raw staff, role,
// and department catalogs. Staff members whose role name denotes a doctor or
// surgeon survive the filter; each is joined to a department to resolve the
// specialty. A missing or not-yet-loaded catalog yields an empty slice, never
// an error, so callers can render a loading state.
func DeriveDoctors(staff []StaffMember, roles []Role, departments []Department) []DoctorRef {
	if len(staff) == 0 || len(roles) == 0 {
		return []DoctorRef{}
	}

	doctors := make([]DoctorRef, 0, len(staff))
	for _, s := range staff {
		role, ok := lookupRole(roles, s.RoleID)
		if !ok || !isDoctorRole(role.Name) {
			continue
		}
		specialty := DefaultSpecialty
		if dept, ok := lookupDepartment(departments, s.DoctorDepartmentID); ok && dept.Name != "" {
			specialty = dept.Name
		}
		doctors = append(doctors, DoctorRef{
			DoctorID:  s.UserID,
			Name:      s.UserName,
			Specialty: specialty,
			Kind:      doctorKind(s.DoctorType),
		})
	}
	return doctors
}

func lookupRole(roles []Role, id FlexID) (Role, bool) {
	for _, r := range roles {
		if r.ID.Matches(id) {
			return r, true
		}
	}
	return Role{}, false
}

func lookupDepartment(departments []Department, id FlexID) (Department, bool) {
	for _, d := range departments {
		if d.ID.Matches(id) {
			return d, true
		}
	}
	return Department{}, false
}
