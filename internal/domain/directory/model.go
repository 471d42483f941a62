package directory

import (
	"encoding/json"
	"strconv"
	"strings"
)

// FlexID is an identifier that upstream catalogs serialize inconsistently:
// the same department key may arrive as a JSON string or a JSON number.
// It keeps the raw text form and compares both lexically and numerically.
type FlexID string

func (f *FlexID) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*f = FlexID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = FlexID(n.String())
	return nil
}

func (f FlexID) MarshalJSON() ([]byte, error) {
	return json.Marshal(string(f))
}

// Matches reports identity against another flexible key. String equality is
// attempted first; when both sides parse as integers they are also compared
// numerically, so "07" and 7 refer to the same department.
func (f FlexID) Matches(other FlexID) bool {
	if f == "" || other == "" {
		return f == other && f != ""
	}
	if string(f) == string(other) {
		return true
	}
	a, errA := strconv.ParseInt(string(f), 10, 64)
	b, errB := strconv.ParseInt(string(other), 10, 64)
	return errA == nil && errB == nil && a == b
}

func (f FlexID) String() string { return string(f) }

// StaffMember is the raw staff catalog row as the upstream system emits it.
type StaffMember struct {
	UserID             int    `json:"userId"`
	UserName           string `json:"userName"`
	RoleID             FlexID `json:"roleId"`
	DoctorDepartmentID FlexID `json:"doctorDepartmentId"`
	DoctorType         string `json:"doctorType"`
}

// Role is the raw role catalog row.
type Role struct {
	ID   FlexID `json:"id"`
	Name string `json:"name"`
}

// Department is the raw department catalog row.
type Department struct {
	ID   FlexID `json:"id"`
	Name string `json:"name"`
}

// Doctor kinds.
const (
	KindInhouse    = "inhouse"
	KindConsulting = "consulting"
)

const DefaultSpecialty = "General"

// DoctorRef is the derived doctor entry. It is recomputed from the catalogs
// on every read and never stored.
type DoctorRef struct {
	DoctorID  int    `json:"doctorId"`
	Name      string `json:"name"`
	Specialty string `json:"specialty"`
	Kind      string `json:"kind"`
}

// isDoctorRole reports whether a role name denotes a doctor. The upstream
// role catalog is free-text, so substring matching is intentional.
func isDoctorRole(name string) bool {
	n := strings.ToLower(name)
	return strings.Contains(n, "doctor") || strings.Contains(n, "surgeon")
}

func doctorKind(doctorType string) string {
	if strings.EqualFold(strings.TrimSpace(doctorType), KindInhouse) {
		return KindInhouse
	}
	return KindConsulting
}
