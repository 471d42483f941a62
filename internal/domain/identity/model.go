package identity

import "time"

// Patient statuses. Error marks a record substituted for a source element
// that could not be normalized.
const (
	StatusActive   = "Active"
	StatusInactive = "Inactive"
	StatusError    = "Error"
)

// PatientRecord is the canonical patient shape every other component operates
// on. Raw source records arrive with inconsistent field-name casing and
// optional identifiers; NormalizePatient resolves them into this struct.
type PatientRecord struct {
	PatientID     string    `json:"patient_id"`
	PatientNumber string    `json:"patient_number,omitempty"`
	Key           string    `json:"key,omitempty"`
	GivenName     string    `json:"given_name"`
	FamilyName    string    `json:"family_name,omitempty"`
	Phone         string    `json:"phone,omitempty"`
	Age           int       `json:"age,omitempty"`
	Gender        string    `json:"gender,omitempty"`
	Address       string    `json:"address,omitempty"`
	Complaint     string    `json:"complaint,omitempty"`
	Status        string    `json:"status"`
	RegisteredBy  string    `json:"registered_by,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// FullName joins the given and family names for display.
func (p *PatientRecord) FullName() string {
	if p.FamilyName == "" {
		return p.GivenName
	}
	if p.GivenName == "" {
		return p.FamilyName
	}
	return p.GivenName + " " + p.FamilyName
}
