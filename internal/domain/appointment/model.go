package appointment

import "time"

// Status is the appointment lifecycle state. Transitions only move forward;
// a referral forces Completed.
type Status string

const (
	StatusWaiting    Status = "Waiting"
	StatusConsulting Status = "Consulting"
	StatusCompleted  Status = "Completed"
)

func (s Status) Valid() bool {
	switch s {
	case StatusWaiting, StatusConsulting, StatusCompleted:
		return true
	}
	return false
}

var statusRank = map[Status]int{
	StatusWaiting:    0,
	StatusConsulting: 1,
	StatusCompleted:  2,
}

// TransferTarget is a ward-admission destination. The engine records the
// intent; the admission itself is performed downstream.
type TransferTarget string

const (
	TargetIPD TransferTarget = "IPD Room Admission"
	TargetICU TransferTarget = "ICU"
	TargetOT  TransferTarget = "OT"
)

func (t TransferTarget) Valid() bool {
	switch t {
	case TargetIPD, TargetICU, TargetOT:
		return true
	}
	return false
}

// Appointment is the clinical encounter record. The referral and transfer
// fields are kept flat for the wire shape; Disposition derives the tagged
// form for engine code.
type Appointment struct {
	ID                   string         `json:"id"`
	TokenNo              string         `json:"tokenNo"`
	PatientID            string         `json:"patientId"`
	PatientName          string         `json:"patientName"`
	DoctorID             int            `json:"doctorId"`
	Date                 string         `json:"date"`
	Time                 string         `json:"time"`
	Status               Status         `json:"status"`
	ConsultationCharge   float64        `json:"consultationCharge"`
	Diagnosis            string         `json:"diagnosis,omitempty"`
	FollowUpDetails      string         `json:"followUpDetails,omitempty"`
	PrescriptionsURL     string         `json:"prescriptionsUrl,omitempty"`
	ToBeAdmitted         bool           `json:"toBeAdmitted"`
	ReferToAnotherDoctor bool           `json:"referToAnotherDoctor"`
	ReferredDoctorID     int            `json:"referredDoctorId,omitempty"`
	TransferToWard       bool           `json:"transferToWard"`
	TransferTarget       TransferTarget `json:"transferTarget,omitempty"`
	TransferDetails      string         `json:"transferDetails,omitempty"`
	BillID               string         `json:"billId,omitempty"`
	CreatedAt            time.Time      `json:"createdAt"`
	UpdatedAt            time.Time      `json:"updatedAt"`
}

// DispositionKind tags the outcome recorded on a completed consultation.
type DispositionKind string

const (
	DispositionNone     DispositionKind = "none"
	DispositionReferral DispositionKind = "referral"
	DispositionTransfer DispositionKind = "transfer"
)

// Disposition is the tagged view of the flat referral/transfer fields. Only
// one variant can be active at a time, which the flat shape cannot enforce
// on its own.
type Disposition struct {
	Kind             DispositionKind
	ReferredDoctorID int
	Target           TransferTarget
	Details          string
}

func (a *Appointment) Disposition() Disposition {
	switch {
	case a.ReferToAnotherDoctor:
		return Disposition{Kind: DispositionReferral, ReferredDoctorID: a.ReferredDoctorID}
	case a.TransferToWard:
		return Disposition{Kind: DispositionTransfer, Target: a.TransferTarget, Details: a.TransferDetails}
	default:
		return Disposition{Kind: DispositionNone}
	}
}

// Token is the visit ticket issued at intake, one-to-one with the
// originating appointment. Its status mirrors the appointment's.
type Token struct {
	TokenNumber  string    `json:"tokenNumber"`
	PatientName  string    `json:"patientName"`
	PatientPhone string    `json:"patientPhone"`
	DoctorID     int       `json:"doctorId"`
	DoctorName   string    `json:"doctorName"`
	IssueTime    time.Time `json:"issueTime"`
	Status       Status    `json:"status"`
	IsFollowUp   bool      `json:"isFollowUp"`
}
