package appointment

import "context"

// Repository persists appointments and tokens. Implementations serialize
// mutations so a read never observes a partially applied multi-record
// change; CreateWithToken and ApplyReferral are each committed as one unit.
type Repository interface {
	CreateAppointment(ctx context.Context, a *Appointment) error
	GetAppointment(ctx context.Context, id string) (*Appointment, error)
	ListAppointments(ctx context.Context) ([]*Appointment, error)
	UpdateAppointment(ctx context.Context, a *Appointment) error
	DeleteAppointment(ctx context.Context, id string) error

	// CreateWithToken registers an intake: the Waiting appointment and its
	// token together.
	CreateWithToken(ctx context.Context, a *Appointment, t *Token) error

	// ApplyReferral commits the completed original and the sibling Waiting
	// appointment as one unit.
	ApplyReferral(ctx context.Context, update *Appointment, sibling *Appointment) error

	GetToken(ctx context.Context, number string) (*Token, error)
	ListTokens(ctx context.Context) ([]*Token, error)
	UpdateTokenStatus(ctx context.Context, number string, status Status) error

	// TokenNoInUse reports whether a token number is already claimed by any
	// appointment or token in the store.
	TokenNoInUse(ctx context.Context, number string) (bool, error)

	// AnyForPatient reports whether any appointment references the patient.
	// The patient service consults it before allowing a hard delete.
	AnyForPatient(ctx context.Context, patientID string) (bool, error)
}
