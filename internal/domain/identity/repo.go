package identity

import "context"

// PatientRepository is the persistence contract the identity service depends
// on. Not-found is surfaced as ErrNotFound, distinct from other failures.
type PatientRepository interface {
	Create(ctx context.Context, p *PatientRecord) error
	GetByID(ctx context.Context, id string) (*PatientRecord, error)
	FindByPhone(ctx context.Context, phone string) (*PatientRecord, error)
	List(ctx context.Context, limit, offset int) ([]*PatientRecord, int, error)
	Update(ctx context.Context, p *PatientRecord) error
	Delete(ctx context.Context, id string) error
}
