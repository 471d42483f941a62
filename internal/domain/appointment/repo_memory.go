package appointment

import (
	"context"
	"sync"
)

// memoryRepo is the canonical in-process store. A single lock serializes all
// mutations, so each mutation completes before the next begins and the
// two-record referral commit is atomic by construction. Reads take the
// shared side of the lock and return copies in creation order.
type memoryRepo struct {
	mu           sync.RWMutex
	appointments map[string]*Appointment
	apptOrder    []string
	tokens       map[string]*Token
	tokenOrder   []string
}

func NewMemoryRepo() Repository {
	return &memoryRepo{
		appointments: make(map[string]*Appointment),
		tokens:       make(map[string]*Token),
	}
}

func (r *memoryRepo) CreateAppointment(_ context.Context, a *Appointment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.insertAppointment(a)
}

// insertAppointment requires r.mu held for writing.
func (r *memoryRepo) insertAppointment(a *Appointment) error {
	if _, exists := r.appointments[a.ID]; exists {
		return &CollisionError{Value: a.ID}
	}
	if r.tokenNoInUse(a.TokenNo) {
		return &CollisionError{Value: a.TokenNo}
	}
	cp := *a
	r.appointments[a.ID] = &cp
	r.apptOrder = append(r.apptOrder, a.ID)
	return nil
}

func (r *memoryRepo) GetAppointment(_ context.Context, id string) (*Appointment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.appointments[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (r *memoryRepo) ListAppointments(_ context.Context) ([]*Appointment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Appointment, 0, len(r.apptOrder))
	for _, id := range r.apptOrder {
		cp := *r.appointments[id]
		out = append(out, &cp)
	}
	return out, nil
}

func (r *memoryRepo) UpdateAppointment(_ context.Context, a *Appointment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.appointments[a.ID]; !ok {
		return ErrNotFound
	}
	cp := *a
	r.appointments[a.ID] = &cp
	return nil
}

func (r *memoryRepo) DeleteAppointment(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.appointments[id]; !ok {
		return ErrNotFound
	}
	delete(r.appointments, id)
	for i, oid := range r.apptOrder {
		if oid == id {
			r.apptOrder = append(r.apptOrder[:i], r.apptOrder[i+1:]...)
			break
		}
	}
	return nil
}

func (r *memoryRepo) CreateWithToken(_ context.Context, a *Appointment, t *Token) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.tokens[t.TokenNumber]; exists {
		return &CollisionError{Value: t.TokenNumber}
	}
	if err := r.insertAppointment(a); err != nil {
		return err
	}
	cp := *t
	r.tokens[t.TokenNumber] = &cp
	r.tokenOrder = append(r.tokenOrder, t.TokenNumber)
	return nil
}

func (r *memoryRepo) ApplyReferral(_ context.Context, update *Appointment, sibling *Appointment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.appointments[update.ID]; !ok {
		return ErrNotFound
	}
	if err := r.insertAppointment(sibling); err != nil {
		return err
	}
	cp := *update
	r.appointments[update.ID] = &cp
	return nil
}

func (r *memoryRepo) GetToken(_ context.Context, number string) (*Token, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tokens[number]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (r *memoryRepo) ListTokens(_ context.Context) ([]*Token, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Token, 0, len(r.tokenOrder))
	for _, n := range r.tokenOrder {
		cp := *r.tokens[n]
		out = append(out, &cp)
	}
	return out, nil
}

func (r *memoryRepo) UpdateTokenStatus(_ context.Context, number string, status Status) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tokens[number]
	if !ok {
		return ErrNotFound
	}
	t.Status = status
	return nil
}

func (r *memoryRepo) AnyForPatient(_ context.Context, patientID string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, a := range r.appointments {
		if a.PatientID == patientID {
			return true, nil
		}
	}
	return false, nil
}

func (r *memoryRepo) TokenNoInUse(_ context.Context, number string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.tokenNoInUse(number), nil
}

// tokenNoInUse requires r.mu held.
func (r *memoryRepo) tokenNoInUse(number string) bool {
	if _, ok := r.tokens[number]; ok {
		return true
	}
	for _, a := range r.appointments {
		if a.TokenNo == number {
			return true
		}
	}
	return false
}
