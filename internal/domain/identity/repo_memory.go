package identity

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// memoryRepo is the in-process patient store. All mutations are serialized
// behind one mutex; reads return copies so callers cannot mutate shared state.
// Insertion order is preserved for List.
type memoryRepo struct {
	mu      sync.RWMutex
	byID    map[string]*PatientRecord
	ordered []string
}

func NewMemoryRepo() PatientRepository {
	return &memoryRepo{byID: make(map[string]*PatientRecord)}
}

func (r *memoryRepo) Create(_ context.Context, p *PatientRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p.PatientID == "" {
		return fmt.Errorf("patient_id is required")
	}
	if _, exists := r.byID[p.PatientID]; exists {
		return fmt.Errorf("patient %s already exists", p.PatientID)
	}
	now := time.Now()
	p.CreatedAt = now
	p.UpdatedAt = now
	cp := *p
	r.byID[p.PatientID] = &cp
	r.ordered = append(r.ordered, p.PatientID)
	return nil
}

func (r *memoryRepo) GetByID(_ context.Context, id string) (*PatientRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *memoryRepo) FindByPhone(ctx context.Context, phone string) (*PatientRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, id := range r.ordered {
		p := r.byID[id]
		if p.Phone != "" && p.Phone == phone {
			cp := *p
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (r *memoryRepo) List(_ context.Context, limit, offset int) ([]*PatientRecord, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	total := len(r.ordered)
	if offset >= total {
		return nil, total, nil
	}
	end := offset + limit
	if limit <= 0 || end > total {
		end = total
	}
	out := make([]*PatientRecord, 0, end-offset)
	for _, id := range r.ordered[offset:end] {
		cp := *r.byID[id]
		out = append(out, &cp)
	}
	return out, total, nil
}

func (r *memoryRepo) Update(_ context.Context, p *PatientRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.byID[p.PatientID]
	if !ok {
		return ErrNotFound
	}
	p.CreatedAt = existing.CreatedAt
	p.UpdatedAt = time.Now()
	cp := *p
	r.byID[p.PatientID] = &cp
	return nil
}

func (r *memoryRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[id]; !ok {
		return ErrNotFound
	}
	delete(r.byID, id)
	for i, existing := range r.ordered {
		if existing == id {
			r.ordered = append(r.ordered[:i], r.ordered[i+1:]...)
			break
		}
	}
	return nil
}
