package identity

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

type mockPatientRepo struct {
	patients map[string]*PatientRecord
	order    []string

	findByPhoneDelay time.Duration
	failCreateFor    string
}

func newMockPatientRepo() *mockPatientRepo {
	return &mockPatientRepo{patients: make(map[string]*PatientRecord)}
}

func (m *mockPatientRepo) Create(_ context.Context, p *PatientRecord) error {
	if m.failCreateFor != "" && p.PatientID == m.failCreateFor {
		return errors.New("storage unavailable")
	}
	cp := *p
	m.patients[p.PatientID] = &cp
	m.order = append(m.order, p.PatientID)
	return nil
}

func (m *mockPatientRepo) GetByID(_ context.Context, id string) (*PatientRecord, error) {
	p, ok := m.patients[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *mockPatientRepo) FindByPhone(ctx context.Context, phone string) (*PatientRecord, error) {
	if m.findByPhoneDelay > 0 {
		select {
		case <-time.After(m.findByPhoneDelay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	for _, id := range m.order {
		if m.patients[id].Phone == phone {
			cp := *m.patients[id]
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (m *mockPatientRepo) List(_ context.Context, limit, offset int) ([]*PatientRecord, int, error) {
	var items []*PatientRecord
	for i := offset; i < len(m.order) && len(items) < limit; i++ {
		cp := *m.patients[m.order[i]]
		items = append(items, &cp)
	}
	return items, len(m.order), nil
}

func (m *mockPatientRepo) Update(_ context.Context, p *PatientRecord) error {
	if _, ok := m.patients[p.PatientID]; !ok {
		return ErrNotFound
	}
	cp := *p
	m.patients[p.PatientID] = &cp
	return nil
}

func (m *mockPatientRepo) Delete(_ context.Context, id string) error {
	if _, ok := m.patients[id]; !ok {
		return ErrNotFound
	}
	delete(m.patients, id)
	for i, oid := range m.order {
		if oid == id {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	return nil
}

type stubRefChecker struct {
	referenced map[string]bool
}

func (s *stubRefChecker) AnyForPatient(_ context.Context, patientID string) (bool, error) {
	return s.referenced[patientID], nil
}

func newTestService(repo PatientRepository, deadline time.Duration) *Service {
	return NewService(repo, nil, deadline, zerolog.Nop())
}

func TestImportBatchPersistsAllElements(t *testing.T) {
	repo := newMockPatientRepo()
	svc := newTestService(repo, time.Second)

	res, err := svc.ImportBatch(context.Background(), []map[string]interface{}{
		{"patientId": "P-1", "firstName": "Asha", "lastName": "Rao", "phone": "9876543210"},
		{"patientId": "P-2", "age": "bad"}, // malformed
		{"PatientId": "P-3", "FirstName": "Vikram"},
	})
	if err != nil {
		t.Fatalf("ImportBatch: %v", err)
	}
	if len(res.Imported) != 3 {
		t.Fatalf("imported %d records, want 3", len(res.Imported))
	}
	if len(res.Diagnostics) != 1 {
		t.Errorf("diagnostics = %d, want 1", len(res.Diagnostics))
	}
	if _, err := repo.GetByID(context.Background(), "UNREG-1"); err != nil {
		t.Errorf("placeholder for malformed element not persisted: %v", err)
	}
}

func TestImportBatchRewritesDuplicatePatientID(t *testing.T) {
	repo := newMockPatientRepo()
	svc := newTestService(repo, time.Second)

	res, err := svc.ImportBatch(context.Background(), []map[string]interface{}{
		{"patientId": "P-100", "firstName": "Asha"},
		{"patientId": "P-100", "firstName": "Asha", "lastName": "Rao"},
		{"patientId": "P-200", "firstName": "Vikram"},
	})
	if err != nil {
		t.Fatalf("ImportBatch: %v", err)
	}
	if len(res.Imported) != 3 {
		t.Fatalf("imported %d records, want 3", len(res.Imported))
	}
	seen := make(map[string]bool)
	for _, rec := range res.Imported {
		if seen[rec.PatientID] {
			t.Errorf("patientId %q imported twice", rec.PatientID)
		}
		seen[rec.PatientID] = true
	}
	if got := res.Imported[1].PatientID; got != "P-100#1" {
		t.Errorf("second colliding record has patientId %q, want P-100#1", got)
	}
	if len(repo.order) != 3 {
		t.Errorf("persisted %d records, want 3", len(repo.order))
	}
	var dupDiags int
	for _, d := range res.Diagnostics {
		if d.Kind == "duplicate-key" {
			dupDiags++
		}
	}
	if dupDiags == 0 {
		t.Error("no duplicate-key diagnostic reported for the collision")
	}
}

func TestImportBatchPersistenceFailureIsIsolated(t *testing.T) {
	repo := newMockPatientRepo()
	repo.failCreateFor = "P-2"
	svc := newTestService(repo, time.Second)

	res, err := svc.ImportBatch(context.Background(), []map[string]interface{}{
		{"patientId": "P-1", "firstName": "Asha"},
		{"patientId": "P-2", "firstName": "Leena"},
		{"patientId": "P-3", "firstName": "Vikram"},
	})
	if err != nil {
		t.Fatalf("ImportBatch: %v", err)
	}
	if len(res.Imported) != 3 {
		t.Fatalf("imported %d records, want 3", len(res.Imported))
	}
	if _, err := repo.GetByID(context.Background(), "P-1"); err != nil {
		t.Errorf("P-1 not persisted: %v", err)
	}
	if _, err := repo.GetByID(context.Background(), "P-3"); err != nil {
		t.Errorf("P-3 not persisted despite earlier failure: %v", err)
	}
	if _, err := repo.GetByID(context.Background(), "UNREG-1"); err != nil {
		t.Errorf("placeholder for failed element not persisted: %v", err)
	}
	var persistDiags int
	for _, d := range res.Diagnostics {
		if d.Kind == "persistence" {
			persistDiags++
		}
	}
	if persistDiags != 1 {
		t.Errorf("persistence diagnostics = %d, want 1", persistDiags)
	}
}

func TestLookupByPhoneFollowUp(t *testing.T) {
	repo := newMockPatientRepo()
	svc := newTestService(repo, time.Second)

	seed := &PatientRecord{PatientID: "P-10", GivenName: "Asha", FamilyName: "Rao", Phone: "9876543210"}
	if err := repo.Create(context.Background(), seed); err != nil {
		t.Fatalf("seed: %v", err)
	}

	got, err := svc.LookupByPhone(context.Background(), "9876543210")
	if err != nil {
		t.Fatalf("LookupByPhone: %v", err)
	}
	if got.PatientID != "P-10" {
		t.Errorf("PatientID = %q, want P-10", got.PatientID)
	}
}

func TestLookupByPhoneUnknownNumber(t *testing.T) {
	svc := newTestService(newMockPatientRepo(), time.Second)

	_, err := svc.LookupByPhone(context.Background(), "0000000000")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestLookupByPhoneTimeoutTreatedAsNotFound(t *testing.T) {
	repo := newMockPatientRepo()
	repo.findByPhoneDelay = 200 * time.Millisecond
	if err := repo.Create(context.Background(), &PatientRecord{PatientID: "P-10", GivenName: "Slow", Phone: "9876543210"}); err != nil {
		t.Fatalf("seed: %v", err)
	}
	svc := newTestService(repo, 10*time.Millisecond)

	_, err := svc.LookupByPhone(context.Background(), "9876543210")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound on timeout", err)
	}
}

func TestDeactivate(t *testing.T) {
	repo := newMockPatientRepo()
	svc := newTestService(repo, time.Second)
	if err := repo.Create(context.Background(), &PatientRecord{PatientID: "P-20", GivenName: "Leena", Status: StatusActive}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	got, err := svc.Deactivate(context.Background(), "P-20")
	if err != nil {
		t.Fatalf("Deactivate: %v", err)
	}
	if got.Status != StatusInactive {
		t.Errorf("Status = %q, want %q", got.Status, StatusInactive)
	}
}

func TestDeletePatientRejectedWhileReferenced(t *testing.T) {
	repo := newMockPatientRepo()
	refs := &stubRefChecker{referenced: map[string]bool{"P-30": true}}
	svc := NewService(repo, refs, time.Second, zerolog.Nop())
	if err := repo.Create(context.Background(), &PatientRecord{PatientID: "P-30", GivenName: "Ravi", Status: StatusActive}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	err := svc.DeletePatient(context.Background(), "P-30")
	if !errors.Is(err, ErrReferenced) {
		t.Fatalf("err = %v, want ErrReferenced", err)
	}
	if _, err := repo.GetByID(context.Background(), "P-30"); err != nil {
		t.Errorf("referenced patient was deleted: %v", err)
	}

	// Deactivation stays open as the soft alternative.
	got, err := svc.Deactivate(context.Background(), "P-30")
	if err != nil {
		t.Fatalf("Deactivate: %v", err)
	}
	if got.Status != StatusInactive {
		t.Errorf("Status = %q, want %q", got.Status, StatusInactive)
	}
}

func TestDeletePatientUnreferenced(t *testing.T) {
	repo := newMockPatientRepo()
	refs := &stubRefChecker{referenced: map[string]bool{}}
	svc := NewService(repo, refs, time.Second, zerolog.Nop())
	if err := repo.Create(context.Background(), &PatientRecord{PatientID: "P-31", GivenName: "Mira"}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	if err := svc.DeletePatient(context.Background(), "P-31"); err != nil {
		t.Fatalf("DeletePatient: %v", err)
	}
	if _, err := repo.GetByID(context.Background(), "P-31"); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound after delete", err)
	}
}

func TestCreatePatientRequiresID(t *testing.T) {
	svc := newTestService(newMockPatientRepo(), time.Second)
	_, err := svc.CreatePatient(context.Background(), &PatientRecord{GivenName: "NoID"})
	var nerr *NormalizationError
	if !errors.As(err, &nerr) {
		t.Errorf("err = %v, want NormalizationError", err)
	}
}
