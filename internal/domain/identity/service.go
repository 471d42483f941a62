package identity

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// ReferenceChecker reports whether any appointment still references a
// patient. The appointment repository satisfies it.
type ReferenceChecker interface {
	AnyForPatient(ctx context.Context, patientID string) (bool, error)
}

// Service owns patient intake and lookup. Batch import normalizes raw
// registration payloads before they reach the repository; single-record
// operations expect already-normalized input.
type Service struct {
	repo          PatientRepository
	refs          ReferenceChecker
	phoneDeadline time.Duration
	log           zerolog.Logger
}

// NewService builds the patient service. refs may be nil when no appointment
// store exists to consult; the hard-delete guard is then skipped.
func NewService(repo PatientRepository, refs ReferenceChecker, phoneDeadline time.Duration, log zerolog.Logger) *Service {
	return &Service{repo: repo, refs: refs, phoneDeadline: phoneDeadline, log: log}
}

// ImportResult reports a completed batch import. Every element of the
// input batch is accounted for: accepted records plus one diagnostic per
// malformed or colliding element.
type ImportResult struct {
	Imported    []*PatientRecord `json:"imported"`
	Diagnostics []Diagnostic     `json:"diagnostics,omitempty"`
}

// ImportBatch normalizes and persists a batch of raw registration records.
// No single element aborts the batch: a malformed or unpersistable element
// is replaced by a marked placeholder and reported in the diagnostics, and
// the remainder keeps flowing.
func (s *Service) ImportBatch(ctx context.Context, raw []map[string]interface{}) (*ImportResult, error) {
	records, diags := NormalizeBatch(raw)
	for _, d := range diags {
		s.log.Warn().Int("index", d.Index).Str("kind", d.Kind).Msg(d.Message)
	}
	res := &ImportResult{Diagnostics: diags}
	for i, rec := range records {
		if err := s.repo.Create(ctx, rec); err != nil {
			d := Diagnostic{Index: i, Kind: "persistence",
				Message: fmt.Sprintf("record %q not persisted: %v", rec.PatientID, err)}
			res.Diagnostics = append(res.Diagnostics, d)
			s.log.Warn().Int("index", d.Index).Str("kind", d.Kind).Msg(d.Message)
			placeholder := errorPlaceholder(i)
			if err := s.repo.Create(ctx, placeholder); err != nil {
				continue
			}
			res.Imported = append(res.Imported, placeholder)
			continue
		}
		res.Imported = append(res.Imported, rec)
	}
	s.log.Info().Int("count", len(res.Imported)).Int("diagnostics", len(res.Diagnostics)).Msg("patient batch imported")
	return res, nil
}

func (s *Service) CreatePatient(ctx context.Context, p *PatientRecord) (*PatientRecord, error) {
	if p.PatientID == "" {
		return nil, &NormalizationError{Reason: "patientId is required"}
	}
	now := time.Now().UTC()
	p.CreatedAt, p.UpdatedAt = now, now
	if p.Status == "" {
		p.Status = StatusActive
	}
	if p.Key == "" {
		if p.PatientNumber != "" {
			p.Key = p.PatientNumber
		} else {
			p.Key = p.PatientID
		}
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Service) GetPatient(ctx context.Context, id string) (*PatientRecord, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) ListPatients(ctx context.Context, limit, offset int) ([]*PatientRecord, int, error) {
	return s.repo.List(ctx, limit, offset)
}

func (s *Service) UpdatePatient(ctx context.Context, p *PatientRecord) (*PatientRecord, error) {
	p.UpdatedAt = time.Now().UTC()
	if err := s.repo.Update(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// DeletePatient hard-deletes a patient record. A patient still referenced by
// an appointment cannot be deleted, only deactivated.
func (s *Service) DeletePatient(ctx context.Context, id string) error {
	if s.refs != nil {
		referenced, err := s.refs.AnyForPatient(ctx, id)
		if err != nil {
			return err
		}
		if referenced {
			return fmt.Errorf("patient %s: %w", id, ErrReferenced)
		}
	}
	return s.repo.Delete(ctx, id)
}

func (s *Service) Deactivate(ctx context.Context, id string) (*PatientRecord, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	p.Status = StatusInactive
	p.UpdatedAt = time.Now().UTC()
	if err := s.repo.Update(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// LookupByPhone finds the earliest-registered patient carrying the given
// phone number. The lookup is time-boxed: when the repository cannot answer
// within the configured deadline the caller is told "not found" rather than
// being blocked, so front-desk intake keeps moving.
func (s *Service) LookupByPhone(ctx context.Context, phone string) (*PatientRecord, error) {
	if phone == "" {
		return nil, ErrNotFound
	}
	ctx, cancel := context.WithTimeout(ctx, s.phoneDeadline)
	defer cancel()
	p, err := s.repo.FindByPhone(ctx, phone)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			s.log.Warn().Str("phone", phone).Msg("phone lookup timed out, treating as unregistered")
			return nil, ErrNotFound
		}
		return nil, err
	}
	return p, nil
}
