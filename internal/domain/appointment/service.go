package appointment

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/careflow/careflow/internal/domain/directory"
	"github.com/careflow/careflow/internal/domain/identity"
	"github.com/careflow/careflow/internal/platform/sequence"
)

const (
	dateLayout = "2006-01-02"
	timeLayout = "15:04"
)

// DoctorDirectory resolves doctors from the derived directory view.
// *directory.Service satisfies it.
type DoctorDirectory interface {
	FindDoctor(ctx context.Context, doctorID int) (*directory.DoctorRef, error)
}

// PatientIntake is the slice of the patient service the engine needs:
// follow-up detection by phone and registration of walk-ins.
// *identity.Service satisfies it.
type PatientIntake interface {
	LookupByPhone(ctx context.Context, phone string) (*identity.PatientRecord, error)
	CreatePatient(ctx context.Context, p *identity.PatientRecord) (*identity.PatientRecord, error)
}

// Service is the appointment workflow engine: token issuance at intake and
// validated state transitions thereafter. Single repository calls are
// serialized by the store itself; mu extends that serialization to the
// read-validate-write span of ApplyUpdate, so two concurrent patches cannot
// both act on the same pre-patch state.
type Service struct {
	mu         sync.Mutex
	repo       Repository
	seq        sequence.Source
	doctors    DoctorDirectory
	patients   PatientIntake
	retryLimit int
	log        zerolog.Logger
}

func NewService(repo Repository, seq sequence.Source, doctors DoctorDirectory, patients PatientIntake, retryLimit int, log zerolog.Logger) *Service {
	if retryLimit <= 0 {
		retryLimit = 5
	}
	return &Service{repo: repo, seq: seq, doctors: doctors, patients: patients, retryLimit: retryLimit, log: log}
}

// IssueTokenRequest is the front-desk intake form.
type IssueTokenRequest struct {
	PatientName        string  `json:"patientName"`
	PatientPhone       string  `json:"patientPhone"`
	DoctorID           int     `json:"doctorId"`
	Date               string  `json:"date"`
	Time               string  `json:"time"`
	ConsultationCharge float64 `json:"consultationCharge"`
}

func (r IssueTokenRequest) validate() error {
	err := validation.ValidateStruct(&r,
		validation.Field(&r.PatientName, validation.Required),
		validation.Field(&r.PatientPhone, validation.Required),
		validation.Field(&r.DoctorID, validation.Required),
		validation.Field(&r.Date, validation.Required, validation.Date(dateLayout)),
		validation.Field(&r.Time, validation.Required, validation.Date(timeLayout)),
		validation.Field(&r.ConsultationCharge, validation.Min(0.0)),
	)
	return toValidationError(err)
}

// IssueTokenResult carries the registered appointment and its token.
type IssueTokenResult struct {
	Token       *Token       `json:"token"`
	Appointment *Appointment `json:"appointment"`
	IsFollowUp  bool         `json:"isFollowUp"`
}

// IssueToken registers a walk-in: it resolves the doctor, runs the phone
// lookup that decides first-visit vs follow-up, allocates a unique token
// number, and commits the Waiting appointment together with its token.
func (s *Service) IssueToken(ctx context.Context, req IssueTokenRequest) (*IssueTokenResult, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}

	doctor, err := s.doctors.FindDoctor(ctx, req.DoctorID)
	if err != nil {
		if errors.Is(err, directory.ErrNotFound) {
			return nil, fmt.Errorf("doctor %d: %w", req.DoctorID, ErrNotFound)
		}
		return nil, err
	}

	// The lookup decides follow-up semantics, so it must resolve (or time
	// out) before issuance proceeds. A timeout surfaces as not-found.
	patientName := req.PatientName
	isFollowUp := false
	var patientID string
	existing, err := s.patients.LookupByPhone(ctx, req.PatientPhone)
	switch {
	case err == nil:
		isFollowUp = true
		patientID = existing.PatientID
		if name := existing.FullName(); name != "" {
			patientName = name
		}
	case errors.Is(err, identity.ErrNotFound):
		created, err := s.patients.CreatePatient(ctx, &identity.PatientRecord{
			PatientID: uuid.NewString(),
			GivenName: req.PatientName,
			Phone:     req.PatientPhone,
		})
		if err != nil {
			return nil, fmt.Errorf("register walk-in patient: %w", err)
		}
		patientID = created.PatientID
	default:
		return nil, err
	}

	now := time.Now().UTC()
	appt := &Appointment{
		PatientID:          patientID,
		PatientName:        patientName,
		DoctorID:           req.DoctorID,
		Date:               req.Date,
		Time:               req.Time,
		Status:             StatusWaiting,
		ConsultationCharge: req.ConsultationCharge,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	token := &Token{
		PatientName:  patientName,
		PatientPhone: req.PatientPhone,
		DoctorID:     doctor.DoctorID,
		DoctorName:   doctor.Name,
		IssueTime:    now,
		Status:       StatusWaiting,
		IsFollowUp:   isFollowUp,
	}
	err = s.allocateAndCommit(ctx, now, func(tokenNo string) error {
		appt.ID = uuid.NewString()
		appt.TokenNo = tokenNo
		token.TokenNumber = tokenNo
		return s.repo.CreateWithToken(ctx, appt, token)
	})
	if err != nil {
		return nil, err
	}
	s.log.Info().Str("token", appt.TokenNo).Str("patient", patientID).
		Int("doctor", req.DoctorID).Bool("follow_up", isFollowUp).Msg("token issued")
	return &IssueTokenResult{Token: token, Appointment: appt, IsFollowUp: isFollowUp}, nil
}

// allocateAndCommit draws date-scoped token numbers until commit succeeds or
// the attempt budget is spent. A CollisionError from commit means the number
// was claimed between the pre-check and the write, and counts as one more
// attempt; exhaustion is reported to the caller as a ValidationError.
func (s *Service) allocateAndCommit(ctx context.Context, day time.Time, commit func(tokenNo string) error) error {
	var lastErr error
	for attempt := 0; attempt < s.retryLimit; attempt++ {
		n, err := s.seq.Next(ctx, day)
		if err != nil {
			return fmt.Errorf("token sequence: %w", err)
		}
		tokenNo := fmt.Sprintf("T-%s-%04d", day.Format("20060102"), n)
		inUse, err := s.repo.TokenNoInUse(ctx, tokenNo)
		if err != nil {
			return err
		}
		if inUse {
			lastErr = &CollisionError{Value: tokenNo}
			s.log.Warn().Str("token", tokenNo).Int("attempt", attempt+1).Msg("token number collision, retrying")
			continue
		}
		err = commit(tokenNo)
		var cerr *CollisionError
		if errors.As(err, &cerr) {
			lastErr = cerr
			s.log.Warn().Str("token", cerr.Value).Int("attempt", attempt+1).Msg("token number collision on commit, retrying")
			continue
		}
		return err
	}
	return &ValidationError{Field: "tokenNumber",
		Reason: fmt.Sprintf("could not allocate a unique token after %d attempts: %v", s.retryLimit, lastErr)}
}

// Patch is a partial appointment update. Nil fields are left untouched.
type Patch struct {
	Status               *Status         `json:"status"`
	Date                 *string         `json:"date"`
	Time                 *string         `json:"time"`
	ConsultationCharge   *float64        `json:"consultationCharge"`
	Diagnosis            *string         `json:"diagnosis"`
	FollowUpDetails      *string         `json:"followUpDetails"`
	PrescriptionsURL     *string         `json:"prescriptionsUrl"`
	ToBeAdmitted         *bool           `json:"toBeAdmitted"`
	ReferToAnotherDoctor *bool           `json:"referToAnotherDoctor"`
	ReferredDoctorID     *int            `json:"referredDoctorId"`
	TransferToWard       *bool           `json:"transferToWard"`
	TransferTarget       *TransferTarget `json:"transferTarget"`
	TransferDetails      *string         `json:"transferDetails"`
	BillID               *string         `json:"billId"`
}

func (p Patch) applyTo(a *Appointment) {
	if p.Status != nil {
		a.Status = *p.Status
	}
	if p.Date != nil {
		a.Date = *p.Date
	}
	if p.Time != nil {
		a.Time = *p.Time
	}
	if p.ConsultationCharge != nil {
		a.ConsultationCharge = *p.ConsultationCharge
	}
	if p.Diagnosis != nil {
		a.Diagnosis = *p.Diagnosis
	}
	if p.FollowUpDetails != nil {
		a.FollowUpDetails = *p.FollowUpDetails
	}
	if p.PrescriptionsURL != nil {
		a.PrescriptionsURL = *p.PrescriptionsURL
	}
	if p.ToBeAdmitted != nil {
		a.ToBeAdmitted = *p.ToBeAdmitted
	}
	if p.ReferToAnotherDoctor != nil {
		a.ReferToAnotherDoctor = *p.ReferToAnotherDoctor
	}
	if p.ReferredDoctorID != nil {
		a.ReferredDoctorID = *p.ReferredDoctorID
	}
	if p.TransferToWard != nil {
		a.TransferToWard = *p.TransferToWard
	}
	if p.TransferTarget != nil {
		a.TransferTarget = *p.TransferTarget
	}
	if p.TransferDetails != nil {
		a.TransferDetails = *p.TransferDetails
	}
	if p.BillID != nil {
		a.BillID = *p.BillID
	}
}

// validateState checks the full post-patch record. It runs before any write,
// so a rejected patch leaves the store untouched.
func validateState(a *Appointment) error {
	err := validation.ValidateStruct(a,
		validation.Field(&a.PatientID, validation.Required),
		validation.Field(&a.Date, validation.Required, validation.Date(dateLayout)),
		validation.Field(&a.Time, validation.Required, validation.Date(timeLayout)),
		validation.Field(&a.ConsultationCharge, validation.Min(0.0)),
	)
	if err = toValidationError(err); err != nil {
		return err
	}
	if !a.Status.Valid() {
		return &ValidationError{Field: "status", Reason: fmt.Sprintf("unknown status %q", a.Status)}
	}
	if a.ReferToAnotherDoctor != (a.ReferredDoctorID != 0) {
		return &ValidationError{Field: "referredDoctorId",
			Reason: "referredDoctorId must be set exactly when referToAnotherDoctor is true"}
	}
	if a.TransferToWard != (a.TransferTarget != "") {
		return &ValidationError{Field: "transferTarget",
			Reason: "transferTarget must be set exactly when transferToWard is true"}
	}
	if a.TransferTarget != "" && !a.TransferTarget.Valid() {
		return &ValidationError{Field: "transferTarget",
			Reason: fmt.Sprintf("unknown transfer destination %q", a.TransferTarget)}
	}
	return nil
}

func toValidationError(err error) error {
	if err == nil {
		return nil
	}
	var verrs validation.Errors
	if errors.As(err, &verrs) {
		for field, ferr := range verrs {
			return &ValidationError{Field: field, Reason: ferr.Error()}
		}
	}
	return err
}

// ApplyUpdate validates and applies a state transition. The patch is applied
// to a copy; the store is only written once the full post-patch record
// passes validation. A referral completes the current appointment and spawns
// a sibling Waiting appointment for the referred doctor as one unit. The
// whole read-validate-write span runs under the mutation lock, so concurrent
// patches are applied one at a time and each sees the previous one's commit.
func (s *Service) ApplyUpdate(ctx context.Context, id string, patch Patch) (*Appointment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := s.repo.GetAppointment(ctx, id)
	if err != nil {
		return nil, err
	}

	next := *current
	patch.applyTo(&next)
	referralTriggered := next.ReferToAnotherDoctor && !current.ReferToAnotherDoctor
	if referralTriggered {
		// Referral forces completion of the original.
		next.Status = StatusCompleted
	}
	if err := validateState(&next); err != nil {
		return nil, err
	}
	if statusRank[next.Status] < statusRank[current.Status] {
		return nil, &ValidationError{Field: "status",
			Reason: fmt.Sprintf("cannot move back from %s to %s", current.Status, next.Status)}
	}
	next.UpdatedAt = time.Now().UTC()

	if referralTriggered {
		if err := s.applyReferral(ctx, current, &next); err != nil {
			return nil, err
		}
	} else {
		if err := s.repo.UpdateAppointment(ctx, &next); err != nil {
			return nil, err
		}
	}

	if next.Status != current.Status {
		s.mirrorTokenStatus(ctx, next.TokenNo, next.Status)
	}
	return &next, nil
}

// applyReferral validates the referred doctor and commits the completed
// original plus the sibling Waiting appointment together. The sibling
// carries the patient but not the charge, diagnosis, or flags.
func (s *Service) applyReferral(ctx context.Context, current, next *Appointment) error {
	doctor, err := s.doctors.FindDoctor(ctx, next.ReferredDoctorID)
	if err != nil {
		if errors.Is(err, directory.ErrNotFound) {
			return &ValidationError{Field: "referredDoctorId",
				Reason: fmt.Sprintf("doctor %d is not in the directory", next.ReferredDoctorID)}
		}
		return err
	}

	now := time.Now().UTC()
	sibling := &Appointment{
		PatientID:   next.PatientID,
		PatientName: next.PatientName,
		DoctorID:    doctor.DoctorID,
		Date:        next.Date,
		Time:        next.Time,
		Status:      StatusWaiting,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	err = s.allocateAndCommit(ctx, now, func(tokenNo string) error {
		sibling.ID = uuid.NewString()
		sibling.TokenNo = tokenNo
		return s.repo.ApplyReferral(ctx, next, sibling)
	})
	if err != nil {
		return err
	}
	s.log.Info().Str("appointment", current.ID).Str("sibling", sibling.ID).
		Int("referred_doctor", doctor.DoctorID).Msg("referral applied")
	return nil
}

// mirrorTokenStatus keeps the token's status in step with its appointment.
// Appointments created by referral have no token artifact; that is not an
// error.
func (s *Service) mirrorTokenStatus(ctx context.Context, tokenNo string, status Status) {
	if err := s.repo.UpdateTokenStatus(ctx, tokenNo, status); err != nil && !errors.Is(err, ErrNotFound) {
		s.log.Error().Err(err).Str("token", tokenNo).Msg("failed to mirror token status")
	}
}

func (s *Service) Get(ctx context.Context, id string) (*Appointment, error) {
	return s.repo.GetAppointment(ctx, id)
}

func (s *Service) List(ctx context.Context) ([]*Appointment, error) {
	return s.repo.ListAppointments(ctx)
}

// ListByStatus filters the store in creation order. The filter runs against
// the latest committed state on every call.
func (s *Service) ListByStatus(ctx context.Context, status Status) ([]*Appointment, error) {
	if !status.Valid() {
		return nil, &ValidationError{Field: "status", Reason: fmt.Sprintf("unknown status %q", status)}
	}
	all, err := s.repo.ListAppointments(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]*Appointment, 0, len(all))
	for _, a := range all {
		if a.Status == status {
			out = append(out, a)
		}
	}
	return out, nil
}

func (s *Service) ListTokens(ctx context.Context) ([]*Token, error) {
	return s.repo.ListTokens(ctx)
}

// Delete removes an appointment outright. It is administrative and
// irreversible, distinct from a status change.
func (s *Service) Delete(ctx context.Context, id string) error {
	return s.repo.DeleteAppointment(ctx, id)
}
