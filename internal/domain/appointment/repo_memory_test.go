package appointment

import (
	"context"
	"errors"
	"sync"
	"testing"
)

func TestApplyReferralNeverObservedPartially(t *testing.T) {
	repo := NewMemoryRepo()
	ctx := context.Background()

	orig := &Appointment{ID: "a1", TokenNo: "T-1", PatientID: "P-1",
		Date: "2026-08-30", Time: "10:00", Status: StatusConsulting}
	if err := repo.CreateAppointment(ctx, orig); err != nil {
		t.Fatalf("seed: %v", err)
	}

	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-done:
				return
			default:
			}
			all, err := repo.ListAppointments(ctx)
			if err != nil {
				t.Errorf("ListAppointments: %v", err)
				return
			}
			if len(all) == 2 && all[0].Status != StatusCompleted {
				t.Error("observed sibling before the original was completed")
				return
			}
		}
	}()

	update := *orig
	update.Status = StatusCompleted
	update.ReferToAnotherDoctor = true
	update.ReferredDoctorID = 101
	sibling := &Appointment{ID: "a2", TokenNo: "T-2", PatientID: "P-1",
		DoctorID: 101, Date: "2026-08-30", Time: "10:00", Status: StatusWaiting}
	if err := repo.ApplyReferral(ctx, &update, sibling); err != nil {
		t.Fatalf("ApplyReferral: %v", err)
	}
	close(done)
	wg.Wait()

	all, _ := repo.ListAppointments(ctx)
	if len(all) != 2 {
		t.Fatalf("store has %d appointments, want 2", len(all))
	}
}

func TestCreateAppointmentRejectsDuplicateTokenNo(t *testing.T) {
	repo := NewMemoryRepo()
	ctx := context.Background()

	if err := repo.CreateAppointment(ctx, &Appointment{ID: "a1", TokenNo: "T-1", PatientID: "P-1"}); err != nil {
		t.Fatalf("first create: %v", err)
	}
	err := repo.CreateAppointment(ctx, &Appointment{ID: "a2", TokenNo: "T-1", PatientID: "P-2"})
	var cerr *CollisionError
	if !errors.As(err, &cerr) {
		t.Fatalf("err = %v, want CollisionError", err)
	}
}
