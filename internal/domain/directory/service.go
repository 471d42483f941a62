package directory

import (
	"context"
	"fmt"
)

// Service derives the doctor pool from the catalogs. The derivation runs on
// every read; the view is never cached or stored, so catalog updates are
// visible immediately.
type Service struct {
	repo CatalogRepository
}

func NewService(repo CatalogRepository) *Service { return &Service{repo: repo} }

func (s *Service) Doctors(ctx context.Context) ([]DoctorRef, error) {
	staff, err := s.repo.Staff(ctx)
	if err != nil {
		return nil, fmt.Errorf("load staff catalog: %w", err)
	}
	roles, err := s.repo.Roles(ctx)
	if err != nil {
		return nil, fmt.Errorf("load role catalog: %w", err)
	}
	departments, err := s.repo.Departments(ctx)
	if err != nil {
		return nil, fmt.Errorf("load department catalog: %w", err)
	}
	return DeriveDoctors(staff, roles, departments), nil
}

// FindDoctor resolves one doctor from the derived pool.
func (s *Service) FindDoctor(ctx context.Context, doctorID int) (*DoctorRef, error) {
	doctors, err := s.Doctors(ctx)
	if err != nil {
		return nil, err
	}
	for i := range doctors {
		if doctors[i].DoctorID == doctorID {
			return &doctors[i], nil
		}
	}
	return nil, ErrNotFound
}
