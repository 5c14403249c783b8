package patient

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/hms/hms/internal/platform/apperror"
)

type Service struct {
	patients PatientRepository
	visits   VisitRepository
	now      func() time.Time
}

func NewService(patients PatientRepository, visits VisitRepository) *Service {
	return &Service{patients: patients, visits: visits, now: time.Now}
}

func (s *Service) Register(ctx context.Context, p *Patient) error {
	if p.FirstName == "" {
		return apperror.Validation("first_name is required")
	}
	if p.UHID == "" {
		seq, err := s.patients.NextUHIDSeq(ctx)
		if err != nil {
			return err
		}
		p.UHID = fmt.Sprintf("P-%d-%04d", s.now().UTC().Year(), seq)
	}
	return s.patients.Create(ctx, p)
}

func (s *Service) GetByUHID(ctx context.Context, uhid string) (*Patient, error) {
	return s.patients.GetByUHID(ctx, uhid)
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Patient, error) {
	return s.patients.GetByID(ctx, id)
}

func (s *Service) List(ctx context.Context, limit, offset int) ([]*Patient, int, error) {
	return s.patients.List(ctx, limit, offset)
}

func (s *Service) CreateVisit(ctx context.Context, v *Visit) error {
	if v.PatientID == uuid.Nil {
		return apperror.Validation("patient_id is required")
	}
	if _, err := s.patients.GetByID(ctx, v.PatientID); err != nil {
		return err
	}
	if v.VisitDate.IsZero() {
		v.VisitDate = s.now().UTC()
	}
	if v.Status == "" {
		v.Status = VisitInProgress
	}
	switch v.Status {
	case VisitScheduled, VisitInProgress, VisitCompleted:
	default:
		return apperror.Validation("invalid status: %s", v.Status)
	}
	return s.visits.Create(ctx, v)
}

func (s *Service) GetVisit(ctx context.Context, id uuid.UUID) (*Visit, error) {
	return s.visits.GetByID(ctx, id)
}

func (s *Service) ListVisits(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Visit, int, error) {
	return s.visits.ListByPatient(ctx, patientID, limit, offset)
}
