package admission

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hms/hms/internal/domain/facility"
	"github.com/hms/hms/internal/domain/patient"
	"github.com/hms/hms/internal/platform/apperror"
	"github.com/hms/hms/internal/platform/cache"
	"github.com/hms/hms/internal/platform/db"
)

type txRunner func(ctx context.Context, fn func(ctx context.Context) error) error

type Service struct {
	admissions AdmissionRepository
	ledger     LedgerRepository
	beds       facility.BedRepository
	visits     patient.VisitRepository
	cache      *cache.Cache
	runTx      txRunner
	now        func() time.Time
}

func NewService(pool *pgxpool.Pool, admissions AdmissionRepository, ledger LedgerRepository, beds facility.BedRepository, visits patient.VisitRepository, c *cache.Cache) *Service {
	return &Service{
		admissions: admissions,
		ledger:     ledger,
		beds:       beds,
		visits:     visits,
		cache:      c,
		runTx: func(ctx context.Context, fn func(ctx context.Context) error) error {
			return db.RunSerializable(ctx, pool, fn)
		},
		now: time.Now,
	}
}

// Admit creates an admission in state Admitted. When bedID is given the bed
// is allocated and the first ledger interval opened in the same transaction;
// otherwise the admission starts bedless and a bed is assigned later.
func (s *Service) Admit(ctx context.Context, a *Admission, bedID *uuid.UUID) error {
	if a.PatientID == uuid.Nil {
		return apperror.Validation("patient_id is required")
	}
	if a.DoctorID == uuid.Nil {
		return apperror.Validation("doctor_id is required")
	}
	if a.DepartmentID == uuid.Nil {
		return apperror.Validation("department_id is required")
	}

	err := s.runTx(ctx, func(ctx context.Context) error {
		a.Status = StatusAdmitted
		if a.AdmittedAt.IsZero() {
			a.AdmittedAt = s.now().UTC()
		}
		if bedID != nil {
			if err := s.beds.Allocate(ctx, *bedID); err != nil {
				return err
			}
			a.CurrentBedID = bedID
		}
		if err := s.admissions.Create(ctx, a); err != nil {
			return err
		}
		if bedID != nil {
			if err := s.ledger.Open(ctx, &LedgerEntry{AdmissionID: a.ID, BedID: *bedID, StartDate: a.AdmittedAt}); err != nil {
				return err
			}
		}
		if a.SourceVisitID != nil {
			if err := s.visits.LinkAdmission(ctx, *a.SourceVisitID, a.ID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	if bedID != nil {
		s.cache.Invalidate(ctx, facility.LayoutCacheKey)
	}
	return nil
}

// TransferBed moves an admitted patient to a new Available bed. Closing the
// old interval, freeing the old bed, allocating the new one and updating
// current_bed_id all commit together or not at all. The new bed is claimed
// first, so a transfer to an unavailable bed leaves the old occupancy
// untouched.
func (s *Service) TransferBed(ctx context.Context, admissionID, newBedID uuid.UUID) (*Admission, error) {
	var result *Admission
	err := s.runTx(ctx, func(ctx context.Context) error {
		a, err := s.admissions.GetByID(ctx, admissionID)
		if err != nil {
			return err
		}
		if a.Status == StatusDischarged {
			return apperror.Conflict("cannot transfer a discharged patient")
		}
		if a.CurrentBedID == nil {
			return apperror.Conflict("admission has no bed assigned")
		}
		if *a.CurrentBedID == newBedID {
			return apperror.Conflict("patient already occupies this bed")
		}

		if err := s.beds.Allocate(ctx, newBedID); err != nil {
			return err
		}

		now := s.now().UTC()
		closed, err := s.ledger.CloseOpen(ctx, admissionID, now)
		if err != nil {
			return err
		}
		if err := s.beds.Release(ctx, closed.BedID); err != nil {
			return err
		}
		if err := s.ledger.Open(ctx, &LedgerEntry{AdmissionID: admissionID, BedID: newBedID, StartDate: now}); err != nil {
			return err
		}

		a.CurrentBedID = &newBedID
		if err := s.admissions.Update(ctx, a); err != nil {
			return err
		}
		result = a
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.cache.Invalidate(ctx, facility.LayoutCacheKey)
	return result, nil
}

// AssignBed gives a bedless active admission its first bed.
func (s *Service) AssignBed(ctx context.Context, admissionID, bedID uuid.UUID) (*Admission, error) {
	var result *Admission
	err := s.runTx(ctx, func(ctx context.Context) error {
		a, err := s.admissions.GetByID(ctx, admissionID)
		if err != nil {
			return err
		}
		if a.Status == StatusDischarged {
			return apperror.Conflict("cannot assign a bed to a discharged patient")
		}
		if a.CurrentBedID != nil {
			return apperror.Conflict("admission already has a bed; use transfer")
		}

		if err := s.beds.Allocate(ctx, bedID); err != nil {
			return err
		}
		if err := s.ledger.Open(ctx, &LedgerEntry{AdmissionID: admissionID, BedID: bedID, StartDate: s.now().UTC()}); err != nil {
			return err
		}
		a.CurrentBedID = &bedID
		if err := s.admissions.Update(ctx, a); err != nil {
			return err
		}
		result = a
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.cache.Invalidate(ctx, facility.LayoutCacheKey)
	return result, nil
}

// Discharge closes any open ledger interval, frees its bed, and marks the
// admission Discharged. A bedless admission discharges without touching
// bed inventory.
func (s *Service) Discharge(ctx context.Context, admissionID uuid.UUID, dischargeType, summary string) (*Admission, error) {
	if dischargeType == "" {
		return nil, apperror.Validation("discharge_type is required")
	}

	var (
		result *Admission
		hadBed bool
	)
	err := s.runTx(ctx, func(ctx context.Context) error {
		a, err := s.admissions.GetByID(ctx, admissionID)
		if err != nil {
			return err
		}
		if a.Status == StatusDischarged {
			return apperror.Conflict("cannot discharge a discharged patient")
		}

		now := s.now().UTC()
		closed, err := s.ledger.CloseOpen(ctx, admissionID, now)
		switch {
		case err == nil:
			if err := s.beds.Release(ctx, closed.BedID); err != nil {
				return err
			}
			hadBed = true
		case apperror.IsNotFound(err):
			// Bedless admission: nothing to free.
		default:
			return err
		}

		a.Status = StatusDischarged
		a.DischargedAt = &now
		a.DischargeType = &dischargeType
		if summary != "" {
			a.DischargeSummary = &summary
		}
		a.CurrentBedID = nil
		if err := s.admissions.Update(ctx, a); err != nil {
			return err
		}
		result = a
		return nil
	})
	if err != nil {
		return nil, err
	}
	if hadBed {
		s.cache.Invalidate(ctx, facility.LayoutCacheKey)
	}
	return result, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Admission, error) {
	return s.admissions.GetByID(ctx, id)
}

func (s *Service) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Admission, int, error) {
	return s.admissions.ListByPatient(ctx, patientID, limit, offset)
}

// History returns the bed occupancy timeline for an admission, ordered by
// interval start.
func (s *Service) History(ctx context.Context, admissionID uuid.UUID) ([]*LedgerEntry, error) {
	if _, err := s.admissions.GetByID(ctx, admissionID); err != nil {
		return nil, err
	}
	return s.ledger.History(ctx, admissionID)
}
