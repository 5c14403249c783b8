package surgery

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hms/hms/internal/domain/admission"
	"github.com/hms/hms/internal/domain/facility"
	"github.com/hms/hms/internal/platform/apperror"
	"github.com/hms/hms/internal/platform/cache"
	"github.com/hms/hms/internal/platform/db"
)

type txRunner func(ctx context.Context, fn func(ctx context.Context) error) error

type Service struct {
	surgeries  SurgeryRepository
	admissions admission.AdmissionRepository
	beds       facility.BedRepository
	wards      facility.WardRepository
	cache      *cache.Cache
	runTx      txRunner
}

func NewService(pool *pgxpool.Pool, surgeries SurgeryRepository, admissions admission.AdmissionRepository, beds facility.BedRepository, wards facility.WardRepository, c *cache.Cache) *Service {
	return &Service{
		surgeries:  surgeries,
		admissions: admissions,
		beds:       beds,
		wards:      wards,
		cache:      c,
		runTx: func(ctx context.Context, fn func(ctx context.Context) error) error {
			return db.RunSerializable(ctx, pool, fn)
		},
	}
}

// Schedule books a procedure. The surgeon must have no Scheduled or
// InProgress surgery whose two-hour window intersects the requested one,
// and an optional OT bed must be an Available bed in an OT ward. The
// overlap check and the insert share one serializable transaction, so
// concurrent attempts for the same surgeon cannot both commit.
func (s *Service) Schedule(ctx context.Context, sur *Surgery) error {
	if sur.AdmissionID == uuid.Nil {
		return apperror.Validation("admission_id is required")
	}
	if sur.SurgeonID == uuid.Nil {
		return apperror.Validation("surgeon_id is required")
	}
	if sur.ProcedureName == "" {
		return apperror.Validation("procedure_name is required")
	}
	if sur.ScheduledStart.IsZero() {
		return apperror.Validation("scheduled_start is required")
	}

	err := s.runTx(ctx, func(ctx context.Context) error {
		adm, err := s.admissions.GetByID(ctx, sur.AdmissionID)
		if err != nil {
			return err
		}
		if adm.Status == admission.StatusDischarged {
			return apperror.Conflict("cannot schedule surgery for a discharged patient")
		}

		overlapping, err := s.surgeries.ListBySurgeonBetween(ctx, sur.SurgeonID,
			sur.ScheduledStart.Add(-Duration), sur.ScheduledStart.Add(Duration))
		if err != nil {
			return err
		}
		if len(overlapping) > 0 {
			return apperror.Conflict("surgeon already booked at %s",
				overlapping[0].ScheduledStart.Format(time.RFC3339))
		}

		if sur.OTBedID != nil {
			bed, err := s.beds.GetByID(ctx, *sur.OTBedID)
			if err != nil {
				return err
			}
			ward, err := s.wards.GetByID(ctx, bed.WardID)
			if err != nil {
				return err
			}
			if ward.Type != facility.WardTypeOT {
				return apperror.Validation("bed %s is not in an OT ward", bed.BedNumber)
			}
			if err := s.beds.Allocate(ctx, *sur.OTBedID); err != nil {
				return err
			}
		}

		sur.Status = StatusScheduled
		return s.surgeries.Create(ctx, sur)
	})
	if err != nil {
		return err
	}
	if sur.OTBedID != nil {
		s.cache.Invalidate(ctx, facility.LayoutCacheKey)
	}
	return nil
}

// UpdateStatus moves a surgery forward through Scheduled, InProgress,
// Completed. On completion the OT bed, if one was allocated, is released.
func (s *Service) UpdateStatus(ctx context.Context, id uuid.UUID, status string) (*Surgery, error) {
	if !ValidStatus(status) {
		return nil, apperror.Validation("invalid status: %s", status)
	}

	var (
		result      *Surgery
		bedReleased bool
	)
	err := s.runTx(ctx, func(ctx context.Context) error {
		sur, err := s.surgeries.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if !CanTransition(sur.Status, status) {
			return apperror.Conflict("cannot move surgery from %s to %s", sur.Status, status)
		}
		if err := s.surgeries.SetStatus(ctx, id, status); err != nil {
			return err
		}
		if status == StatusCompleted && sur.OTBedID != nil {
			if err := s.beds.Release(ctx, *sur.OTBedID); err != nil {
				return err
			}
			bedReleased = true
		}
		sur.Status = status
		result = sur
		return nil
	})
	if err != nil {
		return nil, err
	}
	if bedReleased {
		s.cache.Invalidate(ctx, facility.LayoutCacheKey)
	}
	return result, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Surgery, error) {
	return s.surgeries.GetByID(ctx, id)
}

func (s *Service) ListByAdmission(ctx context.Context, admissionID uuid.UUID) ([]*Surgery, error) {
	return s.surgeries.ListByAdmission(ctx, admissionID)
}

func (s *Service) ListBySurgeonDay(ctx context.Context, surgeonID uuid.UUID, day time.Time) ([]*Surgery, error) {
	return s.surgeries.ListBySurgeonDay(ctx, surgeonID, day)
}
