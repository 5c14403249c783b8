package facility

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hms/hms/internal/platform/apperror"
	"github.com/hms/hms/internal/platform/cache"
	"github.com/hms/hms/internal/platform/db"
)

// LayoutCacheKey is shared with the admission and surgery services, which
// invalidate the cached layout whenever they change a bed's status.
const LayoutCacheKey = "facility:layout"

const layoutCacheTTL = 30 * time.Second

type txRunner func(ctx context.Context, fn func(ctx context.Context) error) error

type Service struct {
	departments DepartmentRepository
	wards       WardRepository
	beds        BedRepository
	cache       *cache.Cache
	runTx       txRunner
}

func NewService(pool *pgxpool.Pool, departments DepartmentRepository, wards WardRepository, beds BedRepository, c *cache.Cache) *Service {
	return &Service{
		departments: departments,
		wards:       wards,
		beds:        beds,
		cache:       c,
		runTx: func(ctx context.Context, fn func(ctx context.Context) error) error {
			return db.RunSerializable(ctx, pool, fn)
		},
	}
}

func (s *Service) CreateDepartment(ctx context.Context, d *Department) error {
	if d.Name == "" {
		return apperror.Validation("name is required")
	}
	if err := s.departments.Create(ctx, d); err != nil {
		return err
	}
	s.cache.Invalidate(ctx, LayoutCacheKey)
	return nil
}

func (s *Service) ListDepartments(ctx context.Context) ([]*Department, error) {
	return s.departments.List(ctx)
}

func (s *Service) CreateWard(ctx context.Context, w *Ward) error {
	if w.DepartmentID == uuid.Nil {
		return apperror.Validation("department_id is required")
	}
	if w.Name == "" {
		return apperror.Validation("name is required")
	}
	if w.Type == "" {
		return apperror.Validation("type is required")
	}
	if !w.BasePricePerDay.IsPositive() {
		return apperror.Validation("base_price_per_day must be positive")
	}
	if _, err := s.departments.GetByID(ctx, w.DepartmentID); err != nil {
		return err
	}
	if err := s.wards.Create(ctx, w); err != nil {
		return err
	}
	s.cache.Invalidate(ctx, LayoutCacheKey)
	return nil
}

func (s *Service) GetWard(ctx context.Context, id uuid.UUID) (*Ward, error) {
	return s.wards.GetByID(ctx, id)
}

// AddBeds appends beds to a ward. With count set, beds are auto-named
// "{wardName}-{seq}" continuing from the current bed count. With bedNumber
// set, a single explicitly named bed is added; a duplicate number within
// the ward is a Conflict.
func (s *Service) AddBeds(ctx context.Context, wardID uuid.UUID, count int, bedNumber string) ([]*Bed, error) {
	if count > 0 && bedNumber != "" {
		return nil, apperror.Validation("specify either count or bed_number, not both")
	}
	if count <= 0 && bedNumber == "" {
		return nil, apperror.Validation("count or bed_number is required")
	}

	var added []*Bed
	err := s.runTx(ctx, func(ctx context.Context) error {
		ward, err := s.wards.GetByID(ctx, wardID)
		if err != nil {
			return err
		}

		if bedNumber != "" {
			if _, err := s.beds.GetByNumber(ctx, wardID, bedNumber); err == nil {
				return apperror.Conflict("bed %s already exists in ward %s", bedNumber, ward.Name)
			} else if !apperror.IsNotFound(err) {
				return err
			}
			b := &Bed{WardID: wardID, BedNumber: bedNumber, Status: BedAvailable}
			if err := s.beds.Create(ctx, b); err != nil {
				return err
			}
			added = append(added, b)
			return nil
		}

		existing, err := s.beds.CountByWard(ctx, wardID)
		if err != nil {
			return err
		}
		for i := 1; i <= count; i++ {
			b := &Bed{
				WardID:    wardID,
				BedNumber: fmt.Sprintf("%s-%d", ward.Name, existing+i),
				Status:    BedAvailable,
			}
			if err := s.beds.Create(ctx, b); err != nil {
				return err
			}
			added = append(added, b)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.cache.Invalidate(ctx, LayoutCacheKey)
	return added, nil
}

// GetLayout returns departments with their wards and beds, beds sorted by
// number. The result is cached briefly; every facility or occupancy
// mutation invalidates it.
func (s *Service) GetLayout(ctx context.Context) ([]*DepartmentLayout, error) {
	if cached, ok := s.cache.Get(ctx, LayoutCacheKey); ok {
		var layout []*DepartmentLayout
		if err := json.Unmarshal([]byte(cached), &layout); err == nil {
			return layout, nil
		}
	}

	depts, err := s.departments.List(ctx)
	if err != nil {
		return nil, err
	}
	layout := make([]*DepartmentLayout, 0, len(depts))
	for _, d := range depts {
		dl := &DepartmentLayout{Department: *d}
		wards, err := s.wards.ListByDepartment(ctx, d.ID)
		if err != nil {
			return nil, err
		}
		for _, w := range wards {
			beds, err := s.beds.ListByWard(ctx, w.ID)
			if err != nil {
				return nil, err
			}
			dl.Wards = append(dl.Wards, &WardLayout{Ward: *w, Beds: beds})
		}
		layout = append(layout, dl)
	}

	if buf, err := json.Marshal(layout); err == nil {
		s.cache.Set(ctx, LayoutCacheKey, string(buf), layoutCacheTTL)
	}
	return layout, nil
}

// SetBedStatus toggles a bed between Available and Maintenance. Occupied
// beds only change status through admission and surgery operations.
func (s *Service) SetBedStatus(ctx context.Context, id uuid.UUID, status string) (*Bed, error) {
	if status != BedAvailable && status != BedMaintenance {
		return nil, apperror.Validation("status must be %s or %s", BedAvailable, BedMaintenance)
	}

	var bed *Bed
	err := s.runTx(ctx, func(ctx context.Context) error {
		b, err := s.beds.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if b.Status == BedOccupied {
			return apperror.Conflict("bed %s is Occupied", b.BedNumber)
		}
		if b.Status != status {
			if err := s.beds.SetStatus(ctx, id, status); err != nil {
				return err
			}
			b.Status = status
		}
		bed = b
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.cache.Invalidate(ctx, LayoutCacheKey)
	return bed, nil
}
