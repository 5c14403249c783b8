package facility

import (
	"context"

	"github.com/google/uuid"
)

type DepartmentRepository interface {
	Create(ctx context.Context, d *Department) error
	GetByID(ctx context.Context, id uuid.UUID) (*Department, error)
	List(ctx context.Context) ([]*Department, error)
}

type WardRepository interface {
	Create(ctx context.Context, w *Ward) error
	GetByID(ctx context.Context, id uuid.UUID) (*Ward, error)
	ListByDepartment(ctx context.Context, departmentID uuid.UUID) ([]*Ward, error)
	List(ctx context.Context) ([]*Ward, error)
}

type BedRepository interface {
	Create(ctx context.Context, b *Bed) error
	GetByID(ctx context.Context, id uuid.UUID) (*Bed, error)
	GetByNumber(ctx context.Context, wardID uuid.UUID, bedNumber string) (*Bed, error)
	ListByWard(ctx context.Context, wardID uuid.UUID) ([]*Bed, error)
	CountByWard(ctx context.Context, wardID uuid.UUID) (int, error)
	// Allocate transitions Available -> Occupied. Any other current status
	// is a Conflict error naming that status.
	Allocate(ctx context.Context, id uuid.UUID) error
	// Release transitions Occupied -> Available.
	Release(ctx context.Context, id uuid.UUID) error
	SetStatus(ctx context.Context, id uuid.UUID, status string) error
}
