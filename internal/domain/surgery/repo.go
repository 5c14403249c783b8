package surgery

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type SurgeryRepository interface {
	Create(ctx context.Context, s *Surgery) error
	GetByID(ctx context.Context, id uuid.UUID) (*Surgery, error)
	SetStatus(ctx context.Context, id uuid.UUID, status string) error
	ListByAdmission(ctx context.Context, admissionID uuid.UUID) ([]*Surgery, error)
	// ListBySurgeonBetween returns Scheduled and InProgress surgeries for a
	// surgeon whose start lies strictly inside (from, to). Abutting windows
	// do not conflict, so both bounds are exclusive.
	ListBySurgeonBetween(ctx context.Context, surgeonID uuid.UUID, from, to time.Time) ([]*Surgery, error)
	ListBySurgeonDay(ctx context.Context, surgeonID uuid.UUID, day time.Time) ([]*Surgery, error)
}
