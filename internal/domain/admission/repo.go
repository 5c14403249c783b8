package admission

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type AdmissionRepository interface {
	Create(ctx context.Context, a *Admission) error
	GetByID(ctx context.Context, id uuid.UUID) (*Admission, error)
	Update(ctx context.Context, a *Admission) error
	// LatestByPatient returns the most recent admission by admission date,
	// or a NotFound error when the patient has none.
	LatestByPatient(ctx context.Context, patientID uuid.UUID) (*Admission, error)
	ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Admission, int, error)
}

type LedgerRepository interface {
	Open(ctx context.Context, e *LedgerEntry) error
	// GetOpen returns the open interval for an admission, or NotFound.
	GetOpen(ctx context.Context, admissionID uuid.UUID) (*LedgerEntry, error)
	// CloseOpen stamps the open interval's end date and returns the closed
	// entry, or NotFound when no interval is open.
	CloseOpen(ctx context.Context, admissionID uuid.UUID, end time.Time) (*LedgerEntry, error)
	History(ctx context.Context, admissionID uuid.UUID) ([]*LedgerEntry, error)
}
