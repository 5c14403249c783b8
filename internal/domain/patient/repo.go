package patient

import (
	"context"

	"github.com/google/uuid"
)

type PatientRepository interface {
	Create(ctx context.Context, p *Patient) error
	GetByID(ctx context.Context, id uuid.UUID) (*Patient, error)
	GetByUHID(ctx context.Context, uhid string) (*Patient, error)
	List(ctx context.Context, limit, offset int) ([]*Patient, int, error)
	// NextUHIDSeq returns the next value of the UHID sequence.
	NextUHIDSeq(ctx context.Context) (int64, error)
}

type VisitRepository interface {
	Create(ctx context.Context, v *Visit) error
	GetByID(ctx context.Context, id uuid.UUID) (*Visit, error)
	// LatestByPatient returns the most recent visit by visit date, or a
	// NotFound error when the patient has none.
	LatestByPatient(ctx context.Context, patientID uuid.UUID) (*Visit, error)
	ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Visit, int, error)
	SetStatus(ctx context.Context, id uuid.UUID, status string) error
	LinkAdmission(ctx context.Context, id, admissionID uuid.UUID) error
}
