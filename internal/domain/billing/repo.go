package billing

import (
	"context"

	"github.com/google/uuid"
)

type ServiceOrderRepository interface {
	Create(ctx context.Context, o *ServiceOrder) error
	GetByID(ctx context.Context, id uuid.UUID) (*ServiceOrder, error)
	ListUnpaidByVisit(ctx context.Context, visitID uuid.UUID) ([]*ServiceOrder, error)
	ListUnpaidByAdmission(ctx context.Context, admissionID uuid.UUID) ([]*ServiceOrder, error)
	MarkPaid(ctx context.Context, id uuid.UUID) error
	MarkPaidByVisit(ctx context.Context, visitID uuid.UUID) error
	MarkPaidByAdmission(ctx context.Context, admissionID uuid.UUID) error
}

type PrescriptionRepository interface {
	Create(ctx context.Context, p *PrescriptionCharge) error
	GetByID(ctx context.Context, id uuid.UUID) (*PrescriptionCharge, error)
	ListUnpaidByVisit(ctx context.Context, visitID uuid.UUID) ([]*PrescriptionCharge, error)
	ListUnpaidByAdmission(ctx context.Context, admissionID uuid.UUID) ([]*PrescriptionCharge, error)
	MarkPaid(ctx context.Context, id uuid.UUID) error
	MarkPaidByVisit(ctx context.Context, visitID uuid.UUID) error
	MarkPaidByAdmission(ctx context.Context, admissionID uuid.UUID) error
}

type InvoiceRepository interface {
	Create(ctx context.Context, inv *Invoice) error
	// GetByVisit and GetByAdmission return NotFound when no invoice
	// references the context.
	GetByVisit(ctx context.Context, visitID uuid.UUID) (*Invoice, error)
	GetByAdmission(ctx context.Context, admissionID uuid.UUID) (*Invoice, error)
	Update(ctx context.Context, inv *Invoice) error
}

type CatalogRepository interface {
	CreateService(ctx context.Context, s *CatalogService) error
	GetServiceByID(ctx context.Context, id uuid.UUID) (*CatalogService, error)
	ListServices(ctx context.Context) ([]*CatalogService, error)
	CreateMedicine(ctx context.Context, m *CatalogMedicine) error
	GetMedicineByID(ctx context.Context, id uuid.UUID) (*CatalogMedicine, error)
	ListMedicines(ctx context.Context) ([]*CatalogMedicine, error)
}

// LedgerReader exposes an admission's occupancy intervals joined with ward
// pricing, the input to accommodation billing.
type LedgerReader interface {
	ListIntervals(ctx context.Context, admissionID uuid.UUID) ([]*AccommodationInterval, error)
}
