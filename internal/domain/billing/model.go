package billing

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/hms/hms/internal/domain/admission"
	"github.com/hms/hms/internal/domain/patient"
	"github.com/hms/hms/internal/platform/apperror"
)

// Invoice statuses.
const (
	InvoiceDraft     = "Draft"
	InvoicePaid      = "Paid"
	InvoiceFinalized = "Finalized"
)

// Bill statuses reported by the aggregator.
const (
	BillUnpaid    = "Unpaid"
	BillPaid      = "Paid"
	BillNoCharges = "NoCharges"
)

// Line item types.
const (
	LineMandatoryFee  = "MandatoryFee"
	LineService       = "Service"
	LinePrescription  = "Prescription"
	LineAccommodation = "Accommodation"
	LineNursing       = "Nursing"
	LineSurgery       = "Surgery"
)

// ContextType distinguishes the outpatient and inpatient billing contexts.
type ContextType string

const (
	ContextOPD ContextType = "OPD"
	ContextIPD ContextType = "IPD"
)

// ServiceOrder maps to the service_order table. The amount is copied from
// the service catalog at creation time.
type ServiceOrder struct {
	ID          uuid.UUID       `db:"id" json:"id"`
	VisitID     *uuid.UUID      `db:"visit_id" json:"visit_id,omitempty"`
	AdmissionID *uuid.UUID      `db:"admission_id" json:"admission_id,omitempty"`
	ServiceName string          `db:"service_name" json:"service_name"`
	Department  *string         `db:"department" json:"department,omitempty"`
	Amount      decimal.Decimal `db:"amount" json:"amount"`
	IsPaid      bool            `db:"is_paid" json:"is_paid"`
	CreatedAt   time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time       `db:"updated_at" json:"updated_at"`
}

// PrescriptionCharge maps to the prescription_charge table.
type PrescriptionCharge struct {
	ID           uuid.UUID       `db:"id" json:"id"`
	VisitID      *uuid.UUID      `db:"visit_id" json:"visit_id,omitempty"`
	AdmissionID  *uuid.UUID      `db:"admission_id" json:"admission_id,omitempty"`
	MedicineName string          `db:"medicine_name" json:"medicine_name"`
	Quantity     int             `db:"quantity" json:"quantity"`
	UnitPrice    decimal.Decimal `db:"unit_price" json:"unit_price"`
	Amount       decimal.Decimal `db:"amount" json:"amount"`
	IsPaid       bool            `db:"is_paid" json:"is_paid"`
	CreatedAt    time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time       `db:"updated_at" json:"updated_at"`
}

// Invoice maps to the invoice table. Its existence for a context signals
// that the one-time mandatory fee has already been charged.
type Invoice struct {
	ID          uuid.UUID       `db:"id" json:"id"`
	VisitID     *uuid.UUID      `db:"visit_id" json:"visit_id,omitempty"`
	AdmissionID *uuid.UUID      `db:"admission_id" json:"admission_id,omitempty"`
	Status      string          `db:"status" json:"status"`
	Total       decimal.Decimal `db:"total" json:"total"`
	CreatedAt   time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time       `db:"updated_at" json:"updated_at"`
}

// CatalogService maps to the service_catalog table.
type CatalogService struct {
	ID         uuid.UUID       `db:"id" json:"id"`
	Name       string          `db:"name" json:"name"`
	Department *string         `db:"department" json:"department,omitempty"`
	BasePrice  decimal.Decimal `db:"base_price" json:"base_price"`
}

// CatalogMedicine maps to the medicine_catalog table.
type CatalogMedicine struct {
	ID        uuid.UUID       `db:"id" json:"id"`
	Name      string          `db:"name" json:"name"`
	UnitPrice decimal.Decimal `db:"unit_price" json:"unit_price"`
}

// AccommodationInterval is a ledger interval joined with its bed and ward,
// the unit of bed-day billing.
type AccommodationInterval struct {
	BedNumber       string          `json:"bed_number"`
	WardName        string          `json:"ward_name"`
	BasePricePerDay decimal.Decimal `json:"base_price_per_day"`
	StartDate       time.Time       `json:"start_date"`
	EndDate         *time.Time      `json:"end_date,omitempty"`
}

// LineItem is one unpaid charge on an aggregated bill.
type LineItem struct {
	Type        string          `json:"type"`
	Description string          `json:"description"`
	Department  string          `json:"department,omitempty"`
	Amount      decimal.Decimal `json:"amount"`

	// accrued marks running-stay charges that stay outstanding until
	// discharge closes the interval. Finalize must not settle them.
	accrued bool
}

// Bill is the aggregated unpaid-charges view for a patient's active context.
type Bill struct {
	UHID        string          `json:"uhid"`
	PatientName string          `json:"patient_name"`
	ContextType ContextType     `json:"context_type"`
	ContextID   uuid.UUID       `json:"context_id"`
	Status      string          `json:"status"`
	Lines       []LineItem      `json:"lines"`
	GrandTotal  decimal.Decimal `json:"grand_total"`
}

// ActiveContext identifies the single visit or admission a bill is drawn
// against. Exactly one of AdmissionID and VisitID is set.
type ActiveContext struct {
	Type        ContextType
	AdmissionID uuid.UUID
	VisitID     uuid.UUID
}

// ResolveActiveContext picks the billing context from a patient's most
// recent admission and most recent visit, either of which may be nil.
// A lone context is taken as-is and the admission wins timestamp ties.
// A strictly newer visit that is itself linked to an admission yields
// that linked admission instead, even when it differs from the most
// recent one; the caller re-fetches it.
func ResolveActiveContext(adm *admission.Admission, visit *patient.Visit) (ActiveContext, error) {
	ipd := func(id uuid.UUID) ActiveContext { return ActiveContext{Type: ContextIPD, AdmissionID: id} }
	opd := func(id uuid.UUID) ActiveContext { return ActiveContext{Type: ContextOPD, VisitID: id} }

	switch {
	case adm == nil && visit == nil:
		return ActiveContext{}, apperror.NotFound("no admission or visit found for patient")
	case visit == nil:
		return ipd(adm.ID), nil
	case adm == nil:
		return opd(visit.ID), nil
	case !adm.AdmittedAt.Before(visit.VisitDate):
		return ipd(adm.ID), nil
	case visit.AdmissionID != nil:
		return ipd(*visit.AdmissionID), nil
	default:
		return opd(visit.ID), nil
	}
}

// Fees are the fixed charges applied by the aggregator: one-time entry
// fees per context, a flat nursing rate per inpatient day, and a flat
// per-procedure surgery charge.
type Fees struct {
	Registration  decimal.Decimal
	Admission     decimal.Decimal
	NursingPerDay decimal.Decimal
	Surgery       decimal.Decimal
}

// ParseFees builds a Fees from two-place decimal strings, as configured.
func ParseFees(registration, admissionFee, nursingPerDay, surgery string) (Fees, error) {
	var f Fees
	var err error
	if f.Registration, err = decimal.NewFromString(registration); err != nil {
		return f, apperror.Validation("registration fee: invalid decimal %q", registration)
	}
	if f.Admission, err = decimal.NewFromString(admissionFee); err != nil {
		return f, apperror.Validation("admission fee: invalid decimal %q", admissionFee)
	}
	if f.NursingPerDay, err = decimal.NewFromString(nursingPerDay); err != nil {
		return f, apperror.Validation("nursing charge: invalid decimal %q", nursingPerDay)
	}
	if f.Surgery, err = decimal.NewFromString(surgery); err != nil {
		return f, apperror.Validation("surgery charge: invalid decimal %q", surgery)
	}
	return f, nil
}
