package admission

import (
	"math"
	"time"

	"github.com/google/uuid"
)

// Admission statuses. Discharged is terminal.
const (
	StatusAdmitted   = "Admitted"
	StatusDischarged = "Discharged"
)

// Admission maps to the admission table. CurrentBedID mirrors the open
// ledger interval: it is set exactly when one exists for this admission.
type Admission struct {
	ID               uuid.UUID  `db:"id" json:"id"`
	PatientID        uuid.UUID  `db:"patient_id" json:"patient_id"`
	DoctorID         uuid.UUID  `db:"doctor_id" json:"doctor_id"`
	DepartmentID     uuid.UUID  `db:"department_id" json:"department_id"`
	SourceVisitID    *uuid.UUID `db:"source_visit_id" json:"source_visit_id,omitempty"`
	CurrentBedID     *uuid.UUID `db:"current_bed_id" json:"current_bed_id,omitempty"`
	AdmissionType    string     `db:"admission_type" json:"admission_type"`
	Reason           *string    `db:"reason" json:"reason,omitempty"`
	Status           string     `db:"status" json:"status"`
	AdmittedAt       time.Time  `db:"admitted_at" json:"admitted_at"`
	DischargedAt     *time.Time `db:"discharged_at" json:"discharged_at,omitempty"`
	DischargeType    *string    `db:"discharge_type" json:"discharge_type,omitempty"`
	DischargeSummary *string    `db:"discharge_summary" json:"discharge_summary,omitempty"`
	CreatedAt        time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time  `db:"updated_at" json:"updated_at"`
}

// LedgerEntry maps to the bed_transfer_ledger table. A nil EndDate marks
// the open interval, the patient's current physical location. Per
// admission at most one entry is open at any time.
type LedgerEntry struct {
	ID          uuid.UUID  `db:"id" json:"id"`
	AdmissionID uuid.UUID  `db:"admission_id" json:"admission_id"`
	BedID       uuid.UUID  `db:"bed_id" json:"bed_id"`
	StartDate   time.Time  `db:"start_date" json:"start_date"`
	EndDate     *time.Time `db:"end_date" json:"end_date,omitempty"`
}

// ChargeDays converts an occupancy interval into billable days:
// ceil of the elapsed time in 24h units, never less than one day.
func ChargeDays(start, end time.Time) int {
	days := int(math.Ceil(end.Sub(start).Hours() / 24))
	if days < 1 {
		return 1
	}
	return days
}
