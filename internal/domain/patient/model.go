package patient

import (
	"time"

	"github.com/google/uuid"
)

// OPD visit statuses.
const (
	VisitScheduled  = "Scheduled"
	VisitInProgress = "InProgress"
	VisitCompleted  = "Completed"
)

// Patient maps to the patient table. Demographics are read-only for the
// clinical core; they only feed bill headers and lookups by UHID.
type Patient struct {
	ID        uuid.UUID  `db:"id" json:"id"`
	UHID      string     `db:"uhid" json:"uhid"`
	FirstName string     `db:"first_name" json:"first_name"`
	LastName  string     `db:"last_name" json:"last_name"`
	Gender    *string    `db:"gender" json:"gender,omitempty"`
	BirthDate *time.Time `db:"birth_date" json:"birth_date,omitempty"`
	Phone     *string    `db:"phone" json:"phone,omitempty"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt time.Time  `db:"updated_at" json:"updated_at"`
}

// Visit maps to the opd_visit table. A visit may escalate into an
// admission, in which case AdmissionID links the two.
type Visit struct {
	ID           uuid.UUID  `db:"id" json:"id"`
	PatientID    uuid.UUID  `db:"patient_id" json:"patient_id"`
	DepartmentID *uuid.UUID `db:"department_id" json:"department_id,omitempty"`
	DoctorID     *uuid.UUID `db:"doctor_id" json:"doctor_id,omitempty"`
	VisitDate    time.Time  `db:"visit_date" json:"visit_date"`
	Status       string     `db:"status" json:"status"`
	AdmissionID  *uuid.UUID `db:"admission_id" json:"admission_id,omitempty"`
	Reason       *string    `db:"reason" json:"reason,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updated_at"`
}
