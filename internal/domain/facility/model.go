package facility

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Bed statuses. Available and Occupied only change through admission and
// surgery operations; Maintenance is toggled directly by facility staff.
const (
	BedAvailable   = "Available"
	BedOccupied    = "Occupied"
	BedMaintenance = "Maintenance"
)

// WardTypeOT marks wards whose beds can host operating-theatre procedures.
const WardTypeOT = "OT"

// Department maps to the department table.
type Department struct {
	ID        uuid.UUID `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Ward maps to the ward table.
type Ward struct {
	ID              uuid.UUID       `db:"id" json:"id"`
	DepartmentID    uuid.UUID       `db:"department_id" json:"department_id"`
	Name            string          `db:"name" json:"name"`
	Floor           int             `db:"floor" json:"floor"`
	Type            string          `db:"type" json:"type"`
	BasePricePerDay decimal.Decimal `db:"base_price_per_day" json:"base_price_per_day"`
	CreatedAt       time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time       `db:"updated_at" json:"updated_at"`
}

// Bed maps to the bed table. BedNumber is unique within its ward.
type Bed struct {
	ID        uuid.UUID `db:"id" json:"id"`
	WardID    uuid.UUID `db:"ward_id" json:"ward_id"`
	BedNumber string    `db:"bed_number" json:"bed_number"`
	Status    string    `db:"status" json:"status"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// WardLayout is a ward with its beds, sorted by bed number.
type WardLayout struct {
	Ward
	Beds []*Bed `json:"beds"`
}

// DepartmentLayout is a department with its wards.
type DepartmentLayout struct {
	Department
	Wards []*WardLayout `json:"wards"`
}
