package surgery

import (
	"time"

	"github.com/google/uuid"
)

// Surgery statuses, ordered. Transitions only move forward.
const (
	StatusScheduled  = "Scheduled"
	StatusInProgress = "InProgress"
	StatusCompleted  = "Completed"
)

// Duration is the implied length of every procedure window. Two surgeries
// for the same surgeon conflict when their windows intersect.
const Duration = 2 * time.Hour

var statusRank = map[string]int{
	StatusScheduled:  0,
	StatusInProgress: 1,
	StatusCompleted:  2,
}

// ValidStatus reports whether s is a known surgery status.
func ValidStatus(s string) bool {
	_, ok := statusRank[s]
	return ok
}

// CanTransition reports whether a surgery may move from one status to the
// next. Only strictly forward moves are allowed.
func CanTransition(from, to string) bool {
	return statusRank[to] > statusRank[from]
}

// Surgery maps to the surgery table.
type Surgery struct {
	ID             uuid.UUID  `db:"id" json:"id"`
	AdmissionID    uuid.UUID  `db:"admission_id" json:"admission_id"`
	ProcedureName  string     `db:"procedure_name" json:"procedure_name"`
	SurgeonID      uuid.UUID  `db:"surgeon_id" json:"surgeon_id"`
	ScheduledStart time.Time  `db:"scheduled_start" json:"scheduled_start"`
	OTBedID        *uuid.UUID `db:"ot_bed_id" json:"ot_bed_id,omitempty"`
	Status         string     `db:"status" json:"status"`
	CreatedAt      time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time  `db:"updated_at" json:"updated_at"`
}

// Window returns the surgery's occupancy window [start, start+Duration).
func (s *Surgery) Window() (time.Time, time.Time) {
	return s.ScheduledStart, s.ScheduledStart.Add(Duration)
}
