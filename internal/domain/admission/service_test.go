package admission

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/hms/hms/internal/domain/facility"
	"github.com/hms/hms/internal/domain/patient"
	"github.com/hms/hms/internal/platform/apperror"
)

// -- Mock Repositories --

type mockAdmissionRepo struct {
	admissions map[uuid.UUID]*Admission
}

func newMockAdmissionRepo() *mockAdmissionRepo {
	return &mockAdmissionRepo{admissions: make(map[uuid.UUID]*Admission)}
}

func (m *mockAdmissionRepo) Create(_ context.Context, a *Admission) error {
	a.ID = uuid.New()
	cp := *a
	m.admissions[a.ID] = &cp
	return nil
}

func (m *mockAdmissionRepo) GetByID(_ context.Context, id uuid.UUID) (*Admission, error) {
	a, ok := m.admissions[id]
	if !ok {
		return nil, apperror.NotFound("admission not found")
	}
	cp := *a
	return &cp, nil
}

func (m *mockAdmissionRepo) Update(_ context.Context, a *Admission) error {
	if _, ok := m.admissions[a.ID]; !ok {
		return apperror.NotFound("admission not found")
	}
	cp := *a
	m.admissions[a.ID] = &cp
	return nil
}

func (m *mockAdmissionRepo) LatestByPatient(_ context.Context, patientID uuid.UUID) (*Admission, error) {
	var latest *Admission
	for _, a := range m.admissions {
		if a.PatientID != patientID {
			continue
		}
		if latest == nil || a.AdmittedAt.After(latest.AdmittedAt) {
			latest = a
		}
	}
	if latest == nil {
		return nil, apperror.NotFound("admission not found")
	}
	cp := *latest
	return &cp, nil
}

func (m *mockAdmissionRepo) ListByPatient(_ context.Context, patientID uuid.UUID, limit, offset int) ([]*Admission, int, error) {
	var result []*Admission
	for _, a := range m.admissions {
		if a.PatientID == patientID {
			result = append(result, a)
		}
	}
	return result, len(result), nil
}

type mockLedgerRepo struct {
	entries map[uuid.UUID]*LedgerEntry
}

func newMockLedgerRepo() *mockLedgerRepo {
	return &mockLedgerRepo{entries: make(map[uuid.UUID]*LedgerEntry)}
}

func (m *mockLedgerRepo) Open(_ context.Context, e *LedgerEntry) error {
	e.ID = uuid.New()
	m.entries[e.ID] = e
	return nil
}

func (m *mockLedgerRepo) GetOpen(_ context.Context, admissionID uuid.UUID) (*LedgerEntry, error) {
	for _, e := range m.entries {
		if e.AdmissionID == admissionID && e.EndDate == nil {
			return e, nil
		}
	}
	return nil, apperror.NotFound("no open bed interval")
}

func (m *mockLedgerRepo) CloseOpen(_ context.Context, admissionID uuid.UUID, end time.Time) (*LedgerEntry, error) {
	for _, e := range m.entries {
		if e.AdmissionID == admissionID && e.EndDate == nil {
			e.EndDate = &end
			return e, nil
		}
	}
	return nil, apperror.NotFound("no open bed interval")
}

func (m *mockLedgerRepo) History(_ context.Context, admissionID uuid.UUID) ([]*LedgerEntry, error) {
	var result []*LedgerEntry
	for _, e := range m.entries {
		if e.AdmissionID == admissionID {
			result = append(result, e)
		}
	}
	return result, nil
}

type mockBedRepo struct {
	beds map[uuid.UUID]*facility.Bed
}

func newMockBedRepo() *mockBedRepo {
	return &mockBedRepo{beds: make(map[uuid.UUID]*facility.Bed)}
}

func (m *mockBedRepo) addBed(status string) *facility.Bed {
	b := &facility.Bed{ID: uuid.New(), WardID: uuid.New(), BedNumber: "B-" + uuid.NewString()[:4], Status: status}
	m.beds[b.ID] = b
	return b
}

func (m *mockBedRepo) Create(_ context.Context, b *facility.Bed) error {
	b.ID = uuid.New()
	m.beds[b.ID] = b
	return nil
}

func (m *mockBedRepo) GetByID(_ context.Context, id uuid.UUID) (*facility.Bed, error) {
	b, ok := m.beds[id]
	if !ok {
		return nil, apperror.NotFound("bed not found")
	}
	return b, nil
}

func (m *mockBedRepo) GetByNumber(_ context.Context, wardID uuid.UUID, bedNumber string) (*facility.Bed, error) {
	for _, b := range m.beds {
		if b.WardID == wardID && b.BedNumber == bedNumber {
			return b, nil
		}
	}
	return nil, apperror.NotFound("bed not found")
}

func (m *mockBedRepo) ListByWard(_ context.Context, wardID uuid.UUID) ([]*facility.Bed, error) {
	var result []*facility.Bed
	for _, b := range m.beds {
		if b.WardID == wardID {
			result = append(result, b)
		}
	}
	return result, nil
}

func (m *mockBedRepo) CountByWard(_ context.Context, wardID uuid.UUID) (int, error) {
	n := 0
	for _, b := range m.beds {
		if b.WardID == wardID {
			n++
		}
	}
	return n, nil
}

func (m *mockBedRepo) Allocate(_ context.Context, id uuid.UUID) error {
	b, ok := m.beds[id]
	if !ok {
		return apperror.NotFound("bed not found")
	}
	if b.Status != facility.BedAvailable {
		return apperror.Conflict("bed %s is %s", b.BedNumber, b.Status)
	}
	b.Status = facility.BedOccupied
	return nil
}

func (m *mockBedRepo) Release(_ context.Context, id uuid.UUID) error {
	b, ok := m.beds[id]
	if !ok {
		return apperror.NotFound("bed not found")
	}
	if b.Status != facility.BedOccupied {
		return apperror.Conflict("bed %s is %s, not Occupied", b.BedNumber, b.Status)
	}
	b.Status = facility.BedAvailable
	return nil
}

func (m *mockBedRepo) SetStatus(_ context.Context, id uuid.UUID, status string) error {
	b, ok := m.beds[id]
	if !ok {
		return apperror.NotFound("bed not found")
	}
	b.Status = status
	return nil
}

type mockVisitRepo struct {
	visits map[uuid.UUID]*patient.Visit
}

func newMockVisitRepo() *mockVisitRepo {
	return &mockVisitRepo{visits: make(map[uuid.UUID]*patient.Visit)}
}

func (m *mockVisitRepo) Create(_ context.Context, v *patient.Visit) error {
	v.ID = uuid.New()
	m.visits[v.ID] = v
	return nil
}

func (m *mockVisitRepo) GetByID(_ context.Context, id uuid.UUID) (*patient.Visit, error) {
	v, ok := m.visits[id]
	if !ok {
		return nil, apperror.NotFound("visit not found")
	}
	return v, nil
}

func (m *mockVisitRepo) LatestByPatient(_ context.Context, patientID uuid.UUID) (*patient.Visit, error) {
	return nil, apperror.NotFound("visit not found")
}

func (m *mockVisitRepo) ListByPatient(_ context.Context, patientID uuid.UUID, limit, offset int) ([]*patient.Visit, int, error) {
	return nil, 0, nil
}

func (m *mockVisitRepo) SetStatus(_ context.Context, id uuid.UUID, status string) error {
	v, ok := m.visits[id]
	if !ok {
		return apperror.NotFound("visit not found")
	}
	v.Status = status
	return nil
}

func (m *mockVisitRepo) LinkAdmission(_ context.Context, id, admissionID uuid.UUID) error {
	v, ok := m.visits[id]
	if !ok {
		return apperror.NotFound("visit not found")
	}
	v.AdmissionID = &admissionID
	return nil
}

type testEnv struct {
	svc    *Service
	beds   *mockBedRepo
	ledger *mockLedgerRepo
	visits *mockVisitRepo
}

func newTestEnv() *testEnv {
	env := &testEnv{
		beds:   newMockBedRepo(),
		ledger: newMockLedgerRepo(),
		visits: newMockVisitRepo(),
	}
	env.svc = &Service{
		admissions: newMockAdmissionRepo(),
		ledger:     env.ledger,
		beds:       env.beds,
		visits:     env.visits,
		runTx: func(ctx context.Context, fn func(ctx context.Context) error) error {
			return fn(ctx)
		},
		now: func() time.Time { return time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC) },
	}
	return env
}

func newAdmission() *Admission {
	return &Admission{
		PatientID:     uuid.New(),
		DoctorID:      uuid.New(),
		DepartmentID:  uuid.New(),
		AdmissionType: "Planned",
	}
}

// -- Tests --

func TestAdmit_WithBed(t *testing.T) {
	env := newTestEnv()
	bed := env.beds.addBed(facility.BedAvailable)

	a := newAdmission()
	if err := env.svc.Admit(context.Background(), a, &bed.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a.Status != StatusAdmitted {
		t.Errorf("expected Admitted, got %s", a.Status)
	}
	if a.CurrentBedID == nil || *a.CurrentBedID != bed.ID {
		t.Error("current_bed_id not set")
	}
	if bed.Status != facility.BedOccupied {
		t.Errorf("bed should be Occupied, got %s", bed.Status)
	}
	if _, err := env.ledger.GetOpen(context.Background(), a.ID); err != nil {
		t.Errorf("expected an open ledger interval: %v", err)
	}
}

func TestAdmit_Bedless(t *testing.T) {
	env := newTestEnv()
	a := newAdmission()
	if err := env.svc.Admit(context.Background(), a, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a.CurrentBedID != nil {
		t.Error("bedless admission should have no current bed")
	}
	if _, err := env.ledger.GetOpen(context.Background(), a.ID); !apperror.IsNotFound(err) {
		t.Errorf("expected no open interval, got %v", err)
	}
}

func TestAdmit_BedNotAvailable(t *testing.T) {
	env := newTestEnv()
	bed := env.beds.addBed(facility.BedOccupied)

	a := newAdmission()
	err := env.svc.Admit(context.Background(), a, &bed.ID)
	if !apperror.IsConflict(err) {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestAdmit_LinksSourceVisit(t *testing.T) {
	env := newTestEnv()
	v := &patient.Visit{PatientID: uuid.New(), VisitDate: time.Now(), Status: patient.VisitInProgress}
	if err := env.visits.Create(context.Background(), v); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	a := newAdmission()
	a.SourceVisitID = &v.ID
	if err := env.svc.Admit(context.Background(), a, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.AdmissionID == nil || *v.AdmissionID != a.ID {
		t.Error("visit not linked to admission")
	}
}

func TestTransferBed(t *testing.T) {
	env := newTestEnv()
	oldBed := env.beds.addBed(facility.BedAvailable)
	newBed := env.beds.addBed(facility.BedAvailable)

	a := newAdmission()
	if err := env.svc.Admit(context.Background(), a, &oldBed.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := env.svc.TransferBed(context.Background(), a.ID, newBed.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.CurrentBedID == nil || *got.CurrentBedID != newBed.ID {
		t.Error("current_bed_id not moved")
	}
	if oldBed.Status != facility.BedAvailable {
		t.Errorf("old bed should be freed, got %s", oldBed.Status)
	}
	if newBed.Status != facility.BedOccupied {
		t.Errorf("new bed should be Occupied, got %s", newBed.Status)
	}

	open, err := env.ledger.GetOpen(context.Background(), a.ID)
	if err != nil {
		t.Fatalf("expected open interval: %v", err)
	}
	if open.BedID != newBed.ID {
		t.Error("open interval should point at the new bed")
	}
	history, _ := env.ledger.History(context.Background(), a.ID)
	if len(history) != 2 {
		t.Errorf("expected 2 ledger entries, got %d", len(history))
	}
}

func TestTransferBed_TargetUnavailable_NoPartialFree(t *testing.T) {
	env := newTestEnv()
	oldBed := env.beds.addBed(facility.BedAvailable)
	busyBed := env.beds.addBed(facility.BedOccupied)

	a := newAdmission()
	if err := env.svc.Admit(context.Background(), a, &oldBed.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err := env.svc.TransferBed(context.Background(), a.ID, busyBed.ID)
	if !apperror.IsConflict(err) {
		t.Fatalf("expected conflict, got %v", err)
	}

	// The failed transfer must leave the previous occupancy intact.
	if oldBed.Status != facility.BedOccupied {
		t.Errorf("old bed must remain Occupied, got %s", oldBed.Status)
	}
	open, err := env.ledger.GetOpen(context.Background(), a.ID)
	if err != nil {
		t.Fatalf("open interval must survive a failed transfer: %v", err)
	}
	if open.BedID != oldBed.ID {
		t.Error("open interval must still point at the old bed")
	}
}

func TestTransferBed_Discharged(t *testing.T) {
	env := newTestEnv()
	bed := env.beds.addBed(facility.BedAvailable)
	a := newAdmission()
	if err := env.svc.Admit(context.Background(), a, &bed.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := env.svc.Discharge(context.Background(), a.ID, "Routine", ""); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	target := env.beds.addBed(facility.BedAvailable)
	_, err := env.svc.TransferBed(context.Background(), a.ID, target.ID)
	if !apperror.IsConflict(err) {
		t.Errorf("expected conflict for discharged patient, got %v", err)
	}
}

func TestTransferBed_SameBed(t *testing.T) {
	env := newTestEnv()
	bed := env.beds.addBed(facility.BedAvailable)
	a := newAdmission()
	if err := env.svc.Admit(context.Background(), a, &bed.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err := env.svc.TransferBed(context.Background(), a.ID, bed.ID)
	if !apperror.IsConflict(err) {
		t.Errorf("expected conflict for same-bed transfer, got %v", err)
	}
}

func TestAssignBed(t *testing.T) {
	env := newTestEnv()
	a := newAdmission()
	if err := env.svc.Admit(context.Background(), a, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	bed := env.beds.addBed(facility.BedAvailable)
	got, err := env.svc.AssignBed(context.Background(), a.ID, bed.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.CurrentBedID == nil || *got.CurrentBedID != bed.ID {
		t.Error("current_bed_id not set")
	}
	if bed.Status != facility.BedOccupied {
		t.Errorf("bed should be Occupied, got %s", bed.Status)
	}

	// A second assignment must go through transfer instead.
	other := env.beds.addBed(facility.BedAvailable)
	if _, err := env.svc.AssignBed(context.Background(), a.ID, other.ID); !apperror.IsConflict(err) {
		t.Errorf("expected conflict for double assign, got %v", err)
	}
}

func TestDischarge(t *testing.T) {
	env := newTestEnv()
	bed := env.beds.addBed(facility.BedAvailable)
	a := newAdmission()
	if err := env.svc.Admit(context.Background(), a, &bed.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := env.svc.Discharge(context.Background(), a.ID, "Routine", "stable at discharge")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Status != StatusDischarged {
		t.Errorf("expected Discharged, got %s", got.Status)
	}
	if got.CurrentBedID != nil {
		t.Error("current_bed_id must be cleared")
	}
	if got.DischargedAt == nil || got.DischargeType == nil || *got.DischargeType != "Routine" {
		t.Error("discharge metadata not stamped")
	}
	if bed.Status != facility.BedAvailable {
		t.Errorf("bed should be freed, got %s", bed.Status)
	}
	if _, err := env.ledger.GetOpen(context.Background(), a.ID); !apperror.IsNotFound(err) {
		t.Errorf("open interval must be closed, got %v", err)
	}
}

func TestDischarge_Bedless(t *testing.T) {
	env := newTestEnv()
	a := newAdmission()
	if err := env.svc.Admit(context.Background(), a, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := env.svc.Discharge(context.Background(), a.ID, "LAMA", "")
	if err != nil {
		t.Fatalf("bedless discharge should succeed: %v", err)
	}
	if got.Status != StatusDischarged {
		t.Errorf("expected Discharged, got %s", got.Status)
	}
}

func TestDischarge_AlreadyDischarged(t *testing.T) {
	env := newTestEnv()
	a := newAdmission()
	if err := env.svc.Admit(context.Background(), a, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := env.svc.Discharge(context.Background(), a.ID, "Routine", ""); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err := env.svc.Discharge(context.Background(), a.ID, "Routine", "")
	if !apperror.IsConflict(err) {
		t.Errorf("expected conflict, got %v", err)
	}
}

func TestAdmit_Validation(t *testing.T) {
	env := newTestEnv()
	tests := []struct {
		name string
		a    *Admission
	}{
		{"missing patient", &Admission{DoctorID: uuid.New(), DepartmentID: uuid.New()}},
		{"missing doctor", &Admission{PatientID: uuid.New(), DepartmentID: uuid.New()}},
		{"missing department", &Admission{PatientID: uuid.New(), DoctorID: uuid.New()}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := env.svc.Admit(context.Background(), tt.a, nil)
			if apperror.KindOf(err) != apperror.KindValidation {
				t.Errorf("expected validation error, got %v", err)
			}
		})
	}
}
