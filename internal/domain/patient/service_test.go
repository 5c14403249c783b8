package patient

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/hms/hms/internal/platform/apperror"
)

// -- Mock Repositories --

type mockPatientRepo struct {
	patients map[uuid.UUID]*Patient
	seq      int64
}

func newMockPatientRepo() *mockPatientRepo {
	return &mockPatientRepo{patients: make(map[uuid.UUID]*Patient)}
}

func (m *mockPatientRepo) Create(_ context.Context, p *Patient) error {
	p.ID = uuid.New()
	m.patients[p.ID] = p
	return nil
}

func (m *mockPatientRepo) GetByID(_ context.Context, id uuid.UUID) (*Patient, error) {
	p, ok := m.patients[id]
	if !ok {
		return nil, apperror.NotFound("patient not found")
	}
	return p, nil
}

func (m *mockPatientRepo) GetByUHID(_ context.Context, uhid string) (*Patient, error) {
	for _, p := range m.patients {
		if p.UHID == uhid {
			return p, nil
		}
	}
	return nil, apperror.NotFound("patient not found")
}

func (m *mockPatientRepo) List(_ context.Context, limit, offset int) ([]*Patient, int, error) {
	var result []*Patient
	for _, p := range m.patients {
		result = append(result, p)
	}
	return result, len(result), nil
}

func (m *mockPatientRepo) NextUHIDSeq(_ context.Context) (int64, error) {
	m.seq++
	return m.seq, nil
}

type mockVisitRepo struct {
	visits map[uuid.UUID]*Visit
}

func newMockVisitRepo() *mockVisitRepo {
	return &mockVisitRepo{visits: make(map[uuid.UUID]*Visit)}
}

func (m *mockVisitRepo) Create(_ context.Context, v *Visit) error {
	v.ID = uuid.New()
	m.visits[v.ID] = v
	return nil
}

func (m *mockVisitRepo) GetByID(_ context.Context, id uuid.UUID) (*Visit, error) {
	v, ok := m.visits[id]
	if !ok {
		return nil, apperror.NotFound("visit not found")
	}
	return v, nil
}

func (m *mockVisitRepo) LatestByPatient(_ context.Context, patientID uuid.UUID) (*Visit, error) {
	var latest *Visit
	for _, v := range m.visits {
		if v.PatientID != patientID {
			continue
		}
		if latest == nil || v.VisitDate.After(latest.VisitDate) {
			latest = v
		}
	}
	if latest == nil {
		return nil, apperror.NotFound("visit not found")
	}
	return latest, nil
}

func (m *mockVisitRepo) ListByPatient(_ context.Context, patientID uuid.UUID, limit, offset int) ([]*Visit, int, error) {
	var result []*Visit
	for _, v := range m.visits {
		if v.PatientID == patientID {
			result = append(result, v)
		}
	}
	return result, len(result), nil
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

func newTestService() *Service {
	s := NewService(newMockPatientRepo(), newMockVisitRepo())
	s.now = func() time.Time { return time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC) }
	return s
}

// -- Tests --

func TestRegister_GeneratesUHID(t *testing.T) {
	s := newTestService()
	p := &Patient{FirstName: "Asha"}
	if err := s.Register(context.Background(), p); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.UHID != "P-2024-0001" {
		t.Errorf("unexpected UHID: %s", p.UHID)
	}

	q := &Patient{FirstName: "Ravi"}
	if err := s.Register(context.Background(), q); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if q.UHID != "P-2024-0002" {
		t.Errorf("expected sequential UHID, got %s", q.UHID)
	}
}

func TestRegister_KeepsExplicitUHID(t *testing.T) {
	s := newTestService()
	p := &Patient{FirstName: "Asha", UHID: "P-2024-1001"}
	if err := s.Register(context.Background(), p); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.UHID != "P-2024-1001" {
		t.Errorf("explicit UHID overwritten: %s", p.UHID)
	}

	got, err := s.GetByUHID(context.Background(), "P-2024-1001")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.ID != p.ID {
		t.Error("lookup by UHID returned wrong patient")
	}
}

func TestRegister_Validation(t *testing.T) {
	s := newTestService()
	err := s.Register(context.Background(), &Patient{})
	if apperror.KindOf(err) != apperror.KindValidation {
		t.Errorf("expected validation error, got %v", err)
	}
	if err != nil && !strings.Contains(err.Error(), "first_name") {
		t.Errorf("error should name the missing field: %v", err)
	}
}

func TestCreateVisit(t *testing.T) {
	s := newTestService()
	p := &Patient{FirstName: "Asha"}
	if err := s.Register(context.Background(), p); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	v := &Visit{PatientID: p.ID}
	if err := s.CreateVisit(context.Background(), v); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.Status != VisitInProgress {
		t.Errorf("expected default status InProgress, got %s", v.Status)
	}
	if v.VisitDate.IsZero() {
		t.Error("visit date not defaulted")
	}
}

func TestCreateVisit_UnknownPatient(t *testing.T) {
	s := newTestService()
	v := &Visit{PatientID: uuid.New()}
	if err := s.CreateVisit(context.Background(), v); !apperror.IsNotFound(err) {
		t.Errorf("expected not found, got %v", err)
	}
}

func TestCreateVisit_InvalidStatus(t *testing.T) {
	s := newTestService()
	p := &Patient{FirstName: "Asha"}
	if err := s.Register(context.Background(), p); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	v := &Visit{PatientID: p.ID, Status: "Cancelled"}
	if err := s.CreateVisit(context.Background(), v); apperror.KindOf(err) != apperror.KindValidation {
		t.Errorf("expected validation error, got %v", err)
	}
}
