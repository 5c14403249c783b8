package billing

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/hms/hms/internal/domain/admission"
	"github.com/hms/hms/internal/domain/patient"
	"github.com/hms/hms/internal/domain/surgery"
	"github.com/hms/hms/internal/platform/apperror"
	"github.com/hms/hms/internal/platform/db"
)

// Repos groups every store the billing service reads or writes. Billing
// spans the clinical packages, so the set is wider than elsewhere.
type Repos struct {
	Orders        ServiceOrderRepository
	Prescriptions PrescriptionRepository
	Invoices      InvoiceRepository
	Catalog       CatalogRepository
	Intervals     LedgerReader
	Patients      patient.PatientRepository
	Visits        patient.VisitRepository
	Admissions    admission.AdmissionRepository
	Surgeries     surgery.SurgeryRepository
}

type txRunner func(ctx context.Context, fn func(ctx context.Context) error) error

type Service struct {
	r    Repos
	fees Fees

	// runTx wraps multi-step mutations in a serializable transaction.
	// runReadTx gives aggregation a single snapshot so the invoice probe
	// and the line-item queries cannot straddle a concurrent finalize.
	runTx     txRunner
	runReadTx txRunner
	now       func() time.Time
}

func NewService(r Repos, fees Fees, pool *pgxpool.Pool) *Service {
	return &Service{
		r:    r,
		fees: fees,
		runTx: func(ctx context.Context, fn func(ctx context.Context) error) error {
			return db.RunSerializable(ctx, pool, fn)
		},
		runReadTx: func(ctx context.Context, fn func(ctx context.Context) error) error {
			return db.RunInTx(ctx, pool, pgx.RepeatableRead, fn)
		},
		now: time.Now,
	}
}

// =========== Charge sources ===========

func validateContextRefs(visitID, admissionID *uuid.UUID) error {
	if (visitID == nil) == (admissionID == nil) {
		return apperror.Validation("exactly one of visit_id and admission_id is required")
	}
	return nil
}

func (s *Service) checkContext(ctx context.Context, visitID, admissionID *uuid.UUID) error {
	if err := validateContextRefs(visitID, admissionID); err != nil {
		return err
	}
	if visitID != nil {
		_, err := s.r.Visits.GetByID(ctx, *visitID)
		return err
	}
	_, err := s.r.Admissions.GetByID(ctx, *admissionID)
	return err
}

// CreateServiceOrder books a catalog service against a visit or admission,
// copying the catalog price so later catalog edits cannot reprice it.
func (s *Service) CreateServiceOrder(ctx context.Context, serviceID uuid.UUID, visitID, admissionID *uuid.UUID) (*ServiceOrder, error) {
	if err := s.checkContext(ctx, visitID, admissionID); err != nil {
		return nil, err
	}
	svc, err := s.r.Catalog.GetServiceByID(ctx, serviceID)
	if err != nil {
		return nil, err
	}
	o := &ServiceOrder{
		VisitID:     visitID,
		AdmissionID: admissionID,
		ServiceName: svc.Name,
		Department:  svc.Department,
		Amount:      svc.BasePrice,
	}
	if err := s.r.Orders.Create(ctx, o); err != nil {
		return nil, err
	}
	return o, nil
}

// CreatePrescriptionCharge books a dispensed medicine against a visit or
// admission. Amount is quantity times the catalog unit price at dispense time.
func (s *Service) CreatePrescriptionCharge(ctx context.Context, medicineID uuid.UUID, quantity int, visitID, admissionID *uuid.UUID) (*PrescriptionCharge, error) {
	if quantity < 1 {
		return nil, apperror.Validation("quantity must be at least 1")
	}
	if err := s.checkContext(ctx, visitID, admissionID); err != nil {
		return nil, err
	}
	med, err := s.r.Catalog.GetMedicineByID(ctx, medicineID)
	if err != nil {
		return nil, err
	}
	p := &PrescriptionCharge{
		VisitID:      visitID,
		AdmissionID:  admissionID,
		MedicineName: med.Name,
		Quantity:     quantity,
		UnitPrice:    med.UnitPrice,
		Amount:       med.UnitPrice.Mul(decimal.NewFromInt(int64(quantity))),
	}
	if err := s.r.Prescriptions.Create(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// =========== Catalog ===========

func (s *Service) CreateCatalogService(ctx context.Context, cs *CatalogService) error {
	if cs.Name == "" {
		return apperror.Validation("name is required")
	}
	if !cs.BasePrice.IsPositive() {
		return apperror.Validation("base_price must be positive")
	}
	return s.r.Catalog.CreateService(ctx, cs)
}

func (s *Service) ListCatalogServices(ctx context.Context) ([]*CatalogService, error) {
	return s.r.Catalog.ListServices(ctx)
}

func (s *Service) CreateCatalogMedicine(ctx context.Context, m *CatalogMedicine) error {
	if m.Name == "" {
		return apperror.Validation("name is required")
	}
	if !m.UnitPrice.IsPositive() {
		return apperror.Validation("unit_price must be positive")
	}
	return s.r.Catalog.CreateMedicine(ctx, m)
}

func (s *Service) ListCatalogMedicines(ctx context.Context) ([]*CatalogMedicine, error) {
	return s.r.Catalog.ListMedicines(ctx)
}

// =========== Aggregation ===========

// GetActiveBill resolves the patient's active OPD or IPD context and
// aggregates its outstanding charges into a single bill. The whole read
// runs in one repeatable-read snapshot.
func (s *Service) GetActiveBill(ctx context.Context, uhid string) (*Bill, error) {
	var bill *Bill
	err := s.runReadTx(ctx, func(ctx context.Context) error {
		p, err := s.r.Patients.GetByUHID(ctx, uhid)
		if err != nil {
			return err
		}

		adm, err := s.r.Admissions.LatestByPatient(ctx, p.ID)
		if err != nil && !apperror.IsNotFound(err) {
			return err
		}
		visit, err := s.r.Visits.LatestByPatient(ctx, p.ID)
		if err != nil && !apperror.IsNotFound(err) {
			return err
		}

		ac, err := ResolveActiveContext(adm, visit)
		if err != nil {
			return err
		}

		var lines []LineItem
		var inv *Invoice
		var contextID uuid.UUID
		if ac.Type == ContextIPD {
			// A newer visit may link to an admission other than the
			// latest one, so re-fetch when the IDs differ.
			if adm == nil || adm.ID != ac.AdmissionID {
				if adm, err = s.r.Admissions.GetByID(ctx, ac.AdmissionID); err != nil {
					return err
				}
			}
			contextID = adm.ID
			lines, inv, err = s.admissionLines(ctx, adm)
		} else {
			contextID = visit.ID
			lines, inv, err = s.visitLines(ctx, visit)
		}
		if err != nil {
			return err
		}

		total := decimal.Zero
		for _, l := range lines {
			total = total.Add(l.Amount)
		}

		status := BillUnpaid
		if len(lines) == 0 {
			status = BillNoCharges
			if inv != nil && (inv.Status == InvoicePaid || inv.Status == InvoiceFinalized) {
				status = BillPaid
			}
		}

		bill = &Bill{
			UHID:        p.UHID,
			PatientName: p.FirstName + " " + p.LastName,
			ContextType: ac.Type,
			ContextID:   contextID,
			Status:      status,
			Lines:       lines,
			GrandTotal:  total,
		}
		return nil
	})
	return bill, err
}

// invoiceFor returns the context's invoice or nil when none exists yet.
func invoiceFor(inv *Invoice, err error) (*Invoice, error) {
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return inv, nil
}

func (s *Service) visitLines(ctx context.Context, v *patient.Visit) ([]LineItem, *Invoice, error) {
	inv, err := invoiceFor(s.invGet(ctx, v.ID, uuid.Nil))
	if err != nil {
		return nil, nil, err
	}

	var lines []LineItem
	if inv == nil {
		lines = append(lines, LineItem{
			Type:        LineMandatoryFee,
			Description: "Registration Fee",
			Amount:      s.fees.Registration,
		})
	}

	orders, err := s.r.Orders.ListUnpaidByVisit(ctx, v.ID)
	if err != nil {
		return nil, nil, err
	}
	prescriptions, err := s.r.Prescriptions.ListUnpaidByVisit(ctx, v.ID)
	if err != nil {
		return nil, nil, err
	}
	lines = appendChargeLines(lines, orders, prescriptions)
	return lines, inv, nil
}

func (s *Service) admissionLines(ctx context.Context, adm *admission.Admission) ([]LineItem, *Invoice, error) {
	inv, err := invoiceFor(s.invGet(ctx, uuid.Nil, adm.ID))
	if err != nil {
		return nil, nil, err
	}

	var lines []LineItem
	if inv == nil {
		lines = append(lines, LineItem{
			Type:        LineMandatoryFee,
			Description: "Admission Fee",
			Amount:      s.fees.Admission,
		})
	}

	orders, err := s.r.Orders.ListUnpaidByAdmission(ctx, adm.ID)
	if err != nil {
		return nil, nil, err
	}
	prescriptions, err := s.r.Prescriptions.ListUnpaidByAdmission(ctx, adm.ID)
	if err != nil {
		return nil, nil, err
	}
	lines = appendChargeLines(lines, orders, prescriptions)

	intervals, err := s.r.Intervals.ListIntervals(ctx, adm.ID)
	if err != nil {
		return nil, nil, err
	}
	for _, iv := range intervals {
		if iv.EndDate != nil {
			// Closed intervals are settled by the first finalize; an
			// existing invoice means they were already billed.
			if inv == nil {
				days := admission.ChargeDays(iv.StartDate, *iv.EndDate)
				lines = append(lines, accommodationLine(iv, days))
			}
			continue
		}
		// The running stay is unpaid by construction, so the open
		// interval and its nursing charge are always billed. They keep
		// accruing until discharge, so Finalize leaves them outstanding.
		days := admission.ChargeDays(iv.StartDate, s.now())
		acc := accommodationLine(iv, days)
		acc.accrued = true
		lines = append(lines, acc)
		lines = append(lines, LineItem{
			Type:        LineNursing,
			Description: fmt.Sprintf("Nursing Charge, %d day(s)", days),
			Department:  iv.WardName,
			Amount:      s.fees.NursingPerDay.Mul(decimal.NewFromInt(int64(days))),
			accrued:     true,
		})
	}

	if inv == nil {
		surgeries, err := s.r.Surgeries.ListByAdmission(ctx, adm.ID)
		if err != nil {
			return nil, nil, err
		}
		for _, sur := range surgeries {
			lines = append(lines, LineItem{
				Type:        LineSurgery,
				Description: sur.ProcedureName,
				Amount:      s.fees.Surgery,
			})
		}
	}
	return lines, inv, nil
}

func (s *Service) invGet(ctx context.Context, visitID, admissionID uuid.UUID) (*Invoice, error) {
	if admissionID != uuid.Nil {
		return s.r.Invoices.GetByAdmission(ctx, admissionID)
	}
	return s.r.Invoices.GetByVisit(ctx, visitID)
}

func appendChargeLines(lines []LineItem, orders []*ServiceOrder, prescriptions []*PrescriptionCharge) []LineItem {
	for _, o := range orders {
		li := LineItem{Type: LineService, Description: o.ServiceName, Amount: o.Amount}
		if o.Department != nil {
			li.Department = *o.Department
		}
		lines = append(lines, li)
	}
	for _, p := range prescriptions {
		lines = append(lines, LineItem{
			Type:        LinePrescription,
			Description: fmt.Sprintf("%s x%d", p.MedicineName, p.Quantity),
			Department:  "Pharmacy",
			Amount:      p.Amount,
		})
	}
	return lines
}

func accommodationLine(iv *AccommodationInterval, days int) LineItem {
	return LineItem{
		Type:        LineAccommodation,
		Description: fmt.Sprintf("%s bed %s, %d day(s)", iv.WardName, iv.BedNumber, days),
		Department:  iv.WardName,
		Amount:      iv.BasePricePerDay.Mul(decimal.NewFromInt(int64(days))),
	}
}

// =========== Finalizer ===========

// Finalize settles a context: every unpaid charge is marked paid and the
// context's invoice becomes Paid, created with the just-aggregated total
// when none exists yet. An open stay's accommodation and nursing charges
// are excluded, they keep accruing until discharge closes the interval
// and only then settle. A visit context also moves to Completed; admission
// status is never touched here, discharge is a clinical action.
func (s *Service) Finalize(ctx context.Context, visitID, admissionID *uuid.UUID) (*Invoice, error) {
	if err := validateContextRefs(visitID, admissionID); err != nil {
		return nil, err
	}
	var settled *Invoice
	err := s.runTx(ctx, func(ctx context.Context) error {
		var lines []LineItem
		var inv *Invoice
		var err error
		if visitID != nil {
			v, verr := s.r.Visits.GetByID(ctx, *visitID)
			if verr != nil {
				return verr
			}
			if lines, inv, err = s.visitLines(ctx, v); err != nil {
				return err
			}
			if err := s.r.Orders.MarkPaidByVisit(ctx, v.ID); err != nil {
				return err
			}
			if err := s.r.Prescriptions.MarkPaidByVisit(ctx, v.ID); err != nil {
				return err
			}
			if err := s.r.Visits.SetStatus(ctx, v.ID, patient.VisitCompleted); err != nil {
				return err
			}
		} else {
			adm, aerr := s.r.Admissions.GetByID(ctx, *admissionID)
			if aerr != nil {
				return aerr
			}
			if lines, inv, err = s.admissionLines(ctx, adm); err != nil {
				return err
			}
			if err := s.r.Orders.MarkPaidByAdmission(ctx, adm.ID); err != nil {
				return err
			}
			if err := s.r.Prescriptions.MarkPaidByAdmission(ctx, adm.ID); err != nil {
				return err
			}
		}

		total := decimal.Zero
		for _, l := range lines {
			if l.accrued {
				continue
			}
			total = total.Add(l.Amount)
		}

		if inv == nil {
			inv = &Invoice{
				VisitID:     visitID,
				AdmissionID: admissionID,
				Status:      InvoicePaid,
				Total:       total,
			}
			if err := s.r.Invoices.Create(ctx, inv); err != nil {
				return err
			}
		} else {
			inv.Status = InvoicePaid
			inv.Total = inv.Total.Add(total)
			if err := s.r.Invoices.Update(ctx, inv); err != nil {
				return err
			}
		}
		settled = inv
		return nil
	})
	return settled, err
}

// GenerateInvoiceForServiceOrder settles a single order with its own
// finalized invoice, the "pay at the counter" path.
func (s *Service) GenerateInvoiceForServiceOrder(ctx context.Context, orderID uuid.UUID) (*Invoice, error) {
	var inv *Invoice
	err := s.runTx(ctx, func(ctx context.Context) error {
		o, err := s.r.Orders.GetByID(ctx, orderID)
		if err != nil {
			return err
		}
		if o.IsPaid {
			return apperror.Conflict("service order %s is already paid", o.ID)
		}
		inv = &Invoice{
			VisitID:     o.VisitID,
			AdmissionID: o.AdmissionID,
			Status:      InvoiceFinalized,
			Total:       o.Amount,
		}
		if err := s.r.Invoices.Create(ctx, inv); err != nil {
			return err
		}
		return s.r.Orders.MarkPaid(ctx, o.ID)
	})
	if err != nil {
		return nil, err
	}
	return inv, nil
}

// GenerateInvoiceForPrescription is the prescription counterpart of
// GenerateInvoiceForServiceOrder.
func (s *Service) GenerateInvoiceForPrescription(ctx context.Context, chargeID uuid.UUID) (*Invoice, error) {
	var inv *Invoice
	err := s.runTx(ctx, func(ctx context.Context) error {
		p, err := s.r.Prescriptions.GetByID(ctx, chargeID)
		if err != nil {
			return err
		}
		if p.IsPaid {
			return apperror.Conflict("prescription charge %s is already paid", p.ID)
		}
		inv = &Invoice{
			VisitID:     p.VisitID,
			AdmissionID: p.AdmissionID,
			Status:      InvoiceFinalized,
			Total:       p.Amount,
		}
		if err := s.r.Invoices.Create(ctx, inv); err != nil {
			return err
		}
		return s.r.Prescriptions.MarkPaid(ctx, p.ID)
	})
	if err != nil {
		return nil, err
	}
	return inv, nil
}
