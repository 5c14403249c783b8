package billing

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hms/hms/internal/platform/apperror"
	"github.com/hms/hms/internal/platform/db"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

// =========== Service Order Repository ===========

type serviceOrderRepoPG struct{ pool *pgxpool.Pool }

func NewServiceOrderRepoPG(pool *pgxpool.Pool) ServiceOrderRepository {
	return &serviceOrderRepoPG{pool: pool}
}

func (r *serviceOrderRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const orderCols = `id, visit_id, admission_id, service_name, department, amount, is_paid, created_at, updated_at`

func (r *serviceOrderRepoPG) scanOrder(row pgx.Row) (*ServiceOrder, error) {
	var o ServiceOrder
	err := row.Scan(&o.ID, &o.VisitID, &o.AdmissionID, &o.ServiceName, &o.Department, &o.Amount, &o.IsPaid, &o.CreatedAt, &o.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperror.NotFound("service order not found")
	}
	return &o, err
}

func (r *serviceOrderRepoPG) Create(ctx context.Context, o *ServiceOrder) error {
	o.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO service_order (id, visit_id, admission_id, service_name, department, amount, is_paid)
		VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		o.ID, o.VisitID, o.AdmissionID, o.ServiceName, o.Department, o.Amount, o.IsPaid)
	return err
}

func (r *serviceOrderRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*ServiceOrder, error) {
	return r.scanOrder(r.conn(ctx).QueryRow(ctx, `SELECT `+orderCols+` FROM service_order WHERE id = $1`, id))
}

func (r *serviceOrderRepoPG) ListUnpaidByVisit(ctx context.Context, visitID uuid.UUID) ([]*ServiceOrder, error) {
	return r.list(ctx, `SELECT `+orderCols+` FROM service_order WHERE visit_id = $1 AND NOT is_paid ORDER BY created_at`, visitID)
}

func (r *serviceOrderRepoPG) ListUnpaidByAdmission(ctx context.Context, admissionID uuid.UUID) ([]*ServiceOrder, error) {
	return r.list(ctx, `SELECT `+orderCols+` FROM service_order WHERE admission_id = $1 AND NOT is_paid ORDER BY created_at`, admissionID)
}

func (r *serviceOrderRepoPG) list(ctx context.Context, sql string, arg interface{}) ([]*ServiceOrder, error) {
	rows, err := r.conn(ctx).Query(ctx, sql, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*ServiceOrder
	for rows.Next() {
		o, err := r.scanOrder(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, o)
	}
	return items, nil
}

func (r *serviceOrderRepoPG) MarkPaid(ctx context.Context, id uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx,
		`UPDATE service_order SET is_paid = TRUE, updated_at = NOW() WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperror.NotFound("service order not found")
	}
	return nil
}

func (r *serviceOrderRepoPG) MarkPaidByVisit(ctx context.Context, visitID uuid.UUID) error {
	_, err := r.conn(ctx).Exec(ctx,
		`UPDATE service_order SET is_paid = TRUE, updated_at = NOW() WHERE visit_id = $1 AND NOT is_paid`, visitID)
	return err
}

func (r *serviceOrderRepoPG) MarkPaidByAdmission(ctx context.Context, admissionID uuid.UUID) error {
	_, err := r.conn(ctx).Exec(ctx,
		`UPDATE service_order SET is_paid = TRUE, updated_at = NOW() WHERE admission_id = $1 AND NOT is_paid`, admissionID)
	return err
}

// =========== Prescription Charge Repository ===========

type prescriptionRepoPG struct{ pool *pgxpool.Pool }

func NewPrescriptionRepoPG(pool *pgxpool.Pool) PrescriptionRepository {
	return &prescriptionRepoPG{pool: pool}
}

func (r *prescriptionRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const prescriptionCols = `id, visit_id, admission_id, medicine_name, quantity, unit_price, amount, is_paid, created_at, updated_at`

func (r *prescriptionRepoPG) scanPrescription(row pgx.Row) (*PrescriptionCharge, error) {
	var p PrescriptionCharge
	err := row.Scan(&p.ID, &p.VisitID, &p.AdmissionID, &p.MedicineName, &p.Quantity, &p.UnitPrice, &p.Amount, &p.IsPaid, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperror.NotFound("prescription charge not found")
	}
	return &p, err
}

func (r *prescriptionRepoPG) Create(ctx context.Context, p *PrescriptionCharge) error {
	p.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO prescription_charge (id, visit_id, admission_id, medicine_name, quantity, unit_price, amount, is_paid)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		p.ID, p.VisitID, p.AdmissionID, p.MedicineName, p.Quantity, p.UnitPrice, p.Amount, p.IsPaid)
	return err
}

func (r *prescriptionRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*PrescriptionCharge, error) {
	return r.scanPrescription(r.conn(ctx).QueryRow(ctx, `SELECT `+prescriptionCols+` FROM prescription_charge WHERE id = $1`, id))
}

func (r *prescriptionRepoPG) ListUnpaidByVisit(ctx context.Context, visitID uuid.UUID) ([]*PrescriptionCharge, error) {
	return r.list(ctx, `SELECT `+prescriptionCols+` FROM prescription_charge WHERE visit_id = $1 AND NOT is_paid ORDER BY created_at`, visitID)
}

func (r *prescriptionRepoPG) ListUnpaidByAdmission(ctx context.Context, admissionID uuid.UUID) ([]*PrescriptionCharge, error) {
	return r.list(ctx, `SELECT `+prescriptionCols+` FROM prescription_charge WHERE admission_id = $1 AND NOT is_paid ORDER BY created_at`, admissionID)
}

func (r *prescriptionRepoPG) list(ctx context.Context, sql string, arg interface{}) ([]*PrescriptionCharge, error) {
	rows, err := r.conn(ctx).Query(ctx, sql, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*PrescriptionCharge
	for rows.Next() {
		p, err := r.scanPrescription(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, p)
	}
	return items, nil
}

func (r *prescriptionRepoPG) MarkPaid(ctx context.Context, id uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx,
		`UPDATE prescription_charge SET is_paid = TRUE, updated_at = NOW() WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperror.NotFound("prescription charge not found")
	}
	return nil
}

func (r *prescriptionRepoPG) MarkPaidByVisit(ctx context.Context, visitID uuid.UUID) error {
	_, err := r.conn(ctx).Exec(ctx,
		`UPDATE prescription_charge SET is_paid = TRUE, updated_at = NOW() WHERE visit_id = $1 AND NOT is_paid`, visitID)
	return err
}

func (r *prescriptionRepoPG) MarkPaidByAdmission(ctx context.Context, admissionID uuid.UUID) error {
	_, err := r.conn(ctx).Exec(ctx,
		`UPDATE prescription_charge SET is_paid = TRUE, updated_at = NOW() WHERE admission_id = $1 AND NOT is_paid`, admissionID)
	return err
}

// =========== Invoice Repository ===========

type invoiceRepoPG struct{ pool *pgxpool.Pool }

func NewInvoiceRepoPG(pool *pgxpool.Pool) InvoiceRepository { return &invoiceRepoPG{pool: pool} }

func (r *invoiceRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const invoiceCols = `id, visit_id, admission_id, status, total, created_at, updated_at`

func (r *invoiceRepoPG) scanInvoice(row pgx.Row) (*Invoice, error) {
	var inv Invoice
	err := row.Scan(&inv.ID, &inv.VisitID, &inv.AdmissionID, &inv.Status, &inv.Total, &inv.CreatedAt, &inv.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperror.NotFound("invoice not found")
	}
	return &inv, err
}

func (r *invoiceRepoPG) Create(ctx context.Context, inv *Invoice) error {
	inv.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO invoice (id, visit_id, admission_id, status, total)
		VALUES ($1,$2,$3,$4,$5)`,
		inv.ID, inv.VisitID, inv.AdmissionID, inv.Status, inv.Total)
	return err
}

func (r *invoiceRepoPG) GetByVisit(ctx context.Context, visitID uuid.UUID) (*Invoice, error) {
	return r.scanInvoice(r.conn(ctx).QueryRow(ctx,
		`SELECT `+invoiceCols+` FROM invoice WHERE visit_id = $1 ORDER BY created_at DESC LIMIT 1`, visitID))
}

func (r *invoiceRepoPG) GetByAdmission(ctx context.Context, admissionID uuid.UUID) (*Invoice, error) {
	return r.scanInvoice(r.conn(ctx).QueryRow(ctx,
		`SELECT `+invoiceCols+` FROM invoice WHERE admission_id = $1 ORDER BY created_at DESC LIMIT 1`, admissionID))
}

func (r *invoiceRepoPG) Update(ctx context.Context, inv *Invoice) error {
	_, err := r.conn(ctx).Exec(ctx,
		`UPDATE invoice SET status = $2, total = $3, updated_at = NOW() WHERE id = $1`,
		inv.ID, inv.Status, inv.Total)
	return err
}

// =========== Catalog Repository ===========

type catalogRepoPG struct{ pool *pgxpool.Pool }

func NewCatalogRepoPG(pool *pgxpool.Pool) CatalogRepository { return &catalogRepoPG{pool: pool} }

func (r *catalogRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

func (r *catalogRepoPG) CreateService(ctx context.Context, s *CatalogService) error {
	s.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx,
		`INSERT INTO service_catalog (id, name, department, base_price) VALUES ($1,$2,$3,$4)`,
		s.ID, s.Name, s.Department, s.BasePrice)
	return err
}

func (r *catalogRepoPG) GetServiceByID(ctx context.Context, id uuid.UUID) (*CatalogService, error) {
	var s CatalogService
	err := r.conn(ctx).QueryRow(ctx,
		`SELECT id, name, department, base_price FROM service_catalog WHERE id = $1`, id).
		Scan(&s.ID, &s.Name, &s.Department, &s.BasePrice)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperror.NotFound("catalog service not found")
	}
	return &s, err
}

func (r *catalogRepoPG) ListServices(ctx context.Context) ([]*CatalogService, error) {
	rows, err := r.conn(ctx).Query(ctx, `SELECT id, name, department, base_price FROM service_catalog ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*CatalogService
	for rows.Next() {
		var s CatalogService
		if err := rows.Scan(&s.ID, &s.Name, &s.Department, &s.BasePrice); err != nil {
			return nil, err
		}
		items = append(items, &s)
	}
	return items, nil
}

func (r *catalogRepoPG) CreateMedicine(ctx context.Context, m *CatalogMedicine) error {
	m.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx,
		`INSERT INTO medicine_catalog (id, name, unit_price) VALUES ($1,$2,$3)`,
		m.ID, m.Name, m.UnitPrice)
	return err
}

func (r *catalogRepoPG) GetMedicineByID(ctx context.Context, id uuid.UUID) (*CatalogMedicine, error) {
	var m CatalogMedicine
	err := r.conn(ctx).QueryRow(ctx,
		`SELECT id, name, unit_price FROM medicine_catalog WHERE id = $1`, id).
		Scan(&m.ID, &m.Name, &m.UnitPrice)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperror.NotFound("catalog medicine not found")
	}
	return &m, err
}

func (r *catalogRepoPG) ListMedicines(ctx context.Context) ([]*CatalogMedicine, error) {
	rows, err := r.conn(ctx).Query(ctx, `SELECT id, name, unit_price FROM medicine_catalog ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*CatalogMedicine
	for rows.Next() {
		var m CatalogMedicine
		if err := rows.Scan(&m.ID, &m.Name, &m.UnitPrice); err != nil {
			return nil, err
		}
		items = append(items, &m)
	}
	return items, nil
}

// =========== Accommodation Interval Reader ===========

type ledgerReaderPG struct{ pool *pgxpool.Pool }

func NewLedgerReaderPG(pool *pgxpool.Pool) LedgerReader { return &ledgerReaderPG{pool: pool} }

func (r *ledgerReaderPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

func (r *ledgerReaderPG) ListIntervals(ctx context.Context, admissionID uuid.UUID) ([]*AccommodationInterval, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT b.bed_number, w.name, w.base_price_per_day, l.start_date, l.end_date
		FROM bed_transfer_ledger l
		JOIN bed b ON b.id = l.bed_id
		JOIN ward w ON w.id = b.ward_id
		WHERE l.admission_id = $1
		ORDER BY l.start_date`, admissionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*AccommodationInterval
	for rows.Next() {
		var iv AccommodationInterval
		if err := rows.Scan(&iv.BedNumber, &iv.WardName, &iv.BasePricePerDay, &iv.StartDate, &iv.EndDate); err != nil {
			return nil, err
		}
		items = append(items, &iv)
	}
	return items, nil
}
