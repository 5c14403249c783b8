package admission

import (
	"context"
	"errors"
	"time"

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

// =========== Admission Repository ===========

type admissionRepoPG struct{ pool *pgxpool.Pool }

func NewAdmissionRepoPG(pool *pgxpool.Pool) AdmissionRepository {
	return &admissionRepoPG{pool: pool}
}

func (r *admissionRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const admissionCols = `id, patient_id, doctor_id, department_id, source_visit_id, current_bed_id,
	admission_type, reason, status, admitted_at, discharged_at, discharge_type, discharge_summary,
	created_at, updated_at`

func (r *admissionRepoPG) scanAdmission(row pgx.Row) (*Admission, error) {
	var a Admission
	err := row.Scan(&a.ID, &a.PatientID, &a.DoctorID, &a.DepartmentID, &a.SourceVisitID, &a.CurrentBedID,
		&a.AdmissionType, &a.Reason, &a.Status, &a.AdmittedAt, &a.DischargedAt, &a.DischargeType, &a.DischargeSummary,
		&a.CreatedAt, &a.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperror.NotFound("admission not found")
	}
	return &a, err
}

func (r *admissionRepoPG) Create(ctx context.Context, a *Admission) error {
	a.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO admission (id, patient_id, doctor_id, department_id, source_visit_id, current_bed_id,
			admission_type, reason, status, admitted_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
		a.ID, a.PatientID, a.DoctorID, a.DepartmentID, a.SourceVisitID, a.CurrentBedID,
		a.AdmissionType, a.Reason, a.Status, a.AdmittedAt)
	return err
}

func (r *admissionRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Admission, error) {
	return r.scanAdmission(r.conn(ctx).QueryRow(ctx, `SELECT `+admissionCols+` FROM admission WHERE id = $1`, id))
}

func (r *admissionRepoPG) Update(ctx context.Context, a *Admission) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE admission SET current_bed_id=$2, status=$3, discharged_at=$4,
			discharge_type=$5, discharge_summary=$6, updated_at=NOW()
		WHERE id = $1`,
		a.ID, a.CurrentBedID, a.Status, a.DischargedAt, a.DischargeType, a.DischargeSummary)
	return err
}

func (r *admissionRepoPG) LatestByPatient(ctx context.Context, patientID uuid.UUID) (*Admission, error) {
	return r.scanAdmission(r.conn(ctx).QueryRow(ctx,
		`SELECT `+admissionCols+` FROM admission WHERE patient_id = $1 ORDER BY admitted_at DESC LIMIT 1`, patientID))
}

func (r *admissionRepoPG) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Admission, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM admission WHERE patient_id = $1`, patientID).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+admissionCols+` FROM admission WHERE patient_id = $1 ORDER BY admitted_at DESC LIMIT $2 OFFSET $3`,
		patientID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*Admission
	for rows.Next() {
		a, err := r.scanAdmission(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, a)
	}
	return items, total, nil
}

// =========== Bed Transfer Ledger Repository ===========

type ledgerRepoPG struct{ pool *pgxpool.Pool }

func NewLedgerRepoPG(pool *pgxpool.Pool) LedgerRepository { return &ledgerRepoPG{pool: pool} }

func (r *ledgerRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const ledgerCols = `id, admission_id, bed_id, start_date, end_date`

func (r *ledgerRepoPG) scanEntry(row pgx.Row) (*LedgerEntry, error) {
	var e LedgerEntry
	err := row.Scan(&e.ID, &e.AdmissionID, &e.BedID, &e.StartDate, &e.EndDate)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperror.NotFound("no open bed interval")
	}
	return &e, err
}

func (r *ledgerRepoPG) Open(ctx context.Context, e *LedgerEntry) error {
	e.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO bed_transfer_ledger (id, admission_id, bed_id, start_date)
		VALUES ($1,$2,$3,$4)`,
		e.ID, e.AdmissionID, e.BedID, e.StartDate)
	return err
}

func (r *ledgerRepoPG) GetOpen(ctx context.Context, admissionID uuid.UUID) (*LedgerEntry, error) {
	return r.scanEntry(r.conn(ctx).QueryRow(ctx,
		`SELECT `+ledgerCols+` FROM bed_transfer_ledger WHERE admission_id = $1 AND end_date IS NULL`, admissionID))
}

func (r *ledgerRepoPG) CloseOpen(ctx context.Context, admissionID uuid.UUID, end time.Time) (*LedgerEntry, error) {
	return r.scanEntry(r.conn(ctx).QueryRow(ctx, `
		UPDATE bed_transfer_ledger SET end_date = $2
		WHERE admission_id = $1 AND end_date IS NULL
		RETURNING `+ledgerCols, admissionID, end))
}

func (r *ledgerRepoPG) History(ctx context.Context, admissionID uuid.UUID) ([]*LedgerEntry, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+ledgerCols+` FROM bed_transfer_ledger WHERE admission_id = $1 ORDER BY start_date`, admissionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*LedgerEntry
	for rows.Next() {
		e, err := r.scanEntry(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, e)
	}
	return items, nil
}
