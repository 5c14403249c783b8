package facility

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

// =========== Department Repository ===========

type departmentRepoPG struct{ pool *pgxpool.Pool }

func NewDepartmentRepoPG(pool *pgxpool.Pool) DepartmentRepository {
	return &departmentRepoPG{pool: pool}
}

func (r *departmentRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const departmentCols = `id, name, created_at, updated_at`

func (r *departmentRepoPG) scanDepartment(row pgx.Row) (*Department, error) {
	var d Department
	err := row.Scan(&d.ID, &d.Name, &d.CreatedAt, &d.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperror.NotFound("department not found")
	}
	return &d, err
}

func (r *departmentRepoPG) Create(ctx context.Context, d *Department) error {
	d.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO department (id, name) VALUES ($1,$2)`,
		d.ID, d.Name)
	return err
}

func (r *departmentRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Department, error) {
	return r.scanDepartment(r.conn(ctx).QueryRow(ctx, `SELECT `+departmentCols+` FROM department WHERE id = $1`, id))
}

func (r *departmentRepoPG) List(ctx context.Context) ([]*Department, error) {
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+departmentCols+` FROM department ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*Department
	for rows.Next() {
		d, err := r.scanDepartment(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, d)
	}
	return items, nil
}

// =========== Ward Repository ===========

type wardRepoPG struct{ pool *pgxpool.Pool }

func NewWardRepoPG(pool *pgxpool.Pool) WardRepository { return &wardRepoPG{pool: pool} }

func (r *wardRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const wardCols = `id, department_id, name, floor, type, base_price_per_day, created_at, updated_at`

func (r *wardRepoPG) scanWard(row pgx.Row) (*Ward, error) {
	var w Ward
	err := row.Scan(&w.ID, &w.DepartmentID, &w.Name, &w.Floor, &w.Type, &w.BasePricePerDay, &w.CreatedAt, &w.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperror.NotFound("ward not found")
	}
	return &w, err
}

func (r *wardRepoPG) Create(ctx context.Context, w *Ward) error {
	w.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO ward (id, department_id, name, floor, type, base_price_per_day)
		VALUES ($1,$2,$3,$4,$5,$6)`,
		w.ID, w.DepartmentID, w.Name, w.Floor, w.Type, w.BasePricePerDay)
	return err
}

func (r *wardRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Ward, error) {
	return r.scanWard(r.conn(ctx).QueryRow(ctx, `SELECT `+wardCols+` FROM ward WHERE id = $1`, id))
}

func (r *wardRepoPG) ListByDepartment(ctx context.Context, departmentID uuid.UUID) ([]*Ward, error) {
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+wardCols+` FROM ward WHERE department_id = $1 ORDER BY name`, departmentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return r.collectWards(rows)
}

func (r *wardRepoPG) List(ctx context.Context) ([]*Ward, error) {
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+wardCols+` FROM ward ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return r.collectWards(rows)
}

func (r *wardRepoPG) collectWards(rows pgx.Rows) ([]*Ward, error) {
	var items []*Ward
	for rows.Next() {
		w, err := r.scanWard(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, w)
	}
	return items, nil
}

// =========== Bed Repository ===========

type bedRepoPG struct{ pool *pgxpool.Pool }

func NewBedRepoPG(pool *pgxpool.Pool) BedRepository { return &bedRepoPG{pool: pool} }

func (r *bedRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const bedCols = `id, ward_id, bed_number, status, created_at, updated_at`

func (r *bedRepoPG) scanBed(row pgx.Row) (*Bed, error) {
	var b Bed
	err := row.Scan(&b.ID, &b.WardID, &b.BedNumber, &b.Status, &b.CreatedAt, &b.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperror.NotFound("bed not found")
	}
	return &b, err
}

func (r *bedRepoPG) Create(ctx context.Context, b *Bed) error {
	b.ID = uuid.New()
	if b.Status == "" {
		b.Status = BedAvailable
	}
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO bed (id, ward_id, bed_number, status)
		VALUES ($1,$2,$3,$4)`,
		b.ID, b.WardID, b.BedNumber, b.Status)
	return err
}

func (r *bedRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Bed, error) {
	return r.scanBed(r.conn(ctx).QueryRow(ctx, `SELECT `+bedCols+` FROM bed WHERE id = $1`, id))
}

func (r *bedRepoPG) GetByNumber(ctx context.Context, wardID uuid.UUID, bedNumber string) (*Bed, error) {
	return r.scanBed(r.conn(ctx).QueryRow(ctx,
		`SELECT `+bedCols+` FROM bed WHERE ward_id = $1 AND bed_number = $2`, wardID, bedNumber))
}

func (r *bedRepoPG) ListByWard(ctx context.Context, wardID uuid.UUID) ([]*Bed, error) {
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+bedCols+` FROM bed WHERE ward_id = $1 ORDER BY bed_number`, wardID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*Bed
	for rows.Next() {
		b, err := r.scanBed(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, b)
	}
	return items, nil
}

func (r *bedRepoPG) CountByWard(ctx context.Context, wardID uuid.UUID) (int, error) {
	var n int
	err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM bed WHERE ward_id = $1`, wardID).Scan(&n)
	return n, err
}

// Allocate marks an Available bed Occupied. The status guard in the WHERE
// clause makes concurrent allocations of the same bed lose cleanly: the
// loser sees zero rows updated and reports the bed's now-current status.
func (r *bedRepoPG) Allocate(ctx context.Context, id uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx,
		`UPDATE bed SET status = $2, updated_at = NOW() WHERE id = $1 AND status = $3`,
		id, BedOccupied, BedAvailable)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		b, err := r.GetByID(ctx, id)
		if err != nil {
			return err
		}
		return apperror.Conflict("bed %s is %s", b.BedNumber, b.Status)
	}
	return nil
}

func (r *bedRepoPG) Release(ctx context.Context, id uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx,
		`UPDATE bed SET status = $2, updated_at = NOW() WHERE id = $1 AND status = $3`,
		id, BedAvailable, BedOccupied)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		b, err := r.GetByID(ctx, id)
		if err != nil {
			return err
		}
		return apperror.Conflict("bed %s is %s, not Occupied", b.BedNumber, b.Status)
	}
	return nil
}

func (r *bedRepoPG) SetStatus(ctx context.Context, id uuid.UUID, status string) error {
	tag, err := r.conn(ctx).Exec(ctx,
		`UPDATE bed SET status = $2, updated_at = NOW() WHERE id = $1`, id, status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperror.NotFound("bed not found")
	}
	return nil
}
