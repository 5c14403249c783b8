package surgery

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

type surgeryRepoPG struct{ pool *pgxpool.Pool }

func NewSurgeryRepoPG(pool *pgxpool.Pool) SurgeryRepository { return &surgeryRepoPG{pool: pool} }

func (r *surgeryRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const surgeryCols = `id, admission_id, procedure_name, surgeon_id, scheduled_start, ot_bed_id, status, created_at, updated_at`

func (r *surgeryRepoPG) scanSurgery(row pgx.Row) (*Surgery, error) {
	var s Surgery
	err := row.Scan(&s.ID, &s.AdmissionID, &s.ProcedureName, &s.SurgeonID, &s.ScheduledStart, &s.OTBedID, &s.Status, &s.CreatedAt, &s.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperror.NotFound("surgery not found")
	}
	return &s, err
}

func (r *surgeryRepoPG) Create(ctx context.Context, s *Surgery) error {
	s.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO surgery (id, admission_id, procedure_name, surgeon_id, scheduled_start, ot_bed_id, status)
		VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		s.ID, s.AdmissionID, s.ProcedureName, s.SurgeonID, s.ScheduledStart, s.OTBedID, s.Status)
	return err
}

func (r *surgeryRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Surgery, error) {
	return r.scanSurgery(r.conn(ctx).QueryRow(ctx, `SELECT `+surgeryCols+` FROM surgery WHERE id = $1`, id))
}

func (r *surgeryRepoPG) SetStatus(ctx context.Context, id uuid.UUID, status string) error {
	tag, err := r.conn(ctx).Exec(ctx,
		`UPDATE surgery SET status = $2, updated_at = NOW() WHERE id = $1`, id, status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperror.NotFound("surgery not found")
	}
	return nil
}

func (r *surgeryRepoPG) ListByAdmission(ctx context.Context, admissionID uuid.UUID) ([]*Surgery, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+surgeryCols+` FROM surgery WHERE admission_id = $1 ORDER BY scheduled_start`, admissionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return r.collect(rows)
}

func (r *surgeryRepoPG) ListBySurgeonBetween(ctx context.Context, surgeonID uuid.UUID, from, to time.Time) ([]*Surgery, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+surgeryCols+` FROM surgery
		WHERE surgeon_id = $1 AND status IN ($2, $3)
		  AND scheduled_start > $4 AND scheduled_start < $5
		ORDER BY scheduled_start`,
		surgeonID, StatusScheduled, StatusInProgress, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return r.collect(rows)
}

func (r *surgeryRepoPG) ListBySurgeonDay(ctx context.Context, surgeonID uuid.UUID, day time.Time) ([]*Surgery, error) {
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+surgeryCols+` FROM surgery
		WHERE surgeon_id = $1 AND scheduled_start >= $2 AND scheduled_start < $3
		ORDER BY scheduled_start`,
		surgeonID, start, start.Add(24*time.Hour))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return r.collect(rows)
}

func (r *surgeryRepoPG) collect(rows pgx.Rows) ([]*Surgery, error) {
	var items []*Surgery
	for rows.Next() {
		s, err := r.scanSurgery(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, s)
	}
	return items, nil
}
