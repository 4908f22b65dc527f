package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"clinic-code-service/internal/domain"
	"clinic-code-service/internal/domain/model"
	"clinic-code-service/internal/domain/ports/repository"
)

// Ensure implementation satisfies the interface.
var _ repository.HospitalCodeRepository = (*hospitalCodeRepo)(nil)

type hospitalCodeRepo struct {
	pool *pgxpool.Pool
}

func NewHospitalCodeRepo(pool *pgxpool.Pool) repository.HospitalCodeRepository {
	return &hospitalCodeRepo{pool: pool}
}

const hospitalCodeColumns = `id, code, doctor_id, name, is_active, usage_count, max_usage, expires_at, created_at, updated_at`

func (r *hospitalCodeRepo) Create(ctx context.Context, tx repository.Tx, code *model.HospitalCode) error {
	if code.ID == "" {
		code.ID = uuid.NewString()
	}

	const q = `
INSERT INTO hospital_codes (id, code, doctor_id, name, is_active, usage_count, max_usage, expires_at, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10);
`
	_, err := execSQL(ctx, r.pool, tx, q,
		code.ID, code.Code, code.DoctorID, code.Name, code.IsActive, code.UsageCount, code.MaxUsage, code.ExpiresAt, code.CreatedAt, code.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrAlreadyExists
		}
		return err
	}
	return nil
}

// FindByCode looks up a code by its normalized code string. Used on the
// verification hot path, so inactive and expired records are still returned:
// the validator reports WHY a code is unusable, not just that it is missing.
func (r *hospitalCodeRepo) FindByCode(ctx context.Context, tx repository.Tx, code string) (*model.HospitalCode, error) {
	const q = `SELECT ` + hospitalCodeColumns + ` FROM hospital_codes WHERE code = $1;`
	return r.scanOne(ctx, tx, q, code)
}

func (r *hospitalCodeRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.HospitalCode, error) {
	q := `SELECT ` + hospitalCodeColumns + ` FROM hospital_codes WHERE id = $1`
	if _, ok := tx.(pgx.Tx); ok {
		q += " FOR UPDATE"
	}
	q += ";"
	return r.scanOne(ctx, tx, q, id)
}

func (r *hospitalCodeRepo) ListByDoctor(ctx context.Context, tx repository.Tx, doctorID string) ([]*model.HospitalCode, error) {
	const q = `SELECT ` + hospitalCodeColumns + ` FROM hospital_codes WHERE doctor_id = $1 ORDER BY created_at DESC;`
	rows, err := pickRows(ctx, r.pool, tx, q, doctorID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.HospitalCode
	for rows.Next() {
		var hc model.HospitalCode
		if err := rows.Scan(
			&hc.ID, &hc.Code, &hc.DoctorID, &hc.Name, &hc.IsActive, &hc.UsageCount, &hc.MaxUsage, &hc.ExpiresAt, &hc.CreatedAt, &hc.UpdatedAt,
		); err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
		out = append(out, &hc)
	}
	return out, rows.Err()
}

func (r *hospitalCodeRepo) SetActive(ctx context.Context, tx repository.Tx, id string, active bool) error {
	const q = `UPDATE hospital_codes SET is_active = $2, updated_at = NOW() WHERE id = $1;`
	cmd, err := execSQL(ctx, r.pool, tx, q, id, active)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *hospitalCodeRepo) IncrementUsage(ctx context.Context, tx repository.Tx, id string) error {
	const q = `UPDATE hospital_codes SET usage_count = usage_count + 1, updated_at = NOW() WHERE id = $1;`
	cmd, err := execSQL(ctx, r.pool, tx, q, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *hospitalCodeRepo) Delete(ctx context.Context, tx repository.Tx, id string) error {
	const q = `DELETE FROM hospital_codes WHERE id = $1;`
	cmd, err := execSQL(ctx, r.pool, tx, q, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *hospitalCodeRepo) scanOne(ctx context.Context, tx repository.Tx, q string, arg interface{}) (*model.HospitalCode, error) {
	row, err := pickRow(ctx, r.pool, tx, q, arg)
	if err != nil {
		return nil, err
	}

	var hc model.HospitalCode
	err = row.Scan(
		&hc.ID, &hc.Code, &hc.DoctorID, &hc.Name, &hc.IsActive, &hc.UsageCount, &hc.MaxUsage, &hc.ExpiresAt, &hc.CreatedAt, &hc.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	return &hc, nil
}
