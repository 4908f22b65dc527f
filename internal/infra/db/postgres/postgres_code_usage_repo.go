package postgres

import (
	"context"

	"github.com/jackc/pgx/v4/pgxpool"

	"clinic-code-service/internal/domain"
	"clinic-code-service/internal/domain/model"
	"clinic-code-service/internal/domain/ports/repository"
)

var _ repository.CodeUsageRepository = (*codeUsageRepo)(nil)

type codeUsageRepo struct {
	pool *pgxpool.Pool
}

func NewCodeUsageRepo(pool *pgxpool.Pool) repository.CodeUsageRepository {
	return &codeUsageRepo{pool: pool}
}

// Create inserts a redemption record. A unique index on
// (customer_id, code_id) backs the one-redemption-per-customer rule.
func (r *codeUsageRepo) Create(ctx context.Context, tx repository.Tx, usage *model.HospitalCodeUsage) error {
	const q = `
INSERT INTO hospital_code_usages (id, code_id, customer_id, used_at)
VALUES ($1, $2, $3, $4);
`
	_, err := execSQL(ctx, r.pool, tx, q, usage.ID, usage.CodeID, usage.CustomerID, usage.UsedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrAlreadyExists
		}
		return err
	}
	return nil
}

func (r *codeUsageRepo) ListByCode(ctx context.Context, tx repository.Tx, codeID string) ([]*model.HospitalCodeUsage, error) {
	const q = `
SELECT id, code_id, customer_id, used_at
  FROM hospital_code_usages
 WHERE code_id = $1
 ORDER BY used_at DESC;
`
	rows, err := pickRows(ctx, r.pool, tx, q, codeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.HospitalCodeUsage
	for rows.Next() {
		var u model.HospitalCodeUsage
		if err := rows.Scan(&u.ID, &u.CodeID, &u.CustomerID, &u.UsedAt); err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
		out = append(out, &u)
	}
	return out, rows.Err()
}

func (r *codeUsageRepo) ExistsByCustomerAndCode(ctx context.Context, tx repository.Tx, customerID, codeID string) (bool, error) {
	const q = `SELECT EXISTS (SELECT 1 FROM hospital_code_usages WHERE customer_id = $1 AND code_id = $2);`
	row, err := pickRow(ctx, r.pool, tx, q, customerID, codeID)
	if err != nil {
		return false, err
	}
	var exists bool
	if err := row.Scan(&exists); err != nil {
		return false, domain.ErrReadDatabaseRow
	}
	return exists, nil
}
