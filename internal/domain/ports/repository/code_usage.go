package repository

import (
	"context"

	"clinic-code-service/internal/domain/model"
)

// CodeUsageRepository is the port for redemption records.
type CodeUsageRepository interface {
	// Create inserts a redemption record. Returns domain.ErrAlreadyExists
	// when the (customer, code) pair already redeemed.
	Create(ctx context.Context, tx Tx, usage *model.HospitalCodeUsage) error
	// ListByCode returns the redemption history of a code, newest first.
	ListByCode(ctx context.Context, tx Tx, codeID string) ([]*model.HospitalCodeUsage, error)
	// ExistsByCustomerAndCode reports whether a customer already redeemed a code.
	ExistsByCustomerAndCode(ctx context.Context, tx Tx, customerID, codeID string) (bool, error)
}
