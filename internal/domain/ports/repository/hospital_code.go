package repository

import (
	"context"

	"clinic-code-service/internal/domain/model"
)

// HospitalCodeRepository is the port for managing hospital code records.
type HospitalCodeRepository interface {
	// Create inserts a new code. Returns domain.ErrAlreadyExists when the
	// code string collides with an existing record.
	Create(ctx context.Context, tx Tx, code *model.HospitalCode) error
	// FindByCode looks up a code by its normalized code string.
	FindByCode(ctx context.Context, tx Tx, code string) (*model.HospitalCode, error)
	// FindByID looks up a code by its identifier.
	FindByID(ctx context.Context, tx Tx, id string) (*model.HospitalCode, error)
	// ListByDoctor returns all codes issued by a doctor, newest first.
	ListByDoctor(ctx context.Context, tx Tx, doctorID string) ([]*model.HospitalCode, error)
	// SetActive toggles the active flag.
	SetActive(ctx context.Context, tx Tx, id string, active bool) error
	// IncrementUsage bumps the usage counter by one.
	IncrementUsage(ctx context.Context, tx Tx, id string) error
	// Delete removes the record. Soft-deactivation via SetActive is the
	// normal retirement path; hard delete is still supported.
	Delete(ctx context.Context, tx Tx, id string) error
}
