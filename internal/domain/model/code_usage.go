package model

import (
	"time"

	"clinic-code-service/internal/domain"
)

// HospitalCodeUsage records one successful redemption of a hospital code by
// a customer. Rows are immutable and never deleted.
type HospitalCodeUsage struct {
	ID         string // ULID
	CodeID     string // UUID of the redeemed HospitalCode
	CustomerID string // UUID of the redeeming customer
	UsedAt     time.Time
}

func NewHospitalCodeUsage(id, codeID, customerID string) (*HospitalCodeUsage, error) {
	if id == "" || codeID == "" || customerID == "" {
		return nil, domain.ErrInvalidArgument
	}
	return &HospitalCodeUsage{
		ID:         id,
		CodeID:     codeID,
		CustomerID: customerID,
		UsedAt:     time.Now(),
	}, nil
}
