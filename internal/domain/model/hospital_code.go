package model

import (
	"regexp"
	"strings"
	"time"

	"clinic-code-service/internal/domain"
)

// CodePattern is the canonical shape of a hospital code: three uppercase
// letters followed by five digits, e.g. "ABC12345".
var CodePattern = regexp.MustCompile(`^[A-Z]{3}[0-9]{5}$`)

// HospitalCode is a signup token a doctor issues so patients can
// self-register and be linked to the doctor's clinic.
type HospitalCode struct {
	ID         string // UUID
	Code       string // unique, CodePattern
	DoctorID   string // UUID of issuing doctor
	Name       string // display name shown in the doctor dashboard
	IsActive   bool
	UsageCount int
	MaxUsage   *int       // nil means uncapped
	ExpiresAt  *time.Time // nil means never expires
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// NewHospitalCode creates a code record owned by a doctor. The code string
// itself is generated by the caller (see usecase.generateHospitalCode).
func NewHospitalCode(id, code, doctorID, name string, maxUsage *int, expiresAt *time.Time) (*HospitalCode, error) {
	if id == "" || doctorID == "" || name == "" {
		return nil, domain.ErrInvalidArgument
	}
	if !CodePattern.MatchString(code) {
		return nil, domain.ErrInvalidArgument
	}
	if maxUsage != nil && *maxUsage <= 0 {
		return nil, domain.ErrInvalidArgument
	}
	now := time.Now()
	return &HospitalCode{
		ID:        id,
		Code:      code,
		DoctorID:  doctorID,
		Name:      name,
		IsActive:  true,
		MaxUsage:  maxUsage,
		ExpiresAt: expiresAt,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// Usable reports whether the code currently grants signup access:
// active, not expired, and under its usage cap.
func (c *HospitalCode) Usable(now time.Time) bool {
	if !c.IsActive {
		return false
	}
	if c.ExpiresAt != nil && !c.ExpiresAt.After(now) {
		return false
	}
	if c.MaxUsage != nil && c.UsageCount >= *c.MaxUsage {
		return false
	}
	return true
}

// NormalizeCode maps raw user input to the canonical code form
// (whitespace trimmed, uppercased). Validation happens separately.
func NormalizeCode(raw string) string {
	return strings.ToUpper(strings.TrimSpace(raw))
}
