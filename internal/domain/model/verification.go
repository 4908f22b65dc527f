package model

import "time"

// VerificationError tags every expected way a code can fail verification or
// management. Tags are stable wire values; human-readable messages come from
// the i18n catalog keyed by these tags.
type VerificationError string

const (
	ErrInvalidCodeFormat VerificationError = "INVALID_CODE_FORMAT"
	ErrCodeNotFound      VerificationError = "CODE_NOT_FOUND"
	ErrCodeInactive      VerificationError = "CODE_INACTIVE"
	ErrCodeExpired       VerificationError = "CODE_EXPIRED"
	ErrCodeUsageExceeded VerificationError = "CODE_USAGE_EXCEEDED"
	ErrDuplicateCode     VerificationError = "DUPLICATE_CODE"
	ErrUnauthorized      VerificationError = "UNAUTHORIZED"
	ErrRateLimitExceeded VerificationError = "RATE_LIMIT_EXCEEDED"
)

// VerificationResult is the outcome of validating a single normalized code
// string against the record store.
type VerificationResult struct {
	IsValid bool
	Error   VerificationError // set when IsValid is false
	Message string            // user-facing text for Error
	Code    *HospitalCode     // set when IsValid is true
}

// OutcomeKind discriminates the four ways a verification request can end.
type OutcomeKind int

const (
	OutcomeValid OutcomeKind = iota
	OutcomeInvalid
	OutcomeBadRequest
	OutcomeRateLimited
)

// Outcome is the tagged result of the full verify flow (rate limit +
// validation). Handlers switch on Kind; only the fields for that kind are
// populated.
type Outcome struct {
	Kind       OutcomeKind
	Code       *HospitalCode     // OutcomeValid
	Error      VerificationError // OutcomeInvalid
	Message    string            // OutcomeInvalid
	Reason     string            // OutcomeBadRequest
	RetryAfter time.Duration     // OutcomeRateLimited
}
