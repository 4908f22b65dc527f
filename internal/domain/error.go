package domain

import "errors"

var (
	// Common domain errors
	ErrNotFound            = errors.New("entity not found")
	ErrAlreadyExists       = errors.New("entity already exists")
	ErrInvalidArgument     = errors.New("invalid argument")
	ErrUnauthorized        = errors.New("not authorized")
	ErrCodeNotFound        = errors.New("hospital code not found")
	ErrCodeNotUsable       = errors.New("hospital code is not usable")
	ErrDuplicateRedemption = errors.New("customer already redeemed this code")
	ErrReadDatabaseRow     = errors.New("failed to read database row")
	ErrInvalidExecContext  = errors.New("invalid executor context")
)
