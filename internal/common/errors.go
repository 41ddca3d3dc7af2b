// Package common provides shared utilities and types used across the application.
package common

import "errors"

// Common application errors.
var (
	// Database errors.
	ErrNotFound = errors.New("not found")

	// Brex feed errors.
	ErrBrexConnection = errors.New("brex connection failed")
	ErrBrexRateLimit  = errors.New("brex rate limit exceeded")

	// Receipt parsing errors.
	ErrReceiptUnreadable = errors.New("receipt could not be parsed")

	// Configuration errors.
	ErrMissingConfig = errors.New("missing configuration")
	ErrInvalidConfig = errors.New("invalid configuration")
)
