package domain

import "errors"

// Common domain errors
var (
	ErrNotFound           = errors.New("resource not found")
	ErrInvalidInput       = errors.New("invalid input")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrForbidden          = errors.New("forbidden")
	ErrInternalServer     = errors.New("internal server error")
	ErrDuplicateEntry     = errors.New("duplicate entry")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrTokenExpired       = errors.New("token expired")
	ErrTokenInvalid       = errors.New("token invalid")
)

// User errors
var (
	ErrUserNotFound        = errors.New("user not found")
	ErrUserInactive        = errors.New("user account is inactive")
	ErrUserNotVerified     = errors.New("user email is not verified")
	ErrDuplicateEmail      = errors.New("email already registered")
	ErrDuplicateNationalID = errors.New("national id already registered")
)

// Verification errors
var (
	ErrCodeInvalidOrExpired = errors.New("verification code is invalid or expired")
)

// Passport errors
var (
	ErrPassportNotFound  = errors.New("passport not found")
	ErrDuplicatePassport = errors.New("passport number already registered")
	ErrTokenNumberTaken  = errors.New("token number already assigned to another passport")
)

// Payment errors
var (
	ErrPaymentNotFound = errors.New("payment not found")
	ErrInvalidState    = errors.New("payment is not in a valid state for this operation")
	ErrInvalidAmount   = errors.New("amount must be a positive number")
	ErrMissingProof    = errors.New("transaction id and screenshot are required")
	ErrMissingReason   = errors.New("rejection reason is required")
)
