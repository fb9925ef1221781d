package models

import "errors"

// Domain errors shared by the database layer and the services.
// Handlers map them to HTTP status codes.
var (
	ErrBinNotFound            = errors.New("bin not found")
	ErrBinUnavailable         = errors.New("bin unavailable")
	ErrUserNotFound           = errors.New("user not found")
	ErrUserExists             = errors.New("user already exists")
	ErrPickupNotFound         = errors.New("pickup request not found")
	ErrPickupAlreadyProcessed = errors.New("pickup request already processed")
	ErrBinHasTransactions     = errors.New("bin has ledger records")
)
