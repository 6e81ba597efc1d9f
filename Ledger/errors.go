package Ledger

import "errors"

// Typed failures surfaced to callers. All of them abort the transaction
// with zero side effects.
var (
	ErrPermissionDenied    = errors.New("permission denied")
	ErrNotFound            = errors.New("not found")
	ErrInsufficientPoints  = errors.New("insufficient points")
	ErrInvalidPointCost    = errors.New("point cost must be a positive integer")
	ErrTaskExempted        = errors.New("task is exempted")
	ErrTransactionConflict = errors.New("transaction conflict")
)
