package bazaar_errors

import (
	"errors"
	"time"
)

// Common errors
var (
	ErrInvalidInput        = errors.New("invalid input")
	ErrUnauthorized        = errors.New("unauthorized")
	ErrForbidden           = errors.New("forbidden")
	ErrNotFound            = errors.New("not found")
	ErrConflict            = errors.New("conflict")
	ErrAlreadyExists       = errors.New("already exists")
	ErrNotParticipant      = errors.New("not a participant of this conversation")
	ErrInvalidOperation    = errors.New("invalid operation")
	ErrInvalidSignature    = errors.New("invalid payment signature")
	ErrPaymentNotCompleted = errors.New("payment not completed")
	ErrGateway             = errors.New("payment gateway error")
	ErrRateLimited         = errors.New("rate limited")
	ErrInternal            = errors.New("internal error")
)

// NowPtr returns a pointer to current time
func NowPtr() *time.Time {
	now := time.Now()
	return &now
}
