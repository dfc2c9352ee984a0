package services

import (
	"errors"
	"fmt"
)

var (
	// ErrStorageConflict means a concurrent writer won; retry the whole call.
	ErrStorageConflict = errors.New("storage conflict, please retry")
	// ErrStorageUnavailable wraps infrastructure failures. Nothing was
	// committed, so the call is safe to retry.
	ErrStorageUnavailable = errors.New("storage unavailable")
	ErrBadCreds           = errors.New("invalid email or password")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrAggregation        = errors.New("failed to compute analytics")
)

type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func invalid(field, reason string) error { return &ValidationError{Field: field, Reason: reason} }

type ProductNotFoundError struct {
	ProductID string
}

func (e *ProductNotFoundError) Error() string {
	return fmt.Sprintf("product %s not found", e.ProductID)
}

type InsufficientStockError struct {
	ProductID string
	Title     string
	Requested int
	Available int
}

func (e *InsufficientStockError) Error() string {
	name := e.Title
	if name == "" {
		name = e.ProductID
	}
	return fmt.Sprintf("insufficient stock for %s (requested %d, available %d)", name, e.Requested, e.Available)
}

type DuplicatePaymentError struct {
	PaymentReference string
}

func (e *DuplicatePaymentError) Error() string {
	return fmt.Sprintf("an order already exists for payment %s", e.PaymentReference)
}
