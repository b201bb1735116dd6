package application

import (
	"errors"
	"fmt"
)

// Stable outcome classes. Callers match with errors.Is to tell "code does not
// exist" from "you may not do that" from "internal failure".
var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("not found")
	ErrForbidden    = errors.New("forbidden")
	ErrConflict     = errors.New("conflict")
	ErrPersistence  = errors.New("persistence failure")
)

func persistenceError(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrPersistence, op, err)
}
