package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound        = errors.New("not found")
	ErrValidation      = errors.New("validation error")
	ErrStore           = errors.New("store failure")
	ErrSchemaBootstrap = errors.New("schema bootstrap failure")
)

// FieldError ошибка конкретного поля.
type FieldError struct {
	Field   string
	Message string
}

// ValidationError список ошибок полей. errors.Is(err, ErrValidation) == true.
type ValidationError struct {
	Errors []FieldError
}

func (e *ValidationError) Error() string {
	if len(e.Errors) == 1 {
		return fmt.Sprintf("validation: %s: %s", e.Errors[0].Field, e.Errors[0].Message)
	}
	return fmt.Sprintf("validation: %d errors", len(e.Errors))
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Errors: []FieldError{{Field: field, Message: message}}}
}

// StoreError ошибка хранилища с именем операции.
// Совпадает с ErrStore, а ошибки инициализации схемы ещё и с ErrSchemaBootstrap.
type StoreError struct {
	Op        string
	Err       error
	bootstrap bool
}

func NewStoreError(op string, err error) *StoreError {
	return &StoreError{Op: op, Err: err}
}

func NewSchemaError(op string, err error) *StoreError {
	return &StoreError{Op: op, Err: err, bootstrap: true}
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

func (e *StoreError) Is(target error) bool {
	if target == ErrStore {
		return true
	}
	return e.bootstrap && target == ErrSchemaBootstrap
}
