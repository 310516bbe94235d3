package tgbot

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidToken         = errors.New("bot token is empty")
	ErrNegativeExpiration   = errors.New("state expiration must not be negative")
	ErrNegativeCleanup      = errors.New("cleanup interval must not be negative")
	ErrTelegramInit         = errors.New("telegram api init failed")
	ErrBotStarted           = errors.New("bot is already running")
	ErrStateNotFound        = errors.New("user state not found")
	ErrInvalidStateType     = errors.New("user state has invalid type")
	ErrStateHandlerNotFound = errors.New("state is not registered")
	ErrNoUpdatesSource      = errors.New("bot has no telegram api to receive updates")
)

// ValidationError ошибка с контекстом: что именно не так.
type ValidationError struct {
	Err   error
	Value interface{}
}

func NewValidationError(err error, value interface{}) *ValidationError {
	return &ValidationError{Err: err, Value: value}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%v: %v", e.Err, e.Value)
}

func (e *ValidationError) Unwrap() error { return e.Err }
