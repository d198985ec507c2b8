package services

import (
	"errors"
	"fmt"

	"PosTerminal/app/models"
)

// BaseService provides the logging and user feedback shared by all services
type BaseService struct {
	logger *LoggerService
	toasts *ToastService
}

// NewBaseService creates a new base service instance. Either argument may be nil.
func NewBaseService(logger *LoggerService, toasts *ToastService) *BaseService {
	return &BaseService{logger: logger, toasts: toasts}
}

// Toasts returns the notification queue
func (b *BaseService) Toasts() *ToastService {
	return b.toasts
}

func (b *BaseService) logInfo(message string, details ...string) {
	if b.logger != nil {
		b.logger.LogInfo(message, details...)
	}
}

func (b *BaseService) logWarning(message string, details ...string) {
	if b.logger != nil {
		b.logger.LogWarning(message, details...)
	}
}

func (b *BaseService) logError(message string, err error, details ...string) {
	if b.logger != nil {
		b.logger.LogError(message, err, details...)
	}
}

func (b *BaseService) notify(kind models.ToastKind, message string) {
	if b.toasts != nil {
		b.toasts.Push(kind, message)
	}
}

// fail logs err and shows it as a danger toast.
// Validation errors are shown inline by the caller, so they are only returned.
func (b *BaseService) fail(message string, err error) error {
	if models.IsValidation(err) {
		return err
	}
	b.logError(message, err)
	b.notify(models.ToastDanger, failureText(message, err))
	return err
}

// persistFailure wraps a store write error and reports it
func (b *BaseService) persistFailure(op string, err error) error {
	if errors.Is(err, models.ErrNotFound) {
		return b.fail(op+" failed", err)
	}
	return b.fail(op+" failed", &models.PersistenceError{Op: op, Err: err})
}

// fetchFailure wraps a store read error and reports it
func (b *BaseService) fetchFailure(collection string, err error) error {
	return b.fail("Could not load "+collection, &models.FetchError{Collection: collection, Err: err})
}

func failureText(message string, err error) string {
	if errors.Is(err, models.ErrNotFound) {
		return message + ": the record no longer exists"
	}
	if inner := errors.Unwrap(err); inner != nil {
		err = inner
	}
	return fmt.Sprintf("%s: %v", message, err)
}
