package cli

import (
	"errors"

	"github.com/specialistvlad/flowgrid/internal/plan"
	"github.com/specialistvlad/flowgrid/internal/validator"
)

// Exit codes.
const (
	ExitFailure         = 1
	ExitUsage           = 2
	ExitInvalidPipeline = 3
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

func usageError(err error) error {
	return &ExitError{Code: ExitUsage, Message: err.Error()}
}

// exitError classifies an error returned by a command.
func exitError(err error) error {
	if err == nil {
		return nil
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return err
	}
	var vErr *validator.Error
	if errors.As(err, &vErr) || errors.Is(err, plan.ErrUnresolved) {
		return &ExitError{Code: ExitInvalidPipeline, Message: err.Error()}
	}
	return &ExitError{Code: ExitFailure, Message: err.Error()}
}
