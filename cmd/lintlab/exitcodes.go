package main

import (
	"errors"
	"fmt"

	"github.com/davetashner/lintlab/internal/config"
	"github.com/davetashner/lintlab/internal/linter"
	"github.com/davetashner/lintlab/internal/persist"
	"github.com/davetashner/lintlab/internal/session"
)

// Exit codes for lintlab CLI.
const (
	ExitOK             = 0 // Success.
	ExitInvalidArgs    = 1 // Invalid arguments, bad path or invalid config.
	ExitPartialFailure = 2 // Some simulations failed or the run was cancelled.
	ExitTotalFailure   = 3 // Nothing was produced: linter unusable or write failed.
)

type exitCodeError struct {
	code int
	msg  string
}

func (e *exitCodeError) Error() string { return e.msg }

// ExitCode returns the exit code for this error.
func (e *exitCodeError) ExitCode() int { return e.code }

// exitError creates an exitCodeError. If msg is empty, the error message is
// set to a generic description of the exit code.
func exitError(code int, format string, args ...any) *exitCodeError {
	msg := fmt.Sprintf(format, args...)
	if msg == "" {
		switch code {
		case ExitPartialFailure:
			msg = "lintlab: some simulations did not complete"
		case ExitTotalFailure:
			msg = "lintlab: no simulation completed"
		default:
			msg = "lintlab: error"
		}
	}
	return &exitCodeError{code: code, msg: msg}
}

// exitCodeFor maps the typed errors of the internal packages onto exit codes.
func exitCodeFor(err error) int {
	var (
		pe  *config.ParseError
		ce  *config.ConflictError
		se  *persist.StepError
		ie  *linter.InvokerError
		ece *exitCodeError
	)
	switch {
	case errors.As(err, &ece):
		return ece.code
	case errors.As(err, &pe), errors.As(err, &ce), errors.Is(err, session.ErrStale):
		return ExitInvalidArgs
	case errors.As(err, &se), errors.As(err, &ie):
		return ExitTotalFailure
	default:
		return ExitInvalidArgs
	}
}
