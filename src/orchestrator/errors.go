package orchestrator

import (
	"fmt"

	"github.com/pkg/errors"
)

// EIP-1193 provider error codes surfaced by wallet signing providers.
const (
	SignerCodeRejected     = 4001
	SignerCodeUnauthorized = 4100
)

// SignerError carries the wallet provider's error code so failures can be
// classified into exactly one user-visible notification.
type SignerError struct {
	Code int
	Err  error
}

func (e *SignerError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("signer error %d: %s", e.Code, e.Err.Error())
	}
	return fmt.Sprintf("signer error %d", e.Code)
}

func (e *SignerError) Unwrap() error {
	return e.Err
}

func IsSignerRejected(err error) bool {
	var se *SignerError
	return errors.As(err, &se) && se.Code == SignerCodeRejected
}

func IsSignerUnauthorized(err error) bool {
	var se *SignerError
	return errors.As(err, &se) && se.Code == SignerCodeUnauthorized
}

// signerNeverSubmitted reports whether the failure means no transaction
// reached the chain: a declined or locked signer spent no gas, so no
// balance cache needs invalidating.
func signerNeverSubmitted(err error) bool {
	return IsSignerRejected(err) || IsSignerUnauthorized(err)
}

// PreconditionError means a required dependency was not ready. It is
// raised synchronously before any state transition, so nothing has to be
// rolled back.
type PreconditionError struct {
	Missing string
}

func (e *PreconditionError) Error() string {
	return fmt.Sprintf("precondition missing: %s", e.Missing)
}

// reportedError marks a failure that has already been classified,
// recorded in the ledger and shown to the user; outer layers must not
// raise a second notification for it.
type reportedError struct {
	err error
}

func (e *reportedError) Error() string {
	return e.err.Error()
}

func (e *reportedError) Unwrap() error {
	return e.err
}

func markReported(err error) error {
	return &reportedError{err: err}
}

func isReported(err error) bool {
	var re *reportedError
	return errors.As(err, &re)
}
