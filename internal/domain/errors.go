package domain

import (
	"errors"
	"fmt"
)

// ValidationRejection is a business-rule refusal of a signal. Never retried.
type ValidationRejection struct {
	Reason  RejectReason
	Details string
}

func (e *ValidationRejection) Error() string {
	return fmt.Sprintf("signal rejected (%s): %s", e.Reason, e.Details)
}

// SizingErrorCode classifies position-sizing failures.
type SizingErrorCode string

const (
	SizingZeroStopDistance   SizingErrorCode = "ZERO_STOP_DISTANCE"
	SizingInsufficientMargin SizingErrorCode = "INSUFFICIENT_MARGIN"
)

// SizingError means the order could not be sized from the current market
// geometry or account state. Blocks only the affected signal.
type SizingError struct {
	Code    SizingErrorCode
	Details string
}

func (e *SizingError) Error() string {
	return fmt.Sprintf("sizing failed (%s): %s", e.Code, e.Details)
}

// TransportError wraps a transient terminal/service failure (network error,
// timeout). Eligible for bounded retry; exhaustion marks the order Failed.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport: %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// IsTransport reports whether err is (or wraps) a transport-class failure.
func IsTransport(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}

// ProtectionAttachError means a filled position could not be protected with
// stop/target after all retries. It represents live, unmanaged risk exposure
// and is escalated distinctly from routine errors.
type ProtectionAttachError struct {
	PositionID string
	Attempts   int
	Err        error
}

func (e *ProtectionAttachError) Error() string {
	return fmt.Sprintf("protection attach failed for position %s after %d attempts: %v",
		e.PositionID, e.Attempts, e.Err)
}

func (e *ProtectionAttachError) Unwrap() error { return e.Err }
