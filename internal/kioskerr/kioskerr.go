// Package kioskerr defines the kiosk's typed error taxonomy, per
// spec.md §7. Every async boundary (STT, LLM, DB) wraps its failures in
// one of these so callers can map to a typed outcome without the kiosk
// ever crashing to the user.
package kioskerr

import (
	"errors"
	"fmt"
)

// Kind classifies an error into one of the taxonomy's five buckets.
type Kind string

const (
	KindUser     Kind = "USER_ERROR"
	KindSystem   Kind = "SYSTEM_ERROR"
	KindHardware Kind = "HARDWARE_ERROR"
	KindConflict Kind = "CONFLICT_ERROR"
	KindPolicy   Kind = "POLICY_ERROR"
)

// Error is a typed, wrapped kiosk error. Code is a short machine-stable
// identifier (e.g. "BOOKING_DATE_CONFLICT", "TENANT_NOT_FOUND") used on
// HTTP boundaries; Kind drives the generic recovery policy.
type Error struct {
	Kind Kind
	Code string
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Msg)
}

func (e *Error) Unwrap() error { return e.Err }

func newErr(kind Kind, code, msg string, err error) *Error {
	return &Error{Kind: kind, Code: code, Msg: msg, Err: err}
}

// UserError wraps invalid/ambiguous guest input: recoverable, surfaced
// as a spoken nudge or the ERROR state.
func UserError(code, msg string, err error) *Error {
	return newErr(KindUser, code, msg, err)
}

// SystemError wraps LLM outages, malformed LLM JSON, or STT network
// failures: the caller falls back to canned speech and the session
// continues or returns to WELCOME.
func SystemError(code, msg string, err error) *Error {
	return newErr(KindSystem, code, msg, err)
}

// HardwareError wraps microphone/scanner/dispenser faults: the kiosk
// moves to ERROR and only exits via touch/back to WELCOME.
func HardwareError(code, msg string, err error) *Error {
	return newErr(KindHardware, code, msg, err)
}

// ConflictError wraps persistence conflicts such as BOOKING_DATE_CONFLICT:
// the caller speaks a regret and returns to BOOKING_COLLECT for a date
// change.
func ConflictError(code, msg string, err error) *Error {
	return newErr(KindConflict, code, msg, err)
}

// PolicyError wraps voice rejected by the authority matrix or rate
// limiter: silent telemetry only, no UI disturbance.
func PolicyError(code, msg string, err error) *Error {
	return newErr(KindPolicy, code, msg, err)
}

// KindOf extracts the Kind of err if it (or something it wraps) is a
// *Error; ok is false otherwise.
func KindOf(err error) (kind Kind, ok bool) {
	var ke *Error
	if errors.As(err, &ke) {
		return ke.Kind, true
	}
	return "", false
}

// CodeOf extracts the machine-stable Code of err if it (or something it
// wraps) is a *Error; ok is false otherwise.
func CodeOf(err error) (code string, ok bool) {
	var ke *Error
	if errors.As(err, &ke) {
		return ke.Code, true
	}
	return "", false
}
