package kioskerr

import (
	"errors"
	"fmt"
	"testing"
)

func TestKindOfAndCodeOf(t *testing.T) {
	err := ConflictError("BOOKING_DATE_CONFLICT", "overlapping dates", nil)
	kind, ok := KindOf(err)
	if !ok || kind != KindConflict {
		t.Fatalf("KindOf() = (%v, %v), want (%v, true)", kind, ok, KindConflict)
	}
	code, ok := CodeOf(err)
	if !ok || code != "BOOKING_DATE_CONFLICT" {
		t.Fatalf("CodeOf() = (%v, %v), want (BOOKING_DATE_CONFLICT, true)", code, ok)
	}
}

func TestKindOfUnwrapsWrappedError(t *testing.T) {
	inner := UserError("UNPARSEABLE_ID", "could not parse scanned id", nil)
	wrapped := fmt.Errorf("scan handler: %w", inner)
	kind, ok := KindOf(wrapped)
	if !ok || kind != KindUser {
		t.Fatalf("KindOf(wrapped) = (%v, %v), want (%v, true)", kind, ok, KindUser)
	}
}

func TestKindOfFalseForPlainError(t *testing.T) {
	if _, ok := KindOf(errors.New("plain")); ok {
		t.Error("KindOf(plain error) = true, want false")
	}
}

func TestErrorUnwrap(t *testing.T) {
	cause := errors.New("dial tcp: timeout")
	err := SystemError("STT_RELAY_UNREACHABLE", "relay dial failed", cause)
	if !errors.Is(err, cause) {
		t.Error("expected errors.Is to find the wrapped cause")
	}
}
