package hotswap

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestSentinelHelpers(t *testing.T) {
	cases := []struct {
		name string
		err  error
		is   func(error) bool
	}{
		{"invalid target", ErrInvalidTarget, IsInvalidTarget},
		{"illegal state", ErrIllegalState, IsIllegalState},
		{"full reload required", ErrFullReloadRequired, IsFullReloadRequired},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if !tc.is(tc.err) {
				t.Error("helper rejects its own sentinel")
			}
			wrapped := fmt.Errorf("while reloading: %w", tc.err)
			if !tc.is(wrapped) {
				t.Error("helper rejects a wrapped sentinel")
			}
			if tc.is(errors.New("unrelated")) {
				t.Error("helper accepts an unrelated error")
			}
			if tc.is(nil) {
				t.Error("helper accepts nil")
			}
		})
	}
}

func TestConstructionErrorMessage(t *testing.T) {
	cause := errors.New("missing prop")
	err := &ConstructionError{ID: "Widget", Impl: "v2", Err: cause}

	msg := err.Error()
	for _, want := range []string{"Widget", "v2", "missing prop"} {
		if !strings.Contains(msg, want) {
			t.Errorf("message %q does not mention %q", msg, want)
		}
	}
	if !errors.Is(err, cause) {
		t.Error("construction error does not unwrap to its cause")
	}
}

func TestIsConstructionThroughChain(t *testing.T) {
	ce := &ConstructionError{ID: "Widget", Impl: "v2", Err: errors.New("boom")}
	chained := fmt.Errorf("%w: %w", ErrFullReloadRequired, ce)

	if !IsConstruction(chained) {
		t.Error("construction error not found through the chain")
	}
	if !IsFullReloadRequired(chained) {
		t.Error("sentinel not found through the chain")
	}

	var got *ConstructionError
	if !errors.As(chained, &got) {
		t.Fatal("errors.As failed on the chain")
	}
	if got.ID != "Widget" || got.Impl != "v2" {
		t.Errorf("unwrapped fields = (%q, %q), want (Widget, v2)", got.ID, got.Impl)
	}
}

func TestIsConstructionRejectsPlainErrors(t *testing.T) {
	if IsConstruction(errors.New("boom")) {
		t.Error("plain error reported as construction failure")
	}
	if IsConstruction(nil) {
		t.Error("nil reported as construction failure")
	}
}
