package abi

import (
	"errors"
	"testing"
)

func TestStatus_ToError(t *testing.T) {
	if err := StatusOK.toError(); err != nil {
		t.Fatalf("StatusOK.toError() = %v, want nil", err)
	}

	failures := []Status{
		StatusError,
		StatusInvalidValue,
		StatusBadDescriptor,
		StatusBufferTooSmall,
		StatusUnsupported,
		StatusWrongAlignment,
		StatusHTTPParse,
		StatusHTTPUser,
		StatusHTTPIncomplete,
	}
	for _, s := range failures {
		t.Run(s.String(), func(t *testing.T) {
			err := s.toError()
			if err == nil {
				t.Fatal("expected error")
			}
			if !errors.Is(err, s) {
				t.Fatalf("errors.Is(%v, %v) = false", err, s)
			}
			var got Status
			if !errors.As(err, &got) || got != s {
				t.Fatalf("errors.As = %v, want %v", got, s)
			}
		})
	}
}

func TestStatus_WireValues(t *testing.T) {
	want := map[Status]uint32{
		StatusOK:             0,
		StatusError:          1,
		StatusInvalidValue:   2,
		StatusBadDescriptor:  3,
		StatusBufferTooSmall: 4,
		StatusUnsupported:    5,
		StatusWrongAlignment: 6,
		StatusHTTPParse:      7,
		StatusHTTPUser:       8,
		StatusHTTPIncomplete: 9,
	}
	for s, v := range want {
		if uint32(s) != v {
			t.Errorf("%v = %d, want %d", s, uint32(s), v)
		}
	}
}

func TestStatus_UnknownPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for status outside the host contract")
		}
	}()
	_ = Status(42).toError()
}

func TestStatus_String(t *testing.T) {
	if got := StatusBufferTooSmall.Error(); got != "abi: buffer too small" {
		t.Errorf("Error() = %q", got)
	}
	if got := Status(99).String(); got != "status(99)" {
		t.Errorf("String() = %q", got)
	}
}
