package abi

import (
	"bytes"
	"fmt"
	"testing"
)

func TestEnumerate_AllItemsNoExtraCall(t *testing.T) {
	for _, count := range []int{1, 2, 5} {
		items := make([][]byte, count)
		for i := range items {
			items[i] = []byte(fmt.Sprintf("h%d", i))
		}

		calls := 0
		got, err := Enumerate(func(buf []byte, cursor Cursor) (CursorResult, int, Status) {
			calls++
			return page(items, buf, cursor)
		})
		if err != nil {
			t.Fatal(err)
		}
		if len(got) != count {
			t.Fatalf("got %d items, want %d", len(got), count)
		}
		for i := range items {
			if !bytes.Equal(got[i], items[i]) {
				t.Fatalf("item %d = %q, want %q", i, got[i], items[i])
			}
		}
		if calls != count {
			t.Fatalf("calls = %d, want %d", calls, count)
		}
	}
}

func TestEnumerate_Empty(t *testing.T) {
	got, err := Enumerate(func(buf []byte, cursor Cursor) (CursorResult, int, Status) {
		return page(nil, buf, cursor)
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 0 {
		t.Fatalf("got %d items, want 0", len(got))
	}
}

func TestEnumerate_ZeroLengthTerminates(t *testing.T) {
	calls := 0
	got, err := Enumerate(func(buf []byte, cursor Cursor) (CursorResult, int, Status) {
		calls++
		if cursor == 0 {
			buf[0], buf[1] = 'a', 0
			return 7, 2, StatusOK
		}
		return 8, 0, StatusOK
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || string(got[0]) != "a" {
		t.Fatalf("got %q", got)
	}
	if calls != 2 {
		t.Fatalf("calls = %d, want 2", calls)
	}
}

func TestEnumerate_MissingTerminator(t *testing.T) {
	_, err := Enumerate(func(buf []byte, cursor Cursor) (CursorResult, int, Status) {
		n := copy(buf, "abc")
		return CursorDone, n, StatusOK
	})
	if err != StatusError {
		t.Fatalf("err = %v, want %v", err, StatusError)
	}
}

func TestEnumerate_PageGrowthRestarts(t *testing.T) {
	long := bytes.Repeat([]byte{'v'}, 300)
	items := [][]byte{long, []byte("short")}

	var sizes []int
	got, err := Enumerate(func(buf []byte, cursor Cursor) (CursorResult, int, Status) {
		sizes = append(sizes, len(buf))
		return page(items, buf, cursor)
	})
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got[0], long) || string(got[1]) != "short" {
		t.Fatalf("unexpected items %q", got)
	}

	want := []int{64, 128, 256, 512, 64}
	if fmt.Sprint(sizes) != fmt.Sprint(want) {
		t.Fatalf("buffer sizes = %v, want %v", sizes, want)
	}
}

func TestEnumerate_UnknownLengthRetries(t *testing.T) {
	calls := 0
	got, err := Enumerate(func(buf []byte, cursor Cursor) (CursorResult, int, Status) {
		calls++
		if len(buf) < 100 {
			return 0, UnknownLength, StatusOK
		}
		buf[0], buf[1] = 'x', 0
		return CursorDone, 2, StatusOK
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || string(got[0]) != "x" {
		t.Fatalf("got %q", got)
	}
	if calls != 2 {
		t.Fatalf("calls = %d, want 2", calls)
	}
}

func TestEnumerate_PropagatesFailure(t *testing.T) {
	calls := 0
	_, err := Enumerate(func(buf []byte, cursor Cursor) (CursorResult, int, Status) {
		calls++
		if cursor == 0 {
			buf[0] = 0
			return 1, 1, StatusOK
		}
		return 0, 0, StatusBadDescriptor
	})
	if err != StatusBadDescriptor {
		t.Fatalf("err = %v, want %v", err, StatusBadDescriptor)
	}
	if calls != 2 {
		t.Fatalf("calls = %d, want 2", calls)
	}
}

func TestEnumerate_FailureWithUnknownLength(t *testing.T) {
	for _, status := range []Status{StatusBadDescriptor, StatusInvalidValue, StatusError} {
		calls := 0
		_, err := Enumerate(func(buf []byte, cursor Cursor) (CursorResult, int, Status) {
			calls++
			return 0, UnknownLength, status
		})
		if err != status {
			t.Fatalf("err = %v, want %v", err, status)
		}
		if calls != 1 {
			t.Fatalf("%v: calls = %d, want 1", status, calls)
		}
	}
}
