package host

import (
	"reflect"
	"testing"

	"github.com/wippyai/edge-abi/abi"
)

// names walks the header name pages the way guests do.
func names(t *testing.T, s *Session, h abi.ResponseHandle) []string {
	t.Helper()
	var out []string
	cursor := abi.CursorStart
	for i := 0; i < 100; i++ {
		buf := make([]byte, 64)
		next, n, status := s.RespHeaderNamesGet(h, buf, cursor)
		if status != abi.StatusOK {
			t.Fatalf("names page %d: %v", cursor, status)
		}
		if n == 0 {
			return out
		}
		if buf[n-1] != 0 {
			t.Fatalf("page %d not NUL-terminated", cursor)
		}
		out = append(out, string(buf[:n-1]))
		if next < 0 {
			return out
		}
		cursor = abi.Cursor(next)
	}
	t.Fatal("enumeration did not terminate")
	return nil
}

func TestHeaders_Pages(t *testing.T) {
	s, _ := newTestSession(t, nil, Options{})
	h, _ := s.RespNew()

	if got := names(t, s, h); len(got) != 0 {
		t.Fatalf("empty names = %v", got)
	}

	s.RespHeaderAppend(h, []byte("b\x00"), []byte("1\x00"))
	s.RespHeaderAppend(h, []byte("a\x00"), []byte("2\x00"))
	if got, want := names(t, s, h), []string{"b", "a"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("names = %v, want %v", got, want)
	}
}

func TestHeaders_PageTooSmall(t *testing.T) {
	s, _ := newTestSession(t, nil, Options{})
	h, _ := s.RespNew()
	s.RespHeaderAppend(h, []byte("x-long-name"), []byte("v"))

	_, n, status := s.RespHeaderNamesGet(h, make([]byte, 4), abi.CursorStart)
	if status != abi.StatusBufferTooSmall {
		t.Fatalf("status = %v", status)
	}
	if n != len("x-long-name")+1 {
		t.Fatalf("reported need = %d", n)
	}
}

func TestHeaders_ValuesSetAndGet(t *testing.T) {
	s, _ := newTestSession(t, nil, Options{})
	h, _ := s.ReqNew()

	if status := s.ReqHeaderValuesSet(h, []byte("accept\x00"), []byte("a\x00b\x00c\x00")); status != abi.StatusOK {
		t.Fatal(status)
	}

	values := reqValues(t, s, h, "Accept")
	if want := []string{"a", "b", "c"}; !reflect.DeepEqual(values, want) {
		t.Fatalf("values = %v, want %v", values, want)
	}

	buf := make([]byte, 8)
	n, status := s.ReqHeaderValueGet(h, []byte("accept"), buf)
	if status != abi.StatusOK || string(buf[:n]) != "a" {
		t.Fatalf("first value = %q, %v", buf[:n], status)
	}
}

func TestHeaders_ValuesSetKeepsEmptyValues(t *testing.T) {
	s, _ := newTestSession(t, nil, Options{})
	h, _ := s.ReqNew()

	if status := s.ReqHeaderValuesSet(h, []byte("x-list\x00"), []byte("a\x00\x00")); status != abi.StatusOK {
		t.Fatal(status)
	}
	if got, want := reqValues(t, s, h, "x-list"), []string{"a", ""}; !reflect.DeepEqual(got, want) {
		t.Fatalf("values = %q, want %q", got, want)
	}
}

// reqValues walks every value of a request header.
func reqValues(t *testing.T, s *Session, h abi.RequestHandle, name string) []string {
	t.Helper()
	var values []string
	cursor := abi.CursorStart
	for {
		buf := make([]byte, 8)
		next, n, status := s.ReqHeaderValuesGet(h, []byte(name), buf, cursor)
		if status != abi.StatusOK {
			t.Fatal(status)
		}
		if n == 0 {
			break
		}
		values = append(values, string(buf[:n-1]))
		if next < 0 {
			break
		}
		cursor = abi.Cursor(next)
	}
	return values
}

func TestHeaders_Missing(t *testing.T) {
	s, _ := newTestSession(t, nil, Options{})
	h, _ := s.ReqNew()

	if _, status := s.ReqHeaderValueGet(h, []byte("missing"), make([]byte, 8)); status != abi.StatusInvalidValue {
		t.Fatalf("value of missing header: %v", status)
	}
	if status := s.ReqHeaderRemove(h, []byte("missing\x00")); status != abi.StatusInvalidValue {
		t.Fatalf("remove missing header: %v", status)
	}
	_, n, status := s.ReqHeaderValuesGet(h, []byte("missing"), make([]byte, 8), abi.CursorStart)
	if status != abi.StatusOK || n != 0 {
		t.Fatalf("values of missing header = %d, %v", n, status)
	}
}

func TestHeaders_Validation(t *testing.T) {
	s, _ := newTestSession(t, nil, Options{})
	h, _ := s.ReqNew()

	if status := s.ReqHeaderAppend(h, []byte("bad name"), []byte("v")); status != abi.StatusInvalidValue {
		t.Fatalf("bad name: %v", status)
	}
	if status := s.ReqHeaderAppend(h, []byte("x"), []byte("a\r\nb")); status != abi.StatusInvalidValue {
		t.Fatalf("bad value: %v", status)
	}
}

func TestHeaders_Remove(t *testing.T) {
	s, _ := newTestSession(t, nil, Options{})
	h, _ := s.RespNew()
	s.RespHeaderAppend(h, []byte("a"), []byte("1"))
	s.RespHeaderAppend(h, []byte("b"), []byte("2"))

	if status := s.RespHeaderRemove(h, []byte("A\x00")); status != abi.StatusOK {
		t.Fatal(status)
	}
	if got := names(t, s, h); !reflect.DeepEqual(got, []string{"b"}) {
		t.Fatalf("names = %v", got)
	}
}
