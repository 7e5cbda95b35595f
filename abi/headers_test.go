package abi

import (
	"strings"
	"testing"
)

func newStubResponse(t *testing.T) (*stubHost, *OutgoingResponse) {
	t.Helper()
	host := newStubHost()
	sess, err := Init(host)
	if err != nil {
		t.Fatal(err)
	}
	resp, err := sess.DownstreamResponse()
	if err != nil {
		t.Fatal(err)
	}
	return host, resp
}

func TestHeaders_SetGetRoundTrip(t *testing.T) {
	host, resp := newStubResponse(t)

	values := []string{"text/plain", "", strings.Repeat("a", 500)}
	for _, v := range values {
		if err := resp.Headers.Set("x-test", v); err != nil {
			t.Fatal(err)
		}
		if got := string(host.headers["x-test"][0]); got != v {
			t.Fatalf("host stored %q, want %q", got, v)
		}
		if v == "" {
			continue
		}
		got, err := resp.Headers.Get("x-test")
		if err != nil {
			t.Fatal(err)
		}
		if got != v {
			t.Fatalf("Get = %q (%d bytes), want %q", got, len(got), v)
		}
	}
}

func TestHeaders_GetMissing(t *testing.T) {
	_, resp := newStubResponse(t)
	if _, err := resp.Headers.Get("missing"); err != StatusInvalidValue {
		t.Fatalf("err = %v, want %v", err, StatusInvalidValue)
	}
}

func TestHeaders_SetValuesAndValues(t *testing.T) {
	_, resp := newStubResponse(t)

	if err := resp.Headers.SetValues("vary", "accept", "origin"); err != nil {
		t.Fatal(err)
	}
	if err := resp.Headers.Append("vary", "cookie"); err != nil {
		t.Fatal(err)
	}

	got, err := resp.Headers.Values("vary")
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"accept", "origin", "cookie"}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Fatalf("Values = %v, want %v", got, want)
	}
}

func TestHeaders_Names(t *testing.T) {
	host, resp := newStubResponse(t)
	host.names = [][]byte{[]byte("content-type"), []byte("x-a"), []byte("x-b")}

	got, err := resp.Headers.Names()
	if err != nil {
		t.Fatal(err)
	}
	if strings.Join(got, ",") != "content-type,x-a,x-b" {
		t.Fatalf("Names = %v", got)
	}
	if host.calls["names_get"] != 3 {
		t.Fatalf("names_get calls = %d, want 3", host.calls["names_get"])
	}
}

func TestHeaders_Remove(t *testing.T) {
	_, resp := newStubResponse(t)

	if err := resp.Headers.Set("x-gone", "1"); err != nil {
		t.Fatal(err)
	}
	if err := resp.Headers.Remove("x-gone"); err != nil {
		t.Fatal(err)
	}
	if _, err := resp.Headers.Get("x-gone"); err != StatusInvalidValue {
		t.Fatalf("err = %v, want %v", err, StatusInvalidValue)
	}
	if err := resp.Headers.Remove("x-gone"); err != StatusInvalidValue {
		t.Fatalf("second Remove err = %v, want %v", err, StatusInvalidValue)
	}
}
