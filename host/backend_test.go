package host

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/wippyai/edge-abi/abi"
	"github.com/wippyai/edge-abi/metrics"
)

func newOrigin(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		w.Header().Set("X-Origin-Path", r.URL.Path)
		w.Header().Set("X-Origin-Host", r.Host)
		w.Header().Set("X-Origin-Method", r.Method)
		w.WriteHeader(http.StatusAccepted)
		w.Write(data)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestNewBackend_Validation(t *testing.T) {
	if _, err := NewBackend("", "http://x", BackendOptions{}); err == nil {
		t.Fatal("expected error for empty name")
	}
	if _, err := NewBackend("b", "not a url", BackendOptions{}); err == nil {
		t.Fatal("expected error for relative origin")
	}
}

func TestBackends_Registry(t *testing.T) {
	a, _ := NewBackend("a", "http://a.test", BackendOptions{})
	b, _ := NewBackend("b", "http://b.test", BackendOptions{})
	reg := NewBackends(b, a)

	if got := reg.Names(); len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Fatalf("names = %v", got)
	}
	if _, ok := reg.Get("c"); ok {
		t.Fatal("unexpected backend c")
	}
}

func TestBackend_DoRewritesOrigin(t *testing.T) {
	srv := newOrigin(t)
	be, err := NewBackend("origin", srv.URL+"/prefix/", BackendOptions{Timeout: 5 * time.Second})
	if err != nil {
		t.Fatal(err)
	}

	req, _ := http.NewRequest(http.MethodGet, "http://edge.test/items", nil)
	res, err := be.Do(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}
	defer res.Body.Close()

	if got := res.Header.Get("X-Origin-Path"); got != "/prefix/items" {
		t.Fatalf("origin path = %q", got)
	}
	if got := res.Header.Get("X-Origin-Host"); got != "edge.test" {
		t.Fatalf("origin host = %q", got)
	}
}

func TestBackend_RateLimit(t *testing.T) {
	srv := newOrigin(t)
	be, _ := NewBackend("slow", srv.URL, BackendOptions{RequestsPerSecond: 0.001, Burst: 1})

	req, _ := http.NewRequest(http.MethodGet, srv.URL, nil)
	res, err := be.Do(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}
	res.Body.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := be.Do(ctx, req); err == nil {
		t.Fatal("expected the limiter to reject the second request")
	}
}

func TestSession_ReqSend(t *testing.T) {
	srv := newOrigin(t)
	be, _ := NewBackend("origin", srv.URL, BackendOptions{})
	m := metrics.New()
	s, _ := newTestSession(t, nil, Options{Backends: NewBackends(be), Metrics: m})

	req, _ := s.ReqNew()
	body, _ := s.BodyNew()
	s.ReqMethodSet(req, []byte("PUT"))
	s.ReqURISet(req, []byte("http://public.test/upload"))
	s.ReqHeaderAppend(req, []byte("host"), []byte("public.test"))
	s.BodyWrite(body, []byte("payload"), abi.BodyWriteBack)

	resp, respBody, status := s.ReqSend(req, body, []byte("origin"))
	if status != abi.StatusOK {
		t.Fatal(status)
	}

	code, _ := s.RespStatusGet(resp)
	if code != http.StatusAccepted {
		t.Fatalf("status = %d", code)
	}
	buf := make([]byte, 64)
	n, _ := s.RespHeaderValueGet(resp, []byte("x-origin-method"), buf)
	if string(buf[:n]) != "PUT" {
		t.Fatalf("method = %q", buf[:n])
	}
	n, _ = s.RespHeaderValueGet(resp, []byte("x-origin-host"), buf)
	if string(buf[:n]) != "public.test" {
		t.Fatalf("host = %q", buf[:n])
	}
	if got := readBody(t, s, respBody); got != "payload" {
		t.Fatalf("body = %q", got)
	}

	// Request and body handles are consumed by the send.
	if _, status := s.ReqMethodGet(req, buf); status != abi.StatusBadDescriptor {
		t.Fatalf("request after send: %v", status)
	}
}

func TestSession_ReqSendUnknownBackend(t *testing.T) {
	s, _ := newTestSession(t, nil, Options{})
	req, _ := s.ReqNew()
	body, _ := s.BodyNew()
	s.ReqURISet(req, []byte("http://public.test/"))

	resp, respBody, status := s.ReqSend(req, body, []byte("nowhere"))
	if status != abi.StatusInvalidValue {
		t.Fatalf("status = %v", status)
	}
	if resp != abi.ResponseHandle(abi.InvalidHandle) || respBody != abi.BodyHandle(abi.InvalidHandle) {
		t.Fatal("expected invalid handles on failure")
	}
	// A failed lookup leaves the request usable.
	if _, status := s.ReqMethodGet(req, make([]byte, 8)); status != abi.StatusOK {
		t.Fatalf("request after failed send: %v", status)
	}
}

func TestSession_ReqSendTransportError(t *testing.T) {
	srv := newOrigin(t)
	be, _ := NewBackend("down", srv.URL, BackendOptions{})
	srv.Close()

	s, _ := newTestSession(t, nil, Options{Backends: NewBackends(be)})
	req, _ := s.ReqNew()
	body, _ := s.BodyNew()
	s.ReqURISet(req, []byte("http://public.test/"))

	if _, _, status := s.ReqSend(req, body, []byte("down")); status != abi.StatusError {
		t.Fatalf("status = %v", status)
	}
}
