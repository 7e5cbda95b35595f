package runtime

import (
	"context"
	stderrors "errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/wippyai/edge-abi/abi"
	"github.com/wippyai/edge-abi/errors"
	"github.com/wippyai/edge-abi/host"
	"github.com/wippyai/edge-abi/internal/wasmtest"
	"github.com/wippyai/edge-abi/metrics"
)

var i32 = wasmtest.I32

// Import indices of helloGuest.
const (
	fnInit = iota
	fnRespNew
	fnBodyNew
	fnBodyWrite
	fnSendDownstream
	fnStatusSet
)

// helloGuest answers every request with 418 and "hello".
func helloGuest() []byte {
	var body []byte
	body = wasmtest.Const64(body, int64(abi.ABIVersion))
	body = wasmtest.Call(body, fnInit)
	body = append(body, wasmtest.OpDrop)

	body = wasmtest.Const(body, 0)
	body = wasmtest.Call(body, fnRespNew)
	body = append(body, wasmtest.OpDrop)

	body = wasmtest.Const(body, 4)
	body = wasmtest.Call(body, fnBodyNew)
	body = append(body, wasmtest.OpDrop)

	body = wasmtest.Load(body, 0)
	body = wasmtest.Const(body, 418)
	body = wasmtest.Call(body, fnStatusSet)
	body = append(body, wasmtest.OpDrop)

	body = wasmtest.Load(body, 4)
	body = wasmtest.Const(body, 64)
	body = wasmtest.Const(body, 5)
	body = wasmtest.Const(body, int32(abi.BodyWriteBack))
	body = wasmtest.Const(body, 8)
	body = wasmtest.Call(body, fnBodyWrite)
	body = append(body, wasmtest.OpDrop)

	body = wasmtest.Load(body, 0)
	body = wasmtest.Load(body, 4)
	body = wasmtest.Const(body, 0)
	body = wasmtest.Call(body, fnSendDownstream)
	body = append(body, wasmtest.OpDrop)

	m := &wasmtest.Module{
		Imports: []wasmtest.Import{
			{Module: host.ModuleABI, Name: "init", Params: []byte{wasmtest.I64}, Results: []byte{i32}},
			{Module: host.ModuleHTTPResp, Name: "new", Params: []byte{i32}, Results: []byte{i32}},
			{Module: host.ModuleHTTPBody, Name: "new", Params: []byte{i32}, Results: []byte{i32}},
			{Module: host.ModuleHTTPBody, Name: "write", Params: []byte{i32, i32, i32, i32, i32}, Results: []byte{i32}},
			{Module: host.ModuleHTTPResp, Name: "send_downstream", Params: []byte{i32, i32, i32}, Results: []byte{i32}},
			{Module: host.ModuleHTTPResp, Name: "status_set", Params: []byte{i32, i32}, Results: []byte{i32}},
		},
		Funcs: []wasmtest.Func{{Export: "_start", Body: body}},
		Data:  []wasmtest.Segment{{Offset: 64, Bytes: []byte("hello")}},
	}
	return m.Encode()
}

// exitGuest calls proc_exit with code.
func exitGuest(code int32) []byte {
	body := wasmtest.Const(nil, code)
	body = wasmtest.Call(body, 0)
	m := &wasmtest.Module{
		Imports: []wasmtest.Import{
			{Module: "wasi_snapshot_preview1", Name: "proc_exit", Params: []byte{i32}},
		},
		Funcs: []wasmtest.Func{{Export: "_start", Body: body}},
	}
	return m.Encode()
}

func newRuntime(t *testing.T, opts ...Option) *Runtime {
	t.Helper()
	ctx := context.Background()
	rt, err := New(ctx, append([]Option{WithStdout(io.Discard), WithStderr(io.Discard)}, opts...)...)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { rt.Close(ctx) })
	return rt
}

func TestModule_ServeHTTP(t *testing.T) {
	m := metrics.New()
	rt := newRuntime(t, WithHostOptions(host.Options{Metrics: m}))
	mod, err := rt.LoadWASM(context.Background(), helloGuest())
	if err != nil {
		t.Fatal(err)
	}

	// Instances are per request; serve twice to check nothing leaks between them.
	for i := 0; i < 2; i++ {
		w := httptest.NewRecorder()
		mod.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
		if w.Code != http.StatusTeapot {
			t.Fatalf("code = %d", w.Code)
		}
		if w.Body.String() != "hello" {
			t.Fatalf("body = %q", w.Body.String())
		}
	}

	families, err := m.Registry.Gather()
	if err != nil {
		t.Fatal(err)
	}
	var served float64
	for _, f := range families {
		if f.GetName() == "edge_downstream_requests_total" {
			for _, metric := range f.GetMetric() {
				served += metric.GetCounter().GetValue()
			}
		}
	}
	if served != 2 {
		t.Fatalf("downstream requests = %v", served)
	}
}

func TestModule_ConcurrentRequests(t *testing.T) {
	rt := newRuntime(t)
	mod, err := rt.LoadWASM(context.Background(), helloGuest())
	if err != nil {
		t.Fatal(err)
	}
	srv := httptest.NewServer(mod)
	defer srv.Close()

	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		go func() {
			res, err := http.Get(srv.URL)
			if err != nil {
				errs <- err
				return
			}
			defer res.Body.Close()
			data, _ := io.ReadAll(res.Body)
			if res.StatusCode != http.StatusTeapot || string(data) != "hello" {
				errs <- stderrors.New("unexpected response " + res.Status + " " + string(data))
				return
			}
			errs <- nil
		}()
	}
	for i := 0; i < 8; i++ {
		if err := <-errs; err != nil {
			t.Fatal(err)
		}
	}
}

func TestModule_ExitCodes(t *testing.T) {
	rt := newRuntime(t)
	ctx := context.Background()

	clean, err := rt.LoadWASM(ctx, exitGuest(0))
	if err != nil {
		t.Fatal(err)
	}
	w := httptest.NewRecorder()
	sess, err := clean.Run(w, httptest.NewRequest(http.MethodGet, "/", nil))
	if err != nil {
		t.Fatalf("exit 0: %v", err)
	}
	sess.Close()

	failing, err := rt.LoadWASM(ctx, exitGuest(3))
	if err != nil {
		t.Fatal(err)
	}
	sess, err = failing.Run(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	sess.Close()
	var e *errors.Error
	if !stderrors.As(err, &e) || e.Kind != errors.KindExit {
		t.Fatalf("exit 3: %v", err)
	}

	// Neither guest responded.
	w = httptest.NewRecorder()
	failing.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	if w.Code != http.StatusBadGateway {
		t.Fatalf("code = %d", w.Code)
	}
}

func TestLoadWASM_MissingImports(t *testing.T) {
	rt := newRuntime(t)
	m := &wasmtest.Module{
		Imports: []wasmtest.Import{
			{Module: "fastly_kv", Name: "lookup", Params: []byte{i32}, Results: []byte{i32}},
			{Module: host.ModuleHTTPReq, Name: "no_such_call", Params: []byte{i32}, Results: []byte{i32}},
			{Module: host.ModuleHTTPReq, Name: "new", Params: []byte{i32}, Results: []byte{i32}},
		},
		Funcs: []wasmtest.Func{{Export: "_start"}},
	}

	_, err := rt.LoadWASM(context.Background(), m.Encode())
	var missing *errors.MissingImportsError
	if !stderrors.As(err, &missing) {
		t.Fatalf("err = %v, want missing imports", err)
	}
	if len(missing.Imports) != 2 {
		t.Fatalf("missing = %+v", missing.Imports)
	}
	if !strings.Contains(err.Error(), "fastly_kv") {
		t.Fatalf("err = %v", err)
	}
}

func TestLoadWASM_Rejects(t *testing.T) {
	rt := newRuntime(t)
	ctx := context.Background()

	if _, err := rt.LoadWASM(ctx, []byte("\x00asm\x0d\x00\x01\x00")); err == nil {
		t.Fatal("expected component binary to be rejected")
	}
	if _, err := rt.LoadWASM(ctx, []byte("not wasm")); err == nil {
		t.Fatal("expected garbage to be rejected")
	}

	noStart := &wasmtest.Module{Funcs: []wasmtest.Func{{Export: "main"}}}
	if _, err := rt.LoadWASM(ctx, noStart.Encode()); err == nil {
		t.Fatal("expected module without _start to be rejected")
	}
}

func TestNative(t *testing.T) {
	h := Native(func(s *abi.Session) error {
		req, err := s.DownstreamRequest()
		if err != nil {
			return err
		}
		uri, err := req.URI()
		if err != nil {
			return err
		}
		resp, err := s.DownstreamResponse()
		if err != nil {
			return err
		}
		resp.Headers.Set("content-type", "text/plain")
		resp.Body.WriteString(uri)
		return resp.Finish()
	}, host.Options{})

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "http://edge.test/native", nil))
	if w.Code != http.StatusOK || w.Body.String() != "http://edge.test/native" {
		t.Fatalf("response = %d %q", w.Code, w.Body.String())
	}
}

func TestNative_NoResponse(t *testing.T) {
	h := Native(func(*abi.Session) error {
		return stderrors.New("boom")
	}, host.Options{})

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	if w.Code != http.StatusBadGateway {
		t.Fatalf("code = %d", w.Code)
	}
}
