// Package edgeabi hosts and binds the edge compute HTTP ABI.
//
// A compute guest is a WASI preview1 module that serves one downstream
// request per activation. It reaches the host through the fastly_* import
// modules; every call returns a status code and moves variable-length data
// through caller-supplied buffers.
//
// # Architecture Overview
//
//	edgeabi/
//	├── abi/        Guest-side binding: requests, responses, bodies, headers
//	├── host/       Per-request host state and the fastly_* host modules
//	├── runtime/    wazero runtime that compiles guests and serves HTTP
//	├── config/     TOML and flag configuration for the runner
//	├── metrics/    Prometheus collectors for host calls and backends
//	├── resource/   Handle tables shared by host entities
//	├── errors/     Structured error types and status mapping
//	└── cmd/run/    Local runner: serve, invoke and interactive modes
//
// # Quick Start
//
// Serve a guest over HTTP:
//
//	rt, err := runtime.New(ctx, runtime.WithHostOptions(host.Options{
//	    Backends: backends,
//	}))
//	if err != nil {
//	    return err
//	}
//	defer rt.Close(ctx)
//
//	mod, err := rt.LoadWASM(ctx, wasmBytes)
//	if err != nil {
//	    return err
//	}
//	http.ListenAndServe(":7676", mod)
//
// Inside the guest, built with GOOS=wasip1:
//
//	sess, err := abi.Init(abi.Guest())
//	resp, err := sess.DownstreamResponse()
//	resp.Body.WriteString("hello")
//	resp.Finish()
//
// The same abi code runs natively against host.Session, which is how
// runtime.Native serves Go handlers without compiling to wasm.
package edgeabi
