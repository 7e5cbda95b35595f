// Package runtime runs edge compute guests compiled to core WebAssembly.
//
// # Quick Start
//
//	ctx := context.Background()
//	rt, err := runtime.New(ctx, runtime.WithHostOptions(host.Options{
//	    Backends: backends,
//	}))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer rt.Close(ctx)
//
//	mod, err := rt.LoadWASM(ctx, wasmBytes)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	http.ListenAndServe(":7676", mod)
//
// Every request gets a fresh anonymous instance whose _start function
// serves it through the host ABI. Exiting with code 0 counts as success.
// A guest that fails or returns without sending a response is answered
// with 502 Bad Gateway.
//
// # Loading
//
// LoadWASM compiles the module once and verifies its imports against WASI
// preview1 and the host ABI modules. Unresolved imports are reported
// together as an *errors.MissingImportsError. Component binaries are
// rejected.
//
// # Native Guests
//
// Native serves a Go function against the same host emulator, which makes
// guest logic testable without a wasm toolchain:
//
//	h := runtime.Native(func(s *abi.Session) error {
//	    resp, err := s.DownstreamResponse()
//	    if err != nil {
//	        return err
//	    }
//	    resp.Body.WriteString("hello")
//	    return resp.Finish()
//	}, host.Options{})
package runtime
