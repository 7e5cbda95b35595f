// Package host serves the edge compute host ABI.
//
// A Session holds the host state of one downstream request: the handle
// table, the downstream request and response writer, log endpoints and the
// named backends guests may call. Session implements abi.Host, so Go code
// can drive it directly through package abi, and Exports publishes the same
// calls to wasm guests as the fastly_* import modules:
//
//	r := wazero.NewRuntime(ctx)
//	if err := host.Exports(ctx, r); err != nil {
//	    return err
//	}
//
//	sess := host.NewSession(w, req, host.Options{Backends: backends})
//	defer sess.Close()
//	_, err := r.InstantiateModule(host.WithSession(ctx, sess), compiled, cfg)
//
// Guest pointers are bounds-checked before a call reaches the session. A
// pointer outside guest memory fails the call with StatusInvalidValue.
package host
