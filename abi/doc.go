// Package abi is the guest-side binding to the edge compute host ABI.
//
// A compute module serves one downstream request per activation. It talks to
// the host through a fixed catalogue of imports (the fastly_* modules), each
// returning a Status. This package wraps those calls in request, response,
// body, header, logging and user-agent types.
//
// # Quick Start
//
//	sess, err := abi.Init(abi.Guest())
//	if err != nil {
//	    return err
//	}
//
//	req, err := sess.DownstreamRequest()
//	if err != nil {
//	    return err
//	}
//
//	resp, err := sess.DownstreamResponse()
//	if err != nil {
//	    return err
//	}
//	resp.Headers.Set("content-type", "text/plain")
//	resp.Body.WriteString("hello")
//	return resp.Finish()
//
// Guest is only available when building with GOOS=wasip1. Any other Host
// implementation, such as the emulator in package host, can be passed to
// Init instead.
//
// # Buffer Protocol
//
// Host calls that return variable-length data fill a caller-supplied buffer.
// When it is too small the host answers StatusBufferTooSmall and the call is
// retried with a buffer twice the size:
//
//	value, err := abi.Fetch(abi.DefaultBufferSize, func(buf []byte) (int, abi.Status) {
//	    return host.ReqHeaderValueGet(req, name, buf)
//	})
//
// Multi-valued results, such as header names, are paginated. Each page holds
// one NUL-terminated item and returns the cursor of the next page; a negative
// cursor or an empty item ends the walk. Enumerate implements this once for
// every caller.
//
// Growth is capped at MaxBufferSize.
//
// # Errors
//
// Failures are returned as the bare Status, with no wrapping:
//
//	if errors.Is(err, abi.StatusInvalidValue) { ... }
//
// StatusBufferTooSmall is handled internally by the buffer protocol and only
// reaches callers when MaxBufferSize is exceeded or a fixed buffer is used
// (ParseUserAgent). A malformed page in an enumeration yields StatusError.
//
// # Handles
//
// Handles are opaque host integers. Bodies are consumed by Close, requests
// by Send and responses by Finish; afterwards the Go values refuse further
// use with StatusBadDescriptor without calling the host.
package abi
