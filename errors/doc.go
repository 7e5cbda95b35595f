// Package errors provides structured errors for the host side of edge-abi.
//
// Errors are categorized by Phase (where the error occurred) and Kind (error
// category), with an optional host call name, field path and cause chain:
//
//	err := errors.New(errors.PhaseHost, errors.KindBadHandle).
//		Func("fastly_http_body#read").
//		Detail("body %d closed", h).
//		Build()
//
// At the ABI boundary StatusOf turns any error into the abi.Status the guest
// sees. Guest-side code in package abi uses abi.Status directly.
package errors
