package abi

import "fmt"

// Status is the result code returned by every host call.
// Values are wire-compatible with the fastly_* import modules.
type Status uint32

const (
	StatusOK             Status = 0
	StatusError          Status = 1
	StatusInvalidValue   Status = 2
	StatusBadDescriptor  Status = 3
	StatusBufferTooSmall Status = 4
	StatusUnsupported    Status = 5
	StatusWrongAlignment Status = 6
	StatusHTTPParse      Status = 7
	StatusHTTPUser       Status = 8
	StatusHTTPIncomplete Status = 9
)

var statusText = [...]string{
	StatusOK:             "ok",
	StatusError:          "generic error",
	StatusInvalidValue:   "invalid value",
	StatusBadDescriptor:  "bad descriptor",
	StatusBufferTooSmall: "buffer too small",
	StatusUnsupported:    "unsupported",
	StatusWrongAlignment: "wrong alignment",
	StatusHTTPParse:      "http parse error",
	StatusHTTPUser:       "http user error",
	StatusHTTPIncomplete: "http incomplete",
}

// Valid reports whether s belongs to the closed set of host status codes.
func (s Status) Valid() bool {
	return int(s) < len(statusText)
}

// String returns the kind name of the status.
func (s Status) String() string {
	if !s.Valid() {
		return fmt.Sprintf("status(%d)", uint32(s))
	}
	return statusText[s]
}

// Error implements error so that failures are surfaced as the bare status.
func (s Status) Error() string {
	return "abi: " + s.String()
}

// toError maps a host status to nil on success and to itself otherwise.
// The host contract is closed: a code outside it means the binding and host
// disagree about the ABI, which is a programming error, not a runtime one.
func (s Status) toError() error {
	if s == StatusOK {
		return nil
	}
	if !s.Valid() {
		panic(fmt.Sprintf("abi: host returned unknown status %d", uint32(s)))
	}
	return s
}
