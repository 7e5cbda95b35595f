package abi

import "math"

// ABIVersion is passed to the host by Init.
const ABIVersion uint64 = 1

// Opaque host handles. The binding stores and forwards them; the host owns
// their lifetime.
type (
	RequestHandle  uint32
	ResponseHandle uint32
	BodyHandle     uint32
	EndpointHandle uint32
)

// InvalidHandle is never issued by the host.
const InvalidHandle = math.MaxUint32

// Cursor threads a paginated enumeration. Enumerations start at CursorStart.
type Cursor uint32

// CursorResult is the next cursor returned by the host, or negative when
// there are no further pages.
type CursorResult int64

const (
	CursorStart Cursor       = 0
	CursorDone  CursorResult = -1
)

// UnknownLength is the item length a host may report alongside a page that
// did not fit the supplied buffer. Hosts encode it as math.MaxUint32 on the
// wire.
const UnknownLength = -1

// BodyWriteEnd selects which end of a body a write appends to.
type BodyWriteEnd uint32

const (
	BodyWriteBack  BodyWriteEnd = 0
	BodyWriteFront BodyWriteEnd = 1
)

// UserAgentLengths carries the number of bytes written into each of the four
// user-agent output buffers.
type UserAgentLengths struct {
	Family int
	Major  int
	Minor  int
	Patch  int
}
