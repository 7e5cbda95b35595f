package abi

// Host is the host call surface the binding depends on. Every method maps to
// one import of the fastly_* modules. Buffers passed in are owned by the
// caller; output lengths refer to bytes written into them.
//
// On StatusBufferTooSmall an implementation may report the length it needed;
// callers treat it as a hint only.
type Host interface {
	Init(abiVersion uint64) Status

	ReqNew() (RequestHandle, Status)
	ReqBodyDownstreamGet() (RequestHandle, BodyHandle, Status)
	ReqSend(req RequestHandle, body BodyHandle, backend []byte) (ResponseHandle, BodyHandle, Status)
	ReqMethodGet(req RequestHandle, buf []byte) (int, Status)
	ReqMethodSet(req RequestHandle, method []byte) Status
	ReqURIGet(req RequestHandle, buf []byte) (int, Status)
	ReqURISet(req RequestHandle, uri []byte) Status
	ReqHeaderNamesGet(req RequestHandle, buf []byte, cursor Cursor) (CursorResult, int, Status)
	ReqHeaderValueGet(req RequestHandle, name, buf []byte) (int, Status)
	ReqHeaderValuesGet(req RequestHandle, name, buf []byte, cursor Cursor) (CursorResult, int, Status)
	ReqHeaderValuesSet(req RequestHandle, name, values []byte) Status
	ReqHeaderAppend(req RequestHandle, name, value []byte) Status
	ReqHeaderRemove(req RequestHandle, name []byte) Status

	RespNew() (ResponseHandle, Status)
	RespStatusGet(resp ResponseHandle) (int, Status)
	RespStatusSet(resp ResponseHandle, status int) Status
	RespSendDownstream(resp ResponseHandle, body BodyHandle, streaming bool) Status
	RespHeaderNamesGet(resp ResponseHandle, buf []byte, cursor Cursor) (CursorResult, int, Status)
	RespHeaderValueGet(resp ResponseHandle, name, buf []byte) (int, Status)
	RespHeaderValuesGet(resp ResponseHandle, name, buf []byte, cursor Cursor) (CursorResult, int, Status)
	RespHeaderValuesSet(resp ResponseHandle, name, values []byte) Status
	RespHeaderAppend(resp ResponseHandle, name, value []byte) Status
	RespHeaderRemove(resp ResponseHandle, name []byte) Status

	BodyNew() (BodyHandle, Status)
	BodyRead(body BodyHandle, buf []byte) (int, Status)
	BodyWrite(body BodyHandle, buf []byte, end BodyWriteEnd) (int, Status)
	BodyClose(body BodyHandle) Status

	LogEndpointGet(name []byte) (EndpointHandle, Status)
	LogWrite(endpoint EndpointHandle, msg []byte) (int, Status)

	UAParse(userAgent, family, major, minor, patch []byte) (UserAgentLengths, Status)
}
