//go:build wasip1

package abi

import (
	"math"
	"unsafe"
)

// Guest returns the Host backed by the fastly_* imports of the embedding
// runtime. It is only available when compiling for wasip1.
func Guest() Host { return guestHost{} }

type guestHost struct{}

func ptr(b []byte) unsafe.Pointer {
	return unsafe.Pointer(unsafe.SliceData(b))
}

func length(n uint32) int {
	if n == math.MaxUint32 {
		return UnknownLength
	}
	return int(n)
}

//go:wasmimport fastly_abi init
//go:noescape
func fastlyABIInit(abiVersion uint64) uint32

func (guestHost) Init(abiVersion uint64) Status {
	return Status(fastlyABIInit(abiVersion))
}

// fastly_http_req

//go:wasmimport fastly_http_req new
//go:noescape
func fastlyHTTPReqNew(hOut unsafe.Pointer) uint32

//go:wasmimport fastly_http_req body_downstream_get
//go:noescape
func fastlyHTTPReqBodyDownstreamGet(reqOut, bodyOut unsafe.Pointer) uint32

//go:wasmimport fastly_http_req send
//go:noescape
func fastlyHTTPReqSend(req, body uint32, backend unsafe.Pointer, backendLen uint32, respOut, bodyOut unsafe.Pointer) uint32

//go:wasmimport fastly_http_req method_get
//go:noescape
func fastlyHTTPReqMethodGet(req uint32, buf unsafe.Pointer, bufLen uint32, nwrittenOut unsafe.Pointer) uint32

//go:wasmimport fastly_http_req method_set
//go:noescape
func fastlyHTTPReqMethodSet(req uint32, method unsafe.Pointer, methodLen uint32) uint32

//go:wasmimport fastly_http_req uri_get
//go:noescape
func fastlyHTTPReqURIGet(req uint32, buf unsafe.Pointer, bufLen uint32, nwrittenOut unsafe.Pointer) uint32

//go:wasmimport fastly_http_req uri_set
//go:noescape
func fastlyHTTPReqURISet(req uint32, uri unsafe.Pointer, uriLen uint32) uint32

//go:wasmimport fastly_http_req header_names_get
//go:noescape
func fastlyHTTPReqHeaderNamesGet(req uint32, buf unsafe.Pointer, bufLen, cursor uint32, endingCursorOut, nwrittenOut unsafe.Pointer) uint32

//go:wasmimport fastly_http_req header_value_get
//go:noescape
func fastlyHTTPReqHeaderValueGet(req uint32, name unsafe.Pointer, nameLen uint32, value unsafe.Pointer, valueMaxLen uint32, nwrittenOut unsafe.Pointer) uint32

//go:wasmimport fastly_http_req header_values_get
//go:noescape
func fastlyHTTPReqHeaderValuesGet(req uint32, name unsafe.Pointer, nameLen uint32, buf unsafe.Pointer, bufLen, cursor uint32, endingCursorOut, nwrittenOut unsafe.Pointer) uint32

//go:wasmimport fastly_http_req header_values_set
//go:noescape
func fastlyHTTPReqHeaderValuesSet(req uint32, name unsafe.Pointer, nameLen uint32, values unsafe.Pointer, valuesLen uint32) uint32

//go:wasmimport fastly_http_req header_append
//go:noescape
func fastlyHTTPReqHeaderAppend(req uint32, name unsafe.Pointer, nameLen uint32, value unsafe.Pointer, valueLen uint32) uint32

//go:wasmimport fastly_http_req header_remove
//go:noescape
func fastlyHTTPReqHeaderRemove(req uint32, name unsafe.Pointer, nameLen uint32) uint32

func (guestHost) ReqNew() (RequestHandle, Status) {
	h := RequestHandle(InvalidHandle)
	status := fastlyHTTPReqNew(unsafe.Pointer(&h))
	return h, Status(status)
}

func (guestHost) ReqBodyDownstreamGet() (RequestHandle, BodyHandle, Status) {
	var (
		h  = RequestHandle(InvalidHandle)
		bh = BodyHandle(InvalidHandle)
	)
	status := fastlyHTTPReqBodyDownstreamGet(unsafe.Pointer(&h), unsafe.Pointer(&bh))
	return h, bh, Status(status)
}

func (guestHost) ReqSend(req RequestHandle, body BodyHandle, backend []byte) (ResponseHandle, BodyHandle, Status) {
	var (
		resp = ResponseHandle(InvalidHandle)
		bh   = BodyHandle(InvalidHandle)
	)
	status := fastlyHTTPReqSend(uint32(req), uint32(body), ptr(backend), uint32(len(backend)), unsafe.Pointer(&resp), unsafe.Pointer(&bh))
	return resp, bh, Status(status)
}

func (guestHost) ReqMethodGet(req RequestHandle, buf []byte) (int, Status) {
	var n uint32
	status := fastlyHTTPReqMethodGet(uint32(req), ptr(buf), uint32(len(buf)), unsafe.Pointer(&n))
	return length(n), Status(status)
}

func (guestHost) ReqMethodSet(req RequestHandle, method []byte) Status {
	return Status(fastlyHTTPReqMethodSet(uint32(req), ptr(method), uint32(len(method))))
}

func (guestHost) ReqURIGet(req RequestHandle, buf []byte) (int, Status) {
	var n uint32
	status := fastlyHTTPReqURIGet(uint32(req), ptr(buf), uint32(len(buf)), unsafe.Pointer(&n))
	return length(n), Status(status)
}

func (guestHost) ReqURISet(req RequestHandle, uri []byte) Status {
	return Status(fastlyHTTPReqURISet(uint32(req), ptr(uri), uint32(len(uri))))
}

func (guestHost) ReqHeaderNamesGet(req RequestHandle, buf []byte, cursor Cursor) (CursorResult, int, Status) {
	var (
		next int64
		n    uint32
	)
	status := fastlyHTTPReqHeaderNamesGet(uint32(req), ptr(buf), uint32(len(buf)), uint32(cursor), unsafe.Pointer(&next), unsafe.Pointer(&n))
	return CursorResult(next), length(n), Status(status)
}

func (guestHost) ReqHeaderValueGet(req RequestHandle, name, buf []byte) (int, Status) {
	var n uint32
	status := fastlyHTTPReqHeaderValueGet(uint32(req), ptr(name), uint32(len(name)), ptr(buf), uint32(len(buf)), unsafe.Pointer(&n))
	return length(n), Status(status)
}

func (guestHost) ReqHeaderValuesGet(req RequestHandle, name, buf []byte, cursor Cursor) (CursorResult, int, Status) {
	var (
		next int64
		n    uint32
	)
	status := fastlyHTTPReqHeaderValuesGet(uint32(req), ptr(name), uint32(len(name)), ptr(buf), uint32(len(buf)), uint32(cursor), unsafe.Pointer(&next), unsafe.Pointer(&n))
	return CursorResult(next), length(n), Status(status)
}

func (guestHost) ReqHeaderValuesSet(req RequestHandle, name, values []byte) Status {
	return Status(fastlyHTTPReqHeaderValuesSet(uint32(req), ptr(name), uint32(len(name)), ptr(values), uint32(len(values))))
}

func (guestHost) ReqHeaderAppend(req RequestHandle, name, value []byte) Status {
	return Status(fastlyHTTPReqHeaderAppend(uint32(req), ptr(name), uint32(len(name)), ptr(value), uint32(len(value))))
}

func (guestHost) ReqHeaderRemove(req RequestHandle, name []byte) Status {
	return Status(fastlyHTTPReqHeaderRemove(uint32(req), ptr(name), uint32(len(name))))
}

// fastly_http_resp

//go:wasmimport fastly_http_resp new
//go:noescape
func fastlyHTTPRespNew(hOut unsafe.Pointer) uint32

//go:wasmimport fastly_http_resp status_get
//go:noescape
func fastlyHTTPRespStatusGet(resp uint32, statusOut unsafe.Pointer) uint32

//go:wasmimport fastly_http_resp status_set
//go:noescape
func fastlyHTTPRespStatusSet(resp, status uint32) uint32

//go:wasmimport fastly_http_resp send_downstream
//go:noescape
func fastlyHTTPRespSendDownstream(resp, body, streaming uint32) uint32

//go:wasmimport fastly_http_resp header_names_get
//go:noescape
func fastlyHTTPRespHeaderNamesGet(resp uint32, buf unsafe.Pointer, bufLen, cursor uint32, endingCursorOut, nwrittenOut unsafe.Pointer) uint32

//go:wasmimport fastly_http_resp header_value_get
//go:noescape
func fastlyHTTPRespHeaderValueGet(resp uint32, name unsafe.Pointer, nameLen uint32, value unsafe.Pointer, valueMaxLen uint32, nwrittenOut unsafe.Pointer) uint32

//go:wasmimport fastly_http_resp header_values_get
//go:noescape
func fastlyHTTPRespHeaderValuesGet(resp uint32, name unsafe.Pointer, nameLen uint32, buf unsafe.Pointer, bufLen, cursor uint32, endingCursorOut, nwrittenOut unsafe.Pointer) uint32

//go:wasmimport fastly_http_resp header_values_set
//go:noescape
func fastlyHTTPRespHeaderValuesSet(resp uint32, name unsafe.Pointer, nameLen uint32, values unsafe.Pointer, valuesLen uint32) uint32

//go:wasmimport fastly_http_resp header_append
//go:noescape
func fastlyHTTPRespHeaderAppend(resp uint32, name unsafe.Pointer, nameLen uint32, value unsafe.Pointer, valueLen uint32) uint32

//go:wasmimport fastly_http_resp header_remove
//go:noescape
func fastlyHTTPRespHeaderRemove(resp uint32, name unsafe.Pointer, nameLen uint32) uint32

func (guestHost) RespNew() (ResponseHandle, Status) {
	h := ResponseHandle(InvalidHandle)
	status := fastlyHTTPRespNew(unsafe.Pointer(&h))
	return h, Status(status)
}

func (guestHost) RespStatusGet(resp ResponseHandle) (int, Status) {
	var code uint16
	status := fastlyHTTPRespStatusGet(uint32(resp), unsafe.Pointer(&code))
	return int(code), Status(status)
}

func (guestHost) RespStatusSet(resp ResponseHandle, code int) Status {
	return Status(fastlyHTTPRespStatusSet(uint32(resp), uint32(code)))
}

func (guestHost) RespSendDownstream(resp ResponseHandle, body BodyHandle, streaming bool) Status {
	var s uint32
	if streaming {
		s = 1
	}
	return Status(fastlyHTTPRespSendDownstream(uint32(resp), uint32(body), s))
}

func (guestHost) RespHeaderNamesGet(resp ResponseHandle, buf []byte, cursor Cursor) (CursorResult, int, Status) {
	var (
		next int64
		n    uint32
	)
	status := fastlyHTTPRespHeaderNamesGet(uint32(resp), ptr(buf), uint32(len(buf)), uint32(cursor), unsafe.Pointer(&next), unsafe.Pointer(&n))
	return CursorResult(next), length(n), Status(status)
}

func (guestHost) RespHeaderValueGet(resp ResponseHandle, name, buf []byte) (int, Status) {
	var n uint32
	status := fastlyHTTPRespHeaderValueGet(uint32(resp), ptr(name), uint32(len(name)), ptr(buf), uint32(len(buf)), unsafe.Pointer(&n))
	return length(n), Status(status)
}

func (guestHost) RespHeaderValuesGet(resp ResponseHandle, name, buf []byte, cursor Cursor) (CursorResult, int, Status) {
	var (
		next int64
		n    uint32
	)
	status := fastlyHTTPRespHeaderValuesGet(uint32(resp), ptr(name), uint32(len(name)), ptr(buf), uint32(len(buf)), uint32(cursor), unsafe.Pointer(&next), unsafe.Pointer(&n))
	return CursorResult(next), length(n), Status(status)
}

func (guestHost) RespHeaderValuesSet(resp ResponseHandle, name, values []byte) Status {
	return Status(fastlyHTTPRespHeaderValuesSet(uint32(resp), ptr(name), uint32(len(name)), ptr(values), uint32(len(values))))
}

func (guestHost) RespHeaderAppend(resp ResponseHandle, name, value []byte) Status {
	return Status(fastlyHTTPRespHeaderAppend(uint32(resp), ptr(name), uint32(len(name)), ptr(value), uint32(len(value))))
}

func (guestHost) RespHeaderRemove(resp ResponseHandle, name []byte) Status {
	return Status(fastlyHTTPRespHeaderRemove(uint32(resp), ptr(name), uint32(len(name))))
}

// fastly_http_body

//go:wasmimport fastly_http_body new
//go:noescape
func fastlyHTTPBodyNew(hOut unsafe.Pointer) uint32

//go:wasmimport fastly_http_body read
//go:noescape
func fastlyHTTPBodyRead(body uint32, buf unsafe.Pointer, bufLen uint32, nreadOut unsafe.Pointer) uint32

//go:wasmimport fastly_http_body write
//go:noescape
func fastlyHTTPBodyWrite(body uint32, buf unsafe.Pointer, bufLen, end uint32, nwrittenOut unsafe.Pointer) uint32

//go:wasmimport fastly_http_body close
//go:noescape
func fastlyHTTPBodyClose(body uint32) uint32

func (guestHost) BodyNew() (BodyHandle, Status) {
	h := BodyHandle(InvalidHandle)
	status := fastlyHTTPBodyNew(unsafe.Pointer(&h))
	return h, Status(status)
}

func (guestHost) BodyRead(body BodyHandle, buf []byte) (int, Status) {
	var n uint32
	status := fastlyHTTPBodyRead(uint32(body), ptr(buf), uint32(len(buf)), unsafe.Pointer(&n))
	return int(n), Status(status)
}

func (guestHost) BodyWrite(body BodyHandle, buf []byte, end BodyWriteEnd) (int, Status) {
	var n uint32
	status := fastlyHTTPBodyWrite(uint32(body), ptr(buf), uint32(len(buf)), uint32(end), unsafe.Pointer(&n))
	return int(n), Status(status)
}

func (guestHost) BodyClose(body BodyHandle) Status {
	return Status(fastlyHTTPBodyClose(uint32(body)))
}

// fastly_log

//go:wasmimport fastly_log endpoint_get
//go:noescape
func fastlyLogEndpointGet(name unsafe.Pointer, nameLen uint32, endpointOut unsafe.Pointer) uint32

//go:wasmimport fastly_log write
//go:noescape
func fastlyLogWrite(endpoint uint32, msg unsafe.Pointer, msgLen uint32, nwrittenOut unsafe.Pointer) uint32

func (guestHost) LogEndpointGet(name []byte) (EndpointHandle, Status) {
	h := EndpointHandle(InvalidHandle)
	status := fastlyLogEndpointGet(ptr(name), uint32(len(name)), unsafe.Pointer(&h))
	return h, Status(status)
}

func (guestHost) LogWrite(endpoint EndpointHandle, msg []byte) (int, Status) {
	var n uint32
	status := fastlyLogWrite(uint32(endpoint), ptr(msg), uint32(len(msg)), unsafe.Pointer(&n))
	return int(n), Status(status)
}

// fastly_uap

//go:wasmimport fastly_uap parse
//go:noescape
func fastlyUAPParse(
	ua unsafe.Pointer, uaLen uint32,
	family unsafe.Pointer, familyLen uint32, familyNWrittenOut unsafe.Pointer,
	major unsafe.Pointer, majorLen uint32, majorNWrittenOut unsafe.Pointer,
	minor unsafe.Pointer, minorLen uint32, minorNWrittenOut unsafe.Pointer,
	patch unsafe.Pointer, patchLen uint32, patchNWrittenOut unsafe.Pointer,
) uint32

func (guestHost) UAParse(userAgent, family, major, minor, patch []byte) (UserAgentLengths, Status) {
	var nf, nmaj, nmin, np uint32
	status := fastlyUAPParse(
		ptr(userAgent), uint32(len(userAgent)),
		ptr(family), uint32(len(family)), unsafe.Pointer(&nf),
		ptr(major), uint32(len(major)), unsafe.Pointer(&nmaj),
		ptr(minor), uint32(len(minor)), unsafe.Pointer(&nmin),
		ptr(patch), uint32(len(patch)), unsafe.Pointer(&np),
	)
	return UserAgentLengths{
		Family: int(nf),
		Major:  int(nmaj),
		Minor:  int(nmin),
		Patch:  int(np),
	}, Status(status)
}
