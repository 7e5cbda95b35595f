package abi

import "bytes"

// stubHost answers a small slice of the host contract from in-memory state.
// Methods it does not override fall through to the nil embedded Host and
// panic, which flags any unexpected host call.
type stubHost struct {
	Host

	calls map[string]int

	method []byte
	uri    []byte
	status int

	headers map[string][][]byte
	names   [][]byte

	bodies    map[BodyHandle]*bytes.Buffer
	closed    map[BodyHandle]bool
	writeCap  int
	sends     []bool
	sendFail  Status
	sentTo    []string
	backendRS ResponseHandle
	backendBH BodyHandle
	readChunk int
}

func newStubHost() *stubHost {
	return &stubHost{
		calls:   make(map[string]int),
		headers: make(map[string][][]byte),
		bodies:  make(map[BodyHandle]*bytes.Buffer),
		closed:  make(map[BodyHandle]bool),
		status:  200,
	}
}

func (s *stubHost) Init(uint64) Status {
	s.calls["init"]++
	return StatusOK
}

func (s *stubHost) ReqNew() (RequestHandle, Status) {
	s.calls["req_new"]++
	return 1, StatusOK
}

func (s *stubHost) ReqBodyDownstreamGet() (RequestHandle, BodyHandle, Status) {
	s.calls["downstream"]++
	return 1, 10, StatusOK
}

func (s *stubHost) RespNew() (ResponseHandle, Status) {
	s.calls["resp_new"]++
	return 2, StatusOK
}

func (s *stubHost) BodyNew() (BodyHandle, Status) {
	s.calls["body_new"]++
	h := BodyHandle(20 + len(s.bodies))
	s.bodies[h] = new(bytes.Buffer)
	return h, StatusOK
}

func (s *stubHost) ReqMethodGet(_ RequestHandle, buf []byte) (int, Status) {
	s.calls["method_get"]++
	if len(buf) < len(s.method) {
		return len(s.method), StatusBufferTooSmall
	}
	return copy(buf, s.method), StatusOK
}

func (s *stubHost) ReqMethodSet(_ RequestHandle, method []byte) Status {
	s.calls["method_set"]++
	s.method = append([]byte(nil), method...)
	return StatusOK
}

func (s *stubHost) ReqURIGet(_ RequestHandle, buf []byte) (int, Status) {
	s.calls["uri_get"]++
	if len(buf) < len(s.uri) {
		return len(s.uri), StatusBufferTooSmall
	}
	return copy(buf, s.uri), StatusOK
}

func (s *stubHost) ReqURISet(_ RequestHandle, uri []byte) Status {
	s.calls["uri_set"]++
	s.uri = append([]byte(nil), uri...)
	return StatusOK
}

func (s *stubHost) ReqSend(_ RequestHandle, body BodyHandle, backend []byte) (ResponseHandle, BodyHandle, Status) {
	s.calls["send"]++
	s.sentTo = append(s.sentTo, string(backend))
	s.closed[body] = true
	return s.backendRS, s.backendBH, StatusOK
}

func (s *stubHost) RespStatusGet(ResponseHandle) (int, Status) {
	s.calls["status_get"]++
	return s.status, StatusOK
}

func (s *stubHost) RespStatusSet(_ ResponseHandle, code int) Status {
	s.calls["status_set"]++
	s.status = code
	return StatusOK
}

func (s *stubHost) RespSendDownstream(_ ResponseHandle, _ BodyHandle, streaming bool) Status {
	s.calls["send_downstream"]++
	s.sends = append(s.sends, streaming)
	return s.sendFail
}

func (s *stubHost) BodyRead(h BodyHandle, buf []byte) (int, Status) {
	s.calls["body_read"]++
	b, ok := s.bodies[h]
	if !ok || s.closed[h] {
		return 0, StatusBadDescriptor
	}
	if s.readChunk > 0 && len(buf) > s.readChunk {
		buf = buf[:s.readChunk]
	}
	n, _ := b.Read(buf)
	return n, StatusOK
}

func (s *stubHost) BodyWrite(h BodyHandle, buf []byte, _ BodyWriteEnd) (int, Status) {
	s.calls["body_write"]++
	b, ok := s.bodies[h]
	if !ok || s.closed[h] {
		return 0, StatusBadDescriptor
	}
	if s.writeCap > 0 && len(buf) > s.writeCap {
		buf = buf[:s.writeCap]
	}
	n, _ := b.Write(buf)
	return n, StatusOK
}

func (s *stubHost) BodyClose(h BodyHandle) Status {
	s.calls["body_close"]++
	if s.closed[h] {
		return StatusBadDescriptor
	}
	s.closed[h] = true
	return StatusOK
}

// Header calls store exactly what was last set, with NUL terminators removed
// the same way a host would.

func (s *stubHost) RespHeaderNamesGet(_ ResponseHandle, buf []byte, cursor Cursor) (CursorResult, int, Status) {
	s.calls["names_get"]++
	return page(s.names, buf, cursor)
}

func (s *stubHost) RespHeaderValueGet(_ ResponseHandle, name, buf []byte) (int, Status) {
	s.calls["value_get"]++
	values, ok := s.headers[string(name)]
	if !ok || len(values) == 0 {
		return 0, StatusInvalidValue
	}
	if len(buf) < len(values[0]) {
		return len(values[0]), StatusBufferTooSmall
	}
	return copy(buf, values[0]), StatusOK
}

func (s *stubHost) RespHeaderValuesGet(_ ResponseHandle, name, buf []byte, cursor Cursor) (CursorResult, int, Status) {
	s.calls["values_get"]++
	return page(s.headers[string(name)], buf, cursor)
}

func (s *stubHost) RespHeaderValuesSet(_ ResponseHandle, name, values []byte) Status {
	s.calls["values_set"]++
	key := string(bytes.TrimSuffix(name, []byte{0}))
	var list [][]byte
	for _, v := range bytes.Split(bytes.TrimSuffix(values, []byte{0}), []byte{0}) {
		list = append(list, append([]byte(nil), v...))
	}
	s.headers[key] = list
	return StatusOK
}

func (s *stubHost) RespHeaderAppend(_ ResponseHandle, name, value []byte) Status {
	s.calls["append"]++
	key := string(bytes.TrimSuffix(name, []byte{0}))
	s.headers[key] = append(s.headers[key], bytes.TrimSuffix(value, []byte{0}))
	return StatusOK
}

func (s *stubHost) RespHeaderRemove(_ ResponseHandle, name []byte) Status {
	s.calls["remove"]++
	key := string(bytes.TrimSuffix(name, []byte{0}))
	if _, ok := s.headers[key]; !ok {
		return StatusInvalidValue
	}
	delete(s.headers, key)
	return StatusOK
}

// page serves items one per cursor position, NUL-terminated.
func page(items [][]byte, buf []byte, cursor Cursor) (CursorResult, int, Status) {
	if int(cursor) >= len(items) {
		return CursorDone, 0, StatusOK
	}
	item := items[cursor]
	if len(buf) < len(item)+1 {
		return 0, len(item) + 1, StatusBufferTooSmall
	}
	n := copy(buf, item)
	buf[n] = 0
	next := CursorResult(cursor) + 1
	if int(next) >= len(items) {
		next = CursorDone
	}
	return next, n + 1, StatusOK
}
