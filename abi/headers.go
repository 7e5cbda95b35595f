package abi

// headerOps is the handle-bound header capability of one entity side.
type headerOps interface {
	namesGet(buf []byte, cursor Cursor) (CursorResult, int, Status)
	valueGet(name, buf []byte) (int, Status)
	valuesGet(name, buf []byte, cursor Cursor) (CursorResult, int, Status)
	valuesSet(name, values []byte) Status
	append(name, value []byte) Status
	remove(name []byte) Status
}

// Headers is the header collection of a request or response. It lives as
// long as the owning entity's handle.
type Headers struct {
	ops headerOps
}

// Names returns every header name once, in host order.
func (h *Headers) Names() ([]string, error) {
	return enumerateStrings(h.ops.namesGet)
}

// Get returns the first value of the named header.
func (h *Headers) Get(name string) (string, error) {
	n := []byte(name)
	value, err := Fetch(DefaultBufferSize, func(buf []byte) (int, Status) {
		return h.ops.valueGet(n, buf)
	})
	if err != nil {
		return "", err
	}
	return string(value), nil
}

// Values returns every value of the named header in insertion order.
func (h *Headers) Values(name string) ([]string, error) {
	n := []byte(name)
	return enumerateStrings(func(buf []byte, cursor Cursor) (CursorResult, int, Status) {
		return h.ops.valuesGet(n, buf, cursor)
	})
}

// Set replaces all values of name with value.
func (h *Headers) Set(name, value string) error {
	return h.ops.valuesSet(nulTerminated(name), nulTerminated(value)).toError()
}

// SetValues replaces all values of name with values.
func (h *Headers) SetValues(name string, values ...string) error {
	var size int
	for _, v := range values {
		size += len(v) + 1
	}
	list := make([]byte, 0, size)
	for _, v := range values {
		list = append(list, v...)
		list = append(list, 0)
	}
	return h.ops.valuesSet(nulTerminated(name), list).toError()
}

// Append adds value to name without removing existing values.
func (h *Headers) Append(name, value string) error {
	return h.ops.append(nulTerminated(name), nulTerminated(value)).toError()
}

// Remove deletes every value of name.
func (h *Headers) Remove(name string) error {
	return h.ops.remove(nulTerminated(name)).toError()
}

func nulTerminated(s string) []byte {
	b := make([]byte, len(s)+1)
	copy(b, s)
	return b
}

type requestHeaders struct {
	host Host
	h    RequestHandle
}

func (r requestHeaders) namesGet(buf []byte, cursor Cursor) (CursorResult, int, Status) {
	return r.host.ReqHeaderNamesGet(r.h, buf, cursor)
}

func (r requestHeaders) valueGet(name, buf []byte) (int, Status) {
	return r.host.ReqHeaderValueGet(r.h, name, buf)
}

func (r requestHeaders) valuesGet(name, buf []byte, cursor Cursor) (CursorResult, int, Status) {
	return r.host.ReqHeaderValuesGet(r.h, name, buf, cursor)
}

func (r requestHeaders) valuesSet(name, values []byte) Status {
	return r.host.ReqHeaderValuesSet(r.h, name, values)
}

func (r requestHeaders) append(name, value []byte) Status {
	return r.host.ReqHeaderAppend(r.h, name, value)
}

func (r requestHeaders) remove(name []byte) Status {
	return r.host.ReqHeaderRemove(r.h, name)
}

type responseHeaders struct {
	host Host
	h    ResponseHandle
}

func (r responseHeaders) namesGet(buf []byte, cursor Cursor) (CursorResult, int, Status) {
	return r.host.RespHeaderNamesGet(r.h, buf, cursor)
}

func (r responseHeaders) valueGet(name, buf []byte) (int, Status) {
	return r.host.RespHeaderValueGet(r.h, name, buf)
}

func (r responseHeaders) valuesGet(name, buf []byte, cursor Cursor) (CursorResult, int, Status) {
	return r.host.RespHeaderValuesGet(r.h, name, buf, cursor)
}

func (r responseHeaders) valuesSet(name, values []byte) Status {
	return r.host.RespHeaderValuesSet(r.h, name, values)
}

func (r responseHeaders) append(name, value []byte) Status {
	return r.host.RespHeaderAppend(r.h, name, value)
}

func (r responseHeaders) remove(name []byte) Status {
	return r.host.RespHeaderRemove(r.h, name)
}
