package host

import (
	"bytes"
	"strings"

	"github.com/wippyai/edge-abi/abi"
	"github.com/wippyai/edge-abi/errors"
)

// Header calls are identical for requests and responses once the handle is
// resolved to its fields.

func (s *Session) reqFields(call string, h abi.RequestHandle) (*fields, error) {
	r, err := s.request(call, h)
	if err != nil {
		return nil, err
	}
	return r.header, nil
}

func (s *Session) respFields(call string, h abi.ResponseHandle) (*fields, error) {
	r, err := s.response(call, h)
	if err != nil {
		return nil, err
	}
	return r.header, nil
}

// page writes the item at cursor, NUL-terminated, and returns the next
// cursor. Past the last item it returns a zero-length page.
func page(call string, items []string, buf []byte, cursor abi.Cursor) (abi.CursorResult, int, error) {
	if int(cursor) >= len(items) {
		return abi.CursorDone, 0, nil
	}
	item := items[cursor]
	need := len(item) + 1
	if need > len(buf) {
		return 0, need, errors.BufferTooSmall(call, need, len(buf))
	}
	copy(buf, item)
	buf[len(item)] = 0

	next := abi.CursorResult(cursor) + 1
	if int(next) >= len(items) {
		next = abi.CursorDone
	}
	return next, need, nil
}

func headerName(call string, name []byte) (string, error) {
	n := string(trimNUL(name))
	if !validToken(n) {
		return "", errors.New(errors.PhaseHost, errors.KindInvalidInput).Func(call).Detail("header name %q", n).Build()
	}
	return n, nil
}

func headerValue(call string, value []byte) (string, error) {
	v := string(trimNUL(value))
	if strings.ContainsAny(v, "\r\n\x00") {
		return "", errors.New(errors.PhaseHost, errors.KindInvalidInput).Func(call).Detail("header value %q", v).Build()
	}
	return v, nil
}

func namesGet(call string, f *fields, buf []byte, cursor abi.Cursor) (abi.CursorResult, int, error) {
	return page(call, f.list(), buf, cursor)
}

func valueGet(call string, f *fields, name, buf []byte) (int, error) {
	n, err := headerName(call, name)
	if err != nil {
		return 0, err
	}
	values, ok := f.get(n)
	if !ok || len(values) == 0 {
		return 0, errors.NotFound(errors.PhaseHost, "header", n)
	}
	return copyOut(call, buf, values[0])
}

func valuesGet(call string, f *fields, name, buf []byte, cursor abi.Cursor) (abi.CursorResult, int, error) {
	n, err := headerName(call, name)
	if err != nil {
		return 0, 0, err
	}
	values, _ := f.get(n)
	return page(call, values, buf, cursor)
}

// valuesSet parses a NUL-terminated value list. Only the final terminator is
// dropped, so trailing empty values survive. An empty list removes the header.
func valuesSet(call string, f *fields, name, list []byte) error {
	n, err := headerName(call, name)
	if err != nil {
		return err
	}
	var values []string
	if len(list) > 0 {
		for _, raw := range bytes.Split(bytes.TrimSuffix(list, []byte{0}), []byte{0}) {
			v, err := headerValue(call, raw)
			if err != nil {
				return err
			}
			values = append(values, v)
		}
	}
	f.set(n, values)
	return nil
}

func headerAppend(call string, f *fields, name, value []byte) error {
	n, err := headerName(call, name)
	if err != nil {
		return err
	}
	v, err := headerValue(call, value)
	if err != nil {
		return err
	}
	f.append(n, v)
	return nil
}

func headerRemove(call string, f *fields, name []byte) error {
	n, err := headerName(call, name)
	if err != nil {
		return err
	}
	if !f.remove(n) {
		return errors.NotFound(errors.PhaseHost, "header", n)
	}
	return nil
}

// ReqHeaderNamesGet writes the header name at cursor.
func (s *Session) ReqHeaderNamesGet(h abi.RequestHandle, buf []byte, cursor abi.Cursor) (abi.CursorResult, int, abi.Status) {
	const call = ModuleHTTPReq + "#header_names_get"
	f, err := s.reqFields(call, h)
	if err != nil {
		return 0, 0, s.result(ModuleHTTPReq, "header_names_get", err)
	}
	next, n, err := namesGet(call, f, buf, cursor)
	return next, n, s.result(ModuleHTTPReq, "header_names_get", err)
}

// ReqHeaderValueGet writes the first value of a header.
func (s *Session) ReqHeaderValueGet(h abi.RequestHandle, name, buf []byte) (int, abi.Status) {
	const call = ModuleHTTPReq + "#header_value_get"
	f, err := s.reqFields(call, h)
	if err != nil {
		return 0, s.result(ModuleHTTPReq, "header_value_get", err)
	}
	n, err := valueGet(call, f, name, buf)
	return n, s.result(ModuleHTTPReq, "header_value_get", err)
}

// ReqHeaderValuesGet writes the header value at cursor.
func (s *Session) ReqHeaderValuesGet(h abi.RequestHandle, name, buf []byte, cursor abi.Cursor) (abi.CursorResult, int, abi.Status) {
	const call = ModuleHTTPReq + "#header_values_get"
	f, err := s.reqFields(call, h)
	if err != nil {
		return 0, 0, s.result(ModuleHTTPReq, "header_values_get", err)
	}
	next, n, err := valuesGet(call, f, name, buf, cursor)
	return next, n, s.result(ModuleHTTPReq, "header_values_get", err)
}

// ReqHeaderValuesSet replaces a header with a NUL-separated value list.
func (s *Session) ReqHeaderValuesSet(h abi.RequestHandle, name, values []byte) abi.Status {
	const call = ModuleHTTPReq + "#header_values_set"
	f, err := s.reqFields(call, h)
	if err == nil {
		err = valuesSet(call, f, name, values)
	}
	return s.result(ModuleHTTPReq, "header_values_set", err)
}

// ReqHeaderAppend adds one header value.
func (s *Session) ReqHeaderAppend(h abi.RequestHandle, name, value []byte) abi.Status {
	const call = ModuleHTTPReq + "#header_append"
	f, err := s.reqFields(call, h)
	if err == nil {
		err = headerAppend(call, f, name, value)
	}
	return s.result(ModuleHTTPReq, "header_append", err)
}

// ReqHeaderRemove deletes a header.
func (s *Session) ReqHeaderRemove(h abi.RequestHandle, name []byte) abi.Status {
	const call = ModuleHTTPReq + "#header_remove"
	f, err := s.reqFields(call, h)
	if err == nil {
		err = headerRemove(call, f, name)
	}
	return s.result(ModuleHTTPReq, "header_remove", err)
}

// RespHeaderNamesGet writes the header name at cursor.
func (s *Session) RespHeaderNamesGet(h abi.ResponseHandle, buf []byte, cursor abi.Cursor) (abi.CursorResult, int, abi.Status) {
	const call = ModuleHTTPResp + "#header_names_get"
	f, err := s.respFields(call, h)
	if err != nil {
		return 0, 0, s.result(ModuleHTTPResp, "header_names_get", err)
	}
	next, n, err := namesGet(call, f, buf, cursor)
	return next, n, s.result(ModuleHTTPResp, "header_names_get", err)
}

// RespHeaderValueGet writes the first value of a header.
func (s *Session) RespHeaderValueGet(h abi.ResponseHandle, name, buf []byte) (int, abi.Status) {
	const call = ModuleHTTPResp + "#header_value_get"
	f, err := s.respFields(call, h)
	if err != nil {
		return 0, s.result(ModuleHTTPResp, "header_value_get", err)
	}
	n, err := valueGet(call, f, name, buf)
	return n, s.result(ModuleHTTPResp, "header_value_get", err)
}

// RespHeaderValuesGet writes the header value at cursor.
func (s *Session) RespHeaderValuesGet(h abi.ResponseHandle, name, buf []byte, cursor abi.Cursor) (abi.CursorResult, int, abi.Status) {
	const call = ModuleHTTPResp + "#header_values_get"
	f, err := s.respFields(call, h)
	if err != nil {
		return 0, 0, s.result(ModuleHTTPResp, "header_values_get", err)
	}
	next, n, err := valuesGet(call, f, name, buf, cursor)
	return next, n, s.result(ModuleHTTPResp, "header_values_get", err)
}

// RespHeaderValuesSet replaces a header with a NUL-separated value list.
func (s *Session) RespHeaderValuesSet(h abi.ResponseHandle, name, values []byte) abi.Status {
	const call = ModuleHTTPResp + "#header_values_set"
	f, err := s.respFields(call, h)
	if err == nil {
		err = valuesSet(call, f, name, values)
	}
	return s.result(ModuleHTTPResp, "header_values_set", err)
}

// RespHeaderAppend adds one header value.
func (s *Session) RespHeaderAppend(h abi.ResponseHandle, name, value []byte) abi.Status {
	const call = ModuleHTTPResp + "#header_append"
	f, err := s.respFields(call, h)
	if err == nil {
		err = headerAppend(call, f, name, value)
	}
	return s.result(ModuleHTTPResp, "header_append", err)
}

// RespHeaderRemove deletes a header.
func (s *Session) RespHeaderRemove(h abi.ResponseHandle, name []byte) abi.Status {
	const call = ModuleHTTPResp + "#header_remove"
	f, err := s.respFields(call, h)
	if err == nil {
		err = headerRemove(call, f, name)
	}
	return s.result(ModuleHTTPResp, "header_remove", err)
}
