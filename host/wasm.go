package host

import (
	"context"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"go.uber.org/zap"

	"github.com/wippyai/edge-abi/abi"
	"github.com/wippyai/edge-abi/errors"
)

type sessionKey struct{}

// WithSession returns a context carrying s. Guest calls made with this
// context are served by s.
func WithSession(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, s)
}

// SessionFrom returns the session carried by ctx.
func SessionFrom(ctx context.Context) (*Session, bool) {
	s, ok := ctx.Value(sessionKey{}).(*Session)
	return s, ok && s != nil
}

var (
	i32 = api.ValueTypeI32
	i64 = api.ValueTypeI64
)

func params(n int) []api.ValueType {
	p := make([]api.ValueType, n)
	for i := range p {
		p[i] = i32
	}
	return p
}

type hostFunc struct {
	name    string
	params  []api.ValueType
	handler func(c *call) abi.Status
}

// Imports lists every "module#function" the host provides.
func Imports() []string {
	var out []string
	for _, m := range exports() {
		for _, f := range m.funcs {
			out = append(out, m.name+"#"+f.name)
		}
	}
	return out
}

type hostModule struct {
	name  string
	funcs []hostFunc
}

// Exports instantiates the host import modules in r. Each import resolves
// its Session from the call context; a call without one fails with
// StatusError.
func Exports(ctx context.Context, r wazero.Runtime) error {
	for _, m := range exports() {
		builder := r.NewHostModuleBuilder(m.name)
		for _, f := range m.funcs {
			builder.NewFunctionBuilder().
				WithGoModuleFunction(goFunc(m.name, f), f.params, []api.ValueType{i32}).
				WithName(f.name).
				Export(f.name)
		}
		if _, err := builder.Instantiate(ctx); err != nil {
			return errors.New(errors.PhaseLink, errors.KindInstantiation).
				Detail("host module %s", m.name).
				Cause(err).
				Build()
		}
	}
	return nil
}

func goFunc(module string, f hostFunc) api.GoModuleFunc {
	return func(ctx context.Context, mod api.Module, stack []uint64) {
		s, ok := SessionFrom(ctx)
		if !ok {
			Logger().Warn("host call without session", zap.String("call", module+"#"+f.name))
			stack[0] = api.EncodeU32(uint32(abi.StatusError))
			return
		}
		status := f.handler(&call{
			s:      s,
			mem:    mod.Memory(),
			module: module,
			name:   f.name,
			stack:  stack,
		})
		stack[0] = api.EncodeU32(uint32(status))
	}
}

func exports() []hostModule {
	return []hostModule{
		{ModuleABI, []hostFunc{
			{"init", []api.ValueType{i64}, abiInit},
		}},
		{ModuleHTTPReq, []hostFunc{
			{"new", params(1), reqNew},
			{"body_downstream_get", params(2), reqBodyDownstreamGet},
			{"send", params(6), reqSend},
			{"method_get", params(4), stringGet((*Session).ReqMethodGet)},
			{"method_set", params(3), stringSet((*Session).ReqMethodSet)},
			{"uri_get", params(4), stringGet((*Session).ReqURIGet)},
			{"uri_set", params(3), stringSet((*Session).ReqURISet)},
			{"header_names_get", params(6), namesGetFunc((*Session).ReqHeaderNamesGet)},
			{"header_value_get", params(6), valueGetFunc((*Session).ReqHeaderValueGet)},
			{"header_values_get", params(8), valuesGetFunc((*Session).ReqHeaderValuesGet)},
			{"header_values_set", params(5), pairSet((*Session).ReqHeaderValuesSet)},
			{"header_append", params(5), pairSet((*Session).ReqHeaderAppend)},
			{"header_remove", params(3), stringSet((*Session).ReqHeaderRemove)},
		}},
		{ModuleHTTPResp, []hostFunc{
			{"new", params(1), respNew},
			{"status_get", params(2), respStatusGet},
			{"status_set", params(2), respStatusSet},
			{"send_downstream", params(3), respSendDownstream},
			{"header_names_get", params(6), namesGetFunc((*Session).RespHeaderNamesGet)},
			{"header_value_get", params(6), valueGetFunc((*Session).RespHeaderValueGet)},
			{"header_values_get", params(8), valuesGetFunc((*Session).RespHeaderValuesGet)},
			{"header_values_set", params(5), pairSet((*Session).RespHeaderValuesSet)},
			{"header_append", params(5), pairSet((*Session).RespHeaderAppend)},
			{"header_remove", params(3), stringSet((*Session).RespHeaderRemove)},
		}},
		{ModuleHTTPBody, []hostFunc{
			{"new", params(1), bodyNew},
			{"read", params(4), bodyRead},
			{"write", params(5), bodyWrite},
			{"close", params(1), bodyClose},
		}},
		{ModuleLog, []hostFunc{
			{"endpoint_get", params(3), logEndpointGet},
			{"write", params(4), logWrite},
		}},
		{ModuleUAP, []hostFunc{
			{"parse", params(14), uapParse},
		}},
	}
}

func abiInit(c *call) abi.Status {
	return c.s.Init(c.stack[0])
}

// handleOut runs alloc and stores the handle it returns at parameter i.
func handleOut(c *call, i int, alloc func() (uint32, abi.Status)) abi.Status {
	out, err := c.out(i, 4)
	if err != nil {
		return c.fail(err)
	}
	h, status := alloc()
	if status == abi.StatusOK {
		putU32(out, h)
	}
	return status
}

func reqNew(c *call) abi.Status {
	return handleOut(c, 0, func() (uint32, abi.Status) {
		h, status := c.s.ReqNew()
		return uint32(h), status
	})
}

func respNew(c *call) abi.Status {
	return handleOut(c, 0, func() (uint32, abi.Status) {
		h, status := c.s.RespNew()
		return uint32(h), status
	})
}

func bodyNew(c *call) abi.Status {
	return handleOut(c, 0, func() (uint32, abi.Status) {
		h, status := c.s.BodyNew()
		return uint32(h), status
	})
}

func reqBodyDownstreamGet(c *call) abi.Status {
	reqOut, err := c.out(0, 4)
	if err != nil {
		return c.fail(err)
	}
	bodyOut, err := c.out(1, 4)
	if err != nil {
		return c.fail(err)
	}
	req, body, status := c.s.ReqBodyDownstreamGet()
	if status == abi.StatusOK {
		putU32(reqOut, uint32(req))
		putU32(bodyOut, uint32(body))
	}
	return status
}

func reqSend(c *call) abi.Status {
	backend, err := c.in(2)
	if err != nil {
		return c.fail(err)
	}
	respOut, err := c.out(4, 4)
	if err != nil {
		return c.fail(err)
	}
	bodyOut, err := c.out(5, 4)
	if err != nil {
		return c.fail(err)
	}
	resp, body, status := c.s.ReqSend(abi.RequestHandle(c.u32(0)), abi.BodyHandle(c.u32(1)), backend)
	if status == abi.StatusOK {
		putU32(respOut, uint32(resp))
		putU32(bodyOut, uint32(body))
	}
	return status
}

// stringGet adapts (handle, buf, buf_len, nwritten_out) getters.
func stringGet[H ~uint32](get func(*Session, H, []byte) (int, abi.Status)) func(*call) abi.Status {
	return func(c *call) abi.Status {
		buf, err := c.in(1)
		if err != nil {
			return c.fail(err)
		}
		nOut, err := c.out(3, 4)
		if err != nil {
			return c.fail(err)
		}
		n, status := get(c.s, H(c.u32(0)), buf)
		if reportsLength(status) {
			putLen(nOut, n)
		}
		return status
	}
}

// stringSet adapts (handle, ptr, len) setters.
func stringSet[H ~uint32](set func(*Session, H, []byte) abi.Status) func(*call) abi.Status {
	return func(c *call) abi.Status {
		value, err := c.in(1)
		if err != nil {
			return c.fail(err)
		}
		return set(c.s, H(c.u32(0)), value)
	}
}

// pairSet adapts (handle, name, name_len, value, value_len) setters.
func pairSet[H ~uint32](set func(*Session, H, []byte, []byte) abi.Status) func(*call) abi.Status {
	return func(c *call) abi.Status {
		name, err := c.in(1)
		if err != nil {
			return c.fail(err)
		}
		value, err := c.in(3)
		if err != nil {
			return c.fail(err)
		}
		return set(c.s, H(c.u32(0)), name, value)
	}
}

func namesGetFunc[H ~uint32](get func(*Session, H, []byte, abi.Cursor) (abi.CursorResult, int, abi.Status)) func(*call) abi.Status {
	return func(c *call) abi.Status {
		buf, err := c.in(1)
		if err != nil {
			return c.fail(err)
		}
		nextOut, err := c.out(4, 8)
		if err != nil {
			return c.fail(err)
		}
		nOut, err := c.out(5, 4)
		if err != nil {
			return c.fail(err)
		}
		next, n, status := get(c.s, H(c.u32(0)), buf, abi.Cursor(c.u32(3)))
		if reportsLength(status) {
			putI64(nextOut, int64(next))
			putLen(nOut, n)
		}
		return status
	}
}

func valueGetFunc[H ~uint32](get func(*Session, H, []byte, []byte) (int, abi.Status)) func(*call) abi.Status {
	return func(c *call) abi.Status {
		name, err := c.in(1)
		if err != nil {
			return c.fail(err)
		}
		buf, err := c.in(3)
		if err != nil {
			return c.fail(err)
		}
		nOut, err := c.out(5, 4)
		if err != nil {
			return c.fail(err)
		}
		n, status := get(c.s, H(c.u32(0)), name, buf)
		if reportsLength(status) {
			putLen(nOut, n)
		}
		return status
	}
}

func valuesGetFunc[H ~uint32](get func(*Session, H, []byte, []byte, abi.Cursor) (abi.CursorResult, int, abi.Status)) func(*call) abi.Status {
	return func(c *call) abi.Status {
		name, err := c.in(1)
		if err != nil {
			return c.fail(err)
		}
		buf, err := c.in(3)
		if err != nil {
			return c.fail(err)
		}
		nextOut, err := c.out(6, 8)
		if err != nil {
			return c.fail(err)
		}
		nOut, err := c.out(7, 4)
		if err != nil {
			return c.fail(err)
		}
		next, n, status := get(c.s, H(c.u32(0)), name, buf, abi.Cursor(c.u32(5)))
		if reportsLength(status) {
			putI64(nextOut, int64(next))
			putLen(nOut, n)
		}
		return status
	}
}

func respStatusGet(c *call) abi.Status {
	out, err := c.out(1, 2)
	if err != nil {
		return c.fail(err)
	}
	code, status := c.s.RespStatusGet(abi.ResponseHandle(c.u32(0)))
	if status == abi.StatusOK {
		putU16(out, uint16(code))
	}
	return status
}

func respStatusSet(c *call) abi.Status {
	return c.s.RespStatusSet(abi.ResponseHandle(c.u32(0)), int(c.u32(1)))
}

func respSendDownstream(c *call) abi.Status {
	return c.s.RespSendDownstream(abi.ResponseHandle(c.u32(0)), abi.BodyHandle(c.u32(1)), c.u32(2) != 0)
}

func bodyRead(c *call) abi.Status {
	buf, err := c.in(1)
	if err != nil {
		return c.fail(err)
	}
	nOut, err := c.out(3, 4)
	if err != nil {
		return c.fail(err)
	}
	n, status := c.s.BodyRead(abi.BodyHandle(c.u32(0)), buf)
	if status == abi.StatusOK {
		putLen(nOut, n)
	}
	return status
}

func bodyWrite(c *call) abi.Status {
	buf, err := c.in(1)
	if err != nil {
		return c.fail(err)
	}
	nOut, err := c.out(4, 4)
	if err != nil {
		return c.fail(err)
	}
	n, status := c.s.BodyWrite(abi.BodyHandle(c.u32(0)), buf, abi.BodyWriteEnd(c.u32(3)))
	if status == abi.StatusOK {
		putLen(nOut, n)
	}
	return status
}

func bodyClose(c *call) abi.Status {
	return c.s.BodyClose(abi.BodyHandle(c.u32(0)))
}

func logEndpointGet(c *call) abi.Status {
	name, err := c.in(0)
	if err != nil {
		return c.fail(err)
	}
	return handleOut(c, 2, func() (uint32, abi.Status) {
		h, status := c.s.LogEndpointGet(name)
		return uint32(h), status
	})
}

func logWrite(c *call) abi.Status {
	msg, err := c.in(1)
	if err != nil {
		return c.fail(err)
	}
	nOut, err := c.out(3, 4)
	if err != nil {
		return c.fail(err)
	}
	n, status := c.s.LogWrite(abi.EndpointHandle(c.u32(0)), msg)
	if status == abi.StatusOK {
		putLen(nOut, n)
	}
	return status
}

func uapParse(c *call) abi.Status {
	ua, err := c.in(0)
	if err != nil {
		return c.fail(err)
	}

	// Four (buf, buf_len, nwritten_out) triples follow the input.
	var (
		bufs [4][]byte
		outs [4][]byte
	)
	for i := 0; i < 4; i++ {
		base := 2 + 3*i
		if bufs[i], err = c.in(base); err != nil {
			return c.fail(err)
		}
		if outs[i], err = c.out(base+2, 4); err != nil {
			return c.fail(err)
		}
	}

	n, status := c.s.UAParse(ua, bufs[0], bufs[1], bufs[2], bufs[3])
	if status == abi.StatusOK {
		putLen(outs[0], n.Family)
		putLen(outs[1], n.Major)
		putLen(outs[2], n.Minor)
		putLen(outs[3], n.Patch)
	}
	return status
}
