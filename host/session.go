package host

import (
	"context"
	"net/http"
	"strings"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/wippyai/edge-abi/abi"
	"github.com/wippyai/edge-abi/errors"
	"github.com/wippyai/edge-abi/metrics"
	"github.com/wippyai/edge-abi/resource"
)

// Import module names of the host ABI.
const (
	ModuleABI      = "fastly_abi"
	ModuleHTTPReq  = "fastly_http_req"
	ModuleHTTPResp = "fastly_http_resp"
	ModuleHTTPBody = "fastly_http_body"
	ModuleLog      = "fastly_log"
	ModuleUAP      = "fastly_uap"
)

// Options configures a Session.
type Options struct {
	// Backends resolves the backend names guests send requests to.
	Backends *Backends

	// WriteChunk caps the bytes accepted by one body write. 0 accepts all.
	WriteChunk int

	// BodyMaxBytes caps the downstream request body. 0 means no limit.
	BodyMaxBytes int64

	// Metrics receives host call, handle and backend measurements.
	Metrics *metrics.Metrics

	// EndpointLogger receives guest log endpoint writes. Defaults to
	// Logger().Named("endpoint").
	EndpointLogger *zap.Logger
}

var sessionSeq atomic.Uint64

// Session is the host side of one downstream request. It implements
// abi.Host and is not safe for concurrent use.
type Session struct {
	ctx   context.Context
	opts  Options
	log   *zap.Logger
	table *resource.Table

	w http.ResponseWriter
	r *http.Request

	initialized    bool
	downstreamReq  resource.Handle
	downstreamBody resource.Handle
	endpoints      map[string]resource.Handle

	committed bool
	status    int
	streaming *body
	done      bool
}

type request struct {
	method string
	uri    string
	header *fields
}

type response struct {
	status int
	header *fields
}

// NewSession creates the host state for serving r through w.
func NewSession(w http.ResponseWriter, r *http.Request, opts Options) *Session {
	if opts.Backends == nil {
		opts.Backends = NewBackends()
	}
	if opts.EndpointLogger == nil {
		opts.EndpointLogger = Logger().Named("endpoint")
	}

	s := &Session{
		ctx:       r.Context(),
		opts:      opts,
		table:     resource.NewTable(),
		w:         w,
		r:         r,
		endpoints: make(map[string]resource.Handle),
	}
	s.log = Logger().With(
		zap.Uint64("session", sessionSeq.Add(1)),
		zap.String("downstream", r.Method+" "+r.URL.Path),
	)
	if opts.Metrics != nil {
		s.table.Subscribe(opts.Metrics)
	}
	s.table.Subscribe(resource.ObserverFunc(s.traceHandle))
	return s
}

func (s *Session) traceHandle(e resource.Event) {
	if ce := s.log.Check(zap.DebugLevel, "handle "+e.Type.String()); ce != nil {
		ce.Write(zap.Uint32("handle", uint32(e.Handle)), zap.Stringer("kind", e.Kind))
	}
}

// Context returns the downstream request context.
func (s *Session) Context() context.Context { return s.ctx }

// Initialized reports whether the guest made the init call.
func (s *Session) Initialized() bool { return s.initialized }

// Responded reports whether the guest has committed a downstream response.
func (s *Session) Responded() bool { return s.committed }

// StatusCode returns the committed downstream status, or 0.
func (s *Session) StatusCode() int { return s.status }

// Done reports whether the downstream response is complete.
func (s *Session) Done() bool { return s.done }

// Metrics returns the session's metrics, which may be nil.
func (s *Session) Metrics() *metrics.Metrics { return s.opts.Metrics }

// Live returns the number of handles the session holds.
func (s *Session) Live() int { return s.table.Len() }

// Close ends an open stream and releases every handle.
func (s *Session) Close() error {
	if s.streaming != nil {
		s.streaming = nil
		s.done = true
	}
	return s.table.Close()
}

// result converts an internal error to the status returned to the guest.
func (s *Session) result(module, fn string, err error) abi.Status {
	status := errors.StatusOf(err)
	s.opts.Metrics.HostCall(module, fn, status)
	if err != nil && status != abi.StatusBufferTooSmall {
		s.log.Debug("host call failed",
			zap.String("call", module+"#"+fn),
			zap.Stringer("status", status),
			zap.Error(err))
	}
	return status
}

func (s *Session) request(call string, h abi.RequestHandle) (*request, error) {
	r, ok := resource.Lookup[*request](s.table, resource.Handle(h), resource.KindRequest)
	if !ok {
		return nil, errors.BadHandle(call, "request", uint32(h))
	}
	return r, nil
}

func (s *Session) response(call string, h abi.ResponseHandle) (*response, error) {
	r, ok := resource.Lookup[*response](s.table, resource.Handle(h), resource.KindResponse)
	if !ok {
		return nil, errors.BadHandle(call, "response", uint32(h))
	}
	return r, nil
}

func (s *Session) body(call string, h abi.BodyHandle) (*body, error) {
	b, ok := resource.Lookup[*body](s.table, resource.Handle(h), resource.KindBody)
	if !ok {
		return nil, errors.BadHandle(call, "body", uint32(h))
	}
	return b, nil
}

// Init accepts the guest's ABI version.
func (s *Session) Init(version uint64) abi.Status {
	var err error
	if version != abi.ABIVersion {
		err = errors.New(errors.PhaseHost, errors.KindUnsupported).
			Func(ModuleABI+"#init").
			Value(version).
			Detail("abi version %d", version).
			Build()
	} else {
		s.initialized = true
	}
	return s.result(ModuleABI, "init", err)
}

// ReqNew allocates a GET request with no URI and no headers.
func (s *Session) ReqNew() (abi.RequestHandle, abi.Status) {
	h := s.table.Insert(resource.KindRequest, &request{method: http.MethodGet, header: newFields()})
	return abi.RequestHandle(h), s.result(ModuleHTTPReq, "new", nil)
}

// ReqBodyDownstreamGet returns the downstream request and body handles.
// Repeated calls return the same handles.
func (s *Session) ReqBodyDownstreamGet() (abi.RequestHandle, abi.BodyHandle, abi.Status) {
	if s.downstreamReq == 0 {
		s.downstreamReq = s.table.Insert(resource.KindRequest, downstreamRequest(s.r))

		var src = s.r.Body
		if src != nil && s.opts.BodyMaxBytes > 0 {
			src = http.MaxBytesReader(s.w, src, s.opts.BodyMaxBytes)
		}
		s.downstreamBody = s.table.Insert(resource.KindBody, &body{src: src})
	}
	return abi.RequestHandle(s.downstreamReq), abi.BodyHandle(s.downstreamBody),
		s.result(ModuleHTTPReq, "body_downstream_get", nil)
}

func downstreamRequest(r *http.Request) *request {
	uri := r.URL.String()
	if !r.URL.IsAbs() {
		scheme := "http"
		if r.TLS != nil {
			scheme = "https"
		}
		uri = scheme + "://" + r.Host + r.URL.RequestURI()
	}

	header := fieldsFromHTTP(r.Header)
	if _, ok := header.get("host"); !ok && r.Host != "" {
		header.set("host", []string{r.Host})
	}
	return &request{method: r.Method, uri: uri, header: header}
}

// ReqMethodGet copies the request method into buf.
func (s *Session) ReqMethodGet(h abi.RequestHandle, buf []byte) (int, abi.Status) {
	n, err := s.reqAttrGet(ModuleHTTPReq+"#method_get", h, buf, func(r *request) string { return r.method })
	return n, s.result(ModuleHTTPReq, "method_get", err)
}

// ReqMethodSet sets the request method.
func (s *Session) ReqMethodSet(h abi.RequestHandle, method []byte) abi.Status {
	const call = ModuleHTTPReq + "#method_set"
	r, err := s.request(call, h)
	if err == nil {
		m := string(trimNUL(method))
		if validToken(m) {
			r.method = m
		} else {
			err = errors.New(errors.PhaseHost, errors.KindInvalidInput).Func(call).Detail("method %q", m).Build()
		}
	}
	return s.result(ModuleHTTPReq, "method_set", err)
}

// ReqURIGet copies the request URI into buf.
func (s *Session) ReqURIGet(h abi.RequestHandle, buf []byte) (int, abi.Status) {
	n, err := s.reqAttrGet(ModuleHTTPReq+"#uri_get", h, buf, func(r *request) string { return r.uri })
	return n, s.result(ModuleHTTPReq, "uri_get", err)
}

// ReqURISet sets the request URI, which must be absolute.
func (s *Session) ReqURISet(h abi.RequestHandle, uri []byte) abi.Status {
	const call = ModuleHTTPReq + "#uri_set"
	r, err := s.request(call, h)
	if err == nil {
		u := string(trimNUL(uri))
		if validURI(u) {
			r.uri = u
		} else {
			err = errors.New(errors.PhaseHost, errors.KindInvalidInput).Func(call).Detail("uri %q", u).Build()
		}
	}
	return s.result(ModuleHTTPReq, "uri_set", err)
}

func (s *Session) reqAttrGet(call string, h abi.RequestHandle, buf []byte, attr func(*request) string) (int, error) {
	r, err := s.request(call, h)
	if err != nil {
		return 0, err
	}
	return copyOut(call, buf, attr(r))
}

// RespNew allocates a 200 response with no headers.
func (s *Session) RespNew() (abi.ResponseHandle, abi.Status) {
	h := s.table.Insert(resource.KindResponse, &response{status: http.StatusOK, header: newFields()})
	return abi.ResponseHandle(h), s.result(ModuleHTTPResp, "new", nil)
}

// RespStatusGet returns the response status code.
func (s *Session) RespStatusGet(h abi.ResponseHandle) (int, abi.Status) {
	r, err := s.response(ModuleHTTPResp+"#status_get", h)
	if err != nil {
		return 0, s.result(ModuleHTTPResp, "status_get", err)
	}
	return r.status, s.result(ModuleHTTPResp, "status_get", nil)
}

// RespStatusSet sets the response status code.
func (s *Session) RespStatusSet(h abi.ResponseHandle, code int) abi.Status {
	const call = ModuleHTTPResp + "#status_set"
	r, err := s.response(call, h)
	if err == nil {
		if code >= 100 && code <= 999 {
			r.status = code
		} else {
			err = errors.New(errors.PhaseHost, errors.KindInvalidInput).Func(call).Value(code).Detail("status %d", code).Build()
		}
	}
	return s.result(ModuleHTTPResp, "status_set", err)
}

// copyOut writes value into buf, or reports the size it needs.
func copyOut(call string, buf []byte, value string) (int, error) {
	if len(value) > len(buf) {
		return len(value), errors.BufferTooSmall(call, len(value), len(buf))
	}
	return copy(buf, value), nil
}

// trimNUL drops the terminators guests append to names and values.
func trimNUL(b []byte) []byte {
	for len(b) > 0 && b[len(b)-1] == 0 {
		b = b[:len(b)-1]
	}
	return b
}

func validToken(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		case strings.IndexByte("!#$%&'*+-.^_`|~", c) >= 0:
		default:
			return false
		}
	}
	return true
}

var _ abi.Host = (*Session)(nil)
