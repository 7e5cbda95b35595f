package host

import (
	"bytes"
	"context"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/wippyai/edge-abi/abi"
	"github.com/wippyai/edge-abi/errors"
	"github.com/wippyai/edge-abi/resource"
)

// Backend is a named origin guests can send requests to.
type Backend struct {
	Name    string
	URL     *url.URL
	Timeout time.Duration

	client  *http.Client
	limiter *rate.Limiter
}

// BackendOptions configures a Backend.
type BackendOptions struct {
	Timeout time.Duration
	// RequestsPerSecond limits dispatch rate. 0 means unlimited.
	RequestsPerSecond float64
	Burst             int
	// Transport overrides http.DefaultTransport.
	Transport http.RoundTripper
}

// NewBackend creates a backend that sends requests to origin, keeping the
// path and query of each request.
func NewBackend(name, origin string, opts BackendOptions) (*Backend, error) {
	if name == "" {
		return nil, errors.InvalidInput(errors.PhaseConfig, "backend name cannot be empty")
	}
	u, err := url.Parse(origin)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, errors.New(errors.PhaseConfig, errors.KindInvalidInput).
			Path("backends", name, "url").
			Detail("origin %q must be an absolute URL", origin).
			Cause(err).
			Build()
	}

	limit := rate.Inf
	burst := opts.Burst
	if opts.RequestsPerSecond > 0 {
		limit = rate.Limit(opts.RequestsPerSecond)
		if burst <= 0 {
			burst = 1
		}
	}

	return &Backend{
		Name:    name,
		URL:     u,
		Timeout: opts.Timeout,
		client: &http.Client{
			Timeout:   opts.Timeout,
			Transport: opts.Transport,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		limiter: rate.NewLimiter(limit, burst),
	}, nil
}

// Do waits for the rate limiter and sends req to the backend origin.
func (b *Backend) Do(ctx context.Context, req *http.Request) (*http.Response, error) {
	if err := b.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	out := req.Clone(ctx)
	out.URL.Scheme = b.URL.Scheme
	out.URL.Host = b.URL.Host
	if p := strings.TrimSuffix(b.URL.Path, "/"); p != "" {
		out.URL.Path = p + out.URL.Path
		out.URL.RawPath = ""
	}
	out.RequestURI = ""
	return b.client.Do(out)
}

// Backends is a registry of backends by name.
type Backends struct {
	byName map[string]*Backend
}

// NewBackends creates a registry. Later backends replace earlier ones with
// the same name.
func NewBackends(backends ...*Backend) *Backends {
	r := &Backends{byName: make(map[string]*Backend, len(backends))}
	for _, b := range backends {
		r.byName[b.Name] = b
	}
	return r
}

// Get returns the backend called name.
func (r *Backends) Get(name string) (*Backend, bool) {
	b, ok := r.byName[name]
	return b, ok
}

// Names returns the registered names, sorted.
func (r *Backends) Names() []string {
	names := make([]string, 0, len(r.byName))
	for name := range r.byName {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ReqSend sends the request and body to the named backend and waits for
// its response. The request and body handles are consumed.
func (s *Session) ReqSend(h abi.RequestHandle, bh abi.BodyHandle, backend []byte) (abi.ResponseHandle, abi.BodyHandle, abi.Status) {
	resp, body, err := s.reqSend(h, bh, string(trimNUL(backend)))
	return resp, body, s.result(ModuleHTTPReq, "send", err)
}

func (s *Session) reqSend(h abi.RequestHandle, bh abi.BodyHandle, name string) (abi.ResponseHandle, abi.BodyHandle, error) {
	const call = ModuleHTTPReq + "#send"
	invalid := abi.ResponseHandle(abi.InvalidHandle)
	invalidBody := abi.BodyHandle(abi.InvalidHandle)

	r, err := s.request(call, h)
	if err != nil {
		return invalid, invalidBody, err
	}
	b, err := s.body(call, bh)
	if err != nil {
		return invalid, invalidBody, err
	}
	be, ok := s.opts.Backends.Get(name)
	if !ok {
		return invalid, invalidBody, errors.NotFound(errors.PhaseBackend, "backend", name)
	}
	if err := b.drain(); err != nil {
		return invalid, invalidBody, readError(call, err)
	}

	out, err := http.NewRequestWithContext(s.ctx, r.method, r.uri, bytes.NewReader(b.buf.Bytes()))
	if err != nil {
		return invalid, invalidBody, errors.New(errors.PhaseBackend, errors.KindInvalidInput).
			Func(call).
			Detail("build request").
			Cause(err).
			Build()
	}
	r.header.copyTo(out.Header)
	if host := out.Header.Get("Host"); host != "" {
		out.Host = host
		out.Header.Del("Host")
	}

	s.table.RemoveKind(resource.Handle(h), resource.KindRequest)
	s.table.RemoveKind(resource.Handle(bh), resource.KindBody)

	start := time.Now()
	res, err := be.Do(s.ctx, out)
	elapsed := time.Since(start)
	if err != nil {
		s.opts.Metrics.Backend(name, 0, elapsed)
		s.log.Warn("backend request failed", zap.String("backend", name), zap.Error(err))
		return invalid, invalidBody, errors.Backend(name, err)
	}
	s.opts.Metrics.Backend(name, res.StatusCode, elapsed)
	s.log.Debug("backend response",
		zap.String("backend", name),
		zap.Int("status", res.StatusCode),
		zap.Duration("elapsed", elapsed))

	resp := s.table.Insert(resource.KindResponse, &response{
		status: res.StatusCode,
		header: fieldsFromHTTP(res.Header),
	})
	rb := s.table.Insert(resource.KindBody, &body{src: res.Body})
	return abi.ResponseHandle(resp), abi.BodyHandle(rb), nil
}

// validURI reports whether u is an absolute http(s) URL.
func validURI(u string) bool {
	parsed, err := url.Parse(u)
	if err != nil {
		return false
	}
	return (parsed.Scheme == "http" || parsed.Scheme == "https") && parsed.Host != ""
}
