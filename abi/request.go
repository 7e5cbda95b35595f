package abi

import "bytes"

// MaxMethodLength is the fixed buffer size IsGet and IsPost read the method
// into. Longer methods cannot match either literal.
const MaxMethodLength = 64

// Request is a request handle with its header collection and body.
// The host models method and URI as attributes of the request handle.
type Request struct {
	host Host
	h    RequestHandle
	body *body
	sent bool

	Headers *Headers
	Body    *IncomingBody
}

func newRequest(host Host, h RequestHandle, bh BodyHandle) *Request {
	b := &body{host: host, h: bh}
	return &Request{
		host:    host,
		h:       h,
		body:    b,
		Headers: &Headers{ops: requestHeaders{host: host, h: h}},
		Body:    &IncomingBody{b: b},
	}
}

// Handle returns the host handle of the request.
func (r *Request) Handle() RequestHandle { return r.h }

// BodyWriter returns a writable view of the request body, used to fill a
// locally built request before Send.
func (r *Request) BodyWriter() *OutgoingBody {
	return &OutgoingBody{b: r.body}
}

func (r *Request) handle() (RequestHandle, error) {
	if r.sent {
		return InvalidHandle, StatusBadDescriptor
	}
	return r.h, nil
}

// Method returns the request method.
func (r *Request) Method() (string, error) {
	h, err := r.handle()
	if err != nil {
		return "", err
	}
	method, err := Fetch(DefaultBufferSize, func(buf []byte) (int, Status) {
		return r.host.ReqMethodGet(h, buf)
	})
	if err != nil {
		return "", err
	}
	return string(method), nil
}

// SetMethod sets the request method.
func (r *Request) SetMethod(method string) error {
	h, err := r.handle()
	if err != nil {
		return err
	}
	return r.host.ReqMethodSet(h, []byte(method)).toError()
}

// URI returns the fully qualified request URI.
func (r *Request) URI() (string, error) {
	h, err := r.handle()
	if err != nil {
		return "", err
	}
	uri, err := Fetch(DefaultBufferSize, func(buf []byte) (int, Status) {
		return r.host.ReqURIGet(h, buf)
	})
	if err != nil {
		return "", err
	}
	return string(uri), nil
}

// SetURI sets the fully qualified request URI.
func (r *Request) SetURI(uri string) error {
	h, err := r.handle()
	if err != nil {
		return err
	}
	return r.host.ReqURISet(h, []byte(uri)).toError()
}

// IsGet reports whether the method is GET.
func (r *Request) IsGet() (bool, error) {
	return r.isMethod("GET")
}

// IsPost reports whether the method is POST.
func (r *Request) IsPost() (bool, error) {
	return r.isMethod("POST")
}

// isMethod reads the method into a MaxMethodLength buffer without growing
// it. A method that does not fit is reported as not matching.
func (r *Request) isMethod(want string) (bool, error) {
	h, err := r.handle()
	if err != nil {
		return false, err
	}
	var buf [MaxMethodLength]byte
	n, status := r.host.ReqMethodGet(h, buf[:])
	if status == StatusBufferTooSmall {
		return false, nil
	}
	if err := status.toError(); err != nil {
		return false, err
	}
	if n < 0 || n > len(buf) {
		return false, StatusError
	}
	return bytes.Equal(buf[:n], []byte(want)), nil
}

// Send dispatches the request and its body to the named backend and blocks
// until the backend responds. The request and its body are consumed.
func (r *Request) Send(backend string) (*IncomingResponse, error) {
	h, err := r.handle()
	if err != nil {
		return nil, err
	}
	bh, err := r.body.handle()
	if err != nil {
		return nil, err
	}
	r.sent = true
	r.body.closed = true

	resp, respBody, status := r.host.ReqSend(h, bh, []byte(backend))
	if err := status.toError(); err != nil {
		return nil, err
	}
	return newIncomingResponse(r.host, resp, respBody), nil
}
