package abi

// Session is the binding's entry point for one module activation. It is
// created by Init and is not safe for concurrent use; a module serves one
// downstream request on a single thread.
type Session struct {
	host       Host
	downstream *Request
}

// Init performs the one-time module initialization call and returns the
// session bound to host.
func Init(host Host) (*Session, error) {
	if err := host.Init(ABIVersion).toError(); err != nil {
		return nil, err
	}
	return &Session{host: host}, nil
}

// Host returns the host the session talks to.
func (s *Session) Host() Host { return s.host }

// DownstreamRequest returns the inbound request of this activation and its
// body. The host is asked once; later calls return the same request.
func (s *Session) DownstreamRequest() (*Request, error) {
	if s.downstream != nil {
		return s.downstream, nil
	}
	h, bh, status := s.host.ReqBodyDownstreamGet()
	if err := status.toError(); err != nil {
		return nil, err
	}
	s.downstream = newRequest(s.host, h, bh)
	return s.downstream, nil
}

// NewRequest allocates a request and an empty body on the host and sets the
// method and URI.
func (s *Session) NewRequest(method, uri string) (*Request, error) {
	h, status := s.host.ReqNew()
	if err := status.toError(); err != nil {
		return nil, err
	}
	bh, status := s.host.BodyNew()
	if err := status.toError(); err != nil {
		return nil, err
	}

	req := newRequest(s.host, h, bh)
	if err := req.SetMethod(method); err != nil {
		return nil, err
	}
	if err := req.SetURI(uri); err != nil {
		return nil, err
	}
	return req, nil
}

// DownstreamResponse allocates the response that will be sent back to the
// downstream client, with an empty body.
func (s *Session) DownstreamResponse() (*OutgoingResponse, error) {
	h, status := s.host.RespNew()
	if err := status.toError(); err != nil {
		return nil, err
	}
	bh, status := s.host.BodyNew()
	if err := status.toError(); err != nil {
		return nil, err
	}
	return newOutgoingResponse(s.host, h, bh), nil
}
