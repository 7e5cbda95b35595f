package abi

// OutgoingResponse is the response being built for the downstream client.
type OutgoingResponse struct {
	host     Host
	h        ResponseHandle
	body     *body
	finished bool

	Headers *Headers
	Body    *OutgoingBody
}

func newOutgoingResponse(host Host, h ResponseHandle, bh BodyHandle) *OutgoingResponse {
	b := &body{host: host, h: bh}
	return &OutgoingResponse{
		host:    host,
		h:       h,
		body:    b,
		Headers: &Headers{ops: responseHeaders{host: host, h: h}},
		Body:    &OutgoingBody{b: b},
	}
}

// Handle returns the host handle of the response.
func (r *OutgoingResponse) Handle() ResponseHandle { return r.h }

func (r *OutgoingResponse) handle() (ResponseHandle, error) {
	if r.finished {
		return InvalidHandle, StatusBadDescriptor
	}
	return r.h, nil
}

// Status returns the status code the host holds for the response.
func (r *OutgoingResponse) Status() (int, error) {
	h, err := r.handle()
	if err != nil {
		return 0, err
	}
	return statusGet(r.host, h)
}

// SetStatus sets the status code.
func (r *OutgoingResponse) SetStatus(code int) error {
	h, err := r.handle()
	if err != nil {
		return err
	}
	return r.host.RespStatusSet(h, code).toError()
}

// Flush sends the headers and the body written so far. The body stays open
// and further writes are streamed.
func (r *OutgoingResponse) Flush() error {
	h, err := r.handle()
	if err != nil {
		return err
	}
	bh, err := r.body.handle()
	if err != nil {
		return err
	}
	return r.host.RespSendDownstream(h, bh, true).toError()
}

// Finish sends the response and closes its body. The body is closed even
// when the send fails, and the response cannot be used afterwards.
func (r *OutgoingResponse) Finish() error {
	h, err := r.handle()
	if err != nil {
		return err
	}
	bh, err := r.body.handle()
	if err != nil {
		return err
	}
	r.finished = true
	if err := r.host.RespSendDownstream(h, bh, false).toError(); err != nil {
		r.body.close()
		return err
	}
	return r.body.close()
}

// IncomingResponse is a response received from a backend.
type IncomingResponse struct {
	host Host
	h    ResponseHandle

	Headers *Headers
	Body    *IncomingBody
}

func newIncomingResponse(host Host, h ResponseHandle, bh BodyHandle) *IncomingResponse {
	return &IncomingResponse{
		host:    host,
		h:       h,
		Headers: &Headers{ops: responseHeaders{host: host, h: h}},
		Body:    &IncomingBody{b: &body{host: host, h: bh}},
	}
}

// Handle returns the host handle of the response.
func (r *IncomingResponse) Handle() ResponseHandle { return r.h }

// Status returns the backend status code.
func (r *IncomingResponse) Status() (int, error) {
	return statusGet(r.host, r.h)
}

func statusGet(host Host, h ResponseHandle) (int, error) {
	code, status := host.RespStatusGet(h)
	if err := status.toError(); err != nil {
		return 0, err
	}
	return code, nil
}
