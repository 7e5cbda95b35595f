package abi

import "io"

// ReadChunkSize is the growth step of IncomingBody.ReadAll.
const ReadChunkSize = 4096

// body is the handle shared by the incoming and outgoing views of one host
// body. Once closed it refuses further use.
type body struct {
	host   Host
	h      BodyHandle
	closed bool
}

func (b *body) handle() (BodyHandle, error) {
	if b == nil || b.closed {
		return InvalidHandle, StatusBadDescriptor
	}
	return b.h, nil
}

func (b *body) close() error {
	h, err := b.handle()
	if err != nil {
		return err
	}
	b.closed = true
	return b.host.BodyClose(h).toError()
}

// IncomingBody is a body the module reads from: the downstream request body
// or a backend response body.
type IncomingBody struct {
	b *body
}

// Handle returns the host handle of the body.
func (r *IncomingBody) Handle() BodyHandle { return r.b.h }

// ReadChunk reads into buf and returns the filled prefix. An empty result
// means end of stream.
func (r *IncomingBody) ReadChunk(buf []byte) ([]byte, error) {
	h, err := r.b.handle()
	if err != nil {
		return nil, err
	}
	n, status := r.b.host.BodyRead(h, buf)
	if err := status.toError(); err != nil {
		return nil, err
	}
	if n < 0 || n > len(buf) {
		return nil, StatusError
	}
	return buf[:n], nil
}

// Read implements io.Reader.
func (r *IncomingBody) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	chunk, err := r.ReadChunk(p)
	if err != nil {
		return 0, err
	}
	if len(chunk) == 0 {
		return 0, io.EOF
	}
	return len(chunk), nil
}

// ReadAll reads until end of stream. The buffer grows by ReadChunkSize
// whenever its headroom drops to one chunk or less.
func (r *IncomingBody) ReadAll() ([]byte, error) {
	buf := make([]byte, ReadChunkSize)
	var n int
	for {
		if len(buf)-n <= ReadChunkSize {
			grown := make([]byte, len(buf)+ReadChunkSize)
			copy(grown, buf[:n])
			buf = grown
		}
		chunk, err := r.ReadChunk(buf[n:])
		if err != nil {
			return nil, err
		}
		if len(chunk) == 0 {
			return buf[:n], nil
		}
		n += len(chunk)
	}
}

// Close releases the body handle.
func (r *IncomingBody) Close() error {
	return r.b.close()
}

// OutgoingBody is a body the module writes to.
type OutgoingBody struct {
	b *body
}

// Handle returns the host handle of the body.
func (w *OutgoingBody) Handle() BodyHandle { return w.b.h }

// WriteChunk appends p to the body and returns how many bytes the host
// accepted, which may be fewer than len(p).
func (w *OutgoingBody) WriteChunk(p []byte) (int, error) {
	h, err := w.b.handle()
	if err != nil {
		return 0, err
	}
	n, status := w.b.host.BodyWrite(h, p, BodyWriteBack)
	if err := status.toError(); err != nil {
		return 0, err
	}
	if n < 0 || n > len(p) {
		return 0, StatusError
	}
	return n, nil
}

// WriteAll writes p in full, issuing as many host writes as needed.
func (w *OutgoingBody) WriteAll(p []byte) error {
	_, err := w.writeAll(p)
	return err
}

func (w *OutgoingBody) writeAll(p []byte) (int, error) {
	var written int
	for written < len(p) {
		n, err := w.WriteChunk(p[written:])
		if err != nil {
			return written, err
		}
		if n == 0 {
			// A host that accepts nothing would spin forever.
			return written, StatusError
		}
		written += n
	}
	return written, nil
}

// Write implements io.Writer.
func (w *OutgoingBody) Write(p []byte) (int, error) {
	return w.writeAll(p)
}

// WriteString writes s in full.
func (w *OutgoingBody) WriteString(s string) (int, error) {
	return w.writeAll([]byte(s))
}

// Close finalizes the body.
func (w *OutgoingBody) Close() error {
	return w.b.close()
}

var (
	_ io.Reader       = (*IncomingBody)(nil)
	_ io.Writer       = (*OutgoingBody)(nil)
	_ io.StringWriter = (*OutgoingBody)(nil)
)
