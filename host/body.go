package host

import (
	"bytes"
	stderrors "errors"
	"io"
	"net/http"

	"github.com/wippyai/edge-abi/abi"
	"github.com/wippyai/edge-abi/errors"
	"github.com/wippyai/edge-abi/resource"
)

// body is a byte stream: buffered bytes followed by the unread rest of an
// optional source such as a downstream or backend body.
type body struct {
	buf bytes.Buffer
	src io.ReadCloser

	// streaming bodies write straight to the downstream connection.
	streaming bool
	// sealed bodies were sent downstream and only accept close.
	sealed bool
}

func (b *body) read(p []byte) (int, error) {
	if b.buf.Len() > 0 {
		return b.buf.Read(p)
	}
	if b.src == nil {
		return 0, nil
	}
	n, err := b.src.Read(p)
	if err == io.EOF || (err == nil && n == 0) {
		if n == 0 {
			b.closeSource()
		}
		return n, nil
	}
	if err != nil {
		b.closeSource()
		return n, err
	}
	return n, nil
}

// drain moves the rest of the source into the buffer.
func (b *body) drain() error {
	if b.src == nil {
		return nil
	}
	_, err := b.buf.ReadFrom(b.src)
	b.closeSource()
	return err
}

func (b *body) closeSource() {
	if b.src != nil {
		b.src.Close()
		b.src = nil
	}
}

// Drop releases the source when the handle goes away.
func (b *body) Drop() {
	b.closeSource()
}

// BodyNew allocates an empty body.
func (s *Session) BodyNew() (abi.BodyHandle, abi.Status) {
	h := s.table.Insert(resource.KindBody, &body{})
	return abi.BodyHandle(h), s.result(ModuleHTTPBody, "new", nil)
}

// BodyRead fills buf from the body. 0 bytes means end of stream.
func (s *Session) BodyRead(h abi.BodyHandle, buf []byte) (int, abi.Status) {
	n, err := s.bodyRead(h, buf)
	return n, s.result(ModuleHTTPBody, "read", err)
}

func (s *Session) bodyRead(h abi.BodyHandle, buf []byte) (int, error) {
	const call = ModuleHTTPBody + "#read"
	b, err := s.body(call, h)
	if err != nil {
		return 0, err
	}
	if b.streaming || b.sealed {
		return 0, errors.InvalidState(errors.PhaseHost, "body was sent downstream")
	}
	if len(buf) == 0 {
		return 0, nil
	}
	n, err := b.read(buf)
	if err != nil {
		return n, readError(call, err)
	}
	return n, nil
}

// readError maps a source failure. A body cut short by the peer or by the
// configured size limit is incomplete.
func readError(call string, err error) error {
	var tooLarge *http.MaxBytesError
	if stderrors.As(err, &tooLarge) || err == io.ErrUnexpectedEOF {
		return errors.New(errors.PhaseHost, errors.KindInvalidState).
			Func(call).
			Detail("incomplete body").
			Cause(abi.StatusHTTPIncomplete).
			Build()
	}
	return errors.Wrap(errors.PhaseHost, errors.KindTransport, err, "read body")
}

// BodyWrite appends buf to the back or front of the body. At most
// Options.WriteChunk bytes are accepted per call.
func (s *Session) BodyWrite(h abi.BodyHandle, buf []byte, end abi.BodyWriteEnd) (int, abi.Status) {
	n, err := s.bodyWrite(h, buf, end)
	return n, s.result(ModuleHTTPBody, "write", err)
}

func (s *Session) bodyWrite(h abi.BodyHandle, buf []byte, end abi.BodyWriteEnd) (int, error) {
	const call = ModuleHTTPBody + "#write"
	b, err := s.body(call, h)
	if err != nil {
		return 0, err
	}
	if b.sealed {
		return 0, errors.BadHandle(call, "body", uint32(h))
	}
	if end != abi.BodyWriteBack && end != abi.BodyWriteFront {
		return 0, errors.New(errors.PhaseHost, errors.KindInvalidInput).Func(call).Value(end).Detail("write end %d", end).Build()
	}
	if s.opts.WriteChunk > 0 && len(buf) > s.opts.WriteChunk {
		buf = buf[:s.opts.WriteChunk]
	}

	if b.streaming {
		if end == abi.BodyWriteFront {
			return 0, errors.Unsupported(errors.PhaseHost, "front write to a streaming body")
		}
		return s.streamWrite(buf)
	}

	if err := b.drain(); err != nil {
		return 0, readError(call, err)
	}
	if end == abi.BodyWriteFront {
		rest := b.buf.Bytes()
		joined := make([]byte, 0, len(buf)+len(rest))
		joined = append(joined, buf...)
		joined = append(joined, rest...)
		b.buf.Reset()
		b.buf.Write(joined)
		return len(buf), nil
	}
	return b.buf.Write(buf)
}

// BodyClose releases the body. Closing the streaming downstream body
// completes the downstream response.
func (s *Session) BodyClose(h abi.BodyHandle) abi.Status {
	const call = ModuleHTTPBody + "#close"
	b, err := s.body(call, h)
	if err == nil {
		if b == s.streaming {
			s.streaming = nil
			s.done = true
			s.flush()
		}
		s.table.RemoveKind(resource.Handle(h), resource.KindBody)
	}
	return s.result(ModuleHTTPBody, "close", err)
}
