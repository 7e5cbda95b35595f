package host

import (
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/wippyai/edge-abi/abi"
	"github.com/wippyai/edge-abi/errors"
	"github.com/wippyai/edge-abi/resource"
)

// RespSendDownstream sends a response to the downstream client. Status and
// headers are committed once. A streaming send writes what the body holds
// and keeps the body attached so later writes go out immediately; a
// non-streaming send writes the whole body and completes the response.
func (s *Session) RespSendDownstream(resp abi.ResponseHandle, bh abi.BodyHandle, streaming bool) abi.Status {
	return s.result(ModuleHTTPResp, "send_downstream", s.sendDownstream(resp, bh, streaming))
}

func (s *Session) sendDownstream(resp abi.ResponseHandle, bh abi.BodyHandle, streaming bool) error {
	const call = ModuleHTTPResp + "#send_downstream"
	r, err := s.response(call, resp)
	if err != nil {
		return err
	}
	b, err := s.body(call, bh)
	if err != nil {
		return err
	}

	if s.committed {
		if b != s.streaming {
			return errors.InvalidState(errors.PhaseHost, "downstream response already sent")
		}
		// Follow-up on an open stream: everything was written already.
		s.flush()
		if !streaming {
			b.streaming = false
			b.sealed = true
			s.streaming = nil
			s.done = true
			s.table.RemoveKind(resource.Handle(resp), resource.KindResponse)
		}
		return nil
	}

	if err := b.drain(); err != nil {
		return readError(call, err)
	}

	header := s.w.Header()
	r.header.copyTo(header)
	if !streaming {
		header.Set("Content-Length", strconv.Itoa(b.buf.Len()))
	}
	s.w.WriteHeader(r.status)
	s.committed = true
	s.status = r.status

	if _, err := s.w.Write(b.buf.Bytes()); err != nil {
		return errors.Wrap(errors.PhaseDispatch, errors.KindTransport, err, "write downstream")
	}
	b.buf.Reset()

	s.log.Debug("downstream response sent",
		zap.Int("status", r.status),
		zap.Bool("streaming", streaming))

	if streaming {
		b.streaming = true
		s.streaming = b
		s.flush()
		return nil
	}

	b.sealed = true
	s.done = true
	s.table.RemoveKind(resource.Handle(resp), resource.KindResponse)
	return nil
}

func (s *Session) streamWrite(p []byte) (int, error) {
	n, err := s.w.Write(p)
	if err != nil {
		return n, errors.Wrap(errors.PhaseDispatch, errors.KindTransport, err, "stream downstream")
	}
	s.flush()
	return n, nil
}

func (s *Session) flush() {
	if f, ok := s.w.(http.Flusher); ok {
		f.Flush()
	}
}
