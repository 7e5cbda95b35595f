package host

import (
	"strings"

	"go.uber.org/zap"

	"github.com/wippyai/edge-abi/abi"
	"github.com/wippyai/edge-abi/errors"
	"github.com/wippyai/edge-abi/resource"
)

type endpoint struct {
	name string
	log  *zap.Logger
}

// LogEndpointGet opens the named endpoint. Each name maps to one handle per
// session.
func (s *Session) LogEndpointGet(name []byte) (abi.EndpointHandle, abi.Status) {
	n := string(trimNUL(name))
	if n == "" {
		err := errors.InvalidInput(errors.PhaseHost, "endpoint name cannot be empty")
		return abi.EndpointHandle(abi.InvalidHandle), s.result(ModuleLog, "endpoint_get", err)
	}

	h, ok := s.endpoints[n]
	if !ok {
		h = s.table.Insert(resource.KindEndpoint, &endpoint{
			name: n,
			log:  s.opts.EndpointLogger.With(zap.String("endpoint", n)),
		})
		s.endpoints[n] = h
	}
	return abi.EndpointHandle(h), s.result(ModuleLog, "endpoint_get", nil)
}

// LogWrite emits msg as one log entry on the endpoint.
func (s *Session) LogWrite(h abi.EndpointHandle, msg []byte) (int, abi.Status) {
	e, ok := resource.Lookup[*endpoint](s.table, resource.Handle(h), resource.KindEndpoint)
	if !ok {
		return 0, s.result(ModuleLog, "write", errors.BadHandle(ModuleLog+"#write", "endpoint", uint32(h)))
	}
	e.log.Info(strings.TrimRight(string(msg), "\r\n"))
	return len(msg), s.result(ModuleLog, "write", nil)
}
