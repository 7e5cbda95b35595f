package abi

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LogEndpoint is a named host log sink.
type LogEndpoint struct {
	host Host
	h    EndpointHandle
	name string
}

// LogEndpoint opens the endpoint called name.
func (s *Session) LogEndpoint(name string) (*LogEndpoint, error) {
	h, status := s.host.LogEndpointGet([]byte(name))
	if err := status.toError(); err != nil {
		return nil, err
	}
	return &LogEndpoint{host: s.host, h: h, name: name}, nil
}

// Name returns the endpoint name.
func (e *LogEndpoint) Name() string { return e.name }

// Write sends p as one message.
func (e *LogEndpoint) Write(p []byte) (int, error) {
	n, status := e.host.LogWrite(e.h, p)
	if err := status.toError(); err != nil {
		return 0, err
	}
	return n, nil
}

// WriteString sends s as one message.
func (e *LogEndpoint) WriteString(s string) (int, error) {
	return e.Write([]byte(s))
}

// Sync is a no-op; every write is delivered to the host immediately.
func (e *LogEndpoint) Sync() error { return nil }

// NewLogger returns a JSON zap logger writing to the endpoint.
func NewLogger(e *LogEndpoint, level zapcore.LevelEnabler) *zap.Logger {
	enc := zap.NewProductionEncoderConfig()
	enc.TimeKey = ""
	core := zapcore.NewCore(zapcore.NewJSONEncoder(enc), e, level)
	return zap.New(core).With(zap.String("endpoint", e.name))
}

var _ zapcore.WriteSyncer = (*LogEndpoint)(nil)
