package runtime

import (
	"context"
	"crypto/rand"
	stderrors "errors"
	"net/http"
	"time"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/sys"
	"go.uber.org/zap"

	"github.com/wippyai/edge-abi/abi"
	"github.com/wippyai/edge-abi/errors"
	"github.com/wippyai/edge-abi/host"
)

const startFunction = "_start"

// Module is a compiled guest. It serves each downstream request with a
// fresh instance and is safe for concurrent use.
type Module struct {
	runtime  *Runtime
	compiled wazero.CompiledModule
}

// Close releases the compiled code.
func (m *Module) Close(ctx context.Context) error {
	return m.compiled.Close(ctx)
}

// Run instantiates the guest for one downstream request and runs it to
// completion. The returned session has not been closed.
func (m *Module) Run(w http.ResponseWriter, r *http.Request) (*host.Session, error) {
	sess := host.NewSession(w, r, m.runtime.opts.host)
	ctx := host.WithSession(r.Context(), sess)

	cfg := wazero.NewModuleConfig().
		WithName(""). // anonymous for parallel instantiation
		WithStartFunctions(startFunction).
		WithArgs("guest").
		WithStdout(m.runtime.opts.stdout).
		WithStderr(m.runtime.opts.stderr).
		WithRandSource(rand.Reader).
		WithSysWalltime().
		WithSysNanotime()

	inst, err := m.runtime.runtime.InstantiateModule(ctx, m.compiled, cfg)
	if inst != nil {
		inst.Close(ctx)
	}
	return sess, exitError(err)
}

// exitError maps a clean proc_exit to success.
func exitError(err error) error {
	if err == nil {
		return nil
	}
	var exit *sys.ExitError
	if stderrors.As(err, &exit) {
		if exit.ExitCode() == 0 {
			return nil
		}
		return errors.Exit(exit.ExitCode())
	}
	return errors.Instantiation(err)
}

// ServeHTTP runs the guest for r. A guest that fails or exits before
// sending a response is answered with 502.
func (m *Module) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	sess, err := m.Run(w, r)
	finish(w, r, sess, err, start)
}

// Native serves fn in process against the same host emulator a wasm guest
// gets, so guest code can be developed and tested without compiling to
// wasm.
func Native(fn func(*abi.Session) error, opts host.Options) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sess := host.NewSession(w, r, opts)

		guest, err := abi.Init(sess)
		if err == nil {
			err = fn(guest)
		}
		finish(w, r, sess, err, start)
	})
}

func finish(w http.ResponseWriter, r *http.Request, sess *host.Session, err error, start time.Time) {
	defer sess.Close()

	log := Logger().With(zap.String("method", r.Method), zap.String("path", r.URL.Path))
	if err != nil {
		log.Warn("guest failed", zap.Error(err))
	}

	status := sess.StatusCode()
	if !sess.Responded() {
		status = http.StatusBadGateway
		http.Error(w, "guest did not send a response", status)
	}

	elapsed := time.Since(start)
	sess.Metrics().Downstream(status, elapsed)
	log.Debug("request served",
		zap.Int("status", status),
		zap.Duration("elapsed", elapsed),
		zap.Int("live_handles", sess.Live()))
}
