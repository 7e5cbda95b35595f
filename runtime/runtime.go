package runtime

import (
	"context"
	"io"
	"os"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/imports/wasi_snapshot_preview1"

	"github.com/wippyai/edge-abi/errors"
	"github.com/wippyai/edge-abi/host"
)

// Runtime compiles guests and hosts the import modules they link against.
type Runtime struct {
	runtime wazero.Runtime
	opts    options
}

type options struct {
	host             host.Options
	memoryLimitPages uint32
	stdout           io.Writer
	stderr           io.Writer
}

// Option configures a Runtime.
type Option func(*options)

// WithHostOptions sets the options every guest session is created with.
func WithHostOptions(o host.Options) Option {
	return func(opts *options) { opts.host = o }
}

// WithMemoryLimitPages caps guest memory, in 64KiB pages.
func WithMemoryLimitPages(pages uint32) Option {
	return func(opts *options) { opts.memoryLimitPages = pages }
}

// WithStdout sets where guest stdout goes. Defaults to os.Stdout.
func WithStdout(w io.Writer) Option {
	return func(opts *options) { opts.stdout = w }
}

// WithStderr sets where guest stderr goes. Defaults to os.Stderr.
func WithStderr(w io.Writer) Option {
	return func(opts *options) { opts.stderr = w }
}

// New creates a runtime with WASI preview1 and the host ABI modules
// instantiated.
func New(ctx context.Context, opts ...Option) (*Runtime, error) {
	o := options{stdout: os.Stdout, stderr: os.Stderr}
	for _, opt := range opts {
		opt(&o)
	}

	cfg := wazero.NewRuntimeConfig()
	if o.memoryLimitPages > 0 {
		cfg = cfg.WithMemoryLimitPages(o.memoryLimitPages)
	}
	r := wazero.NewRuntimeWithConfig(ctx, cfg)

	builder := r.NewHostModuleBuilder(wasi_snapshot_preview1.ModuleName)
	wasi_snapshot_preview1.NewFunctionExporter().ExportFunctions(builder)
	if _, err := builder.Instantiate(ctx); err != nil {
		r.Close(ctx)
		return nil, errors.Wrap(errors.PhaseLink, errors.KindInstantiation, err, "instantiate WASI")
	}
	if err := host.Exports(ctx, r); err != nil {
		r.Close(ctx)
		return nil, err
	}

	return &Runtime{runtime: r, opts: o}, nil
}

// Close releases all runtime resources, including compiled modules.
func (r *Runtime) Close(ctx context.Context) error {
	return r.runtime.Close(ctx)
}

// LoadWASM compiles a core module and checks that every import it declares
// is provided.
func (r *Runtime) LoadWASM(ctx context.Context, wasm []byte) (*Module, error) {
	if isComponent(wasm) {
		return nil, errors.InvalidInput(errors.PhaseLoad, "component binaries are not supported; build a core module")
	}

	compiled, err := r.runtime.CompileModule(ctx, wasm)
	if err != nil {
		return nil, errors.Load("compile module", err)
	}

	var missing []string
	for _, def := range compiled.ImportedFunctions() {
		module, name, _ := def.Import()
		if m := r.runtime.Module(module); m == nil || m.ExportedFunction(name) == nil {
			missing = append(missing, module+"#"+name)
		}
	}
	if len(missing) > 0 {
		compiled.Close(ctx)
		return nil, errors.NewMissingImportsError(missing)
	}

	if _, ok := compiled.ExportedFunctions()[startFunction]; !ok {
		compiled.Close(ctx)
		return nil, errors.NotFound(errors.PhaseLoad, "export", startFunction)
	}

	return &Module{runtime: r, compiled: compiled}, nil
}

// isComponent reports whether wasm carries the component layer in its
// version field.
func isComponent(wasm []byte) bool {
	return len(wasm) >= 8 &&
		string(wasm[:4]) == "\x00asm" &&
		wasm[6] == 0x01 && wasm[7] == 0x00
}
