// Command run serves an edge compute guest locally.
package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/alecthomas/kong"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/wippyai/edge-abi/config"
	"github.com/wippyai/edge-abi/host"
	"github.com/wippyai/edge-abi/metrics"
	"github.com/wippyai/edge-abi/runtime"
)

// Set by release ldflags.
var version = "dev"

type cli struct {
	Common config.CLI `kong:"embed"`

	Serve       serveCmd       `kong:"cmd,default='1',help='Serve the guest over HTTP.'"`
	Invoke      invokeCmd      `kong:"cmd,help='Send one request to the guest and print the response.'"`
	Interactive interactiveCmd `kong:"cmd,aliases='i',help='Compose requests to the guest in a terminal UI.'"`
	Version     versionCmd     `kong:"cmd,help='Print the version.'"`
}

func main() {
	var c cli
	ctx := kong.Parse(&c,
		kong.Name("run"),
		kong.Description("Local runner for edge compute guests."),
		kong.UsageOnError(),
	)
	ctx.FatalIfErrorf(ctx.Run(&c.Common))
}

type versionCmd struct{}

func (versionCmd) Run() error {
	fmt.Println(version)
	return nil
}

// newLogger builds the process logger and hands named children to the
// packages that log.
func newLogger(cfg *config.Config) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(strings.ToLower(cfg.Log.Level))
	if err != nil {
		return nil, err
	}

	zcfg := zap.NewProductionConfig()
	if cfg.Log.Format == "console" {
		zcfg = zap.NewDevelopmentConfig()
		zcfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	zcfg.Level = zap.NewAtomicLevelAt(level)
	zcfg.OutputPaths = []string{"stderr"}

	log, err := zcfg.Build()
	if err != nil {
		return nil, err
	}
	host.SetLogger(log.Named("host"))
	runtime.SetLogger(log.Named("runtime"))
	return log, nil
}

// newMetrics returns nil when metrics are disabled; every consumer accepts
// a nil *metrics.Metrics.
func newMetrics(cfg *config.Config) *metrics.Metrics {
	if !cfg.Metrics.Enabled {
		return nil
	}
	return metrics.New()
}

// guest is a loaded guest module with the runtime that owns it.
type guest struct {
	rt  *runtime.Runtime
	mod *runtime.Module
}

func loadGuest(ctx context.Context, cfg *config.Config, m *metrics.Metrics, opts ...runtime.Option) (*guest, error) {
	data, err := os.ReadFile(cfg.Guest.Wasm)
	if err != nil {
		return nil, fmt.Errorf("read guest: %w", err)
	}
	hostOpts, err := cfg.HostOptions(m)
	if err != nil {
		return nil, err
	}

	rt, err := runtime.New(ctx, append([]runtime.Option{runtime.WithHostOptions(hostOpts)}, opts...)...)
	if err != nil {
		return nil, err
	}
	mod, err := rt.LoadWASM(ctx, data)
	if err != nil {
		rt.Close(ctx)
		return nil, err
	}
	return &guest{rt: rt, mod: mod}, nil
}

func (g *guest) Close(ctx context.Context) error {
	return g.rt.Close(ctx)
}
