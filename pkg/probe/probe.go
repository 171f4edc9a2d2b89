// Package probe defines the contract every vulnerability probe
// implements and the collaborators probes share.
//
// A probe detects one vulnerability class against one protocol family
// and always produces a Result. A returned error means the probe itself
// broke; the scanner converts it into a zero-confidence result.
package probe

import (
	"context"
	"log/slog"

	"github.com/waftester/apiprobe/pkg/differential"
	"github.com/waftester/apiprobe/pkg/finding"
	"github.com/waftester/apiprobe/pkg/httpclient"
	"github.com/waftester/apiprobe/pkg/payloads"
	"github.com/waftester/apiprobe/pkg/target"
	"github.com/waftester/apiprobe/pkg/timing"
)

// Probe runs one detection strategy.
type Probe interface {
	Name() string
	Run(ctx context.Context, t *target.Target) (finding.Result, error)
}

// Func adapts a function to Probe.
type Func struct {
	ProbeName string
	Fn        func(ctx context.Context, t *target.Target) (finding.Result, error)
}

// Name returns the probe name.
func (f Func) Name() string { return f.ProbeName }

// Run calls Fn.
func (f Func) Run(ctx context.Context, t *target.Target) (finding.Result, error) {
	return f.Fn(ctx, t)
}

// Deps are the collaborators shared by all probes. Embed it in a
// package's Tester and call WithDefaults in the constructor.
type Deps struct {
	Executor *httpclient.Executor
	Catalog  *payloads.Catalog
	Analyzer *differential.Analyzer
	Profiler *timing.Profiler
	Logger   *slog.Logger
}

// DefaultDeps returns Deps wired to the shared defaults.
func DefaultDeps() Deps {
	return Deps{}.WithDefaults()
}

// WithDefaults fills nil fields.
func (d Deps) WithDefaults() Deps {
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	if d.Executor == nil {
		d.Executor = httpclient.NewExecutor(httpclient.WithLogger(d.Logger))
	}
	if d.Catalog == nil {
		d.Catalog = payloads.Default()
	}
	if d.Analyzer == nil {
		d.Analyzer = differential.New()
	}
	if d.Profiler == nil {
		d.Profiler = timing.New()
	}
	return d
}

// NotApplicable is the result for a probe invoked against a protocol it
// does not cover.
func NotApplicable(name, description string) finding.Result {
	return finding.Clean(name, description, "N/A")
}

// Failed is the result for a probe whose traffic could not complete.
func Failed(name string, err error, recommendation string) finding.Result {
	return finding.Failed(name, err, recommendation)
}
