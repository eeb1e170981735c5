package cli

import (
	"context"
	"strconv"
	"time"

	"codeberg.org/mutker/fwectl/internal/cache"
	"codeberg.org/mutker/fwectl/internal/errors"
)

const ryzenAdjName = "ryzenadj"

const ryzenAdjInfoTTL = 2 * time.Second

// RyzenAdj drives the SMU power-limit tool. Reads of the configured
// limits go through the diagnostic table dump; writes set the three
// package power limits together so they stay consistent.
type RyzenAdj struct {
	path string
	info *cache.Cache[PowerTableInfo]
}

// NewRyzenAdj locates the power-limit executable and validates it with
// a read-only table dump before handing it out.
func NewRyzenAdj(ctx context.Context) (*RyzenAdj, error) {
	path, err := resolveExecutable(ryzenAdjName)
	if err != nil {
		return nil, err
	}

	a := &RyzenAdj{
		path: path,
		info: cache.New[PowerTableInfo](),
	}

	if err := a.Probe(ctx); err != nil {
		return nil, errors.New().Wrap(ErrProbeFailed, err)
	}

	return a, nil
}

// Probe reads the limits without caching a failure, so every call makes
// a fresh attempt. Steady-state reads go through Info instead; this is
// for validation and liveness checks, where a remembered failure would
// mask a recovered tool and a remembered success a dead one.
func (a *RyzenAdj) Probe(ctx context.Context) error {
	_, err := a.info.GetOrUpdate(ctx, "info", ryzenAdjInfoTTL, false, a.fetchInfo)

	return err
}

// Path returns the resolved executable path, for logging.
func (a *RyzenAdj) Path() string {
	return a.path
}

// Info reads the currently configured power and thermal limits.
func (a *RyzenAdj) Info(ctx context.Context) (PowerTableInfo, error) {
	return a.info.GetOrUpdate(ctx, "info", ryzenAdjInfoTTL, true, a.fetchInfo)
}

func (a *RyzenAdj) fetchInfo(ctx context.Context) (PowerTableInfo, error) {
	out, err := a.run(ctx, "--info")
	if err != nil {
		return PowerTableInfo{}, err
	}

	return parseDumpTable(out), nil
}

// SetTDPWatts sets the sustained, fast and slow package power limits to
// the same value. The tool takes milliwatts.
func (a *RyzenAdj) SetTDPWatts(ctx context.Context, watts int) error {
	mw := strconv.Itoa(watts * 1000)
	_, err := a.run(ctx, "--stapm-limit="+mw, "--fast-limit="+mw, "--slow-limit="+mw)
	if err == nil {
		a.info.Invalidate("info")
	}

	return err
}

// SetThermalLimitC sets the package thermal throttle temperature.
func (a *RyzenAdj) SetThermalLimitC(ctx context.Context, limitC int) error {
	_, err := a.run(ctx, "--tctl-temp="+strconv.Itoa(limitC))
	if err == nil {
		a.info.Invalidate("info")
	}

	return err
}

// withDumpTable appends the table-dump flag when absent so every
// invocation's output stays parseable by the same code path.
func withDumpTable(args []string) []string {
	for _, arg := range args {
		if arg == "--dump-table" {
			return args
		}
	}

	return append(args, "--dump-table")
}

func (a *RyzenAdj) run(ctx context.Context, args ...string) (string, error) {
	return run(ctx, a.path, withDumpTable(args)...)
}
