package scanner

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"slices"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

// Prober scans TCP ports on a single target with bounded concurrency
type Prober struct {
	opts     Options
	resolver Resolver
	dialer   Dialer
	limiter  *rate.Limiter
}

// ProberOption customizes a Prober
type ProberOption func(*Prober)

// WithResolver replaces the system resolver
func WithResolver(r Resolver) ProberOption {
	return func(p *Prober) { p.resolver = r }
}

// WithDialer replaces the TCP dialer
func WithDialer(d Dialer) ProberOption {
	return func(p *Prober) { p.dialer = d }
}

// NewProber creates a prober, filling unset options from DefaultOptions
func NewProber(opts Options, options ...ProberOption) *Prober {
	defaults := DefaultOptions()
	if opts.Timeout <= 0 {
		opts.Timeout = defaults.Timeout
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = defaults.Concurrency
	}

	// Treat RateLimit <= 0 as no limit
	var limiter *rate.Limiter
	if opts.RateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), opts.RateLimit)
	} else {
		limiter = rate.NewLimiter(rate.Inf, 0)
	}

	p := &Prober{
		opts:     opts,
		resolver: net.DefaultResolver,
		dialer:   &net.Dialer{},
		limiter:  limiter,
	}
	for _, o := range options {
		o(p)
	}
	return p
}

// Options returns the effective options
func (p *Prober) Options() Options {
	return p.opts
}

// Scan resolves target once and probes every port in ports.
//
// Port input is validated before resolution; resolution failures return a
// *ResolutionError and no report. Per-port failures are recorded on the
// matching ProbeResult and never abort other probes. If ctx ends mid-scan,
// the partial report is returned together with ctx.Err().
func (p *Prober) Scan(ctx context.Context, target string, ports []int) (*Report, error) {
	ports, err := NormalizePorts(ports)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	ip, err := Resolve(ctx, p.resolver, target)
	if err != nil {
		return nil, err
	}
	slog.Debug("target resolved", "target", target, "ip", ip.String(), "ports", len(ports))

	agg := newAggregate(len(ports), p.opts.OnResult)

	// Plain group: a failing probe must not cancel its siblings
	var g errgroup.Group
	g.SetLimit(p.opts.Concurrency)

	for _, port := range ports {
		if ctx.Err() != nil {
			break
		}
		if err := p.limiter.Wait(ctx); err != nil {
			break
		}

		// Blocks until a slot frees up
		g.Go(func() error {
			recorded := false
			defer func() {
				if r := recover(); r != nil {
					slog.Warn("probe panicked", "port", port, "panic", r)
					if recorded {
						return
					}
					agg.add(ProbeResult{
						Port:    port,
						Outcome: OutcomeError,
						Err:     (&ProbeError{Port: port, Err: fmt.Errorf("panic: %v", r)}).Error(),
					})
				}
			}()

			result, ok := ScanPort(ctx, p.dialer, ip, port, p.opts.Timeout)
			if !ok {
				return nil
			}
			if result.Outcome == OutcomeError {
				slog.Debug("probe error", "ip", ip.String(), "port", port, "error", result.Err)
			}
			recorded = true
			agg.add(result)
			return nil
		})
	}

	// Wait for all dispatched probes before reading the aggregate
	g.Wait()

	report := &Report{
		Target:   target,
		IP:       ip,
		Duration: time.Since(start),
	}
	report.Results, report.OpenPorts = agg.sorted()

	if err := ctx.Err(); err != nil && len(report.Results) < len(ports) {
		report.Canceled = true
		return report, err
	}
	return report, nil
}

// aggregate collects probe results from concurrent writers
type aggregate struct {
	mu       sync.Mutex
	results  []ProbeResult
	onResult func(ProbeResult)
}

func newAggregate(sizeHint int, onResult func(ProbeResult)) *aggregate {
	return &aggregate{
		results:  make([]ProbeResult, 0, sizeHint),
		onResult: onResult,
	}
}

func (a *aggregate) add(r ProbeResult) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.results = append(a.results, r)
	if a.onResult != nil {
		a.onResult(r)
	}
}

// sorted returns all results ordered by port plus the open subset
func (a *aggregate) sorted() ([]ProbeResult, []int) {
	a.mu.Lock()
	defer a.mu.Unlock()

	results := slices.Clone(a.results)
	slices.SortFunc(results, func(x, y ProbeResult) int {
		return x.Port - y.Port
	})

	open := make([]int, 0)
	for _, r := range results {
		if r.Open() {
			open = append(open, r.Port)
		}
	}
	return results, open
}
