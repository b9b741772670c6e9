package scanner

import (
	"net"
	"time"

	"github.com/techfortress/fortress/pkg/config"
)

// Outcome is the state of a single probed port
type Outcome string

const (
	OutcomeOpen     Outcome = "open"
	OutcomeClosed   Outcome = "closed"   // connection actively refused
	OutcomeFiltered Outcome = "filtered" // no answer within the timeout
	OutcomeError    Outcome = "error"    // any other socket failure
)

// ProbeResult is the outcome of one connect attempt
type ProbeResult struct {
	Port    int
	Outcome Outcome
	Service string        // well-known service name, open ports only
	RTT     time.Duration // time spent in connect
	Err     string        // diagnostic note for OutcomeError
}

// Open reports whether the port accepted the connection
func (r ProbeResult) Open() bool {
	return r.Outcome == OutcomeOpen
}

// Report is the result of one scan invocation
type Report struct {
	Target    string
	IP        net.IP
	Results   []ProbeResult // one per probed port, sorted by port
	OpenPorts []int         // sorted ascending, no duplicates
	Canceled  bool          // scan stopped early, Results is partial
	Duration  time.Duration
}

// Errors returns the results that carry a per-port error annotation
func (r *Report) Errors() []ProbeResult {
	var out []ProbeResult
	for _, res := range r.Results {
		if res.Outcome == OutcomeError {
			out = append(out, res)
		}
	}
	return out
}

// Options contains prober configuration
type Options struct {
	Timeout     time.Duration // Per-probe connect timeout (0 or negative = config default)
	Concurrency int           // Max in-flight probes (0 or negative = config default)
	RateLimit   int           // Max probe starts per second (0 or negative = no limit, uses rate.Inf)

	// OnResult is called once per finished probe in completion order.
	// Calls are serialized, so it may write to a shared writer without locking.
	OnResult func(ProbeResult)
}

// DefaultOptions returns prober options from the process configuration
func DefaultOptions() Options {
	return Options{
		Timeout:     config.Scanner.ProbeTimeout,
		Concurrency: config.Scanner.Concurrency,
		RateLimit:   config.Scanner.RateLimit,
	}
}
