package scanner

import (
	"context"
	"errors"
	"net"
	"slices"
	"strconv"
	"syscall"
	"time"
)

const (
	MinPort = 1
	MaxPort = 65535
)

// Dialer opens TCP connections. *net.Dialer satisfies it.
type Dialer interface {
	DialContext(ctx context.Context, network, address string) (net.Conn, error)
}

// NormalizePorts validates ports and returns a sorted copy without duplicates
func NormalizePorts(ports []int) ([]int, error) {
	if len(ports) == 0 {
		return nil, &InvalidPortError{Reason: "no ports requested"}
	}

	out := make([]int, 0, len(ports))
	for _, p := range ports {
		if p < MinPort || p > MaxPort {
			return nil, &InvalidPortError{Input: strconv.Itoa(p), Reason: "must be in 1..65535"}
		}
		out = append(out, p)
	}

	slices.Sort(out)
	return slices.Compact(out), nil
}

// ScanPort attempts one TCP connect to ip:port bounded by timeout.
// The second return value is false when ctx ended before the probe could
// reach a verdict; such a probe has no outcome.
func ScanPort(ctx context.Context, d Dialer, ip net.IP, port int, timeout time.Duration) (ProbeResult, bool) {
	address := net.JoinHostPort(ip.String(), strconv.Itoa(port))

	probeCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	conn, err := d.DialContext(probeCtx, "tcp", address)
	result := ProbeResult{
		Port: port,
		RTT:  time.Since(start),
	}

	if err == nil {
		conn.Close()
		result.Outcome = OutcomeOpen
		if name, ok := ServiceName(port); ok {
			result.Service = name
		}
		return result, true
	}

	// Scan-wide cancellation, not a property of the port
	if ctx.Err() != nil {
		return result, false
	}

	result.Outcome = classifyDialError(err)
	if result.Outcome == OutcomeError {
		result.Err = (&ProbeError{Port: port, Err: err}).Error()
	}
	return result, true
}

// classifyDialError maps a connect failure to a port outcome
func classifyDialError(err error) Outcome {
	if errors.Is(err, syscall.ECONNREFUSED) {
		return OutcomeClosed
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return OutcomeFiltered
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return OutcomeFiltered
	}

	return OutcomeError
}
