package scanner

import (
	"context"
	"errors"
	"net"
	"os"
	"strconv"
	"sync/atomic"
	"syscall"
	"time"
)

// fakeResolver answers from a fixed table and counts lookups
type fakeResolver struct {
	hosts map[string][]net.IPAddr
	calls atomic.Int64
}

func (r *fakeResolver) LookupIPAddr(ctx context.Context, host string) ([]net.IPAddr, error) {
	r.calls.Add(1)
	addrs, ok := r.hosts[host]
	if !ok {
		return nil, &net.DNSError{Err: "no such host", Name: host, IsNotFound: true}
	}
	return addrs, nil
}

func localResolver(host string) *fakeResolver {
	return &fakeResolver{hosts: map[string][]net.IPAddr{
		host: {{IP: net.ParseIP("127.0.0.1")}},
	}}
}

type fakeConn struct{ net.Conn }

func (fakeConn) Close() error { return nil }

// fakeDialer simulates connect latency and tracks in-flight dials
type fakeDialer struct {
	delay time.Duration
	open  map[int]bool
	fail  map[int]error
	panic map[int]bool

	calls    atomic.Int64
	inFlight atomic.Int64
	peak     atomic.Int64
}

func (d *fakeDialer) DialContext(ctx context.Context, network, address string) (net.Conn, error) {
	d.calls.Add(1)
	n := d.inFlight.Add(1)
	defer d.inFlight.Add(-1)
	for {
		p := d.peak.Load()
		if n <= p || d.peak.CompareAndSwap(p, n) {
			break
		}
	}

	_, portStr, _ := net.SplitHostPort(address)
	port, _ := strconv.Atoi(portStr)

	if d.delay > 0 {
		select {
		case <-time.After(d.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	if d.panic[port] {
		panic("dialer exploded")
	}
	if err, ok := d.fail[port]; ok {
		return nil, err
	}
	if d.open[port] {
		return fakeConn{}, nil
	}
	return nil, refusedError()
}

func refusedError() error {
	return &net.OpError{
		Op:  "dial",
		Net: "tcp",
		Err: &os.SyscallError{Syscall: "connect", Err: syscall.ECONNREFUSED},
	}
}

var errUnreachable = errors.New("network is unreachable")

func portRange(from, to int) []int {
	ports := make([]int, 0, to-from+1)
	for p := from; p <= to; p++ {
		ports = append(ports, p)
	}
	return ports
}
