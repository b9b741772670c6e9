package icmp

import (
	"net"
	"time"

	"github.com/techfortress/fortress/pkg/config"
)

// Result is the reachability of one host
type Result struct {
	IP   net.IP
	Host string // name the address was resolved from, if any

	Up       bool
	Sent     int
	Received int

	MinRTT time.Duration
	AvgRTT time.Duration
	MaxRTT time.Duration

	Err string
}

// Loss returns the percentage of echo requests that got no reply
func (r *Result) Loss() float64 {
	if r.Sent == 0 {
		return 0
	}
	return float64(r.Sent-r.Received) / float64(r.Sent) * 100
}

// Name returns the host as given by the user, falling back to the address
func (r *Result) Name() string {
	if r.Host != "" {
		return r.Host
	}
	return r.IP.String()
}

// Config contains host discovery settings
type Config struct {
	Timeout     time.Duration // wait for each reply
	Count       int           // echo requests per host
	Interval    time.Duration // pause between requests to the same host
	PayloadSize int
	Privileged  bool // raw sockets; false uses unprivileged UDP ping sockets
}

// DefaultConfig returns host discovery settings from the process configuration
func DefaultConfig() Config {
	return Config{
		Timeout:     config.ICMP.Timeout,
		Count:       config.ICMP.Count,
		Interval:    200 * time.Millisecond,
		PayloadSize: 56,
		Privileged:  config.ICMP.Privileged,
	}
}

// echoKey identifies an outstanding echo request
type echoKey struct {
	ip  string
	seq int
}

type echoReply struct {
	rtt time.Duration
}

type pendingEcho struct {
	sentAt time.Time
	reply  chan echoReply
}
