package main

import (
	"fmt"
	"log/slog"
	"net"
	"strings"
	"time"

	"github.com/techfortress/fortress/pkg/config"
	"github.com/techfortress/fortress/pkg/dns"
	"github.com/techfortress/fortress/pkg/icmp"
	"github.com/techfortress/fortress/pkg/input"
	"github.com/techfortress/fortress/pkg/scanner"
)

// ScanFlags represents the CLI flags of the scan command
type ScanFlags struct {
	Ports       string
	Timeout     time.Duration
	Concurrency int
	Rate        int
}

// ResolveScanFlags validates the port list and fills unset options from the config
func ResolveScanFlags(flags ScanFlags) ([]int, scanner.Options, error) {
	ports, err := input.ParsePorts(flags.Ports)
	if err != nil {
		return nil, scanner.Options{}, err
	}

	if flags.Concurrency < 0 || flags.Rate < 0 {
		return nil, scanner.Options{}, fmt.Errorf("concurrency and rate must not be negative")
	}

	opts := scanner.DefaultOptions()
	if flags.Timeout > 0 {
		opts.Timeout = flags.Timeout
	}
	if flags.Concurrency > 0 {
		opts.Concurrency = flags.Concurrency
	}
	if flags.Rate > 0 {
		opts.RateLimit = flags.Rate
	}

	return ports, opts, nil
}

// PingFlags represents the CLI flags of the ping command
type PingFlags struct {
	Count        int
	Timeout      time.Duration
	Workers      int
	Unprivileged bool
}

// ResolvePingConfig maps ping flags onto the pinger configuration and worker count
func ResolvePingConfig(flags PingFlags) (icmp.Config, int) {
	cfg := icmp.DefaultConfig()
	if flags.Count > 0 {
		cfg.Count = flags.Count
	}
	if flags.Timeout > 0 {
		cfg.Timeout = flags.Timeout
	}
	if flags.Unprivileged {
		cfg.Privileged = false
	}

	workers := config.ICMP.Workers
	if flags.Workers > 0 {
		workers = flags.Workers
	}
	return cfg, workers
}

// systemResolver is the keyword selecting the operating system resolver
const systemResolver = "system"

// newResolver picks the resolver for host lookups: an explicit server is
// queried directly, otherwise the operating system resolver is used
func newResolver(server string) (scanner.Resolver, string) {
	server = strings.TrimSpace(server)
	if server == "" {
		server = config.DNS.Server
	}
	if server == "" || server == systemResolver {
		return net.DefaultResolver, systemResolver
	}
	c := dns.NewClient(server, dns.DefaultQueryOptions())
	return c, c.Server()
}

// newEnumResolver picks the resolver for subdomain enumeration. Without an
// explicit server the first nameserver of /etc/resolv.conf is queried
// directly so NXDOMAIN and wildcard answers are seen unfiltered.
func newEnumResolver(server string) (dns.Resolver, string) {
	server = strings.TrimSpace(server)
	if server == "" {
		server = config.DNS.Server
	}
	if server == systemResolver {
		return net.DefaultResolver, systemResolver
	}
	if server != "" {
		c := dns.NewClient(server, dns.DefaultQueryOptions())
		return c, c.Server()
	}

	c, err := dns.NewSystemClient(dns.DefaultQueryOptions())
	if err != nil {
		slog.Debug("falling back to system resolver", "error", err)
		return net.DefaultResolver, systemResolver
	}
	return c, c.Server()
}
