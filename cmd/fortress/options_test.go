package main

import (
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/techfortress/fortress/pkg/config"
	"github.com/techfortress/fortress/pkg/dns"
	"github.com/techfortress/fortress/pkg/scanner"
)

func TestResolveScanFlags_Defaults(t *testing.T) {
	// fortress scan -p 22,80 <target>
	ports, opts, err := ResolveScanFlags(ScanFlags{Ports: "80,22,22"})
	require.NoError(t, err)

	assert.Equal(t, []int{22, 80}, ports)
	assert.Equal(t, scanner.DefaultOptions().Timeout, opts.Timeout)
	assert.Equal(t, scanner.DefaultOptions().Concurrency, opts.Concurrency)
	assert.Zero(t, opts.RateLimit)
}

func TestResolveScanFlags_Overrides(t *testing.T) {
	ports, opts, err := ResolveScanFlags(ScanFlags{
		Ports:       "1-3",
		Timeout:     250 * time.Millisecond,
		Concurrency: 7,
		Rate:        100,
	})
	require.NoError(t, err)

	assert.Equal(t, []int{1, 2, 3}, ports)
	assert.Equal(t, 250*time.Millisecond, opts.Timeout)
	assert.Equal(t, 7, opts.Concurrency)
	assert.Equal(t, 100, opts.RateLimit)
}

func TestResolveScanFlags_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		flags ScanFlags
	}{
		{"bad ports", ScanFlags{Ports: "abc"}},
		{"port out of range", ScanFlags{Ports: "70000"}},
		{"empty ports", ScanFlags{Ports: ""}},
		{"negative concurrency", ScanFlags{Ports: "80", Concurrency: -1}},
		{"negative rate", ScanFlags{Ports: "80", Rate: -5}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := ResolveScanFlags(tt.flags)
			assert.Error(t, err)
		})
	}
}

func TestResolvePingConfig(t *testing.T) {
	cfg, workers := ResolvePingConfig(PingFlags{})
	assert.Equal(t, config.ICMP.Count, cfg.Count)
	assert.Equal(t, config.ICMP.Privileged, cfg.Privileged)
	assert.Equal(t, config.ICMP.Workers, workers)

	cfg, workers = ResolvePingConfig(PingFlags{
		Count:        4,
		Timeout:      2 * time.Second,
		Workers:      8,
		Unprivileged: true,
	})
	assert.Equal(t, 4, cfg.Count)
	assert.Equal(t, 2*time.Second, cfg.Timeout)
	assert.False(t, cfg.Privileged)
	assert.Equal(t, 8, workers)
}

func TestNewResolver(t *testing.T) {
	t.Cleanup(config.Init)
	t.Setenv("FORTRESS_DNS_SERVER", "")
	config.Init()

	res, name := newResolver("")
	assert.Equal(t, systemResolver, name)
	assert.Same(t, net.DefaultResolver, res)

	res, name = newResolver(" system ")
	assert.Equal(t, systemResolver, name)
	assert.Same(t, net.DefaultResolver, res)

	res, name = newResolver("192.0.2.53")
	assert.Equal(t, "192.0.2.53:53", name)
	assert.IsType(t, &dns.Client{}, res)
}

func TestNewResolver_FromEnv(t *testing.T) {
	t.Cleanup(config.Init)
	t.Setenv("FORTRESS_DNS_SERVER", "192.0.2.10:5353")
	config.Init()

	_, name := newResolver("")
	assert.Equal(t, "192.0.2.10:5353", name)

	// an explicit flag wins over the environment
	_, name = newResolver("system")
	assert.Equal(t, systemResolver, name)
}

func TestNewEnumResolver(t *testing.T) {
	t.Cleanup(config.Init)
	t.Setenv("FORTRESS_DNS_SERVER", "")
	config.Init()

	res, name := newEnumResolver("system")
	assert.Equal(t, systemResolver, name)
	assert.Same(t, net.DefaultResolver, res)

	_, name = newEnumResolver("[2001:db8::53]")
	assert.Equal(t, "[2001:db8::53]:53", name)

	// resolv.conf may be missing in minimal containers; either outcome is valid
	res, name = newEnumResolver("")
	assert.NotNil(t, res)
	assert.NotEmpty(t, name)
}
