package dns

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strings"
	"time"

	"github.com/miekg/dns"
	"github.com/techfortress/fortress/pkg/config"
)

const resolvConf = "/etc/resolv.conf"

// QueryOptions contains options for DNS queries
type QueryOptions struct {
	Timeout          time.Duration
	RecursionDesired bool
	UseEDNS          bool
	EDNSBufferSize   uint16
	ValidateID       bool
}

// DefaultQueryOptions returns query options from the process configuration
func DefaultQueryOptions() QueryOptions {
	return QueryOptions{
		Timeout:          config.DNS.QueryTimeout,
		RecursionDesired: true,
		UseEDNS:          true,
		EDNSBufferSize:   1232,
		ValidateID:       config.DNS.ValidateResponseID,
	}
}

// Client resolves names by querying a single DNS server directly
type Client struct {
	server string
	opts   QueryOptions
}

// NewClient creates a client for server ("host" or "host:port", port 53 by default)
func NewClient(server string, opts QueryOptions) *Client {
	if _, _, err := net.SplitHostPort(server); err != nil {
		server = net.JoinHostPort(strings.Trim(server, "[]"), "53")
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 3 * time.Second
	}
	return &Client{server: server, opts: opts}
}

// NewSystemClient creates a client for the first nameserver in /etc/resolv.conf
func NewSystemClient(opts QueryOptions) (*Client, error) {
	cc, err := dns.ClientConfigFromFile(resolvConf)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", resolvConf, err)
	}
	if len(cc.Servers) == 0 {
		return nil, fmt.Errorf("no nameservers in %s", resolvConf)
	}
	return NewClient(net.JoinHostPort(cc.Servers[0], cc.Port), opts), nil
}

// Server returns the server address queries are sent to
func (c *Client) Server() string {
	return c.server
}

// Exchange sends a single question over UDP, retrying over TCP when the answer is truncated
func (c *Client) Exchange(ctx context.Context, name string, qtype uint16) (*dns.Msg, error) {
	msg := new(dns.Msg)
	msg.SetQuestion(dns.Fqdn(name), qtype)
	msg.RecursionDesired = c.opts.RecursionDesired
	if c.opts.UseEDNS {
		msg.SetEdns0(c.opts.EDNSBufferSize, false)
	}

	client := &dns.Client{
		Net:     "udp",
		Timeout: c.opts.Timeout,
	}

	resp, _, err := client.ExchangeContext(ctx, msg, c.server)
	if err == nil && resp.Truncated {
		slog.Debug("truncated response, retrying over TCP", "name", name, "server", c.server)
		client.Net = "tcp"
		resp, _, err = client.ExchangeContext(ctx, msg, c.server)
	}
	if err != nil {
		return nil, fmt.Errorf("%s query for %s failed: %w", dns.TypeToString[qtype], name, err)
	}
	if resp == nil {
		return nil, fmt.Errorf("empty response")
	}

	if c.opts.ValidateID && resp.Id != msg.Id {
		return nil, fmt.Errorf("DNS response ID mismatch: expected %d, got %d (possible spoofing)", msg.Id, resp.Id)
	}

	return resp, nil
}

// LookupIPAddr returns the A and AAAA records for host.
// NXDOMAIN is reported as a *net.DNSError with IsNotFound set.
func (c *Client) LookupIPAddr(ctx context.Context, host string) ([]net.IPAddr, error) {
	var addrs []net.IPAddr
	var lastErr error

	for _, qtype := range []uint16{dns.TypeA, dns.TypeAAAA} {
		resp, err := c.Exchange(ctx, host, qtype)
		if err != nil {
			lastErr = err
			continue
		}

		switch resp.Rcode {
		case dns.RcodeSuccess:
		case dns.RcodeNameError:
			return nil, &net.DNSError{Err: "no such host", Name: host, Server: c.server, IsNotFound: true}
		default:
			lastErr = fmt.Errorf("server returned %s", dns.RcodeToString[resp.Rcode])
			continue
		}

		for _, rr := range resp.Answer {
			switch v := rr.(type) {
			case *dns.A:
				addrs = append(addrs, net.IPAddr{IP: v.A})
			case *dns.AAAA:
				addrs = append(addrs, net.IPAddr{IP: v.AAAA})
			}
		}
	}

	if len(addrs) > 0 {
		return addrs, nil
	}
	if lastErr != nil {
		return nil, &net.DNSError{Err: lastErr.Error(), Name: host, Server: c.server, IsTimeout: isTimeout(lastErr)}
	}
	return nil, &net.DNSError{Err: "no addresses", Name: host, Server: c.server, IsNotFound: true}
}

func isTimeout(err error) bool {
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
