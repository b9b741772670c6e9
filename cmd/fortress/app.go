package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"time"

	"github.com/techfortress/fortress/pkg/banner"
	"github.com/techfortress/fortress/pkg/dns"
	"github.com/techfortress/fortress/pkg/geo"
	"github.com/techfortress/fortress/pkg/icmp"
	"github.com/techfortress/fortress/pkg/input"
	"github.com/techfortress/fortress/pkg/output"
	"github.com/techfortress/fortress/pkg/scanner"
	"github.com/techfortress/fortress/pkg/web"
)

// whoisLines caps the WHOIS excerpt shown by geo
const whoisLines = 15

// app runs the individual tools and renders their results on one console.
// The subcommands and the interactive menu share it.
type app struct {
	con     *output.Console
	verbose bool

	web *web.Client
	geo *geo.Client
}

func newApp(con *output.Console, verbose bool) *app {
	return &app{
		con:     con,
		verbose: verbose,
		web:     web.NewClient(),
		geo:     geo.NewClient(),
	}
}

// scan probes ports on target and prints open ports as they are found
func (a *app) scan(ctx context.Context, target string, ports []int, opts scanner.Options, resolver string) error {
	res, name := newResolver(resolver)
	slog.Debug("using resolver", "resolver", name)

	opts.OnResult = func(r scanner.ProbeResult) {
		a.con.ProbeLine(r, a.verbose)
	}
	p := scanner.NewProber(opts, scanner.WithResolver(res))

	a.con.Infof("Scanning %s: %d ports, %d concurrent probes, timeout %s",
		target, len(ports), p.Options().Concurrency, p.Options().Timeout)

	report, err := p.Scan(ctx, target, ports)
	if report != nil {
		a.con.ScanReport(report)
	}
	if err != nil && (report == nil || !report.Canceled) {
		return err
	}
	return nil
}

// ping resolves every target and sweeps the resulting addresses
func (a *app) ping(ctx context.Context, targets []string, cfg icmp.Config, workers int) error {
	parsed, err := input.ParseTargets(targets)
	if err != nil {
		return err
	}
	if parsed.Len() == 0 {
		return errors.New("no target entered")
	}

	ips := parsed.IPs
	names := make(map[string]string, len(parsed.Hosts))
	res, _ := newResolver("")
	for _, host := range parsed.Hosts {
		ip, err := scanner.Resolve(ctx, res, host)
		if err != nil {
			a.con.Errorf("%v", err)
			continue
		}
		names[ip.String()] = host
		ips = append(ips, ip)
	}
	if len(ips) == 0 {
		return nil
	}

	p := icmp.NewPinger(cfg)
	if err := p.Start(); err != nil {
		return err
	}
	defer p.Stop()

	if len(ips) == 1 {
		a.con.Infof("Pinging %s...", describe(ips[0], names))
	} else {
		a.con.Infof("Pinging %d hosts...", len(ips))
	}

	results := p.Sweep(ctx, ips, workers)
	for _, r := range results {
		r.Host = names[r.IP.String()]
	}
	a.con.Ping(results)
	if ctx.Err() != nil {
		a.con.Errorf("Interrupted after %d of %d hosts", len(results), len(ips))
	}
	return nil
}

// grabBanner grabs and prints the banner of host:port
func (a *app) grabBanner(ctx context.Context, host string, port int, timeout time.Duration) error {
	a.con.Infof("Attempting banner grab for %s on port %d...", host, port)

	res, err := banner.Grab(ctx, host, port, timeout)
	switch {
	case errors.Is(err, banner.ErrTimeout):
		return fmt.Errorf("timeout: could not connect or receive data from %s:%d", host, port)
	case errors.Is(err, banner.ErrRefused):
		return fmt.Errorf("connection refused: port %d is likely closed or filtered on %s", port, host)
	case err != nil:
		return err
	}

	a.con.Banner(res)
	return nil
}

// webInfo prints headers and title of url
func (a *app) webInfo(ctx context.Context, url string) error {
	a.con.Infof("Gathering web information for: %s", url)

	info, err := a.web.Info(ctx, url)
	if err != nil {
		var statusErr *web.StatusError
		if errors.As(err, &statusErr) {
			return fmt.Errorf("HTTP error for %s (Status Code: %d)", url, statusErr.StatusCode)
		}
		return err
	}

	a.con.WebInfo(info)
	return nil
}

// dirs probes every path under base
func (a *app) dirs(ctx context.Context, base string, paths []string, opts web.BustOptions) error {
	if _, err := web.ValidateURL(base); err != nil {
		return err
	}
	a.con.Infof("Starting directory/file existence check for: %s (%d paths)", base, len(paths))

	opts.OnResult = a.con.PathLine
	results, err := a.web.Bust(ctx, base, paths, opts)
	a.con.Paths(base, results)
	if errors.Is(err, context.Canceled) {
		a.con.Errorf("Interrupted after %d of %d paths", len(results), len(paths))
		return nil
	}
	return err
}

// subdomains resolves every word under domain
func (a *app) subdomains(ctx context.Context, domain string, words []string, resolver string) error {
	res, name := newEnumResolver(resolver)
	a.con.Infof("Starting subdomain enumeration for: %s (%d names, resolver %s)", domain, len(words), name)

	opts := dns.DefaultEnumerateOptions()
	opts.OnResult = a.con.Subdomain

	results, err := dns.Enumerate(ctx, res, domain, words, opts)
	if results != nil || err == nil {
		a.con.Subdomains(domain, results)
	}
	if errors.Is(err, context.Canceled) {
		a.con.Errorf("Interrupted after %d of %d names", len(results), len(words))
		return nil
	}
	return err
}

// geolocate prints location details and optionally a WHOIS excerpt
func (a *app) geolocate(ctx context.Context, ip string, withWhois bool) error {
	a.con.Infof("Querying geolocation for: %s", ip)

	res, err := a.geo.Lookup(ctx, ip)
	if err != nil {
		return err
	}

	var excerpt string
	if withWhois {
		excerpt, err = a.geo.Whois(ctx, ip, whoisLines)
		if err != nil {
			slog.Warn("whois lookup failed", "ip", ip, "error", err)
		}
	}

	a.con.Geo(res, excerpt)
	return nil
}

func describe(ip net.IP, names map[string]string) string {
	if host, ok := names[ip.String()]; ok {
		return fmt.Sprintf("%s (%s)", host, ip)
	}
	return ip.String()
}
