package output

import (
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/techfortress/fortress/pkg/banner"
	"github.com/techfortress/fortress/pkg/dns"
	"github.com/techfortress/fortress/pkg/geo"
	"github.com/techfortress/fortress/pkg/icmp"
	"github.com/techfortress/fortress/pkg/scanner"
	"github.com/techfortress/fortress/pkg/web"
)

// ProbeLine prints one port as it finishes. Only open ports are shown
// unless verbose is set.
func (c *Console) ProbeLine(r scanner.ProbeResult, verbose bool) {
	switch {
	case r.Open():
		if r.Service != "" {
			c.Goodf("Port %d (%s) is open", r.Port, r.Service)
		} else {
			c.Goodf("Port %d is open", r.Port)
		}
	case !verbose:
	case r.Outcome == scanner.OutcomeError:
		c.Errorf("Port %d: %s", r.Port, r.Err)
	default:
		c.Missf("Port %d is %s", r.Port, r.Outcome)
	}
}

// ScanReport prints the summary table of a finished or canceled scan
func (c *Console) ScanReport(rep *scanner.Report) {
	if rep.Canceled {
		c.Errorf("Scan interrupted, showing %d completed probes", len(rep.Results))
	}

	if len(rep.OpenPorts) == 0 {
		c.Missf("No open ports found on %s (%s)", rep.Target, rep.IP)
	} else {
		c.Section("Open ports on " + rep.Target + " (" + rep.IP.String() + ")")
		c.table(func(tw *tabwriter.Writer) {
			fmt.Fprintln(tw, "PORT\tSTATE\tSERVICE\tRTT")
			for _, r := range rep.Results {
				if r.Open() {
					fmt.Fprintf(tw, "%d/tcp\t%s\t%s\t%s\n", r.Port, r.Outcome, r.Service, ms(r.RTT))
				}
			}
		})
	}

	if errs := rep.Errors(); len(errs) > 0 {
		c.Errorf("%d ports could not be probed:", len(errs))
		for _, r := range errs {
			c.Indent(fmt.Sprintf("%d: %s", r.Port, r.Err))
		}
	}

	closed, filtered := 0, 0
	for _, r := range rep.Results {
		switch r.Outcome {
		case scanner.OutcomeClosed:
			closed++
		case scanner.OutcomeFiltered:
			filtered++
		}
	}
	c.Infof("Scan of %s finished in %s: %d open, %d closed, %d filtered, %d errors",
		rep.Target, rep.Duration.Round(time.Millisecond), len(rep.OpenPorts), closed, filtered, len(rep.Errors()))
}

// Ping prints one line per host
func (c *Console) Ping(results []*icmp.Result) {
	up := 0
	for _, r := range results {
		switch {
		case r.Up:
			up++
			c.Goodf("%s is UP (rtt %s)", r.Name(), ms(r.AvgRTT))
		case r.Err != "" && r.Err != icmp.ErrNoReply.Error():
			c.Errorf("%s: %s", r.Name(), r.Err)
		default:
			c.Missf("%s is DOWN or unreachable.", r.Name())
		}
	}
	if len(results) > 1 {
		c.Infof("%d of %d hosts up", up, len(results))
	}
}

// Subdomains prints the names that resolved
func (c *Console) Subdomains(domain string, results []dns.SubdomainResult) {
	found, wildcard := 0, 0
	for _, r := range results {
		switch {
		case r.Found:
			found++
		case r.Wildcard:
			wildcard++
		case r.Err != "":
			c.Errorf("%s: %s", r.Name, r.Err)
		}
	}

	if wildcard > 0 {
		c.Infof("%d names matched the wildcard record and were skipped", wildcard)
	}
	if found == 0 {
		c.Infof("No subdomains found for %s from the provided list.", domain)
		return
	}
	c.Infof("Subdomain enumeration for %s completed. Found %d subdomains.", domain, found)
}

// Subdomain prints one found name as it is discovered
func (c *Console) Subdomain(r dns.SubdomainResult) {
	c.Goodf("Found: %s (%s)", r.Name, strings.Join(r.Addrs, ", "))
}

// PathLine prints one existing path as it is discovered
func (c *Console) PathLine(r web.PathResult) {
	switch r.Kind {
	case web.PathFound:
		c.Goodf("Found: %s (Status: %d OK)", r.URL, r.StatusCode)
	case web.PathForbidden:
		c.Errorf("Forbidden: %s (Status: %d - Access Denied)", r.URL, r.StatusCode)
	case web.PathRedirect:
		loc := r.Location
		if loc == "" {
			loc = "N/A"
		}
		c.line(c.info("[>]"), "Redirect: %s (Status: %d to %s)", r.URL, r.StatusCode, loc)
	}
}

// Paths prints failures and the summary of a path probe run
func (c *Console) Paths(base string, results []web.PathResult) {
	found := 0
	for _, r := range results {
		if r.Exists() {
			found++
		}
		if r.Kind == web.PathError {
			c.Errorf("Error for %s: %s", r.URL, r.Err)
		}
	}
	if found == 0 {
		c.Infof("No common files or directories found for %s from the provided list.", base)
		return
	}
	c.Infof("Existence check for %s completed. Found %d potential paths.", base, found)
}

// Banner prints a grabbed banner
func (c *Console) Banner(r *banner.Result) {
	if r.Banner == "" {
		c.Missf("No banner received from %s:%d.", r.Host, r.Port)
		return
	}
	c.Goodf("Banner received from %s:%d:", r.Host, r.Port)
	for _, l := range r.Lines() {
		c.Indent(l)
	}
	if r.Service != "" {
		c.Infof("Looks like %s (%s confidence)", r.Service, r.Confidence)
	}
}

// WebInfo prints response headers and the page title
func (c *Console) WebInfo(r *web.InfoResult) {
	c.Section("HTTP Headers")
	for _, h := range r.Headers {
		c.Indent(h.Name + ": " + h.Value)
	}
	c.Section("Page Title")
	c.Indent("Title: " + r.Title)
}

// Geo prints the geolocation details and an optional WHOIS excerpt
func (c *Console) Geo(r *geo.Result, whois string) {
	c.Section("Geolocation Details")
	c.table(func(tw *tabwriter.Writer) {
		fmt.Fprintf(tw, "    IP Address:\t%s\n", r.Query)
		fmt.Fprintf(tw, "    Country:\t%s (%s)\n", r.Country, r.CountryCode)
		fmt.Fprintf(tw, "    Region:\t%s (%s)\n", r.RegionName, r.Region)
		fmt.Fprintf(tw, "    City:\t%s\n", r.City)
		fmt.Fprintf(tw, "    ZIP Code:\t%s\n", r.Zip)
		fmt.Fprintf(tw, "    Latitude:\t%g\n", r.Lat)
		fmt.Fprintf(tw, "    Longitude:\t%g\n", r.Lon)
		fmt.Fprintf(tw, "    Timezone:\t%s\n", r.Timezone)
		fmt.Fprintf(tw, "    ISP:\t%s\n", r.ISP)
		fmt.Fprintf(tw, "    Org:\t%s\n", r.Org)
		fmt.Fprintf(tw, "    AS:\t%s\n", r.AS)
	})
	if whois != "" {
		c.Section("WHOIS")
		c.Indent(whois)
	}
}
