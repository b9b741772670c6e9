package dns

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"net"
	"slices"
	"strings"
	"sync"

	"github.com/techfortress/fortress/pkg/config"
	"golang.org/x/sync/errgroup"
)

// Resolver is satisfied by *Client and *net.Resolver
type Resolver interface {
	LookupIPAddr(ctx context.Context, host string) ([]net.IPAddr, error)
}

// SubdomainResult is the outcome of resolving one candidate name
type SubdomainResult struct {
	Name     string
	Addrs    []string
	Found    bool
	Wildcard bool // answered only by the zone's wildcard record
	Err      string
}

// EnumerateOptions controls subdomain enumeration
type EnumerateOptions struct {
	Concurrency int
	// DetectWildcard resolves a random label first and marks names that
	// return the same address set as wildcard answers rather than finds
	DetectWildcard bool
	// OnResult is called for every found name; calls are serialized
	OnResult func(SubdomainResult)
}

// DefaultEnumerateOptions returns options from the process configuration
func DefaultEnumerateOptions() EnumerateOptions {
	return EnumerateOptions{
		Concurrency:    config.DNS.Concurrency,
		DetectWildcard: true,
	}
}

// Enumerate resolves word.domain for every word and returns one result per
// unique candidate, sorted by name. NXDOMAIN is not an error.
// On cancellation the partial results are returned with ctx.Err().
func Enumerate(ctx context.Context, r Resolver, domain string, words []string, opts EnumerateOptions) ([]SubdomainResult, error) {
	domain = strings.ToLower(strings.Trim(strings.TrimSpace(domain), "."))
	if domain == "" {
		return nil, fmt.Errorf("empty domain")
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = config.DNS.Concurrency
	}

	var wildcard []string
	if opts.DetectWildcard {
		wildcard = detectWildcard(ctx, r, domain)
		if len(wildcard) > 0 {
			slog.Info("wildcard DNS detected", "domain", domain, "addrs", wildcard)
		}
	}

	var (
		mu      sync.Mutex
		results []SubdomainResult
		seen    = make(map[string]struct{}, len(words))
	)

	var g errgroup.Group
	g.SetLimit(opts.Concurrency)

	for _, word := range words {
		if ctx.Err() != nil {
			break
		}
		name := strings.ToLower(strings.Trim(strings.TrimSpace(word), ".")) + "." + domain
		if _, dup := seen[name]; dup || strings.HasPrefix(name, ".") {
			continue
		}
		seen[name] = struct{}{}

		g.Go(func() error {
			res, ok := resolveName(ctx, r, name, wildcard)
			if !ok {
				return nil
			}
			mu.Lock()
			defer mu.Unlock()
			results = append(results, res)
			if res.Found && opts.OnResult != nil {
				opts.OnResult(res)
			}
			return nil
		})
	}
	_ = g.Wait()

	slices.SortFunc(results, func(a, b SubdomainResult) int {
		return strings.Compare(a.Name, b.Name)
	})

	return results, ctx.Err()
}

// resolveName returns false when ctx ended before the lookup completed
func resolveName(ctx context.Context, r Resolver, name string, wildcard []string) (SubdomainResult, bool) {
	res := SubdomainResult{Name: name}

	addrs, err := r.LookupIPAddr(ctx, name)
	if ctx.Err() != nil {
		return res, false
	}
	if err != nil {
		var dnsErr *net.DNSError
		if !errors.As(err, &dnsErr) || !dnsErr.IsNotFound {
			res.Err = err.Error()
			slog.Debug("lookup failed", "name", name, "error", err)
		}
		return res, true
	}

	res.Addrs = uniqueAddrs(addrs)
	res.Found = len(res.Addrs) > 0
	if res.Found && len(wildcard) > 0 && slices.Equal(res.Addrs, wildcard) {
		res.Found = false
		res.Wildcard = true
	}
	return res, true
}

func detectWildcard(ctx context.Context, r Resolver, domain string) []string {
	probe := fmt.Sprintf("fortress-%016x.%s", rand.Uint64(), domain)
	addrs, err := r.LookupIPAddr(ctx, probe)
	if err != nil {
		return nil
	}
	return uniqueAddrs(addrs)
}

func uniqueAddrs(addrs []net.IPAddr) []string {
	out := make([]string, 0, len(addrs))
	for _, a := range addrs {
		out = append(out, a.IP.String())
	}
	slices.Sort(out)
	return slices.Compact(out)
}
