package scanner

import (
	"context"
	"errors"
	"net"
	"strings"
)

// Resolver looks up host addresses. *net.Resolver satisfies it.
type Resolver interface {
	LookupIPAddr(ctx context.Context, host string) ([]net.IPAddr, error)
}

// Resolve turns a hostname or literal address into a single IP, preferring IPv4.
// Any failure is returned as *ResolutionError.
func Resolve(ctx context.Context, r Resolver, target string) (net.IP, error) {
	host := strings.TrimSpace(target)
	host = strings.TrimSuffix(strings.TrimPrefix(host, "["), "]")
	if host == "" {
		return nil, &ResolutionError{Target: target, Err: errors.New("empty target")}
	}

	if ip := net.ParseIP(host); ip != nil {
		return ip, nil
	}

	addrs, err := r.LookupIPAddr(ctx, host)
	if err != nil {
		return nil, &ResolutionError{Target: target, Err: err}
	}
	if len(addrs) == 0 {
		return nil, &ResolutionError{Target: target, Err: errors.New("no addresses found")}
	}

	for _, addr := range addrs {
		if v4 := addr.IP.To4(); v4 != nil {
			return v4, nil
		}
	}
	return addrs[0].IP, nil
}
