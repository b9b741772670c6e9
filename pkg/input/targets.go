package input

import (
	"fmt"
	"iter"
	"net"
	"slices"
	"strings"
)

// maxSweepHosts caps CIDR expansion for host discovery
const maxSweepHosts = 1 << 16

// Targets holds parsed host arguments: literal addresses (CIDRs expanded) and names still to resolve
type Targets struct {
	IPs   []net.IP
	Hosts []string
}

// Len returns the number of parsed targets
func (t Targets) Len() int {
	return len(t.IPs) + len(t.Hosts)
}

// ParseTargets parses command-line targets (IPs, CIDRs, hostnames, comma-separated)
func ParseTargets(targets []string) (Targets, error) {
	var out Targets

	for _, target := range targets {
		for part := range strings.SplitSeq(target, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}

			switch {
			case strings.Contains(part, "/"):
				cidrIPs, err := ExpandCIDR(part)
				if err != nil {
					return Targets{}, fmt.Errorf("invalid CIDR %s: %w", part, err)
				}
				out.IPs = append(out.IPs, cidrIPs...)
			case net.ParseIP(part) != nil:
				out.IPs = append(out.IPs, net.ParseIP(part))
			case IsHostname(part):
				out.Hosts = append(out.Hosts, strings.ToLower(strings.TrimSuffix(part, ".")))
			default:
				return Targets{}, fmt.Errorf("invalid target: %s", part)
			}
		}
	}

	return out, nil
}

// ParseIP validates a single literal IPv4 or IPv6 address
func ParseIP(s string) (net.IP, error) {
	ip := net.ParseIP(strings.TrimSpace(s))
	if ip == nil {
		return nil, fmt.Errorf("%q is not a valid IP address", s)
	}
	return ip, nil
}

// IsHostname reports whether s is a syntactically valid DNS name
func IsHostname(s string) bool {
	s = strings.TrimSuffix(s, ".")
	if s == "" || len(s) > 253 {
		return false
	}
	for label := range strings.SplitSeq(s, ".") {
		if len(label) == 0 || len(label) > 63 {
			return false
		}
		if label[0] == '-' || label[len(label)-1] == '-' {
			return false
		}
		for _, c := range label {
			switch {
			case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '-', c == '_':
			default:
				return false
			}
		}
	}
	return true
}

// IPRange returns an iterator over IPs in a CIDR range
// This enables lazy evaluation without allocating the full slice
func IPRange(cidr string) (iter.Seq[net.IP], error) {
	ip, ipnet, err := net.ParseCIDR(cidr)
	if err != nil {
		return nil, err
	}

	return func(yield func(net.IP) bool) {
		for currentIP := ip.Mask(ipnet.Mask); ipnet.Contains(currentIP); incrementIP(currentIP) {
			// Copy, currentIP is mutated in place
			newIP := make(net.IP, len(currentIP))
			copy(newIP, currentIP)

			if !yield(newIP) {
				return
			}
		}
	}, nil
}

// ExpandCIDR expands a CIDR range into individual IPs, refusing ranges
// larger than a /16 worth of hosts
func ExpandCIDR(cidr string) ([]net.IP, error) {
	_, ipnet, err := net.ParseCIDR(cidr)
	if err != nil {
		return nil, err
	}
	ones, bits := ipnet.Mask.Size()
	if bits-ones > 16 {
		return nil, fmt.Errorf("range too large (max %d hosts)", maxSweepHosts)
	}

	seq, err := IPRange(cidr)
	if err != nil {
		return nil, err
	}
	return slices.Collect(seq), nil
}

// incrementIP increments an IP address by one
func incrementIP(ip net.IP) {
	for j := len(ip) - 1; j >= 0; j-- {
		ip[j]++
		if ip[j] > 0 {
			break
		}
	}
}
