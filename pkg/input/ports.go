package input

import (
	"slices"
	"strconv"
	"strings"

	"github.com/techfortress/fortress/pkg/scanner"
)

// ParsePorts parses a port specification and returns a sorted, deduplicated slice.
// Supported forms:
//   - single: "22"
//   - list: "22,80,443"
//   - range: "1-1024"
//   - mixed: "22,80,8000-8100"
//
// Any malformed token or out-of-range port yields *scanner.InvalidPortError.
func ParsePorts(spec string) ([]int, error) {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return nil, &scanner.InvalidPortError{Reason: "empty port specification"}
	}

	var ports []int
	for token := range strings.SplitSeq(spec, ",") {
		token = strings.TrimSpace(token)
		if token == "" {
			return nil, &scanner.InvalidPortError{Input: spec, Reason: "empty entry in list"}
		}

		lo, hi, isRange := strings.Cut(token, "-")
		if !isRange {
			p, err := parsePort(token)
			if err != nil {
				return nil, err
			}
			ports = append(ports, p)
			continue
		}

		start, err := parsePort(strings.TrimSpace(lo))
		if err != nil {
			return nil, err
		}
		end, err := parsePort(strings.TrimSpace(hi))
		if err != nil {
			return nil, err
		}
		if start > end {
			return nil, &scanner.InvalidPortError{Input: token, Reason: "range start greater than end"}
		}
		for p := start; p <= end; p++ {
			ports = append(ports, p)
		}
	}

	slices.Sort(ports)
	return slices.Compact(ports), nil
}

func parsePort(s string) (int, error) {
	p, err := strconv.Atoi(s)
	if err != nil {
		return 0, &scanner.InvalidPortError{Input: s, Reason: "not a number"}
	}
	if p < scanner.MinPort || p > scanner.MaxPort {
		return 0, &scanner.InvalidPortError{Input: s, Reason: "must be in 1..65535"}
	}
	return p, nil
}
