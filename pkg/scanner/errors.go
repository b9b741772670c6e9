package scanner

import (
	"fmt"
)

// ResolutionError is returned when the scan target cannot be resolved.
// It aborts the scan before any probe is started.
type ResolutionError struct {
	Target string
	Err    error
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("could not resolve %q: %v", e.Target, e.Err)
}

func (e *ResolutionError) Unwrap() error {
	return e.Err
}

// ProbeError describes a socket failure on a single port that is neither a
// refusal nor a timeout. It never stops sibling probes.
type ProbeError struct {
	Port int
	Err  error
}

func (e *ProbeError) Error() string {
	return fmt.Sprintf("port %d: %v", e.Port, e.Err)
}

func (e *ProbeError) Unwrap() error {
	return e.Err
}

// InvalidPortError rejects port input before any network activity.
type InvalidPortError struct {
	Input  string // offending token, empty for an empty set
	Reason string
}

func (e *InvalidPortError) Error() string {
	if e.Input == "" {
		return "invalid ports: " + e.Reason
	}
	return fmt.Sprintf("invalid port %q: %s", e.Input, e.Reason)
}
