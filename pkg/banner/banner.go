// Package banner reads the greeting a TCP service sends after connect,
// nudging protocols that wait for the client to speak first.
package banner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/techfortress/fortress/pkg/config"
	"github.com/techfortress/fortress/pkg/scanner"
)

// maxBanner is the most bytes read from the service
const maxBanner = 1024

var (
	// ErrTimeout means the connect or the read did not finish in time
	ErrTimeout = errors.New("timed out")
	// ErrRefused means nothing is listening on the port
	ErrRefused = errors.New("connection refused")
)

// Result is the banner read from one port
type Result struct {
	Host       string
	IP         net.IP
	Port       int
	Banner     string
	Service    string
	Confidence string
}

// Lines returns the banner split into lines
func (r *Result) Lines() []string {
	if r.Banner == "" {
		return nil
	}
	return strings.Split(strings.ReplaceAll(r.Banner, "\r\n", "\n"), "\n")
}

// Grabber reads banners through a resolver and dialer
type Grabber struct {
	Resolver scanner.Resolver
	Dialer   scanner.Dialer
	Timeout  time.Duration
}

// NewGrabber creates a grabber using the system resolver
func NewGrabber(timeout time.Duration) *Grabber {
	if timeout <= 0 {
		timeout = config.Scanner.BannerTimeout
	}
	return &Grabber{
		Resolver: net.DefaultResolver,
		Dialer:   &net.Dialer{},
		Timeout:  timeout,
	}
}

// Grab is a shorthand for NewGrabber(timeout).Grab
func Grab(ctx context.Context, host string, port int, timeout time.Duration) (*Result, error) {
	return NewGrabber(timeout).Grab(ctx, host, port)
}

// Grab connects to host:port, sends the nudge for well-known ports and reads
// up to 1024 bytes. An empty banner is not an error.
func (g *Grabber) Grab(ctx context.Context, host string, port int) (*Result, error) {
	if port < scanner.MinPort || port > scanner.MaxPort {
		return nil, &scanner.InvalidPortError{Input: strconv.Itoa(port), Reason: "must be in 1..65535"}
	}

	ip, err := scanner.Resolve(ctx, g.Resolver, host)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, g.Timeout)
	defer cancel()

	addr := net.JoinHostPort(ip.String(), strconv.Itoa(port))
	conn, err := g.Dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, classify(err)
	}
	defer conn.Close()

	deadline, _ := ctx.Deadline()
	_ = conn.SetDeadline(deadline)

	if nudge := Nudge(host, port); nudge != "" {
		slog.Debug("sending nudge", "addr", addr, "nudge", strings.TrimSpace(nudge))
		if _, err := io.WriteString(conn, nudge); err != nil {
			return nil, classify(err)
		}
	}

	buf := make([]byte, maxBanner)
	n, err := conn.Read(buf)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, classify(err)
	}

	result := &Result{
		Host:   host,
		IP:     ip,
		Port:   port,
		Banner: strings.TrimSpace(strings.ToValidUTF8(string(buf[:n]), "")),
	}
	result.Service, result.Confidence, _ = Detect(result.Banner)
	return result, nil
}

// Nudge returns the request sent to ports whose protocol waits for the client
func Nudge(host string, port int) string {
	switch port {
	case 80, 443, 8000, 8080:
		return "GET / HTTP/1.1\r\nHost: " + host + "\r\n\r\n"
	case 21:
		return "HELP\r\n"
	case 25, 587:
		return "EHLO fortress.local\r\n"
	}
	return ""
}

func classify(err error) error {
	var ne net.Error
	switch {
	case errors.Is(err, syscall.ECONNREFUSED):
		return ErrRefused
	case errors.Is(err, context.DeadlineExceeded), errors.As(err, &ne) && ne.Timeout():
		return ErrTimeout
	case errors.Is(err, context.Canceled):
		return err
	}
	return fmt.Errorf("socket error: %w", err)
}
