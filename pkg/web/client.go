// Package web fetches page metadata and probes for common paths over HTTP.
package web

import (
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"sync"

	"github.com/techfortress/fortress/pkg/config"
)

var (
	// Shared transport so info requests and path probes reuse connections
	sharedTransport     *http.Transport
	sharedTransportOnce sync.Once
)

func getSharedTransport() *http.Transport {
	sharedTransportOnce.Do(func() {
		cfg := config.HTTP
		sharedTransport = &http.Transport{
			TLSClientConfig: &tls.Config{
				MinVersion: tls.VersionTLS12,
			},
			MaxIdleConns:        cfg.MaxIdleConns,
			MaxIdleConnsPerHost: cfg.MaxIdleConnsPerHost,
			IdleConnTimeout:     cfg.IdleConnTimeout,
			ForceAttemptHTTP2:   true,
			DialContext: (&net.Dialer{
				Timeout: cfg.DialTimeout,
			}).DialContext,
			Proxy: http.ProxyFromEnvironment,
		}
	})
	return sharedTransport
}

// StatusError is returned by Info for non-2xx responses
type StatusError struct {
	URL        string
	StatusCode int
	Status     string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s returned %s", e.URL, e.Status)
}

// ErrInvalidURL is wrapped by ValidateURL failures
var ErrInvalidURL = errors.New("invalid URL format, include http:// or https://")

// ValidateURL parses raw and requires an http(s) scheme and a host
func ValidateURL(raw string) (*url.URL, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("%w: unsupported scheme %q", ErrInvalidURL, u.Scheme)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("%w: missing host", ErrInvalidURL)
	}
	return u, nil
}

// Client issues web requests with the configured timeouts and user agent
type Client struct {
	http      *http.Client // follows redirects
	probe     *http.Client // reports redirects as-is
	userAgent string
	maxBody   int64
}

// NewClient creates a client from the process configuration
func NewClient() *Client {
	return NewClientWithTransport(getSharedTransport())
}

// NewClientWithTransport creates a client over rt
func NewClientWithTransport(rt http.RoundTripper) *Client {
	cfg := config.HTTP
	return &Client{
		http: &http.Client{
			Transport: rt,
			Timeout:   cfg.RequestTimeout,
		},
		probe: &http.Client{
			Transport: rt,
			Timeout:   cfg.BustTimeout,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		userAgent: cfg.UserAgent,
		maxBody:   cfg.MaxBodySize,
	}
}
