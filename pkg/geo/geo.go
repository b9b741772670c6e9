// Package geo looks up the approximate location and registration of an IP address.
package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/likexian/whois"
	"github.com/techfortress/fortress/pkg/config"
)

// Result holds the ip-api.com fields shown to the user
type Result struct {
	Query       string  `json:"query"`
	Country     string  `json:"country"`
	CountryCode string  `json:"countryCode"`
	Region      string  `json:"region"`
	RegionName  string  `json:"regionName"`
	City        string  `json:"city"`
	Zip         string  `json:"zip"`
	Lat         float64 `json:"lat"`
	Lon         float64 `json:"lon"`
	Timezone    string  `json:"timezone"`
	ISP         string  `json:"isp"`
	Org         string  `json:"org"`
	AS          string  `json:"as"`
}

type apiResponse struct {
	Result
	Status  string `json:"status"`
	Message string `json:"message"`
}

// LookupError is returned when the API answers with status "fail"
type LookupError struct {
	IP      string
	Message string
}

func (e *LookupError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = "unknown error"
	}
	return fmt.Sprintf("geolocation failed for %s: %s", e.IP, msg)
}

// Client queries the geolocation API and WHOIS
type Client struct {
	http    *http.Client
	baseURL string
	whois   *whois.Client
	timeout time.Duration
}

// NewClient creates a client from the process configuration
func NewClient() *Client {
	return NewClientWithBase(config.HTTP.GeoBaseURL, nil)
}

// NewClientWithBase creates a client for an alternative API base; the IP is appended to base
func NewClientWithBase(base string, hc *http.Client) *Client {
	timeout := config.HTTP.RequestTimeout
	if hc == nil {
		hc = &http.Client{Timeout: timeout}
	}
	return &Client{
		http:    hc,
		baseURL: base,
		whois:   whois.NewClient().SetTimeout(timeout),
		timeout: timeout,
	}
}

// Lookup geolocates a literal IPv4 or IPv6 address
func (c *Client) Lookup(ctx context.Context, ip string) (*Result, error) {
	addr := net.ParseIP(strings.TrimSpace(ip))
	if addr == nil {
		return nil, fmt.Errorf("%q is not a valid IP address", ip)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+addr.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", config.HTTP.UserAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("geolocation API request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("geolocation API returned %s", resp.Status)
	}

	var data apiResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, config.HTTP.MaxBodySize)).Decode(&data); err != nil {
		return nil, fmt.Errorf("failed to decode geolocation response: %w", err)
	}

	switch data.Status {
	case "success":
		if data.Query == "" {
			data.Query = addr.String()
		}
		return &data.Result, nil
	case "fail":
		return nil, &LookupError{IP: addr.String(), Message: data.Message}
	}
	return nil, fmt.Errorf("unexpected geolocation response status %q", data.Status)
}

// Whois returns the first maxLines meaningful lines of the WHOIS record for ip
func (c *Client) Whois(ctx context.Context, ip string, maxLines int) (string, error) {
	addr := net.ParseIP(strings.TrimSpace(ip))
	if addr == nil {
		return "", fmt.Errorf("%q is not a valid IP address", ip)
	}

	type answer struct {
		raw string
		err error
	}
	done := make(chan answer, 1)
	go func() {
		raw, err := c.whois.Whois(addr.String())
		done <- answer{raw, err}
	}()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case a := <-done:
		if a.err != nil {
			return "", fmt.Errorf("whois failed: %w", a.err)
		}
		return whoisExcerpt(a.raw, maxLines), nil
	}
}

// whoisExcerpt drops comments, notices and blank lines and keeps at most n lines
func whoisExcerpt(raw string, n int) string {
	var lines []string
	for line := range strings.Lines(raw) {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "%") || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "NOTICE:") {
			continue
		}
		lines = append(lines, line)
		if n > 0 && len(lines) == n {
			break
		}
	}
	return strings.Join(lines, "\n")
}
