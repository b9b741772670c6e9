package web

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"slices"
	"strings"
	"time"

	"golang.org/x/net/html"
)

// NoTitle is reported when the page has no <title>
const NoTitle = "Not Found"

// Header is one response header line
type Header struct {
	Name  string
	Value string
}

// InfoResult describes a fetched page
type InfoResult struct {
	URL        string // final URL after redirects
	StatusCode int
	Headers    []Header // sorted by name
	Title      string
	Elapsed    time.Duration
}

// Info fetches rawURL and returns its headers and page title.
// Non-2xx responses are returned as *StatusError.
func (c *Client) Info(ctx context.Context, rawURL string) (*InfoResult, error) {
	u, err := ValidateURL(rawURL)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{URL: u.String(), StatusCode: resp.StatusCode, Status: resp.Status}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBody))
	if err != nil {
		return nil, fmt.Errorf("failed to read body: %w", err)
	}

	result := &InfoResult{
		URL:        resp.Request.URL.String(),
		StatusCode: resp.StatusCode,
		Headers:    sortedHeaders(resp.Header),
		Title:      NoTitle,
		Elapsed:    time.Since(start),
	}
	if title := pageTitle(string(body)); title != "" {
		result.Title = title
	}
	return result, nil
}

func sortedHeaders(h http.Header) []Header {
	out := make([]Header, 0, len(h))
	for name, values := range h {
		for _, v := range values {
			out = append(out, Header{Name: name, Value: v})
		}
	}
	slices.SortStableFunc(out, func(a, b Header) int {
		return strings.Compare(a.Name, b.Name)
	})
	return out
}

func pageTitle(body string) string {
	doc, err := html.Parse(strings.NewReader(body))
	if err != nil {
		return ""
	}
	return findTitle(doc)
}

func findTitle(n *html.Node) string {
	if n.Type == html.ElementNode && n.Data == "title" && n.FirstChild != nil {
		return strings.Join(strings.Fields(n.FirstChild.Data), " ")
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if t := findTitle(c); t != "" {
			return t
		}
	}
	return ""
}
