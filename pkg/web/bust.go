package web

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/techfortress/fortress/pkg/config"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

// PathKind classifies a probed path by response status
type PathKind string

const (
	PathFound     PathKind = "found"     // 200
	PathForbidden PathKind = "forbidden" // 403, exists but access denied
	PathRedirect  PathKind = "redirect"  // 301, 302, 307, 308
	PathMissing   PathKind = "missing"   // anything else
	PathError     PathKind = "error"     // request failed
)

// PathResult is the outcome of probing one path
type PathResult struct {
	Path       string
	URL        string
	StatusCode int
	Kind       PathKind
	Location   string // redirect target
	Err        string
}

// Exists reports whether the response suggests the path is present
func (r PathResult) Exists() bool {
	return r.Kind == PathFound || r.Kind == PathForbidden || r.Kind == PathRedirect
}

// BustOptions controls path probing
type BustOptions struct {
	Concurrency int
	// Limiter paces request starts; nil means unlimited
	Limiter *rate.Limiter
	// OnResult is called for each existing path; calls are serialized
	OnResult func(PathResult)
}

// DefaultBustOptions returns options from the process configuration
func DefaultBustOptions() BustOptions {
	return BustOptions{Concurrency: config.HTTP.BustConcurrency}
}

// Bust sends a HEAD request for every path under baseURL and returns one
// result per path in input order. Paths not started before ctx ends are
// omitted and ctx.Err() is returned with the partial results.
func (c *Client) Bust(ctx context.Context, baseURL string, paths []string, opts BustOptions) ([]PathResult, error) {
	base, err := ValidateURL(baseURL)
	if err != nil {
		return nil, err
	}
	if !strings.HasSuffix(base.Path, "/") {
		base.Path += "/"
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = config.HTTP.BustConcurrency
	}

	results := make([]*PathResult, len(paths))
	var mu sync.Mutex

	var g errgroup.Group
	g.SetLimit(opts.Concurrency)

	for i, p := range paths {
		if ctx.Err() != nil {
			break
		}
		if opts.Limiter != nil {
			if err := opts.Limiter.Wait(ctx); err != nil {
				break
			}
		}

		g.Go(func() error {
			res := c.probePath(ctx, base, p)
			mu.Lock()
			defer mu.Unlock()
			results[i] = &res
			if res.Exists() && opts.OnResult != nil {
				opts.OnResult(res)
			}
			return nil
		})
	}
	_ = g.Wait()

	out := make([]PathResult, 0, len(paths))
	for _, r := range results {
		if r != nil {
			out = append(out, *r)
		}
	}
	return out, ctx.Err()
}

func (c *Client) probePath(ctx context.Context, base *url.URL, path string) PathResult {
	ref, err := url.Parse(strings.TrimLeft(path, "/"))
	if err != nil {
		return PathResult{Path: path, Kind: PathError, Err: fmt.Sprintf("invalid path: %v", err)}
	}
	target := base.ResolveReference(ref).String()
	res := PathResult{Path: path, URL: target}

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, target, nil)
	if err != nil {
		res.Kind, res.Err = PathError, err.Error()
		return res
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.probe.Do(req)
	if err != nil {
		res.Kind, res.Err = PathError, err.Error()
		slog.Debug("path probe failed", "url", target, "error", err)
		return res
	}
	resp.Body.Close()

	res.StatusCode = resp.StatusCode
	res.Kind = classifyStatus(resp.StatusCode)
	if res.Kind == PathRedirect {
		res.Location = resp.Header.Get("Location")
	}
	return res
}

func classifyStatus(code int) PathKind {
	switch code {
	case http.StatusOK:
		return PathFound
	case http.StatusForbidden:
		return PathForbidden
	case http.StatusMovedPermanently, http.StatusFound, http.StatusTemporaryRedirect, http.StatusPermanentRedirect:
		return PathRedirect
	}
	return PathMissing
}
