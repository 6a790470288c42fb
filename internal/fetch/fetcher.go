package fetch

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"golang.org/x/time/rate"
)

// Page is the raw result of a GET.
type Page struct {
	StatusCode  int
	Body        []byte
	ContentType string
}

// PageFetcher retrieves a web page. A non-2xx status is not an error; transport
// failures are.
type PageFetcher interface {
	Fetch(ctx context.Context, url string, timeout time.Duration) (Page, error)
}

// Config for the HTTP fetcher.
type Config struct {
	UserAgent    string
	RatePerHost  float64 // requests per second per host; <= 0 disables limiting
	Burst        int     // default 1
	MaxBodyBytes int64   // default 5 MiB
}

// HTTPFetcher is a PageFetcher backed by net/http with optional per-host
// rate limiting.
type HTTPFetcher struct {
	cfg    Config
	client *http.Client
	logger *slog.Logger

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

// NewHTTPFetcher builds a fetcher. client may be nil.
func NewHTTPFetcher(cfg Config, client *http.Client, logger *slog.Logger) *HTTPFetcher {
	if logger == nil {
		logger = slog.Default()
	}
	if client == nil {
		client = &http.Client{}
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = 5 * 1024 * 1024
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 1
	}
	return &HTTPFetcher{
		cfg:      cfg,
		client:   client,
		logger:   logger,
		limiters: make(map[string]*rate.Limiter),
	}
}

// Fetch issues a GET bounded by timeout (no bound when timeout <= 0).
func (f *HTTPFetcher) Fetch(ctx context.Context, rawURL string, timeout time.Duration) (Page, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return Page{}, fmt.Errorf("build request: %w", err)
	}
	if f.cfg.UserAgent != "" {
		req.Header.Set("User-Agent", f.cfg.UserAgent)
	}
	req.Header.Set("Accept", "text/html,application/xhtml+xml;q=0.9,*/*;q=0.8")

	if lim := f.limiter(req.URL); lim != nil {
		if err := lim.Wait(ctx); err != nil {
			return Page{}, fmt.Errorf("rate limit wait: %w", err)
		}
	}

	start := time.Now()
	resp, err := f.client.Do(req)
	if err != nil {
		f.logger.Warn("fetch.http.send_error", "url", rawURL, "error", err, "elapsed_ms", time.Since(start).Milliseconds())
		return Page{}, err
	}
	defer func(Body io.ReadCloser) {
		if err := Body.Close(); err != nil {
			f.logger.Warn("fetch.http.response_body_close_error", "url", rawURL, "error", err)
		}
	}(resp.Body)

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.cfg.MaxBodyBytes))
	if err != nil {
		return Page{}, fmt.Errorf("read body: %w", err)
	}

	f.logger.Info("fetch.http.response",
		"url", rawURL,
		"status", resp.StatusCode,
		"size", humanize.Bytes(uint64(len(body))),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return Page{
		StatusCode:  resp.StatusCode,
		Body:        body,
		ContentType: resp.Header.Get("Content-Type"),
	}, nil
}

func (f *HTTPFetcher) limiter(u *url.URL) *rate.Limiter {
	if f.cfg.RatePerHost <= 0 {
		return nil
	}
	host := u.Hostname()
	f.mu.Lock()
	defer f.mu.Unlock()
	lim, ok := f.limiters[host]
	if !ok {
		lim = rate.NewLimiter(rate.Limit(f.cfg.RatePerHost), f.cfg.Burst)
		f.limiters[host] = lim
	}
	return lim
}
