package gutendex

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"book-search/internal/models"
)

// DefaultBaseURL is the public catalogue host.
const DefaultBaseURL = "https://gutendex.com"

// DefaultUserAgent is sent with all catalogue requests.
const DefaultUserAgent = "BookSearch/1.0 (+https://github.com/book-search)"

// Catalogue HTTP timeouts so a hung request doesn't leave a search loading forever.
const (
	DefaultConnectTimeout  = 10 * time.Second
	DefaultResponseTimeout = 25 * time.Second
	DefaultTotalTimeout    = 30 * time.Second
)

// ErrBadPage is returned for page numbers below 1.
var ErrBadPage = errors.New("page must be at least 1")

// StatusError reports a non-2xx response from the catalogue.
type StatusError struct {
	Code int
	URL  string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d for %s", e.Code, e.URL)
}

// RateLimited reports whether the catalogue answered 429.
func (e *StatusError) RateLimited() bool {
	return e.Code == http.StatusTooManyRequests
}

// Escape percent-encodes a query value. Spaces become %20 rather than '+'.
func Escape(value string) string {
	return strings.ReplaceAll(url.QueryEscape(value), "+", "%20")
}

// SearchURL builds the books search URL for a query and page. The topic
// parameter is only present when the topic is non-empty.
func SearchURL(baseURL string, query models.SearchQuery, page int) string {
	u := strings.TrimRight(baseURL, "/") + "/books?search=" + Escape(query.Term) + "&page=" + strconv.Itoa(page)
	if query.Topic != "" {
		u += "&topic=" + Escape(query.Topic)
	}
	return u
}

// Client fetches result pages from the catalogue.
type Client struct {
	baseURL   string
	userAgent string
	http      *http.Client
	limiter   *rate.Limiter
}

// Option customises a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client (e.g. one configured with a proxy).
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithRateLimit throttles outbound requests to perSecond with the given burst.
// A non-positive rate disables throttling.
func WithRateLimit(perSecond float64, burst int) Option {
	return func(c *Client) {
		if perSecond <= 0 {
			c.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
	}
}

// WithUserAgent overrides DefaultUserAgent.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		if ua != "" {
			c.userAgent = ua
		}
	}
}

// NewClient builds a Client for baseURL. An empty baseURL uses DefaultBaseURL.
func NewClient(baseURL string, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL:   baseURL,
		userAgent: DefaultUserAgent,
		http:      NewHTTPClient(DefaultTotalTimeout, ""),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the catalogue host this client talks to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// NewHTTPClient returns an http.Client with explicit connect and response-header
// timeouts. A non-empty proxyURL routes requests through that proxy; an invalid one
// is ignored.
func NewHTTPClient(total time.Duration, proxyURL string) *http.Client {
	if total <= 0 {
		total = DefaultTotalTimeout
	}
	transport := &http.Transport{
		DialContext:           (&net.Dialer{Timeout: DefaultConnectTimeout}).DialContext,
		ResponseHeaderTimeout: DefaultResponseTimeout,
	}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return &http.Client{
		Transport: transport,
		Timeout:   total,
	}
}

// FetchPage requests one page of results for query. It performs exactly one HTTP
// request and returns the parsed page.
func (c *Client) FetchPage(ctx context.Context, query models.SearchQuery, page int) (models.ResultPage, error) {
	if page < 1 {
		return models.ResultPage{}, ErrBadPage
	}
	body, err := c.FetchJSON(ctx, SearchURL(c.baseURL, query, page))
	if err != nil {
		return models.ResultPage{}, err
	}
	return ParseResultPage(body)
}

// FetchJSON retrieves the raw JSON body for url.
func (c *Client) FetchJSON(ctx context.Context, url string) ([]byte, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limit wait: %w", err)
		}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &StatusError{Code: resp.StatusCode, URL: url}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return body, nil
}
