package webtools

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	jsoniter "github.com/json-iterator/go"
	"golang.org/x/net/html"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const (
	defaultCacheSize = 256
	defaultCacheTTL  = 10 * time.Minute
	maxBodySize      = 8 << 20
)

// ErrStatus is wrapped by errors for non-2xx responses from the crawl endpoint.
var ErrStatus = errors.New("unexpected status")

// SearchQuery is one search request.
type SearchQuery struct {
	Query string
	// TimeRange is one of day, week, month or year. Empty means any time.
	TimeRange string
	// Website restricts results to one site, e.g. "www.example.com".
	Website string
}

// SearchResult is one hit returned by the search endpoint.
type SearchResult struct {
	URL     string `json:"url"`
	Title   string `json:"title"`
	Content string `json:"content"`
}

// Page is the content of a scraped URL.
type Page struct {
	URL     string `json:"url"`
	Title   string `json:"title"`
	Content string `json:"content"`
}

type cachedResponse struct {
	body        []byte
	contentType string
}

// Client talks to a crawl4ai-style service exposing /search and /scrape.
//
// Responses are cached by request URL for a short time and outgoing requests are rate
// limited. Client is safe for concurrent use.
type Client struct {
	endpoint *url.URL
	http     *http.Client
	limiter  *rate.Limiter
	cache    *expirable.LRU[string, cachedResponse]
	logger   *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the HTTP client used for requests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

// WithRateLimit allows rps requests per second with the given burst. rps <= 0 disables
// limiting.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *Client) {
		if rps <= 0 {
			c.limiter = rate.NewLimiter(rate.Inf, 0)
			return
		}
		if burst <= 0 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithCache sets the response cache size and TTL. size <= 0 disables caching.
func WithCache(size int, ttl time.Duration) Option {
	return func(c *Client) {
		if size <= 0 {
			c.cache = nil
			return
		}
		c.cache = expirable.NewLRU[string, cachedResponse](size, nil, ttl)
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// NewClient creates a Client for the service at endpoint.
func NewClient(endpoint string, opts ...Option) (*Client, error) {
	if endpoint == "" {
		return nil, fmt.Errorf("crawl endpoint is required")
	}
	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("invalid crawl endpoint: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid crawl endpoint %q: scheme must be http or https", endpoint)
	}

	c := &Client{
		endpoint: u,
		http:     &http.Client{Timeout: 60 * time.Second},
		limiter:  rate.NewLimiter(rate.Limit(5), 5),
		cache:    expirable.NewLRU[string, cachedResponse](defaultCacheSize, nil, defaultCacheTTL),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Search runs a single query.
func (c *Client) Search(ctx context.Context, q SearchQuery) ([]SearchResult, error) {
	params := url.Values{"query": {q.Query}}
	if q.TimeRange != "" {
		params.Set("time_range", q.TimeRange)
	}
	if q.Website != "" {
		params.Set("website", q.Website)
	}

	resp, err := c.get(ctx, "search", params)
	if err != nil {
		return nil, err
	}

	var results []SearchResult
	if err := json.Unmarshal(resp.body, &results); err != nil {
		return nil, fmt.Errorf("decode search results for %q: %w", q.Query, err)
	}
	return results, nil
}

// SearchAll runs the queries concurrently and merges the results in query order,
// keeping the first result seen for each URL. Any failed query fails the whole search.
func (c *Client) SearchAll(ctx context.Context, queries []SearchQuery) ([]SearchResult, error) {
	perQuery := make([][]SearchResult, len(queries))

	g, gctx := errgroup.WithContext(ctx)
	for i, q := range queries {
		g.Go(func() error {
			results, err := c.Search(gctx, q)
			if err != nil {
				return err
			}
			perQuery[i] = results
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	seen := make(map[string]struct{})
	var merged []SearchResult
	for _, results := range perQuery {
		for _, r := range results {
			if _, ok := seen[r.URL]; ok {
				continue
			}
			seen[r.URL] = struct{}{}
			merged = append(merged, r)
		}
	}
	return merged, nil
}

// Scrape fetches the content of pageURL through the service. JSON responses are decoded
// as a Page; HTML responses are reduced to the text of their paragraphs.
func (c *Client) Scrape(ctx context.Context, pageURL string) (*Page, error) {
	resp, err := c.get(ctx, "scrape", url.Values{"url": {pageURL}})
	if err != nil {
		return nil, err
	}

	mediaType, _, _ := mime.ParseMediaType(resp.contentType)
	switch {
	case mediaType == "application/json":
		var page Page
		if err := json.Unmarshal(resp.body, &page); err != nil {
			return nil, fmt.Errorf("decode scraped page %s: %w", pageURL, err)
		}
		if page.URL == "" {
			page.URL = pageURL
		}
		return &page, nil
	case strings.Contains(mediaType, "html"):
		title, text, err := extractParagraphs(resp.body)
		if err != nil {
			return nil, fmt.Errorf("parse scraped page %s: %w", pageURL, err)
		}
		return &Page{URL: pageURL, Title: title, Content: text}, nil
	default:
		return &Page{URL: pageURL, Content: string(resp.body)}, nil
	}
}

func (c *Client) get(ctx context.Context, path string, params url.Values) (cachedResponse, error) {
	u := c.endpoint.JoinPath(path)
	u.RawQuery = params.Encode()
	key := u.String()

	if c.cache != nil {
		if cached, ok := c.cache.Get(key); ok {
			c.logger.DebugContext(ctx, "crawl cache hit", "url", key)
			return cached, nil
		}
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return cachedResponse{}, fmt.Errorf("rate limit: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, key, nil)
	if err != nil {
		return cachedResponse{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json, text/html;q=0.9")

	start := time.Now()
	res, err := c.http.Do(req)
	if err != nil {
		return cachedResponse{}, fmt.Errorf("GET %s: %w", path, err)
	}
	defer res.Body.Close()

	body, err := io.ReadAll(io.LimitReader(res.Body, maxBodySize))
	if err != nil {
		return cachedResponse{}, fmt.Errorf("read %s response: %w", path, err)
	}
	c.logger.DebugContext(ctx, "crawl request",
		"path", path,
		"status", res.StatusCode,
		"bytes", len(body),
		"duration", time.Since(start),
	)

	if res.StatusCode < 200 || res.StatusCode > 299 {
		return cachedResponse{}, fmt.Errorf("%w %d from %s: %s",
			ErrStatus, res.StatusCode, path, strings.TrimSpace(string(body)))
	}

	resp := cachedResponse{body: body, contentType: res.Header.Get("Content-Type")}
	if c.cache != nil {
		c.cache.Add(key, resp)
	}
	return resp, nil
}

// extractParagraphs returns the page title and the text of every <p> element, one
// paragraph per line.
func extractParagraphs(body []byte) (string, string, error) {
	doc, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return "", "", err
	}

	var (
		title      string
		paragraphs []string
	)
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style", "noscript":
				return
			case "title":
				if title == "" {
					title = strings.TrimSpace(nodeText(n))
				}
				return
			case "p":
				if text := strings.Join(strings.Fields(nodeText(n)), " "); text != "" {
					paragraphs = append(paragraphs, text)
				}
				return
			}
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(doc)

	return title, strings.Join(paragraphs, "\n"), nil
}

func nodeText(n *html.Node) string {
	var sb strings.Builder
	var collect func(*html.Node)
	collect = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
			sb.WriteByte(' ')
			return
		}
		if n.Type == html.ElementNode && (n.Data == "script" || n.Data == "style") {
			return
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			collect(child)
		}
	}
	collect(n)
	return sb.String()
}
