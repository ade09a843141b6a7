package websearch

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"medassist/internal/contextutil"
	"medassist/internal/rag"
)

// DefaultSearchURL is DuckDuckGo's JavaScript-free results page.
const DefaultSearchURL = "https://html.duckduckgo.com/html/"

// Config configures a Client. Zero values take the defaults noted per field.
type Config struct {
	SearchURL        string        // DefaultSearchURL
	QueryPrefix      string        // "medical "
	SearchTimeout    time.Duration // FetchTimeout, for the results page
	FetchTimeout     time.Duration // 5s, per page
	RateLimit        float64       // 2 requests per second across search and fetches
	Burst            int           // 4
	MinContentLength int           // 200, shorter pages are skipped
	MaxContentLength int           // 1000, longer pages are truncated
	UserAgent        string
}

// Client finds pages for a query and extracts their visible text.
type Client struct {
	config  Config
	client  *http.Client
	limiter *rate.Limiter
}

// New creates a Client.
func New(config Config) *Client {
	if config.SearchURL == "" {
		config.SearchURL = DefaultSearchURL
	}
	if config.QueryPrefix == "" {
		config.QueryPrefix = "medical "
	}
	if config.FetchTimeout <= 0 {
		config.FetchTimeout = 5 * time.Second
	}
	if config.SearchTimeout <= 0 {
		config.SearchTimeout = config.FetchTimeout
	}
	if config.RateLimit <= 0 {
		config.RateLimit = 2
	}
	if config.Burst <= 0 {
		config.Burst = 4
	}
	if config.MinContentLength <= 0 {
		config.MinContentLength = 200
	}
	if config.MaxContentLength <= 0 {
		config.MaxContentLength = 1000
	}
	if config.UserAgent == "" {
		config.UserAgent = "Mozilla/5.0 (compatible; medassist/1.0)"
	}

	return &Client{
		config:  config,
		client:  &http.Client{},
		limiter: rate.NewLimiter(rate.Limit(config.RateLimit), config.Burst),
	}
}

// Search returns up to numResults pages for query, in search-rank order.
// Pages that fail to load or carry too little text are skipped; only a failed
// search request is reported as an error.
func (c *Client) Search(ctx context.Context, query string, numResults int) ([]rag.WebResult, error) {
	logger := contextutil.LoggerFromContext(ctx)

	if numResults <= 0 {
		return nil, nil
	}

	links, err := c.searchLinks(ctx, c.config.QueryPrefix+query, numResults)
	if err != nil {
		return nil, err
	}

	pages := make([]string, len(links))
	var g errgroup.Group
	for i, link := range links {
		g.Go(func() error {
			content, err := c.fetchText(ctx, link)
			if err != nil {
				logger.DebugContext(ctx, "skipping web result", "url", link, "error", err)
				return nil
			}
			pages[i] = content
			return nil
		})
	}
	_ = g.Wait()

	results := make([]rag.WebResult, 0, len(links))
	for i, content := range pages {
		if len([]rune(content)) <= c.config.MinContentLength {
			continue
		}
		results = append(results, rag.WebResult{
			URL:     links[i],
			Content: truncate(content, c.config.MaxContentLength),
		})
	}

	logger.InfoContext(ctx, "web search completed", "links", len(links), "results", len(results))
	return results, nil
}

// searchLinks queries the search page and returns the first n result URLs.
func (c *Client) searchLinks(ctx context.Context, query string, n int) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.config.SearchTimeout)
	defer cancel()

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	searchURL, err := url.Parse(c.config.SearchURL)
	if err != nil {
		return nil, fmt.Errorf("invalid search URL: %w", err)
	}
	q := searchURL.Query()
	q.Set("q", query)
	searchURL.RawQuery = q.Encode()

	doc, err := c.getDocument(ctx, searchURL.String())
	if err != nil {
		return nil, fmt.Errorf("search request failed: %w", err)
	}

	var links []string
	seen := make(map[string]bool)
	doc.Find("a.result__a").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		href, ok := sel.Attr("href")
		if !ok {
			return true
		}
		link := resolveResultLink(href)
		if link == "" || seen[link] {
			return true
		}
		seen[link] = true
		links = append(links, link)
		return len(links) < n
	})

	return links, nil
}

// fetchText downloads a page and returns its visible text.
func (c *Client) fetchText(ctx context.Context, pageURL string) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", err
	}

	fetchCtx, cancel := context.WithTimeout(ctx, c.config.FetchTimeout)
	defer cancel()

	doc, err := c.getDocument(fetchCtx, pageURL)
	if err != nil {
		return "", err
	}
	return extractText(doc), nil
}

func (c *Client) getDocument(ctx context.Context, target string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", c.config.UserAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("received status code %d for URL: %s", resp.StatusCode, target)
	}

	return goquery.NewDocumentFromReader(resp.Body)
}

// resolveResultLink unwraps DuckDuckGo redirect links and drops non-HTTP targets.
func resolveResultLink(href string) string {
	if strings.HasPrefix(href, "//") {
		href = "https:" + href
	}
	u, err := url.Parse(href)
	if err != nil {
		return ""
	}
	if target := u.Query().Get("uddg"); target != "" && strings.HasSuffix(u.Path, "/l/") {
		u, err = url.Parse(target)
		if err != nil {
			return ""
		}
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return ""
	}
	return u.String()
}

// extractText returns the page's visible text with whitespace collapsed.
func extractText(doc *goquery.Document) string {
	doc.Find("script, style, noscript").Remove()
	return strings.Join(strings.Fields(doc.Find("body").Text()), " ")
}

func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
