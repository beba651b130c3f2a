// Package search finds manufacturer candidates through web search engines.
//
// Both backends scrape public HTML result pages, so parsing is best-effort
// by construction. Transport failures surface as empty result sets rather
// than errors: the calling agent reacts to "no results" the same way either
// way, and a flaky search engine must not abort a research session.
package search

import (
	"context"
	"fmt"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/gulfmed/scout/internal/logging"
	"github.com/gulfmed/scout/internal/ratelimit"
)

// Result is a single search hit.
type Result struct {
	Title       string `json:"title"`
	URL         string `json:"url"`
	Description string `json:"description"`
}

const (
	defaultMaxResults = 10
	descriptionLimit  = 300
	queryCacheSize    = 256
)

// Client searches DuckDuckGo with a Bing fallback and caches query results.
type Client struct {
	ddg     *duckduckgo
	bing    *bing
	cache   *lru.Cache[string, []Result]
	limiter *ratelimit.Limiter
	logger  *logging.Logger
}

// NewClient creates a search client. The limiter paces queries between the
// fan-out searches of one logical lookup; it may be shared with other
// outbound web callers.
func NewClient(limiter *ratelimit.Limiter) *Client {
	cache, _ := lru.New[string, []Result](queryCacheSize)
	return &Client{
		ddg:     newDuckDuckGo(),
		bing:    newBing(),
		cache:   cache,
		limiter: limiter,
		logger:  logging.GetLogger("research.search"),
	}
}

// Search runs one query through DuckDuckGo, falling back to Bing when
// DuckDuckGo yields nothing. Never returns an error; transport failures
// produce an empty slice.
func (c *Client) Search(ctx context.Context, query string, maxResults int) []Result {
	if maxResults <= 0 {
		maxResults = defaultMaxResults
	}

	if cached, ok := c.cache.Get(query); ok {
		c.logger.Debug("cache hit for query %q", query)
		return capResults(cached, maxResults)
	}

	results, err := c.ddg.search(ctx, query, maxResults)
	if err != nil || len(results) == 0 {
		if err != nil {
			c.logger.WarnWithFields("duckduckgo search failed, trying bing",
				logging.Field("query", query),
				logging.Field("error", err.Error()),
			)
		}
		results, err = c.bing.search(ctx, query, maxResults)
		if err != nil {
			c.logger.WarnWithFields("bing search failed",
				logging.Field("query", query),
				logging.Field("error", err.Error()),
			)
			return nil
		}
	}

	c.cache.Add(query, results)
	return capResults(results, maxResults)
}

// SearchManufacturers fans one specialty out into several query templates,
// merges the hits and dedupes by URL with first-seen precedence.
func (c *Client) SearchManufacturers(ctx context.Context, specialty string) []Result {
	queries := []string{
		fmt.Sprintf("%s equipment manufacturers", specialty),
		fmt.Sprintf("%s medical devices companies", specialty),
		fmt.Sprintf("top %s manufacturers", specialty),
	}

	var merged []Result
	seen := make(map[string]bool)

	for i, query := range queries {
		if i > 0 && c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				break
			}
		}

		c.logger.Info("searching: %s", query)
		for _, r := range c.Search(ctx, query, defaultMaxResults) {
			if r.URL == "" || seen[r.URL] {
				continue
			}
			seen[r.URL] = true
			merged = append(merged, r)
		}
	}

	c.logger.InfoWithFields("manufacturer search complete",
		logging.Field("specialty", specialty),
		logging.Field("results", len(merged)),
	)
	return merged
}

func capResults(results []Result, max int) []Result {
	if len(results) > max {
		return results[:max]
	}
	return results
}

func truncateDescription(s string) string {
	if len(s) > descriptionLimit {
		return s[:descriptionLimit]
	}
	return s
}

// browserHeaders are applied to every search request so the HTML endpoints
// serve the full results page.
func browserHeaders() map[string]string {
	return map[string]string{
		"User-Agent":      "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
		"Accept":          "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8",
		"Accept-Language": "en-US,en;q=0.5",
	}
}

const searchTimeout = 15 * time.Second
