package search

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/net/html"
)

// bing scrapes the Bing HTML results page. Used only as a fallback when
// DuckDuckGo returns nothing.
type bing struct {
	client  *http.Client
	baseURL string
}

func newBing() *bing {
	return &bing{
		client:  &http.Client{Timeout: searchTimeout},
		baseURL: "https://www.bing.com/search",
	}
}

func (b *bing) search(ctx context.Context, query string, maxResults int) ([]Result, error) {
	reqURL := fmt.Sprintf("%s?q=%s&count=%d", b.baseURL, url.QueryEscape(query), maxResults)
	req, err := http.NewRequestWithContext(ctx, "GET", reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	for k, v := range browserHeaders() {
		req.Header.Set(k, v)
	}

	resp, err := b.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	return parseBing(string(body), maxResults), nil
}

// parseBing extracts organic results: <li class="b_algo"> with the title
// in the first anchor and the snippet in the first <p>.
func parseBing(page string, maxResults int) []Result {
	doc, err := html.Parse(strings.NewReader(page))
	if err != nil {
		return nil
	}

	var results []Result

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if len(results) >= maxResults {
			return
		}

		if n.Type == html.ElementNode && n.Data == "li" && hasClass(n, "b_algo") {
			r := extractBingResult(n)
			if r.URL != "" && r.Title != "" && strings.HasPrefix(r.URL, "http") {
				results = append(results, r)
			}
			return
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	return results
}

func extractBingResult(n *html.Node) Result {
	var r Result

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "a":
				if r.URL == "" {
					if href := attrValue(n, "href"); strings.HasPrefix(href, "http") {
						r.URL = href
						r.Title = textContent(n)
					}
				}
			case "p":
				if r.Description == "" {
					r.Description = truncateDescription(textContent(n))
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)

	return r
}
