// Package scrape extracts structured company information from manufacturer
// websites. It fetches the homepage, discovers the usual secondary pages
// (about, products, contact, distributors) by link keywords, and pulls out
// certifications, products, contact details and regional presence.
//
// Scraping is deliberately forgiving: any sub-page failure is swallowed and
// the result always comes back with whatever was extracted plus a Success
// flag, so one unreachable page never sinks a research session.
package scrape

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/html"

	"github.com/gulfmed/scout/internal/logging"
	"github.com/gulfmed/scout/internal/ratelimit"
)

// CompanyInfo is the structured result of scraping one company website.
type CompanyInfo struct {
	URL                   string   `json:"url"`
	Success               bool     `json:"success"`
	CompanyName           string   `json:"company_name,omitempty"`
	Description           string   `json:"description,omitempty"`
	Products              []string `json:"products"`
	Certifications        []string `json:"certifications"`
	FDAMentions           []string `json:"fda_mentions"`
	DistributionModel     string   `json:"distribution_model,omitempty"`
	Emails                []string `json:"emails"`
	Phones                []string `json:"phones"`
	Address               string   `json:"address,omitempty"`
	Headquarters          string   `json:"headquarters,omitempty"`
	Locations             []string `json:"locations"`
	InternationalPresence []string `json:"international_presence"`
	AboutText             string   `json:"about_text,omitempty"`
	Error                 string   `json:"error,omitempty"`
}

const (
	fetchTimeout  = 15 * time.Second
	maxProducts   = 15
	maxContacts   = 5
	aboutTextCap  = 3000
	maxBodyBytes  = 2 << 20
	userAgentStr  = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	acceptHeader  = "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8"
	acceptLangHdr = "en-US,en;q=0.5"
)

// Scraper fetches and analyzes manufacturer websites.
type Scraper struct {
	client  *http.Client
	limiter *ratelimit.Limiter
	logger  *logging.Logger
}

// New creates a scraper. The limiter, if non-nil, paces sub-page fetches.
func New(limiter *ratelimit.Limiter) *Scraper {
	return &Scraper{
		client:  &http.Client{Timeout: fetchTimeout},
		limiter: limiter,
		logger:  logging.GetLogger("research.scrape"),
	}
}

// ScrapeCompany scrapes a company website for business development
// information. It never returns an error; failures are reported through
// the Success and Error fields with whatever partial data was gathered.
func (s *Scraper) ScrapeCompany(ctx context.Context, siteURL string) *CompanyInfo {
	info := &CompanyInfo{
		URL:                   siteURL,
		Products:              []string{},
		Certifications:        []string{},
		FDAMentions:           []string{},
		Emails:                []string{},
		Phones:                []string{},
		Locations:             []string{},
		InternationalPresence: []string{},
	}

	page, raw, err := s.fetchPage(ctx, siteURL)
	if err != nil {
		info.Error = fmt.Sprintf("homepage fetch failed: %v", err)
		return info
	}

	info.CompanyName = extractCompanyName(page, siteURL)
	info.Description = extractDescription(page)
	info.Certifications = findCertifications(raw)
	info.FDAMentions = findFDAMentions(raw)

	links := findKeyPages(page, siteURL)

	if aboutURL, ok := links["about"]; ok {
		if text := s.fetchPageText(ctx, aboutURL); text != "" {
			info.AboutText = capString(text, aboutTextCap)
			info.Locations = findLocations(info.AboutText)
			if len(info.Locations) > 0 {
				info.Headquarters = info.Locations[0]
			}
		}
	}

	if productsURL, ok := links["products"]; ok {
		if page, _, err := s.fetchPage(ctx, productsURL); err == nil {
			info.Products = extractProductHeadings(page)
		}
	}
	if len(info.Products) == 0 {
		info.Products = extractProductHeadings(page)
	}

	if contactURL, ok := links["contact"]; ok {
		if _, raw, err := s.fetchPage(ctx, contactURL); err == nil {
			info.Emails = findEmails(raw)
			info.Phones = findPhones(raw)
		}
	}
	if len(info.Emails) == 0 {
		info.Emails = findEmails(raw)
	}
	if len(info.Phones) == 0 {
		info.Phones = findPhones(raw)
	}

	distURL := links["distributors"]
	if distURL == "" {
		distURL = links["partners"]
	}
	if distURL != "" {
		if distPage, distRaw, err := s.fetchPage(ctx, distURL); err == nil {
			info.DistributionModel = classifyDistribution(pageText(distPage))
			info.InternationalPresence = findGulfPresence(distRaw)
		}
	}
	if len(info.InternationalPresence) == 0 {
		info.InternationalPresence = findGulfPresence(raw)
	}

	info.Success = true

	s.logger.InfoWithFields("scraped company site",
		logging.Field("url", siteURL),
		logging.Field("name", info.CompanyName),
		logging.Field("certifications", len(info.Certifications)),
		logging.Field("products", len(info.Products)),
	)
	return info
}

// fetchPage downloads and parses one page, returning both the parse tree
// and the raw HTML (regex extraction wants the raw text).
func (s *Scraper) fetchPage(ctx context.Context, pageURL string) (*html.Node, string, error) {
	if s.limiter != nil {
		if err := s.limiter.Wait(ctx); err != nil {
			return nil, "", err
		}
	}

	req, err := http.NewRequestWithContext(ctx, "GET", pageURL, nil)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgentStr)
	req.Header.Set("Accept", acceptHeader)
	req.Header.Set("Accept-Language", acceptLangHdr)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, "", fmt.Errorf("failed to read body: %w", err)
	}

	doc, err := html.Parse(strings.NewReader(string(body)))
	if err != nil {
		return nil, "", fmt.Errorf("failed to parse HTML: %w", err)
	}

	return doc, string(body), nil
}

// fetchPageText fetches a page and returns its visible text with
// navigation chrome stripped. Empty string on any failure.
func (s *Scraper) fetchPageText(ctx context.Context, pageURL string) string {
	page, _, err := s.fetchPage(ctx, pageURL)
	if err != nil {
		return ""
	}
	return pageText(page)
}

func capString(s string, max int) string {
	if len(s) > max {
		return s[:max]
	}
	return s
}

// domainName derives a fallback company name from the site's host.
func domainName(siteURL string) string {
	parsed, err := url.Parse(siteURL)
	if err != nil || parsed.Host == "" {
		return siteURL
	}
	host := strings.TrimPrefix(parsed.Host, "www.")
	if idx := strings.Index(host, "."); idx > 0 {
		host = host[:idx]
	}
	if host == "" {
		return siteURL
	}
	return strings.ToUpper(host[:1]) + host[1:]
}
