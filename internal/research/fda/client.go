// Package fda queries the openFDA device API for 510(k) clearances,
// recalls and establishment registrations. A missing record is a normal
// answer in this domain, so lookups report found=false instead of an
// error when the API returns 404.
package fda

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"net/url"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/gulfmed/scout/internal/logging"
)

const (
	defaultBaseURL   = "https://api.fda.gov/device"
	requestTimeout   = 15 * time.Second
	maxRetries       = 2
	profileCacheSize = 128
)

// Clearance is one 510(k) premarket notification record.
type Clearance struct {
	KNumber      string `json:"k_number"`
	DeviceName   string `json:"device_name"`
	DecisionDate string `json:"decision_date"`
	Applicant    string `json:"applicant"`
	ProductCode  string `json:"product_code"`
}

// Recall is one device recall record.
type Recall struct {
	RecallNumber   string `json:"recall_number"`
	ProductDesc    string `json:"product_description"`
	Reason         string `json:"reason_for_recall"`
	Classification string `json:"classification"`
	Status         string `json:"status"`
}

// Registration is one establishment registration record.
type Registration struct {
	FirmName string `json:"firm_name"`
	City     string `json:"city"`
	Country  string `json:"country"`
}

// Profile aggregates a company's standing across all three endpoints.
type Profile struct {
	Company          string      `json:"company"`
	Cleared          bool        `json:"cleared"`
	ClearanceCount   int         `json:"clearance_count"`
	RecentClearances []Clearance `json:"recent_clearances"`
	HasRecalls       bool        `json:"has_recalls"`
	RecallCount      int         `json:"recall_count"`
	Registered       bool        `json:"registered"`
}

// Client talks to the openFDA device API.
type Client struct {
	baseURL  string
	apiKey   string
	http     *http.Client
	profiles *lru.Cache[string, *Profile]
	logger   *logging.Logger
}

// Option configures the Client.
type Option func(*Client)

// WithBaseURL overrides the API endpoint, used by tests.
func WithBaseURL(base string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(base, "/") }
}

// WithAPIKey attaches an openFDA API key for the higher rate tier.
func WithAPIKey(key string) Option {
	return func(c *Client) { c.apiKey = key }
}

// NewClient creates an openFDA client.
func NewClient(opts ...Option) *Client {
	cache, _ := lru.New[string, *Profile](profileCacheSize)
	c := &Client{
		baseURL:  defaultBaseURL,
		http:     &http.Client{Timeout: requestTimeout},
		profiles: cache,
		logger:   logging.GetLogger("research.fda"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// cleanTerm strips characters that break openFDA query syntax, keeping
// letters, digits, spaces, hyphens and periods.
func cleanTerm(term string) string {
	var sb strings.Builder
	for _, r := range term {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			sb.WriteRune(r)
		case r == ' ', r == '-', r == '.':
			sb.WriteRune(r)
		}
	}
	return strings.TrimSpace(sb.String())
}

// Search510K looks up 510(k) clearances for a company, newest first. An
// optional product term narrows the match to a device name.
// found=false with a nil error means the company has no records.
func (c *Client) Search510K(ctx context.Context, company, product string, limit int) ([]Clearance, bool, error) {
	company = cleanTerm(company)
	if company == "" {
		return nil, false, fmt.Errorf("empty company name")
	}
	if limit <= 0 {
		limit = 10
	}

	search := fmt.Sprintf("applicant:%q", company)
	if product = cleanTerm(product); product != "" {
		search += fmt.Sprintf(" AND device_name:%q", product)
	}

	params := url.Values{}
	params.Set("search", search)
	params.Set("sort", "decision_date:desc")
	params.Set("limit", fmt.Sprintf("%d", limit))

	var body struct {
		Results []Clearance `json:"results"`
	}
	found, err := c.get(ctx, "/510k.json", params, &body)
	if err != nil || !found {
		return nil, false, err
	}
	return body.Results, len(body.Results) > 0, nil
}

// SearchRecalls looks up device recalls naming the company.
func (c *Client) SearchRecalls(ctx context.Context, company string, limit int) ([]Recall, bool, error) {
	company = cleanTerm(company)
	if company == "" {
		return nil, false, fmt.Errorf("empty company name")
	}
	if limit <= 0 {
		limit = 10
	}

	params := url.Values{}
	params.Set("search", fmt.Sprintf("recalling_firm:%q", company))
	params.Set("limit", fmt.Sprintf("%d", limit))

	var body struct {
		Results []Recall `json:"results"`
	}
	found, err := c.get(ctx, "/recall.json", params, &body)
	if err != nil || !found {
		return nil, false, err
	}
	return body.Results, len(body.Results) > 0, nil
}

// SearchRegistrations looks up establishment registrations for a company.
func (c *Client) SearchRegistrations(ctx context.Context, company string, limit int) ([]Registration, bool, error) {
	company = cleanTerm(company)
	if company == "" {
		return nil, false, fmt.Errorf("empty company name")
	}
	if limit <= 0 {
		limit = 10
	}

	params := url.Values{}
	params.Set("search", fmt.Sprintf("registration.name:%q", company))
	params.Set("limit", fmt.Sprintf("%d", limit))

	var body struct {
		Results []struct {
			Registration struct {
				Name    string `json:"name"`
				City    string `json:"city"`
				Country string `json:"iso_country_code"`
			} `json:"registration"`
		} `json:"results"`
	}
	found, err := c.get(ctx, "/registrationlisting.json", params, &body)
	if err != nil || !found {
		return nil, false, err
	}

	regs := make([]Registration, 0, len(body.Results))
	for _, r := range body.Results {
		regs = append(regs, Registration{
			FirmName: r.Registration.Name,
			City:     r.Registration.City,
			Country:  r.Registration.Country,
		})
	}
	return regs, len(regs) > 0, nil
}

// CompanyProfile aggregates clearance, recall and registration standings
// into a single summary. Results are cached per company.
func (c *Client) CompanyProfile(ctx context.Context, company string) (*Profile, error) {
	key := strings.ToLower(cleanTerm(company))
	if cached, ok := c.profiles.Get(key); ok {
		return cached, nil
	}

	profile := &Profile{Company: company, RecentClearances: []Clearance{}}

	clearances, found, err := c.Search510K(ctx, company, "", 100)
	if err != nil {
		return nil, fmt.Errorf("510k lookup failed: %w", err)
	}
	if found {
		profile.Cleared = true
		profile.ClearanceCount = len(clearances)
		if len(clearances) > 5 {
			clearances = clearances[:5]
		}
		profile.RecentClearances = clearances
	}

	recalls, found, err := c.SearchRecalls(ctx, company, 100)
	if err != nil {
		return nil, fmt.Errorf("recall lookup failed: %w", err)
	}
	if found {
		profile.HasRecalls = true
		profile.RecallCount = len(recalls)
	}

	_, found, err = c.SearchRegistrations(ctx, company, 1)
	if err != nil {
		return nil, fmt.Errorf("registration lookup failed: %w", err)
	}
	profile.Registered = found

	c.profiles.Add(key, profile)

	c.logger.InfoWithFields("built FDA profile",
		logging.Field("company", company),
		logging.Field("cleared", profile.Cleared),
		logging.Field("clearances", profile.ClearanceCount),
		logging.Field("recalls", profile.RecallCount),
	)
	return profile, nil
}

// get performs one API request with retries on 429 and 5xx responses.
// It returns found=false on 404, which openFDA uses for "no results".
func (c *Client) get(ctx context.Context, path string, params url.Values, out interface{}) (bool, error) {
	if c.apiKey != "" {
		params.Set("api_key", c.apiKey)
	}
	endpoint := c.baseURL + path + "?" + params.Encode()

	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(attempt)*time.Second + time.Duration(rand.Intn(500))*time.Millisecond
			select {
			case <-ctx.Done():
				return false, ctx.Err()
			case <-time.After(backoff):
			}
		}

		req, err := http.NewRequestWithContext(ctx, "GET", endpoint, nil)
		if err != nil {
			return false, fmt.Errorf("failed to create request: %w", err)
		}

		resp, err := c.http.Do(req)
		if err != nil {
			lastErr = err
			continue
		}

		body, err := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		if err != nil {
			lastErr = err
			continue
		}

		switch {
		case resp.StatusCode == http.StatusNotFound:
			return false, nil
		case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
			lastErr = fmt.Errorf("status %d from openFDA", resp.StatusCode)
			continue
		case resp.StatusCode != http.StatusOK:
			return false, fmt.Errorf("unexpected status %d from openFDA", resp.StatusCode)
		}

		if err := json.Unmarshal(body, out); err != nil {
			return false, fmt.Errorf("failed to decode response: %w", err)
		}
		return true, nil
	}
	return false, fmt.Errorf("openFDA request failed after %d attempts: %w", maxRetries+1, lastErr)
}
