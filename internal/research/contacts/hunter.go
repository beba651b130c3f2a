package contacts

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const hunterBaseURL = "https://api.hunter.io/v2"

// HunterClient queries the Hunter.io domain-search API.
type HunterClient struct {
	apiKey  string
	baseURL string
	http    *http.Client
}

// HunterEmail is one discovered email with its metadata.
type HunterEmail struct {
	Email      string `json:"email"`
	Type       string `json:"type"`
	Confidence int    `json:"confidence"`
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
	Position   string `json:"position"`
	Department string `json:"department"`
	LinkedIn   string `json:"linkedin"`
}

// HunterResult is the outcome of a domain search.
type HunterResult struct {
	Domain       string        `json:"domain"`
	Organization string        `json:"organization"`
	Pattern      string        `json:"pattern"`
	Emails       []HunterEmail `json:"emails"`
}

// NewHunterClient creates a Hunter.io client. baseURL overrides the API
// endpoint when non-empty, used by tests.
func NewHunterClient(apiKey, baseURL string) *HunterClient {
	if baseURL == "" {
		baseURL = hunterBaseURL
	}
	return &HunterClient{
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 15 * time.Second},
	}
}

// DomainSearch finds emails associated with a domain.
func (c *HunterClient) DomainSearch(ctx context.Context, domain string, limit int) (*HunterResult, error) {
	if c.apiKey == "" {
		return nil, fmt.Errorf("hunter API key not configured")
	}
	if limit <= 0 {
		limit = 10
	}

	params := url.Values{}
	params.Set("domain", domain)
	params.Set("api_key", c.apiKey)
	params.Set("limit", fmt.Sprintf("%d", limit))

	req, err := http.NewRequestWithContext(ctx, "GET", c.baseURL+"/domain-search?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("hunter request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusUnauthorized:
		return nil, fmt.Errorf("hunter API key rejected")
	case http.StatusTooManyRequests:
		return nil, fmt.Errorf("hunter rate limit exceeded")
	default:
		return nil, fmt.Errorf("unexpected status %d from hunter", resp.StatusCode)
	}

	var parsed struct {
		Data struct {
			Organization string `json:"organization"`
			Pattern      string `json:"pattern"`
			Emails       []struct {
				Value      string `json:"value"`
				Type       string `json:"type"`
				Confidence int    `json:"confidence"`
				FirstName  string `json:"first_name"`
				LastName   string `json:"last_name"`
				Position   string `json:"position"`
				Department string `json:"department"`
				LinkedIn   string `json:"linkedin"`
			} `json:"emails"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("failed to decode hunter response: %w", err)
	}

	result := &HunterResult{
		Domain:       domain,
		Organization: parsed.Data.Organization,
		Pattern:      parsed.Data.Pattern,
		Emails:       make([]HunterEmail, 0, len(parsed.Data.Emails)),
	}
	for _, e := range parsed.Data.Emails {
		result.Emails = append(result.Emails, HunterEmail{
			Email:      e.Value,
			Type:       e.Type,
			Confidence: e.Confidence,
			FirstName:  e.FirstName,
			LastName:   e.LastName,
			Position:   e.Position,
			Department: e.Department,
			LinkedIn:   e.LinkedIn,
		})
	}
	return result, nil
}
