package contacts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const apolloBaseURL = "https://api.apollo.io/v1"

// defaultTitles targets the business development roles that matter for
// distributor outreach.
var defaultTitles = []string{
	"VP Sales", "Director Business Development",
	"VP International", "Export Manager",
	"Managing Director EMEA", "Regional Manager Middle East",
}

// ApolloClient queries the Apollo.io people-search API.
type ApolloClient struct {
	apiKey  string
	baseURL string
	http    *http.Client
}

// ApolloContact is one person found at a company.
type ApolloContact struct {
	Name        string `json:"name"`
	Title       string `json:"title"`
	Email       string `json:"email"`
	EmailStatus string `json:"email_status"`
	LinkedIn    string `json:"linkedin_url"`
	Country     string `json:"country"`
}

// NewApolloClient creates an Apollo.io client. baseURL overrides the API
// endpoint when non-empty, used by tests.
func NewApolloClient(apiKey, baseURL string) *ApolloClient {
	if baseURL == "" {
		baseURL = apolloBaseURL
	}
	return &ApolloClient{
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 15 * time.Second},
	}
}

// SearchContacts finds people at a company domain holding the given
// titles. Nil titles selects the default business development set.
func (c *ApolloClient) SearchContacts(ctx context.Context, domain string, titles []string, limit int) ([]ApolloContact, error) {
	if c.apiKey == "" {
		return nil, fmt.Errorf("apollo API key not configured")
	}
	if titles == nil {
		titles = defaultTitles
	}
	if limit <= 0 {
		limit = 10
	}

	payload, err := json.Marshal(map[string]interface{}{
		"api_key":                c.apiKey,
		"q_organization_domains": domain,
		"person_titles":          titles,
		"per_page":               limit,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/mixed_people/search", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("apollo request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d from apollo", resp.StatusCode)
	}

	var parsed struct {
		People []struct {
			Name        string `json:"name"`
			Title       string `json:"title"`
			Email       string `json:"email"`
			EmailStatus string `json:"email_status"`
			LinkedIn    string `json:"linkedin_url"`
			Country     string `json:"country"`
		} `json:"people"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("failed to decode apollo response: %w", err)
	}

	result := make([]ApolloContact, 0, len(parsed.People))
	for _, p := range parsed.People {
		result = append(result, ApolloContact{
			Name:        p.Name,
			Title:       p.Title,
			Email:       p.Email,
			EmailStatus: p.EmailStatus,
			LinkedIn:    p.LinkedIn,
			Country:     p.Country,
		})
	}
	return result, nil
}
