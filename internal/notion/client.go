// Package notion saves research results to a Notion database with a
// fixed property schema for the company tracker.
package notion

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gulfmed/scout/internal/logging"
)

const (
	defaultBaseURL = "https://api.notion.com/v1"
	notionVersion  = "2022-06-28"
	richTextCap    = 2000
	clientTimeout  = 15 * time.Second
)

// Company is the data written to one tracker row.
type Company struct {
	Name              string `json:"name"`
	Specialty         string `json:"specialty"`
	Headquarters      string `json:"headquarters"`
	Products          string `json:"products"`
	Website           string `json:"website"`
	CEMark            bool   `json:"ce_mark"`
	FDACleared        bool   `json:"fda_cleared"`
	ISO13485          bool   `json:"iso_13485"`
	GulfPresence      string `json:"gulf_presence"`
	DistributionModel string `json:"distribution_model"`
	ContactEmail      string `json:"contact_email"`
	Notes             string `json:"notes"`
}

// SaveResult reports the created page.
type SaveResult struct {
	PageID string `json:"page_id"`
	URL    string `json:"url"`
}

// Client talks to the Notion pages and database query endpoints.
type Client struct {
	apiKey     string
	databaseID string
	baseURL    string
	http       *http.Client
	logger     *logging.Logger
	now        func() time.Time
}

// NewClient creates a Notion client. baseURL overrides the API endpoint
// when non-empty, used by tests.
func NewClient(apiKey, databaseID, baseURL string) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		apiKey:     apiKey,
		databaseID: databaseID,
		baseURL:    strings.TrimRight(baseURL, "/"),
		http:       &http.Client{Timeout: clientTimeout},
		logger:     logging.GetLogger("notion"),
		now:        time.Now,
	}
}

// SaveCompany creates one page in the tracker database.
func (c *Client) SaveCompany(ctx context.Context, company Company) (*SaveResult, error) {
	if c.apiKey == "" || c.databaseID == "" {
		return nil, fmt.Errorf("notion credentials not configured")
	}

	name := company.Name
	if name == "" {
		name = "Unknown"
	}
	specialty := company.Specialty
	if specialty == "" {
		specialty = "Other"
	}
	gulf := company.GulfPresence
	if gulf == "" {
		gulf = "None/Unknown"
	}
	distribution := company.DistributionModel
	if distribution == "" {
		distribution = "Unknown"
	}

	properties := map[string]interface{}{
		"Company Name":       titleProp(name),
		"Specialty":          selectProp(specialty),
		"Headquarters":       richTextProp(company.Headquarters),
		"Products":           richTextProp(company.Products),
		"Website":            map[string]interface{}{"url": orNil(company.Website)},
		"CE Mark":            map[string]interface{}{"checkbox": company.CEMark},
		"FDA Cleared":        map[string]interface{}{"checkbox": company.FDACleared},
		"ISO 13485":          map[string]interface{}{"checkbox": company.ISO13485},
		"Gulf Presence":      selectProp(gulf),
		"Distribution Model": selectProp(distribution),
		"Notes":              richTextProp(company.Notes),
		"Research Date":      map[string]interface{}{"date": map[string]string{"start": c.now().Format("2006-01-02")}},
		"Status":             selectProp("Researched"),
	}
	if company.ContactEmail != "" {
		properties["Contact Email"] = map[string]interface{}{"email": company.ContactEmail}
	}

	payload := map[string]interface{}{
		"parent":     map[string]string{"database_id": c.databaseID},
		"properties": properties,
	}

	body, err := c.post(ctx, "/pages", payload)
	if err != nil {
		return nil, err
	}

	var parsed struct {
		ID  string `json:"id"`
		URL string `json:"url"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("failed to decode notion response: %w", err)
	}

	c.logger.InfoWithFields("saved company to notion",
		logging.Field("company", name), logging.Field("page_id", parsed.ID))
	return &SaveResult{PageID: parsed.ID, URL: parsed.URL}, nil
}

// Exists reports whether the tracker already has a page whose title
// contains the company name.
func (c *Client) Exists(ctx context.Context, companyName string) (bool, error) {
	if c.apiKey == "" || c.databaseID == "" {
		return false, fmt.Errorf("notion credentials not configured")
	}

	payload := map[string]interface{}{
		"filter": map[string]interface{}{
			"property": "Company Name",
			"title":    map[string]string{"contains": companyName},
		},
	}

	body, err := c.post(ctx, "/databases/"+c.databaseID+"/query", payload)
	if err != nil {
		return false, err
	}

	var parsed struct {
		Results []json.RawMessage `json:"results"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return false, fmt.Errorf("failed to decode notion response: %w", err)
	}
	return len(parsed.Results) > 0, nil
}

func (c *Client) post(ctx context.Context, path string, payload interface{}) ([]byte, error) {
	encoded, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+path, bytes.NewReader(encoded))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Notion-Version", notionVersion)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("notion request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("notion returned status %d: %s", resp.StatusCode, truncateBody(body))
	}
	return body, nil
}

func titleProp(text string) map[string]interface{} {
	return map[string]interface{}{
		"title": []map[string]interface{}{
			{"text": map[string]string{"content": text}},
		},
	}
}

func selectProp(name string) map[string]interface{} {
	return map[string]interface{}{
		"select": map[string]string{"name": name},
	}
}

func richTextProp(text string) map[string]interface{} {
	if len(text) > richTextCap {
		text = text[:richTextCap]
	}
	return map[string]interface{}{
		"rich_text": []map[string]interface{}{
			{"text": map[string]string{"content": text}},
		},
	}
}

// orNil turns an empty string into nil, which Notion requires for
// clearing url properties.
func orNil(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

func truncateBody(body []byte) string {
	const max = 200
	if len(body) > max {
		return string(body[:max]) + "..."
	}
	return string(body)
}
