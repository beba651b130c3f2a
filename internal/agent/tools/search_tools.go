package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/gulfmed/scout/internal/metrics"
	"github.com/gulfmed/scout/internal/research/search"
)

// SearchManufacturersTool fans out specialty queries across web search.
type SearchManufacturersTool struct {
	client  *search.Client
	metrics *metrics.Metrics
}

func (t *SearchManufacturersTool) Name() string { return "search_manufacturers" }

func (t *SearchManufacturersTool) Description() string {
	return `Search the web for medical device manufacturers in a given specialty.
Runs several query variations and returns deduplicated results with title, URL and description.

Use this tool to:
- Discover companies active in a specialty (e.g. "PICU ventilators", "patient monitoring")
- Build the candidate list at the start of a research session

Input:
- specialty: The device specialty or market niche to search for`
}

func (t *SearchManufacturersTool) InputSchema() map[string]interface{} {
	return map[string]interface{}{
		"type":     "object",
		"required": []string{"specialty"},
		"properties": map[string]interface{}{
			"specialty": map[string]interface{}{
				"type":        "string",
				"description": "Device specialty or market niche to search for",
			},
		},
	}
}

func (t *SearchManufacturersTool) Execute(ctx context.Context, input json.RawMessage) (*Result, error) {
	var params struct {
		Specialty string `json:"specialty"`
	}
	if err := json.Unmarshal(input, &params); err != nil {
		return &Result{Success: false, Error: fmt.Sprintf("invalid input: %v", err)}, nil
	}
	if strings.TrimSpace(params.Specialty) == "" {
		return &Result{Success: false, Error: "specialty is required"}, nil
	}

	if t.metrics != nil {
		t.metrics.SearchesTotal.Inc()
	}

	results := t.client.SearchManufacturers(ctx, params.Specialty)
	return &Result{
		Success: true,
		Data:    map[string]interface{}{"specialty": params.Specialty, "results": results},
		Summary: fmt.Sprintf("Found %d results for %q", len(results), params.Specialty),
	}, nil
}

// SearchCompanyDetailsTool runs a single free-form query, used to dig
// into one company after discovery.
type SearchCompanyDetailsTool struct {
	client  *search.Client
	metrics *metrics.Metrics
}

func (t *SearchCompanyDetailsTool) Name() string { return "search_company_details" }

func (t *SearchCompanyDetailsTool) Description() string {
	return `Search the web with a free-form query, typically to learn more about one company.

Use this tool to:
- Find a company's website when only the name is known
- Look up recent news, distributors or regulatory history for a company

Input:
- query: The search query
- max_results (optional): Maximum results to return (default 10)`
}

func (t *SearchCompanyDetailsTool) InputSchema() map[string]interface{} {
	return map[string]interface{}{
		"type":     "object",
		"required": []string{"query"},
		"properties": map[string]interface{}{
			"query": map[string]interface{}{
				"type":        "string",
				"description": "Search query",
			},
			"max_results": map[string]interface{}{
				"type":        "integer",
				"description": "Maximum results to return (default 10)",
			},
		},
	}
}

func (t *SearchCompanyDetailsTool) Execute(ctx context.Context, input json.RawMessage) (*Result, error) {
	var params struct {
		Query      string `json:"query"`
		MaxResults int    `json:"max_results"`
	}
	if err := json.Unmarshal(input, &params); err != nil {
		return &Result{Success: false, Error: fmt.Sprintf("invalid input: %v", err)}, nil
	}
	if strings.TrimSpace(params.Query) == "" {
		return &Result{Success: false, Error: "query is required"}, nil
	}

	if t.metrics != nil {
		t.metrics.SearchesTotal.Inc()
	}

	results := t.client.Search(ctx, params.Query, params.MaxResults)
	return &Result{
		Success: true,
		Data:    map[string]interface{}{"query": params.Query, "results": results},
		Summary: fmt.Sprintf("Found %d results for %q", len(results), params.Query),
	}, nil
}
