package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/gulfmed/scout/internal/metrics"
	"github.com/gulfmed/scout/internal/research/contacts"
)

// FindContactsTool looks up business development contacts for a company.
type FindContactsTool struct {
	finder  *contacts.Finder
	metrics *metrics.Metrics
}

func (t *FindContactsTool) Name() string { return "find_contacts" }

func (t *FindContactsTool) Description() string {
	return `Find business development contacts at a company through the configured
contact data providers. Falls back to suggested generic role addresses
(info@, sales@, export@) when no individual contacts are found.

Use this tool to:
- Find the people to approach about distribution partnerships
- Get the company's email pattern and generic inboxes

Input:
- website: Company website URL or bare domain
- target_titles (optional): Job titles to target, e.g. ["VP Sales", "Export Manager"]`
}

func (t *FindContactsTool) InputSchema() map[string]interface{} {
	return map[string]interface{}{
		"type":     "object",
		"required": []string{"website"},
		"properties": map[string]interface{}{
			"website": map[string]interface{}{
				"type":        "string",
				"description": "Company website URL or bare domain",
			},
			"target_titles": map[string]interface{}{
				"type":        "array",
				"items":       map[string]interface{}{"type": "string"},
				"description": "Job titles to target (optional)",
			},
		},
	}
}

func (t *FindContactsTool) Execute(ctx context.Context, input json.RawMessage) (*Result, error) {
	var params struct {
		Website      string   `json:"website"`
		TargetTitles []string `json:"target_titles"`
	}
	if err := json.Unmarshal(input, &params); err != nil {
		return &Result{Success: false, Error: fmt.Sprintf("invalid input: %v", err)}, nil
	}
	if strings.TrimSpace(params.Website) == "" {
		return &Result{Success: false, Error: "website is required"}, nil
	}

	result := t.finder.FindContacts(ctx, params.Website, params.TargetTitles)

	if t.metrics != nil {
		t.metrics.ContactsTotal.Add(float64(result.TotalContacts))
	}

	summary := fmt.Sprintf("Found %d contacts at %s", result.TotalContacts, result.Domain)
	if result.TotalContacts == 0 {
		summary = fmt.Sprintf("No individual contacts at %s, suggested %d generic addresses", result.Domain, len(result.SuggestedEmails))
	}
	return &Result{
		Success: true,
		Data:    result,
		Summary: summary,
	}, nil
}
