package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/gulfmed/scout/internal/metrics"
	"github.com/gulfmed/scout/internal/research/fda"
)

// CheckFDAStatusTool looks up 510(k) clearances for a company.
type CheckFDAStatusTool struct {
	client  *fda.Client
	metrics *metrics.Metrics
}

func (t *CheckFDAStatusTool) Name() string { return "check_fda_status" }

func (t *CheckFDAStatusTool) Description() string {
	return `Check a company's FDA 510(k) clearance history via openFDA, newest first.
A company with no records is a normal outcome (found=false), not an error.

Use this tool to:
- Verify an "FDA cleared" claim found on a website
- See what device types a company has cleared and how recently

Input:
- company: Company name as it appears in FDA filings
- product (optional): Device name to narrow the search
- limit (optional): Maximum clearances to return (default 10)`
}

func (t *CheckFDAStatusTool) InputSchema() map[string]interface{} {
	return map[string]interface{}{
		"type":     "object",
		"required": []string{"company"},
		"properties": map[string]interface{}{
			"company": map[string]interface{}{
				"type":        "string",
				"description": "Company name as it appears in FDA filings",
			},
			"product": map[string]interface{}{
				"type":        "string",
				"description": "Device name to narrow the search (optional)",
			},
			"limit": map[string]interface{}{
				"type":        "integer",
				"description": "Maximum clearances to return (default 10)",
			},
		},
	}
}

func (t *CheckFDAStatusTool) Execute(ctx context.Context, input json.RawMessage) (*Result, error) {
	var params struct {
		Company string `json:"company"`
		Product string `json:"product"`
		Limit   int    `json:"limit"`
	}
	if err := json.Unmarshal(input, &params); err != nil {
		return &Result{Success: false, Error: fmt.Sprintf("invalid input: %v", err)}, nil
	}
	if strings.TrimSpace(params.Company) == "" {
		return &Result{Success: false, Error: "company is required"}, nil
	}

	if t.metrics != nil {
		t.metrics.FDALookupsTotal.Inc()
	}

	clearances, found, err := t.client.Search510K(ctx, params.Company, params.Product, params.Limit)
	if err != nil {
		return &Result{Success: false, Error: err.Error()}, nil
	}

	summary := fmt.Sprintf("No 510(k) records for %q", params.Company)
	if found {
		summary = fmt.Sprintf("Found %d 510(k) clearances for %q", len(clearances), params.Company)
	}
	return &Result{
		Success: true,
		Data: map[string]interface{}{
			"company":    params.Company,
			"found":      found,
			"clearances": clearances,
		},
		Summary: summary,
	}, nil
}

// FDAProfileTool aggregates clearances, recalls and registration status.
type FDAProfileTool struct {
	client  *fda.Client
	metrics *metrics.Metrics
}

func (t *FDAProfileTool) Name() string { return "get_fda_profile" }

func (t *FDAProfileTool) Description() string {
	return `Build a full FDA profile for a company: clearance count with the most recent
510(k)s, recall history, and whether the firm holds an establishment registration.

Use this tool when you need the complete regulatory picture rather than just
the clearance list.

Input:
- company: Company name as it appears in FDA filings`
}

func (t *FDAProfileTool) InputSchema() map[string]interface{} {
	return map[string]interface{}{
		"type":     "object",
		"required": []string{"company"},
		"properties": map[string]interface{}{
			"company": map[string]interface{}{
				"type":        "string",
				"description": "Company name as it appears in FDA filings",
			},
		},
	}
}

func (t *FDAProfileTool) Execute(ctx context.Context, input json.RawMessage) (*Result, error) {
	var params struct {
		Company string `json:"company"`
	}
	if err := json.Unmarshal(input, &params); err != nil {
		return &Result{Success: false, Error: fmt.Sprintf("invalid input: %v", err)}, nil
	}
	if strings.TrimSpace(params.Company) == "" {
		return &Result{Success: false, Error: "company is required"}, nil
	}

	if t.metrics != nil {
		t.metrics.FDALookupsTotal.Inc()
	}

	profile, err := t.client.CompanyProfile(ctx, params.Company)
	if err != nil {
		return &Result{Success: false, Error: err.Error()}, nil
	}

	return &Result{
		Success: true,
		Data:    profile,
		Summary: fmt.Sprintf("FDA profile for %q: cleared=%v (%d), recalls=%d, registered=%v", params.Company, profile.Cleared, profile.ClearanceCount, profile.RecallCount, profile.Registered),
	}, nil
}
