package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/gulfmed/scout/internal/research/competitors"
)

// MapCompetitorsTool analyzes a company's competitive landscape.
type MapCompetitorsTool struct {
	analyzer *competitors.Analyzer
}

func (t *MapCompetitorsTool) Name() string { return "map_competitors" }

func (t *MapCompetitorsTool) Description() string {
	return `Map the competitive landscape for a company in a device specialty: the
major established players, competitive intensity, market segments,
positioning opportunities and gulf market notes.

Use this tool once per company, after you know its specialty, to judge how
crowded its market is and how it could position itself regionally.

Input:
- company: The company being researched (excluded from the competitor list)
- specialty: The device specialty, e.g. "patient monitoring" or "infusion pumps"`
}

func (t *MapCompetitorsTool) InputSchema() map[string]interface{} {
	return map[string]interface{}{
		"type":     "object",
		"required": []string{"company", "specialty"},
		"properties": map[string]interface{}{
			"company": map[string]interface{}{
				"type":        "string",
				"description": "Company being researched",
			},
			"specialty": map[string]interface{}{
				"type":        "string",
				"description": "Device specialty to analyze",
			},
		},
	}
}

func (t *MapCompetitorsTool) Execute(ctx context.Context, input json.RawMessage) (*Result, error) {
	var params struct {
		Company   string `json:"company"`
		Specialty string `json:"specialty"`
	}
	if err := json.Unmarshal(input, &params); err != nil {
		return &Result{Success: false, Error: fmt.Sprintf("invalid input: %v", err)}, nil
	}
	if strings.TrimSpace(params.Company) == "" || strings.TrimSpace(params.Specialty) == "" {
		return &Result{Success: false, Error: "company and specialty are required"}, nil
	}

	landscape := t.analyzer.Identify(params.Company, params.Specialty)
	return &Result{
		Success: true,
		Data:    landscape,
		Summary: fmt.Sprintf("Identified %d competitors for %q in %s", landscape.TotalIdentified, params.Company, params.Specialty),
	}, nil
}
