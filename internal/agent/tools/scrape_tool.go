package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/gulfmed/scout/internal/metrics"
	"github.com/gulfmed/scout/internal/research/scrape"
)

// ScrapeCompanyWebsiteTool extracts structured data from a company site.
type ScrapeCompanyWebsiteTool struct {
	scraper *scrape.Scraper
	metrics *metrics.Metrics
}

func (t *ScrapeCompanyWebsiteTool) Name() string { return "scrape_company_website" }

func (t *ScrapeCompanyWebsiteTool) Description() string {
	return `Scrape a company website for business development information: company name,
description, products, certifications (CE Mark, ISO 13485, FDA status), contact
details, distribution model and gulf-region presence.

Use this tool after finding a company's website to gather the facts needed for
a tracker entry. Sub-page failures are tolerated; whatever was found is returned.

Input:
- url: The company website URL (homepage)`
}

func (t *ScrapeCompanyWebsiteTool) InputSchema() map[string]interface{} {
	return map[string]interface{}{
		"type":     "object",
		"required": []string{"url"},
		"properties": map[string]interface{}{
			"url": map[string]interface{}{
				"type":        "string",
				"description": "Company website URL",
			},
		},
	}
}

func (t *ScrapeCompanyWebsiteTool) Execute(ctx context.Context, input json.RawMessage) (*Result, error) {
	var params struct {
		URL string `json:"url"`
	}
	if err := json.Unmarshal(input, &params); err != nil {
		return &Result{Success: false, Error: fmt.Sprintf("invalid input: %v", err)}, nil
	}
	params.URL = strings.TrimSpace(params.URL)
	if params.URL == "" {
		return &Result{Success: false, Error: "url is required"}, nil
	}
	if !strings.HasPrefix(params.URL, "http://") && !strings.HasPrefix(params.URL, "https://") {
		params.URL = "https://" + params.URL
	}

	if t.metrics != nil {
		t.metrics.ScrapesTotal.Inc()
	}

	info := t.scraper.ScrapeCompany(ctx, params.URL)
	if !info.Success {
		return &Result{
			Success: false,
			Data:    info,
			Error:   info.Error,
			Summary: fmt.Sprintf("Scrape of %s failed", params.URL),
		}, nil
	}

	return &Result{
		Success: true,
		Data:    info,
		Summary: fmt.Sprintf("Scraped %s: %d products, %d certifications", info.CompanyName, len(info.Products), len(info.Certifications)),
	}, nil
}
