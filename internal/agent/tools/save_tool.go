package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/gulfmed/scout/internal/logging"
	"github.com/gulfmed/scout/internal/metrics"
	"github.com/gulfmed/scout/internal/notion"
	"github.com/gulfmed/scout/internal/store"
)

// SaveCompanyTool persists a researched company to the run's store and,
// when configured, to the Notion tracker.
type SaveCompanyTool struct {
	store   *store.Store
	notion  *notion.Client
	metrics *metrics.Metrics
}

func (t *SaveCompanyTool) Name() string { return "save_company" }

func (t *SaveCompanyTool) Description() string {
	return `Save a researched company to the results store (and the Notion tracker when
configured). A company name that was already saved is skipped, so gather all
data before calling.

Call this once per company after research is complete. Every field you can
fill improves the tracker's data quality score.

Input:
- company_name (required): Company name
- specialty: Device specialty / category
- website: Company website URL
- description: 2-3 sentence company description
- products: Key products, comma separated
- certifications: List of certifications, e.g. ["CE Mark", "ISO 13485"]
- fda_status: FDA Cleared/510(k)/PMA/Pending/Unknown
- distribution_model: Seeking Partners/Uses Distributors/Direct Sales
- gulf_presence: Gulf-region presence description
- headquarters: City, Country
- email, phone, location: Contact details
- relevance: High/Medium/Low
- priority_level: Critical/High/Medium/Low
- competitors: Main competitors, comma separated
- uniqueness: What makes the company unique
- notes: Free-form research notes`
}

func (t *SaveCompanyTool) InputSchema() map[string]interface{} {
	str := func(desc string) map[string]interface{} {
		return map[string]interface{}{"type": "string", "description": desc}
	}
	return map[string]interface{}{
		"type":     "object",
		"required": []string{"company_name"},
		"properties": map[string]interface{}{
			"company_name": str("Company name"),
			"specialty":    str("Device specialty / category"),
			"website":      str("Company website URL"),
			"description":  str("2-3 sentence company description"),
			"products":     str("Key products, comma separated"),
			"certifications": map[string]interface{}{
				"type":        "array",
				"items":       map[string]interface{}{"type": "string"},
				"description": "Certifications held, e.g. [\"CE Mark\", \"ISO 13485\"]",
			},
			"fda_status":         str("FDA Cleared/510(k)/PMA/Pending/Unknown"),
			"distribution_model": str("Seeking Partners/Uses Distributors/Direct Sales"),
			"gulf_presence":      str("Gulf-region presence description"),
			"headquarters":       str("Headquarters location, City, Country"),
			"email":              str("Contact email"),
			"phone":              str("Contact phone"),
			"location":           str("Company location"),
			"relevance":          str("High/Medium/Low"),
			"priority_level":     str("Critical/High/Medium/Low"),
			"competitors":        str("Main competitors, comma separated"),
			"uniqueness":         str("What makes the company unique"),
			"primary_focus":      str("Main business area"),
			"market":             str("Market size: Large/Medium/Niche"),
			"notes":              str("Free-form research notes"),
		},
	}
}

type saveCompanyInput struct {
	CompanyName       string   `json:"company_name"`
	Specialty         string   `json:"specialty"`
	Website           string   `json:"website"`
	Description       string   `json:"description"`
	Products          string   `json:"products"`
	Certifications    []string `json:"certifications"`
	FDAStatus         string   `json:"fda_status"`
	DistributionModel string   `json:"distribution_model"`
	GulfPresence      string   `json:"gulf_presence"`
	Headquarters      string   `json:"headquarters"`
	Email             string   `json:"email"`
	Phone             string   `json:"phone"`
	Location          string   `json:"location"`
	Relevance         string   `json:"relevance"`
	PriorityLevel     string   `json:"priority_level"`
	Competitors       string   `json:"competitors"`
	Uniqueness        string   `json:"uniqueness"`
	PrimaryFocus      string   `json:"primary_focus"`
	Market            string   `json:"market"`
	Notes             string   `json:"notes"`
}

func (t *SaveCompanyTool) Execute(ctx context.Context, input json.RawMessage) (*Result, error) {
	var params saveCompanyInput
	if err := json.Unmarshal(input, &params); err != nil {
		return &Result{Success: false, Error: fmt.Sprintf("invalid input: %v", err)}, nil
	}
	params.CompanyName = strings.TrimSpace(params.CompanyName)
	if params.CompanyName == "" {
		return &Result{Success: false, Error: "company_name is required"}, nil
	}

	record := store.CompanyRecord{
		CompanyName:            params.CompanyName,
		Specialty:              params.Specialty,
		Relevance:              params.Relevance,
		PrevalenceOfIndication: params.Market,
		PrimaryFocus:           params.PrimaryFocus,
		KeyProductsSolutions:   params.Products,
		FDAStatus:              params.FDAStatus,
		PriorityLevel:          params.PriorityLevel,
		Website:                params.Website,
		Notes:                  params.Notes,
		CompanyDescription:     params.Description,
		Uniqueness:             params.Uniqueness,
		Competitors:            params.Competitors,
		Email:                  params.Email,
		Phone:                  params.Phone,
		Location:               params.Location,
		ResearchDate:           store.Today(),
		ResearchStatus:         "Completed",
	}

	if !t.store.Append(record) {
		return &Result{
			Success: true,
			Data: map[string]interface{}{
				"company":       params.CompanyName,
				"already_saved": true,
			},
			Summary: fmt.Sprintf("Skipped %q: already saved", params.CompanyName),
		}, nil
	}
	if t.metrics != nil {
		t.metrics.SavesTotal.Inc()
	}

	review := store.Validate(record)

	data := map[string]interface{}{
		"company":            params.CompanyName,
		"already_saved":      false,
		"data_quality_score": review.Score,
		"quality_issues":     review.Issues,
	}

	if t.notion != nil {
		t.saveToNotion(ctx, params, data)
	}

	return &Result{
		Success: true,
		Data:    data,
		Summary: fmt.Sprintf("Saved %q (quality score %d)", params.CompanyName, review.Score),
	}, nil
}

// saveToNotion creates the tracker page unless one already exists for the
// company. Tracker failures are reported in data; the local record stands.
func (t *SaveCompanyTool) saveToNotion(ctx context.Context, params saveCompanyInput, data map[string]interface{}) {
	logger := logging.GetLogger("agent.tools")

	exists, err := t.notion.Exists(ctx, params.CompanyName)
	if err != nil {
		logger.WarnWithFields("notion duplicate check failed",
			logging.Field("company", params.CompanyName),
			logging.Field("error", err.Error()))
		data["notion_error"] = err.Error()
		return
	}
	if exists {
		data["notion_skipped"] = "already in tracker"
		return
	}

	saved, err := t.notion.SaveCompany(ctx, notion.Company{
		Name:              params.CompanyName,
		Specialty:         params.Specialty,
		Headquarters:      params.Headquarters,
		Products:          params.Products,
		Website:           params.Website,
		CEMark:            hasCert(params.Certifications, "CE Mark"),
		FDACleared:        strings.Contains(strings.ToLower(params.FDAStatus), "cleared") || strings.Contains(params.FDAStatus, "510(k)"),
		ISO13485:          hasCert(params.Certifications, "ISO 13485"),
		GulfPresence:      params.GulfPresence,
		DistributionModel: params.DistributionModel,
		ContactEmail:      params.Email,
		Notes:             params.Notes,
	})
	if err != nil {
		logger.WarnWithFields("notion save failed",
			logging.Field("company", params.CompanyName),
			logging.Field("error", err.Error()))
		data["notion_error"] = err.Error()
		return
	}
	data["notion_page_id"] = saved.PageID
}

func hasCert(certs []string, want string) bool {
	for _, cert := range certs {
		if strings.EqualFold(cert, want) {
			return true
		}
	}
	return false
}
