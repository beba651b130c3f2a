// Package analysis turns raw scrape and search material into a concise
// company profile. It asks a fast chat model for a structured answer and
// falls back to rule-based extraction when no model is available or the
// model returns garbage.
package analysis

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/gulfmed/scout/internal/agent/provider"
	"github.com/gulfmed/scout/internal/logging"
	"github.com/gulfmed/scout/internal/ratelimit"
)

// Input is the raw material collected about one company.
type Input struct {
	CompanyName    string
	Category       string
	WebDescription string
	Headings       []string
	FDAMentions    []string
	SearchSnippets []string
}

// Profile is the structured analysis of one company.
type Profile struct {
	Description  string `json:"description"`
	PrimaryFocus string `json:"primary_focus"`
	Products     string `json:"products"`
	FDAStatus    string `json:"fda_status"`
	Relevance    string `json:"relevance"`
	Priority     string `json:"priority"`
	Uniqueness   string `json:"uniqueness"`
	Market       string `json:"market"`
	Source       string `json:"source"`
}

const systemPrompt = "Medical device analyst. Return only JSON."

// highRelevanceCategories mark specialties that warrant High relevance
// in the rule-based fallback.
var highRelevanceCategories = []string{"Cardiology", "Surgical", "Radiology", "Laboratory"}

// Analyzer produces company profiles. The provider is optional; without
// one every analysis takes the rule-based path.
type Analyzer struct {
	provider provider.Provider
	limiter  *ratelimit.Limiter
	logger   *logging.Logger
}

// New creates an analyzer. Either argument may be nil.
func New(p provider.Provider, limiter *ratelimit.Limiter) *Analyzer {
	return &Analyzer{
		provider: p,
		limiter:  limiter,
		logger:   logging.GetLogger("research.analysis"),
	}
}

// Analyze profiles a company. Model failures are not fatal; the result
// always carries a usable profile with Source marking how it was made.
func (a *Analyzer) Analyze(ctx context.Context, in Input) *Profile {
	if a.provider != nil {
		profile, err := a.analyzeWithModel(ctx, in)
		if err == nil {
			profile.Source = "model"
			return profile
		}
		a.logger.WarnWithFields("model analysis failed, using rules",
			logging.Field("company", in.CompanyName),
			logging.Field("error", err.Error()),
		)
	}
	profile := RuleBased(in)
	profile.Source = "rules"
	return profile
}

func (a *Analyzer) analyzeWithModel(ctx context.Context, in Input) (*Profile, error) {
	if a.limiter != nil {
		if err := a.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	messages := []provider.Message{
		{Role: provider.RoleUser, Content: buildPrompt(in)},
	}
	resp, err := a.provider.Chat(ctx, systemPrompt, messages, nil)
	if err != nil {
		return nil, fmt.Errorf("chat request failed: %w", err)
	}

	profile, err := extractJSON(resp.Content)
	if err != nil {
		return nil, fmt.Errorf("unusable model output: %w", err)
	}
	return profile, nil
}

func buildPrompt(in Input) string {
	parts := []string{
		"Company: " + in.CompanyName,
		"Category: " + in.Category,
	}
	if in.WebDescription != "" {
		parts = append(parts, "Website description: "+in.WebDescription)
	}
	if len(in.Headings) > 0 {
		headings := in.Headings
		if len(headings) > 5 {
			headings = headings[:5]
		}
		parts = append(parts, "Products/Services: "+strings.Join(headings, ", "))
	}
	if len(in.FDAMentions) > 0 {
		parts = append(parts, "FDA mentions: "+strings.Join(in.FDAMentions, ", "))
	}
	for i, snippet := range in.SearchSnippets {
		if i >= 2 {
			break
		}
		parts = append(parts, fmt.Sprintf("Search result %d: %s", i+1, snippet))
	}

	return fmt.Sprintf(`Analyze this medical device/healthcare company. Be concise and factual.

%s

Return ONLY valid JSON (no markdown, no explanation):
{"description": "2-3 sentence company description", "primary_focus": "main business area", "products": "key products comma separated", "fda_status": "FDA Cleared/510(k)/PMA/Pending/Unknown", "relevance": "High/Medium/Low", "priority": "Critical/High/Medium/Low", "uniqueness": "what makes them unique", "market": "Large/Medium/Niche"}`,
		strings.Join(parts, "\n"))
}

// extractJSON pulls the first {...} block out of model output, which may
// be wrapped in prose or markdown fences despite instructions.
func extractJSON(text string) (*Profile, error) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return nil, fmt.Errorf("no JSON object in output")
	}

	var profile Profile
	if err := json.Unmarshal([]byte(text[start:end+1]), &profile); err != nil {
		return nil, fmt.Errorf("failed to parse JSON: %w", err)
	}
	if profile.Description == "" && profile.Products == "" {
		return nil, fmt.Errorf("JSON object carried no usable fields")
	}
	fillDefaults(&profile)
	return &profile, nil
}

// RuleBased derives a profile from the raw material without a model.
func RuleBased(in Input) *Profile {
	profile := &Profile{
		PrimaryFocus: in.Category,
		FDAStatus:    "Unknown",
		Relevance:    "Medium",
		Priority:     "Medium",
		Market:       "Unknown",
	}

	if in.WebDescription != "" {
		profile.Description = truncate(in.WebDescription, 300)
	} else if len(in.SearchSnippets) > 0 {
		profile.Description = truncate(in.SearchSnippets[0], 300)
	}

	if len(in.Headings) > 0 {
		headings := in.Headings
		if len(headings) > 5 {
			headings = headings[:5]
		}
		profile.Products = strings.Join(headings, "; ")
	}

	if len(in.FDAMentions) > 0 {
		mentions := strings.ToLower(strings.Join(in.FDAMentions, " "))
		switch {
		case strings.Contains(mentions, "510(k)"):
			profile.FDAStatus = "510(k)"
		case strings.Contains(mentions, "pma"):
			profile.FDAStatus = "PMA"
		case strings.Contains(mentions, "cleared"):
			profile.FDAStatus = "FDA Cleared"
		case strings.Contains(mentions, "approved"):
			profile.FDAStatus = "FDA Approved"
		}
	}

	for _, cat := range highRelevanceCategories {
		if strings.Contains(in.Category, cat) {
			profile.Relevance = "High"
			profile.Priority = "High"
			break
		}
	}
	return profile
}

func fillDefaults(p *Profile) {
	if p.FDAStatus == "" {
		p.FDAStatus = "Unknown"
	}
	if p.Relevance == "" {
		p.Relevance = "Medium"
	}
	if p.Priority == "" {
		p.Priority = "Medium"
	}
	if p.Market == "" {
		p.Market = "Unknown"
	}
}

func truncate(s string, max int) string {
	if len(s) > max {
		return s[:max]
	}
	return s
}
