package analysis

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gulfmed/scout/internal/agent/provider"
)

type stubProvider struct {
	content string
	err     error
	calls   int
}

func (s *stubProvider) Chat(ctx context.Context, system string, messages []provider.Message, tools []provider.ToolDefinition) (*provider.Response, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return &provider.Response{Content: s.content, StopReason: provider.StopReasonEndTurn}, nil
}

func (s *stubProvider) Name() string  { return "stub" }
func (s *stubProvider) Model() string { return "stub-model" }

func TestAnalyzeUsesModelOutput(t *testing.T) {
	p := &stubProvider{content: "Here you go:\n" + `{"description":"Builds bedside monitors for ICUs.","primary_focus":"patient monitoring","products":"monitors, telemetry","fda_status":"FDA Cleared","relevance":"High","priority":"High","uniqueness":"low-cost","market":"Large"}`}
	a := New(p, nil)

	profile := a.Analyze(context.Background(), Input{CompanyName: "Medora", Category: "Patient Monitoring"})

	assert.Equal(t, "model", profile.Source)
	assert.Equal(t, "Builds bedside monitors for ICUs.", profile.Description)
	assert.Equal(t, "FDA Cleared", profile.FDAStatus)
	assert.Equal(t, 1, p.calls)
}

func TestAnalyzeFallsBackOnProviderError(t *testing.T) {
	p := &stubProvider{err: fmt.Errorf("upstream down")}
	a := New(p, nil)

	profile := a.Analyze(context.Background(), Input{
		CompanyName:    "Medora",
		Category:       "Cardiology Devices",
		WebDescription: "Medora builds cardiac monitors.",
	})

	assert.Equal(t, "rules", profile.Source)
	assert.Equal(t, "Medora builds cardiac monitors.", profile.Description)
	assert.Equal(t, "High", profile.Relevance)
}

func TestAnalyzeFallsBackOnGarbageOutput(t *testing.T) {
	p := &stubProvider{content: "I cannot answer that."}
	a := New(p, nil)

	profile := a.Analyze(context.Background(), Input{CompanyName: "Medora", Category: "Other"})

	assert.Equal(t, "rules", profile.Source)
	assert.Equal(t, "Medium", profile.Relevance)
}

func TestExtractJSONUnwrapsFences(t *testing.T) {
	profile, err := extractJSON("```json\n{\"description\":\"A company.\"}\n```")
	require.NoError(t, err)
	assert.Equal(t, "A company.", profile.Description)
	assert.Equal(t, "Unknown", profile.FDAStatus)
	assert.Equal(t, "Medium", profile.Priority)
}

func TestExtractJSONRejectsEmptyObject(t *testing.T) {
	_, err := extractJSON("{}")
	assert.Error(t, err)
}

func TestRuleBasedFDALadder(t *testing.T) {
	cases := []struct {
		mentions []string
		want     string
	}{
		{[]string{"our 510(k) clearance"}, "510(k)"},
		{[]string{"PMA approved device"}, "PMA"},
		{[]string{"cleared by the agency"}, "FDA Cleared"},
		{[]string{"approved for sale"}, "FDA Approved"},
		{nil, "Unknown"},
	}
	for _, tc := range cases {
		profile := RuleBased(Input{Category: "Other", FDAMentions: tc.mentions})
		assert.Equal(t, tc.want, profile.FDAStatus)
	}
}

func TestRuleBasedUsesSearchSnippetWhenNoDescription(t *testing.T) {
	profile := RuleBased(Input{
		Category:       "Other",
		SearchSnippets: []string{"Medora is a device maker.", "second"},
		Headings:       []string{"Monitors", "Pumps"},
	})

	assert.Equal(t, "Medora is a device maker.", profile.Description)
	assert.Equal(t, "Monitors; Pumps", profile.Products)
}
