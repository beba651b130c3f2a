package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gulfmed/scout/internal/agent/provider"
	"github.com/gulfmed/scout/internal/agent/tools"
	"github.com/gulfmed/scout/internal/research/fda"
	"github.com/gulfmed/scout/internal/research/scrape"
	"github.com/gulfmed/scout/internal/store"
)

// Full session flow with real executors behind the registry: the model
// checks clearances, scrapes the site, saves one company and reports.
func TestSessionResearchFlow(t *testing.T) {
	fdaServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/510k.json", r.URL.Path)
		_, _ = w.Write([]byte(`{"results":[
			{"k_number":"K240010","device_name":"Infusion Pump","decision_date":"2024-05-01","applicant":"Flowline Medical"},
			{"k_number":"K220042","device_name":"Syringe Driver","decision_date":"2022-11-20","applicant":"Flowline Medical"}
		]}`))
	}))
	defer fdaServer.Close()

	site := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html><head><title>Flowline Medical</title>
			<meta name="description" content="Smart infusion systems"></head>
			<body><h1>Flowline Medical</h1><p>Smart infusion systems for hospitals.</p></body></html>`))
	}))
	defer site.Close()

	st, err := store.New(t.TempDir())
	require.NoError(t, err)

	registry := tools.NewRegistry(tools.Dependencies{
		Scraper: scrape.New(nil),
		FDA:     fda.NewClient(fda.WithBaseURL(fdaServer.URL)),
		Store:   st,
	})

	saveInput := `{"company_name":"Flowline Medical","specialty":"infusion pumps",` +
		`"website":"` + site.URL + `","description":"Smart infusion systems",` +
		`"fda_status":"510(k) Cleared (2 clearances)","relevance":"High"}`
	p := &scriptedProvider{responses: []*provider.Response{
		{
			StopReason: provider.StopReasonToolUse,
			ToolCalls: []provider.ToolUseBlock{
				{ID: "c1", Name: "check_fda_status", Input: json.RawMessage(`{"company":"Flowline Medical"}`)},
				{ID: "c2", Name: "scrape_company_website", Input: json.RawMessage(fmt.Sprintf(`{"url":%q}`, site.URL))},
			},
		},
		{
			StopReason: provider.StopReasonToolUse,
			ToolCalls: []provider.ToolUseBlock{
				{ID: "c3", Name: "save_company", Input: json.RawMessage(saveInput)},
			},
		},
		{StopReason: provider.StopReasonEndTurn, Content: "# Infusion Pumps\n\nFlowline Medical researched."},
	}}

	s := NewSession(p, registry)
	outcome, err := s.Run(context.Background(), SpecialtyPrompt("infusion pumps"))

	require.NoError(t, err)
	assert.Equal(t, StateDone, outcome.State)
	assert.Equal(t, 3, outcome.Stats.ToolCalls)
	assert.Zero(t, outcome.Stats.ToolErrors)
	assert.Contains(t, outcome.FinalReport, "Flowline Medical")

	// one row saved, marked completed, carrying the clearance status
	records := st.Records()
	require.Len(t, records, 1)
	assert.Equal(t, "Flowline Medical", records[0].CompanyName)
	assert.Equal(t, "510(k) Cleared (2 clearances)", records[0].FDAStatus)
	assert.Equal(t, "Completed", records[0].ResearchStatus)

	// the clearance lookup result fed back to the model carries both records
	conv := s.Messages()
	require.Len(t, conv[2].ToolResult, 2)
	assert.Equal(t, "c1", conv[2].ToolResult[0].ToolUseID)
	assert.Contains(t, conv[2].ToolResult[0].Content, "K240010")
	assert.False(t, conv[2].ToolResult[0].IsError)

	// the scrape found no certifications on the homepage
	assert.Contains(t, conv[2].ToolResult[1].Content, `"certifications":[]`)
}
