package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gulfmed/scout/internal/notion"
	"github.com/gulfmed/scout/internal/research/competitors"
	"github.com/gulfmed/scout/internal/research/fda"
	"github.com/gulfmed/scout/internal/store"
)

// fakeTool returns a canned result for registry tests.
type fakeTool struct {
	name   string
	result *Result
	err    error
}

func (t *fakeTool) Name() string        { return t.name }
func (t *fakeTool) Description() string { return "fake tool" }
func (t *fakeTool) InputSchema() map[string]interface{} {
	return map[string]interface{}{"type": "object"}
}
func (t *fakeTool) Execute(ctx context.Context, input json.RawMessage) (*Result, error) {
	if t.err != nil {
		return nil, t.err
	}
	return t.result, nil
}

func TestRegistryExecuteUnknownTool(t *testing.T) {
	r := NewRegistry(Dependencies{})
	result := r.Execute(context.Background(), "nope", nil)

	assert.False(t, result.Success)
	assert.Contains(t, result.Error, `tool "nope" not found`)
}

func TestRegistryExecuteToolError(t *testing.T) {
	r := NewRegistry(Dependencies{})
	r.Register(&fakeTool{name: "boom", err: fmt.Errorf("it broke")})

	result := r.Execute(context.Background(), "boom", nil)

	assert.False(t, result.Success)
	assert.Equal(t, "it broke", result.Error)
}

func TestRegistryExecuteSuccess(t *testing.T) {
	r := NewRegistry(Dependencies{})
	r.Register(&fakeTool{name: "ok", result: &Result{Success: true, Summary: "done"}})

	result := r.Execute(context.Background(), "ok", nil)

	assert.True(t, result.Success)
	assert.Equal(t, "done", result.Summary)
	assert.GreaterOrEqual(t, result.ExecutionTimeMs, int64(0))
}

func TestRegistryTruncatesLargeResults(t *testing.T) {
	big := strings.Repeat("x", MaxToolResponseBytes+1024)
	r := NewRegistry(Dependencies{})
	r.Register(&fakeTool{name: "big", result: &Result{Success: true, Data: big, Summary: "huge"}})

	result := r.Execute(context.Background(), "big", nil)

	require.True(t, result.Success)
	truncated, ok := result.Data.(*truncatedData)
	require.True(t, ok)
	assert.True(t, truncated.Truncated)
	assert.Contains(t, result.Summary, "TRUNCATED")
}

func TestRegistryConditionalRegistration(t *testing.T) {
	r := NewRegistry(Dependencies{Competitors: competitors.New()})

	_, ok := r.Get("map_competitors")
	assert.True(t, ok)
	_, ok = r.Get("search_manufacturers")
	assert.False(t, ok)
	_, ok = r.Get("save_company")
	assert.False(t, ok)
	assert.Len(t, r.List(), 1)
}

func TestToProviderTools(t *testing.T) {
	r := NewRegistry(Dependencies{Competitors: competitors.New()})
	defs := r.ToProviderTools()

	require.Len(t, defs, 1)
	assert.Equal(t, "map_competitors", defs[0].Name)
	assert.NotEmpty(t, defs[0].Description)
	assert.Equal(t, "object", defs[0].InputSchema["type"])
}

func TestMapCompetitorsTool(t *testing.T) {
	tool := &MapCompetitorsTool{analyzer: competitors.New()}

	result, err := tool.Execute(context.Background(), json.RawMessage(`{"company":"Mindray","specialty":"patient monitoring"}`))
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Contains(t, result.Summary, "5 competitors")

	result, err = tool.Execute(context.Background(), json.RawMessage(`{"company":"Mindray"}`))
	require.NoError(t, err)
	assert.False(t, result.Success)
}

func TestCheckFDAStatusTool(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"results":[{"k_number":"K1","device_name":"Monitor"}]}`))
	}))
	defer server.Close()

	tool := &CheckFDAStatusTool{client: fda.NewClient(fda.WithBaseURL(server.URL))}
	result, err := tool.Execute(context.Background(), json.RawMessage(`{"company":"Medora"}`))

	require.NoError(t, err)
	assert.True(t, result.Success)
	data := result.Data.(map[string]interface{})
	assert.Equal(t, true, data["found"])
}

func TestSaveCompanyTool(t *testing.T) {
	s, err := store.New(t.TempDir())
	require.NoError(t, err)

	tool := &SaveCompanyTool{store: s}
	input := json.RawMessage(`{
		"company_name": "Medora Devices",
		"specialty": "Patient Monitoring",
		"website": "https://medora.example",
		"description": "Builds bedside monitors for intensive care units.",
		"products": "Monitors, Telemetry",
		"certifications": ["CE Mark", "ISO 13485"],
		"fda_status": "FDA Cleared"
	}`)

	result, err := tool.Execute(context.Background(), input)
	require.NoError(t, err)
	assert.True(t, result.Success)

	data := result.Data.(map[string]interface{})
	assert.Equal(t, false, data["already_saved"])
	assert.Equal(t, 100, data["data_quality_score"])

	records := s.Records()
	require.Len(t, records, 1)
	assert.Equal(t, "Medora Devices", records[0].CompanyName)
	assert.Equal(t, "Completed", records[0].ResearchStatus)

	// saving again is skipped, not duplicated
	result, err = tool.Execute(context.Background(), input)
	require.NoError(t, err)
	assert.True(t, result.Success)
	data = result.Data.(map[string]interface{})
	assert.Equal(t, true, data["already_saved"])
	assert.Contains(t, result.Summary, "already saved")
	assert.Equal(t, 1, s.Len())
}

func TestSaveCompanyToolSkipsExistingNotionPage(t *testing.T) {
	var queries, creates int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasSuffix(r.URL.Path, "/query"):
			queries++
			if queries == 1 {
				_, _ = w.Write([]byte(`{"results":[]}`))
			} else {
				_, _ = w.Write([]byte(`{"results":[{"id":"existing-page"}]}`))
			}
		case r.URL.Path == "/pages":
			creates++
			_, _ = w.Write([]byte(`{"id":"page-1","url":"https://notion.example/page-1"}`))
		default:
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
	}))
	defer server.Close()

	s, err := store.New(t.TempDir())
	require.NoError(t, err)
	tool := &SaveCompanyTool{
		store:  s,
		notion: notion.NewClient("secret", "db-1", server.URL),
	}

	result, err := tool.Execute(context.Background(), json.RawMessage(`{"company_name":"Medora Devices"}`))
	require.NoError(t, err)
	data := result.Data.(map[string]interface{})
	assert.Equal(t, "page-1", data["notion_page_id"])
	assert.Equal(t, 1, creates)

	// tracker already has the second company, so no page is created
	result, err = tool.Execute(context.Background(), json.RawMessage(`{"company_name":"Vitalis Care"}`))
	require.NoError(t, err)
	data = result.Data.(map[string]interface{})
	assert.Equal(t, "already in tracker", data["notion_skipped"])
	assert.NotContains(t, data, "notion_page_id")
	assert.Equal(t, 1, creates)
	assert.Equal(t, 2, s.Len())
}

func TestSaveCompanyToolRequiresName(t *testing.T) {
	s, err := store.New(t.TempDir())
	require.NoError(t, err)

	tool := &SaveCompanyTool{store: s}
	result, err := tool.Execute(context.Background(), json.RawMessage(`{"specialty":"x"}`))

	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "company_name")
}
