package notion

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveCompany(t *testing.T) {
	var captured map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/pages", r.URL.Path)
		assert.Equal(t, "Bearer token", r.Header.Get("Authorization"))
		assert.Equal(t, "2022-06-28", r.Header.Get("Notion-Version"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		_, _ = w.Write([]byte(`{"id":"page-1","url":"https://notion.example/page-1"}`))
	}))
	defer server.Close()

	c := NewClient("token", "db-1", server.URL)
	c.now = func() time.Time { return time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC) }

	result, err := c.SaveCompany(context.Background(), Company{
		Name:              "Medora Devices",
		Specialty:         "Patient Monitoring",
		Website:           "https://medora.example",
		CEMark:            true,
		ISO13485:          true,
		GulfPresence:      "None/Unknown",
		DistributionModel: "Seeking Partners",
		ContactEmail:      "sales@medora.example",
		Notes:             "Strong fit for UAE tender work.",
	})

	require.NoError(t, err)
	assert.Equal(t, "page-1", result.PageID)

	parent := captured["parent"].(map[string]interface{})
	assert.Equal(t, "db-1", parent["database_id"])

	props := captured["properties"].(map[string]interface{})
	title := props["Company Name"].(map[string]interface{})["title"].([]interface{})
	text := title[0].(map[string]interface{})["text"].(map[string]interface{})
	assert.Equal(t, "Medora Devices", text["content"])

	status := props["Status"].(map[string]interface{})["select"].(map[string]interface{})
	assert.Equal(t, "Researched", status["name"])

	assert.Equal(t, true, props["CE Mark"].(map[string]interface{})["checkbox"])
	assert.Equal(t, false, props["FDA Cleared"].(map[string]interface{})["checkbox"])

	date := props["Research Date"].(map[string]interface{})["date"].(map[string]interface{})
	assert.Equal(t, "2026-03-14", date["start"])

	email := props["Contact Email"].(map[string]interface{})
	assert.Equal(t, "sales@medora.example", email["email"])
}

func TestSaveCompanyOmitsEmailWhenEmpty(t *testing.T) {
	var captured map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		_, _ = w.Write([]byte(`{"id":"page-2"}`))
	}))
	defer server.Close()

	c := NewClient("token", "db-1", server.URL)
	_, err := c.SaveCompany(context.Background(), Company{Name: "Medora"})

	require.NoError(t, err)
	props := captured["properties"].(map[string]interface{})
	_, hasEmail := props["Contact Email"]
	assert.False(t, hasEmail)
}

func TestSaveCompanyCapsRichText(t *testing.T) {
	var captured map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		_, _ = w.Write([]byte(`{"id":"page-3"}`))
	}))
	defer server.Close()

	c := NewClient("token", "db-1", server.URL)
	_, err := c.SaveCompany(context.Background(), Company{
		Name:  "Medora",
		Notes: strings.Repeat("x", 5000),
	})

	require.NoError(t, err)
	props := captured["properties"].(map[string]interface{})
	notes := props["Notes"].(map[string]interface{})["rich_text"].([]interface{})
	content := notes[0].(map[string]interface{})["text"].(map[string]interface{})["content"].(string)
	assert.Len(t, content, 2000)
}

func TestSaveCompanyMissingCredentials(t *testing.T) {
	c := NewClient("", "", "")
	_, err := c.SaveCompany(context.Background(), Company{Name: "Medora"})
	assert.Error(t, err)
}

func TestSaveCompanyAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"validation_error"}`, http.StatusBadRequest)
	}))
	defer server.Close()

	c := NewClient("token", "db-1", server.URL)
	_, err := c.SaveCompany(context.Background(), Company{Name: "Medora"})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 400")
}

func TestExists(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/databases/db-1/query", r.URL.Path)
		var payload map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		filter := payload["filter"].(map[string]interface{})
		assert.Equal(t, "Company Name", filter["property"])
		_, _ = w.Write([]byte(`{"results":[{"id":"page-1"}]}`))
	}))
	defer server.Close()

	c := NewClient("token", "db-1", server.URL)
	exists, err := c.Exists(context.Background(), "Medora")

	require.NoError(t, err)
	assert.True(t, exists)
}

func TestExistsEmptyResults(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"results":[]}`))
	}))
	defer server.Close()

	c := NewClient("token", "db-1", server.URL)
	exists, err := c.Exists(context.Background(), "Nobody")

	require.NoError(t, err)
	assert.False(t, exists)
}
