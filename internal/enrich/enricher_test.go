package enrich

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gulfmed/scout/internal/research/analysis"
	"github.com/gulfmed/scout/internal/research/scrape"
	"github.com/gulfmed/scout/internal/store"
)

const companySite = `<html><head>
<title>Medora Devices</title>
<meta name="description" content="Medora builds cardiac monitors used in intensive care.">
</head><body>
<h2>Cardiac Monitors</h2>
<p>Our devices are FDA cleared. Email sales@medora.example.</p>
</body></html>`

func TestEnricherRun(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(companySite))
	}))
	defer server.Close()

	dir := t.TempDir()
	st, err := store.New(dir)
	require.NoError(t, err)

	e := New(scrape.New(nil), nil, analysis.New(nil, nil), st)

	rows := []store.InputRow{
		{CompanyName: "Medora", Website: server.URL, Category: "Cardiology"},
		{CompanyName: "Vitalis", Website: "", Category: "Cardiology"},
	}

	progressPath := filepath.Join(dir, "progress.json")
	stats, err := e.Run(context.Background(), rows, Config{
		BatchSize:    1,
		ProgressPath: progressPath,
		ReviewPath:   filepath.Join(dir, "review.json"),
	})

	require.NoError(t, err)
	assert.Equal(t, 2, stats.Processed)
	assert.Equal(t, 2, stats.Chunks)
	assert.Zero(t, stats.Skipped)

	path, count, err := st.Consolidate("results.csv")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
	assert.FileExists(t, path)

	progress, err := store.LoadProgress(progressPath)
	require.NoError(t, err)
	assert.Empty(t, progress.Remaining(2))
}

func TestEnricherResumesFromProgress(t *testing.T) {
	dir := t.TempDir()
	st, err := store.New(dir)
	require.NoError(t, err)

	progressPath := filepath.Join(dir, "progress.json")
	seed := &store.Progress{Completed: []int{0}}
	require.NoError(t, seed.Save(progressPath))

	e := New(nil, nil, analysis.New(nil, nil), st)
	rows := []store.InputRow{
		{CompanyName: "Done Co", Category: "Other"},
		{CompanyName: "Pending Co", Category: "Other"},
	}

	stats, err := e.Run(context.Background(), rows, Config{ProgressPath: progressPath})

	require.NoError(t, err)
	assert.Equal(t, 1, stats.Processed)
	assert.Equal(t, 1, stats.Skipped)
}

func TestEnrichRowFillsFromScrape(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(companySite))
	}))
	defer server.Close()

	e := New(scrape.New(nil), nil, analysis.New(nil, nil), nil)
	rows := []store.InputRow{
		{CompanyName: "Medora", Website: server.URL, Category: "Cardiology"},
		{CompanyName: "Vitalis", Category: "Cardiology"},
		{CompanyName: "Nordson", Category: "Cardiology"},
	}

	record := e.enrichRow(context.Background(), rows[0], rows)

	assert.Equal(t, "Medora builds cardiac monitors used in intensive care.", record.CompanyDescription)
	assert.Equal(t, "sales@medora.example", record.Email)
	assert.Equal(t, "FDA Cleared", record.FDAStatus)
	assert.Equal(t, "High", record.Relevance)
	assert.Equal(t, "Vitalis, Nordson", record.Competitors)
	assert.Equal(t, "Completed", record.ResearchStatus)
}

func TestSiblingCompetitorsSkipsUncategorized(t *testing.T) {
	rows := []store.InputRow{
		{CompanyName: "A", Category: "Other / Uncategorized"},
		{CompanyName: "B", Category: "Other / Uncategorized"},
	}
	assert.Empty(t, siblingCompetitors(rows[0], rows))
}

func TestCleanURL(t *testing.T) {
	assert.Equal(t, "https://medora.example", cleanURL("medora.example/"))
	assert.Equal(t, "http://medora.example", cleanURL("http://medora.example"))
	assert.Empty(t, cleanURL("  "))
}
