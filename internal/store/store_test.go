package store

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(t.TempDir())
	require.NoError(t, err)
	return s
}

func TestAppendSkipsExistingName(t *testing.T) {
	s := newTestStore(t)

	assert.True(t, s.Append(CompanyRecord{CompanyName: "Medora", Relevance: "Low"}))
	assert.False(t, s.Append(CompanyRecord{CompanyName: "Medora", Relevance: "High"}))
	assert.True(t, s.Append(CompanyRecord{CompanyName: "Vitalis"}))

	records := s.Records()
	require.Len(t, records, 2)
	assert.Equal(t, "Low", records[0].Relevance)
	assert.True(t, s.Has("Medora"))
	assert.False(t, s.Has("medora"))
}

func TestFlushChunkRoundTrip(t *testing.T) {
	s := newTestStore(t)
	s.Append(CompanyRecord{CompanyName: "Medora", Specialty: "Patient Monitoring", FDAStatus: "FDA Cleared"})

	path, err := s.FlushChunk()
	require.NoError(t, err)
	assert.Equal(t, "research_batch_1.csv", filepath.Base(path))
	assert.Zero(t, s.Len())

	records, err := readCSV(path)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "Medora", records[0].CompanyName)
	assert.Equal(t, "FDA Cleared", records[0].FDAStatus)

	// flushed companies stay recorded
	assert.False(t, s.Append(CompanyRecord{CompanyName: "Medora"}))
	assert.True(t, s.Has("Medora"))
}

func TestFlushChunkEmptyIsNoop(t *testing.T) {
	s := newTestStore(t)
	path, err := s.FlushChunk()
	require.NoError(t, err)
	assert.Empty(t, path)
}

func TestConsolidateKeepsLater(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, writeCSV(filepath.Join(dir, "research_batch_1.csv"), []CompanyRecord{
		{CompanyName: "Medora", Relevance: "Low"},
		{CompanyName: "Vitalis", Relevance: "Medium"},
	}))
	require.NoError(t, writeCSV(filepath.Join(dir, "research_batch_2.csv"), []CompanyRecord{
		{CompanyName: "Medora", Relevance: "High"},
	}))

	s, err := New(dir)
	require.NoError(t, err)

	path, count, err := s.Consolidate("research_results.csv")
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	records, err := readCSV(path)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "Medora", records[0].CompanyName)
	assert.Equal(t, "High", records[0].Relevance)
	assert.Equal(t, "Vitalis", records[1].CompanyName)
}

func TestResumedRunKeepsEarlierChunks(t *testing.T) {
	dir := t.TempDir()

	first, err := New(dir)
	require.NoError(t, err)
	first.Append(CompanyRecord{CompanyName: "Medora", Relevance: "High"})
	firstPath, err := first.FlushChunk()
	require.NoError(t, err)

	// a second run over the same directory continues the chunk numbering
	// and already knows the flushed companies
	second, err := New(dir)
	require.NoError(t, err)
	assert.False(t, second.Append(CompanyRecord{CompanyName: "Medora"}))
	assert.True(t, second.Append(CompanyRecord{CompanyName: "Vitalis"}))

	secondPath, err := second.FlushChunk()
	require.NoError(t, err)
	assert.NotEqual(t, firstPath, secondPath)
	assert.Equal(t, "research_batch_2.csv", filepath.Base(secondPath))

	path, count, err := second.Consolidate("research_results.csv")
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	records, err := readCSV(path)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "Medora", records[0].CompanyName)
	assert.Equal(t, "High", records[0].Relevance)
	assert.Equal(t, "Vitalis", records[1].CompanyName)
}

func TestConsolidateIncludesPending(t *testing.T) {
	s := newTestStore(t)
	s.Append(CompanyRecord{CompanyName: "Medora"})

	_, count, err := s.Consolidate("out.csv")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestProgressRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "progress.json")

	p, err := LoadProgress(path)
	require.NoError(t, err)
	assert.Empty(t, p.Completed)

	p.MarkDone(0)
	p.MarkDone(2)
	p.MarkDone(2)
	p.Batch = 1
	require.NoError(t, p.Save(path))

	loaded, err := LoadProgress(path)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 2}, loaded.Completed)
	assert.Equal(t, 1, loaded.Batch)
	assert.True(t, loaded.IsDone(2))
	assert.Equal(t, []int{1, 3}, loaded.Remaining(4))
}

func TestValidateScoring(t *testing.T) {
	full := Validate(CompanyRecord{
		CompanyName:          "Medora",
		CompanyDescription:   "Builds bedside monitors for intensive care units.",
		KeyProductsSolutions: "Monitors",
		FDAStatus:            "FDA Cleared",
		Website:              "https://medora.example",
	})
	assert.Equal(t, 100, full.Score)
	assert.False(t, full.NeedsReview)
	assert.Empty(t, full.Issues)

	sparse := Validate(CompanyRecord{CompanyName: "Ghost Co"})
	assert.Equal(t, 30, sparse.Score)
	assert.True(t, sparse.NeedsReview)
	assert.Len(t, sparse.Issues, 4)
}

func TestReviewLogSave(t *testing.T) {
	var log ReviewLog
	log.Add(CompanyRecord{CompanyName: "Medora"})

	path := filepath.Join(t.TempDir(), "review.json")
	require.NoError(t, log.Save(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Medora")
}

func TestReadInput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "input.csv")
	csv := "company_name,website,category,email\nMedora,https://medora.example,Cardiology,sales@medora.example\nVitalis,,Other,\n"
	require.NoError(t, os.WriteFile(path, []byte(csv), 0o644))

	rows, err := ReadInput(path)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Medora", rows[0].CompanyName)
	assert.Equal(t, "Cardiology", rows[0].Category)
	assert.Empty(t, rows[0].Phone)
	assert.Equal(t, "Vitalis", rows[1].CompanyName)
}
