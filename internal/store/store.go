// Package store persists research output: company records flushed to CSV
// chunks, a resume file tracking completed rows, and a data quality
// review log. One Store instance is the single writer for a run; callers
// from concurrent sessions go through its mutex.
package store

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/gulfmed/scout/internal/logging"
)

// CompanyRecord is one researched company row.
type CompanyRecord struct {
	CompanyName            string `json:"company_name"`
	Specialty              string `json:"specialty"`
	Relevance              string `json:"relevance"`
	PrevalenceOfIndication string `json:"prevalence_of_indication"`
	PrimaryFocus           string `json:"primary_focus"`
	KeyProductsSolutions   string `json:"key_products_solutions"`
	FDAStatus              string `json:"fda_status"`
	PriorityLevel          string `json:"priority_level"`
	Website                string `json:"website"`
	Notes                  string `json:"notes"`
	CompanyDescription     string `json:"company_description"`
	Uniqueness             string `json:"uniqueness"`
	Competitors            string `json:"competitors"`
	Email                  string `json:"email"`
	Phone                  string `json:"phone"`
	Location               string `json:"location"`
	ResearchDate           string `json:"research_date"`
	ResearchStatus         string `json:"research_status"`
}

// csvHeader fixes the column order of every chunk and consolidated file.
var csvHeader = []string{
	"company_name", "specialty", "relevance", "prevalence_of_indication",
	"primary_focus", "key_products_solutions", "fda_status", "priority_level",
	"website", "notes", "company_description", "uniqueness", "competitors",
	"email", "phone", "location", "research_date", "research_status",
}

func (r CompanyRecord) row() []string {
	return []string{
		r.CompanyName, r.Specialty, r.Relevance, r.PrevalenceOfIndication,
		r.PrimaryFocus, r.KeyProductsSolutions, r.FDAStatus, r.PriorityLevel,
		r.Website, r.Notes, r.CompanyDescription, r.Uniqueness, r.Competitors,
		r.Email, r.Phone, r.Location, r.ResearchDate, r.ResearchStatus,
	}
}

func recordFromRow(row []string) CompanyRecord {
	get := func(i int) string {
		if i < len(row) {
			return row[i]
		}
		return ""
	}
	return CompanyRecord{
		CompanyName:            get(0),
		Specialty:              get(1),
		Relevance:              get(2),
		PrevalenceOfIndication: get(3),
		PrimaryFocus:           get(4),
		KeyProductsSolutions:   get(5),
		FDAStatus:              get(6),
		PriorityLevel:          get(7),
		Website:                get(8),
		Notes:                  get(9),
		CompanyDescription:     get(10),
		Uniqueness:             get(11),
		Competitors:            get(12),
		Email:                  get(13),
		Phone:                  get(14),
		Location:               get(15),
		ResearchDate:           get(16),
		ResearchStatus:         get(17),
	}
}

// Store accumulates records and flushes them to CSV chunks in outputDir.
type Store struct {
	mu        sync.Mutex
	outputDir string
	pending   []CompanyRecord
	names     map[string]struct{}
	chunk     int
	logger    *logging.Logger
}

// New creates a store writing under outputDir, creating it if needed.
// Chunks left by an earlier run over the same directory are picked up:
// the chunk counter continues after the highest existing number so old
// chunks are never overwritten, and their company names count as already
// recorded.
func New(outputDir string) (*Store, error) {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output dir: %w", err)
	}
	s := &Store{
		outputDir: outputDir,
		names:     make(map[string]struct{}),
		logger:    logging.GetLogger("store"),
	}

	chunks, err := filepath.Glob(filepath.Join(outputDir, "research_batch_*.csv"))
	if err != nil {
		return nil, fmt.Errorf("failed to list chunks: %w", err)
	}
	for _, chunk := range chunks {
		if n := chunkNumber(chunk); n > s.chunk {
			s.chunk = n
		}
		records, err := readCSV(chunk)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", chunk, err)
		}
		for _, record := range records {
			s.names[record.CompanyName] = struct{}{}
		}
	}
	return s, nil
}

// Append adds a record unless the company name is already recorded, in
// this run or in a chunk from an earlier one. It reports whether the
// record was stored.
func (s *Store) Append(record CompanyRecord) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.names[record.CompanyName]; ok {
		return false
	}
	s.names[record.CompanyName] = struct{}{}
	s.pending = append(s.pending, record)
	return true
}

// Has reports whether a company is already recorded.
func (s *Store) Has(companyName string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.names[companyName]
	return ok
}

// Len returns the number of pending records.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

// Records returns a copy of the pending records.
func (s *Store) Records() []CompanyRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]CompanyRecord, len(s.pending))
	copy(out, s.pending)
	return out
}

// FlushChunk writes the pending records to research_batch_N.csv and
// clears the buffer. Flushing an empty buffer is a no-op.
func (s *Store) FlushChunk() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.pending) == 0 {
		return "", nil
	}

	s.chunk++
	path := filepath.Join(s.outputDir, fmt.Sprintf("research_batch_%d.csv", s.chunk))
	if err := writeCSV(path, s.pending); err != nil {
		s.chunk--
		return "", err
	}

	s.logger.InfoWithFields("flushed chunk",
		logging.Field("path", path), logging.Field("records", len(s.pending)))

	// names stays populated so flushed companies are still skipped
	s.pending = s.pending[:0]
	return path, nil
}

// Consolidate merges every research_batch_*.csv in the output directory
// into one file, deduplicating by company name with the later occurrence
// winning. It returns the consolidated path and row count.
func (s *Store) Consolidate(filename string) (string, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	pattern := filepath.Join(s.outputDir, "research_batch_*.csv")
	chunks, err := filepath.Glob(pattern)
	if err != nil {
		return "", 0, fmt.Errorf("failed to list chunks: %w", err)
	}
	sort.Slice(chunks, func(i, j int) bool {
		return chunkNumber(chunks[i]) < chunkNumber(chunks[j])
	})

	byName := make(map[string]int)
	var merged []CompanyRecord
	for _, chunk := range chunks {
		records, err := readCSV(chunk)
		if err != nil {
			return "", 0, fmt.Errorf("failed to read %s: %w", chunk, err)
		}
		for _, record := range records {
			if idx, ok := byName[record.CompanyName]; ok {
				merged[idx] = record
				continue
			}
			byName[record.CompanyName] = len(merged)
			merged = append(merged, record)
		}
	}

	// records not yet flushed are included too
	for _, record := range s.pending {
		if idx, ok := byName[record.CompanyName]; ok {
			merged[idx] = record
			continue
		}
		byName[record.CompanyName] = len(merged)
		merged = append(merged, record)
	}

	path := filepath.Join(s.outputDir, filename)
	if err := writeCSV(path, merged); err != nil {
		return "", 0, err
	}

	s.logger.InfoWithFields("consolidated research output",
		logging.Field("path", path),
		logging.Field("chunks", len(chunks)),
		logging.Field("companies", len(merged)),
	)
	return path, len(merged), nil
}

func chunkNumber(path string) int {
	var n int
	_, _ = fmt.Sscanf(filepath.Base(path), "research_batch_%d.csv", &n)
	return n
}

func writeCSV(path string, records []CompanyRecord) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer func() {
		_ = f.Close()
	}()

	w := csv.NewWriter(f)
	if err := w.Write(csvHeader); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for _, record := range records {
		if err := w.Write(record.row()); err != nil {
			return fmt.Errorf("failed to write row: %w", err)
		}
	}
	w.Flush()
	return w.Error()
}

func readCSV(path string) ([]CompanyRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = f.Close()
	}()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	rows, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(rows) <= 1 {
		return nil, nil
	}

	records := make([]CompanyRecord, 0, len(rows)-1)
	for _, row := range rows[1:] {
		records = append(records, recordFromRow(row))
	}
	return records, nil
}

// ReadInput loads an input CSV of companies to enrich. Expected columns:
// company_name, website, category, email, phone, location. Missing
// columns come back empty.
func ReadInput(path string) ([]InputRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open input: %w", err)
	}
	defer func() {
		_ = f.Close()
	}()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse input: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	col := make(map[string]int)
	for i, name := range rows[0] {
		col[name] = i
	}
	get := func(row []string, name string) string {
		idx, ok := col[name]
		if !ok || idx >= len(row) {
			return ""
		}
		return row[idx]
	}

	input := make([]InputRow, 0, len(rows)-1)
	for _, row := range rows[1:] {
		input = append(input, InputRow{
			CompanyName: get(row, "company_name"),
			Website:     get(row, "website"),
			Category:    get(row, "category"),
			Email:       get(row, "email"),
			Phone:       get(row, "phone"),
			Location:    get(row, "location"),
		})
	}
	return input, nil
}

// InputRow is one company from an input CSV awaiting enrichment.
type InputRow struct {
	CompanyName string
	Website     string
	Category    string
	Email       string
	Phone       string
	Location    string
}

// Today formats the research date the way the tracker expects.
func Today() string {
	return time.Now().Format("2006-01-02")
}
