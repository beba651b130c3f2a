// Package enrich runs the row pipeline over an input spreadsheet of
// companies: scrape the website, search when the site yields nothing,
// analyze, attach same-category competitors, validate, and flush
// results in resumable chunks.
package enrich

import (
	"context"
	"fmt"
	"strings"

	"github.com/gulfmed/scout/internal/logging"
	"github.com/gulfmed/scout/internal/research/analysis"
	"github.com/gulfmed/scout/internal/research/scrape"
	"github.com/gulfmed/scout/internal/research/search"
	"github.com/gulfmed/scout/internal/store"
)

// Config controls an enrichment run.
type Config struct {
	BatchSize    int    // rows per flushed chunk
	ProgressPath string // progress file for resume
	ReviewPath   string // review log destination, empty to skip
}

// Enricher researches one input row at a time without an LLM agent loop,
// which makes it cheap enough for large spreadsheets.
type Enricher struct {
	scraper  *scrape.Scraper
	search   *search.Client
	analyzer *analysis.Analyzer
	store    *store.Store
	logger   *logging.Logger
}

// New creates an enricher. The analyzer decides between model and
// rule-based profiles on its own.
func New(scraper *scrape.Scraper, searcher *search.Client, analyzer *analysis.Analyzer, st *store.Store) *Enricher {
	return &Enricher{
		scraper:  scraper,
		search:   searcher,
		analyzer: analyzer,
		store:    st,
		logger:   logging.GetLogger("enrich"),
	}
}

// Stats summarizes one enrichment run.
type Stats struct {
	Processed   int `json:"processed"`
	Skipped     int `json:"skipped"`
	NeedsReview int `json:"needs_review"`
	Chunks      int `json:"chunks"`
}

// Run enriches every row not already marked complete in the progress
// file, flushing a chunk every cfg.BatchSize rows. Row failures are
// recorded and skipped, never fatal.
func (e *Enricher) Run(ctx context.Context, rows []store.InputRow, cfg Config) (*Stats, error) {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 20
	}

	progress, err := store.LoadProgress(cfg.ProgressPath)
	if err != nil {
		return nil, err
	}

	remaining := progress.Remaining(len(rows))
	e.logger.InfoWithFields("enrichment starting",
		logging.Field("rows", len(rows)),
		logging.Field("remaining", len(remaining)),
	)

	stats := &Stats{Skipped: len(rows) - len(remaining)}
	var review store.ReviewLog
	sinceFlush := 0

	for _, idx := range remaining {
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		record := e.enrichRow(ctx, rows[idx], rows)
		entry := review.Add(record)
		if entry.NeedsReview {
			stats.NeedsReview++
		}
		record.Notes = notesFor(entry)

		e.store.Append(record)
		progress.MarkDone(idx)
		stats.Processed++
		sinceFlush++

		if sinceFlush >= cfg.BatchSize {
			if _, err := e.store.FlushChunk(); err != nil {
				return stats, fmt.Errorf("chunk flush failed: %w", err)
			}
			stats.Chunks++
			sinceFlush = 0
			progress.Batch++
			if err := progress.Save(cfg.ProgressPath); err != nil {
				return stats, err
			}
		}
	}

	if sinceFlush > 0 {
		if _, err := e.store.FlushChunk(); err != nil {
			return stats, fmt.Errorf("final flush failed: %w", err)
		}
		stats.Chunks++
		progress.Batch++
	}
	if err := progress.Save(cfg.ProgressPath); err != nil {
		return stats, err
	}

	if cfg.ReviewPath != "" {
		if err := review.Save(cfg.ReviewPath); err != nil {
			e.logger.Warn("failed to write review log: %v", err)
		}
	}

	e.logger.InfoWithFields("enrichment finished",
		logging.Field("processed", stats.Processed),
		logging.Field("needs_review", stats.NeedsReview),
	)
	return stats, nil
}

// enrichRow runs the full pipeline for one company.
func (e *Enricher) enrichRow(ctx context.Context, row store.InputRow, all []store.InputRow) store.CompanyRecord {
	category := row.Category
	if category == "" {
		category = "Other / Uncategorized"
	}

	record := store.CompanyRecord{
		CompanyName:    strings.TrimSpace(row.CompanyName),
		Website:        cleanURL(row.Website),
		Specialty:      category,
		Email:          row.Email,
		Phone:          row.Phone,
		Location:       row.Location,
		ResearchDate:   store.Today(),
		ResearchStatus: "Completed",
	}

	in := analysis.Input{
		CompanyName: record.CompanyName,
		Category:    category,
	}

	if record.Website != "" && e.scraper != nil {
		info := e.scraper.ScrapeCompany(ctx, record.Website)
		if info.Success {
			in.WebDescription = info.Description
			in.Headings = info.Products
			in.FDAMentions = info.FDAMentions
			if record.Email == "" && len(info.Emails) > 0 {
				record.Email = info.Emails[0]
			}
			if record.Phone == "" && len(info.Phones) > 0 {
				record.Phone = info.Phones[0]
			}
		}
	}

	if in.WebDescription == "" && e.search != nil {
		query := record.CompanyName + " medical device company"
		for _, r := range e.search.Search(ctx, query, 3) {
			in.SearchSnippets = append(in.SearchSnippets, r.Description)
		}
	}

	profile := e.analyzer.Analyze(ctx, in)
	record.CompanyDescription = profile.Description
	record.PrimaryFocus = profile.PrimaryFocus
	record.KeyProductsSolutions = profile.Products
	record.FDAStatus = profile.FDAStatus
	record.Relevance = profile.Relevance
	record.PriorityLevel = profile.Priority
	record.Uniqueness = profile.Uniqueness
	record.PrevalenceOfIndication = profile.Market

	record.Competitors = siblingCompetitors(row, all)
	return record
}

// siblingCompetitors names up to five other input companies in the same
// category. The uncategorized bucket carries no signal, so it gets none.
func siblingCompetitors(row store.InputRow, all []store.InputRow) string {
	if row.Category == "" || row.Category == "Other / Uncategorized" {
		return ""
	}
	var names []string
	for _, other := range all {
		if other.Category != row.Category || other.CompanyName == row.CompanyName {
			continue
		}
		names = append(names, other.CompanyName)
		if len(names) >= 5 {
			break
		}
	}
	return strings.Join(names, ", ")
}

func notesFor(entry store.ReviewEntry) string {
	if len(entry.Issues) == 0 {
		return "Complete"
	}
	return strings.Join(entry.Issues, "; ")
}

func cleanURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	if !strings.HasPrefix(raw, "http://") && !strings.HasPrefix(raw, "https://") {
		raw = "https://" + raw
	}
	return strings.TrimRight(raw, "/")
}
