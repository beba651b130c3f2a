package store

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// Progress tracks which input rows finished, so an interrupted run can
// resume without repeating work.
type Progress struct {
	Completed []int `json:"completed"`
	Batch     int   `json:"batch"`
}

// LoadProgress reads a progress file. A missing file yields a fresh
// Progress, not an error.
func LoadProgress(path string) (*Progress, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return &Progress{Completed: []int{}}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read progress: %w", err)
	}

	var p Progress
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("failed to parse progress: %w", err)
	}
	if p.Completed == nil {
		p.Completed = []int{}
	}
	return &p, nil
}

// Save writes the progress file.
func (p *Progress) Save(path string) error {
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to encode progress: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write progress: %w", err)
	}
	return nil
}

// MarkDone records one completed row index.
func (p *Progress) MarkDone(index int) {
	for _, done := range p.Completed {
		if done == index {
			return
		}
	}
	p.Completed = append(p.Completed, index)
}

// IsDone reports whether a row index already completed.
func (p *Progress) IsDone(index int) bool {
	for _, done := range p.Completed {
		if done == index {
			return true
		}
	}
	return false
}

// Remaining returns the row indices in [0, total) not yet completed.
func (p *Progress) Remaining(total int) []int {
	done := make(map[int]bool, len(p.Completed))
	for _, idx := range p.Completed {
		done[idx] = true
	}
	remaining := []int{}
	for i := 0; i < total; i++ {
		if !done[i] {
			remaining = append(remaining, i)
		}
	}
	return remaining
}

// ReviewEntry scores one company's data quality.
type ReviewEntry struct {
	Company     string   `json:"company"`
	Score       int      `json:"score"`
	Issues      []string `json:"issues"`
	NeedsReview bool     `json:"needs_review"`
	Timestamp   string   `json:"timestamp"`
}

// Validate scores a record's completeness. Deductions: 25 for a missing
// or short description, 15 for no products, 10 for unknown FDA status,
// 20 for no website. Anything under 60 needs review.
func Validate(record CompanyRecord) ReviewEntry {
	score := 100
	issues := []string{}

	if len(record.CompanyDescription) < 20 {
		issues = append(issues, "Missing/short description")
		score -= 25
	}
	if record.KeyProductsSolutions == "" {
		issues = append(issues, "No products found")
		score -= 15
	}
	if record.FDAStatus == "Unknown" || record.FDAStatus == "" {
		issues = append(issues, "FDA unknown")
		score -= 10
	}
	if record.Website == "" {
		issues = append(issues, "No website")
		score -= 20
	}

	if score < 0 {
		score = 0
	}
	return ReviewEntry{
		Company:     record.CompanyName,
		Score:       score,
		Issues:      issues,
		NeedsReview: score < 60,
		Timestamp:   time.Now().Format(time.RFC3339),
	}
}

// ReviewLog collects validation results for one run.
type ReviewLog struct {
	entries []ReviewEntry
}

// Add validates a record and appends the result.
func (l *ReviewLog) Add(record CompanyRecord) ReviewEntry {
	entry := Validate(record)
	l.entries = append(l.entries, entry)
	return entry
}

// Entries returns all logged reviews.
func (l *ReviewLog) Entries() []ReviewEntry {
	return l.entries
}

// Save writes the review log as JSON.
func (l *ReviewLog) Save(path string) error {
	data, err := json.MarshalIndent(l.entries, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode review log: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}
