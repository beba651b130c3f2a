// Package batch runs research sessions across a list of specialties,
// either sequentially with a pause between topics or with a bounded
// worker pool, and writes per-topic reports plus a run summary.
package batch

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/gulfmed/scout/internal/agent"
	"github.com/gulfmed/scout/internal/logging"
	"github.com/gulfmed/scout/internal/store"
)

// SessionFactory builds a fresh session per topic so conversations never
// bleed into each other.
type SessionFactory func() *agent.Session

// TopicStats records the outcome of one specialty.
type TopicStats struct {
	Topic        string      `json:"topic"`
	State        agent.State `json:"state"`
	Turns        int         `json:"turns"`
	ToolCalls    int         `json:"tool_calls"`
	ToolErrors   int         `json:"tool_errors"`
	InputTokens  int         `json:"input_tokens"`
	OutputTokens int         `json:"output_tokens"`
	DurationMs   int64       `json:"duration_ms"`
	ReportPath   string      `json:"report_path,omitempty"`
	Error        string      `json:"error,omitempty"`
}

// Summary aggregates one batch run.
type Summary struct {
	StartedAt   string       `json:"started_at"`
	FinishedAt  string       `json:"finished_at"`
	Topics      []TopicStats `json:"topics"`
	Companies   int          `json:"companies"`
	Failed      int          `json:"failed"`
	TotalTokens int          `json:"total_tokens"`
}

// Config controls a batch run.
type Config struct {
	Topics     []string
	Workers    int           // >1 enables the concurrent pool
	TopicPause time.Duration // pause between topics in sequential mode
	OutputDir  string
}

// Driver runs research sessions over a set of topics.
type Driver struct {
	cfg      Config
	sessions SessionFactory
	store    *store.Store
	logger   *logging.Logger
	now      func() time.Time
}

// NewDriver creates a batch driver.
func NewDriver(cfg Config, sessions SessionFactory, st *store.Store) *Driver {
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	return &Driver{
		cfg:      cfg,
		sessions: sessions,
		store:    st,
		logger:   logging.GetLogger("batch"),
		now:      time.Now,
	}
}

// Run researches every topic and writes batch_summary.json. It keeps
// going when individual topics fail; only context cancellation aborts
// the run.
func (d *Driver) Run(ctx context.Context) (*Summary, error) {
	summary := &Summary{
		StartedAt: d.now().Format(time.RFC3339),
		Topics:    make([]TopicStats, len(d.cfg.Topics)),
	}

	var err error
	if d.cfg.Workers > 1 {
		err = d.runConcurrent(ctx, summary)
	} else {
		err = d.runSequential(ctx, summary)
	}

	summary.FinishedAt = d.now().Format(time.RFC3339)
	if d.store != nil {
		summary.Companies = d.store.Len()
	}
	for _, topic := range summary.Topics {
		if topic.Error != "" || topic.State == agent.StateError {
			summary.Failed++
		}
		summary.TotalTokens += topic.InputTokens + topic.OutputTokens
	}

	if writeErr := d.writeSummary(summary); writeErr != nil && err == nil {
		err = writeErr
	}
	return summary, err
}

func (d *Driver) runSequential(ctx context.Context, summary *Summary) error {
	for i, topic := range d.cfg.Topics {
		if i > 0 && d.cfg.TopicPause > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(d.cfg.TopicPause):
			}
		}
		summary.Topics[i] = d.researchTopic(ctx, topic)
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
	return nil
}

func (d *Driver) runConcurrent(ctx context.Context, summary *Summary) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.cfg.Workers)

	var mu sync.Mutex
	for i, topic := range d.cfg.Topics {
		g.Go(func() error {
			stats := d.researchTopic(gctx, topic)
			mu.Lock()
			summary.Topics[i] = stats
			mu.Unlock()
			return gctx.Err()
		})
	}
	return g.Wait()
}

// researchTopic runs one session and captures its outcome. Session
// failures land in the stats instead of aborting the batch.
func (d *Driver) researchTopic(ctx context.Context, topic string) TopicStats {
	stats := TopicStats{Topic: topic}

	d.logger.Info("researching topic: %s", topic)

	session := d.sessions()
	outcome, err := session.Run(ctx, agent.SpecialtyPrompt(topic))
	if outcome != nil {
		stats.State = outcome.State
		stats.Turns = outcome.Stats.Turns
		stats.ToolCalls = outcome.Stats.ToolCalls
		stats.ToolErrors = outcome.Stats.ToolErrors
		stats.InputTokens = outcome.Stats.InputTokens
		stats.OutputTokens = outcome.Stats.OutputTokens
		stats.DurationMs = outcome.Stats.DurationMs
	}
	if err != nil {
		stats.Error = err.Error()
		d.logger.ErrorWithFields("topic failed",
			logging.Field("topic", topic), logging.Field("error", err.Error()))
		return stats
	}

	if outcome.FinalReport != "" && d.cfg.OutputDir != "" {
		path, err := d.writeReport(topic, outcome.FinalReport)
		if err != nil {
			d.logger.Warn("failed to write report for %s: %v", topic, err)
		} else {
			stats.ReportPath = path
		}
	}
	return stats
}

func (d *Driver) writeReport(topic, report string) (string, error) {
	if err := os.MkdirAll(d.cfg.OutputDir, 0o755); err != nil {
		return "", err
	}
	name := strings.ReplaceAll(topic, " ", "_") + "_report.md"
	path := filepath.Join(d.cfg.OutputDir, name)

	content := fmt.Sprintf("# Research Report: %s\n\nGenerated: %s\n\n%s\n",
		topic, d.now().Format(time.RFC3339), report)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", err
	}
	return path, nil
}

func (d *Driver) writeSummary(summary *Summary) error {
	if d.cfg.OutputDir == "" {
		return nil
	}
	if err := os.MkdirAll(d.cfg.OutputDir, 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode summary: %w", err)
	}
	return os.WriteFile(filepath.Join(d.cfg.OutputDir, "batch_summary.json"), data, 0o644)
}
