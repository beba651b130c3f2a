// Package tools provides the tool registry and execution for research sessions.
package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gulfmed/scout/internal/agent/provider"
	"github.com/gulfmed/scout/internal/logging"
	"github.com/gulfmed/scout/internal/metrics"
	"github.com/gulfmed/scout/internal/notion"
	"github.com/gulfmed/scout/internal/research/competitors"
	"github.com/gulfmed/scout/internal/research/contacts"
	"github.com/gulfmed/scout/internal/research/fda"
	"github.com/gulfmed/scout/internal/research/scrape"
	"github.com/gulfmed/scout/internal/research/search"
	"github.com/gulfmed/scout/internal/store"
)

const (
	// MaxToolResponseBytes is the maximum size of a tool response in bytes.
	// Responses larger than this will be truncated to prevent context overflow.
	// 50KB is a reasonable limit (~12,500 tokens at 4 chars/token).
	MaxToolResponseBytes = 50 * 1024
)

// truncatedData is used when tool output exceeds MaxToolResponseBytes.
// It preserves structure while indicating data was truncated.
type truncatedData struct {
	Truncated      bool   `json:"_truncated"`
	OriginalBytes  int    `json:"_original_bytes"`
	TruncatedBytes int    `json:"_truncated_bytes"`
	TruncationNote string `json:"_truncation_note"`
	PartialData    string `json:"partial_data"`
}

// truncateResult checks if the result data exceeds MaxToolResponseBytes and
// truncates it if necessary to prevent context overflow.
func truncateResult(result *Result, maxBytes int) *Result {
	if result == nil || result.Data == nil {
		return result
	}

	dataBytes, err := json.Marshal(result.Data)
	if err != nil {
		// If we can't marshal, return as-is and let the caller handle it
		return result
	}

	if len(dataBytes) <= maxBytes {
		return result
	}

	// Keep some of the original data for context (first ~80% of allowed bytes)
	partialDataBytes := maxBytes * 80 / 100
	partialData := string(dataBytes)
	if len(partialData) > partialDataBytes {
		partialData = partialData[:partialDataBytes]
	}

	truncated := &truncatedData{
		Truncated:      true,
		OriginalBytes:  len(dataBytes),
		TruncatedBytes: maxBytes,
		TruncationNote: fmt.Sprintf("Response truncated from %d to ~%d bytes to prevent context overflow. Consider using more specific filters to reduce result size.", len(dataBytes), maxBytes),
		PartialData:    partialData,
	}

	summary := result.Summary
	if summary != "" {
		summary = fmt.Sprintf("%s [TRUNCATED: %d→%d bytes]", summary, len(dataBytes), maxBytes)
	} else {
		summary = fmt.Sprintf("[TRUNCATED: %d→%d bytes]", len(dataBytes), maxBytes)
	}

	return &Result{
		Success:         result.Success,
		Data:            truncated,
		Error:           result.Error,
		Summary:         summary,
		ExecutionTimeMs: result.ExecutionTimeMs,
	}
}

// Tool defines the interface for agent tools.
type Tool interface {
	// Name returns the tool's unique identifier.
	Name() string

	// Description returns a human-readable description for the LLM.
	Description() string

	// InputSchema returns JSON Schema for input validation.
	InputSchema() map[string]interface{}

	// Execute runs the tool with given input.
	Execute(ctx context.Context, input json.RawMessage) (*Result, error)
}

// Result represents the output of a tool execution.
type Result struct {
	// Success indicates if the tool executed successfully
	Success bool `json:"success"`

	// Data contains the tool's output (tool-specific structure)
	Data interface{} `json:"data,omitempty"`

	// Error contains error details if Success is false
	Error string `json:"error,omitempty"`

	// Summary is a brief description of what happened (for display)
	Summary string `json:"summary,omitempty"`

	// ExecutionTimeMs is how long the tool took to run
	ExecutionTimeMs int64 `json:"executionTimeMs"`
}

// Registry manages tool registration and discovery.
type Registry struct {
	tools  map[string]Tool
	mu     sync.RWMutex
	logger *logging.Logger
}

// Dependencies contains the external collaborators tools are built from.
// Nil entries skip the tools that need them, so a run without Notion
// credentials simply has no save_company tool.
type Dependencies struct {
	Search      *search.Client
	Scraper     *scrape.Scraper
	FDA         *fda.Client
	Competitors *competitors.Analyzer
	Contacts    *contacts.Finder
	Notion      *notion.Client
	Store       *store.Store
	Metrics     *metrics.Metrics
}

// NewRegistry creates a tool registry wired to the provided dependencies.
func NewRegistry(deps Dependencies) *Registry {
	r := &Registry{
		tools:  make(map[string]Tool),
		logger: logging.GetLogger("agent.tools"),
	}

	if deps.Search != nil {
		r.register(&SearchManufacturersTool{client: deps.Search, metrics: deps.Metrics})
		r.register(&SearchCompanyDetailsTool{client: deps.Search, metrics: deps.Metrics})
	}
	if deps.Scraper != nil {
		r.register(&ScrapeCompanyWebsiteTool{scraper: deps.Scraper, metrics: deps.Metrics})
	}
	if deps.FDA != nil {
		r.register(&CheckFDAStatusTool{client: deps.FDA, metrics: deps.Metrics})
		r.register(&FDAProfileTool{client: deps.FDA, metrics: deps.Metrics})
	}
	if deps.Competitors != nil {
		r.register(&MapCompetitorsTool{analyzer: deps.Competitors})
	}
	if deps.Contacts != nil {
		r.register(&FindContactsTool{finder: deps.Contacts, metrics: deps.Metrics})
	}
	if deps.Store != nil {
		r.register(&SaveCompanyTool{store: deps.Store, notion: deps.Notion, metrics: deps.Metrics})
	}

	return r
}

// register adds a tool to the registry (internal, no locking).
func (r *Registry) register(tool Tool) {
	r.tools[tool.Name()] = tool
	r.logger.Debug("registered tool %s", tool.Name())
}

// Register adds a tool to the registry.
func (r *Registry) Register(tool Tool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.register(tool)
}

// Get returns a tool by name.
func (r *Registry) Get(name string) (Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	tool, ok := r.tools[name]
	return tool, ok
}

// List returns all registered tools.
func (r *Registry) List() []Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tools := make([]Tool, 0, len(r.tools))
	for _, tool := range r.tools {
		tools = append(tools, tool)
	}
	return tools
}

// ToProviderTools converts registry tools to provider tool definitions.
func (r *Registry) ToProviderTools() []provider.ToolDefinition {
	r.mu.RLock()
	defer r.mu.RUnlock()

	defs := make([]provider.ToolDefinition, 0, len(r.tools))
	for _, tool := range r.tools {
		defs = append(defs, provider.ToolDefinition{
			Name:        tool.Name(),
			Description: tool.Description(),
			InputSchema: tool.InputSchema(),
		})
	}
	return defs
}

// Execute runs a tool by name with the given input. It always returns a
// Result; an unknown tool or a failing tool comes back as Success=false
// so the model can react instead of the session dying.
func (r *Registry) Execute(ctx context.Context, name string, input json.RawMessage) *Result {
	tool, ok := r.Get(name)
	if !ok {
		return &Result{
			Success: false,
			Error:   fmt.Sprintf("tool %q not found", name),
		}
	}

	start := time.Now()
	result, err := tool.Execute(ctx, input)
	if err != nil {
		return &Result{
			Success:         false,
			Error:           err.Error(),
			ExecutionTimeMs: time.Since(start).Milliseconds(),
		}
	}

	result.ExecutionTimeMs = time.Since(start).Milliseconds()

	return truncateResult(result, MaxToolResponseBytes)
}
