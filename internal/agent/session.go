// Package agent drives the tool-calling research loop. A Session holds
// one conversation with the model: it forwards tool calls to the registry,
// feeds results back in order, and stops when the model finishes or the
// turn budget runs out.
package agent

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/gulfmed/scout/internal/agent/provider"
	"github.com/gulfmed/scout/internal/agent/tools"
	"github.com/gulfmed/scout/internal/logging"
	"github.com/gulfmed/scout/internal/metrics"
)

// DefaultMaxTurns bounds the tool-call loop. A session that has not
// produced a final answer by then is stopped rather than left spinning.
const DefaultMaxTurns = 30

// State describes how a session ended.
type State string

const (
	StateDone            State = "done"
	StateError           State = "error"
	StateBudgetExhausted State = "budget_exhausted"
)

// Stats counts what happened during one session.
type Stats struct {
	Turns        int   `json:"turns"`
	ToolCalls    int   `json:"tool_calls"`
	ToolErrors   int   `json:"tool_errors"`
	InputTokens  int   `json:"input_tokens"`
	OutputTokens int   `json:"output_tokens"`
	DurationMs   int64 `json:"duration_ms"`
}

// Outcome is the result of a completed session.
type Outcome struct {
	State       State  `json:"state"`
	FinalReport string `json:"final_report"`
	Stats       Stats  `json:"stats"`
}

// Session is one research conversation with the model.
type Session struct {
	ID           string
	provider     provider.Provider
	registry     *tools.Registry
	systemPrompt string
	maxTurns     int
	metrics      *metrics.Metrics
	logger       *logging.Logger

	messages []provider.Message
}

// Option configures a Session.
type Option func(*Session)

// WithMaxTurns overrides the turn budget.
func WithMaxTurns(n int) Option {
	return func(s *Session) {
		if n > 0 {
			s.maxTurns = n
		}
	}
}

// WithSystemPrompt replaces the default research prompt.
func WithSystemPrompt(prompt string) Option {
	return func(s *Session) { s.systemPrompt = prompt }
}

// WithMetrics attaches run metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Session) { s.metrics = m }
}

// NewSession creates a session over a provider and tool registry.
func NewSession(p provider.Provider, registry *tools.Registry, opts ...Option) *Session {
	s := &Session{
		ID:           uuid.NewString(),
		provider:     p,
		registry:     registry,
		systemPrompt: ResearchSystemPrompt,
		maxTurns:     DefaultMaxTurns,
		logger:       logging.GetLogger("agent"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run drives the conversation until the model ends its turn, an error
// occurs, or the turn budget is exhausted.
func (s *Session) Run(ctx context.Context, userPrompt string) (*Outcome, error) {
	start := time.Now()
	outcome := &Outcome{State: StateError}
	defer func() {
		outcome.Stats.DurationMs = time.Since(start).Milliseconds()
	}()

	s.messages = append(s.messages, provider.Message{
		Role:    provider.RoleUser,
		Content: userPrompt,
	})

	s.logger.InfoWithFields("session started",
		logging.Field("session_id", s.ID),
		logging.Field("provider", s.provider.Name()),
		logging.Field("model", s.provider.Model()),
	)

	toolDefs := s.registry.ToProviderTools()

	for turn := 0; turn < s.maxTurns; turn++ {
		if err := ctx.Err(); err != nil {
			s.recordError()
			return outcome, err
		}

		resp, err := s.provider.Chat(ctx, s.systemPrompt, s.messages, toolDefs)
		if err != nil {
			s.recordError()
			return outcome, fmt.Errorf("provider request failed on turn %d: %w", turn+1, err)
		}

		outcome.Stats.Turns++
		outcome.Stats.InputTokens += resp.Usage.InputTokens
		outcome.Stats.OutputTokens += resp.Usage.OutputTokens
		if s.metrics != nil {
			s.metrics.LLMRequestsTotal.Inc()
			s.metrics.LLMInputTokens.Add(float64(resp.Usage.InputTokens))
			s.metrics.LLMOutputTokens.Add(float64(resp.Usage.OutputTokens))
		}

		switch resp.StopReason {
		case provider.StopReasonToolUse:
			if len(resp.ToolCalls) == 0 {
				s.recordError()
				return outcome, fmt.Errorf("model requested tool use without tool calls")
			}
			s.handleToolCalls(ctx, resp, &outcome.Stats)

		case provider.StopReasonEndTurn:
			outcome.State = StateDone
			outcome.FinalReport = resp.Content
			s.logger.InfoWithFields("session finished",
				logging.Field("session_id", s.ID),
				logging.Field("turns", outcome.Stats.Turns),
				logging.Field("tool_calls", outcome.Stats.ToolCalls),
			)
			return outcome, nil

		case provider.StopReasonMaxTokens:
			// keep whatever the model managed to produce
			outcome.State = StateDone
			outcome.FinalReport = resp.Content
			s.logger.Warn("session %s hit the output token limit", s.ID)
			return outcome, nil

		default:
			s.recordError()
			return outcome, fmt.Errorf("unexpected stop reason %q", resp.StopReason)
		}
	}

	outcome.State = StateBudgetExhausted
	s.logger.WarnWithFields("session exhausted its turn budget",
		logging.Field("session_id", s.ID),
		logging.Field("max_turns", s.maxTurns),
	)
	return outcome, nil
}

// handleToolCalls executes every requested tool in order and appends the
// assistant turn plus one user turn carrying a result per call, matched
// by tool use ID.
func (s *Session) handleToolCalls(ctx context.Context, resp *provider.Response, stats *Stats) {
	s.messages = append(s.messages, provider.Message{
		Role:    provider.RoleAssistant,
		Content: resp.Content,
		ToolUse: resp.ToolCalls,
	})

	results := make([]provider.ToolResultBlock, 0, len(resp.ToolCalls))
	for _, call := range resp.ToolCalls {
		s.logger.DebugWithFields("executing tool",
			logging.Field("session_id", s.ID),
			logging.Field("tool", call.Name),
		)

		result := s.registry.Execute(ctx, call.Name, call.Input)
		stats.ToolCalls++
		if !result.Success {
			stats.ToolErrors++
		}

		results = append(results, provider.ToolResultBlock{
			ToolUseID: call.ID,
			Content:   encodeResult(result),
			IsError:   !result.Success,
		})
	}

	s.messages = append(s.messages, provider.Message{
		Role:       provider.RoleUser,
		ToolResult: results,
	})
}

func (s *Session) recordError() {
	if s.metrics != nil {
		s.metrics.SessionErrorTotal.Inc()
	}
}

// Messages returns the conversation so far, for inspection in tests.
func (s *Session) Messages() []provider.Message {
	return s.messages
}
