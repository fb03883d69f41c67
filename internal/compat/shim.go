// Package compat lets single-shot legacy chat callers run on top of the
// iterative agent, falling back to the one-call path when asked to.
package compat

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ashutoshrp06/brainhands/internal/agent"
	"github.com/ashutoshrp06/brainhands/internal/llm"
	"github.com/ashutoshrp06/brainhands/internal/types"
	"github.com/ashutoshrp06/brainhands/internal/validator"
	"github.com/ashutoshrp06/brainhands/pkg/models"
	"go.uber.org/zap"
)

// Flags select the code path for one call.
type Flags struct {
	UseNewAgentSystem bool
	EnableFallback    bool
}

// Request is the legacy send-message shape.
type Request struct {
	APIKey          string
	ModelName       string
	HistoryMessages []models.LegacyMessage
	NewMessageText  string
	IsAgentMode     bool
	OnToolCall      models.ToolCallObserver
	TavilyAPIKey    string
	Finance         types.FinanceOperations
	AllowedTools    []string
}

// AgentRunner runs one iterative agent session.
type AgentRunner interface {
	ExecuteAgentRequest(ctx context.Context, req agent.Request) types.SessionResult
}

// Catalogue lists tool descriptors for the legacy prompt.
type Catalogue interface {
	ListTools(allowed types.ToolSet) []types.ToolDescriptor
}

// Config holds shim dependencies.
type Config struct {
	Agent         AgentRunner
	Generator     llm.Generator
	Hands         agent.Hands
	Catalogue     Catalogue
	Persona       llm.Persona
	MaxIterations int
	Logger        *zap.Logger
}

// Shim routes legacy requests.
type Shim struct {
	cfg    Config
	logger *zap.Logger
}

// New creates a Shim.
func New(cfg Config) *Shim {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &Shim{cfg: cfg, logger: cfg.Logger}
}

// SendMessage validates req, routes it and returns the assistant's reply.
// Validation errors are returned before any model call.
func (s *Shim) SendMessage(ctx context.Context, req Request, flags Flags) (string, error) {
	if err := validate(req); err != nil {
		return "", err
	}

	if flags.UseNewAgentSystem && req.IsAgentMode {
		reply, err := s.sendAgent(ctx, req)
		if err == nil {
			return reply, nil
		}
		if !flags.EnableFallback {
			return "", err
		}
		s.logger.Warn("Agent path failed, falling back to legacy path", zap.Error(err))
	}

	return s.sendLegacy(ctx, req)
}

func validate(req Request) error {
	switch {
	case strings.TrimSpace(req.APIKey) == "":
		return types.NewValidationError("apiKey must be a non-empty string")
	case strings.TrimSpace(req.ModelName) == "":
		return types.NewValidationError("modelName must be a non-empty string")
	case strings.TrimSpace(req.NewMessageText) == "":
		return types.NewValidationError("newMessageText must be a non-empty string")
	}
	return nil
}

// ExecutionContext builds the per-request context, merging the caller's
// finance capabilities and search key.
func ExecutionContext(req Request) *types.ExecutionContext {
	return &types.ExecutionContext{
		APIKey:       req.APIKey,
		ModelName:    req.ModelName,
		AllowedTools: types.NewToolSet(req.AllowedTools...),
		SearchAPIKey: req.TavilyAPIKey,
		Finance:      req.Finance,
	}
}

func (s *Shim) sendAgent(ctx context.Context, req Request) (string, error) {
	if s.cfg.Agent == nil {
		return "", errors.New("agent system is not configured")
	}

	history := FromLegacyHistory(req.HistoryMessages)
	res := s.cfg.Agent.ExecuteAgentRequest(ctx, agent.Request{
		UserInput:           req.NewMessageText,
		ConversationHistory: history,
		Context:             ExecutionContext(req),
		MaxIterations:       s.cfg.MaxIterations,
	})

	if start := len(history); start <= len(res.ConversationHistory) && req.OnToolCall != nil {
		if calls := ToolCallsFromHistory(res.ConversationHistory[start:]); len(calls.ToolsRequired) > 0 {
			req.OnToolCall(calls)
		}
	}

	if !res.Success {
		kind := types.KindBrainProcessing
		if res.Metadata.Error == types.ErrorValidationFailed {
			kind = types.KindValidation
		}
		return "", &types.AgentError{
			Kind:    kind,
			Subtype: res.Metadata.ErrorType,
			Message: res.Metadata.ErrorMessage,
		}
	}

	s.logger.Info("Agent path finished",
		zap.String("session", res.Metadata.SessionID),
		zap.String("reason", res.Metadata.CompletionReason),
		zap.Int("iterations", res.Metadata.IterationsUsed))
	return res.Response, nil
}

// sendLegacy makes one model call, runs any requested tools once and asks
// the model a second time with their results.
func (s *Shim) sendLegacy(ctx context.Context, req Request) (string, error) {
	if s.cfg.Generator == nil {
		return "", errors.New("legacy path has no language model configured")
	}

	ec := ExecutionContext(req)
	history := FilterLegacyHistory(req.HistoryMessages)
	tools := s.legacyTools(ec.AllowedTools)

	raw, err := s.cfg.Generator.Generate(ctx, llm.Request{
		APIKey: req.APIKey,
		Model:  req.ModelName,
		Prompt: llm.BuildLegacyPrompt(s.cfg.Persona, history, tools, req.NewMessageText, nil),
	})
	if err != nil {
		return "", fmt.Errorf("legacy generation failed: %w", err)
	}

	calls, ok := s.decodeToolCalls(raw)
	if !ok {
		return strings.TrimSpace(raw), nil
	}

	if req.OnToolCall != nil {
		req.OnToolCall(calls)
	}
	outcomes := s.DispatchLegacyTools(ctx, calls, ec)

	final, err := s.cfg.Generator.Generate(ctx, llm.Request{
		APIKey: req.APIKey,
		Model:  req.ModelName,
		Prompt: llm.BuildLegacyPrompt(s.cfg.Persona, history, tools, req.NewMessageText, outcomes),
	})
	if err != nil {
		return "", fmt.Errorf("legacy follow-up generation failed: %w", err)
	}
	return strings.TrimSpace(final), nil
}

func (s *Shim) decodeToolCalls(raw string) (models.ToolCallsRequired, bool) {
	if s.cfg.Hands == nil {
		return models.ToolCallsRequired{}, false
	}
	return validator.DecodeLegacyToolCalls(raw)
}

// DispatchLegacyTools runs each requested tool once and returns the outcomes
// keyed by tool name. A later call to the same tool replaces an earlier one.
func (s *Shim) DispatchLegacyTools(ctx context.Context, calls models.ToolCallsRequired, ec *types.ExecutionContext) map[string]models.LegacyToolOutcome {
	out := make(map[string]models.LegacyToolOutcome, len(calls.ToolsRequired))
	if s.cfg.Hands == nil {
		return out
	}
	for _, cmd := range ToCommands(calls) {
		result := s.cfg.Hands.Execute(ctx, cmd, ec)
		s.logger.Info("Legacy tool dispatched",
			zap.String("tool", cmd.ToolName),
			zap.Bool("success", result.Success))
		out[cmd.ToolName] = ToLegacyOutcome(cmd, result)
	}
	return out
}

// legacyTools lists the non-terminal tools, which the legacy prompt offers.
func (s *Shim) legacyTools(allowed types.ToolSet) []types.ToolDescriptor {
	if s.cfg.Catalogue == nil {
		return nil
	}
	var out []types.ToolDescriptor
	for _, d := range s.cfg.Catalogue.ListTools(allowed) {
		if !types.IsTerminalTool(d.AgentID) {
			out = append(out, d)
		}
	}
	return out
}
