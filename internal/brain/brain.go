// Package brain asks the language model for the next action of the agent
// loop and answers questions about a conversation's progress.
package brain

import (
	"context"
	"errors"
	"time"

	"github.com/ashutoshrp06/brainhands/internal/llm"
	"github.com/ashutoshrp06/brainhands/internal/types"
	"github.com/ashutoshrp06/brainhands/internal/validator"
	"go.uber.org/zap"
)

// DefaultCompletionLookback is how many trailing entries IsTaskComplete inspects.
const DefaultCompletionLookback = 5

// Config holds Brain dependencies.
type Config struct {
	Generator llm.Generator
	Persona   llm.Persona
	Logger    *zap.Logger
}

// Brain is the decision provider of the agent loop.
type Brain struct {
	gen     llm.Generator
	persona llm.Persona
	logger  *zap.Logger
}

// New creates a Brain that consults gen.
func New(cfg Config) *Brain {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &Brain{
		gen:     cfg.Generator,
		persona: cfg.Persona,
		logger:  cfg.Logger,
	}
}

// DecisionRequest is everything Decide needs for one iteration.
type DecisionRequest struct {
	History        []types.ConversationEntry
	AvailableTools []types.ToolDescriptor
	APIKey         string
	ModelName      string

	CurrentIteration    int
	MaxIterations       int
	UserInput           string
	PreviousErrors      []string
	ConsecutiveFailures int
	ToolsUsed           []string
}

// Decide asks the model for exactly one command. A reply that cannot be
// decoded yields (nil, nil). A failed model call yields a
// BrainProcessingError.
func (b *Brain) Decide(ctx context.Context, req DecisionRequest) (*types.StructuredCommand, error) {
	if b.gen == nil {
		return nil, types.NewBrainError(types.SubtypeProcessingError, errors.New("no language model configured"))
	}

	prompt := llm.BuildDecisionPrompt(llm.DecisionPrompt{
		Persona: b.persona,
		Tools:   req.AvailableTools,
		History: req.History,
		Status: llm.ExecutionStatus{
			CurrentIteration:    req.CurrentIteration,
			MaxIterations:       req.MaxIterations,
			ConsecutiveFailures: req.ConsecutiveFailures,
			ToolsUsed:           req.ToolsUsed,
			PreviousErrors:      req.PreviousErrors,
			NeedsUserResponse:   awaitingUser(req.History),
			RecentFailures:      req.ConsecutiveFailures > 0 || len(req.PreviousErrors) > 0,
		},
	})

	start := time.Now()
	raw, err := b.gen.Generate(ctx, llm.Request{
		APIKey: req.APIKey,
		Model:  req.ModelName,
		Prompt: prompt,
	})
	if err != nil {
		subtype := types.SubtypeProcessingError
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			subtype = types.SubtypeTimeout
		}
		b.logger.Error("Brain call failed",
			zap.String("subtype", subtype),
			zap.Duration("duration", time.Since(start)),
			zap.Error(err))
		return nil, types.NewBrainError(subtype, err)
	}

	decoded := validator.DecodeCommand(raw)
	if !decoded.OK() {
		b.logger.Warn("Brain reply not decodable",
			zap.Int("iteration", req.CurrentIteration),
			zap.String("reason", decoded.Reason))
		return nil, nil
	}

	b.logger.Info("Brain decided",
		zap.Int("iteration", req.CurrentIteration),
		zap.String("tool", decoded.Command.ToolName),
		zap.Duration("duration", time.Since(start)))
	return decoded.Command, nil
}

// IsTaskComplete reports whether one of the last lookback entries is a
// successful answerUser result. lookback <= 0 uses DefaultCompletionLookback.
func IsTaskComplete(history []types.ConversationEntry, lookback int) bool {
	_, ok := LastTerminalResult(history, lookback, types.ToolAnswerUser)
	return ok
}

// LastTerminalResult returns the newest successful result of tool within the
// last lookback entries.
func LastTerminalResult(history []types.ConversationEntry, lookback int, tool string) (*types.ToolResult, bool) {
	if lookback <= 0 {
		lookback = DefaultCompletionLookback
	}
	start := len(history) - lookback
	if start < 0 {
		start = 0
	}
	for i := len(history) - 1; i >= start; i-- {
		e := history[i]
		if e.Role != types.RoleTool || e.Result == nil {
			continue
		}
		if e.Result.ToolName == tool && e.Result.Success {
			return e.Result, true
		}
	}
	return nil, false
}

// ExtractUserIntent returns the text of the newest user entry.
func ExtractUserIntent(history []types.ConversationEntry) string {
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].Role == types.RoleUser {
			return history[i].Text
		}
	}
	return ""
}

// awaitingUser reports whether the newest tool result asked the user a question.
func awaitingUser(history []types.ConversationEntry) bool {
	for i := len(history) - 1; i >= 0; i-- {
		e := history[i]
		if e.Role == types.RoleUser {
			return false
		}
		if e.Role == types.RoleTool && e.Result != nil {
			return e.Result.ToolName == types.ToolClarify && e.Result.Success
		}
	}
	return false
}
