// Package agent implements the iterative Brain/Hands loop.
package agent

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ashutoshrp06/brainhands/internal/brain"
	"github.com/ashutoshrp06/brainhands/internal/functions"
	"github.com/ashutoshrp06/brainhands/internal/types"
	"github.com/ashutoshrp06/brainhands/internal/validator"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Loop limits.
const (
	DefaultMaxIterations    = 5
	MaxIterationsCeiling    = 10
	DefaultSessionTimeout   = 60 * time.Second
	DefaultBrainTimeout     = 30 * time.Second
	DefaultLoopWindow       = 3
	DefaultFailureThreshold = 3
)

// Decider chooses the next command. A nil command with a nil error means
// no decision could be made.
type Decider interface {
	Decide(ctx context.Context, req brain.DecisionRequest) (*types.StructuredCommand, error)
}

// Hands executes a command and always produces a result.
type Hands interface {
	Execute(ctx context.Context, cmd *types.StructuredCommand, ec *types.ExecutionContext) types.ToolResult
}

// Catalogue lists the tools visible to the Brain.
type Catalogue interface {
	ListTools(allowed types.ToolSet) []types.ToolDescriptor
}

// Observer receives progress events while a session runs.
type Observer func(types.AgentEvent)

// Config holds agent configuration.
type Config struct {
	Brain     Decider
	Hands     Hands
	Catalogue Catalogue
	Logger    *zap.Logger

	DefaultMaxIterations int
	MaxIterationsCeiling int
	SessionTimeout       time.Duration
	BrainTimeout         time.Duration
	LoopWindow           int
	FailureThreshold     int
	CompletionLookback   int
}

func (c *Config) applyDefaults() error {
	if c.Brain == nil {
		return errors.New("agent: a decision provider is required")
	}
	if c.Hands == nil {
		return errors.New("agent: a tool executor is required")
	}
	if c.Catalogue == nil {
		reg, err := functions.Default()
		if err != nil {
			return fmt.Errorf("failed to load tool catalogue: %w", err)
		}
		c.Catalogue = reg
	}
	if c.Logger == nil {
		c.Logger = zap.NewNop()
	}
	if c.MaxIterationsCeiling <= 0 {
		c.MaxIterationsCeiling = MaxIterationsCeiling
	}
	if c.DefaultMaxIterations <= 0 {
		c.DefaultMaxIterations = DefaultMaxIterations
	}
	if c.DefaultMaxIterations > c.MaxIterationsCeiling {
		c.DefaultMaxIterations = c.MaxIterationsCeiling
	}
	if c.SessionTimeout <= 0 {
		c.SessionTimeout = DefaultSessionTimeout
	}
	if c.BrainTimeout <= 0 {
		c.BrainTimeout = DefaultBrainTimeout
	}
	if c.LoopWindow < DefaultLoopWindow {
		c.LoopWindow = DefaultLoopWindow
	}
	if c.FailureThreshold <= 0 {
		c.FailureThreshold = DefaultFailureThreshold
	}
	if c.CompletionLookback <= 0 {
		c.CompletionLookback = brain.DefaultCompletionLookback
	}
	return nil
}

// Executor runs agent sessions. It holds no per-session state, so one
// Executor serves concurrent sessions.
type Executor struct {
	cfg            Config
	inputValidator *validator.InputValidator
	logger         *zap.Logger
}

// New creates an Executor.
func New(cfg Config) (*Executor, error) {
	if err := cfg.applyDefaults(); err != nil {
		return nil, err
	}
	return &Executor{
		cfg:            cfg,
		inputValidator: validator.NewInputValidator(),
		logger:         cfg.Logger,
	}, nil
}

// Request is one call into the loop.
type Request struct {
	UserInput           string
	ConversationHistory []types.ConversationEntry
	Context             *types.ExecutionContext
	MaxIterations       int
	TimeoutMs           int
	Observer            Observer
}

// session is the mutable state of one ExecuteAgentRequest call.
type session struct {
	id        string
	start     time.Time
	deadline  time.Time
	maxIter   int
	userInput string
	history   []types.ConversationEntry
	turnStart int
	monitor   *safetyMonitor
	observer  Observer
	iters     int
}

// ExecuteAgentRequest runs the loop until a terminal tool, a safety trigger
// or a fatal error ends the session. It never returns a Go error: failures
// are reported through SessionResult.
func (e *Executor) ExecuteAgentRequest(ctx context.Context, req Request) types.SessionResult {
	s := &session{
		id:        uuid.NewString(),
		start:     time.Now(),
		maxIter:   e.ClampIterations(req.MaxIterations),
		userInput: req.UserInput,
		monitor:   newSafetyMonitor(e.cfg.LoopWindow, e.cfg.FailureThreshold),
		observer:  req.Observer,
	}
	s.history = append(make([]types.ConversationEntry, 0, len(req.ConversationHistory)+2*s.maxIter+1), req.ConversationHistory...)

	if err := e.validate(req); err != nil {
		e.logger.Warn("Rejected agent request", zap.String("session", s.id), zap.Error(err))
		return e.finish(s, types.SessionResult{
			Success:  false,
			Response: "I couldn't start on that request: " + messageOf(err),
			Metadata: types.SessionMetadata{
				Error:        types.ErrorValidationFailed,
				ErrorType:    string(types.KindValidation),
				ErrorMessage: messageOf(err),
			},
		})
	}

	timeout := e.cfg.SessionTimeout
	if req.TimeoutMs > 0 {
		timeout = time.Duration(req.TimeoutMs) * time.Millisecond
	}
	s.deadline = s.start.Add(timeout)

	ec := req.Context
	available := e.availableTools(ec)
	s.turnStart = len(s.history)
	s.history = append(s.history, types.NewUserEntry(req.UserInput))

	e.logger.Info("Agent session started",
		zap.String("session", s.id),
		zap.Int("max_iterations", s.maxIter),
		zap.Duration("timeout", timeout),
		zap.Int("prior_entries", len(req.ConversationHistory)))

	for iter := 1; iter <= s.maxIter; iter++ {
		if time.Now().After(s.deadline) || ctx.Err() != nil {
			return e.safetyExit(s, types.TriggerTimeout, nil)
		}

		// Completion is scoped to the current turn, so an answerUser already
		// present in a resumed history does not end this one.
		if brain.IsTaskComplete(s.turn(), e.cfg.CompletionLookback) {
			return e.complete(s)
		}

		s.emit(types.AgentEvent{State: types.StateThinking, Iteration: iter, Message: "Deciding next step"})

		cmd, err := e.decide(ctx, s, iter, ec, available)
		if err != nil {
			return e.brainFailure(s, err)
		}
		if cmd == nil {
			e.logger.Info("No decision from brain", zap.String("session", s.id), zap.Int("iteration", iter))
			return e.finish(s, types.SessionResult{
				Success:  true,
				Response: "I'm not sure how to help with that yet. Could you tell me a bit more?",
				Metadata: types.SessionMetadata{CompletionReason: types.ReasonNoDecision},
			})
		}

		s.history = append(s.history, types.ConversationEntry{
			Role:      types.RoleAI,
			Command:   cmd,
			Timestamp: types.NowMillis(),
			Metadata:  map[string]any{"iteration": iter},
		})
		s.emit(types.AgentEvent{State: types.StateToolCall, Iteration: iter, ToolCall: cmd, Message: "Calling " + cmd.ToolName})

		result := e.cfg.Hands.Execute(ctx, cmd, ec)
		s.history = append(s.history, types.ConversationEntry{
			Role:      types.RoleTool,
			Result:    &result,
			Timestamp: types.NowMillis(),
			Metadata: map[string]any{
				"iteration":        iter,
				"brainToHandsFlow": "complete",
			},
		})
		s.iters = iter
		s.emit(types.AgentEvent{State: types.StateToolExecuting, Iteration: iter, ToolCall: cmd, ToolResult: &result, Message: result.Message})

		s.monitor.record(cmd, result)

		if brain.IsTaskComplete(s.turn(), e.cfg.CompletionLookback) {
			return e.complete(s)
		}
		if result.ToolName == types.ToolClarify && result.Success {
			return e.finish(s, types.SessionResult{
				Success:  true,
				Response: result.DataString("question"),
				Metadata: types.SessionMetadata{CompletionReason: types.ReasonClarificationNeeded},
			})
		}
		if trigger, pattern := s.monitor.check(); trigger != "" {
			return e.safetyExit(s, trigger, pattern)
		}
		if time.Now().After(s.deadline) {
			return e.safetyExit(s, types.TriggerTimeout, nil)
		}
	}

	return e.safetyExit(s, types.TriggerMaxIterations, nil)
}

// CreateNewSession starts a session with an empty history.
func (e *Executor) CreateNewSession(ctx context.Context, userInput string, ec *types.ExecutionContext) types.SessionResult {
	return e.ExecuteAgentRequest(ctx, Request{UserInput: userInput, Context: ec})
}

// ContinueSession appends to an existing history, which is kept verbatim as
// the prefix of the returned history.
func (e *Executor) ContinueSession(ctx context.Context, userInput string, history []types.ConversationEntry, ec *types.ExecutionContext) types.SessionResult {
	return e.ExecuteAgentRequest(ctx, Request{UserInput: userInput, ConversationHistory: history, Context: ec})
}

// ClampIterations resolves a requested iteration count against the
// configured default and ceiling.
func (e *Executor) ClampIterations(requested int) int {
	switch {
	case requested <= 0:
		return e.cfg.DefaultMaxIterations
	case requested > e.cfg.MaxIterationsCeiling:
		return e.cfg.MaxIterationsCeiling
	default:
		return requested
	}
}

func (e *Executor) validate(req Request) error {
	if err := e.inputValidator.Validate(req.UserInput); err != nil {
		return types.NewValidationError("user input: %v", err)
	}
	if req.Context == nil {
		return types.NewValidationError("an execution context is required")
	}
	if strings.TrimSpace(req.Context.APIKey) == "" {
		return types.NewValidationError("an API key is required")
	}
	if strings.TrimSpace(req.Context.ModelName) == "" {
		return types.NewValidationError("a model name is required")
	}
	return nil
}

// availableTools prefers the descriptors supplied by the caller and makes
// sure the terminal tools are always present.
func (e *Executor) availableTools(ec *types.ExecutionContext) []types.ToolDescriptor {
	if len(ec.AvailableTools) == 0 {
		return e.cfg.Catalogue.ListTools(ec.AllowedTools)
	}

	out := make([]types.ToolDescriptor, 0, len(ec.AvailableTools)+2)
	present := make(map[string]bool, len(ec.AvailableTools))
	for _, d := range ec.AvailableTools {
		present[d.AgentID] = true
	}
	for _, d := range functions.TerminalDescriptors() {
		if !present[d.AgentID] {
			out = append(out, d)
		}
	}
	return append(out, ec.AvailableTools...)
}

func (e *Executor) decide(ctx context.Context, s *session, iter int, ec *types.ExecutionContext, available []types.ToolDescriptor) (*types.StructuredCommand, error) {
	brainCtx, cancel := context.WithTimeout(ctx, e.cfg.BrainTimeout)
	defer cancel()

	cmd, err := e.cfg.Brain.Decide(brainCtx, brain.DecisionRequest{
		History:             s.history,
		AvailableTools:      available,
		APIKey:              ec.APIKey,
		ModelName:           ec.ModelName,
		CurrentIteration:    iter,
		MaxIterations:       s.maxIter,
		UserInput:           s.userInput,
		PreviousErrors:      s.monitor.errors(),
		ConsecutiveFailures: s.monitor.consecutiveFailures,
		ToolsUsed:           s.monitor.tools(),
	})
	if err == nil {
		return cmd, nil
	}

	var ae *types.AgentError
	if errors.As(err, &ae) && ae.Kind == types.KindBrainProcessing {
		return nil, ae
	}
	subtype := types.SubtypeProcessingError
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(brainCtx.Err(), context.DeadlineExceeded) {
		subtype = types.SubtypeTimeout
	}
	return nil, types.NewBrainError(subtype, err)
}

func (e *Executor) complete(s *session) types.SessionResult {
	answer, _ := brain.LastTerminalResult(s.turn(), e.cfg.CompletionLookback, types.ToolAnswerUser)
	return e.finish(s, types.SessionResult{
		Success:  true,
		Response: answer.DataString("answer"),
		Metadata: types.SessionMetadata{CompletionReason: types.ReasonTaskComplete},
	})
}

var safetyMessages = map[string]string{
	types.TriggerMaxIterations:       "I reached my processing limit for this request before finishing. Here is how far I got; ask me to continue if you'd like.",
	types.TriggerInfiniteLoop:        "I noticed I was repeating the same steps without making progress, so I stopped. Could you rephrase or add some detail?",
	types.TriggerConsecutiveFailures: "Several of my tool calls failed in a row, so I stopped to avoid making things worse. Please try again in a moment.",
	types.TriggerTimeout:             "This request took longer than my time budget allows, so I stopped early. Here is what I have so far.",
}

func (e *Executor) safetyExit(s *session, trigger string, pattern []string) types.SessionResult {
	reason := types.ReasonSafetyExit
	if trigger == types.TriggerMaxIterations {
		reason = types.ReasonGracefulExit
	}
	e.logger.Warn("Safety limit reached",
		zap.String("session", s.id),
		zap.String("trigger", trigger),
		zap.Strings("pattern", pattern),
		zap.Int("iterations", s.iters))

	return e.finish(s, types.SessionResult{
		Success:         true,
		Response:        safetyMessages[trigger],
		IsPartialResult: true,
		Metadata: types.SessionMetadata{
			CompletionReason: reason,
			SafetyTrigger:    trigger,
			DetectedPattern:  pattern,
		},
	})
}

func (e *Executor) brainFailure(s *session, err error) types.SessionResult {
	subtype := types.SubtypeProcessingError
	var ae *types.AgentError
	if errors.As(err, &ae) && ae.Subtype != "" {
		subtype = ae.Subtype
	}
	e.logger.Error("Brain processing failed",
		zap.String("session", s.id),
		zap.String("subtype", subtype),
		zap.Error(err))

	response := "Sorry, I ran into a problem while thinking about your request. Please try again."
	if subtype == types.SubtypeTimeout {
		response = "Sorry, the reasoning service took too long to respond. Please try again."
	}
	return e.finish(s, types.SessionResult{
		Success:  false,
		Response: response,
		Metadata: types.SessionMetadata{
			Error:        types.ErrorBrainProcessingFailed,
			ErrorType:    subtype,
			ErrorMessage: err.Error(),
		},
	})
}

// finish fills in the metadata common to every outcome.
func (e *Executor) finish(s *session, res types.SessionResult) types.SessionResult {
	res.ConversationHistory = s.history
	res.Metadata.SessionID = s.id
	res.Metadata.IterationsUsed = s.iters
	res.Metadata.MaxIterations = s.maxIter
	res.Metadata.ToolsUsed = s.monitor.tools()
	res.Metadata.Duration = time.Since(s.start)

	if res.Success {
		s.emit(types.AgentEvent{State: types.StateResponding, Iteration: s.iters, FinalAnswer: res.Response})
	} else {
		s.emit(types.AgentEvent{State: types.StateError, Iteration: s.iters, Message: res.Response, Error: errors.New(res.Metadata.ErrorMessage)})
	}

	e.logger.Info("Agent session finished",
		zap.String("session", s.id),
		zap.Bool("success", res.Success),
		zap.String("reason", res.Metadata.CompletionReason),
		zap.String("trigger", res.Metadata.SafetyTrigger),
		zap.Int("iterations", s.iters),
		zap.Duration("duration", res.Metadata.Duration))
	return res
}

// turn returns the entries produced since the current user input. Older
// answers never complete a new turn.
func (s *session) turn() []types.ConversationEntry {
	return s.history[s.turnStart:]
}

func (s *session) emit(ev types.AgentEvent) {
	if s.observer != nil {
		s.observer(ev)
	}
}

func messageOf(err error) string {
	var ae *types.AgentError
	if errors.As(err, &ae) && ae.Message != "" {
		return ae.Message
	}
	return err.Error()
}
