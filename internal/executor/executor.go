// Package executor validates and runs the command chosen by the Brain and
// normalizes whatever the tool produced into a types.ToolResult.
package executor

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/ashutoshrp06/brainhands/internal/tools"
	"github.com/ashutoshrp06/brainhands/internal/types"
	"go.uber.org/zap"
)

// Catalogue resolves tool descriptors by name.
type Catalogue interface {
	Describe(name string) (types.ToolDescriptor, bool)
}

// Executor is the Hands. It never returns an error: every failure is a
// ToolResult with Success=false and an ErrorKind.
type Executor struct {
	catalogue Catalogue
	chain     tools.Chain
	logger    *zap.Logger
}

// NewExecutor creates an executor resolving implementations through chain.
func NewExecutor(catalogue Catalogue, chain tools.Chain, logger *zap.Logger) *Executor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Executor{
		catalogue: catalogue,
		chain:     chain,
		logger:    logger,
	}
}

// Execute runs cmd within ec.
func (e *Executor) Execute(ctx context.Context, cmd *types.StructuredCommand, ec *types.ExecutionContext) types.ToolResult {
	start := time.Now()

	if cmd == nil || strings.TrimSpace(cmd.ToolName) == "" || cmd.Parameters == nil {
		name := ""
		if cmd != nil {
			name = cmd.ToolName
		}
		return e.fail(start, name, nil, types.KindValidation,
			"command must name a tool and carry a parameters object", nil)
	}

	name := cmd.ToolName
	e.logger.Info("Executing tool",
		zap.String("tool", name),
		zap.Strings("params", paramNames(cmd.Parameters)))

	if !ec.IsAllowed(name) {
		return e.fail(start, name, cmd.Parameters, types.KindAuthorization,
			fmt.Sprintf("tool %q is not allowed in this conversation", name), nil)
	}

	switch name {
	case types.ToolClarify:
		return e.terminal(start, cmd, "question", "clarification", "requiresUserResponse")
	case types.ToolAnswerUser:
		return e.terminal(start, cmd, "answer", "final_answer", "isComplete")
	}

	if missing := e.missingParams(name, cmd.Parameters); len(missing) > 0 {
		return e.fail(start, name, cmd.Parameters, types.KindParameterValidation,
			"missing required parameters: "+strings.Join(missing, ", "),
			map[string]any{"missingParameters": missing})
	}

	impl, provider, ok := e.chain.Resolve(name)
	if !ok {
		return e.fail(start, name, cmd.Parameters, types.KindToolNotFound,
			fmt.Sprintf("no implementation found for tool %q", name), nil)
	}

	out, err := invoke(ctx, impl, cmd.Parameters, ec)
	if err != nil {
		return e.fail(start, name, cmd.Parameters, types.KindToolExecution, err.Error(),
			map[string]any{"provider": provider})
	}
	if out == nil {
		return e.fail(start, name, cmd.Parameters, types.KindInvalidResultFormat,
			fmt.Sprintf("tool %q returned no result object", name),
			map[string]any{"provider": provider})
	}

	result := e.envelope(start, name, cmd.Parameters, out.Success, out.Message, out.Data)
	result.Metadata.Performance.Provider = provider

	e.logger.Info("Tool finished",
		zap.String("tool", name),
		zap.String("provider", provider),
		zap.Bool("success", result.Success),
		zap.Duration("duration", result.Metadata.ExecutionTime))

	return result
}

// invoke runs the implementation, converting a panic into an error.
func invoke(ctx context.Context, impl tools.Tool, params map[string]any, ec *types.ExecutionContext) (out *tools.Output, err error) {
	defer func() {
		if r := recover(); r != nil {
			out, err = nil, fmt.Errorf("tool panicked: %v", r)
		}
	}()
	return impl.Execute(ctx, params, ec)
}

// terminal handles clarify and answerUser, which need one non-empty string.
func (e *Executor) terminal(start time.Time, cmd *types.StructuredCommand, field, kind, flag string) types.ToolResult {
	raw, _ := cmd.Parameters[field].(string)
	value := strings.TrimSpace(raw)
	if value == "" {
		return e.fail(start, cmd.ToolName, cmd.Parameters, types.KindParameterValidation,
			fmt.Sprintf("%s requires a non-empty %q", cmd.ToolName, field), nil)
	}

	msg := "Final answer ready"
	if cmd.ToolName == types.ToolClarify {
		msg = "Clarification requested"
	}
	result := e.envelope(start, cmd.ToolName, cmd.Parameters, true, msg, map[string]any{
		"type": kind,
		field:  value,
		flag:   true,
	})
	result.Metadata.Performance.Provider = "builtin"
	return result
}

func (e *Executor) missingParams(name string, params map[string]any) []string {
	if e.catalogue == nil {
		return nil
	}
	desc, ok := e.catalogue.Describe(name)
	if !ok {
		return nil
	}

	var missing []string
	for key := range desc.InputFormat {
		if _, present := params[key]; !present {
			missing = append(missing, key)
		}
	}
	sort.Strings(missing)
	return missing
}

func (e *Executor) envelope(start time.Time, name string, params map[string]any, success bool, msg string, data map[string]any) types.ToolResult {
	finished := time.Now()
	quality := "high"
	if !success {
		quality = "diagnostic"
	}
	return types.ToolResult{
		Success:  success,
		Message:  msg,
		Data:     data,
		ToolName: name,
		Metadata: types.ResultMetadata{
			ToolName:           name,
			ExecutionTime:      finished.Sub(start),
			ParametersProvided: paramNames(params),
			BrainToHandsFlow: &types.FlowFeedback{
				CommandReceived:     true,
				ParametersValid:     true,
				ExecutionSuccessful: success,
				FeedbackQuality:     quality,
			},
			Performance: &types.Performance{
				StartedAt:  start.UnixMilli(),
				FinishedAt: finished.UnixMilli(),
			},
		},
	}
}

func (e *Executor) fail(start time.Time, name string, params map[string]any, kind types.ErrorKind, msg string, extra map[string]any) types.ToolResult {
	e.logger.Warn("Tool execution rejected",
		zap.String("tool", name),
		zap.String("kind", string(kind)),
		zap.String("reason", msg))

	result := e.envelope(start, name, params, false, msg, nil)
	result.ErrorKind = kind
	result.Metadata.Extra = extra
	flow := result.Metadata.BrainToHandsFlow
	flow.CommandReceived = kind != types.KindValidation
	flow.ParametersValid = kind != types.KindValidation && kind != types.KindParameterValidation
	return result
}

func paramNames(params map[string]any) []string {
	names := make([]string, 0, len(params))
	for k := range params {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}
