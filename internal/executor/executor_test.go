package executor

import (
	"context"
	"errors"
	"testing"

	"github.com/ashutoshrp06/brainhands/internal/functions"
	"github.com/ashutoshrp06/brainhands/internal/tools"
	"github.com/ashutoshrp06/brainhands/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestExecutor(t *testing.T, extra ...tools.Tool) *Executor {
	t.Helper()
	catalogue, err := functions.New(
		types.ToolDescriptor{AgentID: "calculator", InputFormat: map[string]string{"expression": "string"}},
		types.ToolDescriptor{AgentID: "boom"},
		types.ToolDescriptor{AgentID: "empty"},
		types.ToolDescriptor{AgentID: "ghost"},
		types.ToolDescriptor{AgentID: "get_current_time"},
	)
	require.NoError(t, err)

	enhanced := tools.NewRegistry("enhanced")
	enhanced.MustRegister(tools.CalculatorTool{})
	for _, tool := range extra {
		enhanced.MustRegister(tool)
	}
	chain := tools.Chain{enhanced, tools.NewLegacyProvider(tools.DefaultLegacyFuncs())}
	return NewExecutor(catalogue, chain, zap.NewNop())
}

func allowAll() *types.ExecutionContext {
	return &types.ExecutionContext{
		AllowedTools: types.NewToolSet("calculator", "boom", "empty", "ghost", "get_current_time", "panics"),
	}
}

func TestExecute_Validation(t *testing.T) {
	ex := newTestExecutor(t)
	ctx := context.Background()

	tests := []struct {
		name string
		cmd  *types.StructuredCommand
	}{
		{"nil command", nil},
		{"empty tool name", &types.StructuredCommand{ToolName: " ", Parameters: map[string]any{}}},
		{"nil parameters", &types.StructuredCommand{ToolName: "calculator"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := ex.Execute(ctx, tt.cmd, allowAll())
			assert.False(t, res.Success)
			assert.Equal(t, types.KindValidation, res.ErrorKind)
			assert.False(t, res.Metadata.BrainToHandsFlow.CommandReceived)
		})
	}
}

func TestExecute_Authorization(t *testing.T) {
	ex := newTestExecutor(t)
	ec := &types.ExecutionContext{AllowedTools: types.NewToolSet("get_current_time")}

	res := ex.Execute(context.Background(), &types.StructuredCommand{
		ToolName: "calculator", Parameters: map[string]any{"expression": "1+1"},
	}, ec)
	assert.False(t, res.Success)
	assert.Equal(t, types.KindAuthorization, res.ErrorKind)

	res = ex.Execute(context.Background(), &types.StructuredCommand{
		ToolName: "answerUser", Parameters: map[string]any{"answer": "ok"},
	}, nil)
	assert.True(t, res.Success, "terminal tools bypass the allow-list")
}

func TestExecute_MissingParameters(t *testing.T) {
	ex := newTestExecutor(t)
	res := ex.Execute(context.Background(), &types.StructuredCommand{
		ToolName: "calculator", Parameters: map[string]any{"expr": "1+1"},
	}, allowAll())

	assert.False(t, res.Success)
	assert.Equal(t, types.KindParameterValidation, res.ErrorKind)
	assert.Contains(t, res.Message, "expression")
	assert.Equal(t, []string{"expression"}, res.Metadata.Extra["missingParameters"])
	assert.True(t, res.Metadata.BrainToHandsFlow.CommandReceived)
	assert.False(t, res.Metadata.BrainToHandsFlow.ParametersValid)
}

func TestExecute_PresenceCheckOnly(t *testing.T) {
	ex := newTestExecutor(t)
	res := ex.Execute(context.Background(), &types.StructuredCommand{
		ToolName: "calculator", Parameters: map[string]any{"expression": 42},
	}, allowAll())

	assert.Empty(t, res.ErrorKind, "type mismatches are left to the tool")
}

func TestExecute_Success(t *testing.T) {
	ex := newTestExecutor(t)
	res := ex.Execute(context.Background(), &types.StructuredCommand{
		ToolName: "calculator", Parameters: map[string]any{"expression": "2+2"},
	}, allowAll())

	require.True(t, res.Success, res.Message)
	assert.Equal(t, "calculator", res.ToolName)
	assert.Equal(t, 4.0, res.Data["result"])
	assert.Equal(t, "calculator", res.Metadata.ToolName)
	assert.Equal(t, []string{"expression"}, res.Metadata.ParametersProvided)
	assert.Equal(t, "enhanced", res.Metadata.Performance.Provider)
	assert.Equal(t, types.FlowFeedback{
		CommandReceived: true, ParametersValid: true, ExecutionSuccessful: true, FeedbackQuality: "high",
	}, *res.Metadata.BrainToHandsFlow)
}

func TestExecute_LegacyFallback(t *testing.T) {
	ex := newTestExecutor(t)
	res := ex.Execute(context.Background(), &types.StructuredCommand{
		ToolName: "get_current_time", Parameters: map[string]any{},
	}, allowAll())

	require.True(t, res.Success)
	assert.Equal(t, "legacy", res.Metadata.Performance.Provider)
	assert.NotEmpty(t, res.DataString("time"))
}

func TestExecute_ImplementationFailures(t *testing.T) {
	ex := newTestExecutor(t,
		tools.Func{ToolName: "boom", Fn: func(context.Context, map[string]any, *types.ExecutionContext) (*tools.Output, error) {
			return nil, errors.New("upstream exploded")
		}},
		tools.Func{ToolName: "empty", Fn: func(context.Context, map[string]any, *types.ExecutionContext) (*tools.Output, error) {
			return nil, nil
		}},
		tools.Func{ToolName: "panics", Fn: func(context.Context, map[string]any, *types.ExecutionContext) (*tools.Output, error) {
			panic("bad index")
		}},
	)

	tests := []struct {
		tool string
		kind types.ErrorKind
		msg  string
	}{
		{"boom", types.KindToolExecution, "upstream exploded"},
		{"empty", types.KindInvalidResultFormat, "no result"},
		{"panics", types.KindToolExecution, "bad index"},
		{"ghost", types.KindToolNotFound, "no implementation"},
	}

	for _, tt := range tests {
		t.Run(tt.tool, func(t *testing.T) {
			res := ex.Execute(context.Background(), &types.StructuredCommand{
				ToolName: tt.tool, Parameters: map[string]any{},
			}, allowAll())
			assert.False(t, res.Success)
			assert.Equal(t, tt.kind, res.ErrorKind)
			assert.Contains(t, res.Message, tt.msg)
			assert.Equal(t, tt.tool, res.ToolName)
		})
	}
}

func TestExecute_TerminalTools(t *testing.T) {
	ex := newTestExecutor(t)
	ctx := context.Background()

	res := ex.Execute(ctx, &types.StructuredCommand{
		ToolName: "clarify", Parameters: map[string]any{"question": "  Which city?  "},
	}, allowAll())
	require.True(t, res.Success)
	assert.Equal(t, map[string]any{
		"type": "clarification", "question": "Which city?", "requiresUserResponse": true,
	}, res.Data)

	res = ex.Execute(ctx, &types.StructuredCommand{
		ToolName: "answerUser", Parameters: map[string]any{"answer": "Hi there!"},
	}, allowAll())
	require.True(t, res.Success)
	assert.Equal(t, map[string]any{
		"type": "final_answer", "answer": "Hi there!", "isComplete": true,
	}, res.Data)

	for _, params := range []map[string]any{{}, {"answer": "   "}, {"answer": 12}} {
		res = ex.Execute(ctx, &types.StructuredCommand{ToolName: "answerUser", Parameters: params}, allowAll())
		assert.False(t, res.Success)
		assert.Equal(t, types.KindParameterValidation, res.ErrorKind)
	}
}
