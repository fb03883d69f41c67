package compat

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ashutoshrp06/brainhands/internal/agent"
	"github.com/ashutoshrp06/brainhands/internal/executor"
	"github.com/ashutoshrp06/brainhands/internal/functions"
	"github.com/ashutoshrp06/brainhands/internal/llm"
	"github.com/ashutoshrp06/brainhands/internal/tools"
	"github.com/ashutoshrp06/brainhands/internal/types"
	"github.com/ashutoshrp06/brainhands/internal/validator"
	"github.com/ashutoshrp06/brainhands/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAgent struct {
	result types.SessionResult
	calls  int
	last   agent.Request
}

func (f *fakeAgent) ExecuteAgentRequest(_ context.Context, req agent.Request) types.SessionResult {
	f.calls++
	f.last = req
	res := f.result
	res.ConversationHistory = append(append([]types.ConversationEntry{}, req.ConversationHistory...), res.ConversationHistory...)
	return res
}

type fakeGenerator struct {
	replies []string
	prompts []string
	err     error
}

func (f *fakeGenerator) Generate(_ context.Context, req llm.Request) (string, error) {
	f.prompts = append(f.prompts, req.Prompt)
	if f.err != nil {
		return "", f.err
	}
	i := len(f.prompts) - 1
	if i >= len(f.replies) {
		i = len(f.replies) - 1
	}
	return f.replies[i], nil
}

type noopFinance struct{}

func (noopFinance) AddTransaction(_ context.Context, tx types.Transaction) (types.Transaction, error) {
	return tx, nil
}
func (noopFinance) GetTransactions(context.Context, types.TransactionFilter) ([]types.Transaction, error) {
	return nil, nil
}
func (noopFinance) GetFinancialReport(context.Context, time.Time) (types.FinancialReport, error) {
	return types.FinancialReport{}, nil
}
func (noopFinance) SetBudget(context.Context, types.Budget) error       { return nil }
func (noopFinance) GetBudgets(context.Context) ([]types.Budget, error) { return nil, nil }

func realHands(t *testing.T) *executor.Executor {
	t.Helper()
	reg, err := functions.Default()
	require.NoError(t, err)
	return executor.NewExecutor(reg, tools.DefaultChain(tools.Options{}), nil)
}

func baseRequest() Request {
	return Request{
		APIKey:         "sk-test",
		ModelName:      "gpt-test",
		NewMessageText: "what is 2+2?",
		IsAgentMode:    true,
		AllowedTools:   []string{"calculator"},
	}
}

func successResult(answer string, commands ...*types.StructuredCommand) types.SessionResult {
	res := types.SessionResult{Success: true, Response: answer}
	res.ConversationHistory = append(res.ConversationHistory, types.NewUserEntry("what is 2+2?"))
	for _, c := range commands {
		res.ConversationHistory = append(res.ConversationHistory,
			types.ConversationEntry{Role: types.RoleAI, Command: c},
			types.ConversationEntry{Role: types.RoleTool, Result: &types.ToolResult{Success: true, ToolName: c.ToolName}})
	}
	return res
}

func TestSendMessage_Validation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Request)
	}{
		{"api key", func(r *Request) { r.APIKey = "  " }},
		{"model", func(r *Request) { r.ModelName = "" }},
		{"message", func(r *Request) { r.NewMessageText = "\n" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ag := &fakeAgent{}
			gen := &fakeGenerator{replies: []string{"hi"}}
			s := New(Config{Agent: ag, Generator: gen})

			req := baseRequest()
			tt.mutate(&req)
			_, err := s.SendMessage(context.Background(), req, Flags{UseNewAgentSystem: true, EnableFallback: true})

			require.Error(t, err)
			assert.True(t, types.IsValidation(err))
			assert.Zero(t, ag.calls)
			assert.Empty(t, gen.prompts)
		})
	}
}

func TestSendMessage_Routing(t *testing.T) {
	tests := []struct {
		name      string
		flags     Flags
		agentMode bool
		wantAgent bool
	}{
		{"new system in agent mode", Flags{UseNewAgentSystem: true}, true, true},
		{"new system outside agent mode", Flags{UseNewAgentSystem: true}, false, false},
		{"flag off", Flags{}, true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ag := &fakeAgent{result: successResult("4 from agent")}
			gen := &fakeGenerator{replies: []string{"4 from legacy"}}
			s := New(Config{Agent: ag, Generator: gen})

			req := baseRequest()
			req.IsAgentMode = tt.agentMode
			reply, err := s.SendMessage(context.Background(), req, tt.flags)
			require.NoError(t, err)

			if tt.wantAgent {
				assert.Equal(t, "4 from agent", reply)
				assert.Equal(t, 1, ag.calls)
				assert.Empty(t, gen.prompts)
			} else {
				assert.Equal(t, "4 from legacy", reply)
				assert.Zero(t, ag.calls)
				assert.Len(t, gen.prompts, 1)
			}
		})
	}
}

func TestSendMessage_Fallback(t *testing.T) {
	failed := types.SessionResult{Success: false, Metadata: types.SessionMetadata{
		Error: types.ErrorBrainProcessingFailed, ErrorType: types.SubtypeTimeout, ErrorMessage: "deadline exceeded",
	}}

	t.Run("enabled", func(t *testing.T) {
		s := New(Config{Agent: &fakeAgent{result: failed}, Generator: &fakeGenerator{replies: []string{"legacy says 4"}}})
		reply, err := s.SendMessage(context.Background(), baseRequest(), Flags{UseNewAgentSystem: true, EnableFallback: true})
		require.NoError(t, err)
		assert.Equal(t, "legacy says 4", reply)
	})

	t.Run("disabled", func(t *testing.T) {
		gen := &fakeGenerator{replies: []string{"legacy says 4"}}
		s := New(Config{Agent: &fakeAgent{result: failed}, Generator: gen})
		_, err := s.SendMessage(context.Background(), baseRequest(), Flags{UseNewAgentSystem: true})

		require.Error(t, err)
		var ae *types.AgentError
		require.True(t, errors.As(err, &ae))
		assert.Equal(t, types.KindBrainProcessing, ae.Kind)
		assert.Equal(t, types.SubtypeTimeout, ae.Subtype)
		assert.Empty(t, gen.prompts)
	})
}

func TestSendMessage_AgentPathTranslation(t *testing.T) {
	ag := &fakeAgent{result: successResult("2+2 is 4",
		&types.StructuredCommand{ToolName: "calculator", Parameters: map[string]any{"expression": "2+2"}},
		&types.StructuredCommand{ToolName: types.ToolAnswerUser, Parameters: map[string]any{"answer": "2+2 is 4"}},
	)}
	s := New(Config{Agent: ag, MaxIterations: 4})

	var observed []models.ToolCallsRequired
	req := baseRequest()
	req.TavilyAPIKey = "tvly-key"
	req.Finance = noopFinance{}
	req.OnToolCall = func(c models.ToolCallsRequired) { observed = append(observed, c) }
	req.HistoryMessages = []models.LegacyMessage{
		{Role: models.RoleUser, Text: "hi", Ts: 1, CharacterID: "nova"},
		{Role: models.RoleAgentThinking, Text: "thinking..."},
		{Role: models.RoleModel, Text: "hello", Ts: 2, CharacterID: "nova"},
		{Role: models.RoleToolResult, Text: "{}"},
		{Role: models.RoleModel, Text: "oops", Error: true},
	}

	reply, err := s.SendMessage(context.Background(), req, Flags{UseNewAgentSystem: true})
	require.NoError(t, err)
	assert.Equal(t, "2+2 is 4", reply)

	assert.Equal(t, 4, ag.last.MaxIterations)
	assert.Equal(t, "what is 2+2?", ag.last.UserInput)
	ec := ag.last.Context
	require.NotNil(t, ec)
	assert.Equal(t, "sk-test", ec.APIKey)
	assert.Equal(t, "tvly-key", ec.SearchAPIKey)
	assert.NotNil(t, ec.Finance)
	assert.True(t, ec.AllowedTools.Has("calculator"))

	require.Len(t, ag.last.ConversationHistory, 2)
	assert.Equal(t, types.RoleUser, ag.last.ConversationHistory[0].Role)
	assert.Equal(t, types.RoleAI, ag.last.ConversationHistory[1].Role)
	assert.Equal(t, "hello", ag.last.ConversationHistory[1].Text)
	assert.Equal(t, int64(2), ag.last.ConversationHistory[1].Timestamp)
	assert.Equal(t, "legacy", ag.last.ConversationHistory[1].Metadata["originalFormat"])
	assert.Equal(t, "nova", ag.last.ConversationHistory[1].Metadata["characterId"])

	require.Len(t, observed, 1)
	assert.Equal(t, []models.LegacyToolCall{
		{ToolName: "calculator", Parameters: map[string]any{"expression": "2+2"}},
		{ToolName: types.ToolAnswerUser, Parameters: map[string]any{"answer": "2+2 is 4"}},
	}, observed[0].ToolsRequired)
}

func TestSendMessage_LegacyToolRound(t *testing.T) {
	gen := &fakeGenerator{replies: []string{
		"```json\n{\"tools-required\":[{\"tool_name\":\"calculator\",\"parameters\":{\"expression\":\"2+2\"}}]}\n```",
		"  2+2 equals 4.  ",
	}}
	reg, err := functions.Default()
	require.NoError(t, err)
	s := New(Config{Generator: gen, Hands: realHands(t), Catalogue: reg, Persona: llm.Persona{Name: "Nova"}})

	var observed []models.ToolCallsRequired
	req := baseRequest()
	req.OnToolCall = func(c models.ToolCallsRequired) { observed = append(observed, c) }

	reply, err := s.SendMessage(context.Background(), req, Flags{})
	require.NoError(t, err)
	assert.Equal(t, "2+2 equals 4.", reply)

	require.Len(t, gen.prompts, 2)
	assert.Contains(t, gen.prompts[0], "tools-required")
	assert.Contains(t, gen.prompts[0], "calculator")
	assert.NotContains(t, gen.prompts[0], "answerUser")
	assert.Contains(t, gen.prompts[1], "## Tool results")
	assert.Contains(t, gen.prompts[1], "✓ calculator")

	require.Len(t, observed, 1)
	assert.Equal(t, "calculator", observed[0].ToolsRequired[0].ToolName)
}

func TestSendMessage_LegacyGeneratorError(t *testing.T) {
	s := New(Config{Generator: &fakeGenerator{err: errors.New("connection refused")}})
	_, err := s.SendMessage(context.Background(), baseRequest(), Flags{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestLegacyToolCallRoundTrip(t *testing.T) {
	calls, ok := validator.DecodeLegacyToolCalls(`{"tools-required": [{"tool_name":"calculator", "parameters":{"expression":"2+2"}}]}`)
	require.True(t, ok)

	s := New(Config{Hands: realHands(t)})
	ec := &types.ExecutionContext{APIKey: "k", ModelName: "m", AllowedTools: types.NewToolSet("calculator")}
	out := s.DispatchLegacyTools(context.Background(), calls, ec)

	require.Contains(t, out, "calculator")
	got := out["calculator"]
	assert.Equal(t, "calculator", got.ToolName)
	assert.Equal(t, map[string]any{"expression": "2+2"}, got.Parameters)
	assert.True(t, got.Success)
	assert.EqualValues(t, 4, got.Data["result"])

	// The same payload survives a trip through the agent history format.
	var entries []types.ConversationEntry
	for _, cmd := range ToCommands(calls) {
		entries = append(entries, types.ConversationEntry{Role: types.RoleAI, Command: cmd})
	}
	assert.Equal(t, calls, ToolCallsFromHistory(entries))
}
