package brain

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ashutoshrp06/brainhands/internal/llm"
	"github.com/ashutoshrp06/brainhands/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeGenerator struct {
	reply   string
	err     error
	block   bool
	lastReq llm.Request
}

func (f *fakeGenerator) Generate(ctx context.Context, req llm.Request) (string, error) {
	f.lastReq = req
	if f.block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	return f.reply, f.err
}

func toolEntry(name string, success bool) types.ConversationEntry {
	return types.ConversationEntry{
		Role:   types.RoleTool,
		Result: &types.ToolResult{ToolName: name, Success: success},
	}
}

func aiEntry(name string) types.ConversationEntry {
	return types.ConversationEntry{
		Role:    types.RoleAI,
		Command: &types.StructuredCommand{ToolName: name, Parameters: map[string]any{}},
	}
}

func TestDecide(t *testing.T) {
	tests := []struct {
		name     string
		reply    string
		wantTool string
	}{
		{"raw json", `{"tool_name":"answerUser","parameters":{"answer":"Hi"}}`, "answerUser"},
		{"fenced json", "```json\n{\"tool_name\":\"search_web\",\"parameters\":{\"query\":\"go\"}}\n```", "search_web"},
		{"prose", "I am not sure what to do.", ""},
		{"missing parameters", `{"tool_name":"calculator"}`, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen := &fakeGenerator{reply: tt.reply}
			b := New(Config{Generator: gen, Persona: llm.Persona{Name: "Nova"}})

			cmd, err := b.Decide(context.Background(), DecisionRequest{
				History:          []types.ConversationEntry{types.NewUserEntry("hello")},
				APIKey:           "key",
				ModelName:        "model",
				CurrentIteration: 1,
				MaxIterations:    5,
			})
			require.NoError(t, err)

			if tt.wantTool == "" {
				assert.Nil(t, cmd)
				return
			}
			require.NotNil(t, cmd)
			assert.Equal(t, tt.wantTool, cmd.ToolName)
			assert.Equal(t, "key", gen.lastReq.APIKey)
			assert.Equal(t, "model", gen.lastReq.Model)
			assert.Contains(t, gen.lastReq.Prompt, "You are Nova.")
			assert.Contains(t, gen.lastReq.Prompt, "User: hello")
		})
	}
}

func TestDecide_ProviderFailure(t *testing.T) {
	b := New(Config{Generator: &fakeGenerator{err: errors.New("401 unauthorized")}})

	cmd, err := b.Decide(context.Background(), DecisionRequest{})
	assert.Nil(t, cmd)
	require.Error(t, err)

	var ae *types.AgentError
	require.True(t, errors.As(err, &ae))
	assert.Equal(t, types.KindBrainProcessing, ae.Kind)
	assert.Equal(t, types.SubtypeProcessingError, ae.Subtype)
}

func TestDecide_Timeout(t *testing.T) {
	b := New(Config{Generator: &fakeGenerator{block: true}})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := b.Decide(ctx, DecisionRequest{})
	var ae *types.AgentError
	require.True(t, errors.As(err, &ae))
	assert.Equal(t, types.SubtypeTimeout, ae.Subtype)
}

func TestDecide_NoGenerator(t *testing.T) {
	_, err := New(Config{}).Decide(context.Background(), DecisionRequest{})
	assert.Equal(t, types.KindBrainProcessing, types.KindOf(err))
}

func TestDecide_PromptFlagsPendingClarification(t *testing.T) {
	gen := &fakeGenerator{reply: `{"tool_name":"answerUser","parameters":{"answer":"ok"}}`}
	b := New(Config{Generator: gen})

	_, err := b.Decide(context.Background(), DecisionRequest{
		History: []types.ConversationEntry{
			types.NewUserEntry("book a table"),
			aiEntry(types.ToolClarify),
			toolEntry(types.ToolClarify, true),
		},
		ConsecutiveFailures: 2,
		PreviousErrors:      []string{"search_web: timeout"},
	})
	require.NoError(t, err)
	assert.Contains(t, gen.lastReq.Prompt, "wait for their reply")
	assert.Contains(t, gen.lastReq.Prompt, "search_web: timeout")
}

func TestIsTaskComplete(t *testing.T) {
	recent := []types.ConversationEntry{
		types.NewUserEntry("q"),
		aiEntry("search_web"),
		toolEntry("search_web", true),
		aiEntry(types.ToolAnswerUser),
		toolEntry(types.ToolAnswerUser, true),
	}
	assert.True(t, IsTaskComplete(recent, DefaultCompletionLookback))

	// answerUser exactly five entries from the end is still inside the window.
	edge := append(append([]types.ConversationEntry{}, toolEntry(types.ToolAnswerUser, true)),
		types.NewUserEntry("next"), aiEntry("a"), toolEntry("a", true), aiEntry("b"))
	assert.True(t, IsTaskComplete(edge, 5))

	stale := append(append([]types.ConversationEntry{}, edge...), toolEntry("b", true))
	assert.False(t, IsTaskComplete(stale, 5))
	assert.True(t, IsTaskComplete(stale, 6))

	assert.False(t, IsTaskComplete([]types.ConversationEntry{toolEntry(types.ToolAnswerUser, false)}, 5))
	assert.False(t, IsTaskComplete([]types.ConversationEntry{toolEntry(types.ToolClarify, true)}, 5))
	assert.False(t, IsTaskComplete(nil, 0))
}

func TestExtractUserIntent(t *testing.T) {
	assert.Equal(t, "", ExtractUserIntent(nil))

	history := []types.ConversationEntry{
		types.NewUserEntry("first"),
		aiEntry("search_web"),
		types.NewUserEntry("second"),
		toolEntry("search_web", true),
	}
	assert.Equal(t, "second", ExtractUserIntent(history))
}
