package agent

import (
	"testing"

	"github.com/ashutoshrp06/brainhands/internal/types"
	"github.com/stretchr/testify/assert"
)

func TestStats(t *testing.T) {
	history := []types.ConversationEntry{
		types.NewUserEntry("weather?"),
		{Role: types.RoleAI, Command: command("search_web", nil)},
		{Role: types.RoleTool, Result: &types.ToolResult{Success: true, ToolName: "search_web"}},
		{Role: types.RoleAI, Command: command("search_web", nil)},
		{Role: types.RoleTool, Result: &types.ToolResult{Success: true, ToolName: "search_web"}},
		{Role: types.RoleAI, Command: answer("sunny")},
		{Role: types.RoleTool, Result: &types.ToolResult{Success: true, ToolName: types.ToolAnswerUser}},
	}

	first := Stats(history, 5)
	second := Stats(history, 5)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, first.UserMessages)
	assert.Equal(t, 3, first.AIDecisions)
	assert.Equal(t, 3, first.ToolExecutions)
	assert.Equal(t, first.UserMessages+first.AIDecisions+first.ToolExecutions, first.TotalEntries)
	assert.Equal(t, []string{"search_web", types.ToolAnswerUser}, first.UniqueTools)
	assert.Equal(t, 2, first.UniqueToolCount())
	assert.True(t, first.IsTaskComplete)
	assert.Len(t, history, 7)
}

func TestStats_Empty(t *testing.T) {
	s := Stats(nil, 0)
	assert.Zero(t, s.TotalEntries)
	assert.Empty(t, s.UniqueTools)
	assert.False(t, s.IsTaskComplete)
}
