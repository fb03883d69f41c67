package compat

import (
	"github.com/ashutoshrp06/brainhands/internal/types"
	"github.com/ashutoshrp06/brainhands/pkg/models"
)

// FilterLegacyHistory drops tool results, thinking indicators and error
// bubbles, which carry no conversational content.
func FilterLegacyHistory(msgs []models.LegacyMessage) []models.LegacyMessage {
	out := make([]models.LegacyMessage, 0, len(msgs))
	for _, m := range msgs {
		if m.Error {
			continue
		}
		if m.Role != models.RoleUser && m.Role != models.RoleModel {
			continue
		}
		out = append(out, m)
	}
	return out
}

// FromLegacyHistory converts legacy chat messages into conversation entries.
func FromLegacyHistory(msgs []models.LegacyMessage) []types.ConversationEntry {
	kept := FilterLegacyHistory(msgs)
	out := make([]types.ConversationEntry, 0, len(kept))
	for _, m := range kept {
		role := types.RoleUser
		if m.Role == models.RoleModel {
			role = types.RoleAI
		}
		out = append(out, types.ConversationEntry{
			Role:      role,
			Text:      m.Text,
			Timestamp: m.Ts,
			Metadata: map[string]any{
				"characterId":    m.CharacterID,
				"originalFormat": "legacy",
			},
		})
	}
	return out
}

// ToolCallsFromHistory collects, in order, every command the Brain issued
// in entries.
func ToolCallsFromHistory(entries []types.ConversationEntry) models.ToolCallsRequired {
	calls := models.ToolCallsRequired{ToolsRequired: []models.LegacyToolCall{}}
	for _, e := range entries {
		if e.Role != types.RoleAI || e.Command == nil || e.Command.ToolName == "" {
			continue
		}
		calls.ToolsRequired = append(calls.ToolsRequired, models.LegacyToolCall{
			ToolName:   e.Command.ToolName,
			Parameters: e.Command.Parameters,
		})
	}
	return calls
}

// ToCommands turns a legacy tool-call payload into structured commands.
func ToCommands(calls models.ToolCallsRequired) []*types.StructuredCommand {
	out := make([]*types.StructuredCommand, 0, len(calls.ToolsRequired))
	for _, c := range calls.ToolsRequired {
		params := c.Parameters
		if params == nil {
			params = map[string]any{}
		}
		out = append(out, &types.StructuredCommand{ToolName: c.ToolName, Parameters: params})
	}
	return out
}

// ToLegacyOutcome maps a tool result back to the legacy result shape.
func ToLegacyOutcome(cmd *types.StructuredCommand, result types.ToolResult) models.LegacyToolOutcome {
	return models.LegacyToolOutcome{
		ToolName:   cmd.ToolName,
		Parameters: cmd.Parameters,
		Success:    result.Success,
		Message:    result.Message,
		Data:       result.Data,
	}
}
