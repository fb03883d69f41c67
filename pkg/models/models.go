// Package models holds the legacy chat wire shapes that existing call sites
// exchange with the assistant.
package models

// Legacy history roles.
const (
	RoleUser          = "user"
	RoleModel         = "model"
	RoleToolResult    = "tool-result"
	RoleAgentThinking = "agent-thinking"
)

// LegacyMessage is one message of the single-shot chat history.
type LegacyMessage struct {
	Role        string `json:"role"`
	Text        string `json:"text"`
	Ts          int64  `json:"ts"`
	CharacterID string `json:"characterId,omitempty"`
	Error       bool   `json:"error,omitempty"`
}

// LegacyToolCall is a tool request in the legacy format.
type LegacyToolCall struct {
	ToolName   string         `json:"tool_name"`
	Parameters map[string]any `json:"parameters"`
}

// ToolCallsRequired is the payload handed to legacy tool-call observers.
type ToolCallsRequired struct {
	ToolsRequired []LegacyToolCall `json:"tools-required"`
}

// LegacyToolOutcome is a dispatched legacy tool call and what it produced.
// Legacy callers receive these keyed by tool name.
type LegacyToolOutcome struct {
	ToolName   string         `json:"tool_name"`
	Parameters map[string]any `json:"parameters"`
	Success    bool           `json:"success"`
	Message    string         `json:"message"`
	Data       map[string]any `json:"data,omitempty"`
}

// ToolCallObserver receives the tools the assistant decided to call.
type ToolCallObserver func(ToolCallsRequired)
