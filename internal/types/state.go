package types

// AgentState represents the current state of agent processing.
type AgentState int

const (
	StateIdle AgentState = iota
	StateThinking
	StateToolCall
	StateToolExecuting
	StateResponding
	StateError
)

// String returns a human-readable state name.
func (s AgentState) String() string {
	names := [...]string{
		"Idle",
		"Thinking",
		"Planning tool call",
		"Executing tool",
		"Responding",
		"Error",
	}
	if int(s) < len(names) {
		return names[s]
	}
	return "Unknown"
}

// AgentEvent is emitted during processing so a UI can show progress.
type AgentEvent struct {
	State       AgentState
	Iteration   int
	Message     string
	ToolCall    *StructuredCommand
	ToolResult  *ToolResult
	FinalAnswer string
	Error       error
}
