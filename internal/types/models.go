// Package types defines shared data structures for the agent runtime.
package types

import "time"

// Role identifies who produced a conversation entry.
type Role string

const (
	RoleUser Role = "user"
	RoleAI   Role = "ai"
	RoleTool Role = "tool"
)

// Terminal tool names. They are always available regardless of allow-lists.
const (
	ToolAnswerUser = "answerUser"
	ToolClarify    = "clarify"
)

// IsTerminalTool reports whether name ends the agent's reasoning chain.
func IsTerminalTool(name string) bool {
	return name == ToolAnswerUser || name == ToolClarify
}

// StructuredCommand is the single action the Brain chooses per iteration.
type StructuredCommand struct {
	ToolName   string         `json:"tool_name"`
	Parameters map[string]any `json:"parameters"`
}

// ConversationEntry is one append-only record of a session. Exactly one of
// Text, Command or Result is set, according to Role.
type ConversationEntry struct {
	Role      Role               `json:"role"`
	Text      string             `json:"text,omitempty"`
	Command   *StructuredCommand `json:"command,omitempty"`
	Result    *ToolResult        `json:"result,omitempty"`
	Timestamp int64              `json:"timestamp"`
	Metadata  map[string]any     `json:"metadata,omitempty"`
}

// Content returns the entry payload: a string, a *StructuredCommand or a *ToolResult.
func (e ConversationEntry) Content() any {
	switch {
	case e.Command != nil:
		return e.Command
	case e.Result != nil:
		return e.Result
	default:
		return e.Text
	}
}

// NewUserEntry builds a user entry stamped with the current time.
func NewUserEntry(text string) ConversationEntry {
	return ConversationEntry{Role: RoleUser, Text: text, Timestamp: NowMillis()}
}

// NowMillis returns the current unix time in milliseconds.
func NowMillis() int64 {
	return time.Now().UnixMilli()
}

// FlowFeedback summarizes how a command travelled from the Brain to the Hands.
type FlowFeedback struct {
	CommandReceived     bool   `json:"commandReceived"`
	ParametersValid     bool   `json:"parametersValid"`
	ExecutionSuccessful bool   `json:"executionSuccessful"`
	FeedbackQuality     string `json:"feedbackQuality"`
}

// Performance records timing details of one tool execution.
type Performance struct {
	StartedAt  int64  `json:"startedAt"`
	FinishedAt int64  `json:"finishedAt"`
	Provider   string `json:"provider,omitempty"`
}

// ResultMetadata is the metadata block attached to every ToolResult.
type ResultMetadata struct {
	ToolName           string         `json:"toolName"`
	ExecutionTime      time.Duration  `json:"executionTime"`
	ParametersProvided []string       `json:"parametersProvided"`
	BrainToHandsFlow   *FlowFeedback  `json:"brainToHandsFlow,omitempty"`
	Performance        *Performance   `json:"performance,omitempty"`
	Extra              map[string]any `json:"extra,omitempty"`
}

// ToolResult is the standard envelope produced by the Hands. A failed
// execution is a normal value with Success=false and ErrorKind set.
type ToolResult struct {
	Success   bool           `json:"success"`
	Message   string         `json:"message"`
	Data      map[string]any `json:"data"`
	ToolName  string         `json:"tool_name"`
	ErrorKind ErrorKind      `json:"error_kind,omitempty"`
	Metadata  ResultMetadata `json:"metadata"`
}

// DataString returns Data[key] when it is a string.
func (r *ToolResult) DataString(key string) string {
	if r == nil || r.Data == nil {
		return ""
	}
	s, _ := r.Data[key].(string)
	return s
}

// ToolDescriptor describes a catalogued tool.
type ToolDescriptor struct {
	AgentID      string            `yaml:"agent_id" json:"agent_id"`
	Description  string            `yaml:"description" json:"description"`
	Category     string            `yaml:"category" json:"category,omitempty"`
	Capabilities []string          `yaml:"capabilities" json:"capabilities"`
	InputFormat  map[string]string `yaml:"input_format" json:"input_format"`
	OutputFormat map[string]string `yaml:"output_format" json:"output_format"`
}

// Session completion reasons.
const (
	ReasonTaskComplete        = "task_complete"
	ReasonClarificationNeeded = "clarification_needed"
	ReasonNoDecision          = "no_decision"
	ReasonGracefulExit        = "graceful_exit"
	ReasonSafetyExit          = "safety_exit"
)

// Safety triggers. They end a session gracefully and are not errors.
const (
	TriggerMaxIterations       = "max_iterations"
	TriggerInfiniteLoop        = "infinite_loop"
	TriggerConsecutiveFailures = "consecutive_failures"
	TriggerTimeout             = "timeout"
)

// Session-level error codes reported in SessionMetadata.Error.
const (
	ErrorValidationFailed      = "validation_failed"
	ErrorBrainProcessingFailed = "brain_processing_failed"
)

// SessionMetadata describes how a session ended.
type SessionMetadata struct {
	SessionID        string        `json:"sessionId"`
	IterationsUsed   int           `json:"iterationsUsed"`
	MaxIterations    int           `json:"maxIterations"`
	CompletionReason string        `json:"completionReason,omitempty"`
	SafetyTrigger    string        `json:"safetyTrigger,omitempty"`
	DetectedPattern  []string      `json:"detectedPattern,omitempty"`
	Error            string        `json:"error,omitempty"`
	ErrorType        string        `json:"errorType,omitempty"`
	ErrorMessage     string        `json:"errorMessage,omitempty"`
	ToolsUsed        []string      `json:"toolsUsed,omitempty"`
	Duration         time.Duration `json:"duration"`
}

// SessionResult is returned by every agent request.
type SessionResult struct {
	Success             bool                `json:"success"`
	Response            string              `json:"response"`
	ConversationHistory []ConversationEntry `json:"conversationHistory"`
	IsPartialResult     bool                `json:"isPartialResult,omitempty"`
	Metadata            SessionMetadata     `json:"metadata"`
}
