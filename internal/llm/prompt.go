package llm

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/ashutoshrp06/brainhands/internal/types"
	"github.com/ashutoshrp06/brainhands/pkg/models"
)

// Persona is the character the assistant speaks as.
type Persona struct {
	Name         string
	Instructions string
}

// ExecutionStatus is the loop state shown to the model each iteration.
type ExecutionStatus struct {
	CurrentIteration    int
	MaxIterations       int
	ConsecutiveFailures int
	ToolsUsed           []string
	PreviousErrors      []string
	NeedsUserResponse   bool
	RecentFailures      bool
}

// DecisionPrompt holds everything the Brain shows the model.
type DecisionPrompt struct {
	Persona Persona
	Tools   []types.ToolDescriptor
	History []types.ConversationEntry
	Status  ExecutionStatus
}

// BuildDecisionPrompt renders the single prompt asking the model to pick
// exactly one next action.
func BuildDecisionPrompt(p DecisionPrompt) string {
	var sb strings.Builder

	sb.WriteString(personaSection(p.Persona))
	sb.WriteString(`
You work in steps. At every step you choose exactly ONE tool to call. When you
have everything you need, call "answerUser". If the request is ambiguous, call
"clarify" with a short question. Never invent tool names.

Respond with ONLY a JSON object in this exact format, no other text:
{"tool_name": "<tool>", "parameters": {"<param>": <value>}}

`)

	sb.WriteString("## Available tools\n")
	sb.WriteString(buildToolCatalogue(p.Tools))

	sb.WriteString("## Conversation so far\n")
	sb.WriteString(buildConversationHistory(p.History))

	sb.WriteString("## Execution status\n")
	sb.WriteString(buildExecutionStatus(p.Status))

	sb.WriteString("\nReply with the JSON for your next step.")
	return sb.String()
}

// BuildLegacyPrompt renders the single-shot prompt of the legacy chat path.
// When results is non-empty the model is asked to answer from them.
func BuildLegacyPrompt(
	persona Persona,
	history []models.LegacyMessage,
	tools []types.ToolDescriptor,
	message string,
	results map[string]models.LegacyToolOutcome,
) string {
	var sb strings.Builder

	sb.WriteString(personaSection(persona))
	sb.WriteString("\n")

	if len(results) == 0 && len(tools) > 0 {
		sb.WriteString("If you need a tool, reply with ONLY this JSON and nothing else:\n")
		sb.WriteString(`{"tools-required": [{"tool_name": "<tool>", "parameters": {}}]}` + "\n")
		sb.WriteString("Otherwise reply to the user in plain text.\n\n")
		sb.WriteString("## Available tools\n")
		sb.WriteString(buildToolCatalogue(tools))
	}

	sb.WriteString("## Chat history\n")
	if len(history) == 0 {
		sb.WriteString("No previous conversation.\n")
	}
	for _, m := range history {
		role := "User"
		if m.Role == models.RoleModel {
			role = "Assistant"
		}
		sb.WriteString(fmt.Sprintf("%s: %s\n", role, m.Text))
	}
	sb.WriteString("\n")

	if len(results) > 0 {
		sb.WriteString("## Tool results\n")
		names := make([]string, 0, len(results))
		for name := range results {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			r := results[name]
			sb.WriteString(fmt.Sprintf("- %s %s: %s %s\n", status(r.Success), name, r.Message, compactJSON(r.Data, 400)))
		}
		sb.WriteString("\nAnswer the user in plain text using these results.\n\n")
	}

	sb.WriteString("User: " + message + "\n")
	return sb.String()
}

// ─── template section builders ────────────────────────────────────────────────

func personaSection(p Persona) string {
	name := p.Name
	if name == "" {
		name = "a helpful assistant"
	}
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("You are %s.\n", name))
	if p.Instructions != "" {
		sb.WriteString(strings.TrimSpace(p.Instructions) + "\n")
	}
	sb.WriteString("Stay in character. Be concise and friendly.\n")
	return sb.String()
}

// buildToolCatalogue lists each tool with its input and output schema.
func buildToolCatalogue(tools []types.ToolDescriptor) string {
	if len(tools) == 0 {
		return "No tools available.\n\n"
	}

	var sb strings.Builder
	for _, t := range tools {
		sb.WriteString(fmt.Sprintf("- %s: %s\n", t.AgentID, t.Description))
		sb.WriteString("  input: " + schema(t.InputFormat) + "\n")
		sb.WriteString("  output: " + schema(t.OutputFormat) + "\n")
	}
	sb.WriteString("\n")
	return sb.String()
}

func schema(fields map[string]string) string {
	if len(fields) == 0 {
		return "{}"
	}
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+fields[k])
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

// buildConversationHistory renders user messages, decisions and tool results
// so the model can see what it already tried.
func buildConversationHistory(history []types.ConversationEntry) string {
	if len(history) == 0 {
		return "No previous conversation.\n\n"
	}

	var sb strings.Builder
	for _, e := range history {
		switch {
		case e.Role == types.RoleUser:
			sb.WriteString("User: " + e.Text + "\n")
		case e.Command != nil:
			sb.WriteString(fmt.Sprintf("You called: %s %s\n", e.Command.ToolName, compactJSON(e.Command.Parameters, 300)))
		case e.Result != nil:
			sb.WriteString(fmt.Sprintf("  %s %s: %s %s\n",
				status(e.Result.Success), e.Result.ToolName, e.Result.Message, compactJSON(e.Result.Data, 500)))
		case e.Text != "":
			sb.WriteString(capitalize(string(e.Role)) + ": " + e.Text + "\n")
		}
	}
	sb.WriteString("\n")
	return sb.String()
}

func buildExecutionStatus(s ExecutionStatus) string {
	var sb strings.Builder
	ratio := 0.0
	if s.MaxIterations > 0 {
		ratio = float64(s.CurrentIteration) / float64(s.MaxIterations)
	}
	sb.WriteString(fmt.Sprintf("- step %d of %d (%.0f%% of budget used)\n", s.CurrentIteration, s.MaxIterations, ratio*100))
	sb.WriteString(fmt.Sprintf("- consecutive failures: %d\n", s.ConsecutiveFailures))

	tools := "none"
	if len(s.ToolsUsed) > 0 {
		tools = strings.Join(s.ToolsUsed, ", ")
	}
	sb.WriteString("- tools used so far: " + tools + "\n")

	if s.NeedsUserResponse {
		sb.WriteString("- you already asked the user a question; wait for their reply\n")
	}
	if s.RecentFailures {
		sb.WriteString("- recent tool calls failed; change approach or answer with what you have\n")
		for _, e := range s.PreviousErrors {
			sb.WriteString("  - " + truncateHistory(e, 200) + "\n")
		}
	}
	if s.MaxIterations > 0 && s.CurrentIteration >= s.MaxIterations {
		sb.WriteString("- this is your last step: call answerUser now\n")
	}
	return sb.String()
}

// ─── helpers ──────────────────────────────────────────────────────────────────

func status(ok bool) string {
	if ok {
		return "✓"
	}
	return "✗"
}

func compactJSON(v map[string]any, maxLen int) string {
	if len(v) == 0 {
		return ""
	}
	data, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return truncateHistory(string(data), maxLen)
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if size == 0 {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}

// truncateHistory cuts s to at most maxLen bytes on a rune boundary.
func truncateHistory(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	cut := maxLen
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}
