// Package ui provides the terminal user interface using Bubble Tea.
package ui

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/ashutoshrp06/brainhands/internal/types"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Model is the Bubble Tea model for the chat UI.
type Model struct {
	// UI Components
	textInput textinput.Model
	spinner   spinner.Model
	viewport  viewport.Model
	styles    Styles

	// State
	state       types.AgentState
	iteration   int
	messages    []chatMessage
	currentTool *toolExecution
	width       int
	height      int
	ready       bool
	quitting    bool
	err         error

	// Injected
	processQuery func(query string) tea.Cmd
	onReset      func()
	toolNames    []string
}

// chatMessage represents a message in the chat history.
type chatMessage struct {
	role    string // "user", "assistant", "system", "safety", "stats", "tool"
	content string
	tool    *toolExecution
}

// toolExecution tracks a tool call and its result.
type toolExecution struct {
	name      string
	iteration int
	params    map[string]any
	output    string
	success   bool
	message   string
	duration  time.Duration
	done      bool
}

// turnDoneMsg carries the result of a finished turn.
type turnDoneMsg struct {
	result types.SessionResult
}

// NewModel creates a new UI model.
func NewModel(processQuery func(query string) tea.Cmd) Model {
	ti := textinput.New()
	ti.Placeholder = "Ask anything... (e.g., 'What is 15% of 2,340?' or 'How much did I spend on food?')"
	ti.Focus()
	ti.CharLimit = 2000
	ti.Width = 80

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(DefaultTheme().Brand)

	vp := viewport.New(0, 0)
	vp.KeyMap = viewport.DefaultKeyMap()

	return Model{
		textInput:    ti,
		spinner:      s,
		viewport:     vp,
		styles:       DefaultStyles(),
		state:        types.StateIdle,
		messages:     make([]chatMessage, 0),
		processQuery: processQuery,
	}
}

// WithReset sets the callback run by the "clear" command.
func (m Model) WithReset(fn func()) Model {
	m.onReset = fn
	return m
}

// WithTools sets the tool names listed by the "tools" command.
func (m Model) WithTools(names []string) Model {
	m.toolNames = append([]string(nil), names...)
	sort.Strings(m.toolNames)
	return m
}

// Init initializes the model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		textinput.Blink,
		m.spinner.Tick,
	)
}

// headerHeight returns the number of terminal lines occupied by the banner.
func (m Model) headerHeight() int {
	banner := m.styles.BannerTitle.Render(Banner())
	return lipgloss.Height(banner) + 2
}

// footerHeight returns the lines used by the input and help bar.
func (m Model) footerHeight() int {
	return 4
}

// updateViewport rebuilds the viewport content and scrolls to the bottom.
func (m *Model) updateViewport() {
	var b strings.Builder

	for _, msg := range m.messages {
		b.WriteString(m.renderMessage(msg))
		b.WriteString("\n")
	}

	if m.currentTool != nil && !m.currentTool.done {
		b.WriteString(m.renderToolInProgress())
		b.WriteString("\n")
	}

	if m.state != types.StateIdle {
		b.WriteString(m.renderStatus())
		b.WriteString("\n")
	}

	m.viewport.SetContent(b.String())
	m.viewport.GotoBottom()
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			if m.state == types.StateIdle {
				m.quitting = true
				return m, tea.Quit
			}
			m.state = types.StateIdle
			return m, nil

		case tea.KeyEnter:
			if m.state != types.StateIdle {
				return m, nil
			}

			query := strings.TrimSpace(m.textInput.Value())
			if query == "" {
				return m, nil
			}

			if handled, cmd := m.handleCommand(query); handled {
				m.textInput.SetValue("")
				m.updateViewport()
				return m, cmd
			}

			m.messages = append(m.messages, chatMessage{
				role:    "user",
				content: query,
			})

			m.textInput.SetValue("")
			m.state = types.StateThinking
			m.iteration = 0
			m.updateViewport()

			if m.processQuery != nil {
				cmds = append(cmds, m.processQuery(query))
			}

			return m, tea.Batch(cmds...)
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.textInput.Width = msg.Width - 10

		vpWidth := msg.Width
		vpHeight := msg.Height - m.headerHeight() - m.footerHeight()
		if vpHeight < 1 {
			vpHeight = 1
		}

		if !m.ready {
			m.viewport = viewport.New(vpWidth, vpHeight)
			m.viewport.KeyMap = viewport.DefaultKeyMap()
		} else {
			m.viewport.Width = vpWidth
			m.viewport.Height = vpHeight
		}

		m.ready = true
		m.updateViewport()

	case types.AgentEvent:
		m = m.handleAgentEvent(msg)
		m.updateViewport()
		return m, m.spinner.Tick

	case turnDoneMsg:
		m = m.handleTurnDone(msg.result)
		m.updateViewport()
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)
		m.updateViewport()
	}

	if m.state == types.StateIdle {
		var tiCmd tea.Cmd
		m.textInput, tiCmd = m.textInput.Update(msg)
		cmds = append(cmds, tiCmd)
	}

	var vpCmd tea.Cmd
	m.viewport, vpCmd = m.viewport.Update(msg)
	cmds = append(cmds, vpCmd)

	return m, tea.Batch(cmds...)
}

// handleCommand processes special commands. It reports whether input was one.
func (m *Model) handleCommand(input string) (bool, tea.Cmd) {
	switch strings.ToLower(input) {
	case "exit", "quit", "q":
		m.quitting = true
		return true, tea.Quit

	case "clear":
		m.messages = make([]chatMessage, 0)
		if m.onReset != nil {
			m.onReset()
		}
		return true, nil

	case "help", "?":
		m.messages = append(m.messages, chatMessage{
			role: "system",
			content: `Available commands:
  help, ?     Show this help
  clear       Start a fresh conversation
  tools       List the tools the assistant can use
  exit, quit  Exit

Example queries:
  "What is (12.5 * 4) + 7?"
  "Search the web for the latest Go release"
  "I spent 42.50 on groceries today"
  "Am I over budget this month?"`,
		})
		return true, nil

	case "tools":
		content := "No tools are enabled."
		if len(m.toolNames) > 0 {
			content = "Tools available to the assistant:\n  " + strings.Join(m.toolNames, "\n  ")
		}
		m.messages = append(m.messages, chatMessage{role: "system", content: content})
		return true, nil
	}

	return false, nil
}

// handleAgentEvent processes progress events from the running turn.
func (m Model) handleAgentEvent(event types.AgentEvent) Model {
	m.state = event.State
	if event.Iteration > 0 {
		m.iteration = event.Iteration
	}

	switch event.State {
	case types.StateToolCall:
		if event.ToolCall != nil && !types.IsTerminalTool(event.ToolCall.ToolName) {
			m.currentTool = &toolExecution{
				name:      event.ToolCall.ToolName,
				iteration: event.Iteration,
				params:    event.ToolCall.Parameters,
			}
		}

	case types.StateToolExecuting:
		if event.ToolResult != nil && m.currentTool != nil {
			r := event.ToolResult
			m.currentTool.success = r.Success
			m.currentTool.message = r.Message
			m.currentTool.output = summarizeData(r.Data)
			m.currentTool.duration = r.Metadata.ExecutionTime
			m.currentTool.done = true

			m.messages = append(m.messages, chatMessage{
				role: "tool",
				tool: m.currentTool,
			})
			m.currentTool = nil
		}

	case types.StateError:
		m.err = event.Error
		msg := "An error occurred"
		if event.Error != nil {
			msg = event.Error.Error()
		}
		m.messages = append(m.messages, chatMessage{
			role:    "system",
			content: fmt.Sprintf("Error: %s", msg),
		})
		m.state = types.StateIdle
	}

	return m
}

// handleTurnDone renders the outcome of a turn and returns to idle.
func (m Model) handleTurnDone(res types.SessionResult) Model {
	m.currentTool = nil
	m.state = types.StateIdle

	if res.Success {
		if res.Response != "" {
			m.messages = append(m.messages, chatMessage{role: "assistant", content: res.Response})
		}
	} else {
		m.messages = append(m.messages, chatMessage{role: "system", content: "Error: " + res.Response})
	}

	if res.Metadata.SafetyTrigger != "" {
		m.messages = append(m.messages, chatMessage{role: "safety", content: SafetyNote(res.Metadata)})
	}
	m.messages = append(m.messages, chatMessage{role: "stats", content: StatsLine(res.Metadata)})
	return m
}

// View renders the UI.
func (m Model) View() string {
	if m.quitting {
		return m.styles.SystemMessage.Render("Goodbye!\n")
	}

	if !m.ready {
		return "Initializing..."
	}

	var b strings.Builder

	b.WriteString(m.styles.BannerTitle.Render(Banner()))
	b.WriteString("\n\n")

	b.WriteString(m.viewport.View())
	b.WriteString("\n")

	b.WriteString(m.styles.Prompt.Render("> "))
	if m.state == types.StateIdle {
		b.WriteString(m.textInput.View())
	} else {
		b.WriteString(m.styles.StatusText.Render("(working...)"))
	}
	b.WriteString("\n")
	b.WriteString(m.renderHelpBar())

	return m.styles.App.Render(b.String())
}

// renderMessage renders a single chat message.
func (m Model) renderMessage(msg chatMessage) string {
	switch msg.role {
	case "user":
		return m.styles.UserMessage.Render("You: " + msg.content)

	case "assistant":
		return m.styles.AssistantMessage.Render("Assistant: " + msg.content)

	case "system":
		return m.styles.SystemMessage.Render(msg.content)

	case "safety":
		return m.styles.SafetyNote.Render(msg.content)

	case "stats":
		return m.styles.StatsLine.Render(msg.content)

	case "tool":
		if msg.tool != nil {
			return m.renderToolResult(msg.tool)
		}
	}
	return ""
}

// toolHeader renders "Tool: name (k=v, ...)  step n".
func (m Model) toolHeader(t *toolExecution) string {
	var b strings.Builder
	b.WriteString(m.styles.ToolName.Render("Tool: " + t.name))
	if p := formatParams(t.params); p != "" {
		b.WriteString(" ")
		b.WriteString(m.styles.ToolParams.Render("(" + p + ")"))
	}
	if t.iteration > 0 {
		b.WriteString(m.styles.Iteration.Render(fmt.Sprintf("  step %d", t.iteration)))
	}
	return b.String()
}

// renderToolResult renders a completed tool execution.
func (m Model) renderToolResult(t *toolExecution) string {
	var b strings.Builder
	b.WriteString(m.toolHeader(t))
	b.WriteString("\n")

	if t.success {
		b.WriteString(m.styles.ToolSuccess.Render("  ✓ " + t.message))
		if t.duration > 0 {
			b.WriteString(m.styles.ToolParams.Render(fmt.Sprintf(" (%s)", t.duration.Round(time.Millisecond))))
		}
		b.WriteString("\n")
		if t.output != "" {
			for _, line := range strings.Split(t.output, "\n") {
				if line != "" {
					b.WriteString(m.styles.ToolOutput.Render("  | " + line))
					b.WriteString("\n")
				}
			}
		}
	} else {
		b.WriteString(m.styles.ToolError.Render("  ✗ " + t.message))
		b.WriteString("\n")
	}

	return m.styles.ToolBox.Render(b.String())
}

// renderToolInProgress renders a tool that's currently executing.
func (m Model) renderToolInProgress() string {
	var b strings.Builder
	b.WriteString(m.toolHeader(m.currentTool))
	b.WriteString("\n")
	b.WriteString(m.spinner.View())
	b.WriteString(" ")
	b.WriteString(m.styles.StatusText.Render("Executing..."))

	return m.styles.ToolBox.Render(b.String())
}

// renderStatus renders the current processing status.
func (m Model) renderStatus() string {
	label := m.state.String()
	if m.iteration > 0 {
		label = fmt.Sprintf("%s (step %d)", label, m.iteration)
	}
	return fmt.Sprintf("%s %s",
		m.spinner.View(),
		m.styles.StateLabel.Render(label+"..."),
	)
}

// renderHelpBar renders the bottom help bar.
func (m Model) renderHelpBar() string {
	help := []string{
		m.styles.HelpKey.Render("enter") + m.styles.HelpValue.Render(" send"),
		m.styles.HelpKey.Render("ctrl+c") + m.styles.HelpValue.Render(" quit"),
		m.styles.HelpKey.Render("help") + m.styles.HelpValue.Render(" commands"),
		m.styles.HelpKey.Render("tools") + m.styles.HelpValue.Render(" list tools"),
	}
	return m.styles.HelpBar.Render(strings.Join(help, "  |  "))
}

// SafetyNote explains why a session stopped early.
func SafetyNote(md types.SessionMetadata) string {
	switch md.SafetyTrigger {
	case types.TriggerMaxIterations:
		return fmt.Sprintf("Stopped after %d steps.", md.IterationsUsed)
	case types.TriggerInfiniteLoop:
		return "Stopped: the same tools kept repeating (" + strings.Join(md.DetectedPattern, " → ") + ")."
	case types.TriggerConsecutiveFailures:
		return "Stopped after repeated tool failures."
	case types.TriggerTimeout:
		return "Stopped: the session ran out of time."
	}
	return ""
}

// StatsLine summarizes a session in one line.
func StatsLine(md types.SessionMetadata) string {
	parts := []string{fmt.Sprintf("%d/%d steps", md.IterationsUsed, md.MaxIterations)}
	if len(md.ToolsUsed) > 0 {
		parts = append(parts, "tools: "+strings.Join(md.ToolsUsed, ", "))
	}
	if md.Duration > 0 {
		parts = append(parts, md.Duration.Round(10*time.Millisecond).String())
	}
	return strings.Join(parts, " · ")
}

func formatParams(params map[string]any) string {
	if len(params) == 0 {
		return ""
	}
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		out = append(out, fmt.Sprintf("%s=%v", k, params[k]))
	}
	return strings.Join(out, ", ")
}

// summarizeData renders result data compactly, truncated for display.
func summarizeData(data map[string]any) string {
	if len(data) == 0 {
		return ""
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return ""
	}
	out := string(raw)
	if len(out) > 300 {
		out = out[:300] + "..."
	}
	return out
}
