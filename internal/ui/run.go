package ui

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/ashutoshrp06/brainhands/internal/agent"
	"github.com/ashutoshrp06/brainhands/internal/types"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Runner answers one user turn, reporting progress to observe.
type Runner interface {
	Turn(ctx context.Context, input string, observe agent.Observer) types.SessionResult
	Reset()
}

var _ Runner = (*agent.Conversation)(nil)

// TurnTimeout bounds one turn in the interactive UI.
const TurnTimeout = 2 * time.Minute

// TurnCmd returns a Bubble Tea command that runs a turn. Progress events are
// delivered through send; the finished result is the command's message.
func TurnCmd(send func(tea.Msg), r Runner, query string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), TurnTimeout)
		defer cancel()

		res := r.Turn(ctx, query, func(ev types.AgentEvent) {
			switch ev.State {
			case types.StateThinking, types.StateToolCall, types.StateToolExecuting:
				if send != nil {
					send(ev)
				}
			}
		})
		return turnDoneMsg{result: res}
	}
}

// Run starts the interactive UI.
func Run(r Runner, toolNames []string) error {
	var p *tea.Program
	model := NewModel(func(query string) tea.Cmd {
		return TurnCmd(p.Send, r, query)
	}).WithReset(r.Reset).WithTools(toolNames)

	p = tea.NewProgram(model, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("run UI: %w", err)
	}
	return nil
}

// RunOneShot answers a single query, printing progress lines to w.
func RunOneShot(ctx context.Context, w io.Writer, r Runner, query string) types.SessionResult {
	styles := DefaultStyles()
	dim := lipgloss.NewStyle().Foreground(lipgloss.Color("#9CA3AF"))

	res := r.Turn(ctx, query, func(ev types.AgentEvent) {
		switch ev.State {
		case types.StateThinking:
			fmt.Fprintln(w, dim.Render(fmt.Sprintf("… thinking (step %d)", ev.Iteration)))
		case types.StateToolCall:
			if ev.ToolCall != nil && !types.IsTerminalTool(ev.ToolCall.ToolName) {
				line := styles.ToolName.Render("→ " + ev.ToolCall.ToolName)
				if p := formatParams(ev.ToolCall.Parameters); p != "" {
					line += " " + styles.ToolParams.Render("("+p+")")
				}
				fmt.Fprintln(w, line)
			}
		case types.StateToolExecuting:
			if ev.ToolResult == nil || types.IsTerminalTool(ev.ToolResult.ToolName) {
				return
			}
			if ev.ToolResult.Success {
				fmt.Fprintln(w, styles.ToolSuccess.Render("  ✓ "+ev.ToolResult.Message))
			} else {
				fmt.Fprintln(w, styles.ToolError.Render("  ✗ "+ev.ToolResult.Message))
			}
		}
	})

	fmt.Fprintln(w)
	if res.Success {
		fmt.Fprintln(w, lipgloss.NewStyle().Foreground(lipgloss.Color("#F9FAFB")).Render(res.Response))
	} else {
		fmt.Fprintln(w, styles.ToolError.Render("Error: "+res.Response))
	}
	if note := SafetyNote(res.Metadata); note != "" {
		fmt.Fprintln(w, styles.SafetyNote.Render(note))
	}
	fmt.Fprintln(w, dim.Render(StatsLine(res.Metadata)))
	return res
}
