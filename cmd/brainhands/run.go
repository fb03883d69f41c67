package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/ashutoshrp06/brainhands/internal/agent"
	"github.com/ashutoshrp06/brainhands/internal/types"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

var (
	runJSON          bool
	runMaxIterations int
	runTimeoutMs     int
	runTools         []string
)

var runCmd = &cobra.Command{
	Use:   "run [query]",
	Short: "Run one agent session and print the full trace",
	Long: `Run a single agent session and print every step: the Brain's
decisions, the Hands' results and how the session ended.

Examples:
  brainhands run "Convert 120 USD to a monthly budget of 4 weeks"
  brainhands run --json --max-iterations 3 "What time is it?"
  brainhands run --tools calculator "What is 2^10?"`,
	Args: cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		runSession(strings.Join(args, " "))
	},
}

func init() {
	runCmd.Flags().BoolVar(&runJSON, "json", false, "Print the session result as JSON")
	runCmd.Flags().IntVar(&runMaxIterations, "max-iterations", 0, "Iteration budget (capped by agent.max_iterations_ceiling)")
	runCmd.Flags().IntVar(&runTimeoutMs, "timeout-ms", 0, "Session timeout in milliseconds")
	runCmd.Flags().StringSliceVar(&runTools, "tools", nil, "Override the allowed tools")
}

// runOutput is the --json document.
type runOutput struct {
	Result types.SessionResult `json:"result"`
	Stats  agent.SessionStats  `json:"stats"`
}

func runSession(query string) {
	a := initApp(!runJSON)
	defer a.Close()

	ec := a.executionContext()
	if len(runTools) > 0 {
		ec.AllowedTools = types.NewToolSet(runTools...)
	}

	res := a.agent.ExecuteAgentRequest(context.Background(), agent.Request{
		UserInput:     query,
		Context:       ec,
		MaxIterations: runMaxIterations,
		TimeoutMs:     runTimeoutMs,
	})
	stats := a.agent.GetSessionStats(res.ConversationHistory)

	if runJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(runOutput{Result: res, Stats: stats}); err != nil {
			printError("encode result", err)
		}
		return
	}

	printTrace(res, stats)
}

func printTrace(res types.SessionResult, stats agent.SessionStats) {
	userStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#06B6D4")).Bold(true)
	aiStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#F59E0B")).Bold(true)
	okStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981"))
	errStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444"))
	dimStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#9CA3AF"))
	titleStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#7C3AED")).Bold(true)

	fmt.Println(titleStyle.Render("Trace"))
	for _, e := range res.ConversationHistory {
		switch e.Role {
		case types.RoleUser:
			fmt.Println(userStyle.Render("user  ") + e.Text)
		case types.RoleAI:
			if e.Command == nil {
				continue
			}
			params, _ := json.Marshal(e.Command.Parameters)
			fmt.Println(aiStyle.Render("brain ") + e.Command.ToolName + " " + dimStyle.Render(string(params)))
		case types.RoleTool:
			if e.Result == nil {
				continue
			}
			if e.Result.Success {
				fmt.Println(okStyle.Render("hands ✓ ") + e.Result.Message)
			} else {
				fmt.Println(errStyle.Render("hands ✗ ") + e.Result.Message)
			}
		}
	}

	fmt.Println()
	fmt.Println(titleStyle.Render("Response"))
	fmt.Println(res.Response)
	fmt.Println()

	md := res.Metadata
	fmt.Println(dimStyle.Render(fmt.Sprintf("session %s", md.SessionID)))
	fmt.Println(dimStyle.Render(fmt.Sprintf("success=%t reason=%s iterations=%d/%d duration=%s",
		res.Success, reasonOf(md), md.IterationsUsed, md.MaxIterations, md.Duration)))
	if md.SafetyTrigger != "" {
		fmt.Println(dimStyle.Render("safety trigger: " + md.SafetyTrigger))
	}
	fmt.Println(dimStyle.Render(fmt.Sprintf("%d decisions, %d tool runs, %d unique tools",
		stats.AIDecisions, stats.ToolExecutions, stats.UniqueToolCount())))
}

func reasonOf(md types.SessionMetadata) string {
	if md.CompletionReason != "" {
		return md.CompletionReason
	}
	return md.Error
}
